package repository

import (
	"context"
	"database/sql"
	"errors"

	"strategypilot/backend/internal/membership/domain"
	"strategypilot/backend/internal/platform/roles"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a membership repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const membershipColumns = `id, user_id, org_id, team_id, role, created_at`

func scanMembership(row interface{ Scan(...any) error }) (*domain.Membership, error) {
	var m domain.Membership
	var teamID sql.NullString
	if err := row.Scan(&m.ID, &m.UserID, &m.OrgID, &teamID, &m.Role, &m.CreatedAt); err != nil {
		return nil, err
	}
	if teamID.Valid {
		s := teamID.String
		m.TeamID = &s
	}
	return &m, nil
}

// GetByID returns the membership for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Membership, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+membershipColumns+` FROM memberships WHERE id = $1`, id)
	m, err := scanMembership(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

// GetByUserAndOrg returns the membership for the given user and org, or nil if not found.
func (r *PostgresRepository) GetByUserAndOrg(ctx context.Context, userID, orgID string) (*domain.Membership, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE user_id = $1 AND org_id = $2`, userID, orgID)
	m, err := scanMembership(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

// ListByUser returns all memberships held by the user, oldest first, so the
// primary-membership fallback ("first found") is stable.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Membership, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE user_id = $1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMemberships(rows)
}

// ListByOrg returns all memberships in the org.
func (r *PostgresRepository) ListByOrg(ctx context.Context, orgID string) ([]*domain.Membership, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE org_id = $1 ORDER BY created_at, id`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMemberships(rows)
}

func collectMemberships(rows *sql.Rows) ([]*domain.Membership, error) {
	var out []*domain.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Create persists the membership. The membership must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, m *domain.Membership) error {
	var teamID sql.NullString
	if m.TeamID != nil {
		teamID = sql.NullString{String: *m.TeamID, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO memberships (id, user_id, org_id, team_id, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.UserID, m.OrgID, teamID, m.Role, m.CreatedAt)
	return err
}

// UpdateRole changes the membership's role.
func (r *PostgresRepository) UpdateRole(ctx context.Context, userID, orgID string, role roles.Role) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE memberships SET role = $3 WHERE user_id = $1 AND org_id = $2`, userID, orgID, role)
	return err
}

// UpdateTeam moves the membership to teamID (nil detaches).
func (r *PostgresRepository) UpdateTeam(ctx context.Context, userID, orgID string, teamID *string) error {
	var v sql.NullString
	if teamID != nil {
		v = sql.NullString{String: *teamID, Valid: true}
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE memberships SET team_id = $3 WHERE user_id = $1 AND org_id = $2`, userID, orgID, v)
	return err
}

// DeleteByUserAndOrg removes the membership.
func (r *PostgresRepository) DeleteByUserAndOrg(ctx context.Context, userID, orgID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM memberships WHERE user_id = $1 AND org_id = $2`, userID, orgID)
	return err
}

// CountByOrg returns the number of memberships in the org. Billing uses this
// as the seat count.
func (r *PostgresRepository) CountByOrg(ctx context.Context, orgID string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM memberships WHERE org_id = $1`, orgID).Scan(&n)
	return n, err
}
