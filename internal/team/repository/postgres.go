package repository

import (
	"context"
	"database/sql"
	"errors"

	"strategypilot/backend/internal/team/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a team repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const teamColumns = `id, org_id, name, created_at`

func scanTeam(row interface{ Scan(...any) error }) (*domain.Team, error) {
	var t domain.Team
	if err := row.Scan(&t.ID, &t.OrgID, &t.Name, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByID returns the team for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Team, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = $1`, id)
	t, err := scanTeam(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

// GetByOrgAndName returns the org's team with the given name, or nil if not found.
func (r *PostgresRepository) GetByOrgAndName(ctx context.Context, orgID, name string) (*domain.Team, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+teamColumns+` FROM teams WHERE org_id = $1 AND name = $2`, orgID, name)
	t, err := scanTeam(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

// ListByOrg returns all teams in the org ordered by name.
func (r *PostgresRepository) ListByOrg(ctx context.Context, orgID string) ([]*domain.Team, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+teamColumns+` FROM teams WHERE org_id = $1 ORDER BY name`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTeams(rows)
}

// ListByUser returns the teams the user's memberships reference.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Team, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.org_id, t.name, t.created_at
		FROM teams t
		JOIN memberships m ON m.team_id = t.id
		WHERE m.user_id = $1
		ORDER BY t.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTeams(rows)
}

func collectTeams(rows *sql.Rows) ([]*domain.Team, error) {
	var out []*domain.Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Create persists the team. The team must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, t *domain.Team) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO teams (id, org_id, name, created_at)
		VALUES ($1, $2, $3, $4)`,
		t.ID, t.OrgID, t.Name, t.CreatedAt)
	return err
}

// Rename updates the team name.
func (r *PostgresRepository) Rename(ctx context.Context, id, name string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE teams SET name = $2 WHERE id = $1`, id, name)
	return err
}

// DeleteReassigning moves the team's memberships to fallbackTeamID and
// deletes the team in one transaction, so members are never left pointing at
// a missing team.
func (r *PostgresRepository) DeleteReassigning(ctx context.Context, id, fallbackTeamID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx,
		`UPDATE memberships SET team_id = $2 WHERE team_id = $1`, id, fallbackTeamID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit()
}
