package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"strategypilot/backend/internal/invitation/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an invitation repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const invitationColumns = `id, org_id, team_id, email, role, invited_by, token, expires_at, accepted_at, created_at`

func scanInvitation(row interface{ Scan(...any) error }) (*domain.Invitation, error) {
	var i domain.Invitation
	var teamID sql.NullString
	var accepted sql.NullTime
	err := row.Scan(&i.ID, &i.OrgID, &teamID, &i.Email, &i.Role, &i.InvitedBy,
		&i.Token, &i.ExpiresAt, &accepted, &i.CreatedAt)
	if err != nil {
		return nil, err
	}
	if teamID.Valid {
		s := teamID.String
		i.TeamID = &s
	}
	if accepted.Valid {
		t := accepted.Time
		i.AcceptedAt = &t
	}
	return &i, nil
}

// GetPendingByToken returns the unaccepted invitation for token, or nil.
// The accepted_at IS NULL filter is what makes acceptance single-use: once
// stamped, the same token finds no row.
func (r *PostgresRepository) GetPendingByToken(ctx context.Context, token string) (*domain.Invitation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE token = $1 AND accepted_at IS NULL`, token)
	i, err := scanInvitation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return i, err
}

// ListPendingByOrg returns unaccepted, unexpired invitations for the org.
func (r *PostgresRepository) ListPendingByOrg(ctx context.Context, orgID string) ([]*domain.Invitation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+invitationColumns+` FROM invitations
		WHERE org_id = $1 AND accepted_at IS NULL AND expires_at > now()
		ORDER BY created_at DESC`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Invitation
	for rows.Next() {
		i, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// Create persists the invitation. The invitation must have ID and Token set.
func (r *PostgresRepository) Create(ctx context.Context, i *domain.Invitation) error {
	var teamID sql.NullString
	if i.TeamID != nil {
		teamID = sql.NullString{String: *i.TeamID, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO invitations (id, org_id, team_id, email, role, invited_by, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		i.ID, i.OrgID, teamID, i.Email, i.Role, i.InvitedBy, i.Token, i.ExpiresAt, i.CreatedAt)
	return err
}

// MarkAccepted stamps accepted_at only when still unaccepted, returning
// whether this call won the stamp.
func (r *PostgresRepository) MarkAccepted(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE invitations SET accepted_at = $2 WHERE id = $1 AND accepted_at IS NULL`, id, at)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Delete removes the invitation (revocation of a pending invite).
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM invitations WHERE id = $1`, id)
	return err
}
