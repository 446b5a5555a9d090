package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"strategypilot/backend/internal/impersonation/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an impersonation grant repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetActiveByToken returns the unexpired grant for token, or nil. Expired
// grants are invisible to reads; they are deleted lazily by DeleteExpired.
func (r *PostgresRepository) GetActiveByToken(ctx context.Context, token string, now time.Time) (*domain.Grant, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, support_user_id, target_user_id, org_id, token, expires_at, created_at
		FROM impersonation_grants WHERE token = $1 AND expires_at > $2`, token, now)
	var g domain.Grant
	err := row.Scan(&g.ID, &g.SupportUserID, &g.TargetUserID, &g.OrgID, &g.Token, &g.ExpiresAt, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// Create persists the grant. The grant must have ID and Token set.
func (r *PostgresRepository) Create(ctx context.Context, g *domain.Grant) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO impersonation_grants (id, support_user_id, target_user_id, org_id, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		g.ID, g.SupportUserID, g.TargetUserID, g.OrgID, g.Token, g.ExpiresAt, g.CreatedAt)
	return err
}

// DeleteByToken removes the grant. Idempotent.
func (r *PostgresRepository) DeleteByToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM impersonation_grants WHERE token = $1`, token)
	return err
}

// DeleteBySupportUser removes every grant held by supportUserID. Idempotent.
func (r *PostgresRepository) DeleteBySupportUser(ctx context.Context, supportUserID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM impersonation_grants WHERE support_user_id = $1`, supportUserID)
	return err
}

// DeleteExpired removes grants past their expiry and reports how many.
func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM impersonation_grants WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
