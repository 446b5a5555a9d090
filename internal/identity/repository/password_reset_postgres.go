package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"strategypilot/backend/internal/identity/domain"
)

// PasswordResetRepository defines persistence for password-reset tokens.
type PasswordResetRepository interface {
	Create(ctx context.Context, r *domain.PasswordReset) error
	// GetActiveByToken returns the reset for token when it is unused and
	// unexpired at now, or nil.
	GetActiveByToken(ctx context.Context, token string, now time.Time) (*domain.PasswordReset, error)
	// MarkUsed stamps used_at once; the boolean reports whether this call
	// won the stamp.
	MarkUsed(ctx context.Context, id string, at time.Time) (bool, error)
}

type PostgresPasswordResetRepository struct {
	db *sql.DB
}

// NewPostgresPasswordResetRepository returns a password-reset repository
// backed by the given db.
func NewPostgresPasswordResetRepository(db *sql.DB) *PostgresPasswordResetRepository {
	return &PostgresPasswordResetRepository{db: db}
}

// Create persists the reset token. The reset must have ID and Token set.
func (r *PostgresPasswordResetRepository) Create(ctx context.Context, p *domain.PasswordReset) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO password_resets (id, user_id, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.UserID, p.Token, p.ExpiresAt, p.CreatedAt)
	return err
}

// GetActiveByToken returns the unused, unexpired reset for token, or nil.
func (r *PostgresPasswordResetRepository) GetActiveByToken(ctx context.Context, token string, now time.Time) (*domain.PasswordReset, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, token, expires_at, used_at, created_at
		FROM password_resets
		WHERE token = $1 AND used_at IS NULL AND expires_at > $2`, token, now)
	var p domain.PasswordReset
	var used sql.NullTime
	err := row.Scan(&p.ID, &p.UserID, &p.Token, &p.ExpiresAt, &used, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if used.Valid {
		t := used.Time
		p.UsedAt = &t
	}
	return &p, nil
}

// MarkUsed stamps used_at if still unset; reports whether the stamp was won.
func (r *PostgresPasswordResetRepository) MarkUsed(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE password_resets SET used_at = $2 WHERE id = $1 AND used_at IS NULL`, id, at)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
