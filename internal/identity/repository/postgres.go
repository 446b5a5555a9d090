package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"strategypilot/backend/internal/identity/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an identity repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByUserAndProvider returns the identity for the given user and provider,
// or nil if not found. It returns an error only for database failures.
func (r *PostgresRepository) GetByUserAndProvider(ctx context.Context, userID string, provider domain.IdentityProvider) (*domain.Identity, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, provider, provider_id, password_hash, confirmed_at, created_at
		FROM identities WHERE user_id = $1 AND provider = $2`, userID, provider)
	var i domain.Identity
	var confirmed sql.NullTime
	err := row.Scan(&i.ID, &i.UserID, &i.Provider, &i.ProviderID, &i.PasswordHash, &confirmed, &i.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if confirmed.Valid {
		t := confirmed.Time
		i.ConfirmedAt = &t
	}
	return &i, nil
}

// Create persists the identity. The identity must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, i *domain.Identity) error {
	var confirmed sql.NullTime
	if i.ConfirmedAt != nil {
		confirmed = sql.NullTime{Time: *i.ConfirmedAt, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO identities (id, user_id, provider, provider_id, password_hash, confirmed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		i.ID, i.UserID, i.Provider, i.ProviderID, i.PasswordHash, confirmed, i.CreatedAt)
	return err
}

// UpdatePasswordHash replaces the stored password hash for id.
func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE identities SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	return err
}

// Confirm stamps the identity's email confirmation time if not already set.
func (r *PostgresRepository) Confirm(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE identities SET confirmed_at = $2 WHERE id = $1 AND confirmed_at IS NULL`, id, at)
	return err
}
