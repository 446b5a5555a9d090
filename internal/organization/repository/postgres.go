package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"strategypilot/backend/internal/organization/domain"
)

// ErrDomainTaken is returned by Create when the unique constraint on the
// organization domain fires. Sign-up treats it as "someone else registered
// this domain first" and joins the existing org.
var ErrDomainTaken = errors.New("organization domain already registered")

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an organization repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const orgColumns = `id, name, domain, status, created_at`

func scanOrg(row interface{ Scan(...any) error }) (*domain.Org, error) {
	var o domain.Org
	if err := row.Scan(&o.ID, &o.Name, &o.Domain, &o.Status, &o.CreatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

// GetByID returns the organization for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Org, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orgColumns+` FROM organizations WHERE id = $1`, id)
	o, err := scanOrg(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return o, err
}

// GetByDomain returns the organization owning emailDomain, or nil if not found.
func (r *PostgresRepository) GetByDomain(ctx context.Context, emailDomain string) (*domain.Org, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orgColumns+` FROM organizations WHERE domain = $1`, emailDomain)
	o, err := scanOrg(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return o, err
}

// List returns all organizations ordered by name. Support tooling only.
func (r *PostgresRepository) List(ctx context.Context) ([]*domain.Org, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+orgColumns+` FROM organizations ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Org
	for rows.Next() {
		o, err := scanOrg(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Create persists the organization. Returns ErrDomainTaken when the domain
// unique constraint fires.
func (r *PostgresRepository) Create(ctx context.Context, o *domain.Org) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO organizations (id, name, domain, status, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		o.ID, o.Name, o.Domain, o.Status, o.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
		return ErrDomainTaken
	}
	return err
}

// UpdateName renames the organization. The domain is immutable and not
// updatable through any repository method.
func (r *PostgresRepository) UpdateName(ctx context.Context, id, name string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE organizations SET name = $2 WHERE id = $1`, id, name)
	return err
}
