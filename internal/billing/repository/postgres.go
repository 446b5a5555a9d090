package repository

import (
	"context"
	"database/sql"
	"errors"

	"strategypilot/backend/internal/billing/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a subscription repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByOrg returns the org's subscription, or nil if none exists yet.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByOrg(ctx context.Context, orgID string) (*domain.Subscription, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, org_id, plan_id, status, provider_customer_id, annual, nonprofit, seat_count, current_period_end, created_at, updated_at
		FROM subscriptions WHERE org_id = $1`, orgID)
	var s domain.Subscription
	var periodEnd sql.NullTime
	err := row.Scan(&s.ID, &s.OrgID, &s.PlanID, &s.Status, &s.ProviderCustomerID,
		&s.Annual, &s.Nonprofit, &s.SeatCount, &periodEnd, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if periodEnd.Valid {
		t := periodEnd.Time
		s.CurrentPeriodEnd = &t
	}
	return &s, nil
}

// Upsert creates or replaces the org's subscription row (one row per org).
func (r *PostgresRepository) Upsert(ctx context.Context, s *domain.Subscription) error {
	var periodEnd sql.NullTime
	if s.CurrentPeriodEnd != nil {
		periodEnd = sql.NullTime{Time: *s.CurrentPeriodEnd, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO subscriptions (id, org_id, plan_id, status, provider_customer_id, annual, nonprofit, seat_count, current_period_end, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (org_id) DO UPDATE SET
			plan_id = EXCLUDED.plan_id,
			status = EXCLUDED.status,
			provider_customer_id = EXCLUDED.provider_customer_id,
			annual = EXCLUDED.annual,
			nonprofit = EXCLUDED.nonprofit,
			seat_count = EXCLUDED.seat_count,
			current_period_end = EXCLUDED.current_period_end,
			updated_at = EXCLUDED.updated_at`,
		s.ID, s.OrgID, s.PlanID, s.Status, s.ProviderCustomerID,
		s.Annual, s.Nonprofit, s.SeatCount, periodEnd, s.CreatedAt, s.UpdatedAt)
	return err
}
