package repository

import (
	"context"
	"database/sql"

	"strategypilot/backend/internal/audit/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit log repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const auditColumns = `id, org_id, user_id, actor_id, action, resource, ip_address, created_at`

func scanAuditLog(row interface{ Scan(...any) error }) (*domain.AuditLog, error) {
	var a domain.AuditLog
	var orgID, userID, actorID sql.NullString
	err := row.Scan(&a.ID, &orgID, &userID, &actorID, &a.Action, &a.Resource, &a.IP, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.OrgID = orgID.String
	a.UserID = userID.String
	a.ActorID = actorID.String
	return &a, nil
}

// Create persists the audit log. The entry must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_logs (id, org_id, user_id, actor_id, action, resource, ip_address, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, nullStr(a.OrgID), nullStr(a.UserID), nullStr(a.ActorID), a.Action, a.Resource, a.IP, a.CreatedAt)
	return err
}

// ListByOrg returns audit logs for the given org, newest first, paginated by limit and offset.
func (r *PostgresRepository) ListByOrg(ctx context.Context, orgID string, limit, offset int32) ([]*domain.AuditLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+auditColumns+` FROM audit_logs WHERE org_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, orgID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAuditLogs(rows)
}

// ListAll returns audit logs across every org, newest first. Reserved for support staff.
func (r *PostgresRepository) ListAll(ctx context.Context, limit, offset int32) ([]*domain.AuditLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+auditColumns+` FROM audit_logs ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAuditLogs(rows)
}

func collectAuditLogs(rows *sql.Rows) ([]*domain.AuditLog, error) {
	var out []*domain.AuditLog
	for rows.Next() {
		a, err := scanAuditLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
