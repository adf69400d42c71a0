// internal/audit/audit.go
//
// Append-only audit trail.
//
// Context
// -------
// Every mutating service operation records one entry in the same
// transaction as the mutation it describes, so the trail can never show
// an action that rolled back or miss one that committed.  The table
// carries only INSERT and SELECT policies; the application has no code
// path that updates or deletes an entry.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"

	"github.com/keelhq/tenantcore/internal/scope"
)

// Entry mirrors one row of the `audit_log` table.
type Entry struct {
	ID           uuid.UUID      `db:"id"`
	TenantID     uuid.UUID      `db:"tenant_id"`
	ActorID      *uuid.UUID     `db:"actor_id"`
	Action       string         `db:"action"`
	ResourceType string         `db:"resource_type"`
	ResourceID   string         `db:"resource_id"`
	Details      types.JSONText `db:"details"`
	IP           string         `db:"ip"`
	UserAgent    string         `db:"user_agent"`
	CreatedAt    time.Time      `db:"created_at"`
}

// Record appends an entry inside the given scope.  Tenant id is stamped
// from the scope; the caller fills everything else.
func Record(ctx context.Context, s *scope.Scope, e Entry) error {
	const query = `
        INSERT INTO audit_log (id, tenant_id, actor_id, action, resource_type, resource_id, details, ip, user_agent)
        VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, '{}'::jsonb), $8, $9)`
	id := e.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	_, err := s.Exec(ctx, query,
		id, s.TenantID(), e.ActorID, e.Action, e.ResourceType, e.ResourceID,
		e.Details, e.IP, e.UserAgent)
	return err
}

// List returns the scoped tenant's trail, newest first, capped at limit
// (default 100, ceiling 500).
func List(ctx context.Context, s *scope.Scope, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}
	const query = `
        SELECT id, tenant_id, actor_id, action, resource_type, resource_id, details, ip, user_agent, created_at
        FROM   audit_log
        WHERE  tenant_id = $1
        ORDER  BY created_at DESC
        LIMIT  $2`
	rows := make([]Entry, 0, limit)
	if err := s.Select(ctx, &rows, query, s.TenantID(), limit); err != nil {
		return nil, err
	}
	return rows, nil
}
