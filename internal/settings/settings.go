// internal/settings/settings.go
//
// Tenant-scoped key → JSON value store, unique on (tenant, key).

package settings

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"

	"github.com/keelhq/tenantcore/internal/apperr"
	"github.com/keelhq/tenantcore/internal/scope"
)

// Setting mirrors one row of the `tenant_settings` table.
type Setting struct {
	ID        uuid.UUID      `db:"id"`
	TenantID  uuid.UUID      `db:"tenant_id"`
	Key       string         `db:"key"`
	Value     types.JSONText `db:"value"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

// Get fetches one setting by key.
func Get(ctx context.Context, s *scope.Scope, key string) (*Setting, error) {
	const query = `
        SELECT id, tenant_id, key, value, created_at, updated_at
        FROM   tenant_settings
        WHERE  tenant_id = $1 AND key = $2`
	var row Setting
	if err := s.Get(ctx, &row, query, s.TenantID(), key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Newf(apperr.NotFound, "setting %q not found", key)
		}
		return nil, err
	}
	return &row, nil
}

// List returns every setting in the scoped tenant, ordered by key.
func List(ctx context.Context, s *scope.Scope) ([]Setting, error) {
	const query = `
        SELECT id, tenant_id, key, value, created_at, updated_at
        FROM   tenant_settings
        WHERE  tenant_id = $1
        ORDER  BY key`
	rows := make([]Setting, 0, 8)
	if err := s.Select(ctx, &rows, query, s.TenantID()); err != nil {
		return nil, err
	}
	return rows, nil
}

// Put upserts a setting keyed on (tenant, key).
func Put(ctx context.Context, s *scope.Scope, key string, value types.JSONText) (*Setting, error) {
	const query = `
        INSERT INTO tenant_settings (id, tenant_id, key, value)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (tenant_id, key) DO UPDATE SET value = EXCLUDED.value
        RETURNING id, tenant_id, key, value, created_at, updated_at`
	var row Setting
	if err := s.Get(ctx, &row, query, uuid.New(), s.TenantID(), key, value); err != nil {
		return nil, err
	}
	return &row, nil
}

// Delete removes a setting.  Deleting an absent key is not an error.
func Delete(ctx context.Context, s *scope.Scope, key string) error {
	_, err := s.Exec(ctx,
		`DELETE FROM tenant_settings WHERE tenant_id = $1 AND key = $2`, s.TenantID(), key)
	return err
}
