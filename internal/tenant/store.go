// internal/tenant/store.go
//
// Queries over the `tenants` table.
//
// Context
// -------
// Tenants are the root of isolation, so these helpers run UNSCOPED: they
// accept any sqlx queryer (pool or transaction) and are the only data
// access in the scaffold that does not require an established tenant
// scope.  Every mutation helper is expected to be called from inside a
// service-layer transaction; the lookups also serve the request path
// before a scope exists.
package tenant

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/keelhq/tenantcore/internal/apperr"
)

// BySlug fetches a single tenant row by its slug.
func BySlug(ctx context.Context, q sqlx.QueryerContext, slug string) (*Tenant, error) {
	const query = `
        SELECT id, slug, name, status, settings, created_at, updated_at
        FROM   tenants
        WHERE  slug = $1`
	var t Tenant
	if err := sqlx.GetContext(ctx, q, &t, query, slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Newf(apperr.TenantNotFound, "tenant %q not found", slug)
		}
		return nil, err
	}
	return &t, nil
}

// ByID fetches a single tenant row by primary key.
func ByID(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*Tenant, error) {
	const query = `
        SELECT id, slug, name, status, settings, created_at, updated_at
        FROM   tenants
        WHERE  id = $1`
	var t Tenant
	if err := sqlx.GetContext(ctx, q, &t, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.TenantNotFound, "tenant not found")
		}
		return nil, err
	}
	return &t, nil
}

// SlugTaken reports whether any tenant already claims slug.
func SlugTaken(ctx context.Context, q sqlx.QueryerContext, slug string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM tenants WHERE slug = $1)`
	var taken bool
	if err := sqlx.GetContext(ctx, q, &taken, query, slug); err != nil {
		return false, err
	}
	return taken, nil
}

// Insert writes a new tenant row and returns it with DB-assigned
// timestamps.
func Insert(ctx context.Context, q sqlx.QueryerContext, t *Tenant) (*Tenant, error) {
	const query = `
        INSERT INTO tenants (id, slug, name, status, settings)
        VALUES ($1, $2, $3, $4, COALESCE($5, '{}'::jsonb))
        RETURNING id, slug, name, status, settings, created_at, updated_at`
	var out Tenant
	if err := sqlx.GetContext(ctx, q, &out, query,
		t.ID, t.Slug, t.Name, t.Status, t.Settings); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update writes name and settings for an existing tenant.
func Update(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID, name string, settings []byte) (*Tenant, error) {
	const query = `
        UPDATE tenants
        SET    name = $2, settings = COALESCE($3, settings)
        WHERE  id = $1
        RETURNING id, slug, name, status, settings, created_at, updated_at`
	var out Tenant
	if err := sqlx.GetContext(ctx, q, &out, query, id, name, settings); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.TenantNotFound, "tenant not found")
		}
		return nil, err
	}
	return &out, nil
}

// UpdateStatus moves the tenant between active, suspended, and cancelled.
func UpdateStatus(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID, status Status) (*Tenant, error) {
	const query = `
        UPDATE tenants
        SET    status = $2
        WHERE  id = $1
        RETURNING id, slug, name, status, settings, created_at, updated_at`
	var out Tenant
	if err := sqlx.GetContext(ctx, q, &out, query, id, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.TenantNotFound, "tenant not found")
		}
		return nil, err
	}
	return &out, nil
}

// Delete removes a tenant row.  Memberships, invitations, settings, and
// audit entries go with it via ON DELETE CASCADE; the service layer must
// have verified the membership count is zero first.
func Delete(ctx context.Context, e sqlx.ExecerContext, id uuid.UUID) error {
	res, err := e.ExecContext(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.New(apperr.TenantNotFound, "tenant not found")
	}
	return nil
}
