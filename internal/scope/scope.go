// internal/scope/scope.go
//
// Session-scoped data access gateway.
//
/*
Context
--------
Row-level security on every tenant-scoped table reads the Postgres
session variable `app.tenant_id`.  This package is the only place that
variable is ever set, and it is set with `set_config(…, true)` INSIDE a
transaction: a transaction-local GUC reverts automatically at COMMIT or
ROLLBACK, so a pooled connection can never carry one operation's scope
into the next.  That property, plus the deferred rollback, is the whole
isolation story:

  1. Begin transaction.
  2. set_config('app.tenant_id', <id>, true)   -- local to this tx
  3. Run the caller's operation with an explicit *Scope handle.
  4. Commit on success; the deferred rollback covers every other exit
     path, including panics.  Either way the GUC is gone with the tx.

The *Scope handle is threaded explicitly through every tenant-scoped
store call; there is no ambient global.  A nil or already-released Scope
fails loudly with ContextMissing, which the HTTP layer treats as a
programming defect (500), never a client error.

Scoped INSERTs take the tenant id from Scope.TenantID(), never from a
caller-supplied payload, so a hostile payload cannot write into a foreign
tenant even if a policy were mis-declared.  RLS remains the backstop
underneath both.
*/
package scope

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/keelhq/tenantcore/internal/apperr"
	"github.com/keelhq/tenantcore/internal/metrics"
)

// SessionVar is the transaction-local GUC the RLS policies read.  The
// name is fixed: migrations/0002_rls.sql declares every policy against
// current_setting('app.tenant_id', true).
const SessionVar = "app.tenant_id"

// Scope is a live tenant-scoped transaction.  It is valid only inside
// the Run callback that produced it.
type Scope struct {
	tx       *sqlx.Tx
	tenantID uuid.UUID
}

// TenantID returns the tenant this scope is bound to.  Scoped mutation
// helpers stamp this value onto every row they create.
func (s *Scope) TenantID() uuid.UUID { return s.tenantID }

// guard rejects use of a nil or released scope.
func (s *Scope) guard() error {
	if s == nil || s.tx == nil {
		return apperr.New(apperr.ContextMissing, "tenant scope not established")
	}
	return nil
}

// Get runs a single-row query inside the scope.
func (s *Scope) Get(ctx context.Context, dest any, query string, args ...any) error {
	if err := s.guard(); err != nil {
		return err
	}
	return s.tx.GetContext(ctx, dest, query, args...)
}

// Select runs a multi-row query inside the scope.
func (s *Scope) Select(ctx context.Context, dest any, query string, args ...any) error {
	if err := s.guard(); err != nil {
		return err
	}
	return s.tx.SelectContext(ctx, dest, query, args...)
}

// Exec runs a statement inside the scope.
func (s *Scope) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	return s.tx.ExecContext(ctx, query, args...)
}

// Unscoped exposes the underlying transaction for the few queries that
// legitimately run without tenant filtering (the tenants table itself).
// Everything else goes through Get/Select/Exec.
func (s *Scope) Unscoped() (*sqlx.Tx, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	return s.tx, nil
}

// Run executes fn inside one tenant-scoped transaction.
//
// The scope handle passed to fn is released before Run returns, so a
// callback that leaks it cannot touch the pool afterwards; any later
// call fails with ContextMissing.
func Run(ctx context.Context, db *sqlx.DB, tenantID uuid.UUID, fn func(ctx context.Context, s *Scope) error) error {
	if tenantID == uuid.Nil {
		return apperr.New(apperr.ContextMissing, "tenant scope requested without a tenant id")
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "begin tenant scope", err)
	}
	metrics.ScopeOpenTotal.Inc()

	s := &Scope{tx: tx, tenantID: tenantID}
	defer func() {
		s.tx = nil
		// No-op after a successful commit; otherwise this is the
		// teardown path for errors and panics alike.
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		`SELECT set_config($1, $2, true)`, SessionVar, tenantID.String()); err != nil {
		metrics.ScopeFailTotal.Inc()
		return apperr.Wrap(apperr.Internal, "bind tenant scope", err)
	}

	if err := fn(ctx, s); err != nil {
		metrics.ScopeFailTotal.Inc()
		return err
	}

	if err := tx.Commit(); err != nil {
		metrics.ScopeFailTotal.Inc()
		return apperr.Wrap(apperr.Internal, "commit tenant scope", err)
	}
	return nil
}
