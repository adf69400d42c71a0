// internal/service/service.go
//
// Business rule layer.
//
// Context
// -------
// Every operation here runs inside exactly one scope.Run transaction:
// preconditions are re-validated inside the transaction immediately
// before the write, so two concurrent requests against the same tenant
// cannot both pass a check-then-act window.  Partial unique indexes in
// the schema back the same rules as a second line, and their 23505
// rejections are mapped to the same BusinessRuleViolation the logic
// checks raise.
//
// Every successful mutation appends an audit_log row in the same
// transaction, so the trail and the change commit or roll back together.
package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/keelhq/tenantcore/internal/apperr"
	"github.com/keelhq/tenantcore/internal/audit"
	"github.com/keelhq/tenantcore/internal/database"
	"github.com/keelhq/tenantcore/internal/metrics"
	"github.com/keelhq/tenantcore/internal/scope"
	"github.com/keelhq/tenantcore/internal/tenant"
)

// Service wires the rule layer to the shared pool and the tenant cache.
type Service struct {
	db    *sqlx.DB
	cache *tenant.Cache

	// now is swappable so expiry behavior can be pinned in tests.
	now func() time.Time
}

// New builds a Service.  cache may be nil in tests; invalidation becomes
// a no-op.
func New(db *sqlx.DB, cache *tenant.Cache) *Service {
	return &Service{db: db, cache: cache, now: time.Now}
}

// Actor identifies who performed a mutation for the audit trail.
type Actor struct {
	MembershipID uuid.UUID // uuid.Nil when the caller has no membership yet
	IP           string
	UserAgent    string
}

// ruleViolation counts the rejection and returns the client-facing error.
func ruleViolation(msg string) error {
	metrics.RuleViolationsTotal.Inc()
	return apperr.New(apperr.BusinessRuleViolation, msg)
}

// mapUnique rewrites a constraint rejection into the rule violation the
// logic check would have raised had it won the race.
func mapUnique(err error, msg string) error {
	if database.IsUniqueViolation(err) {
		return ruleViolation(msg)
	}
	return err
}

// record appends one audit row inside the caller's scope.
func (s *Service) record(ctx context.Context, sc *scope.Scope, actor Actor, action, resourceType, resourceID string, details map[string]any) error {
	var payload types.JSONText
	if details != nil {
		b, err := json.Marshal(details)
		if err != nil {
			return apperr.Wrap(apperr.Internal, "encoding audit details", err)
		}
		payload = types.JSONText(b)
	}
	e := audit.Entry{
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Details:      payload,
		IP:           actor.IP,
		UserAgent:    actor.UserAgent,
	}
	if actor.MembershipID != uuid.Nil {
		id := actor.MembershipID
		e.ActorID = &id
	}
	return audit.Record(ctx, sc, e)
}

// invalidate evicts a tenant from the resolver cache after a committed
// change to its row.
func (s *Service) invalidate(slug string) {
	if s.cache != nil {
		s.cache.Invalidate(slug)
	}
}

// ListAuditLog returns the tenant's trail, newest first.
func (s *Service) ListAuditLog(ctx context.Context, tenantID uuid.UUID, limit int) ([]audit.Entry, error) {
	var out []audit.Entry
	err := scope.Run(ctx, s.db, tenantID, func(ctx context.Context, sc *scope.Scope) error {
		rows, err := audit.List(ctx, sc, limit)
		if err != nil {
			return err
		}
		out = rows
		return nil
	})
	return out, err
}
