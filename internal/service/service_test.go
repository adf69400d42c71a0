// internal/service/service_test.go
//
// Shared sqlmock fixtures.  Every scenario drives the real scope.Run
// path, so transaction begin, set_config binding, and commit/rollback
// ordering are part of each expectation.

package service

import (
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/keelhq/tenantcore/internal/scope"
)

var (
	setConfigRe = regexp.QuoteMeta(`SELECT set_config($1, $2, true)`)

	tenantCols = []string{"id", "slug", "name", "status", "settings", "created_at", "updated_at"}
	memberCols = []string{
		"id", "tenant_id", "external_id", "email", "role", "status",
		"metadata", "last_login_at", "created_at", "updated_at",
	}
	inviteCols = []string{
		"id", "tenant_id", "email", "role", "invited_by", "token", "status",
		"expires_at", "accepted_at", "created_at", "updated_at",
	}
)

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, "sqlmock"), nil), mock
}

// expectScope primes the transaction open and session binding for a
// known tenant id.
func expectScope(mock sqlmock.Sqlmock, tid uuid.UUID) {
	mock.ExpectBegin()
	mock.ExpectExec(setConfigRe).
		WithArgs(scope.SessionVar, tid.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

// expectScopeAny is expectScope for operations that generate the tenant
// id internally.
func expectScopeAny(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectExec(setConfigRe).
		WithArgs(scope.SessionVar, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func expectAudit(mock sqlmock.Sqlmock) {
	mock.ExpectExec(`INSERT INTO audit_log`).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func existsRow(v bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"exists"}).AddRow(v)
}

func countRow(n int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count"}).AddRow(n)
}

func tenantRow(id uuid.UUID, slug, name, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(tenantCols).
		AddRow(id, slug, name, status, []byte(`{}`), now, now)
}

func memberRow(id, tid uuid.UUID, ext, email, role, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(memberCols).
		AddRow(id, tid, ext, email, role, status, []byte(`{}`), nil, now, now)
}

func inviteRow(id, tid uuid.UUID, email, role, token, status string, expiresAt time.Time) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(inviteCols).
		AddRow(id, tid, email, role, nil, token, status, expiresAt, nil, now, now)
}
