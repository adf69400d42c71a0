// internal/httpapi/middleware_test.go
//
// End-to-end binding through the real router: resolver → cache load →
// scoped membership lookup → handler, all against sqlmock.

package httpapi

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/keelhq/tenantcore/internal/scope"
	"github.com/keelhq/tenantcore/internal/service"
	"github.com/keelhq/tenantcore/internal/tenant"
)

var testSecret = []byte("httpapi-test-secret")

func testToken(t *testing.T, sub, email string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   sub,
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

// newTestAPI wires a full router over sqlmock with a header resolver.
func newTestAPI(t *testing.T) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { raw.Close() })

	db := sqlx.NewDb(raw, "sqlmock")
	cache := tenant.NewCache(db, time.Minute, 16)
	svc := service.New(db, cache)
	api := New(svc, db, cache, tenant.ResolverConfig{
		Source:   tenant.SourceHeader,
		Header:   "X-Tenant",
		Required: true,
	}, testSecret)
	return api.Routes(), mock
}

func expectTenantLoad(mock sqlmock.Sqlmock, tid uuid.UUID, slug, status string) {
	now := time.Now()
	mock.ExpectQuery(`FROM\s+tenants\s+WHERE\s+slug = \$1`).
		WithArgs(slug).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "slug", "name", "status", "settings", "created_at", "updated_at"}).
			AddRow(tid, slug, "Acme Inc", status, []byte(`{}`), now, now))
}

func expectMemberLookup(mock sqlmock.Sqlmock, tid uuid.UUID, ext string, rows *sqlmock.Rows) {
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SELECT set_config($1, $2, true)`)).
		WithArgs(scope.SessionVar, tid.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	q := mock.ExpectQuery(`FROM\s+tenant_users\s+WHERE\s+tenant_id = \$1 AND external_id = \$2`).
		WithArgs(tid, ext)
	if rows != nil {
		q.WillReturnRows(rows)
		mock.ExpectCommit()
	} else {
		q.WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectRollback()
	}
}

func memberRows(mid, tid uuid.UUID, ext, role string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "tenant_id", "external_id", "email", "role", "status",
		"metadata", "last_login_at", "created_at", "updated_at",
	}).AddRow(mid, tid, ext, "a@acme.com", role, "active", []byte(`{}`), nil, now, now)
}

func TestGetTenant_BoundMember(t *testing.T) {
	h, mock := newTestAPI(t)
	tid, mid := uuid.New(), uuid.New()

	expectTenantLoad(mock, tid, "acme", "active")
	expectMemberLookup(mock, tid, "ext_1", memberRows(mid, tid, "ext_1", "viewer"))

	r := httptest.NewRequest("GET", "/tenant", nil)
	r.Header.Set("X-Tenant", "acme")
	r.Header.Set("Authorization", "Bearer "+testToken(t, "ext_1", "a@acme.com"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if got := w.Body.String(); !regexp.MustCompile(`"slug":"acme"`).MatchString(got) {
		t.Fatalf("body = %s", got)
	}
}

func TestGetTenant_MissingHeader(t *testing.T) {
	h, _ := newTestAPI(t)

	r := httptest.NewRequest("GET", "/tenant", nil)
	r.Header.Set("Authorization", "Bearer "+testToken(t, "ext_1", "a@acme.com"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if got := w.Body.String(); !regexp.MustCompile(`"kind":"tenant_required"`).MatchString(got) {
		t.Fatalf("body = %s", got)
	}
}

func TestGetTenant_UnknownTenant(t *testing.T) {
	h, mock := newTestAPI(t)

	mock.ExpectQuery(`FROM\s+tenants\s+WHERE\s+slug = \$1`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	r := httptest.NewRequest("GET", "/tenant", nil)
	r.Header.Set("X-Tenant", "ghost")
	r.Header.Set("Authorization", "Bearer "+testToken(t, "ext_1", "a@acme.com"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestGetTenant_CancelledTenantHidden(t *testing.T) {
	h, mock := newTestAPI(t)
	tid := uuid.New()

	expectTenantLoad(mock, tid, "gone", "cancelled")

	r := httptest.NewRequest("GET", "/tenant", nil)
	r.Header.Set("X-Tenant", "gone")
	r.Header.Set("Authorization", "Bearer "+testToken(t, "ext_1", "a@acme.com"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestGetTenant_NonMember(t *testing.T) {
	h, mock := newTestAPI(t)
	tid := uuid.New()

	expectTenantLoad(mock, tid, "acme", "active")
	expectMemberLookup(mock, tid, "ext_9", nil)

	r := httptest.NewRequest("GET", "/tenant", nil)
	r.Header.Set("X-Tenant", "acme")
	r.Header.Set("Authorization", "Bearer "+testToken(t, "ext_9", "x@other.com"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if got := w.Body.String(); !regexp.MustCompile(`"kind":"membership_not_found"`).MatchString(got) {
		t.Fatalf("body = %s", got)
	}
}

func TestViewerCannotManageMembers(t *testing.T) {
	h, mock := newTestAPI(t)
	tid, mid := uuid.New(), uuid.New()

	expectTenantLoad(mock, tid, "acme", "active")
	expectMemberLookup(mock, tid, "ext_1", memberRows(mid, tid, "ext_1", "viewer"))

	r := httptest.NewRequest("DELETE", "/tenant/members/"+uuid.NewString(), nil)
	r.Header.Set("X-Tenant", "acme")
	r.Header.Set("Authorization", "Bearer "+testToken(t, "ext_1", "a@acme.com"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403, body = %s", w.Code, w.Body.String())
	}
}

func TestUnauthenticated(t *testing.T) {
	h, _ := newTestAPI(t)

	r := httptest.NewRequest("GET", "/tenant", nil)
	r.Header.Set("X-Tenant", "acme")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestHealthz(t *testing.T) {
	h, _ := newTestAPI(t)

	r := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("security headers missing")
	}
}
