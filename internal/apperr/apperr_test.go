// internal/apperr/apperr_test.go
//
// Unit-tests for the error taxonomy: kind extraction through wrap chains
// and the HTTP status mapping.

package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf_WrapChain(t *testing.T) {
	base := New(BusinessRuleViolation, "tenant already has an owner")
	wrapped := fmt.Errorf("create membership: %w", base)

	if got := KindOf(wrapped); got != BusinessRuleViolation {
		t.Fatalf("KindOf = %v, want BusinessRuleViolation", got)
	}
	if got := KindOf(errors.New("plain")); got != Internal {
		t.Fatalf("KindOf(plain) = %v, want Internal", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{TenantNotFound, http.StatusNotFound},
		{TenantRequired, http.StatusBadRequest},
		{MembershipNotFound, http.StatusNotFound},
		{InsufficientPermissions, http.StatusForbidden},
		{BusinessRuleViolation, http.StatusConflict},
		{ValidationError, http.StatusBadRequest},
		{ContextMissing, http.StatusInternalServerError},
		{NotFound, http.StatusNotFound},
		{Internal, http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := c.kind.HTTPStatus(); got != c.want {
			t.Errorf("%v.HTTPStatus() = %d, want %d", c.kind, got, c.want)
		}
	}
}

func TestMessageOf_HidesInternals(t *testing.T) {
	if got := MessageOf(Wrap(ContextMissing, "scope not established", errors.New("nil tx"))); got != "internal error" {
		t.Fatalf("ContextMissing leaked: %q", got)
	}
	if got := MessageOf(New(TenantRequired, "tenant is required")); got != "tenant is required" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestInvalid_CarriesFields(t *testing.T) {
	err := Invalid("invalid input", map[string]string{"slug": "must be 2-50 lowercase characters"})
	if got := FieldsOf(err); got["slug"] == "" {
		t.Fatalf("field detail lost: %#v", got)
	}
}
