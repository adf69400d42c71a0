// internal/tenant/resolver_test.go
//
// Table tests for ResolverConfig.Resolve.
//
// Context
// -------
// The resolver is pure request → slug logic, so each case builds an
// httptest request and asserts slug plus error kind.  Covered behaviours:
//
//   • header, subdomain, query, and path extraction
//   • subdomain exclusion list (www, localhost)
//   • fallback slug only when optional
//   • TenantRequired when required and nothing matched

package tenant

import (
	"net/http/httptest"
	"testing"

	"github.com/keelhq/tenantcore/internal/apperr"
)

func TestResolve(t *testing.T) {
	cases := []struct {
		name     string
		cfg      ResolverConfig
		target   string
		host     string
		header   map[string]string
		want     string
		wantKind apperr.Kind
		wantErr  bool
	}{
		{
			name:   "header hit",
			cfg:    ResolverConfig{Source: SourceHeader, Header: "X-Tenant", Required: true},
			target: "/",
			header: map[string]string{"X-Tenant": "Acme"},
			want:   "acme",
		},
		{
			name:     "header miss required",
			cfg:      ResolverConfig{Source: SourceHeader, Header: "X-Tenant", Required: true},
			target:   "/",
			wantErr:  true,
			wantKind: apperr.TenantRequired,
		},
		{
			name:   "header miss optional with fallback",
			cfg:    ResolverConfig{Source: SourceHeader, Header: "X-Tenant", FallbackSlug: "default"},
			target: "/",
			want:   "default",
		},
		{
			name:   "subdomain hit",
			cfg:    ResolverConfig{Source: SourceSubdomain, Required: true},
			target: "/",
			host:   "acme.example.com:8080",
			want:   "acme",
		},
		{
			name:     "subdomain excluded www",
			cfg:      ResolverConfig{Source: SourceSubdomain, ExcludedSubdomains: []string{"www"}, Required: true},
			target:   "/",
			host:     "www.example.com",
			wantErr:  true,
			wantKind: apperr.TenantRequired,
		},
		{
			name:     "bare host excluded",
			cfg:      ResolverConfig{Source: SourceSubdomain, ExcludedSubdomains: []string{"localhost"}, Required: true},
			target:   "/",
			host:     "localhost:8080",
			wantErr:  true,
			wantKind: apperr.TenantRequired,
		},
		{
			name:   "query hit",
			cfg:    ResolverConfig{Source: SourceQuery, QueryKey: "tenant", Required: true},
			target: "/?tenant=acme",
			want:   "acme",
		},
		{
			name:   "path segment hit",
			cfg:    ResolverConfig{Source: SourcePath, PathIndex: 1, Required: true},
			target: "/t/acme/members",
			want:   "acme",
		},
		{
			name:     "path segment out of range",
			cfg:      ResolverConfig{Source: SourcePath, PathIndex: 4, Required: true},
			target:   "/t/acme",
			wantErr:  true,
			wantKind: apperr.TenantRequired,
		},
		{
			name:   "optional miss without fallback",
			cfg:    ResolverConfig{Source: SourceQuery, QueryKey: "tenant"},
			target: "/",
			want:   "",
		},
		{
			name:   "fallback ignored when source hits",
			cfg:    ResolverConfig{Source: SourceQuery, QueryKey: "tenant", FallbackSlug: "default"},
			target: "/?tenant=acme",
			want:   "acme",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", c.target, nil)
			if c.host != "" {
				r.Host = c.host
			}
			for k, v := range c.header {
				r.Header.Set(k, v)
			}

			got, err := c.cfg.Resolve(r)
			if c.wantErr {
				if err == nil {
					t.Fatalf("expected error, got slug %q", got)
				}
				if kind := apperr.KindOf(err); kind != c.wantKind {
					t.Fatalf("error kind = %v, want %v", kind, c.wantKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != c.want {
				t.Fatalf("slug = %q, want %q", got, c.want)
			}
		})
	}
}
