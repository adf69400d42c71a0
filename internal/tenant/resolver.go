// internal/tenant/resolver.go
//
// Tenant resolution: inbound request → tenant slug.
//
// Context
// -------
// A request names its tenant through exactly one configured source: a
// header, the leftmost subdomain label, a query parameter, or a path
// segment.  The configuration is data, not code, so deployments choose
// the source without a rebuild.  Resolution never merges sources; the
// fallback slug applies only when extraction finds nothing AND the
// resolver is configured as optional.  A required resolver that finds
// nothing fails with TenantRequired rather than silently proceeding.
package tenant

import (
	"net/http"
	"strings"

	"github.com/keelhq/tenantcore/internal/apperr"
	"github.com/keelhq/tenantcore/internal/metrics"
)

// Source selects the extraction strategy.
type Source string

const (
	SourceHeader    Source = "header"
	SourceSubdomain Source = "subdomain"
	SourceQuery     Source = "query"
	SourcePath      Source = "path"
)

// ResolverConfig parameterizes one extraction source.  Only the fields
// relevant to Source are consulted.
type ResolverConfig struct {
	Source             Source
	Header             string   // header name, e.g. "X-Tenant"
	QueryKey           string   // query parameter, e.g. "tenant"
	PathIndex          int      // zero-based path segment index
	ExcludedSubdomains []string // labels that never resolve, e.g. "www"
	FallbackSlug       string   // used only when !Required and nothing matched
	Required           bool
}

// Resolve extracts the tenant slug from r.  It returns TenantRequired
// when the resolver is required and no source yielded a slug.
func (c ResolverConfig) Resolve(r *http.Request) (string, error) {
	slug := strings.ToLower(strings.TrimSpace(c.extract(r)))

	switch {
	case slug != "":
		metrics.ResolveTotal.WithLabelValues("ok").Inc()
		return slug, nil
	case !c.Required && c.FallbackSlug != "":
		metrics.ResolveTotal.WithLabelValues("fallback").Inc()
		return c.FallbackSlug, nil
	case c.Required:
		metrics.ResolveTotal.WithLabelValues("missing").Inc()
		return "", apperr.New(apperr.TenantRequired, "tenant could not be resolved from the request")
	default:
		metrics.ResolveTotal.WithLabelValues("missing").Inc()
		return "", nil
	}
}

// extract pulls the raw slug candidate from the configured source.
func (c ResolverConfig) extract(r *http.Request) string {
	switch c.Source {
	case SourceHeader:
		return r.Header.Get(c.Header)

	case SourceSubdomain:
		host := stripPort(r.Host)
		if c.excluded(host) {
			return ""
		}
		label, rest, ok := strings.Cut(host, ".")
		if !ok || rest == "" || c.excluded(label) {
			return ""
		}
		return label

	case SourceQuery:
		return r.URL.Query().Get(c.QueryKey)

	case SourcePath:
		segs := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if c.PathIndex < 0 || c.PathIndex >= len(segs) {
			return ""
		}
		return segs[c.PathIndex]
	}
	return ""
}

func (c ResolverConfig) excluded(label string) bool {
	for _, ex := range c.ExcludedSubdomains {
		if strings.EqualFold(ex, label) {
			return true
		}
	}
	return false
}

// stripPort removes any “:port” suffix from the Host header.
func stripPort(h string) string {
	if i := strings.IndexByte(h, ':'); i != -1 {
		return h[:i]
	}
	return h
}
