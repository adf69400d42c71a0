// internal/config/model.go
//
// Typed configuration model for Tenantcore.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                              – dotenv values,
//   • `conf/global.yaml`                           – primary static file,
//   • `TENANTCORE_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client after unmarshalling, so the rest of the app
// never stores Vault URIs, only plain strings.
//
// Validation happens immediately after unmarshal; the app fails fast if
// required fields are missing.
//
// Notes
// -----
// Struct tags use `koanf:"…"`, not `yaml:"…"`; Koanf ignores `yaml` tags
// unless configured otherwise.  The `Paths` block is filled at runtime
// and must not be set in YAML.
package config

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
}

//
// Database section
//

// Database holds the Postgres DSN and its secret.
//
// The DSN template stays in YAML so operators can tweak host, port, or
// flags without touching Vault.  `Password` may be a literal or a
// `vault:<path>#<key>` reference resolved at load time; the loader
// substitutes it for the literal `%PASSWORD%` marker in the DSN.
type Database struct {
	DSN      string `koanf:"dsn" validate:"required"`
	Password string `koanf:"password"`
}

//
// Tenant resolution section
//

// Resolver configures how an inbound request maps to a tenant slug.
// Source selects exactly one extraction strategy; the remaining fields
// parameterize it.  See internal/tenant/resolver.go.
type Resolver struct {
	Source             string   `koanf:"source" validate:"required,oneof=header subdomain query path"`
	Header             string   `koanf:"header"`
	QueryKey           string   `koanf:"query_key"`
	PathIndex          int      `koanf:"path_index"`
	ExcludedSubdomains []string `koanf:"excluded_subdomains"`
	FallbackSlug       string   `koanf:"fallback_slug"`
	Required           bool     `koanf:"required"`
}

//
// Auth section
//

// Auth holds the verification secret for bearer tokens issued by the
// external identity provider.  Tenantcore never issues credentials; it
// only verifies them at the boundary.
type Auth struct {
	JWTSecret string `koanf:"jwt_secret" validate:"required"`
}

//
// Tenant cache section
//

// Cache tunes the in-memory tenant cache.  Zero values fall back to the
// package defaults in internal/tenant.
type Cache struct {
	IdleTTLMinutes int `koanf:"idle_ttl_minutes"`
	MaxEntries     int `koanf:"max_entries"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.  The loader
// discovers `Root` (repo root or TENANTCORE_ROOT override) so later code
// can build absolute file paths.
type Paths struct {
	Root string
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Database Database `koanf:"database"`
	Resolver Resolver `koanf:"resolver"`
	Auth     Auth     `koanf:"auth"`
	Cache    Cache    `koanf:"cache"`
	Paths    Paths    `koanf:"-"`
}
