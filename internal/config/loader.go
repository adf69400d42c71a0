// internal/config/loader.go
//
// Configuration loader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from three layers (highest
precedence last):

  1. Optional `.env` at `<root>/conf/.env`.
  2. `conf/global.yaml`.
  3. Environment variables prefixed `TENANTCORE_`, where `__` maps to “.”
     (e.g., `TENANTCORE_HTTP__LISTEN_ADDR → http.listen_addr`).

After merging, the tree is unmarshalled into strongly-typed structs,
validated, enriched with the runtime root path, and cached in an
`atomic.Pointer` for lock-free reads.  Values of the form
`vault:<path>#<key>` (currently only `database.password`) are resolved
through the Vault client before the password is spliced into the DSN.

Instrumentation
---------------
Logs use the global *sugared* logger (`zap.S()`) so early boot issues
surface even before the file logger is installed.
*/
package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/keelhq/tenantcore/internal/vault"
)

var current atomic.Pointer[Config]

// passwordMarker is replaced in Database.DSN by the resolved password.
const passwordMarker = "%PASSWORD%"

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves TENANTCORE_ROOT or climbs directories until
// conf/global.yaml is found.  Falls back to the executable heuristic for
// the production layout.
func rootDir() string {
	if r := os.Getenv("TENANTCORE_ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "global.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads .env, YAML, env overrides, resolves Vault references,
// validates, and caches the Config.  vc may be nil when Vault is not
// configured; `vault:` references then fail fast.
func Load(ctx context.Context, vc *vault.Client) (*Config, error) {
	root := rootDir()
	zap.S().Debugw("config root resolved", "root", root)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", "global.yaml")
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
		return nil, err
	}

	// Env overrides: TENANTCORE_HTTP__LISTEN_ADDR → http.listen_addr
	if err := k.Load(env.Provider("TENANTCORE_", ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}

	cfg.Paths.Root = root

	if err := resolveSecrets(ctx, vc, &cfg); err != nil {
		zap.S().Errorw("config secret resolution failed", "err", err)
		return nil, err
	}

	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	current.Store(&cfg)
	zap.S().Infow("config loaded",
		"listen_addr", cfg.HTTP.ListenAddr,
		"resolver_source", cfg.Resolver.Source,
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

// resolveSecrets swaps `vault:` references for their plain values and
// splices the database password into the DSN.
func resolveSecrets(ctx context.Context, vc *vault.Client, cfg *Config) error {
	pw := cfg.Database.Password
	if ref, ok := strings.CutPrefix(pw, "vault:"); ok {
		if vc == nil {
			return errors.New("database.password references Vault but no Vault client is configured")
		}
		path, key, _ := strings.Cut(ref, "#")
		val, err := vc.GetKV(ctx, path, key, 5*time.Minute)
		if err != nil {
			return err
		}
		pw = val
	}
	cfg.Database.Password = pw
	cfg.Database.DSN = strings.ReplaceAll(cfg.Database.DSN, passwordMarker, pw)
	return nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func Get() *Config { return current.Load() }
