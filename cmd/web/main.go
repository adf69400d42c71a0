// cmd/web/main.go
//
// Tenantcore – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Load env vars (system-wide file → .env fallback).
//
//  2. Start daily rotating logger (tees to console when running in a TTY).
//
//  3. Optional Vault client for `vault:` secret references in config.
//
//  4. Load and validate layered config (conf/global.yaml → env).
//
//  5. Open the Postgres pool and log the active-tenant count.
//
//  6. Build the tenant cache (lazy-loads each tenant row on first hit).
//
//  7. Assemble service layer + router and serve with graceful drain.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/keelhq/tenantcore/internal/config"
	"github.com/keelhq/tenantcore/internal/database"
	"github.com/keelhq/tenantcore/internal/httpapi"
	"github.com/keelhq/tenantcore/internal/logger"
	"github.com/keelhq/tenantcore/internal/server"
	"github.com/keelhq/tenantcore/internal/service"
	"github.com/keelhq/tenantcore/internal/tenant"
	"github.com/keelhq/tenantcore/internal/vault"
)

const serverEnvPath = "/usr/local/etc/tenantcore/global.env"

// loadEnv prefers the system-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() { loadEnv() }

func main() {
	ctx := context.Background()

	rootDir, _ := os.Getwd()
	logOut, err := logger.New(rootDir, runningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}

	//
	// ── 1.  Vault (optional) ────────────────────────────────────────────
	//
	vc, err := vault.New(ctx, logOut.Infof)
	if err != nil {
		logOut.Warnw("vault unavailable, continuing without it", "error", err)
		vc = nil
	}

	//
	// ── 2.  Config ──────────────────────────────────────────────────────
	//
	cfg, err := config.Load(ctx, vc)
	if err != nil {
		logOut.Fatalf("load config: %v", err)
	}

	//
	// ── 3.  Database pool ───────────────────────────────────────────────
	//
	logOut.Infow("connecting to database")
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		logOut.Fatalf("connect database: %v", err)
	}
	defer db.Close()

	// Log active-tenant count as an early sanity check.
	var active int
	_ = db.Get(&active, `SELECT COUNT(*) FROM tenants WHERE status = 'active'`)
	logOut.Infow("database online", "active_tenants", active)

	//
	// ── 4.  Tenant cache (lazy loader) ──────────────────────────────────
	//
	idleTTL := time.Duration(cfg.Cache.IdleTTLMinutes) * time.Minute
	if idleTTL <= 0 {
		idleTTL = 30 * time.Minute
	}
	maxEntries := cfg.Cache.MaxEntries
	if maxEntries <= 0 {
		maxEntries = 512
	}
	cache := tenant.NewCache(db, idleTTL, maxEntries)

	//
	// ── 5.  Service layer + router ──────────────────────────────────────
	//
	svc := service.New(db, cache)
	api := httpapi.New(svc, db, cache, tenant.ResolverConfig{
		Source:             tenant.Source(cfg.Resolver.Source),
		Header:             cfg.Resolver.Header,
		QueryKey:           cfg.Resolver.QueryKey,
		PathIndex:          cfg.Resolver.PathIndex,
		ExcludedSubdomains: cfg.Resolver.ExcludedSubdomains,
		FallbackSlug:       cfg.Resolver.FallbackSlug,
		Required:           cfg.Resolver.Required,
	}, []byte(cfg.Auth.JWTSecret))

	//
	// ── 6.  Serve ───────────────────────────────────────────────────────
	//
	srv := server.New(cfg.HTTP.ListenAddr, api.Routes())
	logOut.Infow("listening", "addr", cfg.HTTP.ListenAddr)
	if err := server.Run(srv); err != nil {
		logOut.Fatalf("server: %v", err)
	}
	logOut.Infow("shutdown complete")
}
