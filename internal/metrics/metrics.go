// Package metrics holds Prometheus instruments used across the scaffold.
// All collectors are registered with the global registry, so importing
// this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ActiveTenants = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_tenants",
			Help: "Number of tenants currently held in the cache.",
		})

	TenantLoadTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tenant_load_total",
			Help: "Cumulative number of tenants loaded into the cache.",
		})

	TenantLoadErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tenant_load_errors_total",
			Help: "Cumulative number of tenant load errors.",
		})

	TenantEvictTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tenant_evict_total",
			Help: "Cumulative number of tenants evicted from the cache.",
		})

	ResolveTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenant_resolve_total",
			Help: "Tenant resolutions by outcome (ok, missing, fallback).",
		}, []string{"outcome"})

	ScopeOpenTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tenant_scope_open_total",
			Help: "Tenant-scoped transactions opened.",
		})

	ScopeFailTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tenant_scope_fail_total",
			Help: "Tenant-scoped transactions that rolled back.",
		})

	RuleViolationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "business_rule_violations_total",
			Help: "Business-rule checks that rejected an operation.",
		})
)

func init() {
	prometheus.MustRegister(
		ActiveTenants,
		TenantLoadTotal,
		TenantLoadErrorsTotal,
		TenantEvictTotal,
		ResolveTotal,
		ScopeOpenTotal,
		ScopeFailTotal,
		RuleViolationsTotal,
	)
}
