// Package metrics defines and registers all custom Prometheus metrics for the
// Implantei core gateway. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register with the default Prometheus registry at import time via
// promauto; the /metrics endpoint exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "implantei"

// ── Authentication metrics ────────────────────────────────────────────────────

// SignInsTotal counts sign-in attempts.
// Label:
//   - result: "success" or "failure"
var SignInsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sign_ins_total",
		Help:      "Total number of sign-in attempts, by result.",
	},
	[]string{"result"},
)

// ProfileResolutionsTotal counts profile fetches performed after a verified
// identity reached the gateway.
// Label:
//   - result: "success" or "failure"
var ProfileResolutionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "profile_resolutions_total",
		Help:      "Total number of application profile resolutions, by result.",
	},
	[]string{"result"},
)

// ── Authorization metrics ─────────────────────────────────────────────────────

// PermissionDenialsTotal counts requests rejected by the permission gate.
// Label:
//   - capability: the capability that was required (e.g. "manage_tenants")
var PermissionDenialsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "permission_denials_total",
		Help:      "Total number of requests denied by the permission gate, by capability.",
	},
	[]string{"capability"},
)

// ── Tenant metrics ────────────────────────────────────────────────────────────

// TenantCacheTotal counts tenant cache lookups.
// Label:
//   - result: "hit" or "miss"
var TenantCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tenant_cache_total",
		Help:      "Total number of tenant cache lookups, by result (hit/miss).",
	},
	[]string{"result"},
)

// TenantMutationsTotal counts tenant mutations proxied to the backend.
// Label:
//   - action: "create", "update", "status" or "delete"
var TenantMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tenant_mutations_total",
		Help:      "Total number of tenant mutations forwarded to the backend, by action.",
	},
	[]string{"action"},
)
