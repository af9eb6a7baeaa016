// Package metrics holds Prometheus instruments that are used across the
// scoping subsystem.  All collectors are registered with the global
// registry, so importing this package in main.go is enough to expose them
// on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	CacheHitTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scope_cache_hit_total",
			Help: "Cumulative number of cache hits across all namespaces.",
		})

	CacheMissTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scope_cache_miss_total",
			Help: "Cumulative number of cache misses across all namespaces.",
		})

	CacheDegradedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scope_cache_degraded_total",
			Help: "Operations that bypassed the cache because the backend was unavailable.",
		})

	TenantResolveTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tenant_resolve_total",
			Help: "Cumulative number of host-to-tenant resolutions.",
		})

	TenantResolveFallbackTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tenant_resolve_fallback_total",
			Help: "Resolutions that matched no host alias and fell back to the default tenant.",
		})

	ListingComputeTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "listing_compute_total",
			Help: "Visible-subset computations that ran the full filter (cache misses).",
		})

	EventsDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "entity_events_dropped_total",
			Help: "Entity-changed events dropped because a subscriber buffer was full.",
		})
)

func init() {
	prometheus.MustRegister(
		CacheHitTotal,
		CacheMissTotal,
		CacheDegradedTotal,
		TenantResolveTotal,
		TenantResolveFallbackTotal,
		ListingComputeTotal,
		EventsDroppedTotal,
	)
}
