package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BundlesDiscovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "abbot_bundles_discovered_total",
			Help: "Total number of child bundles discovered",
		},
		[]string{"type"},
	)

	EnvironmentResolveCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "abbot_environment_resolve_count_total",
			Help: "Total number of bundle environments resolved",
		},
	)

	EnvironmentResolveFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "abbot_environment_resolve_failed_total",
			Help: "Total number of bundle environments that failed to resolve",
		},
	)
)
