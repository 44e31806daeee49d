package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConfigLoadFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "abbot_config_load_failed_total",
			Help: "Total number of bundle configuration files that failed to load",
		},
		[]string{"format", "error_type"},
	)

	ConfigLoadCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "abbot_config_load_count_total",
			Help: "Total number of bundle configuration files loaded",
		},
		[]string{"format"},
	)

	ConfigLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "abbot_config_load_duration_seconds",
			Help:    "Bundle configuration load duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"format"},
	)

	ConfigCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "abbot_config_cache_hits_total",
			Help: "Total number of bundle configuration loads served from the cache",
		},
	)
)
