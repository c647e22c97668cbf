package compiler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	compilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "transpiler",
			Subsystem: "compiler",
			Name:      "compiles_total",
			Help:      "Total number of circuit compilations",
		},
		[]string{"status"}, // status: success/error
	)

	compileDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "transpiler",
			Subsystem: "compiler",
			Name:      "compile_duration_seconds",
			Help:      "Duration of a full circuit compilation",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		},
	)

	presetCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "transpiler",
			Subsystem: "compiler",
			Name:      "preset_cache_total",
			Help:      "Total number of assembled preset lookups",
		},
		[]string{"result"}, // result: hit/miss
	)
)
