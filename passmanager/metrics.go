package passmanager

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "transpiler",
			Subsystem: "passmanager",
			Name:      "stages_total",
			Help:      "Total number of stages considered",
		},
		[]string{"pipeline", "result"}, // result: ran/skipped
	)

	passDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "transpiler",
			Subsystem: "passmanager",
			Name:      "pass_duration_seconds",
			Help:      "Duration of pass execution",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
		[]string{"pass"},
	)

	passFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "transpiler",
			Subsystem: "passmanager",
			Name:      "pass_failures_total",
			Help:      "Total number of failed pass executions",
		},
		[]string{"pipeline", "pass"},
	)
)
