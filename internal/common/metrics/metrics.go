// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_lookups_total",
			Help: "Total directory lookups by tool and outcome",
		},
		[]string{"tool", "outcome"},
	)

	LookupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "assistant_lookup_duration_seconds",
			Help: "Duration of directory lookups in seconds",
		},
		[]string{"tool"},
	)

	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "assistant_sessions_active",
			Help: "Number of live conversation sessions",
		},
	)

	SessionEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_session_evictions_total",
			Help: "Sessions evicted, by cause (idle, capacity)",
		},
		[]string{"cause"},
	)

	EscalationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_escalations_total",
			Help: "Out-of-scope handoffs to a human agent, by notify result",
		},
		[]string{"result"},
	)

	DirectorySize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "assistant_directory_records",
			Help: "Hospital records in the current directory generation",
		},
	)
)
