package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the bot's Prometheus collectors.
type Metrics struct {
	UpdatesTotal         *prometheus.CounterVec
	UpdateProcessingTime prometheus.Histogram
	PanicsTotal          prometheus.Counter
	RateLimitedTotal     prometheus.Counter
	MutationErrors       *prometheus.CounterVec
}

// NewMetrics registers the collectors with reg. A nil reg leaves them
// unregistered, which tests rely on.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		UpdatesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "studiobook_bot_updates_total",
			Help: "Telegram updates handled, by kind",
		}, []string{"kind"}),

		UpdateProcessingTime: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "studiobook_bot_update_processing_time_seconds",
			Help:    "Time spent processing updates",
			Buckets: prometheus.DefBuckets,
		}),

		PanicsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "studiobook_bot_panics_total",
			Help: "Panics recovered in update handlers",
		}),

		RateLimitedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "studiobook_bot_rate_limited_total",
			Help: "Updates dropped by the per-user rate limit",
		}),

		MutationErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "studiobook_bot_mutation_errors_total",
			Help: "Failed client and booking mutations, by operation",
		}, []string{"operation"}),
	}
}
