package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "studiobook"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint and status code.",
		},
		[]string{"endpoint", "code"},
	)

	mutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Client and booking mutations by event type.",
		},
		[]string{"event"},
	)

	storeDegraded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "record_store_degraded",
			Help:      "1 while the record store is served from its in-memory fallback.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, mutations, storeDegraded)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string, code int) {
	httpRequests.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
}

// IncMutation counts a published domain event.
func IncMutation(eventType string) {
	mutations.WithLabelValues(eventType).Inc()
}

func SetStoreDegraded(degraded bool) {
	if degraded {
		storeDegraded.Set(1)
		return
	}
	storeDegraded.Set(0)
}
