package apiclient

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records gateway traffic. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Requests *prometheus.CounterVec
	Latency  *prometheus.HistogramVec
	Timeouts prometheus.Counter
}

// NewMetrics registers the gateway collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "consular_portal_api_requests_total",
			Help: "Portal API requests by method and outcome",
		}, []string{"method", "outcome"}), // outcome: success, error, timeout, transport_error

		Latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "consular_portal_api_request_duration_seconds",
			Help:    "Duration of portal API requests",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"method"}),

		Timeouts: f.NewCounter(prometheus.CounterOpts{
			Name: "consular_portal_api_timeouts_total",
			Help: "Portal API requests aborted by the client timeout",
		}),
	}
}

func (m *Metrics) ObserveRequest(method, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(method, outcome).Inc()
	m.Latency.WithLabelValues(method).Observe(d.Seconds())
	if outcome == "timeout" {
		m.Timeouts.Inc()
	}
}
