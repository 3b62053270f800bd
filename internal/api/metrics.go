package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	breakerOpen prometheus.Gauge
}

// newMetrics builds the client collectors and registers them on reg when it is non-nil.
func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recondesk_api_requests_total",
				Help: "Reconciliation API requests by operation and response code",
			},
			[]string{"op", "code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "recondesk_api_request_duration_seconds",
				Help:    "Reconciliation API request latency in seconds",
				Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 120, 300},
			},
			[]string{"op"},
		),
		breakerOpen: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "recondesk_api_breaker_open",
				Help: "1 while the API circuit breaker is open",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.duration, m.breakerOpen)
	}
	return m
}

func (m *metrics) observe(op, code string, elapsed time.Duration) {
	m.requests.WithLabelValues(op, code).Inc()
	if elapsed > 0 {
		m.duration.WithLabelValues(op).Observe(elapsed.Seconds())
	}
}

func (m *metrics) breakerState(open bool) {
	if open {
		m.breakerOpen.Set(1)
		return
	}
	m.breakerOpen.Set(0)
}
