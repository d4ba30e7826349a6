package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the honeypot collectors. It implements honeypot.Metrics.
type Metrics struct {
	registry *prometheus.Registry

	connections     prometheus.Counter
	authAttempts    *prometheus.CounterVec
	persistFailures *prometheus.CounterVec
	persistDuration *prometheus.HistogramVec
	activeSessions  prometheus.Gauge
}

// NewMetrics creates the collectors and registers them, together with the
// Go runtime and process collectors, on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		connections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sshlure",
			Name:      "connections_total",
			Help:      "Accepted connections with a usable remote address.",
		}),
		authAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sshlure",
				Name:      "auth_attempts_total",
				Help:      "Authentication attempts by protocol method.",
			},
			[]string{"method"},
		),
		persistFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sshlure",
				Name:      "persist_failures_total",
				Help:      "Records that could not be written.",
			},
			[]string{"op"},
		),
		persistDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "sshlure",
				Name:      "persist_duration_seconds",
				Help:      "Time spent writing a record, including failures.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sshlure",
			Name:      "active_sessions",
			Help:      "Connections currently held open.",
		}),
	}
	m.registry.MustRegister(
		m.connections,
		m.authAttempts,
		m.persistFailures,
		m.persistDuration,
		m.activeSessions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the registry for the HTTP handler and tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ConnectionAccepted() { m.connections.Inc() }

func (m *Metrics) AuthAttempt(method string) { m.authAttempts.WithLabelValues(method).Inc() }

func (m *Metrics) PersistFailed(op string) { m.persistFailures.WithLabelValues(op).Inc() }

func (m *Metrics) PersistDuration(op string, d time.Duration) {
	m.persistDuration.WithLabelValues(op).Observe(d.Seconds())
}

func (m *Metrics) SessionOpened() { m.activeSessions.Inc() }

func (m *Metrics) SessionClosed() { m.activeSessions.Dec() }
