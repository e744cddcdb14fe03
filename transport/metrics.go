package transport

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tunaoezer/Intercom/metric"
)

// Metrics holds Prometheus metrics for a Server. newMetrics returns nil when
// constructed without a registry, and every call site on Metrics is written
// to tolerate a nil receiver, following the nil-input/nil-feature pattern
// this package's teacher uses for optional metrics.
type Metrics struct {
	connectionsTotal  prometheus.Counter
	connectionsActive prometheus.Gauge
	framesReceived    prometheus.Counter
	framesSent        prometheus.Counter
	errorsTotal       *prometheus.CounterVec
}

func newMetrics(registry *metric.MetricsRegistry) *Metrics {
	if registry == nil {
		return nil
	}

	m := &Metrics{
		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "intercom",
			Subsystem: "transport",
			Name:      "connections_total",
			Help:      "Total WebSocket connections accepted.",
		}),
		connectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "intercom",
			Subsystem: "transport",
			Name:      "connections_active",
			Help:      "Currently open WebSocket connections.",
		}),
		framesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "intercom",
			Subsystem: "transport",
			Name:      "frames_received_total",
			Help:      "Total WAMP text frames received from clients.",
		}),
		framesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "intercom",
			Subsystem: "transport",
			Name:      "frames_sent_total",
			Help:      "Total WAMP text frames sent to clients.",
		}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intercom",
			Subsystem: "transport",
			Name:      "errors_total",
			Help:      "Transport-level errors by kind.",
		}, []string{"kind"}),
	}

	registry.PrometheusRegistry().MustRegister(
		m.connectionsTotal,
		m.connectionsActive,
		m.framesReceived,
		m.framesSent,
		m.errorsTotal,
	)
	return m
}

func (m *Metrics) connectionOpened() {
	if m == nil {
		return
	}
	m.connectionsTotal.Inc()
	m.connectionsActive.Inc()
}

func (m *Metrics) connectionClosed() {
	if m == nil {
		return
	}
	m.connectionsActive.Dec()
}

func (m *Metrics) frameReceived() {
	if m == nil {
		return
	}
	m.framesReceived.Inc()
}

func (m *Metrics) frameSent() {
	if m == nil {
		return
	}
	m.framesSent.Inc()
}

func (m *Metrics) errorOccurred(kind string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(kind).Inc()
}
