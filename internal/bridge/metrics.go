package bridge

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/gray-logic-addon/internal/protocol"
)

const (
	metricsNamespace = "graylogic"
	metricsSubsystem = "addon"
)

// Drop reasons recorded on messages_dropped_total.
const (
	dropDecode     = "decode"
	dropValidation = "validation"
	dropNoData     = "no_data"
	dropUnknown    = "unknown_target"
	dropUnhandled  = "unhandled_type"
)

// Metrics holds the bridge's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	received       *prometheus.CounterVec // by message_type
	dropped        *prometheus.CounterVec // by message_type, reason
	sent           *prometheus.CounterVec // by message_type, status
	workerDuration *prometheus.HistogramVec
	workersActive  prometheus.Gauge
	workerPanics   prometheus.Counter
}

// NewMetrics creates the bridge collectors and registers them with reg.
// A nil reg disables metrics.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		return nil, nil
	}

	m := &Metrics{
		received: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "messages_received_total",
			Help:      "Messages received from the gateway",
		}, []string{"message_type"}),

		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "messages_dropped_total",
			Help:      "Inbound messages dropped by the router",
		}, []string{"message_type", "reason"}),

		sent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "messages_sent_total",
			Help:      "Messages sent to the gateway",
		}, []string{"message_type", "status"}), // status: ok, error

		workerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "worker_duration_seconds",
			Help:      "Time spent handling one inbound message",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{"message_type"}),

		workersActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "workers_active",
			Help:      "Message workers currently running",
		}),

		workerPanics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "worker_panics_total",
			Help:      "Message workers that panicked",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.received, m.dropped, m.sent, m.workerDuration, m.workersActive, m.workerPanics,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) recordReceived(mt protocol.MessageType) {
	if m == nil {
		return
	}
	m.received.WithLabelValues(string(mt)).Inc()
}

func (m *Metrics) recordDropped(mt protocol.MessageType, reason string) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(string(mt), reason).Inc()
}

func (m *Metrics) recordSent(mt protocol.MessageType, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.sent.WithLabelValues(string(mt), status).Inc()
}

func (m *Metrics) workerStarted() {
	if m == nil {
		return
	}
	m.workersActive.Inc()
}

func (m *Metrics) workerFinished(mt protocol.MessageType, elapsed time.Duration, panicked bool) {
	if m == nil {
		return
	}
	m.workersActive.Dec()
	m.workerDuration.WithLabelValues(string(mt)).Observe(elapsed.Seconds())
	if panicked {
		m.workerPanics.Inc()
	}
}
