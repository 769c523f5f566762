package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the audit recorder.
type Metrics struct {
	EventsRecorded  *prometheus.CounterVec
	SessionsStarted prometheus.Counter
	SessionsClosed  prometheus.Counter
	SessionsReaped  prometheus.Counter
	ExportsServed   prometheus.Counter
	OpenSessions    prometheus.Gauge
}

// New creates and registers all recorder metrics.
func New() *Metrics {
	return &Metrics{
		EventsRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "formtrail_events_recorded_total",
			Help: "Total number of audit events persisted, by kind",
		}, []string{"kind"}),
		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "formtrail_sessions_started_total",
			Help: "Total number of audit sessions started",
		}),
		SessionsClosed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "formtrail_sessions_closed_total",
			Help: "Total number of audit sessions closed by clients",
		}),
		SessionsReaped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "formtrail_sessions_reaped_total",
			Help: "Total number of idle audit sessions closed by the reaper",
		}),
		ExportsServed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "formtrail_exports_served_total",
			Help: "Total number of CSV audit exports served",
		}),
		OpenSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "formtrail_open_sessions",
			Help: "Current number of open audit sessions",
		}),
	}
}

func (m *Metrics) IncrementEventsRecorded(kind string) {
	m.EventsRecorded.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrementSessionsStarted() {
	m.SessionsStarted.Inc()
	m.OpenSessions.Inc()
}

func (m *Metrics) IncrementSessionsClosed() {
	m.SessionsClosed.Inc()
	m.OpenSessions.Dec()
}

func (m *Metrics) IncrementSessionsReaped() {
	m.SessionsReaped.Inc()
	m.OpenSessions.Dec()
}

func (m *Metrics) IncrementExportsServed() {
	m.ExportsServed.Inc()
}
