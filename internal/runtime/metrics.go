package runtime

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the form's submission instrumentation. A nil *Metrics is
// valid and records nothing, so libraries can stay silent by default.
type Metrics struct {
	submissions *prometheus.CounterVec
	inFlight    prometheus.Gauge
	duration    prometheus.Histogram
	debounces   prometheus.Counter
	realtime    *prometheus.CounterVec
}

// NewMetrics creates and registers the form metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lattice",
			Name:      "submissions_total",
			Help:      "Completed form submissions by outcome.",
		}, []string{"outcome"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lattice",
			Name:      "submissions_in_flight",
			Help:      "Submissions currently outstanding (0 or 1 per form).",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "lattice",
			Name:      "submission_duration_seconds",
			Help:      "Round-trip time of form submissions.",
			Buckets:   prometheus.DefBuckets,
		}),
		debounces: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lattice",
			Name:      "debounce_scheduled_total",
			Help:      "Debounce timers scheduled or reset; the gap to submissions_total is the collapse rate.",
		}),
		realtime: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lattice",
			Name:      "realtime_events_total",
			Help:      "Realtime push events by disposition.",
		}, []string{"disposition"}),
	}
	reg.MustRegister(m.submissions, m.inFlight, m.duration, m.debounces, m.realtime)
	return m
}

func (m *Metrics) submitStarted() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

func (m *Metrics) submitFinished(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.inFlight.Dec()
	m.submissions.WithLabelValues(outcome).Inc()
	m.duration.Observe(took.Seconds())
}

func (m *Metrics) debounceScheduled() {
	if m == nil {
		return
	}
	m.debounces.Inc()
}

func (m *Metrics) realtimeApplied() {
	if m == nil {
		return
	}
	m.realtime.WithLabelValues("applied").Inc()
}

func (m *Metrics) realtimeDropped() {
	if m == nil {
		return
	}
	m.realtime.WithLabelValues("dropped").Inc()
}
