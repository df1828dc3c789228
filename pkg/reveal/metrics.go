package reveal

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for one or more controllers.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	steps    *prometheus.CounterVec
	rejected *prometheus.CounterVec
	resets   prometheus.Counter
	failures prometheus.Counter
	visible  prometheus.Gauge
}

// NewMetrics creates the reveal metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reveal_steps_total",
				Help: "Growth steps applied, by trigger",
			},
			[]string{"trigger"},
		),
		rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reveal_requests_rejected_total",
				Help: "Growth requests ignored, by reason",
			},
			[]string{"reason"},
		),
		resets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reveal_resets_total",
			Help: "Window resets, including collection replacements",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reveal_step_failures_total",
			Help: "Growth steps aborted by a load hook error",
		}),
		visible: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "reveal_visible_items",
			Help: "Size of the most recently updated visible window",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.steps, m.rejected, m.resets, m.failures, m.visible)
	}
	return m
}

func (m *Metrics) step(trigger string, visible int) {
	if m == nil {
		return
	}
	m.steps.WithLabelValues(trigger).Inc()
	m.visible.Set(float64(visible))
}

func (m *Metrics) reject(reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) reset(visible int) {
	if m == nil {
		return
	}
	m.resets.Inc()
	m.visible.Set(float64(visible))
}

func (m *Metrics) fail() {
	if m == nil {
		return
	}
	m.failures.Inc()
}

func (m *Metrics) setVisible(visible int) {
	if m == nil {
		return
	}
	m.visible.Set(float64(visible))
}
