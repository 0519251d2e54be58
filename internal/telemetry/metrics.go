package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics — Prometheus метрики step engine.
type Metrics struct {
	stepEvents *prometheus.CounterVec
	stepTime   *prometheus.HistogramVec
	overruns   *prometheus.CounterVec
	cycles     prometheus.Counter
	violations *prometheus.CounterVec
}

// NewMetrics создаёт метрики и регистрирует их в reg.
// Если reg == nil, используется prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		stepEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stepwall_step_events_total",
			Help: "Step lifecycle events by step and kind (entered, skipped, completed, failed)",
		}, []string{"step", "kind"}),
		stepTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stepwall_step_duration_seconds",
			Help:    "Time from step activation to its completion signal",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"step"}),
		overruns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stepwall_step_overruns_total",
			Help: "Activations that took more than twice the preferred duration",
		}, []string{"step"}),
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stepwall_cycles_total",
			Help: "Completed passes through the step list",
		}),
		violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stepwall_protocol_violations_total",
			Help: "Spurious completion signals ignored by the engine",
		}, []string{"kind"}),
	}

	reg.MustRegister(m.stepEvents, m.stepTime, m.overruns, m.cycles, m.violations)
	return m
}

// RecordStepEvent увеличивает счётчик событий шага.
func (m *Metrics) RecordStepEvent(step, kind string) {
	m.stepEvents.WithLabelValues(step, kind).Inc()
}

// ObserveStepDuration записывает длительность активации шага.
func (m *Metrics) ObserveStepDuration(step string, d time.Duration) {
	m.stepTime.WithLabelValues(step).Observe(d.Seconds())
}

// RecordOverrun отмечает превышение предпочтительной длительности шага.
func (m *Metrics) RecordOverrun(step string) {
	m.overruns.WithLabelValues(step).Inc()
}

// RecordCycle отмечает завершение полного прохода по списку шагов.
func (m *Metrics) RecordCycle() {
	m.cycles.Inc()
}

// RecordViolation отмечает проигнорированный сигнал завершения.
func (m *Metrics) RecordViolation(kind string) {
	m.violations.WithLabelValues(kind).Inc()
}
