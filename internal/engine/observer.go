package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Stepwall/internal/telemetry"
)

// EventKind — вид события шага.
type EventKind string

const (
	// EventEntered — шаг запущен (DoStep вызван).
	EventEntered EventKind = "entered"

	// EventSkipped — ShouldSkip вернул true.
	EventSkipped EventKind = "skipped"

	// EventCompleted — шаг подал сигнал завершения.
	EventCompleted EventKind = "completed"

	// EventFailed — ShouldSkip или DoStep вернули ошибку или запаниковали.
	EventFailed EventKind = "failed"
)

// StepEvent — событие жизненного цикла шага.
type StepEvent struct {
	EngineID uuid.UUID
	Kind     EventKind
	Step     string
	Index    int
	Cycle    int

	// ActivationID — идентификатор активации (для entered/completed/failed в DoStep).
	ActivationID uuid.UUID

	// Preferred — желаемая длительность шага (entered, completed).
	Preferred time.Duration

	// Elapsed — время от активации до сигнала (completed, failed).
	Elapsed time.Duration

	// Signal — полученный сигнал (completed).
	Signal Signal

	// Err — ошибка (failed).
	Err error
}

// Observer получает события шагов. Вызывается синхронно из цикла engine,
// поэтому должен быть быстрым.
type Observer interface {
	OnStepEvent(ctx context.Context, event StepEvent)
}

// ViolationObserver — опциональное расширение Observer
// для проигнорированных сигналов завершения.
type ViolationObserver interface {
	OnViolation(v Violation)
}

// ObserverFunc — адаптер функции к Observer.
type ObserverFunc func(ctx context.Context, event StepEvent)

// OnStepEvent вызывает f.
func (f ObserverFunc) OnStepEvent(ctx context.Context, event StepEvent) {
	f(ctx, event)
}

// NoopObserver ничего не делает.
type NoopObserver struct{}

// OnStepEvent ничего не делает.
func (NoopObserver) OnStepEvent(context.Context, StepEvent) {}

// MultiObserver рассылает события нескольким observer'ам.
type MultiObserver []Observer

// OnStepEvent передаёт событие каждому observer'у.
func (m MultiObserver) OnStepEvent(ctx context.Context, event StepEvent) {
	for _, o := range m {
		if o != nil {
			o.OnStepEvent(ctx, event)
		}
	}
}

// OnViolation передаёт нарушение observer'ам, которые его принимают.
func (m MultiObserver) OnViolation(v Violation) {
	for _, o := range m {
		if vo, ok := o.(ViolationObserver); ok {
			vo.OnViolation(v)
		}
	}
}

// OnCycle передаёт номер прохода observer'ам, которые его принимают.
func (m MultiObserver) OnCycle(cycle int) {
	for _, o := range m {
		if co, ok := o.(CycleObserver); ok {
			co.OnCycle(cycle)
		}
	}
}

// MetricsObserver пишет события шагов в Prometheus метрики.
type MetricsObserver struct {
	metrics *telemetry.Metrics
}

// NewMetricsObserver создаёт MetricsObserver.
func NewMetricsObserver(m *telemetry.Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

// OnStepEvent обновляет счётчики и гистограмму длительности.
func (o *MetricsObserver) OnStepEvent(_ context.Context, event StepEvent) {
	o.metrics.RecordStepEvent(event.Step, string(event.Kind))

	switch event.Kind {
	case EventCompleted:
		o.metrics.ObserveStepDuration(event.Step, event.Elapsed)
		if isOverrun(event.Preferred, event.Elapsed) {
			o.metrics.RecordOverrun(event.Step)
		}
	case EventFailed:
		if event.Elapsed > 0 {
			o.metrics.ObserveStepDuration(event.Step, event.Elapsed)
		}
	}
}

// OnViolation увеличивает счётчик нарушений.
func (o *MetricsObserver) OnViolation(v Violation) {
	o.metrics.RecordViolation(v.Kind)
}

// OnCycle отмечает завершённый проход.
func (o *MetricsObserver) OnCycle(int) {
	o.metrics.RecordCycle()
}

// CycleObserver — опциональное расширение Observer: вызывается,
// когда цикл доходит до конца списка и начинается заново.
type CycleObserver interface {
	OnCycle(cycle int)
}

// isOverrun — шаг работал дольше чем вдвое от желаемой длительности.
func isOverrun(preferred, elapsed time.Duration) bool {
	return preferred > 0 && elapsed > 2*preferred
}
