package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Stepwall/internal/domain"
	"github.com/shaiso/Stepwall/internal/telemetry"
)

// Engine — step engine: проходит по списку шагов по кругу, пока его не остановят.
//
// Engine:
//   - Спрашивает каждый шаг, нужно ли его пропустить
//   - Запускает шаг и ждёт его сигнала завершения
//   - Переходит к следующему шагу, после последнего — к первому
//   - Останавливается кооперативно: только между шагами
//
// В каждый момент активен не более чем один шаг.
type Engine struct {
	id       uuid.UUID
	steps    []ResolvedStep
	mc       *MachineContext
	observer Observer
	logger   *slog.Logger

	// Позиция цикла
	mu      sync.RWMutex
	state   domain.EngineState
	index   int
	cycle   int
	stopCh  chan struct{}
	stopped bool // stopCh закрыт
	done    chan struct{}

	// Lifecycle provider'ов
	providersOnce  sync.Once
	providerCtx    context.Context
	providerCancel context.CancelFunc
	providerWG     sync.WaitGroup
	closeOnce      sync.Once
	closeErr       error
}

// Config — конфигурация Engine.
type Config struct {
	// Observer — получатель событий шагов (опционально).
	Observer Observer

	// Logger
	Logger *slog.Logger
}

// Status — снимок состояния engine.
type Status struct {
	ID        string             `json:"id"`
	State     domain.EngineState `json:"state"`
	Index     int                `json:"index"`
	Step      string             `json:"step"`
	Cycle     int                `json:"cycle"`
	StepCount int                `json:"step_count"`
}

// New создаёт Engine из результата Resolve.
func New(res *Resolution, cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	observer := cfg.Observer
	if observer == nil {
		observer = NoopObserver{}
	}

	id := uuid.New()
	providerCtx, providerCancel := context.WithCancel(context.Background())

	e := &Engine{
		id:             id,
		steps:          res.Steps,
		mc:             res.Context,
		observer:       observer,
		logger:         telemetry.WithEngineID(logger, id.String()),
		state:          domain.EngineStateIdle,
		stopCh:         make(chan struct{}),
		providerCtx:    providerCtx,
		providerCancel: providerCancel,
	}
	e.mc.violation = e.onViolation

	return e
}

// ID возвращает идентификатор engine.
func (e *Engine) ID() uuid.UUID {
	return e.id
}

// Context возвращает MachineContext engine.
func (e *Engine) Context() *MachineContext {
	return e.mc
}

// Status возвращает снимок состояния.
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return Status{
		ID:        e.id.String(),
		State:     e.state,
		Index:     e.index,
		Step:      e.steps[e.index].Name,
		Cycle:     e.cycle,
		StepCount: len(e.steps),
	}
}

// Start запускает цикл в отдельной горутине и сразу возвращается.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.begin(); err != nil {
		return err
	}

	go func() {
		if err := e.loop(ctx); err != nil && !errors.Is(err, context.Canceled) {
			e.logger.Error("step engine stopped with error", "error", err)
		}
	}()

	return nil
}

// Run выполняет цикл в текущей горутине до остановки.
//
// Возвращает nil после Stop или Terminate от шага,
// ctx.Err() — если остановка вызвана отменой ctx.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.begin(); err != nil {
		return err
	}
	return e.loop(ctx)
}

// RequestStop просит engine остановиться после завершения активного шага.
// Не блокирует.
func (e *Engine) RequestStop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.stopped {
		e.stopped = true
		close(e.stopCh)
	}

	// Engine ещё не запускался: сразу в STOPPED
	if e.state == domain.EngineStateIdle {
		e.state = domain.EngineStateStopped
	}
}

// Stop просит engine остановиться и ждёт, пока активный шаг завершится.
func (e *Engine) Stop() {
	e.RequestStop()

	e.mu.RLock()
	done := e.done
	e.mu.RUnlock()

	if done != nil {
		<-done
	}
}

// IsStopped проверяет, остановлен ли engine.
func (e *Engine) IsStopped() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state == domain.EngineStateStopped
}

// Done возвращает канал, закрывающийся по завершении текущего запуска.
// nil, если engine ещё не запускался.
func (e *Engine) Done() <-chan struct{} {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.done
}

// Reset возвращает остановленный engine в начальное состояние:
// индекс 0, scratch state очищен, provider'ы сохранены.
func (e *Engine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.IsRunning() {
		return ErrEngineRunning
	}

	e.state = domain.EngineStateIdle
	e.index = 0
	e.cycle = 0
	e.stopCh = make(chan struct{})
	e.stopped = false
	e.done = nil
	e.mc.cycle.Store(0)
	e.mc.resetState()

	e.logger.Info("step engine reset")
	return nil
}

// Close останавливает engine и освобождает provider'ы.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		e.Stop()

		e.providerCancel()
		e.providerWG.Wait()

		e.closeErr = closeProviders(e.mc.uniqueProviders())
		e.logger.Info("step engine closed")
	})
	return e.closeErr
}

// begin переводит engine из IDLE в EVALUATING.
func (e *Engine) begin() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case domain.EngineStateIdle:
	case domain.EngineStateStopped:
		return ErrEngineStopped
	default:
		return ErrEngineRunning
	}

	e.state = domain.EngineStateEvaluating
	e.done = make(chan struct{})
	return nil
}

// finish переводит engine в STOPPED.
func (e *Engine) finish() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state = domain.EngineStateStopped
	close(e.done)
}

// loop — основной цикл.
func (e *Engine) loop(ctx context.Context) error {
	defer e.finish()

	e.startProviders()

	e.logger.Info("step engine started", "steps", len(e.steps))

	for {
		if err := e.checkStop(ctx); err != nil {
			e.logger.Info("step engine stopped",
				"cycle", e.currentCycle(),
				"reason", stopReason(err),
			)
			if errors.Is(err, errStopRequested) {
				return nil
			}
			return err
		}

		i := e.setEvaluating()

		switch sig := e.runStep(ctx, i); sig {
		case SignalRestart:
			e.moveTo(0, false)
		case SignalTerminate:
			e.RequestStop()
		default:
			next := (i + 1) % len(e.steps)
			e.moveTo(next, next == 0)
		}
	}
}

var errStopRequested = errors.New("stop requested")

// checkStop возвращает ошибку, если engine нужно остановить.
func (e *Engine) checkStop(ctx context.Context) error {
	e.mu.RLock()
	stopCh := e.stopCh
	e.mu.RUnlock()

	select {
	case <-stopCh:
		return errStopRequested
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func stopReason(err error) string {
	if errors.Is(err, errStopRequested) {
		return "stop requested"
	}
	return err.Error()
}

// runStep проходит Evaluating(i) и, если шаг не пропущен, Active(i).
// Возвращает сигнал, определяющий следующую позицию.
func (e *Engine) runStep(ctx context.Context, i int) Signal {
	rs := &e.steps[i]
	cycle := e.currentCycle()
	logger := telemetry.WithStep(e.logger, rs.Name, i)

	event := StepEvent{
		EngineID: e.id,
		Step:     rs.Name,
		Index:    i,
		Cycle:    cycle,
	}

	// Evaluating(i)
	skip, err := e.shouldSkip(rs)
	if err != nil {
		logger.Error("step skip check failed", "error", err)
		event.Kind = EventFailed
		event.Err = err
		e.observer.OnStepEvent(ctx, event)
		return SignalProceed
	}
	if skip {
		logger.Debug("step skipped")
		event.Kind = EventSkipped
		e.observer.OnStepEvent(ctx, event)
		return SignalProceed
	}

	// Active(i)
	preferred := e.preferredDuration(rs, logger)
	completion := newCompletion(rs.Name, i, e.onViolation)
	e.mc.activate(completion)
	e.setState(domain.EngineStateActive)

	event.ActivationID = completion.ID()
	event.Preferred = preferred
	event.Kind = EventEntered
	logger.Debug("step entered", "preferred", preferred)
	e.observer.OnStepEvent(ctx, event)

	started := time.Now()

	if err := e.doStep(ctx, rs, e.mc.forActivation(completion)); err != nil {
		e.mc.deactivate(completion)
		if !completion.retire() {
			// шаг успел подать сигнал до ошибки — сигнал не используется
			<-completion.ch
		}

		logger.Error("step failed", "error", err)
		event.Kind = EventFailed
		event.Err = err
		event.Elapsed = time.Since(started)
		e.observer.OnStepEvent(ctx, event)
		return SignalProceed
	}

	sig := <-completion.ch
	e.mc.deactivate(completion)

	elapsed := time.Since(started)
	if isOverrun(preferred, elapsed) {
		logger.Warn("step overran preferred duration",
			"preferred", preferred,
			"elapsed", elapsed,
		)
	}

	logger.Debug("step completed", "elapsed", elapsed, "signal", sig.String())
	event.Kind = EventCompleted
	event.Elapsed = elapsed
	event.Signal = sig
	e.observer.OnStepEvent(ctx, event)

	return sig
}

// shouldSkip вызывает ShouldSkip, превращая панику в ошибку.
func (e *Engine) shouldSkip(rs *ResolvedStep) (skip bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrStepPanic, r)
		}
	}()
	return rs.Step.ShouldSkip(e.mc)
}

// preferredDuration вызывает PreferredDuration. Паника даёт 0: подсказка не обязательна.
func (e *Engine) preferredDuration(rs *ResolvedStep, logger *slog.Logger) (d time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("step preferred duration panicked", "panic", r)
			d = 0
		}
	}()
	return rs.Step.PreferredDuration(e.mc)
}

// doStep вызывает DoStep с контекстом активации, превращая панику в ошибку.
func (e *Engine) doStep(ctx context.Context, rs *ResolvedStep, mc *MachineContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrStepPanic, r)
		}
	}()
	return rs.Step.DoStep(ctx, mc)
}

// onViolation логирует и передаёт observer'у проигнорированный сигнал.
func (e *Engine) onViolation(v Violation) {
	e.logger.Warn("ignored completion signal",
		"kind", v.Kind,
		"step", v.Step,
		"index", v.Index,
		"activation_id", v.ActivationID,
		"signal", v.Signal.String(),
	)

	if vo, ok := e.observer.(ViolationObserver); ok {
		vo.OnViolation(v)
	}
}

// startProviders запускает фоновые обновления provider'ов (один раз за жизнь engine).
func (e *Engine) startProviders() {
	e.providersOnce.Do(func() {
		for _, p := range e.mc.uniqueProviders() {
			refresher, ok := p.(Refresher)
			if !ok {
				continue
			}

			e.providerWG.Add(1)
			go func(p DataProvider, r Refresher) {
				defer e.providerWG.Done()
				if err := r.Start(e.providerCtx); err != nil && !errors.Is(err, context.Canceled) {
					telemetry.WithProvider(e.logger, p.Name()).Error("data provider refresh stopped", "error", err)
				}
			}(p, refresher)
		}
	})
}

func (e *Engine) setEvaluating() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = domain.EngineStateEvaluating
	return e.index
}

func (e *Engine) setState(state domain.EngineState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = state
}

// moveTo устанавливает следующую позицию. wrapped — цикл дошёл до конца списка.
func (e *Engine) moveTo(index int, wrapped bool) {
	e.mu.Lock()
	e.index = index
	if wrapped {
		e.cycle++
		e.mc.cycle.Store(int64(e.cycle))
	}
	cycle := e.cycle
	e.mu.Unlock()

	if wrapped {
		if co, ok := e.observer.(CycleObserver); ok {
			co.OnCycle(cycle)
		}
	}
}

func (e *Engine) currentCycle() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cycle
}
