package engine

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Signal — исход активации шага.
type Signal int

const (
	// SignalProceed — шаг завершён, переходим к следующему.
	SignalProceed Signal = iota

	// SignalRestart — шаг завершён, цикл начинается с первого шага.
	SignalRestart

	// SignalTerminate — шаг завершён, engine останавливается.
	SignalTerminate
)

// String возвращает имя сигнала.
func (s Signal) String() string {
	switch s {
	case SignalProceed:
		return "proceed"
	case SignalRestart:
		return "restart"
	case SignalTerminate:
		return "terminate"
	default:
		return fmt.Sprintf("signal(%d)", int(s))
	}
}

// Виды нарушений протокола завершения.
const (
	ViolationDoubleSignal = "double_signal"
	ViolationStaleSignal  = "stale_signal"
	ViolationNoActiveStep = "no_active_step"
)

// Violation — проигнорированный сигнал завершения.
type Violation struct {
	Kind         string
	Step         string
	Index        int
	ActivationID uuid.UUID
	Signal       Signal
}

// Состояния Completion.
const (
	completionPending int32 = iota
	completionSignaled
	completionRetired
)

// Completion — одноразовый handle завершения одной активации шага.
//
// Создаётся engine заново для каждой активации. Сигнал можно подать
// из любой горутины; принимается только первый, остальные логируются
// как нарушение протокола и игнорируются.
type Completion struct {
	id    uuid.UUID
	step  string
	index int

	state  atomic.Int32
	ch     chan Signal
	report func(Violation)
}

func newCompletion(step string, index int, report func(Violation)) *Completion {
	return &Completion{
		id:     uuid.New(),
		step:   step,
		index:  index,
		ch:     make(chan Signal, 1),
		report: report,
	}
}

// ID возвращает идентификатор активации.
func (c *Completion) ID() uuid.UUID {
	return c.id
}

// Proceed сообщает, что шаг завершён.
func (c *Completion) Proceed() bool {
	return c.signal(SignalProceed)
}

// Restart сообщает, что шаг завершён и цикл нужно начать с начала.
func (c *Completion) Restart() bool {
	return c.signal(SignalRestart)
}

// Terminate сообщает, что шаг завершён и engine нужно остановить.
func (c *Completion) Terminate() bool {
	return c.signal(SignalTerminate)
}

// signal принимает первый сигнал активации. Возвращает false, если сигнал проигнорирован.
func (c *Completion) signal(s Signal) bool {
	if c.state.CompareAndSwap(completionPending, completionSignaled) {
		c.ch <- s
		return true
	}

	kind := ViolationDoubleSignal
	if c.state.Load() == completionRetired {
		kind = ViolationStaleSignal
	}
	if c.report != nil {
		c.report(Violation{
			Kind:         kind,
			Step:         c.step,
			Index:        c.index,
			ActivationID: c.id,
			Signal:       s,
		})
	}
	return false
}

// retire закрывает активацию без сигнала (шаг упал).
// Возвращает false, если шаг уже успел подать сигнал.
func (c *Completion) retire() bool {
	return c.state.CompareAndSwap(completionPending, completionRetired)
}

// MachineContext — общее состояние одного запуска engine.
//
// Содержит:
//   - data provider'ы по capability
//   - scratch state для передачи данных между шагами цикла
//   - handle завершения активного шага
//
// DoStep получает представление контекста, привязанное к своей активации:
// provider'ы и state общие, а Proceed/Restart/Terminate адресуются только
// этой активации. Поздний сигнал от завершённого шага не трогает следующий.
type MachineContext struct {
	*machineState

	// bound — активация, к которой привязано представление (nil — общий контекст).
	bound *Completion
}

// machineState — данные, общие для всех представлений MachineContext.
type machineState struct {
	providers map[Capability]DataProvider
	logger    *slog.Logger

	stateMu sync.RWMutex
	state   map[string]any

	activeMu sync.Mutex
	active   *Completion

	cycle     atomic.Int64
	violation func(Violation)
}

// NewMachineContext создаёт MachineContext с готовыми provider'ами.
func NewMachineContext(providers map[Capability]DataProvider, logger *slog.Logger) *MachineContext {
	if logger == nil {
		logger = slog.Default()
	}

	p := make(map[Capability]DataProvider, len(providers))
	for k, v := range providers {
		p[k] = v
	}

	return &MachineContext{
		machineState: &machineState{
			providers: p,
			logger:    logger,
			state:     make(map[string]any),
		},
	}
}

// forActivation возвращает представление контекста, привязанное к c.
func (mc *MachineContext) forActivation(c *Completion) *MachineContext {
	return &MachineContext{machineState: mc.machineState, bound: c}
}

// Logger возвращает логгер engine.
func (mc *MachineContext) Logger() *slog.Logger {
	return mc.logger
}

// Provider возвращает data provider по capability.
// Возвращает ErrMissingProvider, если capability не зарегистрирована.
func (mc *MachineContext) Provider(capability Capability) (DataProvider, error) {
	p, ok := mc.providers[capability]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingProvider, capability)
	}
	return p, nil
}

// Capabilities возвращает зарегистрированные capability, отсортированные по имени.
func (mc *MachineContext) Capabilities() []Capability {
	result := make([]Capability, 0, len(mc.providers))
	for c := range mc.providers {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// ProviderAs возвращает data provider, приведённый к типу T.
func ProviderAs[T any](mc *MachineContext, capability Capability) (T, error) {
	var zero T

	p, err := mc.Provider(capability)
	if err != nil {
		return zero, err
	}

	typed, ok := p.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s is %T", ErrProviderType, capability, p)
	}
	return typed, nil
}

// Get возвращает значение scratch state по ключу.
func (mc *MachineContext) Get(key string) (any, bool) {
	mc.stateMu.RLock()
	defer mc.stateMu.RUnlock()
	v, ok := mc.state[key]
	return v, ok
}

// Set сохраняет значение в scratch state. Повторный Set перезаписывает значение.
func (mc *MachineContext) Set(key string, value any) {
	mc.stateMu.Lock()
	defer mc.stateMu.Unlock()
	mc.state[key] = value
}

// Delete удаляет значение из scratch state.
func (mc *MachineContext) Delete(key string) {
	mc.stateMu.Lock()
	defer mc.stateMu.Unlock()
	delete(mc.state, key)
}

// Snapshot возвращает копию scratch state.
func (mc *MachineContext) Snapshot() map[string]any {
	mc.stateMu.RLock()
	defer mc.stateMu.RUnlock()

	result := make(map[string]any, len(mc.state))
	for k, v := range mc.state {
		result[k] = v
	}
	return result
}

// StateAs возвращает значение scratch state, приведённое к типу T.
// ok == false, если ключа нет или значение другого типа.
func StateAs[T any](mc *MachineContext, key string) (T, bool) {
	var zero T

	v, ok := mc.Get(key)
	if !ok {
		return zero, false
	}

	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// Cycle возвращает номер текущего прохода по списку шагов (с нуля).
func (mc *MachineContext) Cycle() int {
	return int(mc.cycle.Load())
}

// Completion возвращает handle завершения активации.
//
// Внутри DoStep это handle своей активации. Для общего контекста
// (Engine.Context) — handle шага, активного в момент вызова, или nil.
func (mc *MachineContext) Completion() *Completion {
	if mc.bound != nil {
		return mc.bound
	}

	mc.activeMu.Lock()
	defer mc.activeMu.Unlock()
	return mc.active
}

// Proceed сообщает, что шаг завершён.
func (mc *MachineContext) Proceed() {
	mc.signalActive(SignalProceed)
}

// Restart сообщает, что шаг завершён и цикл нужно начать сначала.
func (mc *MachineContext) Restart() {
	mc.signalActive(SignalRestart)
}

// Terminate сообщает, что шаг завершён и engine нужно остановить.
func (mc *MachineContext) Terminate() {
	mc.signalActive(SignalTerminate)
}

func (mc *MachineContext) signalActive(s Signal) {
	c := mc.Completion()
	if c == nil {
		mc.reportViolation(Violation{Kind: ViolationNoActiveStep, Index: -1, Signal: s})
		return
	}
	c.signal(s)
}

// reportViolation передаёт нарушение обработчику engine или логирует его.
func (mc *MachineContext) reportViolation(v Violation) {
	if mc.violation != nil {
		mc.violation(v)
		return
	}
	mc.logger.Warn("ignored completion signal",
		"kind", v.Kind,
		"step", v.Step,
		"signal", v.Signal.String(),
	)
}

// activate делает c активной активацией.
func (mc *MachineContext) activate(c *Completion) {
	mc.activeMu.Lock()
	defer mc.activeMu.Unlock()
	mc.active = c
}

// deactivate снимает активную активацию, если это всё ещё c.
func (mc *MachineContext) deactivate(c *Completion) {
	mc.activeMu.Lock()
	defer mc.activeMu.Unlock()
	if mc.active == c {
		mc.active = nil
	}
}

// resetState очищает scratch state.
func (mc *MachineContext) resetState() {
	mc.stateMu.Lock()
	defer mc.stateMu.Unlock()
	mc.state = make(map[string]any)
}

// uniqueProviders возвращает provider'ы без повторов
// (один экземпляр может быть зарегистрирован под несколькими capability).
func (mc *MachineContext) uniqueProviders() []DataProvider {
	seen := make(map[DataProvider]bool)
	result := make([]DataProvider, 0, len(mc.providers))

	for _, capability := range mc.Capabilities() {
		p := mc.providers[capability]
		if seen[p] {
			continue
		}
		seen[p] = true
		result = append(result, p)
	}
	return result
}

// closeProviders закрывает provider'ы, реализующие io.Closer.
func closeProviders(providers []DataProvider) error {
	var firstErr error
	for _, p := range providers {
		closer, ok := p.(io.Closer)
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close %s: %w", p.Name(), err)
		}
	}
	return firstErr
}
