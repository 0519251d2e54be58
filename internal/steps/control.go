package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/shaiso/Stepwall/internal/engine"
)

const (
	// StepTypeRestartCycle — тип шага перезапуска цикла.
	StepTypeRestartCycle = "restart-cycle"
	// StepTypeStopAfter — тип шага остановки после N проходов.
	StepTypeStopAfter = "stop-after"
)

type restartOptions struct {
	Key string `mapstructure:"key"`
}

// RestartCycleStep начинает цикл с первого шага, если в scratch state
// под ключом key (по умолчанию "restart") лежит true. Флаг снимается.
type RestartCycleStep struct {
	key string
}

// NewRestartCycleStep создаёт RestartCycleStep.
func NewRestartCycleStep(opts engine.Options) (engine.Step, error) {
	cfg := restartOptions{Key: StateRestart}
	if err := opts.Decode(&cfg); err != nil {
		return nil, err
	}
	if cfg.Key == "" {
		return nil, fmt.Errorf("%w: %s: key must not be empty", engine.ErrInvalidOptions, StepTypeRestartCycle)
	}
	return &RestartCycleStep{key: cfg.Key}, nil
}

// ShouldSkip — шаг не пропускается.
func (s *RestartCycleStep) ShouldSkip(*engine.MachineContext) (bool, error) {
	return false, nil
}

// PreferredDuration — шаг мгновенный.
func (s *RestartCycleStep) PreferredDuration(*engine.MachineContext) time.Duration {
	return 0
}

// DoStep подаёт Restart, если флаг выставлен, иначе Proceed.
func (s *RestartCycleStep) DoStep(_ context.Context, mc *engine.MachineContext) error {
	if restart, _ := engine.StateAs[bool](mc, s.key); restart {
		mc.Delete(s.key)
		mc.Restart()
		return nil
	}
	mc.Proceed()
	return nil
}

type stopAfterOptions struct {
	Cycles int `mapstructure:"cycles"`
}

// StopAfterStep останавливает engine, когда пройдено cycles полных проходов.
// Шаг считает свой проход, поэтому в конце списка он останавливает engine
// ровно после cycles проходов.
type StopAfterStep struct {
	cycles int
}

// NewStopAfterStep создаёт StopAfterStep.
func NewStopAfterStep(opts engine.Options) (engine.Step, error) {
	var cfg stopAfterOptions
	if err := opts.Decode(&cfg); err != nil {
		return nil, err
	}
	if cfg.Cycles <= 0 {
		return nil, fmt.Errorf("%w: %s: cycles must be positive", engine.ErrInvalidOptions, StepTypeStopAfter)
	}
	return &StopAfterStep{cycles: cfg.Cycles}, nil
}

// ShouldSkip — шаг не пропускается.
func (s *StopAfterStep) ShouldSkip(*engine.MachineContext) (bool, error) {
	return false, nil
}

// PreferredDuration — шаг мгновенный.
func (s *StopAfterStep) PreferredDuration(*engine.MachineContext) time.Duration {
	return 0
}

// DoStep подаёт Terminate на последнем проходе, иначе Proceed.
func (s *StopAfterStep) DoStep(_ context.Context, mc *engine.MachineContext) error {
	if mc.Cycle()+1 >= s.cycles {
		mc.Logger().Info("cycle limit reached", "cycles", s.cycles)
		mc.Terminate()
		return nil
	}
	mc.Proceed()
	return nil
}
