package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/shaiso/Stepwall/internal/engine"
)

const (
	// StepTypePause — тип шага паузы.
	StepTypePause = "pause"

	defaultPause = time.Second
)

// PauseStep — пауза между кадрами.
//
// Завершается асинхронно через duration. Отмена контекста завершает
// паузу досрочно.
//
// Конфигурация:
//
//	duration: 1500ms   # или число миллисекунд
type PauseStep struct {
	duration time.Duration
}

// NewPauseStep создаёт PauseStep.
func NewPauseStep(opts engine.Options) (engine.Step, error) {
	cfg := showOptions{Duration: defaultPause}
	if err := opts.Decode(&cfg); err != nil {
		return nil, err
	}
	if cfg.Duration < 0 {
		return nil, fmt.Errorf("%w: %s: duration must not be negative", engine.ErrInvalidOptions, StepTypePause)
	}
	return &PauseStep{duration: cfg.Duration}, nil
}

// ShouldSkip — пауза не пропускается.
func (s *PauseStep) ShouldSkip(*engine.MachineContext) (bool, error) {
	return false, nil
}

// PreferredDuration возвращает duration из конфигурации.
func (s *PauseStep) PreferredDuration(*engine.MachineContext) time.Duration {
	return s.duration
}

// DoStep завершает шаг через duration.
func (s *PauseStep) DoStep(ctx context.Context, mc *engine.MachineContext) error {
	proceedAfter(ctx, mc, s.duration)
	return nil
}
