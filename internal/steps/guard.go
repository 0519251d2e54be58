package steps

import (
	"fmt"

	"github.com/dop251/goja"

	"github.com/shaiso/Stepwall/internal/engine"
)

const optionSkipWhen = "skip_when"

// SkipGuard — JavaScript выражение, решающее, пропустить ли шаг.
//
// В выражении доступны:
//   - state — копия scratch state
//   - cycle — номер прохода (с нуля)
//
// Пример: "cycle % 3 != 0" — шаг показывается раз в три прохода.
type SkipGuard struct {
	source  string
	program *goja.Program
}

// NewSkipGuard компилирует выражение.
func NewSkipGuard(expr string) (*SkipGuard, error) {
	program, err := goja.Compile(optionSkipWhen, "("+expr+")", false)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}
	return &SkipGuard{source: expr, program: program}, nil
}

// Source возвращает исходное выражение.
func (g *SkipGuard) Source() string {
	return g.source
}

// Eval вычисляет выражение. Runtime создаётся на каждый вызов:
// goja.Runtime нельзя использовать из нескольких горутин.
func (g *SkipGuard) Eval(mc *engine.MachineContext) (bool, error) {
	vm := goja.New()

	if err := vm.Set("state", mc.Snapshot()); err != nil {
		return false, fmt.Errorf("set state: %w", err)
	}
	if err := vm.Set("cycle", mc.Cycle()); err != nil {
		return false, fmt.Errorf("set cycle: %w", err)
	}

	result, err := vm.RunProgram(g.program)
	if err != nil {
		return false, fmt.Errorf("evaluate %s %q: %w", optionSkipWhen, g.source, err)
	}
	return result.ToBoolean(), nil
}

// guardedStep добавляет SkipGuard к шагу.
type guardedStep struct {
	engine.Step
	guard *SkipGuard
}

// ShouldSkip пропускает шаг, если выражение истинно; иначе спрашивает сам шаг.
func (s *guardedStep) ShouldSkip(mc *engine.MachineContext) (bool, error) {
	skip, err := s.guard.Eval(mc)
	if err != nil || skip {
		return skip, err
	}
	return s.Step.ShouldSkip(mc)
}

// withSkipWhen оборачивает фабрику: опция skip_when снимается с опций шага
// и превращается в SkipGuard. Значение не строкой — ErrInvalidOptions.
func withSkipWhen(build func(opts engine.Options) (engine.Step, error)) func(engine.Options) (engine.Step, error) {
	return func(opts engine.Options) (engine.Step, error) {
		expr, err := opts.String(optionSkipWhen)
		if err != nil {
			return nil, err
		}

		step, err := build(opts.Without(optionSkipWhen))
		if err != nil || expr == "" {
			return step, err
		}

		guard, err := NewSkipGuard(expr)
		if err != nil {
			return nil, err
		}
		return &guardedStep{Step: step, guard: guard}, nil
	}
}
