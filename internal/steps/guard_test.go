package steps

import (
	"errors"
	"testing"

	"github.com/shaiso/Stepwall/internal/domain"
	"github.com/shaiso/Stepwall/internal/engine"
	"github.com/shaiso/Stepwall/internal/providers"
	"github.com/shaiso/Stepwall/internal/telemetry"
)

func TestSkipGuard_Eval(t *testing.T) {
	mc := engine.NewMachineContext(nil, telemetry.Discard())
	mc.Set(StateRestart, true)

	tests := []struct {
		expr string
		want bool
	}{
		{"true", true},
		{"cycle == 0", true},
		{"cycle > 0", false},
		{"state.restart === true", true},
		{"state.tweet !== undefined", false},
		{"'tweet' in state", false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			guard, err := NewSkipGuard(tt.expr)
			if err != nil {
				t.Fatalf("compile: %v", err)
			}
			if guard.Source() != tt.expr {
				t.Errorf("expected source %q, got %q", tt.expr, guard.Source())
			}

			got, err := guard.Eval(mc)
			if err != nil {
				t.Fatalf("eval: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSkipGuard_Errors(t *testing.T) {
	if _, err := NewSkipGuard("cycle >"); !errors.Is(err, ErrInvalidScript) {
		t.Errorf("expected ErrInvalidScript, got %v", err)
	}

	guard, err := NewSkipGuard("missing.value")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if _, err := guard.Eval(engine.NewMachineContext(nil, telemetry.Discard())); err == nil {
		t.Error("expected runtime error")
	}
}

func TestSkipWhen_Factory(t *testing.T) {
	reg := engine.NewRegistry()
	Register(reg, NewRecordingDisplay(nil, 1))

	f, err := reg.Step(StepTypePause)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.New(engine.Options{"skip_when": "cycle >"}); !errors.Is(err, ErrInvalidScript) {
		t.Errorf("expected ErrInvalidScript, got %v", err)
	}

	// skip_when не передаётся в опции самого шага
	s, err := f.New(engine.Options{"skip_when": "cycle % 2 == 1", "duration": "0s"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := s.(*guardedStep); !ok {
		t.Errorf("expected guarded step, got %T", s)
	}

	s, err = f.New(engine.Options{"duration": "0s"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := s.(*PauseStep); !ok {
		t.Errorf("expected plain pause step, got %T", s)
	}
}

func TestSkipWhen_NotString(t *testing.T) {
	reg := engine.NewRegistry()
	Register(reg, NewRecordingDisplay(nil, 1))

	f, err := reg.Step(StepTypePause)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name  string
		value any
	}{
		{"bool", true},
		{"int", 1},
		{"list", []any{"cycle > 0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := f.New(engine.Options{"skip_when": tt.value, "duration": "0s"})
			if !errors.Is(err, engine.ErrInvalidOptions) {
				t.Errorf("expected ErrInvalidOptions, got %v (step %T)", err, s)
			}
		})
	}
}

func TestSkipWhen_InEngine(t *testing.T) {
	w := newWall(t, domain.Settings{
		Steps: []domain.StepDefinition{
			{Step: StepTypePause, Name: "odd", Config: map[string]any{"duration": 0, "skip_when": "cycle % 2 == 0"}},
			{Step: StepTypePause, Name: "broken", Config: map[string]any{"duration": 0, "skip_when": "missing.value"}},
			step(StepTypeStopAfter, map[string]any{"cycles": 4}),
		},
	}, providers.Infra{})

	w.run(t)

	skipped := w.events.of("odd", engine.EventSkipped)
	completed := w.events.of("odd", engine.EventCompleted)
	if len(skipped) != 2 || len(completed) != 2 {
		t.Fatalf("expected 2 skipped and 2 completed, got %d and %d", len(skipped), len(completed))
	}
	for _, e := range completed {
		if e.Cycle%2 != 1 {
			t.Errorf("step should run only in odd cycles, ran in %d", e.Cycle)
		}
	}

	// ошибка выражения: шаг не запускается, цикл продолжается
	if failed := w.events.of("broken", engine.EventFailed); len(failed) != 4 {
		t.Errorf("expected 4 failed checks, got %d", len(failed))
	}
	if n := len(w.events.of("broken", engine.EventEntered)); n != 0 {
		t.Errorf("broken step must not be entered, got %d", n)
	}
}
