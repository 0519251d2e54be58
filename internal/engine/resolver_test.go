package engine

import (
	"errors"
	"strings"
	"testing"

	"github.com/shaiso/Stepwall/internal/domain"
	"github.com/shaiso/Stepwall/internal/telemetry"
)

func testRegistry() *Registry {
	r := NewRegistry()
	r.RegisterStep(noopFactory("A", "p"))
	r.RegisterStep(noopFactory("B"))
	r.RegisterStep(noopFactory("C", "p", "q"))
	r.RegisterProvider(ProviderFactory{
		ID:       "P",
		Provides: []Capability{"p"},
		New:      func(Options) (DataProvider, error) { return &fakeProvider{name: "P"}, nil },
	})
	return r
}

func steps(ids ...string) []domain.StepDefinition {
	defs := make([]domain.StepDefinition, len(ids))
	for i, id := range ids {
		defs[i] = domain.StepDefinition{Step: id}
	}
	return defs
}

func TestResolve_Success(t *testing.T) {
	settings := domain.Settings{
		Steps: []domain.StepDefinition{
			{Step: "A"},
			{Step: "B", Name: "intermission"},
			{Step: "A"},
		},
		DataProviders: []domain.DataProviderDefinition{{DataProvider: "P"}},
	}

	res, err := Resolve(settings, testRegistry(), telemetry.Discard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(res.Steps))
	}
	for i, rs := range res.Steps {
		if rs.Index != i {
			t.Errorf("step %d has index %d", i, rs.Index)
		}
	}
	if res.Steps[1].Name != "intermission" {
		t.Errorf("expected custom name, got %s", res.Steps[1].Name)
	}
	if res.Steps[0].Name != "A" {
		t.Errorf("expected name to default to step id, got %s", res.Steps[0].Name)
	}
	if len(res.Steps[0].Requires) != 1 || res.Steps[0].Requires[0] != "p" {
		t.Errorf("unexpected requires: %v", res.Steps[0].Requires)
	}

	if _, err := res.Context.Provider("p"); err != nil {
		t.Errorf("expected provider p in context: %v", err)
	}
}

func TestResolve_NoSteps(t *testing.T) {
	_, err := Resolve(domain.Settings{}, testRegistry(), telemetry.Discard())
	if !errors.Is(err, ErrNoSteps) {
		t.Errorf("expected ErrNoSteps, got %v", err)
	}
}

func TestResolve_UnknownStep(t *testing.T) {
	_, err := Resolve(domain.Settings{Steps: steps("B", "Foo")}, testRegistry(), telemetry.Discard())
	if !errors.Is(err, ErrUnknownStep) {
		t.Fatalf("expected ErrUnknownStep, got %v", err)
	}

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %T", err)
	}
	if cfgErr.StepID != "Foo" || cfgErr.StepIndex != 1 {
		t.Errorf("expected step Foo at 1, got %s at %d", cfgErr.StepID, cfgErr.StepIndex)
	}
	if !strings.Contains(err.Error(), "Foo") {
		t.Errorf("error should name the step: %v", err)
	}
}

func TestResolve_UnmetDependency(t *testing.T) {
	constructed := 0
	r := testRegistry()
	r.RegisterStep(StepFactory{
		ID:       "C",
		Requires: []Capability{"q"},
		New: func(Options) (Step, error) {
			constructed++
			return noopStep{}, nil
		},
	})

	_, err := Resolve(domain.Settings{Steps: steps("B", "C")}, r, telemetry.Discard())
	if !errors.Is(err, ErrUnmetDependency) {
		t.Fatalf("expected ErrUnmetDependency, got %v", err)
	}

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %T", err)
	}
	if cfgErr.StepID != "C" || cfgErr.Capability != "q" {
		t.Errorf("expected step C and capability q, got %s/%s", cfgErr.StepID, cfgErr.Capability)
	}
	if !strings.Contains(err.Error(), `"q"`) {
		t.Errorf("error should name the capability: %v", err)
	}
	if constructed != 1 {
		t.Errorf("expected step C to be constructed once, got %d", constructed)
	}
}

func TestResolve_DuplicateProvider(t *testing.T) {
	built := 0
	r := testRegistry()
	r.RegisterProvider(ProviderFactory{
		ID:       "P2",
		Provides: []Capability{"p"},
		New: func(Options) (DataProvider, error) {
			built++
			return &fakeProvider{name: "P2"}, nil
		},
	})

	settings := domain.Settings{
		Steps: steps("A"),
		DataProviders: []domain.DataProviderDefinition{
			{DataProvider: "P"},
			{DataProvider: "P2"},
		},
	}

	_, err := Resolve(settings, r, telemetry.Discard())
	if !errors.Is(err, ErrDuplicateProvider) {
		t.Fatalf("expected ErrDuplicateProvider, got %v", err)
	}
	if built != 0 {
		t.Error("duplicate provider must not be constructed")
	}
}

func TestResolve_UnknownProvider(t *testing.T) {
	settings := domain.Settings{
		Steps:         steps("B"),
		DataProviders: []domain.DataProviderDefinition{{DataProvider: "missing"}},
	}

	_, err := Resolve(settings, testRegistry(), telemetry.Discard())
	if !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("expected ErrUnknownProvider, got %v", err)
	}
}

func TestResolve_ConstructionFailures(t *testing.T) {
	cause := errors.New("bad option")

	t.Run("step", func(t *testing.T) {
		r := testRegistry()
		r.RegisterStep(StepFactory{
			ID:  "broken",
			New: func(Options) (Step, error) { return nil, cause },
		})

		_, err := Resolve(domain.Settings{Steps: steps("broken")}, r, telemetry.Discard())
		if !errors.Is(err, ErrStepConstruction) {
			t.Errorf("expected ErrStepConstruction, got %v", err)
		}
		if !errors.Is(err, cause) {
			t.Errorf("expected cause to be wrapped, got %v", err)
		}
	})

	t.Run("nil step", func(t *testing.T) {
		r := testRegistry()
		r.RegisterStep(StepFactory{
			ID:  "empty",
			New: func(Options) (Step, error) { return nil, nil },
		})

		_, err := Resolve(domain.Settings{Steps: steps("empty")}, r, telemetry.Discard())
		if !errors.Is(err, ErrStepConstruction) {
			t.Errorf("expected ErrStepConstruction, got %v", err)
		}
	})

	t.Run("provider closes earlier providers", func(t *testing.T) {
		first := &fakeProvider{name: "P"}
		r := testRegistry()
		r.RegisterProvider(ProviderFactory{
			ID:       "P",
			Provides: []Capability{"p"},
			New:      func(Options) (DataProvider, error) { return first, nil },
		})
		r.RegisterProvider(ProviderFactory{
			ID:       "broken",
			Provides: []Capability{"q"},
			New:      func(Options) (DataProvider, error) { return nil, cause },
		})

		settings := domain.Settings{
			Steps: steps("A"),
			DataProviders: []domain.DataProviderDefinition{
				{DataProvider: "P"},
				{DataProvider: "broken"},
			},
		}

		_, err := Resolve(settings, r, telemetry.Discard())
		if !errors.Is(err, ErrProviderConstruction) || !errors.Is(err, cause) {
			t.Errorf("expected wrapped construction error, got %v", err)
		}
		if first.closeCount() != 1 {
			t.Error("already created provider must be closed")
		}
	})
}

func TestResolve_OptionsPassedToFactory(t *testing.T) {
	var got Options
	r := NewRegistry()
	r.RegisterStep(StepFactory{
		ID: "pause",
		New: func(opts Options) (Step, error) {
			got = opts
			return noopStep{}, nil
		},
	})

	settings := domain.Settings{
		Steps: []domain.StepDefinition{
			{Step: "pause", Config: map[string]any{"duration": "2s"}},
		},
	}

	if _, err := Resolve(settings, r, telemetry.Discard()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s, _ := got.String("duration"); s != "2s" {
		t.Errorf("expected options to reach factory, got %v", got)
	}
}

func TestCheck(t *testing.T) {
	built := 0
	reg := testRegistry()
	reg.RegisterProvider(ProviderFactory{
		ID:       "P2",
		Provides: []Capability{"p"},
		New: func(Options) (DataProvider, error) {
			built++
			return &fakeProvider{name: "P2"}, nil
		},
	})

	tests := []struct {
		name     string
		settings domain.Settings
		wantErr  error
	}{
		{
			name: "valid",
			settings: domain.Settings{
				Steps:         steps("A", "B"),
				DataProviders: []domain.DataProviderDefinition{{DataProvider: "P"}},
			},
		},
		{name: "no steps", settings: domain.Settings{}, wantErr: ErrNoSteps},
		{name: "unknown step", settings: domain.Settings{Steps: steps("B", "Foo")}, wantErr: ErrUnknownStep},
		{
			name: "unknown provider",
			settings: domain.Settings{
				Steps:         steps("B"),
				DataProviders: []domain.DataProviderDefinition{{DataProvider: "Nope"}},
			},
			wantErr: ErrUnknownProvider,
		},
		{
			name: "duplicate capability",
			settings: domain.Settings{
				Steps:         steps("A"),
				DataProviders: []domain.DataProviderDefinition{{DataProvider: "P"}, {DataProvider: "P2"}},
			},
			wantErr: ErrDuplicateProvider,
		},
		{
			name: "unmet dependency",
			settings: domain.Settings{
				Steps:         steps("C"),
				DataProviders: []domain.DataProviderDefinition{{DataProvider: "P"}},
			},
			wantErr: ErrUnmetDependency,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.settings, reg)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if built != 0 {
		t.Errorf("Check must not construct providers, built %d", built)
	}
}
