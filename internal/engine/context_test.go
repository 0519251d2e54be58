package engine

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/shaiso/Stepwall/internal/telemetry"
)

// fakeProvider — provider для тестов: фоновое обновление и Close.
type fakeProvider struct {
	name    string
	started chan struct{}

	mu     sync.Mutex
	closed int
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Start(ctx context.Context) error {
	if p.started != nil {
		close(p.started)
	}
	<-ctx.Done()
	return ctx.Err()
}

func (p *fakeProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed++
	return nil
}

func (p *fakeProvider) closeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// plainProvider — provider без Close и Start.
type plainProvider struct{ name string }

func (p plainProvider) Name() string { return p.name }

// --- MachineContext Tests ---

func TestMachineContext_Provider(t *testing.T) {
	p := &fakeProvider{name: "tweets"}
	mc := NewMachineContext(map[Capability]DataProvider{"tweets": p}, telemetry.Discard())

	got, err := mc.Provider("tweets")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != p {
		t.Error("expected registered provider")
	}

	_, err = mc.Provider("sessions")
	if !errors.Is(err, ErrMissingProvider) {
		t.Errorf("expected ErrMissingProvider, got %v", err)
	}
}

func TestMachineContext_ProviderAs(t *testing.T) {
	p := &fakeProvider{name: "tweets"}
	mc := NewMachineContext(map[Capability]DataProvider{
		"tweets": p,
		"plain":  plainProvider{name: "plain"},
	}, telemetry.Discard())

	typed, err := ProviderAs[*fakeProvider](mc, "tweets")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if typed != p {
		t.Error("expected same instance")
	}

	_, err = ProviderAs[*fakeProvider](mc, "plain")
	if !errors.Is(err, ErrProviderType) {
		t.Errorf("expected ErrProviderType, got %v", err)
	}

	_, err = ProviderAs[*fakeProvider](mc, "missing")
	if !errors.Is(err, ErrMissingProvider) {
		t.Errorf("expected ErrMissingProvider, got %v", err)
	}
}

func TestMachineContext_Capabilities(t *testing.T) {
	mc := NewMachineContext(map[Capability]DataProvider{
		"wordcloud": plainProvider{},
		"sessions":  plainProvider{},
		"tweets":    plainProvider{},
	}, nil)

	want := []Capability{"sessions", "tweets", "wordcloud"}
	if got := mc.Capabilities(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestMachineContext_State(t *testing.T) {
	mc := NewMachineContext(nil, telemetry.Discard())

	if _, ok := mc.Get("tweet"); ok {
		t.Error("expected empty state")
	}

	mc.Set("tweet", "hello")
	mc.Set("count", 3)
	mc.Set("tweet", "world")

	s, ok := StateAs[string](mc, "tweet")
	if !ok || s != "world" {
		t.Errorf("expected 'world', got %q (ok=%v)", s, ok)
	}

	if _, ok := StateAs[string](mc, "count"); ok {
		t.Error("expected type mismatch to report false")
	}

	snapshot := mc.Snapshot()
	snapshot["tweet"] = "mutated"
	if v, _ := mc.Get("tweet"); v != "world" {
		t.Error("snapshot must be a copy")
	}

	mc.Delete("tweet")
	if _, ok := mc.Get("tweet"); ok {
		t.Error("expected key to be deleted")
	}

	mc.resetState()
	if len(mc.Snapshot()) != 0 {
		t.Error("expected empty state after reset")
	}
}

func TestMachineContext_UniqueProviders(t *testing.T) {
	shared := &fakeProvider{name: "shared"}
	other := &fakeProvider{name: "other"}

	mc := NewMachineContext(map[Capability]DataProvider{
		"a": shared,
		"b": shared,
		"c": other,
	}, nil)

	if got := len(mc.uniqueProviders()); got != 2 {
		t.Errorf("expected 2 unique providers, got %d", got)
	}
}

// --- Completion Tests ---

func TestCompletion_FirstSignalWins(t *testing.T) {
	var violations []Violation
	c := newCompletion("show-tweet", 2, func(v Violation) { violations = append(violations, v) })

	if !c.Restart() {
		t.Fatal("first signal should be accepted")
	}
	if c.Proceed() {
		t.Error("second signal should be rejected")
	}

	select {
	case sig := <-c.ch:
		if sig != SignalRestart {
			t.Errorf("expected restart, got %s", sig)
		}
	default:
		t.Fatal("expected signal in channel")
	}

	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(violations))
	}
	v := violations[0]
	if v.Kind != ViolationDoubleSignal || v.Step != "show-tweet" || v.Index != 2 || v.Signal != SignalProceed {
		t.Errorf("unexpected violation: %+v", v)
	}
	if v.ActivationID != c.ID() {
		t.Error("violation should carry activation id")
	}
}

func TestCompletion_Retired(t *testing.T) {
	var kinds []string
	c := newCompletion("pause", 0, func(v Violation) { kinds = append(kinds, v.Kind) })

	if !c.retire() {
		t.Fatal("pending completion should retire")
	}
	if c.Terminate() {
		t.Error("retired completion should reject signals")
	}
	if !reflect.DeepEqual(kinds, []string{ViolationStaleSignal}) {
		t.Errorf("expected stale_signal, got %v", kinds)
	}

	signaled := newCompletion("pause", 0, nil)
	signaled.Proceed()
	if signaled.retire() {
		t.Error("signaled completion should not retire")
	}
}

func TestMachineContext_BoundViewSignalsOwnActivation(t *testing.T) {
	var kinds []string
	report := func(v Violation) { kinds = append(kinds, v.Kind) }

	mc := NewMachineContext(nil, telemetry.Discard())
	first := newCompletion("A", 0, report)
	second := newCompletion("B", 1, report)

	mc.activate(first)
	view := mc.forActivation(first)
	view.Proceed()
	mc.deactivate(first)
	<-first.ch

	mc.activate(second)
	view.Set("shared", true)
	view.Proceed()

	select {
	case sig := <-second.ch:
		t.Fatalf("late signal completed the next activation: %s", sig)
	default:
	}
	if !reflect.DeepEqual(kinds, []string{ViolationDoubleSignal}) {
		t.Errorf("expected double_signal, got %v", kinds)
	}
	if view.Completion() != first || mc.Completion() != second {
		t.Error("view must stay bound while the base context follows the active step")
	}
	if _, ok := mc.Get("shared"); !ok {
		t.Error("view must share scratch state")
	}
}

func TestCompletion_ConcurrentSignals(t *testing.T) {
	var mu sync.Mutex
	violations := 0
	c := newCompletion("race", 0, func(Violation) {
		mu.Lock()
		violations++
		mu.Unlock()
	})

	const n = 20
	var wg sync.WaitGroup
	accepted := make(chan bool, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			accepted <- c.Proceed()
		}()
	}
	wg.Wait()
	close(accepted)

	count := 0
	for ok := range accepted {
		if ok {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one accepted signal, got %d", count)
	}
	if violations != n-1 {
		t.Errorf("expected %d violations, got %d", n-1, violations)
	}

	select {
	case <-c.ch:
	case <-time.After(time.Second):
		t.Fatal("expected signal in channel")
	}
}

func TestSignal_String(t *testing.T) {
	tests := []struct {
		sig  Signal
		want string
	}{
		{SignalProceed, "proceed"},
		{SignalRestart, "restart"},
		{SignalTerminate, "terminate"},
		{Signal(9), "signal(9)"},
	}

	for _, tt := range tests {
		if got := tt.sig.String(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}
