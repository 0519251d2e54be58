package steps

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/shaiso/Stepwall/internal/domain"
	"github.com/shaiso/Stepwall/internal/engine"
	"github.com/shaiso/Stepwall/internal/providers"
	"github.com/shaiso/Stepwall/internal/telemetry"
)

// Helpers

type eventLog struct {
	mu     sync.Mutex
	events []engine.StepEvent
}

func (l *eventLog) OnStepEvent(_ context.Context, event engine.StepEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

// of возвращает события шага name указанного типа.
func (l *eventLog) of(name string, kind engine.EventKind) []engine.StepEvent {
	l.mu.Lock()
	defer l.mu.Unlock()

	var result []engine.StepEvent
	for _, e := range l.events {
		if e.Step == name && e.Kind == kind {
			result = append(result, e)
		}
	}
	return result
}

type wall struct {
	engine  *engine.Engine
	display *RecordingDisplay
	events  *eventLog
}

// newWall собирает engine со всеми шагами и provider'ами пакетов.
// extra позволяет добавить тестовые шаги.
func newWall(t *testing.T, settings domain.Settings, infra providers.Infra, extra ...engine.StepFactory) *wall {
	t.Helper()

	if infra.Logger == nil {
		infra.Logger = telemetry.Discard()
	}

	reg := engine.NewRegistry()
	providers.Register(reg, infra)
	display := NewRecordingDisplay(nil, 100)
	Register(reg, display)
	for _, f := range extra {
		reg.RegisterStep(f)
	}

	res, err := engine.Resolve(settings, reg, telemetry.Discard())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	events := &eventLog{}
	eng := engine.New(res, engine.Config{Observer: events, Logger: telemetry.Discard()})
	t.Cleanup(func() { eng.Close() })

	return &wall{engine: eng, display: display, events: events}
}

func (w *wall) run(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := w.engine.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func step(id string, config map[string]any) domain.StepDefinition {
	return domain.StepDefinition{Step: id, Config: config}
}

func machineContext(capability engine.Capability, provider engine.DataProvider) *engine.MachineContext {
	return engine.NewMachineContext(
		map[engine.Capability]engine.DataProvider{capability: provider},
		telemetry.Discard(),
	)
}

func newTweets(t *testing.T, seed ...string) *providers.TweetProvider {
	t.Helper()

	var opts engine.Options
	if len(seed) > 0 {
		opts = engine.Options{"seed": seed}
	}
	p, err := providers.NewTweetProvider(opts, providers.Infra{Logger: telemetry.Discard()})
	if err != nil {
		t.Fatalf("tweet provider: %v", err)
	}
	return p
}

// Register Tests

func TestRegister(t *testing.T) {
	reg := engine.NewRegistry()
	Register(reg, NewRecordingDisplay(nil, 1))

	ids := []string{
		StepTypeNextTweet,
		StepTypeShowTweet,
		StepTypeNextSessions,
		StepTypeShowSessions,
		StepTypeShowWordCloud,
		StepTypePause,
		StepTypeRestartCycle,
		StepTypeStopAfter,
	}
	for _, id := range ids {
		if !reg.HasStep(id) {
			t.Errorf("step %q is not registered", id)
		}
	}

	f, err := reg.Step(StepTypeShowTweet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.Requires) != 1 || f.Requires[0] != providers.CapabilityTweets {
		t.Errorf("show-tweet should require tweets, got %v", f.Requires)
	}
}

// Tweet Tests

func TestTweetWall(t *testing.T) {
	w := newWall(t, domain.Settings{
		Steps: []domain.StepDefinition{
			step(StepTypeNextTweet, nil),
			step(StepTypeShowTweet, map[string]any{"duration": "0s"}),
			step(StepTypeStopAfter, map[string]any{"cycles": 3}),
		},
		DataProviders: []domain.DataProviderDefinition{
			{DataProvider: "tweets", Config: map[string]any{
				"seed": []any{"hello wall", "second message"},
			}},
		},
	}, providers.Infra{})

	w.run(t)

	frames := w.display.Frames()
	want := []string{"hello wall", "second message", "second message"}
	if len(frames) != len(want) {
		t.Fatalf("expected %d frames, got %d", len(want), len(frames))
	}
	for i, f := range frames {
		if f.Kind != FrameTweet || f.Tweet == nil {
			t.Fatalf("frame %d: expected tweet frame, got %+v", i, f)
		}
		if f.Tweet.Text != want[i] {
			t.Errorf("frame %d: expected %q, got %q", i, want[i], f.Tweet.Text)
		}
	}

	// в третьем проходе новых сообщений нет
	if skipped := w.events.of(StepTypeNextTweet, engine.EventSkipped); len(skipped) != 1 || skipped[0].Cycle != 2 {
		t.Errorf("expected next-tweet skipped once in cycle 2, got %+v", skipped)
	}
}

func TestNextTweetStep_StoresState(t *testing.T) {
	tweets := newTweets(t, "first")
	mc := machineContext(providers.CapabilityTweets, tweets)

	s, _ := NewNextTweetStep(nil)
	skip, err := s.ShouldSkip(mc)
	if err != nil || skip {
		t.Fatalf("expected step to run, skip=%v err=%v", skip, err)
	}
	if err := s.DoStep(context.Background(), mc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tweet, ok := engine.StateAs[domain.Tweet](mc, StateTweet)
	if !ok || tweet.Text != "first" {
		t.Errorf("expected tweet in state, got %+v", tweet)
	}

	skip, _ = s.ShouldSkip(mc)
	if !skip {
		t.Error("expected skip when buffer is empty")
	}
}

func TestShowTweetStep_NothingToShow(t *testing.T) {
	mc := machineContext(providers.CapabilityTweets, newTweets(t))

	s, err := NewShowTweetStep(NewRecordingDisplay(nil, 1), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	skip, err := s.ShouldSkip(mc)
	if err != nil || !skip {
		t.Errorf("expected skip without current tweet, skip=%v err=%v", skip, err)
	}
	if err := s.DoStep(context.Background(), mc); !errors.Is(err, ErrNothingToShow) {
		t.Errorf("expected ErrNothingToShow, got %v", err)
	}
	if s.PreferredDuration(mc) != defaultTweetDuration {
		t.Errorf("expected default duration, got %v", s.PreferredDuration(mc))
	}
}

func TestShowTweetStep_MissingProvider(t *testing.T) {
	mc := engine.NewMachineContext(nil, telemetry.Discard())

	s, _ := NewShowTweetStep(NewRecordingDisplay(nil, 1), nil)
	if _, err := s.ShouldSkip(mc); !errors.Is(err, engine.ErrMissingProvider) {
		t.Errorf("expected ErrMissingProvider, got %v", err)
	}
}

// Sessions Tests

type staticSlots []domain.ScheduleSlot

func (s staticSlots) SlotsEndingAfter(_ context.Context, t time.Time) ([]domain.ScheduleSlot, error) {
	var result []domain.ScheduleSlot
	for _, slot := range s {
		if slot.EndsAt.After(t) {
			result = append(result, slot)
		}
	}
	return result, nil
}

func newSessions(t *testing.T, now time.Time, slots staticSlots) *providers.SessionProvider {
	t.Helper()

	p, err := providers.NewSessionProvider(nil, providers.Infra{
		Sessions: slots,
		Logger:   telemetry.Discard(),
		Clock:    func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("session provider: %v", err)
	}
	if err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	return p
}

func TestSessionSteps(t *testing.T) {
	now := time.Date(2026, 10, 6, 10, 0, 0, 0, time.UTC)
	slots := staticSlots{
		{ID: "1", Room: "B", BeginsAt: now.Add(20 * time.Minute), EndsAt: now.Add(70 * time.Minute), Talk: &domain.Talk{Title: "Go at scale"}},
		{ID: "2", Room: "A", BeginsAt: now.Add(15 * time.Minute), EndsAt: now.Add(65 * time.Minute), Talk: &domain.Talk{Title: "Channels"}},
	}

	mc := machineContext(providers.CapabilitySessions, newSessions(t, now, slots))
	display := NewRecordingDisplay(nil, 10)

	next, _ := NewNextSessionsStep(nil)
	show, err := NewShowSessionsStep(display, engine.Options{"duration": "0s", "limit": 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// до next-sessions показывать нечего
	if skip, _ := show.ShouldSkip(mc); !skip {
		t.Error("show-sessions should skip without prepared sessions")
	}

	if skip, err := next.ShouldSkip(mc); err != nil || skip {
		t.Fatalf("expected next-sessions to run, skip=%v err=%v", skip, err)
	}
	if err := next.DoStep(context.Background(), mc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	list, ok := engine.StateAs[[]domain.Session](mc, StateSessions)
	if !ok || len(list) != 2 {
		t.Fatalf("expected 2 sessions in state, got %v", list)
	}

	if err := show.DoStep(context.Background(), mc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	frame, ok := display.Last()
	if !ok || frame.Kind != FrameSessions {
		t.Fatalf("expected sessions frame, got %+v", frame)
	}
	if len(frame.Sessions) != 1 || frame.Sessions[0].Title != "Channels" {
		t.Errorf("expected only the earliest session, got %+v", frame.Sessions)
	}
}

func TestNextSessionsStep_SkipLeavesStateAndStaleNotShown(t *testing.T) {
	now := time.Date(2026, 10, 6, 18, 0, 0, 0, time.UTC)
	mc := machineContext(providers.CapabilitySessions, newSessions(t, now, nil))
	stale := []domain.Session{{Title: "yesterday", EndsAt: now.Add(-20 * time.Hour)}}
	mc.Set(StateSessions, stale)

	next, _ := NewNextSessionsStep(nil)
	skip, err := next.ShouldSkip(mc)
	if err != nil || !skip {
		t.Fatalf("expected skip, skip=%v err=%v", skip, err)
	}

	// проверка пропуска не меняет state
	list, ok := engine.StateAs[[]domain.Session](mc, StateSessions)
	if !ok || !reflect.DeepEqual(list, stale) {
		t.Errorf("expected state untouched, got %v", list)
	}

	display := NewRecordingDisplay(nil, 1)
	show, _ := NewShowSessionsStep(display, nil)
	if skip, _ := show.ShouldSkip(mc); !skip {
		t.Error("show-sessions should skip ended sessions")
	}
	if err := show.DoStep(context.Background(), mc); !errors.Is(err, ErrNothingToShow) {
		t.Errorf("expected ErrNothingToShow, got %v", err)
	}
	if _, ok := display.Last(); ok {
		t.Error("ended sessions should not be displayed")
	}
}

// Word Cloud Tests

func TestShowWordCloudStep(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cloud, err := providers.NewWordCloudProvider(nil, providers.Infra{Redis: client, Logger: telemetry.Discard()})
	if err != nil {
		t.Fatalf("word cloud provider: %v", err)
	}
	mc := machineContext(providers.CapabilityWordCloud, cloud)
	display := NewRecordingDisplay(nil, 10)

	s, err := NewShowWordCloudStep(display, engine.Options{"duration": 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if skip, _ := s.ShouldSkip(mc); !skip {
		t.Error("expected skip for empty cloud")
	}

	mr.ZAdd(providers.DefaultWordKey, 3, "golang")
	mr.ZAdd(providers.DefaultWordKey, 5, "wall")
	if err := cloud.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if skip, _ := s.ShouldSkip(mc); skip {
		t.Error("expected step to run")
	}
	if err := s.DoStep(context.Background(), mc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	frame, _ := display.Last()
	if frame.Kind != FrameWordCloud || len(frame.Words) != 2 {
		t.Fatalf("unexpected frame: %+v", frame)
	}
	if frame.Words[0].Text != "wall" || frame.Words[0].Weight != 5 {
		t.Errorf("expected heaviest word first, got %+v", frame.Words[0])
	}
}

// Pause Tests

func TestPauseStep_CompletesAsync(t *testing.T) {
	w := newWall(t, domain.Settings{
		Steps: []domain.StepDefinition{
			step(StepTypePause, map[string]any{"duration": 30}),
			step(StepTypeStopAfter, map[string]any{"cycles": 1}),
		},
	}, providers.Infra{})

	start := time.Now()
	w.run(t)

	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("pause finished too early: %v", elapsed)
	}

	completed := w.events.of(StepTypePause, engine.EventCompleted)
	if len(completed) != 1 {
		t.Fatalf("expected one completed pause, got %d", len(completed))
	}
	if completed[0].Preferred != 30*time.Millisecond {
		t.Errorf("expected preferred 30ms, got %v", completed[0].Preferred)
	}
}

func TestPauseStep_CancelledByContext(t *testing.T) {
	w := newWall(t, domain.Settings{
		Steps: []domain.StepDefinition{step(StepTypePause, map[string]any{"duration": "1h"})},
	}, providers.Infra{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.engine.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("pause was not interrupted by context")
	}
}

func TestPauseStep_Options(t *testing.T) {
	tests := []struct {
		name    string
		opts    engine.Options
		want    time.Duration
		wantErr bool
	}{
		{"default", nil, time.Second, false},
		{"string", engine.Options{"duration": "1500ms"}, 1500 * time.Millisecond, false},
		{"milliseconds", engine.Options{"duration": 250}, 250 * time.Millisecond, false},
		{"negative", engine.Options{"duration": -5}, 0, true},
		{"unknown key", engine.Options{"duraton": "1s"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewPauseStep(tt.opts)
			if tt.wantErr {
				if !errors.Is(err, engine.ErrInvalidOptions) {
					t.Errorf("expected ErrInvalidOptions, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := s.PreferredDuration(nil); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

// Control Tests

type restartOnce struct {
	mu    sync.Mutex
	calls int
}

func (s *restartOnce) ShouldSkip(*engine.MachineContext) (bool, error) { return false, nil }

func (s *restartOnce) PreferredDuration(*engine.MachineContext) time.Duration { return 0 }

func (s *restartOnce) DoStep(_ context.Context, mc *engine.MachineContext) error {
	s.mu.Lock()
	s.calls++
	first := s.calls == 1
	s.mu.Unlock()

	if first {
		mc.Set(StateRestart, true)
	}
	mc.Proceed()
	return nil
}

func TestRestartCycleStep(t *testing.T) {
	flag := &restartOnce{}
	w := newWall(t, domain.Settings{
		Steps: []domain.StepDefinition{
			step("flag", nil),
			step(StepTypeRestartCycle, nil),
			step(StepTypeStopAfter, map[string]any{"cycles": 1}),
		},
	}, providers.Infra{}, engine.StepFactory{
		ID:  "flag",
		New: func(engine.Options) (engine.Step, error) { return flag, nil },
	})

	w.run(t)

	if n := len(w.events.of("flag", engine.EventCompleted)); n != 2 {
		t.Errorf("expected flag step twice, got %d", n)
	}

	restarts := w.events.of(StepTypeRestartCycle, engine.EventCompleted)
	if len(restarts) != 2 {
		t.Fatalf("expected restart-cycle twice, got %d", len(restarts))
	}
	if restarts[0].Signal != engine.SignalRestart || restarts[1].Signal != engine.SignalProceed {
		t.Errorf("unexpected signals: %v, %v", restarts[0].Signal, restarts[1].Signal)
	}

	// restart не начинает новый проход
	stops := w.events.of(StepTypeStopAfter, engine.EventCompleted)
	if len(stops) != 1 || stops[0].Cycle != 0 || stops[0].Signal != engine.SignalTerminate {
		t.Errorf("unexpected stop-after events: %+v", stops)
	}

	if _, ok := w.engine.Context().Get(StateRestart); ok {
		t.Error("restart flag should be cleared")
	}
}

func TestControlSteps_InvalidOptions(t *testing.T) {
	if _, err := NewRestartCycleStep(engine.Options{"key": ""}); !errors.Is(err, engine.ErrInvalidOptions) {
		t.Errorf("restart-cycle: expected ErrInvalidOptions, got %v", err)
	}
	if _, err := NewStopAfterStep(nil); !errors.Is(err, engine.ErrInvalidOptions) {
		t.Errorf("stop-after: expected ErrInvalidOptions, got %v", err)
	}
	if _, err := NewStopAfterStep(engine.Options{"cycles": -1}); !errors.Is(err, engine.ErrInvalidOptions) {
		t.Errorf("stop-after: expected ErrInvalidOptions, got %v", err)
	}
}

// Display Tests

func TestRecordingDisplay(t *testing.T) {
	next := NewRecordingDisplay(nil, 10)
	d := NewRecordingDisplay(next, 2)

	if _, ok := d.Last(); ok {
		t.Error("expected no frames")
	}

	for _, name := range []string{"a", "b", "c"} {
		if err := d.Show(context.Background(), Frame{Kind: FrameTweet, Step: name}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	frames := d.Frames()
	if len(frames) != 2 || frames[0].Step != "b" || frames[1].Step != "c" {
		t.Errorf("expected last two frames, got %+v", frames)
	}
	if len(next.Frames()) != 3 {
		t.Errorf("frames should be forwarded, got %d", len(next.Frames()))
	}
}

func TestLogDisplay_Retweet(t *testing.T) {
	var buf bytes.Buffer
	d := NewLogDisplay(telemetry.NewLogger(&buf, "json", slog.LevelInfo))

	tweet := domain.Tweet{
		Text: "RT original",
		User: domain.User{ScreenName: "retweeter"},
		Retweeted: &domain.Tweet{
			Text: "original",
			User: domain.User{ScreenName: "author"},
		},
	}
	if err := d.Show(context.Background(), Frame{Kind: FrameTweet, Step: StepTypeShowTweet, Tweet: &tweet}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, `"user":"author"`) || !strings.Contains(out, `"text":"original"`) {
		t.Errorf("expected original author and text in log, got %s", out)
	}
}
