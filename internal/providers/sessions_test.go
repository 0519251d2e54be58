package providers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/Stepwall/internal/domain"
	"github.com/shaiso/Stepwall/internal/engine"
)

type fakeSlots struct {
	mu    sync.Mutex
	slots []domain.ScheduleSlot
	err   error
	calls int
}

func (f *fakeSlots) SlotsEndingAfter(_ context.Context, t time.Time) ([]domain.ScheduleSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}

	var result []domain.ScheduleSlot
	for _, s := range f.slots {
		if s.EndsAt.After(t) {
			result = append(result, s)
		}
	}
	return result, nil
}

func (f *fakeSlots) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestSessionProvider_Upcoming(t *testing.T) {
	now := time.Date(2026, 10, 6, 10, 0, 0, 0, time.UTC)
	talk := func(title string) *domain.Talk { return &domain.Talk{Title: title} }

	source := &fakeSlots{slots: []domain.ScheduleSlot{
		{ID: "1", Room: "B", BeginsAt: now.Add(30 * time.Minute), EndsAt: now.Add(80 * time.Minute), Talk: talk("later in B")},
		{ID: "2", Room: "A", BeginsAt: now.Add(-20 * time.Minute), EndsAt: now.Add(5 * time.Minute), Talk: talk("ending soon")},
		{ID: "3", Room: "A", BeginsAt: now.Add(10 * time.Minute), EndsAt: now.Add(60 * time.Minute), Talk: talk("next in A")},
		{ID: "4", Room: "C", BeginsAt: now.Add(2 * time.Hour), EndsAt: now.Add(3 * time.Hour), Talk: talk("too far")},
		{ID: "5", Room: "Hall", BeginsAt: now, EndsAt: now.Add(30 * time.Minute)},
	}}

	infra := testInfra()
	infra.Sessions = source
	infra.Clock = func() time.Time { return now }

	p, err := NewSessionProvider(engine.Options{"starts_within_minutes": 60}, infra)
	require.NoError(t, err)
	require.NoError(t, p.Refresh(context.Background()))

	sessions := p.Upcoming(p.Now())
	require.Len(t, sessions, 2)
	assert.Equal(t, "next in A", sessions[0].Title)
	assert.Equal(t, "later in B", sessions[1].Title)
	assert.Equal(t, now, p.LoadedAt())
}

func TestSessionProvider_RequiresDatabase(t *testing.T) {
	_, err := NewSessionProvider(nil, testInfra())
	assert.ErrorIs(t, err, ErrNoDatabase)
}

func TestSessionProvider_InvalidOptions(t *testing.T) {
	infra := testInfra()
	infra.Sessions = &fakeSlots{}

	_, err := NewSessionProvider(engine.Options{"refresh_interval": "0s"}, infra)
	assert.ErrorIs(t, err, engine.ErrInvalidOptions)

	_, err = NewSessionProvider(engine.Options{"refresh_interval": "soon"}, infra)
	assert.ErrorIs(t, err, engine.ErrInvalidOptions)

	_, err = NewSessionProvider(engine.Options{"refresh_cron": "every break"}, infra)
	assert.ErrorIs(t, err, engine.ErrInvalidOptions)
}

func TestSessionProvider_CronRefresh(t *testing.T) {
	infra := testInfra()
	infra.Sessions = &fakeSlots{}

	p, err := NewSessionProvider(engine.Options{
		"refresh_cron":     "*/5 9-18 * * 1-5",
		"timezone":         "UTC",
		"refresh_interval": 0,
	}, infra)
	require.NoError(t, err)
	assert.True(t, p.schedule.IsCron(), "cron takes precedence over refresh_interval")
}

func TestSessionProvider_StartRefreshes(t *testing.T) {
	source := &fakeSlots{err: errors.New("db down")}
	infra := testInfra()
	infra.Sessions = source

	p, err := NewSessionProvider(engine.Options{"refresh_interval": "10ms"}, infra)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Start(ctx) }()

	assert.Eventually(t, func() bool { return source.callCount() >= 3 }, time.Second, 5*time.Millisecond,
		"refresh should keep running after errors")

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.True(t, p.LoadedAt().IsZero())
}
