package providers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shaiso/Stepwall/internal/domain"
	"github.com/shaiso/Stepwall/internal/engine"
	"github.com/shaiso/Stepwall/internal/scheduler"
)

// Значения по умолчанию для sessions.
const (
	defaultSessionRefresh      = 5 * time.Minute
	defaultStartsWithinMinutes = 60
)

// SlotSource — источник расписания (repo.SessionRepo).
type SlotSource interface {
	SlotsEndingAfter(ctx context.Context, t time.Time) ([]domain.ScheduleSlot, error)
}

type sessionOptions struct {
	RefreshInterval     time.Duration `mapstructure:"refresh_interval"`
	RefreshCron         string        `mapstructure:"refresh_cron"`
	Timezone            string        `mapstructure:"timezone"`
	StartsWithinMinutes int           `mapstructure:"starts_within_minutes"`
}

// SessionProvider — кэш расписания конференции.
type SessionProvider struct {
	source       SlotSource
	schedule     scheduler.Schedule
	startsWithin time.Duration
	clock        func() time.Time
	logger       *slog.Logger

	mu       sync.RWMutex
	slots    []domain.ScheduleSlot
	loadedAt time.Time
}

// NewSessionProvider создаёт SessionProvider из опций.
func NewSessionProvider(opts engine.Options, infra Infra) (*SessionProvider, error) {
	if infra.Sessions == nil {
		return nil, ErrNoDatabase
	}

	cfg := sessionOptions{
		RefreshInterval:     defaultSessionRefresh,
		StartsWithinMinutes: defaultStartsWithinMinutes,
	}
	if err := opts.Decode(&cfg); err != nil {
		return nil, err
	}
	sched, err := scheduler.New(cfg.RefreshCron, cfg.Timezone, cfg.RefreshInterval)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", engine.ErrInvalidOptions, err)
	}
	if cfg.StartsWithinMinutes <= 0 {
		return nil, fmt.Errorf("%w: starts_within_minutes must be positive", engine.ErrInvalidOptions)
	}

	return &SessionProvider{
		source:       infra.Sessions,
		schedule:     sched,
		startsWithin: time.Duration(cfg.StartsWithinMinutes) * time.Minute,
		clock:        infra.clock(),
		logger:       infra.logger().With("provider", CapabilitySessions),
	}, nil
}

// Name реализует engine.DataProvider.
func (p *SessionProvider) Name() string {
	return string(CapabilitySessions)
}

// Now возвращает текущее время по часам provider'а.
func (p *SessionProvider) Now() time.Time {
	return p.clock()
}

// Refresh перечитывает расписание.
func (p *SessionProvider) Refresh(ctx context.Context) error {
	now := p.clock()

	slots, err := p.source.SlotsEndingAfter(ctx, now)
	if err != nil {
		return fmt.Errorf("load schedule: %w", err)
	}

	p.mu.Lock()
	p.slots = slots
	p.loadedAt = now
	p.mu.Unlock()

	p.logger.Debug("schedule refreshed", "slots", len(slots))
	return nil
}

// Start обновляет расписание сразу и затем по refresh_cron или раз в refresh_interval.
func (p *SessionProvider) Start(ctx context.Context) error {
	return scheduler.NewRunner(scheduler.Config{
		Schedule: p.schedule,
		Job:      p.Refresh,
		Name:     "sessions refresh",
		Logger:   p.logger,
	}).Run(ctx)
}

// Upcoming возвращает доклады, которые стоит показать в момент now.
func (p *SessionProvider) Upcoming(now time.Time) []domain.Session {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return domain.UpcomingSessions(p.slots, now, p.startsWithin)
}

// LoadedAt возвращает время последнего успешного обновления.
func (p *SessionProvider) LoadedAt() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loadedAt
}
