package steps

import (
	"context"
	"time"

	"github.com/shaiso/Stepwall/internal/domain"
	"github.com/shaiso/Stepwall/internal/engine"
	"github.com/shaiso/Stepwall/internal/providers"
)

const (
	// StepTypeNextSessions — тип шага подготовки ближайших докладов.
	StepTypeNextSessions = "next-sessions"
	// StepTypeShowSessions — тип шага показа докладов.
	StepTypeShowSessions = "show-sessions"

	defaultSessionsDuration = 8 * time.Second
)

// NextSessionsStep вычисляет ближайшие доклады и кладёт их в scratch state
// под ключом "sessions".
type NextSessionsStep struct{}

// NewNextSessionsStep создаёт NextSessionsStep.
func NewNextSessionsStep(engine.Options) (engine.Step, error) {
	return &NextSessionsStep{}, nil
}

func upcoming(mc *engine.MachineContext) ([]domain.Session, error) {
	sessions, err := engine.ProviderAs[*providers.SessionProvider](mc, providers.CapabilitySessions)
	if err != nil {
		return nil, err
	}
	return sessions.Upcoming(sessions.Now()), nil
}

// ShouldSkip пропускает шаг, если ближайших докладов нет.
func (s *NextSessionsStep) ShouldSkip(mc *engine.MachineContext) (bool, error) {
	list, err := upcoming(mc)
	if err != nil {
		return false, err
	}
	return len(list) == 0, nil
}

// PreferredDuration — шаг мгновенный.
func (s *NextSessionsStep) PreferredDuration(*engine.MachineContext) time.Duration {
	return 0
}

// DoStep сохраняет ближайшие доклады в state и сразу завершается.
func (s *NextSessionsStep) DoStep(_ context.Context, mc *engine.MachineContext) error {
	list, err := upcoming(mc)
	if err != nil {
		return err
	}

	mc.Set(StateSessions, list)
	mc.Proceed()
	return nil
}

type showSessionsOptions struct {
	Duration time.Duration `mapstructure:"duration"`
	Limit    int           `mapstructure:"limit"`
}

// ShowSessionsStep показывает доклады, подготовленные NextSessionsStep.
//
// Конфигурация:
//
//	duration: 8s
//	limit: 6     # 0 — все
type ShowSessionsStep struct {
	display  Display
	duration time.Duration
	limit    int
}

// NewShowSessionsStep создаёт ShowSessionsStep.
func NewShowSessionsStep(display Display, opts engine.Options) (engine.Step, error) {
	cfg := showSessionsOptions{Duration: defaultSessionsDuration}
	if err := opts.Decode(&cfg); err != nil {
		return nil, err
	}
	return &ShowSessionsStep{display: display, duration: cfg.Duration, limit: cfg.Limit}, nil
}

// sessions возвращает подготовленные доклады, которые ещё не закончились.
// Без провайдера докладов список берётся как есть.
func (s *ShowSessionsStep) sessions(mc *engine.MachineContext) []domain.Session {
	list, _ := engine.StateAs[[]domain.Session](mc, StateSessions)
	if provider, err := engine.ProviderAs[*providers.SessionProvider](mc, providers.CapabilitySessions); err == nil {
		list = notEnded(list, provider.Now())
	}
	if s.limit > 0 && len(list) > s.limit {
		list = list[:s.limit]
	}
	return list
}

func notEnded(list []domain.Session, now time.Time) []domain.Session {
	result := make([]domain.Session, 0, len(list))
	for _, session := range list {
		if session.EndsAt.After(now) {
			result = append(result, session)
		}
	}
	return result
}

// ShouldSkip пропускает шаг, если список пуст.
func (s *ShowSessionsStep) ShouldSkip(mc *engine.MachineContext) (bool, error) {
	return len(s.sessions(mc)) == 0, nil
}

// PreferredDuration возвращает duration из конфигурации.
func (s *ShowSessionsStep) PreferredDuration(*engine.MachineContext) time.Duration {
	return s.duration
}

// DoStep показывает доклады и завершается через duration.
func (s *ShowSessionsStep) DoStep(ctx context.Context, mc *engine.MachineContext) error {
	list := s.sessions(mc)
	if len(list) == 0 {
		return ErrNothingToShow
	}

	err := s.display.Show(ctx, Frame{
		Kind:     FrameSessions,
		Step:     StepTypeShowSessions,
		Duration: s.duration,
		Sessions: list,
	})
	if err != nil {
		return err
	}

	proceedAfter(ctx, mc, s.duration)
	return nil
}
