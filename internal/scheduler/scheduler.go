package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrInvalidSchedule — расписание не задано или не разбирается.
var ErrInvalidSchedule = errors.New("invalid schedule")

// Job — работа, выполняемая по расписанию.
type Job func(ctx context.Context) error

// Runner выполняет Job сразу и затем по расписанию, пока не отменён ctx.
type Runner struct {
	schedule Schedule
	job      Job
	name     string
	clock    func() time.Time
	logger   *slog.Logger
}

// Config — конфигурация Runner.
type Config struct {
	Schedule Schedule
	Job      Job

	// Name — имя работы для логов.
	Name string

	// Clock — источник времени (по умолчанию time.Now).
	Clock func() time.Time

	Logger *slog.Logger
}

// NewRunner создаёт Runner.
func NewRunner(cfg Config) *Runner {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		schedule: cfg.Schedule,
		job:      cfg.Job,
		name:     cfg.Name,
		clock:    clock,
		logger:   logger,
	}
}

// Run блокирует до отмены ctx и возвращает ctx.Err().
//
// Ошибка одного запуска логируется и не прерывает расписание.
func (r *Runner) Run(ctx context.Context) error {
	r.tick(ctx)

	for {
		now := r.clock()
		wait := r.schedule.Next(now).Sub(now)
		if wait < 0 {
			wait = 0
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			r.tick(ctx)
		}
	}
}

// tick выполняет один запуск работы.
func (r *Runner) tick(ctx context.Context) {
	start := r.clock()
	if err := r.job(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		r.logger.Warn("scheduled job failed",
			"job", r.name,
			"schedule", r.schedule.String(),
			"error", err,
		)
		return
	}

	r.logger.Debug("scheduled job completed",
		"job", r.name,
		"elapsed", r.clock().Sub(start),
	)
}
