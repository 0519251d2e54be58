package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser — парсер cron-выражений.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Schedule — расписание обновлений: cron-выражение или фиксированный интервал.
type Schedule struct {
	interval time.Duration
	cron     cron.Schedule
	expr     string
	loc      *time.Location
}

// Every возвращает расписание с фиксированным интервалом.
func Every(interval time.Duration) (Schedule, error) {
	if interval <= 0 {
		return Schedule{}, fmt.Errorf("%w: interval must be positive", ErrInvalidSchedule)
	}
	return Schedule{interval: interval, loc: time.UTC}, nil
}

// Cron возвращает расписание по cron-выражению в заданной timezone.
// Невалидная timezone заменяется на UTC.
func Cron(expr, timezone string) (Schedule, error) {
	parsed, err := cronParser.Parse(expr)
	if err != nil {
		return Schedule{}, fmt.Errorf("%w: cron expression %q: %v", ErrInvalidSchedule, expr, err)
	}

	loc := time.UTC
	if timezone != "" {
		if l, err := time.LoadLocation(timezone); err == nil {
			loc = l
		}
	}

	return Schedule{cron: parsed, expr: expr, loc: loc}, nil
}

// New выбирает расписание: cron, если выражение задано, иначе интервал.
func New(expr, timezone string, interval time.Duration) (Schedule, error) {
	if expr != "" {
		return Cron(expr, timezone)
	}
	return Every(interval)
}

// Next вычисляет следующее время срабатывания после from.
func (s Schedule) Next(from time.Time) time.Time {
	if s.cron != nil {
		return s.cron.Next(from.In(s.loc)).UTC()
	}
	return from.Add(s.interval).UTC()
}

// IsCron проверяет, задано ли расписание cron-выражением.
func (s Schedule) IsCron() bool {
	return s.cron != nil
}

// String возвращает расписание в виде для логов.
func (s Schedule) String() string {
	if s.cron != nil {
		return fmt.Sprintf("cron %q (%s)", s.expr, s.loc)
	}
	return "every " + s.interval.String()
}

// ValidateCronExpr проверяет валидность cron-выражения.
func ValidateCronExpr(cronExpr string) error {
	_, err := cronParser.Parse(cronExpr)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}
	return nil
}
