// Package scheduler запускает периодические обновления data provider'ов.
//
// Расписание задаётся либо фиксированным интервалом, либо cron-выражением
// (5 полей, с timezone). Cron удобен, когда расписание докладов нужно
// перечитывать чаще во время перерывов:
//
//	refresh_cron: "*/2 9-18 * * 1-5"
//	timezone: Europe/Moscow
//
// Структура:
//   - scheduler.go — Runner: запуск работы сразу и затем по расписанию
//   - cron.go      — Schedule: интервал или cron, вычисление следующего времени
//
// Использование:
//
//	sched, err := scheduler.New(cfg.RefreshCron, cfg.Timezone, cfg.RefreshInterval)
//	if err != nil {
//	    return err
//	}
//
//	runner := scheduler.NewRunner(scheduler.Config{
//	    Schedule: sched,
//	    Job:      provider.Refresh,
//	    Name:     "sessions",
//	    Logger:   logger,
//	})
//	return runner.Run(ctx) // до отмены ctx
package scheduler
