// Package engine содержит step engine — ядро, которое крутит стену.
//
// # Обзор
//
// Стена показывает контент по кругу: упорядоченный список шагов
// проходится бесконечно. Каждый шаг может пропустить себя, может
// работать долго и асинхронно, но обязан в конце подать сигнал
// завершения. Engine не знает, что делает шаг.
//
// # Компоненты
//
//   - registry.go — Registry: явная таблица фабрик шагов и data provider'ов
//   - resolver.go — Resolve: конфигурация → экземпляры, проверка зависимостей
//   - context.go  — MachineContext: provider'ы, scratch state, Completion
//   - engine.go   — Engine: цикл Evaluating → Active → Evaluating
//   - observer.go — Observer: события шагов для логов и метрик
//   - options.go  — Options: конфигурация экземпляра (mapstructure)
//
// # Жизненный цикл
//
//	registry := engine.NewRegistry()
//	steps.Register(registry, display)
//	providers.Register(registry, infra)
//
//	res, err := engine.Resolve(settings, registry, logger)
//	if err != nil {
//	    // ошибка конфигурации: цикл не запускается
//	}
//
//	e := engine.New(res, engine.Config{Logger: logger})
//	defer e.Close()
//
//	if err := e.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	...
//	e.Stop() // дождётся завершения активного шага
//
// # Состояния
//
//	IDLE → EVALUATING(i) → ACTIVE(i) → EVALUATING(i+1 mod N) → ...
//	                ↘ skip: EVALUATING(i+1 mod N)
//	любое → STOPPED (кооперативно, между шагами)
//
// # Ошибки
//
// Ошибки конфигурации (*ConfigError) возвращаются из Resolve до запуска.
// Ошибки шагов (ошибка или паника в ShouldSkip/DoStep) логируются,
// передаются Observer'у как EventFailed, и цикл идёт дальше.
// Лишние сигналы завершения логируются и игнорируются.
//
// Шаг, который никогда не подаёт сигнал, останавливает стену навсегда:
// engine не прерывает активный шаг.
package engine
