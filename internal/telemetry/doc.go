// Package telemetry обеспечивает наблюдаемость step engine.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики шагов и циклов
//
// Все команды используют единый формат логирования
// и экспортируют метрики на /metrics endpoint.
package telemetry
