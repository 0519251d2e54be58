// Package api содержит admin HTTP сервер стены.
//
// Структура:
//   - handler.go        — Handler с DI (engine, кадры, приём сообщений, расписание)
//   - routes.go         — регистрация маршрутов (chi)
//   - middleware.go     — middleware (logging, recovery)
//   - response.go       — унифицированные JSON-ответы и обработка ошибок
//   - dto.go            — Data Transfer Objects
//   - engine_handler.go — /healthz, /engine, /frames
//   - tweet_handler.go  — /tweets
//   - slot_handler.go   — /slots
//
// Маршруты:
//
//	GET  /healthz
//	GET  /metrics
//	GET  /api/v1/engine
//	POST /api/v1/engine/start
//	POST /api/v1/engine/stop
//	GET  /api/v1/frames
//	POST /api/v1/tweets
//	PUT  /api/v1/slots
//	GET  /api/v1/slots/{id}
//	PUT  /api/v1/slots/{id}/favorites
package api
