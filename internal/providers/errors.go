package providers

import "errors"

var (
	// ErrNoDatabase — provider требует Postgres, но соединение не настроено.
	ErrNoDatabase = errors.New("database is not configured")

	// ErrNoRedis — provider требует Redis, но клиент не настроен.
	ErrNoRedis = errors.New("redis is not configured")
)
