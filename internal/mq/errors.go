package mq

import "errors"

var (
	// ErrNoChannel — канал недоступен (соединение потеряно и ещё не восстановлено).
	ErrNoChannel = errors.New("no amqp channel available")

	// ErrClosed — соединение закрыто вызовом Close.
	ErrClosed = errors.New("amqp connection closed")
)
