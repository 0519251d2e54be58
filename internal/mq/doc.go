// Package mq подключает Stepwall к RabbitMQ.
//
// Стена получает сообщения из внешнего сборщика (например, поиск по хэштегу)
// через очередь и публикует события своего цикла для внешних наблюдателей.
//
// Структура:
//   - connection.go — соединение с reconnect
//   - topology.go   — exchanges, queues, bindings
//   - consumer.go   — потребление сообщений
//   - publisher.go  — публикация сообщений
//
// Типы сообщений:
//   - tweet.received — новое сообщение для стены (payload: domain.Tweet)
//   - step.event     — событие шага engine (payload: StepEventPayload)
//
// Exchanges:
//   - stepwall.tweets — входящие сообщения
//   - stepwall.events — события engine (fanout)
//   - stepwall.dlq    — сообщения, которые не удалось разобрать
package mq
