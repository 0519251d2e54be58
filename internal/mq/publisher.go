package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Stepwall/internal/domain"
)

// MessageType — тип сообщения.
type MessageType string

// Типы сообщений.
const (
	MessageTypeTweetReceived MessageType = "tweet.received"
	MessageTypeStepEvent     MessageType = "step.event"
)

// Message — конверт сообщения.
type Message struct {
	ID        string      `json:"id"`
	Type      MessageType `json:"type"`
	Payload   any         `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// StepEventPayload — событие шага для внешних наблюдателей.
type StepEventPayload struct {
	EngineID     string  `json:"engine_id"`
	Kind         string  `json:"kind"`
	Step         string  `json:"step"`
	Index        int     `json:"index"`
	Cycle        int     `json:"cycle"`
	ActivationID string  `json:"activation_id,omitempty"`
	ElapsedSec   float64 `json:"elapsed_sec,omitempty"`
	Signal       string  `json:"signal,omitempty"`
	Error        string  `json:"error,omitempty"`
}

// newMessage создаёт конверт с новым ID.
func newMessage(msgType MessageType, payload any) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{conn: conn, logger: logger}
}

// Publish публикует сообщение в exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message, persistent bool) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	mode := amqp.Transient
	if persistent {
		mode = amqp.Persistent
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),
			string(routingKey),
			false, // mandatory
			false, // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: mode,
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Type:         string(msg.Type),
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)
		return nil
	})
}

// PublishTweet отправляет сообщение в очередь входящих.
func (p *Publisher) PublishTweet(ctx context.Context, tweet domain.Tweet) error {
	return p.Publish(ctx, ExchangeTweets, RoutingKeyIncoming,
		newMessage(MessageTypeTweetReceived, tweet), true)
}

// PublishStepEvent рассылает событие шага. События не сохраняются брокером:
// наблюдатель, подключившийся позже, их не увидит.
func (p *Publisher) PublishStepEvent(ctx context.Context, payload StepEventPayload) error {
	return p.Publish(ctx, ExchangeEvents, RoutingKeyStepEvent,
		newMessage(MessageTypeStepEvent, payload), false)
}
