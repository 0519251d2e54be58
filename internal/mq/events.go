package mq

import (
	"context"

	"github.com/google/uuid"

	"github.com/shaiso/Stepwall/internal/engine"
	"github.com/shaiso/Stepwall/internal/telemetry"
)

// EventPublisher — то, во что EventObserver отправляет события (*Publisher).
type EventPublisher interface {
	PublishStepEvent(ctx context.Context, payload StepEventPayload) error
}

// EventObserver рассылает события шагов в exchange stepwall.events.
//
// Ошибки публикации только логируются: недоступный брокер не должен
// останавливать стену.
type EventObserver struct {
	pub EventPublisher
}

// NewEventObserver создаёт EventObserver.
func NewEventObserver(pub EventPublisher) *EventObserver {
	return &EventObserver{pub: pub}
}

// OnStepEvent публикует событие. Пропущенные шаги не публикуются.
func (o *EventObserver) OnStepEvent(ctx context.Context, event engine.StepEvent) {
	if event.Kind == engine.EventSkipped {
		return
	}

	if err := o.pub.PublishStepEvent(ctx, StepEventPayloadFrom(event)); err != nil {
		telemetry.FromContext(ctx).Debug("step event not published", "error", err, "step", event.Step)
	}
}

// StepEventPayloadFrom переводит событие engine в формат сообщения.
func StepEventPayloadFrom(event engine.StepEvent) StepEventPayload {
	p := StepEventPayload{
		EngineID: event.EngineID.String(),
		Kind:     string(event.Kind),
		Step:     event.Step,
		Index:    event.Index,
		Cycle:    event.Cycle,
	}

	if event.ActivationID != uuid.Nil {
		p.ActivationID = event.ActivationID.String()
	}
	if event.Elapsed > 0 {
		p.ElapsedSec = event.Elapsed.Seconds()
	}
	if event.Kind == engine.EventCompleted {
		p.Signal = event.Signal.String()
	}
	if event.Err != nil {
		p.Error = event.Err.Error()
	}
	return p
}
