package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Routing keys of the domain events.
const (
	EventOrderCreated      = "order.created"
	EventOrderStateUpdated = "order.state_updated"
	EventOrderDeleted      = "order.deleted"
	EventRatingSubmitted   = "rating.submitted"
)

// EventPublisher delivers an encoded domain event to a broker.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, []byte) error { return nil }

// Event is the envelope every domain event is sent in.
type Event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data"`
}

// publish sends an event best-effort: failures are logged, never returned.
func publish(ctx context.Context, pub EventPublisher, logger *slog.Logger, eventType string, data any) {
	if pub == nil {
		return
	}
	body, err := json.Marshal(Event{Type: eventType, OccurredAt: time.Now().UTC(), Data: data})
	if err != nil {
		logger.WarnContext(ctx, "failed to encode event", "type", eventType, "error", err)
		return
	}
	if err := pub.Publish(ctx, eventType, body); err != nil {
		logger.WarnContext(ctx, "failed to publish event", "type", eventType, "error", err)
	}
}
