package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/menusense/optimizer/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

// EventChannel is the pub/sub channel review and menu events are fanned out on
const EventChannel = "menusense:events"

// EventEnvelope is the JSON message published for each domain event
type EventEnvelope struct {
	Name       string          `json:"name"`
	OccurredAt time.Time       `json:"occurredAt"`
	Payload    json.RawMessage `json:"payload"`
}

// EventPublisher republishes domain events on a Redis channel
type EventPublisher struct {
	client  redis.UniversalClient
	channel string
}

// NewEventPublisher creates a publisher for channel; an empty channel uses
// EventChannel
func NewEventPublisher(client redis.UniversalClient, channel string) *EventPublisher {
	if channel == "" {
		channel = EventChannel
	}
	return &EventPublisher{client: client, channel: channel}
}

// Handle publishes event; it satisfies shared.EventHandler
func (p *EventPublisher) Handle(ctx context.Context, event shared.DomainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event.EventName(), err)
	}
	msg, err := json.Marshal(EventEnvelope{
		Name:       event.EventName(),
		OccurredAt: event.OccurredAt(),
		Payload:    payload,
	})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	return p.client.Publish(ctx, p.channel, msg).Err()
}
