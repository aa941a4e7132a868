// Package shared holds the domain primitives used across menu aggregates.
package shared

import (
	"context"
	"time"
)

// DomainEvent represents an event that has occurred in the domain
type DomainEvent interface {
	EventName() string
	OccurredAt() time.Time
}

// EventHandler handles domain events
type EventHandler func(ctx context.Context, event DomainEvent) error

// EventDispatcher dispatches domain events to handlers
type EventDispatcher interface {
	Dispatch(ctx context.Context, events ...DomainEvent)
	Register(eventName string, handler EventHandler)
}

// AggregateRoot collects events raised by an aggregate until they are drained.
type AggregateRoot struct {
	events []DomainEvent
}

// AddEvent adds a domain event to be dispatched
func (a *AggregateRoot) AddEvent(event DomainEvent) {
	a.events = append(a.events, event)
}

// Events returns and clears pending domain events
func (a *AggregateRoot) Events() []DomainEvent {
	events := a.events
	a.events = nil
	return events
}
