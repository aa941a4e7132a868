// Package events delivers domain events to in-process handlers
package events

import (
	"context"
	"sync"

	"github.com/menusense/optimizer/internal/domain/shared"
	"go.uber.org/zap"
)

// AllEvents registers a handler for every event name
const AllEvents = "*"

// Dispatcher implements shared.EventDispatcher. Handlers run synchronously
// in registration order; a failing handler is logged and does not stop the
// others.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]shared.EventHandler
	logger   *zap.Logger
}

// NewDispatcher creates a new event dispatcher
func NewDispatcher(logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string][]shared.EventHandler),
		logger:   logger.Named("event-dispatcher"),
	}
}

var _ shared.EventDispatcher = (*Dispatcher)(nil)

// Register registers an event handler
func (d *Dispatcher) Register(eventName string, handler shared.EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventName] = append(d.handlers[eventName], handler)
	d.logger.Debug("Registered event handler", zap.String("event", eventName))
}

// Dispatch dispatches events to registered handlers
func (d *Dispatcher) Dispatch(ctx context.Context, events ...shared.DomainEvent) {
	for _, event := range events {
		name := event.EventName()

		d.mu.RLock()
		handlers := make([]shared.EventHandler, 0, len(d.handlers[name])+len(d.handlers[AllEvents]))
		handlers = append(handlers, d.handlers[name]...)
		handlers = append(handlers, d.handlers[AllEvents]...)
		d.mu.RUnlock()

		if len(handlers) == 0 {
			d.logger.Debug("No handlers registered for event", zap.String("event", name))
			continue
		}

		for _, handler := range handlers {
			if err := handler(ctx, event); err != nil {
				d.logger.Error("Failed to handle event",
					zap.String("event", name),
					zap.Error(err),
				)
			}
		}
	}
}

// AuditLog returns a handler that writes every event to logger
func AuditLog(logger *zap.Logger) shared.EventHandler {
	log := logger.Named("audit")
	return func(_ context.Context, event shared.DomainEvent) error {
		log.Info("Domain event",
			zap.String("event", event.EventName()),
			zap.Time("occurred_at", event.OccurredAt()),
			zap.Any("payload", event),
		)
		return nil
	}
}
