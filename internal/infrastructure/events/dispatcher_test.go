package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/menusense/optimizer/internal/domain/menu"
	"github.com/menusense/optimizer/internal/domain/optimization"
	"github.com/menusense/optimizer/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func TestDispatchRoutesByName(t *testing.T) {
	d := NewDispatcher(zaptest.NewLogger(t))

	var named, wildcard []string
	d.Register("menu_item.created", func(_ context.Context, e shared.DomainEvent) error {
		named = append(named, e.EventName())
		return nil
	})
	d.Register(AllEvents, func(_ context.Context, e shared.DomainEvent) error {
		wildcard = append(wildcard, e.EventName())
		return nil
	})

	d.Dispatch(context.Background(),
		menu.MenuItemCreatedEvent{ItemID: "i1"},
		optimization.CandidateReviewedEvent{Kind: optimization.KindOptimization, Status: optimization.StatusRejected},
	)

	assert.Equal(t, []string{"menu_item.created"}, named)
	assert.Equal(t, []string{"menu_item.created", "optimization.rejected"}, wildcard)
}

func TestDispatchContinuesAfterHandlerError(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	d := NewDispatcher(zap.New(core))

	calls := 0
	d.Register("menu_item.rewritten", func(context.Context, shared.DomainEvent) error {
		calls++
		return errors.New("boom")
	})
	d.Register("menu_item.rewritten", func(context.Context, shared.DomainEvent) error {
		calls++
		return nil
	})

	d.Dispatch(context.Background(), menu.MenuItemRewrittenEvent{ItemID: "i1", UpdatedAt: time.Now()})

	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, logs.FilterMessage("Failed to handle event").Len())
}

func TestAuditLogWritesEvent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := AuditLog(zap.New(core))

	err := handler(context.Background(), menu.MenuItemCreatedEvent{ItemID: "i1", Name: "Poke"})
	assert.NoError(t, err)

	entries := logs.FilterMessage("Domain event").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "menu_item.created", entries[0].ContextMap()["event"])
	}
}
