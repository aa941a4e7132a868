package menu

import "time"

// MenuItemCreatedEvent is raised when an item is added to a live menu
type MenuItemCreatedEvent struct {
	ItemID       string
	RestaurantID string
	Name         string
	Generated    bool
	CreatedAt    time.Time
}

func (e MenuItemCreatedEvent) EventName() string {
	return "menu_item.created"
}

func (e MenuItemCreatedEvent) OccurredAt() time.Time {
	return e.CreatedAt
}

// MenuItemRewrittenEvent is raised when an approved optimization replaces the item's copy
type MenuItemRewrittenEvent struct {
	ItemID    string
	OldName   string
	NewName   string
	UpdatedAt time.Time
}

func (e MenuItemRewrittenEvent) EventName() string {
	return "menu_item.rewritten"
}

func (e MenuItemRewrittenEvent) OccurredAt() time.Time {
	return e.UpdatedAt
}
