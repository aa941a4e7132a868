package menu

import "errors"

var (
	ErrEmptyRestaurantID = errors.New("restaurant id is required")
	ErrEmptyName         = errors.New("name must not be empty")
	ErrInvalidPrice      = errors.New("price must be a finite, non-negative number")
	ErrInvalidPriceLevel = errors.New("price level must be between 1 and 4")

	ErrNoPendingEnhancement = errors.New("menu item has no pending enhancement")
	ErrMenuItemNotFound     = errors.New("menu item not found")
	ErrRestaurantNotFound   = errors.New("restaurant not found")
)
