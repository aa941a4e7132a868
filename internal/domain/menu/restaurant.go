// Package menu contains the restaurant and menu item aggregates that the
// optimization pipeline reads and, on approval, rewrites.
package menu

import "strings"

// PriceLevel is the restaurant's price tier, from 1 (budget) to 4 (fine dining).
type PriceLevel int

const (
	PriceLevelBudget   PriceLevel = 1
	PriceLevelModerate PriceLevel = 2
	PriceLevelUpscale  PriceLevel = 3
	PriceLevelFine     PriceLevel = 4
)

// Valid reports whether the level is one of the four known tiers.
func (p PriceLevel) Valid() bool {
	return p >= PriceLevelBudget && p <= PriceLevelFine
}

// OrDefault returns the level, or moderate when the level is unknown.
func (p PriceLevel) OrDefault() PriceLevel {
	if p.Valid() {
		return p
	}
	return PriceLevelModerate
}

// Restaurant is read-only input to the pipeline.
type Restaurant struct {
	ID             string     `json:"restaurantId"`
	Name           string     `json:"name"`
	Cuisine        string     `json:"cuisine,omitempty"`
	PriceLevel     PriceLevel `json:"priceLevel"`
	Location       string     `json:"location,omitempty"`
	PeerEntityID   string     `json:"peerEntityId,omitempty"`
	TargetAudience string     `json:"targetAudience,omitempty"`
}

// NewRestaurant validates and builds a restaurant.
func NewRestaurant(id, name string, level PriceLevel) (*Restaurant, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrEmptyRestaurantID
	}
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}
	if !level.Valid() {
		return nil, ErrInvalidPriceLevel
	}
	return &Restaurant{ID: id, Name: name, PriceLevel: level}, nil
}
