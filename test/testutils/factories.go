// Package testutils provides test data factories for consistent test data generation
package testutils

import (
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/menusense/optimizer/internal/domain/market"
	"github.com/menusense/optimizer/internal/domain/menu"
)

// MenuFactory creates restaurants, items and market data from a seeded faker.
type MenuFactory struct {
	faker *gofakeit.Faker
}

// NewMenuFactory creates a new factory with seeded faker
func NewMenuFactory(seed int64) *MenuFactory {
	return &MenuFactory{faker: gofakeit.New(seed)}
}

// Restaurant returns a valid restaurant at the given price level.
func (f *MenuFactory) Restaurant(level menu.PriceLevel) *menu.Restaurant {
	return &menu.Restaurant{
		ID:         uuid.NewString(),
		Name:       f.faker.Company() + " Kitchen",
		Cuisine:    f.faker.RandomString([]string{"Seafood", "Italian", "Mexican", "Thai", "American"}),
		PriceLevel: level,
		Location:   f.faker.City(),
	}
}

// MenuItem returns an active item for restaurantID with a believable dish.
func (f *MenuFactory) MenuItem(restaurantID string) *menu.MenuItem {
	return NewMenuItemBuilder(f.faker).WithRestaurant(restaurantID).Build()
}

// MenuItems returns n active items for restaurantID, created a second apart
// so repository ordering is stable.
func (f *MenuFactory) MenuItems(restaurantID string, n int) []*menu.MenuItem {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	items := make([]*menu.MenuItem, n)
	for i := range items {
		items[i] = NewMenuItemBuilder(f.faker).
			WithRestaurant(restaurantID).
			WithCreatedAt(base.Add(time.Duration(i) * time.Second)).
			Build()
	}
	return items
}

// Demographics returns a snapshot with two age groups, two gender groups,
// interests and dining patterns.
func (f *MenuFactory) Demographics(restaurantID string) *market.Demographics {
	return &market.Demographics{
		RestaurantID: restaurantID,
		AgeGroups: []market.Segment{
			{Label: "25-34", Percentage: 40, Preferences: []string{"seafood", "small plates", "cocktails"}},
			{Label: "35-44", Percentage: 30, Preferences: []string{"steak", "wine"}},
		},
		GenderGroups: []market.Segment{
			{Label: "female", Percentage: 55, Preferences: []string{"salads", "seafood"}},
			{Label: "male", Percentage: 45, Preferences: []string{"burgers", "steak"}},
		},
		Interests: []string{"sustainability", "local sourcing", "craft beer"},
		DiningPatterns: []market.DiningPattern{
			{Pattern: "date night", Frequency: 0.35, TimeOfDay: []string{"evening"}},
			{Pattern: "business lunch", Frequency: 0.2, TimeOfDay: []string{"midday"}},
		},
		CollectedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

// SpecialtyDish returns a dish seen at count peers.
func (f *MenuFactory) SpecialtyDish(count int) market.SpecialtyDish {
	weight := f.faker.Float64Range(0.2, 0.9)
	return market.SpecialtyDish{
		DishName:        f.faker.RandomString([]string{"Cioppino", "Poke Bowl", "Fish Tacos", "Clam Chowder", "Crab Cakes"}),
		TagID:           uuid.NewString(),
		RestaurantCount: count,
		Popularity:      f.faker.Float64Range(0.1, 1),
		Weight:          weight,
		TotalWeight:     weight * float64(count),
	}
}

// MenuItemBuilder provides a fluent interface for building test menu items
type MenuItemBuilder struct {
	item *menu.MenuItem
}

// NewMenuItemBuilder creates a builder with faker-generated defaults.
func NewMenuItemBuilder(faker *gofakeit.Faker) *MenuItemBuilder {
	if faker == nil {
		faker = gofakeit.New(time.Now().UnixNano())
	}
	now := time.Now().UTC()
	return &MenuItemBuilder{item: &menu.MenuItem{
		ID:          uuid.NewString(),
		Name:        faker.Dessert(),
		Description: faker.Sentence(8),
		Price:       faker.Price(8, 40),
		Category:    faker.RandomString([]string{"appetizers", "mains", "seafood", "desserts", "salads"}),
		Ingredients: []string{faker.Fruit(), faker.Vegetable(), faker.Vegetable()},
		DietaryTags: []string{},
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}}
}

// WithRestaurant sets the owning restaurant
func (b *MenuItemBuilder) WithRestaurant(id string) *MenuItemBuilder {
	b.item.RestaurantID = id
	return b
}

// WithName sets the item name
func (b *MenuItemBuilder) WithName(name string) *MenuItemBuilder {
	b.item.Name = name
	return b
}

// WithPrice sets the item price
func (b *MenuItemBuilder) WithPrice(price float64) *MenuItemBuilder {
	b.item.Price = price
	return b
}

// WithCategory sets the item category
func (b *MenuItemBuilder) WithCategory(category string) *MenuItemBuilder {
	b.item.Category = category
	return b
}

// WithCreatedAt sets both timestamps
func (b *MenuItemBuilder) WithCreatedAt(t time.Time) *MenuItemBuilder {
	b.item.CreatedAt = t
	b.item.UpdatedAt = t
	return b
}

// Inactive marks the item as soft deleted
func (b *MenuItemBuilder) Inactive() *MenuItemBuilder {
	b.item.IsActive = false
	return b
}

// Build returns the item
func (b *MenuItemBuilder) Build() *menu.MenuItem {
	return b.item
}
