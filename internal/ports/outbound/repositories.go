// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/menusense/optimizer/internal/domain/analytics"
	"github.com/menusense/optimizer/internal/domain/market"
	"github.com/menusense/optimizer/internal/domain/menu"
	"github.com/menusense/optimizer/internal/domain/optimization"
)

// ErrCacheMiss is returned by CacheRepository.Get for absent or expired keys.
var ErrCacheMiss = errors.New("cache miss")

// ErrDuplicateKey is returned by Create when the id is already stored.
var ErrDuplicateKey = errors.New("duplicate key")

// RestaurantRepository reads restaurants. FindByID returns menu.ErrRestaurantNotFound.
type RestaurantRepository interface {
	FindByID(ctx context.Context, id string) (*menu.Restaurant, error)
	Save(ctx context.Context, r *menu.Restaurant) error
}

// MenuItemRepository persists live menu items. FindByID returns menu.ErrMenuItemNotFound.
type MenuItemRepository interface {
	FindByID(ctx context.Context, id string) (*menu.MenuItem, error)
	FindByRestaurant(ctx context.Context, restaurantID string, activeOnly bool) ([]*menu.MenuItem, error)
	Create(ctx context.Context, item *menu.MenuItem) error
	Update(ctx context.Context, item *menu.MenuItem) error
}

// OptimizationRepository persists optimization candidates keyed by item id.
//
// Save upserts a pending candidate and returns optimization.ErrAlreadyReviewed
// instead of replacing a reviewed one. UpdateReview is a compare-and-set on the
// status: it returns optimization.ErrStatusConflict when the stored status is
// not expected, and optimization.ErrCandidateMissing when nothing is stored.
type OptimizationRepository interface {
	FindByItemID(ctx context.Context, itemID string) (*optimization.OptimizedMenuItem, error)
	Save(ctx context.Context, o *optimization.OptimizedMenuItem) error
	UpdateReview(ctx context.Context, itemID string, expected optimization.Status, review optimization.Review) error
	ListByRestaurant(ctx context.Context, restaurantID string, status optimization.Status) ([]*optimization.OptimizedMenuItem, error)
}

// SuggestionRepository persists new-dish suggestions, with the same
// compare-and-set contract as OptimizationRepository.
type SuggestionRepository interface {
	FindByID(ctx context.Context, id string) (*optimization.MenuItemSuggestion, error)
	Save(ctx context.Context, s *optimization.MenuItemSuggestion) error
	UpdateReview(ctx context.Context, id string, expected optimization.Status, review optimization.Review, createdMenuItemID string) error
	ListByRestaurant(ctx context.Context, restaurantID string, status optimization.Status) ([]*optimization.MenuItemSuggestion, error)
}

// DemographicsRepository reads collected demographic snapshots. A restaurant
// without data yields (nil, nil).
type DemographicsRepository interface {
	FindByRestaurant(ctx context.Context, restaurantID string) (*market.Demographics, error)
	Save(ctx context.Context, d *market.Demographics) error
}

// MetricsRepository stores computed item scores.
type MetricsRepository interface {
	SaveAll(ctx context.Context, metrics []analytics.Metrics) error
	FindByRestaurant(ctx context.Context, restaurantID string) ([]analytics.Metrics, error)
}

// CacheRepository defines the interface for caching
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
