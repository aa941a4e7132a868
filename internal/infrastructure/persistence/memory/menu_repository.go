package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/menusense/optimizer/internal/domain/analytics"
	"github.com/menusense/optimizer/internal/domain/market"
	"github.com/menusense/optimizer/internal/domain/menu"
	"github.com/menusense/optimizer/internal/ports/outbound"
)

// RestaurantRepository stores restaurants in a map.
type RestaurantRepository struct {
	mu    sync.RWMutex
	items map[string]menu.Restaurant
}

// NewRestaurantRepository creates an empty restaurant store.
func NewRestaurantRepository() *RestaurantRepository {
	return &RestaurantRepository{items: make(map[string]menu.Restaurant)}
}

var _ outbound.RestaurantRepository = (*RestaurantRepository)(nil)

func (r *RestaurantRepository) FindByID(ctx context.Context, id string) (*menu.Restaurant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rest, ok := r.items[id]
	if !ok {
		return nil, menu.ErrRestaurantNotFound
	}
	return &rest, nil
}

func (r *RestaurantRepository) Save(ctx context.Context, rest *menu.Restaurant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[rest.ID] = *rest
	return nil
}

// MenuItemRepository stores menu items in a map. Items are copied on the way
// in and out so callers never share state with the store.
type MenuItemRepository struct {
	mu    sync.RWMutex
	items map[string]*menu.MenuItem
}

// NewMenuItemRepository creates an empty menu item store.
func NewMenuItemRepository() *MenuItemRepository {
	return &MenuItemRepository{items: make(map[string]*menu.MenuItem)}
}

var _ outbound.MenuItemRepository = (*MenuItemRepository)(nil)

func (r *MenuItemRepository) FindByID(ctx context.Context, id string) (*menu.MenuItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return nil, menu.ErrMenuItemNotFound
	}
	return cloneItem(item), nil
}

// FindByRestaurant returns items ordered by creation time, then id.
func (r *MenuItemRepository) FindByRestaurant(ctx context.Context, restaurantID string, activeOnly bool) ([]*menu.MenuItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*menu.MenuItem, 0)
	for _, item := range r.items {
		if item.RestaurantID != restaurantID || (activeOnly && !item.IsActive) {
			continue
		}
		out = append(out, cloneItem(item))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MenuItemRepository) Create(ctx context.Context, item *menu.MenuItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; exists {
		return outbound.ErrDuplicateKey
	}
	r.items[item.ID] = cloneItem(item)
	return nil
}

func (r *MenuItemRepository) Update(ctx context.Context, item *menu.MenuItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; !exists {
		return menu.ErrMenuItemNotFound
	}
	r.items[item.ID] = cloneItem(item)
	return nil
}

// Delete removes an item outright. Only used to simulate concurrent removal.
func (r *MenuItemRepository) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
}

func cloneItem(item *menu.MenuItem) *menu.MenuItem {
	c := &menu.MenuItem{
		ID:                  item.ID,
		RestaurantID:        item.RestaurantID,
		Name:                item.Name,
		Description:         item.Description,
		EnhancedName:        item.EnhancedName,
		EnhancedDescription: item.EnhancedDescription,
		EnhancementStatus:   item.EnhancementStatus,
		Price:               item.Price,
		Category:            item.Category,
		Ingredients:         append([]string(nil), item.Ingredients...),
		DietaryTags:         append([]string(nil), item.DietaryTags...),
		IsActive:            item.IsActive,
		IsAIGenerated:       item.IsAIGenerated,
		GeneratedTags:       append([]string(nil), item.GeneratedTags...),
		CreatedAt:           item.CreatedAt,
		UpdatedAt:           item.UpdatedAt,
	}
	if item.TasteProfile != nil {
		c.TasteProfile = make(map[string]float64, len(item.TasteProfile))
		for k, v := range item.TasteProfile {
			c.TasteProfile[k] = v
		}
	}
	return c
}

// DemographicsRepository stores one snapshot per restaurant.
type DemographicsRepository struct {
	mu    sync.RWMutex
	items map[string]market.Demographics
}

// NewDemographicsRepository creates an empty demographics store.
func NewDemographicsRepository() *DemographicsRepository {
	return &DemographicsRepository{items: make(map[string]market.Demographics)}
}

var _ outbound.DemographicsRepository = (*DemographicsRepository)(nil)

func (r *DemographicsRepository) FindByRestaurant(ctx context.Context, restaurantID string) (*market.Demographics, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.items[restaurantID]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (r *DemographicsRepository) Save(ctx context.Context, d *market.Demographics) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[d.RestaurantID] = *d
	return nil
}

// MetricsRepository keeps the latest metrics per item.
type MetricsRepository struct {
	mu    sync.RWMutex
	items map[string]analytics.Metrics
}

// NewMetricsRepository creates an empty metrics store.
func NewMetricsRepository() *MetricsRepository {
	return &MetricsRepository{items: make(map[string]analytics.Metrics)}
}

var _ outbound.MetricsRepository = (*MetricsRepository)(nil)

func (r *MetricsRepository) SaveAll(ctx context.Context, metrics []analytics.Metrics) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range metrics {
		r.items[m.ItemID] = m
	}
	return nil
}

// FindByRestaurant returns metrics by descending recommendation score.
func (r *MetricsRepository) FindByRestaurant(ctx context.Context, restaurantID string) ([]analytics.Metrics, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]analytics.Metrics, 0)
	for _, m := range r.items {
		if m.RestaurantID == restaurantID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RecommendationScore != out[j].RecommendationScore {
			return out[i].RecommendationScore > out[j].RecommendationScore
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out, nil
}
