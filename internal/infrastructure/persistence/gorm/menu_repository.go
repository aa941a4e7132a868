package gorm

import (
	"context"
	"errors"

	"github.com/menusense/optimizer/internal/domain/analytics"
	"github.com/menusense/optimizer/internal/domain/market"
	"github.com/menusense/optimizer/internal/domain/menu"
	"github.com/menusense/optimizer/internal/ports/outbound"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RestaurantRepository implements the restaurant repository interface using GORM
type RestaurantRepository struct {
	db *gorm.DB
}

// NewRestaurantRepository creates a new restaurant repository
func NewRestaurantRepository(db *gorm.DB) *RestaurantRepository {
	return &RestaurantRepository{db: db}
}

var _ outbound.RestaurantRepository = (*RestaurantRepository)(nil)

// FindByID finds a restaurant by ID
func (r *RestaurantRepository) FindByID(ctx context.Context, id string) (*menu.Restaurant, error) {
	var model RestaurantModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, menu.ErrRestaurantNotFound
		}
		return nil, result.Error
	}
	return ModelToRestaurant(&model), nil
}

// Save creates or replaces a restaurant
func (r *RestaurantRepository) Save(ctx context.Context, rest *menu.Restaurant) error {
	return r.db.WithContext(ctx).Save(RestaurantToModel(rest)).Error
}

// MenuItemRepository implements the menu item repository interface using GORM
type MenuItemRepository struct {
	db *gorm.DB
}

// NewMenuItemRepository creates a new menu item repository
func NewMenuItemRepository(db *gorm.DB) *MenuItemRepository {
	return &MenuItemRepository{db: db}
}

var _ outbound.MenuItemRepository = (*MenuItemRepository)(nil)

// FindByID finds a menu item by ID
func (r *MenuItemRepository) FindByID(ctx context.Context, id string) (*menu.MenuItem, error) {
	var model MenuItemModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, menu.ErrMenuItemNotFound
		}
		return nil, result.Error
	}
	return ModelToMenuItem(&model), nil
}

// FindByRestaurant lists a restaurant's items oldest first
func (r *MenuItemRepository) FindByRestaurant(ctx context.Context, restaurantID string, activeOnly bool) ([]*menu.MenuItem, error) {
	var models []MenuItemModel

	query := r.db.WithContext(ctx).Where("restaurant_id = ?", restaurantID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Order("created_at ASC").Order("id ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	items := make([]*menu.MenuItem, len(models))
	for i := range models {
		items[i] = ModelToMenuItem(&models[i])
	}
	return items, nil
}

// Create inserts a new menu item
func (r *MenuItemRepository) Create(ctx context.Context, item *menu.MenuItem) error {
	err := r.db.WithContext(ctx).Create(MenuItemToModel(item)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return outbound.ErrDuplicateKey
	}
	return err
}

// Update overwrites every mutable column of an existing menu item
func (r *MenuItemRepository) Update(ctx context.Context, item *menu.MenuItem) error {
	model := MenuItemToModel(item)

	result := r.db.WithContext(ctx).
		Model(&MenuItemModel{}).
		Where("id = ?", item.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return menu.ErrMenuItemNotFound
	}
	return nil
}

// DemographicsRepository implements the demographics repository interface using GORM
type DemographicsRepository struct {
	db *gorm.DB
}

// NewDemographicsRepository creates a new demographics repository
func NewDemographicsRepository(db *gorm.DB) *DemographicsRepository {
	return &DemographicsRepository{db: db}
}

var _ outbound.DemographicsRepository = (*DemographicsRepository)(nil)

// FindByRestaurant returns the stored snapshot, or nil when none was collected
func (r *DemographicsRepository) FindByRestaurant(ctx context.Context, restaurantID string) (*market.Demographics, error) {
	var model DemographicsModel
	result := r.db.WithContext(ctx).First(&model, "restaurant_id = ?", restaurantID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ModelToDemographics(&model), nil
}

// Save replaces the snapshot for a restaurant
func (r *DemographicsRepository) Save(ctx context.Context, d *market.Demographics) error {
	return r.db.WithContext(ctx).Save(DemographicsToModel(d)).Error
}

// MetricsRepository implements the metrics repository interface using GORM
type MetricsRepository struct {
	db *gorm.DB
}

// NewMetricsRepository creates a new metrics repository
func NewMetricsRepository(db *gorm.DB) *MetricsRepository {
	return &MetricsRepository{db: db}
}

var _ outbound.MetricsRepository = (*MetricsRepository)(nil)

// SaveAll upserts the scores in one transaction
func (r *MetricsRepository) SaveAll(ctx context.Context, metrics []analytics.Metrics) error {
	if len(metrics) == 0 {
		return nil
	}
	models := make([]*MetricsModel, len(metrics))
	for i, m := range metrics {
		models[i] = MetricsToModel(m)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "item_id"}},
			UpdateAll: true,
		}).Create(&models).Error
	})
}

// FindByRestaurant returns stored scores, best recommendation first
func (r *MetricsRepository) FindByRestaurant(ctx context.Context, restaurantID string) ([]analytics.Metrics, error) {
	var models []MetricsModel
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Order("recommendation_score DESC").
		Order("item_id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	out := make([]analytics.Metrics, len(models))
	for i := range models {
		out[i] = ModelToMetrics(&models[i])
	}
	return out, nil
}
