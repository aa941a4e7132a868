package gorm

import (
	"context"
	"errors"

	"github.com/menusense/optimizer/internal/domain/optimization"
	"github.com/menusense/optimizer/internal/ports/outbound"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OptimizationRepository implements the optimization repository interface using GORM
type OptimizationRepository struct {
	db *gorm.DB
}

// NewOptimizationRepository creates a new optimization repository
func NewOptimizationRepository(db *gorm.DB) *OptimizationRepository {
	return &OptimizationRepository{db: db}
}

var _ outbound.OptimizationRepository = (*OptimizationRepository)(nil)

// FindByItemID finds the candidate for a menu item
func (r *OptimizationRepository) FindByItemID(ctx context.Context, itemID string) (*optimization.OptimizedMenuItem, error) {
	var model OptimizedItemModel
	result := r.db.WithContext(ctx).First(&model, "item_id = ?", itemID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, optimization.ErrCandidateMissing
		}
		return nil, result.Error
	}
	return ModelToOptimizedItem(&model), nil
}

// Save inserts the candidate or replaces a pending one stored for the item.
// A reviewed candidate is kept and ErrAlreadyReviewed returned.
func (r *OptimizationRepository) Save(ctx context.Context, o *optimization.OptimizedMenuItem) error {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "item_id"}},
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Eq{Column: clause.Column{Table: OptimizedItemModel{}.TableName(), Name: "status"}, Value: string(optimization.StatusPending)},
		}},
		UpdateAll: true,
	}).Create(OptimizedItemToModel(o))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return optimization.ErrAlreadyReviewed
	}
	return nil
}

// UpdateReview writes review only while the stored status is still expected
func (r *OptimizationRepository) UpdateReview(ctx context.Context, itemID string, expected optimization.Status, review optimization.Review) error {
	result := r.db.WithContext(ctx).
		Model(&OptimizedItemModel{}).
		Where("item_id = ? AND status = ?", itemID, string(expected)).
		Updates(map[string]interface{}{
			"status":      string(review.Status),
			"feedback":    review.Feedback,
			"reviewed_at": review.ReviewedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.conflictOrMissing(ctx, &OptimizedItemModel{}, "item_id = ?", itemID)
	}
	return nil
}

// ListByRestaurant lists candidates oldest first; an empty status lists all
func (r *OptimizationRepository) ListByRestaurant(ctx context.Context, restaurantID string, status optimization.Status) ([]*optimization.OptimizedMenuItem, error) {
	var models []OptimizedItemModel

	query := r.db.WithContext(ctx).Where("restaurant_id = ?", restaurantID)
	if status != "" {
		query = query.Where("status = ?", string(status))
	}
	if err := query.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	out := make([]*optimization.OptimizedMenuItem, len(models))
	for i := range models {
		out[i] = ModelToOptimizedItem(&models[i])
	}
	return out, nil
}

func (r *OptimizationRepository) conflictOrMissing(ctx context.Context, model interface{}, where string, id string) error {
	return conflictOrMissing(r.db.WithContext(ctx), model, where, id)
}

// SuggestionRepository implements the suggestion repository interface using GORM
type SuggestionRepository struct {
	db *gorm.DB
}

// NewSuggestionRepository creates a new suggestion repository
func NewSuggestionRepository(db *gorm.DB) *SuggestionRepository {
	return &SuggestionRepository{db: db}
}

var _ outbound.SuggestionRepository = (*SuggestionRepository)(nil)

// FindByID finds a suggestion by ID
func (r *SuggestionRepository) FindByID(ctx context.Context, id string) (*optimization.MenuItemSuggestion, error) {
	var model SuggestionModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, optimization.ErrCandidateMissing
		}
		return nil, result.Error
	}
	return ModelToSuggestion(&model), nil
}

// Save creates or replaces a suggestion
func (r *SuggestionRepository) Save(ctx context.Context, s *optimization.MenuItemSuggestion) error {
	return r.db.WithContext(ctx).Save(SuggestionToModel(s)).Error
}

// UpdateReview writes review and the created item link only while the stored
// status is still expected
func (r *SuggestionRepository) UpdateReview(ctx context.Context, id string, expected optimization.Status, review optimization.Review, createdMenuItemID string) error {
	result := r.db.WithContext(ctx).
		Model(&SuggestionModel{}).
		Where("id = ? AND status = ?", id, string(expected)).
		Updates(map[string]interface{}{
			"status":               string(review.Status),
			"feedback":             review.Feedback,
			"reviewed_at":          review.ReviewedAt,
			"created_menu_item_id": createdMenuItemID,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return conflictOrMissing(r.db.WithContext(ctx), &SuggestionModel{}, "id = ?", id)
	}
	return nil
}

// ListByRestaurant lists suggestions oldest first; an empty status lists all
func (r *SuggestionRepository) ListByRestaurant(ctx context.Context, restaurantID string, status optimization.Status) ([]*optimization.MenuItemSuggestion, error) {
	var models []SuggestionModel

	query := r.db.WithContext(ctx).Where("restaurant_id = ?", restaurantID)
	if status != "" {
		query = query.Where("status = ?", string(status))
	}
	if err := query.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	out := make([]*optimization.MenuItemSuggestion, len(models))
	for i := range models {
		out[i] = ModelToSuggestion(&models[i])
	}
	return out, nil
}

// conflictOrMissing explains a compare-and-set that matched no row.
func conflictOrMissing(db *gorm.DB, model interface{}, where string, id string) error {
	var count int64
	if err := db.Model(model).Where(where, id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return optimization.ErrCandidateMissing
	}
	return optimization.ErrStatusConflict
}
