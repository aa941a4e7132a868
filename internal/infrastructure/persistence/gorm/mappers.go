// Package gorm provides mapping between domain entities and GORM models
package gorm

import (
	"github.com/menusense/optimizer/internal/domain/analytics"
	"github.com/menusense/optimizer/internal/domain/market"
	"github.com/menusense/optimizer/internal/domain/menu"
	"github.com/menusense/optimizer/internal/domain/optimization"
)

// RestaurantToModel converts a domain restaurant to a GORM model
func RestaurantToModel(r *menu.Restaurant) *RestaurantModel {
	return &RestaurantModel{
		ID:             r.ID,
		Name:           r.Name,
		Cuisine:        r.Cuisine,
		PriceLevel:     int(r.PriceLevel),
		Location:       r.Location,
		PeerEntityID:   r.PeerEntityID,
		TargetAudience: r.TargetAudience,
	}
}

// ModelToRestaurant converts a GORM model to a domain restaurant
func ModelToRestaurant(m *RestaurantModel) *menu.Restaurant {
	return &menu.Restaurant{
		ID:             m.ID,
		Name:           m.Name,
		Cuisine:        m.Cuisine,
		PriceLevel:     menu.PriceLevel(m.PriceLevel),
		Location:       m.Location,
		PeerEntityID:   m.PeerEntityID,
		TargetAudience: m.TargetAudience,
	}
}

// MenuItemToModel converts a domain menu item to a GORM model
func MenuItemToModel(item *menu.MenuItem) *MenuItemModel {
	return &MenuItemModel{
		ID:                  item.ID,
		RestaurantID:        item.RestaurantID,
		Name:                item.Name,
		Description:         item.Description,
		EnhancedName:        item.EnhancedName,
		EnhancedDescription: item.EnhancedDescription,
		EnhancementStatus:   string(item.EnhancementStatus),
		Price:               item.Price,
		Category:            item.Category,
		Ingredients:         item.Ingredients,
		DietaryTags:         item.DietaryTags,
		IsActive:            item.IsActive,
		IsAIGenerated:       item.IsAIGenerated,
		TasteProfile:        item.TasteProfile,
		GeneratedTags:       item.GeneratedTags,
		CreatedAt:           item.CreatedAt,
		UpdatedAt:           item.UpdatedAt,
	}
}

// ModelToMenuItem converts a GORM model to a domain menu item
func ModelToMenuItem(m *MenuItemModel) *menu.MenuItem {
	item := &menu.MenuItem{
		ID:                  m.ID,
		RestaurantID:        m.RestaurantID,
		Name:                m.Name,
		Description:         m.Description,
		EnhancedName:        m.EnhancedName,
		EnhancedDescription: m.EnhancedDescription,
		EnhancementStatus:   menu.EnhancementStatus(m.EnhancementStatus),
		Price:               m.Price,
		Category:            m.Category,
		Ingredients:         nonNil(m.Ingredients),
		DietaryTags:         nonNil(m.DietaryTags),
		IsActive:            m.IsActive,
		IsAIGenerated:       m.IsAIGenerated,
		GeneratedTags:       m.GeneratedTags,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
	if len(m.TasteProfile) > 0 {
		item.TasteProfile = map[string]float64(m.TasteProfile)
	}
	return item
}

// OptimizedItemToModel converts an optimization candidate to a GORM model
func OptimizedItemToModel(o *optimization.OptimizedMenuItem) *OptimizedItemModel {
	review := o.Review()
	return &OptimizedItemModel{
		ItemID:               o.ItemID,
		RestaurantID:         o.RestaurantID,
		OriginalName:         o.OriginalName,
		OriginalDescription:  o.OriginalDescription,
		OptimizedName:        o.OptimizedName,
		OptimizedDescription: o.OptimizedDescription,
		OptimizationReason:   o.OptimizationReason,
		DemographicInsights:  o.DemographicInsights,
		Status:               string(review.Status),
		Feedback:             review.Feedback,
		ReviewedAt:           review.ReviewedAt,
		CreatedAt:            o.CreatedAt,
	}
}

// ModelToOptimizedItem converts a GORM model to an optimization candidate
func ModelToOptimizedItem(m *OptimizedItemModel) *optimization.OptimizedMenuItem {
	return optimization.RestoreOptimizedMenuItem(optimization.Candidate{
		ItemID:               m.ItemID,
		RestaurantID:         m.RestaurantID,
		OriginalName:         m.OriginalName,
		OriginalDescription:  m.OriginalDescription,
		OptimizedName:        m.OptimizedName,
		OptimizedDescription: m.OptimizedDescription,
		OptimizationReason:   m.OptimizationReason,
		DemographicInsights:  nonNil(m.DemographicInsights),
		CreatedAt:            m.CreatedAt,
	}, optimization.Review{
		Status:     optimization.Status(m.Status),
		Feedback:   m.Feedback,
		ReviewedAt: m.ReviewedAt,
	})
}

// SuggestionToModel converts a suggestion to a GORM model
func SuggestionToModel(s *optimization.MenuItemSuggestion) *SuggestionModel {
	review := s.Review()
	return &SuggestionModel{
		ID:                   s.ID,
		RestaurantID:         s.RestaurantID,
		Name:                 s.Name,
		Description:          s.Description,
		Price:                s.Price,
		Category:             s.Category,
		Ingredients:          s.Ingredients,
		DietaryTags:          s.DietaryTags,
		InspirationSource:    string(s.InspirationSource),
		BasedOnSpecialtyDish: s.BasedOnSpecialtyDish,
		EstimatedCost:        s.EstimatedCost,
		Status:               string(review.Status),
		Feedback:             review.Feedback,
		CreatedMenuItemID:    s.CreatedMenuItemID(),
		ReviewedAt:           review.ReviewedAt,
		CreatedAt:            s.CreatedAt,
	}
}

// ModelToSuggestion converts a GORM model to a suggestion
func ModelToSuggestion(m *SuggestionModel) *optimization.MenuItemSuggestion {
	return optimization.RestoreMenuItemSuggestion(m.ID, optimization.SuggestionDraft{
		RestaurantID:         m.RestaurantID,
		Name:                 m.Name,
		Description:          m.Description,
		Price:                m.Price,
		Category:             m.Category,
		Ingredients:          nonNil(m.Ingredients),
		DietaryTags:          nonNil(m.DietaryTags),
		InspirationSource:    optimization.InspirationSource(m.InspirationSource),
		BasedOnSpecialtyDish: m.BasedOnSpecialtyDish,
		EstimatedCost:        m.EstimatedCost,
		CreatedAt:            m.CreatedAt,
	}, optimization.Review{
		Status:     optimization.Status(m.Status),
		Feedback:   m.Feedback,
		ReviewedAt: m.ReviewedAt,
	}, m.CreatedMenuItemID)
}

// DemographicsToModel converts a demographic snapshot to a GORM model
func DemographicsToModel(d *market.Demographics) *DemographicsModel {
	return &DemographicsModel{
		RestaurantID:   d.RestaurantID,
		AgeGroups:      d.AgeGroups,
		GenderGroups:   d.GenderGroups,
		Interests:      d.Interests,
		DiningPatterns: d.DiningPatterns,
		CollectedAt:    d.CollectedAt,
	}
}

// ModelToDemographics converts a GORM model to a demographic snapshot
func ModelToDemographics(m *DemographicsModel) *market.Demographics {
	return &market.Demographics{
		RestaurantID:   m.RestaurantID,
		AgeGroups:      m.AgeGroups,
		GenderGroups:   m.GenderGroups,
		Interests:      m.Interests,
		DiningPatterns: m.DiningPatterns,
		CollectedAt:    m.CollectedAt,
	}
}

// MetricsToModel converts computed scores to a GORM model
func MetricsToModel(m analytics.Metrics) *MetricsModel {
	return &MetricsModel{
		ItemID:              m.ItemID,
		RestaurantID:        m.RestaurantID,
		PopularityScore:     m.PopularityScore,
		ProfitabilityScore:  m.ProfitabilityScore,
		RecommendationScore: m.RecommendationScore,
		CalculatedAt:        m.CalculatedAt,
	}
}

// ModelToMetrics converts a GORM model to computed scores
func ModelToMetrics(m *MetricsModel) analytics.Metrics {
	return analytics.Metrics{
		ItemID:              m.ItemID,
		RestaurantID:        m.RestaurantID,
		PopularityScore:     m.PopularityScore,
		ProfitabilityScore:  m.ProfitabilityScore,
		RecommendationScore: m.RecommendationScore,
		CalculatedAt:        m.CalculatedAt,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
