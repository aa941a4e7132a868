// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the use cases the pipeline exposes to HTTP handlers and the CLI
package inbound

import (
	"context"

	"github.com/menusense/optimizer/internal/domain/analytics"
	"github.com/menusense/optimizer/internal/domain/market"
	"github.com/menusense/optimizer/internal/domain/menu"
	"github.com/menusense/optimizer/internal/domain/optimization"
)

// OptimizationService runs model-backed menu work and the review workflow.
type OptimizationService interface {
	// Batch generation; per-item failures are reported inside BatchResult
	OptimizeMenu(ctx context.Context, cmd OptimizeMenuCommand) (*BatchResult, error)
	GenerateSuggestions(ctx context.Context, cmd GenerateSuggestionsCommand) (*BatchResult, error)
	AnalyzeTasteProfiles(ctx context.Context, cmd AnalyzeTasteCommand) (*BatchResult, error)
	EnhanceItem(ctx context.Context, cmd EnhanceItemCommand) (*menu.MenuItem, error)

	// Review workflow
	ReviewOptimization(ctx context.Context, cmd ReviewCommand) (*ReviewResult, error)
	ReviewSuggestion(ctx context.Context, cmd ReviewCommand) (*ReviewResult, error)
	ReviewEnhancement(ctx context.Context, cmd ReviewCommand) (*ReviewResult, error)
	ListPending(ctx context.Context, restaurantID string) (*PendingReviews, error)
}

// ScoringService computes and stores per-item analytics.
type ScoringService interface {
	ScoreRestaurant(ctx context.Context, restaurantID string) ([]analytics.Metrics, error)
}

// ModelSelection optionally overrides the configured default provider.
type ModelSelection struct {
	Provider string `json:"provider,omitempty" validate:"omitempty,oneof=openai anthropic google gemini"`
	Model    string `json:"model,omitempty"`
}

// OptimizeMenuCommand rewrites one or all active items for the selected audience.
type OptimizeMenuCommand struct {
	RestaurantID            string                 `json:"restaurantId" validate:"required"`
	ItemIDs                 []string               `json:"itemIds,omitempty"`
	SelectedDemographics    market.Selection       `json:"selectedDemographics"`
	SelectedSpecialtyDishes []market.SpecialtyDish `json:"selectedSpecialtyDishes,omitempty"`
	OptimizationStyle       string                 `json:"optimizationStyle,omitempty"`
	TargetAudience          string                 `json:"targetAudience,omitempty"`
	BatchSize               int                    `json:"batchSize,omitempty" validate:"omitempty,min=1,max=20"`
	ModelSelection
}

// GenerateSuggestionsCommand asks for new dishes inspired by the selected signals.
type GenerateSuggestionsCommand struct {
	RestaurantID            string                 `json:"restaurantId" validate:"required"`
	SelectedDemographics    market.Selection       `json:"selectedDemographics"`
	SelectedSpecialtyDishes []market.SpecialtyDish `json:"selectedSpecialtyDishes,omitempty"`
	UsePeerDishes           bool                   `json:"usePeerDishes,omitempty"`
	Count                   int                    `json:"count,omitempty" validate:"omitempty,min=1,max=10"`
	BatchSize               int                    `json:"batchSize,omitempty" validate:"omitempty,min=1,max=20"`
	OptimizationStyle       string                 `json:"optimizationStyle,omitempty"`
	ModelSelection
}

// AnalyzeTasteCommand builds taste profiles for one or all active items.
type AnalyzeTasteCommand struct {
	RestaurantID string   `json:"restaurantId" validate:"required"`
	ItemIDs      []string `json:"itemIds,omitempty"`
	BatchSize    int      `json:"batchSize,omitempty" validate:"omitempty,min=1,max=20"`
	ModelSelection
}

// EnhanceItemCommand proposes an enhanced name and description for one item.
type EnhanceItemCommand struct {
	RestaurantID string `json:"restaurantId" validate:"required"`
	ItemID       string `json:"itemId" validate:"required"`
	ModelSelection
}

// ReviewCommand is a reviewer's decision on one candidate.
type ReviewCommand struct {
	ID       string                `json:"id" validate:"required"`
	Decision optimization.Decision `json:"decision" validate:"required"`
	Feedback string                `json:"feedback,omitempty" validate:"max=2000"`
}

// ItemError is one per-item failure inside a batch.
type ItemError struct {
	ItemID string `json:"itemId"`
	Error  string `json:"error"`
}

// BatchResult summarises a batch run.
type BatchResult struct {
	TotalItemsProcessed int                                `json:"totalItemsProcessed"`
	SuccessCount        int                                `json:"successCount"`
	FailureCount        int                                `json:"failureCount"`
	OptimizedItems      []*optimization.OptimizedMenuItem  `json:"optimizedItems,omitempty"`
	Suggestions         []*optimization.MenuItemSuggestion `json:"suggestions,omitempty"`
	AnalyzedItems       []*menu.MenuItem                   `json:"analyzedItems,omitempty"`
	Errors              []ItemError                        `json:"errors"`
}

// ReviewResult reports the outcome of a review and its side effects.
type ReviewResult struct {
	Kind              optimization.Kind   `json:"kind"`
	ID                string              `json:"id"`
	Status            optimization.Status `json:"status"`
	MenuItemUpdated   bool                `json:"menuItemUpdated"`
	MenuItemMissing   bool                `json:"menuItemMissing,omitempty"`
	CreatedMenuItemID string              `json:"createdMenuItemId,omitempty"`
	Message           string              `json:"message"`
}

// PendingReviews lists everything awaiting a reviewer for one restaurant.
type PendingReviews struct {
	Optimizations []*optimization.OptimizedMenuItem  `json:"optimizations"`
	Suggestions   []*optimization.MenuItemSuggestion `json:"suggestions"`
	Enhancements  []*menu.MenuItem                   `json:"enhancements"`
}
