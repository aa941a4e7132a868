package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/menusense/optimizer/internal/domain/optimization"
	"github.com/menusense/optimizer/internal/ports/outbound"
)

type storedOptimization struct {
	candidate optimization.Candidate
	review    optimization.Review
}

// OptimizationRepository keeps one candidate per menu item.
type OptimizationRepository struct {
	mu    sync.RWMutex
	items map[string]storedOptimization
}

// NewOptimizationRepository creates an empty optimization store.
func NewOptimizationRepository() *OptimizationRepository {
	return &OptimizationRepository{items: make(map[string]storedOptimization)}
}

var _ outbound.OptimizationRepository = (*OptimizationRepository)(nil)

func (r *OptimizationRepository) FindByItemID(ctx context.Context, itemID string) (*optimization.OptimizedMenuItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.items[itemID]
	if !ok {
		return nil, optimization.ErrCandidateMissing
	}
	return s.restore(), nil
}

func (r *OptimizationRepository) Save(ctx context.Context, o *optimization.OptimizedMenuItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.items[o.ItemID]; ok && prev.review.Status != optimization.StatusPending {
		return optimization.ErrAlreadyReviewed
	}
	c := o.Candidate
	c.DemographicInsights = append([]string(nil), o.DemographicInsights...)
	r.items[o.ItemID] = storedOptimization{candidate: c, review: o.Review()}
	return nil
}

func (r *OptimizationRepository) UpdateReview(ctx context.Context, itemID string, expected optimization.Status, review optimization.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.items[itemID]
	if !ok {
		return optimization.ErrCandidateMissing
	}
	if s.review.Status != expected {
		return optimization.ErrStatusConflict
	}
	s.review = review
	r.items[itemID] = s
	return nil
}

// ListByRestaurant returns candidates oldest first; an empty status matches all.
func (r *OptimizationRepository) ListByRestaurant(ctx context.Context, restaurantID string, status optimization.Status) ([]*optimization.OptimizedMenuItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*optimization.OptimizedMenuItem, 0)
	for _, s := range r.items {
		if s.candidate.RestaurantID != restaurantID || (status != "" && s.review.Status != status) {
			continue
		}
		out = append(out, s.restore())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out, nil
}

func (s storedOptimization) restore() *optimization.OptimizedMenuItem {
	c := s.candidate
	c.DemographicInsights = append([]string{}, s.candidate.DemographicInsights...)
	return optimization.RestoreOptimizedMenuItem(c, s.review)
}

type storedSuggestion struct {
	draft     optimization.SuggestionDraft
	review    optimization.Review
	createdID string
}

// SuggestionRepository keeps suggestions by id.
type SuggestionRepository struct {
	mu    sync.RWMutex
	items map[string]storedSuggestion
}

// NewSuggestionRepository creates an empty suggestion store.
func NewSuggestionRepository() *SuggestionRepository {
	return &SuggestionRepository{items: make(map[string]storedSuggestion)}
}

var _ outbound.SuggestionRepository = (*SuggestionRepository)(nil)

func (r *SuggestionRepository) FindByID(ctx context.Context, id string) (*optimization.MenuItemSuggestion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.items[id]
	if !ok {
		return nil, optimization.ErrCandidateMissing
	}
	return s.restore(id), nil
}

func (r *SuggestionRepository) Save(ctx context.Context, s *optimization.MenuItemSuggestion) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d := s.SuggestionDraft
	d.Ingredients = append([]string(nil), s.Ingredients...)
	d.DietaryTags = append([]string(nil), s.DietaryTags...)
	r.items[s.ID] = storedSuggestion{draft: d, review: s.Review(), createdID: s.CreatedMenuItemID()}
	return nil
}

func (r *SuggestionRepository) UpdateReview(ctx context.Context, id string, expected optimization.Status, review optimization.Review, createdMenuItemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.items[id]
	if !ok {
		return optimization.ErrCandidateMissing
	}
	if s.review.Status != expected {
		return optimization.ErrStatusConflict
	}
	s.review = review
	s.createdID = createdMenuItemID
	r.items[id] = s
	return nil
}

// ListByRestaurant returns suggestions oldest first; an empty status matches all.
func (r *SuggestionRepository) ListByRestaurant(ctx context.Context, restaurantID string, status optimization.Status) ([]*optimization.MenuItemSuggestion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*optimization.MenuItemSuggestion, 0)
	for id, s := range r.items {
		if s.draft.RestaurantID != restaurantID || (status != "" && s.review.Status != status) {
			continue
		}
		out = append(out, s.restore(id))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s storedSuggestion) restore(id string) *optimization.MenuItemSuggestion {
	d := s.draft
	d.Ingredients = append([]string{}, s.draft.Ingredients...)
	d.DietaryTags = append([]string{}, s.draft.DietaryTags...)
	return optimization.RestoreMenuItemSuggestion(id, d, s.review, s.createdID)
}
