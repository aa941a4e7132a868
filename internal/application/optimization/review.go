package optimization

import (
	"context"
	stderrors "errors"

	"github.com/menusense/optimizer/internal/domain/menu"
	"github.com/menusense/optimizer/internal/domain/optimization"
	"github.com/menusense/optimizer/internal/domain/shared"
	"github.com/menusense/optimizer/internal/ports/inbound"
	"github.com/menusense/optimizer/pkg/errors"
	"go.uber.org/zap"
)

// ReviewOptimization approves or rejects an optimization candidate. Approval
// persists the new status first, then rewrites the live item. A vanished item
// does not fail the approval; the result says so instead.
func (s *Service) ReviewOptimization(ctx context.Context, cmd inbound.ReviewCommand) (*inbound.ReviewResult, error) {
	decision, err := optimization.ParseDecision(string(cmd.Decision))
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	candidate, err := s.optimizations.FindByItemID(ctx, cmd.ID)
	if err != nil {
		return nil, candidateError(optimization.KindOptimization, cmd.ID, err)
	}
	if err := decide(candidate, decision, cmd.Feedback); err != nil {
		return nil, reviewError(optimization.KindOptimization, cmd.ID, candidate.Status(), err)
	}
	if err := s.optimizations.UpdateReview(ctx, cmd.ID, optimization.StatusPending, candidate.Review()); err != nil {
		return nil, candidateError(optimization.KindOptimization, cmd.ID, err)
	}

	result := &inbound.ReviewResult{
		Kind:   optimization.KindOptimization,
		ID:     cmd.ID,
		Status: candidate.Status(),
	}
	events := candidate.Events()

	if decision == optimization.DecisionReject {
		result.Message = "Optimization rejected"
		s.finishReview(ctx, result, events)
		return result, nil
	}

	item, err := s.items.FindByID(ctx, candidate.ItemID)
	switch {
	case stderrors.Is(err, menu.ErrMenuItemNotFound):
		result.MenuItemMissing = true
		result.Message = "Optimization approved; the menu item no longer exists"
		s.logger.Warn("Approved optimization for missing menu item", zap.String("item_id", cmd.ID))
		s.finishReview(ctx, result, events)
		return result, nil
	case err != nil:
		s.rollbackOptimization(ctx, cmd.ID)
		return nil, errors.NewDatabaseError("find menu item", err)
	}

	item.ApplyOptimization(candidate.OptimizedName, candidate.OptimizedDescription)
	if err := s.items.Update(ctx, item); err != nil {
		s.rollbackOptimization(ctx, cmd.ID)
		return nil, errors.NewDatabaseError("update menu item", err)
	}

	result.MenuItemUpdated = true
	result.Message = "Optimization approved and applied to the menu"
	s.finishReview(ctx, result, append(events, item.Events()...))
	return result, nil
}

// ReviewSuggestion approves or rejects a new-dish suggestion. Approval creates
// exactly one menu item: the item id is recorded in the same compare-and-set
// that approves the suggestion, so a repeated approval cannot create another.
func (s *Service) ReviewSuggestion(ctx context.Context, cmd inbound.ReviewCommand) (*inbound.ReviewResult, error) {
	decision, err := optimization.ParseDecision(string(cmd.Decision))
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	suggestion, err := s.suggestions.FindByID(ctx, cmd.ID)
	if err != nil {
		return nil, candidateError(optimization.KindSuggestion, cmd.ID, err)
	}

	var item *menu.MenuItem
	if decision == optimization.DecisionApprove && suggestion.Status() == optimization.StatusPending {
		item, err = menu.NewGeneratedItem(
			suggestion.RestaurantID,
			suggestion.Name,
			suggestion.Description,
			suggestion.Price,
			suggestion.Category,
			suggestion.Ingredients,
			suggestion.DietaryTags,
		)
		if err != nil {
			return nil, errors.NewValidationError(err.Error())
		}
		suggestion.LinkMenuItem(item.ID)
	}

	if err := decide(suggestion, decision, cmd.Feedback); err != nil {
		return nil, reviewError(optimization.KindSuggestion, cmd.ID, suggestion.Status(), err)
	}
	if err := s.suggestions.UpdateReview(ctx, cmd.ID, optimization.StatusPending, suggestion.Review(), suggestion.CreatedMenuItemID()); err != nil {
		return nil, candidateError(optimization.KindSuggestion, cmd.ID, err)
	}

	result := &inbound.ReviewResult{
		Kind:   optimization.KindSuggestion,
		ID:     cmd.ID,
		Status: suggestion.Status(),
	}
	events := suggestion.Events()

	if item == nil {
		result.Message = "Suggestion rejected"
		s.finishReview(ctx, result, events)
		return result, nil
	}

	if err := s.items.Create(ctx, item); err != nil {
		if rbErr := s.suggestions.UpdateReview(ctx, cmd.ID, optimization.StatusApproved, optimization.Review{Status: optimization.StatusPending}, ""); rbErr != nil {
			s.logger.Error("Failed to roll back suggestion approval", zap.String("suggestion_id", cmd.ID), zap.Error(rbErr))
		}
		return nil, errors.NewDatabaseError("create menu item", err)
	}

	result.MenuItemUpdated = true
	result.CreatedMenuItemID = item.ID
	result.Message = "Suggestion approved and added to the menu"
	s.finishReview(ctx, result, append(events, item.Events()...))
	return result, nil
}

// ReviewEnhancement approves or rejects the pending enhancement on an item.
func (s *Service) ReviewEnhancement(ctx context.Context, cmd inbound.ReviewCommand) (*inbound.ReviewResult, error) {
	decision, err := optimization.ParseDecision(string(cmd.Decision))
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	item, err := s.findItem(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}

	switch item.EnhancementStatus {
	case menu.EnhancementPending:
	case menu.EnhancementNone:
		return nil, errors.NewCandidateNotFoundError(string(optimization.KindEnhancement), cmd.ID)
	default:
		return nil, errors.NewAlreadyReviewedError(string(optimization.KindEnhancement), cmd.ID, string(item.EnhancementStatus))
	}

	status := optimization.StatusApproved
	if decision == optimization.DecisionApprove {
		err = item.ApproveEnhancement()
	} else {
		status = optimization.StatusRejected
		err = item.RejectEnhancement()
	}
	if err != nil {
		return nil, errors.NewConflictError(err.Error())
	}
	if err := s.items.Update(ctx, item); err != nil {
		return nil, errors.NewDatabaseError("update menu item", err)
	}

	result := &inbound.ReviewResult{
		Kind:            optimization.KindEnhancement,
		ID:              cmd.ID,
		Status:          status,
		MenuItemUpdated: true,
		Message:         "Enhancement " + string(status),
	}
	s.finishReview(ctx, result, nil)
	return result, nil
}

// ListPending returns everything awaiting review for a restaurant.
func (s *Service) ListPending(ctx context.Context, restaurantID string) (*inbound.PendingReviews, error) {
	if _, err := s.loadRestaurant(ctx, restaurantID); err != nil {
		return nil, err
	}

	optimizations, err := s.optimizations.ListByRestaurant(ctx, restaurantID, optimization.StatusPending)
	if err != nil {
		return nil, errors.NewDatabaseError("list optimizations", err)
	}
	suggestions, err := s.suggestions.ListByRestaurant(ctx, restaurantID, optimization.StatusPending)
	if err != nil {
		return nil, errors.NewDatabaseError("list suggestions", err)
	}
	items, err := s.items.FindByRestaurant(ctx, restaurantID, true)
	if err != nil {
		return nil, errors.NewDatabaseError("list menu items", err)
	}

	enhancements := make([]*menu.MenuItem, 0)
	for _, item := range items {
		if item.EnhancementStatus == menu.EnhancementPending {
			enhancements = append(enhancements, item)
		}
	}

	return &inbound.PendingReviews{
		Optimizations: optimizations,
		Suggestions:   suggestions,
		Enhancements:  enhancements,
	}, nil
}

type reviewable interface {
	Approve() error
	Reject(feedback string) error
}

func decide(c reviewable, d optimization.Decision, feedback string) error {
	if d == optimization.DecisionApprove {
		return c.Approve()
	}
	return c.Reject(feedback)
}

func (s *Service) rollbackOptimization(ctx context.Context, itemID string) {
	err := s.optimizations.UpdateReview(ctx, itemID, optimization.StatusApproved, optimization.Review{Status: optimization.StatusPending})
	if err != nil {
		s.logger.Error("Failed to roll back optimization approval", zap.String("item_id", itemID), zap.Error(err))
	}
}

func (s *Service) finishReview(ctx context.Context, result *inbound.ReviewResult, events []shared.DomainEvent) {
	s.recorder.ObserveReview(result.Kind, result.Status)
	s.dispatch(ctx, events...)
	s.logger.Info("Candidate reviewed",
		zap.String("kind", string(result.Kind)),
		zap.String("id", result.ID),
		zap.String("status", string(result.Status)),
		zap.Bool("menu_item_updated", result.MenuItemUpdated),
	)
}

func candidateError(kind optimization.Kind, id string, err error) error {
	switch {
	case stderrors.Is(err, optimization.ErrCandidateMissing):
		return errors.NewCandidateNotFoundError(string(kind), id)
	case stderrors.Is(err, optimization.ErrStatusConflict):
		return errors.NewAlreadyReviewedError(string(kind), id, "reviewed")
	default:
		return errors.NewDatabaseError("update "+string(kind), err)
	}
}

func reviewError(kind optimization.Kind, id string, status optimization.Status, err error) error {
	if stderrors.Is(err, optimization.ErrAlreadyReviewed) {
		return errors.NewAlreadyReviewedError(string(kind), id, string(status))
	}
	return errors.Wrap(err, "review "+string(kind))
}
