package optimization

import (
	"context"
	"fmt"
	"time"

	"github.com/menusense/optimizer/internal/application/batch"
	"github.com/menusense/optimizer/internal/application/extract"
	"github.com/menusense/optimizer/internal/application/prompt"
	"github.com/menusense/optimizer/internal/domain/market"
	"github.com/menusense/optimizer/internal/domain/menu"
	"github.com/menusense/optimizer/internal/domain/optimization"
	"github.com/menusense/optimizer/internal/ports/inbound"
	"github.com/menusense/optimizer/internal/ports/outbound"
	"github.com/menusense/optimizer/pkg/errors"
	"go.uber.org/zap"
)

// demographicsSource labels the single multi-suggestion call in results.
const demographicsSource = "demographics"

// GenerateSuggestions proposes new dishes. With specialty dishes selected (or
// pulled from peers) one dish is requested per specialty dish; with only
// demographics selected a single call requests Count dishes.
func (s *Service) GenerateSuggestions(ctx context.Context, cmd inbound.GenerateSuggestionsCommand) (result *inbound.BatchResult, err error) {
	ctx, span := s.startSpan(ctx, "optimization.GenerateSuggestions", cmd.RestaurantID)
	defer func() { endSpan(span, err) }()

	if cmd.SelectedDemographics.IsEmpty() && len(cmd.SelectedSpecialtyDishes) == 0 && !cmd.UsePeerDishes {
		return nil, errors.NewNoSignalsSelectedError()
	}
	size, err := batchSize(cmd.BatchSize, s.cfg.BatchSize)
	if err != nil {
		return nil, err
	}
	count := cmd.Count
	if count <= 0 {
		count = s.cfg.SuggestionCount
	}

	restaurant, err := s.loadRestaurant(ctx, cmd.RestaurantID)
	if err != nil {
		return nil, err
	}

	dishes, err := s.suggestionDishes(ctx, restaurant, cmd)
	if err != nil {
		return nil, err
	}
	if cmd.SelectedDemographics.IsEmpty() && len(dishes) == 0 {
		return nil, errors.NewNoSignalsSelectedError().WithMetadata("peer_dishes", 0)
	}

	demographics, err := s.demographics.FindByRestaurant(ctx, restaurant.ID)
	if err != nil {
		return nil, errors.NewDatabaseError("find demographics", err)
	}
	if !cmd.SelectedDemographics.IsEmpty() && demographics.IsEmpty() {
		return nil, errors.NewDemographicsMissingError(restaurant.ID)
	}
	insights := s.prioritizer.DemographicInsights(demographics, cmd.SelectedDemographics)

	existing, err := s.items.FindByRestaurant(ctx, restaurant.ID, true)
	if err != nil {
		return nil, errors.NewDatabaseError("list menu items", err)
	}
	names := make([]string, len(existing))
	for i, item := range existing {
		names[i] = item.Name
	}

	client, err := s.model(ctx, cmd.ModelSelection)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Generating suggestions",
		zap.String("restaurant_id", restaurant.ID),
		zap.Int("specialty_dishes", len(dishes)),
		zap.Int("insights", len(insights)),
		zap.String("provider", string(client.Provider())),
	)

	start := time.Now()
	result = newBatchResult()
	result.Suggestions = []*optimization.MenuItemSuggestion{}

	if len(dishes) > 0 {
		outcomes := batch.Run(ctx, dishes, size, func(ctx context.Context, dish market.SpecialtyDish) (suggestionRun, error) {
			return s.suggest(ctx, client, restaurant, prompt.SuggestionInput{
				Restaurant:    restaurant,
				Insights:      insights,
				Dish:          &dish,
				ExistingItems: names,
				Style:         cmd.OptimizationStyle,
			}, 1)
		})
		tallySuggestions(result, outcomes, func(d market.SpecialtyDish) string { return d.DishName })
	} else {
		outcomes := batch.Run(ctx, []string{demographicsSource}, 1, func(ctx context.Context, _ string) (suggestionRun, error) {
			return s.suggest(ctx, client, restaurant, prompt.SuggestionInput{
				Restaurant:    restaurant,
				Insights:      insights,
				Count:         count,
				ExistingItems: names,
				Style:         cmd.OptimizationStyle,
			}, count)
		})
		tallySuggestions(result, outcomes, func(label string) string { return label })
	}
	s.recorder.ObserveBatch("suggest", result.SuccessCount, result.FailureCount, time.Since(start))

	s.logger.Info("Suggestion generation finished",
		zap.String("restaurant_id", restaurant.ID),
		zap.Int("suggestions", len(result.Suggestions)),
		zap.Int("failed", result.FailureCount),
	)
	return result, nil
}

// suggestionDishes returns the explicitly selected dishes, or the top peer
// dishes when the caller asked for them.
func (s *Service) suggestionDishes(ctx context.Context, restaurant *menu.Restaurant, cmd inbound.GenerateSuggestionsCommand) ([]market.SpecialtyDish, error) {
	if len(cmd.SelectedSpecialtyDishes) > 0 || !cmd.UsePeerDishes {
		return s.prioritizer.SpecialtyDishes(nil, cmd.SelectedSpecialtyDishes), nil
	}
	if s.dishes == nil {
		return nil, errors.NewBadRequestError("peer specialty dishes are not configured")
	}

	candidates, err := s.dishes.SpecialtyDishes(ctx, restaurant, s.cfg.MaxDishes)
	if err != nil {
		return nil, errors.NewExternalServiceError("peer API", err)
	}
	return s.prioritizer.SpecialtyDishes(candidates, nil), nil
}

// suggestionRun is what one suggestion call stored. Dropped holds the
// records that could not be built or saved.
type suggestionRun struct {
	Saved   []*optimization.MenuItemSuggestion
	Dropped []error
}

// tallySuggestions folds suggestion calls into result. A call that stored at
// least one suggestion succeeds and each dropped record counts as a failure.
func tallySuggestions[T any](result *inbound.BatchResult, outcomes []batch.Outcome[T, suggestionRun], label func(T) string) {
	result.TotalItemsProcessed += len(outcomes)
	for _, o := range outcomes {
		if o.Err != nil {
			result.FailureCount++
			result.Errors = append(result.Errors, inbound.ItemError{ItemID: label(o.Input), Error: o.Err.Error()})
			continue
		}
		result.SuccessCount++
		result.Suggestions = append(result.Suggestions, o.Value.Saved...)
		for _, err := range o.Value.Dropped {
			result.FailureCount++
			result.Errors = append(result.Errors, inbound.ItemError{ItemID: label(o.Input), Error: err.Error()})
		}
	}
}

// suggest runs one suggestion call and stores up to limit pending suggestions.
// It fails only when nothing could be stored.
func (s *Service) suggest(ctx context.Context, client outbound.LanguageModel, restaurant *menu.Restaurant, in prompt.SuggestionInput, limit int) (suggestionRun, error) {
	var run suggestionRun
	p, err := s.prompts.BuildSuggestion(in)
	if err != nil {
		return run, fmt.Errorf("build prompt: %w", err)
	}
	raw, err := complete(ctx, client, p)
	if err != nil {
		return run, err
	}

	parsed := extract.ParseSuggestions(raw)
	if len(parsed) == 0 {
		return run, errUnusableResponse
	}
	if len(parsed) > limit {
		parsed = parsed[:limit]
	}

	source, basedOn := optimization.InspirationDemographics, ""
	if in.Dish != nil {
		source, basedOn = optimization.InspirationSpecialtyDish, in.Dish.DishName
	}

	for _, rec := range parsed {
		suggestion, err := optimization.NewMenuItemSuggestion(optimization.SuggestionDraft{
			RestaurantID:         restaurant.ID,
			Name:                 rec.Name,
			Description:          rec.Description,
			Price:                rec.Price,
			Category:             rec.Category,
			Ingredients:          rec.Ingredients,
			DietaryTags:          rec.DietaryTags,
			InspirationSource:    source,
			BasedOnSpecialtyDish: basedOn,
			EstimatedCost:        rec.EstimatedCost,
		})
		if err != nil {
			run.Dropped = append(run.Dropped, fmt.Errorf("suggestion %q: %w", rec.Name, err))
			continue
		}
		if err := s.suggestions.Save(ctx, suggestion); err != nil {
			s.logger.Warn("Failed to save suggestion",
				zap.String("restaurant_id", restaurant.ID),
				zap.String("name", suggestion.Name),
				zap.Error(err),
			)
			run.Dropped = append(run.Dropped, fmt.Errorf("save suggestion %q: %w", suggestion.Name, err))
			continue
		}
		run.Saved = append(run.Saved, suggestion)
	}

	if len(run.Saved) == 0 {
		return run, run.Dropped[0]
	}
	return run, nil
}
