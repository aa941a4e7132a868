package optimization

import (
	"context"
	"fmt"
	"time"

	"github.com/menusense/optimizer/internal/application/batch"
	"github.com/menusense/optimizer/internal/application/extract"
	"github.com/menusense/optimizer/internal/application/prompt"
	"github.com/menusense/optimizer/internal/domain/menu"
	"github.com/menusense/optimizer/internal/domain/optimization"
	"github.com/menusense/optimizer/internal/ports/inbound"
	"github.com/menusense/optimizer/pkg/errors"
	"go.uber.org/zap"
)

// OptimizeMenu rewrites the names and descriptions of one or all active items
// for the selected audience. Each item yields a pending candidate that
// replaces an earlier pending candidate for the same item. Items whose
// candidate was already reviewed fail without a model call.
func (s *Service) OptimizeMenu(ctx context.Context, cmd inbound.OptimizeMenuCommand) (result *inbound.BatchResult, err error) {
	ctx, span := s.startSpan(ctx, "optimization.OptimizeMenu", cmd.RestaurantID)
	defer func() { endSpan(span, err) }()

	size, err := batchSize(cmd.BatchSize, s.cfg.BatchSize)
	if err != nil {
		return nil, err
	}
	restaurant, err := s.loadRestaurant(ctx, cmd.RestaurantID)
	if err != nil {
		return nil, err
	}

	demographics, err := s.demographics.FindByRestaurant(ctx, restaurant.ID)
	if err != nil {
		return nil, errors.NewDatabaseError("find demographics", err)
	}
	if demographics.IsEmpty() {
		return nil, errors.NewDemographicsMissingError(restaurant.ID)
	}

	items, err := s.resolveItems(ctx, restaurant.ID, cmd.ItemIDs)
	if err != nil {
		return nil, err
	}

	insights := s.prioritizer.DemographicInsights(demographics, cmd.SelectedDemographics)
	dishes := s.prioritizer.SpecialtyDishes(nil, cmd.SelectedSpecialtyDishes)

	client, err := s.model(ctx, cmd.ModelSelection)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Optimizing menu",
		zap.String("restaurant_id", restaurant.ID),
		zap.Int("items", len(items)),
		zap.Int("batch_size", size),
		zap.Int("chunks", batch.Chunks(len(items), size)),
		zap.String("provider", string(client.Provider())),
	)

	start := time.Now()
	outcomes := batch.Run(ctx, items, size, func(ctx context.Context, item *menu.MenuItem) (*optimization.OptimizedMenuItem, error) {
		if prev, err := s.optimizations.FindByItemID(ctx, item.ID); err == nil && prev.Status().IsTerminal() {
			return nil, fmt.Errorf("%w: %s", optimization.ErrAlreadyReviewed, prev.Status())
		}

		p, err := s.prompts.BuildOptimization(prompt.OptimizationInput{
			Restaurant:      restaurant,
			Item:            item,
			Insights:        insights,
			SpecialtyDishes: dishes,
			Style:           cmd.OptimizationStyle,
			TargetAudience:  cmd.TargetAudience,
		})
		if err != nil {
			return nil, fmt.Errorf("build prompt: %w", err)
		}

		raw, err := complete(ctx, client, p)
		if err != nil {
			return nil, err
		}

		parsed, ok := extract.ParseOptimization(raw, extract.Optimization{
			OptimizedName:        item.Name,
			OptimizedDescription: item.Description,
		})
		if !ok {
			return nil, errUnusableResponse
		}

		candidate, err := optimization.NewOptimizedMenuItem(optimization.Candidate{
			ItemID:               item.ID,
			RestaurantID:         restaurant.ID,
			OriginalName:         item.Name,
			OriginalDescription:  item.Description,
			OptimizedName:        parsed.OptimizedName,
			OptimizedDescription: parsed.OptimizedDescription,
			OptimizationReason:   parsed.OptimizationReason,
			DemographicInsights:  append([]string{}, insights...),
		})
		if err != nil {
			return nil, err
		}
		if err := s.optimizations.Save(ctx, candidate); err != nil {
			return nil, fmt.Errorf("save optimization: %w", err)
		}
		return candidate, nil
	})

	result = newBatchResult()
	result.OptimizedItems = []*optimization.OptimizedMenuItem{}
	tally(result, outcomes,
		func(item *menu.MenuItem) string { return item.ID },
		func(o *optimization.OptimizedMenuItem) { result.OptimizedItems = append(result.OptimizedItems, o) },
	)
	s.recorder.ObserveBatch("optimize", result.SuccessCount, result.FailureCount, time.Since(start))

	s.logger.Info("Menu optimization finished",
		zap.String("restaurant_id", restaurant.ID),
		zap.Int("succeeded", result.SuccessCount),
		zap.Int("failed", result.FailureCount),
	)
	return result, nil
}
