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
	"github.com/menusense/optimizer/internal/ports/inbound"
	"github.com/menusense/optimizer/pkg/errors"
	"go.uber.org/zap"
)

// AnalyzeTasteProfiles asks the model for a flavour profile and descriptive
// tags per item and writes them straight onto the items. Taste data does not
// change guest-facing copy, so it skips review.
func (s *Service) AnalyzeTasteProfiles(ctx context.Context, cmd inbound.AnalyzeTasteCommand) (result *inbound.BatchResult, err error) {
	ctx, span := s.startSpan(ctx, "optimization.AnalyzeTasteProfiles", cmd.RestaurantID)
	defer func() { endSpan(span, err) }()

	size, err := batchSize(cmd.BatchSize, s.cfg.TasteBatchSize)
	if err != nil {
		return nil, err
	}
	restaurant, err := s.loadRestaurant(ctx, cmd.RestaurantID)
	if err != nil {
		return nil, err
	}
	items, err := s.resolveItems(ctx, restaurant.ID, cmd.ItemIDs)
	if err != nil {
		return nil, err
	}
	insights, err := s.allInsights(ctx, restaurant.ID)
	if err != nil {
		return nil, err
	}
	client, err := s.model(ctx, cmd.ModelSelection)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Analyzing taste profiles",
		zap.String("restaurant_id", restaurant.ID),
		zap.Int("items", len(items)),
		zap.Int("batch_size", size),
	)

	start := time.Now()
	outcomes := batch.Run(ctx, items, size, func(ctx context.Context, item *menu.MenuItem) (*menu.MenuItem, error) {
		p, err := s.prompts.BuildTasteProfile(prompt.ItemInput{Restaurant: restaurant, Item: item, Insights: insights})
		if err != nil {
			return nil, fmt.Errorf("build prompt: %w", err)
		}
		raw, err := complete(ctx, client, p)
		if err != nil {
			return nil, err
		}
		profile, ok := extract.ParseTasteProfile(raw)
		if !ok {
			return nil, errUnusableResponse
		}

		item.SetTasteProfile(profile.Profile, profile.Tags)
		if err := s.items.Update(ctx, item); err != nil {
			return nil, fmt.Errorf("update menu item: %w", err)
		}
		return item, nil
	})

	result = newBatchResult()
	result.AnalyzedItems = []*menu.MenuItem{}
	tally(result, outcomes,
		func(item *menu.MenuItem) string { return item.ID },
		func(item *menu.MenuItem) { result.AnalyzedItems = append(result.AnalyzedItems, item) },
	)
	s.recorder.ObserveBatch("taste_profile", result.SuccessCount, result.FailureCount, time.Since(start))
	return result, nil
}

// EnhanceItem proposes an enhanced name and description for one item. The
// proposal stays pending until ReviewEnhancement decides on it.
func (s *Service) EnhanceItem(ctx context.Context, cmd inbound.EnhanceItemCommand) (item *menu.MenuItem, err error) {
	ctx, span := s.startSpan(ctx, "optimization.EnhanceItem", cmd.RestaurantID)
	defer func() { endSpan(span, err) }()

	restaurant, err := s.loadRestaurant(ctx, cmd.RestaurantID)
	if err != nil {
		return nil, err
	}
	if cmd.ItemID == "" {
		return nil, errors.NewValidationError("itemId is required")
	}
	items, err := s.resolveItems(ctx, restaurant.ID, []string{cmd.ItemID})
	if err != nil {
		return nil, err
	}
	item = items[0]

	insights, err := s.allInsights(ctx, restaurant.ID)
	if err != nil {
		return nil, err
	}
	client, err := s.model(ctx, cmd.ModelSelection)
	if err != nil {
		return nil, err
	}

	p, err := s.prompts.BuildEnhancement(prompt.ItemInput{Restaurant: restaurant, Item: item, Insights: insights})
	if err != nil {
		return nil, errors.Wrap(err, "build enhancement prompt")
	}
	raw, err := complete(ctx, client, p)
	if err != nil {
		return nil, errors.NewModelProviderError(string(client.Provider()), err)
	}
	parsed, ok := extract.ParseEnhancement(raw)
	if !ok {
		return nil, errors.NewModelProviderError(string(client.Provider()), errUnusableResponse)
	}
	if parsed.EnhancedName == "" {
		parsed.EnhancedName = item.Name
	}

	item.ProposeEnhancement(parsed.EnhancedName, parsed.EnhancedDescription)
	if err := s.items.Update(ctx, item); err != nil {
		return nil, errors.NewDatabaseError("update menu item", err)
	}

	s.logger.Info("Enhancement proposed",
		zap.String("restaurant_id", restaurant.ID),
		zap.String("item_id", item.ID),
	)
	return item, nil
}

// allInsights renders insights from every stored segment; restaurants
// without demographics simply get none.
func (s *Service) allInsights(ctx context.Context, restaurantID string) ([]string, error) {
	d, err := s.demographics.FindByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, errors.NewDatabaseError("find demographics", err)
	}
	return s.prioritizer.DemographicInsights(d, market.Selection{}), nil
}
