package scoring

import (
	"context"
	stderrors "errors"
	"sort"
	"time"

	"github.com/menusense/optimizer/internal/domain/analytics"
	"github.com/menusense/optimizer/internal/domain/menu"
	"github.com/menusense/optimizer/internal/ports/inbound"
	"github.com/menusense/optimizer/internal/ports/outbound"
	"github.com/menusense/optimizer/pkg/errors"
	"go.uber.org/zap"
)

// Service scores a restaurant's active menu and stores the results.
type Service struct {
	restaurants outbound.RestaurantRepository
	items       outbound.MenuItemRepository
	metrics     outbound.MetricsRepository
	logger      *zap.Logger
	now         func() time.Time
}

// NewService creates a new scoring service
func NewService(
	restaurants outbound.RestaurantRepository,
	items outbound.MenuItemRepository,
	metrics outbound.MetricsRepository,
	logger *zap.Logger,
) *Service {
	return &Service{
		restaurants: restaurants,
		items:       items,
		metrics:     metrics,
		logger:      logger.Named("scoring-service"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

var _ inbound.ScoringService = (*Service)(nil)

// ScoreRestaurant recomputes metrics for every active item, persists them and
// returns them ranked by recommendation score.
func (s *Service) ScoreRestaurant(ctx context.Context, restaurantID string) ([]analytics.Metrics, error) {
	restaurant, err := s.restaurants.FindByID(ctx, restaurantID)
	if err != nil {
		if stderrors.Is(err, menu.ErrRestaurantNotFound) {
			return nil, errors.NewRestaurantNotFoundError(restaurantID)
		}
		return nil, errors.NewDatabaseError("find restaurant", err)
	}

	items, err := s.items.FindByRestaurant(ctx, restaurantID, true)
	if err != nil {
		return nil, errors.NewDatabaseError("list menu items", err)
	}

	now := s.now()
	out := make([]analytics.Metrics, 0, len(items))
	for _, item := range items {
		out = append(out, Score(item, restaurant, now))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RecommendationScore != out[j].RecommendationScore {
			return out[i].RecommendationScore > out[j].RecommendationScore
		}
		return out[i].PopularityScore > out[j].PopularityScore
	})

	if len(out) > 0 {
		if err := s.metrics.SaveAll(ctx, out); err != nil {
			return nil, errors.NewDatabaseError("save metrics", err)
		}
	}

	s.logger.Info("Scored menu",
		zap.String("restaurant_id", restaurantID),
		zap.Int("items", len(out)),
	)
	return out, nil
}
