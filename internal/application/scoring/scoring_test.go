package scoring

import (
	"context"
	"testing"
	"time"

	"github.com/menusense/optimizer/internal/domain/analytics"
	"github.com/menusense/optimizer/internal/domain/menu"
	"github.com/menusense/optimizer/internal/infrastructure/persistence/memory"
	"github.com/menusense/optimizer/pkg/errors"
	"github.com/menusense/optimizer/test/testutils"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func upscale() *menu.Restaurant {
	return &menu.Restaurant{ID: "r1", Name: "Harbor Table", PriceLevel: menu.PriceLevelUpscale}
}

func seafood() *menu.MenuItem {
	return &menu.MenuItem{
		ID:           "i1",
		RestaurantID: "r1",
		Name:         "Fish",
		Description:  "Grilled fish",
		Price:        30,
		Category:     "seafood",
		Ingredients:  []string{"sea bass", "lemon", "butter", "capers", "parsley"},
		IsActive:     true,
	}
}

func TestSeafoodAtUpscaleRestaurant(t *testing.T) {
	item := seafood()
	r := upscale()

	assert.InDelta(t, 14.5, EstimatedCost(item), 1e-9)
	assert.InDelta(t, 60.0, Popularity(item, r), 1e-9)
	assert.InDelta(t, 75.0, Profitability(item, r), 1e-9)
	// short description costs 10
	assert.InDelta(t, 40.0, Recommendation(item), 1e-9)
}

func TestEnhancedItemScoresHigher(t *testing.T) {
	r := upscale()
	plain := seafood()
	enhanced := seafood()
	enhanced.ProposeEnhancement("Coastal Sea Bass", "Wood-fired sea bass with brown butter, capers and a squeeze of charred lemon, finished with parsley.")
	require.NoError(t, enhanced.ApproveEnhancement())

	assert.Greater(t, Popularity(enhanced, r), Popularity(plain, r))
	assert.Greater(t, Recommendation(enhanced), Recommendation(plain))
}

func TestPendingEnhancementDoesNotCount(t *testing.T) {
	item := seafood()
	item.ProposeEnhancement("Coastal Sea Bass", "A long enough enhanced description that would otherwise add points to the score.")
	assert.Equal(t, Recommendation(seafood()), Recommendation(item))
}

func TestScoresStayInRange(t *testing.T) {
	r := &menu.Restaurant{PriceLevel: menu.PriceLevelBudget}
	rich := &menu.MenuItem{
		Price:               12,
		Category:            "Desserts",
		DietaryTags:         []string{"vegan", "gluten-free", "nut-free", "halal", "kosher"},
		Ingredients:         []string{"a", "b", "c", "d", "e", "f"},
		EnhancedDescription: "x",
		EnhancementStatus:   menu.EnhancementApproved,
		TasteProfile:        map[string]float64{"sweet": 0.9},
		GeneratedTags:       []string{"indulgent"},
	}
	free := &menu.MenuItem{Price: 0, Category: "steak", Ingredients: make([]string, 40)}

	for _, item := range []*menu.MenuItem{rich, free} {
		m := Score(item, r, time.Now())
		for _, v := range []float64{m.PopularityScore, m.ProfitabilityScore, m.RecommendationScore} {
			assert.GreaterOrEqual(t, v, analytics.MinScore)
			assert.LessOrEqual(t, v, analytics.MaxScore)
		}
	}
	assert.InDelta(t, 30.0, Profitability(free, r), 1e-9)
}

func TestBandPositionAdjustsProfitability(t *testing.T) {
	r := upscale()
	faker := gofakeit.New(7)

	tests := []struct {
		name  string
		price float64
		want  float64
	}{
		// cost 6.5: pasta 5 + three ingredients
		{"sweet spot of the band", 28, 95},
		{"top of the band", 38, 70},
		{"middle of the band", 20, 70},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := testutils.NewMenuItemBuilder(faker).
				WithRestaurant(r.ID).
				WithName("Cacio e Pepe").
				WithCategory("pasta").
				WithPrice(tt.price).
				Build()

			assert.InDelta(t, 6.5, EstimatedCost(item), 1e-9)
			assert.InDelta(t, tt.want, Profitability(item, r), 1e-9)
		})
	}
}

func TestUnknownPriceLevelUsesModerateBand(t *testing.T) {
	assert.Equal(t, PriceBand(menu.PriceLevelModerate), PriceBand(menu.PriceLevel(9)))
	assert.Equal(t, Band{Min: 10, Max: 25}, PriceBand(0))
}

func TestScoreRestaurant(t *testing.T) {
	ctx := context.Background()
	restaurants := memory.NewRestaurantRepository()
	items := memory.NewMenuItemRepository()
	metrics := memory.NewMetricsRepository()
	require.NoError(t, restaurants.Save(ctx, upscale()))

	plain := seafood()
	rich := seafood()
	rich.ID = "i2"
	rich.TasteProfile = map[string]float64{"umami": 0.8}
	rich.DietaryTags = []string{"gluten-free"}
	inactive := seafood()
	inactive.ID = "i3"
	inactive.IsActive = false
	for _, it := range []*menu.MenuItem{plain, rich, inactive} {
		require.NoError(t, items.Create(ctx, it))
	}

	svc := NewService(restaurants, items, metrics, zaptest.NewLogger(t))
	got, err := svc.ScoreRestaurant(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "i2", got[0].ItemID)
	assert.Equal(t, "i1", got[1].ItemID)

	stored, err := metrics.FindByRestaurant(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	_, err = svc.ScoreRestaurant(ctx, "missing")
	assert.True(t, errors.Is(err, errors.CodeRestaurantNotFound))
}
