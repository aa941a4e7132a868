package signals

import (
	"testing"

	"github.com/menusense/optimizer/internal/domain/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDemographics() *market.Demographics {
	return &market.Demographics{
		RestaurantID: "r1",
		AgeGroups: []market.Segment{
			{Label: "25-34", Percentage: 40, Preferences: []string{"small plates", "natural wine", "spicy food", "brunch"}},
			{Label: "55+", Percentage: 10, Preferences: []string{"classic dishes"}},
		},
		GenderGroups: []market.Segment{
			{Label: "female", Percentage: 55, Preferences: []string{"salads", "", "seafood"}},
		},
		Interests: []string{"sustainability", "craft cocktails"},
		DiningPatterns: []market.DiningPattern{
			{Pattern: "weekday lunch", Frequency: 0.25, TimeOfDay: []string{"midday"}},
			{Pattern: "date night", Frequency: 0.4, TimeOfDay: []string{"evening", "late night"}},
		},
	}
}

func TestDemographicInsightsAll(t *testing.T) {
	p := NewPrioritizer(3, 0)

	insights := p.DemographicInsights(sampleDemographics(), market.Selection{})

	require.Len(t, insights, 5)
	assert.Equal(t, "Guests aged 25-34 (40%) favor: small plates, natural wine, spicy food", insights[0])
	assert.Equal(t, "Guests aged 55+ (10%) favor: classic dishes", insights[1])
	assert.Equal(t, "Female guests (55%) favor: salads, seafood", insights[2])
	assert.Equal(t, "Key guest interests: sustainability, craft cocktails", insights[3])
	assert.Equal(t, "Most common dining pattern: date night (40% of visits) during evening, late night", insights[4])
}

func TestDemographicInsightsSelection(t *testing.T) {
	p := NewPrioritizer(2, 0)

	insights := p.DemographicInsights(sampleDemographics(), market.Selection{AgeGroups: []string{"55+"}})

	require.Len(t, insights, 2)
	assert.Equal(t, "Guests aged 55+ (10%) favor: classic dishes", insights[0])
	assert.Contains(t, insights[1], "date night")
}

func TestDemographicInsightsEmptyResult(t *testing.T) {
	p := NewPrioritizer(3, 0)

	insights := p.DemographicInsights(sampleDemographics(), market.Selection{GenderGroups: []string{"nonbinary"}})
	assert.NotNil(t, insights)
	assert.Empty(t, insights)

	assert.Empty(t, p.DemographicInsights(nil, market.Selection{}))
}

func TestSpecialtyDishesRanking(t *testing.T) {
	p := NewPrioritizer(0, 3)
	candidates := []market.SpecialtyDish{
		{DishName: "a", Popularity: 0.5, Weight: 0.2, RestaurantCount: 1},
		{DishName: "b", Popularity: 0.9, Weight: 0.1, RestaurantCount: 1},
		{DishName: "c", Popularity: 0.5, Weight: 0.8, RestaurantCount: 1},
		{DishName: "d", Popularity: 0.5, Weight: 0.8, RestaurantCount: 4},
		{DishName: "e", Popularity: 0.1, Weight: 0.9, RestaurantCount: 9},
	}

	ranked := p.SpecialtyDishes(candidates, nil)

	require.Len(t, ranked, 3)
	assert.Equal(t, []string{"b", "d", "c"}, []string{ranked[0].DishName, ranked[1].DishName, ranked[2].DishName})
	assert.Equal(t, "a", candidates[0].DishName, "input must not be reordered")
}

func TestSpecialtyDishesExplicitSelection(t *testing.T) {
	p := NewPrioritizer(0, 1)
	selected := []market.SpecialtyDish{{DishName: "z", Popularity: 0}, {DishName: "y", Popularity: 1}}

	got := p.SpecialtyDishes([]market.SpecialtyDish{{DishName: "x", Popularity: 1}}, selected)
	assert.Equal(t, selected, got)
}

func TestDemographicInsightsTitleCasesGenderLabels(t *testing.T) {
	p := NewPrioritizer(1, 0)
	d := &market.Demographics{
		RestaurantID: "r1",
		GenderGroups: []market.Segment{
			{Label: "gender fluid", Percentage: 5, Preferences: []string{"tapas"}},
			{Label: "LGBTQ+", Percentage: 12, Preferences: []string{"brunch"}},
		},
	}

	insights := p.DemographicInsights(d, market.Selection{})

	require.Len(t, insights, 2)
	assert.Equal(t, "Gender Fluid guests (5%) favor: tapas", insights[0])
	assert.Equal(t, "LGBTQ+ guests (12%) favor: brunch", insights[1])
}
