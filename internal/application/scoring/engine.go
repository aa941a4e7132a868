// Package scoring computes the deterministic popularity, profitability and
// recommendation scores of menu items. Every score starts at 50 and is
// clamped to [0,100].
package scoring

import (
	"strings"
	"time"

	"github.com/menusense/optimizer/internal/domain/analytics"
	"github.com/menusense/optimizer/internal/domain/menu"
)

// Band is the expected price range for a price level.
type Band struct {
	Min float64
	Max float64
}

// Contains reports whether price lies inside the band, inclusive.
func (b Band) Contains(price float64) bool {
	return price >= b.Min && price <= b.Max
}

var priceBands = map[menu.PriceLevel]Band{
	menu.PriceLevelBudget:   {Min: 5, Max: 15},
	menu.PriceLevelModerate: {Min: 10, Max: 25},
	menu.PriceLevelUpscale:  {Min: 20, Max: 40},
	menu.PriceLevelFine:     {Min: 35, Max: 80},
}

// PriceBand returns the band for a level; unknown levels use moderate.
func PriceBand(level menu.PriceLevel) Band {
	return priceBands[level.OrDefault()]
}

var popularCategories = []string{
	"appetizer", "starter", "main", "entree", "entrée", "pasta", "pizza",
	"burger", "salad", "dessert", "sandwich",
}

type baseCost struct {
	keyword string
	cost    float64
}

// Checked in order; the first keyword contained in the category wins.
var categoryBaseCosts = []baseCost{
	{"seafood", 12}, {"fish", 12},
	{"steak", 14}, {"beef", 14}, {"lamb", 14},
	{"poultry", 8}, {"chicken", 8},
	{"pasta", 5}, {"pizza", 6},
	{"salad", 4},
	{"appetizer", 5}, {"starter", 5},
	{"dessert", 4},
	{"beverage", 2}, {"drink", 2},
}

const (
	defaultBaseCost   = 7.0
	costPerIngredient = 0.5
)

// EstimatedCost is the category base cost plus a fixed amount per ingredient.
func EstimatedCost(item *menu.MenuItem) float64 {
	category := strings.ToLower(item.Category)
	base := defaultBaseCost
	for _, bc := range categoryBaseCosts {
		if strings.Contains(category, bc.keyword) {
			base = bc.cost
			break
		}
	}
	return base + costPerIngredient*float64(len(item.Ingredients))
}

// Popularity scores guest appeal.
func Popularity(item *menu.MenuItem, restaurant *menu.Restaurant) float64 {
	score := analytics.BaseScore
	if item.HasApprovedEnhancement() {
		score += 15
	}
	score += min(5*float64(len(item.DietaryTags)), 20)
	if isPopularCategory(item.Category) {
		score += 10
	}
	if PriceBand(level(restaurant)).Contains(item.Price) {
		score += 10
	}
	if len(item.GeneratedTags) > 0 {
		score += 5
	}
	return analytics.Clamp(score)
}

// Profitability scores margin and position within the price band.
func Profitability(item *menu.MenuItem, restaurant *menu.Restaurant) float64 {
	score := analytics.BaseScore

	margin := 0.0
	if item.Price > 0 {
		margin = (item.Price - EstimatedCost(item)) / item.Price
	}
	switch {
	case margin > 0.7:
		score += 30
	case margin > 0.6:
		score += 20
	case margin > 0.5:
		score += 10
	case margin < 0.3:
		score -= 20
	}

	band := PriceBand(level(restaurant))
	if band.Max > 0 {
		position := item.Price / band.Max
		switch {
		case position >= 0.6 && position <= 0.8:
			score += 15
		case position > 0.9:
			score -= 10
		}
	}
	return analytics.Clamp(score)
}

// Recommendation scores how ready the item is to be recommended.
func Recommendation(item *menu.MenuItem) float64 {
	score := analytics.BaseScore
	if item.HasApprovedEnhancement() {
		score += 20
	}
	if len(item.TasteProfile) > 0 {
		score += 15
	}
	if len(item.GeneratedTags) > 0 {
		score += 10
	}
	if len(item.DietaryTags) > 0 {
		score += 10
	}
	switch n := len([]rune(strings.TrimSpace(item.DisplayDescription()))); {
	case n > 100:
		score += 10
	case n < 30:
		score -= 10
	}
	if len(item.Ingredients) > 5 {
		score += 5
	}
	return analytics.Clamp(score)
}

// Score computes all three metrics for an item.
func Score(item *menu.MenuItem, restaurant *menu.Restaurant, now time.Time) analytics.Metrics {
	return analytics.Metrics{
		ItemID:              item.ID,
		RestaurantID:        item.RestaurantID,
		PopularityScore:     Popularity(item, restaurant),
		ProfitabilityScore:  Profitability(item, restaurant),
		RecommendationScore: Recommendation(item),
		CalculatedAt:        now,
	}
}

func isPopularCategory(category string) bool {
	c := strings.ToLower(category)
	for _, k := range popularCategories {
		if strings.Contains(c, k) {
			return true
		}
	}
	return false
}

func level(r *menu.Restaurant) menu.PriceLevel {
	if r == nil {
		return menu.PriceLevelModerate
	}
	return r.PriceLevel
}
