// Package analytics holds the derived per-item scores.
package analytics

import (
	"math"
	"time"
)

// Score bounds
const (
	MinScore  = 0.0
	MaxScore  = 100.0
	BaseScore = 50.0
)

// Metrics are recomputable scores for one menu item, each in [0,100].
type Metrics struct {
	ItemID              string    `json:"itemId"`
	RestaurantID        string    `json:"restaurantId"`
	PopularityScore     float64   `json:"popularityScore"`
	ProfitabilityScore  float64   `json:"profitabilityScore"`
	RecommendationScore float64   `json:"recommendationScore"`
	CalculatedAt        time.Time `json:"calculatedAt"`
}

// Clamp bounds a raw score to [MinScore, MaxScore].
func Clamp(score float64) float64 {
	if math.IsNaN(score) {
		return MinScore
	}
	return math.Max(MinScore, math.Min(MaxScore, score))
}
