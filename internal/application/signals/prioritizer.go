// Package signals turns raw market data into the short, ranked context the
// prompt builder feeds to the model.
package signals

import (
	"fmt"
	"sort"
	"strings"

	"github.com/menusense/optimizer/internal/domain/market"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	DefaultTopPreferences = 3
	DefaultMaxDishes      = 10
)

// Prioritizer ranks and trims demographic and peer signals.
type Prioritizer struct {
	topN      int
	maxDishes int
}

// NewPrioritizer builds a prioritizer. Non-positive limits use the defaults.
func NewPrioritizer(topN, maxDishes int) *Prioritizer {
	if topN <= 0 {
		topN = DefaultTopPreferences
	}
	if maxDishes <= 0 {
		maxDishes = DefaultMaxDishes
	}
	return &Prioritizer{topN: topN, maxDishes: maxDishes}
}

// DemographicInsights renders one line per selected bucket with its top
// preferences, a line of key interests and the most frequent dining
// pattern. A non-empty selection that matches nothing yields no insights.
func (p *Prioritizer) DemographicInsights(d *market.Demographics, sel market.Selection) []string {
	if d.IsEmpty() {
		return []string{}
	}

	filtered := sel.Filter(d)
	if !sel.IsEmpty() && len(filtered.AgeGroups) == 0 && len(filtered.GenderGroups) == 0 && len(filtered.Interests) == 0 {
		return []string{}
	}

	insights := make([]string, 0, len(filtered.AgeGroups)+len(filtered.GenderGroups)+2)
	for _, g := range filtered.AgeGroups {
		if prefs := p.top(g.Preferences); prefs != "" {
			insights = append(insights, fmt.Sprintf("Guests aged %s (%s) favor: %s", g.Label, percent(g.Percentage), prefs))
		}
	}
	title := cases.Title(language.English, cases.NoLower)
	for _, g := range filtered.GenderGroups {
		if prefs := p.top(g.Preferences); prefs != "" {
			insights = append(insights, fmt.Sprintf("%s guests (%s) favor: %s", title.String(g.Label), percent(g.Percentage), prefs))
		}
	}
	if interests := p.top(filtered.Interests); interests != "" {
		insights = append(insights, "Key guest interests: "+interests)
	}
	if pattern, ok := busiestPattern(filtered.DiningPatterns); ok {
		line := fmt.Sprintf("Most common dining pattern: %s (%s of visits)", pattern.Pattern, percent(pattern.Frequency*100))
		if len(pattern.TimeOfDay) > 0 {
			line += " during " + strings.Join(pattern.TimeOfDay, ", ")
		}
		insights = append(insights, line)
	}
	return insights
}

// SpecialtyDishes returns the caller's explicit selection verbatim, or the
// candidates ranked by popularity, weight and restaurant count, truncated to
// the configured maximum.
func (p *Prioritizer) SpecialtyDishes(candidates, selected []market.SpecialtyDish) []market.SpecialtyDish {
	if len(selected) > 0 {
		return selected
	}

	ranked := make([]market.SpecialtyDish, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Popularity != b.Popularity {
			return a.Popularity > b.Popularity
		}
		if a.Weight != b.Weight {
			return a.Weight > b.Weight
		}
		return a.RestaurantCount > b.RestaurantCount
	})

	if len(ranked) > p.maxDishes {
		ranked = ranked[:p.maxDishes]
	}
	return ranked
}

func (p *Prioritizer) top(values []string) string {
	picked := make([]string, 0, p.topN)
	for _, v := range values {
		if v = strings.TrimSpace(v); v == "" {
			continue
		}
		picked = append(picked, v)
		if len(picked) == p.topN {
			break
		}
	}
	return strings.Join(picked, ", ")
}

func busiestPattern(patterns []market.DiningPattern) (market.DiningPattern, bool) {
	var best market.DiningPattern
	found := false
	for _, dp := range patterns {
		if strings.TrimSpace(dp.Pattern) == "" {
			continue
		}
		if !found || dp.Frequency > best.Frequency {
			best, found = dp, true
		}
	}
	return best, found
}

func percent(v float64) string {
	return fmt.Sprintf("%.0f%%", v)
}
