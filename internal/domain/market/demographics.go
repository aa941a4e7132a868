// Package market holds the read-only market signals the pipeline consumes:
// the restaurant's audience demographics and the specialty dishes found at
// peer restaurants.
package market

import (
	"strings"
	"time"
)

// Segment is one demographic bucket (an age range or a gender) with the
// dishes and traits that bucket prefers, most preferred first.
type Segment struct {
	Label       string   `json:"label"`
	Percentage  float64  `json:"percentage"`
	Preferences []string `json:"preferences"`
}

// DiningPattern describes when and how often guests visit.
// Frequency is the share of visits following the pattern.
type DiningPattern struct {
	Pattern   string   `json:"pattern"`
	Frequency float64  `json:"frequency"`
	TimeOfDay []string `json:"timeOfDay"`
}

// Demographics is a snapshot refreshed by an external collector.
type Demographics struct {
	RestaurantID   string          `json:"restaurantId"`
	AgeGroups      []Segment       `json:"ageGroups"`
	GenderGroups   []Segment       `json:"genderGroups"`
	Interests      []string        `json:"interests"`
	DiningPatterns []DiningPattern `json:"diningPatterns"`
	CollectedAt    time.Time       `json:"collectedAt"`
}

// IsEmpty reports whether the snapshot carries no usable signal.
func (d *Demographics) IsEmpty() bool {
	return d == nil || (len(d.AgeGroups) == 0 && len(d.GenderGroups) == 0 &&
		len(d.Interests) == 0 && len(d.DiningPatterns) == 0)
}

// Selection narrows demographics to the buckets a caller chose.
// An empty selection means "use everything".
type Selection struct {
	AgeGroups    []string `json:"selectedAgeGroups,omitempty"`
	GenderGroups []string `json:"selectedGenderGroups,omitempty"`
	Interests    []string `json:"selectedInterests,omitempty"`
}

// IsEmpty reports whether nothing was selected.
func (s Selection) IsEmpty() bool {
	return len(s.AgeGroups) == 0 && len(s.GenderGroups) == 0 && len(s.Interests) == 0
}

// Filter returns the buckets of d matching the selection. Labels compare
// case-insensitively.
func (s Selection) Filter(d *Demographics) Demographics {
	if d == nil {
		return Demographics{}
	}
	if s.IsEmpty() {
		return *d
	}

	out := Demographics{RestaurantID: d.RestaurantID, CollectedAt: d.CollectedAt, DiningPatterns: d.DiningPatterns}
	ages, genders, interests := toSet(s.AgeGroups), toSet(s.GenderGroups), toSet(s.Interests)
	for _, g := range d.AgeGroups {
		if _, ok := ages[normalize(g.Label)]; ok {
			out.AgeGroups = append(out.AgeGroups, g)
		}
	}
	for _, g := range d.GenderGroups {
		if _, ok := genders[normalize(g.Label)]; ok {
			out.GenderGroups = append(out.GenderGroups, g)
		}
	}
	for _, i := range d.Interests {
		if _, ok := interests[normalize(i)]; ok {
			out.Interests = append(out.Interests, i)
		}
	}
	return out
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[normalize(v)] = struct{}{}
	}
	return set
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
