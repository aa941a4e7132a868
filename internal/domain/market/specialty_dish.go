package market

import "strings"

// SpecialtyDish aggregates one dish tag across peer restaurants.
//
// Weight is always TotalWeight / RestaurantCount. Popularity is the share of
// scanned peers serving the dish and is tracked independently of Weight.
type SpecialtyDish struct {
	DishName        string  `json:"dishName"`
	TagID           string  `json:"tagId"`
	RestaurantCount int     `json:"restaurantCount"`
	Popularity      float64 `json:"popularity"`
	Weight          float64 `json:"weight"`
	TotalWeight     float64 `json:"totalWeight"`
}

// Observe records one more peer restaurant serving the dish.
func (d *SpecialtyDish) Observe(weight float64) {
	d.RestaurantCount++
	d.TotalWeight += clamp01(weight)
	d.Weight = d.TotalWeight / float64(d.RestaurantCount)
}

// PeerTag is a tag attached to a peer restaurant by the peer-signal API.
type PeerTag struct {
	TagID  string  `json:"tag_id"`
	Name   string  `json:"name"`
	Type   string  `json:"type,omitempty"`
	Weight float64 `json:"weight"`
}

// DishIndex merges the specialty-dish tags of many peer restaurants.
type DishIndex struct {
	dishes map[string]*SpecialtyDish
	order  []string
	peers  int
}

// NewDishIndex returns an empty index.
func NewDishIndex() *DishIndex {
	return &DishIndex{dishes: make(map[string]*SpecialtyDish)}
}

// AddPeer merges the tags of one peer restaurant. A tag repeated within the
// same peer counts once.
func (x *DishIndex) AddPeer(tags []PeerTag) {
	x.peers++
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		key := strings.TrimSpace(t.TagID)
		if key == "" {
			key = normalize(t.Name)
		}
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		dish, ok := x.dishes[key]
		if !ok {
			dish = &SpecialtyDish{DishName: strings.TrimSpace(t.Name), TagID: t.TagID}
			x.dishes[key] = dish
			x.order = append(x.order, key)
		}
		dish.Observe(t.Weight)
	}
}

// Peers returns the number of peer restaurants merged so far.
func (x *DishIndex) Peers() int {
	return x.peers
}

// Dishes returns the merged dishes in first-seen order with popularity filled in.
func (x *DishIndex) Dishes() []SpecialtyDish {
	out := make([]SpecialtyDish, 0, len(x.order))
	for _, key := range x.order {
		d := *x.dishes[key]
		if x.peers > 0 {
			d.Popularity = float64(d.RestaurantCount) / float64(x.peers)
		}
		out = append(out, d)
	}
	return out
}

func clamp01(v float64) float64 {
	switch {
	case v != v, v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
