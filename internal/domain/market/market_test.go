package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDishIndexKeepsWeightInvariant(t *testing.T) {
	x := NewDishIndex()
	x.AddPeer([]PeerTag{{TagID: "t:ramen", Name: "Ramen", Weight: 0.9}, {TagID: "t:gyoza", Name: "Gyoza", Weight: 0.4}})
	x.AddPeer([]PeerTag{{TagID: "t:ramen", Name: "Ramen", Weight: 0.5}, {TagID: "t:ramen", Name: "Ramen", Weight: 1}})
	x.AddPeer([]PeerTag{{TagID: "t:ramen", Name: "Ramen", Weight: 1.6}})
	x.AddPeer(nil)

	dishes := x.Dishes()
	require.Len(t, dishes, 2)
	assert.Equal(t, 4, x.Peers())

	ramen := dishes[0]
	assert.Equal(t, "Ramen", ramen.DishName)
	assert.Equal(t, 3, ramen.RestaurantCount)
	assert.InDelta(t, 2.4, ramen.TotalWeight, 1e-9)
	assert.InDelta(t, ramen.TotalWeight/float64(ramen.RestaurantCount), ramen.Weight, 1e-9)
	assert.InDelta(t, 0.75, ramen.Popularity, 1e-9)

	gyoza := dishes[1]
	assert.Equal(t, 1, gyoza.RestaurantCount)
	assert.InDelta(t, 0.4, gyoza.Weight, 1e-9)
	assert.InDelta(t, 0.25, gyoza.Popularity, 1e-9)
}

func TestDishIndexFallsBackToName(t *testing.T) {
	x := NewDishIndex()
	x.AddPeer([]PeerTag{{Name: " Tacos ", Weight: 0.3}, {Name: ""}})
	x.AddPeer([]PeerTag{{Name: "tacos", Weight: 0.5}})

	dishes := x.Dishes()
	require.Len(t, dishes, 1)
	assert.Equal(t, 2, dishes[0].RestaurantCount)
	assert.InDelta(t, 0.4, dishes[0].Weight, 1e-9)
}

func TestSelectionFilter(t *testing.T) {
	d := &Demographics{
		RestaurantID: "r1",
		AgeGroups:    []Segment{{Label: "18-24", Percentage: 20}, {Label: "25-34", Percentage: 40}},
		GenderGroups: []Segment{{Label: "female", Percentage: 55}},
		Interests:    []string{"Craft Beer", "Vegan"},
	}

	all := Selection{}.Filter(d)
	assert.Len(t, all.AgeGroups, 2)

	some := Selection{AgeGroups: []string{"25-34"}, Interests: []string{"craft beer"}}.Filter(d)
	require.Len(t, some.AgeGroups, 1)
	assert.Equal(t, "25-34", some.AgeGroups[0].Label)
	assert.Empty(t, some.GenderGroups)
	assert.Equal(t, []string{"Craft Beer"}, some.Interests)

	none := Selection{AgeGroups: []string{"65+"}}.Filter(d)
	assert.Empty(t, none.AgeGroups)
	assert.Empty(t, none.Interests)

	assert.True(t, (*Demographics)(nil).IsEmpty())
	assert.False(t, d.IsEmpty())
}
