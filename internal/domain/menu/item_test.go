package menu

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMenuItemValidation(t *testing.T) {
	tests := []struct {
		name    string
		itemNm  string
		price   float64
		wantErr error
	}{
		{"valid", "Paella", 24.5, nil},
		{"free item", "Bread", 0, nil},
		{"empty name", "  ", 10, ErrEmptyName},
		{"negative price", "Soup", -1, ErrInvalidPrice},
		{"nan price", "Soup", math.NaN(), ErrInvalidPrice},
		{"infinite price", "Soup", math.Inf(1), ErrInvalidPrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := NewMenuItem("r1", tt.itemNm, "desc", tt.price, "mains")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, item.IsActive)
			assert.False(t, item.IsAIGenerated)
			assert.NotEmpty(t, item.ID)
		})
	}
}

func TestNewGeneratedItem(t *testing.T) {
	item, err := NewGeneratedItem("r1", "Yuzu Tart", "Bright citrus tart", 9, "desserts",
		[]string{"yuzu", "butter"}, []string{"vegetarian", "Vegetarian", ""})
	require.NoError(t, err)

	assert.True(t, item.IsAIGenerated)
	assert.True(t, item.IsActive)
	assert.Equal(t, []string{"vegetarian"}, item.DietaryTags)

	events := item.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "menu_item.created", events[0].EventName())
	assert.Empty(t, item.Events())
}

func TestApplyOptimizationApprovesPendingEnhancement(t *testing.T) {
	item, err := NewMenuItem("r1", "Fish", "Grilled fish", 30, "seafood")
	require.NoError(t, err)
	item.ProposeEnhancement("Line-Caught Sea Bass", "Charred over oak with lemon butter")

	item.ApplyOptimization("Coastal Sea Bass", "Wood-fired sea bass with herb butter")

	assert.Equal(t, "Coastal Sea Bass", item.Name)
	assert.Equal(t, "Wood-fired sea bass with herb butter", item.Description)
	assert.Equal(t, EnhancementApproved, item.EnhancementStatus)
	assert.True(t, item.HasApprovedEnhancement())
}

func TestEnhancementTransitions(t *testing.T) {
	item, err := NewMenuItem("r1", "Fish", "Grilled fish", 30, "seafood")
	require.NoError(t, err)

	assert.ErrorIs(t, item.ApproveEnhancement(), ErrNoPendingEnhancement)

	item.ProposeEnhancement("Sea Bass", "Charred sea bass")
	assert.Equal(t, "Grilled fish", item.DisplayDescription())

	require.NoError(t, item.ApproveEnhancement())
	assert.Equal(t, "Charred sea bass", item.DisplayDescription())
	assert.ErrorIs(t, item.RejectEnhancement(), ErrNoPendingEnhancement)
}

func TestSetTasteProfileClamps(t *testing.T) {
	item, err := NewMenuItem("r1", "Curry", "", 14, "mains")
	require.NoError(t, err)

	item.SetTasteProfile(map[string]float64{"Spicy": 1.4, "sweet": -0.2, "umami": 0.5, "bad": math.NaN()},
		[]string{"comfort", "comfort", "bold"})

	assert.Equal(t, map[string]float64{"spicy": 1, "sweet": 0, "umami": 0.5}, item.TasteProfile)
	assert.Equal(t, []string{"comfort", "bold"}, item.GeneratedTags)
}

func TestPriceLevelDefault(t *testing.T) {
	assert.Equal(t, PriceLevelModerate, PriceLevel(0).OrDefault())
	assert.Equal(t, PriceLevelFine, PriceLevelFine.OrDefault())

	_, err := NewRestaurant("r1", "Bistro", 7)
	assert.ErrorIs(t, err, ErrInvalidPriceLevel)
}
