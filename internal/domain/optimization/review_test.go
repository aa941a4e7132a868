package optimization

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCandidate(t *testing.T) *OptimizedMenuItem {
	t.Helper()
	o, err := NewOptimizedMenuItem(Candidate{
		ItemID:               "item-1",
		RestaurantID:         "r1",
		OriginalName:         "Fish",
		OptimizedName:        "Coastal Sea Bass",
		OptimizedDescription: "Wood-fired sea bass",
	})
	require.NoError(t, err)
	return o
}

func TestOptimizedMenuItemStartsPending(t *testing.T) {
	o := newCandidate(t)
	assert.Equal(t, StatusPending, o.Status())
	assert.Nil(t, o.ReviewedAt())
	assert.NotNil(t, o.DemographicInsights)
}

func TestOptimizedMenuItemValidation(t *testing.T) {
	_, err := NewOptimizedMenuItem(Candidate{OptimizedName: "x"})
	assert.ErrorIs(t, err, ErrMissingItemID)

	_, err = NewOptimizedMenuItem(Candidate{ItemID: "i"})
	assert.ErrorIs(t, err, ErrMissingName)
}

func TestSecondTransitionIsRejected(t *testing.T) {
	tests := []struct {
		name   string
		first  func(*OptimizedMenuItem) error
		second func(*OptimizedMenuItem) error
		want   Status
	}{
		{"approve then reject", (*OptimizedMenuItem).Approve, func(o *OptimizedMenuItem) error { return o.Reject("late") }, StatusApproved},
		{"reject then approve", func(o *OptimizedMenuItem) error { return o.Reject("too long") }, (*OptimizedMenuItem).Approve, StatusRejected},
		{"approve twice", (*OptimizedMenuItem).Approve, (*OptimizedMenuItem).Approve, StatusApproved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newCandidate(t)
			require.NoError(t, tt.first(o))
			reviewedAt := o.ReviewedAt()

			err := tt.second(o)
			assert.ErrorIs(t, err, ErrAlreadyReviewed)
			assert.Equal(t, tt.want, o.Status())
			assert.Equal(t, reviewedAt, o.ReviewedAt())
		})
	}
}

func TestRejectStoresFeedback(t *testing.T) {
	o := newCandidate(t)
	require.NoError(t, o.Reject("tone is off"))

	assert.Equal(t, StatusRejected, o.Status())
	assert.Equal(t, "tone is off", o.Feedback())

	events := o.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "optimization.rejected", events[0].EventName())
}

func TestSuggestionLifecycle(t *testing.T) {
	s, err := NewMenuItemSuggestion(SuggestionDraft{
		RestaurantID:      "r1",
		Name:              "Miso Caramel Tart",
		Price:             11,
		InspirationSource: InspirationSpecialtyDish,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, StatusPending, s.Status())

	require.NoError(t, s.Approve())
	s.LinkMenuItem("item-9")
	assert.Equal(t, "item-9", s.CreatedMenuItemID())
	assert.ErrorIs(t, s.Reject(""), ErrAlreadyReviewed)

	raw, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"status":"approved"`)
	assert.Contains(t, string(raw), `"createdMenuItemId":"item-9"`)
	assert.Contains(t, string(raw), `"suggestionId"`)
}

func TestSuggestionValidation(t *testing.T) {
	_, err := NewMenuItemSuggestion(SuggestionDraft{Name: "x", Price: math.Inf(1)})
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = NewMenuItemSuggestion(SuggestionDraft{Name: "", Price: 1})
	assert.ErrorIs(t, err, ErrMissingName)
}

func TestParseDecision(t *testing.T) {
	d, err := ParseDecision("Approved")
	require.NoError(t, err)
	assert.Equal(t, DecisionApprove, d)

	d, err = ParseDecision("reject")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, d.Target())

	_, err = ParseDecision("maybe")
	assert.ErrorIs(t, err, ErrUnknownDecision)
}

func TestRestoreFallsBackToPending(t *testing.T) {
	o := RestoreOptimizedMenuItem(Candidate{ItemID: "i"}, Review{Status: "weird"})
	assert.Equal(t, StatusPending, o.Status())
}
