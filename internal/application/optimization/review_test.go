package optimization

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/menusense/optimizer/internal/domain/menu"
	"github.com/menusense/optimizer/internal/domain/optimization"
	"github.com/menusense/optimizer/internal/infrastructure/persistence/memory"
	"github.com/menusense/optimizer/internal/ports/inbound"
	"github.com/menusense/optimizer/pkg/errors"
	"github.com/menusense/optimizer/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// pendingOptimization runs one optimization so a pending candidate exists.
func pendingOptimization(t *testing.T, h *harness) *menu.MenuItem {
	t.Helper()
	items := h.seedItems(t, 1)
	h.model.On("Complete", mock.Anything, mock.Anything).Return(testutils.Text(optimizedJSON), nil)

	_, err := h.svc.OptimizeMenu(context.Background(), inbound.OptimizeMenuCommand{RestaurantID: h.restaurant.ID})
	require.NoError(t, err)
	return items[0]
}

func pendingSuggestion(t *testing.T, h *harness) *optimization.MenuItemSuggestion {
	t.Helper()
	s, err := optimization.NewMenuItemSuggestion(optimization.SuggestionDraft{
		RestaurantID:      h.restaurant.ID,
		Name:              "Smoked Trout Dip",
		Description:       "House-smoked trout, crème fraîche, rye crisps",
		Price:             13,
		Category:          "appetizers",
		Ingredients:       []string{"trout", "crème fraîche", "rye"},
		DietaryTags:       []string{"nut-free"},
		InspirationSource: optimization.InspirationDemographics,
	})
	require.NoError(t, err)
	require.NoError(t, h.suggestions.Save(context.Background(), s))
	return s
}

func TestApproveOptimizationRewritesMenuItem(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	item := pendingOptimization(t, h)

	result, err := h.svc.ReviewOptimization(ctx, inbound.ReviewCommand{ID: item.ID, Decision: optimization.DecisionApprove})
	require.NoError(t, err)
	assert.Equal(t, optimization.StatusApproved, result.Status)
	assert.True(t, result.MenuItemUpdated)
	assert.False(t, result.MenuItemMissing)

	stored, err := h.items.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Coastal Catch", stored.Name)
	assert.Equal(t, "Line-caught and wood-fired", stored.Description)

	assert.Equal(t, []string{"optimization.approved", "menu_item.rewritten"}, h.events.Names())
}

func TestSecondReviewIsRejected(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	item := pendingOptimization(t, h)

	_, err := h.svc.ReviewOptimization(ctx, inbound.ReviewCommand{ID: item.ID, Decision: optimization.DecisionReject, Feedback: "too long"})
	require.NoError(t, err)

	_, err = h.svc.ReviewOptimization(ctx, inbound.ReviewCommand{ID: item.ID, Decision: optimization.DecisionApprove})
	assertCode(t, err, errors.CodeAlreadyReviewed)

	candidate, err := h.optimized.FindByItemID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, optimization.StatusRejected, candidate.Status())
	assert.Equal(t, "too long", candidate.Feedback())

	stored, err := h.items.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dish 1", stored.Name, "rejection never touches the menu")
}

func TestApproveOptimizationForMissingItem(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	item := pendingOptimization(t, h)
	h.items.Delete(item.ID)

	result, err := h.svc.ReviewOptimization(ctx, inbound.ReviewCommand{ID: item.ID, Decision: optimization.DecisionApprove})
	require.NoError(t, err)
	assert.True(t, result.MenuItemMissing)
	assert.False(t, result.MenuItemUpdated)
	assert.Equal(t, optimization.StatusApproved, result.Status)

	candidate, err := h.optimized.FindByItemID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, optimization.StatusApproved, candidate.Status())
}

func TestReviewUnknownCandidate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.ReviewOptimization(ctx, inbound.ReviewCommand{ID: "nope", Decision: optimization.DecisionApprove})
	assertCode(t, err, errors.CodeCandidateNotFound)

	_, err = h.svc.ReviewSuggestion(ctx, inbound.ReviewCommand{ID: "nope", Decision: optimization.DecisionReject})
	assertCode(t, err, errors.CodeCandidateNotFound)

	_, err = h.svc.ReviewSuggestion(ctx, inbound.ReviewCommand{ID: "nope", Decision: "maybe"})
	assertCode(t, err, errors.CodeValidationFailed)
}

func TestApproveSuggestionCreatesExactlyOneItem(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	s := pendingSuggestion(t, h)

	result, err := h.svc.ReviewSuggestion(ctx, inbound.ReviewCommand{ID: s.ID, Decision: "approved"})
	require.NoError(t, err)
	require.NotEmpty(t, result.CreatedMenuItemID)
	assert.True(t, result.MenuItemUpdated)

	_, err = h.svc.ReviewSuggestion(ctx, inbound.ReviewCommand{ID: s.ID, Decision: optimization.DecisionApprove})
	assertCode(t, err, errors.CodeAlreadyReviewed)

	items, err := h.items.FindByRestaurant(ctx, h.restaurant.ID, false)
	require.NoError(t, err)
	require.Len(t, items, 1)
	created := items[0]
	assert.Equal(t, result.CreatedMenuItemID, created.ID)
	assert.Equal(t, "Smoked Trout Dip", created.Name)
	assert.True(t, created.IsAIGenerated)
	assert.True(t, created.IsActive)
	assert.Equal(t, []string{"nut-free"}, created.DietaryTags)

	stored, err := h.suggestions.FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, stored.CreatedMenuItemID())
	assert.Contains(t, h.events.Names(), "menu_item.created")
}

func TestRejectSuggestionLeavesMenuAlone(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	s := pendingSuggestion(t, h)

	result, err := h.svc.ReviewSuggestion(ctx, inbound.ReviewCommand{ID: s.ID, Decision: optimization.DecisionReject, Feedback: "off brand"})
	require.NoError(t, err)
	assert.Equal(t, optimization.StatusRejected, result.Status)
	assert.False(t, result.MenuItemUpdated)

	items, err := h.items.FindByRestaurant(ctx, h.restaurant.ID, false)
	require.NoError(t, err)
	assert.Empty(t, items)
}

type failingCreate struct {
	*memory.MenuItemRepository
}

func (failingCreate) Create(ctx context.Context, item *menu.MenuItem) error {
	return stderrors.New("disk full")
}

func TestSuggestionApprovalRollsBackWhenCreateFails(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	svc := h.build(t, failingCreate{h.items})
	s := pendingSuggestion(t, h)

	_, err := svc.ReviewSuggestion(ctx, inbound.ReviewCommand{ID: s.ID, Decision: optimization.DecisionApprove})
	assertCode(t, err, errors.CodeDatabaseError)

	stored, err := h.suggestions.FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, optimization.StatusPending, stored.Status())
	assert.Empty(t, stored.CreatedMenuItemID())

	// a retry against a healthy store succeeds
	result, err := h.svc.ReviewSuggestion(ctx, inbound.ReviewCommand{ID: s.ID, Decision: optimization.DecisionApprove})
	require.NoError(t, err)
	assert.NotEmpty(t, result.CreatedMenuItemID)
}

func TestEnhancementLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	item := h.seedItems(t, 1)[0]

	h.model.On("Complete", mock.Anything, testutils.PromptContains(`"enhancedDescription"`)).
		Return(testutils.Text(`{"enhancedName":"Charred Dish One","enhancedDescription":"Blistered over oak and finished with herb oil."}`), nil)

	enhanced, err := h.svc.EnhanceItem(ctx, inbound.EnhanceItemCommand{RestaurantID: h.restaurant.ID, ItemID: item.ID})
	require.NoError(t, err)
	assert.Equal(t, menu.EnhancementPending, enhanced.EnhancementStatus)
	assert.Equal(t, "Dish 1", enhanced.Name, "enhancement never renames the item")

	pending, err := h.svc.ListPending(ctx, h.restaurant.ID)
	require.NoError(t, err)
	require.Len(t, pending.Enhancements, 1)
	assert.Empty(t, pending.Optimizations)
	assert.Empty(t, pending.Suggestions)

	result, err := h.svc.ReviewEnhancement(ctx, inbound.ReviewCommand{ID: item.ID, Decision: optimization.DecisionApprove})
	require.NoError(t, err)
	assert.Equal(t, optimization.StatusApproved, result.Status)

	stored, err := h.items.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, stored.HasApprovedEnhancement())
	assert.Equal(t, "Blistered over oak and finished with herb oil.", stored.DisplayDescription())

	_, err = h.svc.ReviewEnhancement(ctx, inbound.ReviewCommand{ID: item.ID, Decision: optimization.DecisionReject})
	assertCode(t, err, errors.CodeAlreadyReviewed)

	other := h.seedItems(t, 1)[0]
	_, err = h.svc.ReviewEnhancement(ctx, inbound.ReviewCommand{ID: other.ID, Decision: optimization.DecisionApprove})
	assertCode(t, err, errors.CodeCandidateNotFound)
}

func TestApproveOptimizationSettlesPendingEnhancement(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	item := pendingOptimization(t, h)

	stored, err := h.items.FindByID(ctx, item.ID)
	require.NoError(t, err)
	stored.ProposeEnhancement("Fancy", "A fancier description")
	require.NoError(t, h.items.Update(ctx, stored))

	_, err = h.svc.ReviewOptimization(ctx, inbound.ReviewCommand{ID: item.ID, Decision: optimization.DecisionApprove})
	require.NoError(t, err)

	stored, err = h.items.FindByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, menu.EnhancementApproved, stored.EnhancementStatus)
}
