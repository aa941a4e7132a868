package optimization

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/menusense/optimizer/internal/domain/shared"
)

// InspirationSource says which signal a suggestion was generated from
type InspirationSource string

const (
	InspirationSpecialtyDish InspirationSource = "specialty_dish"
	InspirationDemographics  InspirationSource = "demographics"
)

// SuggestionDraft is the model-generated content of a new dish suggestion.
type SuggestionDraft struct {
	RestaurantID         string            `json:"restaurantId"`
	Name                 string            `json:"name"`
	Description          string            `json:"description"`
	Price                float64           `json:"price"`
	Category             string            `json:"category"`
	Ingredients          []string          `json:"ingredients"`
	DietaryTags          []string          `json:"dietaryTags"`
	InspirationSource    InspirationSource `json:"inspirationSource"`
	BasedOnSpecialtyDish string            `json:"basedOnSpecialtyDish,omitempty"`
	EstimatedCost        *float64          `json:"estimatedCost,omitempty"`
	CreatedAt            time.Time         `json:"createdAt"`
}

// MenuItemSuggestion is a proposed new dish awaiting review.
type MenuItemSuggestion struct {
	shared.AggregateRoot
	SuggestionDraft

	ID                string `json:"suggestionId"`
	review            Review
	createdMenuItemID string
}

// NewMenuItemSuggestion creates a pending suggestion with a fresh id.
func NewMenuItemSuggestion(d SuggestionDraft) (*MenuItemSuggestion, error) {
	if strings.TrimSpace(d.Name) == "" {
		return nil, ErrMissingName
	}
	if math.IsNaN(d.Price) || math.IsInf(d.Price, 0) || d.Price < 0 {
		return nil, ErrInvalidPrice
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	if d.Ingredients == nil {
		d.Ingredients = []string{}
	}
	if d.DietaryTags == nil {
		d.DietaryTags = []string{}
	}
	return &MenuItemSuggestion{
		SuggestionDraft: d,
		ID:              uuid.NewString(),
		review:          pendingReview(),
	}, nil
}

// RestoreMenuItemSuggestion rebuilds a suggestion from storage.
func RestoreMenuItemSuggestion(id string, d SuggestionDraft, r Review, createdMenuItemID string) *MenuItemSuggestion {
	if !r.Status.Valid() {
		r.Status = StatusPending
	}
	return &MenuItemSuggestion{SuggestionDraft: d, ID: id, review: r, createdMenuItemID: createdMenuItemID}
}

func (s *MenuItemSuggestion) Status() Status            { return s.review.Status }
func (s *MenuItemSuggestion) Feedback() string          { return s.review.Feedback }
func (s *MenuItemSuggestion) ReviewedAt() *time.Time    { return s.review.ReviewedAt }
func (s *MenuItemSuggestion) Review() Review            { return s.review }
func (s *MenuItemSuggestion) CreatedMenuItemID() string { return s.createdMenuItemID }

// Approve moves a pending suggestion to approved.
func (s *MenuItemSuggestion) Approve() error {
	return s.decide(DecisionApprove, "")
}

// Reject moves a pending suggestion to rejected with optional feedback.
func (s *MenuItemSuggestion) Reject(feedback string) error {
	return s.decide(DecisionReject, feedback)
}

// LinkMenuItem records the live menu item created from this suggestion.
func (s *MenuItemSuggestion) LinkMenuItem(itemID string) {
	s.createdMenuItemID = itemID
}

func (s *MenuItemSuggestion) decide(d Decision, feedback string) error {
	if err := s.review.transition(d, feedback); err != nil {
		return err
	}
	s.AddEvent(CandidateReviewedEvent{
		Kind:         KindSuggestion,
		CandidateID:  s.ID,
		RestaurantID: s.RestaurantID,
		Status:       s.review.Status,
		ReviewedAt:   *s.review.ReviewedAt,
	})
	return nil
}

// MarshalJSON includes the review state alongside the draft content.
func (s *MenuItemSuggestion) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID string `json:"suggestionId"`
		SuggestionDraft
		Review
		CreatedMenuItemID string `json:"createdMenuItemId,omitempty"`
	}{s.ID, s.SuggestionDraft, s.review, s.createdMenuItemID})
}
