package optimization

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/menusense/optimizer/internal/domain/shared"
)

// Candidate is the model-generated content of an optimization.
type Candidate struct {
	ItemID               string    `json:"itemId"`
	RestaurantID         string    `json:"restaurantId"`
	OriginalName         string    `json:"originalName"`
	OriginalDescription  string    `json:"originalDescription"`
	OptimizedName        string    `json:"optimizedName"`
	OptimizedDescription string    `json:"optimizedDescription"`
	OptimizationReason   string    `json:"optimizationReason"`
	DemographicInsights  []string  `json:"demographicInsights"`
	CreatedAt            time.Time `json:"createdAt"`
}

// OptimizedMenuItem is the one-to-one optimization candidate for a menu item.
type OptimizedMenuItem struct {
	shared.AggregateRoot
	Candidate

	review Review
}

// NewOptimizedMenuItem creates a pending candidate.
func NewOptimizedMenuItem(c Candidate) (*OptimizedMenuItem, error) {
	if strings.TrimSpace(c.ItemID) == "" {
		return nil, ErrMissingItemID
	}
	if strings.TrimSpace(c.OptimizedName) == "" {
		return nil, ErrMissingName
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if c.DemographicInsights == nil {
		c.DemographicInsights = []string{}
	}
	return &OptimizedMenuItem{Candidate: c, review: pendingReview()}, nil
}

// RestoreOptimizedMenuItem rebuilds a candidate from storage.
func RestoreOptimizedMenuItem(c Candidate, r Review) *OptimizedMenuItem {
	if !r.Status.Valid() {
		r.Status = StatusPending
	}
	return &OptimizedMenuItem{Candidate: c, review: r}
}

func (o *OptimizedMenuItem) Status() Status         { return o.review.Status }
func (o *OptimizedMenuItem) Feedback() string       { return o.review.Feedback }
func (o *OptimizedMenuItem) ReviewedAt() *time.Time { return o.review.ReviewedAt }
func (o *OptimizedMenuItem) Review() Review         { return o.review }

// Approve moves a pending candidate to approved.
func (o *OptimizedMenuItem) Approve() error {
	return o.decide(DecisionApprove, "")
}

// Reject moves a pending candidate to rejected with optional feedback.
func (o *OptimizedMenuItem) Reject(feedback string) error {
	return o.decide(DecisionReject, feedback)
}

func (o *OptimizedMenuItem) decide(d Decision, feedback string) error {
	if err := o.review.transition(d, feedback); err != nil {
		return err
	}
	o.AddEvent(CandidateReviewedEvent{
		Kind:         KindOptimization,
		CandidateID:  o.ItemID,
		RestaurantID: o.RestaurantID,
		Status:       o.review.Status,
		ReviewedAt:   *o.review.ReviewedAt,
	})
	return nil
}

// MarshalJSON includes the review state alongside the candidate content.
func (o *OptimizedMenuItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Candidate
		Review
	}{o.Candidate, o.review})
}
