package optimization

import "time"

// Kind distinguishes the reviewable candidates.
type Kind string

const (
	KindOptimization Kind = "optimization"
	KindSuggestion   Kind = "suggestion"
	KindEnhancement  Kind = "enhancement"
)

// CandidateReviewedEvent is raised when a reviewer approves or rejects a candidate
type CandidateReviewedEvent struct {
	Kind         Kind
	CandidateID  string
	RestaurantID string
	Status       Status
	ReviewedAt   time.Time
}

func (e CandidateReviewedEvent) EventName() string {
	return string(e.Kind) + "." + string(e.Status)
}

func (e CandidateReviewedEvent) OccurredAt() time.Time {
	return e.ReviewedAt
}
