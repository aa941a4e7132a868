// Package optimization models model-generated menu candidates and the
// pending/approved/rejected review lifecycle they go through before touching
// the live menu.
package optimization

import (
	"fmt"
	"strings"
	"time"
)

// Status is the review state of a candidate
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusPending || s.IsTerminal()
}

// Decision is a reviewer's verdict on a pending candidate
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// ParseDecision accepts "approve"/"approved" and "reject"/"rejected".
func ParseDecision(s string) (Decision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "approve", "approved":
		return DecisionApprove, nil
	case "reject", "rejected":
		return DecisionReject, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDecision, s)
	}
}

// Target returns the status a decision moves a candidate into.
func (d Decision) Target() Status {
	if d == DecisionApprove {
		return StatusApproved
	}
	return StatusRejected
}

// Review is the mutable part of a candidate.
type Review struct {
	Status     Status     `json:"status"`
	Feedback   string     `json:"feedback,omitempty"`
	ReviewedAt *time.Time `json:"reviewedAt,omitempty"`
}

func pendingReview() Review {
	return Review{Status: StatusPending}
}

func (r *Review) transition(d Decision, feedback string) error {
	if r.Status != StatusPending {
		return fmt.Errorf("%w: candidate is %s", ErrAlreadyReviewed, r.Status)
	}
	now := time.Now().UTC()
	r.Status = d.Target()
	r.ReviewedAt = &now
	if d == DecisionReject {
		r.Feedback = feedback
	}
	return nil
}
