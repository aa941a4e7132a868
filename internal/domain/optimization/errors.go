package optimization

import "errors"

var (
	ErrAlreadyReviewed  = errors.New("candidate has already been reviewed")
	ErrUnknownDecision  = errors.New("decision must be approve or reject")
	ErrMissingItemID    = errors.New("optimized item requires the source item id")
	ErrMissingName      = errors.New("candidate name must not be empty")
	ErrInvalidPrice     = errors.New("suggested price must be finite and non-negative")
	ErrCandidateMissing = errors.New("review candidate not found")
	ErrStatusConflict   = errors.New("candidate status changed concurrently")
)
