package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{NewValidationError("bad"), http.StatusBadRequest},
		{NewNoSignalsSelectedError(), http.StatusBadRequest},
		{NewItemOutsideRestaurantError("i1", "r1"), http.StatusBadRequest},
		{NewRestaurantNotFoundError("r1"), http.StatusNotFound},
		{NewCandidateNotFoundError("optimization", "i1"), http.StatusNotFound},
		{NewAlreadyReviewedError("optimization", "i1", "approved"), http.StatusConflict},
		{NewDemographicsMissingError("r1"), http.StatusUnprocessableEntity},
		{NewModelProviderError("openai", stderrors.New("boom")), http.StatusBadGateway},
		{NewCredentialError("google", nil), http.StatusBadGateway},
		{NewInternalError(""), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.StatusCode())
		})
	}
}

func TestWrapKeepsAppError(t *testing.T) {
	original := NewRestaurantNotFoundError("r1")
	wrapped := fmt.Errorf("loading: %w", original)

	got := Wrap(wrapped, "ignored")
	require.NotNil(t, got)
	assert.Same(t, original, got)
	assert.True(t, Is(wrapped, CodeRestaurantNotFound))
	assert.Equal(t, CodeRestaurantNotFound, GetCode(wrapped))
}

func TestWrapPlainError(t *testing.T) {
	cause := stderrors.New("disk full")

	got := Wrap(cause, "save failed")
	assert.Equal(t, CodeInternal, got.Code)
	assert.ErrorIs(t, got, cause)
	assert.Nil(t, Wrap(nil, "nothing"))
}

func TestToErrorResponse(t *testing.T) {
	err := NewAlreadyReviewedError("suggestion", "s1", "rejected")

	resp := ToErrorResponse(err, "req-1")
	assert.Equal(t, CodeAlreadyReviewed, resp.Error.Code)
	assert.Equal(t, "req-1", resp.Error.RequestID)
	assert.Equal(t, "s1", resp.Error.Metadata["id"])
	assert.NotEmpty(t, resp.Error.Timestamp)
}
