// Package testutils provides custom assertions for testing
package testutils

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/menusense/optimizer/internal/domain/optimization"
	apperrors "github.com/menusense/optimizer/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// HTTPAssertions provides HTTP-specific assertion methods
type HTTPAssertions struct {
	t *testing.T
}

// NewHTTPAssertions creates a new HTTP assertions helper
func NewHTTPAssertions(t *testing.T) *HTTPAssertions {
	return &HTTPAssertions{t: t}
}

// StatusCode asserts the HTTP status code
func (ha *HTTPAssertions) StatusCode(resp *http.Response, expectedCode int, msgAndArgs ...interface{}) {
	require.NotNil(ha.t, resp, "Response should not be nil")
	assert.Equal(ha.t, expectedCode, resp.StatusCode, msgAndArgs...)
}

// JSONResponse asserts that the response is valid JSON and unmarshals it
func (ha *HTTPAssertions) JSONResponse(resp *http.Response, target interface{}) {
	require.NotNil(ha.t, resp, "Response should not be nil")

	contentType := resp.Header.Get("Content-Type")
	assert.True(ha.t, strings.Contains(contentType, "application/json"),
		"Response should have JSON content type, got: %s", contentType)

	require.NoError(ha.t, json.NewDecoder(resp.Body).Decode(target), "Response should be valid JSON")
}

// Data decodes the data field of a success envelope into target
func (ha *HTTPAssertions) Data(resp *http.Response, target interface{}) {
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	ha.JSONResponse(resp, &envelope)
	require.True(ha.t, envelope.Success, "Response should report success")
	require.NoError(ha.t, json.Unmarshal(envelope.Data, target))
}

// ErrorCode asserts that the response is an error envelope carrying code
func (ha *HTTPAssertions) ErrorCode(resp *http.Response, code apperrors.ErrorCode) {
	var body apperrors.ErrorResponse
	ha.JSONResponse(resp, &body)
	assert.Equal(ha.t, code, body.Error.Code)
}

// SecurityHeaders asserts that security headers are present
func (ha *HTTPAssertions) SecurityHeaders(resp *http.Response) {
	require.NotNil(ha.t, resp, "Response should not be nil")

	for _, header := range []string{"X-Content-Type-Options", "X-Frame-Options", "Content-Security-Policy"} {
		assert.NotEmpty(ha.t, resp.Header.Get(header), "Security header %s should be present", header)
	}
}

// CandidateView is an optimization candidate as the API encodes it
type CandidateView struct {
	optimization.Candidate
	optimization.Review
}

// CandidateAssertions checks generated candidates
type CandidateAssertions struct {
	t *testing.T
}

// NewCandidateAssertions creates a new candidate assertions helper
func NewCandidateAssertions(t *testing.T) *CandidateAssertions {
	return &CandidateAssertions{t: t}
}

// Pending asserts that a candidate awaits review with non-empty text
func (ca *CandidateAssertions) Pending(v CandidateView) {
	assert.Equal(ca.t, optimization.StatusPending, v.Status)
	assert.NotEmpty(ca.t, v.OptimizedName)
	assert.NotEmpty(ca.t, v.OptimizedDescription)
	assert.Nil(ca.t, v.ReviewedAt)
}
