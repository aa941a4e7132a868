// Package errors provides structured error handling for the application
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"
)

// ErrorCode represents an error code
type ErrorCode string

const (
	// Client errors (4xx)
	CodeBadRequest       ErrorCode = "BAD_REQUEST"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeConflict         ErrorCode = "CONFLICT"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeTooManyRequests  ErrorCode = "TOO_MANY_REQUESTS"

	// Server errors (5xx)
	CodeInternal             ErrorCode = "INTERNAL_ERROR"
	CodeServiceUnavailable   ErrorCode = "SERVICE_UNAVAILABLE"
	CodeDatabaseError        ErrorCode = "DATABASE_ERROR"
	CodeExternalServiceError ErrorCode = "EXTERNAL_SERVICE_ERROR"
	CodeCredentialError      ErrorCode = "CREDENTIAL_ERROR"
	CodeModelProviderError   ErrorCode = "MODEL_PROVIDER_ERROR"

	// Menu pipeline errors
	CodeRestaurantNotFound    ErrorCode = "RESTAURANT_NOT_FOUND"
	CodeMenuItemNotFound      ErrorCode = "MENU_ITEM_NOT_FOUND"
	CodeCandidateNotFound     ErrorCode = "CANDIDATE_NOT_FOUND"
	CodeAlreadyReviewed       ErrorCode = "ALREADY_REVIEWED"
	CodeNoSignalsSelected     ErrorCode = "NO_SIGNALS_SELECTED"
	CodeDemographicsMissing   ErrorCode = "DEMOGRAPHICS_MISSING"
	CodeItemOutsideRestaurant ErrorCode = "ITEM_OUTSIDE_RESTAURANT"
)

// AppError represents an application error with structured information
type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// StatusCode returns the appropriate HTTP status code
func (e *AppError) StatusCode() int {
	switch e.Code {
	case CodeBadRequest, CodeValidationFailed, CodeNoSignalsSelected, CodeItemOutsideRestaurant:
		return http.StatusBadRequest
	case CodeNotFound, CodeRestaurantNotFound, CodeMenuItemNotFound, CodeCandidateNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeAlreadyReviewed:
		return http.StatusConflict
	case CodeDemographicsMissing:
		return http.StatusUnprocessableEntity
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	case CodeExternalServiceError, CodeModelProviderError, CodeCredentialError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WithMetadata adds metadata to the error
func (e *AppError) WithMetadata(key string, value interface{}) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// WithCause adds a cause error
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message, details string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Details:    details,
		StackTrace: getStackTrace(),
	}
}

// NewBadRequestError creates a bad request error
func NewBadRequestError(message string) *AppError {
	return NewAppError(CodeBadRequest, message, "")
}

// NewValidationError creates a validation error
func NewValidationError(details string) *AppError {
	return NewAppError(CodeValidationFailed, "Validation failed", details)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	message := "Resource not found"
	if resource != "" {
		message = fmt.Sprintf("%s not found", resource)
	}
	return NewAppError(CodeNotFound, message, "")
}

// NewConflictError creates a conflict error
func NewConflictError(message string) *AppError {
	return NewAppError(CodeConflict, message, "")
}

// NewInternalError creates an internal server error
func NewInternalError(message string) *AppError {
	if message == "" {
		message = "An unexpected error occurred"
	}
	return NewAppError(CodeInternal, message, "")
}

// NewDatabaseError creates a database error
func NewDatabaseError(operation string, cause error) *AppError {
	return NewAppError(
		CodeDatabaseError,
		"Database operation failed",
		fmt.Sprintf("Failed to %s", operation),
	).WithCause(cause)
}

// NewExternalServiceError creates an external service error
func NewExternalServiceError(service string, cause error) *AppError {
	return NewAppError(
		CodeExternalServiceError,
		"External service error",
		fmt.Sprintf("Failed to communicate with %s", service),
	).WithCause(cause)
}

// NewModelProviderError wraps a fatal model provider failure
func NewModelProviderError(provider string, cause error) *AppError {
	return NewAppError(
		CodeModelProviderError,
		"Model provider request failed",
		fmt.Sprintf("Provider %s returned a non-retryable error", provider),
	).WithCause(cause).WithMetadata("provider", provider)
}

// NewCredentialError wraps a credential resolution failure
func NewCredentialError(provider string, cause error) *AppError {
	return NewAppError(
		CodeCredentialError,
		"Credential resolution failed",
		fmt.Sprintf("No usable API key for provider %s", provider),
	).WithCause(cause).WithMetadata("provider", provider)
}

// NewRestaurantNotFoundError creates a restaurant not found error
func NewRestaurantNotFoundError(restaurantID string) *AppError {
	return NewAppError(
		CodeRestaurantNotFound,
		"Restaurant not found",
		fmt.Sprintf("Restaurant with ID %s does not exist", restaurantID),
	).WithMetadata("restaurant_id", restaurantID)
}

// NewMenuItemNotFoundError creates a menu item not found error
func NewMenuItemNotFoundError(itemID string) *AppError {
	return NewAppError(
		CodeMenuItemNotFound,
		"Menu item not found",
		fmt.Sprintf("Menu item with ID %s does not exist", itemID),
	).WithMetadata("item_id", itemID)
}

// NewCandidateNotFoundError creates an error for a missing review candidate
func NewCandidateNotFoundError(kind, id string) *AppError {
	return NewAppError(
		CodeCandidateNotFound,
		"Review candidate not found",
		fmt.Sprintf("No %s exists for %s", kind, id),
	).WithMetadata("kind", kind).WithMetadata("id", id)
}

// NewAlreadyReviewedError reports a second transition out of a terminal state
func NewAlreadyReviewedError(kind, id, status string) *AppError {
	return NewAppError(
		CodeAlreadyReviewed,
		"Candidate already reviewed",
		fmt.Sprintf("%s %s is already %s", kind, id, status),
	).WithMetadata("id", id).WithMetadata("status", status)
}

// NewNoSignalsSelectedError is returned when a suggestion run has nothing to work from
func NewNoSignalsSelectedError() *AppError {
	return NewAppError(
		CodeNoSignalsSelected,
		"No signals selected",
		"Select at least one demographic group or specialty dish",
	)
}

// NewDemographicsMissingError is returned when a restaurant has no demographic data
func NewDemographicsMissingError(restaurantID string) *AppError {
	return NewAppError(
		CodeDemographicsMissing,
		"Demographic data missing",
		fmt.Sprintf("Restaurant %s has no collected demographic data", restaurantID),
	).WithMetadata("restaurant_id", restaurantID)
}

// NewItemOutsideRestaurantError rejects an item id that belongs to another restaurant
func NewItemOutsideRestaurantError(itemID, restaurantID string) *AppError {
	return NewAppError(
		CodeItemOutsideRestaurant,
		"Menu item does not belong to restaurant",
		fmt.Sprintf("Item %s is not on the menu of restaurant %s", itemID, restaurantID),
	).WithMetadata("item_id", itemID).WithMetadata("restaurant_id", restaurantID)
}

// Wrap wraps an error as an internal error if it's not already an AppError
func Wrap(err error, message string) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	return NewInternalError(message).WithCause(err)
}

// As extracts an AppError from an error chain
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is checks if an error is of a specific error code
func Is(err error, code ErrorCode) bool {
	if appErr, ok := As(err); ok {
		return appErr.Code == code
	}
	return false
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return CodeInternal
}

func getStackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var builder strings.Builder
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "pkg/errors") {
			builder.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}

	return builder.String()
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Value   interface{} `json:"value"`
	Tag     string      `json:"tag"`
	Message string      `json:"message"`
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}

	messages := make([]string, 0, len(v))
	for _, err := range v {
		messages = append(messages, err.Message)
	}

	return strings.Join(messages, "; ")
}

// NewValidationErrors creates validation errors from validator errors
func NewValidationErrors(errs []ValidationError) *AppError {
	validationErrs := ValidationErrors(errs)

	return NewAppError(
		CodeValidationFailed,
		"Validation failed",
		validationErrs.Error(),
	).WithMetadata("validation_errors", validationErrs)
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error ErrorDetails `json:"error"`
}

// ErrorDetails represents the error details in API responses
type ErrorDetails struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Timestamp string                 `json:"timestamp"`
}

// ToErrorResponse converts an AppError to an API error response
func ToErrorResponse(err *AppError, requestID string) ErrorResponse {
	return ErrorResponse{
		Error: ErrorDetails{
			Code:      err.Code,
			Message:   err.Message,
			Details:   err.Details,
			Metadata:  err.Metadata,
			RequestID: requestID,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}
}
