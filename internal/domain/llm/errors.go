package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// ModelProviderError is a failed completion call, either non-retryable or
// with retries exhausted.
type ModelProviderError struct {
	Provider   Provider
	StatusCode int
	Message    string
	Attempts   int
	Timeout    bool
	Err        error
}

func (e *ModelProviderError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: HTTP %d after %d attempt(s): %s", e.Provider, e.StatusCode, e.Attempts, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: request failed after %d attempt(s): %v", e.Provider, e.Attempts, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Provider, e.Message)
	}
}

func (e *ModelProviderError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure class is worth retrying: rate
// limits, server errors and timeouts.
func (e *ModelProviderError) Retryable() bool {
	return e.Timeout || e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// CredentialResolutionError means no API key could be found for a provider.
type CredentialResolutionError struct {
	Provider Provider
	Path     string
	Err      error
}

func (e *CredentialResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resolve %s credential at %s: %v", e.Provider, e.Path, e.Err)
	}
	return fmt.Sprintf("resolve %s credential at %s: empty secret", e.Provider, e.Path)
}

func (e *CredentialResolutionError) Unwrap() error {
	return e.Err
}

// UnsupportedProviderError is returned for an unknown provider name.
type UnsupportedProviderError struct {
	Provider string
}

func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("unsupported model provider %q", e.Provider)
}

// IsCredentialError reports whether err came from credential resolution.
func IsCredentialError(err error) bool {
	var target *CredentialResolutionError
	return errors.As(err, &target)
}

// IsProviderError reports whether err is a ModelProviderError.
func IsProviderError(err error) bool {
	var target *ModelProviderError
	return errors.As(err, &target)
}
