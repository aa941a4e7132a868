package llm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProvider(t *testing.T) {
	tests := []struct {
		in      string
		want    Provider
		wantErr bool
	}{
		{"openai", ProviderOpenAI, false},
		{" Anthropic ", ProviderAnthropic, false},
		{"gemini", ProviderGoogle, false},
		{"google", ProviderGoogle, false},
		{"mistral", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseProvider(tt.in)
			if tt.wantErr {
				var unsupported *UnsupportedProviderError
				assert.True(t, errors.As(err, &unsupported))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequestWithDefaults(t *testing.T) {
	r := Request{Prompt: "hi"}.WithDefaults()
	assert.Equal(t, DefaultMaxTokens, r.MaxTokens)
	assert.Equal(t, DefaultTemperature, *r.Temperature)
	assert.Equal(t, DefaultTopP, *r.TopP)

	explicit := Request{MaxTokens: 50, Temperature: Float(0)}.WithDefaults()
	assert.Equal(t, 50, explicit.MaxTokens)
	assert.Equal(t, 0.0, *explicit.Temperature)
}

func TestModelProviderErrorRetryable(t *testing.T) {
	tests := []struct {
		err  *ModelProviderError
		want bool
	}{
		{&ModelProviderError{StatusCode: 429}, true},
		{&ModelProviderError{StatusCode: 503}, true},
		{&ModelProviderError{Timeout: true}, true},
		{&ModelProviderError{StatusCode: 400}, false},
		{&ModelProviderError{StatusCode: 401}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Retryable(), tt.err.Error())
	}
}

func TestErrorHelpers(t *testing.T) {
	cred := fmt.Errorf("factory: %w", &CredentialResolutionError{Provider: ProviderGoogle, Path: "/dev/llm/google/api-key"})
	assert.True(t, IsCredentialError(cred))
	assert.False(t, IsProviderError(cred))
	assert.Contains(t, cred.Error(), "empty secret")
}
