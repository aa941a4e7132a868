// Package llm defines the provider-neutral language model contract used by
// the optimization pipeline.
package llm

import (
	"strings"
)

// Provider identifies a hosted model vendor
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGoogle    Provider = "google"
)

// Providers lists every supported provider.
func Providers() []Provider {
	return []Provider{ProviderOpenAI, ProviderAnthropic, ProviderGoogle}
}

// Valid reports whether p is a supported provider.
func (p Provider) Valid() bool {
	switch p {
	case ProviderOpenAI, ProviderAnthropic, ProviderGoogle:
		return true
	}
	return false
}

// ParseProvider maps a configured name onto a Provider. "gemini" is accepted
// as an alias for google.
func ParseProvider(s string) (Provider, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "gemini" {
		name = string(ProviderGoogle)
	}
	p := Provider(name)
	if !p.Valid() {
		return "", &UnsupportedProviderError{Provider: s}
	}
	return p, nil
}

// Generation defaults applied when a request leaves a field unset.
const (
	DefaultMaxTokens   = 1000
	DefaultTemperature = 0.7
	DefaultTopP        = 1.0
)

// Request is a single completion call.
type Request struct {
	Prompt       string
	SystemPrompt string
	MaxTokens    int
	Temperature  *float64
	TopP         *float64
	Stop         []string
}

// WithDefaults returns a copy with unset generation parameters filled in.
func (r Request) WithDefaults() Request {
	if r.MaxTokens <= 0 {
		r.MaxTokens = DefaultMaxTokens
	}
	if r.Temperature == nil {
		r.Temperature = Float(DefaultTemperature)
	}
	if r.TopP == nil {
		r.TopP = Float(DefaultTopP)
	}
	return r
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// TokenUsage tracks token consumption
type TokenUsage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// Response is the text a model produced. Usage is nil when the provider
// does not report it.
type Response struct {
	Text     string
	Model    string
	Provider Provider
	Usage    *TokenUsage
}
