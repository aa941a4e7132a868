package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/menusense/optimizer/internal/domain/llm"
)

var errEmptyCompletion = errors.New("no completion returned")

// wireFormat is the per-provider request/response shape.
type wireFormat interface {
	defaultModel() string
	defaultBaseURL() string
	endpoint(baseURL, model string) string
	authorize(h http.Header, apiKey string)
	encode(model string, req llm.Request) ([]byte, error)
	decode(body []byte) (*llm.Response, error)
}

func formatFor(p llm.Provider) (wireFormat, error) {
	switch p {
	case llm.ProviderOpenAI:
		return openAIFormat{}, nil
	case llm.ProviderAnthropic:
		return anthropicFormat{}, nil
	case llm.ProviderGoogle:
		return googleFormat{}, nil
	default:
		return nil, &llm.UnsupportedProviderError{Provider: string(p)}
	}
}

// DefaultModel returns the model used when none is configured for p.
func DefaultModel(p llm.Provider) string {
	f, err := formatFor(p)
	if err != nil {
		return ""
	}
	return f.defaultModel()
}

// OpenAI chat completions

type openAIFormat struct{}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
	Stop        []string      `json:"stop,omitempty"`
}

type chatCompletionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func (openAIFormat) defaultModel() string   { return "gpt-4o-mini" }
func (openAIFormat) defaultBaseURL() string { return "https://api.openai.com/v1" }

func (openAIFormat) endpoint(baseURL, _ string) string {
	return strings.TrimRight(baseURL, "/") + "/chat/completions"
}

func (openAIFormat) authorize(h http.Header, apiKey string) {
	h.Set("Authorization", "Bearer "+apiKey)
}

func (openAIFormat) encode(model string, req llm.Request) ([]byte, error) {
	messages := make([]chatMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	return json.Marshal(chatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: *req.Temperature,
		TopP:        *req.TopP,
		Stop:        req.Stop,
	})
}

func (openAIFormat) decode(body []byte) (*llm.Response, error) {
	var resp chatCompletionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errEmptyCompletion
	}

	out := &llm.Response{Text: resp.Choices[0].Message.Content, Model: resp.Model}
	if resp.Usage != nil {
		out.Usage = &llm.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	return out, nil
}

// Anthropic messages

type anthropicFormat struct{}

const anthropicVersion = "2023-06-01"

type messagesRequest struct {
	Model         string        `json:"model"`
	System        string        `json:"system,omitempty"`
	Messages      []chatMessage `json:"messages"`
	MaxTokens     int           `json:"max_tokens"`
	Temperature   float64       `json:"temperature"`
	TopP          float64       `json:"top_p"`
	StopSequences []string      `json:"stop_sequences,omitempty"`
}

type messagesResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage *struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (anthropicFormat) defaultModel() string   { return "claude-3-5-haiku-latest" }
func (anthropicFormat) defaultBaseURL() string { return "https://api.anthropic.com/v1" }

func (anthropicFormat) endpoint(baseURL, _ string) string {
	return strings.TrimRight(baseURL, "/") + "/messages"
}

func (anthropicFormat) authorize(h http.Header, apiKey string) {
	h.Set("x-api-key", apiKey)
	h.Set("anthropic-version", anthropicVersion)
}

func (anthropicFormat) encode(model string, req llm.Request) ([]byte, error) {
	return json.Marshal(messagesRequest{
		Model:         model,
		System:        req.SystemPrompt,
		Messages:      []chatMessage{{Role: "user", Content: req.Prompt}},
		MaxTokens:     req.MaxTokens,
		Temperature:   *req.Temperature,
		TopP:          *req.TopP,
		StopSequences: req.Stop,
	})
}

func (anthropicFormat) decode(body []byte) (*llm.Response, error) {
	var resp messagesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(resp.Content) == 0 {
		return nil, errEmptyCompletion
	}

	out := &llm.Response{Text: resp.Content[0].Text, Model: resp.Model}
	if resp.Usage != nil {
		out.Usage = &llm.TokenUsage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		}
	}
	return out, nil
}

// Google generateContent

type googleFormat struct{}

type googlePart struct {
	Text string `json:"text"`
}

type googleContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []googlePart `json:"parts"`
}

type generateContentRequest struct {
	Contents         []googleContent `json:"contents"`
	GenerationConfig struct {
		MaxOutputTokens int      `json:"maxOutputTokens"`
		Temperature     float64  `json:"temperature"`
		TopP            float64  `json:"topP"`
		StopSequences   []string `json:"stopSequences,omitempty"`
	} `json:"generationConfig"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content googleContent `json:"content"`
	} `json:"candidates"`
}

func (googleFormat) defaultModel() string { return "gemini-1.5-flash" }
func (googleFormat) defaultBaseURL() string {
	return "https://generativelanguage.googleapis.com/v1beta"
}

func (googleFormat) endpoint(baseURL, model string) string {
	return fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(baseURL, "/"), model)
}

func (googleFormat) authorize(h http.Header, apiKey string) {
	h.Set("x-goog-api-key", apiKey)
}

// encode sends the system prompt as the first part of the single user turn.
func (googleFormat) encode(_ string, req llm.Request) ([]byte, error) {
	parts := make([]googlePart, 0, 2)
	if req.SystemPrompt != "" {
		parts = append(parts, googlePart{Text: req.SystemPrompt})
	}
	parts = append(parts, googlePart{Text: req.Prompt})

	var body generateContentRequest
	body.Contents = []googleContent{{Role: "user", Parts: parts}}
	body.GenerationConfig.MaxOutputTokens = req.MaxTokens
	body.GenerationConfig.Temperature = *req.Temperature
	body.GenerationConfig.TopP = *req.TopP
	body.GenerationConfig.StopSequences = req.Stop
	return json.Marshal(body)
}

func (googleFormat) decode(body []byte) (*llm.Response, error) {
	var resp generateContentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, errEmptyCompletion
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return &llm.Response{Text: sb.String()}, nil
}

// upstreamMessage pulls error.message out of a provider error body, falling
// back to the raw body. All three providers use that envelope.
func upstreamMessage(body []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 512 {
		msg = msg[:512]
	}
	return msg
}
