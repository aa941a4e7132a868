// Package llm provides HTTP clients for the hosted language model providers
// and a factory that caches them per provider and model.
package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/menusense/optimizer/internal/domain/llm"
	"github.com/menusense/optimizer/internal/ports/outbound"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryBase  = time.Second

	maxResponseBytes = 4 << 20
)

// Call outcomes reported to the Observer.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Observer receives per-call measurements.
type Observer interface {
	ObserveModelCall(provider llm.Provider, outcome string, elapsed time.Duration)
	ObserveModelRetry(provider llm.Provider)
}

type nopObserver struct{}

func (nopObserver) ObserveModelCall(llm.Provider, string, time.Duration) {}
func (nopObserver) ObserveModelRetry(llm.Provider)                       {}

// ClientConfig configures one provider/model client.
type ClientConfig struct {
	Provider   llm.Provider
	Model      string
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	RetryBase  time.Duration
	Defaults   llm.Request
}

// Client calls one provider's completion endpoint with retry and backoff.
type Client struct {
	provider   llm.Provider
	model      string
	apiKey     string
	baseURL    string
	maxRetries int
	retryBase  time.Duration
	defaults   llm.Request

	format   wireFormat
	http     *http.Client
	logger   *zap.Logger
	observer Observer
	tracer   trace.Tracer
	sleep    func(ctx context.Context, d time.Duration) error
}

var _ outbound.LanguageModel = (*Client)(nil)

// ClientOption customises a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithObserver reports calls and retries to o.
func WithObserver(o Observer) ClientOption {
	return func(c *Client) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithSleeper replaces the backoff wait, for tests.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) ClientOption {
	return func(c *Client) { c.sleep = sleep }
}

// NewClient creates a client for cfg.Provider. Zero config values take the
// provider and package defaults.
func NewClient(cfg ClientConfig, logger *zap.Logger, opts ...ClientOption) (*Client, error) {
	format, err := formatFor(cfg.Provider)
	if err != nil {
		return nil, err
	}
	if cfg.Model == "" {
		cfg.Model = format.defaultModel()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = format.defaultBaseURL()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = DefaultRetryBase
	}

	c := &Client{
		provider:   cfg.Provider,
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		maxRetries: cfg.MaxRetries,
		retryBase:  cfg.RetryBase,
		defaults:   cfg.Defaults,
		format:     format,
		http:       &http.Client{Timeout: cfg.Timeout},
		logger:     logger.Named("llm").With(zap.String("provider", string(cfg.Provider)), zap.String("model", cfg.Model)),
		observer:   nopObserver{},
		tracer:     otel.Tracer("menusense/llm"),
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Provider returns the provider this client calls.
func (c *Client) Provider() llm.Provider { return c.provider }

// Model returns the model this client requests.
func (c *Client) Model() string { return c.model }

// Complete sends req, retrying rate limits, server errors and timeouts with
// exponential backoff. Any other failure, or running out of retries, returns
// a *llm.ModelProviderError.
func (c *Client) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	ctx, span := c.tracer.Start(ctx, "llm.complete", trace.WithAttributes(
		attribute.String("llm.provider", string(c.provider)),
		attribute.String("llm.model", c.model),
	))
	defer span.End()

	start := time.Now()
	resp, attempts, err := c.completeWithRetry(ctx, c.withDefaults(req))
	span.SetAttributes(attribute.Int("llm.attempts", attempts))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.observer.ObserveModelCall(c.provider, OutcomeError, time.Since(start))
		c.logger.Warn("Model call failed", zap.Int("attempts", attempts), zap.Error(err))
		return nil, err
	}

	c.observer.ObserveModelCall(c.provider, OutcomeSuccess, time.Since(start))
	fields := []zap.Field{zap.Int("attempts", attempts), zap.Duration("elapsed", time.Since(start))}
	if resp.Usage != nil {
		fields = append(fields,
			zap.Int("prompt_tokens", resp.Usage.PromptTokens),
			zap.Int("completion_tokens", resp.Usage.CompletionTokens),
			zap.Int("total_tokens", resp.Usage.TotalTokens),
		)
	}
	c.logger.Debug("Model call succeeded", fields...)
	return resp, nil
}

func (c *Client) withDefaults(req llm.Request) llm.Request {
	if req.MaxTokens <= 0 {
		req.MaxTokens = c.defaults.MaxTokens
	}
	if req.Temperature == nil {
		req.Temperature = c.defaults.Temperature
	}
	if req.TopP == nil {
		req.TopP = c.defaults.TopP
	}
	return req.WithDefaults()
}

// completeWithRetry owns the attempt counter; it starts at zero for every call.
func (c *Client) completeWithRetry(ctx context.Context, req llm.Request) (*llm.Response, int, error) {
	body, err := c.format.encode(c.model, req)
	if err != nil {
		return nil, 0, &llm.ModelProviderError{Provider: c.provider, Message: "encode request", Err: err}
	}
	endpoint := c.format.endpoint(c.baseURL, c.model)

	for attempt := 0; ; attempt++ {
		resp, perr := c.send(ctx, endpoint, body)
		if perr == nil {
			return resp, attempt + 1, nil
		}
		perr.Attempts = attempt + 1

		if !perr.Retryable() || attempt >= c.maxRetries {
			return nil, attempt + 1, perr
		}

		delay := c.retryBase << attempt
		c.observer.ObserveModelRetry(c.provider)
		c.logger.Info("Retrying model call",
			zap.Int("attempt", attempt+1),
			zap.Int("status", perr.StatusCode),
			zap.Duration("delay", delay),
		)
		if err := c.sleep(ctx, delay); err != nil {
			return nil, attempt + 1, &llm.ModelProviderError{
				Provider: c.provider,
				Message:  "retry wait cancelled",
				Attempts: attempt + 1,
				Err:      err,
			}
		}
	}
}

func (c *Client) send(ctx context.Context, endpoint string, body []byte) (*llm.Response, *llm.ModelProviderError) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &llm.ModelProviderError{Provider: c.provider, Message: "build request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.format.authorize(httpReq.Header, c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &llm.ModelProviderError{
			Provider: c.provider,
			Message:  "request failed",
			Timeout:  isTimeout(err) && ctx.Err() == nil,
			Err:      err,
		}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &llm.ModelProviderError{
			Provider: c.provider,
			Message:  "read response",
			Timeout:  isTimeout(err) && ctx.Err() == nil,
			Err:      err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &llm.ModelProviderError{
			Provider:   c.provider,
			StatusCode: resp.StatusCode,
			Message:    upstreamMessage(payload),
		}
	}

	out, err := c.format.decode(payload)
	if err != nil {
		return nil, &llm.ModelProviderError{Provider: c.provider, Message: "decode response", Err: err}
	}
	out.Provider = c.provider
	if out.Model == "" {
		out.Model = c.model
	}
	return out, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("wait %s: %w", d, ctx.Err())
	case <-t.C:
		return nil
	}
}
