package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/menusense/optimizer/internal/domain/llm"
	"github.com/menusense/optimizer/internal/ports/outbound"
	"go.uber.org/zap"
)

const defaultCacheKey = "default"

// FactoryConfig holds what every client the factory builds shares.
type FactoryConfig struct {
	DefaultProvider llm.Provider
	DefaultModel    string
	Stage           string

	// LocalKeys bypass the secret store, for local development.
	LocalKeys map[llm.Provider]string
	// BaseURLs override provider endpoints.
	BaseURLs map[llm.Provider]string

	Timeout    time.Duration
	MaxRetries int
	RetryBase  time.Duration
	Defaults   llm.Request
}

// Factory builds provider clients and caches them by provider and model.
type Factory struct {
	cfg     FactoryConfig
	secrets outbound.SecretStore
	logger  *zap.Logger
	opts    []ClientOption

	mu    sync.Mutex
	cache map[string]*Client
}

var _ outbound.LanguageModelFactory = (*Factory)(nil)

// NewFactory creates a factory. opts are applied to every client it builds.
func NewFactory(cfg FactoryConfig, secrets outbound.SecretStore, logger *zap.Logger, opts ...ClientOption) *Factory {
	if cfg.DefaultProvider == "" {
		cfg.DefaultProvider = llm.ProviderOpenAI
	}
	if cfg.Stage == "" {
		cfg.Stage = "dev"
	}
	return &Factory{
		cfg:     cfg,
		secrets: secrets,
		logger:  logger.Named("llm-factory"),
		opts:    opts,
		cache:   make(map[string]*Client),
	}
}

// SecretPath is where the API key for provider lives in the secret store.
func SecretPath(stage string, provider llm.Provider) string {
	return fmt.Sprintf("/%s/llm/%s/api-key", stage, provider)
}

// CreateClient returns the client for the configured default provider and model.
func (f *Factory) CreateClient(ctx context.Context) (outbound.LanguageModel, error) {
	return f.client(ctx, defaultCacheKey, f.cfg.DefaultProvider, f.cfg.DefaultModel)
}

// CreateClientWithProvider returns a client for provider, using the
// provider's default model when model is empty.
func (f *Factory) CreateClientWithProvider(ctx context.Context, provider llm.Provider, model string) (outbound.LanguageModel, error) {
	if !provider.Valid() {
		return nil, &llm.UnsupportedProviderError{Provider: string(provider)}
	}
	key := string(provider) + ":" + defaultCacheKey
	if model != "" {
		key = string(provider) + ":" + model
	}
	return f.client(ctx, key, provider, model)
}

// ClearCache drops every cached client; the next request resolves
// credentials again.
func (f *Factory) ClearCache() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cache = make(map[string]*Client)
}

// CacheSize reports how many clients are cached.
func (f *Factory) CacheSize() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cache)
}

func (f *Factory) client(ctx context.Context, key string, provider llm.Provider, model string) (*Client, error) {
	f.mu.Lock()
	if c, ok := f.cache[key]; ok {
		f.mu.Unlock()
		return c, nil
	}
	f.mu.Unlock()

	apiKey, err := f.resolveKey(ctx, provider)
	if err != nil {
		return nil, err
	}

	c, err := NewClient(ClientConfig{
		Provider:   provider,
		Model:      model,
		APIKey:     apiKey,
		BaseURL:    f.cfg.BaseURLs[provider],
		Timeout:    f.cfg.Timeout,
		MaxRetries: f.cfg.MaxRetries,
		RetryBase:  f.cfg.RetryBase,
		Defaults:   f.cfg.Defaults,
	}, f.logger, f.opts...)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.cache[key]; ok {
		return existing, nil
	}
	f.cache[key] = c
	f.logger.Info("Model client created",
		zap.String("cache_key", key),
		zap.String("provider", string(provider)),
		zap.String("model", c.Model()),
	)
	return c, nil
}

func (f *Factory) resolveKey(ctx context.Context, provider llm.Provider) (string, error) {
	if key := strings.TrimSpace(f.cfg.LocalKeys[provider]); key != "" {
		return key, nil
	}

	path := SecretPath(f.cfg.Stage, provider)
	if f.secrets == nil {
		return "", &llm.CredentialResolutionError{Provider: provider, Path: path}
	}
	key, err := f.secrets.GetSecret(ctx, path)
	if err != nil {
		return "", &llm.CredentialResolutionError{Provider: provider, Path: path, Err: err}
	}
	if strings.TrimSpace(key) == "" {
		return "", &llm.CredentialResolutionError{Provider: provider, Path: path}
	}
	return strings.TrimSpace(key), nil
}
