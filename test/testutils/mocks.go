// Package testutils provides mock implementations for testing
package testutils

import (
	"context"
	"strings"
	"sync"

	"github.com/menusense/optimizer/internal/domain/llm"
	"github.com/menusense/optimizer/internal/domain/market"
	"github.com/menusense/optimizer/internal/domain/menu"
	"github.com/menusense/optimizer/internal/domain/shared"
	"github.com/menusense/optimizer/internal/ports/outbound"
	"github.com/stretchr/testify/mock"
)

// MockLanguageModel provides a mock implementation of LanguageModel
type MockLanguageModel struct {
	mock.Mock
	provider llm.Provider
	model    string
}

// NewMockLanguageModel creates a new mock model
func NewMockLanguageModel(provider llm.Provider, model string) *MockLanguageModel {
	return &MockLanguageModel{provider: provider, model: model}
}

var _ outbound.LanguageModel = (*MockLanguageModel)(nil)

// Complete returns the configured response
func (m *MockLanguageModel) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.Response), args.Error(1)
}

func (m *MockLanguageModel) Provider() llm.Provider { return m.provider }
func (m *MockLanguageModel) Model() string          { return m.model }

// PromptContains matches requests whose user prompt contains substr.
func PromptContains(substr string) interface{} {
	return mock.MatchedBy(func(req llm.Request) bool {
		return strings.Contains(req.Prompt, substr)
	})
}

// Text wraps raw model output in a response.
func Text(raw string) *llm.Response {
	return &llm.Response{Text: raw}
}

// MockModelFactory provides a mock implementation of LanguageModelFactory
type MockModelFactory struct {
	mock.Mock
}

var _ outbound.LanguageModelFactory = (*MockModelFactory)(nil)

func (m *MockModelFactory) CreateClient(ctx context.Context) (outbound.LanguageModel, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(outbound.LanguageModel), args.Error(1)
}

func (m *MockModelFactory) CreateClientWithProvider(ctx context.Context, provider llm.Provider, model string) (outbound.LanguageModel, error) {
	args := m.Called(ctx, provider, model)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(outbound.LanguageModel), args.Error(1)
}

// MockSpecialtyDishSource provides a mock implementation of SpecialtyDishSource
type MockSpecialtyDishSource struct {
	mock.Mock
}

var _ outbound.SpecialtyDishSource = (*MockSpecialtyDishSource)(nil)

func (m *MockSpecialtyDishSource) SpecialtyDishes(ctx context.Context, restaurant *menu.Restaurant, take int) ([]market.SpecialtyDish, error) {
	args := m.Called(ctx, restaurant, take)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]market.SpecialtyDish), args.Error(1)
}

// MockSecretStore provides a mock implementation of SecretStore
type MockSecretStore struct {
	mock.Mock
}

var _ outbound.SecretStore = (*MockSecretStore)(nil)

func (m *MockSecretStore) GetSecret(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

// RecordingDispatcher collects dispatched events
type RecordingDispatcher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

var _ shared.EventDispatcher = (*RecordingDispatcher)(nil)

func (d *RecordingDispatcher) Dispatch(ctx context.Context, events ...shared.DomainEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, events...)
}

func (d *RecordingDispatcher) Register(eventName string, handler shared.EventHandler) {}

// Names returns the names of all dispatched events in order
func (d *RecordingDispatcher) Names() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	names := make([]string, len(d.events))
	for i, e := range d.events {
		names[i] = e.EventName()
	}
	return names
}
