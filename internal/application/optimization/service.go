// Package optimization provides the application layer for model-backed menu
// work: demographic rewrites, new-dish suggestions, taste profiles and the
// review workflow that applies approved candidates to the live menu.
package optimization

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/menusense/optimizer/internal/application/batch"
	"github.com/menusense/optimizer/internal/application/prompt"
	"github.com/menusense/optimizer/internal/application/signals"
	"github.com/menusense/optimizer/internal/domain/llm"
	"github.com/menusense/optimizer/internal/domain/menu"
	"github.com/menusense/optimizer/internal/domain/optimization"
	"github.com/menusense/optimizer/internal/domain/shared"
	"github.com/menusense/optimizer/internal/ports/inbound"
	"github.com/menusense/optimizer/internal/ports/outbound"
	"github.com/menusense/optimizer/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// MaxBatchSize bounds how many model calls may be outstanding at once.
const MaxBatchSize = 20

// Config holds the batch and signal limits
type Config struct {
	BatchSize       int
	TasteBatchSize  int
	SuggestionCount int
	TopPreferences  int
	MaxDishes       int
}

// DefaultConfig returns the standard limits.
func DefaultConfig() Config {
	return Config{
		BatchSize:       5,
		TasteBatchSize:  10,
		SuggestionCount: 3,
		TopPreferences:  signals.DefaultTopPreferences,
		MaxDishes:       signals.DefaultMaxDishes,
	}
}

// Recorder receives batch and review outcomes for metrics.
type Recorder interface {
	ObserveBatch(operation string, succeeded, failed int, elapsed time.Duration)
	ObserveReview(kind optimization.Kind, status optimization.Status)
}

type nopRecorder struct{}

func (nopRecorder) ObserveBatch(string, int, int, time.Duration)         {}
func (nopRecorder) ObserveReview(optimization.Kind, optimization.Status) {}

// Dependencies are the ports the service drives. Dishes, Events and
// Recorder are optional.
type Dependencies struct {
	Restaurants   outbound.RestaurantRepository
	Items         outbound.MenuItemRepository
	Optimizations outbound.OptimizationRepository
	Suggestions   outbound.SuggestionRepository
	Demographics  outbound.DemographicsRepository
	Models        outbound.LanguageModelFactory
	Dishes        outbound.SpecialtyDishSource
	Events        shared.EventDispatcher
	Recorder      Recorder
}

// Service implements inbound.OptimizationService
type Service struct {
	restaurants   outbound.RestaurantRepository
	items         outbound.MenuItemRepository
	optimizations outbound.OptimizationRepository
	suggestions   outbound.SuggestionRepository
	demographics  outbound.DemographicsRepository
	models        outbound.LanguageModelFactory
	dishes        outbound.SpecialtyDishSource
	events        shared.EventDispatcher
	recorder      Recorder

	prioritizer *signals.Prioritizer
	prompts     *prompt.Builder
	tracer      trace.Tracer
	logger      *zap.Logger
	cfg         Config
}

// NewService creates a new optimization service
func NewService(deps Dependencies, cfg Config, logger *zap.Logger) *Service {
	def := DefaultConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.TasteBatchSize <= 0 {
		cfg.TasteBatchSize = def.TasteBatchSize
	}
	if cfg.SuggestionCount <= 0 {
		cfg.SuggestionCount = def.SuggestionCount
	}
	recorder := deps.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}

	return &Service{
		restaurants:   deps.Restaurants,
		items:         deps.Items,
		optimizations: deps.Optimizations,
		suggestions:   deps.Suggestions,
		demographics:  deps.Demographics,
		models:        deps.Models,
		dishes:        deps.Dishes,
		events:        deps.Events,
		recorder:      recorder,
		prioritizer:   signals.NewPrioritizer(cfg.TopPreferences, cfg.MaxDishes),
		prompts:       prompt.NewBuilder(),
		tracer:        otel.Tracer("github.com/menusense/optimizer/internal/application/optimization"),
		logger:        logger.Named("optimization-service"),
		cfg:           cfg,
	}
}

var _ inbound.OptimizationService = (*Service)(nil)

var errUnusableResponse = stderrors.New("model response contained no usable JSON")

func (s *Service) startSpan(ctx context.Context, name, restaurantID string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attribute.String("restaurant.id", restaurantID)))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func batchSize(requested, fallback int) (int, error) {
	switch {
	case requested == 0:
		return fallback, nil
	case requested < 0 || requested > MaxBatchSize:
		return 0, errors.NewValidationError(fmt.Sprintf("batchSize must be between 1 and %d", MaxBatchSize))
	default:
		return requested, nil
	}
}

func (s *Service) loadRestaurant(ctx context.Context, id string) (*menu.Restaurant, error) {
	if id == "" {
		return nil, errors.NewValidationError("restaurantId is required")
	}
	r, err := s.restaurants.FindByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, menu.ErrRestaurantNotFound) {
			return nil, errors.NewRestaurantNotFoundError(id)
		}
		return nil, errors.NewDatabaseError("find restaurant", err)
	}
	return r, nil
}

// resolveItems returns the requested items, or every active item when ids is
// empty. Every id must exist and belong to the restaurant.
func (s *Service) resolveItems(ctx context.Context, restaurantID string, ids []string) ([]*menu.MenuItem, error) {
	if len(ids) == 0 {
		items, err := s.items.FindByRestaurant(ctx, restaurantID, true)
		if err != nil {
			return nil, errors.NewDatabaseError("list menu items", err)
		}
		return items, nil
	}

	items := make([]*menu.MenuItem, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		item, err := s.findItem(ctx, id)
		if err != nil {
			return nil, err
		}
		if item.RestaurantID != restaurantID {
			return nil, errors.NewItemOutsideRestaurantError(id, restaurantID)
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Service) findItem(ctx context.Context, id string) (*menu.MenuItem, error) {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, menu.ErrMenuItemNotFound) {
			return nil, errors.NewMenuItemNotFoundError(id)
		}
		return nil, errors.NewDatabaseError("find menu item", err)
	}
	return item, nil
}

// model resolves the client for a request. Credential and provider failures
// abort the whole request.
func (s *Service) model(ctx context.Context, sel inbound.ModelSelection) (outbound.LanguageModel, error) {
	var (
		client outbound.LanguageModel
		err    error
	)
	if sel.Provider == "" {
		client, err = s.models.CreateClient(ctx)
	} else {
		provider, perr := llm.ParseProvider(sel.Provider)
		if perr != nil {
			return nil, errors.NewBadRequestError(perr.Error())
		}
		client, err = s.models.CreateClientWithProvider(ctx, provider, sel.Model)
	}
	if err != nil {
		return nil, modelError(sel.Provider, err)
	}
	return client, nil
}

func modelError(provider string, err error) error {
	var unsupported *llm.UnsupportedProviderError
	switch {
	case stderrors.As(err, &unsupported):
		return errors.NewBadRequestError(unsupported.Error())
	case llm.IsCredentialError(err):
		return errors.NewCredentialError(provider, err)
	case llm.IsProviderError(err):
		return errors.NewModelProviderError(provider, err)
	default:
		return errors.Wrap(err, "create model client")
	}
}

// complete sends a rendered prompt to the model.
func complete(ctx context.Context, client outbound.LanguageModel, p prompt.Prompt) (string, error) {
	resp, err := client.Complete(ctx, llm.Request{Prompt: p.User, SystemPrompt: p.System})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

func (s *Service) dispatch(ctx context.Context, events ...shared.DomainEvent) {
	if s.events == nil || len(events) == 0 {
		return
	}
	s.events.Dispatch(ctx, events...)
}

// tally folds outcomes into a BatchResult, keyed by label for errors.
func tally[T, R any](result *inbound.BatchResult, outcomes []batch.Outcome[T, R], label func(T) string, keep func(R)) {
	result.TotalItemsProcessed += len(outcomes)
	for _, o := range outcomes {
		if o.Err != nil {
			result.FailureCount++
			result.Errors = append(result.Errors, inbound.ItemError{ItemID: label(o.Input), Error: o.Err.Error()})
			continue
		}
		result.SuccessCount++
		keep(o.Value)
	}
}

func newBatchResult() *inbound.BatchResult {
	return &inbound.BatchResult{Errors: []inbound.ItemError{}}
}
