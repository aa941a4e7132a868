package container

import (
	"context"
	"testing"

	"github.com/menusense/optimizer/internal/infrastructure/config"
	"github.com/menusense/optimizer/internal/infrastructure/events"
	"github.com/menusense/optimizer/internal/ports/inbound"
	"github.com/menusense/optimizer/internal/ports/outbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

func testOverrides(driver string) fx.Option {
	return fx.Decorate(func(cfg *config.Config) *config.Config {
		cfg.Database.Driver = driver
		cfg.Database.Path = ""
		cfg.Database.Seed = true
		cfg.LLM.APIKeys = map[string]string{
			"openai":    "sk-test",
			"anthropic": "sk-ant-test",
			"google":    "g-test",
		}
		return cfg
	})
}

func TestModuleGraphIsComplete(t *testing.T) {
	err := fx.ValidateApp(
		fx.Supply(ConfigPath("")),
		Module,
	)
	require.NoError(t, err)
}

func TestCoreWiresSeededSQLite(t *testing.T) {
	var (
		scoring    inbound.ScoringService
		optimizer  inbound.OptimizationService
		dishes     outbound.SpecialtyDishSource
		dispatcher *events.Dispatcher
	)

	app := fxtest.New(t,
		fx.Supply(ConfigPath("")),
		Core,
		testOverrides("sqlite"),
		fx.Populate(&scoring, &optimizer, &dishes, &dispatcher),
	)
	app.RequireStart()
	defer app.RequireStop()

	assert.NotNil(t, optimizer)
	assert.NotNil(t, dispatcher)
	assert.Nil(t, dishes, "peer lookups stay disabled without a base URL")

	metrics, err := scoring.ScoreRestaurant(context.Background(), "demo-harbor-house")
	require.NoError(t, err)
	assert.Len(t, metrics, 3)

	pending, err := optimizer.ListPending(context.Background(), "demo-harbor-house")
	require.NoError(t, err)
	assert.Empty(t, pending.Optimizations)
}

func TestCoreWiresMemoryRepositories(t *testing.T) {
	var restaurants outbound.RestaurantRepository

	app := fxtest.New(t,
		fx.Supply(ConfigPath("")),
		Core,
		testOverrides("memory"),
		fx.Populate(&restaurants),
	)
	app.RequireStart()
	defer app.RequireStop()

	_, err := restaurants.FindByID(context.Background(), "demo-harbor-house")
	assert.Error(t, err)
}

func TestProviderMapRejectsUnknownProvider(t *testing.T) {
	_, err := providerMap(map[string]string{"mistral": "key"})
	assert.Error(t, err)

	m, err := providerMap(map[string]string{"gemini": "key", "openai": ""})
	require.NoError(t, err)
	assert.Len(t, m, 1)
}
