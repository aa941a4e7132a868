// Package container provides dependency injection using Uber FX
package container

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/menusense/optimizer/internal/application/optimization"
	"github.com/menusense/optimizer/internal/application/scoring"
	domainllm "github.com/menusense/optimizer/internal/domain/llm"
	"github.com/menusense/optimizer/internal/infrastructure/config"
	"github.com/menusense/optimizer/internal/infrastructure/events"
	"github.com/menusense/optimizer/internal/infrastructure/http/handlers"
	"github.com/menusense/optimizer/internal/infrastructure/http/server"
	"github.com/menusense/optimizer/internal/infrastructure/llm"
	"github.com/menusense/optimizer/internal/infrastructure/monitoring"
	"github.com/menusense/optimizer/internal/infrastructure/peers"
	gormRepo "github.com/menusense/optimizer/internal/infrastructure/persistence/gorm"
	"github.com/menusense/optimizer/internal/infrastructure/persistence/memory"
	"github.com/menusense/optimizer/internal/infrastructure/persistence/postgres"
	redisRepo "github.com/menusense/optimizer/internal/infrastructure/persistence/redis"
	"github.com/menusense/optimizer/internal/infrastructure/persistence/sqlite"
	"github.com/menusense/optimizer/internal/infrastructure/scheduler"
	"github.com/menusense/optimizer/internal/ports/inbound"
	"github.com/menusense/optimizer/internal/ports/outbound"
	"github.com/menusense/optimizer/pkg/healthcheck"
	"github.com/menusense/optimizer/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ConfigPath is the configuration file handed to config.Load; empty means
// the default search paths.
type ConfigPath string

// Core provides everything the services need, without the HTTP server
var Core = fx.Options(
	ConfigModule,
	LoggerModule,
	MonitoringModule,
	DatabaseModule,
	CacheModule,
	RepositoryModule,
	ModelModule,
	PeersModule,
	EventModule,
	ServiceModule,
	fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
		return &fxevent.ZapLogger{Logger: log.Named("fx")}
	}),
)

// Module provides the full API application
var Module = fx.Options(
	Core,
	HTTPModule,
	LifecycleModule,
)

// ConfigModule provides configuration
var ConfigModule = fx.Provide(
	func(path ConfigPath) (*config.Config, error) {
		return config.Load(string(path))
	},
)

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
		})
	},
)

// MonitoringModule provides metrics and tracing
var MonitoringModule = fx.Provide(
	NewMetrics,
	NewTracing,
)

// DatabaseModule provides the gorm connection; nil for the memory driver
var DatabaseModule = fx.Provide(
	NewDatabase,
)

// CacheModule provides the peer cache and the optional Redis client
var CacheModule = fx.Provide(
	NewRedisClient,
	NewCache,
)

// RepositoryModule provides repository implementations
var RepositoryModule = fx.Provide(
	NewRepositories,
)

// ModelModule provides the model client factory
var ModelModule = fx.Provide(
	NewModelFactory,
)

// PeersModule provides the rate-limited peer insights client
var PeersModule = fx.Provide(
	NewScheduler,
	NewDishSource,
)

// EventModule provides event handling
var EventModule = fx.Provide(
	NewEventDispatcher,
)

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	NewOptimizationService,
	fx.Annotate(
		NewScoringService,
		fx.As(new(inbound.ScoringService)),
	),
)

// HTTPModule provides HTTP server and handlers
var HTTPModule = fx.Provide(
	NewHealthCheck,
	handlers.NewAPIHandlers,
	server.NewServer,
)

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(
	RegisterLifecycleHooks,
)

// NewMetrics creates the collector on a private registry with runtime collectors
func NewMetrics(log *zap.Logger) *monitoring.MetricsCollector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return monitoring.NewMetricsCollector(reg, reg, log)
}

// NewTracing installs the tracer provider and flushes it on stop
func NewTracing(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
	tp, err := monitoring.NewTracingProvider(monitoring.TracingConfig{
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		OTLPEndpoint:   cfg.Monitoring.OTLPEndpoint,
		SamplingRate:   cfg.Monitoring.SamplingRate,
		Enabled:        cfg.Monitoring.TracingEnabled,
	}, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: tp.Shutdown})
	return tp, nil
}

// NewDatabase opens the configured database. The memory driver returns nil.
func NewDatabase(lc fx.Lifecycle, cfg *config.Config, metrics *monitoring.MetricsCollector, log *zap.Logger) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)

	switch cfg.Database.Driver {
	case "memory":
		log.Info("Using in-memory repositories")
		return nil, nil
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		db, err = postgres.Connect(ctx, cfg.Database, log)
		if err != nil {
			return nil, err
		}
		if cfg.Database.AutoMigrate {
			if err := postgres.Migrate(db); err != nil {
				return nil, err
			}
		}
	default:
		db, err = sqlite.SetupDatabase(cfg.Database.Path, log, cfg.Database.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to setup SQLite database: %w", err)
		}
		log.Info("Connected to SQLite database", zap.String("path", cfg.Database.Path))
	}

	if cfg.Database.Seed {
		if err := sqlite.SeedDatabase(db); err != nil {
			log.Warn("Failed to seed database", zap.Error(err))
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	metrics.RegisterDBStats(sqlDB, cfg.Database.Driver)

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return sqlDB.Close()
		},
	})
	return db, nil
}

// NewRedisClient connects when Redis is enabled; otherwise it returns nil
func NewRedisClient(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*goredis.Client, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := redisRepo.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.Info("Connected to Redis", zap.String("address", cfg.RedisAddr()))

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

// NewCache uses Redis when a client exists and process memory otherwise
func NewCache(lc fx.Lifecycle, cfg *config.Config, client *goredis.Client, log *zap.Logger) outbound.CacheRepository {
	if client != nil {
		return redisRepo.NewCacheRepository(client, cfg.Redis.KeyPrefix, log)
	}

	cache := memory.NewCacheRepository(time.Minute)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			cache.Close()
			return nil
		},
	})
	return cache
}

// Repositories groups the persistence ports
type Repositories struct {
	fx.Out

	Restaurants   outbound.RestaurantRepository
	Items         outbound.MenuItemRepository
	Optimizations outbound.OptimizationRepository
	Suggestions   outbound.SuggestionRepository
	Demographics  outbound.DemographicsRepository
	Metrics       outbound.MetricsRepository
}

// NewRepositories binds the ports to gorm, or to memory when db is nil
func NewRepositories(db *gorm.DB) Repositories {
	if db == nil {
		return Repositories{
			Restaurants:   memory.NewRestaurantRepository(),
			Items:         memory.NewMenuItemRepository(),
			Optimizations: memory.NewOptimizationRepository(),
			Suggestions:   memory.NewSuggestionRepository(),
			Demographics:  memory.NewDemographicsRepository(),
			Metrics:       memory.NewMetricsRepository(),
		}
	}
	return Repositories{
		Restaurants:   gormRepo.NewRestaurantRepository(db),
		Items:         gormRepo.NewMenuItemRepository(db),
		Optimizations: gormRepo.NewOptimizationRepository(db),
		Suggestions:   gormRepo.NewSuggestionRepository(db),
		Demographics:  gormRepo.NewDemographicsRepository(db),
		Metrics:       gormRepo.NewMetricsRepository(db),
	}
}

// NewModelFactory builds the provider factory. Configured API keys bypass
// the parameter store.
func NewModelFactory(cfg *config.Config, metrics *monitoring.MetricsCollector, log *zap.Logger) (outbound.LanguageModelFactory, error) {
	defaultProvider, err := domainllm.ParseProvider(cfg.LLM.DefaultProvider)
	if err != nil {
		return nil, err
	}

	localKeys, err := providerMap(cfg.LLM.APIKeys)
	if err != nil {
		return nil, fmt.Errorf("llm.api_keys: %w", err)
	}
	baseURLs, err := providerMap(cfg.LLM.BaseURLs)
	if err != nil {
		return nil, fmt.Errorf("llm.base_urls: %w", err)
	}

	var secrets outbound.SecretStore
	if len(localKeys) == len(domainllm.Providers()) {
		secrets = llm.NewStaticSecretStore(nil)
	} else {
		ssmStore, err := llm.NewSSMSecretStore(cfg.AWS.Region)
		if err != nil {
			return nil, err
		}
		secrets = ssmStore
	}

	return llm.NewFactory(llm.FactoryConfig{
		DefaultProvider: defaultProvider,
		DefaultModel:    cfg.LLM.DefaultModel,
		Stage:           cfg.LLM.Stage,
		LocalKeys:       localKeys,
		BaseURLs:        baseURLs,
		Timeout:         cfg.LLM.Timeout,
		MaxRetries:      cfg.LLM.MaxRetries,
		RetryBase:       cfg.LLM.RetryBase,
		Defaults: domainllm.Request{
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: domainllm.Float(cfg.LLM.Temperature),
			TopP:        domainllm.Float(cfg.LLM.TopP),
		},
	}, secrets, log, llm.WithObserver(metrics)), nil
}

func providerMap(in map[string]string) (map[domainllm.Provider]string, error) {
	out := make(map[domainllm.Provider]string, len(in))
	for name, value := range in {
		if value == "" {
			continue
		}
		p, err := domainllm.ParseProvider(name)
		if err != nil {
			return nil, err
		}
		out[p] = value
	}
	return out, nil
}

// NewScheduler starts the peer request queue and stops it with the app
func NewScheduler(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) *scheduler.Scheduler {
	sched := scheduler.New(cfg.Peers.RequestsPerSecond, scheduler.RealClock{}, log)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			sched.Close()
			return nil
		},
	})
	return sched
}

// NewDishSource returns nil when no peer API is configured
func NewDishSource(cfg *config.Config, sched *scheduler.Scheduler, cache outbound.CacheRepository, log *zap.Logger) outbound.SpecialtyDishSource {
	if cfg.Peers.BaseURL == "" {
		log.Info("Peer insights disabled")
		return nil
	}
	return peers.NewClient(peers.Config{
		BaseURL:  cfg.Peers.BaseURL,
		APIKey:   cfg.Peers.APIKey,
		Timeout:  cfg.Peers.Timeout,
		CacheTTL: cfg.Peers.CacheTTL,
	}, sched, cache, log)
}

// NewEventDispatcher logs every domain event and fans it out over Redis
// when a client exists
func NewEventDispatcher(client *goredis.Client, log *zap.Logger) *events.Dispatcher {
	d := events.NewDispatcher(log)
	d.Register(events.AllEvents, events.AuditLog(log))
	if client != nil {
		d.Register(events.AllEvents, redisRepo.NewEventPublisher(client, redisRepo.EventChannel).Handle)
	}
	return d
}

// ServiceParams are the optimization service's dependencies
type ServiceParams struct {
	fx.In

	Config        *config.Config
	Logger        *zap.Logger
	Restaurants   outbound.RestaurantRepository
	Items         outbound.MenuItemRepository
	Optimizations outbound.OptimizationRepository
	Suggestions   outbound.SuggestionRepository
	Demographics  outbound.DemographicsRepository
	Models        outbound.LanguageModelFactory
	Dishes        outbound.SpecialtyDishSource `optional:"true"`
	Events        *events.Dispatcher
	Metrics       *monitoring.MetricsCollector
}

// NewOptimizationService wires the optimization service
func NewOptimizationService(p ServiceParams) inbound.OptimizationService {
	return optimization.NewService(optimization.Dependencies{
		Restaurants:   p.Restaurants,
		Items:         p.Items,
		Optimizations: p.Optimizations,
		Suggestions:   p.Suggestions,
		Demographics:  p.Demographics,
		Models:        p.Models,
		Dishes:        p.Dishes,
		Events:        p.Events,
		Recorder:      p.Metrics,
	}, optimization.Config{
		BatchSize:       p.Config.Optimization.BatchSize,
		TasteBatchSize:  p.Config.Optimization.TasteBatchSize,
		SuggestionCount: p.Config.Optimization.SuggestionCount,
		TopPreferences:  p.Config.Optimization.TopPreferences,
		MaxDishes:       p.Config.Optimization.MaxDishes,
	}, p.Logger)
}

// NewScoringService wires the scoring service
func NewScoringService(
	restaurants outbound.RestaurantRepository,
	items outbound.MenuItemRepository,
	metrics outbound.MetricsRepository,
	log *zap.Logger,
) *scoring.Service {
	return scoring.NewService(restaurants, items, metrics, log)
}

// peerQueueDegraded is the queued peer request count reported as degraded
const peerQueueDegraded = 100

// NewHealthCheck registers a check per external dependency
func NewHealthCheck(cfg *config.Config, db *gorm.DB, client *goredis.Client, sched *scheduler.Scheduler, log *zap.Logger) (*healthcheck.HealthCheck, error) {
	health := healthcheck.New(cfg.App.Version, log)
	if db != nil {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database instance: %w", err)
		}
		health.Register("database", healthcheck.NewDatabaseChecker(sqlDB))
	}
	if client != nil {
		health.Register("redis", healthcheck.NewRedisChecker(client))
	}
	health.Register("peer_queue", healthcheck.CheckFunc(func(context.Context) (healthcheck.Status, string, interface{}) {
		pending := sched.Pending()
		meta := map[string]int{"pending": pending}
		if pending > peerQueueDegraded {
			return healthcheck.StatusDegraded, "Peer request backlog", meta
		}
		return healthcheck.StatusHealthy, "", meta
	}))
	return health, nil
}

// RegisterLifecycleHooks registers application lifecycle hooks
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg *config.Config,
	log *zap.Logger,
	srv *server.Server,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting MenuSense",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
				zap.String("database", cfg.Database.Driver),
			)

			ln, err := net.Listen("tcp", cfg.ServerAddr())
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", cfg.ServerAddr(), err)
			}
			go func() {
				if err := srv.Serve(ln); err != nil {
					log.Error("HTTP server stopped", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down MenuSense")
			if err := srv.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown HTTP server", zap.Error(err))
			}
			_ = log.Sync()
			return nil
		},
	})
}
