// Package config provides centralized configuration management
// using Viper for configuration loading and validation
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	AWS          AWSConfig          `mapstructure:"aws"`
	LLM          LLMConfig          `mapstructure:"llm"`
	Peers        PeersConfig        `mapstructure:"peers"`
	Optimization OptimizationConfig `mapstructure:"optimization"`
	Monitoring   MonitoringConfig   `mapstructure:"monitoring"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig contains database configuration. Driver is "sqlite",
// "postgres" or "memory".
type DatabaseConfig struct {
	Driver             string        `mapstructure:"driver"`
	Path               string        `mapstructure:"path"`
	Host               string        `mapstructure:"host"`
	Port               int           `mapstructure:"port"`
	Database           string        `mapstructure:"database"`
	Username           string        `mapstructure:"username"`
	Password           string        `mapstructure:"password"`
	SSLMode            string        `mapstructure:"ssl_mode"`
	ReadReplicas       []string      `mapstructure:"read_replicas"`
	MaxOpenConns       int           `mapstructure:"max_open_conns"`
	MaxIdleConns       int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime    time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime    time.Duration `mapstructure:"conn_max_idle_time"`
	LogLevel           string        `mapstructure:"log_level"`
	SlowQueryThreshold time.Duration `mapstructure:"slow_query_threshold"`
	AutoMigrate        bool          `mapstructure:"auto_migrate"`
	Seed               bool          `mapstructure:"seed"`
}

// RedisConfig contains Redis configuration. With Enabled false the peer
// cache stays in process memory.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	Database     int           `mapstructure:"database"`
	MaxRetries   int           `mapstructure:"max_retries"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// AWSConfig contains AWS configuration
type AWSConfig struct {
	Region string `mapstructure:"region"`
}

// LLMConfig configures the model clients. APIKeys and BaseURLs are keyed by
// provider name; a key listed here is used instead of the parameter store.
type LLMConfig struct {
	DefaultProvider string            `mapstructure:"default_provider"`
	DefaultModel    string            `mapstructure:"default_model"`
	Stage           string            `mapstructure:"stage"`
	APIKeys         map[string]string `mapstructure:"api_keys"`
	BaseURLs        map[string]string `mapstructure:"base_urls"`
	Timeout         time.Duration     `mapstructure:"timeout"`
	MaxRetries      int               `mapstructure:"max_retries"`
	RetryBase       time.Duration     `mapstructure:"retry_base"`
	MaxTokens       int               `mapstructure:"max_tokens"`
	Temperature     float64           `mapstructure:"temperature"`
	TopP            float64           `mapstructure:"top_p"`
}

// PeersConfig configures the peer insights API. An empty BaseURL disables
// specialty-dish lookups.
type PeersConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Timeout           time.Duration `mapstructure:"timeout"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
}

// OptimizationConfig holds the pipeline's batch limits
type OptimizationConfig struct {
	BatchSize       int `mapstructure:"batch_size"`
	TasteBatchSize  int `mapstructure:"taste_batch_size"`
	SuggestionCount int `mapstructure:"suggestion_count"`
	TopPreferences  int `mapstructure:"top_preferences"`
	MaxDishes       int `mapstructure:"max_dishes"`
}

// MonitoringConfig contains metrics and tracing configuration
type MonitoringConfig struct {
	MetricsEnabled  bool    `mapstructure:"metrics_enabled"`
	MetricsPath     string  `mapstructure:"metrics_path"`
	HealthCheckPath string  `mapstructure:"health_check_path"`
	TracingEnabled  bool    `mapstructure:"tracing_enabled"`
	OTLPEndpoint    string  `mapstructure:"otlp_endpoint"`
	SamplingRate    float64 `mapstructure:"sampling_rate"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/menusense")
	}

	v.SetEnvPrefix("MENUSENSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist, we have defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "MenuSense")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "json")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "5m")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "menusense.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "menusense")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.conn_max_idle_time", "10m")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.slow_query_threshold", "200ms")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.seed", false)

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")
	v.SetDefault("redis.key_prefix", "menusense:")

	// AWS defaults
	v.SetDefault("aws.region", "us-east-1")

	// LLM defaults
	v.SetDefault("llm.default_provider", "openai")
	v.SetDefault("llm.stage", "dev")
	v.SetDefault("llm.timeout", "30s")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_base", "1s")
	v.SetDefault("llm.max_tokens", 1000)
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.top_p", 1.0)

	// Peer API defaults
	v.SetDefault("peers.requests_per_second", 1.0)
	v.SetDefault("peers.timeout", "30s")
	v.SetDefault("peers.cache_ttl", "6h")

	// Optimization defaults
	v.SetDefault("optimization.batch_size", 5)
	v.SetDefault("optimization.taste_batch_size", 10)
	v.SetDefault("optimization.suggestion_count", 3)
	v.SetDefault("optimization.top_preferences", 3)
	v.SetDefault("optimization.max_dishes", 10)

	// Monitoring defaults
	v.SetDefault("monitoring.metrics_enabled", true)
	v.SetDefault("monitoring.metrics_path", "/metrics")
	v.SetDefault("monitoring.health_check_path", "/health")
	v.SetDefault("monitoring.tracing_enabled", false)
	v.SetDefault("monitoring.sampling_rate", 0.1)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	switch c.Database.Driver {
	case "sqlite", "memory":
	case "postgres":
		if c.Database.Database == "" {
			return fmt.Errorf("database.database is required for postgres")
		}
	default:
		return fmt.Errorf("database.driver %q is not supported", c.Database.Driver)
	}

	switch strings.ToLower(c.LLM.DefaultProvider) {
	case "openai", "anthropic", "google", "gemini":
	default:
		return fmt.Errorf("llm.default_provider %q is not supported", c.LLM.DefaultProvider)
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("llm.max_retries must not be negative")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2")
	}
	if c.LLM.TopP < 0 || c.LLM.TopP > 1 {
		return fmt.Errorf("llm.top_p must be between 0 and 1")
	}

	if c.Peers.RequestsPerSecond < 0 {
		return fmt.Errorf("peers.requests_per_second must not be negative")
	}

	if c.Optimization.BatchSize < 1 || c.Optimization.BatchSize > 20 {
		return fmt.Errorf("optimization.batch_size must be between 1 and 20")
	}
	if c.Optimization.TasteBatchSize < 1 || c.Optimization.TasteBatchSize > 20 {
		return fmt.Errorf("optimization.taste_batch_size must be between 1 and 20")
	}

	if c.Monitoring.SamplingRate < 0 || c.Monitoring.SamplingRate > 1 {
		return fmt.Errorf("monitoring.sampling_rate must be between 0 and 1")
	}

	return nil
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// GetDSN returns the postgres connection string for host
func (c *Config) GetDSN() string {
	return c.Database.DSNFor(c.Database.Host)
}

// DSNFor builds a postgres connection string for host with the shared
// credentials; read replicas differ from the primary only by host.
func (d DatabaseConfig) DSNFor(host string) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host,
		d.Port,
		d.Username,
		d.Password,
		d.Database,
		d.SSLMode,
	)
}

// RedisAddr returns host:port for the Redis client
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// ServerAddr returns the HTTP listen address
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
