// Package config provides functionality for loading and accessing application configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Backend names accepted for pluggable layers.
const (
	BackendMemory = "memory"
	BackendMongo  = "mongo"
	BackendRedis  = "redis"
)

// Config represents the application configuration
type Config struct {
	// Environment is the current running environment (development, staging, production)
	Environment string `mapstructure:"environment"`

	// Server configuration for the inbound HTTP adapter
	Server struct {
		// Port is the HTTP server port
		Port int `mapstructure:"port"`
		// Host is the HTTP server host
		Host string `mapstructure:"host"`
		// ReadTimeout is the maximum duration for reading the entire request
		ReadTimeout time.Duration `mapstructure:"read_timeout"`
		// WriteTimeout is the maximum duration before timing out writes of the response
		WriteTimeout time.Duration `mapstructure:"write_timeout"`
		// IdleTimeout is the maximum amount of time to wait for the next request
		IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	} `mapstructure:"server"`

	// Database configuration
	Database struct {
		// MongoDB configuration
		MongoDB struct {
			// URI is the MongoDB connection URI
			URI string `mapstructure:"uri"`
			// Database is the MongoDB database name
			Database string `mapstructure:"database"`
			// Timeout is the MongoDB operation timeout
			Timeout time.Duration `mapstructure:"timeout"`
			// MaxPoolSize is the maximum number of connections in the connection pool
			MaxPoolSize uint64 `mapstructure:"max_pool_size"`
			// MinPoolSize is the minimum number of connections in the connection pool
			MinPoolSize uint64 `mapstructure:"min_pool_size"`
			// MaxIdleTime is the maximum idle time for a connection
			MaxIdleTime time.Duration `mapstructure:"max_idle_time"`
		} `mapstructure:"mongodb"`

		// Redis configuration
		Redis struct {
			// Addresses is the list of Redis server addresses
			Addresses []string `mapstructure:"addresses"`
			// Username is the Redis username
			Username string `mapstructure:"username"`
			// Password is the Redis password
			Password string `mapstructure:"password"`
			// Database is the Redis database index
			Database int `mapstructure:"database"`
			// PoolSize is the Redis connection pool size
			PoolSize int `mapstructure:"pool_size"`
			// MinIdleConns is the minimum number of idle connections
			MinIdleConns int `mapstructure:"min_idle_conns"`
			// DialTimeout is the timeout for establishing new connections
			DialTimeout time.Duration `mapstructure:"dial_timeout"`
			// ReadTimeout is the timeout for Redis reads
			ReadTimeout time.Duration `mapstructure:"read_timeout"`
			// WriteTimeout is the timeout for Redis writes
			WriteTimeout time.Duration `mapstructure:"write_timeout"`
		} `mapstructure:"redis"`
	} `mapstructure:"database"`

	// Cache configuration for the resolution cache
	Cache struct {
		// Backend selects the cache store ("memory" or "redis")
		Backend string `mapstructure:"backend"`
		// URLTTL is the time-to-live for direct URL resolutions
		URLTTL time.Duration `mapstructure:"url_ttl"`
		// SearchTTL is the time-to-live for search resolutions. Search
		// results go stale faster than direct lookups, so keep it shorter.
		SearchTTL time.Duration `mapstructure:"search_ttl"`
		// SweepInterval is how often the memory backend reclaims expired entries
		SweepInterval time.Duration `mapstructure:"sweep_interval"`
	} `mapstructure:"cache"`

	// Session configuration for conversation state
	Session struct {
		// Expiry is the window after which an inactive session behaves as absent
		Expiry time.Duration `mapstructure:"expiry"`
		// SweepInterval is how often expired sessions are reclaimed
		SweepInterval time.Duration `mapstructure:"sweep_interval"`
	} `mapstructure:"session"`

	// Media configuration
	Media struct {
		// YouTube API key
		YouTubeAPIKey string `mapstructure:"youtube_api_key"`
		// CatalogBaseURL is the base URL of the catalog provider API
		CatalogBaseURL string `mapstructure:"catalog_base_url"`
		// CatalogAPIKey is the API key for the catalog provider
		CatalogAPIKey string `mapstructure:"catalog_api_key"`
		// MaxDuration is the maximum allowed media duration in seconds
		MaxDuration int `mapstructure:"max_duration"`
		// SearchLimit is the number of results requested from providers
		SearchLimit int `mapstructure:"search_limit"`
		// ProviderTimeout bounds a single provider call
		ProviderTimeout time.Duration `mapstructure:"provider_timeout"`
	} `mapstructure:"media"`

	// Persistence configuration for the user store
	Persistence struct {
		// Backend selects the user store ("mongo" or "memory")
		Backend string `mapstructure:"backend"`
		// RetryAttempts is the maximum number of attempts for transient failures
		RetryAttempts int `mapstructure:"retry_attempts"`
		// RetryBackoff is the fixed delay between attempts
		RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	} `mapstructure:"persistence"`

	// Logging configuration
	Logging struct {
		// Level is the logging level
		Level string `mapstructure:"level"`
		// Format is the logging format (json or console)
		Format string `mapstructure:"format"`
		// OutputPaths is the list of output paths for logs
		OutputPaths []string `mapstructure:"output_paths"`
		// ErrorOutputPaths is the list of output paths for error logs
		ErrorOutputPaths []string `mapstructure:"error_output_paths"`
	} `mapstructure:"logging"`
}

// LoadConfig loads the configuration from file and environment variables.
// It looks for a configuration file in the following locations:
// 1. Path specified in the CONFIG_FILE environment variable
// 2. ./configs directory
// 3. ../configs directory
// 4. /etc/tunegate directory
func LoadConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("app")
	v.SetConfigType("yaml")

	configFile := os.Getenv("CONFIG_FILE")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("/etc/tunegate")
	}

	if err := v.ReadInConfig(); err != nil {
		// Missing config file is fine, defaults and env vars still apply
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	v.SetConfigName(fmt.Sprintf("app.%s", env))
	if err := v.MergeInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to merge environment config file: %w", err)
		}
	}

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.Environment = env

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets the default values for the configuration
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")

	// Database defaults
	v.SetDefault("database.mongodb.uri", "mongodb://localhost:27017")
	v.SetDefault("database.mongodb.database", "tunegate")
	v.SetDefault("database.mongodb.timeout", "10s")
	v.SetDefault("database.mongodb.max_pool_size", 100)
	v.SetDefault("database.mongodb.min_pool_size", 10)
	v.SetDefault("database.mongodb.max_idle_time", "60s")

	v.SetDefault("database.redis.addresses", []string{"localhost:6379"})
	v.SetDefault("database.redis.database", 0)
	v.SetDefault("database.redis.pool_size", 100)
	v.SetDefault("database.redis.min_idle_conns", 10)
	v.SetDefault("database.redis.dial_timeout", "5s")
	v.SetDefault("database.redis.read_timeout", "3s")
	v.SetDefault("database.redis.write_timeout", "3s")

	// Cache defaults
	v.SetDefault("cache.backend", BackendMemory)
	v.SetDefault("cache.url_ttl", "24h")
	v.SetDefault("cache.search_ttl", "15m")
	v.SetDefault("cache.sweep_interval", "5m")

	// Session defaults
	v.SetDefault("session.expiry", "10m")
	v.SetDefault("session.sweep_interval", "1m")

	// Media defaults
	v.SetDefault("media.max_duration", 600) // 10 minutes
	v.SetDefault("media.search_limit", 3)
	v.SetDefault("media.provider_timeout", "30s")

	// Persistence defaults
	v.SetDefault("persistence.backend", BackendMongo)
	v.SetDefault("persistence.retry_attempts", 5)
	v.SetDefault("persistence.retry_backoff", "1s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output_paths", []string{"stdout"})
	v.SetDefault("logging.error_output_paths", []string{"stderr"})
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return errors.New("server port must be between 1 and 65535")
	}

	switch config.Cache.Backend {
	case BackendMemory:
	case BackendRedis:
		if len(config.Database.Redis.Addresses) == 0 {
			return errors.New("at least one Redis address must be provided for the redis cache backend")
		}
	default:
		return fmt.Errorf("unknown cache backend: %s", config.Cache.Backend)
	}

	switch config.Persistence.Backend {
	case BackendMemory:
	case BackendMongo:
		if config.Database.MongoDB.URI == "" {
			return errors.New("MongoDB URI must be set for the mongo persistence backend")
		}
	default:
		return fmt.Errorf("unknown persistence backend: %s", config.Persistence.Backend)
	}

	if config.Cache.URLTTL <= 0 || config.Cache.SearchTTL <= 0 {
		return errors.New("cache TTLs must be positive")
	}

	if config.Session.Expiry <= 0 {
		return errors.New("session expiry must be positive")
	}

	if config.Media.MaxDuration <= 0 {
		return errors.New("media max duration must be positive")
	}

	if config.Persistence.RetryAttempts < 1 {
		return errors.New("persistence retry attempts must be at least 1")
	}

	return nil
}
