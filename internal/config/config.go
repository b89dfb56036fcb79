package config

import (
	"errors"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	AppPort                int    `mapstructure:"APP_PORT"`
	LogLevel               string `mapstructure:"LOG_LEVEL"`
	LogFormat              string `mapstructure:"LOG_FORMAT"`
	MongoURI               string `mapstructure:"MONGO_URI"`
	MongoDBName            string `mapstructure:"MONGO_DB_NAME"`
	MongoAppName           string `mapstructure:"MONGO_APP_NAME"`
	MongoConnectTimeoutSec int    `mapstructure:"MONGO_CONNECT_TIMEOUT_SEC"`
	OpTimeoutSec           int    `mapstructure:"OP_TIMEOUT_SEC"`
	JWTSecret              string `mapstructure:"JWT_SECRET"`
	RateLimitPerMin        int    `mapstructure:"RATE_LIMIT_PER_MIN"`
	BodyLimitBytes         int    `mapstructure:"BODY_LIMIT_BYTES"`
	RouteMetricsEnabled    bool   `mapstructure:"ROUTE_METRICS_ENABLED"`
	RequestLoggingEnabled  bool   `mapstructure:"REQUEST_LOGGING_ENABLED"`
	PyroscopeServerAddress string `mapstructure:"PYROSCOPE_SERVER_ADDRESS"`
}

// Validation errors returned by Config.Validate.
var (
	ErrAppPortRange         = errors.New("APP_PORT must be between 1 and 65535")
	ErrLogLevelEmpty        = errors.New("LOG_LEVEL cannot be empty")
	ErrLogFormatUnsupported = errors.New("LOG_FORMAT must be either json or text")
	ErrMongoURIEmpty        = errors.New("MONGO_URI cannot be empty")
	ErrMongoDBNameEmpty     = errors.New("MONGO_DB_NAME cannot be empty")
	ErrConnectTimeout       = errors.New("MONGO_CONNECT_TIMEOUT_SEC must be greater than 0")
	ErrOpTimeout            = errors.New("OP_TIMEOUT_SEC must be greater than 0")
	ErrJWTSecretTooShort    = errors.New("JWT_SECRET must be at least 32 characters for HS256")
	ErrRateLimitNegative    = errors.New("RATE_LIMIT_PER_MIN cannot be negative")
	ErrBodyLimit            = errors.New("BODY_LIMIT_BYTES must be greater than 0")
)

var (
	cachedConfig *Config
	configMutex  sync.RWMutex
)

// Load loads configuration from environment variables and .env file
// It caches the result for subsequent calls
func Load() (Config, error) {
	configMutex.RLock()
	if cachedConfig != nil {
		defer configMutex.RUnlock()
		return *cachedConfig, nil
	}
	configMutex.RUnlock()

	configMutex.Lock()
	defer configMutex.Unlock()

	// another goroutine may have loaded it while we waited for the lock
	if cachedConfig != nil {
		return *cachedConfig, nil
	}

	v := viper.New()

	v.SetDefault("APP_PORT", 8080)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("MONGO_URI", "mongodb://mongo:27017")
	v.SetDefault("MONGO_DB_NAME", "docbridge")
	v.SetDefault("MONGO_APP_NAME", "docbridge")
	v.SetDefault("MONGO_CONNECT_TIMEOUT_SEC", 10)
	v.SetDefault("OP_TIMEOUT_SEC", 5)
	v.SetDefault("JWT_SECRET", "") // empty disables gateway auth
	v.SetDefault("RATE_LIMIT_PER_MIN", 0)
	v.SetDefault("BODY_LIMIT_BYTES", 4*1024*1024)
	v.SetDefault("ROUTE_METRICS_ENABLED", true)
	v.SetDefault("REQUEST_LOGGING_ENABLED", true)
	v.SetDefault("PYROSCOPE_SERVER_ADDRESS", "")

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")

	// a missing .env file is fine
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	cachedConfig = &cfg

	return cfg, nil
}

// ResetCache clears the cached configuration (for testing purposes)
func ResetCache() {
	configMutex.Lock()
	defer configMutex.Unlock()
	cachedConfig = nil
}

// ConnectTimeout is MONGO_CONNECT_TIMEOUT_SEC as a duration.
func (c Config) ConnectTimeout() time.Duration {
	return time.Duration(c.MongoConnectTimeoutSec) * time.Second
}

// OpTimeout is OP_TIMEOUT_SEC as a duration.
func (c Config) OpTimeout() time.Duration {
	return time.Duration(c.OpTimeoutSec) * time.Second
}

// Validate checks if required configuration fields are properly set
func (c Config) Validate() error {
	if c.AppPort <= 0 || c.AppPort > 65535 {
		return ErrAppPortRange
	}
	if c.LogLevel == "" {
		return ErrLogLevelEmpty
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return ErrLogFormatUnsupported
	}
	if c.MongoURI == "" {
		return ErrMongoURIEmpty
	}
	if c.MongoDBName == "" {
		return ErrMongoDBNameEmpty
	}
	if c.MongoConnectTimeoutSec <= 0 {
		return ErrConnectTimeout
	}
	if c.OpTimeoutSec <= 0 {
		return ErrOpTimeout
	}
	if c.JWTSecret != "" && len(c.JWTSecret) < 32 {
		return ErrJWTSecretTooShort
	}
	if c.RateLimitPerMin < 0 {
		return ErrRateLimitNegative
	}
	if c.BodyLimitBytes <= 0 {
		return ErrBodyLimit
	}
	return nil
}
