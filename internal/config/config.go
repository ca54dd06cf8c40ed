package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides: server.port becomes
// LINKBRIDGE_SERVER_PORT.
const EnvPrefix = "LINKBRIDGE"

// Config represents the main structure mapping the entire application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Provider  ProviderConfig  `mapstructure:"provider"`
	Token     TokenConfig     `mapstructure:"token"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Auth      AuthConfig      `mapstructure:"auth"`
	CORS      CORSConfig      `mapstructure:"cors"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `mapstructure:"port"`
	// BaseURL is only used by the CLI to print links; the HTTP surface derives
	// the origin from each request.
	BaseURL         string        `mapstructure:"base_url"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig selects the store driver. Name is the SQLite file, DSN the
// Postgres connection string.
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	Name         string `mapstructure:"name"`
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	LogLevel     string `mapstructure:"log_level"`
}

// ProviderConfig tunes outbound calls to shortening providers.
type ProviderConfig struct {
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxCorrections int           `mapstructure:"max_corrections"`
	UserAgent      string        `mapstructure:"user_agent"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
	RawBodyLimit   int           `mapstructure:"raw_body_limit"`
	// DefaultName is the stored provider used when a bridge request carries
	// neither credentials nor a provider name.
	DefaultName string `mapstructure:"default_name"`
}

type TokenConfig struct {
	Length      int `mapstructure:"length"`
	MaxAttempts int `mapstructure:"max_attempts"`
}

// AnalyticsConfig sizes the asynchronous visit counter.
type AnalyticsConfig struct {
	BufferSize  int `mapstructure:"buffer_size"`
	WorkerCount int `mapstructure:"worker_count"`
}

// CacheConfig controls the redirect lookup cache. RedisAddr empty means the
// in-process tier only.
type CacheConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	MaxItems      int64         `mapstructure:"max_items"`
	TTL           time.Duration `mapstructure:"ttl"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
}

type MonitorConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	IntervalMinutes int  `mapstructure:"interval_minutes"`
}

type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// AuthConfig guards the administrative API with a static key.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LoadConfig loads the application configuration using Viper. With an empty
// path it looks for ./configs/config.yaml and tolerates its absence; an
// explicit path must exist.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("./configs")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration obtained from defaults alone.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults are static and always decode.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.name", "linkbridge.db")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("provider.timeout", 8*time.Second)
	v.SetDefault("provider.max_corrections", 2)
	v.SetDefault("provider.user_agent", "")
	v.SetDefault("provider.max_body_bytes", 1<<20)
	v.SetDefault("provider.raw_body_limit", 500)
	v.SetDefault("provider.default_name", "")

	v.SetDefault("token.length", 8)
	v.SetDefault("token.max_attempts", 3)

	v.SetDefault("analytics.buffer_size", 1000)
	v.SetDefault("analytics.worker_count", 5)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.max_items", 100000)
	v.SetDefault("cache.ttl", time.Hour)
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)

	v.SetDefault("monitor.enabled", false)
	v.SetDefault("monitor.interval_minutes", 5)

	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "info")

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.api_key", "")

	v.SetDefault("cors.allowed_origins", []string{"*"})
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Name == "" {
			return fmt.Errorf("database.name must be set for the sqlite driver")
		}
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn must be set for the postgres driver")
		}
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}
	if c.Provider.Timeout <= 0 {
		return fmt.Errorf("provider.timeout must be > 0")
	}
	if c.Provider.MaxCorrections < 0 || c.Provider.MaxCorrections > 2 {
		return fmt.Errorf("provider.max_corrections must be between 0 and 2")
	}
	if c.Token.Length < 8 || c.Token.Length > 10 {
		return fmt.Errorf("token.length must be between 8 and 10")
	}
	if c.Token.MaxAttempts <= 0 {
		return fmt.Errorf("token.max_attempts must be > 0")
	}
	if c.Analytics.BufferSize <= 0 || c.Analytics.WorkerCount <= 0 {
		return fmt.Errorf("analytics.buffer_size and analytics.worker_count must be > 0")
	}
	if c.Monitor.Enabled && c.Monitor.IntervalMinutes <= 0 {
		return fmt.Errorf("monitor.interval_minutes must be > 0 when the monitor is enabled")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	return nil
}

// MonitorInterval converts the configured minutes into a duration.
func (c Config) MonitorInterval() time.Duration {
	return time.Duration(c.Monitor.IntervalMinutes) * time.Minute
}
