package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/newthinker/finadict/internal/collector/yahoo"
	"github.com/newthinker/finadict/internal/core"
	"github.com/newthinker/finadict/internal/interval"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides (FINADICT_SERVER_PORT)
const EnvPrefix = "FINADICT"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Provider ProviderConfig `mapstructure:"provider"`
	Lookback LookbackConfig `mapstructure:"lookback"`
	Forecast ForecastConfig `mapstructure:"forecast"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Export   ExportConfig   `mapstructure:"export"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	Mode           string        `mapstructure:"mode"`
	APIKey         string        `mapstructure:"api_key"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// ProviderConfig configures the market data provider
type ProviderConfig struct {
	Name    string        `mapstructure:"name"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	// IntradayRetentionDays is how far back the provider serves intraday bars
	IntradayRetentionDays int `mapstructure:"intraday_retention_days"`
}

// LookbackConfig bounds the non-intraday lookback selectors
type LookbackConfig struct {
	DailyMaxMonths int `mapstructure:"daily_max_months"`
	LongMaxYears   int `mapstructure:"long_max_years"`
}

// ForecastConfig selects the forecasting engine
type ForecastConfig struct {
	Engine     string        `mapstructure:"engine"` // "trend" or "prophet"
	SidecarURL string        `mapstructure:"sidecar_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// CacheConfig configures the series cache
type CacheConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Backend    string        `mapstructure:"backend"` // "memory", "redis" or "layered"
	MaxEntries int           `mapstructure:"max_entries"`
	TTL        time.Duration `mapstructure:"ttl"`
	Redis      RedisConfig   `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// ExportConfig selects where CSV exports are written
type ExportConfig struct {
	Type string   `mapstructure:"type"` // "localfs" or "s3"
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Limits returns the interval lookback bounds
func (c *Config) Limits() interval.Limits {
	return interval.Limits{
		IntradayDays: c.Provider.IntradayRetentionDays,
		DailyMonths:  c.Lookback.DailyMaxMonths,
		LongYears:    c.Lookback.LongMaxYears,
	}
}

// Load reads configuration from an optional file on top of the defaults.
// A .env file next to the config file (or in the working directory) is
// loaded into the environment first; variables already set win.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(path); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v, Defaults())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// Expand ${VAR} string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func loadDotEnv(path string) error {
	candidates := []string{".env"}
	if path != "" {
		candidates = append([]string{filepath.Join(filepath.Dir(path), ".env")}, candidates...)
	}
	for _, f := range candidates {
		err := godotenv.Load(f)
		if err == nil {
			return nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.mode", d.Server.Mode)
	v.SetDefault("server.api_key", d.Server.APIKey)
	v.SetDefault("server.request_timeout", d.Server.RequestTimeout)

	v.SetDefault("provider.name", d.Provider.Name)
	v.SetDefault("provider.base_url", d.Provider.BaseURL)
	v.SetDefault("provider.timeout", d.Provider.Timeout)
	v.SetDefault("provider.intraday_retention_days", d.Provider.IntradayRetentionDays)

	v.SetDefault("lookback.daily_max_months", d.Lookback.DailyMaxMonths)
	v.SetDefault("lookback.long_max_years", d.Lookback.LongMaxYears)

	v.SetDefault("forecast.engine", d.Forecast.Engine)
	v.SetDefault("forecast.sidecar_url", d.Forecast.SidecarURL)
	v.SetDefault("forecast.timeout", d.Forecast.Timeout)

	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.backend", d.Cache.Backend)
	v.SetDefault("cache.max_entries", d.Cache.MaxEntries)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.redis.addr", d.Cache.Redis.Addr)
	v.SetDefault("cache.redis.password", d.Cache.Redis.Password)
	v.SetDefault("cache.redis.db", d.Cache.Redis.DB)
	v.SetDefault("cache.redis.prefix", d.Cache.Redis.Prefix)

	v.SetDefault("export.type", d.Export.Type)
	v.SetDefault("export.path", d.Export.Path)
	v.SetDefault("export.s3.bucket", d.Export.S3.Bucket)
	v.SetDefault("export.s3.endpoint", d.Export.S3.Endpoint)
	v.SetDefault("export.s3.region", d.Export.S3.Region)
	v.SetDefault("export.s3.access_key", d.Export.S3.AccessKey)
	v.SetDefault("export.s3.secret_key", d.Export.S3.SecretKey)
	v.SetDefault("export.s3.prefix", d.Export.S3.Prefix)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			Mode:           "release",
			RequestTimeout: 2 * time.Minute,
		},
		Provider: ProviderConfig{
			Name:                  "yahoo",
			BaseURL:               yahoo.DefaultBaseURL,
			Timeout:               30 * time.Second,
			IntradayRetentionDays: interval.DefaultLimits.IntradayDays,
		},
		Lookback: LookbackConfig{
			DailyMaxMonths: interval.DefaultLimits.DailyMonths,
			LongMaxYears:   interval.DefaultLimits.LongYears,
		},
		Forecast: ForecastConfig{
			Engine:  "trend",
			Timeout: 60 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:    true,
			Backend:    "memory",
			MaxEntries: 128,
			TTL:        15 * time.Minute,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "finadict",
			},
		},
		Export: ExportConfig{
			Type: "localfs",
			Path: "exports",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	if c.Provider.Timeout <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("provider timeout must be positive, got %s", c.Provider.Timeout))
	}
	if c.Provider.IntradayRetentionDays < 2 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("intraday_retention_days must be at least 2, got %d", c.Provider.IntradayRetentionDays))
	}
	if c.Lookback.DailyMaxMonths < 2 || c.Lookback.LongMaxYears < 2 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("lookback maxima must be at least 2, got %d months and %d years",
				c.Lookback.DailyMaxMonths, c.Lookback.LongMaxYears))
	}

	switch c.Forecast.Engine {
	case "trend":
	case "prophet":
		if c.Forecast.SidecarURL == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("forecast sidecar_url required when engine is prophet"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown forecast engine %q", c.Forecast.Engine))
	}

	if c.Cache.Enabled {
		switch c.Cache.Backend {
		case "memory":
		case "redis", "layered":
			if c.Cache.Redis.Addr == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("cache redis addr required for backend %s", c.Cache.Backend))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown cache backend %q", c.Cache.Backend))
		}
		if c.Cache.MaxEntries < 1 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("cache max_entries must be positive, got %d", c.Cache.MaxEntries))
		}
	}

	switch c.Export.Type {
	case "localfs", "":
	case "s3":
		if c.Export.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("export s3 bucket required when type is s3"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown export type %q", c.Export.Type))
	}

	return nil
}
