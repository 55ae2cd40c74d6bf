package main

import (
	"context"
	"fmt"

	"github.com/newthinker/finadict/internal/cache"
	"github.com/newthinker/finadict/internal/collector"
	"github.com/newthinker/finadict/internal/collector/yahoo"
	"github.com/newthinker/finadict/internal/config"
	"github.com/newthinker/finadict/internal/core"
	"github.com/newthinker/finadict/internal/forecast"
	"github.com/newthinker/finadict/internal/forecast/prophet"
	"github.com/newthinker/finadict/internal/forecast/trend"
	"github.com/newthinker/finadict/internal/instrument"
	"github.com/newthinker/finadict/internal/interval"
	"github.com/newthinker/finadict/internal/logger"
	"github.com/newthinker/finadict/internal/metrics"
	"github.com/newthinker/finadict/internal/pipeline"
	"github.com/newthinker/finadict/internal/storage/archive"
	"go.uber.org/zap"
)

// Forecast engines
const (
	engineTrend   = "trend"
	engineProphet = "prophet"
)

// Cache backends
const (
	cacheMemory  = "memory"
	cacheRedis   = "redis"
	cacheLayered = "layered"
)

// loadConfig reads the config file or falls back to the defaults
func loadConfig(log *zap.Logger) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
		log.Warn("no config file specified, using defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// runtime holds the wired components shared by the commands
type runtime struct {
	pipeline *pipeline.Pipeline
	table    *interval.Table
	metrics  *metrics.Registry
	cache    cache.Service
}

// Close releases the cache connection
func (r *runtime) Close() error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Close()
}

// buildRuntime wires provider, resolver, engine, cache and metrics into a pipeline
func buildRuntime(ctx context.Context, cfg *config.Config, log *zap.Logger) (*runtime, error) {
	provider, err := buildProvider(cfg)
	if err != nil {
		return nil, err
	}

	factory, err := buildEngine(cfg)
	if err != nil {
		return nil, err
	}

	reg := metrics.NewRegistry()
	table := interval.NewTable(cfg.Limits())

	opts := []pipeline.Option{
		pipeline.WithTable(table),
		pipeline.WithRecorder(reg),
		pipeline.WithLogger(logger.Component(log, "pipeline")),
	}

	rt := &runtime{table: table, metrics: reg}
	if cfg.Cache.Enabled {
		c, err := buildCache(ctx, cfg.Cache)
		if err != nil {
			return nil, err
		}
		rt.cache = c
		opts = append(opts, pipeline.WithCache(c, cfg.Cache.TTL))
	}

	adapter := forecast.NewAdapter(factory,
		forecast.WithObserver(reg),
		forecast.WithLogger(logger.Component(log, "forecast")),
	)
	resolver := instrument.NewResolver(provider, logger.Component(log, "instrument"))

	rt.pipeline = pipeline.New(resolver, provider, adapter, opts...)

	log.Debug("runtime wired",
		zap.String("provider", provider.Name()),
		zap.String("engine", cfg.Forecast.Engine),
		zap.Bool("cache", cfg.Cache.Enabled),
	)
	return rt, nil
}

func buildProvider(cfg *config.Config) (collector.Collector, error) {
	reg := collector.NewRegistry()
	reg.Register(yahoo.New(
		yahoo.WithBaseURL(cfg.Provider.BaseURL),
		yahoo.WithTimeout(cfg.Provider.Timeout),
	))
	return reg.MustGet(cfg.Provider.Name)
}

func buildEngine(cfg *config.Config) (forecast.Factory, error) {
	switch cfg.Forecast.Engine {
	case engineTrend, "":
		return trend.New, nil
	case engineProphet:
		client := prophet.NewClient(cfg.Forecast.SidecarURL, prophet.WithTimeout(cfg.Forecast.Timeout))
		return client.Factory(), nil
	default:
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown forecast engine %q", cfg.Forecast.Engine))
	}
}

func buildCache(ctx context.Context, cfg config.CacheConfig) (cache.Service, error) {
	memory := func() *cache.Memory {
		return cache.NewMemory(cache.WithMaxSize(cfg.MaxEntries))
	}
	remote := func() (*cache.Redis, error) {
		r, err := cache.NewRedis(ctx,
			cache.WithRedisAddr(cfg.Redis.Addr),
			cache.WithRedisPassword(cfg.Redis.Password),
			cache.WithRedisDB(cfg.Redis.DB),
			cache.WithRedisPrefix(cfg.Redis.Prefix),
		)
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		return r, nil
	}

	switch cfg.Backend {
	case cacheMemory, "":
		return memory(), nil
	case cacheRedis:
		return remote()
	case cacheLayered:
		r, err := remote()
		if err != nil {
			return nil, err
		}
		return cache.NewLayered(memory(), r, cfg.TTL), nil
	default:
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown cache backend %q", cfg.Backend))
	}
}

func buildArchive(cfg config.ExportConfig) (archive.Storage, error) {
	return archive.Open(archive.Config{
		Backend: cfg.Type,
		Path:    cfg.Path,
		S3: archive.S3Config{
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Prefix:    cfg.S3.Prefix,
		},
	})
}
