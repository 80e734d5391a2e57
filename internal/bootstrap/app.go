package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/cassiomorais/webpay/internal/cache"
	"github.com/cassiomorais/webpay/internal/infrastructure/config"
	"github.com/cassiomorais/webpay/internal/infrastructure/observability"
	infraRedis "github.com/cassiomorais/webpay/internal/infrastructure/redis"
	"github.com/cassiomorais/webpay/internal/solitude"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// App holds the shared infrastructure both binaries boot from.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Redis    *redis.Client
	Metrics  *observability.Metrics
	Solitude *solitude.Client
	Provider solitude.ProviderClient
}

func New(ctx context.Context, serviceName string, metricsNamespace string) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := observability.InitLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.Info().Str("service", serviceName).Msg("Starting")

	if cfg.Observability.EnableTracing {
		tp, err := observability.InitTracer(serviceName, cfg.Observability.JaegerEndpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		} else {
			go func() {
				<-ctx.Done()
				observability.Shutdown(context.Background(), tp)
			}()
			logger.Info().Msg("Tracing enabled")
		}
	}

	metrics := observability.NewMetrics(metricsNamespace, nil)

	redisClient, err := infraRedis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info().Msg("Connected to Redis")

	client := solitude.New(&cfg.Solitude, cache.NewRedisStore(redisClient), logger, metrics)
	if client == nil {
		logger.Warn().Msg("No payment backend configured, running degraded")
	}

	return &App{
		Config:   cfg,
		Logger:   logger,
		Redis:    redisClient,
		Metrics:  metrics,
		Solitude: client,
		Provider: solitude.SelectProvider(client, &cfg.Payment),
	}, nil
}

func (a *App) Close() {
	a.Redis.Close()
}
