// Package main is the entrypoint for the cardcycle API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/cardcycle/cardcycle/internal/auth"
	"github.com/cardcycle/cardcycle/internal/billing"
	"github.com/cardcycle/cardcycle/internal/cache"
	"github.com/cardcycle/cardcycle/internal/config"
	"github.com/cardcycle/cardcycle/internal/events"
	"github.com/cardcycle/cardcycle/internal/handler"
	"github.com/cardcycle/cardcycle/internal/metrics"
	"github.com/cardcycle/cardcycle/internal/middleware"
	"github.com/cardcycle/cardcycle/internal/repository"
	"github.com/cardcycle/cardcycle/internal/server"
	"github.com/cardcycle/cardcycle/internal/service"
)

func main() {
	ctx := context.Background()

	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	if cfg.AutoMigrate {
		if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
			logger.Error("failed to run migrations", slog.String("error", sanitizeError(err, cfg.DatabaseURL)))
			os.Exit(1)
		}
		logger.Info("migrations applied")
	}

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database")

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		repo.Close()
		os.Exit(1)
	}
	logger.Info("connected to Redis")

	recorder := metrics.NewInMemory()

	publisher, err := newPublisher(cfg, cacheClient)
	if err != nil {
		logger.Error("failed to connect events backend",
			slog.String("backend", cfg.EventsBackend),
			slog.String("error", sanitizeError(err, cfg.AMQPURL)),
		)
		_ = cacheClient.Close()
		repo.Close()
		os.Exit(1)
	}
	dispatcher := events.NewDispatcher(publisher, logger, recorder)

	policy, _ := cfg.DayPolicy()
	calc := billing.NewCalculator(policy)

	keyEnv := auth.EnvLive
	if !cfg.IsProduction() {
		keyEnv = auth.EnvTest
	}

	deps := routerDeps{
		health:     handler.NewHealthHandler(repo, cacheClient),
		metrics:    handler.NewMetricsHandler(recorder),
		categories: handler.NewCategoryHandler(service.NewCategoryService(repo, recorder), logger),
		cards:      handler.NewCardHandler(service.NewCardService(repo, recorder), logger),
		expenses:   handler.NewExpenseHandler(service.NewExpenseService(repo, recorder), logger),
		credit: handler.NewCreditExpenseHandler(
			service.NewCreditExpenseService(repo, calc, dispatcher, recorder), logger),
		apiKeys: handler.NewAPIKeyHandler(logger, repo, cacheClient, keyEnv),
		auth:    middleware.AuthConfig{Logger: logger, Keys: repo, Cache: cacheClient},
		rateLimit: middleware.RateLimitConfig{
			Logger:  logger,
			Limiter: cacheClient,
			Enabled: cfg.RateLimitAPIEnabled,
		},
		security: middleware.SecurityConfig{
			IsDevelopment:      cfg.IsDevelopment(),
			AllowedOrigins:     cfg.GetCORSAllowedOrigins(),
			MaxRequestBodySize: cfg.MaxRequestBodySize,
		},
	}

	srv := server.New(setupRouter(deps, logger), server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	// Hooks run in reverse: events drain before Redis and PostgreSQL close.
	srv.OnShutdown("database", func(context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("cache", func(context.Context) error { return cacheClient.Close() })
	srv.OnShutdown("events", func(context.Context) error { return dispatcher.Close() })

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"billing_day_policy", policy.String(),
		"events_backend", cfg.EventsBackend,
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// newPublisher builds the events publisher selected by EVENTS_BACKEND.
func newPublisher(cfg *config.Config, cacheClient *cache.Cache) (events.Publisher, error) {
	switch strings.ToLower(cfg.EventsBackend) {
	case events.BackendRedis:
		return events.NewRedisStreamPublisher(cacheClient.Client()), nil
	case events.BackendAMQP:
		return events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
	case events.BackendNone:
		return events.NoopPublisher{}, nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.EventsBackend)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
