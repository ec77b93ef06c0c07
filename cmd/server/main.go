package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bobby-s-dev/weather-lookup/internal/api"
	"github.com/bobby-s-dev/weather-lookup/internal/config"
	"github.com/bobby-s-dev/weather-lookup/internal/history"
	"github.com/bobby-s-dev/weather-lookup/internal/services"
	"github.com/bobby-s-dev/weather-lookup/internal/storage"
	"github.com/bobby-s-dev/weather-lookup/pkg/client"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	zap.ReplaceGlobals(logger)
	logger.Info("Starting Weather Lookup Service")

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	if leveled, err := newLogger(cfg.Server.LogLevel); err != nil {
		logger.Warn("Unknown log level, keeping info", zap.String("level", cfg.Server.LogLevel), zap.Error(err))
	} else {
		logger.Sync()
		logger = leveled
		zap.ReplaceGlobals(logger)
	}

	store, err := openStore(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer store.Close()

	weatherClient := client.NewOpenWeatherClient(
		cfg.WeatherAPI.OpenWeatherAPIKey,
		cfg.WeatherAPI.OpenWeatherURL,
		client.ClientConfig{
			Timeout:        cfg.HTTPTimeout(),
			MaxRetries:     cfg.Retry.MaxRetries,
			RetryDelay:     cfg.RetryDelay(),
			Multiplier:     cfg.Retry.Multiplier,
			Threshold:      cfg.CircuitBreaker.Threshold,
			BreakerTimeout: cfg.BreakerTimeout(),
			RateLimit:      cfg.RateLimit.RPS,
			RateBurst:      cfg.RateLimit.Burst,
		},
		logger,
	)

	searches := history.NewRecentSearches(store, cfg.RecentSearch.Limit, logger)
	lookup := services.NewLookup(weatherClient, searches, logger)

	app := newApp(cfg, lookup, logger)

	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("Starting server", zap.String("address", addr))

		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	logger.Info("Server stopped")
}

func newApp(cfg *config.Config, lookup *services.Lookup, logger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.ReadTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
		ErrorHandler: errorHandler,
	})

	handler := api.NewHandler(lookup, logger)
	api.SetupRoutes(app, handler, logger)
	return app
}

func openStore(cfg *config.Config, logger *zap.Logger) (storage.Store, error) {
	if cfg.Storage.Driver == "memory" {
		logger.Warn("Using in-memory storage; recent searches will not survive a restart")
		return storage.NewMemoryStore(), nil
	}
	return storage.NewSQLiteStore(cfg.Storage.Path, logger)
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

func errorHandler(c *fiber.Ctx, err error) error {
	zap.L().Error("HTTP error",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err))

	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   err.Error(),
		"success": false,
	})
}
