package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/frankdevcode/lp2-taller3/internal/alerts"
	httpapi "github.com/frankdevcode/lp2-taller3/internal/api/http"
	"github.com/frankdevcode/lp2-taller3/internal/cache"
	"github.com/frankdevcode/lp2-taller3/internal/config"
	"github.com/frankdevcode/lp2-taller3/internal/observability"
	"github.com/frankdevcode/lp2-taller3/internal/scheduler"
	"github.com/frankdevcode/lp2-taller3/internal/store"
	"github.com/frankdevcode/lp2-taller3/internal/weather"
	"github.com/frankdevcode/lp2-taller3/internal/weather/providers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	// Shared HTTP client for outbound feed calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	provider := providers.NewThingSpeakProvider(httpClient, providers.ThingSpeakConfig{
		BaseURL:    cfg.ThingSpeakBaseURL,
		ReadAPIKey: cfg.ThingSpeakReadAPIKey,
		Results:    cfg.ThingSpeakResults,
	}, log)

	opts := []weather.Option{
		weather.WithReportCache(cache.NewReportCache(cfg.CacheTTL)),
		weather.WithMetrics(metrics),
		weather.WithLogger(log),
		weather.WithConcurrency(cfg.RefreshConcurrency),
		weather.WithIgnoredFields(cfg.IgnoredFields),
	}
	if cfg.AlertsEnabled() {
		publisher := alerts.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaAlertTopic, log)
		defer func() {
			if err := publisher.Close(); err != nil {
				log.Error("closing alert publisher", "error", err)
			}
		}()
		opts = append(opts, weather.WithAlertPublisher(publisher))
		log.Info("publishing alerts to kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaAlertTopic)
	}

	service := weather.NewService(
		store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge),
		provider,
		cfg.Stations,
		opts...,
	)

	// Periodic refresh; the first run happens on start.
	sched := scheduler.New(service, cfg.RefreshInterval, cfg.HTTPTimeout*4, log)
	if err := sched.Start(); err != nil {
		log.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               httpapi.ServiceName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cfg.HTTPTimeout + 10*time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	app.Use(logger.New())
	app.Use(recover.New())

	httpapi.RegisterOpsRoutes(app, prometheus.DefaultGatherer)
	httpapi.RegisterRoutes(app, service)

	go func() {
		log.Info("http server listening", "port", cfg.Port, "stations", cfg.Stations)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("fiber server stopped", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("error during shutdown", "error", err)
	}
}
