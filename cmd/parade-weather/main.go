package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpapi "github.com/i474232898/parade-weather/internal/api/http"
	"github.com/i474232898/parade-weather/internal/config"
	"github.com/i474232898/parade-weather/internal/observability"
	"github.com/i474232898/parade-weather/internal/scheduler"
	"github.com/i474232898/parade-weather/internal/store"
	"github.com/i474232898/parade-weather/internal/weather"
	"github.com/i474232898/parade-weather/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	metrics := observability.NewMetrics()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// In-memory history cache with configured retention.
	memStore := store.NewMemoryStore(cfg.CacheMaxEntries, cfg.CacheMaxAge, nil)

	// Climate sources with resilience (backoff + circuit breaker), in
	// fallback order.
	var sources []weather.ClimateSource
	for _, name := range cfg.ClimateSources {
		switch name {
		case "nasapower":
			sources = append(sources, providers.NewNASAPowerSource(httpClient))
		case "openmeteo":
			sources = append(sources, providers.NewOpenMeteoSource(httpClient))
		}
	}

	var geocoder weather.Geocoder
	switch cfg.Geocoder {
	case "google":
		geocoder = providers.NewGoogleGeocoder(cfg.GoogleGeocodingAPIKey)
	default:
		geocoder = providers.NewNominatimGeocoder(httpClient, cfg.NominatimUserAgent, cfg.NominatimRPS)
	}
	geocoder = providers.NewCachedGeocoder(geocoder, cfg.GeocodeCacheTTL, metrics)

	// Core service orchestrating geocoding, sources and store.
	service := weather.NewService(memStore, geocoder, sources, weather.Options{
		Window:          cfg.Window,
		MaxAlternatives: cfg.MaxAlternatives,
	}, metrics, logger)

	// Scheduler that periodically warms the configured places.
	sched := scheduler.New(cfg.WarmPlaces, cfg.RefreshInterval, service, logger)
	if err := sched.Start(); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	app := httpapi.NewApp(httpapi.Deps{
		Service: service,
		Presets: cfg.Presets,
		Metrics: metrics,
		Logger:  logger,
	})

	// Start server with graceful shutdown
	go func() {
		logger.Info("http server listening", "addr", cfg.HTTPAddr, "sources", cfg.ClimateSources, "geocoder", cfg.Geocoder)
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			logger.Error("fiber server stopped", "error", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during shutdown", "error", err)
	}
}
