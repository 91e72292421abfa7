package httpapi

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i474232898/parade-weather/internal/observability"
	"github.com/i474232898/parade-weather/internal/suitability"
	"github.com/i474232898/parade-weather/internal/token"
	"github.com/i474232898/parade-weather/internal/weather"
)

// Deps bundles what the HTTP layer needs.
type Deps struct {
	Service *weather.Service
	Presets map[string]suitability.PreferenceConfig
	Metrics *observability.Metrics
	Logger  *slog.Logger
}

// NewApp builds the Fiber app with middleware, health, metrics and the API
// routes.
func NewApp(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "parade-weather",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          errorHandler(deps.Logger),
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(accessLog(deps.Metrics, deps.Logger))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "parade-weather",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	RegisterRoutes(app, deps.Service, deps.Presets)
	return app
}

// accessLog records one log line and one counter increment per request.
func accessLog(metrics *observability.Metrics, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = statusFor(err)
		}
		route := c.Route().Path

		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		logger.Info("http request",
			"method", c.Method(),
			"path", c.Path(),
			"route", route,
			"status", status,
			"duration", time.Since(start),
			"request_id", c.Locals("requestid"),
		)
		return err
	}
}

// errorHandler renders every error as {"error": true, "message": ...}.
func errorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := statusFor(err)
		msg := err.Error()
		if code >= fiber.StatusInternalServerError {
			logger.Error("request failed", "path", c.Path(), "status", code, "error", err)
			if code == fiber.StatusInternalServerError {
				msg = "internal server error"
			}
		}
		return c.Status(code).JSON(fiber.Map{
			"error":   true,
			"message": msg,
		})
	}
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, weather.ErrInvalidDate),
		errors.Is(err, weather.ErrInvalidCoordinates),
		errors.Is(err, suitability.ErrInvalidPreferences):
		return fiber.StatusBadRequest
	case errors.Is(err, weather.ErrPlaceNotFound),
		errors.Is(err, weather.ErrNoClimateData),
		errors.Is(err, token.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, weather.ErrClimateUnavailable),
		errors.Is(err, weather.ErrGeocodeFailed):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
