package httpapi

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/parade-weather/internal/suitability"
	"github.com/i474232898/parade-weather/internal/token"
	"github.com/i474232898/parade-weather/internal/weather"
)

var validate = validator.New()

const defaultSuggestLimit = 5

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service, presets map[string]suitability.PreferenceConfig) {
	v1 := app.Group("/api/v1")

	v1.Get("/places", func(c *fiber.Ctx) error {
		limit, err := queryInt(c, "limit", defaultSuggestLimit)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		places, err := service.Suggest(c.UserContext(), c.Query("q"), limit)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"places": places})
	})

	v1.Get("/suitability", func(c *fiber.Ctx) error {
		date := c.Query("date")
		if date == "" {
			return fiber.NewError(fiber.StatusBadRequest, "date query parameter is required")
		}
		prefs, err := parsePreferences(c, presets)
		if err != nil {
			return err
		}
		place, err := resolvePlace(c, service)
		if err != nil {
			return err
		}

		report, err := service.Report(c.UserContext(), place, date, prefs)
		if err != nil {
			return err
		}
		return c.JSON(report)
	})

	v1.Post("/plans", func(c *fiber.Ctx) error {
		var req token.Plan
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		tok, err := token.Encode(req)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"token": tok})
	})

	v1.Get("/plans/:token", func(c *fiber.Ctx) error {
		plan, err := token.Decode(c.Params("token"))
		if err != nil {
			return err
		}
		prefs, err := parsePreferences(c, presets)
		if err != nil {
			return err
		}

		place := weather.Place{Lat: plan.Lat, Lon: plan.Lon, PlaceID: plan.PlaceID, DisplayName: c.Query("place")}
		report, err := service.Report(c.UserContext(), place, plan.Date, prefs)
		if err != nil {
			return err
		}
		return c.JSON(report)
	})

	v1.Get("/climate.csv", func(c *fiber.Ctx) error {
		lat, lon, err := queryCoordinates(c)
		if err != nil {
			return err
		}

		history, err := service.History(c.UserContext(), weather.Place{Lat: lat, Lon: lon})
		if err != nil {
			return err
		}

		c.Attachment(fmt.Sprintf("climate_%.4f_%.4f.csv", lat, lon))
		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		return weather.ExportCSV(c, history)
	})

	v1.Post("/score", func(c *fiber.Ctx) error {
		var req scoreRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := req.Preferences.Validate(); err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"days":    suitability.ScoreMany(req.Observations, req.Preferences),
			"summary": suitability.Summarize(req.Observations, req.Preferences),
			"trend":   suitability.Trend(req.Observations, req.Preferences),
		})
	})
}

// scoreRequest runs the scorer over caller-supplied observations.
type scoreRequest struct {
	Observations []suitability.DailyObservation `json:"observations" validate:"max=20000"`
	Preferences  suitability.PreferenceConfig   `json:"preferences"`
}

// resolvePlace takes explicit coordinates when given and geocodes q
// otherwise.
func resolvePlace(c *fiber.Ctx, service *weather.Service) (weather.Place, error) {
	if c.Query("lat") != "" || c.Query("lon") != "" {
		lat, lon, err := queryCoordinates(c)
		if err != nil {
			return weather.Place{}, err
		}
		return weather.Place{Lat: lat, Lon: lon, DisplayName: c.Query("place")}, nil
	}

	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		return weather.Place{}, fiber.NewError(fiber.StatusBadRequest, "either q or lat and lon query parameters are required")
	}
	return service.Geocode(c.UserContext(), q)
}

func queryCoordinates(c *fiber.Ctx) (float64, float64, error) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lon, errLon := strconv.ParseFloat(c.Query("lon"), 64)
	if errLat != nil || errLon != nil {
		return 0, 0, fmt.Errorf("%w: lat and lon must be numbers", weather.ErrInvalidCoordinates)
	}
	if err := weather.ValidateCoordinates(lat, lon); err != nil {
		return 0, 0, err
	}
	return lat, lon, nil
}

func queryInt(c *fiber.Ctx, key string, def int) (int, error) {
	s := c.Query(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New(key + " must be an integer")
	}
	return n, nil
}
