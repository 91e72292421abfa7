package httpapi

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/parade-weather/internal/suitability"
)

// parsePreferences builds a PreferenceConfig from query parameters. A named
// preset is applied first and individual parameters override it.
func parsePreferences(c *fiber.Ctx, presets map[string]suitability.PreferenceConfig) (suitability.PreferenceConfig, error) {
	var prefs suitability.PreferenceConfig
	if name := c.Query("preset"); name != "" {
		p, ok := presets[name]
		if !ok {
			return prefs, fmt.Errorf("%w: unknown preset %q", suitability.ErrInvalidPreferences, name)
		}
		prefs = clonePreferences(p)
	}

	fields := []struct {
		key string
		dst **float64
	}{
		{"tempMin", &prefs.TempMin},
		{"tempMax", &prefs.TempMax},
		{"rainMm", &prefs.DesiredRainMm},
		{"windMs", &prefs.DesiredWindMs},
	}
	for _, f := range fields {
		if err := queryFloat(c, f.key, f.dst); err != nil {
			return prefs, err
		}
	}

	if v := c.Query("rainLevel"); v != "" {
		prefs.DesiredRainLevel = suitability.Level(v)
	}
	if v := c.Query("windLevel"); v != "" {
		prefs.DesiredWindLevel = suitability.Level(v)
	}

	if hasAny(c, "weightRain", "weightWind", "weightTemp") {
		if prefs.Weights == nil {
			prefs.Weights = &suitability.Weights{}
		}
		for key, dst := range map[string]**float64{
			"weightRain": &prefs.Weights.Rain,
			"weightWind": &prefs.Weights.Wind,
			"weightTemp": &prefs.Weights.Temp,
		} {
			if err := queryFloat(c, key, dst); err != nil {
				return prefs, err
			}
		}
	}

	if hasAny(c, "tolRain", "tolWind", "tolTemp") {
		if prefs.Tolerances == nil {
			prefs.Tolerances = &suitability.Tolerances{}
		}
		for key, dst := range map[string]**float64{
			"tolRain": &prefs.Tolerances.Rain,
			"tolWind": &prefs.Tolerances.Wind,
			"tolTemp": &prefs.Tolerances.Temp,
		} {
			if err := queryFloat(c, key, dst); err != nil {
				return prefs, err
			}
		}
	}

	return prefs, prefs.Validate()
}

func queryFloat(c *fiber.Ctx, key string, dst **float64) error {
	s := c.Query(key)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("%w: %s must be a number", suitability.ErrInvalidPreferences, key)
	}
	*dst = &v
	return nil
}

func hasAny(c *fiber.Ctx, keys ...string) bool {
	for _, k := range keys {
		if c.Query(k) != "" {
			return true
		}
	}
	return false
}

// clonePreferences copies p so overrides never write through to the shared
// preset.
func clonePreferences(p suitability.PreferenceConfig) suitability.PreferenceConfig {
	if p.Weights != nil {
		w := *p.Weights
		p.Weights = &w
	}
	if p.Tolerances != nil {
		t := *p.Tolerances
		p.Tolerances = &t
	}
	return p
}
