package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/i474232898/parade-weather/internal/suitability"
	"github.com/i474232898/parade-weather/internal/weather"
)

type AppConfig struct {
	HTTPAddr        string
	HTTPTimeout     time.Duration // outbound request timeout
	ShutdownTimeout time.Duration

	LogLevel  string
	LogFormat string

	// Years of history loaded for every place.
	Window weather.Window

	// Climate sources in fallback order.
	ClimateSources []string

	// In-memory history cache retention.
	CacheMaxEntries int           // max number of places (0 = unlimited)
	CacheMaxAge     time.Duration // max age of a history (0 = unlimited)

	// RefreshInterval controls how often warm places are reloaded.
	RefreshInterval time.Duration
	WarmPlaces      []string

	Geocoder              string // nominatim or google
	GoogleGeocodingAPIKey string
	NominatimUserAgent    string
	NominatimRPS          float64
	GeocodeCacheTTL       time.Duration

	MaxAlternatives int

	// Presets are named preference sets selectable by clients.
	Presets map[string]suitability.PreferenceConfig
}

var knownSources = map[string]bool{"nasapower": true, "openmeteo": true}

// Load reads configuration from the environment (and a .env file when
// present) with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &AppConfig{
		HTTPAddr:              getenvDefault("HTTP_ADDR", ":8080"),
		LogLevel:              getenvDefault("LOG_LEVEL", "info"),
		LogFormat:             getenvDefault("LOG_FORMAT", "json"),
		GoogleGeocodingAPIKey: os.Getenv("GOOGLE_GEOCODING_API_KEY"),
		NominatimUserAgent:    getenvDefault("NOMINATIM_USER_AGENT", "parade-weather/1.0"),
	}

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getenvDuration("SHUTDOWN_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.CacheMaxAge, err = getenvDuration("CACHE_MAX_AGE", "24h"); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", "12h"); err != nil {
		return nil, err
	}
	if cfg.GeocodeCacheTTL, err = getenvDuration("GEOCODE_CACHE_TTL", "1h"); err != nil {
		return nil, err
	}

	if cfg.Window.StartYear, err = getenvInt("HISTORY_START_YEAR", 2015); err != nil {
		return nil, err
	}
	if cfg.Window.EndYear, err = getenvInt("HISTORY_END_YEAR", 2024); err != nil {
		return nil, err
	}
	if cfg.Window.StartYear > cfg.Window.EndYear {
		return nil, fmt.Errorf("invalid HISTORY_START_YEAR: %d is after HISTORY_END_YEAR %d", cfg.Window.StartYear, cfg.Window.EndYear)
	}
	if cfg.CacheMaxEntries, err = getenvInt("CACHE_MAX_ENTRIES", 256); err != nil {
		return nil, err
	}
	if cfg.MaxAlternatives, err = getenvInt("MAX_ALTERNATIVES", suitability.DefaultMaxAlternatives); err != nil {
		return nil, err
	}

	rps := getenvDefault("NOMINATIM_RPS", "1")
	if cfg.NominatimRPS, err = strconv.ParseFloat(rps, 64); err != nil || cfg.NominatimRPS <= 0 {
		return nil, fmt.Errorf("invalid NOMINATIM_RPS: %q", rps)
	}

	cfg.ClimateSources = splitList(getenvDefault("CLIMATE_SOURCES", "nasapower,openmeteo"))
	if len(cfg.ClimateSources) == 0 {
		return nil, fmt.Errorf("invalid CLIMATE_SOURCES: at least one source is required")
	}
	for _, s := range cfg.ClimateSources {
		if !knownSources[s] {
			return nil, fmt.Errorf("invalid CLIMATE_SOURCES: unknown source %q", s)
		}
	}

	cfg.Geocoder = strings.ToLower(getenvDefault("GEOCODER", "nominatim"))
	switch cfg.Geocoder {
	case "nominatim":
	case "google":
		if cfg.GoogleGeocodingAPIKey == "" {
			return nil, fmt.Errorf("invalid GEOCODER: google requires GOOGLE_GEOCODING_API_KEY")
		}
	default:
		return nil, fmt.Errorf("invalid GEOCODER: %q", cfg.Geocoder)
	}

	// Warm places are full place names and may contain commas, so they are
	// separated by semicolons.
	cfg.WarmPlaces = splitOn(os.Getenv("WARM_PLACES"), ";")

	cfg.Presets = DefaultPresets()
	if path := os.Getenv("PRESETS_FILE"); path != "" {
		presets, err := LoadPresets(path)
		if err != nil {
			return nil, err
		}
		for name, p := range presets {
			cfg.Presets[name] = p
		}
	}

	return cfg, nil
}

// DefaultPresets are available even without a PRESETS_FILE.
func DefaultPresets() map[string]suitability.PreferenceConfig {
	f := func(v float64) *float64 { return &v }
	return map[string]suitability.PreferenceConfig{
		"parade": {
			TempMin:          f(15),
			TempMax:          f(25),
			DesiredRainLevel: suitability.LevelNone,
			DesiredWindLevel: suitability.LevelLight,
		},
		"beach": {
			TempMin:          f(24),
			TempMax:          f(32),
			DesiredRainLevel: suitability.LevelNone,
			DesiredWindLevel: suitability.LevelModerate,
			Weights:          &suitability.Weights{Rain: f(0.4), Wind: f(0.1), Temp: f(0.5)},
		},
	}
}

// LoadPresets reads a YAML document mapping preset names to preferences and
// validates every entry.
func LoadPresets(path string) (map[string]suitability.PreferenceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("invalid PRESETS_FILE: %w", err)
	}

	var presets map[string]suitability.PreferenceConfig
	if err := yaml.Unmarshal(data, &presets); err != nil {
		return nil, fmt.Errorf("invalid PRESETS_FILE: %w", err)
	}
	for name, p := range presets {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("invalid PRESETS_FILE: preset %q: %w", name, err)
		}
	}
	return presets, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	v := getenvDefault(key, def)
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return d, nil
}

func splitList(s string) []string {
	out := splitOn(s, ",")
	for i := range out {
		out[i] = strings.ToLower(out[i])
	}
	return out
}

func splitOn(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
