package weather

import (
	"context"

	"github.com/i474232898/parade-weather/internal/suitability"
)

// ClimateSource abstracts a historical daily climate data service (e.g. NASA
// POWER, Open-Meteo archive). Observations come back sorted by date with
// missing readings already converted to suitability.Missing.
type ClimateSource interface {
	Name() string
	FetchDaily(ctx context.Context, lat, lon float64, window Window) ([]suitability.DailyObservation, error)
}

// Geocoder resolves free-text place names, best match first.
type Geocoder interface {
	Search(ctx context.Context, query string, limit int) ([]Place, error)
}

// Store is the contract the climate history cache must satisfy.
type Store interface {
	Save(key string, obs []suitability.DailyObservation)
	Get(key string) ([]suitability.DailyObservation, error)
}
