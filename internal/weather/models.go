package weather

import (
	"errors"
	"fmt"
	"math"

	"github.com/i474232898/parade-weather/internal/suitability"
)

var (
	ErrPlaceNotFound      = errors.New("place not found")
	ErrGeocodeFailed      = errors.New("geocoding request failed")
	ErrClimateUnavailable = errors.New("climate data unavailable")
	ErrNoClimateData      = errors.New("no climate data for location")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

// Place is a geocoded location.
type Place struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	DisplayName string  `json:"displayName"`
	PlaceID     string  `json:"placeId,omitempty"`
}

// Key returns a canonical key for caching history at this place. Coordinates
// are rounded to 4 decimals (about 11 m), well below the grid resolution of
// any climate source.
func (p Place) Key() string {
	return fmt.Sprintf("%.4f,%.4f", p.Lat, p.Lon)
}

// Window is the inclusive range of years of history to load.
type Window struct {
	StartYear int
	EndYear   int
}

// ValidateCoordinates checks that lat/lon are finite and on the globe.
func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return fmt.Errorf("%w: latitude/longitude must be numbers", ErrInvalidCoordinates)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: latitude must be in [-90, 90] and longitude in [-180, 180]", ErrInvalidCoordinates)
	}
	return nil
}

// Report is everything the planner shows for one place and calendar date.
type Report struct {
	Place         Place                         `json:"place"`
	Date          string                        `json:"date"`
	ReferenceDate string                        `json:"referenceDate,omitempty"`
	Days          []suitability.ScoredDay       `json:"days"`
	Summary       suitability.SummaryStats      `json:"summary"`
	Trend         []suitability.TrendPoint      `json:"trend"`
	Alternatives  []suitability.AlternativeDate `json:"alternatives"`
}
