package providers

import (
	"context"
	"strings"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/parade-weather/internal/weather"
)

// GoogleGeocoder implements weather.Geocoder with the Google Geocoding API.
// It only ever returns the single best match, so any limit >= 1 yields at
// most one place.
type GoogleGeocoder struct {
	forward func(geocoder.Address) (geocoder.Location, error)
	reverse func(geocoder.Location) ([]geocoder.Address, error)
}

// NewGoogleGeocoder configures the geocoder package with apiKey. The key is
// process-wide.
func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	geocoder.ApiKey = apiKey
	return &GoogleGeocoder{
		forward: geocoder.Geocoding,
		reverse: geocoder.GeocodingReverse,
	}
}

type googleResult struct {
	places []weather.Place
	err    error
}

// Search runs the lookup in its own goroutine because kelvins/geocoder takes
// no context. On cancellation Search returns ctx.Err() at once and the
// abandoned request finishes in the background.
func (g *GoogleGeocoder) Search(ctx context.Context, query string, limit int) ([]weather.Place, error) {
	if limit <= 0 {
		return []weather.Place{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done := make(chan googleResult, 1)
	go func() {
		places, err := g.lookup(query)
		done <- googleResult{places: places, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.places, r.err
	}
}

func (g *GoogleGeocoder) lookup(query string) ([]weather.Place, error) {
	loc, err := g.forward(geocoder.Address{City: query})
	if err != nil {
		if isZeroResults(err) {
			return []weather.Place{}, nil
		}
		return nil, err
	}

	place := weather.Place{Lat: loc.Latitude, Lon: loc.Longitude, DisplayName: query}
	if addrs, err := g.reverse(loc); err == nil && len(addrs) > 0 {
		if name := addrs[0].FormatAddress(); name != "" {
			place.DisplayName = name
		}
	}
	return []weather.Place{place}, nil
}

// isZeroResults reports whether err is the API's "no match" status. The
// geocoder package surfaces API statuses only as error text.
func isZeroResults(err error) bool {
	return strings.Contains(err.Error(), "ZERO_RESULTS")
}
