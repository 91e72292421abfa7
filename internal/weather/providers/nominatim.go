package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/i474232898/parade-weather/internal/weather"
)

const defaultUserAgent = "parade-weather/1.0"

// NominatimGeocoder implements weather.Geocoder for OpenStreetMap Nominatim.
// The public instance allows one request per second and requires an
// identifying User-Agent.
type NominatimGeocoder struct {
	baseURL   string
	userAgent string
	http      *resilientClient
}

// NewNominatimGeocoder creates a client limited to rps requests per second
// (rps <= 0 means 1).
func NewNominatimGeocoder(client *http.Client, userAgent string, rps float64) *NominatimGeocoder {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	if rps <= 0 {
		rps = 1
	}
	return &NominatimGeocoder{
		baseURL:   "https://nominatim.openstreetmap.org/search",
		userAgent: userAgent,
		http: newResilientClient("nominatim",
			HTTPClientConfig{Client: client, Backoff: DefaultBackoff},
			rate.NewLimiter(rate.Limit(rps), 1)),
	}
}

func (g *NominatimGeocoder) Search(ctx context.Context, query string, limit int) ([]weather.Place, error) {
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("format", "json")
		values.Set("limit", strconv.Itoa(limit))
		values.Set("q", query)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+values.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", g.userAgent)
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	resp, err := g.http.do(ctx, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload []struct {
		PlaceID     json.Number `json:"place_id"`
		Lat         string      `json:"lat"`
		Lon         string      `json:"lon"`
		DisplayName string      `json:"display_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode nominatim response: %w", err)
	}

	places := make([]weather.Place, 0, len(payload))
	for _, r := range payload {
		lat, errLat := strconv.ParseFloat(r.Lat, 64)
		lon, errLon := strconv.ParseFloat(r.Lon, 64)
		if errLat != nil || errLon != nil || weather.ValidateCoordinates(lat, lon) != nil {
			continue
		}
		places = append(places, weather.Place{
			Lat:         lat,
			Lon:         lon,
			DisplayName: r.DisplayName,
			PlaceID:     r.PlaceID.String(),
		})
	}
	return places, nil
}
