package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/i474232898/parade-weather/internal/suitability"
	"github.com/i474232898/parade-weather/internal/weather"
)

// OpenMeteoSource implements weather.ClimateSource for the Open-Meteo
// historical archive.
type OpenMeteoSource struct {
	name    string
	baseURL string
	http    *resilientClient
}

func NewOpenMeteoSource(client *http.Client) *OpenMeteoSource {
	return &OpenMeteoSource{
		name:    "openmeteo",
		baseURL: "https://archive-api.open-meteo.com/v1/archive",
		http:    newResilientClient("openmeteo", HTTPClientConfig{Client: client, Backoff: DefaultBackoff}, nil),
	}
}

func (p *OpenMeteoSource) Name() string {
	return p.name
}

func (p *OpenMeteoSource) FetchDaily(ctx context.Context, lat, lon float64, window weather.Window) ([]suitability.DailyObservation, error) {
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
		values.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
		values.Set("start_date", fmt.Sprintf("%04d-01-01", window.StartYear))
		values.Set("end_date", fmt.Sprintf("%04d-12-31", window.EndYear))
		values.Set("daily", "temperature_2m_mean,temperature_2m_max,temperature_2m_min,"+
			"precipitation_sum,wind_speed_10m_mean,relative_humidity_2m_mean,surface_pressure_mean")
		values.Set("wind_speed_unit", "ms")
		values.Set("timezone", "UTC")

		return http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+values.Encode(), nil)
	}

	resp, err := p.http.do(ctx, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// Gaps in the archive come back as JSON null.
	var payload struct {
		Daily struct {
			Time        []string   `json:"time"`
			TempMean    []*float64 `json:"temperature_2m_mean"`
			TempMax     []*float64 `json:"temperature_2m_max"`
			TempMin     []*float64 `json:"temperature_2m_min"`
			Precip      []*float64 `json:"precipitation_sum"`
			WindMean    []*float64 `json:"wind_speed_10m_mean"`
			Humidity    []*float64 `json:"relative_humidity_2m_mean"`
			PressureHPa []*float64 `json:"surface_pressure_mean"`
		} `json:"daily"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode open-meteo response: %w", err)
	}

	d := payload.Daily
	out := make([]suitability.DailyObservation, 0, len(d.Time))
	for i, day := range d.Time {
		out = append(out, suitability.DailyObservation{
			Date:          day,
			Temperature:   at(d.TempMean, i, 1),
			TempMax:       at(d.TempMax, i, 1),
			TempMin:       at(d.TempMin, i, 1),
			Precipitation: at(d.Precip, i, 1),
			Wind:          at(d.WindMean, i, 1),
			Humidity:      at(d.Humidity, i, 1),
			// hPa to kPa, the unit NASA POWER reports.
			Pressure: at(d.PressureHPa, i, 0.1),
		})
	}
	return out, nil
}

func at(series []*float64, i int, scale float64) suitability.Measurement {
	if i >= len(series) || series[i] == nil {
		return suitability.Missing()
	}
	return suitability.Present(*series[i] * scale)
}
