package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/i474232898/parade-weather/internal/suitability"
	"github.com/i474232898/parade-weather/internal/weather"
)

// powerFillValue marks a missing reading in NASA POWER responses.
const powerFillValue = -999

var powerParameters = []string{"T2M", "T2M_MAX", "T2M_MIN", "PRECTOTCORR", "WS2M", "RH2M", "PS"}

// NASAPowerSource implements weather.ClimateSource for the NASA POWER daily
// point API.
type NASAPowerSource struct {
	name    string
	baseURL string
	http    *resilientClient
}

func NewNASAPowerSource(client *http.Client) *NASAPowerSource {
	return &NASAPowerSource{
		name:    "nasapower",
		baseURL: "https://power.larc.nasa.gov/api/temporal/daily/point",
		http:    newResilientClient("nasapower", HTTPClientConfig{Client: client, Backoff: DefaultBackoff}, nil),
	}
}

func (p *NASAPowerSource) Name() string {
	return p.name
}

func (p *NASAPowerSource) FetchDaily(ctx context.Context, lat, lon float64, window weather.Window) ([]suitability.DailyObservation, error) {
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("parameters", "T2M,T2M_MAX,T2M_MIN,PRECTOTCORR,WS2M,RH2M,PS")
		values.Set("community", "RE")
		values.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
		values.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
		values.Set("start", fmt.Sprintf("%04d0101", window.StartYear))
		values.Set("end", fmt.Sprintf("%04d1231", window.EndYear))
		values.Set("format", "JSON")

		return http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+values.Encode(), nil)
	}

	resp, err := p.http.do(ctx, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Properties struct {
			Parameter map[string]map[string]float64 `json:"parameter"`
		} `json:"properties"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode nasa power response: %w", err)
	}

	return powerObservations(payload.Properties.Parameter), nil
}

// powerObservations pivots the per-parameter series into one row per day.
// Days missing from a series, and fill values, become missing readings.
func powerObservations(params map[string]map[string]float64) []suitability.DailyObservation {
	days := make(map[string]struct{})
	for _, name := range powerParameters {
		for day := range params[name] {
			days[day] = struct{}{}
		}
	}

	keys := make([]string, 0, len(days))
	for day := range days {
		keys = append(keys, day)
	}
	sort.Strings(keys)

	read := func(name, day string) suitability.Measurement {
		v, ok := params[name][day]
		if !ok || v == powerFillValue {
			return suitability.Missing()
		}
		return suitability.Present(v)
	}

	out := make([]suitability.DailyObservation, 0, len(keys))
	for _, day := range keys {
		t, err := time.Parse("20060102", day)
		if err != nil {
			continue
		}
		out = append(out, suitability.DailyObservation{
			Date:          t.Format("2006-01-02"),
			Temperature:   read("T2M", day),
			TempMax:       read("T2M_MAX", day),
			TempMin:       read("T2M_MIN", day),
			Precipitation: read("PRECTOTCORR", day),
			Wind:          read("WS2M", day),
			Humidity:      read("RH2M", day),
			Pressure:      read("PS", day),
		})
	}
	return out
}
