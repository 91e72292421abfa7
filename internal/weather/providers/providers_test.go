package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/parade-weather/internal/observability"
	"github.com/i474232898/parade-weather/internal/suitability"
	"github.com/i474232898/parade-weather/internal/weather"
)

var fastBackoff = BackoffConfig{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}

var window = weather.Window{StartYear: 2015, EndYear: 2024}

func TestNASAPower_FetchDaily(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "20150101", q.Get("start"))
		assert.Equal(t, "20241231", q.Get("end"))
		assert.Equal(t, "48.8566", q.Get("latitude"))
		assert.Equal(t, "JSON", q.Get("format"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"properties":{"parameter":{
			"T2M":{"20240705":19.5,"20240704":21.2},
			"PRECTOTCORR":{"20240704":-999,"20240705":3.1},
			"WS2M":{"20240704":2.4},
			"PS":{"20240704":100.9,"20240705":101.1}
		}}}`))
	}))
	defer srv.Close()

	src := NewNASAPowerSource(srv.Client())
	src.baseURL = srv.URL

	got, err := src.FetchDaily(context.Background(), 48.8566, 2.3522, window)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "2024-07-04", got[0].Date)
	assert.Equal(t, suitability.Present(21.2), got[0].Temperature)
	assert.Equal(t, suitability.Missing(), got[0].Precipitation)
	assert.Equal(t, suitability.Present(2.4), got[0].Wind)
	assert.Equal(t, suitability.Missing(), got[0].Humidity)

	assert.Equal(t, "2024-07-05", got[1].Date)
	assert.Equal(t, suitability.Present(3.1), got[1].Precipitation)
	assert.Equal(t, suitability.Missing(), got[1].Wind)
	assert.Equal(t, "nasapower", src.Name())
}

func TestOpenMeteo_FetchDaily(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "2015-01-01", q.Get("start_date"))
		assert.Equal(t, "2024-12-31", q.Get("end_date"))
		assert.Equal(t, "ms", q.Get("wind_speed_unit"))
		_, _ = w.Write([]byte(`{"daily":{
			"time":["2024-07-04","2024-07-05"],
			"temperature_2m_mean":[21.0,null],
			"precipitation_sum":[0.0,2.5],
			"wind_speed_10m_mean":[3.0,4.0],
			"surface_pressure_mean":[1012.0,null]
		}}`))
	}))
	defer srv.Close()

	src := NewOpenMeteoSource(srv.Client())
	src.baseURL = srv.URL

	got, err := src.FetchDaily(context.Background(), 48.8566, 2.3522, window)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, suitability.Present(21.0), got[0].Temperature)
	assert.Equal(t, suitability.Present(0), got[0].Precipitation)
	v, ok := got[0].Pressure.Value()
	require.True(t, ok)
	assert.InDelta(t, 101.2, v, 1e-9)
	assert.Equal(t, suitability.Missing(), got[0].TempMax)

	assert.Equal(t, suitability.Missing(), got[1].Temperature)
	assert.Equal(t, suitability.Missing(), got[1].Pressure)
}

func TestResilientClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"daily":{"time":["2024-07-04"],"temperature_2m_mean":[20]}}`))
	}))
	defer srv.Close()

	src := NewOpenMeteoSource(srv.Client())
	src.baseURL = srv.URL
	src.http.cfg.Backoff = fastBackoff

	got, err := src.FetchDaily(context.Background(), 0, 0, window)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestResilientClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	src := NewNASAPowerSource(srv.Client())
	src.baseURL = srv.URL
	src.http.cfg.Backoff = fastBackoff

	_, err := src.FetchDaily(context.Background(), 0, 0, window)
	assert.ErrorIs(t, err, errUnexpected)
	assert.Equal(t, int32(1), calls.Load())
}

func TestResilientClient_ClientErrorsKeepCircuitClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("latitude") == "0.0000" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"daily":{"time":["2024-07-04"],"temperature_2m_mean":[20]}}`))
	}))
	defer srv.Close()

	src := NewOpenMeteoSource(srv.Client())
	src.baseURL = srv.URL
	src.http.cfg.Backoff = fastBackoff

	for range 10 {
		_, err := src.FetchDaily(context.Background(), 0, 0, window)
		require.ErrorIs(t, err, errUnexpected)
	}
	assert.Equal(t, gobreaker.StateClosed, src.http.circuit.State())

	got, err := src.FetchDaily(context.Background(), 48.8566, 2.3522, window)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestResilientClient_ServerErrorsOpenCircuit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	src := NewOpenMeteoSource(srv.Client())
	src.baseURL = srv.URL
	src.http.cfg.Backoff = fastBackoff

	var err error
	for range 3 {
		_, err = src.FetchDaily(context.Background(), 0, 0, window)
	}
	assert.ErrorIs(t, err, errCircuitOpen)
	assert.Equal(t, gobreaker.StateOpen, src.http.circuit.State())
}

func TestResilientClient_GivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	src := NewNASAPowerSource(srv.Client())
	src.baseURL = srv.URL
	src.http.cfg.Backoff = fastBackoff

	_, err := src.FetchDaily(context.Background(), 0, 0, window)
	assert.ErrorIs(t, err, errRateLimited)
}

func TestResilientClient_NoClient(t *testing.T) {
	src := NewNASAPowerSource(nil)
	_, err := src.FetchDaily(context.Background(), 0, 0, window)
	assert.ErrorIs(t, err, errNoHTTPClient)
}

func TestNominatim_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		assert.Equal(t, "Paris", r.URL.Query().Get("q"))
		assert.Equal(t, "3", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`[
			{"place_id":88066702,"lat":"48.8534951","lon":"2.3483915","display_name":"Paris, Ile-de-France, France"},
			{"place_id":1,"lat":"not-a-number","lon":"0","display_name":"Broken"},
			{"place_id":2,"lat":"33.66","lon":"-95.55","display_name":"Paris, Texas, United States"}
		]`))
	}))
	defer srv.Close()

	g := NewNominatimGeocoder(srv.Client(), "test-agent", 100)
	g.baseURL = srv.URL

	got, err := g.Search(context.Background(), "Paris", 3)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, weather.Place{Lat: 48.8534951, Lon: 2.3483915, DisplayName: "Paris, Ile-de-France, France", PlaceID: "88066702"}, got[0])
	assert.Equal(t, "2", got[1].PlaceID)
}

func TestNominatim_RespectsContext(t *testing.T) {
	g := NewNominatimGeocoder(http.DefaultClient, "", 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Search(ctx, "Paris", 1)
	assert.ErrorIs(t, err, context.Canceled)
}

type countingGeocoder struct {
	calls  int
	places []weather.Place
}

func (c *countingGeocoder) Search(ctx context.Context, query string, limit int) ([]weather.Place, error) {
	c.calls++
	return c.places, nil
}

func TestCachedGeocoder(t *testing.T) {
	inner := &countingGeocoder{places: []weather.Place{{Lat: 1, Lon: 2, DisplayName: "Somewhere"}}}
	g := NewCachedGeocoder(inner, time.Minute, observability.NewMetricsForTesting())

	for range 3 {
		got, err := g.Search(context.Background(), "Somewhere", 1)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	}
	_, _ = g.Search(context.Background(), "  SOMEWHERE ", 1)
	assert.Equal(t, 1, inner.calls)

	_, _ = g.Search(context.Background(), "Somewhere", 5)
	assert.Equal(t, 2, inner.calls, "limit is part of the key")
}

func TestCachedGeocoder_SkipsEmptyResults(t *testing.T) {
	inner := &countingGeocoder{}
	g := NewCachedGeocoder(inner, time.Minute, observability.NewMetricsForTesting())

	_, _ = g.Search(context.Background(), "Atlantis", 1)
	_, _ = g.Search(context.Background(), "Atlantis", 1)
	assert.Equal(t, 2, inner.calls)
}
