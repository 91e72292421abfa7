package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/parade-weather/internal/weather"
)

type fakeWarmer struct {
	mu        sync.Mutex
	refreshed []string

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (f *fakeWarmer) Geocode(ctx context.Context, query string) (weather.Place, error) {
	if query == "Atlantis" {
		return weather.Place{}, weather.ErrPlaceNotFound
	}
	return weather.Place{DisplayName: query}, nil
}

func (f *fakeWarmer) Refresh(ctx context.Context, place weather.Place) error {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxInFlight.Load()
		if n <= m || f.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)

	if place.DisplayName == "Broken" {
		return errors.New("upstream down")
	}
	f.mu.Lock()
	f.refreshed = append(f.refreshed, place.DisplayName)
	f.mu.Unlock()
	return nil
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestRun_WarmsPlacesAndSkipsFailures(t *testing.T) {
	w := &fakeWarmer{}
	s := New([]string{"Paris", "Atlantis", "Broken", "Lima", "Oslo"}, time.Hour, w, discard())

	warmed := s.Run(context.Background())

	assert.Equal(t, 3, warmed)
	assert.ElementsMatch(t, []string{"Paris", "Lima", "Oslo"}, w.refreshed)
	assert.LessOrEqual(t, w.maxInFlight.Load(), int32(warmConcurrency))
}

func TestStart_NoPlaces(t *testing.T) {
	s := New(nil, time.Hour, &fakeWarmer{}, discard())
	require.NoError(t, s.Start())
	s.Stop()
}

func TestStart_SchedulesJob(t *testing.T) {
	w := &fakeWarmer{}
	s := New([]string{"Paris"}, time.Hour, w, discard())
	require.NoError(t, s.Start())
	defer s.Stop()

	// gocron runs a new job immediately by default.
	assert.Eventually(t, func() bool {
		w.mu.Lock()
		defer w.mu.Unlock()
		return len(w.refreshed) == 1
	}, 2*time.Second, 10*time.Millisecond)
}
