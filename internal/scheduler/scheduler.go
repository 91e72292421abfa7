package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	"golang.org/x/sync/errgroup"

	"github.com/i474232898/parade-weather/internal/weather"
)

const (
	warmConcurrency = 2
	warmTimeout     = 2 * time.Minute
)

// Warmer is the part of weather.Service the scheduler drives.
type Warmer interface {
	Geocode(ctx context.Context, query string) (weather.Place, error)
	Refresh(ctx context.Context, place weather.Place) error
}

// Scheduler periodically reloads climate history for configured places so
// the first report for them is served from cache.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   Warmer
	places    []string
	interval  time.Duration
	logger    *slog.Logger
}

// New creates a new Scheduler.
func New(places []string, interval time.Duration, service Warmer, logger *slog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		service:   service,
		places:    places,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the periodic job, runs it once immediately and starts the
// underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.places) == 0 {
		s.logger.Info("scheduler: no places configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), warmTimeout)
		defer cancel()
		s.Run(ctx)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Run warms every place once, a few at a time. Failures are logged and do
// not stop the other places.
func (s *Scheduler) Run(ctx context.Context) (warmed int) {
	s.logger.Info("scheduler: warming climate history", "places", len(s.places))
	start := time.Now()

	results := make([]bool, len(s.places))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(warmConcurrency)
	for i, name := range s.places {
		g.Go(func() error {
			place, err := s.service.Geocode(ctx, name)
			if err != nil {
				s.logger.Warn("scheduler: geocode failed", "place", name, "error", err)
				return nil
			}
			if err := s.service.Refresh(ctx, place); err != nil {
				s.logger.Warn("scheduler: refresh failed", "place", name, "error", err)
				return nil
			}
			results[i] = true
			return nil
		})
	}
	_ = g.Wait()

	for _, ok := range results {
		if ok {
			warmed++
		}
	}
	s.logger.Info("scheduler: completed warm job", "warmed", warmed, "places", len(s.places), "duration", time.Since(start))
	return warmed
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
