package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/sync/singleflight"

	"github.com/i474232898/parade-weather/internal/observability"
	"github.com/i474232898/parade-weather/internal/suitability"
)

const (
	minSuggestQuery = 2
	maxSuggestions  = 10
)

// Options tunes a Service.
type Options struct {
	Window          Window
	MaxAlternatives int
}

// Service orchestrates geocoding, climate history loading and scoring.
type Service struct {
	store    Store
	geocoder Geocoder
	sources  []ClimateSource
	opts     Options
	metrics  *observability.Metrics
	logger   *slog.Logger

	flight singleflight.Group
}

// NewService creates a new Service. Climate sources are tried in order until
// one returns data.
func NewService(store Store, geocoder Geocoder, sources []ClimateSource, opts Options, metrics *observability.Metrics, logger *slog.Logger) *Service {
	if opts.MaxAlternatives <= 0 {
		opts.MaxAlternatives = suitability.DefaultMaxAlternatives
	}
	return &Service{
		store:    store,
		geocoder: geocoder,
		sources:  sources,
		opts:     opts,
		metrics:  metrics,
		logger:   logger,
	}
}

// Geocode resolves a free-text place name to its best match.
func (s *Service) Geocode(ctx context.Context, query string) (Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Place{}, ErrPlaceNotFound
	}
	places, err := s.geocoder.Search(ctx, query, 1)
	if err != nil {
		return Place{}, fmt.Errorf("%w: %w", ErrGeocodeFailed, err)
	}
	if len(places) == 0 {
		return Place{}, ErrPlaceNotFound
	}
	return places[0], nil
}

// Suggest returns up to limit places matching query, closest names first.
// Queries shorter than two characters return nothing.
func (s *Service) Suggest(ctx context.Context, query string, limit int) ([]Place, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < minSuggestQuery {
		return []Place{}, nil
	}
	limit = min(max(limit, 1), maxSuggestions)

	places, err := s.geocoder.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeocodeFailed, err)
	}

	q := strings.ToLower(query)
	dist := make([]int, len(places))
	for i, p := range places {
		dist[i] = levenshtein.ComputeDistance(q, strings.ToLower(leadingName(p.DisplayName)))
	}
	idx := make([]int, len(places))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return dist[idx[a]] < dist[idx[b]] })

	out := make([]Place, 0, min(len(places), limit))
	for _, i := range idx {
		if len(out) == limit {
			break
		}
		out = append(out, places[i])
	}
	return out, nil
}

// leadingName is the most specific part of a display name such as
// "Paris, Ile-de-France, France".
func leadingName(display string) string {
	name, _, _ := strings.Cut(display, ",")
	return strings.TrimSpace(name)
}

// History returns the daily climate history for place, from the store when
// cached and otherwise from the first climate source that answers.
func (s *Service) History(ctx context.Context, place Place) ([]suitability.DailyObservation, error) {
	if err := ValidateCoordinates(place.Lat, place.Lon); err != nil {
		return nil, err
	}

	key := place.Key()
	if obs, err := s.store.Get(key); err == nil {
		s.metrics.CacheLookups.WithLabelValues("history", "hit").Inc()
		return obs, nil
	}
	s.metrics.CacheLookups.WithLabelValues("history", "miss").Inc()

	return s.load(ctx, place)
}

// Refresh fetches and stores the history for place regardless of the cache.
func (s *Service) Refresh(ctx context.Context, place Place) error {
	if err := ValidateCoordinates(place.Lat, place.Lon); err != nil {
		return err
	}
	_, err := s.load(ctx, place)
	return err
}

// load collapses concurrent fetches for the same place into one.
func (s *Service) load(ctx context.Context, place Place) ([]suitability.DailyObservation, error) {
	v, err, _ := s.flight.Do(place.Key(), func() (any, error) {
		return s.fetch(ctx, place)
	})
	if err != nil {
		return nil, err
	}
	return v.([]suitability.DailyObservation), nil
}

func (s *Service) fetch(ctx context.Context, place Place) ([]suitability.DailyObservation, error) {
	if len(s.sources) == 0 {
		s.logger.Error("no climate sources configured")
		return nil, fmt.Errorf("%w: no climate sources configured", ErrClimateUnavailable)
	}

	var errs []error
	empty := 0
	for _, src := range s.sources {
		start := time.Now()
		obs, err := src.FetchDaily(ctx, place.Lat, place.Lon, s.opts.Window)
		s.metrics.ClimateFetchDuration.WithLabelValues(src.Name()).Observe(time.Since(start).Seconds())

		switch {
		case err != nil:
			s.metrics.ClimateFetches.WithLabelValues(src.Name(), "error").Inc()
			// Log and fall through to the next source.
			s.logger.Warn("climate source failed", "source", src.Name(), "place", place.Key(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %w", ErrClimateUnavailable, ctx.Err())
			}
		case len(obs) == 0:
			s.metrics.ClimateFetches.WithLabelValues(src.Name(), "empty").Inc()
			s.logger.Warn("climate source returned no data", "source", src.Name(), "place", place.Key())
			empty++
		default:
			s.metrics.ClimateFetches.WithLabelValues(src.Name(), "success").Inc()
			s.logger.Debug("climate history loaded", "source", src.Name(), "place", place.Key(), "days", len(obs))
			s.store.Save(place.Key(), obs)
			return obs, nil
		}
	}

	if len(errs) == 0 && empty > 0 {
		return nil, ErrNoClimateData
	}
	return nil, fmt.Errorf("%w: %w", ErrClimateUnavailable, errors.Join(errs...))
}

// Report scores the history at place for the calendar day of date (any year;
// only month and day are used) and looks for better days in the same month of
// the most recent year on record.
func (s *Service) Report(ctx context.Context, place Place, date string, prefs suitability.PreferenceConfig) (Report, error) {
	target, err := time.Parse(dateLayout, date)
	if err != nil {
		return Report{}, fmt.Errorf("%w: %q is not YYYY-MM-DD", ErrInvalidDate, date)
	}
	if err := prefs.Validate(); err != nil {
		return Report{}, err
	}

	history, err := s.History(ctx, place)
	if err != nil {
		return Report{}, err
	}

	days := sameCalendarDay(history, target.Month(), target.Day())
	report := Report{
		Place:        place,
		Date:         date,
		Days:         suitability.ScoreMany(days, prefs),
		Summary:      suitability.Summarize(days, prefs),
		Trend:        suitability.Trend(days, prefs),
		Alternatives: []suitability.AlternativeDate{},
	}
	if ref, ok := latestDate(days); ok {
		report.ReferenceDate = ref
		report.Alternatives = suitability.FindBetterDates(history, ref, prefs, s.opts.MaxAlternatives)
	}

	s.metrics.Reports.Inc()
	if report.Summary.TotalYears > 0 {
		s.metrics.ReportScore.Observe(float64(report.Summary.AvgScore))
	}
	s.logger.Debug("report built",
		"place", place.Key(),
		"date", date,
		"years", report.Summary.TotalYears,
		"avg_score", report.Summary.AvgScore,
	)
	return report, nil
}
