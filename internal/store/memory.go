package store

import (
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/parade-weather/internal/suitability"
)

var (
	// ErrNotFound is returned when no fresh history is cached for a key.
	ErrNotFound = errors.New("no climate history for location")
)

// entry holds the daily history loaded for one location.
type entry struct {
	obs       []suitability.DailyObservation
	fetchedAt time.Time
}

// MemoryStore is a concurrency-safe in-memory cache of climate histories.
type MemoryStore struct {
	mu sync.RWMutex

	// key: location key, value: history
	data map[string]entry

	// retention configuration
	maxEntries int           // max number of locations kept
	maxAge     time.Duration // entries older than this are treated as absent

	clock clockwork.Clock
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxEntries or maxAge is <= 0, it is treated as unlimited. A nil clock
// means the real clock.
func NewMemoryStore(maxEntries int, maxAge time.Duration, clock clockwork.Clock) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryStore{
		data:       make(map[string]entry),
		maxEntries: maxEntries,
		maxAge:     maxAge,
		clock:      clock,
	}
}

// Save stores the history for key, replacing any previous one, and enforces
// retention.
func (s *MemoryStore) Save(key string, obs []suitability.DailyObservation) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = entry{obs: obs, fetchedAt: now}

	// Enforce retention by age.
	if s.maxAge > 0 {
		for k, e := range s.data {
			if s.expired(e, now) {
				delete(s.data, k)
			}
		}
	}

	// Enforce retention by count, oldest fetch first.
	for s.maxEntries > 0 && len(s.data) > s.maxEntries {
		var oldestKey string
		var oldest time.Time
		for k, e := range s.data {
			if oldestKey == "" || e.fetchedAt.Before(oldest) {
				oldestKey, oldest = k, e.fetchedAt
			}
		}
		delete(s.data, oldestKey)
	}
}

// Get returns the history stored for key.
func (s *MemoryStore) Get(key string) ([]suitability.DailyObservation, error) {
	now := s.clock.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[key]
	if !ok || s.expired(e, now) {
		return nil, ErrNotFound
	}
	return e.obs, nil
}

// Len reports how many locations are cached, including expired entries not
// yet evicted.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *MemoryStore) expired(e entry, now time.Time) bool {
	return s.maxAge > 0 && now.Sub(e.fetchedAt) > s.maxAge
}
