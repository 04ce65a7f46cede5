package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/rosterhq/rosterd/internal/cache"
)

// RateStore coordinates rate limiting counters for a specific key.
type RateStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (count int, ttl time.Duration, err error)
}

// memoryRateStore provides process-local rate limiting. Expired windows are
// swept opportunistically on write, so no background goroutine is needed.
type memoryRateStore struct {
	mu      sync.Mutex
	windows map[string]*rateWindow
	sweepAt time.Time
	clock   func() time.Time
}

type rateWindow struct {
	count  int
	resets time.Time
}

// NewMemoryRateStore constructs an in-memory rate store.
func NewMemoryRateStore() RateStore {
	return &memoryRateStore{
		windows: make(map[string]*rateWindow),
		clock:   time.Now,
	}
}

func (s *memoryRateStore) Increment(_ context.Context, key string, window time.Duration) (int, time.Duration, error) {
	if window <= 0 {
		window = time.Minute
	}
	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if now.After(s.sweepAt) {
		for k, w := range s.windows {
			if now.After(w.resets) {
				delete(s.windows, k)
			}
		}
		s.sweepAt = now.Add(time.Minute)
	}

	w, ok := s.windows[key]
	if !ok || now.After(w.resets) {
		w = &rateWindow{resets: now.Add(window)}
		s.windows[key] = w
	}
	w.count++

	return w.count, w.resets.Sub(now), nil
}

// storeRateStore delegates counting to the shared cache, so limits hold
// across processes when Redis backs it.
type storeRateStore struct {
	store cache.Store
}

// NewCacheRateStore wraps a cache store (Redis or database backed) in a
// RateStore implementation.
func NewCacheRateStore(store cache.Store) RateStore {
	if store == nil {
		return nil
	}
	return &storeRateStore{store: store}
}

func (s *storeRateStore) Increment(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	if window <= 0 {
		window = time.Minute
	}
	count, ttl, err := s.store.IncrementWithTTL(ctx, key, window)
	return int(count), ttl, err
}
