// Package cache memoizes scraper results in a pluggable key/value store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/appstore-api/internal/hash/sha256"
	"github.com/JakeFAU/appstore-api/internal/metrics"
	"github.com/JakeFAU/appstore-api/internal/scraper"
)

// ErrMiss is returned by Store.Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Store persists opaque values with a time-to-live.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Ping(ctx context.Context) error
	Close() error
}

// Scraper wraps a scraper.Scraper and serves repeated calls from a Store.
type Scraper struct {
	next   scraper.Scraper
	store  Store
	ttl    time.Duration
	hasher *sha256.Hasher
	logger *zap.Logger
}

// New builds a memoizing Scraper.
func New(next scraper.Scraper, store Store, ttl time.Duration, logger *zap.Logger) *Scraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scraper{
		next:   next,
		store:  store,
		ttl:    ttl,
		hasher: sha256.New(),
		logger: logger,
	}
}

// Key derives the storage key for a capability call.
func (s *Scraper) Key(capability string, opts scraper.Options) string {
	return capability + ":" + s.hasher.Hash([]byte(opts.Key()))
}

// memoize serves the value from the store or fills it by calling load. Store
// errors degrade to a miss; load errors are returned and never stored.
func memoize[T any](ctx context.Context, s *Scraper, capability string, opts scraper.Options, load func() (T, error)) (T, error) {
	key := s.Key(capability, opts)

	raw, err := s.store.Get(ctx, key)
	switch {
	case err == nil:
		var cached T
		uerr := json.Unmarshal(raw, &cached)
		if uerr == nil {
			metrics.ObserveCacheLookup(capability, true)
			return cached, nil
		}
		s.logger.Warn("discarding undecodable cache entry", zap.String("key", key), zap.Error(uerr))
	case !errors.Is(err, ErrMiss):
		s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}
	metrics.ObserveCacheLookup(capability, false)

	value, err := load()
	if err != nil {
		return value, err
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return value, nil
	}
	if err := s.store.Set(ctx, key, encoded, s.ttl); err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return value, nil
}

// Search implements scraper.Scraper.
func (s *Scraper) Search(ctx context.Context, opts scraper.Options) ([]scraper.App, error) {
	return memoize(ctx, s, scraper.CapabilitySearch, opts, func() ([]scraper.App, error) {
		return s.next.Search(ctx, opts)
	})
}

// Suggest implements scraper.Scraper.
func (s *Scraper) Suggest(ctx context.Context, opts scraper.Options) ([]string, error) {
	return memoize(ctx, s, scraper.CapabilitySuggest, opts, func() ([]string, error) {
		return s.next.Suggest(ctx, opts)
	})
}

// List implements scraper.Scraper.
func (s *Scraper) List(ctx context.Context, opts scraper.Options) ([]scraper.App, error) {
	return memoize(ctx, s, scraper.CapabilityList, opts, func() ([]scraper.App, error) {
		return s.next.List(ctx, opts)
	})
}

// App implements scraper.Scraper.
func (s *Scraper) App(ctx context.Context, opts scraper.Options) (scraper.App, error) {
	return memoize(ctx, s, scraper.CapabilityApp, opts, func() (scraper.App, error) {
		return s.next.App(ctx, opts)
	})
}

// Similar implements scraper.Scraper.
func (s *Scraper) Similar(ctx context.Context, opts scraper.Options) ([]scraper.App, error) {
	return memoize(ctx, s, scraper.CapabilitySimilar, opts, func() ([]scraper.App, error) {
		return s.next.Similar(ctx, opts)
	})
}

// Reviews implements scraper.Scraper.
func (s *Scraper) Reviews(ctx context.Context, opts scraper.Options) ([]scraper.Review, error) {
	return memoize(ctx, s, scraper.CapabilityReviews, opts, func() ([]scraper.Review, error) {
		return s.next.Reviews(ctx, opts)
	})
}
