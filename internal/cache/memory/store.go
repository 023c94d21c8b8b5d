// Package memory keeps cached scraper responses in process memory.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/JakeFAU/appstore-api/internal/cache"
	"github.com/JakeFAU/appstore-api/internal/clock/system"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Store is a mutex-guarded map with lazy expiry.
type Store struct {
	mu    sync.RWMutex
	data  map[string]entry
	clock cache.Clock
}

// New creates an empty store. A nil clock falls back to the system clock.
func New(clock cache.Clock) *Store {
	if clock == nil {
		clock = system.New()
	}
	return &Store{
		data:  make(map[string]entry),
		clock: clock,
	}
}

// Get returns a copy of the stored value or cache.ErrMiss.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	e, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return nil, cache.ErrMiss
	}
	if !e.expiresAt.IsZero() && !s.clock.Now().Before(e.expiresAt) {
		s.mu.Lock()
		if cur, still := s.data[key]; still && cur.expiresAt.Equal(e.expiresAt) {
			delete(s.data, key)
		}
		s.mu.Unlock()
		return nil, cache.ErrMiss
	}
	return append([]byte(nil), e.value...), nil
}

// Set stores a copy of value. A non-positive ttl never expires.
func (s *Store) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = s.clock.Now().Add(ttl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = e
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error {
	return nil
}

// Close drops all entries.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]entry)
	return nil
}

// Len reports the number of entries, including expired ones not yet evicted.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
