package cache_test

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/appstore-api/internal/cache"
	"github.com/JakeFAU/appstore-api/internal/cache/memory"
	"github.com/JakeFAU/appstore-api/internal/scraper"
)

type countingScraper struct {
	calls int
	err   error
}

func (c *countingScraper) Search(context.Context, scraper.Options) ([]scraper.App, error) {
	c.calls++
	return []scraper.App{{ID: 1, AppID: "com.example.one"}}, c.err
}

func (c *countingScraper) Suggest(context.Context, scraper.Options) ([]string, error) {
	c.calls++
	return []string{"panda"}, c.err
}

func (c *countingScraper) List(context.Context, scraper.Options) ([]scraper.App, error) {
	c.calls++
	return nil, c.err
}

func (c *countingScraper) App(_ context.Context, opts scraper.Options) (scraper.App, error) {
	c.calls++
	if c.err != nil {
		return scraper.App{}, c.err
	}
	return scraper.App{ID: 42, AppID: opts.Get("appId"), Title: "Forty Two"}, nil
}

func (c *countingScraper) Similar(context.Context, scraper.Options) ([]scraper.App, error) {
	c.calls++
	return nil, c.err
}

func (c *countingScraper) Reviews(context.Context, scraper.Options) ([]scraper.Review, error) {
	c.calls++
	return []scraper.Review{{ID: "r1", Score: 4}}, c.err
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, error) { return nil, errors.New("down") }
func (brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("down")
}
func (brokenStore) Ping(context.Context) error { return errors.New("down") }
func (brokenStore) Close() error               { return nil }

func TestScraperServesRepeatCallsFromStore(t *testing.T) {
	t.Parallel()

	next := &countingScraper{}
	s := cache.New(next, memory.New(nil), time.Minute, zap.NewNop())
	opts := scraper.NewOptions(url.Values{"appId": {"com.example.one"}})

	first, err := s.App(context.Background(), opts)
	require.NoError(t, err)
	second, err := s.App(context.Background(), opts)
	require.NoError(t, err)

	require.Equal(t, 1, next.calls)
	require.Equal(t, first, second)
	require.Equal(t, "Forty Two", second.Title)

	other := scraper.NewOptions(url.Values{"appId": {"com.example.two"}})
	_, err = s.App(context.Background(), other)
	require.NoError(t, err)
	require.Equal(t, 2, next.calls)
}

func TestScraperDoesNotCacheErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	next := &countingScraper{err: boom}
	store := memory.New(nil)
	s := cache.New(next, store, time.Minute, nil)

	for i := 0; i < 2; i++ {
		_, err := s.App(context.Background(), scraper.Options{})
		require.ErrorIs(t, err, boom)
	}
	require.Equal(t, 2, next.calls)
	require.Zero(t, store.Len())
}

func TestScraperToleratesStoreFailures(t *testing.T) {
	t.Parallel()

	next := &countingScraper{}
	s := cache.New(next, brokenStore{}, time.Minute, zap.NewNop())

	reviews, err := s.Reviews(context.Background(), scraper.Options{})
	require.NoError(t, err)
	require.Len(t, reviews, 1)

	terms, err := s.Suggest(context.Background(), scraper.Options{})
	require.NoError(t, err)
	require.Equal(t, []string{"panda"}, terms)
	require.Equal(t, 2, next.calls)
}

func TestScraperKeySeparatesCapabilities(t *testing.T) {
	t.Parallel()

	s := cache.New(&countingScraper{}, memory.New(nil), time.Minute, nil)
	opts := scraper.NewOptions(url.Values{"term": {"panda"}})
	require.NotEqual(t, s.Key(scraper.CapabilitySearch, opts), s.Key(scraper.CapabilitySuggest, opts))
	require.Equal(t, s.Key(scraper.CapabilitySearch, opts), s.Key(scraper.CapabilitySearch, opts.Clone()))
}
