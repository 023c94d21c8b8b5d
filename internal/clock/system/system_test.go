package system_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/appstore-api/internal/cache"
	"github.com/JakeFAU/appstore-api/internal/cache/memory"
	"github.com/JakeFAU/appstore-api/internal/clock/system"
)

func TestClockNowIsUTC(t *testing.T) {
	t.Parallel()

	before := time.Now().Add(-time.Second)
	now := system.New().Now()
	require.Equal(t, time.UTC, now.Location())
	require.WithinRange(t, now, before, time.Now().Add(time.Second))
}

// Cached scraper responses expire against the wall clock.
func TestClockExpiresCachedResponses(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.New(system.New())
	t.Cleanup(func() { _ = store.Close() })

	key := "search:" + "panda"
	require.NoError(t, store.Set(ctx, key, []byte(`[{"appId":"com.example"}]`), 40*time.Millisecond))
	require.NoError(t, store.Set(ctx, "app:pinned", []byte(`{}`), 0))

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.JSONEq(t, `[{"appId":"com.example"}]`, string(got))

	require.Eventually(t, func() bool {
		_, err := store.Get(ctx, key)
		return errors.Is(err, cache.ErrMiss)
	}, time.Second, 10*time.Millisecond)

	_, err = store.Get(ctx, "app:pinned")
	require.NoError(t, err)
}
