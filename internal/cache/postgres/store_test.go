package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/appstore-api/internal/cache"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface, time.Time) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	now := time.Unix(1700000000, 0).UTC()
	store, err := NewWithPool(mock, "", fixedClock{now: now})
	require.NoError(t, err)
	return store, mock, now
}

func TestStoreSetUpsertsRow(t *testing.T) {
	t.Parallel()

	store, mock, now := newMockStore(t)
	expires := now.Add(5 * time.Minute)

	mock.ExpectExec("INSERT INTO scraper_cache").
		WithArgs("app:abc", []byte(`{"id":1}`), &expires).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := store.Set(context.Background(), "app:abc", []byte(`{"id":1}`), 5*time.Minute)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreGetReturnsPayload(t *testing.T) {
	t.Parallel()

	store, mock, now := newMockStore(t)
	mock.ExpectQuery("SELECT payload FROM scraper_cache").
		WithArgs("app:abc", now).
		WillReturnRows(pgxmock.NewRows([]string{"payload"}).AddRow([]byte(`{"id":1}`)))

	got, err := store.Get(context.Background(), "app:abc")
	require.NoError(t, err)
	require.JSONEq(t, `{"id":1}`, string(got))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreGetMiss(t *testing.T) {
	t.Parallel()

	store, mock, now := newMockStore(t)
	mock.ExpectQuery("SELECT payload FROM scraper_cache").
		WithArgs("absent", now).
		WillReturnRows(pgxmock.NewRows([]string{"payload"}))

	_, err := store.Get(context.Background(), "absent")
	require.ErrorIs(t, err, cache.ErrMiss)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreEnsureSchema(t *testing.T) {
	t.Parallel()

	store, mock, _ := newMockStore(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS scraper_cache").
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, store.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewWithPoolRejectsBadTable(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewWithPool(mock, "cache; DROP TABLE users", nil)
	require.ErrorContains(t, err, "invalid table name")

	_, err = NewWithPool(nil, "", nil)
	require.Error(t, err)
}
