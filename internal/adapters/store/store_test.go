package store

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larriantoniy/tg_sales_bot/internal/domain"
	"github.com/larriantoniy/tg_sales_bot/internal/ports"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleSession(userID int64) *domain.Session {
	s := domain.NewSession(userID, userID, time.Now().UTC().Truncate(time.Second))
	s.Preferences.SetAutostart(true)
	s.Preferences.SetControlMode(domain.ControlApp)
	s.Preferences.SetGps(false)
	s.State = domain.StateAwaitingPhone
	s.Recommended = []domain.CatalogItem{{Name: "A", HasAutostart: true, HasAppControl: true, DetailURL: "https://shop.test/a"}}
	return s
}

func exerciseStore(t *testing.T, st ports.SessionStore) {
	ctx := context.Background()

	_, err := st.Get(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	s := sampleSession(1)
	require.NoError(t, st.Save(ctx, s, 0))
	require.NoError(t, st.Save(ctx, sampleSession(2), 0))

	got, err := st.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, domain.StateAwaitingPhone, got.State)
	assert.True(t, got.Preferences.Complete())
	mode, _ := got.Preferences.ControlMode()
	assert.Equal(t, domain.ControlApp, mode)
	assert.Equal(t, s.Recommended, got.Recommended)
	assert.True(t, s.CreatedAt.Equal(got.CreatedAt))

	n, err := st.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, st.Delete(ctx, 1))
	_, err = st.Get(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(testLogger()))
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore(testLogger())
	s := sampleSession(1)
	require.NoError(t, st.Save(ctx, s, 0))

	s.State = domain.StateTerminated
	s.Recommended[0].Name = "changed"

	got, err := st.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.StateAwaitingPhone, got.State)
	assert.Equal(t, "A", got.Recommended[0].Name)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore(testLogger())
	now := time.Now()
	st.now = func() time.Time { return now }

	require.NoError(t, st.Save(ctx, sampleSession(1), time.Minute))
	require.NoError(t, st.Save(ctx, sampleSession(2), 0))

	now = now.Add(2 * time.Minute)
	_, err := st.Get(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	require.NoError(t, st.Save(ctx, sampleSession(3), time.Minute))
	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, st.Sweep())

	n, _ := st.Len(ctx)
	assert.Equal(t, 1, n)
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, NewRedisStore(rdb, "test:session:")
}

func TestRedisStore(t *testing.T) {
	_, st := newRedis(t)
	exerciseStore(t, st)
}

func TestRedisStoreTTL(t *testing.T) {
	ctx := context.Background()
	mr, st := newRedis(t)

	require.NoError(t, st.Save(ctx, sampleSession(7), 10*time.Minute))
	assert.Equal(t, 10*time.Minute, mr.TTL("test:session:7"))

	mr.FastForward(11 * time.Minute)
	_, err := st.Get(ctx, 7)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestRedisStoreCorruptValue(t *testing.T) {
	mr, st := newRedis(t)
	require.NoError(t, mr.Set("test:session:9", "{not json"))

	_, err := st.Get(context.Background(), 9)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSessionNotFound)
}
