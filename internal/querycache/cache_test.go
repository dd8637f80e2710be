package querycache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/richxcame/rider-client/pkg/models"
	"github.com/richxcame/rider-client/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch_LoadsOnceThenHits(t *testing.T) {
	c := New(NewMemoryStore(), time.Minute, nil)
	calls := 0
	load := func(ctx context.Context) ([]models.ViolationType, error) {
		calls++
		return []models.ViolationType{{ID: "v1", Label: "Unsafe driving"}}, nil
	}

	first, err := Fetch(context.Background(), c, "violation-types", load)
	require.NoError(t, err)
	second, err := Fetch(context.Background(), c, "violation-types", load)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestFetch_ErrorsAreNotCached(t *testing.T) {
	c := New(NewMemoryStore(), time.Minute, nil)
	calls := 0
	load := func(ctx context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("backend down")
		}
		return 7, nil
	}

	_, err := Fetch(context.Background(), c, "k", load)
	require.Error(t, err)
	v, err := Fetch(context.Background(), c, "k", load)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestFetch_NilCache(t *testing.T) {
	v, err := Fetch(context.Background(), nil, "k", func(ctx context.Context) (string, error) { return "x", nil })
	require.NoError(t, err)
	assert.Equal(t, "x", v)
}

func TestInvalidate_ByPrefix(t *testing.T) {
	store := NewMemoryStore()
	c := New(store, time.Minute, nil)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, Key("rides", "r1"), []byte(`1`), time.Minute))
	require.NoError(t, store.Set(ctx, Key("rides", "r1", "tip-bounds"), []byte(`1`), time.Minute))
	require.NoError(t, store.Set(ctx, Key("ride-types", "all"), []byte(`1`), time.Minute))

	c.Invalidate(ctx, Key("rides", "r1"))

	_, ok, _ := store.Get(ctx, "rides:r1")
	assert.False(t, ok)
	_, ok, _ = store.Get(ctx, "rides:r1:tip-bounds")
	assert.False(t, ok)
	_, ok, _ = store.Get(ctx, "ride-types:all")
	assert.True(t, ok)
}

func TestInvalidate_LeavesSiblingKeys(t *testing.T) {
	store := NewMemoryStore()
	c := New(store, time.Minute, nil)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, Key("rides", "ab"), []byte(`1`), time.Minute))
	require.NoError(t, store.Set(ctx, Key("rides", "ab", "tip-bounds"), []byte(`1`), time.Minute))
	require.NoError(t, store.Set(ctx, Key("rides", "abc"), []byte(`1`), time.Minute))
	require.NoError(t, store.Set(ctx, Key("rides", "abc", "tip-bounds"), []byte(`1`), time.Minute))

	c.Invalidate(ctx, Key("rides", "ab"))

	_, ok, _ := store.Get(ctx, "rides:ab")
	assert.False(t, ok)
	_, ok, _ = store.Get(ctx, "rides:ab:tip-bounds")
	assert.False(t, ok)
	_, ok, _ = store.Get(ctx, "rides:abc")
	assert.True(t, ok)
	_, ok, _ = store.Get(ctx, "rides:abc:tip-bounds")
	assert.True(t, ok)
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	require.NoError(t, store.Set(context.Background(), "k", []byte("v"), time.Second))

	store.now = func() time.Time { return now.Add(2 * time.Second) }
	_, ok, err := store.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(redis.Wrap(db))
	c := New(store, 30*time.Second, nil)
	ctx := context.Background()

	mock.ExpectGet("rider:qc:violation-types").RedisNil()
	mock.ExpectSet("rider:qc:violation-types", []byte(`["a"]`), 30*time.Second).SetVal("OK")

	v, err := Fetch(ctx, c, "violation-types", func(ctx context.Context) ([]string, error) {
		return []string{"a"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, v)

	mock.ExpectGet("rider:qc:violation-types").SetVal(`["a"]`)
	v, err = Fetch(ctx, c, "violation-types", func(ctx context.Context) ([]string, error) {
		t.Fatal("loader called on hit")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, v)

	mock.ExpectUnlink("rider:qc:rides").SetVal(0)
	mock.ExpectScan(0, "rider:qc:rides:*", 100).SetVal([]string{}, 0)
	c.Invalidate(ctx, "rides")

	assert.NoError(t, mock.ExpectationsWereMet())
}
