package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedThing struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func withMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

func TestAsideWithoutClientRunsLoader(t *testing.T) {
	SetClient(nil)

	var got cachedThing
	calls := 0
	err := Aside(context.Background(), "k", &got, TribeTTL, func() error {
		calls++
		got = cachedThing{Name: "owls", Count: 1}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "owls", got.Name)
}

func TestAsideCachesAndInvalidates(t *testing.T) {
	mr := withMiniredis(t)
	ctx := context.Background()
	calls := 0
	load := func(dest *cachedThing) func() error {
		return func() error {
			calls++
			*dest = cachedThing{Name: "owls", Count: calls}
			return nil
		}
	}

	var first cachedThing
	require.NoError(t, Aside(ctx, TribeKey(1), &first, TribeTTL, load(&first)))
	assert.True(t, mr.Exists(TribeKey(1)))

	var second cachedThing
	require.NoError(t, Aside(ctx, TribeKey(1), &second, TribeTTL, load(&second)))
	assert.Equal(t, 1, calls, "second read is a hit")
	assert.Equal(t, first, second)

	InvalidateTribe(ctx, 1)
	var third cachedThing
	require.NoError(t, Aside(ctx, TribeKey(1), &third, TribeTTL, load(&third)))
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, third.Count)
}

func TestAsideLoaderErrorIsNotCached(t *testing.T) {
	mr := withMiniredis(t)
	boom := errors.New("boom")

	var got cachedThing
	err := Aside(context.Background(), "broken", &got, TribeTTL, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("broken"))
}

func TestFeedVersion(t *testing.T) {
	withMiniredis(t)
	ctx := context.Background()

	assert.Zero(t, FeedVersion(ctx, 3))
	BumpFeedVersion(ctx, 3)
	BumpFeedVersion(ctx, 3)
	assert.Equal(t, int64(2), FeedVersion(ctx, 3))
	assert.NotEqual(t, TribeFeedPageKey(3, 1, 0, 10), TribeFeedPageKey(3, 2, 0, 10))
}
