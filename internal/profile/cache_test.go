package profile

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newCache(t *testing.T, next Directory) (*CachedDirectory, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return &CachedDirectory{R: client, Next: next}, mr
}

func TestCachedDirectoryFillsOnMiss(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := NewMockDirectory(ctrl)
	cache, mr := newCache(t, next)
	ctx := context.Background()

	next.EXPECT().
		Lookup(gomock.Any(), []string{"alice", "bob"}).
		Return(map[string]Profile{"alice": {UserID: "alice", DisplayName: "Alice"}}, nil).
		Times(1)

	got, err := cache.Lookup(ctx, []string{"alice", "bob"})
	require.NoError(t, err)
	assert.Equal(t, "Alice", got["alice"].DisplayName)
	assert.NotContains(t, got, "bob")
	assert.True(t, mr.Exists("profile:alice"))

	next.EXPECT().
		Lookup(gomock.Any(), []string{"bob"}).
		Return(map[string]Profile{}, nil).
		Times(1)

	got, err = cache.Lookup(ctx, []string{"alice", "bob"})
	require.NoError(t, err)
	assert.Equal(t, "Alice", got["alice"].DisplayName)
}

func TestCachedDirectoryPropagatesBackendError(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := NewMockDirectory(ctrl)
	cache, _ := newCache(t, next)

	next.EXPECT().Lookup(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

	_, err := cache.Lookup(context.Background(), []string{"alice"})
	assert.Error(t, err)
}

func TestCachedDirectoryInvalidate(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache, mr := newCache(t, NewMockDirectory(ctrl))

	require.NoError(t, mr.Set("profile:alice", `{"user_id":"alice"}`))
	require.NoError(t, cache.Invalidate(context.Background(), "alice"))
	assert.False(t, mr.Exists("profile:alice"))
}

func TestFallbackUsesID(t *testing.T) {
	assert.Equal(t, Profile{UserID: "u1", DisplayName: "u1"}, Fallback("u1"))
}
