package presence

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherHandsOverOnRemoteConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	reg := NewRegistry()
	local := &fakeHandle{id: "local"}
	reg.Connect("alice", local)

	var mu sync.Mutex
	var taken []string
	w := NewWatcher(client, reg, "inst-1", func(userID string, h Handle) {
		mu.Lock()
		defer mu.Unlock()
		taken = append(taken, userID+"/"+h.ID())
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	self := NewMirror(client, "inst-1")
	remote := NewMirror(client, "inst-2")

	// Own transitions and users not connected here are ignored.
	require.NoError(t, self.MarkOnline(ctx, "alice"))
	require.NoError(t, remote.MarkOnline(ctx, "bob"))
	require.NoError(t, remote.MarkOnline(ctx, "alice"))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(taken) == 1
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{"alice/local"}, taken)
	mu.Unlock()
}

func TestWatcherIgnoresStaleRemoteConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	reg := NewRegistry()
	reg.Connect("alice", &fakeHandle{id: "newest-local"})
	reg.Connect("carol", &fakeHandle{id: "carol-local"})

	var mu sync.Mutex
	var taken []string
	w := NewWatcher(client, reg, "inst-1", func(userID string, h Handle) {
		mu.Lock()
		defer mu.Unlock()
		taken = append(taken, userID+"/"+h.ID())
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	// alice reconnected here after her inst-2 connect was announced.
	require.NoError(t, NewMirror(client, "inst-1").MarkOnline(ctx, "alice"))
	stale, err := json.Marshal(UpdateEvent{UserID: "alice", Status: StatusOnline, InstanceID: "inst-2"})
	require.NoError(t, err)
	require.NoError(t, client.Publish(ctx, PresenceUpdate, stale).Err())

	require.NoError(t, NewMirror(client, "inst-2").MarkOnline(ctx, "carol"))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(taken) > 0
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{"carol/carol-local"}, taken)
	mu.Unlock()
}
