package presence

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMirror(t *testing.T) (*Mirror, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewMirror(client, "inst-1"), mr, client
}

func TestMirror_OnlineOfflineLifecycle(t *testing.T) {
	m, mr, client := newMirror(t)
	ctx := context.Background()
	fixed := time.Unix(1_700_000_000, 0)
	m.now = func() time.Time { return fixed }

	sub := client.Subscribe(ctx, PresenceUpdate)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, m.MarkOnline(ctx, "alice"))
	online, err := m.OnlineAnywhere(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, online)

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	var ev UpdateEvent
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &ev))
	assert.Equal(t, StatusOnline, ev.Status)
	assert.Equal(t, "inst-1", ev.InstanceID)

	require.NoError(t, m.MarkOffline(ctx, "alice"))
	online, err = m.OnlineAnywhere(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, online)

	seen, ok, err := m.LastSeen(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, fixed.Unix(), seen.Unix())

	mr.FastForward(LastSeenTTL + time.Second)
	_, ok, err = m.LastSeen(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMirror_OnlineExpiresWithoutRefresh(t *testing.T) {
	m, mr, _ := newMirror(t)
	ctx := context.Background()

	require.NoError(t, m.MarkOnline(ctx, "bob"))
	mr.FastForward(TTL / 2)
	require.NoError(t, m.Refresh(ctx, "bob"))
	mr.FastForward(TTL / 2)

	online, err := m.OnlineAnywhere(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, online)

	mr.FastForward(TTL + time.Second)
	online, err = m.OnlineAnywhere(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, online)
}

func TestMirror_OfflineKeepsOtherInstanceOwnership(t *testing.T) {
	m1, mr, client := newMirror(t)
	m2 := NewMirror(client, "inst-2")
	ctx := context.Background()

	require.NoError(t, m1.MarkOnline(ctx, "carol"))
	require.NoError(t, m2.MarkOnline(ctx, "carol"))

	require.NoError(t, m1.MarkOffline(ctx, "carol"))
	online, err := m1.OnlineAnywhere(ctx, "carol")
	require.NoError(t, err)
	assert.True(t, online)

	v, err := mr.Get(onlineKey("carol"))
	require.NoError(t, err)
	assert.Equal(t, "inst-2", v)

	require.NoError(t, m2.MarkOffline(ctx, "carol"))
	online, err = m2.OnlineAnywhere(ctx, "carol")
	require.NoError(t, err)
	assert.False(t, online)
}
