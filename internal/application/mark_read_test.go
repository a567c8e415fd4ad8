package application

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentspace/messaging/internal/domain"
)

func TestMarkReadNotFoundCases(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id := f.send(t, "alice", "bob", "hello")

	_, err := f.svc.MarkRead(ctx, id, "carol")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.MarkRead(ctx, "missing", "bob")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	msg, err := f.svc.MarkRead(ctx, id, "bob")
	require.NoError(t, err)
	assert.True(t, msg.IsRead)

	_, err = f.svc.MarkRead(ctx, id, "bob")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMarkAllReadEndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.send(t, "alice", "bob", "one")
	f.send(t, "alice", "bob", "two")
	lastID := f.send(t, "alice", "bob", "three")

	convs, err := f.svc.ListConversations(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, "alice", convs[0].Peer.UserID)
	assert.Equal(t, 3, convs[0].UnreadCount)
	assert.Equal(t, lastID, convs[0].LastMessage.ID)

	n, err := f.svc.MarkAllRead(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	convs, err = f.svc.ListConversations(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, 0, convs[0].UnreadCount)
	assert.Equal(t, lastID, convs[0].LastMessage.ID)

	n, err = f.svc.MarkAllRead(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestMarkAllReadNotifiesSender(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.connect("alice")

	f.send(t, "alice", "bob", "one")
	f.send(t, "alice", "bob", "two")

	_, err := f.svc.MarkAllRead(ctx, "alice", "bob")
	require.NoError(t, err)

	events := alice.events(t)
	require.Len(t, events, 1)
	assert.Equal(t, string(domain.EventMessagesRead), events[0].Type)

	var payload domain.MessagesReadPayload
	require.NoError(t, json.Unmarshal(events[0].Payload, &payload))
	assert.Equal(t, "bob", payload.ReaderID)
	assert.EqualValues(t, 2, payload.Count)

	// Nothing left to read: no second receipt.
	_, err = f.svc.MarkAllRead(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Len(t, alice.events(t), 1)
}
