package application

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rentspace/messaging/internal/dispatcher"
	"github.com/rentspace/messaging/internal/presence"
	badgerstore "github.com/rentspace/messaging/internal/repository/badger"
)

type recordingHandle struct {
	id string

	mu     sync.Mutex
	frames [][]byte
}

func (h *recordingHandle) ID() string { return h.id }

func (h *recordingHandle) Push(payload []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frames = append(h.frames, payload)
	return true
}

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func (h *recordingHandle) events(t *testing.T) []frame {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]frame, 0, len(h.frames))
	for _, raw := range h.frames {
		var f frame
		require.NoError(t, json.Unmarshal(raw, &f))
		out = append(out, f)
	}
	return out
}

type fixture struct {
	svc      *Service
	registry *presence.Registry
	clock    *stepClock
}

// stepClock returns a strictly increasing time on every call.
type stepClock struct {
	mu  sync.Mutex
	cur time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(time.Second)
	return c.cur
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, err := badgerstore.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	reg := presence.NewRegistry()
	svc := New(Deps{
		Store:    store,
		Notifier: dispatcher.New(reg),
		Presence: reg,
		Status:   &presence.StatusReader{Registry: reg},
	})

	clock := &stepClock{cur: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	svc.now = clock.Now

	return &fixture{svc: svc, registry: reg, clock: clock}
}

func (f *fixture) connect(userID string) *recordingHandle {
	h := &recordingHandle{id: userID + "-session"}
	f.registry.Connect(userID, h)
	return h
}

func (f *fixture) send(t *testing.T, from, to, body string) string {
	t.Helper()
	msg, err := f.svc.SendMessage(context.Background(), SendMessageCommand{
		SenderID: from, ReceiverID: to, Body: body,
	})
	require.NoError(t, err)
	return msg.ID
}
