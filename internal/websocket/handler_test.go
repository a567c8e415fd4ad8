package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentspace/messaging/internal/presence"
)

type tokenAsUser struct{}

func (tokenAsUser) ParseToken(token string) (string, error) {
	if token == "bad" {
		return "", errors.New("bad token")
	}
	return token, nil
}

type recordingMirror struct {
	mu      sync.Mutex
	online  int
	offline int
}

func (m *recordingMirror) MarkOnline(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.online++
	return nil
}

func (m *recordingMirror) Refresh(ctx context.Context, userID string) error { return nil }

func (m *recordingMirror) MarkOffline(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offline++
	return nil
}

func (m *recordingMirror) counts() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online, m.offline
}

func dial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?token=" + token
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return c
}

func TestHandlerRejectsMissingOrBadToken(t *testing.T) {
	h := NewHandler(presence.NewRegistry(), nil, tokenAsUser{})

	for _, target := range []string{"/ws", "/ws?token=bad"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
	}
}

func TestHandlerRegistersAndDelivers(t *testing.T) {
	reg := presence.NewRegistry()
	mirror := &recordingMirror{}
	srv := httptest.NewServer(NewHandler(reg, mirror, tokenAsUser{}))
	defer srv.Close()

	c := dial(t, srv, "alice")
	defer c.Close()

	require.Eventually(t, func() bool { return reg.IsOnline("alice") }, time.Second, 10*time.Millisecond)

	h, ok := reg.Lookup("alice")
	require.True(t, ok)
	require.True(t, h.Push([]byte(`{"type":"new-message"}`)))

	_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
	mt, payload, err := c.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, mt)
	assert.JSONEq(t, `{"type":"new-message"}`, string(payload))

	online, _ := mirror.counts()
	assert.Equal(t, 1, online)
}

func TestHandlerReplacesOlderConnection(t *testing.T) {
	reg := presence.NewRegistry()
	mirror := &recordingMirror{}
	srv := httptest.NewServer(NewHandler(reg, mirror, tokenAsUser{}))
	defer srv.Close()

	first := dial(t, srv, "alice")
	defer first.Close()
	require.Eventually(t, func() bool { return reg.IsOnline("alice") }, time.Second, 10*time.Millisecond)
	h1, _ := reg.Lookup("alice")

	second := dial(t, srv, "alice")
	require.Eventually(t, func() bool {
		h2, ok := reg.Lookup("alice")
		return ok && h2.ID() != h1.ID()
	}, time.Second, 10*time.Millisecond)

	_ = first.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := first.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, CloseSessionReplaced, closeErr.Code)

	// The replaced connection's exit must not evict the newer one.
	time.Sleep(50 * time.Millisecond)
	assert.True(t, reg.IsOnline("alice"))

	second.Close()
	require.Eventually(t, func() bool { return !reg.IsOnline("alice") }, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		_, offline := mirror.counts()
		return offline >= 1
	}, time.Second, 10*time.Millisecond)
}

func TestHandlerDrainWaitsForUnregister(t *testing.T) {
	reg := presence.NewRegistry()
	mirror := &recordingMirror{}
	srv := httptest.NewServer(NewHandler(reg, mirror, tokenAsUser{}))
	defer srv.Close()
	h := srv.Config.Handler.(*Handler)

	alice := dial(t, srv, "alice")
	defer alice.Close()
	bob := dial(t, srv, "bob")
	defer bob.Close()
	require.Eventually(t, func() bool { return reg.Count() == 2 }, time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.Drain(ctx))

	assert.Zero(t, reg.Count())
	_, offline := mirror.counts()
	assert.Equal(t, 2, offline)
}
