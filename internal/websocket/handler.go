package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/rentspace/messaging/internal/domain"
	"github.com/rentspace/messaging/internal/observability"
	"github.com/rentspace/messaging/internal/presence"
)

// TokenParser resolves the user id carried by a bearer token.
type TokenParser interface {
	ParseToken(token string) (string, error)
}

// Mirror is the cross-instance presence store. Optional.
type Mirror interface {
	MarkOnline(ctx context.Context, userID string) error
	Refresh(ctx context.Context, userID string) error
	MarkOffline(ctx context.Context, userID string) error
}

type Handler struct {
	registry *presence.Registry
	mirror   Mirror
	tokens   TokenParser
	active   sync.WaitGroup

	HeartbeatInterval time.Duration
}

func NewHandler(registry *presence.Registry, mirror Mirror, tokens TokenParser) *Handler {
	return &Handler{
		registry:          registry,
		mirror:            mirror,
		tokens:            tokens,
		HeartbeatInterval: heartbeatInterval,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := observability.GetLogger(r.Context())

	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	userID, err := h.tokens.ParseToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	userID = domain.NormalizeUserID(userID)
	if userID == "" {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("upgrade error", zap.Error(err))
		return
	}

	session := NewSession(uuid.NewString(), userID, conn, observability.GetLogger(context.Background()))
	h.active.Add(1)
	h.register(session)

	session.Start()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go h.readLoop(session)
}

func (h *Handler) register(s *Session) {
	log := observability.GetLogger(context.Background())

	if old := h.registry.Connect(s.UserID, s); old != nil {
		if prev, ok := old.(*Session); ok {
			prev.CloseWithReason(CloseSessionReplaced, "session_replaced")
		}
	}
	observability.WebSocketConnectionsActive.Set(float64(h.registry.Count()))

	if h.mirror != nil {
		if err := h.mirror.MarkOnline(context.Background(), s.UserID); err != nil {
			log.Error("presence: error marking online", zap.String("user_id", s.UserID), zap.Error(err))
		}
		StartHeartbeat(h.mirror, s.UserID, h.HeartbeatInterval, s.Done(), log)
	}

	log.Info("connected", zap.String("user_id", s.UserID), zap.String("session_id", s.SessionID))
}

func (h *Handler) unregister(s *Session) {
	log := observability.GetLogger(context.Background())

	h.registry.Disconnect(s.UserID, s)
	s.Close()
	observability.WebSocketConnectionsActive.Set(float64(h.registry.Count()))

	// A newer connection may already have taken over; it owns the online key.
	if h.mirror != nil && !h.registry.IsOnline(s.UserID) {
		if err := h.mirror.MarkOffline(context.Background(), s.UserID); err != nil {
			log.Error("presence: error marking offline", zap.String("user_id", s.UserID), zap.Error(err))
		}
	}

	log.Info("disconnected", zap.String("user_id", s.UserID), zap.String("session_id", s.SessionID))
}

func (h *Handler) readLoop(s *Session) {
	defer h.active.Done()
	defer h.unregister(s)

	for {
		if _, _, err := s.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				observability.GetLogger(context.Background()).Warn("read loop error",
					zap.String("user_id", s.UserID), zap.Error(err))
			}
			return
		}
	}
}

// CloseAll closes every live session. Used on shutdown.
func (h *Handler) CloseAll() {
	for _, handle := range h.registry.Snapshot() {
		if s, ok := handle.(*Session); ok {
			s.CloseWithReason(websocket.CloseGoingAway, "server shutting down")
		}
	}
}

// Drain closes every live session and waits until each one has unregistered,
// including its offline presence write, or until ctx is done.
func (h *Handler) Drain(ctx context.Context) error {
	h.CloseAll()

	done := make(chan struct{})
	go func() {
		h.active.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Evict closes a local session after the user connected on another instance.
func (h *Handler) Evict(userID string, handle presence.Handle) {
	if s, ok := handle.(*Session); ok && s.UserID == userID {
		s.CloseWithReason(CloseSessionReplaced, "session_replaced")
	}
}
