package websocket

import (
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	SendQueueSize = 128
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = (pongWait * 9) / 10

	// CloseSessionReplaced is sent to a connection superseded by a newer one
	// for the same user.
	CloseSessionReplaced = 4000
)

// Session is one live WebSocket connection. It is the handle stored in the
// presence registry.
type Session struct {
	SessionID string
	UserID    string

	Conn      *websocket.Conn
	SendQueue chan []byte
	done      chan struct{}
	closed    atomic.Int32
	log       *zap.Logger
}

func NewSession(id, userID string, conn *websocket.Conn, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		SessionID: id,
		UserID:    userID,
		Conn:      conn,
		SendQueue: make(chan []byte, SendQueueSize),
		done:      make(chan struct{}),
		log:       log,
	}
}

func (s *Session) ID() string { return s.SessionID }

// Push queues payload for the write loop. A full queue means the client is not
// keeping up; the connection is dropped rather than blocking the sender.
func (s *Session) Push(payload []byte) bool {
	return s.TrySend(payload)
}

func (s *Session) Start() {
	go s.writeLoop()
}

func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) TrySend(msg []byte) bool {
	if s.closed.Load() == 1 {
		return false
	}
	select {
	case s.SendQueue <- msg:
		return true
	default:
		s.log.Warn("session: backpressure overflow, dropping connection",
			zap.String("user_id", s.UserID), zap.String("session_id", s.SessionID))
		s.CloseWithReason(websocket.CloseInternalServerErr, "backpressure overflow")
		return false
	}
}

func (s *Session) Close() {
	s.CloseWithReason(websocket.CloseNormalClosure, "server closing")
}

func (s *Session) CloseWithReason(code int, reason string) {
	if !s.closed.CompareAndSwap(0, 1) {
		return
	}

	s.log.Info("session: closing",
		zap.String("user_id", s.UserID), zap.String("session_id", s.SessionID),
		zap.Int("code", code), zap.String("reason", reason))
	close(s.done)

	if s.Conn != nil {
		deadline := time.Now().Add(time.Second)
		_ = s.Conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
		s.Conn.Close()
	}
}

func (s *Session) IsClosed() bool {
	return s.closed.Load() == 1
}

func (s *Session) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.Close()
	}()

	for {
		select {
		case msg := <-s.SendQueue:
			_ = s.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.log.Debug("session: write error", zap.String("user_id", s.UserID), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = s.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.log.Debug("session: ping error", zap.String("user_id", s.UserID), zap.Error(err))
				return
			}
		case <-s.done:
			return
		}
	}
}
