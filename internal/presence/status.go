package presence

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/rentspace/messaging/internal/observability"
)

// StatusReader answers "is this user online, and how should that be shown".
// Mirror may be nil, in which case only local connections are considered.
type StatusReader struct {
	Registry *Registry
	Mirror   *Mirror
	Now      func() time.Time
}

func (s *StatusReader) Status(ctx context.Context, userID string) (bool, string) {
	if s.Registry.IsOnline(userID) {
		return true, Label(true, time.Time{}, false, time.Time{})
	}
	if s.Mirror == nil {
		return false, Label(false, time.Time{}, false, time.Time{})
	}

	log := observability.GetLogger(ctx)
	online, err := s.Mirror.OnlineAnywhere(ctx, userID)
	if err != nil {
		log.Warn("presence: mirror lookup failed", zap.String("user_id", userID), zap.Error(err))
	}
	if online {
		return true, Label(true, time.Time{}, false, time.Time{})
	}

	seen, ok, err := s.Mirror.LastSeen(ctx, userID)
	if err != nil {
		log.Warn("presence: last seen lookup failed", zap.String("user_id", userID), zap.Error(err))
	}
	return false, Label(false, seen, ok, s.now())
}

func (s *StatusReader) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Label renders the live-status text shown next to a conversation peer.
func Label(online bool, lastSeen time.Time, known bool, now time.Time) string {
	switch {
	case online:
		return string(StatusOnline)
	case known:
		return "last seen " + humanize.RelTime(lastSeen, now, "ago", "from now")
	default:
		return string(StatusOffline)
	}
}
