package websocket

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const heartbeatInterval = 20 * time.Second

type refresher interface {
	Refresh(ctx context.Context, userID string) error
}

// StartHeartbeat keeps the user's online key alive in the mirror until done
// is closed.
func StartHeartbeat(r refresher, userID string, interval time.Duration, done <-chan struct{}, log *zap.Logger) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		ctx := context.Background()

		for {
			select {
			case <-ticker.C:
				if err := r.Refresh(ctx, userID); err != nil {
					log.Warn("heartbeat: refresh failed", zap.String("user_id", userID), zap.Error(err))
				}
			case <-done:
				return
			}
		}
	}()
}
