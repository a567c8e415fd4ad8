package presence

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rentspace/messaging/internal/observability"
)

// Watcher follows presence transitions published by every instance. When a
// user connects on another instance while also connected here, the local
// connection is handed to OnTakeover so that only the newest connection
// keeps receiving events.
type Watcher struct {
	client     *redis.Client
	registry   *Registry
	instanceID string

	OnTakeover func(userID string, h Handle)
}

func NewWatcher(client *redis.Client, registry *Registry, instanceID string, onTakeover func(userID string, h Handle)) *Watcher {
	return &Watcher{
		client:     client,
		registry:   registry,
		instanceID: instanceID,
		OnTakeover: onTakeover,
	}
}

// Start subscribes and processes updates until ctx is canceled. It returns
// once the subscription is confirmed.
func (w *Watcher) Start(ctx context.Context) error {
	pubsub := w.client.Subscribe(ctx, PresenceUpdate)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}

	go func() {
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev UpdateEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					observability.GetLogger(ctx).Error("presence watcher: error unmarshaling event", zap.Error(err))
					continue
				}
				w.handle(ctx, ev)
			}
		}
	}()
	return nil
}

func (w *Watcher) handle(ctx context.Context, ev UpdateEvent) {
	if ev.InstanceID == w.instanceID || ev.Status != StatusOnline {
		return
	}

	h, ok := w.registry.Lookup(ev.UserID)
	if !ok {
		return
	}

	// A delayed event must not evict a session that reconnected here after it.
	owner, err := w.client.Get(ctx, onlineKey(ev.UserID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		observability.GetLogger(ctx).Error("presence watcher: error reading owner",
			zap.String("user_id", ev.UserID), zap.Error(err))
		return
	}
	if owner != ev.InstanceID {
		return
	}

	observability.GetLogger(ctx).Info("presence watcher: user connected on another instance",
		zap.String("user_id", ev.UserID), zap.String("instance_id", ev.InstanceID))
	if w.OnTakeover != nil {
		w.OnTakeover(ev.UserID, h)
	}
}
