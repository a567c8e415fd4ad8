package presence

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	TTL            = 60 * time.Second
	LastSeenTTL    = 30 * 24 * time.Hour
	PresenceUpdate = "presence:updates"
)

type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
)

type UpdateEvent struct {
	UserID     string `json:"user_id"`
	Status     Status `json:"status"`
	InstanceID string `json:"instance_id"`
	OccurredAt int64  `json:"occurred_at"`
}

// Mirror publishes presence to Redis so other instances and services can see
// who is online and when a user was last seen. The in-process Registry stays
// the source of truth for delivery.
type Mirror struct {
	client     *redis.Client
	instanceID string
	now        func() time.Time
}

func NewMirror(client *redis.Client, instanceID string) *Mirror {
	return &Mirror{client: client, instanceID: instanceID, now: time.Now}
}

func onlineKey(userID string) string {
	return "presence:online:" + userID
}

func lastSeenKey(userID string) string {
	return "presence:lastseen:" + userID
}

func (m *Mirror) MarkOnline(ctx context.Context, userID string) error {
	pipe := m.client.TxPipeline()
	pipe.Set(ctx, onlineKey(userID), m.instanceID, TTL)
	pipe.Set(ctx, lastSeenKey(userID), m.now().Unix(), LastSeenTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	return m.publish(ctx, userID, StatusOnline)
}

func (m *Mirror) Refresh(ctx context.Context, userID string) error {
	pipe := m.client.TxPipeline()
	pipe.Expire(ctx, onlineKey(userID), TTL)
	pipe.Set(ctx, lastSeenKey(userID), m.now().Unix(), LastSeenTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// releaseScript deletes the online key only when this instance still owns
// it, so a user who reconnected elsewhere is not marked offline.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (m *Mirror) MarkOffline(ctx context.Context, userID string) error {
	released, err := releaseScript.Run(ctx, m.client, []string{onlineKey(userID)}, m.instanceID).Int()
	if err != nil {
		return err
	}
	if err := m.client.Set(ctx, lastSeenKey(userID), m.now().Unix(), LastSeenTTL).Err(); err != nil {
		return err
	}
	if released == 0 {
		return nil
	}
	return m.publish(ctx, userID, StatusOffline)
}

func (m *Mirror) InstanceID() string {
	return m.instanceID
}

// OnlineAnywhere reports whether any instance holds a live connection for userID.
func (m *Mirror) OnlineAnywhere(ctx context.Context, userID string) (bool, error) {
	n, err := m.client.Exists(ctx, onlineKey(userID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (m *Mirror) LastSeen(ctx context.Context, userID string) (time.Time, bool, error) {
	v, err := m.client.Get(ctx, lastSeenKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	unix, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, false, err
	}
	return time.Unix(unix, 0), true, nil
}

func (m *Mirror) Ping(ctx context.Context) error {
	return m.client.Ping(ctx).Err()
}

func (m *Mirror) publish(ctx context.Context, userID string, status Status) error {
	payload, err := json.Marshal(UpdateEvent{
		UserID:     userID,
		Status:     status,
		InstanceID: m.instanceID,
		OccurredAt: m.now().Unix(),
	})
	if err != nil {
		return err
	}
	return m.client.Publish(ctx, PresenceUpdate, payload).Err()
}
