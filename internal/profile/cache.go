package profile

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rentspace/messaging/internal/observability"
)

const cacheTTL = time.Hour

func key(id string) string { return "profile:" + id }

// CachedDirectory fronts another Directory with Redis. Cache failures are
// logged and fall through to the backing directory.
type CachedDirectory struct {
	R    *redis.Client
	Next Directory
}

func (c *CachedDirectory) Lookup(ctx context.Context, userIDs []string) (map[string]Profile, error) {
	log := observability.GetLogger(ctx)
	out := make(map[string]Profile, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = key(id)
	}

	var missing []string
	vals, err := c.R.MGet(ctx, keys...).Result()
	if err != nil {
		log.Warn("profile cache: mget failed", zap.Error(err))
		missing = userIDs
	} else {
		for i, v := range vals {
			s, ok := v.(string)
			if !ok {
				missing = append(missing, userIDs[i])
				continue
			}
			var p Profile
			if err := json.Unmarshal([]byte(s), &p); err != nil {
				missing = append(missing, userIDs[i])
				continue
			}
			out[userIDs[i]] = p
		}
	}

	if len(missing) == 0 {
		return out, nil
	}

	fetched, err := c.Next.Lookup(ctx, missing)
	if err != nil {
		return nil, err
	}
	for id, p := range fetched {
		out[id] = p
		if err := c.set(ctx, p); err != nil {
			log.Warn("profile cache: set failed", zap.String("user_id", id), zap.Error(err))
		}
	}
	return out, nil
}

func (c *CachedDirectory) set(ctx context.Context, p Profile) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.R.Set(ctx, key(p.UserID), b, cacheTTL).Err()
}

// Invalidate drops a cached profile, e.g. after the account service reports a change.
func (c *CachedDirectory) Invalidate(ctx context.Context, id string) error {
	err := c.R.Del(ctx, key(id)).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
