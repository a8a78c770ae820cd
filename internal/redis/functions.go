package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisClient "github.com/go-redis/redis/v8"
)

// RenderKey names a cached rendering. The fingerprint changes with every
// edit of the song, so stale entries are never read, only expired.
func RenderKey(fingerprint, view string, transpose int) string {
	return fmt.Sprintf("render:%s:%s:%d", fingerprint, view, transpose)
}

// SetRender caches a rendering for ttl. A zero ttl keeps it forever.
func (redis *DBManager) SetRender(ctx context.Context, key string, parts []string, ttl time.Duration) error {
	data, err := json.Marshal(parts)
	if err != nil {
		return err
	}
	return redis.client.Set(ctx, key, data, ttl).Err()
}

// GetRender returns a cached rendering; ok is false on a miss.
func (redis *DBManager) GetRender(ctx context.Context, key string) (parts []string, ok bool, err error) {
	data, err := redis.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redisClient.Nil {
			return nil, false, nil
		}
		return nil, false, err
	}
	if err := json.Unmarshal(data, &parts); err != nil {
		return nil, false, err
	}
	return parts, true, nil
}
