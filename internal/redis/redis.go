package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	redisClient "github.com/go-redis/redis/v8"
	"github.com/sukalov/chordbook/internal/users"
)

const sessionsKey = "sessions"

// Config locates the server. A bare host:port URL is reached over TLS as
// the default user with Password.
type Config struct {
	URL      string
	Password string
}

func (c Config) options() (*redisClient.Options, error) {
	raw := c.URL
	if !strings.Contains(raw, "://") {
		raw = fmt.Sprintf("rediss://default:%s@%s", c.Password, c.URL)
	}
	opt, err := redisClient.ParseURL(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	if opt.Password == "" {
		opt.Password = c.Password
	}
	return opt, nil
}

type DBManager struct {
	client *redisClient.Client
}

func NewDBManager(cfg Config) (*DBManager, error) {
	opt, err := cfg.options()
	if err != nil {
		return nil, err
	}
	return &DBManager{client: redisClient.NewClient(opt)}, nil
}

func (redis *DBManager) Ping(ctx context.Context) error {
	return redis.client.Ping(ctx).Err()
}

func (redis *DBManager) Close() error {
	return redis.client.Close()
}

// SetSessions stores every bot session as one JSON blob.
func (redis *DBManager) SetSessions(ctx context.Context, sessions []users.Session) error {
	data, err := json.Marshal(sessions)
	if err != nil {
		return err
	}
	return redis.client.Set(ctx, sessionsKey, data, 0).Err()
}

// GetSessions retrieves the sessions saved by SetSessions.
func (redis *DBManager) GetSessions(ctx context.Context) ([]users.Session, error) {
	data, err := redis.client.Get(ctx, sessionsKey).Bytes()
	if err != nil {
		if err == redisClient.Nil {
			return []users.Session{}, nil
		}
		return nil, err
	}
	var sessions []users.Session
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// IncrementSongCount counts one more opening of songID in chatID.
func (redis *DBManager) IncrementSongCount(ctx context.Context, chatID int64, songID int) error {
	err := redis.client.HIncrBy(ctx, countsKey(chatID), strconv.Itoa(songID), 1).Err()
	if err != nil {
		return fmt.Errorf("failed to increment song count for chat %d and song %d: %w", chatID, songID, err)
	}
	return nil
}

// GetSongCounts returns how often each song was opened in chatID.
func (redis *DBManager) GetSongCounts(ctx context.Context, chatID int64) (map[int]int, error) {
	result := make(map[int]int)
	raw, err := redis.client.HGetAll(ctx, countsKey(chatID)).Result()
	if err != nil {
		if err == redisClient.Nil {
			return result, nil
		}
		return nil, err
	}
	for songID, count := range raw {
		id, err := strconv.Atoi(songID)
		if err != nil {
			continue
		}
		n, err := strconv.Atoi(count)
		if err != nil {
			continue
		}
		result[id] = n
	}
	return result, nil
}

func countsKey(chatID int64) string {
	return "counts:" + strconv.FormatInt(chatID, 10)
}
