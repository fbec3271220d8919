package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps transcripts in a Redis list per session, so history
// survives restarts and is shared across instances.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	log       *slog.Logger
}

// RedisStoreConfig configures a RedisStore.
type RedisStoreConfig struct {
	Client    *redis.Client
	KeyPrefix string        // default "transcript:"
	TTL       time.Duration // default 24h, refreshed on append
	Logger    *slog.Logger
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(cfg RedisStoreConfig) *RedisStore {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "transcript:"
	}
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &RedisStore{
		client:    cfg.Client,
		keyPrefix: cfg.KeyPrefix,
		ttl:       cfg.TTL,
		log:       cfg.Logger,
	}
}

func (s *RedisStore) key(sessionID string) string {
	return s.keyPrefix + sessionID
}

func (s *RedisStore) Append(ctx context.Context, sessionID string, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}

	values := make([]interface{}, 0, len(entries))
	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal transcript entry: %w", err)
		}
		values = append(values, string(data))
	}

	key := s.key(sessionID)
	pipe := s.client.Pipeline()
	pipe.RPush(ctx, key, values...)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Error("Transcript append failed", "session", sessionID, "error", err)
		return fmt.Errorf("redis pipeline: %w", err)
	}

	s.log.Debug("Transcript entries appended", "session", sessionID, "count", len(entries))
	return nil
}

func (s *RedisStore) All(ctx context.Context, sessionID string) ([]Entry, error) {
	raw, err := s.client.LRange(ctx, s.key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis LRANGE: %w", err)
	}

	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			// A corrupt element should not hide the rest of the history.
			s.log.Warn("Skipping unreadable transcript entry", "session", sessionID, "error", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *RedisStore) Reset(ctx context.Context, sessionID string) error {
	s.log.Info("Transcript reset", "session", sessionID)
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis DEL: %w", err)
	}
	return nil
}
