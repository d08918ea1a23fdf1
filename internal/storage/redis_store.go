package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the marker in a single redis key.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore uses key "<prefix>:last_update".
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "dsda"
	}
	return &RedisStore{client: client, key: fmt.Sprintf("%s:%s", prefix, markerKey)}
}

func (s *RedisStore) Load(ctx context.Context) (string, bool, error) {
	v, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	return v, v != "", nil
}

func (s *RedisStore) Save(ctx context.Context, marker string) error {
	if err := s.client.Set(ctx, s.key, marker, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
