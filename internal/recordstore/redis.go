package recordstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each collection under "<prefix>:<collection>".
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(collection string) string {
	return fmt.Sprintf("%s:%s", s.prefix, collection)
}

func (s *RedisStore) Get(ctx context.Context, collection string) ([]byte, error) {
	if s.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	val, err := s.client.Get(ctx, s.key(collection)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s from redis: %w", collection, err)
	}
	return val, nil
}

func (s *RedisStore) Put(ctx context.Context, collection string, payload []byte) error {
	if s.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := s.client.Set(ctx, s.key(collection), payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s in redis: %w", collection, err)
	}
	return nil
}

// Close is a no-op: the client is shared and closed by its owner.
func (s *RedisStore) Close() error { return nil }
