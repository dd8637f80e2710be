package querycache

import (
	"context"
	"time"

	"github.com/richxcame/rider-client/pkg/redis"
)

const redisNamespace = "rider:qc:"

// RedisStore keeps cache entries in Redis so several client processes share them.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore scopes client to the query cache namespace.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client.Namespaced(redisNamespace)}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.client.Get(ctx, key)
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl)
}

func (s *RedisStore) DeletePrefix(ctx context.Context, prefix string) error {
	if _, err := s.client.Delete(ctx, prefix); err != nil {
		return err
	}
	_, err := s.client.PurgePrefix(ctx, prefix+Separator)
	return err
}
