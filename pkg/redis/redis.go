// Package redis is the shared query-cache backend for rider client processes.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/richxcame/rider-client/pkg/config"
)

const (
	connectTimeout = 5 * time.Second
	scanBatch      = 100
)

// Client is a go-redis client confined to one key namespace.
type Client struct {
	rdb *redis.Client
	ns  string
}

// NewRedisClient connects to the configured server and pings it.
func NewRedisClient(ctx context.Context, cfg *config.CacheConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.RedisAddr(),
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: connectTimeout,
		// a CLI process needs few connections
		PoolSize: 4,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("unable to connect to redis at %s: %w", cfg.RedisAddr(), err)
	}
	return &Client{rdb: rdb}, nil
}

// Wrap adapts an existing go-redis client (tests use redismock).
func Wrap(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// Namespaced returns a client sharing the connection whose keys are prefixed with ns.
func (c *Client) Namespaced(ns string) *Client {
	return &Client{rdb: c.rdb, ns: c.ns + ns}
}

// Raw exposes the underlying client for health checks.
func (c *Client) Raw() *redis.Client {
	return c.rdb
}

// Get returns the value at key. A missing key is not an error.
func (c *Client) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.rdb.Get(ctx, c.ns+key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}
	return data, true, nil
}

// Set stores value at key for ttl; a zero ttl keeps it until deleted.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, c.ns+key, value, ttl).Err()
}

// Delete unlinks keys and returns how many existed.
func (c *Client) Delete(ctx context.Context, keys ...string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.ns + k
	}
	n, err := c.rdb.Unlink(ctx, full...).Result()
	return int(n), err
}

// PurgePrefix unlinks every key under prefix and returns how many went.
func (c *Client) PurgePrefix(ctx context.Context, prefix string) (int, error) {
	var (
		cursor  uint64
		removed int
		pattern = c.ns + prefix + "*"
	)
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return removed, fmt.Errorf("scan %q: %w", pattern, err)
		}
		if len(keys) > 0 {
			n, err := c.rdb.Unlink(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("unlink %q: %w", pattern, err)
			}
			removed += int(n)
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}

// Close closes the connection pool. Namespaced clients share it.
func (c *Client) Close() error {
	return c.rdb.Close()
}
