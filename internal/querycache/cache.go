// Package querycache caches backend query results by key and drops them by
// key prefix when a mutation completes.
package querycache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/richxcame/rider-client/pkg/logger"
	"go.uber.org/zap"
)

var cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rider_query_cache_lookups_total",
	Help: "Query cache lookups by result",
}, []string{"result"})

// Separator joins key parts.
const Separator = ":"

// Store is the byte-level backend of the cache. DeletePrefix removes the key
// equal to prefix and every key below it (prefix + Separator + ...), never a
// sibling that merely shares leading characters.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// Cache stores JSON-encoded query results.
type Cache struct {
	store  Store
	ttl    time.Duration
	logger *zap.Logger
}

// New creates a cache over store with a default entry lifetime.
func New(store Store, ttl time.Duration, log *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Cache{store: store, ttl: ttl, logger: logger.OrNop(log)}
}

// Fetch returns the cached value for key, or calls load and caches its result.
// A nil cache always calls load. Store failures degrade to a plain load.
func Fetch[T any](ctx context.Context, c *Cache, key string, load func(ctx context.Context) (T, error)) (T, error) {
	if c == nil {
		return load(ctx)
	}

	if data, ok, err := c.store.Get(ctx, key); err != nil {
		c.logger.Warn("query cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		var cached T
		if err := json.Unmarshal(data, &cached); err == nil {
			cacheLookups.WithLabelValues("hit").Inc()
			return cached, nil
		}
	}
	cacheLookups.WithLabelValues("miss").Inc()

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	if data, err := json.Marshal(value); err == nil {
		if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
			c.logger.Warn("query cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return value, nil
}

// Invalidate drops each given key and every entry below it.
func (c *Cache) Invalidate(ctx context.Context, prefixes ...string) {
	if c == nil {
		return
	}
	for _, p := range prefixes {
		if err := c.store.DeletePrefix(ctx, p); err != nil {
			c.logger.Warn("query cache invalidation failed", zap.String("prefix", p), zap.Error(err))
		}
	}
}

// Key joins parts into a cache key.
func Key(parts ...string) string {
	return strings.Join(parts, Separator)
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if m.now().After(e.expiresAt) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	m.entries[key] = memoryEntry{value: value, expiresAt: m.now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) DeletePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	below := prefix + Separator
	for k := range m.entries {
		if k == prefix || strings.HasPrefix(k, below) {
			delete(m.entries, k)
		}
	}
	m.mu.Unlock()
	return nil
}
