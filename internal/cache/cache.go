// internal/cache/cache.go

// Package cache implements the key/value layer shared by the embedding
// gateway, the retrieval sources, and the assembler. Values are cached under
// one of three TTL classes; the backing store is Redis when reachable and an
// in-process map otherwise. Backends are interchangeable behind Store.
package cache

import (
	"context"
	"time"

	"finsight-context/internal/common/config"
	"finsight-context/internal/common/logger"
)

// TTLClass names a cache expiration policy applied per value category.
type TTLClass string

const (
	TTLEmbedding TTLClass = "embedding" // long
	TTLContext   TTLClass = "context"   // medium
	TTLRetrieval TTLClass = "retrieval" // short
)

// Store is the cache contract. A miss is not an error, and backend failures
// never surface: a failed read is a miss, a failed write is dropped.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Put(ctx context.Context, key string, value []byte, class TTLClass)
	InvalidateAll(ctx context.Context) error
}

// ttlTable resolves a class to its configured duration.
type ttlTable map[TTLClass]time.Duration

func newTTLTable(cfg config.CacheConfig) ttlTable {
	return ttlTable{
		TTLEmbedding: cfg.EmbeddingTTL(),
		TTLContext:   cfg.ContextTTL(),
		TTLRetrieval: cfg.RetrievalTTL(),
	}
}

func (t ttlTable) ttl(class TTLClass) time.Duration {
	if d, ok := t[class]; ok && d > 0 {
		return d
	}
	return 5 * time.Minute
}

// New picks the distributed backend when the ping succeeds and falls back to
// the in-process store otherwise. Callers hold only the Store interface, so
// the choice is invisible upward.
func New(ctx context.Context, cfg config.CacheConfig, redisStore *RedisStore, log logger.Logger) Store {
	if redisStore != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := redisStore.client.Ping(pingCtx).Err(); err == nil {
			log.Info("cache backend: redis", nil)
			return redisStore
		} else {
			log.Warn("redis unavailable, falling back to in-process cache", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	return NewMemoryStore(cfg, log)
}
