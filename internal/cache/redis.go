// internal/cache/redis.go
package cache

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"finsight-context/internal/common/config"
	"finsight-context/internal/common/logger"
	"finsight-context/internal/common/metrics"
)

// keyPrefix namespaces every engine key so InvalidateAll never touches
// unrelated data in a shared Redis.
const keyPrefix = "ctxe:"

// RedisStore is the distributed cache backend.
type RedisStore struct {
	client *redis.Client
	ttls   ttlTable
	logger logger.Logger
}

func NewRedisStore(client *redis.Client, cfg config.CacheConfig, log logger.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		ttls:   newTTLTable(cfg),
		logger: log.WithFields(map[string]interface{}{"component": "cache-redis"}),
	}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("redis get failed, treating as miss", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return nil, false
	}
	return val, true
}

func (s *RedisStore) Put(ctx context.Context, key string, value []byte, class TTLClass) {
	if err := s.client.Set(ctx, keyPrefix+key, value, s.ttls.ttl(class)).Err(); err != nil {
		s.logger.Warn("redis set failed, dropping entry", map[string]interface{}{
			"class": string(class),
			"error": err.Error(),
		})
	}
}

// InvalidateAll removes every engine-owned key via prefix scan.
func (s *RedisStore) InvalidateAll(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// GetWithMetrics is Get plus hit/miss counters for one TTL class.
func GetWithMetrics(ctx context.Context, s Store, key string, class TTLClass) ([]byte, bool) {
	val, ok := s.Get(ctx, key)
	if ok {
		metrics.CacheHits.WithLabelValues(string(class)).Inc()
	} else {
		metrics.CacheMisses.WithLabelValues(string(class)).Inc()
	}
	return val, ok
}
