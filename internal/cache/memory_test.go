// internal/cache/memory_test.go
package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"finsight-context/internal/common/config"
	"finsight-context/internal/common/logger"
)

// ==========================
// Test Helper Functions
// ==========================

func testCacheConfig() config.CacheConfig {
	return config.CacheConfig{
		EmbeddingTTLSeconds: 86400,
		ContextTTLSeconds:   900,
		RetrievalTTLSeconds: 300,
		MaxLocalEntries:     100,
		SweepIntervalSec:    3600, // keep the background sweep out of the way
	}
}

func newTestMemoryStore(t *testing.T, cfg config.CacheConfig) *MemoryStore {
	t.Helper()
	s := NewMemoryStore(cfg, logger.NewTestLogger(t))
	t.Cleanup(s.Close)
	return s
}

// ==========================
// Core Functionality Tests
// ==========================

func TestMemoryStore_PutGet(t *testing.T) {
	s := newTestMemoryStore(t, testCacheConfig())
	ctx := context.Background()

	s.Put(ctx, "k1", []byte("v1"), TTLEmbedding)

	val, ok := s.Get(ctx, "k1")
	assert.True(t, ok)
	assert.Equal(t, []byte("v1"), val)

	_, ok = s.Get(ctx, "missing")
	assert.False(t, ok)
}

func TestMemoryStore_TTLClassExpiry(t *testing.T) {
	s := newTestMemoryStore(t, testCacheConfig())
	ctx := context.Background()

	base := time.Now()
	s.now = func() time.Time { return base }

	s.Put(ctx, "emb", []byte("x"), TTLEmbedding) // 24h
	s.Put(ctx, "ctx", []byte("x"), TTLContext)   // 15m
	s.Put(ctx, "ret", []byte("x"), TTLRetrieval) // 5m

	// Just past the short TTL: only the retrieval entry expires.
	s.now = func() time.Time { return base.Add(5*time.Minute + time.Second) }

	_, ok := s.Get(ctx, "emb")
	assert.True(t, ok)
	_, ok = s.Get(ctx, "ctx")
	assert.True(t, ok)
	_, ok = s.Get(ctx, "ret")
	assert.False(t, ok, "retrieval entry should be expired")

	// Past the medium TTL: context expires too, embedding survives.
	s.now = func() time.Time { return base.Add(16 * time.Minute) }

	_, ok = s.Get(ctx, "emb")
	assert.True(t, ok)
	_, ok = s.Get(ctx, "ctx")
	assert.False(t, ok)
}

func TestMemoryStore_SweepRemovesExpired(t *testing.T) {
	s := newTestMemoryStore(t, testCacheConfig())
	ctx := context.Background()

	base := time.Now()
	s.now = func() time.Time { return base }

	s.Put(ctx, "short", []byte("x"), TTLRetrieval)
	s.Put(ctx, "long", []byte("x"), TTLEmbedding)
	assert.Equal(t, 2, s.Len())

	s.now = func() time.Time { return base.Add(10 * time.Minute) }
	s.sweep()

	assert.Equal(t, 1, s.Len())
	_, ok := s.Get(ctx, "long")
	assert.True(t, ok)
}

func TestMemoryStore_SweepEvictsOldestOverLimit(t *testing.T) {
	cfg := testCacheConfig()
	cfg.MaxLocalEntries = 3
	s := newTestMemoryStore(t, cfg)
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 5; i++ {
		tick := base.Add(time.Duration(i) * time.Second)
		s.now = func() time.Time { return tick }
		s.Put(ctx, fmt.Sprintf("k%d", i), []byte("x"), TTLEmbedding)
	}

	s.now = func() time.Time { return base.Add(10 * time.Second) }
	s.sweep()

	assert.Equal(t, 3, s.Len())

	// The two oldest entries go first.
	_, ok := s.Get(ctx, "k0")
	assert.False(t, ok)
	_, ok = s.Get(ctx, "k1")
	assert.False(t, ok)
	_, ok = s.Get(ctx, "k4")
	assert.True(t, ok)
}

func TestMemoryStore_InvalidateAll(t *testing.T) {
	s := newTestMemoryStore(t, testCacheConfig())
	ctx := context.Background()

	s.Put(ctx, "a", []byte("x"), TTLContext)
	s.Put(ctx, "b", []byte("x"), TTLContext)

	assert.NoError(t, s.InvalidateAll(ctx))
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_CloseIsIdempotent(t *testing.T) {
	s := NewMemoryStore(testCacheConfig(), logger.NewNoOpLogger())
	s.Close()
	s.Close()
}
