// internal/cache/memory.go
package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"finsight-context/internal/common/config"
	"finsight-context/internal/common/logger"
)

type memoryEntry struct {
	value     []byte
	storedAt  time.Time
	expiresAt time.Time
}

// MemoryStore is the in-process fallback backend. A background sweep runs on
// the configured interval: expired entries go first, then the oldest stored
// entries until the map fits under maxEntries. Eviction is strict recency by
// store time, not LRU by access.
type MemoryStore struct {
	mu         sync.RWMutex
	entries    map[string]memoryEntry
	ttls       ttlTable
	maxEntries int
	logger     logger.Logger

	now  func() time.Time
	stop chan struct{}
	once sync.Once
}

func NewMemoryStore(cfg config.CacheConfig, log logger.Logger) *MemoryStore {
	s := &MemoryStore{
		entries:    make(map[string]memoryEntry),
		ttls:       newTTLTable(cfg),
		maxEntries: cfg.MaxLocalEntries,
		logger:     log.WithFields(map[string]interface{}{"component": "cache-memory"}),
		now:        time.Now,
		stop:       make(chan struct{}),
	}

	interval := cfg.SweepInterval()
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go s.sweepLoop(interval)

	return s
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || s.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.value, true
}

func (s *MemoryStore) Put(_ context.Context, key string, value []byte, class TTLClass) {
	now := s.now()
	s.mu.Lock()
	s.entries[key] = memoryEntry{
		value:     value,
		storedAt:  now,
		expiresAt: now.Add(s.ttls.ttl(class)),
	}
	s.mu.Unlock()
}

func (s *MemoryStore) InvalidateAll(_ context.Context) error {
	s.mu.Lock()
	s.entries = make(map[string]memoryEntry)
	s.mu.Unlock()
	return nil
}

// Close stops the background sweep. Safe to call more than once.
func (s *MemoryStore) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *MemoryStore) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

// sweep evicts expired entries, then the oldest remaining entries until the
// map is back under maxEntries.
func (s *MemoryStore) sweep() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	expired := 0
	for key, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, key)
			expired++
		}
	}

	evicted := 0
	if s.maxEntries > 0 && len(s.entries) > s.maxEntries {
		type aged struct {
			key      string
			storedAt time.Time
		}
		byAge := make([]aged, 0, len(s.entries))
		for key, entry := range s.entries {
			byAge = append(byAge, aged{key: key, storedAt: entry.storedAt})
		}
		sort.Slice(byAge, func(i, j int) bool {
			return byAge[i].storedAt.Before(byAge[j].storedAt)
		})

		overflow := len(s.entries) - s.maxEntries
		for _, candidate := range byAge[:overflow] {
			delete(s.entries, candidate.key)
			evicted++
		}
	}

	if expired > 0 || evicted > 0 {
		s.logger.Debug("cache sweep completed", map[string]interface{}{
			"expired":   expired,
			"evicted":   evicted,
			"remaining": len(s.entries),
		})
	}
}

// Len reports the current entry count.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
