// internal/embedding/gateway.go

// Package embedding wraps the embedding provider with caching, timeouts, and
// bounded batch operations. Provider failure is the only fatal condition in
// the whole retrieval pipeline.
package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"finsight-context/internal/cache"
	"finsight-context/internal/common/config"
	apperrors "finsight-context/internal/common/errors"
	"finsight-context/internal/common/logger"
	"finsight-context/internal/common/metrics"
)

// Gateway is the cache-backed front for the embedding provider.
type Gateway struct {
	provider    Provider
	cache       cache.Store
	timeout     time.Duration
	maxInFlight int
	logger      logger.Logger
}

func NewGateway(provider Provider, store cache.Store, cfg config.EmbeddingConfig, log logger.Logger) *Gateway {
	maxInFlight := cfg.MaxInFlight
	if maxInFlight <= 0 {
		maxInFlight = 4
	}
	return &Gateway{
		provider:    provider,
		cache:       store,
		timeout:     cfg.Timeout(),
		maxInFlight: maxInFlight,
		logger:      log.WithFields(map[string]interface{}{"component": "embedding-gateway"}),
	}
}

// Embed returns the vector for text, consulting the long-TTL cache first.
// Provider failure or timeout yields a fatal StandardError wrapping
// ErrEmbeddingUnavailable / ErrEmbeddingTimeout.
func (g *Gateway) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cache.EmbeddingKey(text)

	if raw, ok := cache.GetWithMetrics(ctx, g.cache, key, cache.TTLEmbedding); ok {
		var vec []float32
		if err := json.Unmarshal(raw, &vec); err == nil && len(vec) > 0 {
			return vec, nil
		}
		// Undecodable entry: fall through to the provider and overwrite.
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	vec, err := g.provider.Embed(callCtx, text)
	if err != nil {
		metrics.EmbeddingCalls.WithLabelValues("error").Inc()
		if errors.Is(err, context.DeadlineExceeded) || callCtx.Err() == context.DeadlineExceeded {
			return nil, apperrors.NewEmbeddingTimeoutError()
		}
		return nil, apperrors.NewEmbeddingUnavailableError(err)
	}
	metrics.EmbeddingCalls.WithLabelValues("ok").Inc()

	if raw, err := json.Marshal(vec); err == nil {
		g.cache.Put(ctx, key, raw, cache.TTLEmbedding)
	}

	return vec, nil
}
