// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "context_cache_hits_total",
			Help: "Total number of cache hits by TTL class",
		},
		[]string{"class"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "context_cache_misses_total",
			Help: "Total number of cache misses by TTL class",
		},
		[]string{"class"},
	)

	RetrievalFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "context_retrieval_failures_total",
			Help: "Total number of non-fatal retrieval source failures",
		},
		[]string{"source"},
	)

	RetrievalDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "context_retrieval_duration_seconds",
			Help: "Duration of per-source retrieval calls in seconds",
		},
		[]string{"source"},
	)

	EmbeddingCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "context_embedding_provider_calls_total",
			Help: "Total number of embedding provider calls by status",
		},
		[]string{"status"},
	)

	AssembleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "context_assemble_duration_seconds",
			Help: "End-to-end duration of context assembly in seconds",
		},
	)

	EvidenceItemsReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "context_evidence_items_returned",
			Help:    "Number of evidence items in a returned bundle",
			Buckets: prometheus.LinearBuckets(0, 5, 11),
		},
	)
)
