// internal/retrieval/source.go

// Package retrieval implements the four evidence sources. Each source issues
// one filtered similarity query, enforces its own threshold and cap, weights
// similarity into relevance, and caches raw results under the short TTL
// class. Source failures are non-fatal by contract: the assembler absorbs
// them and proceeds with whatever succeeded.
package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"finsight-context/internal/cache"
	"finsight-context/internal/common/logger"
	"finsight-context/internal/common/metrics"
	"finsight-context/internal/models"
	"finsight-context/internal/vectorstore"
)

// Per-source relevance thresholds: candidates scoring below are discarded.
const (
	ReceiptThreshold      = 0.65
	WarrantyThreshold     = 0.70
	ConversationThreshold = 0.60
	AnalyticsThreshold    = 0.55
)

// Per-source result caps, independent of the assembler's global cap.
const (
	ReceiptMaxResults      = 8
	WarrantyMaxResults     = 5
	ConversationMaxResults = 7
	AnalyticsMaxResults    = 3
)

// Per-source weights in (0,1]: relevance = similarity * weight, so relevance
// never exceeds similarity.
const (
	ReceiptWeight      = 0.4
	WarrantyWeight     = 0.3
	ConversationWeight = 0.2
	AnalyticsWeight    = 0.1
)

// RetrieveInput carries everything a source needs for one call.
type RetrieveInput struct {
	Vector         []float32
	TenantID       string
	ConversationID string
	Entities       models.EntitySet
	Options        models.QueryOptions
}

// Source is the shared retrieval contract. The assembler iterates the fixed
// enumerated set of sources instead of branching per type.
type Source interface {
	Type() models.SourceType
	Retrieve(ctx context.Context, in RetrieveInput) ([]models.EvidenceItem, error)
}

// sourceParams bundles the fixed per-source constants.
type sourceParams struct {
	sourceType models.SourceType
	threshold  float64
	maxResults int
	weight     float64
}

// deps are the collaborators every vector-backed source shares.
type deps struct {
	vectors vectorstore.Store
	cache   cache.Store
	logger  logger.Logger
}

// retrieveScored is the shared retrieval path: short-TTL cache check, one
// filtered similarity query, threshold filter, cap, weight mapping, cache
// write-back.
func retrieveScored(ctx context.Context, d deps, p sourceParams, in RetrieveInput, filters vectorstore.Filters) ([]models.EvidenceItem, error) {
	threshold := in.Options.Threshold(p.sourceType, p.threshold)
	key := cache.RetrievalKey(in.Vector, in.TenantID, p.sourceType, filterFingerprint(filters, threshold))

	if raw, ok := cache.GetWithMetrics(ctx, d.cache, key, cache.TTLRetrieval); ok {
		var cached []models.EvidenceItem
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
	}

	started := time.Now()
	hits, err := d.vectors.Search(ctx, vectorstore.SearchRequest{
		Vector:   in.Vector,
		TenantID: in.TenantID,
		Category: p.sourceType,
		TopK:     p.maxResults,
		MinScore: threshold,
		Filters:  filters,
	})
	metrics.RetrievalDuration.WithLabelValues(string(p.sourceType)).Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.RetrievalFailures.WithLabelValues(string(p.sourceType)).Inc()
		d.logger.Warn("retrieval source failed", map[string]interface{}{
			"source": string(p.sourceType),
			"error":  err.Error(),
		})
		return nil, err
	}

	items := make([]models.EvidenceItem, 0, len(hits))
	for _, hit := range hits {
		if hit.Score < threshold {
			continue
		}
		if len(items) >= p.maxResults {
			break
		}
		items = append(items, models.EvidenceItem{
			SourceType: p.sourceType,
			SourceID:   hit.ID,
			Similarity: hit.Score,
			Relevance:  hit.Score * p.weight,
			Summary:    hitSummary(hit, p.sourceType),
			Content:    hit.Fields,
			Confidence: hit.Confidence,
			Timestamp:  hit.Timestamp,
		})
	}

	if raw, err := json.Marshal(items); err == nil {
		d.cache.Put(ctx, key, raw, cache.TTLRetrieval)
	}

	return items, nil
}

func hitSummary(hit vectorstore.Hit, sourceType models.SourceType) string {
	if hit.Summary != "" {
		return hit.Summary
	}
	return fmt.Sprintf("%s %s", sourceType, hit.ID)
}

// filterFingerprint renders filters deterministically for cache keys.
func filterFingerprint(f vectorstore.Filters, threshold float64) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "m=%s|c=%s|xe=%t|th=%.4f", f.Merchant, f.Category, f.ExcludeExpired, threshold)
	if f.DateFrom != nil {
		fmt.Fprintf(&sb, "|df=%d", f.DateFrom.Unix())
	}
	if f.DateTo != nil {
		fmt.Fprintf(&sb, "|dt=%d", f.DateTo.Unix())
	}
	if f.AmountMin != nil {
		fmt.Fprintf(&sb, "|am=%.2f", *f.AmountMin)
	}
	if f.AmountMax != nil {
		fmt.Fprintf(&sb, "|ax=%.2f", *f.AmountMax)
	}
	if len(f.ConversationIDs) > 0 {
		fmt.Fprintf(&sb, "|cv=%s", strings.Join(f.ConversationIDs, ","))
	}
	return sb.String()
}

// windowStart converts an approximate month count into a filter start date.
// Months were already coarse (weeks / 4, days / 30), so 30-day months are
// consistent here.
func windowStart(now time.Time, months float64) time.Time {
	return now.Add(-time.Duration(months*30*24) * time.Hour)
}
