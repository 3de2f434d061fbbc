// internal/retrieval/analytics.go
package retrieval

import (
	"context"
	"time"

	"finsight-context/internal/cache"
	"finsight-context/internal/common/logger"
	"finsight-context/internal/models"
	"finsight-context/internal/storage"
	"finsight-context/internal/vectorstore"
)

const defaultInsightWindowMonths = 3

// AnalyticsSource retrieves spending-analytics evidence: one similarity query
// over stored insight documents plus one spending aggregation call that is
// folded into the evidence payloads. The aggregation is an enrichment; when
// it fails the vector hits still come back.
type AnalyticsSource struct {
	deps     deps
	params   sourceParams
	insights *storage.InsightStore
	now      func() time.Time
}

func NewAnalyticsSource(vectors vectorstore.Store, store cache.Store, insights *storage.InsightStore, log logger.Logger) *AnalyticsSource {
	return &AnalyticsSource{
		deps: deps{
			vectors: vectors,
			cache:   store,
			logger:  log.WithFields(map[string]interface{}{"source": string(models.SourceAnalytics)}),
		},
		params: sourceParams{
			sourceType: models.SourceAnalytics,
			threshold:  AnalyticsThreshold,
			maxResults: AnalyticsMaxResults,
			weight:     AnalyticsWeight,
		},
		insights: insights,
		now:      time.Now,
	}
}

func (s *AnalyticsSource) Type() models.SourceType {
	return models.SourceAnalytics
}

func (s *AnalyticsSource) Retrieve(ctx context.Context, in RetrieveInput) ([]models.EvidenceItem, error) {
	var filters vectorstore.Filters
	windowMonths := defaultInsightWindowMonths
	if in.Entities.TimeWindowMonths != nil {
		from := windowStart(s.now(), *in.Entities.TimeWindowMonths)
		filters.DateFrom = &from
		if m := int(*in.Entities.TimeWindowMonths + 0.5); m >= 1 {
			windowMonths = m
		}
	}

	items, err := retrieveScored(ctx, s.deps, s.params, in, filters)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 || s.insights == nil {
		return items, nil
	}

	insight, err := s.insights.SpendingInsight(ctx, in.TenantID, windowMonths)
	if err != nil {
		s.deps.logger.Warn("spending insight aggregation failed", map[string]interface{}{
			"error": err.Error(),
		})
		return items, nil
	}

	for i := range items {
		if items[i].Content == nil {
			items[i].Content = make(map[string]interface{})
		}
		items[i].Content["spendingInsight"] = insight
	}
	return items, nil
}
