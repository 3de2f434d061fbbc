// internal/vectorstore/elasticsearch.go
package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	apperrors "finsight-context/internal/common/errors"
	"finsight-context/internal/common/logger"
)

// ElasticsearchStore implements Store over one index per evidence category
// (<prefix>-receipt, <prefix>-warranty, ...). Documents carry an "embedding"
// dense_vector with cosine similarity, so kNN scores land in [0,1].
type ElasticsearchStore struct {
	client      *elasticsearch.Client
	indexPrefix string
	logger      logger.Logger
}

func NewElasticsearchStore(client *elasticsearch.Client, indexPrefix string, log logger.Logger) *ElasticsearchStore {
	return &ElasticsearchStore{
		client:      client,
		indexPrefix: indexPrefix,
		logger:      log.WithFields(map[string]interface{}{"component": "vectorstore"}),
	}
}

func (s *ElasticsearchStore) Search(ctx context.Context, req SearchRequest) ([]Hit, error) {
	queryBody := buildKNNQuery(req)
	body, err := json.Marshal(queryBody)
	if err != nil {
		return nil, apperrors.NewVectorSearchFailedError(string(req.Category), err)
	}

	index := fmt.Sprintf("%s-%s", s.indexPrefix, req.Category)
	searchReq := esapi.SearchRequest{
		Index: []string{index},
		Body:  strings.NewReader(string(body)),
	}

	res, err := searchReq.Do(ctx, s.client)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, apperrors.NewVectorSearchTimeoutError(string(req.Category))
		}
		return nil, apperrors.NewVectorSearchFailedError(string(req.Category), err)
	}
	defer res.Body.Close()

	if res.IsError() {
		payload, _ := io.ReadAll(res.Body)
		return nil, apperrors.NewVectorSearchFailedError(string(req.Category),
			fmt.Errorf("search status %s: %s", res.Status(), string(payload)))
	}

	hits, err := decodeHits(res.Body)
	if err != nil {
		return nil, apperrors.NewMalformedResponseError(string(req.Category), err)
	}
	return hits, nil
}

// buildKNNQuery assembles the kNN body with tenant scoping and metadata
// filters. min_score is applied store-side as a first pass; sources still
// enforce their own threshold on the returned candidates.
func buildKNNQuery(req SearchRequest) map[string]interface{} {
	filterClauses := []interface{}{
		map[string]interface{}{
			"term": map[string]interface{}{"tenant_id": req.TenantID},
		},
	}

	f := req.Filters
	if f.Merchant != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"merchant.keyword": f.Merchant},
		})
	}
	if f.Category != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"category": f.Category},
		})
	}
	if f.DateFrom != nil || f.DateTo != nil {
		dateRange := map[string]interface{}{}
		if f.DateFrom != nil {
			dateRange["gte"] = f.DateFrom.Format(time.RFC3339)
		}
		if f.DateTo != nil {
			dateRange["lte"] = f.DateTo.Format(time.RFC3339)
		}
		filterClauses = append(filterClauses, map[string]interface{}{
			"range": map[string]interface{}{"date": dateRange},
		})
	}
	if f.AmountMin != nil || f.AmountMax != nil {
		amountRange := map[string]interface{}{}
		if f.AmountMin != nil {
			amountRange["gte"] = *f.AmountMin
		}
		if f.AmountMax != nil {
			amountRange["lte"] = *f.AmountMax
		}
		filterClauses = append(filterClauses, map[string]interface{}{
			"range": map[string]interface{}{"amount": amountRange},
		})
	}
	if len(f.ConversationIDs) > 0 {
		filterClauses = append(filterClauses, map[string]interface{}{
			"terms": map[string]interface{}{"conversation_id": f.ConversationIDs},
		})
	}
	if f.ExcludeExpired {
		filterClauses = append(filterClauses, map[string]interface{}{
			"range": map[string]interface{}{
				"expires_at": map[string]interface{}{"gte": "now"},
			},
		})
	}

	topK := req.TopK
	if topK <= 0 {
		topK = 10
	}

	body := map[string]interface{}{
		"knn": map[string]interface{}{
			"field":          "embedding",
			"query_vector":   req.Vector,
			"k":              topK,
			"num_candidates": topK * 10,
			"filter":         filterClauses,
		},
		"size": topK,
	}
	if req.MinScore > 0 {
		body["min_score"] = req.MinScore
	}
	return body
}

// ==========================
// Response Decoding
// ==========================

type searchEnvelope struct {
	Hits struct {
		Hits []struct {
			ID     string                 `json:"_id"`
			Score  float64                `json:"_score"`
			Source map[string]interface{} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func decodeHits(body io.Reader) ([]Hit, error) {
	var envelope searchEnvelope
	if err := json.NewDecoder(body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	hits := make([]Hit, 0, len(envelope.Hits.Hits))
	for _, raw := range envelope.Hits.Hits {
		hit := Hit{
			ID:     raw.ID,
			Score:  clamp01(raw.Score),
			Fields: raw.Source,
		}
		if summary, ok := raw.Source["summary"].(string); ok {
			hit.Summary = summary
		}
		if confidence, ok := raw.Source["confidence"].(float64); ok {
			hit.Confidence = confidence
		}
		if tsRaw, ok := raw.Source["date"].(string); ok {
			if ts, err := time.Parse(time.RFC3339, tsRaw); err == nil {
				hit.Timestamp = ts
			}
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
