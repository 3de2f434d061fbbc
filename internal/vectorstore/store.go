// internal/vectorstore/store.go

// Package vectorstore defines the similarity-search contract the retrieval
// sources depend on, plus the Elasticsearch implementation.
package vectorstore

import (
	"context"
	"time"

	"finsight-context/internal/models"
)

// Filters narrows a similarity query with source-specific metadata.
// Zero values mean "no constraint".
type Filters struct {
	Merchant        string
	Category        string
	DateFrom        *time.Time
	DateTo          *time.Time
	AmountMin       *float64
	AmountMax       *float64
	ConversationIDs []string
	ExcludeExpired  bool
}

// SearchRequest is one filtered similarity query scoped to a tenant and an
// evidence category.
type SearchRequest struct {
	Vector   []float32
	TenantID string
	Category models.SourceType
	TopK     int
	MinScore float64
	Filters  Filters
}

// Hit is one candidate returned by the store, similarity score in [0,1].
type Hit struct {
	ID         string
	Score      float64
	Summary    string
	Fields     map[string]interface{}
	Confidence float64
	Timestamp  time.Time
}

// Store is the similarity store abstraction.
type Store interface {
	Search(ctx context.Context, req SearchRequest) ([]Hit, error)
}
