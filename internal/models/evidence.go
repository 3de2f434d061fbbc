// internal/models/evidence.go
package models

import "time"

// EvidenceItem is the atomic unit of retrieved context.
// Invariant: Relevance = Similarity * source weight with weight in (0,1],
// so Relevance is always <= Similarity.
type EvidenceItem struct {
	SourceType SourceType             `json:"sourceType"`
	SourceID   string                 `json:"sourceId"`
	Similarity float64                `json:"similarity"`
	Relevance  float64                `json:"relevance"`
	Summary    string                 `json:"summary"`
	Content    map[string]interface{} `json:"content,omitempty"`
	Confidence float64                `json:"confidence"`
	Timestamp  time.Time              `json:"timestamp"`

	// Rank and NormalizedRelevance are assigned by the assembler after
	// diversification; zero until then.
	Rank                int     `json:"rank,omitempty"`
	NormalizedRelevance float64 `json:"normalizedRelevance,omitempty"`
}
