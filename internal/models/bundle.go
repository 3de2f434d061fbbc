// internal/models/bundle.go
package models

import "time"

// Context strength labels for the bundle summary.
const (
	StrengthHigh   = "high"
	StrengthMedium = "medium"
	StrengthLow    = "low"
)

// BundleSummary describes the retrieved evidence in aggregate.
type BundleSummary struct {
	Counts        map[SourceType]int `json:"counts"`
	MeanRelevance float64            `json:"meanRelevance"`
	Strength      string             `json:"strength"`
}

// ContextBundle is the assembler's output: the classified query plus the
// ranked, diversity-constrained evidence list. Bundles are never mutated
// after creation; a newer bundle supersedes an expired one in the cache.
type ContextBundle struct {
	ID        string               `json:"id"`
	Query     Query                `json:"query"`
	Intent    IntentClassification `json:"intent"`
	Entities  EntitySet            `json:"entities"`
	Items     []EvidenceItem       `json:"items"`
	Summary   BundleSummary        `json:"summary"`
	CreatedAt time.Time            `json:"createdAt"`
}
