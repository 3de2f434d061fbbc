// internal/models/query.go
package models

// SourceType identifies one evidence category.
type SourceType string

const (
	SourceReceipt      SourceType = "receipt"
	SourceWarranty     SourceType = "warranty"
	SourceConversation SourceType = "conversation"
	SourceAnalytics    SourceType = "analytics"
)

// AllSourceTypes lists every source type in its fixed enumeration order.
// Per-type iteration and ranking tie-breaks both depend on this order.
var AllSourceTypes = []SourceType{
	SourceReceipt,
	SourceWarranty,
	SourceConversation,
	SourceAnalytics,
}

// IsValidSourceType reports whether s is a known source type.
func IsValidSourceType(s SourceType) bool {
	for _, t := range AllSourceTypes {
		if t == s {
			return true
		}
	}
	return false
}

// Query is the immutable per-request input to the assembler.
type Query struct {
	Text           string       `json:"text"`
	TenantID       string       `json:"tenantId"`
	ConversationID string       `json:"conversationId,omitempty"`
	Options        QueryOptions `json:"options"`
}

// QueryOptions carries caller overrides for a single assemble call.
type QueryOptions struct {
	ContextTypes   []SourceType           `json:"contextTypes,omitempty"`
	MaxItems       int                    `json:"maxItems,omitempty"`
	IncludeExpired bool                   `json:"includeExpired,omitempty"`
	Thresholds     map[SourceType]float64 `json:"thresholds,omitempty"`
}

// Threshold returns the caller override for a source, or fallback when unset.
func (o QueryOptions) Threshold(source SourceType, fallback float64) float64 {
	if o.Thresholds == nil {
		return fallback
	}
	if v, ok := o.Thresholds[source]; ok {
		return v
	}
	return fallback
}
