// internal/models/entity.go
package models

import "time"

// AmountRange summarizes multiple extracted amounts as a min/max pair.
type AmountRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DateRange bounds a query to an explicit date interval.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// EntitySet holds the optional structured fields extracted from query text.
// Extraction is best-effort: every field may be absent and extraction never
// fails the pipeline.
type EntitySet struct {
	Merchant    string       `json:"merchant,omitempty"`
	Amount      *float64     `json:"amount,omitempty"`
	AmountRange *AmountRange `json:"amountRange,omitempty"`
	Date        *time.Time   `json:"date,omitempty"`
	DateRange   *DateRange   `json:"dateRange,omitempty"`
	Category    string       `json:"category,omitempty"`

	// TimeWindowMonths is the relative time window normalized to an
	// approximate month count (weeks / 4, days / 30). Nil when the query
	// carries no relative time phrase.
	TimeWindowMonths *float64 `json:"timeWindowMonths,omitempty"`
}

// IsEmpty reports whether no entity was extracted at all.
func (e EntitySet) IsEmpty() bool {
	return e.Merchant == "" &&
		e.Amount == nil &&
		e.AmountRange == nil &&
		e.Date == nil &&
		e.DateRange == nil &&
		e.Category == "" &&
		e.TimeWindowMonths == nil
}
