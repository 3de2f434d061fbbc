// internal/models/intent.go
package models

// Intent is one of the fixed query intent labels.
type Intent string

const (
	IntentReceiptSearch          Intent = "receipt_search"
	IntentWarrantyQuery          Intent = "warranty_query"
	IntentBudgetAnalysis         Intent = "budget_analysis"
	IntentCategoryClassification Intent = "category_classification"
	IntentDuplicateDetection     Intent = "duplicate_detection"
	IntentTrendAnalysis          Intent = "trend_analysis"
	IntentGeneralSearch          Intent = "general_search"
)

// IntentClassification is the deterministic result of classifying query text.
type IntentClassification struct {
	Primary    Intent         `json:"primary"`
	Secondary  []Intent       `json:"secondary,omitempty"`
	Confidence float64        `json:"confidence"`
	Scores     map[Intent]int `json:"scores,omitempty"`
}
