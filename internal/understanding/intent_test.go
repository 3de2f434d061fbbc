// internal/understanding/intent_test.go
package understanding

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"finsight-context/internal/models"
)

// ==========================
// Core Functionality Tests
// ==========================

func TestClassify(t *testing.T) {
	tests := []struct {
		name            string
		text            string
		expectedPrimary models.Intent
	}{
		{
			name:            "coffee purchase query",
			text:            "coffee at Starbucks last month",
			expectedPrimary: models.IntentReceiptSearch,
		},
		{
			name:            "warranty lookup",
			text:            "is my laptop still under warranty",
			expectedPrimary: models.IntentWarrantyQuery,
		},
		{
			name:            "budget question",
			text:            "am I over my monthly budget",
			expectedPrimary: models.IntentBudgetAnalysis,
		},
		{
			name:            "duplicate charge",
			text:            "I think I was charged twice for this",
			expectedPrimary: models.IntentDuplicateDetection,
		},
		{
			name:            "trend question",
			text:            "show my spending trend over time",
			expectedPrimary: models.IntentTrendAnalysis,
		},
		{
			name:            "plain lookup",
			text:            "find my gym membership",
			expectedPrimary: models.IntentGeneralSearch,
		},
		{
			name:            "no match defaults to general search",
			text:            "hello there",
			expectedPrimary: models.IntentGeneralSearch,
		},
		{
			name:            "empty query",
			text:            "",
			expectedPrimary: models.IntentGeneralSearch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Classify(tt.text)
			assert.Equal(t, tt.expectedPrimary, result.Primary)
		})
	}
}

func TestClassify_ConfidenceScaling(t *testing.T) {
	// One matching phrase out of the receipt list.
	result := Classify("my receipt")
	assert.Equal(t, models.IntentReceiptSearch, result.Primary)
	assert.InDelta(t, 1.0/13.0, result.Confidence, 1e-9)

	// No match at all: zero confidence.
	result = Classify("hello there")
	assert.Equal(t, models.IntentGeneralSearch, result.Primary)
	assert.Zero(t, result.Confidence)
}

func TestClassify_TieGoesToEarlierIntent(t *testing.T) {
	// "receipt" and "warranty" each match exactly one phrase; receipt_search
	// comes first in the enumeration order and must win.
	result := Classify("receipt warranty")
	assert.Equal(t, models.IntentReceiptSearch, result.Primary)
	assert.Contains(t, result.Secondary, models.IntentWarrantyQuery)
}

func TestClassify_SecondaryRankedByScore(t *testing.T) {
	// Two warranty phrases, one receipt phrase, one general phrase.
	result := Classify("find the warranty coverage for the laptop I bought")

	assert.Equal(t, models.IntentWarrantyQuery, result.Primary)
	assert.NotEmpty(t, result.Secondary)
	for i := 1; i < len(result.Secondary); i++ {
		assert.GreaterOrEqual(t,
			result.Scores[result.Secondary[i-1]],
			result.Scores[result.Secondary[i]],
		)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	text := "compare my grocery spending trend and warranty coverage"
	first := Classify(text)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, Classify(text))
	}
}
