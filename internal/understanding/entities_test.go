// internal/understanding/entities_test.go
package understanding

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Merchant Extraction Tests
// ==========================

func TestExtract_Merchant(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{"at capitalized name", "coffee at Starbucks last month", "Starbucks"},
		{"from capitalized name", "that order from Amazon", "Amazon"},
		{"multi word name", "groceries at Whole Foods yesterday", "Whole Foods"},
		{"lowercase name is skipped", "coffee at the corner shop", ""},
		{"no merchant", "how much did I spend", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entities := Extract(tt.text)
			assert.Equal(t, tt.expected, entities.Merchant)
		})
	}
}

// ==========================
// Amount Extraction Tests
// ==========================

func TestExtract_SingleAmount(t *testing.T) {
	entities := Extract("the receipt for $25.50")
	require.NotNil(t, entities.Amount)
	assert.InDelta(t, 25.50, *entities.Amount, 1e-9)
	assert.Nil(t, entities.AmountRange)
}

func TestExtract_AmountWithThousandsSeparator(t *testing.T) {
	entities := Extract("the laptop cost $1,299.99")
	require.NotNil(t, entities.Amount)
	assert.InDelta(t, 1299.99, *entities.Amount, 1e-9)
}

func TestExtract_WordAmount(t *testing.T) {
	entities := Extract("I paid 40 dollars for it")
	require.NotNil(t, entities.Amount)
	assert.InDelta(t, 40.0, *entities.Amount, 1e-9)
}

func TestExtract_TwoAmountsBecomeRange(t *testing.T) {
	entities := Extract("purchases between $20 and $100")
	assert.Nil(t, entities.Amount)
	require.NotNil(t, entities.AmountRange)
	assert.InDelta(t, 20.0, entities.AmountRange.Min, 1e-9)
	assert.InDelta(t, 100.0, entities.AmountRange.Max, 1e-9)
}

// ==========================
// Date Extraction Tests
// ==========================

func TestExtract_SingleISODate(t *testing.T) {
	entities := Extract("the receipt from 2026-03-15")
	require.NotNil(t, entities.Date)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), *entities.Date)
	assert.Nil(t, entities.DateRange)
}

func TestExtract_USDate(t *testing.T) {
	entities := Extract("bought on 3/15/2026")
	require.NotNil(t, entities.Date)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), *entities.Date)
}

func TestExtract_TwoDatesBecomeRange(t *testing.T) {
	entities := Extract("between 2026-01-01 and 2026-03-31")
	assert.Nil(t, entities.Date)
	require.NotNil(t, entities.DateRange)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), entities.DateRange.From)
	assert.Equal(t, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), entities.DateRange.To)
}

// ==========================
// Category Extraction Tests
// ==========================

func TestExtract_Category(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{"restaurant maps to dining", "that restaurant bill", "dining"},
		{"grocery maps to groceries", "my grocery run", "groceries"},
		{"laptop maps to electronics", "the laptop I bought", "electronics"},
		{"flight maps to travel", "my flight booking", "travel"},
		{"no category", "what did I spend", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entities := Extract(tt.text)
			assert.Equal(t, tt.expected, entities.Category)
		})
	}
}

// ==========================
// Time Window Tests
// ==========================

func TestExtract_TimeWindow(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected float64
	}{
		{"last month", "coffee at Starbucks last month", 1},
		{"past 2 weeks", "spending over the past 2 weeks", 0.5},
		{"last 3 months", "receipts from the last 3 months", 3},
		{"previous year", "my previous year of purchases", 12},
		{"past 15 days", "transactions in the past 15 days", 0.5},
		{"last 2 years", "warranties from the last 2 years", 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entities := Extract(tt.text)
			require.NotNil(t, entities.TimeWindowMonths)
			assert.InDelta(t, tt.expected, *entities.TimeWindowMonths, 1e-9)
		})
	}
}

func TestExtract_NoTimeWindow(t *testing.T) {
	entities := Extract("show me everything")
	assert.Nil(t, entities.TimeWindowMonths)
}

// ==========================
// Combined Extraction Tests
// ==========================

func TestExtract_FullQuery(t *testing.T) {
	entities := Extract("coffee at Starbucks for $6.50 last month")

	assert.Equal(t, "Starbucks", entities.Merchant)
	require.NotNil(t, entities.Amount)
	assert.InDelta(t, 6.50, *entities.Amount, 1e-9)
	require.NotNil(t, entities.TimeWindowMonths)
	assert.InDelta(t, 1.0, *entities.TimeWindowMonths, 1e-9)
	assert.False(t, entities.IsEmpty())
}

func TestExtract_EmptyQuery(t *testing.T) {
	entities := Extract("")
	assert.True(t, entities.IsEmpty())
}
