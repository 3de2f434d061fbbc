// internal/understanding/intent.go

// Package understanding turns raw query text into a classified intent and an
// extracted entity set. Everything here is pure and deterministic: no
// external calls, no failures. On no match the lowest-confidence defaults
// come back (general_search, empty EntitySet).
package understanding

import (
	"sort"
	"strings"

	"finsight-context/internal/models"
)

// intentOrder fixes the enumeration order used for tie-breaks.
var intentOrder = []models.Intent{
	models.IntentReceiptSearch,
	models.IntentWarrantyQuery,
	models.IntentBudgetAnalysis,
	models.IntentCategoryClassification,
	models.IntentDuplicateDetection,
	models.IntentTrendAnalysis,
	models.IntentGeneralSearch,
}

// intentPhrases are the fixed per-intent phrase lists. Scoring counts how
// many phrases occur as case-insensitive substrings of the query.
var intentPhrases = map[models.Intent][]string{
	models.IntentReceiptSearch: {
		"receipt", "purchase", "bought", "buy", "paid", "spent",
		"transaction", "store", "shop", "coffee", "restaurant",
		"grocery", "gas station",
	},
	models.IntentWarrantyQuery: {
		"warranty", "guarantee", "coverage", "covered", "expire",
		"expiration", "protection plan", "repair", "replace",
	},
	models.IntentBudgetAnalysis: {
		"budget", "how much did i spend", "total spent", "spending",
		"afford", "monthly budget", "overspent", "save money",
	},
	models.IntentCategoryClassification: {
		"category", "categorize", "classify", "what kind of",
		"which category", "tag this",
	},
	models.IntentDuplicateDetection: {
		"duplicate", "charged twice", "double charge",
		"same transaction", "billed twice",
	},
	models.IntentTrendAnalysis: {
		"trend", "over time", "pattern", "increase", "decrease",
		"compare", "growth", "average per month",
	},
	models.IntentGeneralSearch: {
		"find", "show me", "search", "look up", "list all",
	},
}

// Classify scores every intent against the query text and returns the winner
// plus ranked secondary intents. Ties go to the earlier intent in the fixed
// enumeration order. Never fails.
func Classify(text string) models.IntentClassification {
	lowered := strings.ToLower(text)

	scores := make(map[models.Intent]int, len(intentOrder))
	for _, intent := range intentOrder {
		score := 0
		for _, phrase := range intentPhrases[intent] {
			if strings.Contains(lowered, phrase) {
				score++
			}
		}
		scores[intent] = score
	}

	primary := models.IntentGeneralSearch
	best := 0
	for _, intent := range intentOrder {
		if scores[intent] > best {
			best = scores[intent]
			primary = intent
		}
	}

	var secondary []models.Intent
	for _, intent := range intentOrder {
		if intent == primary {
			continue
		}
		if scores[intent] > 0 && scores[intent] <= best {
			secondary = append(secondary, intent)
		}
	}
	sort.SliceStable(secondary, func(i, j int) bool {
		return scores[secondary[i]] > scores[secondary[j]]
	})

	phraseCount := len(intentPhrases[primary])
	if phraseCount < 1 {
		phraseCount = 1
	}
	confidence := float64(best) / float64(phraseCount)

	return models.IntentClassification{
		Primary:    primary,
		Secondary:  secondary,
		Confidence: confidence,
		Scores:     scores,
	}
}
