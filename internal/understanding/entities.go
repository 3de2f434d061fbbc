// internal/understanding/entities.go
package understanding

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"finsight-context/internal/models"
)

// Extraction is a set of independent regex passes per field. Time-window
// normalization is coarse (weeks / 4, days / 30 months), not calendar-exact;
// downstream filters only need an approximate horizon.

var (
	// Merchant names follow "at"/"from" and are written capitalized:
	// "coffee at Starbucks last month" captures "Starbucks".
	merchantRe = regexp.MustCompile(`\b(?:[Aa]t|[Ff]rom)\s+([A-Z][A-Za-z0-9&'.-]*(?:\s+[A-Z][A-Za-z0-9&'.-]*)*)`)

	dollarAmountRe = regexp.MustCompile(`\$\s?(\d+(?:,\d{3})*(?:\.\d{1,2})?)`)
	wordAmountRe   = regexp.MustCompile(`(?i)\b(\d+(?:\.\d{1,2})?)\s?(?:dollars|usd|bucks)\b`)

	isoDateRe = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	usDateRe  = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)

	relWindowUnitRe  = regexp.MustCompile(`(?i)\b(?:last|past|previous)\s+(week|month|year)\b`)
	relWindowCountRe = regexp.MustCompile(`(?i)\b(?:last|past|previous)\s+(\d+)\s+(day|week|month|year)s?\b`)
)

// categoryKeywords maps spoken keywords to canonical category labels.
var categoryKeywords = map[string]string{
	"grocery":       "groceries",
	"groceries":     "groceries",
	"restaurant":    "dining",
	"dining":        "dining",
	"lunch":         "dining",
	"dinner":        "dining",
	"electronics":   "electronics",
	"laptop":        "electronics",
	"phone":         "electronics",
	"travel":        "travel",
	"flight":        "travel",
	"hotel":         "travel",
	"utilities":     "utilities",
	"electricity":   "utilities",
	"internet bill": "utilities",
	"clothing":      "clothing",
	"clothes":       "clothing",
	"shoes":         "clothing",
	"pharmacy":      "health",
	"medicine":      "health",
	"entertainment": "entertainment",
	"subscription":  "entertainment",
}

// categoryKeywordOrder keeps extraction deterministic across map iteration.
var categoryKeywordOrder = sortedKeys(categoryKeywords)

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Extract pulls the optional structured fields out of the query text.
// Best-effort: every pass is independent and no pass can fail the pipeline.
func Extract(text string) models.EntitySet {
	var entities models.EntitySet

	entities.Merchant = extractMerchant(text)
	extractAmounts(text, &entities)
	extractDates(text, &entities)
	entities.Category = extractCategory(text)
	entities.TimeWindowMonths = extractTimeWindow(text)

	return entities
}

func extractMerchant(text string) string {
	match := merchantRe.FindStringSubmatch(text)
	if match == nil {
		return ""
	}
	return strings.TrimSpace(match[1])
}

func extractAmounts(text string, entities *models.EntitySet) {
	var amounts []float64

	for _, match := range dollarAmountRe.FindAllStringSubmatch(text, -1) {
		raw := strings.ReplaceAll(match[1], ",", "")
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			amounts = append(amounts, v)
		}
	}
	for _, match := range wordAmountRe.FindAllStringSubmatch(text, -1) {
		if v, err := strconv.ParseFloat(match[1], 64); err == nil {
			amounts = append(amounts, v)
		}
	}

	switch len(amounts) {
	case 0:
	case 1:
		entities.Amount = &amounts[0]
	default:
		min, max := amounts[0], amounts[0]
		for _, v := range amounts[1:] {
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		entities.AmountRange = &models.AmountRange{Min: min, Max: max}
	}
}

func extractDates(text string, entities *models.EntitySet) {
	var dates []time.Time

	for _, match := range isoDateRe.FindAllString(text, -1) {
		if d, err := time.Parse("2006-01-02", match); err == nil {
			dates = append(dates, d)
		}
	}
	for _, match := range usDateRe.FindAllString(text, -1) {
		if d, err := time.Parse("1/2/2006", match); err == nil {
			dates = append(dates, d)
		}
	}

	switch len(dates) {
	case 0:
	case 1:
		entities.Date = &dates[0]
	default:
		from, to := dates[0], dates[0]
		for _, d := range dates[1:] {
			if d.Before(from) {
				from = d
			}
			if d.After(to) {
				to = d
			}
		}
		entities.DateRange = &models.DateRange{From: from, To: to}
	}
}

func extractCategory(text string) string {
	lowered := strings.ToLower(text)
	for _, keyword := range categoryKeywordOrder {
		if strings.Contains(lowered, keyword) {
			return categoryKeywords[keyword]
		}
	}
	return ""
}

func extractTimeWindow(text string) *float64 {
	if match := relWindowCountRe.FindStringSubmatch(text); match != nil {
		n, err := strconv.ParseFloat(match[1], 64)
		if err == nil {
			months := normalizeToMonths(n, strings.ToLower(match[2]))
			return &months
		}
	}

	if match := relWindowUnitRe.FindStringSubmatch(text); match != nil {
		months := normalizeToMonths(1, strings.ToLower(match[1]))
		return &months
	}

	return nil
}

func normalizeToMonths(n float64, unit string) float64 {
	switch unit {
	case "day":
		return n / 30
	case "week":
		return n / 4
	case "year":
		return n * 12
	default: // month
		return n
	}
}
