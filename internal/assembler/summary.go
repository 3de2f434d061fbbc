// internal/assembler/summary.go
package assembler

import "finsight-context/internal/models"

// buildSummary derives the per-type counts, mean relevance, and the coarse
// evidence strength label for a finished item list.
func buildSummary(items []models.EvidenceItem) models.BundleSummary {
	summary := models.BundleSummary{
		Counts:   make(map[models.SourceType]int, len(models.AllSourceTypes)),
		Strength: models.StrengthLow,
	}
	if len(items) == 0 {
		return summary
	}

	var total float64
	for _, item := range items {
		summary.Counts[item.SourceType]++
		total += item.Relevance
	}
	summary.MeanRelevance = total / float64(len(items))

	switch {
	case summary.MeanRelevance > 0.7:
		summary.Strength = models.StrengthHigh
	case summary.MeanRelevance > 0.5:
		summary.Strength = models.StrengthMedium
	}
	return summary
}
