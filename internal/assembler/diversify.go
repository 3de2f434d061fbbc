// internal/assembler/diversify.go
package assembler

import (
	"math"

	"finsight-context/internal/models"
)

// typeFractions controls how much of the final bundle each source type may
// occupy before backfilling kicks in.
var typeFractions = map[models.SourceType]float64{
	models.SourceReceipt:      0.4,
	models.SourceWarranty:     0.3,
	models.SourceConversation: 0.2,
	models.SourceAnalytics:    0.1,
}

// diversify walks the relevance-sorted items twice. The first pass admits
// items up to each type's fractional cap; the second backfills remaining
// slots with the highest-relevance leftovers regardless of type. The input
// must already be sorted by relevance descending.
func diversify(sorted []models.EvidenceItem, maxItems int) []models.EvidenceItem {
	if maxItems <= 0 {
		return []models.EvidenceItem{}
	}

	caps := make(map[models.SourceType]int, len(typeFractions))
	for sourceType, fraction := range typeFractions {
		caps[sourceType] = int(math.Ceil(float64(maxItems) * fraction))
	}

	admitted := make([]models.EvidenceItem, 0, maxItems)
	taken := make([]bool, len(sorted))
	counts := make(map[models.SourceType]int, len(caps))

	for i, item := range sorted {
		if len(admitted) == maxItems {
			break
		}
		if counts[item.SourceType] >= caps[item.SourceType] {
			continue
		}
		admitted = append(admitted, item)
		counts[item.SourceType]++
		taken[i] = true
	}

	for i, item := range sorted {
		if len(admitted) == maxItems {
			break
		}
		if taken[i] {
			continue
		}
		admitted = append(admitted, item)
	}

	if len(admitted) > maxItems {
		admitted = admitted[:maxItems]
	}
	return admitted
}
