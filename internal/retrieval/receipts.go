// internal/retrieval/receipts.go
package retrieval

import (
	"context"
	"time"

	"finsight-context/internal/cache"
	"finsight-context/internal/common/logger"
	"finsight-context/internal/models"
	"finsight-context/internal/vectorstore"
)

// ReceiptSource retrieves purchase receipts. It understands the richest
// filter set: merchant, date, amount, and category.
type ReceiptSource struct {
	deps   deps
	params sourceParams
	now    func() time.Time
}

func NewReceiptSource(vectors vectorstore.Store, store cache.Store, log logger.Logger) *ReceiptSource {
	return &ReceiptSource{
		deps: deps{
			vectors: vectors,
			cache:   store,
			logger:  log.WithFields(map[string]interface{}{"source": string(models.SourceReceipt)}),
		},
		params: sourceParams{
			sourceType: models.SourceReceipt,
			threshold:  ReceiptThreshold,
			maxResults: ReceiptMaxResults,
			weight:     ReceiptWeight,
		},
		now: time.Now,
	}
}

func (s *ReceiptSource) Type() models.SourceType {
	return models.SourceReceipt
}

func (s *ReceiptSource) Retrieve(ctx context.Context, in RetrieveInput) ([]models.EvidenceItem, error) {
	return retrieveScored(ctx, s.deps, s.params, in, s.buildFilters(in.Entities))
}

func (s *ReceiptSource) buildFilters(entities models.EntitySet) vectorstore.Filters {
	filters := vectorstore.Filters{
		Merchant: entities.Merchant,
		Category: entities.Category,
	}

	switch {
	case entities.DateRange != nil:
		filters.DateFrom = &entities.DateRange.From
		filters.DateTo = &entities.DateRange.To
	case entities.Date != nil:
		filters.DateFrom = entities.Date
		filters.DateTo = entities.Date
	case entities.TimeWindowMonths != nil:
		from := windowStart(s.now(), *entities.TimeWindowMonths)
		filters.DateFrom = &from
	}

	switch {
	case entities.AmountRange != nil:
		filters.AmountMin = &entities.AmountRange.Min
		filters.AmountMax = &entities.AmountRange.Max
	case entities.Amount != nil:
		filters.AmountMin = entities.Amount
		filters.AmountMax = entities.Amount
	}

	return filters
}
