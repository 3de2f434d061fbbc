// internal/retrieval/warranties.go
package retrieval

import (
	"context"

	"finsight-context/internal/cache"
	"finsight-context/internal/common/logger"
	"finsight-context/internal/models"
	"finsight-context/internal/vectorstore"
)

// WarrantySource retrieves warranty records. Filters on brand (the extracted
// merchant) and excludes expired warranties unless the caller opts in.
type WarrantySource struct {
	deps   deps
	params sourceParams
}

func NewWarrantySource(vectors vectorstore.Store, store cache.Store, log logger.Logger) *WarrantySource {
	return &WarrantySource{
		deps: deps{
			vectors: vectors,
			cache:   store,
			logger:  log.WithFields(map[string]interface{}{"source": string(models.SourceWarranty)}),
		},
		params: sourceParams{
			sourceType: models.SourceWarranty,
			threshold:  WarrantyThreshold,
			maxResults: WarrantyMaxResults,
			weight:     WarrantyWeight,
		},
	}
}

func (s *WarrantySource) Type() models.SourceType {
	return models.SourceWarranty
}

func (s *WarrantySource) Retrieve(ctx context.Context, in RetrieveInput) ([]models.EvidenceItem, error) {
	filters := vectorstore.Filters{
		Merchant:       in.Entities.Merchant,
		ExcludeExpired: !in.Options.IncludeExpired,
	}
	return retrieveScored(ctx, s.deps, s.params, in, filters)
}
