// internal/retrieval/conversations.go
package retrieval

import (
	"context"

	"finsight-context/internal/cache"
	"finsight-context/internal/common/logger"
	"finsight-context/internal/models"
	"finsight-context/internal/storage"
	"finsight-context/internal/vectorstore"
)

const relatedConversationLimit = 5

// ConversationSource retrieves prior conversation snippets. When the call
// carries a conversation id, retrieval is restricted to that conversation
// plus topically related ones resolved from the persistence layer.
type ConversationSource struct {
	deps          deps
	params        sourceParams
	conversations *storage.ConversationStore
}

func NewConversationSource(vectors vectorstore.Store, store cache.Store, conversations *storage.ConversationStore, log logger.Logger) *ConversationSource {
	return &ConversationSource{
		deps: deps{
			vectors: vectors,
			cache:   store,
			logger:  log.WithFields(map[string]interface{}{"source": string(models.SourceConversation)}),
		},
		params: sourceParams{
			sourceType: models.SourceConversation,
			threshold:  ConversationThreshold,
			maxResults: ConversationMaxResults,
			weight:     ConversationWeight,
		},
		conversations: conversations,
	}
}

func (s *ConversationSource) Type() models.SourceType {
	return models.SourceConversation
}

func (s *ConversationSource) Retrieve(ctx context.Context, in RetrieveInput) ([]models.EvidenceItem, error) {
	var filters vectorstore.Filters

	if in.ConversationID != "" {
		ids := []string{in.ConversationID}
		if s.conversations != nil {
			related, err := s.conversations.RelatedConversationIDs(ctx, in.TenantID, in.ConversationID, relatedConversationLimit)
			if err != nil {
				// Relationship lookup is an enrichment; fall back to the
				// current conversation only.
				s.deps.logger.Warn("related conversation lookup failed", map[string]interface{}{
					"conversationId": in.ConversationID,
					"error":          err.Error(),
				})
			} else if len(related) > 0 {
				ids = related
			}
		}
		filters.ConversationIDs = ids
	}

	return retrieveScored(ctx, s.deps, s.params, in, filters)
}
