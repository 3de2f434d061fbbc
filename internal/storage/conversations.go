// internal/storage/conversations.go

// Package storage holds read-only accessors over the persistence layer:
// conversation transcripts linkage and spending aggregates. Nothing here
// writes; schema ownership lives with the outer application.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"finsight-context/internal/common/logger"
)

// ConversationStore resolves conversation relationships for the
// conversations retrieval source.
type ConversationStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewConversationStore(db *sql.DB, log logger.Logger) *ConversationStore {
	return &ConversationStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "conversation-store"}),
	}
}

// RelatedConversationIDs returns the given conversation plus conversations
// sharing its topic, most recent first, capped at limit.
func (s *ConversationStore) RelatedConversationIDs(ctx context.Context, tenantID, conversationID string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 5
	}

	query := `
		SELECT c.id
		FROM conversations c
		WHERE c.tenant_id = $1
		  AND (c.id = $2 OR c.topic = (
			SELECT topic FROM conversations WHERE id = $2 AND tenant_id = $1
		  ))
		ORDER BY c.updated_at DESC
		LIMIT $3`

	rows, err := s.db.QueryContext(ctx, query, tenantID, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("query related conversations: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan conversation id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate related conversations: %w", err)
	}

	return ids, nil
}
