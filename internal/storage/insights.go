// internal/storage/insights.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	apperrors "finsight-context/internal/common/errors"
	"finsight-context/internal/common/logger"
)

// SpendingInsight is the aggregate the analytics source folds into its
// evidence payloads.
type SpendingInsight struct {
	TenantID         string  `json:"tenantId"`
	WindowMonths     int     `json:"windowMonths"`
	TotalSpent       float64 `json:"totalSpent"`
	TransactionCount int     `json:"transactionCount"`
	TopCategory      string  `json:"topCategory"`
	TopCategorySpent float64 `json:"topCategorySpent"`
	MonthOverMonth   float64 `json:"monthOverMonth"` // delta vs previous window, fraction
}

// InsightStore computes spending aggregates from the receipts table.
type InsightStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewInsightStore(db *sql.DB, log logger.Logger) *InsightStore {
	return &InsightStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "insight-store"}),
	}
}

// SpendingInsight aggregates the tenant's spending over the trailing window.
// windowMonths below 1 defaults to 3.
func (s *InsightStore) SpendingInsight(ctx context.Context, tenantID string, windowMonths int) (*SpendingInsight, error) {
	if windowMonths < 1 {
		windowMonths = 3
	}

	insight := &SpendingInsight{
		TenantID:     tenantID,
		WindowMonths: windowMonths,
	}

	totalsQuery := `
		SELECT COALESCE(SUM(amount), 0), COUNT(*)
		FROM receipts
		WHERE tenant_id = $1
		  AND purchased_at >= NOW() - ($2 || ' months')::interval`

	err := s.db.QueryRowContext(ctx, totalsQuery, tenantID, windowMonths).
		Scan(&insight.TotalSpent, &insight.TransactionCount)
	if err != nil {
		return nil, apperrors.NewInsightQueryFailedError(fmt.Errorf("totals: %w", err))
	}

	topCategoryQuery := `
		SELECT category, SUM(amount) AS spent
		FROM receipts
		WHERE tenant_id = $1
		  AND purchased_at >= NOW() - ($2 || ' months')::interval
		GROUP BY category
		ORDER BY spent DESC
		LIMIT 1`

	err = s.db.QueryRowContext(ctx, topCategoryQuery, tenantID, windowMonths).
		Scan(&insight.TopCategory, &insight.TopCategorySpent)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewInsightQueryFailedError(fmt.Errorf("top category: %w", err))
	}

	previousQuery := `
		SELECT COALESCE(SUM(amount), 0)
		FROM receipts
		WHERE tenant_id = $1
		  AND purchased_at >= NOW() - ($2 || ' months')::interval * 2
		  AND purchased_at <  NOW() - ($2 || ' months')::interval`

	var previousSpent float64
	err = s.db.QueryRowContext(ctx, previousQuery, tenantID, windowMonths).Scan(&previousSpent)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewInsightQueryFailedError(fmt.Errorf("previous window: %w", err))
	}
	if previousSpent > 0 {
		insight.MonthOverMonth = (insight.TotalSpent - previousSpent) / previousSpent
	}

	return insight, nil
}
