// internal/storage/storage_test.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "finsight-context/internal/common/errors"
	"finsight-context/internal/common/logger"
)

// ==========================
// Test Helper Functions
// ==========================

func newMockDB(t *testing.T) (*ConversationStore, *InsightStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logger.NewTestLogger(t)
	return NewConversationStore(db, log), NewInsightStore(db, log), mock
}

// ==========================
// Conversation Store Tests
// ==========================

func TestConversationStore_RelatedConversationIDs(t *testing.T) {
	conversations, _, mock := newMockDB(t)

	mock.ExpectQuery("SELECT c.id").
		WithArgs("tenant-1", "conv-1", 5).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).
			AddRow("conv-1").AddRow("conv-4"))

	ids, err := conversations.RelatedConversationIDs(context.Background(), "tenant-1", "conv-1", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"conv-1", "conv-4"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConversationStore_DefaultLimit(t *testing.T) {
	conversations, _, mock := newMockDB(t)

	mock.ExpectQuery("SELECT c.id").
		WithArgs("tenant-1", "conv-1", 5).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("conv-1"))

	_, err := conversations.RelatedConversationIDs(context.Background(), "tenant-1", "conv-1", 0)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConversationStore_QueryError(t *testing.T) {
	conversations, _, mock := newMockDB(t)

	mock.ExpectQuery("SELECT c.id").
		WillReturnError(fmt.Errorf("connection lost"))

	_, err := conversations.RelatedConversationIDs(context.Background(), "tenant-1", "conv-1", 5)
	assert.Error(t, err)
}

// ==========================
// Insight Store Tests
// ==========================

func TestInsightStore_SpendingInsight(t *testing.T) {
	_, insights, mock := newMockDB(t)

	mock.ExpectQuery("SELECT COALESCE").
		WithArgs("tenant-1", 3).
		WillReturnRows(sqlmock.NewRows([]string{"sum", "count"}).AddRow(600.00, 20))
	mock.ExpectQuery("SELECT category").
		WithArgs("tenant-1", 3).
		WillReturnRows(sqlmock.NewRows([]string{"category", "spent"}).AddRow("groceries", 250.00))
	mock.ExpectQuery("SELECT COALESCE").
		WithArgs("tenant-1", 3).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(500.00))

	insight, err := insights.SpendingInsight(context.Background(), "tenant-1", 3)
	require.NoError(t, err)

	assert.Equal(t, "tenant-1", insight.TenantID)
	assert.Equal(t, 3, insight.WindowMonths)
	assert.InDelta(t, 600.00, insight.TotalSpent, 1e-9)
	assert.Equal(t, 20, insight.TransactionCount)
	assert.Equal(t, "groceries", insight.TopCategory)
	assert.InDelta(t, 250.00, insight.TopCategorySpent, 1e-9)
	assert.InDelta(t, 0.2, insight.MonthOverMonth, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsightStore_NoTransactionsYieldsZeroInsight(t *testing.T) {
	_, insights, mock := newMockDB(t)

	// Empty category rows surface as sql.ErrNoRows, which is tolerated.
	mock.ExpectQuery("SELECT COALESCE").
		WillReturnRows(sqlmock.NewRows([]string{"sum", "count"}).AddRow(0.0, 0))
	mock.ExpectQuery("SELECT category").
		WillReturnRows(sqlmock.NewRows([]string{"category", "spent"}))
	mock.ExpectQuery("SELECT COALESCE").
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(0.0))

	insight, err := insights.SpendingInsight(context.Background(), "tenant-1", 3)
	require.NoError(t, err)
	assert.Zero(t, insight.TotalSpent)
	assert.Zero(t, insight.TransactionCount)
	assert.Empty(t, insight.TopCategory)
	assert.Zero(t, insight.MonthOverMonth)
}

func TestInsightStore_WindowFloor(t *testing.T) {
	_, insights, mock := newMockDB(t)

	mock.ExpectQuery("SELECT COALESCE").
		WithArgs("tenant-1", 3).
		WillReturnRows(sqlmock.NewRows([]string{"sum", "count"}).AddRow(10.0, 1))
	mock.ExpectQuery("SELECT category").
		WithArgs("tenant-1", 3).
		WillReturnRows(sqlmock.NewRows([]string{"category", "spent"}).AddRow("dining", 10.0))
	mock.ExpectQuery("SELECT COALESCE").
		WithArgs("tenant-1", 3).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(0.0))

	insight, err := insights.SpendingInsight(context.Background(), "tenant-1", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, insight.WindowMonths)
}

func TestInsightStore_QueryFailureIsTyped(t *testing.T) {
	_, insights, mock := newMockDB(t)

	mock.ExpectQuery("SELECT COALESCE").
		WillReturnError(fmt.Errorf("db down"))

	_, err := insights.SpendingInsight(context.Background(), "tenant-1", 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInsightQueryFailed))
}
