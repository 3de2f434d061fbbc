// internal/retrieval/retrieval_test.go
package retrieval

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight-context/internal/cache"
	"finsight-context/internal/common/config"
	"finsight-context/internal/common/logger"
	"finsight-context/internal/models"
	"finsight-context/internal/storage"
	"finsight-context/internal/vectorstore"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeVectorStore struct {
	mu       sync.Mutex
	calls    int
	requests []vectorstore.SearchRequest
	hits     []vectorstore.Hit
	err      error
}

func (s *fakeVectorStore) Search(_ context.Context, req vectorstore.SearchRequest) ([]vectorstore.Hit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	return s.hits, nil
}

func (s *fakeVectorStore) lastRequest() vectorstore.SearchRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[len(s.requests)-1]
}

func newTestCacheStore(t *testing.T) *cache.MemoryStore {
	t.Helper()
	store := cache.NewMemoryStore(config.CacheConfig{
		EmbeddingTTLSeconds: 86400,
		ContextTTLSeconds:   900,
		RetrievalTTLSeconds: 300,
		SweepIntervalSec:    3600,
	}, logger.NewTestLogger(t))
	t.Cleanup(store.Close)
	return store
}

func makeHits(scores ...float64) []vectorstore.Hit {
	hits := make([]vectorstore.Hit, len(scores))
	for i, score := range scores {
		hits[i] = vectorstore.Hit{
			ID:      fmt.Sprintf("doc-%d", i),
			Score:   score,
			Summary: fmt.Sprintf("summary %d", i),
		}
	}
	return hits
}

func testInput() RetrieveInput {
	return RetrieveInput{
		Vector:   []float32{0.1, 0.2, 0.3},
		TenantID: "tenant-1",
	}
}

// ==========================
// Receipt Source Tests
// ==========================

func TestReceiptSource_ThresholdAndWeight(t *testing.T) {
	vectors := &fakeVectorStore{hits: makeHits(0.9, 0.7, 0.64, 0.3)}
	source := NewReceiptSource(vectors, newTestCacheStore(t), logger.NewTestLogger(t))

	items, err := source.Retrieve(context.Background(), testInput())
	require.NoError(t, err)

	// 0.64 and 0.3 fall below the 0.65 threshold.
	require.Len(t, items, 2)
	for _, item := range items {
		assert.Equal(t, models.SourceReceipt, item.SourceType)
		assert.InDelta(t, item.Similarity*ReceiptWeight, item.Relevance, 1e-9)
		assert.LessOrEqual(t, item.Relevance, item.Similarity)
	}
}

func TestReceiptSource_CapsResults(t *testing.T) {
	scores := make([]float64, 12)
	for i := range scores {
		scores[i] = 0.9
	}
	vectors := &fakeVectorStore{hits: makeHits(scores...)}
	source := NewReceiptSource(vectors, newTestCacheStore(t), logger.NewTestLogger(t))

	items, err := source.Retrieve(context.Background(), testInput())
	require.NoError(t, err)
	assert.Len(t, items, ReceiptMaxResults)
}

func TestReceiptSource_SecondCallHitsCache(t *testing.T) {
	vectors := &fakeVectorStore{hits: makeHits(0.9)}
	source := NewReceiptSource(vectors, newTestCacheStore(t), logger.NewTestLogger(t))
	ctx := context.Background()

	first, err := source.Retrieve(ctx, testInput())
	require.NoError(t, err)
	second, err := source.Retrieve(ctx, testInput())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, vectors.calls, "second call must come from cache")
}

func TestReceiptSource_ThresholdOverride(t *testing.T) {
	vectors := &fakeVectorStore{hits: makeHits(0.9, 0.85, 0.7)}
	source := NewReceiptSource(vectors, newTestCacheStore(t), logger.NewTestLogger(t))

	in := testInput()
	in.Options.Thresholds = map[models.SourceType]float64{models.SourceReceipt: 0.8}

	items, err := source.Retrieve(context.Background(), in)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.InDelta(t, 0.8, vectors.lastRequest().MinScore, 1e-9)
}

func TestReceiptSource_FailurePropagates(t *testing.T) {
	vectors := &fakeVectorStore{err: fmt.Errorf("search exploded")}
	source := NewReceiptSource(vectors, newTestCacheStore(t), logger.NewTestLogger(t))

	_, err := source.Retrieve(context.Background(), testInput())
	assert.Error(t, err)
}

func TestReceiptSource_FilterPrecedence(t *testing.T) {
	source := NewReceiptSource(&fakeVectorStore{}, newTestCacheStore(t), logger.NewTestLogger(t))
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	source.now = func() time.Time { return now }

	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	window := 2.0
	amount := 25.50

	// An explicit date beats the relative window.
	filters := source.buildFilters(models.EntitySet{
		Merchant:         "Starbucks",
		Date:             &date,
		TimeWindowMonths: &window,
		Amount:           &amount,
	})
	assert.Equal(t, "Starbucks", filters.Merchant)
	require.NotNil(t, filters.DateFrom)
	assert.Equal(t, date, *filters.DateFrom)
	assert.Equal(t, date, *filters.DateTo)

	// A single amount pins both bounds.
	require.NotNil(t, filters.AmountMin)
	assert.InDelta(t, amount, *filters.AmountMin, 1e-9)
	assert.InDelta(t, amount, *filters.AmountMax, 1e-9)

	// A bare window becomes a 30-day-month start date.
	filters = source.buildFilters(models.EntitySet{TimeWindowMonths: &window})
	require.NotNil(t, filters.DateFrom)
	assert.Equal(t, now.Add(-60*24*time.Hour), *filters.DateFrom)
	assert.Nil(t, filters.DateTo)
}

// ==========================
// Warranty Source Tests
// ==========================

func TestWarrantySource_ExcludesExpiredByDefault(t *testing.T) {
	vectors := &fakeVectorStore{hits: makeHits(0.9)}
	source := NewWarrantySource(vectors, newTestCacheStore(t), logger.NewTestLogger(t))

	_, err := source.Retrieve(context.Background(), testInput())
	require.NoError(t, err)
	assert.True(t, vectors.lastRequest().Filters.ExcludeExpired)

	in := testInput()
	in.Options.IncludeExpired = true
	_, err = source.Retrieve(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, vectors.lastRequest().Filters.ExcludeExpired)
}

func TestWarrantySource_HigherThreshold(t *testing.T) {
	vectors := &fakeVectorStore{hits: makeHits(0.72, 0.68)}
	source := NewWarrantySource(vectors, newTestCacheStore(t), logger.NewTestLogger(t))

	items, err := source.Retrieve(context.Background(), testInput())
	require.NoError(t, err)

	// 0.68 clears the receipt threshold but not the warranty one.
	require.Len(t, items, 1)
	assert.Equal(t, "doc-0", items[0].SourceID)
}

// ==========================
// Conversation Source Tests
// ==========================

func TestConversationSource_NoConversationID(t *testing.T) {
	vectors := &fakeVectorStore{hits: makeHits(0.9)}
	source := NewConversationSource(vectors, newTestCacheStore(t), nil, logger.NewTestLogger(t))

	_, err := source.Retrieve(context.Background(), testInput())
	require.NoError(t, err)
	assert.Empty(t, vectors.lastRequest().Filters.ConversationIDs)
}

func TestConversationSource_ScopesToRelatedConversations(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT c.id").
		WithArgs("tenant-1", "conv-1", 5).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).
			AddRow("conv-1").AddRow("conv-7").AddRow("conv-9"))

	conversations := storage.NewConversationStore(db, logger.NewTestLogger(t))
	vectors := &fakeVectorStore{hits: makeHits(0.9)}
	source := NewConversationSource(vectors, newTestCacheStore(t), conversations, logger.NewTestLogger(t))

	in := testInput()
	in.ConversationID = "conv-1"
	_, err = source.Retrieve(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, []string{"conv-1", "conv-7", "conv-9"}, vectors.lastRequest().Filters.ConversationIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConversationSource_RelationLookupFailureFallsBack(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT c.id").
		WillReturnError(fmt.Errorf("connection lost"))

	conversations := storage.NewConversationStore(db, logger.NewTestLogger(t))
	vectors := &fakeVectorStore{hits: makeHits(0.9)}
	source := NewConversationSource(vectors, newTestCacheStore(t), conversations, logger.NewTestLogger(t))

	in := testInput()
	in.ConversationID = "conv-1"
	_, err = source.Retrieve(context.Background(), in)
	require.NoError(t, err)

	// The current conversation is still queried on its own.
	assert.Equal(t, []string{"conv-1"}, vectors.lastRequest().Filters.ConversationIDs)
}

// ==========================
// Analytics Source Tests
// ==========================

func insightRows(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("SELECT COALESCE").
		WillReturnRows(sqlmock.NewRows([]string{"sum", "count"}).AddRow(450.25, 12))
	mock.ExpectQuery("SELECT category").
		WillReturnRows(sqlmock.NewRows([]string{"category", "spent"}).AddRow("dining", 180.00))
	mock.ExpectQuery("SELECT COALESCE").
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(400.00))
}

func TestAnalyticsSource_EnrichesWithSpendingInsight(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	insightRows(mock)

	insights := storage.NewInsightStore(db, logger.NewTestLogger(t))
	vectors := &fakeVectorStore{hits: makeHits(0.9, 0.8)}
	source := NewAnalyticsSource(vectors, newTestCacheStore(t), insights, logger.NewTestLogger(t))

	items, err := source.Retrieve(context.Background(), testInput())
	require.NoError(t, err)
	require.Len(t, items, 2)

	for _, item := range items {
		insight, ok := item.Content["spendingInsight"].(*storage.SpendingInsight)
		require.True(t, ok)
		assert.InDelta(t, 450.25, insight.TotalSpent, 1e-9)
		assert.Equal(t, "dining", insight.TopCategory)
	}
}

func TestAnalyticsSource_InsightFailureIsTolerated(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT COALESCE").
		WillReturnError(fmt.Errorf("db down"))

	insights := storage.NewInsightStore(db, logger.NewTestLogger(t))
	vectors := &fakeVectorStore{hits: makeHits(0.9)}
	source := NewAnalyticsSource(vectors, newTestCacheStore(t), insights, logger.NewTestLogger(t))

	items, err := source.Retrieve(context.Background(), testInput())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.NotContains(t, items[0].Content, "spendingInsight")
}

func TestAnalyticsSource_WindowNarrowsDateFilter(t *testing.T) {
	vectors := &fakeVectorStore{hits: makeHits(0.9)}
	source := NewAnalyticsSource(vectors, newTestCacheStore(t), nil, logger.NewTestLogger(t))
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	source.now = func() time.Time { return now }

	window := 2.0
	in := testInput()
	in.Entities.TimeWindowMonths = &window

	_, err := source.Retrieve(context.Background(), in)
	require.NoError(t, err)

	req := vectors.lastRequest()
	require.NotNil(t, req.Filters.DateFrom)
	assert.Equal(t, now.Add(-60*24*time.Hour), *req.Filters.DateFrom)
}
