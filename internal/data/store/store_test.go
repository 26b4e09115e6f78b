package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/penwyp/go-herdbook/internal/core/model"
	"github.com/penwyp/go-herdbook/internal/testing/fixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "herd.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedStore(t *testing.T, s *Store, activities, transactions int) {
	t.Helper()
	err := s.Import(context.Background(),
		fixtures.SampleSubjects(),
		fixtures.Activities(activities, fixtures.BaseTime, time.Hour),
		fixtures.Transactions(transactions, fixtures.BaseTime, time.Hour))
	require.NoError(t, err)
}

func TestOpen_MigratesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "herd.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	var versions int
	require.NoError(t, s.conn.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&versions))
	assert.Equal(t, SchemaVersion, versions)
	assert.Equal(t, path, s.Path())
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestStore_ListActivityRecordsPaging(t *testing.T) {
	s := openTestStore(t)
	seedStore(t, s, 25, 0)
	ctx := context.Background()

	first, err := s.ListActivityRecords(ctx, model.RecordQuery{Offset: 0, Limit: 20})
	require.NoError(t, err)
	require.Len(t, first, 20)
	assert.Equal(t, "act-000", first[0].ID)
	assert.True(t, first[0].Date.Equal(fixtures.BaseTime))
	assert.Equal(t, []string{"vaccination"}, first[0].Tags)
	require.NotNil(t, first[0].SubjectID)
	assert.Equal(t, "subj-bella", *first[0].SubjectID)

	second, err := s.ListActivityRecords(ctx, model.RecordQuery{Offset: 20, Limit: 20})
	require.NoError(t, err)
	assert.Len(t, second, 5)

	for i := 1; i < len(first); i++ {
		assert.False(t, first[i].Date.After(first[i-1].Date))
	}
}

func TestStore_TieBreakByID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	at := fixtures.BaseTime
	require.NoError(t, s.Import(ctx, nil, []model.ActivityRecord{
		{ID: "b", Category: "feeding", Date: at},
		{ID: "a", Category: "feeding", Date: at},
	}, nil))

	records, err := s.ListActivityRecords(ctx, model.RecordQuery{Limit: 10})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].ID)
	assert.Nil(t, records[0].SubjectID)
	assert.Equal(t, []string{}, records[0].Tags)
}

func TestStore_PushDownFilters(t *testing.T) {
	s := openTestStore(t)
	seedStore(t, s, 0, 40)
	ctx := context.Background()

	category := "feed"
	records, err := s.ListTransactionRecords(ctx, model.RecordQuery{Limit: 100, Category: &category})
	require.NoError(t, err)
	assert.Len(t, records, 10)
	for _, r := range records {
		assert.Equal(t, "feed", r.Category)
	}

	subject := "subj-bella"
	records, err = s.ListTransactionRecords(ctx, model.RecordQuery{Limit: 100, SubjectID: &subject})
	require.NoError(t, err)
	assert.Len(t, records, 10)

	start := fixtures.BaseTime.Add(-4 * time.Hour)
	end := fixtures.BaseTime.Add(-2 * time.Hour)
	records, err = s.ListTransactionRecords(ctx, model.RecordQuery{Limit: 100, Start: &start, End: &end})
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "txn-002", records[0].ID)
	assert.Equal(t, "txn-004", records[2].ID)
}

func TestStore_GetTransactionAggregate(t *testing.T) {
	s := openTestStore(t)
	seedStore(t, s, 0, 8)
	ctx := context.Background()

	agg, err := s.GetTransactionAggregate(ctx, model.AggregateQuery{})
	require.NoError(t, err)
	// amounts: 10 20 30 40 50 10 20 30
	assert.Equal(t, 8, agg.Count)
	assert.InDelta(t, 210.0, agg.Total, 0.001)
	assert.InDelta(t, 26.25, agg.Average, 0.001)
	require.Len(t, agg.CategoryBreakdown, 4)
	assert.Equal(t, "bedding", agg.CategoryBreakdown[0].Category)
	assert.InDelta(t, 70.0, agg.CategoryBreakdown[0].Amount, 0.001)

	missing := "nobody"
	agg, err = s.GetTransactionAggregate(ctx, model.AggregateQuery{SubjectID: &missing})
	require.NoError(t, err)
	assert.Zero(t, agg.Count)
	assert.Zero(t, agg.Total)
	assert.Empty(t, agg.CategoryBreakdown)
}

func TestStore_ListSubjectsAndCounts(t *testing.T) {
	s := openTestStore(t)
	seedStore(t, s, 3, 2)
	ctx := context.Background()

	subjects, err := s.ListSubjects(ctx)
	require.NoError(t, err)
	require.Len(t, subjects, 4)
	// Sorted by name; the unnamed subject sorts first
	assert.Equal(t, "", subjects[0].Name)
	assert.Equal(t, "Bella", subjects[1].Name)

	nSubjects, nActivities, nTransactions, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, nSubjects)
	assert.Equal(t, 3, nActivities)
	assert.Equal(t, 2, nTransactions)
}

func TestStore_ImportAssignsIDs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	subjects := []model.Subject{{Name: "Daisy"}}
	require.NoError(t, s.Import(ctx, subjects, nil, nil))
	assert.Len(t, subjects[0].ID, 36)
}

func TestStore_ImportRollsBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	dangling := "missing-subject"
	err := s.Import(ctx, fixtures.SampleSubjects(), []model.ActivityRecord{
		{ID: "x", SubjectID: &dangling, Category: "health", Date: fixtures.BaseTime},
	}, nil)
	require.Error(t, err)

	n, _, _, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
