package commands

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/penwyp/go-herdbook/internal/core/model"
	"github.com/penwyp/go-herdbook/internal/data/store"
	"github.com/penwyp/go-herdbook/internal/testing/fixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedStore(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "herd.db"))
	require.NoError(t, err)
	defer st.Close()
	ctx := context.Background()

	res, err := seedStore(ctx, st, 12, 8, fixtures.BaseTime, false)
	require.NoError(t, err)
	assert.Equal(t, seedResult{Subjects: 4, Activities: 12, Transactions: 8}, res)

	subjects, acts, txns, err := st.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, subjects)
	assert.Equal(t, 12, acts)
	assert.Equal(t, 8, txns)

	page, err := st.ListActivityRecords(ctx, model.RecordQuery{Limit: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Len(t, page[0].ID, 36)
	assert.True(t, page[0].Date.Equal(fixtures.BaseTime))

	// Non-empty database needs force
	_, err = seedStore(ctx, st, 1, 1, fixtures.BaseTime, false)
	assert.ErrorContains(t, err, "--force")

	res, err = seedStore(ctx, st, 3, 0, fixtures.BaseTime, true)
	require.NoError(t, err)
	assert.Equal(t, seedResult{Activities: 3}, res)

	_, acts, _, err = st.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 15, acts)
}
