package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/tankintel/internal/training"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ledger, err := NewLedger(db)
	require.NoError(t, err)
	return ledger
}

func TestLedger_RecordAndList(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	recs := []training.RunRecord{
		{Country: "India", Kind: "deal", BestModel: "Random Forest", Metric: "roc_auc", Score: 0.81, Rows: 500, StartedAt: base, Duration: 3 * time.Second},
		{Country: "US", Kind: "valuation", BestModel: "Gradient Boosting", Metric: "rmse", Score: 1200, Rows: 900, StartedAt: base.Add(time.Minute), Duration: 8 * time.Second},
		{Country: "India", Kind: "similarity", StartedAt: base.Add(2 * time.Minute), Duration: time.Second, Error: "no valid descriptions"},
	}
	for _, rec := range recs {
		require.NoError(t, ledger.RecordRun(ctx, rec))
	}

	runs, err := ledger.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 3)

	// Newest first.
	assert.Equal(t, "similarity", runs[0].Kind)
	assert.Equal(t, "no valid descriptions", runs[0].Error)
	assert.Equal(t, "valuation", runs[1].Kind)
	assert.Equal(t, "deal", runs[2].Kind)

	assert.Equal(t, "Random Forest", runs[2].BestModel)
	assert.Equal(t, 0.81, runs[2].Score)
	assert.Equal(t, int64(3000), runs[2].Duration)
	assert.NotEmpty(t, runs[0].ID)
	assert.NotEqual(t, runs[0].ID, runs[1].ID)
}

func TestLedger_RecentRunsLimit(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, ledger.RecordRun(ctx, training.RunRecord{
			Country:   "India",
			Kind:      "deal",
			StartedAt: time.Now().Add(time.Duration(i) * time.Second),
		}))
	}

	runs, err := ledger.RecentRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	runs, err = ledger.RecentRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 5, "non-positive limits fall back to the default")
}
