package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stakechat/repository/testutil"
)

func TestSettlementRunRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := testutil.SetupTestDatabase(t)
	repo := NewSettlementRunRepository(testDB.DB)
	ctx := context.Background()

	t.Run("no runs yet", func(t *testing.T) {
		run, err := repo.GetLatest(ctx)
		require.NoError(t, err)
		assert.Nil(t, run)
	})

	t.Run("latest run wins", func(t *testing.T) {
		start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

		older := testutil.CreateTestSettlementRun(start)
		require.NoError(t, repo.Create(ctx, older))
		assert.NotZero(t, older.ID)

		newer := testutil.CreateTestSettlementRun(start.Add(time.Minute))
		newer.WagersSettled = 2
		newer.Failures = 1
		require.NoError(t, repo.Create(ctx, newer))

		latest, err := repo.GetLatest(ctx)
		require.NoError(t, err)
		require.NotNil(t, latest)

		assert.Equal(t, newer.ID, latest.ID)
		assert.True(t, newer.StartedAt.Equal(latest.StartedAt))
		assert.Equal(t, 3, latest.WagersChecked)
		assert.Equal(t, 2, latest.WagersSettled)
		assert.Equal(t, 1, latest.Failures)
		assert.Equal(t, "test", latest.ExecutionSummary["source"])
	})

	t.Run("nil summary stored as empty object", func(t *testing.T) {
		run := testutil.CreateTestSettlementRun(time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC))
		run.ExecutionSummary = nil
		require.NoError(t, repo.Create(ctx, run))

		latest, err := repo.GetLatest(ctx)
		require.NoError(t, err)
		assert.Empty(t, latest.ExecutionSummary)
	})
}
