package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stakechat/models"
	"stakechat/repository/testutil"
)

func TestWagerRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := testutil.SetupTestDatabase(t)
	repo := NewWagerRepository(testDB.DB)
	ctx := context.Background()

	t.Run("missing wager", func(t *testing.T) {
		w, err := repo.GetByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, w)
	})

	t.Run("save and load open wager", func(t *testing.T) {
		w := testutil.CreateTestWager("alice", "bob", "rev1", "rev2")
		require.NoError(t, repo.Save(ctx, w))

		loaded, err := repo.GetByID(ctx, w.ID)
		require.NoError(t, err)
		require.NotNil(t, loaded)

		assert.Equal(t, w.Sender, loaded.Sender)
		assert.Equal(t, "bob", *loaded.Recipient)
		assert.Nil(t, loaded.GroupID)
		assert.Equal(t, []string{"rev1", "rev2"}, loaded.Reviewers)
		assert.Equal(t, 30, loaded.MainTimer.DurationMinutes)
		assert.True(t, w.MainTimer.StartedAt.Equal(loaded.MainTimer.StartedAt))
		assert.Empty(t, loaded.Stakes)
		assert.NotNil(t, loaded.Guesses)
		assert.NotNil(t, loaded.ReviewerActions)
		assert.Nil(t, loaded.Settlement)
	})

	t.Run("save replaces mutable state", func(t *testing.T) {
		w := testutil.CreateTestWager("alice", "bob")
		require.NoError(t, repo.Save(ctx, w))

		w.AddStake("carol", decimal.RequireFromString("12.5"))
		w.Guesses["carol"] = "AB"
		w.Likes = append(w.Likes, "carol")
		w.ReviewerActions["rev"] = models.ReviewerAction{Guess: "AB", Liked: true, HasActed: true}
		w.Cascade.Phases = append(w.Cascade.Phases, models.ReviewerPhase{ReviewerIndex: 0, DurationMinutes: 5, Active: true, StartedAt: w.CreatedAt})
		idx := 0
		w.Settlement = &models.Settlement{
			Mode:                  models.SettlementModeReviewerDecision,
			DecidingReviewerIndex: &idx,
			DecidingReviewer:      "rev",
			DecidingLetters:       "AB",
			Winners:               []string{"carol"},
			Losers:                []string{},
			Returned:              map[string]decimal.Decimal{"carol": decimal.RequireFromString("12.5")},
			SettledAt:             w.CreatedAt.Add(time.Minute),
		}
		require.NoError(t, repo.Save(ctx, w))

		loaded, err := repo.GetByIDForUpdate(ctx, w.ID)
		require.NoError(t, err)
		require.NotNil(t, loaded)

		require.Len(t, loaded.Stakes, 1)
		assert.Equal(t, "12.5", loaded.Stakes[0].Amount.String())
		assert.Equal(t, "AB", loaded.Guesses["carol"])
		assert.Equal(t, []string{"carol"}, loaded.Likes)
		assert.True(t, loaded.ReviewerActions["rev"].HasActed)
		require.Len(t, loaded.Cascade.Phases, 1)
		require.NotNil(t, loaded.Settlement)
		assert.Equal(t, models.SettlementModeReviewerDecision, loaded.Settlement.Mode)
		assert.Equal(t, 0, *loaded.Settlement.DecidingReviewerIndex)
		assert.Equal(t, "12.5", loaded.Settlement.Returned["carol"].String())
	})

	t.Run("lists", func(t *testing.T) {
		testDB.Truncate(t)

		direct := testutil.CreateTestWager("dave", "erin", "frank")
		group := testutil.CreateTestGroupWager("erin", "g1", "dave")
		other := testutil.CreateTestWager("gina", "hank", "ivan")
		for _, w := range []*models.Wager{direct, group, other} {
			require.NoError(t, repo.Save(ctx, w))
		}

		forDave, err := repo.ListForUser(ctx, "dave")
		require.NoError(t, err)
		assert.ElementsMatch(t, []uuid.UUID{direct.ID, group.ID}, wagerIDs(forDave))

		forFrank, err := repo.ListForUser(ctx, "frank")
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{direct.ID}, wagerIDs(forFrank))

		inGroup, err := repo.ListForGroup(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{group.ID}, wagerIDs(inGroup))

		now := time.Now().UTC()
		other.IsPublic = true
		other.PublicBy = &other.Sender
		other.PublicAt = &now
		other.Settlement = &models.Settlement{Mode: models.SettlementModeUnanimousLikes, SettledAt: now}
		require.NoError(t, repo.Save(ctx, other))

		public, err := repo.ListPublic(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{other.ID}, wagerIDs(public))

		unsettled, err := repo.ListUnsettledIDs(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uuid.UUID{direct.ID, group.ID}, unsettled)
	})
}

func wagerIDs(wagers []*models.Wager) []uuid.UUID {
	ids := make([]uuid.UUID, len(wagers))
	for i, w := range wagers {
		ids[i] = w.ID
	}
	return ids
}
