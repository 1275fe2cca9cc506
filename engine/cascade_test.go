package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stakechat/models"
)

func TestCascade_Lifecycle(t *testing.T) {
	w := newTestWager(models.CoinModeEqual, "r1", "r2", "r3")
	require.True(t, UsesCascade(w))
	assert.Equal(t, CascadeNotStarted, StateOf(w))

	name, idx, ok := ActiveReviewer(w)
	require.True(t, ok)
	assert.Equal(t, "r1", name)
	assert.Equal(t, 0, idx)

	require.True(t, StartCascade(w, minutes(30)))
	assert.False(t, StartCascade(w, minutes(31)), "second start is a no-op")
	assert.Equal(t, CascadeActive, StateOf(w))

	// each phase opens when the previous one closes
	assert.False(t, ResolvePhase(w, minutes(35)))
	name, idx, _ = ActiveReviewer(w)
	assert.Equal(t, "r2", name)
	assert.Equal(t, 1, idx)

	assert.False(t, ResolvePhase(w, minutes(40)))
	name, _, _ = ActiveReviewer(w)
	assert.Equal(t, "r3", name)

	assert.True(t, ResolvePhase(w, minutes(45)))
	assert.Equal(t, CascadeConcluded, StateOf(w))
	_, _, ok = ActiveReviewer(w)
	assert.False(t, ok)

	require.Len(t, w.Cascade.Phases, 3)
	for i, p := range w.Cascade.Phases {
		assert.Equal(t, i, p.ReviewerIndex)
		assert.False(t, p.Active)
		assert.True(t, p.Expired)
	}
	assert.Equal(t, minutes(40), w.Cascade.Phases[2].StartedAt)
}

func TestCascade_ExactlyOnePhaseActive(t *testing.T) {
	w := newTestWager(models.CoinModeEqual, "r1", "r2", "r3", "r4")
	StartCascade(w, minutes(30))

	at := 30
	for !w.Cascade.Concluded {
		active := 0
		for _, p := range w.Cascade.Phases {
			if p.Active {
				active++
			}
		}
		assert.Equal(t, 1, active)

		at += 5
		require.True(t, PhaseExpired(w, minutes(at)))
		ResolvePhase(w, minutes(at))
	}
	assert.Len(t, w.Cascade.Phases, 4)
}

func TestCascade_PhaseExpiry(t *testing.T) {
	w := newTestWager(models.CoinModeEqual, "r1", "r2")
	assert.False(t, PhaseExpired(w, minutes(100)), "no phase running")

	StartCascade(w, minutes(30))
	assert.False(t, PhaseExpired(w, minutes(34)))
	assert.True(t, PhaseExpired(w, minutes(35)))
}

func TestCascade_SingleReviewerNeverCascades(t *testing.T) {
	w := newTestWager(models.CoinModeEqual, "carol")
	assert.False(t, UsesCascade(w))
	assert.False(t, StartCascade(w, minutes(30)))
	assert.Equal(t, CascadeNotStarted, StateOf(w))

	name, _, ok := ActiveReviewer(w)
	assert.True(t, ok)
	assert.Equal(t, "carol", name)
}

func TestReviewerDecision(t *testing.T) {
	w := newTestWager(models.CoinModeEqual, "r1", "r2")
	w.Guesses["r2"] = "XY"

	d := ReviewerDecision(w, 1)
	assert.Equal(t, models.SettlementModeReviewerDecision, d.Mode)
	assert.Equal(t, "XY", d.Letters)
	assert.Equal(t, 1, d.ReviewerIndex)

	d = ReviewerDecision(w, 0)
	assert.Empty(t, d.Letters)

	d = ReviewerDecision(w, 7)
	assert.Equal(t, -1, d.ReviewerIndex)
}
