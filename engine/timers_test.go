package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"stakechat/models"
)

func TestEvaluateTimer(t *testing.T) {
	timer := models.Timer{DurationMinutes: 3, StartedAt: testStart}

	t.Run("partial minutes are floored", func(t *testing.T) {
		state := EvaluateTimer(timer, testStart.Add(59*time.Second))
		assert.Equal(t, 0, state.ElapsedMinutes)
		assert.Equal(t, 3, state.RemainingMinutes)
		assert.True(t, state.Active)

		state = EvaluateTimer(timer, testStart.Add(2*time.Minute+59*time.Second))
		assert.Equal(t, 2, state.ElapsedMinutes)
		assert.Equal(t, 1, state.RemainingMinutes)
		assert.True(t, state.Active)
	})

	t.Run("expires on the minute boundary", func(t *testing.T) {
		state := EvaluateTimer(timer, minutes(3))
		assert.Equal(t, 0, state.RemainingMinutes)
		assert.False(t, state.Active)
	})

	t.Run("late evaluation never goes negative", func(t *testing.T) {
		state := EvaluateTimer(timer, minutes(500))
		assert.Equal(t, 500, state.ElapsedMinutes)
		assert.Equal(t, 0, state.RemainingMinutes)
		assert.False(t, state.Active)
	})

	t.Run("clock behind start counts as zero elapsed", func(t *testing.T) {
		state := EvaluateTimer(timer, testStart.Add(-time.Hour))
		assert.Equal(t, 0, state.ElapsedMinutes)
		assert.True(t, state.Active)
	})

	t.Run("expired flag wins over wall clock", func(t *testing.T) {
		expired := timer
		expired.Expired = true
		state := EvaluateTimer(expired, testStart)
		assert.False(t, state.Active)
		assert.Equal(t, 0, state.RemainingMinutes)
	})
}

func TestEvaluateTimers(t *testing.T) {
	w := newTestWager(models.CoinModeEqual, "r1", "r2")

	timers := EvaluateTimers(w, minutes(5))
	assert.True(t, timers.Main.Active)
	assert.True(t, timers.Review.Active)
	assert.Nil(t, timers.Phase)
	assert.False(t, timers.BothExpired())

	timers = EvaluateTimers(w, minutes(30))
	assert.True(t, timers.BothExpired())

	StartCascade(w, minutes(30))
	timers = EvaluateTimers(w, minutes(32))
	if assert.NotNil(t, timers.Phase) {
		assert.Equal(t, 3, timers.Phase.RemainingMinutes)
	}
}
