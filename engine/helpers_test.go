package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stakechat/models"
)

var testStart = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// newTestWager builds a wager whose timers started at testStart
func newTestWager(mode models.CoinMode, reviewers ...string) *models.Wager {
	return &models.Wager{
		ID:                   uuid.New(),
		Sender:               "sender",
		Content:              "guess my initials",
		CoinMode:             mode,
		MainTimer:            models.Timer{DurationMinutes: 30, StartedAt: testStart},
		ReviewTimer:          models.Timer{DurationMinutes: 10, StartedAt: testStart},
		Reviewers:            reviewers,
		ReviewerPhaseMinutes: 5,
		Guesses:              map[string]string{},
		ReviewerActions:      map[string]models.ReviewerAction{},
	}
}

func stake(w *models.Wager, user string, amount int64, guess string) {
	w.AddStake(user, decimal.NewFromInt(amount))
	if guess != "" {
		w.Guesses[user] = guess
	}
}

func like(w *models.Wager, users ...string) {
	w.Likes = append(w.Likes, users...)
}

func dislike(w *models.Wager, users ...string) {
	w.Dislikes = append(w.Dislikes, users...)
}

// act records a completed reviewer action
func act(w *models.Wager, reviewer, guess string) {
	w.Guesses[reviewer] = guess
	w.Likes = append(w.Likes, reviewer)
	at := testStart
	w.ReviewerActions[reviewer] = models.ReviewerAction{Guess: guess, Liked: true, HasActed: true, ActedAt: &at}
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func minutes(n int) time.Time {
	return testStart.Add(time.Duration(n) * time.Minute)
}
