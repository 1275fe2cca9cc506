package testutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stakechat/models"
)

// CreateTestWager builds an open wager addressed to a recipient with both
// timers starting at now.
func CreateTestWager(sender, recipient string, reviewers ...string) *models.Wager {
	now := time.Now().UTC().Truncate(time.Microsecond)
	if len(reviewers) == 0 {
		reviewers = []string{"rev"}
	}
	return &models.Wager{
		ID:                   uuid.New(),
		Sender:               sender,
		Recipient:            &recipient,
		Content:              "guess the band",
		CoinMode:             models.CoinModeProportional,
		MainTimer:            models.Timer{DurationMinutes: 30, StartedAt: now},
		ReviewTimer:          models.Timer{DurationMinutes: 10, StartedAt: now},
		Reviewers:            reviewers,
		ReviewerPhaseMinutes: 5,
		Stakes:               []models.Stake{},
		Guesses:              map[string]string{},
		Likes:                []string{},
		Dislikes:             []string{},
		ReviewerActions:      map[string]models.ReviewerAction{},
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// CreateTestGroupWager builds an open wager posted to a group
func CreateTestGroupWager(sender, groupID string, reviewers ...string) *models.Wager {
	w := CreateTestWager(sender, "", reviewers...)
	w.Recipient = nil
	w.GroupID = &groupID
	return w
}

// CreateTestBalanceHistory creates a ledger entry for a stake escrow
func CreateTestBalanceHistory(username string, wagerID *uuid.UUID) *models.BalanceHistory {
	return &models.BalanceHistory{
		Username:        username,
		BalanceBefore:   decimal.NewFromInt(100),
		BalanceAfter:    decimal.NewFromInt(90),
		ChangeAmount:    decimal.NewFromInt(-10),
		TransactionType: models.TransactionTypeStakeEscrow,
		TransactionMetadata: map[string]any{
			"test": true,
		},
		WagerID: wagerID,
	}
}

// CreateTestSettlementRun creates a settlement run that took one second
func CreateTestSettlementRun(startedAt time.Time) *models.SettlementRun {
	return &models.SettlementRun{
		StartedAt:     startedAt,
		FinishedAt:    startedAt.Add(time.Second),
		WagersChecked: 3,
		WagersSettled: 1,
		ExecutionSummary: map[string]any{
			"source": "test",
		},
	}
}
