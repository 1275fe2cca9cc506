package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the type of balance change
type TransactionType string

const (
	TransactionTypeInitial                 TransactionType = "initial"
	TransactionTypeTransferIn              TransactionType = "transfer_in"
	TransactionTypeTransferOut             TransactionType = "transfer_out"
	TransactionTypeStakeEscrow             TransactionType = "stake_escrow"
	TransactionTypeSettlementDistribution  TransactionType = "settlement_distribution"
	TransactionTypeSettlementReturn        TransactionType = "settlement_return"
	TransactionTypeSettlementPenalty       TransactionType = "settlement_penalty"
	TransactionTypeSettlementReviewerBonus TransactionType = "settlement_reviewer_bonus"
)

// BalanceHistory is a single ledger entry
type BalanceHistory struct {
	ID                  int64           `db:"id" json:"id"`
	Username            string          `db:"username" json:"username"`
	BalanceBefore       decimal.Decimal `db:"balance_before" json:"balance_before"`
	BalanceAfter        decimal.Decimal `db:"balance_after" json:"balance_after"`
	ChangeAmount        decimal.Decimal `db:"change_amount" json:"change_amount"`
	TransactionType     TransactionType `db:"transaction_type" json:"transaction_type"`
	TransactionMetadata map[string]any  `db:"transaction_metadata" json:"transaction_metadata,omitempty"`
	WagerID             *uuid.UUID      `db:"wager_id" json:"wager_id,omitempty"`
	CreatedAt           time.Time       `db:"created_at" json:"created_at"`
}
