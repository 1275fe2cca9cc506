package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account holds a user's spendable balance
type Account struct {
	Username  string          `db:"username" json:"username"`
	Balance   decimal.Decimal `db:"balance" json:"balance"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// TransferResult represents the result of a peer transfer
type TransferResult struct {
	Amount        decimal.Decimal `json:"amount"`
	RecipientName string          `json:"recipient"`
	NewBalance    decimal.Decimal `json:"new_balance"`
}
