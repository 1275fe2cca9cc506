package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"stakechat/database"
	"stakechat/models"
	"stakechat/service"
)

// AccountRepository implements the account ledger on PostgreSQL
type AccountRepository struct {
	q queryable
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

// newAccountRepositoryWithTx creates a new account repository with a transaction
func newAccountRepositoryWithTx(tx queryable) *AccountRepository {
	return &AccountRepository{q: tx}
}

// GetByUsername retrieves an account, nil if it does not exist
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	query := `
		SELECT username, balance, created_at, updated_at
		FROM accounts
		WHERE username = $1
	`

	var account models.Account
	err := r.q.QueryRow(ctx, query, username).Scan(
		&account.Username,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", username, err)
	}
	return &account, nil
}

// Create creates a new account with the initial balance
func (r *AccountRepository) Create(ctx context.Context, username string, initialBalance decimal.Decimal) (*models.Account, error) {
	query := `
		INSERT INTO accounts (username, balance)
		VALUES ($1, $2)
		RETURNING username, balance, created_at, updated_at
	`

	var account models.Account
	err := r.q.QueryRow(ctx, query, username, initialBalance).Scan(
		&account.Username,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create account %s: %w", username, err)
	}
	return &account, nil
}

// Credit adds amount to an account, opening it at zero if needed
func (r *AccountRepository) Credit(ctx context.Context, username string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("credit amount must be positive")
	}

	query := `
		INSERT INTO accounts (username, balance)
		VALUES ($1, $2)
		ON CONFLICT (username)
		DO UPDATE SET balance = accounts.balance + EXCLUDED.balance, updated_at = NOW()
		RETURNING balance
	`

	var balance decimal.Decimal
	if err := r.q.QueryRow(ctx, query, username, amount).Scan(&balance); err != nil {
		return decimal.Zero, fmt.Errorf("failed to credit account %s: %w", username, err)
	}
	return balance, nil
}

// Debit subtracts amount in a single conditional update, so the balance check
// and the deduction cannot interleave with another debit.
func (r *AccountRepository) Debit(ctx context.Context, username string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("debit amount must be positive")
	}

	query := `
		UPDATE accounts
		SET balance = balance - $1, updated_at = NOW()
		WHERE username = $2 AND balance >= $1
		RETURNING balance
	`

	var balance decimal.Decimal
	err := r.q.QueryRow(ctx, query, amount, username).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		// Either the account is missing or it cannot cover the amount
		account, getErr := r.GetByUsername(ctx, username)
		if getErr != nil {
			return decimal.Zero, getErr
		}
		if account == nil {
			return decimal.Zero, fmt.Errorf("account %s: %w", username, service.ErrNotFound)
		}
		return decimal.Zero, fmt.Errorf("account %s has %s, needs %s: %w", username, account.Balance, amount, service.ErrInsufficientFunds)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to debit account %s: %w", username, err)
	}
	return balance, nil
}
