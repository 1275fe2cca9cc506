package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stakechat/events"
	"stakechat/models"
)

// amountScale matches the NUMERIC(20,4) balance columns
const amountScale = 4

// validateAmount rejects non-positive amounts and amounts finer than the
// ledger can store.
func validateAmount(name string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return validationError("%s amount must be positive", name)
	}
	if !amount.Equal(amount.Truncate(amountScale)) {
		return validationError("%s amount has more than %d decimal places", name, amountScale)
	}
	return nil
}

// RecordBalanceChange records a balance history entry and emits appropriate events.
// This is the single entry point for all balance changes in the system.
func RecordBalanceChange(ctx context.Context, uow UnitOfWork, history *models.BalanceHistory) error {
	if err := uow.BalanceHistoryRepository().Record(ctx, history); err != nil {
		return fmt.Errorf("failed to record balance history: %w", err)
	}

	// Flushed only after the transaction commits
	uow.EventBus().Publish(events.BalanceChangeEvent{
		Username:        history.Username,
		OldBalance:      history.BalanceBefore,
		NewBalance:      history.BalanceAfter,
		TransactionType: history.TransactionType,
		ChangeAmount:    history.ChangeAmount,
		WagerID:         history.WagerID,
	})

	if history.TransactionType == models.TransactionTypeInitial {
		uow.EventBus().Publish(events.AccountCreatedEvent{
			Username:       history.Username,
			InitialBalance: history.BalanceAfter,
		})
	}

	return nil
}

// debitAccount takes amount from a user and records the ledger entry
func debitAccount(ctx context.Context, uow UnitOfWork, username string, amount decimal.Decimal, txType models.TransactionType, wagerID *uuid.UUID, metadata map[string]any) (decimal.Decimal, error) {
	after, err := uow.AccountRepository().Debit(ctx, username, amount)
	if err != nil {
		return decimal.Zero, err
	}
	history := &models.BalanceHistory{
		Username:            username,
		BalanceBefore:       after.Add(amount),
		BalanceAfter:        after,
		ChangeAmount:        amount.Neg(),
		TransactionType:     txType,
		TransactionMetadata: metadata,
		WagerID:             wagerID,
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return decimal.Zero, err
	}
	return after, nil
}

// creditAccount gives amount to a user and records the ledger entry
func creditAccount(ctx context.Context, uow UnitOfWork, username string, amount decimal.Decimal, txType models.TransactionType, wagerID *uuid.UUID, metadata map[string]any) (decimal.Decimal, error) {
	after, err := uow.AccountRepository().Credit(ctx, username, amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to credit %s: %w", username, err)
	}
	history := &models.BalanceHistory{
		Username:            username,
		BalanceBefore:       after.Sub(amount),
		BalanceAfter:        after,
		ChangeAmount:        amount,
		TransactionType:     txType,
		TransactionMetadata: metadata,
		WagerID:             wagerID,
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return decimal.Zero, err
	}
	return after, nil
}
