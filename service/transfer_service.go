package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"stakechat/models"
)

type transferService struct {
	uowFactory UnitOfWorkFactory
}

// NewTransferService creates a new transfer service
func NewTransferService(uowFactory UnitOfWorkFactory) TransferService {
	return &transferService{
		uowFactory: uowFactory,
	}
}

// Transfer moves amount between two existing accounts
func (s *transferService) Transfer(ctx context.Context, from, to string, amount decimal.Decimal) (*models.TransferResult, error) {
	if err := validateAmount("transfer", amount); err != nil {
		return nil, err
	}
	if from == "" || to == "" {
		return nil, validationError("sender and recipient are required")
	}
	if from == to {
		return nil, validationError("cannot transfer to yourself")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	recipient, err := uow.AccountRepository().GetByUsername(ctx, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipient account: %w", err)
	}
	if recipient == nil {
		return nil, notFoundError("recipient %s not found", to)
	}

	newFromBalance, err := debitAccount(ctx, uow, from, amount, models.TransactionTypeTransferOut, nil, map[string]any{
		"recipient":       to,
		"transfer_amount": amount.String(),
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientFunds) || errors.Is(err, ErrNotFound) {
			return nil, newError(KindOf(err), "%s cannot send %s: %v", from, amount, err)
		}
		return nil, fmt.Errorf("failed to deduct transfer amount: %w", err)
	}

	if _, err := creditAccount(ctx, uow, to, amount, models.TransactionTypeTransferIn, nil, map[string]any{
		"sender":          from,
		"transfer_amount": amount.String(),
	}); err != nil {
		return nil, fmt.Errorf("failed to add transfer amount: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"from":   from,
		"to":     to,
		"amount": amount.String(),
	}).Info("Transfer completed")

	return &models.TransferResult{
		Amount:        amount,
		RecipientName: recipient.Username,
		NewBalance:    newFromBalance,
	}, nil
}
