package api

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"stakechat/models"
	"stakechat/service"
)

type mockAccountService struct {
	mock.Mock
}

func (m *mockAccountService) GetOrCreateAccount(ctx context.Context, username string) (*models.Account, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *mockAccountService) GetAccount(ctx context.Context, username string) (*models.Account, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *mockAccountService) GetHistory(ctx context.Context, username string, limit int) ([]*models.BalanceHistory, error) {
	args := m.Called(ctx, username, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BalanceHistory), args.Error(1)
}

type mockTransferService struct {
	mock.Mock
}

func (m *mockTransferService) Transfer(ctx context.Context, from, to string, amount decimal.Decimal) (*models.TransferResult, error) {
	args := m.Called(ctx, from, to, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TransferResult), args.Error(1)
}

type mockWagerService struct {
	mock.Mock
}

func (m *mockWagerService) wager(args mock.Arguments) (*models.Wager, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wager), args.Error(1)
}

func (m *mockWagerService) wagers(args mock.Arguments) ([]*models.Wager, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Wager), args.Error(1)
}

func (m *mockWagerService) CreateWager(ctx context.Context, req service.CreateWagerRequest) (*models.Wager, error) {
	return m.wager(m.Called(ctx, req))
}

func (m *mockWagerService) AttachStake(ctx context.Context, wagerID uuid.UUID, actor string, amount decimal.Decimal) (*models.Wager, error) {
	return m.wager(m.Called(ctx, wagerID, actor, amount))
}

func (m *mockWagerService) SetGuess(ctx context.Context, wagerID uuid.UUID, actor string, letters string) (*models.Wager, error) {
	return m.wager(m.Called(ctx, wagerID, actor, letters))
}

func (m *mockWagerService) ToggleLike(ctx context.Context, wagerID uuid.UUID, actor string) (*models.Wager, error) {
	return m.wager(m.Called(ctx, wagerID, actor))
}

func (m *mockWagerService) ToggleDislike(ctx context.Context, wagerID uuid.UUID, actor string) (*models.Wager, error) {
	return m.wager(m.Called(ctx, wagerID, actor))
}

func (m *mockWagerService) ForceReviewerDecision(ctx context.Context, wagerID uuid.UUID, actor string) (*models.Wager, error) {
	return m.wager(m.Called(ctx, wagerID, actor))
}

func (m *mockWagerService) MarkPublic(ctx context.Context, wagerID uuid.UUID, actor string) (*models.Wager, error) {
	return m.wager(m.Called(ctx, wagerID, actor))
}

func (m *mockWagerService) ForwardWager(ctx context.Context, wagerID uuid.UUID, actor string, req service.ForwardRequest) (*models.Wager, error) {
	return m.wager(m.Called(ctx, wagerID, actor, req))
}

func (m *mockWagerService) GetWager(ctx context.Context, wagerID uuid.UUID) (*models.Wager, error) {
	return m.wager(m.Called(ctx, wagerID))
}

func (m *mockWagerService) ListForUser(ctx context.Context, username string) ([]*models.Wager, error) {
	return m.wagers(m.Called(ctx, username))
}

func (m *mockWagerService) ListForGroup(ctx context.Context, groupID string) ([]*models.Wager, error) {
	return m.wagers(m.Called(ctx, groupID))
}

func (m *mockWagerService) ListPublic(ctx context.Context) ([]*models.Wager, error) {
	return m.wagers(m.Called(ctx))
}

func (m *mockWagerService) Tick(ctx context.Context, wagerID uuid.UUID) (*models.Wager, error) {
	return m.wager(m.Called(ctx, wagerID))
}

func (m *mockWagerService) TickAll(ctx context.Context) (*models.SettlementRun, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SettlementRun), args.Error(1)
}

func (m *mockWagerService) LatestSettlementRun(ctx context.Context) (*models.SettlementRun, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SettlementRun), args.Error(1)
}
