package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stakechat/events"
	"stakechat/models"
)

// AccountRepository defines the interface for the account ledger
type AccountRepository interface {
	// GetByUsername retrieves an account, nil if it does not exist
	GetByUsername(ctx context.Context, username string) (*models.Account, error)

	// Create creates a new account with the initial balance
	Create(ctx context.Context, username string, initialBalance decimal.Decimal) (*models.Account, error)

	// Credit adds amount to the balance and returns the new balance. An account
	// that does not exist yet is opened with a zero balance first.
	Credit(ctx context.Context, username string, amount decimal.Decimal) (decimal.Decimal, error)

	// Debit subtracts amount only if the balance covers it and returns the new
	// balance. Fails with ErrInsufficientFunds otherwise.
	Debit(ctx context.Context, username string, amount decimal.Decimal) (decimal.Decimal, error)
}

// BalanceHistoryRepository defines the interface for ledger entries
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *models.BalanceHistory) error

	// GetByUser returns the most recent entries for a user
	GetByUser(ctx context.Context, username string, limit int) ([]*models.BalanceHistory, error)

	// GetByWager returns every entry tied to a wager, oldest first
	GetByWager(ctx context.Context, wagerID uuid.UUID) ([]*models.BalanceHistory, error)
}

// WagerRepository defines the interface for wager persistence
type WagerRepository interface {
	// GetByID loads a wager snapshot, nil if it does not exist
	GetByID(ctx context.Context, id uuid.UUID) (*models.Wager, error)

	// GetByIDForUpdate loads a wager and locks its row until the transaction ends
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Wager, error)

	// Save writes the full wager snapshot, inserting or replacing it
	Save(ctx context.Context, wager *models.Wager) error

	// ListForUser returns wagers the user sent, received or reviews
	ListForUser(ctx context.Context, username string) ([]*models.Wager, error)

	// ListForGroup returns wagers posted to a group
	ListForGroup(ctx context.Context, groupID string) ([]*models.Wager, error)

	// ListPublic returns wagers marked public, newest first
	ListPublic(ctx context.Context, limit int) ([]*models.Wager, error)

	// ListUnsettledIDs returns the ids of wagers without a settlement
	ListUnsettledIDs(ctx context.Context) ([]uuid.UUID, error)
}

// SettlementRunRepository defines the audit trail of settlement worker passes
type SettlementRunRepository interface {
	// Create stores a finished run
	Create(ctx context.Context, run *models.SettlementRun) error

	// GetLatest returns the most recent run, nil if none exists
	GetLatest(ctx context.Context) (*models.SettlementRun, error)
}

// AccountService defines account operations
type AccountService interface {
	// GetOrCreateAccount returns an account, opening it with the starting balance if needed
	GetOrCreateAccount(ctx context.Context, username string) (*models.Account, error)

	// GetAccount returns an existing account
	GetAccount(ctx context.Context, username string) (*models.Account, error)

	// GetHistory returns recent ledger entries for a user
	GetHistory(ctx context.Context, username string, limit int) ([]*models.BalanceHistory, error)
}

// TransferService defines peer transfers
type TransferService interface {
	Transfer(ctx context.Context, from, to string, amount decimal.Decimal) (*models.TransferResult, error)
}

// CreateWagerRequest carries everything needed to open a wager
type CreateWagerRequest struct {
	Sender               string          `json:"sender"`
	Recipient            string          `json:"recipient,omitempty"`
	GroupID              string          `json:"group_id,omitempty"`
	Content              string          `json:"content"`
	CoinMode             models.CoinMode `json:"coin_mode"`
	MainTimerMinutes     int             `json:"main_timer_minutes"`
	ReviewTimerMinutes   int             `json:"review_timer_minutes"`
	ReviewerPhaseMinutes int             `json:"reviewer_phase_minutes,omitempty"`
	Reviewers            []string        `json:"reviewers"`
}

// ForwardRequest names where a forwarded wager goes
type ForwardRequest struct {
	Recipient string `json:"recipient,omitempty"`
	GroupID   string `json:"group_id,omitempty"`
}

// WagerService defines the wager orchestrator. Every mutating call runs under
// the wager's lock and commits all-or-nothing.
type WagerService interface {
	CreateWager(ctx context.Context, req CreateWagerRequest) (*models.Wager, error)
	AttachStake(ctx context.Context, wagerID uuid.UUID, actor string, amount decimal.Decimal) (*models.Wager, error)
	SetGuess(ctx context.Context, wagerID uuid.UUID, actor string, letters string) (*models.Wager, error)
	ToggleLike(ctx context.Context, wagerID uuid.UUID, actor string) (*models.Wager, error)
	ToggleDislike(ctx context.Context, wagerID uuid.UUID, actor string) (*models.Wager, error)
	ForceReviewerDecision(ctx context.Context, wagerID uuid.UUID, actor string) (*models.Wager, error)
	MarkPublic(ctx context.Context, wagerID uuid.UUID, actor string) (*models.Wager, error)
	ForwardWager(ctx context.Context, wagerID uuid.UUID, actor string, req ForwardRequest) (*models.Wager, error)

	// GetWager applies any due timer transitions before returning the wager
	GetWager(ctx context.Context, wagerID uuid.UUID) (*models.Wager, error)
	ListForUser(ctx context.Context, username string) ([]*models.Wager, error)
	ListForGroup(ctx context.Context, groupID string) ([]*models.Wager, error)
	ListPublic(ctx context.Context) ([]*models.Wager, error)

	// Tick applies due timer transitions to one wager
	Tick(ctx context.Context, wagerID uuid.UUID) (*models.Wager, error)

	// TickAll ticks every unsettled wager and records the pass
	TickAll(ctx context.Context) (*models.SettlementRun, error)

	// LatestSettlementRun returns the most recent recorded pass
	LatestSettlementRun(ctx context.Context) (*models.SettlementRun, error)
}

// UnitOfWork manages a single transaction and its repositories
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	AccountRepository() AccountRepository
	BalanceHistoryRepository() BalanceHistoryRepository
	WagerRepository() WagerRepository
	SettlementRunRepository() SettlementRunRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory creates new units of work
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// EventPublisher stages events until the unit of work commits
type EventPublisher interface {
	Publish(event events.Event)
}

// Clock is the time source for every timer decision
type Clock interface {
	Now() time.Time
}
