package service

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"stakechat/events"
	"stakechat/models"
)

// memoryStore is an in-memory database for orchestrator tests. A unit of work
// holds the store lock from Begin until Commit or Rollback and works on a
// private copy, so transactions are serializable and rollbacks leave no trace.
type memoryStore struct {
	mu        sync.Mutex
	state     memoryState
	published []events.Event
	eventsMu  sync.Mutex

	// failCredit makes Credit fail for that user, to exercise rollbacks
	failCredit string
}

type memoryState struct {
	accounts map[string]*models.Account
	history  []*models.BalanceHistory
	wagers   map[uuid.UUID]*models.Wager
	runs     []*models.SettlementRun
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		state: memoryState{
			accounts: map[string]*models.Account{},
			wagers:   map[uuid.UUID]*models.Wager{},
		},
	}
}

func (s memoryState) clone() memoryState {
	c := memoryState{
		accounts: make(map[string]*models.Account, len(s.accounts)),
		history:  slices.Clone(s.history),
		wagers:   make(map[uuid.UUID]*models.Wager, len(s.wagers)),
		runs:     slices.Clone(s.runs),
	}
	for k, v := range s.accounts {
		a := *v
		c.accounts[k] = &a
	}
	for k, v := range s.wagers {
		c.wagers[k] = v.Clone()
	}
	return c
}

func (s *memoryStore) Create() UnitOfWork {
	return &memoryUnitOfWork{store: s}
}

// seed opens an account directly, bypassing the ledger
func (s *memoryStore) seed(username string, balance int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.accounts[username] = &models.Account{Username: username, Balance: decimal.NewFromInt(balance)}
}

func (s *memoryStore) balance(t *testing.T, username string) decimal.Decimal {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.state.accounts[username]
	require.True(t, ok, "no account for %s", username)
	return a.Balance
}

func (s *memoryStore) hasAccount(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.state.accounts[username]
	return ok
}

func (s *memoryStore) totalBalance() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, a := range s.state.accounts {
		total = total.Add(a.Balance)
	}
	return total
}

func (s *memoryStore) wager(t *testing.T, id uuid.UUID) *models.Wager {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.state.wagers[id]
	require.True(t, ok, "no wager %s", id)
	return w.Clone()
}

func (s *memoryStore) historyFor(username string) []*models.BalanceHistory {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.BalanceHistory
	for _, h := range s.state.history {
		if h.Username == username {
			out = append(out, h)
		}
	}
	return out
}

func (s *memoryStore) eventsOf(eventType events.EventType) []events.Event {
	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()
	var out []events.Event
	for _, e := range s.published {
		if e.Type() == eventType {
			out = append(out, e)
		}
	}
	return out
}

type memoryUnitOfWork struct {
	store   *memoryStore
	staged  *memoryState
	pending []events.Event
}

func (u *memoryUnitOfWork) Begin(ctx context.Context) error {
	if u.staged != nil {
		return fmt.Errorf("transaction already started")
	}
	u.store.mu.Lock()
	staged := u.store.state.clone()
	u.staged = &staged
	return nil
}

func (u *memoryUnitOfWork) Commit() error {
	if u.staged == nil {
		return fmt.Errorf("no transaction to commit")
	}
	u.store.state = *u.staged
	u.staged = nil
	u.store.mu.Unlock()

	u.store.eventsMu.Lock()
	u.store.published = append(u.store.published, u.pending...)
	u.store.eventsMu.Unlock()
	u.pending = nil
	return nil
}

func (u *memoryUnitOfWork) Rollback() error {
	if u.staged == nil {
		return nil
	}
	u.staged = nil
	u.pending = nil
	u.store.mu.Unlock()
	return nil
}

func (u *memoryUnitOfWork) AccountRepository() AccountRepository {
	return memoryAccounts{u}
}

func (u *memoryUnitOfWork) BalanceHistoryRepository() BalanceHistoryRepository {
	return memoryHistory{u}
}

func (u *memoryUnitOfWork) WagerRepository() WagerRepository {
	return memoryWagers{u}
}

func (u *memoryUnitOfWork) SettlementRunRepository() SettlementRunRepository {
	return memoryRuns{u}
}

func (u *memoryUnitOfWork) EventBus() EventPublisher {
	return u
}

func (u *memoryUnitOfWork) Publish(e events.Event) {
	u.pending = append(u.pending, e)
}

type memoryAccounts struct{ u *memoryUnitOfWork }

func (r memoryAccounts) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	a, ok := r.u.staged.accounts[username]
	if !ok {
		return nil, nil
	}
	c := *a
	return &c, nil
}

func (r memoryAccounts) Create(ctx context.Context, username string, initialBalance decimal.Decimal) (*models.Account, error) {
	if _, ok := r.u.staged.accounts[username]; ok {
		return nil, fmt.Errorf("account %s already exists", username)
	}
	a := &models.Account{Username: username, Balance: initialBalance}
	r.u.staged.accounts[username] = a
	c := *a
	return &c, nil
}

func (r memoryAccounts) Credit(ctx context.Context, username string, amount decimal.Decimal) (decimal.Decimal, error) {
	if r.u.store.failCredit == username {
		return decimal.Zero, fmt.Errorf("connection reset")
	}
	a, ok := r.u.staged.accounts[username]
	if !ok {
		a = &models.Account{Username: username}
		r.u.staged.accounts[username] = a
	}
	a.Balance = a.Balance.Add(amount)
	return a.Balance, nil
}

func (r memoryAccounts) Debit(ctx context.Context, username string, amount decimal.Decimal) (decimal.Decimal, error) {
	a, ok := r.u.staged.accounts[username]
	if !ok {
		return decimal.Zero, fmt.Errorf("account %s: %w", username, ErrNotFound)
	}
	if a.Balance.LessThan(amount) {
		return decimal.Zero, fmt.Errorf("account %s: %w", username, ErrInsufficientFunds)
	}
	a.Balance = a.Balance.Sub(amount)
	return a.Balance, nil
}

type memoryHistory struct{ u *memoryUnitOfWork }

func (r memoryHistory) Record(ctx context.Context, history *models.BalanceHistory) error {
	history.ID = int64(len(r.u.staged.history) + 1)
	r.u.staged.history = append(r.u.staged.history, history)
	return nil
}

func (r memoryHistory) GetByUser(ctx context.Context, username string, limit int) ([]*models.BalanceHistory, error) {
	var out []*models.BalanceHistory
	for i := len(r.u.staged.history) - 1; i >= 0 && len(out) < limit; i-- {
		if h := r.u.staged.history[i]; h.Username == username {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r memoryHistory) GetByWager(ctx context.Context, wagerID uuid.UUID) ([]*models.BalanceHistory, error) {
	var out []*models.BalanceHistory
	for _, h := range r.u.staged.history {
		if h.WagerID != nil && *h.WagerID == wagerID {
			out = append(out, h)
		}
	}
	return out, nil
}

type memoryWagers struct{ u *memoryUnitOfWork }

func (r memoryWagers) GetByID(ctx context.Context, id uuid.UUID) (*models.Wager, error) {
	w, ok := r.u.staged.wagers[id]
	if !ok {
		return nil, nil
	}
	return w.Clone(), nil
}

func (r memoryWagers) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Wager, error) {
	return r.GetByID(ctx, id)
}

func (r memoryWagers) Save(ctx context.Context, w *models.Wager) error {
	r.u.staged.wagers[w.ID] = w.Clone()
	return nil
}

func (r memoryWagers) filter(keep func(*models.Wager) bool) []*models.Wager {
	var out []*models.Wager
	for _, id := range slices.SortedFunc(maps.Keys(r.u.staged.wagers), func(a, b uuid.UUID) int {
		return r.u.staged.wagers[b].CreatedAt.Compare(r.u.staged.wagers[a].CreatedAt)
	}) {
		if w := r.u.staged.wagers[id]; keep(w) {
			out = append(out, w.Clone())
		}
	}
	return out
}

func (r memoryWagers) ListForUser(ctx context.Context, username string) ([]*models.Wager, error) {
	return r.filter(func(w *models.Wager) bool {
		return w.Sender == username || (w.Recipient != nil && *w.Recipient == username) || w.IsReviewer(username)
	}), nil
}

func (r memoryWagers) ListForGroup(ctx context.Context, groupID string) ([]*models.Wager, error) {
	return r.filter(func(w *models.Wager) bool {
		return w.GroupID != nil && *w.GroupID == groupID
	}), nil
}

func (r memoryWagers) ListPublic(ctx context.Context, limit int) ([]*models.Wager, error) {
	out := r.filter(func(w *models.Wager) bool { return w.IsPublic })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memoryWagers) ListUnsettledIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, w := range r.filter(func(w *models.Wager) bool { return !w.IsSettled() }) {
		ids = append(ids, w.ID)
	}
	return ids, nil
}

type memoryRuns struct{ u *memoryUnitOfWork }

func (r memoryRuns) Create(ctx context.Context, run *models.SettlementRun) error {
	run.ID = int64(len(r.u.staged.runs) + 1)
	stored := *run
	r.u.staged.runs = append(r.u.staged.runs, &stored)
	return nil
}

func (r memoryRuns) GetLatest(ctx context.Context) (*models.SettlementRun, error) {
	if len(r.u.staged.runs) == 0 {
		return nil, nil
	}
	latest := *r.u.staged.runs[len(r.u.staged.runs)-1]
	return &latest, nil
}
