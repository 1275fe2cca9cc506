package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"stakechat/models"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange        EventType = "balance_change"
	EventTypeAccountCreated       EventType = "account_created"
	EventTypeWagerCreated         EventType = "wager_created"
	EventTypeStakeAttached        EventType = "stake_attached"
	EventTypeReviewerPhaseStarted EventType = "reviewer_phase_started"
	EventTypeWagerSettled         EventType = "wager_settled"
	EventTypeWagerPublished       EventType = "wager_published"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	Username        string                 `json:"username"`
	OldBalance      decimal.Decimal        `json:"old_balance"`
	NewBalance      decimal.Decimal        `json:"new_balance"`
	TransactionType models.TransactionType `json:"transaction_type"`
	ChangeAmount    decimal.Decimal        `json:"change_amount"`
	WagerID         *uuid.UUID             `json:"wager_id,omitempty"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// AccountCreatedEvent represents a newly opened account
type AccountCreatedEvent struct {
	Username       string          `json:"username"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

func (e AccountCreatedEvent) Type() EventType {
	return EventTypeAccountCreated
}

// WagerCreatedEvent is emitted when a wager is opened or forwarded
type WagerCreatedEvent struct {
	WagerID       uuid.UUID  `json:"wager_id"`
	Sender        string     `json:"sender"`
	Recipient     *string    `json:"recipient,omitempty"`
	GroupID       *string    `json:"group_id,omitempty"`
	Reviewers     []string   `json:"reviewers"`
	ForwardedFrom *uuid.UUID `json:"forwarded_from,omitempty"`
}

func (e WagerCreatedEvent) Type() EventType {
	return EventTypeWagerCreated
}

// StakeAttachedEvent is emitted after escrow is taken
type StakeAttachedEvent struct {
	WagerID     uuid.UUID       `json:"wager_id"`
	Username    string          `json:"username"`
	Amount      decimal.Decimal `json:"amount"`
	TotalStaked decimal.Decimal `json:"total_staked"`
}

func (e StakeAttachedEvent) Type() EventType {
	return EventTypeStakeAttached
}

// ReviewerPhaseStartedEvent announces the next reviewer's decision window
type ReviewerPhaseStartedEvent struct {
	WagerID         uuid.UUID `json:"wager_id"`
	Reviewer        string    `json:"reviewer"`
	ReviewerIndex   int       `json:"reviewer_index"`
	StartedAt       time.Time `json:"started_at"`
	DurationMinutes int       `json:"duration_minutes"`
}

func (e ReviewerPhaseStartedEvent) Type() EventType {
	return EventTypeReviewerPhaseStarted
}

// WagerSettledEvent carries the final settlement
type WagerSettledEvent struct {
	WagerID    uuid.UUID          `json:"wager_id"`
	Content    string             `json:"content"`
	Settlement *models.Settlement `json:"settlement"`
}

func (e WagerSettledEvent) Type() EventType {
	return EventTypeWagerSettled
}

// WagerPublishedEvent is emitted when a wager is marked public
type WagerPublishedEvent struct {
	WagerID uuid.UUID `json:"wager_id"`
	By      string    `json:"by"`
}

func (e WagerPublishedEvent) Type() EventType {
	return EventTypeWagerPublished
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// SubscribeAll adds the same handler for several event types
func (b *Bus) SubscribeAll(handler Handler, eventTypes ...EventType) {
	for _, t := range eventTypes {
		b.Subscribe(t, handler)
	}
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	// Call handlers asynchronously to avoid blocking
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus holds events raised inside a unit of work until it commits
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Adding event to transactional bus pending queue")
	b.pending = append(b.pending, e)
}

// Pending returns the staged events in publish order
func (b *TransactionalBus) Pending() []Event {
	out := make([]Event, len(b.pending))
	copy(out, b.pending)
	return out
}

// Flush emits the staged events; called after a successful commit.
func (b *TransactionalBus) Flush(ctx context.Context) error {
	log.WithFields(log.Fields{
		"pendingEventCount": len(b.pending),
	}).Debug("Flushing pending events to main event bus")

	// Handlers outlive the request that committed the transaction
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// Discard drops the staged events; called after a rollback.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
