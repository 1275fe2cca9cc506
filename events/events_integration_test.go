package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stakechat/models"
)

// TestEventDeliveryIntegration tests the complete event flow from TransactionalBus to main Bus
func TestEventDeliveryIntegration(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventReceived := make(chan BalanceChangeEvent, 1)
	var wg sync.WaitGroup
	wg.Add(1)

	mainBus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, event Event) {
		defer wg.Done()
		if balanceEvent, ok := event.(BalanceChangeEvent); ok {
			eventReceived <- balanceEvent
		} else {
			t.Errorf("Expected BalanceChangeEvent, got %T", event)
		}
	})

	wagerID := uuid.New()
	testEvent := BalanceChangeEvent{
		Username:        "alice",
		OldBalance:      decimal.NewFromInt(1000),
		NewBalance:      decimal.NewFromInt(990),
		TransactionType: models.TransactionTypeStakeEscrow,
		ChangeAmount:    decimal.NewFromInt(-10),
		WagerID:         &wagerID,
	}

	transactionalBus.Publish(testEvent)
	assert.Len(t, transactionalBus.Pending(), 1)

	err := transactionalBus.Flush(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, transactionalBus.Pending())

	wg.Wait()

	select {
	case receivedEvent := <-eventReceived:
		assert.Equal(t, testEvent.Username, receivedEvent.Username)
		assert.True(t, testEvent.NewBalance.Equal(receivedEvent.NewBalance))
		assert.Equal(t, testEvent.TransactionType, receivedEvent.TransactionType)
		assert.Equal(t, wagerID, *receivedEvent.WagerID)
	case <-time.After(2 * time.Second):
		t.Fatal("Event was not received within timeout")
	}
}

// TestMultipleEventTypesDelivery tests that each subscriber only sees its own types
func TestMultipleEventTypesDelivery(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	var mu sync.Mutex
	received := map[EventType]int{}
	var wg sync.WaitGroup
	wg.Add(3)

	mainBus.SubscribeAll(func(ctx context.Context, event Event) {
		defer wg.Done()
		mu.Lock()
		received[event.Type()]++
		mu.Unlock()
	}, EventTypeWagerCreated, EventTypeStakeAttached, EventTypeWagerSettled)

	wagerID := uuid.New()
	transactionalBus.Publish(WagerCreatedEvent{WagerID: wagerID, Sender: "alice"})
	transactionalBus.Publish(StakeAttachedEvent{WagerID: wagerID, Username: "bob", Amount: decimal.NewFromInt(5)})
	transactionalBus.Publish(WagerSettledEvent{WagerID: wagerID, Settlement: &models.Settlement{}})
	// no subscriber for this type
	transactionalBus.Publish(WagerPublishedEvent{WagerID: wagerID, By: "alice"})

	require.NoError(t, transactionalBus.Flush(context.Background()))
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, received[EventTypeWagerCreated])
	assert.Equal(t, 1, received[EventTypeStakeAttached])
	assert.Equal(t, 1, received[EventTypeWagerSettled])
	assert.Zero(t, received[EventTypeWagerPublished])
}

// TestTransactionalBusDiscard tests that discarded events are not delivered
func TestTransactionalBusDiscard(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventReceived := make(chan bool, 1)

	mainBus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, event Event) {
		eventReceived <- true
	})

	transactionalBus.Publish(BalanceChangeEvent{Username: "alice", TransactionType: models.TransactionTypeStakeEscrow})

	// Discard instead of flush (simulating transaction rollback)
	transactionalBus.Discard()

	select {
	case <-eventReceived:
		t.Fatal("Event was received despite being discarded")
	case <-time.After(100 * time.Millisecond):
	}
}

// TestHandlerPanicIsContained tests that a panicking handler does not affect others
func TestHandlerPanicIsContained(t *testing.T) {
	bus := NewBus()
	done := make(chan struct{})

	bus.Subscribe(EventTypeWagerSettled, func(ctx context.Context, event Event) {
		panic("boom")
	})
	bus.Subscribe(EventTypeWagerSettled, func(ctx context.Context, event Event) {
		close(done)
	})

	bus.Emit(context.Background(), WagerSettledEvent{WagerID: uuid.New()})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("second handler never ran")
	}
}
