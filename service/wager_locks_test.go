package service

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestWagerLocks_SerializesSameWager(t *testing.T) {
	locks := newWagerLocks()
	id := uuid.New()

	release := locks.lock(id)
	acquired := make(chan struct{})
	go func() {
		r := locks.lock(id)
		close(acquired)
		r()
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while first was held")
	case <-time.After(50 * time.Millisecond):
	}

	release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second lock never acquired")
	}
}

func TestWagerLocks_IndependentWagers(t *testing.T) {
	locks := newWagerLocks()

	releaseA := locks.lock(uuid.New())
	defer releaseA()

	done := make(chan struct{})
	go func() {
		locks.lock(uuid.New())()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different wager blocked")
	}
}

func TestWagerLocks_EntriesAreReclaimed(t *testing.T) {
	locks := newWagerLocks()
	id := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			locks.lock(id)()
		}()
	}
	wg.Wait()

	assert.Zero(t, locks.size())
}
