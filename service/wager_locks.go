package service

import (
	"sync"

	"github.com/google/uuid"
)

// wagerLocks serializes commands per wager inside this process. The row lock
// taken by GetByIDForUpdate covers other processes sharing the database.
type wagerLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newWagerLocks() *wagerLocks {
	return &wagerLocks{locks: make(map[uuid.UUID]*refMutex)}
}

// lock blocks until the wager is free and returns the release func
func (l *wagerLocks) lock(id uuid.UUID) func() {
	l.mu.Lock()
	m, ok := l.locks[id]
	if !ok {
		m = &refMutex{}
		l.locks[id] = m
	}
	m.refs++
	l.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		l.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

// size reports how many wagers currently hold or await a lock
func (l *wagerLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
