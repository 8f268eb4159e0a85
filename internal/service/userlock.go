package service

import (
	"sync"

	"github.com/google/uuid"
)

// userLocks serializes ripple recalculations per member. Two payments added
// for the same member in quick succession must not interleave their forward
// chains — that loses updates on the read-modify-write balance rows. Locks
// are keyed by user id so unrelated members recalculate concurrently.
type userLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[uuid.UUID]*sync.Mutex)}
}

func (l *userLocks) get(userID uuid.UUID) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	return m
}
