// Package concurrency provides keyed mutual exclusion for per-player state.
package concurrency

import "sync"

// LockManager hands out one mutex per key so operations on the same player
// serialize while distinct players proceed in parallel. Mutexes are never
// evicted; the key space is bounded by the set of players seen.
type LockManager struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLockManager creates an empty LockManager.
func NewLockManager() *LockManager {
	return &LockManager{locks: make(map[string]*sync.Mutex)}
}

// GetLock returns the mutex for key, creating it on first use.
func (m *LockManager) GetLock(key string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	lock, ok := m.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[key] = lock
	}
	return lock
}
