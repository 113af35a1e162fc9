package sync

import (
	stdsync "sync"
)

// keyedMutex hands out one mutex per key, so jobs touching the same
// policy document serialize while unrelated jobs run concurrently.
// Entries are never evicted; the key space is bounded by the number of
// distinct policy documents.
type keyedMutex struct {
	mu    stdsync.Mutex
	locks map[string]*stdsync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: map[string]*stdsync.Mutex{}}
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &stdsync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
