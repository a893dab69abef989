package indexer

import (
	"sync"
	"sync/atomic"
)

// IndexLock provides non-blocking lock semantics using atomic operations.
type IndexLock struct {
	state atomic.Int32 // 0 = unlocked, 1 = locked
}

// TryAcquire attempts to acquire the lock without blocking.
// Returns true if the lock was successfully acquired, false otherwise.
func (l *IndexLock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Release releases the lock.
// Must only be called by the goroutine that successfully acquired the lock.
func (l *IndexLock) Release() {
	l.state.Store(0)
}

// Held reports whether the lock is currently held.
func (l *IndexLock) Held() bool {
	return l.state.Load() == 1
}

// RootLocks is a set of IndexLocks keyed by root container id. Batches for
// the same root must be serialized; different roots may run concurrently.
// The zero value is ready to use.
type RootLocks struct {
	mu    sync.Mutex
	locks map[string]*IndexLock
}

func (r *RootLocks) get(rootID string) *IndexLock {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.locks == nil {
		r.locks = make(map[string]*IndexLock)
	}
	l, ok := r.locks[rootID]
	if !ok {
		l = &IndexLock{}
		r.locks[rootID] = l
	}
	return l
}

// TryAcquire attempts to take the lock of rootID without blocking.
func (r *RootLocks) TryAcquire(rootID string) bool {
	return r.get(rootID).TryAcquire()
}

// Release frees the lock of rootID.
func (r *RootLocks) Release(rootID string) {
	r.get(rootID).Release()
}

// Held reports whether a batch currently holds the lock of rootID.
func (r *RootLocks) Held(rootID string) bool {
	return r.get(rootID).Held()
}
