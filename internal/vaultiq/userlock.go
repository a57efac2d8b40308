// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vaultiq

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// userLockTable is a bounded, LRU-evicted map of per-user mutexes used to
// serialize the User→SessionIds index read-modify-write (§5 "per-key
// contention"). This is an in-process optimisation only: eviction under
// high user churn is safe because the index is self-healing — any replica
// that missed the lock re-reads the authoritative backend state on its
// next access, so the lock is never a correctness crutch.
type userLockTable struct {
	locks *lru.Cache[string, *sync.Mutex]
	mu    sync.Mutex // guards lazy insertion into locks
}

// defaultUserLockCapacity bounds the number of distinct per-user mutexes
// held in memory at once.
const defaultUserLockCapacity = 4096

// newUserLockTable builds a userLockTable bounded to capacity entries.
func newUserLockTable(capacity int) *userLockTable {
	if capacity <= 0 {
		capacity = defaultUserLockCapacity
	}
	cache, err := lru.New[string, *sync.Mutex](capacity)
	if err != nil {
		// Only returns an error for a non-positive size, which is
		// guarded above; unreachable in practice.
		panic("vaultiq: failed to construct user lock table: " + err.Error())
	}
	return &userLockTable{locks: cache}
}

// Lock acquires the per-user mutex for userID, creating it on first use,
// and returns an unlock function the caller must invoke exactly once.
func (t *userLockTable) Lock(userID string) (unlock func()) {
	t.mu.Lock()
	mutex, ok := t.locks.Get(userID)
	if !ok {
		mutex = &sync.Mutex{}
		t.locks.Add(userID, mutex)
	}
	t.mu.Unlock()

	mutex.Lock()
	return mutex.Unlock
}
