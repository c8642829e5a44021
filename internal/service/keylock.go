package service

import (
	"sort"
	"sync"
)

// KeyedLock provides one mutex per key so writers touching different
// entities never contend. Multi-key acquisition sorts the keys first,
// so two callers locking overlapping sets always acquire in the same
// order and cannot deadlock.
type KeyedLock struct {
	mu    sync.Mutex
	locks map[int32]*sync.Mutex
}

// NewKeyedLock creates an empty KeyedLock.
func NewKeyedLock() *KeyedLock {
	return &KeyedLock{locks: make(map[int32]*sync.Mutex)}
}

// Lock acquires the mutex for a single key.
func (k *KeyedLock) Lock(key int32) {
	k.mutexFor(key).Lock()
}

// Unlock releases the mutex for a single key.
func (k *KeyedLock) Unlock(key int32) {
	k.mutexFor(key).Unlock()
}

// LockAll acquires the mutexes for every key in ascending order and
// returns a function that releases them in reverse order.
func (k *KeyedLock) LockAll(keys ...int32) func() {
	sorted := uniqueSorted(keys)
	for _, key := range sorted {
		k.mutexFor(key).Lock()
	}
	return func() {
		for i := len(sorted) - 1; i >= 0; i-- {
			k.mutexFor(sorted[i]).Unlock()
		}
	}
}

// mutexFor returns the mutex for key, creating it on first use. Mutexes
// are never evicted; the key space is bounded by row IDs.
func (k *KeyedLock) mutexFor(key int32) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}

// uniqueSorted returns the keys deduplicated and in ascending order.
func uniqueSorted(keys []int32) []int32 {
	if len(keys) == 0 {
		return nil
	}
	out := make([]int32, len(keys))
	copy(out, keys)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	n := 1
	for i := 1; i < len(out); i++ {
		if out[i] != out[n-1] {
			out[n] = out[i]
			n++
		}
	}
	return out[:n]
}

// EntityLocks holds the per-entity mutex sets shared by the ledger and
// schedule services. Accounts and rules are separate key spaces. When an
// operation needs locks from both spaces it takes the rule lock first,
// then the account locks.
type EntityLocks struct {
	Accounts *KeyedLock
	Rules    *KeyedLock
}

// NewEntityLocks creates an EntityLocks with empty lock sets.
func NewEntityLocks() *EntityLocks {
	return &EntityLocks{
		Accounts: NewKeyedLock(),
		Rules:    NewKeyedLock(),
	}
}
