// Package shoplock serializes mutating operations per shop. The in-memory
// repositories protect individual records, but read-modify-write sequences
// that span records (stock edits followed by availability reconciliation,
// ingredient deletion guarded by the reference index) need a wider critical
// section when no transactional store is underneath.
package shoplock

import "sync"

type Locker struct {
	locks sync.Map // shopID -> *sync.Mutex
}

func New() *Locker {
	return &Locker{}
}

// Lock acquires the shop's mutex and returns the matching unlock. Mutex
// entries are never evicted; the map is bounded by the number of shops.
func (l *Locker) Lock(shopID string) (unlock func()) {
	v, _ := l.locks.LoadOrStore(shopID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
