package order

import "sync"

// orderLocks hands out one mutex per order id. Without it, two concurrent
// AddItem calls for the same new (product_id, variant_id) pair can both
// observe "no existing line" and both append one, breaking line uniqueness.
// Entries are reference-counted and dropped once the last holder unlocks, so
// the map does not grow with the number of orders ever touched.
type orderLocks struct {
	mu    sync.Mutex
	locks map[string]*orderLock
}

type orderLock struct {
	sync.Mutex
	refs int
}

func (l *orderLocks) lock(orderID string) *orderLock {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*orderLock)
	}
	ol, ok := l.locks[orderID]
	if !ok {
		ol = &orderLock{}
		l.locks[orderID] = ol
	}
	ol.refs++
	l.mu.Unlock()

	ol.Lock()
	return ol
}

func (l *orderLocks) unlock(orderID string, ol *orderLock) {
	ol.Unlock()

	l.mu.Lock()
	ol.refs--
	if ol.refs == 0 {
		delete(l.locks, orderID)
	}
	l.mu.Unlock()
}
