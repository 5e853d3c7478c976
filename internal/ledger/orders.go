package ledger

import "github.com/donalab/dona-backend/internal/domain"

// orderBook owns the set of consumed order ids and the receipt mapping.
// Invariant: an id is in used iff it has a receipt. Reservations of
// in-flight settlement calls live in pending until the call commits or
// rolls back, so readers never observe an order id that may still vanish.
type orderBook struct {
	used     map[domain.OrderID]struct{}
	receipts map[domain.OrderID]*domain.Receipt
	pending  map[domain.OrderID]struct{}
}

func newOrderBook() orderBook {
	return orderBook{
		used:     make(map[domain.OrderID]struct{}),
		receipts: make(map[domain.OrderID]*domain.Receipt),
		pending:  make(map[domain.OrderID]struct{}),
	}
}

func (b *orderBook) isUsed(id domain.OrderID) bool {
	_, ok := b.used[id]
	return ok
}

// reserve marks an id as taken for the duration of one settlement call.
func (b *orderBook) reserve(id domain.OrderID) error {
	if _, ok := b.used[id]; ok {
		return domain.ErrDuplicateOrder
	}
	if _, ok := b.pending[id]; ok {
		return domain.ErrDuplicateOrder
	}
	b.pending[id] = struct{}{}
	return nil
}

// rollback releases a reservation after a failed settlement.
func (b *orderBook) rollback(id domain.OrderID) {
	delete(b.pending, id)
}

// commit converts a reservation into a permanent receipt. Ids are never
// removed afterwards.
func (b *orderBook) commit(id domain.OrderID, r *domain.Receipt) {
	delete(b.pending, id)
	b.used[id] = struct{}{}
	b.receipts[id] = r
}

func (b *orderBook) receipt(id domain.OrderID) (*domain.Receipt, bool) {
	r, ok := b.receipts[id]
	return r, ok
}
