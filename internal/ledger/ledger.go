package ledger

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/donalab/dona-backend/internal/domain"
)

// Transferer is the external transfer primitive the settlement engine
// distributes value through. Implementations move value synchronously and
// report failure within the calling operation. They must propagate the
// context they receive into any call they make back into the ledger so
// that re-entry can be detected.
type Transferer interface {
	// TransferNative moves native value out of the ledger's custody.
	TransferNative(ctx context.Context, to domain.Address, amount *big.Int) error
	// PullToken moves tokens from the caller's allowance into custody.
	PullToken(ctx context.Context, token, from domain.Address, amount *big.Int) error
	// TransferToken moves tokens out of the ledger's custody.
	TransferToken(ctx context.Context, token, to domain.Address, amount *big.Int) error
}

// callFrameKey marks a context as belonging to an in-flight ledger call.
type callFrameKey struct{}

// Config is the genesis state for a Ledger.
type Config struct {
	Owner        domain.Address
	Writer       domain.Address
	FeeRecipient domain.Address
	FeeRateBps   uint16

	Transferer Transferer
	Sink       EventSink

	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// Ledger is the settlement core: role state, fee policy, the order/receipt
// book and the note book, mutated only through serialized calls.
//
// callMu serializes every mutating operation (the "execution substrate" of
// the design: no interleaving of two calls is observable). stateMu guards
// the committed state for lock-free-ish readers while a settlement call is
// between its reservation and its commit.
type Ledger struct {
	callMu  sync.Mutex
	stateMu sync.RWMutex

	access accessState
	fee    domain.FeeConfig
	orders orderBook
	notes  noteBook

	transfer Transferer
	sink     EventSink
	clock    func() time.Time
}

// New builds a Ledger from its genesis config. Owner, writer and fee
// recipient must all be non-null; the fee rate must be within the basis
// point domain.
func New(cfg Config) (*Ledger, error) {
	if cfg.Owner.IsZero() || cfg.Writer.IsZero() || cfg.FeeRecipient.IsZero() {
		return nil, domain.ErrInvalidIdentity
	}
	if cfg.FeeRateBps > domain.MaxFeeBps {
		return nil, domain.ErrInvalidFeeRate
	}
	if cfg.Transferer == nil {
		return nil, domain.ErrTransferFailed
	}
	sink := cfg.Sink
	if sink == nil {
		sink = NopSink{}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Ledger{
		access: accessState{
			owner:  cfg.Owner,
			writer: cfg.Writer,
		},
		fee: domain.FeeConfig{
			RateBps:   cfg.FeeRateBps,
			Recipient: cfg.FeeRecipient,
		},
		orders:   newOrderBook(),
		notes:    newNoteBook(),
		transfer: cfg.Transferer,
		sink:     sink,
		clock:    clock,
	}, nil
}

// enter acquires the call frame for a mutating operation. A context that
// already carries a call frame means the transfer primitive called back
// into the ledger mid-settlement; that re-entry is rejected instead of
// deadlocking on callMu.
func (l *Ledger) enter(ctx context.Context) (context.Context, error) {
	if ctx.Value(callFrameKey{}) != nil {
		return nil, domain.ErrReentrantCall
	}
	l.callMu.Lock()
	return context.WithValue(ctx, callFrameKey{}, struct{}{}), nil
}

func (l *Ledger) exit() {
	l.callMu.Unlock()
}

// --- read-only query surface ---

// HasOrderID reports whether an order id has been settled. Uncommitted
// reservations of in-flight calls are never visible here.
func (l *Ledger) HasOrderID(id domain.OrderID) bool {
	l.stateMu.RLock()
	defer l.stateMu.RUnlock()
	return l.orders.isUsed(id)
}

// Receipt returns the receipt for a settled order id.
func (l *Ledger) Receipt(id domain.OrderID) (*domain.Receipt, error) {
	l.stateMu.RLock()
	defer l.stateMu.RUnlock()
	r, ok := l.orders.receipt(id)
	if !ok {
		return nil, domain.ErrReceiptNotFound
	}
	return r.Clone(), nil
}

// Note returns the note with the given sequence id.
func (l *Ledger) Note(id uint64) (*domain.Note, error) {
	l.stateMu.RLock()
	defer l.stateMu.RUnlock()
	n, ok := l.notes.get(id)
	if !ok {
		return nil, domain.ErrNoteNotFound
	}
	return n.Clone(), nil
}

// NoteSeq returns the id of the most recently recorded note (0 if none).
func (l *Ledger) NoteSeq() uint64 {
	l.stateMu.RLock()
	defer l.stateMu.RUnlock()
	return l.notes.seq
}

// FeeConfig returns the current fee policy.
func (l *Ledger) FeeConfig() domain.FeeConfig {
	l.stateMu.RLock()
	defer l.stateMu.RUnlock()
	return l.fee
}

// Owner returns the administrator identity.
func (l *Ledger) Owner() domain.Address {
	l.stateMu.RLock()
	defer l.stateMu.RUnlock()
	return l.access.owner
}

// Writer returns the active writer identity.
func (l *Ledger) Writer() domain.Address {
	l.stateMu.RLock()
	defer l.stateMu.RUnlock()
	return l.access.writer
}

// PendingWriter returns the proposed successor writer, if any.
func (l *Ledger) PendingWriter() domain.Address {
	l.stateMu.RLock()
	defer l.stateMu.RUnlock()
	return l.access.pendingWriter
}

// Paused reports whether writer operations are currently rejected.
func (l *Ledger) Paused() bool {
	l.stateMu.RLock()
	defer l.stateMu.RUnlock()
	return l.access.paused
}
