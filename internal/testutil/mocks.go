package testutil

import (
	"context"
	"math/big"
	"sort"
	"sync"

	"github.com/donalab/dona-backend/internal/domain"
)

// TransferCall records one invocation of the mock transferer.
type TransferCall struct {
	Kind   string // "native", "pull", "token"
	Token  domain.Address
	From   domain.Address
	To     domain.Address
	Amount *big.Int
}

// MockTransferer is a mock implementation of ledger.Transferer. Every
// call is recorded; per-method Fn fields inject failures or callbacks.
type MockTransferer struct {
	mu    sync.Mutex
	Calls []TransferCall

	NativeFn func(ctx context.Context, to domain.Address, amount *big.Int) error
	PullFn   func(ctx context.Context, token, from domain.Address, amount *big.Int) error
	TokenFn  func(ctx context.Context, token, to domain.Address, amount *big.Int) error
}

// NewMockTransferer creates a new MockTransferer
func NewMockTransferer() *MockTransferer {
	return &MockTransferer{}
}

// TransferNative records the call and applies NativeFn if set
func (m *MockTransferer) TransferNative(ctx context.Context, to domain.Address, amount *big.Int) error {
	m.record(TransferCall{Kind: "native", To: to, Amount: new(big.Int).Set(amount)})
	if m.NativeFn != nil {
		return m.NativeFn(ctx, to, amount)
	}
	return nil
}

// PullToken records the call and applies PullFn if set
func (m *MockTransferer) PullToken(ctx context.Context, token, from domain.Address, amount *big.Int) error {
	m.record(TransferCall{Kind: "pull", Token: token, From: from, Amount: new(big.Int).Set(amount)})
	if m.PullFn != nil {
		return m.PullFn(ctx, token, from, amount)
	}
	return nil
}

// TransferToken records the call and applies TokenFn if set
func (m *MockTransferer) TransferToken(ctx context.Context, token, to domain.Address, amount *big.Int) error {
	m.record(TransferCall{Kind: "token", Token: token, To: to, Amount: new(big.Int).Set(amount)})
	if m.TokenFn != nil {
		return m.TokenFn(ctx, token, to, amount)
	}
	return nil
}

func (m *MockTransferer) record(call TransferCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, call)
}

// CallCount returns the number of recorded calls
func (m *MockTransferer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// CallsTo returns the recorded calls with the given destination
func (m *MockTransferer) CallsTo(to domain.Address) []TransferCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []TransferCall
	for _, c := range m.Calls {
		if c.To == to {
			out = append(out, c)
		}
	}
	return out
}

// CaptureSink is a ledger.EventSink that records every event for
// assertions.
type CaptureSink struct {
	mu sync.Mutex

	Receipts   []*domain.Receipt
	Notes      []*domain.Note
	FeeConfigs []domain.FeeConfig
	Proposals  [][2]domain.Address // current, proposed
	Writers    [][2]domain.Address // old, new
	Ownerships [][2]domain.Address // old, new
	Pauses     []bool
}

// NewCaptureSink creates a new CaptureSink
func NewCaptureSink() *CaptureSink {
	return &CaptureSink{}
}

func (s *CaptureSink) SettlementSettled(r *domain.Receipt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Receipts = append(s.Receipts, r.Clone())
}

func (s *CaptureSink) NoteRecorded(n *domain.Note) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Notes = append(s.Notes, n.Clone())
}

func (s *CaptureSink) FeeUpdated(cfg domain.FeeConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FeeConfigs = append(s.FeeConfigs, cfg)
}

func (s *CaptureSink) WriterProposed(current, proposed domain.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Proposals = append(s.Proposals, [2]domain.Address{current, proposed})
}

func (s *CaptureSink) WriterUpdated(old, updated domain.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Writers = append(s.Writers, [2]domain.Address{old, updated})
}

func (s *CaptureSink) OwnershipTransferred(old, updated domain.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Ownerships = append(s.Ownerships, [2]domain.Address{old, updated})
}

func (s *CaptureSink) PauseChanged(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Pauses = append(s.Pauses, paused)
}

// ReceiptCount returns the number of captured receipts
func (s *CaptureSink) ReceiptCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Receipts)
}

// MemReceiptArchive is an in-memory implementation of domain.ReceiptArchive
type MemReceiptArchive struct {
	mu       sync.Mutex
	Receipts map[domain.OrderID]*domain.Receipt
	SaveErr  error
}

// NewMemReceiptArchive creates a new MemReceiptArchive
func NewMemReceiptArchive() *MemReceiptArchive {
	return &MemReceiptArchive{Receipts: make(map[domain.OrderID]*domain.Receipt)}
}

func (m *MemReceiptArchive) SaveReceipt(ctx context.Context, r *domain.Receipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	if _, ok := m.Receipts[r.OrderID]; ok {
		return nil
	}
	m.Receipts[r.OrderID] = r.Clone()
	return nil
}

func (m *MemReceiptArchive) ReceiptByOrderID(ctx context.Context, id domain.OrderID) (*domain.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.Receipts[id]
	if !ok {
		return nil, domain.ErrReceiptNotFound
	}
	return r.Clone(), nil
}

func (m *MemReceiptArchive) RecentReceipts(ctx context.Context, limit int) ([]*domain.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Receipt, 0, len(m.Receipts))
	for _, r := range m.Receipts {
		out = append(out, r.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MemNoteArchive is an in-memory implementation of domain.NoteArchive
type MemNoteArchive struct {
	mu      sync.Mutex
	Notes   map[uint64]*domain.Note
	SaveErr error
}

// NewMemNoteArchive creates a new MemNoteArchive
func NewMemNoteArchive() *MemNoteArchive {
	return &MemNoteArchive{Notes: make(map[uint64]*domain.Note)}
}

func (m *MemNoteArchive) SaveNote(ctx context.Context, n *domain.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	if _, ok := m.Notes[n.ID]; ok {
		return nil
	}
	m.Notes[n.ID] = n.Clone()
	return nil
}

func (m *MemNoteArchive) NoteByID(ctx context.Context, id uint64) (*domain.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.Notes[id]
	if !ok {
		return nil, domain.ErrNoteNotFound
	}
	return n.Clone(), nil
}

func (m *MemNoteArchive) RecentNotes(ctx context.Context, limit int) ([]*domain.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Note, 0, len(m.Notes))
	for _, n := range m.Notes {
		out = append(out, n.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
