package ledger

import "github.com/donalab/dona-backend/internal/domain"

// EventSink receives a structured record for every state change, for
// downstream indexing. Delivery is fire-and-forget: the ledger's
// correctness never depends on a sink succeeding, and sinks must not call
// back into mutating ledger operations.
type EventSink interface {
	SettlementSettled(r *domain.Receipt)
	NoteRecorded(n *domain.Note)
	FeeUpdated(cfg domain.FeeConfig)
	WriterProposed(current, proposed domain.Address)
	WriterUpdated(old, updated domain.Address)
	OwnershipTransferred(old, updated domain.Address)
	PauseChanged(paused bool)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) SettlementSettled(*domain.Receipt)        {}
func (NopSink) NoteRecorded(*domain.Note)                {}
func (NopSink) FeeUpdated(domain.FeeConfig)              {}
func (NopSink) WriterProposed(_, _ domain.Address)       {}
func (NopSink) WriterUpdated(_, _ domain.Address)        {}
func (NopSink) OwnershipTransferred(_, _ domain.Address) {}
func (NopSink) PauseChanged(bool)                        {}

// MultiSink fans events out to several sinks in order.
type MultiSink []EventSink

func (m MultiSink) SettlementSettled(r *domain.Receipt) {
	for _, s := range m {
		s.SettlementSettled(r)
	}
}

func (m MultiSink) NoteRecorded(n *domain.Note) {
	for _, s := range m {
		s.NoteRecorded(n)
	}
}

func (m MultiSink) FeeUpdated(cfg domain.FeeConfig) {
	for _, s := range m {
		s.FeeUpdated(cfg)
	}
}

func (m MultiSink) WriterProposed(current, proposed domain.Address) {
	for _, s := range m {
		s.WriterProposed(current, proposed)
	}
}

func (m MultiSink) WriterUpdated(old, updated domain.Address) {
	for _, s := range m {
		s.WriterUpdated(old, updated)
	}
}

func (m MultiSink) OwnershipTransferred(old, updated domain.Address) {
	for _, s := range m {
		s.OwnershipTransferred(old, updated)
	}
}

func (m MultiSink) PauseChanged(paused bool) {
	for _, s := range m {
		s.PauseChanged(paused)
	}
}
