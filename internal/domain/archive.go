package domain

import "context"

// ReceiptArchive is the durable, append-only copy of settlement receipts
// kept for downstream indexing and listing. The ledger's in-process state
// stays authoritative; archive failures never affect settlement outcomes.
type ReceiptArchive interface {
	SaveReceipt(ctx context.Context, r *Receipt) error
	ReceiptByOrderID(ctx context.Context, id OrderID) (*Receipt, error)
	RecentReceipts(ctx context.Context, limit int) ([]*Receipt, error)
}

// NoteArchive is the durable copy of compatibility notes.
type NoteArchive interface {
	SaveNote(ctx context.Context, n *Note) error
	NoteByID(ctx context.Context, id uint64) (*Note, error)
	RecentNotes(ctx context.Context, limit int) ([]*Note, error)
}

// Archive listing defaults
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)
