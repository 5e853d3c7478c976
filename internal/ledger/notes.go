package ledger

import "github.com/donalab/dona-backend/internal/domain"

// noteBook owns the compatibility notes. Sequence ids start at 1 and are
// never reused. Notes and receipts are fully independent ledgers.
type noteBook struct {
	seq   uint64
	notes map[uint64]*domain.Note
}

func newNoteBook() noteBook {
	return noteBook{notes: make(map[uint64]*domain.Note)}
}

// append assigns the next sequence id and stores the note.
func (b *noteBook) append(n *domain.Note) uint64 {
	b.seq++
	n.ID = b.seq
	b.notes[n.ID] = n
	return n.ID
}

func (b *noteBook) get(id uint64) (*domain.Note, bool) {
	n, ok := b.notes[id]
	return n, ok
}
