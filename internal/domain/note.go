package domain

import (
	"math/big"
	"time"
)

// Note is a funds-free audit record created by the compatibility path.
// IDs are assigned by an auto-incrementing counter starting at 1 and are
// never reused.
type Note struct {
	ID         uint64    `json:"id"`
	Amount     *big.Int  `json:"amount"`
	Memo       string    `json:"memo"`
	Timestamp  time.Time `json:"timestamp"`
	RecordedBy Address   `json:"recordedBy"`
}

// Clone returns a deep copy of the note.
func (n *Note) Clone() *Note {
	cp := *n
	cp.Amount = new(big.Int).Set(n.Amount)
	return &cp
}
