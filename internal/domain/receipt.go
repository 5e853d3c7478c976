package domain

import (
	"math/big"
	"time"
)

// Receipt is the immutable record of one completed settlement, keyed by
// its order id. GrossAmount is the pre-fee amount; Fee is what was routed
// to the fee recipient.
type Receipt struct {
	OrderID     OrderID   `json:"orderId"`
	Donor       Address   `json:"donor"`
	Beneficiary Address   `json:"beneficiary"`
	Asset       Address   `json:"asset"` // zero address = native asset
	GrossAmount *big.Int  `json:"grossAmount"`
	Fee         *big.Int  `json:"fee"`
	Memo        string    `json:"memo"`
	Timestamp   time.Time `json:"timestamp"`
}

// Net returns the amount that reached the beneficiary.
func (r *Receipt) Net() *big.Int {
	return new(big.Int).Sub(r.GrossAmount, r.Fee)
}

// Native reports whether the settlement moved the native asset.
func (r *Receipt) Native() bool {
	return r.Asset.IsZero()
}

// Clone returns a deep copy so callers can never mutate the stored record.
func (r *Receipt) Clone() *Receipt {
	cp := *r
	cp.GrossAmount = new(big.Int).Set(r.GrossAmount)
	cp.Fee = new(big.Int).Set(r.Fee)
	return &cp
}
