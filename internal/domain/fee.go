package domain

import "math/big"

// MaxFeeBps is the full fee domain: 10000 basis points = 100%.
const MaxFeeBps = 10000

// FeeConfig holds the fee policy applied to every settlement.
// RateBps is in basis points (10000 = 100%); both 0 and 10000 are valid
// policy choices.
type FeeConfig struct {
	RateBps   uint16  `json:"rateBps"`
	Recipient Address `json:"recipient"`
}

// Split computes the fee and net legs for a gross amount using floor
// division. Rounding loss (at most one base unit) goes to the beneficiary.
func (f FeeConfig) Split(gross *big.Int) (fee, net *big.Int) {
	fee = new(big.Int).Mul(gross, big.NewInt(int64(f.RateBps)))
	fee.Quo(fee, big.NewInt(MaxFeeBps))
	net = new(big.Int).Sub(gross, fee)
	return fee, net
}
