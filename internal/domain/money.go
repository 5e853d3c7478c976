package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// WonToBaseUnits converts a KRW amount into ledger base units using the
// configured multiplier (the payment gateway settles in whole won; the
// ledger accounts in wei-scale integers).
func WonToBaseUnits(won decimal.Decimal, multiplier int64) (*big.Int, error) {
	if won.Sign() <= 0 {
		return nil, ErrZeroAmount
	}
	scaled := won.Mul(decimal.NewFromInt(multiplier))
	if !scaled.IsInteger() {
		return nil, ErrInvalidAmount
	}
	return scaled.BigInt(), nil
}

// ParseBaseUnits parses a base-unit amount from its decimal string form.
func ParseBaseUnits(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, ErrInvalidAmount
	}
	if v.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	return v, nil
}
