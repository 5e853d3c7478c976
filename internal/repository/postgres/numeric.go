package postgres

import (
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5/pgtype"
)

// bigIntToNumeric converts a base-unit amount to a pgtype.Numeric
func bigIntToNumeric(v *big.Int) pgtype.Numeric {
	return pgtype.Numeric{
		Int:   new(big.Int).Set(v),
		Valid: true,
	}
}

// numericToBigInt converts a pgtype.Numeric back to a base-unit amount.
// Amounts are stored as integers, so a fractional exponent is a data error.
func numericToBigInt(n pgtype.Numeric) (*big.Int, error) {
	if !n.Valid || n.Int == nil {
		return nil, fmt.Errorf("null amount")
	}
	v := new(big.Int).Set(n.Int)
	switch {
	case n.Exp > 0:
		mul := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n.Exp)), nil)
		v.Mul(v, mul)
	case n.Exp < 0:
		return nil, fmt.Errorf("fractional amount in archive: exp %d", n.Exp)
	}
	return v, nil
}
