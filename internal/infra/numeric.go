package infra

import (
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5/pgtype"
)

// CreditsFromNumeric converts a pgtype.Numeric read from a numeric(15,0)
// column into int64 minor units. NULL, fractional truncation to zero scale,
// and overflow are all handled explicitly.
func CreditsFromNumeric(n pgtype.Numeric) (int64, error) {
	if !n.Valid {
		return 0, fmt.Errorf("credit amount is NULL")
	}

	// The driver represents the value as Int * 10^Exp.
	v := new(big.Int).Set(n.Int)
	switch {
	case n.Exp > 0:
		scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n.Exp)), nil)
		v.Mul(v, scale)
	case n.Exp < 0:
		// A numeric(15,0) column never carries fractional digits, but a
		// computed expression might. Truncate toward zero.
		scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(-n.Exp)), nil)
		v.Quo(v, scale)
	}

	if !v.IsInt64() {
		return 0, fmt.Errorf("credit amount %s overflows int64", v.String())
	}
	return v.Int64(), nil
}

// CreditsToNumeric converts int64 minor units into a pgtype.Numeric suitable
// for writing to a numeric(15,0) column.
func CreditsToNumeric(v int64) pgtype.Numeric {
	return pgtype.Numeric{
		Int:   big.NewInt(v),
		Exp:   0,
		Valid: true,
	}
}
