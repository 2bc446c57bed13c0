package infra

import (
	"math"
	"math/big"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreditsFromNumeric(t *testing.T) {
	cases := []struct {
		name string
		in   pgtype.Numeric
		want int64
	}{
		{"zero", CreditsToNumeric(0), 0},
		{"positive", CreditsToNumeric(250_000), 250_000},
		{"negative", CreditsToNumeric(-3_000), -3_000},
		{"column max", CreditsToNumeric(999_999_999_999_999), 999_999_999_999_999},
		{"positive exponent", pgtype.Numeric{Int: big.NewInt(42), Exp: 3, Valid: true}, 42_000},
		{"negative exponent truncates", pgtype.Numeric{Int: big.NewInt(12345), Exp: -2, Valid: true}, 123},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := CreditsFromNumeric(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, v)
		})
	}
}

func TestCreditsFromNumeric_Null(t *testing.T) {
	_, err := CreditsFromNumeric(pgtype.Numeric{Valid: false})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "NULL")
}

func TestCreditsFromNumeric_Overflow(t *testing.T) {
	over := new(big.Int).SetInt64(math.MaxInt64)
	over.Add(over, big.NewInt(1))
	_, err := CreditsFromNumeric(pgtype.Numeric{Int: over, Valid: true})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "overflows")
}

func TestCreditsRoundtrip(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 2_999, 999_999_999_999_999, math.MaxInt64, math.MinInt64} {
		got, err := CreditsFromNumeric(CreditsToNumeric(v))
		require.NoError(t, err, "value %d", v)
		assert.Equal(t, v, got)
	}
}
