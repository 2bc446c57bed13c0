package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGame() *Game {
	return &Game{
		ID:              uuid.New(),
		Name:            "weekly",
		OpensAt:         time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		ClosesAt:        time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC),
		CostPerBoard:    3000,
		NumbersPerBoard: 5,
		MaxNumber:       42,
		Tiers:           TierTable{{MinMatches: 3, Tier: 1}, {MinMatches: 4, Tier: 2}, {MinMatches: 5, Tier: 3}},
		Prizes:          PrizeTable{{Tier: 1, Amount: 5000}, {Tier: 2, Amount: 50000}, {Tier: 3, Amount: 1000000}},
		Status:          GameOpen,
	}
}

// --- Selection validation ---

func TestValidateSelections(t *testing.T) {
	game := testGame()

	tests := []struct {
		name       string
		selections [][]int32
		wantErr    string
	}{
		{"single valid selection", [][]int32{{1, 2, 3, 4, 5}}, ""},
		{"multiple valid selections", [][]int32{{1, 2, 3, 4, 5}, {38, 39, 40, 41, 42}}, ""},
		{"empty input", nil, "at least one selection"},
		{"too few numbers", [][]int32{{1, 2, 3}}, "expected 5 numbers, got 3"},
		{"too many numbers", [][]int32{{1, 2, 3, 4, 5, 6}}, "expected 5 numbers, got 6"},
		{"number above range", [][]int32{{1, 2, 3, 4, 43}}, "number 43 out of range"},
		{"number below range", [][]int32{{0, 2, 3, 4, 5}}, "number 0 out of range"},
		{"duplicate within selection", [][]int32{{7, 7, 3, 4, 5}}, "duplicate number 7"},
		{"second selection offends", [][]int32{{1, 2, 3, 4, 5}, {1, 2, 3, 4, 4}}, "selection 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSelections(game, tt.selections)
			if tt.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateWinningNumbers(t *testing.T) {
	game := testGame()

	require.NoError(t, ValidateWinningNumbers(game, []int32{3, 7, 12, 19, 22}))

	err := ValidateWinningNumbers(game, []int32{3, 7, 12, 19})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", CodeOf(err))
}

// --- Match scoring ---

func TestMatchCount(t *testing.T) {
	tests := []struct {
		name    string
		board   []int32
		winning []int32
		want    int
	}{
		{"partial overlap", []int32{7, 12, 40, 41, 42}, []int32{3, 7, 12, 19, 22}, 2},
		{"no overlap", []int32{1, 2, 3, 4, 5}, []int32{10, 20, 30, 40, 41}, 0},
		{"full overlap", []int32{3, 7, 12, 19, 22}, []int32{3, 7, 12, 19, 22}, 5},
		{"order irrelevant", []int32{22, 19, 12, 7, 3}, []int32{3, 7, 12, 19, 22}, 5},
		{"empty board", nil, []int32{1, 2, 3}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchCount(tt.board, tt.winning))
		})
	}
}

func TestMatchCountDeterministic(t *testing.T) {
	board := []int32{7, 12, 40, 41, 42}
	winning := []int32{3, 7, 12, 19, 22}
	first := MatchCount(board, winning)
	for i := 0; i < 100; i++ {
		require.Equal(t, first, MatchCount(board, winning))
	}
}

// --- Tier table ---

func TestTierTable(t *testing.T) {
	tiers := TierTable{{MinMatches: 3, Tier: 1}, {MinMatches: 4, Tier: 2}, {MinMatches: 5, Tier: 3}}

	t.Run("monotonic in match count", func(t *testing.T) {
		prev := 0
		for matches := 0; matches <= 6; matches++ {
			tier := tiers.TierFor(matches)
			assert.GreaterOrEqual(t, tier, prev, "tier regressed at %d matches", matches)
			prev = tier
		}
	})

	t.Run("below first cutoff pays tier 0", func(t *testing.T) {
		assert.Equal(t, 0, tiers.TierFor(0))
		assert.Equal(t, 0, tiers.TierFor(2))
	})

	t.Run("exact cutoffs", func(t *testing.T) {
		assert.Equal(t, 1, tiers.TierFor(3))
		assert.Equal(t, 2, tiers.TierFor(4))
		assert.Equal(t, 3, tiers.TierFor(5))
	})

	t.Run("validate rejects descending cutoffs", func(t *testing.T) {
		bad := TierTable{{MinMatches: 4, Tier: 2}, {MinMatches: 3, Tier: 1}}
		require.Error(t, bad.Validate())
	})

	t.Run("validate rejects non-increasing tier", func(t *testing.T) {
		bad := TierTable{{MinMatches: 3, Tier: 2}, {MinMatches: 4, Tier: 2}}
		require.Error(t, bad.Validate())
	})

	t.Run("empty table is valid", func(t *testing.T) {
		require.NoError(t, TierTable{}.Validate())
	})
}

func TestPrizeTable(t *testing.T) {
	prizes := PrizeTable{{Tier: 1, Amount: 5000}, {Tier: 2, Amount: 50000}}

	assert.Equal(t, int64(5000), prizes.PrizeFor(1))
	assert.Equal(t, int64(50000), prizes.PrizeFor(2))
	assert.Equal(t, int64(0), prizes.PrizeFor(3))

	require.Error(t, PrizeTable{{Tier: 1, Amount: 100}, {Tier: 1, Amount: 200}}.Validate())
	require.Error(t, PrizeTable{{Tier: 0, Amount: 100}}.Validate())
	require.Error(t, PrizeTable{{Tier: 1, Amount: -1}}.Validate())
}

// --- Game window ---

func TestGameWindow(t *testing.T) {
	game := testGame()

	t.Run("before open", func(t *testing.T) {
		now := game.OpensAt.Add(-time.Minute)
		assert.False(t, game.AcceptsPurchasesAt(now))
	})

	t.Run("inside window", func(t *testing.T) {
		assert.True(t, game.AcceptsPurchasesAt(game.OpensAt))
		assert.True(t, game.AcceptsPurchasesAt(game.ClosesAt.Add(-time.Second)))
	})

	t.Run("at close and after", func(t *testing.T) {
		assert.False(t, game.AcceptsPurchasesAt(game.ClosesAt))
		assert.False(t, game.AcceptsPurchasesAt(game.ClosesAt.Add(time.Hour)))
		assert.True(t, game.ClosedAt(game.ClosesAt))
	})
}

func TestGameValidate(t *testing.T) {
	t.Run("valid game", func(t *testing.T) {
		require.NoError(t, testGame().Validate())
	})

	t.Run("shape too large for range", func(t *testing.T) {
		g := testGame()
		g.NumbersPerBoard = 50
		require.Error(t, g.Validate())
	})

	t.Run("window inverted", func(t *testing.T) {
		g := testGame()
		g.ClosesAt = g.OpensAt
		require.Error(t, g.Validate())
	})

	t.Run("free boards rejected", func(t *testing.T) {
		g := testGame()
		g.CostPerBoard = 0
		require.Error(t, g.Validate())
	})
}

// --- Errors ---

func TestAppError(t *testing.T) {
	t.Run("code extraction", func(t *testing.T) {
		err := ErrInsufficientCredits()
		assert.Equal(t, "INSUFFICIENT_CREDITS", CodeOf(err))
		assert.Equal(t, 400, err.Status)
	})

	t.Run("wrapped cause unwraps", func(t *testing.T) {
		cause := fmt.Errorf("row lock timeout")
		err := ErrConcurrencyConflict(cause)
		assert.True(t, errors.Is(err, cause))
		assert.Equal(t, 503, err.Status)
	})

	t.Run("code of plain error is empty", func(t *testing.T) {
		assert.Equal(t, "", CodeOf(errors.New("plain")))
	})

	t.Run("rate limited carries retry after", func(t *testing.T) {
		err := ErrRateLimited(2500 * time.Millisecond)
		assert.Equal(t, 3, err.RetryAfterSeconds)
		assert.Equal(t, 429, err.Status)
	})

	t.Run("rate limited floors at one second", func(t *testing.T) {
		err := ErrRateLimited(10 * time.Millisecond)
		assert.Equal(t, 1, err.RetryAfterSeconds)
	})
}

func TestParseSortOrder(t *testing.T) {
	order, err := ParseSortOrder("")
	require.NoError(t, err)
	assert.Equal(t, SortDesc, order)

	order, err = ParseSortOrder("asc")
	require.NoError(t, err)
	assert.Equal(t, SortAsc, order)

	_, err = ParseSortOrder("sideways")
	require.Error(t, err)
}

func TestParseTimeRange(t *testing.T) {
	rng, err := ParseTimeRange("", "")
	require.NoError(t, err)
	assert.Nil(t, rng.From)
	assert.Nil(t, rng.To)

	rng, err = ParseTimeRange("2025-06-01T00:00:00Z", "2025-06-08T00:00:00Z")
	require.NoError(t, err)
	require.NotNil(t, rng.From)
	require.NotNil(t, rng.To)
	assert.True(t, rng.Contains(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)), "from is inclusive")
	assert.False(t, rng.Contains(time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC)), "to is exclusive")
	assert.False(t, rng.Contains(time.Date(2025, 5, 31, 23, 59, 59, 0, time.UTC)))

	_, err = ParseTimeRange("yesterday", "")
	require.Error(t, err)

	_, err = ParseTimeRange("", "not-a-time")
	require.Error(t, err)

	_, err = ParseTimeRange("2025-06-08T00:00:00Z", "2025-06-01T00:00:00Z")
	require.Error(t, err, "to must not precede from")
}
