package draw

import (
	"testing"

	"github.com/pickclub/platform/internal/domain"
	"github.com/stretchr/testify/assert"
)

func scoringGame() *domain.Game {
	return &domain.Game{
		NumbersPerBoard: 5,
		MaxNumber:       42,
		Tiers: domain.TierTable{
			{MinMatches: 3, Tier: 1},
			{MinMatches: 4, Tier: 2},
			{MinMatches: 5, Tier: 3},
		},
		Prizes: domain.PrizeTable{
			{Tier: 1, Amount: 500},
			{Tier: 2, Amount: 10_000},
			{Tier: 3, Amount: 1_000_000},
		},
	}
}

func TestScoreBoard(t *testing.T) {
	game := scoringGame()
	winning := []int32{3, 7, 12, 19, 22}

	cases := []struct {
		name    string
		numbers []int32
		matches int
		tier    int
		prize   int64
	}{
		{"no matches", []int32{1, 2, 4, 5, 6}, 0, 0, 0},
		{"below first cutoff", []int32{3, 7, 1, 2, 4}, 2, 0, 0},
		{"tier one", []int32{3, 7, 12, 1, 2}, 3, 1, 500},
		{"tier two", []int32{3, 7, 12, 19, 1}, 4, 2, 10_000},
		{"jackpot", []int32{3, 7, 12, 19, 22}, 5, 3, 1_000_000},
		{"order irrelevant", []int32{22, 19, 12, 7, 3}, 5, 3, 1_000_000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			board := &domain.Board{Numbers: tc.numbers}
			score := ScoreBoard(game, board, winning)
			assert.Equal(t, tc.matches, score.Matches)
			assert.Equal(t, tc.tier, score.Tier)
			assert.Equal(t, tc.prize, score.Prize)
		})
	}
}

func TestScoreBoard_UnconfiguredTierPaysNothing(t *testing.T) {
	game := scoringGame()
	game.Prizes = domain.PrizeTable{{Tier: 3, Amount: 1_000_000}}

	board := &domain.Board{Numbers: []int32{3, 7, 12, 1, 2}}
	score := ScoreBoard(game, board, []int32{3, 7, 12, 19, 22})
	assert.Equal(t, 1, score.Tier)
	assert.Equal(t, int64(0), score.Prize)
}
