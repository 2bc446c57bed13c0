package draw

import (
	"github.com/pickclub/platform/internal/domain"
)

// Score is the outcome of matching one board against the winning sequence.
type Score struct {
	Matches int
	Tier    int
	Prize   int64
}

// ScoreBoard matches a board against the winning numbers and resolves the
// tier and payout from the game's configuration. Deterministic: the same
// board and sequence always score identically.
func ScoreBoard(game *domain.Game, board *domain.Board, winning []int32) Score {
	matches := domain.MatchCount(board.Numbers, winning)
	tier := game.Tiers.TierFor(matches)
	return Score{
		Matches: matches,
		Tier:    tier,
		Prize:   game.Prizes.PrizeFor(tier),
	}
}
