package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GameStatus tracks the round lifecycle: open -> closed -> settled.
// A game is never reopened and never modified after creation apart from
// this status column.
type GameStatus string

const (
	GameOpen    GameStatus = "open"
	GameClosed  GameStatus = "closed"
	GameSettled GameStatus = "settled"
)

// Game is one recurring lottery round. Board shape (NumbersPerBoard,
// MaxNumber), cost and the tier/prize configuration are fixed at creation.
type Game struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	OpensAt         time.Time  `json:"opens_at"`
	ClosesAt        time.Time  `json:"closes_at"`
	CostPerBoard    int64      `json:"cost_per_board"`
	NumbersPerBoard int        `json:"numbers_per_board"`
	MaxNumber       int        `json:"max_number"`
	Tiers           TierTable  `json:"tiers"`
	Prizes          PrizeTable `json:"prizes"`
	Status          GameStatus `json:"status"`
	SettledAt       *time.Time `json:"settled_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// AcceptsPurchasesAt reports whether a purchase at the given instant falls
// inside the game's open window.
func (g *Game) AcceptsPurchasesAt(now time.Time) bool {
	return !now.Before(g.OpensAt) && now.Before(g.ClosesAt)
}

// ClosedAt reports whether the game's window has elapsed at the given instant.
func (g *Game) ClosedAt(now time.Time) bool {
	return !now.Before(g.ClosesAt)
}

// Validate checks the board shape and config tables.
func (g *Game) Validate() error {
	if g.NumbersPerBoard < 1 {
		return ErrValidation("numbers_per_board must be at least 1")
	}
	if g.MaxNumber < g.NumbersPerBoard {
		return ErrValidation(fmt.Sprintf("max_number %d cannot fit %d distinct numbers", g.MaxNumber, g.NumbersPerBoard))
	}
	if g.CostPerBoard <= 0 {
		return ErrValidation("cost_per_board must be positive")
	}
	if !g.ClosesAt.After(g.OpensAt) {
		return ErrValidation("closes_at must be after opens_at")
	}
	if err := g.Tiers.Validate(); err != nil {
		return err
	}
	return g.Prizes.Validate()
}

// TierCutoff maps a minimum match count to a prize tier.
type TierCutoff struct {
	MinMatches int `json:"min_matches"`
	Tier       int `json:"tier"`
}

// TierTable is the external game configuration that converts a match count
// into a tier. Cutoffs are kept sorted ascending by MinMatches; tier must be
// non-decreasing in match count so scoring is monotonic.
type TierTable []TierCutoff

// Validate checks that cutoffs are strictly ascending and tiers monotonic.
func (t TierTable) Validate() error {
	for i := range t {
		if t[i].MinMatches < 0 || t[i].Tier < 1 {
			return ErrValidation("tier cutoffs must have min_matches >= 0 and tier >= 1")
		}
		if i > 0 {
			if t[i].MinMatches <= t[i-1].MinMatches {
				return ErrValidation("tier cutoffs must be strictly ascending by min_matches")
			}
			if t[i].Tier <= t[i-1].Tier {
				return ErrValidation("tier must increase with min_matches")
			}
		}
	}
	return nil
}

// TierFor returns the tier for a match count, or 0 when no cutoff is reached.
func (t TierTable) TierFor(matches int) int {
	tier := 0
	for _, c := range t {
		if matches >= c.MinMatches {
			tier = c.Tier
		}
	}
	return tier
}

// PrizeLevel is the payout for one tier, in minor units.
type PrizeLevel struct {
	Tier   int   `json:"tier"`
	Amount int64 `json:"amount"`
}

// PrizeTable maps tiers to payouts. Tiers absent from the table pay nothing.
type PrizeTable []PrizeLevel

func (p PrizeTable) Validate() error {
	seen := make(map[int]bool, len(p))
	for _, l := range p {
		if l.Tier < 1 {
			return ErrValidation("prize tier must be >= 1")
		}
		if l.Amount < 0 {
			return ErrValidation("prize amount cannot be negative")
		}
		if seen[l.Tier] {
			return ErrValidation(fmt.Sprintf("duplicate prize tier %d", l.Tier))
		}
		seen[l.Tier] = true
	}
	return nil
}

// PrizeFor returns the payout for a tier, 0 when the tier is unlisted.
func (p PrizeTable) PrizeFor(tier int) int64 {
	for _, l := range p {
		if l.Tier == tier {
			return l.Amount
		}
	}
	return 0
}

// MatchCount returns the cardinality of the intersection of the two number
// sets. Order within either slice is irrelevant to scoring.
func MatchCount(board, winning []int32) int {
	set := make(map[int32]struct{}, len(winning))
	for _, n := range winning {
		set[n] = struct{}{}
	}
	matches := 0
	for _, n := range board {
		if _, ok := set[n]; ok {
			matches++
			delete(set, n)
		}
	}
	return matches
}
