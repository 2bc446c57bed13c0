package domain

import (
	"time"

	"github.com/google/uuid"
)

// Board is one purchased number pick. Immutable once created; Tier and
// SettledAt are filled exactly once during game settlement.
type Board struct {
	ID         uuid.UUID  `json:"id"`
	GameID     uuid.UUID  `json:"game_id"`
	MemberID   uuid.UUID  `json:"member_id"`
	PurchaseID uuid.UUID  `json:"purchase_id"`
	Numbers    []int32    `json:"numbers"`
	Tier       *int       `json:"tier,omitempty"`
	SettledAt  *time.Time `json:"settled_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// BoardView is the board-history read model: the board plus its score
// against the game's published sequence, when one exists.
type BoardView struct {
	Board
	Matches *int `json:"matches,omitempty"`
}

// Purchase groups the boards bought in one atomic buy action with the
// ledger debit that paid for them.
type Purchase struct {
	ID            uuid.UUID `json:"id"`
	MemberID      uuid.UUID `json:"member_id"`
	GameID        uuid.UUID `json:"game_id"`
	TotalDebited  int64     `json:"total_debited"`
	TransactionID uuid.UUID `json:"transaction_id"`
	RequestID     *string   `json:"request_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// WinningSequence is the once-published result for a game. Write-once:
// game_id is the primary key and a second publish attempt fails.
type WinningSequence struct {
	GameID      uuid.UUID `json:"game_id"`
	Numbers     []int32   `json:"numbers"`
	PublishedAt time.Time `json:"published_at"`
}

// GameResult is the game-history read model: the game, its sequence if
// published (nil otherwise, never an error), and a sales summary.
type GameResult struct {
	Game       Game             `json:"game"`
	Sequence   *WinningSequence `json:"sequence,omitempty"`
	BoardsSold int64            `json:"boards_sold"`
}
