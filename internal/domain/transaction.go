package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TransactionType enumerates the ledger entry reasons.
type TransactionType string

const (
	TxAdminCredit   TransactionType = "admin_credit"
	TxBoardPurchase TransactionType = "board_purchase"
	TxPrizePayout   TransactionType = "prize_payout"
	TxAdjustment    TransactionType = "adjustment"
)

// Transaction is one append-only ledger entry. Delta is signed; BalanceAfter
// is the member's balance immediately after this entry, so for any member
// the (created_at, id)-ordered sequence forms a valid fold.
type Transaction struct {
	ID                    uuid.UUID       `json:"id"`
	MemberID              uuid.UUID       `json:"member_id"`
	Type                  TransactionType `json:"type"`
	Delta                 int64           `json:"delta"`
	BalanceAfter          int64           `json:"balance_after"`
	ExternalTransactionID *string         `json:"external_transaction_id,omitempty"`
	GameID                *uuid.UUID      `json:"game_id,omitempty"`
	PurchaseID            *uuid.UUID      `json:"purchase_id,omitempty"`
	Metadata              json.RawMessage `json:"metadata"`
	CreatedAt             time.Time       `json:"created_at"`
}

// IdempotencyKey deduplicates ledger commands. A retried command with the
// same key returns the original transaction instead of posting twice.
type IdempotencyKey struct {
	MemberID              uuid.UUID
	ExternalTransactionID string
}

// BalanceSnapshot is the member's balance as of one ledger entry. The
// history read surface serves these straight from balance_after.
type BalanceSnapshot struct {
	MemberID uuid.UUID `json:"member_id"`
	AsOf     time.Time `json:"as_of"`
	Balance  int64     `json:"balance"`
}
