package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PostLedgerEntryParams is the input to the atomic PostLedgerEntry
// operation: one balance delta plus the appended entry describing it.
type PostLedgerEntryParams struct {
	MemberID              uuid.UUID
	Type                  TransactionType
	Delta                 int64 // signed
	ExternalTransactionID *string
	GameID                *uuid.UUID
	PurchaseID            *uuid.UUID
	Metadata              json.RawMessage
	OccurredAt            time.Time
}

// CommandResult is the return value of the ledger commands.
type CommandResult struct {
	Transaction *Transaction
	Member      *Member
	Events      []OutboxDraft
	Idempotent  bool // true when a duplicate returned the existing entry
}

// DebitParams holds the input for ExecuteDebit. Amount is positive; the
// posted delta is -Amount.
type DebitParams struct {
	MemberID              uuid.UUID
	Amount                int64
	Type                  TransactionType
	ExternalTransactionID string
	GameID                *uuid.UUID
	PurchaseID            *uuid.UUID
	Metadata              json.RawMessage
	OccurredAt            time.Time
}

// CreditParams holds the input for ExecuteCredit. Amount is positive; the
// posted delta is +Amount.
type CreditParams struct {
	MemberID              uuid.UUID
	Amount                int64
	Type                  TransactionType
	ExternalTransactionID string
	GameID                *uuid.UUID
	PurchaseID            *uuid.UUID
	Metadata              json.RawMessage
	OccurredAt            time.Time
}
