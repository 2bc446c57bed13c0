package domain

import (
	"time"

	"github.com/google/uuid"
)

// Member represents a members row. Balance is the cached running total in
// integer minor units (numeric(15,0)); the transactions table is the source
// of truth and the two must always agree (see ledger.Reconcile).
type Member struct {
	ID        uuid.UUID `json:"id"`
	Balance   int64     `json:"balance"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GuardResult is the outcome of a pre-purchase guard check.
type GuardResult struct {
	Allowed    bool
	RetryAfter time.Duration
	Guard      string
}
