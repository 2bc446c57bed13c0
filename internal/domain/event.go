package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates all domain event types.
type EventType string

const (
	EventMemberCreated     EventType = "club.member.created"
	EventTransactionPosted EventType = "club.ledger.transaction.posted"
	EventLowBalance        EventType = "club.ledger.balance.low"
	EventPurchaseCompleted EventType = "club.purchase.completed"
	EventSequencePublished EventType = "club.game.sequence.published"
	EventGameSettled       EventType = "club.game.settled"
)

// AggregateType enumerates the aggregate root types for outbox events.
type AggregateType string

const (
	AggregateMember AggregateType = "member"
	AggregateLedger AggregateType = "ledger"
	AggregateGame   AggregateType = "game"
)

// OutboxDraft is the payload written to the event_outbox table, in the same
// database transaction as the state change it describes.
type OutboxDraft struct {
	EventID       uuid.UUID       `json:"event_id"`
	AggregateType AggregateType   `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     EventType       `json:"event_type"`
	PartitionKey  string          `json:"partition_key"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// OutboxRow pairs a draft with its sequence id for the poller.
type OutboxRow struct {
	SeqID int64
	OutboxDraft
}
