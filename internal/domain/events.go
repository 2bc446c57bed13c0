package domain

import (
	"encoding/json"

	"github.com/google/uuid"
)

// NewTransactionPostedEvent creates the standard ledger event for an entry.
func NewTransactionPostedEvent(tx *Transaction) OutboxDraft {
	payload, _ := json.Marshal(tx)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateLedger,
		AggregateID:   tx.MemberID.String(),
		EventType:     EventTransactionPosted,
		PartitionKey:  tx.MemberID.String(),
		Payload:       payload,
		OccurredAt:    tx.CreatedAt,
	}
}

// NewMemberCreatedEvent creates a member lifecycle event.
func NewMemberCreatedEvent(m *Member) OutboxDraft {
	payload, _ := json.Marshal(map[string]string{
		"member_id": m.ID.String(),
		"currency":  m.Currency,
	})
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateMember,
		AggregateID:   m.ID.String(),
		EventType:     EventMemberCreated,
		PartitionKey:  m.ID.String(),
		Payload:       payload,
		OccurredAt:    m.CreatedAt,
	}
}

// NewSequencePublishedEvent records the one-shot publication of a game's
// winning numbers.
func NewSequencePublishedEvent(ws *WinningSequence) OutboxDraft {
	payload, _ := json.Marshal(ws)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateGame,
		AggregateID:   ws.GameID.String(),
		EventType:     EventSequencePublished,
		PartitionKey:  ws.GameID.String(),
		Payload:       payload,
		OccurredAt:    ws.PublishedAt,
	}
}

// NewGameSettledEvent summarizes a completed settlement run.
func NewGameSettledEvent(g *Game, boardsScored, winners int) OutboxDraft {
	payload, _ := json.Marshal(map[string]interface{}{
		"game_id":       g.ID.String(),
		"boards_scored": boardsScored,
		"winners":       winners,
	})
	at := g.CreatedAt
	if g.SettledAt != nil {
		at = *g.SettledAt
	}
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateGame,
		AggregateID:   g.ID.String(),
		EventType:     EventGameSettled,
		PartitionKey:  g.ID.String(),
		Payload:       payload,
		OccurredAt:    at,
	}
}
