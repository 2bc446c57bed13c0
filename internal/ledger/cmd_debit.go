package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pickclub/platform/internal/domain"
)

// ExecuteDebit posts a negative delta against the member's credits.
// Pattern: Lock → Idempotency → Balance check → PostLedgerEntry
func (e *Engine) ExecuteDebit(ctx context.Context, tx pgx.Tx, params domain.DebitParams) (*domain.CommandResult, error) {
	if err := domain.ValidatePositiveAmount(params.Amount); err != nil {
		return nil, err
	}

	// Lock
	member, err := e.LockMemberForUpdate(ctx, tx, params.MemberID)
	if err != nil {
		return nil, fmt.Errorf("debit: %w", err)
	}

	// Idempotency check
	extID := params.ExternalTransactionID
	if extID != "" {
		existing, err := e.FindExistingTransaction(ctx, tx, domain.IdempotencyKey{
			MemberID:              params.MemberID,
			ExternalTransactionID: extID,
		})
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return &domain.CommandResult{Transaction: existing, Member: member, Idempotent: true}, nil
		}
	}

	// The balance is already locked, so this check holds through the post.
	if member.Balance < params.Amount {
		return nil, domain.ErrInsufficientCredits()
	}

	entry, updated, err := e.PostLedgerEntry(ctx, tx, domain.PostLedgerEntryParams{
		MemberID:              params.MemberID,
		Type:                  params.Type,
		Delta:                 -params.Amount,
		ExternalTransactionID: strPtr(extID),
		GameID:                params.GameID,
		PurchaseID:            params.PurchaseID,
		Metadata:              ensureJSON(params.Metadata),
		OccurredAt:            params.OccurredAt,
	})
	if err != nil {
		return nil, fmt.Errorf("debit post: %w", err)
	}

	return &domain.CommandResult{
		Transaction: entry,
		Member:      updated,
		Events:      []domain.OutboxDraft{domain.NewTransactionPostedEvent(entry)},
	}, nil
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func ensureJSON(data json.RawMessage) json.RawMessage {
	if data == nil {
		return json.RawMessage(`{}`)
	}
	return data
}
