package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pickclub/platform/internal/domain"
)

// ExecuteCredit posts a positive delta to the member's credits. Used for
// admin grants, prize payouts and manual adjustments.
// Pattern: Lock → Idempotency → PostLedgerEntry
func (e *Engine) ExecuteCredit(ctx context.Context, tx pgx.Tx, params domain.CreditParams) (*domain.CommandResult, error) {
	if err := domain.ValidatePositiveAmount(params.Amount); err != nil {
		return nil, err
	}

	// Lock
	member, err := e.LockMemberForUpdate(ctx, tx, params.MemberID)
	if err != nil {
		return nil, fmt.Errorf("credit: %w", err)
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

	entry, updated, err := e.PostLedgerEntry(ctx, tx, domain.PostLedgerEntryParams{
		MemberID:              params.MemberID,
		Type:                  params.Type,
		Delta:                 params.Amount,
		ExternalTransactionID: strPtr(extID),
		GameID:                params.GameID,
		PurchaseID:            params.PurchaseID,
		Metadata:              ensureJSON(params.Metadata),
		OccurredAt:            params.OccurredAt,
	})
	if err != nil {
		return nil, fmt.Errorf("credit post: %w", err)
	}

	return &domain.CommandResult{
		Transaction: entry,
		Member:      updated,
		Events:      []domain.OutboxDraft{domain.NewTransactionPostedEvent(entry)},
	}, nil
}
