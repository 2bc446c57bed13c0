package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pickclub/platform/internal/domain"
	"github.com/pickclub/platform/internal/repository"
)

// Engine provides the 3 foundational ledger operations:
//  1. LockMemberForUpdate: row-level pessimistic lock
//  2. FindExistingTransaction: idempotency check
//  3. PostLedgerEntry: atomic balance update, append-only insert, outbox event
//
// The debit and credit commands compose these; nothing else writes to the
// members or transactions tables.
type Engine struct {
	members      repository.MemberRepository
	transactions repository.TransactionRepository
	outbox       repository.OutboxRepository
}

// NewEngine creates a ledger engine with the given repositories.
func NewEngine(
	members repository.MemberRepository,
	transactions repository.TransactionRepository,
	outbox repository.OutboxRepository,
) *Engine {
	return &Engine{
		members:      members,
		transactions: transactions,
		outbox:       outbox,
	}
}

// LockMemberForUpdate acquires a row-level lock and returns the member.
// Must be called within a transaction. All writes for one member serialize
// here, so balance arithmetic downstream never races.
func (e *Engine) LockMemberForUpdate(ctx context.Context, tx pgx.Tx, memberID uuid.UUID) (*domain.Member, error) {
	member, err := e.members.LockForUpdate(ctx, tx, memberID)
	if err != nil {
		return nil, fmt.Errorf("lock member: %w", err)
	}
	if member == nil {
		return nil, domain.ErrNotFound("member", memberID.String())
	}
	return member, nil
}

// FindExistingTransaction checks if an entry with the same idempotency key
// exists. Returns nil if no duplicate found.
func (e *Engine) FindExistingTransaction(ctx context.Context, tx pgx.Tx, key domain.IdempotencyKey) (*domain.Transaction, error) {
	existing, err := e.transactions.FindExisting(ctx, tx, key)
	if err != nil {
		return nil, fmt.Errorf("find existing transaction: %w", err)
	}
	return existing, nil
}

// PostLedgerEntry atomically applies a signed delta to the cached balance
// and appends the ledger entry carrying the post-update snapshot.
//
// Steps:
//  1. Apply the delta with server-side arithmetic
//  2. Insert the entry with the resulting balance snapshot
//  3. Insert the outbox event
//
// All 3 steps run within the caller's transaction.
func (e *Engine) PostLedgerEntry(ctx context.Context, tx pgx.Tx, params domain.PostLedgerEntryParams) (*domain.Transaction, *domain.Member, error) {
	updated, err := e.members.ApplyDelta(ctx, tx, params.MemberID, params.Delta, params.OccurredAt)
	if err != nil {
		return nil, nil, fmt.Errorf("apply delta: %w", err)
	}

	entry, err := e.transactions.Insert(ctx, tx, params, updated.Balance)
	if err != nil {
		return nil, nil, fmt.Errorf("insert transaction: %w", err)
	}

	event := domain.NewTransactionPostedEvent(entry)
	if err := e.outbox.Insert(ctx, tx, event); err != nil {
		return nil, nil, fmt.Errorf("insert outbox event: %w", err)
	}

	return entry, updated, nil
}
