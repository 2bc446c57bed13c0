package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pickclub/platform/internal/domain"
	"github.com/pickclub/platform/internal/repository"
)

// ReconcileResult holds the outcome of a reconciliation run for one member.
type ReconcileResult struct {
	MemberID         uuid.UUID        `json:"member_id"`
	TransactionCount int              `json:"transaction_count"`
	CachedBalance    int64            `json:"cached_balance"`
	FoldedBalance    int64            `json:"folded_balance"`
	Checks           []ReconcileCheck `json:"checks"`
	AllPassed        bool             `json:"all_passed"`
}

// ReconcileCheck records a single consistency validation.
type ReconcileCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// Reconciler verifies that a member's cached balance agrees with the
// append-only ledger.
//
// Checks:
//  1. Fold parity: cached balance equals the sum of all deltas
//  2. Chain consistency: every balance_after equals the previous one plus
//     the entry's delta
//  3. Non-negativity: no snapshot in the chain is negative
//  4. Sum parity: the database-side SUM(delta) agrees with the in-process
//     fold, catching rows the list read missed
type Reconciler struct {
	engine *Engine
	pool   *pgxpool.Pool
	txRepo repository.TransactionRepository
}

// NewReconciler creates a reconciler.
func NewReconciler(engine *Engine, pool *pgxpool.Pool, txRepo repository.TransactionRepository) *Reconciler {
	return &Reconciler{engine: engine, pool: pool, txRepo: txRepo}
}

// Reconcile locks the member, reads the full entry sequence and validates
// the checks against it.
func (r *Reconciler) Reconcile(ctx context.Context, memberID uuid.UUID) (*ReconcileResult, error) {
	var member *domain.Member
	var entries []domain.Transaction
	var summed int64

	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		var err error
		member, err = r.engine.LockMemberForUpdate(ctx, tx, memberID)
		if err != nil {
			return err
		}
		if entries, err = r.txRepo.ListByMemberAsc(ctx, tx, memberID); err != nil {
			return err
		}
		summed, err = r.txRepo.SumDeltas(ctx, tx, memberID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("reconcile fetch state: %w", err)
	}

	folded := FoldDeltas(entries)
	checks := make([]ReconcileCheck, 0, 4)

	checks = append(checks, ReconcileCheck{
		Name:   "fold_parity",
		Passed: folded == member.Balance,
		Detail: fmt.Sprintf("cached=%d folded=%d", member.Balance, folded),
	})

	chainErr := VerifyChain(entries)
	checks = append(checks, ReconcileCheck{
		Name:   "chain_consistent",
		Passed: chainErr == nil,
		Detail: detailOf(chainErr),
	})

	negative := false
	for i := range entries {
		if entries[i].BalanceAfter < 0 {
			negative = true
			break
		}
	}
	checks = append(checks, ReconcileCheck{
		Name:   "balance_non_negative",
		Passed: !negative && member.Balance >= 0,
		Detail: fmt.Sprintf("cached=%d", member.Balance),
	})

	checks = append(checks, ReconcileCheck{
		Name:   "sum_parity",
		Passed: summed == folded,
		Detail: fmt.Sprintf("summed=%d folded=%d", summed, folded),
	})

	allPassed := true
	for _, c := range checks {
		if !c.Passed {
			allPassed = false
		}
	}

	return &ReconcileResult{
		MemberID:         memberID,
		TransactionCount: len(entries),
		CachedBalance:    member.Balance,
		FoldedBalance:    folded,
		Checks:           checks,
		AllPassed:        allPassed,
	}, nil
}

// FoldDeltas sums the signed deltas of an entry sequence.
func FoldDeltas(entries []domain.Transaction) int64 {
	var sum int64
	for i := range entries {
		sum += entries[i].Delta
	}
	return sum
}

// VerifyChain checks that every balance_after snapshot equals the previous
// snapshot plus the entry's delta. The sequence must be in posting order.
func VerifyChain(entries []domain.Transaction) error {
	var prev int64
	for i := range entries {
		want := prev + entries[i].Delta
		if entries[i].BalanceAfter != want {
			return fmt.Errorf("entry %d (%s): balance_after=%d, want %d",
				i, entries[i].ID, entries[i].BalanceAfter, want)
		}
		prev = entries[i].BalanceAfter
	}
	return nil
}

func detailOf(err error) string {
	if err == nil {
		return "ok"
	}
	return err.Error()
}
