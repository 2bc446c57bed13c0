package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pickclub/platform/internal/domain"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// MemberRepository provides access to members.
type MemberRepository interface {
	// FindByID returns a member by ID, nil when absent.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Member, error)

	// LockForUpdate acquires a row-level lock (SELECT FOR UPDATE) and returns
	// the member. All ledger writes for a member serialize on this lock.
	LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Member, error)

	// Create inserts a new member.
	Create(ctx context.Context, db DBTX, member *domain.Member) error

	// ApplyDelta adjusts the cached balance with server-side arithmetic and
	// returns the updated row.
	ApplyDelta(ctx context.Context, tx pgx.Tx, memberID uuid.UUID, delta int64, at time.Time) (*domain.Member, error)
}

// TransactionRepository provides access to the append-only transactions table.
type TransactionRepository interface {
	// FindExisting checks the idempotency index for a duplicate entry.
	FindExisting(ctx context.Context, db DBTX, key domain.IdempotencyKey) (*domain.Transaction, error)

	// Insert appends a ledger entry with its balance snapshot.
	Insert(ctx context.Context, db DBTX, params domain.PostLedgerEntryParams, balanceAfter int64) (*domain.Transaction, error)

	// FindByID returns an entry by ID, nil when absent.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Transaction, error)

	// SumDeltas folds all deltas for a member. Used to reconcile the cached
	// balance against the ledger.
	SumDeltas(ctx context.Context, db DBTX, memberID uuid.UUID) (int64, error)

	// ListByMemberAsc returns the member's full entry sequence in posting
	// order, oldest first.
	ListByMemberAsc(ctx context.Context, db DBTX, memberID uuid.UUID) ([]domain.Transaction, error)
}

// GameRepository provides access to games.
type GameRepository interface {
	Create(ctx context.Context, db DBTX, game *domain.Game) error
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Game, error)

	// LockForUpdate locks the game row. Publication and settlement take this
	// lock so they cannot interleave with each other.
	LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Game, error)

	// UpdateStatus moves the game through its lifecycle.
	UpdateStatus(ctx context.Context, db DBTX, id uuid.UUID, status domain.GameStatus, settledAt *time.Time) error
}

// BoardRepository provides access to boards.
type BoardRepository interface {
	// InsertBatch writes all boards of one purchase.
	InsertBatch(ctx context.Context, db DBTX, boards []domain.Board) error

	// ListByGame returns every board sold for a game, in creation order.
	ListByGame(ctx context.Context, db DBTX, gameID uuid.UUID) ([]domain.Board, error)

	// MarkSettled records the scored tier on a board.
	MarkSettled(ctx context.Context, db DBTX, boardID uuid.UUID, tier int, at time.Time) error

	// CountByGame returns the number of boards sold for a game.
	CountByGame(ctx context.Context, db DBTX, gameID uuid.UUID) (int64, error)
}

// PurchaseRepository provides access to purchases.
type PurchaseRepository interface {
	Insert(ctx context.Context, db DBTX, purchase *domain.Purchase) error
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Purchase, error)

	// FindByTransactionID resolves the purchase a ledger debit paid for.
	// Used to recover the original result on an idempotent retry.
	FindByTransactionID(ctx context.Context, db DBTX, txID uuid.UUID) (*domain.Purchase, error)

	// BoardIDs returns the IDs of the boards created by a purchase.
	BoardIDs(ctx context.Context, db DBTX, purchaseID uuid.UUID) ([]uuid.UUID, error)
}

// SequenceRepository provides access to winning_sequences. The table's
// primary key is game_id, which is what makes publication write-once.
type SequenceRepository interface {
	FindByGame(ctx context.Context, db DBTX, gameID uuid.UUID) (*domain.WinningSequence, error)
	Insert(ctx context.Context, db DBTX, seq *domain.WinningSequence) error
}

// OutboxRepository provides access to the event_outbox table.
type OutboxRepository interface {
	// Insert writes an outbox event in the same transaction as the state
	// change it describes.
	Insert(ctx context.Context, db DBTX, draft domain.OutboxDraft) error

	// FetchUnpublished returns unpublished rows in insertion order, locking
	// them so concurrent drainers skip rather than double-deliver. Call it
	// inside a transaction and mark the rows before committing.
	FetchUnpublished(ctx context.Context, db DBTX, limit int) ([]domain.OutboxRow, error)

	// MarkPublished stamps the given rows as delivered.
	MarkPublished(ctx context.Context, db DBTX, seqIDs []int64) error
}
