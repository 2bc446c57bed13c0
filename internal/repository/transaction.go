package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pickclub/platform/internal/domain"
	"github.com/pickclub/platform/internal/infra"
)

const transactionColumns = `id, member_id, type, delta, balance_after,
	external_transaction_id, game_id, purchase_id, metadata, created_at`

type transactionRepo struct{}

// NewTransactionRepository returns a pgx-backed TransactionRepository.
func NewTransactionRepository() TransactionRepository {
	return &transactionRepo{}
}

func (r *transactionRepo) FindExisting(ctx context.Context, db DBTX, key domain.IdempotencyKey) (*domain.Transaction, error) {
	row := db.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE member_id = $1 AND external_transaction_id = $2`,
		key.MemberID, key.ExternalTransactionID)
	return scanTransaction(row)
}

func (r *transactionRepo) Insert(ctx context.Context, db DBTX, params domain.PostLedgerEntryParams, balanceAfter int64) (*domain.Transaction, error) {
	meta := params.Metadata
	if meta == nil {
		meta = json.RawMessage(`{}`)
	}

	row := db.QueryRow(ctx, `
		INSERT INTO transactions
		  (member_id, type, delta, balance_after, external_transaction_id, game_id, purchase_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+transactionColumns,
		params.MemberID,
		string(params.Type),
		infra.CreditsToNumeric(params.Delta),
		infra.CreditsToNumeric(balanceAfter),
		params.ExternalTransactionID,
		params.GameID,
		params.PurchaseID,
		meta,
		params.OccurredAt,
	)
	return scanTransaction(row)
}

func (r *transactionRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Transaction, error) {
	row := db.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions WHERE id = $1`, id)
	return scanTransaction(row)
}

func (r *transactionRepo) SumDeltas(ctx context.Context, db DBTX, memberID uuid.UUID) (int64, error) {
	var sum pgtype.Numeric
	err := db.QueryRow(ctx, `
		SELECT COALESCE(SUM(delta), 0) FROM transactions WHERE member_id = $1`,
		memberID).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum deltas: %w", err)
	}
	return infra.CreditsFromNumeric(sum)
}

func (r *transactionRepo) ListByMemberAsc(ctx context.Context, db DBTX, memberID uuid.UUID) ([]domain.Transaction, error) {
	rows, err := db.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE member_id = $1
		ORDER BY created_at ASC, id ASC`, memberID)
	if err != nil {
		return nil, fmt.Errorf("query member transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var tx domain.Transaction
	var deltaNum, balNum pgtype.Numeric
	err := row.Scan(
		&tx.ID, &tx.MemberID, &tx.Type, &deltaNum, &balNum,
		&tx.ExternalTransactionID, &tx.GameID, &tx.PurchaseID, &tx.Metadata, &tx.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}

	if tx.Delta, err = infra.CreditsFromNumeric(deltaNum); err != nil {
		return nil, fmt.Errorf("convert delta: %w", err)
	}
	if tx.BalanceAfter, err = infra.CreditsFromNumeric(balNum); err != nil {
		return nil, fmt.Errorf("convert balance_after: %w", err)
	}
	return &tx, nil
}

func collectTransactions(rows pgx.Rows) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		var deltaNum, balNum pgtype.Numeric
		err := rows.Scan(
			&tx.ID, &tx.MemberID, &tx.Type, &deltaNum, &balNum,
			&tx.ExternalTransactionID, &tx.GameID, &tx.PurchaseID, &tx.Metadata, &tx.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		if tx.Delta, err = infra.CreditsFromNumeric(deltaNum); err != nil {
			return nil, err
		}
		if tx.BalanceAfter, err = infra.CreditsFromNumeric(balNum); err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}
