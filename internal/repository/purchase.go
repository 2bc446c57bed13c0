package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pickclub/platform/internal/domain"
	"github.com/pickclub/platform/internal/infra"
)

type purchaseRepo struct{}

// NewPurchaseRepository returns a pgx-backed PurchaseRepository.
func NewPurchaseRepository() PurchaseRepository {
	return &purchaseRepo{}
}

func (r *purchaseRepo) Insert(ctx context.Context, db DBTX, purchase *domain.Purchase) error {
	_, err := db.Exec(ctx, `
		INSERT INTO purchases (id, member_id, game_id, total_debited, transaction_id, request_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		purchase.ID,
		purchase.MemberID,
		purchase.GameID,
		infra.CreditsToNumeric(purchase.TotalDebited),
		purchase.TransactionID,
		purchase.RequestID,
		purchase.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert purchase: %w", err)
	}
	return nil
}

func (r *purchaseRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Purchase, error) {
	row := db.QueryRow(ctx, `
		SELECT id, member_id, game_id, total_debited, transaction_id, request_id, created_at
		FROM purchases WHERE id = $1`, id)
	return scanPurchase(row)
}

func (r *purchaseRepo) FindByTransactionID(ctx context.Context, db DBTX, txID uuid.UUID) (*domain.Purchase, error) {
	row := db.QueryRow(ctx, `
		SELECT id, member_id, game_id, total_debited, transaction_id, request_id, created_at
		FROM purchases WHERE transaction_id = $1`, txID)
	return scanPurchase(row)
}

func (r *purchaseRepo) BoardIDs(ctx context.Context, db DBTX, purchaseID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := db.Query(ctx, `
		SELECT id FROM boards WHERE purchase_id = $1 ORDER BY created_at ASC, id ASC`, purchaseID)
	if err != nil {
		return nil, fmt.Errorf("query purchase boards: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan board id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanPurchase(row pgx.Row) (*domain.Purchase, error) {
	var p domain.Purchase
	var totalNum pgtype.Numeric
	err := row.Scan(&p.ID, &p.MemberID, &p.GameID, &totalNum, &p.TransactionID, &p.RequestID, &p.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan purchase: %w", err)
	}

	p.TotalDebited, err = infra.CreditsFromNumeric(totalNum)
	if err != nil {
		return nil, fmt.Errorf("convert total_debited: %w", err)
	}
	return &p, nil
}
