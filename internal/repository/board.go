package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pickclub/platform/internal/domain"
)

const boardColumns = `id, game_id, member_id, purchase_id, numbers, tier, settled_at, created_at`

type boardRepo struct{}

// NewBoardRepository returns a pgx-backed BoardRepository.
func NewBoardRepository() BoardRepository {
	return &boardRepo{}
}

func (r *boardRepo) InsertBatch(ctx context.Context, db DBTX, boards []domain.Board) error {
	for i := range boards {
		b := &boards[i]
		_, err := db.Exec(ctx, `
			INSERT INTO boards (id, game_id, member_id, purchase_id, numbers, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			b.ID, b.GameID, b.MemberID, b.PurchaseID, b.Numbers, b.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert board %d: %w", i, err)
		}
	}
	return nil
}

func (r *boardRepo) ListByGame(ctx context.Context, db DBTX, gameID uuid.UUID) ([]domain.Board, error) {
	rows, err := db.Query(ctx, `
		SELECT `+boardColumns+`
		FROM boards
		WHERE game_id = $1
		ORDER BY created_at ASC, id ASC`, gameID)
	if err != nil {
		return nil, fmt.Errorf("query game boards: %w", err)
	}
	defer rows.Close()

	var boards []domain.Board
	for rows.Next() {
		b, err := scanBoardFromRows(rows)
		if err != nil {
			return nil, err
		}
		boards = append(boards, *b)
	}
	return boards, rows.Err()
}

func (r *boardRepo) MarkSettled(ctx context.Context, db DBTX, boardID uuid.UUID, tier int, at time.Time) error {
	tag, err := db.Exec(ctx, `
		UPDATE boards SET tier = $1, settled_at = $2
		WHERE id = $3 AND settled_at IS NULL`, tier, at, boardID)
	if err != nil {
		return fmt.Errorf("mark board settled: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("board %s already settled or missing", boardID)
	}
	return nil
}

func (r *boardRepo) CountByGame(ctx context.Context, db DBTX, gameID uuid.UUID) (int64, error) {
	var n int64
	err := db.QueryRow(ctx, `SELECT COUNT(*) FROM boards WHERE game_id = $1`, gameID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count game boards: %w", err)
	}
	return n, nil
}

func scanBoardFromRows(rows pgx.Rows) (*domain.Board, error) {
	var b domain.Board
	err := rows.Scan(&b.ID, &b.GameID, &b.MemberID, &b.PurchaseID, &b.Numbers, &b.Tier, &b.SettledAt, &b.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan board row: %w", err)
	}
	return &b, nil
}
