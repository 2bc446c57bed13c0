package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pickclub/platform/internal/domain"
	"github.com/pickclub/platform/internal/infra"
)

const gameColumns = `id, name, opens_at, closes_at, cost_per_board,
	numbers_per_board, max_number, tiers, prizes, status, settled_at, created_at`

type gameRepo struct{}

// NewGameRepository returns a pgx-backed GameRepository.
func NewGameRepository() GameRepository {
	return &gameRepo{}
}

func (r *gameRepo) Create(ctx context.Context, db DBTX, game *domain.Game) error {
	tiers, err := json.Marshal(game.Tiers)
	if err != nil {
		return fmt.Errorf("marshal tiers: %w", err)
	}
	prizes, err := json.Marshal(game.Prizes)
	if err != nil {
		return fmt.Errorf("marshal prizes: %w", err)
	}

	_, err = db.Exec(ctx, `
		INSERT INTO games
		  (id, name, opens_at, closes_at, cost_per_board, numbers_per_board, max_number,
		   tiers, prizes, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		game.ID,
		game.Name,
		game.OpensAt,
		game.ClosesAt,
		infra.CreditsToNumeric(game.CostPerBoard),
		game.NumbersPerBoard,
		game.MaxNumber,
		tiers,
		prizes,
		string(game.Status),
		game.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	return nil
}

func (r *gameRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Game, error) {
	row := db.QueryRow(ctx, `
		SELECT `+gameColumns+`
		FROM games WHERE id = $1`, id)
	return scanGame(row)
}

func (r *gameRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Game, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+gameColumns+`
		FROM games WHERE id = $1 FOR UPDATE`, id)
	return scanGame(row)
}

func (r *gameRepo) UpdateStatus(ctx context.Context, db DBTX, id uuid.UUID, status domain.GameStatus, settledAt *time.Time) error {
	tag, err := db.Exec(ctx, `
		UPDATE games SET status = $1, settled_at = COALESCE($2, settled_at)
		WHERE id = $3`, string(status), settledAt, id)
	if err != nil {
		return fmt.Errorf("update game status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update game status: game %s not found", id)
	}
	return nil
}

func scanGame(row pgx.Row) (*domain.Game, error) {
	var g domain.Game
	var costNum pgtype.Numeric
	var tiers, prizes []byte
	err := row.Scan(
		&g.ID, &g.Name, &g.OpensAt, &g.ClosesAt, &costNum,
		&g.NumbersPerBoard, &g.MaxNumber, &tiers, &prizes,
		&g.Status, &g.SettledAt, &g.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan game: %w", err)
	}

	if g.CostPerBoard, err = infra.CreditsFromNumeric(costNum); err != nil {
		return nil, fmt.Errorf("convert cost_per_board: %w", err)
	}
	if err := unmarshalGameConfig(tiers, prizes, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func unmarshalGameConfig(tiers, prizes []byte, g *domain.Game) error {
	if err := json.Unmarshal(tiers, &g.Tiers); err != nil {
		return fmt.Errorf("unmarshal tiers: %w", err)
	}
	if err := json.Unmarshal(prizes, &g.Prizes); err != nil {
		return fmt.Errorf("unmarshal prizes: %w", err)
	}
	return nil
}
