package draw

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pickclub/platform/internal/domain"
)

// SettleResult summarizes a settlement run.
type SettleResult struct {
	GameID       uuid.UUID `json:"game_id"`
	BoardsScored int       `json:"boards_scored"`
	Winners      int       `json:"winners"`
	TotalPaid    int64     `json:"total_paid"`
}

// Settle scores every board of a published game and pays out prizes. Each
// board settles in its own transaction with an idempotent payout key, so a
// crashed run can simply be restarted: already-settled boards are skipped
// and a replayed payout returns the original entry.
func (e *Engine) Settle(ctx context.Context, gameID uuid.UUID) (*SettleResult, error) {
	game, err := e.games.FindByID(ctx, e.pool, gameID)
	if err != nil {
		return nil, domain.ErrInternal("load game", err)
	}
	if game == nil {
		return nil, domain.ErrNotFound("game", gameID.String())
	}
	if game.Status == domain.GameSettled {
		return nil, domain.ErrConflict(fmt.Sprintf("game %s already settled", gameID))
	}

	seq, err := e.sequences.FindByGame(ctx, e.pool, gameID)
	if err != nil {
		return nil, domain.ErrInternal("load sequence", err)
	}
	if seq == nil {
		return nil, domain.ErrConflict(fmt.Sprintf("game %s has no published sequence", gameID))
	}

	boards, err := e.boards.ListByGame(ctx, e.pool, gameID)
	if err != nil {
		return nil, domain.ErrInternal("list boards", err)
	}

	result := &SettleResult{GameID: gameID}
	for i := range boards {
		board := &boards[i]
		if board.SettledAt != nil {
			continue
		}
		score := ScoreBoard(game, board, seq.Numbers)
		if err := e.settleBoard(ctx, game, board, score); err != nil {
			return nil, fmt.Errorf("settle board %s: %w", board.ID, err)
		}
		result.BoardsScored++
		if score.Prize > 0 {
			result.Winners++
			result.TotalPaid += score.Prize
		}
	}

	now := e.clock.Now()
	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	if err := e.games.UpdateStatus(ctx, tx, gameID, domain.GameSettled, &now); err != nil {
		return nil, domain.ErrInternal("mark game settled", err)
	}

	game.Status = domain.GameSettled
	game.SettledAt = &now
	event := domain.NewGameSettledEvent(game, result.BoardsScored, result.Winners)
	if err := e.outbox.Insert(ctx, tx, event); err != nil {
		return nil, domain.ErrInternal("insert outbox event", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	e.logger.Info("game settled",
		"game_id", gameID, "boards", result.BoardsScored,
		"winners", result.Winners, "total_paid", result.TotalPaid)
	return result, nil
}

func (e *Engine) settleBoard(ctx context.Context, game *domain.Game, board *domain.Board, score Score) error {
	return pgx.BeginTxFunc(ctx, e.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		now := e.clock.Now()

		if score.Prize > 0 {
			meta, _ := json.Marshal(map[string]interface{}{
				"board_id": board.ID,
				"matches":  score.Matches,
				"tier":     score.Tier,
			})
			_, err := e.ledger.ExecuteCredit(ctx, tx, domain.CreditParams{
				MemberID: board.MemberID,
				Amount:   score.Prize,
				Type:     domain.TxPrizePayout,
				// One payout per board, ever.
				ExternalTransactionID: "settle_" + board.ID.String(),
				GameID:                &game.ID,
				PurchaseID:            &board.PurchaseID,
				Metadata:              meta,
				OccurredAt:            now,
			})
			if err != nil {
				return err
			}
		}

		return e.boards.MarkSettled(ctx, tx, board.ID, score.Tier, now)
	})
}
