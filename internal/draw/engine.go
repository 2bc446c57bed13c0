// Package draw handles winning sequence publication and game settlement.
package draw

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pickclub/platform/internal/clock"
	"github.com/pickclub/platform/internal/domain"
	"github.com/pickclub/platform/internal/ledger"
	"github.com/pickclub/platform/internal/repository"
)

// Engine owns the draw lifecycle: publish the winning sequence once, then
// settle every board against it.
type Engine struct {
	pool      *pgxpool.Pool
	ledger    *ledger.Engine
	games     repository.GameRepository
	boards    repository.BoardRepository
	sequences repository.SequenceRepository
	outbox    repository.OutboxRepository
	source    DrawSource
	clock     clock.Clock
	logger    *slog.Logger
}

// NewEngine creates a draw engine.
func NewEngine(
	pool *pgxpool.Pool,
	ledgerEngine *ledger.Engine,
	games repository.GameRepository,
	boards repository.BoardRepository,
	sequences repository.SequenceRepository,
	outbox repository.OutboxRepository,
	source DrawSource,
	clk clock.Clock,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		pool:      pool,
		ledger:    ledgerEngine,
		games:     games,
		boards:    boards,
		sequences: sequences,
		outbox:    outbox,
		source:    source,
		clock:     clk,
		logger:    logger,
	}
}

// Publish records the winning sequence for a closed game. Write-once: the
// sequence table's primary key is the game id, so a second publish fails no
// matter how the attempts interleave.
func (e *Engine) Publish(ctx context.Context, gameID uuid.UUID, numbers []int32) (*domain.WinningSequence, error) {
	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	game, err := e.games.LockForUpdate(ctx, tx, gameID)
	if err != nil {
		return nil, domain.ErrInternal("lock game", err)
	}
	if game == nil {
		return nil, domain.ErrNotFound("game", gameID.String())
	}

	now := e.clock.Now()
	if !game.ClosedAt(now) {
		return nil, domain.ErrGameStillOpen(gameID.String())
	}
	if err := domain.ValidateWinningNumbers(game, numbers); err != nil {
		return nil, err
	}

	existing, err := e.sequences.FindByGame(ctx, tx, gameID)
	if err != nil {
		return nil, domain.ErrInternal("check existing sequence", err)
	}
	if existing != nil {
		return nil, domain.ErrAlreadyPublished(gameID.String())
	}

	seq := &domain.WinningSequence{
		GameID:      gameID,
		Numbers:     numbers,
		PublishedAt: now,
	}
	if err := e.sequences.Insert(ctx, tx, seq); err != nil {
		// A concurrent publish can slip between the check and the insert.
		// The primary key catches it.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyPublished(gameID.String())
		}
		return nil, domain.ErrInternal("insert sequence", err)
	}

	if game.Status == domain.GameOpen {
		if err := e.games.UpdateStatus(ctx, tx, gameID, domain.GameClosed, nil); err != nil {
			return nil, domain.ErrInternal("close game", err)
		}
	}

	if err := e.outbox.Insert(ctx, tx, domain.NewSequencePublishedEvent(seq)); err != nil {
		return nil, domain.ErrInternal("insert outbox event", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	e.logger.Info("winning sequence published", "game_id", gameID, "numbers", numbers)
	return seq, nil
}

// Sequence returns the published sequence for a game, nil when none exists.
func (e *Engine) Sequence(ctx context.Context, gameID uuid.UUID) (*domain.WinningSequence, error) {
	seq, err := e.sequences.FindByGame(ctx, e.pool, gameID)
	if err != nil {
		return nil, domain.ErrInternal("load sequence", err)
	}
	return seq, nil
}
