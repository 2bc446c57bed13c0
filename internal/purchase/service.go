// Package purchase implements the atomic board purchase flow.
package purchase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pickclub/platform/internal/clock"
	"github.com/pickclub/platform/internal/domain"
	"github.com/pickclub/platform/internal/ledger"
	"github.com/pickclub/platform/internal/notify"
	"github.com/pickclub/platform/internal/repository"
)

// Service coordinates the purchase pipeline: validate, debit, persist the
// purchase and its boards, all in one database transaction.
type Service struct {
	pool      *pgxpool.Pool
	engine    *ledger.Engine
	games     repository.GameRepository
	boards    repository.BoardRepository
	purchases repository.PurchaseRepository
	clock     clock.Clock
	notifier  notify.Notifier
	logger    *slog.Logger

	lowBalanceThreshold int64
	maxRetries          int
}

// NewService creates a purchase service.
func NewService(
	pool *pgxpool.Pool,
	engine *ledger.Engine,
	games repository.GameRepository,
	boards repository.BoardRepository,
	purchases repository.PurchaseRepository,
	clk clock.Clock,
	notifier notify.Notifier,
	logger *slog.Logger,
	lowBalanceThreshold int64,
	maxRetries int,
) *Service {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Service{
		pool:                pool,
		engine:              engine,
		games:               games,
		boards:              boards,
		purchases:           purchases,
		clock:               clk,
		notifier:            notifier,
		logger:              logger,
		lowBalanceThreshold: lowBalanceThreshold,
		maxRetries:          maxRetries,
	}
}

// Input is one purchase request. RequestID deduplicates retries: the same
// member sending the same RequestID twice gets the original result back.
type Input struct {
	GameID     uuid.UUID   `json:"game_id"`
	Selections [][]int32   `json:"selections"`
	RequestID  string      `json:"request_id"`
}

// Result is the committed purchase outcome.
type Result struct {
	PurchaseID       uuid.UUID   `json:"purchase_id"`
	BoardIDs         []uuid.UUID `json:"board_ids"`
	TotalDebited     int64       `json:"total_debited"`
	RemainingBalance int64       `json:"remaining_balance"`
	Idempotent       bool        `json:"-"`
}

// Process buys one board per selection. Either the debit, the purchase row
// and every board commit together, or nothing does. Transient serialization
// failures are retried up to maxRetries before surfacing as a conflict.
func (s *Service) Process(ctx context.Context, memberID uuid.UUID, input Input) (*Result, error) {
	game, err := s.games.FindByID(ctx, s.pool, input.GameID)
	if err != nil {
		return nil, domain.ErrInternal("load game", err)
	}
	if game == nil {
		return nil, domain.ErrNotFound("game", input.GameID.String())
	}

	now := s.clock.Now()
	if !game.AcceptsPurchasesAt(now) || game.Status != domain.GameOpen {
		return nil, domain.ErrGameClosed(game.ID.String())
	}

	if err := domain.ValidateSelections(game, input.Selections); err != nil {
		return nil, err
	}

	total := game.CostPerBoard * int64(len(input.Selections))

	var result *Result
	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		result, lastErr = s.attempt(ctx, memberID, game, input, total)
		if lastErr == nil {
			break
		}
		if !isRetryable(lastErr) {
			return nil, lastErr
		}
		s.logger.Warn("purchase write conflict, retrying",
			"member_id", memberID, "game_id", game.ID, "attempt", attempt)
	}
	if lastErr != nil {
		return nil, domain.ErrConcurrencyConflict(lastErr)
	}

	if !result.Idempotent {
		s.notifier.PurchaseConfirmed(ctx, &domain.Purchase{
			ID:           result.PurchaseID,
			MemberID:     memberID,
			GameID:       game.ID,
			TotalDebited: result.TotalDebited,
		}, result.BoardIDs)
		if result.RemainingBalance < s.lowBalanceThreshold {
			s.notifier.LowBalance(ctx, memberID, result.RemainingBalance, s.lowBalanceThreshold)
		}
	}
	return result, nil
}

func (s *Service) attempt(ctx context.Context, memberID uuid.UUID, game *domain.Game, input Input, total int64) (*Result, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	now := s.clock.Now()
	// The purchase ID is minted before the debit so the ledger entry can
	// reference the purchase row inserted later in this same transaction.
	purchaseID := uuid.New()

	cmd, err := s.engine.ExecuteDebit(ctx, tx, domain.DebitParams{
		MemberID:              memberID,
		Amount:                total,
		Type:                  domain.TxBoardPurchase,
		ExternalTransactionID: input.RequestID,
		GameID:                &game.ID,
		PurchaseID:            &purchaseID,
		Metadata:              []byte(fmt.Sprintf(`{"board_count":%d}`, len(input.Selections))),
		OccurredAt:            now,
	})
	if err != nil {
		return nil, err
	}

	if cmd.Idempotent {
		return s.recover(ctx, tx, cmd)
	}

	purchase := &domain.Purchase{
		ID:            purchaseID,
		MemberID:      memberID,
		GameID:        game.ID,
		TotalDebited:  total,
		TransactionID: cmd.Transaction.ID,
		CreatedAt:     now,
	}
	if input.RequestID != "" {
		purchase.RequestID = &input.RequestID
	}
	if err := s.purchases.Insert(ctx, tx, purchase); err != nil {
		return nil, domain.ErrInternal("insert purchase", err)
	}

	boards := make([]domain.Board, len(input.Selections))
	boardIDs := make([]uuid.UUID, len(input.Selections))
	for i, numbers := range input.Selections {
		boards[i] = domain.Board{
			ID:         uuid.New(),
			GameID:     game.ID,
			MemberID:   memberID,
			PurchaseID: purchaseID,
			Numbers:    numbers,
			CreatedAt:  now,
		}
		boardIDs[i] = boards[i].ID
	}
	if err := s.boards.InsertBatch(ctx, tx, boards); err != nil {
		return nil, domain.ErrInternal("insert boards", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	return &Result{
		PurchaseID:       purchaseID,
		BoardIDs:         boardIDs,
		TotalDebited:     total,
		RemainingBalance: cmd.Member.Balance,
	}, nil
}

// recover rebuilds the original result for a duplicate request from the
// existing ledger entry.
func (s *Service) recover(ctx context.Context, db repository.DBTX, cmd *domain.CommandResult) (*Result, error) {
	original, err := s.purchases.FindByTransactionID(ctx, db, cmd.Transaction.ID)
	if err != nil {
		return nil, domain.ErrInternal("load original purchase", err)
	}
	if original == nil {
		return nil, domain.ErrConflict("duplicate request id used by a non-purchase transaction")
	}
	boardIDs, err := s.purchases.BoardIDs(ctx, db, original.ID)
	if err != nil {
		return nil, domain.ErrInternal("load original boards", err)
	}

	s.logger.Info("idempotent purchase replay",
		"member_id", original.MemberID, "purchase_id", original.ID)

	return &Result{
		PurchaseID:       original.ID,
		BoardIDs:         boardIDs,
		TotalDebited:     original.TotalDebited,
		RemainingBalance: cmd.Member.Balance,
		Idempotent:       true,
	}, nil
}

// isRetryable reports whether the error is a transient serialization or
// deadlock failure worth retrying in a fresh transaction.
func isRetryable(err error) bool {
	var appErr *domain.AppError
	if errors.As(err, &appErr) && appErr.Cause == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
