// Package service holds the operator-facing orchestration flows.
package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pickclub/platform/internal/clock"
	"github.com/pickclub/platform/internal/domain"
	"github.com/pickclub/platform/internal/ledger"
	"github.com/pickclub/platform/internal/repository"
)

// AdminService handles member provisioning, credit grants and game setup.
type AdminService struct {
	pool    *pgxpool.Pool
	engine  *ledger.Engine
	members repository.MemberRepository
	games   repository.GameRepository
	outbox  repository.OutboxRepository
	clock   clock.Clock
	logger  *slog.Logger
}

// NewAdminService creates an AdminService.
func NewAdminService(
	pool *pgxpool.Pool,
	engine *ledger.Engine,
	members repository.MemberRepository,
	games repository.GameRepository,
	outbox repository.OutboxRepository,
	clk clock.Clock,
	logger *slog.Logger,
) *AdminService {
	return &AdminService{
		pool:    pool,
		engine:  engine,
		members: members,
		games:   games,
		outbox:  outbox,
		clock:   clk,
		logger:  logger,
	}
}

// CreateMember provisions a member with a zero balance.
func (s *AdminService) CreateMember(ctx context.Context, currency string) (*domain.Member, error) {
	if currency == "" {
		currency = "EUR"
	}

	now := s.clock.Now()
	member := &domain.Member{
		ID:        uuid.New(),
		Balance:   0,
		Currency:  currency,
		CreatedAt: now,
		UpdatedAt: now,
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	if err := s.members.Create(ctx, tx, member); err != nil {
		return nil, domain.ErrInternal("create member", err)
	}
	if err := s.outbox.Insert(ctx, tx, domain.NewMemberCreatedEvent(member)); err != nil {
		return nil, domain.ErrInternal("insert outbox event", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	s.logger.Info("member created", "member_id", member.ID, "currency", currency)
	return member, nil
}

// CreditInput is an admin credit grant.
type CreditInput struct {
	Amount    int64  `json:"amount"`
	RequestID string `json:"request_id"`
	Reason    string `json:"reason"`
}

// CreditMember grants credits to a member's ledger. RequestID makes retries
// idempotent.
func (s *AdminService) CreditMember(ctx context.Context, memberID uuid.UUID, input CreditInput) (*domain.CommandResult, error) {
	meta, _ := json.Marshal(map[string]string{"reason": input.Reason})

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	result, err := s.engine.ExecuteCredit(ctx, tx, domain.CreditParams{
		MemberID:              memberID,
		Amount:                input.Amount,
		Type:                  domain.TxAdminCredit,
		ExternalTransactionID: input.RequestID,
		Metadata:              meta,
		OccurredAt:            s.clock.Now(),
	})
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, domain.ErrInternal("commit tx", err)
	}

	s.logger.Info("member credited",
		"member_id", memberID, "amount", input.Amount, "idempotent", result.Idempotent)
	return result, nil
}

// CreateGame validates and persists a new game in the open state.
func (s *AdminService) CreateGame(ctx context.Context, game *domain.Game) (*domain.Game, error) {
	game.ID = uuid.New()
	game.Status = domain.GameOpen
	game.CreatedAt = s.clock.Now()

	if err := game.Validate(); err != nil {
		return nil, err
	}
	if err := s.games.Create(ctx, s.pool, game); err != nil {
		return nil, domain.ErrInternal("create game", err)
	}

	s.logger.Info("game created", "game_id", game.ID, "name", game.Name, "closes_at", game.ClosesAt)
	return game, nil
}
