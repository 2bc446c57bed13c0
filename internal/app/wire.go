package app

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pickclub/platform/internal/auth"
	"github.com/pickclub/platform/internal/clock"
	"github.com/pickclub/platform/internal/draw"
	"github.com/pickclub/platform/internal/guard"
	"github.com/pickclub/platform/internal/handler"
	"github.com/pickclub/platform/internal/infra"
	"github.com/pickclub/platform/internal/ledger"
	"github.com/pickclub/platform/internal/notify"
	"github.com/pickclub/platform/internal/purchase"
	"github.com/pickclub/platform/internal/repository"
	"github.com/pickclub/platform/internal/service"
)

// RouterDeps holds all dependencies needed by NewRouter.
type RouterDeps struct {
	Pool     *pgxpool.Pool
	Config   *infra.Config
	JWTMgr   *auth.JWTManager
	Producer *infra.KafkaProducer
	Clock    clock.Clock
	Logger   *slog.Logger
}

// NewRouter assembles the chi.Router with all routes and middleware.
func NewRouter(deps RouterDeps) chi.Router {
	pool := deps.Pool
	cfg := deps.Config
	jwtMgr := deps.JWTMgr
	clk := deps.Clock
	logger := deps.Logger

	// Repositories
	memberRepo := repository.NewMemberRepository()
	txRepo := repository.NewTransactionRepository()
	gameRepo := repository.NewGameRepository()
	boardRepo := repository.NewBoardRepository()
	purchaseRepo := repository.NewPurchaseRepository()
	sequenceRepo := repository.NewSequenceRepository()
	outboxRepo := repository.NewOutboxRepository()

	// Ledger engine
	ledgerEngine := ledger.NewEngine(memberRepo, txRepo, outboxRepo)

	// Notifications ride on Kafka when it is enabled.
	var notifier notify.Notifier = notify.Noop{}
	if cfg.KafkaEnabled {
		notifier = notify.NewKafkaNotifier(deps.Producer, logger)
	}

	// Services
	purchaseSvc := purchase.NewService(
		pool, ledgerEngine, gameRepo, boardRepo, purchaseRepo,
		clk, notifier, logger,
		cfg.LowBalanceThreshold, cfg.PurchaseMaxRetries,
	)
	drawSource := draw.NewRandomOrgSource(cfg.RandomOrgAPIKey, logger)
	drawEngine := draw.NewEngine(
		pool, ledgerEngine, gameRepo, boardRepo, sequenceRepo, outboxRepo,
		drawSource, clk, logger,
	)
	adminSvc := service.NewAdminService(pool, ledgerEngine, memberRepo, gameRepo, outboxRepo, clk, logger)
	reconciler := ledger.NewReconciler(ledgerEngine, pool, txRepo)

	// Guards
	purchaseLimiter := guard.NewRateLimiter(cfg.PurchaseRateLimit, cfg.PurchaseRateWindow, clk)

	// Handlers
	creditsHandler := handler.NewCreditsHandler(memberRepo, pool)
	purchaseHandler := handler.NewPurchaseHandler(purchaseSvc, purchaseLimiter)
	gameHandler := handler.NewGameHandler(gameRepo, boardRepo, sequenceRepo, pool)
	adminHandler := handler.NewAdminHandler(adminSvc, drawEngine, reconciler)

	// Router
	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.CORS)
	r.Use(handler.JSONContentType)

	// Health (no auth)
	r.Get("/health", handler.HealthHandler(pool))

	// Member-authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(auth.AuthenticateMember(jwtMgr))

		r.Route("/credits", func(r chi.Router) {
			r.Get("/balance", creditsHandler.GetBalance)
			r.Get("/balance/history", creditsHandler.GetBalanceHistory)
			r.Get("/transactions", creditsHandler.GetTransactions)
		})

		r.Post("/purchases", purchaseHandler.Create)
		r.Get("/boards", gameHandler.ListBoards)

		r.Route("/games", func(r chi.Router) {
			r.Get("/", gameHandler.ListGames)
			r.Get("/{gameID}", gameHandler.GetGame)
		})
	})

	// Admin-authenticated routes
	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.AuthenticateAdmin(jwtMgr))

		r.Route("/members", func(r chi.Router) {
			r.Post("/", adminHandler.CreateMember)
			r.Post("/{memberID}/credit", adminHandler.CreditMember)
			r.Get("/{memberID}/reconcile", adminHandler.ReconcileMember)
		})

		r.Route("/games", func(r chi.Router) {
			r.Post("/", adminHandler.CreateGame)
			r.Post("/{gameID}/publish", adminHandler.PublishSequence)
			r.Post("/{gameID}/draw", adminHandler.DrawSequence)
			r.Post("/{gameID}/settle", adminHandler.SettleGame)
		})
	})

	return r
}
