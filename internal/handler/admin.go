package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pickclub/platform/internal/domain"
	"github.com/pickclub/platform/internal/draw"
	"github.com/pickclub/platform/internal/ledger"
	"github.com/pickclub/platform/internal/service"
)

// AdminHandler handles the operator endpoints: member provisioning, credit
// grants, game setup, sequence publication, settlement and ledger audits.
type AdminHandler struct {
	admin      *service.AdminService
	draw       *draw.Engine
	reconciler *ledger.Reconciler
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(admin *service.AdminService, drawEngine *draw.Engine, reconciler *ledger.Reconciler) *AdminHandler {
	return &AdminHandler{admin: admin, draw: drawEngine, reconciler: reconciler}
}

type createMemberRequest struct {
	Currency string `json:"currency"`
}

// CreateMember handles POST /admin/members.
func (h *AdminHandler) CreateMember(w http.ResponseWriter, r *http.Request) {
	var req createMemberRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	member, err := h.admin.CreateMember(r.Context(), req.Currency)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, member)
}

// CreditMember handles POST /admin/members/{memberID}/credit.
func (h *AdminHandler) CreditMember(w http.ResponseWriter, r *http.Request) {
	memberID, err := uuid.Parse(chi.URLParam(r, "memberID"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid member id"))
		return
	}

	var input service.CreditInput
	if err := DecodeJSON(r, &input); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	result, err := h.admin.CreditMember(r.Context(), memberID, input)
	if err != nil {
		RespondError(w, err)
		return
	}

	status := http.StatusCreated
	if result.Idempotent {
		status = http.StatusOK
	}
	RespondJSON(w, status, map[string]interface{}{
		"transaction": result.Transaction,
		"balance":     result.Member.Balance,
	})
}

type createGameRequest struct {
	Name            string            `json:"name"`
	OpensAt         time.Time         `json:"opens_at"`
	ClosesAt        time.Time         `json:"closes_at"`
	CostPerBoard    int64             `json:"cost_per_board"`
	NumbersPerBoard int               `json:"numbers_per_board"`
	MaxNumber       int               `json:"max_number"`
	Tiers           domain.TierTable  `json:"tiers"`
	Prizes          domain.PrizeTable `json:"prizes"`
}

// CreateGame handles POST /admin/games.
func (h *AdminHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	game, err := h.admin.CreateGame(r.Context(), &domain.Game{
		Name:            req.Name,
		OpensAt:         req.OpensAt,
		ClosesAt:        req.ClosesAt,
		CostPerBoard:    req.CostPerBoard,
		NumbersPerBoard: req.NumbersPerBoard,
		MaxNumber:       req.MaxNumber,
		Tiers:           req.Tiers,
		Prizes:          req.Prizes,
	})
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, game)
}

type publishRequest struct {
	Numbers []int32 `json:"numbers"`
}

// PublishSequence handles POST /admin/games/{gameID}/publish.
func (h *AdminHandler) PublishSequence(w http.ResponseWriter, r *http.Request) {
	gameID, err := uuid.Parse(chi.URLParam(r, "gameID"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid game id"))
		return
	}

	var req publishRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	seq, err := h.draw.Publish(r.Context(), gameID, req.Numbers)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, seq)
}

// DrawSequence handles POST /admin/games/{gameID}/draw: generate winning
// numbers from the configured draw source and publish them in one step.
func (h *AdminHandler) DrawSequence(w http.ResponseWriter, r *http.Request) {
	gameID, err := uuid.Parse(chi.URLParam(r, "gameID"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid game id"))
		return
	}

	seq, err := h.draw.Draw(r.Context(), gameID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, seq)
}

// SettleGame handles POST /admin/games/{gameID}/settle.
func (h *AdminHandler) SettleGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := uuid.Parse(chi.URLParam(r, "gameID"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid game id"))
		return
	}

	result, err := h.draw.Settle(r.Context(), gameID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, result)
}

// ReconcileMember handles GET /admin/members/{memberID}/reconcile: audit a
// member's cached balance against the full ledger.
func (h *AdminHandler) ReconcileMember(w http.ResponseWriter, r *http.Request) {
	memberID, err := uuid.Parse(chi.URLParam(r, "memberID"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid member id"))
		return
	}

	result, err := h.reconciler.Reconcile(r.Context(), memberID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, result)
}
