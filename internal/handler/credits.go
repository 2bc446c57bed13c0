package handler

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/pickclub/platform/internal/auth"
	"github.com/pickclub/platform/internal/domain"
	"github.com/pickclub/platform/internal/history"
	"github.com/pickclub/platform/internal/repository"
)

// CreditsHandler handles member balance and transaction history endpoints.
type CreditsHandler struct {
	members repository.MemberRepository
	db      repository.DBTX
}

// NewCreditsHandler creates a CreditsHandler.
func NewCreditsHandler(members repository.MemberRepository, db repository.DBTX) *CreditsHandler {
	return &CreditsHandler{members: members, db: db}
}

// balanceResponse is the shape of GET /credits/balance.
type balanceResponse struct {
	Balance  int64  `json:"balance"`
	Currency string `json:"currency"`
}

// GetBalance handles GET /credits/balance.
func (h *CreditsHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	memberID, err := memberIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	member, err := h.members.FindByID(r.Context(), h.db, memberID)
	if err != nil {
		RespondError(w, domain.ErrInternal("find member", err))
		return
	}
	if member == nil {
		RespondError(w, domain.ErrNotFound("member", memberID.String()))
		return
	}

	RespondJSON(w, http.StatusOK, balanceResponse{
		Balance:  member.Balance,
		Currency: member.Currency,
	})
}

// GetTransactions handles GET /credits/transactions with paged history.
func (h *CreditsHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	memberID, err := memberIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	req, rng, err := historyRequestFromQuery(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	page, err := history.Query(r.Context(), repository.NewTransactionHistory(h.db, memberID, rng), req)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, page)
}

// GetBalanceHistory handles GET /credits/balance/history: the member's
// balance after each ledger entry, newest first by default.
func (h *CreditsHandler) GetBalanceHistory(w http.ResponseWriter, r *http.Request) {
	memberID, err := memberIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	req, rng, err := historyRequestFromQuery(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	page, err := history.Query(r.Context(), repository.NewBalanceHistory(h.db, memberID, rng), req)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, page)
}

// historyRequestFromQuery parses the shared paging and time-window query
// parameters.
func historyRequestFromQuery(r *http.Request) (history.Request, domain.TimeRange, error) {
	var req history.Request

	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, domain.TimeRange{}, domain.ErrValidation("page must be an integer")
		}
		req.Page = n
	}
	if v := r.URL.Query().Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, domain.TimeRange{}, domain.ErrValidation("page_size must be an integer")
		}
		req.PageSize = n
	}
	req.SortField = r.URL.Query().Get("sort")

	order, err := domain.ParseSortOrder(r.URL.Query().Get("order"))
	if err != nil {
		return req, domain.TimeRange{}, err
	}
	req.SortOrder = order

	rng, err := domain.ParseTimeRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		return req, domain.TimeRange{}, err
	}
	return req, rng, nil
}

// memberIDFromContext extracts and validates the member UUID from auth context.
func memberIDFromContext(r *http.Request) (uuid.UUID, error) {
	sub := auth.SubjectFromContext(r.Context())
	if sub == "" {
		return uuid.Nil, domain.ErrUnauthorized("no subject in context")
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, domain.ErrUnauthorized("invalid subject")
	}
	return id, nil
}
