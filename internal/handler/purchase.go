package handler

import (
	"net/http"

	"github.com/pickclub/platform/internal/domain"
	"github.com/pickclub/platform/internal/guard"
	"github.com/pickclub/platform/internal/purchase"
)

// PurchaseHandler handles board purchase endpoints.
type PurchaseHandler struct {
	service *purchase.Service
	limiter *guard.RateLimiter
}

// NewPurchaseHandler creates a PurchaseHandler.
func NewPurchaseHandler(service *purchase.Service, limiter *guard.RateLimiter) *PurchaseHandler {
	return &PurchaseHandler{service: service, limiter: limiter}
}

// Create handles POST /purchases.
func (h *PurchaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	memberID, err := memberIDFromContext(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	if res := h.limiter.Check(r.Context(), memberID.String()); !res.Allowed {
		RespondError(w, domain.ErrRateLimited(res.RetryAfter))
		return
	}

	var input purchase.Input
	if err := DecodeJSON(r, &input); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	result, err := h.service.Process(r.Context(), memberID, input)
	if err != nil {
		RespondError(w, err)
		return
	}

	status := http.StatusCreated
	if result.Idempotent {
		status = http.StatusOK
	}
	RespondJSON(w, status, result)
}
