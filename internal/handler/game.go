package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pickclub/platform/internal/domain"
	"github.com/pickclub/platform/internal/history"
	"github.com/pickclub/platform/internal/repository"
)

// GameHandler handles game and board history endpoints.
type GameHandler struct {
	games     repository.GameRepository
	boards    repository.BoardRepository
	sequences repository.SequenceRepository
	db        repository.DBTX
}

// NewGameHandler creates a GameHandler.
func NewGameHandler(games repository.GameRepository, boards repository.BoardRepository, sequences repository.SequenceRepository, db repository.DBTX) *GameHandler {
	return &GameHandler{games: games, boards: boards, sequences: sequences, db: db}
}

// ListGames handles GET /games: paged game results with published sequences
// and sales counts.
func (h *GameHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	req, rng, err := historyRequestFromQuery(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	page, err := history.Query(r.Context(), repository.NewGameHistory(h.db, rng), req)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, page)
}

// GetGame handles GET /games/{gameID}.
func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := uuid.Parse(chi.URLParam(r, "gameID"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid game id"))
		return
	}

	game, err := h.games.FindByID(r.Context(), h.db, gameID)
	if err != nil {
		RespondError(w, domain.ErrInternal("find game", err))
		return
	}
	if game == nil {
		RespondError(w, domain.ErrNotFound("game", gameID.String()))
		return
	}

	sequence, err := h.sequences.FindByGame(r.Context(), h.db, gameID)
	if err != nil {
		RespondError(w, domain.ErrInternal("find winning sequence", err))
		return
	}
	sold, err := h.boards.CountByGame(r.Context(), h.db, gameID)
	if err != nil {
		RespondError(w, domain.ErrInternal("count boards", err))
		return
	}

	RespondJSON(w, http.StatusOK, domain.GameResult{
		Game:       *game,
		Sequence:   sequence,
		BoardsSold: sold,
	})
}

// ListBoards handles GET /boards: the calling member's board history, scored
// against published sequences. An optional game_id query narrows to one game.
func (h *GameHandler) ListBoards(w http.ResponseWriter, r *http.Request) {
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

	var gameID *uuid.UUID
	if v := r.URL.Query().Get("game_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			RespondError(w, domain.ErrValidation("invalid game_id"))
			return
		}
		gameID = &id
	}

	page, err := history.Query(r.Context(), repository.NewBoardHistory(h.db, memberID, gameID, rng), req)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, page)
}
