package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/snookercounter/internal/api/apierr"
	"github.com/mcoot/snookercounter/internal/api/middleware"
	"github.com/mcoot/snookercounter/internal/api/request"
	"github.com/mcoot/snookercounter/internal/api/response"
	"github.com/mcoot/snookercounter/internal/model"
	"github.com/mcoot/snookercounter/internal/services/match"
)

// MatchHandler handles match and scoring endpoints
type MatchHandler struct {
	controller *match.Controller
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(controller *match.Controller) *MatchHandler {
	return &MatchHandler{
		controller: controller,
	}
}

// Create handles POST /api/v1/matches
func (h *MatchHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	var req request.CreateMatchRequest
	if !decode(w, r, &req) {
		return
	}

	m, err := h.controller.CreateMatch(r.Context(), user.ID, req.Players, model.FoulPolicy(req.FoulPolicy))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.MatchFromModel(m))
}

// List handles GET /api/v1/matches
func (h *MatchHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	matches, err := h.controller.ListMatches(r.Context(), user.ID)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MatchListFromModels(matches))
}

// Get handles GET /api/v1/matches/{id}
func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	m, err := h.controller.GetMatch(r.Context(), user.ID, matchID(r))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MatchFromModel(m))
}

// GetByNumber handles GET /api/v1/matches/by-number/{number}
func (h *MatchHandler) GetByNumber(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	number, err := strconv.Atoi(mux.Vars(r)["number"])
	if err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("match number must be numeric"))
		return
	}

	m, err := h.controller.GetMatchByNumber(r.Context(), user.ID, number)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MatchFromModel(m))
}

// Delete handles DELETE /api/v1/matches/{id}
func (h *MatchHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	if err := h.controller.DeleteMatch(r.Context(), user.ID, matchID(r)); err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// Pot handles POST /api/v1/matches/{id}/pot
func (h *MatchHandler) Pot(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	var req request.PotRequest
	if !decode(w, r, &req) {
		return
	}

	var (
		m   *model.Match
		err error
	)
	switch {
	case req.Points != nil && req.Ball != "":
		apierr.WriteError(w, apierr.NewInvalidRequestError("send either points or ball, not both"))
		return
	case req.Points != nil:
		m, err = h.controller.Pot(r.Context(), user.ID, matchID(r), *req.Points)
	case req.Ball != "":
		m, err = h.controller.PotBall(r.Context(), user.ID, matchID(r), req.Ball)
	default:
		apierr.WriteError(w, apierr.NewInvalidRequestError("points or ball is required"))
		return
	}

	h.respond(w, m, err)
}

// Foul handles POST /api/v1/matches/{id}/foul
func (h *MatchHandler) Foul(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	var req request.FoulRequest
	if !decode(w, r, &req) {
		return
	}

	var penalty int
	switch {
	case req.Penalty != nil && req.Ball != "":
		apierr.WriteError(w, apierr.NewInvalidRequestError("send either penalty or ball, not both"))
		return
	case req.Penalty != nil:
		// Scorers often type the magnitude; the engine wants it negative
		penalty = -abs(*req.Penalty)
	case req.Ball != "":
		p, err := model.FoulPenalty(req.Ball)
		if err != nil {
			apierr.WriteError(w, err)
			return
		}
		penalty = p
	default:
		apierr.WriteError(w, apierr.NewInvalidRequestError("penalty or ball is required"))
		return
	}

	m, err := h.controller.Foul(r.Context(), user.ID, matchID(r), penalty)
	h.respond(w, m, err)
}

// EndTurn handles POST /api/v1/matches/{id}/end-turn
func (h *MatchHandler) EndTurn(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	m, err := h.controller.EndTurn(r.Context(), user.ID, matchID(r))
	h.respond(w, m, err)
}

// AddPlayer handles POST /api/v1/matches/{id}/players
func (h *MatchHandler) AddPlayer(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	var req request.PlayerRequest
	if !decode(w, r, &req) {
		return
	}

	m, err := h.controller.AddPlayer(r.Context(), user.ID, matchID(r), req.Name)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, response.MatchFromModel(m))
}

// RenamePlayer handles PATCH /api/v1/matches/{id}/players/{player_id}
func (h *MatchHandler) RenamePlayer(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	var req request.PlayerRequest
	if !decode(w, r, &req) {
		return
	}

	m, err := h.controller.RenamePlayer(r.Context(), user.ID, matchID(r), playerID(r), req.Name)
	h.respond(w, m, err)
}

// RemovePlayer handles DELETE /api/v1/matches/{id}/players/{player_id}
func (h *MatchHandler) RemovePlayer(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	m, err := h.controller.RemovePlayer(r.Context(), user.ID, matchID(r), playerID(r))
	h.respond(w, m, err)
}

// ResetFrame handles POST /api/v1/matches/{id}/reset-frame
func (h *MatchHandler) ResetFrame(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	m, err := h.controller.ResetFrame(r.Context(), user.ID, matchID(r))
	h.respond(w, m, err)
}

// NextFrame handles POST /api/v1/matches/{id}/next-frame
func (h *MatchHandler) NextFrame(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	m, err := h.controller.AdvanceFrame(r.Context(), user.ID, matchID(r))
	h.respond(w, m, err)
}

// Reset handles POST /api/v1/matches/{id}/reset
func (h *MatchHandler) Reset(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	m, err := h.controller.ResetMatch(r.Context(), user.ID, matchID(r))
	h.respond(w, m, err)
}

// History handles GET /api/v1/matches/{id}/history
func (h *MatchHandler) History(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	id := matchID(r)

	summaries, err := h.controller.FrameHistory(r.Context(), user.ID, id)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.FrameHistoryFromModels(id, summaries))
}

func (h *MatchHandler) respond(w http.ResponseWriter, m *model.Match, err error) {
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.MatchFromModel(m))
}

func matchID(r *http.Request) model.MatchID {
	return model.MatchID(mux.Vars(r)["id"])
}

func playerID(r *http.Request) model.PlayerID {
	return model.PlayerID(mux.Vars(r)["player_id"])
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
