package handler

import (
	"net/http"

	"planningpoker/internal/model"
	"planningpoker/internal/service"
	"planningpoker/internal/transport/rest/middleware"

	"go.uber.org/zap"
)

// PlayerHandler handles player endpoints
type PlayerHandler struct {
	playerSvc *service.PlayerService
	log       *zap.SugaredLogger
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(playerSvc *service.PlayerService, log *zap.SugaredLogger) *PlayerHandler {
	return &PlayerHandler{playerSvc: playerSvc, log: log}
}

// Register handles POST /v1/players
func (h *PlayerHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.playerSvc.Register(r.Context(), req.Name)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// Me handles GET /v1/players/me
func (h *PlayerHandler) Me(w http.ResponseWriter, r *http.Request) {
	player := middleware.GetPlayer(r.Context())
	if player == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, player)
}
