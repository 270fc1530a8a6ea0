package handler

import (
	"errors"
	"io"
	"net/http"

	"planningpoker/internal/model"
	"planningpoker/internal/service"
	"planningpoker/internal/transport/rest/middleware"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// RoomHandler handles room endpoints
type RoomHandler struct {
	roomSvc *service.RoomService
	log     *zap.SugaredLogger
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(roomSvc *service.RoomService, log *zap.SugaredLogger) *RoomHandler {
	return &RoomHandler{roomSvc: roomSvc, log: log}
}

// Create handles POST /v1/rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateRoomRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	roomID, err := h.roomSvc.CreateRoom(r.Context(), middleware.GetPlayer(r.Context()), req)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"roomId": roomID})
}

// Get handles GET /v1/rooms/{roomId}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]

	view, err := h.roomSvc.GetRoomView(r.Context(), roomID, middleware.GetPlayer(r.Context()))
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// Remove handles DELETE /v1/rooms/{roomId}
func (h *RoomHandler) Remove(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]

	outcome, err := h.roomSvc.RemoveRoom(r.Context(), middleware.GetPlayer(r.Context()), roomID)
	writeOutcome(w, h.log, outcome, err)
}

// AddParticipantRequest is the request body for seating a player.
// An empty PlayerID seats the caller.
type AddParticipantRequest struct {
	PlayerID string `json:"playerId"`
}

// AddParticipant handles POST /v1/rooms/{roomId}/participants
func (h *RoomHandler) AddParticipant(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]
	actor := middleware.GetPlayer(r.Context())

	var req AddParticipantRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PlayerID == "" {
		req.PlayerID = actor.PlayerID
	}

	outcome, err := h.roomSvc.AddParticipant(r.Context(), actor, roomID, req.PlayerID)
	writeOutcome(w, h.log, outcome, err)
}

// LockRequest is the request body for PUT /v1/rooms/{roomId}/lock
type LockRequest struct {
	IsLocked *bool `json:"isLocked"`
}

// Lock handles PUT /v1/rooms/{roomId}/lock
func (h *RoomHandler) Lock(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]

	var req LockRequest
	if err := decodeJSON(r, &req); err != nil || req.IsLocked == nil {
		writeError(w, http.StatusBadRequest, "isLocked is required")
		return
	}

	outcome, err := h.roomSvc.UpdateLock(r.Context(), middleware.GetPlayer(r.Context()), roomID, *req.IsLocked)
	writeOutcome(w, h.log, outcome, err)
}

// RevealRequest is the request body for PUT /v1/rooms/{roomId}/reveal
type RevealRequest struct {
	IsRevealed *bool `json:"isRevealed"`
}

// Reveal handles PUT /v1/rooms/{roomId}/reveal
func (h *RoomHandler) Reveal(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]

	var req RevealRequest
	if err := decodeJSON(r, &req); err != nil || req.IsRevealed == nil {
		writeError(w, http.StatusBadRequest, "isRevealed is required")
		return
	}

	outcome, err := h.roomSvc.UpdateReveal(r.Context(), middleware.GetPlayer(r.Context()), roomID, *req.IsRevealed)
	writeOutcome(w, h.log, outcome, err)
}

// StoryRequest is the request body for PUT /v1/rooms/{roomId}/story
type StoryRequest struct {
	CurrentStoryURL string `json:"currentStoryUrl"`
}

// Story handles PUT /v1/rooms/{roomId}/story
func (h *RoomHandler) Story(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]

	var req StoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	outcome, err := h.roomSvc.UpdateCurrentStoryURL(r.Context(), middleware.GetPlayer(r.Context()), roomID, req.CurrentStoryURL)
	writeOutcome(w, h.log, outcome, err)
}

// VoteRequest is the request body for PUT /v1/rooms/{roomId}/vote
type VoteRequest struct {
	Vote string `json:"vote"`
}

// Vote handles PUT /v1/rooms/{roomId}/vote
func (h *RoomHandler) Vote(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]

	var req VoteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	outcome, err := h.roomSvc.CastVote(r.Context(), middleware.GetPlayer(r.Context()), roomID, req.Vote)
	writeOutcome(w, h.log, outcome, err)
}
