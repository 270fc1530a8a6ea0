package handler

import (
	"errors"
	"net/http"

	"planningpoker/internal/service"

	"go.uber.org/zap"
)

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrRoomNotFound),
		errors.Is(err, service.ErrPlayerNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrCreatorNotFound),
		errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrNotMember),
		errors.Is(err, service.ErrVoteNotAllowed),
		errors.Is(err, service.ErrVoteLocked):
		return http.StatusForbidden
	case errors.Is(err, service.ErrRoomLocked):
		return http.StatusLocked
	case errors.Is(err, service.ErrRoomIDConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidRoomName),
		errors.Is(err, service.ErrInvalidName),
		errors.Is(err, service.ErrInvalidVote),
		errors.Is(err, service.ErrInvalidStoryURL):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError writes err with its mapped status. Unmapped errors are
// logged and hidden from the client.
func writeServiceError(w http.ResponseWriter, log *zap.SugaredLogger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Errorw("request failed", "error", err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

// writeOutcome writes the result of a room mutation
func writeOutcome(w http.ResponseWriter, log *zap.SugaredLogger, outcome service.Outcome, err error) {
	if err != nil {
		writeServiceError(w, log, err)
		return
	}
	switch outcome {
	case service.OutcomeNotFound:
		writeError(w, http.StatusNotFound, "not found")
	case service.OutcomeUnchanged:
		writeJSON(w, http.StatusOK, map[string]bool{"changed": false})
	default:
		writeJSON(w, http.StatusOK, map[string]bool{"changed": true})
	}
}
