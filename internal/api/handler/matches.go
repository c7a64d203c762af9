package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/scorewire/telecast/internal/api/respond"
	"github.com/scorewire/telecast/internal/directory"
)

type rescheduleRequest struct {
	Kickoff time.Time `json:"kickoff"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// RescheduleMatch shifts all non-terminal schedule entries of a match to a
// new kickoff, preserving each entry's original offset and jitter.
// @Summary Reschedule match content
// @Description Recomputes scheduled_for for pending/executing entries from the new kickoff and the stored offsets.
// @Tags matches
// @Accept json
// @Produce json
// @Param id path int true "Match ID"
// @Param request body rescheduleRequest true "New kickoff (RFC3339)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /api/v1/matches/{id}/reschedule [post]
func (h *Handler) RescheduleMatch(w http.ResponseWriter, r *http.Request) {
	matchID, ok := h.matchID(w, r)
	if !ok {
		return
	}

	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Kickoff.IsZero() {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "Body must contain an RFC3339 kickoff")
		return
	}

	updated, err := h.schedule.Reschedule(r.Context(), matchID, req.Kickoff)
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "STORE_FAILED", "Reschedule failed", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"match_id":        matchID,
		"kickoff":         req.Kickoff,
		"entries_updated": updated,
	})
}

// CancelMatch cancels all non-terminal schedule entries of a match.
// @Summary Cancel match content
// @Description Marks pending/executing entries cancelled; completed and failed entries stay untouched.
// @Tags matches
// @Accept json
// @Produce json
// @Param id path int true "Match ID"
// @Param request body cancelRequest true "Cancellation reason"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /api/v1/matches/{id}/cancel [post]
func (h *Handler) CancelMatch(w http.ResponseWriter, r *http.Request) {
	matchID, ok := h.matchID(w, r)
	if !ok {
		return
	}

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "Body must contain a reason")
		return
	}
	reason := req.Reason
	if reason == "" {
		reason = "cancelled via API"
	}

	cancelled, err := h.schedule.Cancel(r.Context(), matchID, reason)
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "STORE_FAILED", "Cancel failed", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"match_id":          matchID,
		"entries_cancelled": cancelled,
	})
}

// matchID parses the path param and verifies the match exists.
func (h *Handler) matchID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_MATCH_ID", "Match id must be a positive integer")
		return 0, false
	}

	if _, err := directory.MatchByID(r.Context(), h.pool, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respond.WriteError(w, http.StatusNotFound, "MATCH_NOT_FOUND", "No such match")
			return 0, false
		}
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "STORE_FAILED", "Match lookup failed", err.Error())
		return 0, false
	}
	return id, true
}
