package handler

import (
	"encoding/json"
	"net/http"

	"github.com/scorewire/telecast/internal/api/respond"
)

type tickerControlRequest struct {
	Action string `json:"action"`
}

// TickerStatus returns the ticker lifecycle state.
// @Summary Ticker status
// @Description Returns whether the background ticker is running and its intervals.
// @Tags ticker
// @Produce json
// @Success 200 {object} ticker.Status
// @Router /api/v1/ticker [get]
func (h *Handler) TickerStatus(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, h.service.Status())
}

// TickerControl starts, stops, or restarts the background ticker.
// @Summary Control ticker
// @Description Applies a lifecycle action: start, stop, restart, or status.
// @Tags ticker
// @Accept json
// @Produce json
// @Param request body tickerControlRequest true "Action"
// @Success 200 {object} ticker.Status
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/v1/ticker [post]
func (h *Handler) TickerControl(w http.ResponseWriter, r *http.Request) {
	var req tickerControlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be JSON with an action field")
		return
	}

	switch req.Action {
	case "start":
		h.service.Start()
	case "stop":
		h.service.Stop()
	case "restart":
		h.service.Restart()
	case "status":
		// Read-only; fall through to the status response.
	default:
		respond.WriteError(w, http.StatusBadRequest, "INVALID_ACTION", "Action must be one of start, stop, restart, status")
		return
	}

	respond.WriteJSONObject(w, http.StatusOK, h.service.Status())
}
