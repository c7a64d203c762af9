package handler

import (
	"encoding/json"
	"net/http"

	"github.com/scorewire/telecast/internal/api/respond"
	"github.com/scorewire/telecast/internal/smartpush"
)

// QueueProcess processes due smart-push queue items on demand.
// @Summary Process push queue
// @Description Delivers all due delayed follow-up items.
// @Tags queue
// @Produce json
// @Success 200 {object} smartpush.ProcessResult
// @Failure 500 {object} respond.ErrorResponse
// @Router /api/v1/queue/process [post]
func (h *Handler) QueueProcess(w http.ResponseWriter, r *http.Request) {
	result, err := h.push.ProcessQueue(r.Context())
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "QUEUE_FAILED", "Queue processing failed", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, result)
}

// PushTrigger fires a manual soft follow-up trigger.
// @Summary Trigger smart push
// @Description Evaluates a follow-up trigger: queued with delay, sent now, or skipped.
// @Tags queue
// @Accept json
// @Produce json
// @Param request body smartpush.Trigger true "Trigger"
// @Success 200 {object} smartpush.EnqueueResult
// @Failure 400 {object} respond.ErrorResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /api/v1/push/trigger [post]
func (h *Handler) PushTrigger(w http.ResponseWriter, r *http.Request) {
	var trigger smartpush.Trigger
	if err := json.NewDecoder(r.Body).Decode(&trigger); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be a JSON trigger")
		return
	}
	if trigger.PrimaryContentType == "" || trigger.Language == "" || len(trigger.ChannelIDs) == 0 {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_TRIGGER", "primary_content_type, language, and channel_ids are required")
		return
	}
	if trigger.Type == "" {
		trigger.Type = smartpush.TriggerManual
	}

	result, err := h.push.Enqueue(r.Context(), trigger)
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "TRIGGER_FAILED", "Trigger evaluation failed", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, result)
}

// Cleanup runs the log cleanup pass on demand.
// @Summary Run cleanup
// @Description Deletes stale execution logs and collapses duplicate pending rows.
// @Tags maintenance
// @Produce json
// @Success 200 {object} reaper.Result
// @Failure 500 {object} respond.ErrorResponse
// @Router /api/v1/cleanup [post]
func (h *Handler) Cleanup(w http.ResponseWriter, r *http.Request) {
	result, err := h.reaper.Cleanup(r.Context())
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "CLEANUP_FAILED", "Cleanup failed", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, result)
}
