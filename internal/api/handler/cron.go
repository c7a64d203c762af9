package handler

import (
	"net/http"

	"github.com/scorewire/telecast/internal/api/respond"
)

// Cron tick endpoints. Partial per-item failures are reported inside the
// summary with a 200; only a store-level failure (the tick itself could not
// run) produces a 500.

// CronMinute runs the minute tick: due schedule entries plus automation rules.
// @Summary Minute tick
// @Description Executes due schedule entries and due automation rules.
// @Tags cron
// @Produce json
// @Security CronAuth
// @Success 200 {object} ticker.MinuteSummary
// @Failure 500 {object} respond.ErrorResponse
// @Router /cron/minute [post]
func (h *Handler) CronMinute(w http.ResponseWriter, r *http.Request) {
	summary, err := h.ticks.Minute(r.Context())
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "TICK_FAILED", "Minute tick failed", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, summary)
}

// CronHourly runs the hourly tick: queue processing plus log cleanup.
// @Summary Hourly tick
// @Description Processes the smart-push queue and runs the cleanup pass.
// @Tags cron
// @Produce json
// @Security CronAuth
// @Success 200 {object} ticker.HourlySummary
// @Failure 500 {object} respond.ErrorResponse
// @Router /cron/hourly [post]
func (h *Handler) CronHourly(w http.ResponseWriter, r *http.Request) {
	summary, err := h.ticks.Hourly(r.Context())
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "TICK_FAILED", "Hourly tick failed", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, summary)
}

// CronDiscover runs the match-discovery tick.
// @Summary Discovery tick
// @Description Compiles content schedules for unscheduled important matches.
// @Tags cron
// @Produce json
// @Security CronAuth
// @Success 200 {object} ticker.DiscoverySummary
// @Failure 500 {object} respond.ErrorResponse
// @Router /cron/discover [post]
func (h *Handler) CronDiscover(w http.ResponseWriter, r *http.Request) {
	summary, err := h.ticks.Discovery(r.Context())
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "TICK_FAILED", "Discovery tick failed", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, summary)
}
