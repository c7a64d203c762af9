// Package handler provides HTTP handlers for all API endpoints. Handlers are
// thin: they parse, delegate to the scheduling components, and serialize the
// structured summaries those components already produce.
package handler

import (
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scorewire/telecast/internal/api/respond"
	"github.com/scorewire/telecast/internal/automation"
	"github.com/scorewire/telecast/internal/config"
	"github.com/scorewire/telecast/internal/reaper"
	"github.com/scorewire/telecast/internal/schedule"
	"github.com/scorewire/telecast/internal/smartpush"
	"github.com/scorewire/telecast/internal/ticker"
)

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	pool     *pgxpool.Pool
	cfg      *config.Config
	ticks    ticker.Ticks
	service  *ticker.Service
	push     *smartpush.Engine
	rules    *automation.Store
	schedule *schedule.Store
	reaper   *reaper.Reaper
}

// New creates a Handler with shared dependencies.
func New(
	pool *pgxpool.Pool,
	cfg *config.Config,
	ticks ticker.Ticks,
	service *ticker.Service,
	push *smartpush.Engine,
	rules *automation.Store,
	scheduleStore *schedule.Store,
	rpr *reaper.Reaper,
) *Handler {
	return &Handler{
		pool:     pool,
		cfg:      cfg,
		ticks:    ticks,
		service:  service,
		push:     push,
		rules:    rules,
		schedule: scheduleStore,
		reaper:   rpr,
	}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version, and status.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "Telecast Scheduling API",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs",
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns basic health status and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Description Verifies Postgres connectivity.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	var n int
	err := h.pool.QueryRow(r.Context(), "health_check").Scan(&n)
	if err != nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     "Database connection check failed",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
