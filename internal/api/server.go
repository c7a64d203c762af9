package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/scorewire/telecast/internal/api/handler"
	"github.com/scorewire/telecast/internal/config"
)

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(h *handler.Handler, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Authorization", "Content-Type", "Cache-Control"},
		ExposedHeaders:   []string{"X-Process-Time", "Link"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	// --- Routes ---

	// Root
	r.Get("/", h.Root)

	// Health checks
	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
	})

	// Swagger UI
	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/doc.json"),
	))

	// Cron tick endpoints, guarded by secret or trusted-caller header.
	r.Route("/cron", func(r chi.Router) {
		r.Use(CronAuthMiddleware(cfg.CronSecret, cfg.TrustedCronCaller))
		r.Post("/minute", h.CronMinute)
		r.Post("/hourly", h.CronHourly)
		r.Post("/discover", h.CronDiscover)
	})

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Ticker lifecycle
		r.Get("/ticker", h.TickerStatus)
		r.Post("/ticker", h.TickerControl)

		// Smart-push queue
		r.Post("/queue/process", h.QueueProcess)
		r.Post("/push/trigger", h.PushTrigger)

		// Maintenance
		r.Post("/cleanup", h.Cleanup)

		// Automation rules
		r.Get("/rules", h.ListRules)
		r.Post("/rules", h.CreateRule)

		// Match schedule control
		r.Post("/matches/{id}/reschedule", h.RescheduleMatch)
		r.Post("/matches/{id}/cancel", h.CancelMatch)
	})

	return r
}
