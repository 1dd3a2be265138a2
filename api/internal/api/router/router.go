package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/adscale/pricecrypt/api/internal/api/handlers"
	pc_middleware "github.com/adscale/pricecrypt/api/internal/api/middleware"
	"github.com/adscale/pricecrypt/api/internal/core/services"
)

// RouterConfig defines the dependencies required to build the API routing tree.
type RouterConfig struct {
	AllowedOrigins  []string
	CreativeHandler *handlers.CreativeHandler
	PriceHandler    *handlers.PriceHandler
	AlertHandler    *handlers.AlertHandler // nil without a database
	HealthHandler   *handlers.HealthHandler
	ServiceAuth     *pc_middleware.ServiceAuth
	RateLimiter     *pc_middleware.RateLimiter
	Logger          *slog.Logger
}

// NewRouter constructs the Chi multiplexer, attaches global middleware, and wires all endpoints.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// =========================================================================
	// 1. Global Gateway Middleware Pipeline
	// =========================================================================

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(pc_middleware.StructuredLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// CORS answers preflights and decorates rejections, so it sits ahead of
	// the limits below.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	// Creatives are the largest bodies we accept.
	r.Use(pc_middleware.MaxBytes(1_048_576))

	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Handler)
	}

	// =========================================================================
	// 2. API v1 Routing Tree
	// =========================================================================

	r.Route("/api/v1", func(r chi.Router) {

		// ---------------------------------------------------------------------
		// Encoding Routes (called by the bidder on every impression)
		// ---------------------------------------------------------------------
		r.Post("/creatives/render", cfg.CreativeHandler.Render)
		r.Post("/prices/truncate", cfg.PriceHandler.Truncate)
		r.Post("/prices/encode", cfg.PriceHandler.Encode)

		// ---------------------------------------------------------------------
		// Protected Routes (Requires a Service Token)
		// ---------------------------------------------------------------------
		r.With(cfg.ServiceAuth.RequireScope(services.ScopePricesDecode)).
			Post("/prices/decode", cfg.PriceHandler.Decode)

		if cfg.AlertHandler != nil {
			r.Route("/alerts", func(r chi.Router) {
				r.With(cfg.ServiceAuth.RequireScope(services.ScopeAlertsRead)).
					Get("/", cfg.AlertHandler.List)
				r.With(cfg.ServiceAuth.RequireScope(services.ScopeAlertsWrite)).
					Post("/{id}/resolve", cfg.AlertHandler.Resolve)
			})
		}
	})

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})
	r.Get("/health", cfg.HealthHandler.Check)

	return r
}
