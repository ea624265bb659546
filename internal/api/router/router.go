package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/wolfman30/orch-console/internal/http/middleware"
	"github.com/wolfman30/orch-console/internal/web"
	"github.com/wolfman30/orch-console/pkg/logging"
)

const healthTimeout = 2 * time.Second

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Console            *web.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// ConsoleJWTSecret enables bearer auth on /api when set.
	ConsoleJWTSecret string

	// HealthCheck reports backing store health (optional).
	HealthCheck func(context.Context) error
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", health(cfg.HealthCheck))
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		public.Get("/", cfg.Console.Page)
	})

	// Console API. Requests of one session are serialized so a second
	// submit cannot race an in-flight orchestration call.
	inflight := httpmiddleware.NewInFlight()
	r.Route("/api", func(api chi.Router) {
		api.Use(httpmiddleware.ConsoleJWT(cfg.ConsoleJWTSecret))
		api.Use(httpmiddleware.SingleFlight(inflight, web.SessionKey))
		api.Mount("/", cfg.Console.Routes())
	})

	return r
}

func health(check func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, body := http.StatusOK, map[string]string{"status": "ok"}
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			defer cancel()
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body = map[string]string{"status": "degraded", "error": err.Error()}
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}
