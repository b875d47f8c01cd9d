package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/lsv-booking-widget/internal/host"
	httpmiddleware "github.com/wolfman30/lsv-booking-widget/internal/http/middleware"
	"github.com/wolfman30/lsv-booking-widget/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Widget             *host.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// Per-IP limit on widget requests; zero disables it.
	RateLimitRPS   float64
	RateLimitBurst int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", healthCheck(cfg.Widget))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.Widget != nil {
		r.Route("/widget", func(w chi.Router) {
			if len(cfg.CORSAllowedOrigins) > 0 {
				w.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
			}
			if cfg.RateLimitRPS > 0 {
				w.Use(httpmiddleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
			}
			w.With(middleware.Compress(5, "application/javascript")).Get("/lsv-booking.js", cfg.Widget.HandleLoaderJS)
			w.Get("/ws", cfg.Widget.HandleWebSocket)
		})
	}

	return r
}

func healthCheck(widget *host.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{"status": "ok"}
		if widget != nil {
			resp["sessions"] = widget.ActiveSessions()
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
