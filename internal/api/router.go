package api

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iconidentify/newsreel/internal/api/handler"
	mw "github.com/iconidentify/newsreel/internal/api/middleware"
)

// Handlers groups the HTTP handlers mounted by NewRouter.
type Handlers struct {
	Feed     *handler.FeedHandler
	Video    *handler.VideoHandler
	Category *handler.CategoryHandler
	Health   *handler.HealthHandler
}

// Options configures cross-cutting router behavior.
type Options struct {
	AllowedOrigin  string
	RequestTimeout time.Duration
	Verifier       *mw.TokenVerifier
}

// NewRouter creates the HTTP router with all routes configured.
func NewRouter(h Handlers, opts Options, logger *slog.Logger) *chi.Mux {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CleanPath) // Normalize paths (e.g., //ready -> /ready)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Logger(logger))
	r.Use(mw.Recovery(logger))
	r.Use(mw.Metrics)
	r.Use(mw.CORS(opts.AllowedOrigin))

	// Health and metrics (no auth)
	r.Get("/health", h.Health.Live)
	r.Get("/ready", h.Health.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		// Streams can legitimately outlive the request timeout.
		r.Get("/videos/{id}/stream", h.Video.Stream)
		r.Head("/videos/{id}/stream", h.Video.Stream)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(opts.RequestTimeout))

			r.Get("/stats", h.Health.Stats)
			r.Get("/categories", h.Category.List)

			r.Group(func(r chi.Router) {
				if opts.Verifier != nil {
					r.Use(mw.OptionalAuth(opts.Verifier, logger))
				}
				r.Get("/videos/feed", h.Feed.Feed)
				r.Get("/videos/{id}", h.Video.Get)
			})
		})
	})

	return r
}
