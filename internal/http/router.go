package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"driveindex/internal/handlers"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Sync   *handlers.SyncHandler
	Health http.Handler
	Logger *slog.Logger
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(RequestLogger)

	r.Route("/api", func(r chi.Router) {
		if deps.Health != nil {
			r.Method(http.MethodGet, "/health", deps.Health)
		}
		r.Route("/drive/sync", func(r chi.Router) {
			r.Post("/", deps.Sync.Sync)
			r.Get("/state", deps.Sync.State)
			r.Post("/reset", deps.Sync.Reset)
			r.Get("/jobs/{id}", deps.Sync.Job)
		})
	})

	return r
}
