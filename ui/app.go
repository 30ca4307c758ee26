// Package ui exposes the scoring pipeline over HTTP.
package ui

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gopvt/internal"
	"gopvt/internal/config"
	"gopvt/ports"
)

// App represents the HTTP application
type App struct {
	router   *chi.Mux
	pipeline config.PipelineConfig
	repo     ports.ResultRepository // nil disables run lookup and persistence
	log      *internal.Logger
}

// NewApp creates the HTTP application around the configured pipeline
// defaults and an optional repository.
func NewApp(pipeline config.PipelineConfig, repo ports.ResultRepository) *App {
	app := &App{
		router:   chi.NewRouter(),
		pipeline: pipeline,
		repo:     repo,
		log:      internal.DefaultLogger,
	}
	app.setupMiddleware()
	app.setupRoutes()
	return app
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the API surface
func (a *App) setupRoutes() {
	a.router.Get("/health", a.handleHealth)
	a.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/process", a.handleProcess)
		r.Get("/runs", a.handleListRuns)
		r.Get("/runs/{runID}", a.handleGetRun)
	})
}

// Router returns the HTTP handler for testing and embedding
func (a *App) Router() http.Handler {
	return a.router
}

// Serve starts the HTTP server on the given port
func (a *App) Serve(port string) error {
	addr := fmt.Sprintf(":%s", port)
	a.log.Info("listening on %s", addr)
	return http.ListenAndServe(addr, a.router)
}
