package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/undergrid/stagehand/internal/api"
	apimiddleware "github.com/undergrid/stagehand/internal/api/middleware"
)

// setupRouter creates the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apimiddleware.Trace)

	taskHandler := api.NewTaskHandler(app.tracker, app.logger)
	sessionHandler := api.NewSessionHandler(app.playback, app.composer, app.logger)

	r.Route("/api", func(r chi.Router) {
		if app.tokens != nil {
			r.Use(apimiddleware.NewAuthMiddleware(app.tokens).Authenticate)
		}

		r.Post("/tasks", taskHandler.SubmitTask)
		r.Get("/tasks/{id}", taskHandler.GetTask)
		r.Delete("/tasks/{id}", taskHandler.DeleteTask)

		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Post("/queue", sessionHandler.Enqueue)
			r.Get("/queue", sessionHandler.Queue)
			r.Post("/announce", sessionHandler.Announce)
			r.Post("/stop", sessionHandler.Stop)
			r.Post("/skip", sessionHandler.Skip)
			r.Get("/volume", sessionHandler.GetVolume)
			r.Put("/volume", sessionHandler.SetVolume)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})
	r.Method(http.MethodGet, "/metrics", app.metrics.Handler())

	return r
}
