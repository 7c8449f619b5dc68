package httpapi

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"shortgen/internal/http/handlers"
	"shortgen/internal/infra"
	"shortgen/internal/middleware"
)

// NewRouter builds the API surface: job creation and status polling, the
// worker push-task callback, and health.
func NewRouter(app *handlers.App, logger infra.Logger) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, chimw.RealIP, chimw.Recoverer, middleware.Logger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/v1/healthz", app.Health)

	r.Route("/jobs", func(r chi.Router) {
		r.Post("/create", app.JobsCreate)
		r.Get("/status/{job_id}", app.JobsStatus)
	})

	r.Route("/worker", func(r chi.Router) {
		r.Post("/process", app.WorkerProcess)
	})

	return r
}

// NewWorkerRouter builds the worker binary's surface: only the push-task
// callback and health.
func NewWorkerRouter(app *handlers.App, logger infra.Logger) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, chimw.RealIP, chimw.Recoverer, middleware.Logger(logger))

	r.Get("/v1/healthz", app.Health)
	r.Post("/worker/process", app.WorkerProcess)

	return r
}
