package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/merinolabs/flockrank/internal/events"
	"github.com/merinolabs/flockrank/internal/store"
)

func NewRouter(s store.Store, ev events.Client, adminToken string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware(120))

	animals := NewAnimalsHandler(s, ev)
	runs := NewRunsHandler(s, ev)
	admin := NewAdminHandler(s)

	r.Route("/api/v1", func(r chi.Router) {
		r.Put("/animals/{id}", animals.Upsert)
		r.Get("/animals", animals.List)
		r.Get("/animals/{id}", animals.Get)
		r.Put("/animals/{id}/kpis", animals.UpsertKPIs)
		r.Get("/animals/{id}/kpis", animals.GetKPIs)

		r.Post("/runs", runs.Create)
		r.Get("/runs", runs.List)
		r.Get("/runs/{id}", runs.Get)
		r.Get("/runs/{id}/rankings", runs.Rankings)
		r.Get("/runs/{id}/culls", runs.Culls)
		r.Get("/runs/{id}/groups", runs.Groups)
		r.Get("/runs/{id}/explain/{animal_id}", runs.Explain)

		r.Get("/presets", runs.Presets)

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(adminToken))
			r.Get("/stats", admin.Stats)
		})
	})

	return r
}

func NewMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}
