/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for a local dashboard

ROUTE GROUPS:
  /api/accounts/*      Account balances, stats, goal projection
  /api/imports/*        Reconciliation
  /api/scenarios/*      Scenario apply
  /api/instances/*      Recurring instance state transitions

SECURITY NOTE:
  No authentication middleware. All endpoints are public; this is a
  demo surface over a single-tenant deployment, not a production API.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/forecastd/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.ListAccounts)
			r.Get("/{id}/balances", h.GetBalances)
			r.Get("/{id}/stats", h.GetStats)
			r.Get("/{id}/goal", h.GetGoal)
		})

		r.Route("/imports", func(r chi.Router) {
			r.Post("/{id}/reconcile", h.ReconcileImport)
			r.Delete("/{id}/reconcile", h.ClearReconciliation)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Post("/{id}/apply", h.ApplyScenario)
		})

		r.Route("/instances", func(r chi.Router) {
			r.Post("/paid", h.MarkInstancePaid)
		})
	})

	return r
}
