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
  4. CORS:       Cross-origin requests for the dashboard frontend

ROUTE GROUPS:
  /api/employees/*   Employee management
  /api/clients/*     Client management and aggregates
  /api/sales/*       Sale ledger and approval workflow
  /api/rules         Incentive rule configuration
  /api/targets       Target management
  /api/progress      Live dashboard progress
  /api/incentives    Monthly incentive snapshots
  /api/history       Closed target history
  /api/admin/*       Batch operations and maintenance

SECURITY NOTE:
  No authentication middleware. Actor identity comes from headers and is
  trusted; put this behind an authenticating gateway in production.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
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

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Actor-ID", "X-Actor-Role"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
		})

		// Client routes
		r.Route("/clients", func(r chi.Router) {
			r.Get("/", h.ListClients)
			r.Post("/", h.CreateClient)
			r.Get("/{id}", h.GetClient)
			r.Delete("/{id}", h.DeleteClient)
		})

		// Sale routes
		r.Route("/sales", func(r chi.Router) {
			r.Get("/", h.ListSales)
			r.Post("/", h.CreateSale)
			r.Get("/{id}", h.GetSale)
			r.Put("/{id}", h.UpdateSale)
			r.Delete("/{id}", h.DeleteSale)
			r.Post("/{id}/approve", h.ApproveSale)
			r.Post("/{id}/reject", h.RejectSale)
		})

		// Incentive rule routes
		r.Route("/rules", func(r chi.Router) {
			r.Get("/", h.ListRules)
			r.Put("/", h.SaveRule)
		})

		// Target routes
		r.Route("/targets", func(r chi.Router) {
			r.Get("/", h.ListTargets)
			r.Post("/", h.CreateTarget)
			r.Put("/", h.UpdateTarget)
			r.Delete("/", h.DeleteTarget)
		})

		// Dashboard progress
		r.Get("/progress", h.GetProgress)

		// Reporting routes
		r.Get("/incentives", h.ListMonthlyIncentives)
		r.Get("/history", h.ListTargetHistory)

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/close", h.TriggerClose)
			r.Post("/snapshot", h.TriggerSnapshot)
			r.Post("/reset-daily", h.ResetDailyTargets)
			r.Post("/recalculate", h.Recalculate)
			r.Get("/runs", h.ListBatchRuns)
			r.Post("/seed", h.LoadDemoData)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}
