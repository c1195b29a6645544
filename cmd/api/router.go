package main

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/cardcycle/cardcycle/internal/handler"
	"github.com/cardcycle/cardcycle/internal/middleware"
)

type routerDeps struct {
	health     *handler.HealthHandler
	metrics    *handler.MetricsHandler
	categories *handler.CategoryHandler
	cards      *handler.CardHandler
	expenses   *handler.ExpenseHandler
	credit     *handler.CreditExpenseHandler
	apiKeys    *handler.APIKeyHandler

	auth      middleware.AuthConfig
	rateLimit middleware.RateLimitConfig
	security  middleware.SecurityConfig
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(d routerDeps, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(d.security))
	r.Use(middleware.CORS(d.security))
	r.Use(middleware.MaxBodySize(d.security.MaxRequestBodySize))

	// Probes and metrics (no auth required)
	r.Get("/healthz", d.health.Healthz)
	r.Get("/readyz", d.health.Readyz)
	r.Get("/metrics", d.metrics.Metrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(d.auth))
		r.Use(middleware.RateLimitAPI(d.rateLimit))

		r.Route("/categories", func(r chi.Router) {
			r.With(middleware.RequireRead()).Get("/", d.categories.List)
			r.With(middleware.RequireRead()).Get("/{id}", d.categories.Get)
			r.With(middleware.RequireWrite()).Post("/", d.categories.Create)
			r.With(middleware.RequireWrite()).Put("/{id}", d.categories.Rename)
			r.With(middleware.RequireWrite()).Patch("/{id}", d.categories.Rename)
			r.With(middleware.RequireWrite()).Delete("/{id}", d.categories.Delete)
		})

		r.Route("/cards", func(r chi.Router) {
			r.With(middleware.RequireRead()).Get("/", d.cards.List)
			r.With(middleware.RequireRead()).Get("/{id}", d.cards.Get)
			r.With(middleware.RequireWrite()).Post("/", d.cards.Create)
			r.With(middleware.RequireWrite()).Put("/{id}", d.cards.Replace)
			r.With(middleware.RequireWrite()).Patch("/{id}", d.cards.Patch)
			r.With(middleware.RequireWrite()).Delete("/{id}", d.cards.Delete)
		})

		r.Route("/expenses", func(r chi.Router) {
			r.With(middleware.RequireRead()).Get("/", d.expenses.List)
			r.With(middleware.RequireRead()).Get("/{id}", d.expenses.Get)
			r.With(middleware.RequireWrite()).Post("/", d.expenses.Create)
			r.With(middleware.RequireWrite()).Put("/{id}", d.expenses.Replace)
			r.With(middleware.RequireWrite()).Patch("/{id}", d.expenses.Patch)
			r.With(middleware.RequireWrite()).Delete("/{id}", d.expenses.Delete)
		})

		r.Route("/credit-expenses", func(r chi.Router) {
			r.With(middleware.RequireRead()).Get("/", d.credit.List)
			r.With(middleware.RequireRead()).Get("/{id}", d.credit.Get)
			r.With(middleware.RequireWrite()).Post("/", d.credit.Create)
			r.With(middleware.RequireWrite()).Put("/{id}", d.credit.Replace)
			r.With(middleware.RequireWrite()).Patch("/{id}", d.credit.Patch)
			r.With(middleware.RequireWrite()).Delete("/{id}", d.credit.Delete)
		})

		// API key management (admin scope for mutations)
		r.Route("/api-keys", func(r chi.Router) {
			r.With(middleware.RequireRead()).Get("/", d.apiKeys.List)
			r.With(middleware.RequireAdmin()).Post("/", d.apiKeys.Create)
			r.With(middleware.RequireAdmin()).Delete("/{key_id}", d.apiKeys.Revoke)
			r.With(middleware.RequireAdmin()).Post("/{key_id}/rotate", d.apiKeys.Rotate)
		})
	})

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	return r
}
