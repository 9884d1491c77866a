package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	carryoverHandler "github.com/mwhite-dev/budgetd/internal/http/carryover"
	debtHandler "github.com/mwhite-dev/budgetd/internal/http/debt"
	expenseHandler "github.com/mwhite-dev/budgetd/internal/http/expense"
	planHandler "github.com/mwhite-dev/budgetd/internal/http/plan"
)

func New(
	plansV1 *planHandler.Handler,
	expensesV1 *expenseHandler.Handler,
	debtsV1 *debtHandler.Handler,
	sweepsV1 *carryoverHandler.Handler,
	jwtSecret string,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(BearerAuth(jwtSecret))

		r.Route("/expenses", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			expensesV1.Routes(r)
		})

		r.Route("/plans/{planID}", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				plansV1.Routes(r)
			})

			r.Route("/debts", func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				debtsV1.Routes(r)
			})

			r.Route("/sweeps", func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				sweepsV1.Routes(r)
			})
		})
	})

	return router
}
