package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/mwhite-dev/budgetd/internal/carryover"
	"github.com/mwhite-dev/budgetd/internal/config"
	"github.com/mwhite-dev/budgetd/internal/database"
	"github.com/mwhite-dev/budgetd/internal/debt"
	debtStore "github.com/mwhite-dev/budgetd/internal/debt/store"
	"github.com/mwhite-dev/budgetd/internal/expense"
	expenseStore "github.com/mwhite-dev/budgetd/internal/expense/store"
	budgetdHttp "github.com/mwhite-dev/budgetd/internal/http"
	carryoverHandler "github.com/mwhite-dev/budgetd/internal/http/carryover"
	debtHandler "github.com/mwhite-dev/budgetd/internal/http/debt"
	expenseHandler "github.com/mwhite-dev/budgetd/internal/http/expense"
	planHandler "github.com/mwhite-dev/budgetd/internal/http/plan"
	"github.com/mwhite-dev/budgetd/internal/plan"
	planStore "github.com/mwhite-dev/budgetd/internal/plan/store"
	"github.com/mwhite-dev/budgetd/internal/reconcile"
	reconcileStore "github.com/mwhite-dev/budgetd/internal/reconcile/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var (
		planService      = plan.NewService(planStore.New(db))
		debtService      = debt.NewService(debtStore.New(db))
		expenseService   = expense.NewService(expenseStore.New(db), debtService)
		carryoverService = carryover.NewService(expenseService, debtService, planService)
		reconcileService = reconcile.NewService(reconcileStore.New(db))
	)

	var (
		planH    = planHandler.NewHandler(planService)
		expenseH = expenseHandler.NewHandler(expenseService)
		debtH    = debtHandler.NewHandler(debtService, carryoverService, reconcileService)
		sweepsH  = carryoverHandler.NewHandler(carryoverService)
	)

	router := budgetdHttp.New(planH, expenseH, debtH, sweepsH, cfg.Auth.JWTSecret)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "port", port)

	if err := http.ListenAndServe(port, router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
