package main

import (
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/mwhite-dev/budgetd/cmd/tui/internal/view"
	"github.com/mwhite-dev/budgetd/internal/carryover"
	"github.com/mwhite-dev/budgetd/internal/config"
	"github.com/mwhite-dev/budgetd/internal/database"
	"github.com/mwhite-dev/budgetd/internal/debt"
	debtStore "github.com/mwhite-dev/budgetd/internal/debt/store"
	"github.com/mwhite-dev/budgetd/internal/expense"
	expenseStore "github.com/mwhite-dev/budgetd/internal/expense/store"
	"github.com/mwhite-dev/budgetd/internal/plan"
	planStore "github.com/mwhite-dev/budgetd/internal/plan/store"
)

type model struct {
	expenseService   *expense.Service
	debtService      *debt.Service
	carryoverService *carryover.Service

	planID uuid.UUID

	currentView View

	expensesView view.ExpensesModel
	debtsView    view.DebtsModel
}

type View int

const (
	ViewMenu     View = 0
	ViewExpenses View = 1
	ViewDebts    View = 2
)

func initialModel() model {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	planID, err := uuid.Parse(cfg.TUI.PlanID)
	if err != nil {
		slog.Error("TUI_PLAN_ID must be a valid plan id", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	planSvc := plan.NewService(planStore.New(db))
	debtSvc := debt.NewService(debtStore.New(db))
	expenseSvc := expense.NewService(expenseStore.New(db), debtSvc)
	carryoverSvc := carryover.NewService(expenseSvc, debtSvc, planSvc)

	return model{
		expenseService:   expenseSvc,
		debtService:      debtSvc,
		carryoverService: carryoverSvc,
		planID:           planID,
		currentView:      ViewMenu,
		expensesView:     view.NewExpensesModel(expenseSvc, planID),
		debtsView:        view.NewDebtsModel(debtSvc, carryoverSvc, planID),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewExpenses
				m.expensesView = view.NewExpensesModel(m.expenseService, m.planID)

				return m, m.expensesView.Init()
			case "2":
				m.currentView = ViewDebts
				m.debtsView = view.NewDebtsModel(m.debtService, m.carryoverService, m.planID)

				return m, m.debtsView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewExpenses:
		var newModel tea.Model
		newModel, cmd = m.expensesView.Update(msg)
		m.expensesView = newModel.(view.ExpensesModel)
	case ViewDebts:
		var newModel tea.Model
		newModel, cmd = m.debtsView.Update(msg)
		m.debtsView = newModel.(view.DebtsModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"Budgetd TUI\n\n" +
				"1. Monthly Expenses\n" +
				"2. Debts & Carryover\n\n" +
				"q. Quit",
		)
	case ViewExpenses:
		return m.expensesView.View()
	case ViewDebts:
		return m.debtsView.View()
	}

	return "Unknown View"
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
