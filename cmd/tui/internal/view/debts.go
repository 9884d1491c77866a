package view

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/mwhite-dev/budgetd/internal/carryover"
	"github.com/mwhite-dev/budgetd/internal/debt"
)

type debtsState int

const (
	debtsStateBrowse debtsState = iota
	debtsStatePay
)

type DebtsModel struct {
	CommonModel
	debtService      *debt.Service
	carryoverService *carryover.Service

	planID uuid.UUID

	state   debtsState
	table   table.Model
	debts   []*debt.Debt
	items   []*carryover.Item
	summary *debt.Summary
	form    *huh.Form

	loading bool
	err     error
	status  string

	// Form bindings
	formAmount string
	formSource string
}

func NewDebtsModel(debtSvc *debt.Service, carryoverSvc *carryover.Service, planID uuid.UUID) DebtsModel {
	columns := []table.Column{
		{Title: "Name", Width: 36},
		{Title: "Type", Width: 12},
		{Title: "Balance", Width: 12},
		{Title: "Paid", Width: 12},
		{Title: "Due", Width: 12},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return DebtsModel{
		debtService:      debtSvc,
		carryoverService: carryoverSvc,
		planID:           planID,
		table:            t,
		loading:          true,
	}
}

func (m DebtsModel) Title() string { return "Debts" }

func (m DebtsModel) ShortHelp() string {
	if m.state == debtsStatePay {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | p: pay | u: undo last payment | r: refresh"
}

func (m DebtsModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m DebtsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadDebtsMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.debts = msg.debts
		m.items = msg.items
		m.summary = msg.summary
		m.err = nil
		m.refreshTable()

		return m, nil

	case debtActionMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.status = msg.status
		}

		m.state = debtsStateBrowse
		m.form = nil
		m.table.Focus()

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 14)
		return m, nil
	}

	switch m.state {
	case debtsStateBrowse:
		return m.updateBrowse(msg)
	case debtsStatePay:
		return m.updatePay(msg)
	}

	return m, nil
}

func (m DebtsModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "p":
			return m.enterPayMode()
		case "u":
			return m, m.undoCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m DebtsModel) enterPayMode() (tea.Model, tea.Cmd) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.debts) {
		return m, nil
	}

	d := m.debts[idx]
	if d.CurrentBalance <= 0 {
		m.status = "Debt is already settled"
		return m, nil
	}

	m.formAmount = FormatMoney(d.Amount)
	m.formSource = "income"

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("amount").
				Title("Amount").
				Value(&m.formAmount).
				Validate(func(s string) error {
					v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
					if err != nil || v <= 0 {
						return fmt.Errorf("enter a positive amount")
					}
					return nil
				}),

			huh.NewSelect[string]().
				Key("source").
				Title("Source").
				Options(
					huh.NewOption("Income", "income"),
					huh.NewOption("Savings", "savings"),
					huh.NewOption("Credit card", "credit_card"),
					huh.NewOption("Extra funds", "extra_funds"),
				).
				Value(&m.formSource),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = debtsStatePay
	m.table.Blur()

	return m, m.form.Init()
}

func (m DebtsModel) updatePay(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = debtsStateBrowse
			m.form = nil
			m.table.Focus()

			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.payCmd()
}

func (m DebtsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading debts...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	header := ""
	if m.summary != nil {
		header = fmt.Sprintf("Outstanding: %s across %d debts",
			activeStyle(FormatMoney(m.summary.TotalBalance)),
			m.summary.ActiveCount,
		)
	}

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
		m.carryoverView(),
	)

	if m.state == debtsStatePay && m.form != nil {
		idx := m.table.Cursor()
		name := ""
		if idx >= 0 && idx < len(m.debts) {
			name = m.debts[idx].Name
		}

		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render(fmt.Sprintf("Pay Debt\n\n%s\n\n%s", name, m.form.View()))

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m DebtsModel) carryoverView() string {
	if len(m.items) == 0 {
		return ""
	}

	var b strings.Builder

	b.WriteString("Carried-over expenses:\n")

	for _, item := range m.items {
		line := fmt.Sprintf("  %s: %s remaining (due %s)",
			item.Name, FormatMoney(item.Remaining), FormatDate(item.DueDate))
		if item.PaidLate {
			line = fmt.Sprintf("  %s: paid late", item.Name)
		}

		b.WriteString(line + "\n")
	}

	return lipgloss.NewStyle().PaddingTop(1).Faint(true).Render(b.String())
}

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(s)
}

func (m *DebtsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.debts))

	for _, d := range m.debts {
		due := ""
		if d.DueDate != nil {
			due = FormatDate(*d.DueDate)
		} else if d.DueDay != nil {
			due = fmt.Sprintf("day %d", *d.DueDay)
		}

		rows = append(rows, table.Row{
			d.Name,
			string(d.Type),
			FormatMoney(d.CurrentBalance),
			FormatMoney(d.PaidAmount),
			due,
		})
	}

	m.table.SetRows(rows)
}

// Messages

type loadDebtsMsg struct {
	debts   []*debt.Debt
	items   []*carryover.Item
	summary *debt.Summary
	err     error
}

// loadCmd runs the read-path sweeps before listing, the same order the API
// uses, so the dashboard matches what the HTTP surface would report.
func (m DebtsModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		now := time.Now().UTC()

		if _, err := m.carryoverService.ProcessOverdueExpensesToDebts(ctx, m.planID, now); err != nil {
			return loadDebtsMsg{err: err}
		}

		if _, err := m.debtService.ProcessMissedPayments(ctx, m.planID, now); err != nil {
			return loadDebtsMsg{err: err}
		}

		debts, err := m.debtService.List(ctx, m.planID)
		if err != nil {
			return loadDebtsMsg{err: err}
		}

		summary, err := m.debtService.SummaryForPlan(ctx, m.planID)
		if err != nil {
			return loadDebtsMsg{err: err}
		}

		items, err := m.carryoverService.ExpenseDebts(ctx, m.planID, now)
		if err != nil {
			return loadDebtsMsg{err: err}
		}

		return loadDebtsMsg{debts: debts, items: items, summary: summary}
	}
}

type debtActionMsg struct {
	status string
	err    error
}

func (m DebtsModel) payCmd() tea.Cmd {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.debts) {
		return nil
	}

	d := m.debts[idx]

	amount, err := strconv.ParseFloat(strings.ReplaceAll(m.formAmount, ",", ""), 64)
	if err != nil {
		return func() tea.Msg { return debtActionMsg{err: err} }
	}

	source := m.formSource

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		p, err := m.debtService.AddPayment(ctx, debt.AddPaymentParams{
			PlanID: m.planID,
			DebtID: d.ID,
			Amount: amount,
			Source: source,
		})
		if err != nil {
			return debtActionMsg{err: err}
		}

		return debtActionMsg{status: fmt.Sprintf("Paid %s towards %s", FormatMoney(p.Amount), d.Name)}
	}
}

func (m DebtsModel) undoCmd() tea.Cmd {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.debts) {
		return nil
	}

	d := m.debts[idx]

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		payments, err := m.debtService.Payments(ctx, d.ID)
		if err != nil {
			return debtActionMsg{err: err}
		}

		if len(payments) == 0 {
			return debtActionMsg{err: debt.ErrNoPayments}
		}

		if err := m.debtService.UndoPayment(ctx, m.planID, d.ID, payments[0].ID, time.Now().UTC()); err != nil {
			return debtActionMsg{err: err}
		}

		return debtActionMsg{status: fmt.Sprintf("Undid last payment on %s", d.Name)}
	}
}
