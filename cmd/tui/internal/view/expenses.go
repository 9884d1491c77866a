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

	"github.com/mwhite-dev/budgetd/internal/expense"
	"github.com/mwhite-dev/budgetd/internal/period"
)

type expensesState int

const (
	expensesStateBrowse expensesState = iota
	expensesStatePay
)

type ExpensesModel struct {
	CommonModel
	expenseService *expense.Service

	planID uuid.UUID
	month  period.Month

	state    expensesState
	table    table.Model
	expenses []*expense.Expense
	form     *huh.Form

	loading bool
	err     error
	status  string

	formAmount string
	formSource string
}

func NewExpensesModel(expenseSvc *expense.Service, planID uuid.UUID) ExpensesModel {
	columns := []table.Column{
		{Title: "Name", Width: 32},
		{Title: "Category", Width: 16},
		{Title: "Amount", Width: 12},
		{Title: "Paid", Width: 12},
		{Title: "Remaining", Width: 12},
		{Title: "Status", Width: 10},
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

	return ExpensesModel{
		expenseService: expenseSvc,
		planID:         planID,
		month:          period.FromDate(time.Now().UTC()),
		table:          t,
		loading:        true,
	}
}

func (m ExpensesModel) Title() string {
	return fmt.Sprintf("Expenses %s", m.month.Key())
}

func (m ExpensesModel) ShortHelp() string {
	if m.state == expensesStatePay {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | space: toggle paid | p: pay | [ ]: change month | r: refresh"
}

func (m ExpensesModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m ExpensesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadExpensesMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.expenses = msg.expenses
		m.err = nil
		m.refreshTable()

		return m, nil

	case expenseActionMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.status = msg.status
		}

		m.state = expensesStateBrowse
		m.form = nil
		m.table.Focus()

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 12)
		return m, nil
	}

	switch m.state {
	case expensesStateBrowse:
		return m.updateBrowse(msg)
	case expensesStatePay:
		return m.updatePay(msg)
	}

	return m, nil
}

func (m ExpensesModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "[":
			m.month = m.month.AddMonths(-1)
			m.loading = true
			return m, m.loadCmd()
		case "]":
			m.month = m.month.AddMonths(1)
			m.loading = true
			return m, m.loadCmd()
		case " ":
			return m, m.togglePaidCmd()
		case "p":
			return m.enterPayMode()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ExpensesModel) enterPayMode() (tea.Model, tea.Cmd) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.expenses) {
		return m, nil
	}

	e := m.expenses[idx]
	if e.Remaining() <= 0 {
		m.status = "Expense is already settled"
		return m, nil
	}

	m.formAmount = FormatMoney(e.Remaining())
	m.formSource = string(expense.SourceIncome)

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
					huh.NewOption("Income", string(expense.SourceIncome)),
					huh.NewOption("Savings", string(expense.SourceSavings)),
					huh.NewOption("Credit card", string(expense.SourceCreditCard)),
					huh.NewOption("Extra funds", string(expense.SourceExtraFunds)),
					huh.NewOption("Extra (untracked)", string(expense.SourceExtraUntracked)),
				).
				Value(&m.formSource),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = expensesStatePay
	m.table.Blur()

	return m, m.form.Init()
}

func (m ExpensesModel) updatePay(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = expensesStateBrowse
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

func (m ExpensesModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading expenses...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	var total, paid float64
	for _, e := range m.expenses {
		total += e.Amount
		paid += e.PaidAmount
	}

	header := fmt.Sprintf("%s: %s of %s paid",
		m.month.Key(), FormatMoney(paid), FormatMoney(total))

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if m.state == expensesStatePay && m.form != nil {
		idx := m.table.Cursor()
		name := ""
		if idx >= 0 && idx < len(m.expenses) {
			name = m.expenses[idx].Name
		}

		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render(fmt.Sprintf("Pay Expense\n\n%s\n\n%s", name, m.form.View()))

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *ExpensesModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.expenses))

	for _, e := range m.expenses {
		status := "unpaid"
		switch {
		case e.Paid:
			status = "paid"
		case e.PaidAmount > 0:
			status = "partial"
		}

		rows = append(rows, table.Row{
			e.Name,
			e.CategoryName,
			FormatMoney(e.Amount),
			FormatMoney(e.PaidAmount),
			FormatMoney(e.Remaining()),
			status,
		})
	}

	m.table.SetRows(rows)
}

// Messages

type loadExpensesMsg struct {
	expenses []*expense.Expense
	err      error
}

func (m ExpensesModel) loadCmd() tea.Cmd {
	month := m.month

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		expenses, err := m.expenseService.List(ctx, expense.ListFilter{
			PlanID: m.planID,
			Month:  &month.Month,
			Year:   &month.Year,
		})
		if err != nil {
			return loadExpensesMsg{err: err}
		}

		return loadExpensesMsg{expenses: expenses}
	}
}

type expenseActionMsg struct {
	status string
	err    error
}

func (m ExpensesModel) togglePaidCmd() tea.Cmd {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.expenses) {
		return nil
	}

	e := m.expenses[idx]

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		updated, err := m.expenseService.TogglePaid(ctx, m.planID, e.ID)
		if err != nil {
			return expenseActionMsg{err: err}
		}

		if updated.Paid {
			return expenseActionMsg{status: fmt.Sprintf("Marked %s paid", updated.Name)}
		}

		return expenseActionMsg{status: fmt.Sprintf("Marked %s unpaid", updated.Name)}
	}
}

func (m ExpensesModel) payCmd() tea.Cmd {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.expenses) {
		return nil
	}

	e := m.expenses[idx]

	amount, err := strconv.ParseFloat(strings.ReplaceAll(m.formAmount, ",", ""), 64)
	if err != nil {
		return func() tea.Msg { return expenseActionMsg{err: err} }
	}

	source := expense.Source(m.formSource)

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		p, err := m.expenseService.RecordPayment(ctx, expense.RecordPaymentParams{
			PlanID:    m.planID,
			ExpenseID: e.ID,
			Amount:    amount,
			Source:    source,
		})
		if err != nil {
			return expenseActionMsg{err: err}
		}

		return expenseActionMsg{status: fmt.Sprintf("Paid %s towards %s", FormatMoney(p.Amount), e.Name)}
	}
}
