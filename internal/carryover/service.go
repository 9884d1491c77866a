package carryover

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mwhite-dev/budgetd/internal/category"
	"github.com/mwhite-dev/budgetd/internal/debt"
	"github.com/mwhite-dev/budgetd/internal/expense"
	"github.com/mwhite-dev/budgetd/internal/money"
	"github.com/mwhite-dev/budgetd/internal/period"
	"github.com/mwhite-dev/budgetd/internal/plan"
)

//go:generate mockgen -source=service.go -destination=service_mock.go -package=carryover

// Expenses is the slice of the expense service the converter needs.
type Expenses interface {
	Get(ctx context.Context, planID, id uuid.UUID) (*expense.Expense, error)
	List(ctx context.Context, filter expense.ListFilter) ([]*expense.Expense, error)
	SyncPaymentsToPaidAmount(ctx context.Context, params expense.SyncParams) (*expense.SyncResult, error)
	SetPaidAmount(ctx context.Context, planID, id uuid.UUID, paidAmount float64) (*expense.Expense, float64, error)
}

// Debts is the slice of the debt service the converter needs.
type Debts interface {
	UpsertExpenseDebt(ctx context.Context, params debt.UpsertExpenseParams) (*debt.Debt, error)
	List(ctx context.Context, planID uuid.UUID) ([]*debt.Debt, error)
}

// Plans resolves the plan a sweep runs against.
type Plans interface {
	Get(ctx context.Context, id uuid.UUID) (*plan.Plan, error)
}

type Service struct {
	expenses Expenses
	debts    Debts
	plans    Plans
}

func NewService(expenses Expenses, debts Debts, plans Plans) *Service {
	return &Service{expenses: expenses, debts: debts, plans: plans}
}

type ProcessParams struct {
	PlanID uuid.UUID
	Year   int
	Month  int

	// OnlyPartialPayments converts partially paid expenses immediately,
	// ignoring the grace window.
	OnlyPartialPayments bool

	// ForceExpenseIDs convert regardless of grace.
	ForceExpenseIDs []uuid.UUID

	Now time.Time // zero value means now
}

// ProcessUnpaidExpenses sweeps one budget month of a plan, converting
// eligible unpaid expenses into derived debts. Allocations, non-debt
// categories and non-personal plans never convert.
func (s *Service) ProcessUnpaidExpenses(ctx context.Context, params ProcessParams) ([]*debt.Debt, error) {
	p, err := s.plans.Get(ctx, params.PlanID)
	if err != nil {
		return nil, fmt.Errorf("loading plan: %w", err)
	}

	if p.Kind != plan.KindPersonal {
		return nil, nil
	}

	now := params.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	expenses, err := s.expenses.List(ctx, expense.ListFilter{
		PlanID:     params.PlanID,
		Year:       &params.Year,
		Month:      &params.Month,
		OnlyUnpaid: true,
	})
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}

	forced := make(map[uuid.UUID]bool, len(params.ForceExpenseIDs))
	for _, id := range params.ForceExpenseIDs {
		forced[id] = true
	}

	var converted []*debt.Debt

	for _, e := range expenses {
		if !convertible(e) {
			continue
		}

		status := Classify(e, now, p.DueDay())
		if status == StatusPaid {
			continue
		}

		switch {
		case forced[e.ID]:
		case params.OnlyPartialPayments:
			if e.PaidAmount <= 0 {
				continue
			}
		default:
			if status != StatusOverdue {
				continue
			}
		}

		d, err := s.link(ctx, e)
		if err != nil {
			return nil, err
		}

		if d != nil {
			converted = append(converted, d)
		}
	}

	return converted, nil
}

// ProcessPastMonthsUnpaidExpenses converts every unpaid expense from budget
// months strictly before the current one. No grace gate: those months are
// already behind us.
func (s *Service) ProcessPastMonthsUnpaidExpenses(ctx context.Context, planID uuid.UUID, now time.Time) ([]*debt.Debt, error) {
	p, err := s.plans.Get(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("loading plan: %w", err)
	}

	if p.Kind != plan.KindPersonal {
		return nil, nil
	}

	if now.IsZero() {
		now = time.Now().UTC()
	}

	current := period.FromDate(now)

	expenses, err := s.expenses.List(ctx, expense.ListFilter{
		PlanID:      planID,
		BeforeYear:  &current.Year,
		BeforeMonth: &current.Month,
		OnlyUnpaid:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("listing past expenses: %w", err)
	}

	var converted []*debt.Debt

	for _, e := range expenses {
		if !convertible(e) {
			continue
		}

		d, err := s.link(ctx, e)
		if err != nil {
			return nil, err
		}

		if d != nil {
			converted = append(converted, d)
		}
	}

	return converted, nil
}

// ProcessOverdueExpensesToDebts is the read-path sweep behind the debts
// view: any unpaid expense of the plan converts once it is overdue past
// grace or carries a partial payment. It deliberately skips the plan-kind
// check so a debts view over any plan stays consistent.
func (s *Service) ProcessOverdueExpensesToDebts(ctx context.Context, planID uuid.UUID, now time.Time) ([]*debt.Debt, error) {
	p, err := s.plans.Get(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("loading plan: %w", err)
	}

	if now.IsZero() {
		now = time.Now().UTC()
	}

	expenses, err := s.expenses.List(ctx, expense.ListFilter{
		PlanID:     planID,
		OnlyUnpaid: true,
	})
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}

	var converted []*debt.Debt

	for _, e := range expenses {
		if !convertible(e) {
			continue
		}

		status := Classify(e, now, p.DueDay())
		if status != StatusOverdue && e.PaidAmount <= 0 {
			continue
		}

		if status == StatusPaid {
			continue
		}

		d, err := s.link(ctx, e)
		if err != nil {
			return nil, err
		}

		if d != nil {
			converted = append(converted, d)
		}
	}

	return converted, nil
}

func convertible(e *expense.Expense) bool {
	if e.IsAllocation {
		return false
	}

	return !category.IsNonDebt(e.CategoryName)
}

func (s *Service) link(ctx context.Context, e *expense.Expense) (*debt.Debt, error) {
	d, err := s.debts.UpsertExpenseDebt(ctx, debt.UpsertExpenseParams{
		PlanID:          e.PlanID,
		ExpenseID:       e.ID,
		MonthKey:        period.Month{Year: e.Year, Month: e.Month}.Key(),
		Year:            e.Year,
		CategoryID:      e.CategoryID,
		CategoryName:    e.CategoryName,
		ExpenseName:     e.Name,
		RemainingAmount: e.Remaining(),
	})
	if err != nil {
		return nil, fmt.Errorf("linking expense %s: %w", e.ID, err)
	}

	return d, nil
}

// Item is one row of the carryover section in the debts view. Synthetic
// paid-late entries carry no debt and cannot be acted on.
type Item struct {
	ID         string
	DebtID     *uuid.UUID
	ExpenseID  uuid.UUID
	Name       string
	Amount     float64
	PaidAmount float64
	Remaining  float64
	Status     Status
	DueDate    time.Time
	PaidLate   bool
}

// ExpenseDebts builds the carryover rows for the debts view. Live derived
// debts are listed through the same overdue-or-partial gate as the sweep;
// when the debt has recorded more paid than its backing expense, the
// expense's ledger is caught up through the synchronizer. Expenses settled
// after their grace window appear as read-only paid-late entries.
func (s *Service) ExpenseDebts(ctx context.Context, planID uuid.UUID, now time.Time) ([]*Item, error) {
	p, err := s.plans.Get(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("loading plan: %w", err)
	}

	if now.IsZero() {
		now = time.Now().UTC()
	}

	debts, err := s.debts.List(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("listing debts: %w", err)
	}

	var items []*Item

	for _, d := range debts {
		if !d.IsExpenseDerived() || d.SourceExpenseID == nil {
			continue
		}

		e, err := s.expenses.Get(ctx, planID, *d.SourceExpenseID)
		if err != nil {
			if errors.Is(err, expense.ErrNotFound) {
				// Orphaned debt: the backing expense is gone but money
				// is still owed, so the row stays visible.
				if d.CurrentBalance > 0 {
					items = append(items, orphanItem(d))
				}

				continue
			}

			return nil, fmt.Errorf("loading backing expense: %w", err)
		}

		e, err = s.repairPaidAmount(ctx, d, e)
		if err != nil {
			return nil, err
		}

		status := Classify(e, now, p.DueDay())
		if status != StatusOverdue && e.PaidAmount <= 0 {
			continue
		}

		if status == StatusPaid {
			continue
		}

		debtID := d.ID
		items = append(items, &Item{
			ID:         d.ID.String(),
			DebtID:     &debtID,
			ExpenseID:  e.ID,
			Name:       d.Name,
			Amount:     d.InitialBalance,
			PaidAmount: e.PaidAmount,
			Remaining:  e.Remaining(),
			Status:     status,
			DueDate:    DueDate(e, p.DueDay()),
		})
	}

	late, err := s.paidLateItems(ctx, planID, p.DueDay(), now)
	if err != nil {
		return nil, err
	}

	return append(items, late...), nil
}

func orphanItem(d *debt.Debt) *Item {
	debtID := d.ID

	item := &Item{
		ID:         d.ID.String(),
		DebtID:     &debtID,
		Name:       d.Name,
		Amount:     d.InitialBalance,
		PaidAmount: d.PaidAmount,
		Remaining:  d.CurrentBalance,
		Status:     StatusOverdue,
	}
	if d.SourceExpenseID != nil {
		item.ExpenseID = *d.SourceExpenseID
	}

	return item
}

// repairPaidAmount lifts the expense's paid amount when the derived debt has
// recorded more. Repair only moves upward: the debt side cannot unknow a
// payment.
func (s *Service) repairPaidAmount(ctx context.Context, d *debt.Debt, e *expense.Expense) (*expense.Expense, error) {
	if d.PaidAmount <= e.PaidAmount+money.DriftTolerance {
		return e, nil
	}

	result, err := s.expenses.SyncPaymentsToPaidAmount(ctx, expense.SyncParams{
		PlanID:            e.PlanID,
		ExpenseID:         e.ID,
		DesiredPaidAmount: d.PaidAmount,
	})
	if err != nil {
		// The view still renders from the debt's numbers; the next
		// reconciliation pass retries the ledger.
		slog.Error("catching up expense ledger from debt",
			"expense_id", e.ID,
			"debt_id", d.ID,
			"error", err,
		)

		return e, nil
	}

	repaired, _, err := s.expenses.SetPaidAmount(ctx, e.PlanID, e.ID, result.FinalPaidAmount)
	if err != nil {
		return nil, fmt.Errorf("persisting repaired paid amount: %w", err)
	}

	return repaired, nil
}

// paidLateItems synthesizes read-only rows for expenses that were settled
// after their grace window, so the month's history still shows the slip.
func (s *Service) paidLateItems(ctx context.Context, planID uuid.UUID, dueDay int, now time.Time) ([]*Item, error) {
	current := period.FromDate(now)

	expenses, err := s.expenses.List(ctx, expense.ListFilter{
		PlanID: planID,
		Year:   &current.Year,
		Month:  &current.Month,
	})
	if err != nil {
		return nil, fmt.Errorf("listing settled expenses: %w", err)
	}

	var items []*Item

	for _, e := range expenses {
		if !e.Paid || !convertible(e) {
			continue
		}

		// Settlement time comes from the last payment; rows predating the
		// payment metadata fall back to the update timestamp.
		settledAt := e.LastPaymentAt
		if settledAt == nil {
			settledAt = e.UpdatedAt
		}

		deadline := DueDate(e, dueDay).AddDate(0, 0, debt.GraceDays)
		if settledAt == nil || settledAt.Before(deadline) {
			continue
		}

		items = append(items, &Item{
			ID:         "expense-history-" + e.ID.String(),
			ExpenseID:  e.ID,
			Name:       e.Name,
			Amount:     e.Amount,
			PaidAmount: e.PaidAmount,
			Status:     StatusPaid,
			DueDate:    DueDate(e, dueDay),
			PaidLate:   true,
		})
	}

	return items, nil
}
