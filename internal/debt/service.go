package debt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mwhite-dev/budgetd/internal/expense"
	"github.com/mwhite-dev/budgetd/internal/money"
	"github.com/mwhite-dev/budgetd/internal/period"
)

var (
	ErrNotFound           = errors.New("debt not found")
	ErrInvalidAmount      = errors.New("payment amount must be positive")
	ErrAlreadyPaid        = errors.New("debt has no outstanding balance")
	ErrSameCard           = errors.New("cannot pay a card debt with the same card")
	ErrCardNotFound       = errors.New("card debt not found")
	ErrNotACard           = errors.New("selected debt is not a card")
	ErrNoCard             = errors.New("no card debt available for this plan")
	ErrAmbiguousCard      = errors.New("multiple card debts available, specify one")
	ErrExpenseDerived     = errors.New("cannot reduce an expense-derived debt from an expense payment")
	ErrDerivedOutstanding = errors.New("expense-derived debt still has an outstanding balance")
	ErrNoPayments         = errors.New("no payments to undo")
	ErrNotMostRecent      = errors.New("only the most recent payment can be undone")
	ErrDifferentMonth     = errors.New("payments from previous months cannot be undone")
	ErrCardBalanceSpent   = errors.New("card balance has dropped below the payment amount")
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=debt
type Repository interface {
	GetDebt(ctx context.Context, planID, id uuid.UUID) (*Debt, error)
	GetDebtBySourceExpense(ctx context.Context, planID, expenseID uuid.UUID, monthKey string) (*Debt, error)
	ListDebts(ctx context.Context, planID uuid.UUID) ([]*Debt, error)
	CreateDebt(ctx context.Context, d *Debt) error
	UpdateDebt(ctx context.Context, d *Debt) error
	DeleteDebt(ctx context.Context, id uuid.UUID) error

	// ListPayments returns the ledger rows for a debt, newest first.
	ListPayments(ctx context.Context, debtID uuid.UUID) ([]*Payment, error)
	SumPayments(ctx context.Context, debtID uuid.UUID) (float64, error)
	SumPaymentsBetween(ctx context.Context, debtID uuid.UUID, start, end time.Time) (float64, error)

	BeginPayment(ctx context.Context) (PaymentTx, error)
}

// PaymentTx scopes a debt payment, its card side effect and its
// expense-side mirror to a single database transaction.
type PaymentTx interface {
	GetDebt(ctx context.Context, planID, id uuid.UUID) (*Debt, error)
	ListCardDebts(ctx context.Context, planID uuid.UUID) ([]*Debt, error)
	UpdateBalances(ctx context.Context, d *Debt) error

	CreatePayment(ctx context.Context, p *Payment) error
	DeletePayment(ctx context.Context, id uuid.UUID) error

	GetExpense(ctx context.Context, planID, id uuid.UUID) (*expense.Expense, error)
	CreateExpensePayment(ctx context.Context, p *expense.Payment) error
	DeleteExpensePaymentMatching(ctx context.Context, expenseID uuid.UUID, amount float64, paidAt time.Time) error
	UpdateExpensePaidState(ctx context.Context, id uuid.UUID, paidAmount float64, paid bool) error

	Commit() error
	Rollback() error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, planID, id uuid.UUID) (*Debt, error) {
	return s.repo.GetDebt(ctx, planID, id)
}

func (s *Service) List(ctx context.Context, planID uuid.UUID) ([]*Debt, error) {
	return s.repo.ListDebts(ctx, planID)
}

func (s *Service) Payments(ctx context.Context, debtID uuid.UUID) ([]*Payment, error) {
	return s.repo.ListPayments(ctx, debtID)
}

type CreateParams struct {
	PlanID            uuid.UUID
	Name              string
	Type              Type
	InitialBalance    float64
	MonthlyMinimum    float64
	InterestRate      float64
	InstallmentMonths *int
	CreditLimit       *float64
	DueDate           *time.Time
	DueDay            *int
}

// Create adds a standalone debt. The scheduled monthly amount spreads the
// balance over the installment months and is raised to the monthly minimum
// when one is set.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Debt, error) {
	initial := money.Round2(params.InitialBalance)

	amount := initial
	if params.InstallmentMonths != nil && *params.InstallmentMonths > 0 {
		amount = money.Round2(initial / float64(*params.InstallmentMonths))
	}

	if params.MonthlyMinimum > 0 && amount < params.MonthlyMinimum {
		amount = params.MonthlyMinimum
	}

	d := &Debt{
		PlanID:            params.PlanID,
		Name:              params.Name,
		Type:              params.Type,
		InitialBalance:    initial,
		CurrentBalance:    initial,
		Amount:            amount,
		MonthlyMinimum:    params.MonthlyMinimum,
		InterestRate:      params.InterestRate,
		InstallmentMonths: params.InstallmentMonths,
		CreditLimit:       params.CreditLimit,
		DueDate:           params.DueDate,
		DueDay:            params.DueDay,
	}

	if err := s.repo.CreateDebt(ctx, d); err != nil {
		return nil, fmt.Errorf("creating debt: %w", err)
	}

	return d, nil
}

type UpdateParams struct {
	Name                     *string
	MonthlyMinimum           *float64
	InterestRate             *float64
	DueDate                  *time.Time
	DueDay                   *int
	CreditLimit              *float64
	DefaultPaymentSource     *string
	DefaultPaymentCardDebtID *uuid.UUID
}

func (s *Service) Update(ctx context.Context, planID, id uuid.UUID, params UpdateParams) (*Debt, error) {
	d, err := s.repo.GetDebt(ctx, planID, id)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		d.Name = *params.Name
	}

	if params.MonthlyMinimum != nil {
		d.MonthlyMinimum = *params.MonthlyMinimum
	}

	if params.InterestRate != nil {
		d.InterestRate = *params.InterestRate
	}

	if params.DueDate != nil {
		d.DueDate = params.DueDate
	}

	if params.DueDay != nil {
		d.DueDay = params.DueDay
	}

	if params.CreditLimit != nil {
		d.CreditLimit = params.CreditLimit
	}

	if params.DefaultPaymentSource != nil {
		d.DefaultPaymentSource = params.DefaultPaymentSource
	}

	if params.DefaultPaymentCardDebtID != nil {
		d.DefaultPaymentCardDebtID = params.DefaultPaymentCardDebtID
	}

	if err := s.repo.UpdateDebt(ctx, d); err != nil {
		return nil, fmt.Errorf("updating debt: %w", err)
	}

	return d, nil
}

// Delete removes a debt. Expense-derived debts refuse deletion while money
// is still owed: the backing expense is the place to settle them.
func (s *Service) Delete(ctx context.Context, planID, id uuid.UUID) error {
	d, err := s.repo.GetDebt(ctx, planID, id)
	if err != nil {
		return err
	}

	if d.IsExpenseDerived() && d.CurrentBalance > 0 {
		return ErrDerivedOutstanding
	}

	return s.repo.DeleteDebt(ctx, id)
}

type UpsertExpenseParams struct {
	PlanID          uuid.UUID
	ExpenseID       uuid.UUID
	MonthKey        string
	Year            int
	CategoryID      *uuid.UUID
	CategoryName    string
	ExpenseName     string
	RemainingAmount float64
}

// UpsertExpenseDebt keeps the derived debt for an expense-month pair in
// step with the expense's remaining amount. A settled expense zeroes the
// debt but never deletes it; a live one creates or updates it. The initial
// balance only ever ratchets up, so payment history stays explainable.
func (s *Service) UpsertExpenseDebt(ctx context.Context, params UpsertExpenseParams) (*Debt, error) {
	remaining := money.Round2(params.RemainingAmount)

	existing, err := s.repo.GetDebtBySourceExpense(ctx, params.PlanID, params.ExpenseID, params.MonthKey)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("looking up derived debt: %w", err)
	}

	if remaining <= 0 {
		if existing == nil {
			return nil, nil
		}

		existing.CurrentBalance = 0
		existing.Paid = true
		existing.PaidAmount = existing.InitialBalance

		if err := s.repo.UpdateDebt(ctx, existing); err != nil {
			return nil, fmt.Errorf("zeroing derived debt: %w", err)
		}

		return existing, nil
	}

	sourceType := SourceTypeExpense
	expenseID := params.ExpenseID
	monthKey := params.MonthKey

	if existing == nil {
		d := &Debt{
			PlanID:            params.PlanID,
			Name:              derivedDebtName(params.CategoryName, params.ExpenseName, params.MonthKey, params.Year),
			Type:              TypeOther,
			InitialBalance:    remaining,
			CurrentBalance:    remaining,
			Amount:            remaining,
			SourceType:        &sourceType,
			SourceExpenseID:   &expenseID,
			SourceMonthKey:    &monthKey,
			SourceCategoryID:  params.CategoryID,
			SourceExpenseName: &params.ExpenseName,
		}

		if params.CategoryName != "" {
			d.SourceCategoryName = &params.CategoryName
		}

		if err := s.repo.CreateDebt(ctx, d); err != nil {
			return nil, fmt.Errorf("creating derived debt: %w", err)
		}

		return d, nil
	}

	existing.CurrentBalance = remaining
	if remaining > existing.InitialBalance {
		existing.InitialBalance = remaining
	}

	existing.PaidAmount = money.Floor0(money.Round2(existing.InitialBalance - remaining))
	existing.Paid = false

	existing.SourceCategoryID = params.CategoryID
	existing.SourceExpenseName = &params.ExpenseName

	if params.CategoryName != "" {
		existing.SourceCategoryName = &params.CategoryName
	}

	if err := s.repo.UpdateDebt(ctx, existing); err != nil {
		return nil, fmt.Errorf("updating derived debt: %w", err)
	}

	return existing, nil
}

// SyncExpenseDebt pushes an expense's remaining amount into its derived
// debt. Every payment action on an expense runs through here, so a partial
// payment grows a debt immediately and settling the expense zeroes it.
func (s *Service) SyncExpenseDebt(ctx context.Context, e *expense.Expense) error {
	_, err := s.UpsertExpenseDebt(ctx, UpsertExpenseParams{
		PlanID:          e.PlanID,
		ExpenseID:       e.ID,
		MonthKey:        period.Month{Year: e.Year, Month: e.Month}.Key(),
		Year:            e.Year,
		CategoryID:      e.CategoryID,
		CategoryName:    e.CategoryName,
		ExpenseName:     e.Name,
		RemainingAmount: e.Remaining(),
	})

	return err
}

func derivedDebtName(category, name, monthKey string, year int) string {
	label := name
	if category != "" {
		label = category + ": " + name
	}

	return fmt.Sprintf("%s (%s %d)", label, monthKey, year)
}

type AddPaymentParams struct {
	PlanID     uuid.UUID
	DebtID     uuid.UUID
	Amount     float64
	Source     string
	CardDebtID *uuid.UUID
	PaidAt     time.Time // zero value means now
}

// AddPayment settles part of a debt. The applied amount clamps to the
// outstanding balance, card-funded payments push the charge onto another
// card, and derived debts mirror the payment into their backing expense so
// both ledgers tell the same story.
func (s *Service) AddPayment(ctx context.Context, params AddPaymentParams) (*Payment, error) {
	if params.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	paidAt := params.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now().UTC()
	}

	tx, err := s.repo.BeginPayment(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning payment: %w", err)
	}
	defer tx.Rollback()

	d, err := tx.GetDebt(ctx, params.PlanID, params.DebtID)
	if err != nil {
		return nil, err
	}

	if d.CurrentBalance <= 0 {
		return nil, ErrAlreadyPaid
	}

	applied := params.Amount
	if applied > d.CurrentBalance {
		applied = d.CurrentBalance
	}

	applied = money.Round2(applied)

	payment := &Payment{
		DebtID: d.ID,
		Amount: applied,
		PaidAt: paidAt,
		Source: params.Source,
	}

	if expense.Source(params.Source) == expense.SourceCreditCard {
		card, err := s.resolveCard(ctx, tx, params.PlanID, params.CardDebtID, d.ID)
		if err != nil {
			return nil, err
		}

		payment.CardDebtID = &card.ID

		card.ApplyCharge(applied)

		if err := tx.UpdateBalances(ctx, card); err != nil {
			return nil, fmt.Errorf("charging card: %w", err)
		}
	}

	if err := tx.CreatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("creating debt payment: %w", err)
	}

	d.CurrentBalance = money.Floor0(money.Round2(d.CurrentBalance - applied))
	d.PaidAmount = money.Round2(d.PaidAmount + applied)
	d.Paid = d.CurrentBalance <= 0

	if err := tx.UpdateBalances(ctx, d); err != nil {
		return nil, fmt.Errorf("updating debt balances: %w", err)
	}

	if d.IsExpenseDerived() && d.SourceExpenseID != nil {
		if err := s.mirrorIntoExpense(ctx, tx, params.PlanID, *d.SourceExpenseID, payment); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing payment: %w", err)
	}

	return payment, nil
}

// mirrorIntoExpense appends the expense-side twin of a derived-debt payment
// with the same amount and timestamp, so reconciliation can match the pair
// by key later.
func (s *Service) mirrorIntoExpense(ctx context.Context, tx PaymentTx, planID, expenseID uuid.UUID, p *Payment) error {
	e, err := tx.GetExpense(ctx, planID, expenseID)
	if err != nil {
		if errors.Is(err, expense.ErrNotFound) {
			// The backing expense is gone; the debt stands on its own.
			return nil
		}

		return fmt.Errorf("loading backing expense: %w", err)
	}

	mirror := &expense.Payment{
		ExpenseID:  e.ID,
		Amount:     p.Amount,
		PaidAt:     p.PaidAt,
		Source:     expense.Source(p.Source),
		CardDebtID: p.CardDebtID,
	}
	if !mirror.Source.Valid() {
		mirror.Source = expense.SourceIncome
	}

	if err := tx.CreateExpensePayment(ctx, mirror); err != nil {
		return fmt.Errorf("mirroring payment into expense: %w", err)
	}

	nextPaid := money.Clamp(money.Round2(e.PaidAmount+p.Amount), 0, e.Amount)
	isPaid := e.Amount > 0 && nextPaid >= e.Amount

	if err := tx.UpdateExpensePaidState(ctx, e.ID, nextPaid, isPaid); err != nil {
		return fmt.Errorf("updating backing expense: %w", err)
	}

	return nil
}

func (s *Service) resolveCard(ctx context.Context, tx PaymentTx, planID uuid.UUID, explicit *uuid.UUID, targetDebtID uuid.UUID) (*Debt, error) {
	if explicit != nil {
		if *explicit == targetDebtID {
			return nil, ErrSameCard
		}

		card, err := tx.GetDebt(ctx, planID, *explicit)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, ErrCardNotFound
			}

			return nil, err
		}

		if !card.IsCard() {
			return nil, ErrNotACard
		}

		return card, nil
	}

	cards, err := tx.ListCardDebts(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("listing cards: %w", err)
	}

	kept := cards[:0]

	for _, c := range cards {
		if c.ID != targetDebtID {
			kept = append(kept, c)
		}
	}

	switch len(kept) {
	case 0:
		return nil, ErrNoCard
	case 1:
		return kept[0], nil
	default:
		return nil, ErrAmbiguousCard
	}
}

// PayFromExpense reduces a standalone debt because an expense payment named
// it. Derived debts are refused: their balance follows the expense through
// the carryover link, and paying them here would double-count.
func (s *Service) PayFromExpense(ctx context.Context, planID, debtID uuid.UUID, amount float64, source expense.Source, paidAt time.Time) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	tx, err := s.repo.BeginPayment(ctx)
	if err != nil {
		return fmt.Errorf("beginning payment: %w", err)
	}
	defer tx.Rollback()

	d, err := tx.GetDebt(ctx, planID, debtID)
	if err != nil {
		return err
	}

	if d.IsExpenseDerived() {
		return ErrExpenseDerived
	}

	if d.CurrentBalance <= 0 {
		return ErrAlreadyPaid
	}

	applied := amount
	if applied > d.CurrentBalance {
		applied = d.CurrentBalance
	}

	applied = money.Round2(applied)

	payment := &Payment{
		DebtID: d.ID,
		Amount: applied,
		PaidAt: paidAt,
		Source: string(source),
	}

	if err := tx.CreatePayment(ctx, payment); err != nil {
		return fmt.Errorf("creating debt payment: %w", err)
	}

	d.CurrentBalance = money.Floor0(money.Round2(d.CurrentBalance - applied))
	d.PaidAmount = money.Round2(d.PaidAmount + applied)
	d.Paid = d.CurrentBalance <= 0

	if err := tx.UpdateBalances(ctx, d); err != nil {
		return fmt.Errorf("updating debt balances: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing payment: %w", err)
	}

	return nil
}

// UndoPayment reverses a debt payment. Only the most recent payment can go,
// and only within the month it was made; older history is settled fact.
func (s *Service) UndoPayment(ctx context.Context, planID, debtID, paymentID uuid.UUID, now time.Time) error {
	if now.IsZero() {
		now = time.Now().UTC()
	}

	payments, err := s.repo.ListPayments(ctx, debtID)
	if err != nil {
		return fmt.Errorf("listing payments: %w", err)
	}

	if len(payments) == 0 {
		return ErrNoPayments
	}

	latest := payments[0]
	if latest.ID != paymentID {
		return ErrNotMostRecent
	}

	if period.FromDate(latest.PaidAt) != period.FromDate(now) {
		return ErrDifferentMonth
	}

	tx, err := s.repo.BeginPayment(ctx)
	if err != nil {
		return fmt.Errorf("beginning undo: %w", err)
	}
	defer tx.Rollback()

	d, err := tx.GetDebt(ctx, planID, debtID)
	if err != nil {
		return err
	}

	if latest.CardDebtID != nil {
		card, err := tx.GetDebt(ctx, planID, *latest.CardDebtID)
		if err != nil {
			return fmt.Errorf("loading funding card: %w", err)
		}

		if card.CurrentBalance < latest.Amount {
			return ErrCardBalanceSpent
		}

		card.CurrentBalance = money.Round2(card.CurrentBalance - latest.Amount)
		card.Paid = card.CurrentBalance <= 0

		if err := tx.UpdateBalances(ctx, card); err != nil {
			return fmt.Errorf("reversing card charge: %w", err)
		}
	}

	d.CurrentBalance = money.Clamp(money.Round2(d.CurrentBalance+latest.Amount), 0, d.InitialBalance)
	d.PaidAmount = money.Floor0(money.Round2(d.PaidAmount - latest.Amount))
	d.Paid = false

	if err := tx.UpdateBalances(ctx, d); err != nil {
		return fmt.Errorf("updating debt balances: %w", err)
	}

	if d.IsExpenseDerived() && d.SourceExpenseID != nil {
		if err := s.unwindExpenseMirror(ctx, tx, planID, *d.SourceExpenseID, latest); err != nil {
			return err
		}
	}

	if err := tx.DeletePayment(ctx, latest.ID); err != nil {
		return fmt.Errorf("deleting payment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing undo: %w", err)
	}

	return nil
}

func (s *Service) unwindExpenseMirror(ctx context.Context, tx PaymentTx, planID, expenseID uuid.UUID, p *Payment) error {
	e, err := tx.GetExpense(ctx, planID, expenseID)
	if err != nil {
		if errors.Is(err, expense.ErrNotFound) {
			return nil
		}

		return fmt.Errorf("loading backing expense: %w", err)
	}

	if err := tx.DeleteExpensePaymentMatching(ctx, e.ID, p.Amount, p.PaidAt); err != nil {
		return fmt.Errorf("removing mirrored expense payment: %w", err)
	}

	nextPaid := money.Floor0(money.Round2(e.PaidAmount - p.Amount))
	isPaid := e.Amount > 0 && nextPaid >= e.Amount

	if err := tx.UpdateExpensePaidState(ctx, e.ID, nextPaid, isPaid); err != nil {
		return fmt.Errorf("updating backing expense: %w", err)
	}

	return nil
}

// ProcessMissedPayments rolls schedules forward for standalone debts whose
// due date plus grace has passed: the unpaid part of the scheduled amount
// accrues onto the balance and the due date advances a month. Legacy debts
// with only a due day accrue at most once per previous month, guarded by
// the last accrual month marker.
func (s *Service) ProcessMissedPayments(ctx context.Context, planID uuid.UUID, now time.Time) ([]*Debt, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}

	today := period.Truncate(now)

	debts, err := s.repo.ListDebts(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("listing debts: %w", err)
	}

	var accrued []*Debt

	for _, d := range debts {
		if d.IsExpenseDerived() || d.IsCard() || d.CurrentBalance <= 0 || d.Amount <= 0 {
			continue
		}

		changed := false

		switch {
		case d.DueDate != nil:
			c, err := s.accrueRollingSchedule(ctx, d, today)
			if err != nil {
				return nil, err
			}

			changed = c
		case d.DueDay != nil:
			c, err := s.accrueLegacySchedule(ctx, d, today)
			if err != nil {
				return nil, err
			}

			changed = c
		}

		if changed {
			if err := s.repo.UpdateDebt(ctx, d); err != nil {
				return nil, fmt.Errorf("persisting accrual: %w", err)
			}

			accrued = append(accrued, d)
		}
	}

	return accrued, nil
}

func (s *Service) accrueRollingSchedule(ctx context.Context, d *Debt, today time.Time) (bool, error) {
	changed := false

	due := period.Truncate(*d.DueDate)

	// Walk forward cycle by cycle until the schedule catches up with today.
	for !today.Before(due.AddDate(0, 0, GraceDays)) {
		cycleStart := due.AddDate(0, -1, 0)
		cycleEnd := due.AddDate(0, 0, GraceDays)

		paidInCycle, err := s.repo.SumPaymentsBetween(ctx, d.ID, cycleStart, cycleEnd)
		if err != nil {
			return false, fmt.Errorf("summing cycle payments: %w", err)
		}

		shortfall := money.Floor0(money.Round2(d.Amount - paidInCycle))
		if shortfall > 0 {
			d.CurrentBalance = money.Round2(d.CurrentBalance + shortfall)
			d.InitialBalance = money.Round2(d.InitialBalance + shortfall)
		}

		due = due.AddDate(0, 1, 0)
		d.DueDate = &due
		changed = true
	}

	return changed, nil
}

func (s *Service) accrueLegacySchedule(ctx context.Context, d *Debt, today time.Time) (bool, error) {
	prev := period.FromDate(today).AddMonths(-1)
	if d.LastAccrualMonth != nil && *d.LastAccrualMonth == prev.Key() {
		return false, nil
	}

	day := *d.DueDay

	lastOfPrev := time.Date(prev.Year, time.Month(prev.Month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > lastOfPrev {
		day = lastOfPrev
	}

	due := time.Date(prev.Year, time.Month(prev.Month), day, 0, 0, 0, 0, time.UTC)
	if today.Before(due.AddDate(0, 0, GraceDays)) {
		return false, nil
	}

	monthStart := time.Date(prev.Year, time.Month(prev.Month), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, 0)

	paidInMonth, err := s.repo.SumPaymentsBetween(ctx, d.ID, monthStart, monthEnd)
	if err != nil {
		return false, fmt.Errorf("summing month payments: %w", err)
	}

	shortfall := money.Floor0(money.Round2(d.Amount - paidInMonth))
	if shortfall > 0 {
		d.CurrentBalance = money.Round2(d.CurrentBalance + shortfall)
		d.InitialBalance = money.Round2(d.InitialBalance + shortfall)
	}

	marker := prev.Key()
	d.LastAccrualMonth = &marker

	return true, nil
}

// Summary is the plan-level debt rollup the debts view renders.
type Summary struct {
	TotalBalance float64
	ActiveCount  int
	RegularDebts []*Debt
	ExpenseDebts []*Debt
	CardDebts    []*Debt
}

// SummaryForPlan splits the plan's debts into regular, card and
// expense-derived buckets. Regular debts report their paid amount from the
// payment ledger rather than the cached column.
func (s *Service) SummaryForPlan(ctx context.Context, planID uuid.UUID) (*Summary, error) {
	debts, err := s.repo.ListDebts(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("listing debts: %w", err)
	}

	summary := &Summary{}

	for _, d := range debts {
		if d.CurrentBalance > 0 {
			summary.TotalBalance = money.Round2(summary.TotalBalance + d.CurrentBalance)
			summary.ActiveCount++
		}

		switch {
		case d.IsExpenseDerived():
			summary.ExpenseDebts = append(summary.ExpenseDebts, d)
		case d.IsCard():
			summary.CardDebts = append(summary.CardDebts, d)
		default:
			recorded, err := s.repo.SumPayments(ctx, d.ID)
			if err != nil {
				return nil, fmt.Errorf("summing payments: %w", err)
			}

			d.PaidAmount = money.Round2(recorded)
			summary.RegularDebts = append(summary.RegularDebts, d)
		}
	}

	return summary, nil
}
