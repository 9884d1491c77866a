package expense

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mwhite-dev/budgetd/internal/money"
)

var (
	ErrNotFound      = errors.New("expense not found")
	ErrInvalidAmount = errors.New("payment amount must be positive")
	ErrInvalidSource = errors.New("unknown payment source")
	ErrCardNotFound  = errors.New("card debt not found")
	ErrNotACard      = errors.New("selected debt is not a card")
	ErrNoCard        = errors.New("no card debt available for this plan")
	ErrAmbiguousCard = errors.New("multiple card debts available, specify one")
	ErrSameCard      = errors.New("cannot pay a card debt with the same card")
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=expense
type Repository interface {
	GetExpense(ctx context.Context, planID, id uuid.UUID) (*Expense, error)
	ListExpenses(ctx context.Context, filter ListFilter) ([]*Expense, error)
	UpdateExpense(ctx context.Context, e *Expense) error
	UpdatePaidState(ctx context.Context, id uuid.UUID, paidAmount float64, paid bool) error

	// ListPayments returns the ledger rows for an expense, newest first.
	ListPayments(ctx context.Context, expenseID uuid.UUID) ([]*Payment, error)
	DeletePayment(ctx context.Context, id uuid.UUID) error
	UpdatePaymentAmount(ctx context.Context, id uuid.UUID, amount float64) error

	BeginPayment(ctx context.Context) (PaymentTx, error)
}

// PaymentTx scopes one payment's ledger write and its balance side effects
// to a single database transaction.
type PaymentTx interface {
	GetExpense(ctx context.Context, planID, id uuid.UUID) (*Expense, error)
	CreatePayment(ctx context.Context, p *Payment) error
	UpdatePaidState(ctx context.Context, id uuid.UUID, paidAmount float64, paid bool) error

	GetCard(ctx context.Context, planID, debtID uuid.UUID) (*Card, error)
	ListCards(ctx context.Context, planID uuid.UUID) ([]*Card, error)
	UpdateCard(ctx context.Context, c *Card) error

	DeductSavings(ctx context.Context, planID uuid.UUID, amount float64) (float64, error)

	Commit() error
	Rollback() error
}

// DebtLinker is the debt side of a payment: it reduces a standalone debt
// the payment names, and keeps the expense's derived debt in step with the
// new remaining amount. Implemented by the debt service; calls run after
// the expense-side transaction commits, with reconciliation covering
// partial failures.
type DebtLinker interface {
	PayFromExpense(ctx context.Context, planID, debtID uuid.UUID, amount float64, source Source, paidAt time.Time) error
	SyncExpenseDebt(ctx context.Context, e *Expense) error
}

type Service struct {
	repo  Repository
	debts DebtLinker
}

func NewService(repo Repository, debts DebtLinker) *Service {
	return &Service{repo: repo, debts: debts}
}

type ListFilter struct {
	PlanID      uuid.UUID
	Month       *int
	Year        *int
	BeforeYear  *int // with BeforeMonth: strictly earlier budget months
	BeforeMonth *int
	OnlyUnpaid  bool
}

func (s *Service) Get(ctx context.Context, planID, id uuid.UUID) (*Expense, error) {
	return s.repo.GetExpense(ctx, planID, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Expense, error) {
	return s.repo.ListExpenses(ctx, filter)
}

func (s *Service) Payments(ctx context.Context, expenseID uuid.UUID) ([]*Payment, error) {
	return s.repo.ListPayments(ctx, expenseID)
}

type RecordPaymentParams struct {
	PlanID     uuid.UUID
	ExpenseID  uuid.UUID
	Amount     float64
	Source     Source
	CardDebtID *uuid.UUID // explicit card target for credit_card payments
	DebtID     *uuid.UUID // standalone debt this payment also settles
	PaidAt     time.Time  // zero value means now
}

// RecordPayment routes a payment onto the expense ledger and applies the
// funding source's side effect: savings payments drain the savings pot,
// card payments push a charge onto the chosen card. The ledger row and the
// expense's paid state commit atomically; syncing the derived debt and
// reducing a named standalone debt happen after commit.
func (s *Service) RecordPayment(ctx context.Context, params RecordPaymentParams) (*Payment, error) {
	if params.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	if !params.Source.Valid() {
		return nil, ErrInvalidSource
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

	e, err := tx.GetExpense(ctx, params.PlanID, params.ExpenseID)
	if err != nil {
		return nil, err
	}

	payment := &Payment{
		ExpenseID: e.ID,
		Amount:    money.Round2(params.Amount),
		PaidAt:    paidAt,
		Source:    params.Source,
	}

	switch params.Source {
	case SourceCreditCard:
		card, err := s.resolveCard(ctx, tx, params.PlanID, params.CardDebtID, params.DebtID)
		if err != nil {
			return nil, err
		}

		payment.CardDebtID = &card.ID

		card.ApplyCharge(payment.Amount)

		if err := tx.UpdateCard(ctx, card); err != nil {
			return nil, fmt.Errorf("charging card: %w", err)
		}
	case SourceSavings:
		if _, err := tx.DeductSavings(ctx, params.PlanID, payment.Amount); err != nil {
			return nil, fmt.Errorf("deducting savings: %w", err)
		}
	}

	if err := tx.CreatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("creating payment: %w", err)
	}

	nextPaid := money.Clamp(money.Round2(e.PaidAmount+payment.Amount), 0, e.Amount)
	isPaid := e.Amount > 0 && nextPaid >= e.Amount

	if err := tx.UpdatePaidState(ctx, e.ID, nextPaid, isPaid); err != nil {
		return nil, fmt.Errorf("updating expense paid state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing payment: %w", err)
	}

	e.PaidAmount = nextPaid
	e.Paid = isPaid
	e.PaymentSource = &payment.Source
	e.CardDebtID = payment.CardDebtID
	e.LastPaymentAt = &payment.PaidAt

	s.syncLinkedDebt(ctx, e)

	if params.DebtID != nil {
		if err := s.debts.PayFromExpense(ctx, params.PlanID, *params.DebtID, payment.Amount, params.Source, paidAt); err != nil {
			return payment, fmt.Errorf("reducing linked debt: %w", err)
		}
	}

	return payment, nil
}

// syncLinkedDebt pushes the expense's remaining amount into its derived
// debt: a live remainder creates or updates the debt, a settled expense
// zeroes it. The payment already committed, so a failure here is logged
// and left to the reconciliation pass rather than unwinding the payment.
func (s *Service) syncLinkedDebt(ctx context.Context, e *Expense) {
	if err := s.debts.SyncExpenseDebt(ctx, e); err != nil {
		slog.Error("syncing linked debt", "expense_id", e.ID, "error", err)
	}
}

// RecordPaymentBestEffort is RecordPayment for flows where a ledger hiccup
// must not abort the caller (expense creation, bulk imports). Failures are
// logged and swallowed; the reconciliation pass picks up the pieces.
func (s *Service) RecordPaymentBestEffort(ctx context.Context, params RecordPaymentParams) {
	if _, err := s.RecordPayment(ctx, params); err != nil {
		slog.Error("recording expense payment",
			"expense_id", params.ExpenseID,
			"source", params.Source,
			"error", err,
		)
	}
}

func (s *Service) resolveCard(ctx context.Context, tx PaymentTx, planID uuid.UUID, explicit, exclude *uuid.UUID) (*Card, error) {
	if explicit != nil {
		if exclude != nil && *explicit == *exclude {
			return nil, ErrSameCard
		}

		card, err := tx.GetCard(ctx, planID, *explicit)
		if err != nil {
			return nil, err
		}

		return card, nil
	}

	cards, err := tx.ListCards(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("listing cards: %w", err)
	}

	if exclude != nil {
		kept := cards[:0]

		for _, c := range cards {
			if c.ID != *exclude {
				kept = append(kept, c)
			}
		}

		cards = kept
	}

	switch len(cards) {
	case 0:
		return nil, ErrNoCard
	case 1:
		return cards[0], nil
	default:
		return nil, ErrAmbiguousCard
	}
}

type SyncParams struct {
	PlanID            uuid.UUID
	ExpenseID         uuid.UUID
	DesiredPaidAmount float64
	Source            Source     // funding source for a catch-up row; defaults to income
	CardDebtID        *uuid.UUID
	AdjustBalances    bool // apply savings/card side effects for the catch-up row
	ResetOnDecrease   bool // truncate ledger rows when the recorded total overshoots
	Now               time.Time
}

type SyncResult struct {
	FinalPaidAmount float64
	FinalPaid       bool
	Changed         bool
}

// SyncPaymentsToPaidAmount reconciles the payment ledger with a desired
// paid amount. Undershoot appends one catch-up row for the difference;
// overshoot, when ResetOnDecrease is set, trims rows newest-first and
// shrinks the row straddling the target instead of rewriting history.
// Balance side effects of already-recorded rows are never reversed.
// The expense row itself is untouched; the caller persists the returned
// final pair.
func (s *Service) SyncPaymentsToPaidAmount(ctx context.Context, params SyncParams) (*SyncResult, error) {
	e, err := s.repo.GetExpense(ctx, params.PlanID, params.ExpenseID)
	if err != nil {
		return nil, err
	}

	desired := money.Clamp(money.Round2(params.DesiredPaidAmount), 0, e.Amount)

	payments, err := s.repo.ListPayments(ctx, e.ID)
	if err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}

	var recorded float64
	for _, p := range payments {
		recorded += p.Amount
	}

	recorded = money.Round2(recorded)

	result := &SyncResult{
		FinalPaid:       e.Amount > 0 && desired >= e.Amount,
		FinalPaidAmount: desired,
	}
	if result.FinalPaid {
		result.FinalPaidAmount = e.Amount
	}

	switch {
	case money.InSync(recorded, desired):
		return result, nil

	case recorded < desired:
		if err := s.appendCatchUpRow(ctx, params, e, money.Round2(desired-recorded)); err != nil {
			return nil, err
		}

	case params.ResetOnDecrease:
		if err := s.truncatePayments(ctx, payments, money.Round2(recorded-desired)); err != nil {
			return nil, err
		}

	default:
		// Overshoot without reset stays as-is; the ledger keeps the
		// richer history and the paid amount is the caller's call.
		return result, nil
	}

	result.Changed = true

	return result, nil
}

func (s *Service) appendCatchUpRow(ctx context.Context, params SyncParams, e *Expense, delta float64) error {
	source := params.Source
	if source == "" {
		source = SourceIncome
	}

	if !source.Valid() {
		return ErrInvalidSource
	}

	paidAt := params.Now
	if paidAt.IsZero() {
		paidAt = time.Now().UTC()
	}

	tx, err := s.repo.BeginPayment(ctx)
	if err != nil {
		return fmt.Errorf("beginning payment: %w", err)
	}
	defer tx.Rollback()

	payment := &Payment{
		ExpenseID: e.ID,
		Amount:    delta,
		PaidAt:    paidAt,
		Source:    source,
	}

	if params.AdjustBalances {
		switch source {
		case SourceCreditCard:
			card, err := s.resolveCard(ctx, tx, params.PlanID, params.CardDebtID, nil)
			if err != nil {
				return err
			}

			payment.CardDebtID = &card.ID

			card.ApplyCharge(delta)

			if err := tx.UpdateCard(ctx, card); err != nil {
				return fmt.Errorf("charging card: %w", err)
			}
		case SourceSavings:
			if _, err := tx.DeductSavings(ctx, params.PlanID, delta); err != nil {
				return fmt.Errorf("deducting savings: %w", err)
			}
		}
	} else if source == SourceCreditCard && params.CardDebtID != nil {
		payment.CardDebtID = params.CardDebtID
	}

	if err := tx.CreatePayment(ctx, payment); err != nil {
		return fmt.Errorf("creating catch-up payment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing catch-up payment: %w", err)
	}

	return nil
}

// truncatePayments walks the ledger newest-first removing excess until the
// recorded total matches the target. The row that straddles the boundary is
// shrunk in place; rows never go negative.
func (s *Service) truncatePayments(ctx context.Context, newestFirst []*Payment, excess float64) error {
	for _, p := range newestFirst {
		if excess <= 0 {
			break
		}

		if p.Amount <= excess+money.DriftTolerance {
			if err := s.repo.DeletePayment(ctx, p.ID); err != nil {
				return fmt.Errorf("deleting payment: %w", err)
			}

			excess = money.Round2(excess - p.Amount)

			continue
		}

		if err := s.repo.UpdatePaymentAmount(ctx, p.ID, money.Round2(p.Amount-excess)); err != nil {
			return fmt.Errorf("shrinking payment: %w", err)
		}

		excess = 0
	}

	return nil
}

// ApplyPayment clamp-adds a delta onto the expense's paid amount and
// persists the resulting paid state. Returns the updated expense and the
// remaining amount owed.
func (s *Service) ApplyPayment(ctx context.Context, planID, id uuid.UUID, delta float64) (*Expense, float64, error) {
	e, err := s.repo.GetExpense(ctx, planID, id)
	if err != nil {
		return nil, 0, err
	}

	next := money.Clamp(money.Round2(e.PaidAmount+delta), 0, e.Amount)

	return s.persistPaidAmount(ctx, e, next)
}

// SetPaidAmount sets the paid amount to an absolute value, clamped to the
// expense amount.
func (s *Service) SetPaidAmount(ctx context.Context, planID, id uuid.UUID, paidAmount float64) (*Expense, float64, error) {
	e, err := s.repo.GetExpense(ctx, planID, id)
	if err != nil {
		return nil, 0, err
	}

	next := money.Clamp(money.Round2(paidAmount), 0, e.Amount)

	return s.persistPaidAmount(ctx, e, next)
}

func (s *Service) persistPaidAmount(ctx context.Context, e *Expense, next float64) (*Expense, float64, error) {
	isPaid := e.Amount > 0 && next >= e.Amount

	if err := s.repo.UpdatePaidState(ctx, e.ID, next, isPaid); err != nil {
		return nil, 0, fmt.Errorf("updating paid state: %w", err)
	}

	e.PaidAmount = next
	e.Paid = isPaid

	s.syncLinkedDebt(ctx, e)

	return e, e.Remaining(), nil
}

// TogglePaid flips the paid flag; the paid amount snaps to the full amount
// or to zero with it.
func (s *Service) TogglePaid(ctx context.Context, planID, id uuid.UUID) (*Expense, error) {
	e, err := s.repo.GetExpense(ctx, planID, id)
	if err != nil {
		return nil, err
	}

	if e.Paid {
		e.Paid = false
		e.PaidAmount = 0
	} else {
		e.Paid = true
		e.PaidAmount = e.Amount
	}

	if err := s.repo.UpdatePaidState(ctx, e.ID, e.PaidAmount, e.Paid); err != nil {
		return nil, fmt.Errorf("updating paid state: %w", err)
	}

	s.syncLinkedDebt(ctx, e)

	return e, nil
}

type UpdateParams struct {
	Name          *string
	CategoryID    *uuid.UUID
	CategoryName  *string
	Amount        *float64
	DueDate       *time.Time
	IsDirectDebit *bool
}

// Update edits an expense. When the amount changes, a fully paid expense
// stays fully paid (paid amount follows the new amount) and a partially
// paid one keeps its paid amount clamped to the new ceiling.
func (s *Service) Update(ctx context.Context, planID, id uuid.UUID, params UpdateParams) (*Expense, error) {
	e, err := s.repo.GetExpense(ctx, planID, id)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		e.Name = *params.Name
	}

	if params.CategoryID != nil {
		e.CategoryID = params.CategoryID
	}

	if params.CategoryName != nil {
		e.CategoryName = *params.CategoryName
	}

	if params.DueDate != nil {
		e.DueDate = params.DueDate
	}

	if params.IsDirectDebit != nil {
		e.IsDirectDebit = *params.IsDirectDebit
	}

	if params.Amount != nil && *params.Amount != e.Amount {
		e.Amount = money.Round2(*params.Amount)

		if e.Paid {
			e.PaidAmount = e.Amount
		} else if e.PaidAmount > e.Amount {
			e.PaidAmount = e.Amount
		}
	}

	if err := s.repo.UpdateExpense(ctx, e); err != nil {
		return nil, fmt.Errorf("updating expense: %w", err)
	}

	return e, nil
}
