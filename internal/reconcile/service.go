// Package reconcile heals drift between the two ledgers of an
// expense-derived debt. The match key is recomputed from amount and
// timestamp on every pass, never stored, so healing is idempotent.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/mwhite-dev/budgetd/internal/debt"
	"github.com/mwhite-dev/budgetd/internal/expense"
	"github.com/mwhite-dev/budgetd/internal/money"
	"github.com/mwhite-dev/budgetd/internal/period"
)

// LumpTolerance bounds how far a legacy lump total may sit from a whole
// number of monthly payments before backfill refuses to guess.
const LumpTolerance = 0.02

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=reconcile
type Repository interface {
	GetDebt(ctx context.Context, planID, id uuid.UUID) (*debt.Debt, error)
	GetExpense(ctx context.Context, planID, id uuid.UUID) (*expense.Expense, error)

	// Both return ledger rows newest first.
	ListDebtPayments(ctx context.Context, debtID uuid.UUID) ([]*debt.Payment, error)
	ListExpensePayments(ctx context.Context, expenseID uuid.UUID) ([]*expense.Payment, error)

	Begin(ctx context.Context) (HealTx, error)
}

// HealTx batches one heal's writes into a single database transaction.
type HealTx interface {
	CreateDebtPayment(ctx context.Context, p *debt.Payment) error
	CreateExpensePayment(ctx context.Context, p *expense.Payment) error
	UpdateDebtBalances(ctx context.Context, d *debt.Debt) error
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

// HealDebt re-aligns one debt with its payment ledgers. For expense-derived
// debts the debt and expense ledgers are diffed by match key and missing
// mirrors inserted on both sides, then the cached paid amount and balance
// are recomputed from the expense ledger. Regular debts just re-align their
// cached paid amount with the ledger sum. Writes happen only when drift
// exceeds the tolerance, in one transaction.
func (s *Service) HealDebt(ctx context.Context, planID, debtID uuid.UUID) error {
	d, err := s.repo.GetDebt(ctx, planID, debtID)
	if err != nil {
		return err
	}

	if d.IsExpenseDerived() && d.SourceExpenseID != nil {
		return s.healDerived(ctx, planID, d)
	}

	return s.realignRegular(ctx, d)
}

func (s *Service) healDerived(ctx context.Context, planID uuid.UUID, d *debt.Debt) error {
	e, err := s.repo.GetExpense(ctx, planID, *d.SourceExpenseID)
	if err != nil {
		if errors.Is(err, expense.ErrNotFound) {
			// Nothing to mirror against; the debt keeps its own numbers.
			return nil
		}

		return fmt.Errorf("loading backing expense: %w", err)
	}

	debtRows, err := s.repo.ListDebtPayments(ctx, d.ID)
	if err != nil {
		return fmt.Errorf("listing debt payments: %w", err)
	}

	expenseRows, err := s.repo.ListExpensePayments(ctx, e.ID)
	if err != nil {
		return fmt.Errorf("listing expense payments: %w", err)
	}

	missingOnExpense := missingDebtRows(debtRows, expenseRows)
	missingOnDebt := missingExpenseRows(expenseRows, debtRows)

	var total float64
	for _, p := range expenseRows {
		total += p.Amount
	}
	for _, p := range missingOnExpense {
		total += p.Amount
	}

	nextPaid := money.Round2(total)
	if nextPaid > e.Amount {
		nextPaid = e.Amount
	}

	nextBalance := money.Floor0(money.Round2(e.Amount - nextPaid))
	nextIsPaid := e.Amount > 0 && nextPaid >= e.Amount

	drifted := len(missingOnExpense) > 0 ||
		len(missingOnDebt) > 0 ||
		!money.InSync(e.PaidAmount, nextPaid) ||
		!money.InSync(d.CurrentBalance, nextBalance) ||
		!money.InSync(d.PaidAmount, nextPaid)

	if !drifted {
		return nil
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning heal: %w", err)
	}
	defer tx.Rollback()

	for _, p := range missingOnExpense {
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
			return fmt.Errorf("inserting expense mirror: %w", err)
		}
	}

	for _, p := range missingOnDebt {
		mirror := &debt.Payment{
			DebtID:     d.ID,
			Amount:     p.Amount,
			PaidAt:     p.PaidAt,
			Source:     string(p.Source),
			CardDebtID: p.CardDebtID,
		}

		if err := tx.CreateDebtPayment(ctx, mirror); err != nil {
			return fmt.Errorf("inserting debt mirror: %w", err)
		}
	}

	if err := tx.UpdateExpensePaidState(ctx, e.ID, nextPaid, nextIsPaid); err != nil {
		return fmt.Errorf("updating expense paid state: %w", err)
	}

	d.CurrentBalance = nextBalance
	d.PaidAmount = nextPaid
	d.Paid = nextBalance <= 0

	if err := tx.UpdateDebtBalances(ctx, d); err != nil {
		return fmt.Errorf("updating debt balances: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing heal: %w", err)
	}

	return nil
}

// missingDebtRows returns debt rows with no expense-side twin, matching by
// key with multiplicity.
func missingDebtRows(debtRows []*debt.Payment, expenseRows []*expense.Payment) []*debt.Payment {
	seen := make(map[string]int, len(expenseRows))
	for _, p := range expenseRows {
		seen[money.MatchKey(p.Amount, p.PaidAt)]++
	}

	var missing []*debt.Payment

	for _, p := range debtRows {
		key := money.MatchKey(p.Amount, p.PaidAt)
		if seen[key] > 0 {
			seen[key]--
			continue
		}

		missing = append(missing, p)
	}

	return missing
}

func missingExpenseRows(expenseRows []*expense.Payment, debtRows []*debt.Payment) []*expense.Payment {
	seen := make(map[string]int, len(debtRows))
	for _, p := range debtRows {
		seen[money.MatchKey(p.Amount, p.PaidAt)]++
	}

	var missing []*expense.Payment

	for _, p := range expenseRows {
		key := money.MatchKey(p.Amount, p.PaidAt)
		if seen[key] > 0 {
			seen[key]--
			continue
		}

		missing = append(missing, p)
	}

	return missing
}

func (s *Service) realignRegular(ctx context.Context, d *debt.Debt) error {
	rows, err := s.repo.ListDebtPayments(ctx, d.ID)
	if err != nil {
		return fmt.Errorf("listing debt payments: %w", err)
	}

	// A lump paid total with no rows is legacy data. Re-aligning would
	// wipe it; BackfillHistory owns reconstructing the ledger first.
	if len(rows) == 0 && d.PaidAmount > 0 {
		return nil
	}

	var total float64
	for _, p := range rows {
		total += p.Amount
	}

	recorded := money.Round2(total)
	if money.InSync(d.PaidAmount, recorded) {
		return nil
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning realign: %w", err)
	}
	defer tx.Rollback()

	d.PaidAmount = recorded

	if err := tx.UpdateDebtBalances(ctx, d); err != nil {
		return fmt.Errorf("updating debt balances: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing realign: %w", err)
	}

	return nil
}

// BackfillHistory reconstructs the payment ledger of a legacy debt that
// carries a lump paid total but no rows. The total must split into a whole
// number of monthly payments within the lump tolerance; anything messier is
// left alone rather than guessed at. Synthesized rows walk backward from
// the due date, one per month, assumed paid on time.
func (s *Service) BackfillHistory(ctx context.Context, planID, debtID uuid.UUID, now time.Time) error {
	d, err := s.repo.GetDebt(ctx, planID, debtID)
	if err != nil {
		return err
	}

	if d.PaidAmount <= 0 || d.Amount <= 0 {
		return nil
	}

	rows, err := s.repo.ListDebtPayments(ctx, d.ID)
	if err != nil {
		return fmt.Errorf("listing debt payments: %w", err)
	}

	if len(rows) > 0 {
		return nil
	}

	quotient := d.PaidAmount / d.Amount

	count := math.Round(quotient)
	if count < 1 || math.Abs(quotient-count) > LumpTolerance {
		return nil
	}

	n := int(count)

	anchor := s.backfillAnchor(d, now)

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning backfill: %w", err)
	}
	defer tx.Rollback()

	remaining := money.Round2(d.PaidAmount)

	for i := 1; i <= n; i++ {
		amount := d.Amount
		if i == n {
			// The oldest row absorbs the rounding slack so the ledger
			// sums to the recorded total.
			amount = remaining
		}

		amount = money.Round2(amount)

		p := &debt.Payment{
			DebtID: d.ID,
			Amount: amount,
			PaidAt: anchor.AddDate(0, -i, 0),
			Source: string(expense.SourceIncome),
		}

		if err := tx.CreateDebtPayment(ctx, p); err != nil {
			return fmt.Errorf("inserting backfilled payment: %w", err)
		}

		remaining = money.Round2(remaining - amount)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing backfill: %w", err)
	}

	return nil
}

func (s *Service) backfillAnchor(d *debt.Debt, now time.Time) time.Time {
	if d.DueDate != nil {
		return period.Truncate(*d.DueDate)
	}

	if now.IsZero() {
		now = time.Now().UTC()
	}

	today := period.Truncate(now)

	if d.DueDay != nil {
		m := period.FromDate(today)
		day := *d.DueDay

		lastOfMonth := time.Date(m.Year, time.Month(m.Month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
		if day > lastOfMonth {
			day = lastOfMonth
		}

		return time.Date(m.Year, time.Month(m.Month), day, 0, 0, 0, 0, time.UTC)
	}

	return today
}
