package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mwhite-dev/budgetd/internal/debt"
	"github.com/mwhite-dev/budgetd/internal/expense"
	"github.com/mwhite-dev/budgetd/internal/money"
	"github.com/mwhite-dev/budgetd/internal/reconcile"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// GetDebt loads the slice of a debt the healer works on.
func (s *Store) GetDebt(ctx context.Context, planID, id uuid.UUID) (*debt.Debt, error) {
	query := `
		SELECT d.id, d.plan_id, d.name, d.type,
			d.initial_balance, d.current_balance, d.amount, d.paid, d.paid_amount,
			d.due_date, d.due_day,
			d.source_type, d.source_expense_id, d.source_month_key
		FROM debts d
		WHERE d.id = $1 AND d.plan_id = $2
	`

	var d debt.Debt

	var typeStr string

	var initial, current, amount, paidAmount decimal.NullDecimal

	var dueDate sql.NullTime

	var dueDay sql.NullInt64

	var sourceType, sourceMonthKey sql.NullString

	err := s.db.QueryRowContext(ctx, query, id, planID).Scan(
		&d.ID, &d.PlanID, &d.Name, &typeStr,
		&initial, &current, &amount, &d.Paid, &paidAmount,
		&dueDate, &dueDay,
		&sourceType, &d.SourceExpenseID, &sourceMonthKey,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, debt.ErrNotFound
		}

		return nil, fmt.Errorf("getting debt: %w", err)
	}

	d.Type = debt.Type(typeStr)
	d.InitialBalance = money.FromNullDecimal(initial)
	d.CurrentBalance = money.FromNullDecimal(current)
	d.Amount = money.FromNullDecimal(amount)
	d.PaidAmount = money.FromNullDecimal(paidAmount)

	if dueDate.Valid {
		d.DueDate = &dueDate.Time
	}

	if dueDay.Valid {
		day := int(dueDay.Int64)
		d.DueDay = &day
	}

	if sourceType.Valid {
		d.SourceType = &sourceType.String
	}

	if sourceMonthKey.Valid {
		d.SourceMonthKey = &sourceMonthKey.String
	}

	return &d, nil
}

func (s *Store) GetExpense(ctx context.Context, planID, id uuid.UUID) (*expense.Expense, error) {
	query := `
		SELECT e.id, e.plan_id, e.name, e.amount, e.paid_amount, e.paid, e.month, e.year
		FROM expenses e
		WHERE e.id = $1 AND e.plan_id = $2
	`

	var e expense.Expense

	var amount, paidAmount decimal.NullDecimal

	err := s.db.QueryRowContext(ctx, query, id, planID).Scan(
		&e.ID, &e.PlanID, &e.Name, &amount, &paidAmount, &e.Paid, &e.Month, &e.Year,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, expense.ErrNotFound
		}

		return nil, fmt.Errorf("getting expense: %w", err)
	}

	e.Amount = money.FromNullDecimal(amount)
	e.PaidAmount = money.FromNullDecimal(paidAmount)

	return &e, nil
}

func scanDebtPayment(s scanner) (*debt.Payment, error) {
	var p debt.Payment

	var amount decimal.Decimal

	var source sql.NullString

	if err := s.Scan(&p.ID, &p.DebtID, &amount, &p.PaidAt, &source, &p.CardDebtID); err != nil {
		return nil, err
	}

	p.Amount = money.FromDecimal(amount)
	p.Source = source.String

	return &p, nil
}

func (s *Store) ListDebtPayments(ctx context.Context, debtID uuid.UUID) ([]*debt.Payment, error) {
	query := `
		SELECT p.id, p.debt_id, p.amount, p.paid_at, p.source, p.card_debt_id
		FROM debt_payments p
		WHERE p.debt_id = $1
		ORDER BY p.paid_at DESC, p.id DESC
	`

	rows, err := s.db.QueryContext(ctx, query, debtID)
	if err != nil {
		return nil, fmt.Errorf("listing debt payments: %w", err)
	}
	defer rows.Close()

	var payments []*debt.Payment

	for rows.Next() {
		p, err := scanDebtPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning debt payment: %w", err)
		}

		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating debt payment rows: %w", err)
	}

	return payments, nil
}

func (s *Store) ListExpensePayments(ctx context.Context, expenseID uuid.UUID) ([]*expense.Payment, error) {
	query := `
		SELECT p.id, p.expense_id, p.amount, p.paid_at, p.source, p.card_debt_id
		FROM expense_payments p
		WHERE p.expense_id = $1
		ORDER BY p.paid_at DESC, p.id DESC
	`

	rows, err := s.db.QueryContext(ctx, query, expenseID)
	if err != nil {
		return nil, fmt.Errorf("listing expense payments: %w", err)
	}
	defer rows.Close()

	var payments []*expense.Payment

	for rows.Next() {
		var p expense.Payment

		var amount decimal.Decimal

		var source sql.NullString

		if err := rows.Scan(&p.ID, &p.ExpenseID, &amount, &p.PaidAt, &source, &p.CardDebtID); err != nil {
			return nil, fmt.Errorf("scanning expense payment: %w", err)
		}

		p.Amount = money.FromDecimal(amount)
		p.Source = expense.Source(source.String)

		payments = append(payments, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating expense payment rows: %w", err)
	}

	return payments, nil
}

type healTx struct {
	tx *sql.Tx
}

func (s *Store) Begin(ctx context.Context) (reconcile.HealTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning heal tx: %w", err)
	}

	return &healTx{tx: dbTx}, nil
}

func (htx *healTx) Commit() error   { return htx.tx.Commit() }
func (htx *healTx) Rollback() error { return htx.tx.Rollback() }

func (htx *healTx) CreateDebtPayment(ctx context.Context, p *debt.Payment) error {
	query := `
		INSERT INTO debt_payments (debt_id, amount, paid_at, source, card_debt_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := htx.tx.QueryRowContext(ctx, query,
		p.DebtID, p.Amount, p.PaidAt, p.Source, p.CardDebtID,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("creating debt payment: %w", err)
	}

	return nil
}

func (htx *healTx) CreateExpensePayment(ctx context.Context, p *expense.Payment) error {
	query := `
		INSERT INTO expense_payments (expense_id, amount, paid_at, source, card_debt_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := htx.tx.QueryRowContext(ctx, query,
		p.ExpenseID, p.Amount, p.PaidAt, p.Source, p.CardDebtID,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("creating expense payment: %w", err)
	}

	return nil
}

func (htx *healTx) UpdateDebtBalances(ctx context.Context, d *debt.Debt) error {
	query := `
		UPDATE debts
		SET current_balance = $1, paid = $2, paid_amount = $3, updated_at = NOW()
		WHERE id = $4
	`

	_, err := htx.tx.ExecContext(ctx, query, d.CurrentBalance, d.Paid, d.PaidAmount, d.ID)
	if err != nil {
		return fmt.Errorf("updating debt balances: %w", err)
	}

	return nil
}

func (htx *healTx) UpdateExpensePaidState(ctx context.Context, id uuid.UUID, paidAmount float64, paid bool) error {
	query := `
		UPDATE expenses
		SET paid_amount = $1, paid = $2, updated_at = NOW()
		WHERE id = $3
	`

	_, err := htx.tx.ExecContext(ctx, query, paidAmount, paid, id)
	if err != nil {
		return fmt.Errorf("updating expense paid state: %w", err)
	}

	return nil
}
