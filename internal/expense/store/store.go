package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mwhite-dev/budgetd/internal/expense"
	"github.com/mwhite-dev/budgetd/internal/money"
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

const selectExpenseColumns = `
	e.id, e.plan_id, e.category_id, e.category_name, e.name, e.amount, e.paid_amount,
	e.paid, e.due_date, e.month, e.year, e.is_allocation, e.is_direct_debit,
	e.payment_source, e.card_debt_id, e.last_payment_at, e.created_at, e.updated_at
`

func scanExpense(s scanner) (*expense.Expense, error) {
	var e expense.Expense

	var categoryName, paymentSource sql.NullString

	var amount, paidAmount decimal.NullDecimal

	var dueDate, lastPaymentAt sql.NullTime

	if err := s.Scan(
		&e.ID, &e.PlanID, &e.CategoryID, &categoryName, &e.Name, &amount, &paidAmount,
		&e.Paid, &dueDate, &e.Month, &e.Year, &e.IsAllocation, &e.IsDirectDebit,
		&paymentSource, &e.CardDebtID, &lastPaymentAt, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}

	e.CategoryName = categoryName.String
	e.Amount = money.FromNullDecimal(amount)
	e.PaidAmount = money.FromNullDecimal(paidAmount)

	if dueDate.Valid {
		e.DueDate = &dueDate.Time
	}

	if paymentSource.Valid {
		source := expense.Source(paymentSource.String)
		e.PaymentSource = &source
	}

	if lastPaymentAt.Valid {
		e.LastPaymentAt = &lastPaymentAt.Time
	}

	return &e, nil
}

const selectPaymentColumns = `
	p.id, p.expense_id, p.amount, p.paid_at, p.source, p.card_debt_id
`

func scanPayment(s scanner) (*expense.Payment, error) {
	var p expense.Payment

	var amount decimal.Decimal

	var sourceStr string

	if err := s.Scan(&p.ID, &p.ExpenseID, &amount, &p.PaidAt, &sourceStr, &p.CardDebtID); err != nil {
		return nil, err
	}

	p.Amount = money.FromDecimal(amount)
	p.Source = expense.Source(sourceStr)

	return &p, nil
}

func getExpense(ctx context.Context, q queryer, planID, id uuid.UUID) (*expense.Expense, error) {
	query := `SELECT ` + selectExpenseColumns + `
		FROM expenses e
		WHERE e.id = $1 AND e.plan_id = $2`

	e, err := scanExpense(q.QueryRowContext(ctx, query, id, planID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, expense.ErrNotFound
		}

		return nil, fmt.Errorf("getting expense: %w", err)
	}

	return e, nil
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) GetExpense(ctx context.Context, planID, id uuid.UUID) (*expense.Expense, error) {
	return getExpense(ctx, s.db, planID, id)
}

func (s *Store) ListExpenses(ctx context.Context, filter expense.ListFilter) ([]*expense.Expense, error) {
	query := `SELECT ` + selectExpenseColumns + `
		FROM expenses e
		WHERE e.plan_id = $1`

	args := []any{filter.PlanID}
	argIdx := 2

	if filter.Month != nil {
		query += fmt.Sprintf(" AND e.month = $%d", argIdx)

		args = append(args, *filter.Month)
		argIdx++
	}

	if filter.Year != nil {
		query += fmt.Sprintf(" AND e.year = $%d", argIdx)

		args = append(args, *filter.Year)
		argIdx++
	}

	if filter.BeforeYear != nil && filter.BeforeMonth != nil {
		query += fmt.Sprintf(" AND (e.year < $%d OR (e.year = $%d AND e.month < $%d))", argIdx, argIdx, argIdx+1)

		args = append(args, *filter.BeforeYear, *filter.BeforeMonth)
		argIdx += 2
	}

	if filter.OnlyUnpaid {
		query += " AND NOT e.paid"
	}

	query += " ORDER BY e.year ASC, e.month ASC, e.created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*expense.Expense

	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning expense: %w", err)
		}

		expenses = append(expenses, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating expense rows: %w", err)
	}

	return expenses, nil
}

func (s *Store) UpdateExpense(ctx context.Context, e *expense.Expense) error {
	query := `
		UPDATE expenses
		SET category_id = $1, category_name = $2, name = $3, amount = $4,
			paid_amount = $5, paid = $6, due_date = $7, is_direct_debit = $8, updated_at = NOW()
		WHERE id = $9 AND plan_id = $10
	`

	_, err := s.db.ExecContext(ctx, query,
		e.CategoryID, e.CategoryName, e.Name, e.Amount,
		e.PaidAmount, e.Paid, e.DueDate, e.IsDirectDebit, e.ID, e.PlanID,
	)
	if err != nil {
		return fmt.Errorf("updating expense: %w", err)
	}

	return nil
}

func updatePaidState(ctx context.Context, q queryer, id uuid.UUID, paidAmount float64, paid bool) error {
	query := `
		UPDATE expenses
		SET paid_amount = $1, paid = $2, updated_at = NOW()
		WHERE id = $3
	`

	_, err := q.ExecContext(ctx, query, paidAmount, paid, id)
	if err != nil {
		return fmt.Errorf("updating paid state: %w", err)
	}

	return nil
}

func (s *Store) UpdatePaidState(ctx context.Context, id uuid.UUID, paidAmount float64, paid bool) error {
	return updatePaidState(ctx, s.db, id, paidAmount, paid)
}

func (s *Store) ListPayments(ctx context.Context, expenseID uuid.UUID) ([]*expense.Payment, error) {
	query := `SELECT ` + selectPaymentColumns + `
		FROM expense_payments p
		WHERE p.expense_id = $1
		ORDER BY p.paid_at DESC, p.id DESC`

	rows, err := s.db.QueryContext(ctx, query, expenseID)
	if err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}
	defer rows.Close()

	var payments []*expense.Payment

	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning payment: %w", err)
		}

		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating payment rows: %w", err)
	}

	return payments, nil
}

func (s *Store) DeletePayment(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM expense_payments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting payment: %w", err)
	}

	return nil
}

func (s *Store) UpdatePaymentAmount(ctx context.Context, id uuid.UUID, amount float64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE expense_payments SET amount = $1 WHERE id = $2`, amount, id)
	if err != nil {
		return fmt.Errorf("updating payment amount: %w", err)
	}

	return nil
}

type paymentTx struct {
	tx *sql.Tx
}

func (s *Store) BeginPayment(ctx context.Context) (expense.PaymentTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning payment tx: %w", err)
	}

	return &paymentTx{tx: dbTx}, nil
}

func (ptx *paymentTx) Commit() error   { return ptx.tx.Commit() }
func (ptx *paymentTx) Rollback() error { return ptx.tx.Rollback() }

func (ptx *paymentTx) GetExpense(ctx context.Context, planID, id uuid.UUID) (*expense.Expense, error) {
	return getExpense(ctx, ptx.tx, planID, id)
}

func (ptx *paymentTx) CreatePayment(ctx context.Context, p *expense.Payment) error {
	query := `
		INSERT INTO expense_payments (expense_id, amount, paid_at, source, card_debt_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := ptx.tx.QueryRowContext(ctx, query,
		p.ExpenseID, p.Amount, p.PaidAt, p.Source, p.CardDebtID,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("creating expense payment: %w", err)
	}

	// Denormalize the latest payment onto the expense row so display and
	// late-settlement checks do not need a ledger join.
	_, err = ptx.tx.ExecContext(ctx, `
		UPDATE expenses
		SET payment_source = $1, card_debt_id = $2, last_payment_at = $3, updated_at = NOW()
		WHERE id = $4
	`, p.Source, p.CardDebtID, p.PaidAt, p.ExpenseID)
	if err != nil {
		return fmt.Errorf("recording latest payment on expense: %w", err)
	}

	return nil
}

func (ptx *paymentTx) UpdatePaidState(ctx context.Context, id uuid.UUID, paidAmount float64, paid bool) error {
	return updatePaidState(ctx, ptx.tx, id, paidAmount, paid)
}

const selectCardColumns = `
	d.id, d.name, d.type, d.current_balance, d.initial_balance, d.paid_amount, d.paid
`

func scanCard(s scanner) (*expense.Card, error) {
	var c expense.Card

	var current, initial, paidAmount decimal.NullDecimal

	if err := s.Scan(&c.ID, &c.Name, &c.Type, &current, &initial, &paidAmount, &c.Paid); err != nil {
		return nil, err
	}

	c.CurrentBalance = money.FromNullDecimal(current)
	c.InitialBalance = money.FromNullDecimal(initial)
	c.PaidAmount = money.FromNullDecimal(paidAmount)

	return &c, nil
}

func (ptx *paymentTx) GetCard(ctx context.Context, planID, debtID uuid.UUID) (*expense.Card, error) {
	query := `SELECT ` + selectCardColumns + `
		FROM debts d
		WHERE d.id = $1 AND d.plan_id = $2
		FOR UPDATE`

	c, err := scanCard(ptx.tx.QueryRowContext(ctx, query, debtID, planID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, expense.ErrCardNotFound
		}

		return nil, fmt.Errorf("getting card: %w", err)
	}

	if c.Type != "credit_card" && c.Type != "store_card" {
		return nil, expense.ErrNotACard
	}

	return c, nil
}

func (ptx *paymentTx) ListCards(ctx context.Context, planID uuid.UUID) ([]*expense.Card, error) {
	query := `SELECT ` + selectCardColumns + `
		FROM debts d
		WHERE d.plan_id = $1 AND d.type IN ('credit_card', 'store_card')
		ORDER BY d.created_at ASC
		FOR UPDATE`

	rows, err := ptx.tx.QueryContext(ctx, query, planID)
	if err != nil {
		return nil, fmt.Errorf("listing cards: %w", err)
	}
	defer rows.Close()

	var cards []*expense.Card

	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning card: %w", err)
		}

		cards = append(cards, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating card rows: %w", err)
	}

	return cards, nil
}

func (ptx *paymentTx) UpdateCard(ctx context.Context, c *expense.Card) error {
	query := `
		UPDATE debts
		SET current_balance = $1, initial_balance = $2, paid_amount = $3, paid = $4, updated_at = NOW()
		WHERE id = $5
	`

	_, err := ptx.tx.ExecContext(ctx, query,
		c.CurrentBalance, c.InitialBalance, c.PaidAmount, c.Paid, c.ID,
	)
	if err != nil {
		return fmt.Errorf("updating card: %w", err)
	}

	return nil
}

func (ptx *paymentTx) DeductSavings(ctx context.Context, planID uuid.UUID, amount float64) (float64, error) {
	var balance decimal.NullDecimal

	err := ptx.tx.QueryRowContext(ctx,
		`SELECT savings_balance FROM plans WHERE id = $1 FOR UPDATE`, planID,
	).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("locking plan savings: %w", err)
	}

	next := money.Floor0(money.Round2(money.FromNullDecimal(balance) - amount))

	_, err = ptx.tx.ExecContext(ctx,
		`UPDATE plans SET savings_balance = $1, updated_at = NOW() WHERE id = $2`,
		next, planID,
	)
	if err != nil {
		return 0, fmt.Errorf("updating savings balance: %w", err)
	}

	return next, nil
}
