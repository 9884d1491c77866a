package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mwhite-dev/budgetd/internal/debt"
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

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const selectDebtColumns = `
	d.id, d.plan_id, d.name, d.type,
	d.initial_balance, d.current_balance, d.amount, d.paid, d.paid_amount,
	d.monthly_minimum, d.interest_rate, d.installment_months, d.credit_limit,
	d.due_date, d.due_day, d.last_accrual_month,
	d.default_payment_source, d.default_payment_card_debt_id,
	d.source_type, d.source_expense_id, d.source_month_key,
	d.source_category_id, d.source_category_name, d.source_expense_name,
	d.created_at, d.updated_at
`

func scanDebt(s scanner) (*debt.Debt, error) {
	var d debt.Debt

	var typeStr string

	var initial, current, amount, paidAmount, minimum, rate decimal.NullDecimal

	var creditLimit decimal.NullDecimal

	var installments sql.NullInt64

	var dueDate sql.NullTime

	var dueDay sql.NullInt64

	var lastAccrual, defaultSource, sourceType, sourceMonthKey, sourceCategoryName, sourceExpenseName sql.NullString

	if err := s.Scan(
		&d.ID, &d.PlanID, &d.Name, &typeStr,
		&initial, &current, &amount, &d.Paid, &paidAmount,
		&minimum, &rate, &installments, &creditLimit,
		&dueDate, &dueDay, &lastAccrual,
		&defaultSource, &d.DefaultPaymentCardDebtID,
		&sourceType, &d.SourceExpenseID, &sourceMonthKey,
		&d.SourceCategoryID, &sourceCategoryName, &sourceExpenseName,
		&d.CreatedAt, &d.UpdatedAt,
	); err != nil {
		return nil, err
	}

	d.Type = debt.Type(typeStr)
	d.InitialBalance = money.FromNullDecimal(initial)
	d.CurrentBalance = money.FromNullDecimal(current)
	d.Amount = money.FromNullDecimal(amount)
	d.PaidAmount = money.FromNullDecimal(paidAmount)
	d.MonthlyMinimum = money.FromNullDecimal(minimum)
	d.InterestRate = money.FromNullDecimal(rate)

	if installments.Valid {
		months := int(installments.Int64)
		d.InstallmentMonths = &months
	}

	if creditLimit.Valid {
		limit := money.FromDecimal(creditLimit.Decimal)
		d.CreditLimit = &limit
	}

	if dueDate.Valid {
		d.DueDate = &dueDate.Time
	}

	if dueDay.Valid {
		day := int(dueDay.Int64)
		d.DueDay = &day
	}

	if lastAccrual.Valid {
		d.LastAccrualMonth = &lastAccrual.String
	}

	if defaultSource.Valid {
		d.DefaultPaymentSource = &defaultSource.String
	}

	if sourceType.Valid {
		d.SourceType = &sourceType.String
	}

	if sourceMonthKey.Valid {
		d.SourceMonthKey = &sourceMonthKey.String
	}

	if sourceCategoryName.Valid {
		d.SourceCategoryName = &sourceCategoryName.String
	}

	if sourceExpenseName.Valid {
		d.SourceExpenseName = &sourceExpenseName.String
	}

	return &d, nil
}

func getDebt(ctx context.Context, q queryer, planID, id uuid.UUID, forUpdate bool) (*debt.Debt, error) {
	query := `SELECT ` + selectDebtColumns + `
		FROM debts d
		WHERE d.id = $1 AND d.plan_id = $2`

	if forUpdate {
		query += " FOR UPDATE"
	}

	d, err := scanDebt(q.QueryRowContext(ctx, query, id, planID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, debt.ErrNotFound
		}

		return nil, fmt.Errorf("getting debt: %w", err)
	}

	return d, nil
}

func (s *Store) GetDebt(ctx context.Context, planID, id uuid.UUID) (*debt.Debt, error) {
	return getDebt(ctx, s.db, planID, id, false)
}

func (s *Store) GetDebtBySourceExpense(ctx context.Context, planID, expenseID uuid.UUID, monthKey string) (*debt.Debt, error) {
	query := `SELECT ` + selectDebtColumns + `
		FROM debts d
		WHERE d.plan_id = $1 AND d.source_type = $2
			AND d.source_expense_id = $3 AND d.source_month_key = $4
		ORDER BY d.created_at ASC
		LIMIT 1`

	d, err := scanDebt(s.db.QueryRowContext(ctx, query, planID, debt.SourceTypeExpense, expenseID, monthKey))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, debt.ErrNotFound
		}

		return nil, fmt.Errorf("getting derived debt: %w", err)
	}

	return d, nil
}

func (s *Store) ListDebts(ctx context.Context, planID uuid.UUID) ([]*debt.Debt, error) {
	query := `SELECT ` + selectDebtColumns + `
		FROM debts d
		WHERE d.plan_id = $1
		ORDER BY d.created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, planID)
	if err != nil {
		return nil, fmt.Errorf("listing debts: %w", err)
	}
	defer rows.Close()

	var debts []*debt.Debt

	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning debt: %w", err)
		}

		debts = append(debts, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating debt rows: %w", err)
	}

	return debts, nil
}

func (s *Store) CreateDebt(ctx context.Context, d *debt.Debt) error {
	query := `
		INSERT INTO debts (
			plan_id, name, type,
			initial_balance, current_balance, amount, paid, paid_amount,
			monthly_minimum, interest_rate, installment_months, credit_limit,
			due_date, due_day, last_accrual_month,
			default_payment_source, default_payment_card_debt_id,
			source_type, source_expense_id, source_month_key,
			source_category_id, source_category_name, source_expense_name,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		d.PlanID, d.Name, d.Type,
		d.InitialBalance, d.CurrentBalance, d.Amount, d.Paid, d.PaidAmount,
		d.MonthlyMinimum, d.InterestRate, d.InstallmentMonths, d.CreditLimit,
		d.DueDate, d.DueDay, d.LastAccrualMonth,
		d.DefaultPaymentSource, d.DefaultPaymentCardDebtID,
		d.SourceType, d.SourceExpenseID, d.SourceMonthKey,
		d.SourceCategoryID, d.SourceCategoryName, d.SourceExpenseName,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating debt: %w", err)
	}

	return nil
}

func (s *Store) UpdateDebt(ctx context.Context, d *debt.Debt) error {
	query := `
		UPDATE debts
		SET name = $1, type = $2,
			initial_balance = $3, current_balance = $4, amount = $5, paid = $6, paid_amount = $7,
			monthly_minimum = $8, interest_rate = $9, installment_months = $10, credit_limit = $11,
			due_date = $12, due_day = $13, last_accrual_month = $14,
			default_payment_source = $15, default_payment_card_debt_id = $16,
			source_category_id = $17, source_category_name = $18, source_expense_name = $19,
			updated_at = NOW()
		WHERE id = $20 AND plan_id = $21
	`

	_, err := s.db.ExecContext(ctx, query,
		d.Name, d.Type,
		d.InitialBalance, d.CurrentBalance, d.Amount, d.Paid, d.PaidAmount,
		d.MonthlyMinimum, d.InterestRate, d.InstallmentMonths, d.CreditLimit,
		d.DueDate, d.DueDay, d.LastAccrualMonth,
		d.DefaultPaymentSource, d.DefaultPaymentCardDebtID,
		d.SourceCategoryID, d.SourceCategoryName, d.SourceExpenseName,
		d.ID, d.PlanID,
	)
	if err != nil {
		return fmt.Errorf("updating debt: %w", err)
	}

	return nil
}

func (s *Store) DeleteDebt(ctx context.Context, id uuid.UUID) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	if _, err := dbTx.ExecContext(ctx, `DELETE FROM debt_payments WHERE debt_id = $1`, id); err != nil {
		return fmt.Errorf("deleting debt payments: %w", err)
	}

	if _, err := dbTx.ExecContext(ctx, `DELETE FROM debts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting debt: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

const selectPaymentColumns = `
	p.id, p.debt_id, p.amount, p.paid_at, p.source, p.card_debt_id
`

func scanPayment(s scanner) (*debt.Payment, error) {
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

func (s *Store) ListPayments(ctx context.Context, debtID uuid.UUID) ([]*debt.Payment, error) {
	query := `SELECT ` + selectPaymentColumns + `
		FROM debt_payments p
		WHERE p.debt_id = $1
		ORDER BY p.paid_at DESC, p.id DESC`

	rows, err := s.db.QueryContext(ctx, query, debtID)
	if err != nil {
		return nil, fmt.Errorf("listing debt payments: %w", err)
	}
	defer rows.Close()

	var payments []*debt.Payment

	for rows.Next() {
		p, err := scanPayment(rows)
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

func (s *Store) SumPayments(ctx context.Context, debtID uuid.UUID) (float64, error) {
	var sum decimal.Decimal

	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM debt_payments WHERE debt_id = $1`, debtID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("summing debt payments: %w", err)
	}

	return money.FromDecimal(sum), nil
}

func (s *Store) SumPaymentsBetween(ctx context.Context, debtID uuid.UUID, start, end time.Time) (float64, error) {
	var sum decimal.Decimal

	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM debt_payments
		WHERE debt_id = $1 AND paid_at >= $2 AND paid_at < $3`,
		debtID, start, end,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("summing debt payments: %w", err)
	}

	return money.FromDecimal(sum), nil
}

type paymentTx struct {
	tx *sql.Tx
}

func (s *Store) BeginPayment(ctx context.Context) (debt.PaymentTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning payment tx: %w", err)
	}

	return &paymentTx{tx: dbTx}, nil
}

func (ptx *paymentTx) Commit() error   { return ptx.tx.Commit() }
func (ptx *paymentTx) Rollback() error { return ptx.tx.Rollback() }

func (ptx *paymentTx) GetDebt(ctx context.Context, planID, id uuid.UUID) (*debt.Debt, error) {
	return getDebt(ctx, ptx.tx, planID, id, true)
}

func (ptx *paymentTx) ListCardDebts(ctx context.Context, planID uuid.UUID) ([]*debt.Debt, error) {
	query := `SELECT ` + selectDebtColumns + `
		FROM debts d
		WHERE d.plan_id = $1 AND d.type IN ('credit_card', 'store_card')
		ORDER BY d.created_at ASC
		FOR UPDATE`

	rows, err := ptx.tx.QueryContext(ctx, query, planID)
	if err != nil {
		return nil, fmt.Errorf("listing card debts: %w", err)
	}
	defer rows.Close()

	var debts []*debt.Debt

	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning card debt: %w", err)
		}

		debts = append(debts, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating card debt rows: %w", err)
	}

	return debts, nil
}

func (ptx *paymentTx) UpdateBalances(ctx context.Context, d *debt.Debt) error {
	query := `
		UPDATE debts
		SET initial_balance = $1, current_balance = $2, paid = $3, paid_amount = $4,
			due_date = $5, last_accrual_month = $6, updated_at = NOW()
		WHERE id = $7
	`

	_, err := ptx.tx.ExecContext(ctx, query,
		d.InitialBalance, d.CurrentBalance, d.Paid, d.PaidAmount,
		d.DueDate, d.LastAccrualMonth, d.ID,
	)
	if err != nil {
		return fmt.Errorf("updating debt balances: %w", err)
	}

	return nil
}

func (ptx *paymentTx) CreatePayment(ctx context.Context, p *debt.Payment) error {
	query := `
		INSERT INTO debt_payments (debt_id, amount, paid_at, source, card_debt_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := ptx.tx.QueryRowContext(ctx, query,
		p.DebtID, p.Amount, p.PaidAt, p.Source, p.CardDebtID,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("creating debt payment: %w", err)
	}

	return nil
}

func (ptx *paymentTx) DeletePayment(ctx context.Context, id uuid.UUID) error {
	_, err := ptx.tx.ExecContext(ctx, `DELETE FROM debt_payments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting debt payment: %w", err)
	}

	return nil
}

func (ptx *paymentTx) GetExpense(ctx context.Context, planID, id uuid.UUID) (*expense.Expense, error) {
	query := `
		SELECT e.id, e.plan_id, e.name, e.amount, e.paid_amount, e.paid, e.month, e.year
		FROM expenses e
		WHERE e.id = $1 AND e.plan_id = $2
		FOR UPDATE
	`

	var e expense.Expense

	var amount, paidAmount decimal.NullDecimal

	err := ptx.tx.QueryRowContext(ctx, query, id, planID).Scan(
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

func (ptx *paymentTx) CreateExpensePayment(ctx context.Context, p *expense.Payment) error {
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

// DeleteExpensePaymentMatching removes a single expense payment row with
// the given amount and timestamp: the mirror of an undone debt payment.
func (ptx *paymentTx) DeleteExpensePaymentMatching(ctx context.Context, expenseID uuid.UUID, amount float64, paidAt time.Time) error {
	query := `
		DELETE FROM expense_payments
		WHERE id IN (
			SELECT id FROM expense_payments
			WHERE expense_id = $1 AND amount = $2 AND paid_at = $3
			LIMIT 1
		)
	`

	_, err := ptx.tx.ExecContext(ctx, query, expenseID, amount, paidAt)
	if err != nil {
		return fmt.Errorf("deleting mirrored expense payment: %w", err)
	}

	return nil
}

func (ptx *paymentTx) UpdateExpensePaidState(ctx context.Context, id uuid.UUID, paidAmount float64, paid bool) error {
	query := `
		UPDATE expenses
		SET paid_amount = $1, paid = $2, updated_at = NOW()
		WHERE id = $3
	`

	_, err := ptx.tx.ExecContext(ctx, query, paidAmount, paid, id)
	if err != nil {
		return fmt.Errorf("updating expense paid state: %w", err)
	}

	return nil
}
