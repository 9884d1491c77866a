package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mwhite-dev/budgetd/internal/money"
	"github.com/mwhite-dev/budgetd/internal/plan"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetPlan(ctx context.Context, id uuid.UUID) (*plan.Plan, error) {
	query := `
		SELECT id, name, kind, pay_date, savings_balance, monthly_allowance, created_at
		FROM plans
		WHERE id = $1
	`

	var p plan.Plan

	var kindStr string

	var payDate sql.NullInt64

	var savings, allowance decimal.NullDecimal

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Name, &kindStr, &payDate, &savings, &allowance, &p.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, plan.ErrNotFound
		}

		return nil, fmt.Errorf("getting plan: %w", err)
	}

	p.Kind = plan.Kind(kindStr)
	if payDate.Valid {
		day := int(payDate.Int64)
		p.PayDate = &day
	}

	p.SavingsBalance = money.FromNullDecimal(savings)
	p.MonthlyAllowance = money.FromNullDecimal(allowance)

	return &p, nil
}

func (s *Store) DeductSavings(ctx context.Context, id uuid.UUID, amount float64) (float64, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	var balance decimal.NullDecimal

	err = dbTx.QueryRowContext(ctx,
		`SELECT savings_balance FROM plans WHERE id = $1 FOR UPDATE`, id,
	).Scan(&balance)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, plan.ErrNotFound
		}

		return 0, fmt.Errorf("locking plan: %w", err)
	}

	next := money.Floor0(money.Round2(money.FromNullDecimal(balance) - amount))

	_, err = dbTx.ExecContext(ctx,
		`UPDATE plans SET savings_balance = $1, updated_at = NOW() WHERE id = $2`,
		next, id,
	)
	if err != nil {
		return 0, fmt.Errorf("updating savings balance: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transaction: %w", err)
	}

	return next, nil
}

func (s *Store) SumExtraFundsPayments(ctx context.Context, planID uuid.UUID, start, end time.Time) (float64, error) {
	query := `
		SELECT COALESCE(SUM(ep.amount), 0)
		FROM expense_payments ep
		JOIN expenses e ON ep.expense_id = e.id
		WHERE e.plan_id = $1 AND ep.source = $2 AND ep.paid_at >= $3 AND ep.paid_at < $4
	`

	var sum decimal.Decimal

	err := s.db.QueryRowContext(ctx, query, planID, "extra_funds", start, end).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("summing extra funds payments: %w", err)
	}

	return money.FromDecimal(sum), nil
}
