package plan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("plan not found")

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=plan
type Repository interface {
	GetPlan(ctx context.Context, id uuid.UUID) (*Plan, error)

	// DeductSavings subtracts amount from the plan's savings balance,
	// flooring the result at zero, and returns the new balance. The
	// read-modify-write happens inside one database transaction.
	DeductSavings(ctx context.Context, id uuid.UUID, amount float64) (float64, error)

	SumExtraFundsPayments(ctx context.Context, planID uuid.UUID, start, end time.Time) (float64, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Plan, error) {
	return s.repo.GetPlan(ctx, id)
}

// DeductSavings pulls a payment amount out of the plan's savings pot.
// Overdrawing is not an error: the balance floors at zero and the payment
// stands (the ledger is the source of truth, the pot is a convenience).
func (s *Service) DeductSavings(ctx context.Context, id uuid.UUID, amount float64) (float64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("deduct amount must be positive, got %.2f", amount)
	}

	return s.repo.DeductSavings(ctx, id, amount)
}

// AllowanceUsage reports how much of the plan's monthly allowance has been
// consumed by extra-funds payments in the current pay period.
type AllowanceUsage struct {
	PeriodStart time.Time
	PeriodEnd   time.Time
	Limit       float64
	Spent       float64
	Remaining   float64
}

// Allowance computes the pay-period window from the plan's pay date and
// sums the extra-funds expense payments inside it. Remaining floors at zero.
func (s *Service) Allowance(ctx context.Context, id uuid.UUID, now time.Time) (*AllowanceUsage, error) {
	p, err := s.repo.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}

	start, end := PayPeriod(p.DueDay(), now)

	spent, err := s.repo.SumExtraFundsPayments(ctx, id, start, end)
	if err != nil {
		return nil, fmt.Errorf("summing extra funds payments: %w", err)
	}

	remaining := p.MonthlyAllowance - spent
	if remaining < 0 {
		remaining = 0
	}

	return &AllowanceUsage{
		PeriodStart: start,
		PeriodEnd:   end,
		Limit:       p.MonthlyAllowance,
		Spent:       spent,
		Remaining:   remaining,
	}, nil
}

// PayPeriod returns the half-open [start, end) window of the pay period
// containing now: from the most recent pay day at or before now up to the
// next one. Pay days past the end of a short month clamp to its last day.
func PayPeriod(payDay int, now time.Time) (time.Time, time.Time) {
	today := time.Date(now.UTC().Year(), now.UTC().Month(), now.UTC().Day(), 0, 0, 0, 0, time.UTC)

	start := payDateInMonth(today.Year(), today.Month(), payDay)
	if start.After(today) {
		prev := today.AddDate(0, -1, 0)
		start = payDateInMonth(prev.Year(), prev.Month(), payDay)
	}

	next := time.Date(start.Year(), start.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	end := payDateInMonth(next.Year(), next.Month(), payDay)

	return start, end
}

func payDateInMonth(year int, month time.Month, day int) time.Time {
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > lastDay {
		day = lastDay
	}

	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
