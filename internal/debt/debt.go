package debt

import (
	"time"

	"github.com/google/uuid"

	"github.com/mwhite-dev/budgetd/internal/money"
)

// Type categorises a debt. Cards revolve; the rest amortise.
type Type string

const (
	TypeCreditCard Type = "credit_card"
	TypeStoreCard  Type = "store_card"
	TypeLoan       Type = "loan"
	TypeOther      Type = "other"
)

// GraceDays is how long past its due date an obligation can sit before it
// is treated as missed: overdue conversion and schedule accrual both wait
// out this window.
const GraceDays = 5

// SourceTypeExpense marks a debt that mirrors an unpaid expense. Derived
// debts are managed by the carryover converter, not by hand.
const SourceTypeExpense = "expense"

// Debt is an obligation tracked on the plan: a card, a loan, or a
// carryover mirror of an unpaid expense.
type Debt struct {
	ID     uuid.UUID
	PlanID uuid.UUID
	Name   string
	Type   Type

	InitialBalance float64
	CurrentBalance float64
	Amount         float64 // scheduled monthly payment
	Paid           bool
	PaidAmount     float64

	MonthlyMinimum    float64
	InterestRate      float64
	InstallmentMonths *int
	CreditLimit       *float64

	DueDate          *time.Time // rolling due date, advanced by accrual
	DueDay           *int       // legacy fixed day-of-month schedule
	LastAccrualMonth *string    // "YYYY-MM" guard for legacy accrual

	DefaultPaymentSource     *string
	DefaultPaymentCardDebtID *uuid.UUID

	SourceType         *string
	SourceExpenseID    *uuid.UUID
	SourceMonthKey     *string
	SourceCategoryID   *uuid.UUID
	SourceCategoryName *string
	SourceExpenseName  *string

	CreatedAt time.Time
	UpdatedAt *time.Time
}

// IsCard reports whether the debt is a revolving card.
func (d *Debt) IsCard() bool {
	return d.Type == TypeCreditCard || d.Type == TypeStoreCard
}

// IsExpenseDerived reports whether the debt mirrors an unpaid expense.
func (d *Debt) IsExpenseDerived() bool {
	return d.SourceType != nil && *d.SourceType == SourceTypeExpense
}

// ApplyCharge pushes a new charge onto a card debt: the balance grows, the
// initial balance ratchets up to cover it, and the card is open again.
func (d *Debt) ApplyCharge(amount float64) {
	d.CurrentBalance = money.Floor0(money.Round2(d.CurrentBalance + amount))
	if d.CurrentBalance > d.InitialBalance {
		d.InitialBalance = d.CurrentBalance
	}

	d.PaidAmount = money.Clamp(d.PaidAmount, 0, d.InitialBalance)
	d.Paid = false
}

// Payment is one row of the debt payment ledger.
type Payment struct {
	ID         uuid.UUID
	DebtID     uuid.UUID
	Amount     float64
	PaidAt     time.Time
	Source     string
	CardDebtID *uuid.UUID
}
