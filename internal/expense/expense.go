package expense

import (
	"time"

	"github.com/google/uuid"

	"github.com/mwhite-dev/budgetd/internal/money"
)

// Source identifies where the money for an expense payment came from.
type Source string

const (
	SourceIncome         Source = "income"
	SourceSavings        Source = "savings"
	SourceCreditCard     Source = "credit_card"
	SourceExtraFunds     Source = "extra_funds"
	SourceExtraUntracked Source = "extra_untracked"
)

// Valid reports whether s is one of the known funding sources.
func (s Source) Valid() bool {
	switch s {
	case SourceIncome, SourceSavings, SourceCreditCard, SourceExtraFunds, SourceExtraUntracked:
		return true
	}

	return false
}

// Expense is a planned obligation inside a budget month.
type Expense struct {
	ID            uuid.UUID
	PlanID        uuid.UUID
	CategoryID    *uuid.UUID
	CategoryName  string
	Name          string
	Amount        float64
	PaidAmount    float64
	Paid          bool
	DueDate       *time.Time // explicit override; absent means the plan default day
	Month         int
	Year          int
	IsAllocation  bool // allocations park money, they are never owed to anyone
	IsDirectDebit bool

	// Most recent payment, denormalized for display and late-settlement
	// checks. Maintained by the payment stores alongside the ledger row.
	PaymentSource *Source
	CardDebtID    *uuid.UUID
	LastPaymentAt *time.Time

	CreatedAt time.Time
	UpdatedAt *time.Time
}

// Remaining is the unpaid part of the obligation, floored at zero.
func (e *Expense) Remaining() float64 {
	return money.Floor0(money.Round2(e.Amount - e.PaidAmount))
}

// Payment is one row of the expense payment ledger. Rows are append-only
// except for the explicit truncate-on-decrease path.
type Payment struct {
	ID         uuid.UUID
	ExpenseID  uuid.UUID
	Amount     float64
	PaidAt     time.Time
	Source     Source
	CardDebtID *uuid.UUID // set when the payment was charged to a card
}

// Card is the slice of a card debt the payment router needs: enough to
// pick a target and push a charge onto it.
type Card struct {
	ID             uuid.UUID
	Name           string
	Type           string
	CurrentBalance float64
	InitialBalance float64
	PaidAmount     float64
	Paid           bool
}

// ApplyCharge pushes a new charge onto the card. The balance grows, the
// initial balance ratchets up to cover it, recorded repayments stay within
// the new ceiling, and the card is open again.
func (c *Card) ApplyCharge(amount float64) {
	c.CurrentBalance = money.Floor0(money.Round2(c.CurrentBalance + amount))
	if c.CurrentBalance > c.InitialBalance {
		c.InitialBalance = c.CurrentBalance
	}

	c.PaidAmount = money.Clamp(c.PaidAmount, 0, c.InitialBalance)
	c.Paid = false
}
