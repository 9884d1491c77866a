// Package carryover converts overdue expenses into expense-derived debts
// once their due date plus grace has passed, and keeps the debts view's
// picture of those conversions honest.
package carryover

import (
	"time"

	"github.com/mwhite-dev/budgetd/internal/debt"
	"github.com/mwhite-dev/budgetd/internal/expense"
	"github.com/mwhite-dev/budgetd/internal/period"
)

// Status is where an expense sits in its payment lifecycle.
type Status string

const (
	StatusPaid          Status = "paid"
	StatusPartiallyPaid Status = "partially_paid"
	StatusOverdue       Status = "overdue"
	StatusUnpaid        Status = "unpaid"
)

// DueDate resolves when an expense falls due: the explicit due date when one
// is set, otherwise the plan's due day within the expense's budget month.
// The day clamps to the month's end so a due day of 31 works in February.
func DueDate(e *expense.Expense, defaultDueDay int) time.Time {
	if e.DueDate != nil {
		return period.Truncate(*e.DueDate)
	}

	day := defaultDueDay

	lastOfMonth := time.Date(e.Year, time.Month(e.Month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > lastOfMonth {
		day = lastOfMonth
	}

	return time.Date(e.Year, time.Month(e.Month), day, 0, 0, 0, 0, time.UTC)
}

// Classify runs the expense through one explicit state machine. Overdue wins
// over partially paid: a half-settled expense past its grace window still
// needs converting.
func Classify(e *expense.Expense, today time.Time, defaultDueDay int) Status {
	if e.Paid || (e.Amount > 0 && e.PaidAmount >= e.Amount) {
		return StatusPaid
	}

	due := DueDate(e, defaultDueDay)

	if !period.Truncate(today).Before(due.AddDate(0, 0, debt.GraceDays)) {
		return StatusOverdue
	}

	if e.PaidAmount > 0 {
		return StatusPartiallyPaid
	}

	return StatusUnpaid
}
