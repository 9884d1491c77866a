package expense

import (
	"time"

	"github.com/google/uuid"

	"github.com/mwhite-dev/budgetd/internal/expense"
)

type expenseResponse struct {
	ID            uuid.UUID       `json:"id"`
	PlanID        uuid.UUID       `json:"plan_id"`
	CategoryID    *uuid.UUID      `json:"category_id,omitempty"`
	CategoryName  string          `json:"category_name,omitempty"`
	Name          string          `json:"name"`
	Amount        float64         `json:"amount"`
	PaidAmount    float64         `json:"paid_amount"`
	Paid          bool            `json:"paid"`
	Remaining     float64         `json:"remaining"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
	Month         int             `json:"month"`
	Year          int             `json:"year"`
	IsAllocation  bool            `json:"is_allocation"`
	IsDirectDebit bool            `json:"is_direct_debit"`
	PaymentSource *expense.Source `json:"payment_source,omitempty"`
	CardDebtID    *uuid.UUID      `json:"card_debt_id,omitempty"`
	LastPaymentAt *time.Time      `json:"last_payment_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     *time.Time      `json:"updated_at,omitempty"`
}

func toResponse(e *expense.Expense) expenseResponse {
	return expenseResponse{
		ID:            e.ID,
		PlanID:        e.PlanID,
		CategoryID:    e.CategoryID,
		CategoryName:  e.CategoryName,
		Name:          e.Name,
		Amount:        e.Amount,
		PaidAmount:    e.PaidAmount,
		Paid:          e.Paid,
		Remaining:     e.Remaining(),
		DueDate:       e.DueDate,
		Month:         e.Month,
		Year:          e.Year,
		IsAllocation:  e.IsAllocation,
		IsDirectDebit: e.IsDirectDebit,
		PaymentSource: e.PaymentSource,
		CardDebtID:    e.CardDebtID,
		LastPaymentAt: e.LastPaymentAt,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

type paymentResponse struct {
	ID         uuid.UUID      `json:"id"`
	ExpenseID  uuid.UUID      `json:"expense_id"`
	Amount     float64        `json:"amount"`
	PaidAt     time.Time      `json:"paid_at"`
	Source     expense.Source `json:"source"`
	CardDebtID *uuid.UUID     `json:"card_debt_id,omitempty"`
}

func toPaymentResponse(p *expense.Payment) paymentResponse {
	return paymentResponse{
		ID:         p.ID,
		ExpenseID:  p.ExpenseID,
		Amount:     p.Amount,
		PaidAt:     p.PaidAt,
		Source:     p.Source,
		CardDebtID: p.CardDebtID,
	}
}

func toPaymentResponseList(payments []*expense.Payment) []paymentResponse {
	resp := make([]paymentResponse, len(payments))
	for i, p := range payments {
		resp[i] = toPaymentResponse(p)
	}

	return resp
}
