package debt

import (
	"time"

	"github.com/google/uuid"

	"github.com/mwhite-dev/budgetd/internal/carryover"
	"github.com/mwhite-dev/budgetd/internal/debt"
)

type debtResponse struct {
	ID                uuid.UUID  `json:"id"`
	PlanID            uuid.UUID  `json:"plan_id"`
	Name              string     `json:"name"`
	Type              debt.Type  `json:"type"`
	InitialBalance    float64    `json:"initial_balance"`
	CurrentBalance    float64    `json:"current_balance"`
	Amount            float64    `json:"amount"`
	Paid              bool       `json:"paid"`
	PaidAmount        float64    `json:"paid_amount"`
	MonthlyMinimum    float64    `json:"monthly_minimum,omitempty"`
	InterestRate      float64    `json:"interest_rate,omitempty"`
	InstallmentMonths *int       `json:"installment_months,omitempty"`
	CreditLimit       *float64   `json:"credit_limit,omitempty"`
	DueDate           *time.Time `json:"due_date,omitempty"`
	DueDay            *int       `json:"due_day,omitempty"`
	SourceType        *string    `json:"source_type,omitempty"`
	SourceExpenseID   *uuid.UUID `json:"source_expense_id,omitempty"`
	SourceMonthKey    *string    `json:"source_month_key,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"`
}

func toResponse(d *debt.Debt) debtResponse {
	return debtResponse{
		ID:                d.ID,
		PlanID:            d.PlanID,
		Name:              d.Name,
		Type:              d.Type,
		InitialBalance:    d.InitialBalance,
		CurrentBalance:    d.CurrentBalance,
		Amount:            d.Amount,
		Paid:              d.Paid,
		PaidAmount:        d.PaidAmount,
		MonthlyMinimum:    d.MonthlyMinimum,
		InterestRate:      d.InterestRate,
		InstallmentMonths: d.InstallmentMonths,
		CreditLimit:       d.CreditLimit,
		DueDate:           d.DueDate,
		DueDay:            d.DueDay,
		SourceType:        d.SourceType,
		SourceExpenseID:   d.SourceExpenseID,
		SourceMonthKey:    d.SourceMonthKey,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

func toResponseList(debts []*debt.Debt) []debtResponse {
	resp := make([]debtResponse, len(debts))
	for i, d := range debts {
		resp[i] = toResponse(d)
	}

	return resp
}

type paymentResponse struct {
	ID         uuid.UUID  `json:"id"`
	DebtID     uuid.UUID  `json:"debt_id"`
	Amount     float64    `json:"amount"`
	PaidAt     time.Time  `json:"paid_at"`
	Source     string     `json:"source"`
	CardDebtID *uuid.UUID `json:"card_debt_id,omitempty"`
}

func toPaymentResponse(p *debt.Payment) paymentResponse {
	return paymentResponse{
		ID:         p.ID,
		DebtID:     p.DebtID,
		Amount:     p.Amount,
		PaidAt:     p.PaidAt,
		Source:     p.Source,
		CardDebtID: p.CardDebtID,
	}
}

type detailResponse struct {
	debtResponse
	Payments []paymentResponse `json:"payments"`
}

func toDetailResponse(d *debt.Debt, payments []*debt.Payment) detailResponse {
	resp := detailResponse{
		debtResponse: toResponse(d),
		Payments:     make([]paymentResponse, len(payments)),
	}
	for i, p := range payments {
		resp.Payments[i] = toPaymentResponse(p)
	}

	return resp
}

type summaryResponse struct {
	TotalBalance float64        `json:"total_balance"`
	ActiveCount  int            `json:"active_count"`
	RegularDebts []debtResponse `json:"regular_debts"`
	ExpenseDebts []debtResponse `json:"expense_debts"`
	CardDebts    []debtResponse `json:"card_debts"`
}

func toSummaryResponse(s *debt.Summary) summaryResponse {
	return summaryResponse{
		TotalBalance: s.TotalBalance,
		ActiveCount:  s.ActiveCount,
		RegularDebts: toResponseList(s.RegularDebts),
		ExpenseDebts: toResponseList(s.ExpenseDebts),
		CardDebts:    toResponseList(s.CardDebts),
	}
}

type itemResponse struct {
	ID         string           `json:"id"`
	DebtID     *uuid.UUID       `json:"debt_id,omitempty"`
	ExpenseID  uuid.UUID        `json:"expense_id"`
	Name       string           `json:"name"`
	Amount     float64          `json:"amount"`
	PaidAmount float64          `json:"paid_amount"`
	Remaining  float64          `json:"remaining"`
	Status     carryover.Status `json:"status"`
	DueDate    time.Time        `json:"due_date"`
	PaidLate   bool             `json:"paid_late"`
}

func toItemResponseList(items []*carryover.Item) []itemResponse {
	resp := make([]itemResponse, len(items))
	for i, item := range items {
		resp[i] = itemResponse{
			ID:         item.ID,
			DebtID:     item.DebtID,
			ExpenseID:  item.ExpenseID,
			Name:       item.Name,
			Amount:     item.Amount,
			PaidAmount: item.PaidAmount,
			Remaining:  item.Remaining,
			Status:     item.Status,
			DueDate:    item.DueDate,
			PaidLate:   item.PaidLate,
		}
	}

	return resp
}
