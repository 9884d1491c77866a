package expense

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mwhite-dev/budgetd/internal/debt"
	"github.com/mwhite-dev/budgetd/internal/expense"
)

type Handler struct {
	svc *expense.Service
}

func NewHandler(svc *expense.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Get("/{id}/payments", h.listPayments)
	r.Post("/{id}/payments", h.recordPayment)
	r.Put("/{id}/paid-amount", h.setPaidAmount)
	r.Post("/{id}/toggle-paid", h.togglePaid)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	planID, id, ok := h.ids(w, r)
	if !ok {
		return
	}

	e, err := h.svc.Get(r.Context(), planID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(e))
}

type updateExpenseRequest struct {
	PlanID        uuid.UUID  `json:"plan_id"`
	Name          *string    `json:"name,omitempty"`
	CategoryID    *uuid.UUID `json:"category_id,omitempty"`
	CategoryName  *string    `json:"category_name,omitempty"`
	Amount        *float64   `json:"amount,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	IsDirectDebit *bool      `json:"is_direct_debit,omitempty"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req updateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	e, err := h.svc.Update(r.Context(), req.PlanID, id, expense.UpdateParams{
		Name:          req.Name,
		CategoryID:    req.CategoryID,
		CategoryName:  req.CategoryName,
		Amount:        req.Amount,
		DueDate:       req.DueDate,
		IsDirectDebit: req.IsDirectDebit,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(e))
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	payments, err := h.svc.Payments(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPaymentResponseList(payments))
}

type recordPaymentRequest struct {
	PlanID     uuid.UUID      `json:"plan_id"`
	Amount     float64        `json:"amount"`
	Source     expense.Source `json:"source"`
	CardDebtID *uuid.UUID     `json:"card_debt_id,omitempty"`
	DebtID     *uuid.UUID     `json:"debt_id,omitempty"`
	PaidAt     *time.Time     `json:"paid_at,omitempty"`
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req recordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	params := expense.RecordPaymentParams{
		PlanID:     req.PlanID,
		ExpenseID:  id,
		Amount:     req.Amount,
		Source:     req.Source,
		CardDebtID: req.CardDebtID,
		DebtID:     req.DebtID,
	}
	if req.PaidAt != nil {
		params.PaidAt = *req.PaidAt
	}

	p, err := h.svc.RecordPayment(r.Context(), params)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPaymentResponse(p))
}

type setPaidAmountRequest struct {
	PlanID          uuid.UUID      `json:"plan_id"`
	PaidAmount      float64        `json:"paid_amount"`
	Source          expense.Source `json:"source,omitempty"`
	CardDebtID      *uuid.UUID     `json:"card_debt_id,omitempty"`
	AdjustBalances  bool           `json:"adjust_balances,omitempty"`
	ResetOnDecrease bool           `json:"reset_on_decrease,omitempty"`
}

type setPaidAmountResponse struct {
	Expense   expenseResponse `json:"expense"`
	Remaining float64         `json:"remaining"`
	Synced    bool            `json:"synced"`
}

// setPaidAmount reconciles the payment ledger with the requested paid
// amount and persists the result. The service keeps any linked derived
// debt in step.
func (h *Handler) setPaidAmount(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req setPaidAmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.svc.SyncPaymentsToPaidAmount(r.Context(), expense.SyncParams{
		PlanID:            req.PlanID,
		ExpenseID:         id,
		DesiredPaidAmount: req.PaidAmount,
		Source:            req.Source,
		CardDebtID:        req.CardDebtID,
		AdjustBalances:    req.AdjustBalances,
		ResetOnDecrease:   req.ResetOnDecrease,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	e, remaining, err := h.svc.SetPaidAmount(r.Context(), req.PlanID, id, result.FinalPaidAmount)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, setPaidAmountResponse{
		Expense:   toResponse(e),
		Remaining: remaining,
		Synced:    result.Changed,
	})
}

type togglePaidRequest struct {
	PlanID uuid.UUID `json:"plan_id"`
}

func (h *Handler) togglePaid(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req togglePaidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	e, err := h.svc.TogglePaid(r.Context(), req.PlanID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(e))
}

func (h *Handler) ids(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return uuid.Nil, uuid.Nil, false
	}

	planID, err := uuid.Parse(r.URL.Query().Get("plan_id"))
	if err != nil {
		http.Error(w, "invalid plan_id", http.StatusBadRequest)
		return uuid.Nil, uuid.Nil, false
	}

	return planID, id, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, expense.ErrNotFound), errors.Is(err, expense.ErrCardNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, expense.ErrInvalidAmount), errors.Is(err, expense.ErrInvalidSource):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, expense.ErrSameCard),
		errors.Is(err, expense.ErrNoCard),
		errors.Is(err, expense.ErrAmbiguousCard),
		errors.Is(err, expense.ErrNotACard),
		errors.Is(err, debt.ErrExpenseDerived):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
