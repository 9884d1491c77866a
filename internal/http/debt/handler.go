package debt

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mwhite-dev/budgetd/internal/carryover"
	"github.com/mwhite-dev/budgetd/internal/debt"
	"github.com/mwhite-dev/budgetd/internal/reconcile"
)

type Handler struct {
	svc       *debt.Service
	carryover *carryover.Service
	healer    *reconcile.Service
}

func NewHandler(svc *debt.Service, carryoverSvc *carryover.Service, healer *reconcile.Service) *Handler {
	return &Handler{svc: svc, carryover: carryoverSvc, healer: healer}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.summary)
	r.Post("/", h.create)
	r.Get("/carryover", h.carryoverItems)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Post("/{id}/payments", h.addPayment)
	r.Delete("/{id}/payments/{paymentID}", h.undoPayment)
}

// summary runs the read-path sweeps before reporting, so the debts view
// never shows a stale picture: overdue expenses convert, missed schedules
// accrue, drifted ledgers heal. Each step is best-effort.
func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	planID, ok := planID(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()

	if _, err := h.carryover.ProcessOverdueExpensesToDebts(ctx, planID, now); err != nil {
		slog.Error("sweeping overdue expenses", "plan_id", planID, "error", err)
	}

	if _, err := h.svc.ProcessMissedPayments(ctx, planID, now); err != nil {
		slog.Error("accruing missed payments", "plan_id", planID, "error", err)
	}

	debts, err := h.svc.List(ctx, planID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	for _, d := range debts {
		if err := h.healer.HealDebt(ctx, planID, d.ID); err != nil {
			slog.Error("healing debt", "debt_id", d.ID, "error", err)
		}
	}

	summary, err := h.svc.SummaryForPlan(ctx, planID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSummaryResponse(summary))
}

func (h *Handler) carryoverItems(w http.ResponseWriter, r *http.Request) {
	planID, ok := planID(w, r)
	if !ok {
		return
	}

	items, err := h.carryover.ExpenseDebts(r.Context(), planID, time.Now().UTC())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toItemResponseList(items))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	planID, id, ok := planAndDebtID(w, r)
	if !ok {
		return
	}

	ctx := r.Context()

	// Legacy debts carry a paid total without ledger rows; synthesize the
	// history before healing, or the heal would re-align the paid total
	// down to the empty ledger and erase the lump.
	if err := h.healer.BackfillHistory(ctx, planID, id, time.Now().UTC()); err != nil && !errors.Is(err, debt.ErrNotFound) {
		slog.Error("backfilling debt history", "debt_id", id, "error", err)
	}

	if err := h.healer.HealDebt(ctx, planID, id); err != nil && !errors.Is(err, debt.ErrNotFound) {
		slog.Error("healing debt", "debt_id", id, "error", err)
	}

	d, err := h.svc.Get(ctx, planID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	payments, err := h.svc.Payments(ctx, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toDetailResponse(d, payments))
}

type createDebtRequest struct {
	Name              string     `json:"name"`
	Type              debt.Type  `json:"type"`
	InitialBalance    float64    `json:"initial_balance"`
	MonthlyMinimum    float64    `json:"monthly_minimum,omitempty"`
	InterestRate      float64    `json:"interest_rate,omitempty"`
	InstallmentMonths *int       `json:"installment_months,omitempty"`
	CreditLimit       *float64   `json:"credit_limit,omitempty"`
	DueDate           *time.Time `json:"due_date,omitempty"`
	DueDay            *int       `json:"due_day,omitempty"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	planID, ok := planID(w, r)
	if !ok {
		return
	}

	var req createDebtRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	d, err := h.svc.Create(r.Context(), debt.CreateParams{
		PlanID:            planID,
		Name:              req.Name,
		Type:              req.Type,
		InitialBalance:    req.InitialBalance,
		MonthlyMinimum:    req.MonthlyMinimum,
		InterestRate:      req.InterestRate,
		InstallmentMonths: req.InstallmentMonths,
		CreditLimit:       req.CreditLimit,
		DueDate:           req.DueDate,
		DueDay:            req.DueDay,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toResponse(d))
}

type updateDebtRequest struct {
	Name                     *string    `json:"name,omitempty"`
	MonthlyMinimum           *float64   `json:"monthly_minimum,omitempty"`
	InterestRate             *float64   `json:"interest_rate,omitempty"`
	DueDate                  *time.Time `json:"due_date,omitempty"`
	DueDay                   *int       `json:"due_day,omitempty"`
	CreditLimit              *float64   `json:"credit_limit,omitempty"`
	DefaultPaymentSource     *string    `json:"default_payment_source,omitempty"`
	DefaultPaymentCardDebtID *uuid.UUID `json:"default_payment_card_debt_id,omitempty"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	planID, id, ok := planAndDebtID(w, r)
	if !ok {
		return
	}

	var req updateDebtRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	d, err := h.svc.Update(r.Context(), planID, id, debt.UpdateParams{
		Name:                     req.Name,
		MonthlyMinimum:           req.MonthlyMinimum,
		InterestRate:             req.InterestRate,
		DueDate:                  req.DueDate,
		DueDay:                   req.DueDay,
		CreditLimit:              req.CreditLimit,
		DefaultPaymentSource:     req.DefaultPaymentSource,
		DefaultPaymentCardDebtID: req.DefaultPaymentCardDebtID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(d))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	planID, id, ok := planAndDebtID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), planID, id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type addPaymentRequest struct {
	Amount     float64    `json:"amount"`
	Source     string     `json:"source"`
	CardDebtID *uuid.UUID `json:"card_debt_id,omitempty"`
	PaidAt     *time.Time `json:"paid_at,omitempty"`
}

func (h *Handler) addPayment(w http.ResponseWriter, r *http.Request) {
	planID, id, ok := planAndDebtID(w, r)
	if !ok {
		return
	}

	var req addPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	params := debt.AddPaymentParams{
		PlanID:     planID,
		DebtID:     id,
		Amount:     req.Amount,
		Source:     req.Source,
		CardDebtID: req.CardDebtID,
	}
	if req.PaidAt != nil {
		params.PaidAt = *req.PaidAt
	}

	p, err := h.svc.AddPayment(r.Context(), params)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPaymentResponse(p))
}

func (h *Handler) undoPayment(w http.ResponseWriter, r *http.Request) {
	planID, id, ok := planAndDebtID(w, r)
	if !ok {
		return
	}

	paymentID, err := uuid.Parse(chi.URLParam(r, "paymentID"))
	if err != nil {
		http.Error(w, "invalid payment id", http.StatusBadRequest)
		return
	}

	if err := h.svc.UndoPayment(r.Context(), planID, id, paymentID, time.Now().UTC()); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func planID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "planID"))
	if err != nil {
		http.Error(w, "invalid plan id", http.StatusBadRequest)
		return uuid.Nil, false
	}

	return id, true
}

func planAndDebtID(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	pid, ok := planID(w, r)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return uuid.Nil, uuid.Nil, false
	}

	return pid, id, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, debt.ErrNotFound), errors.Is(err, debt.ErrCardNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, debt.ErrInvalidAmount):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, debt.ErrAlreadyPaid),
		errors.Is(err, debt.ErrSameCard),
		errors.Is(err, debt.ErrNotACard),
		errors.Is(err, debt.ErrNoCard),
		errors.Is(err, debt.ErrAmbiguousCard),
		errors.Is(err, debt.ErrExpenseDerived),
		errors.Is(err, debt.ErrDerivedOutstanding),
		errors.Is(err, debt.ErrNoPayments),
		errors.Is(err, debt.ErrNotMostRecent),
		errors.Is(err, debt.ErrDifferentMonth),
		errors.Is(err, debt.ErrCardBalanceSpent):
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
