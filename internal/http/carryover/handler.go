package carryover

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mwhite-dev/budgetd/internal/carryover"
	"github.com/mwhite-dev/budgetd/internal/debt"
)

type Handler struct {
	svc *carryover.Service
}

func NewHandler(svc *carryover.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/unpaid", h.sweepUnpaid)
	r.Post("/past-months", h.sweepPastMonths)
}

type sweepUnpaidRequest struct {
	Year                int         `json:"year"`
	Month               int         `json:"month"`
	OnlyPartialPayments bool        `json:"only_partial_payments,omitempty"`
	ForceExpenseIDs     []uuid.UUID `json:"force_expense_ids,omitempty"`
}

type sweepResponse struct {
	Converted []convertedDebt `json:"converted"`
}

type convertedDebt struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	CurrentBalance float64   `json:"current_balance"`
}

func (h *Handler) sweepUnpaid(w http.ResponseWriter, r *http.Request) {
	planID, ok := planID(w, r)
	if !ok {
		return
	}

	var req sweepUnpaidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Month < 1 || req.Month > 12 {
		http.Error(w, "invalid month", http.StatusBadRequest)
		return
	}

	converted, err := h.svc.ProcessUnpaidExpenses(r.Context(), carryover.ProcessParams{
		PlanID:              planID,
		Year:                req.Year,
		Month:               req.Month,
		OnlyPartialPayments: req.OnlyPartialPayments,
		ForceExpenseIDs:     req.ForceExpenseIDs,
	})
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toSweepResponse(converted))
}

func (h *Handler) sweepPastMonths(w http.ResponseWriter, r *http.Request) {
	planID, ok := planID(w, r)
	if !ok {
		return
	}

	converted, err := h.svc.ProcessPastMonthsUnpaidExpenses(r.Context(), planID, time.Now().UTC())
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toSweepResponse(converted))
}

func toSweepResponse(converted []*debt.Debt) sweepResponse {
	resp := sweepResponse{Converted: make([]convertedDebt, len(converted))}
	for i, d := range converted {
		resp.Converted[i] = convertedDebt{
			ID:             d.ID,
			Name:           d.Name,
			CurrentBalance: d.CurrentBalance,
		}
	}

	return resp
}

func planID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "planID"))
	if err != nil {
		http.Error(w, "invalid plan id", http.StatusBadRequest)
		return uuid.Nil, false
	}

	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
