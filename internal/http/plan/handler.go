package plan

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mwhite-dev/budgetd/internal/plan"
)

type Handler struct {
	svc *plan.Service
}

func NewHandler(svc *plan.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.get)
	r.Get("/allowance", h.allowance)
	r.Post("/savings/deductions", h.deductSavings)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := planID(w, r)
	if !ok {
		return
	}

	p, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(p))
}

// allowance reports the monthly allowance spent in the pay period covering
// today, so ad-hoc spending can be checked against what is left.
func (h *Handler) allowance(w http.ResponseWriter, r *http.Request) {
	id, ok := planID(w, r)
	if !ok {
		return
	}

	usage, err := h.svc.Allowance(r.Context(), id, time.Now().UTC())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAllowanceResponse(usage))
}

type deductSavingsRequest struct {
	Amount float64 `json:"amount"`
}

type deductSavingsResponse struct {
	SavingsBalance float64 `json:"savings_balance"`
}

func (h *Handler) deductSavings(w http.ResponseWriter, r *http.Request) {
	id, ok := planID(w, r)
	if !ok {
		return
	}

	var req deductSavingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Amount <= 0 {
		http.Error(w, "amount must be positive", http.StatusBadRequest)
		return
	}

	balance, err := h.svc.DeductSavings(r.Context(), id, req.Amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, deductSavingsResponse{SavingsBalance: balance})
}

type planResponse struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Kind             plan.Kind `json:"kind"`
	PayDate          *int      `json:"pay_date,omitempty"`
	SavingsBalance   float64   `json:"savings_balance"`
	MonthlyAllowance float64   `json:"monthly_allowance"`
	CreatedAt        time.Time `json:"created_at"`
}

func toResponse(p *plan.Plan) planResponse {
	return planResponse{
		ID:               p.ID,
		Name:             p.Name,
		Kind:             p.Kind,
		PayDate:          p.PayDate,
		SavingsBalance:   p.SavingsBalance,
		MonthlyAllowance: p.MonthlyAllowance,
		CreatedAt:        p.CreatedAt,
	}
}

type allowanceResponse struct {
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	Limit       float64   `json:"limit"`
	Spent       float64   `json:"spent"`
	Remaining   float64   `json:"remaining"`
}

func toAllowanceResponse(u *plan.AllowanceUsage) allowanceResponse {
	return allowanceResponse{
		PeriodStart: u.PeriodStart,
		PeriodEnd:   u.PeriodEnd,
		Limit:       u.Limit,
		Spent:       u.Spent,
		Remaining:   u.Remaining,
	}
}

func planID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "planID"))
	if err != nil {
		http.Error(w, "invalid plan id", http.StatusBadRequest)
		return uuid.Nil, false
	}

	return id, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, plan.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	http.Error(w, "internal error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
