package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"hisob/internal/core"
	"hisob/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps domain sentinels to HTTP statuses. Validation
// failures carry their message through; anything unexpected stays opaque.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidDirection),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrEmptyPersonName):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, core.ErrUsernameTaken):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, core.ErrDebtNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, core.ErrDebtNotActive):
		writeError(w, http.StatusConflict, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method, "url", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	return dec.Decode(dst)
}

// ---- read models ----

type userView struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name,omitempty"`
}

type entryView struct {
	ID          int64     `json:"id"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
	Date        string    `json:"date"`
	CreatedAt   time.Time `json:"created_at"`
}

func toEntryView(e core.Entry) entryView {
	return entryView{
		ID:          e.ID,
		Amount:      e.Amount.Units(),
		Category:    e.Category,
		Description: e.Description,
		Date:        e.Date.String(),
		CreatedAt:   e.CreatedAt,
	}
}

func toEntryViews(entries []core.Entry) []entryView {
	views := make([]entryView, len(entries))
	for i, e := range entries {
		views[i] = toEntryView(e)
	}
	return views
}

type debtView struct {
	ID              int64     `json:"id"`
	Type            string    `json:"type"`
	PersonName      string    `json:"person_name"`
	Amount          float64   `json:"amount"`
	RemainingAmount float64   `json:"remaining_amount"`
	DueDate         *string   `json:"due_date"`
	Description     *string   `json:"description"`
	Status          string    `json:"status"`
	IsOverdue       bool      `json:"is_overdue"`
	CreatedAt       time.Time `json:"created_at"`
}

func toDebtView(d services.DebtView) debtView {
	v := debtView{
		ID:              d.ID,
		Type:            string(d.Direction),
		PersonName:      d.PersonName,
		Amount:          d.Amount.Units(),
		RemainingAmount: clampRemaining(d.Remaining).Units(),
		Status:          string(d.Status),
		IsOverdue:       d.IsOverdue,
		CreatedAt:       d.CreatedAt,
	}
	if !d.DueDate.IsEmpty() {
		due := d.DueDate.String()
		v.DueDate = &due
	}
	if d.Description != "" {
		desc := d.Description
		v.Description = &desc
	}
	return v
}

// clampRemaining hides overpayment below zero from API consumers. The ledger
// keeps the raw value.
func clampRemaining(m core.Money) core.Money {
	if m.Cents < 0 {
		return core.Money{}
	}
	return m
}

type paymentResultView struct {
	DebtID          int64   `json:"debt_id"`
	RemainingAmount float64 `json:"remaining_amount"`
	Status          string  `json:"status"`
}

type dashboardView struct {
	Balance       float64 `json:"balance"`
	TotalIncome   float64 `json:"totalIncome"`
	TotalExpenses float64 `json:"totalExpenses"`
	DebtsGiven    float64 `json:"debtsGiven"`
	DebtsTaken    float64 `json:"debtsTaken"`
}

type analysisItemView struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

type analysisView struct {
	Insights        []analysisItemView `json:"insights"`
	Recommendations []analysisItemView `json:"recommendations"`
	Alerts          []analysisItemView `json:"alerts"`
}

func toAnalysisItems(items []core.AnalysisItem) []analysisItemView {
	views := make([]analysisItemView, len(items))
	for i, it := range items {
		views[i] = analysisItemView(it)
	}
	return views
}
