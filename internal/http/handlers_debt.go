package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hisob/internal/auth"
	"hisob/internal/core"
	"hisob/internal/services"
)

type createDebtRequest struct {
	Type        string      `json:"type"`
	PersonName  string      `json:"person_name"`
	Amount      json.Number `json:"amount"`
	DueDate     string      `json:"due_date"`
	Description string      `json:"description"`
}

type recordPaymentRequest struct {
	Amount      json.Number `json:"amount"`
	PaymentDate string      `json:"payment_date"`
}

func (s *Server) handleCreateDebt(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing token")
		return
	}

	var req createDebtRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cents, err := core.ParseAmountToCents(req.Amount.String())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var dueDate core.Date
	if strings.TrimSpace(req.DueDate) != "" {
		dueDate, err = core.ParseDate(req.DueDate)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
	}

	debt, err := s.debts.CreateDebt(r.Context(), userID, services.CreateDebtInput{
		Direction:   core.DebtDirection(strings.TrimSpace(req.Type)),
		PersonName:  strings.TrimSpace(req.PersonName),
		AmountCents: cents,
		DueDate:     dueDate,
		Description: strings.TrimSpace(req.Description),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toDebtView(services.DebtView{
		Debt:      debt,
		IsOverdue: debt.IsOverdue(core.DateOf(time.Now())),
	}))
}

func (s *Server) handleListDebts(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing token")
		return
	}

	direction := core.DebtDirection(strings.TrimSpace(r.URL.Query().Get("type")))
	debts, err := s.debts.ListDebts(r.Context(), userID, direction)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	views := make([]debtView, len(debts))
	for i, d := range debts {
		views[i] = toDebtView(d)
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing token")
		return
	}

	debtID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid debt id")
		return
	}

	var req recordPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cents, err := core.ParseAmountToCents(req.Amount.String())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	// Payment date defaults to today when omitted.
	paymentDate := core.DateOf(time.Now())
	if strings.TrimSpace(req.PaymentDate) != "" {
		paymentDate, err = core.ParseDate(req.PaymentDate)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
	}

	result, err := s.debts.RecordPayment(r.Context(), userID, debtID, cents, paymentDate)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, paymentResultView{
		DebtID:          result.DebtID,
		RemainingAmount: clampRemaining(result.Remaining).Units(),
		Status:          string(result.Status),
	})
}
