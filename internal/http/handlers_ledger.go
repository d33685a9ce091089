package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"hisob/internal/auth"
	"hisob/internal/core"
)

type addEntryRequest struct {
	Amount      json.Number `json:"amount"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
	Date        string      `json:"date"`
}

// entryFromRequest turns a request body into a validated-enough Entry; the
// service performs the full validation.
func entryFromRequest(req addEntryRequest) (core.Entry, error) {
	cents, err := core.ParseAmountToCents(req.Amount.String())
	if err != nil {
		return core.Entry{}, err
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.Entry{}, err
	}
	return core.Entry{
		Amount:      core.Money{Cents: cents},
		Category:    strings.TrimSpace(req.Category),
		Description: strings.TrimSpace(req.Description),
		Date:        date,
	}, nil
}

type addFunc func(ctx context.Context, userID int64, e core.Entry) (int64, error)

func (s *Server) addEntry(w http.ResponseWriter, r *http.Request, add addFunc) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing token")
		return
	}

	var req addEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := entryFromRequest(req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	id, err := add(r.Context(), userID, entry)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	entry.ID = id
	writeJSON(w, http.StatusCreated, toEntryView(entry))
}

func (s *Server) handleAddIncome(w http.ResponseWriter, r *http.Request) {
	s.addEntry(w, r, s.ledger.AddIncome)
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	s.addEntry(w, r, s.ledger.AddExpense)
}

func (s *Server) handleListIncome(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing token")
		return
	}

	entries, err := s.ledger.ListIncome(r.Context(), userID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryViews(entries))
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing token")
		return
	}

	entries, err := s.ledger.ListExpenses(r.Context(), userID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryViews(entries))
}
