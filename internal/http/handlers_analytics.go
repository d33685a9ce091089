package http

import (
	"net/http"

	"hisob/internal/auth"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing token")
		return
	}

	d, err := s.analytics.Dashboard(r.Context(), userID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dashboardView{
		Balance:       d.Balance.Units(),
		TotalIncome:   d.TotalIncome.Units(),
		TotalExpenses: d.TotalExpenses.Units(),
		DebtsGiven:    d.DebtsGiven.Units(),
		DebtsTaken:    d.DebtsTaken.Units(),
	})
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing token")
		return
	}

	a, err := s.analytics.Analyze(r.Context(), userID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, analysisView{
		Insights:        toAnalysisItems(a.Insights),
		Recommendations: toAnalysisItems(a.Recommendations),
		Alerts:          toAnalysisItems(a.Alerts),
	})
}
