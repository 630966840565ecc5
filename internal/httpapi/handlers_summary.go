package httpapi

import (
	"net/http"
	"strings"
	"time"
)

func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)
	at := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	writeJSON(w, http.StatusOK, s.ledger.Store().MonthlySummary(at))
}

func (s *Server) handleCategorySummaries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.Store().CategorySummaries())
}

func (s *Server) handlePersonSummaries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.Store().PersonSummaries())
}

func (s *Server) handleInvestmentSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.Store().InvestmentSummary())
}

func (s *Server) handleBudgetAlerts(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r)
	at := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	writeJSON(w, http.StatusOK, s.ledger.Store().BudgetAlerts(at))
}

func (s *Server) handleSuggestCategory(w http.ResponseWriter, r *http.Request) {
	description := strings.TrimSpace(r.URL.Query().Get("description"))
	if description == "" {
		writeError(w, http.StatusBadRequest, "description query parameter is required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"category": s.ledger.Store().SuggestCategory(description),
	})
}
