package httpapi

import (
	"net/http"

	"homeledger/internal/core"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cs := s.ledger.Store().Categories()
	if cs == nil {
		cs = []core.Category{}
	}
	writeJSON(w, http.StatusOK, cs)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var c core.Category
	if err := readJSON(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	added, err := s.ledger.AddCategory(r.Context(), c)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var c core.Category
	if err := readJSON(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.ledger.UpdateCategory(r.Context(), r.PathValue("id"), c); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	s.ledger.DeleteCategory(r.Context(), r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Amount float64 `json:"amount"`
	}
	if err := readJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.Amount < 0 {
		writeError(w, http.StatusBadRequest, "budget amount cannot be negative")
		return
	}

	s.ledger.SetBudget(r.Context(), r.PathValue("id"), body.Amount)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListIncomes(w http.ResponseWriter, r *http.Request) {
	ms := s.ledger.Store().MonthlyIncomes()
	if ms == nil {
		ms = []core.MonthlyIncome{}
	}
	writeJSON(w, http.StatusOK, ms)
}

func (s *Server) handleAddIncome(w http.ResponseWriter, r *http.Request) {
	var m core.MonthlyIncome
	if err := readJSON(r, &m); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.ledger.AddMonthlyIncome(r.Context(), m); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
	var m core.MonthlyIncome
	if err := readJSON(r, &m); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := m.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.ledger.UpdateMonthlyIncome(r.Context(), m.Person, m.Date, m.Amount, m.Notes)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	person := core.Person(r.URL.Query().Get("person"))
	if !person.Valid() {
		writeError(w, http.StatusBadRequest, core.ErrInvalidPerson.Error())
		return
	}
	date, err := core.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.ledger.DeleteMonthlyIncome(r.Context(), person, date)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearIncomes(w http.ResponseWriter, r *http.Request) {
	s.ledger.ClearMonthlyIncomes(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetSavingsPercentage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Percentage float64 `json:"percentage"`
	}
	if err := readJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.Percentage < 0 || body.Percentage > 100 {
		writeError(w, http.StatusBadRequest, core.ErrInvalidPercent.Error())
		return
	}

	s.ledger.SetSavingsPercentage(r.Context(), body.Percentage)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListLoans(w http.ResponseWriter, r *http.Request) {
	ls := s.ledger.Store().Loans()
	if ls == nil {
		ls = []core.Loan{}
	}
	writeJSON(w, http.StatusOK, ls)
}

func (s *Server) handleCreateLoan(w http.ResponseWriter, r *http.Request) {
	var l core.Loan
	if err := readJSON(r, &l); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	added, err := s.ledger.AddLoan(r.Context(), l)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

func (s *Server) handleUpdateLoan(w http.ResponseWriter, r *http.Request) {
	var l core.Loan
	if err := readJSON(r, &l); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.ledger.UpdateLoan(r.Context(), r.PathValue("id"), l); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteLoan(w http.ResponseWriter, r *http.Request) {
	s.ledger.DeleteLoan(r.Context(), r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddLoanPayment(w http.ResponseWriter, r *http.Request) {
	var p core.LoanPayment
	if err := readJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	added, err := s.ledger.AddLoanPayment(r.Context(), r.PathValue("id"), p)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if added.ID == "" {
		writeError(w, http.StatusNotFound, "loan not found")
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

func (s *Server) handleDeleteLoanPayment(w http.ResponseWriter, r *http.Request) {
	s.ledger.DeleteLoanPayment(r.Context(), r.PathValue("id"), r.PathValue("paymentID"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWithdrawFromLoan(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Amount float64 `json:"amount"`
	}
	if err := readJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.Amount <= 0 {
		writeError(w, http.StatusBadRequest, core.ErrNegativeAmount.Error())
		return
	}

	s.ledger.WithdrawFromLoan(r.Context(), r.PathValue("id"), body.Amount)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListInvestments(w http.ResponseWriter, r *http.Request) {
	is := s.ledger.Store().Investments()
	if is == nil {
		is = []core.Investment{}
	}
	writeJSON(w, http.StatusOK, is)
}

func (s *Server) handleCreateInvestment(w http.ResponseWriter, r *http.Request) {
	var inv core.Investment
	if err := readJSON(r, &inv); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	added, err := s.ledger.AddInvestment(r.Context(), inv)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

func (s *Server) handleUpdateInvestment(w http.ResponseWriter, r *http.Request) {
	var inv core.Investment
	if err := readJSON(r, &inv); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.ledger.UpdateInvestment(r.Context(), r.PathValue("id"), inv); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteInvestment(w http.ResponseWriter, r *http.Request) {
	s.ledger.DeleteInvestment(r.Context(), r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}
