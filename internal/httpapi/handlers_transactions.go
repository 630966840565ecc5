package httpapi

import (
	"net/http"

	"homeledger/internal/core"
	"homeledger/internal/log"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	ts := s.ledger.Store().Transactions()
	if ts == nil {
		ts = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, ts)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var t core.Transaction
	if err := readJSON(r, &t); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	added, err := s.ledger.AddTransaction(r.Context(), t)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.logger.InfoContext(r.Context(), "Transaction created",
		log.FieldPerson, string(added.Person),
		log.FieldCategory, added.Category,
		log.FieldAmount, added.Amount)

	writeJSON(w, http.StatusCreated, added)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var t core.Transaction
	if err := readJSON(r, &t); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.ledger.UpdateTransaction(r.Context(), id, t); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	s.ledger.DeleteTransaction(r.Context(), r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearTransactions(w http.ResponseWriter, r *http.Request) {
	s.ledger.ClearTransactions(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUndoTransactions(w http.ResponseWriter, r *http.Request) {
	s.ledger.UndoTransactions(r.Context())
	writeJSON(w, http.StatusOK, s.ledger.Store().Transactions())
}
