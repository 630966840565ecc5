package httpapi

import (
	"errors"
	"net/http"

	"homeledger/internal/core"
	"homeledger/internal/importer"
	"homeledger/internal/log"
)

type importResponse struct {
	Success          bool               `json:"success"`
	RecordsProcessed int                `json:"recordsProcessed"`
	Errors           []string           `json:"errors"`
	Transactions     []core.Transaction `json:"transactions"`
}

// handleImportStatement accepts a multipart upload with fields "file",
// "person", and optional "format" (defaults to credit_card), runs the
// workbook through the importer, and lands accepted rows in the ledger.
func (s *Server) handleImportStatement(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.importMaxBytes)

	if err := r.ParseMultipartForm(s.importMaxBytes); err != nil {
		writeError(w, http.StatusBadRequest, "parse multipart form: "+err.Error())
		return
	}

	person := core.Person(r.FormValue("person"))
	if !person.Valid() {
		writeError(w, http.StatusBadRequest, core.ErrInvalidPerson.Error())
		return
	}

	format := importer.SourceCreditCard
	if v := r.FormValue("format"); v != "" {
		format = importer.SourceFormat(v)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	result, added, err := s.importer.ImportStatement(r.Context(), file, format, person)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, importer.ErrUnsupportedSource) {
			status = http.StatusUnprocessableEntity
		}
		s.logger.WarnContext(r.Context(), "Statement import failed",
			"filename", header.Filename, log.FieldError, err.Error())
		writeError(w, status, err.Error())
		return
	}

	if added == nil {
		added = []core.Transaction{}
	}
	errs := result.Errors
	if errs == nil {
		errs = []string{}
	}

	writeJSON(w, http.StatusOK, importResponse{
		Success:          result.Success,
		RecordsProcessed: result.RecordsProcessed,
		Errors:           errs,
		Transactions:     added,
	})
}
