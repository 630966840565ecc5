package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"homeledger/internal/core"
	"homeledger/internal/ledger"
	applog "homeledger/internal/log"
	"homeledger/internal/services"
)

func newTestServer() *Server {
	store := ledger.New()
	ledgerSvc := services.NewLedgerService(store, nil, nil)
	importSvc := services.NewImportService(store, nil, nil)
	logger := applog.New(applog.DefaultConfig())
	return NewServer(":0", ledgerSvc, importSvc, 10<<20, logger)
}

func doRequest(s *Server, method, target string, body *bytes.Buffer) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	if body.Len() > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	s := newTestServer()
	defer s.rateLimiter.stop()

	rec := doRequest(s, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("GET /healthz status = %d, want 200", rec.Code)
	}
}

func TestServer_TransactionLifecycle(t *testing.T) {
	s := newTestServer()
	defer s.rateLimiter.stop()

	body := bytes.NewBufferString(`{
		"date": "2024-03-05",
		"amount": 120,
		"description": "groceries",
		"category": "Food",
		"person": "yuval",
		"source": "credit_card",
		"notes": ""
	}`)

	rec := doRequest(s, http.MethodPost, "/api/transactions", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /api/transactions status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var created core.Transaction
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created transaction: %v", err)
	}
	if created.ID == "" {
		t.Error("created transaction has no id")
	}

	rec = doRequest(s, http.MethodGet, "/api/transactions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/transactions status = %d", rec.Code)
	}
	var listed []core.Transaction
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode transaction list: %v", err)
	}
	if len(listed) != 1 {
		t.Errorf("list len = %d, want 1", len(listed))
	}

	rec = doRequest(s, http.MethodDelete, "/api/transactions/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("DELETE status = %d, want 204", rec.Code)
	}

	rec = doRequest(s, http.MethodGet, "/api/transactions", nil)
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("list after delete = %s, want []", got)
	}
}

func TestServer_CreateTransaction_Invalid(t *testing.T) {
	s := newTestServer()
	defer s.rateLimiter.stop()

	body := bytes.NewBufferString(`{"date":"2024-03-05","person":"nobody","source":"cash"}`)
	rec := doRequest(s, http.MethodPost, "/api/transactions", body)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestServer_MonthlySummary(t *testing.T) {
	s := newTestServer()
	defer s.rateLimiter.stop()

	store := s.ledger.Store()
	store.AddMonthlyIncome(core.MonthlyIncome{Person: core.PersonYuval, Amount: 9000, Date: core.NewDate(2024, 3, 1)})
	store.AddTransaction(core.Transaction{
		Date: core.NewDate(2024, 3, 5), Amount: 1000, Category: "Food",
		Person: core.PersonYuval, Source: core.SourceCash,
	})

	rec := doRequest(s, http.MethodGet, "/api/summary/monthly?year=2024&month=3", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var sum core.MonthlySummary
	if err := json.Unmarshal(rec.Body.Bytes(), &sum); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if sum.Income != 9000 || sum.Expenses != 1000 || sum.Balance != 8000 {
		t.Errorf("summary = %+v", sum)
	}
	if sum.TopCategory != "Food" {
		t.Errorf("TopCategory = %q, want Food", sum.TopCategory)
	}
}

func TestServer_SetSavingsPercentage_OutOfRange(t *testing.T) {
	s := newTestServer()
	defer s.rateLimiter.stop()

	body := bytes.NewBufferString(`{"percentage":150}`)
	rec := doRequest(s, http.MethodPut, "/api/settings/savings-percentage", body)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestServer_ImportStatement(t *testing.T) {
	s := newTestServer()
	defer s.rateLimiter.stop()

	f := excelize.NewFile()
	sheet := f.GetSheetList()[0]
	rows := [][]any{
		{"תאריך עסקה", "שם בית העסק", "קטגוריה", "סכום חיוב"},
		{"05/03/2024", "סופרמרקט", "מזון", "₪1,234.50"},
	}
	for i, row := range rows {
		r := row
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+1), &r); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	wb, err := f.WriteToBuffer()
	f.Close()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "statement.xlsx")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write(wb.Bytes()); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	_ = mw.WriteField("person", "benny")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("POST /api/import status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp importResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode import response: %v", err)
	}
	if !resp.Success || resp.RecordsProcessed != 1 {
		t.Errorf("import response = %+v", resp)
	}
	if len(resp.Transactions) != 1 || resp.Transactions[0].Person != core.PersonBenny {
		t.Errorf("imported transactions = %+v", resp.Transactions)
	}
}

func TestServer_ImportStatement_MissingFile(t *testing.T) {
	s := newTestServer()
	defer s.rateLimiter.stop()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("person", "benny")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
