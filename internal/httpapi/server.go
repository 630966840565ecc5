// Package httpapi exposes the ledger over a JSON HTTP API: aggregation
// queries, ledger mutations, and statement import.
package httpapi

import (
	"context"
	"net/http"
	"sync"
	"time"

	"homeledger/internal/log"
	"homeledger/internal/services"
)

type Server struct {
	http.Server
	ledger      *services.LedgerService
	importer    *services.ImportService
	logger      *log.Logger
	rateLimiter *rateLimiter

	importMaxBytes int64

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, ledgerSvc *services.LedgerService, importSvc *services.ImportService, importMaxBytes int64, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			Handler:      log.Middleware(logger)(mux),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		ledger:         ledgerSvc,
		importer:       importSvc,
		logger:         logger.WithComponent(log.ComponentHTTP),
		rateLimiter:    newRateLimiter(),
		importMaxBytes: importMaxBytes,
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/summary/monthly", s.withMiddleware(s.handleMonthlySummary))
	mux.HandleFunc("GET /api/summary/categories", s.withMiddleware(s.handleCategorySummaries))
	mux.HandleFunc("GET /api/summary/persons", s.withMiddleware(s.handlePersonSummaries))
	mux.HandleFunc("GET /api/summary/investments", s.withMiddleware(s.handleInvestmentSummary))
	mux.HandleFunc("GET /api/alerts/budget", s.withMiddleware(s.handleBudgetAlerts))
	mux.HandleFunc("GET /api/suggest-category", s.withMiddleware(s.handleSuggestCategory))

	mux.HandleFunc("GET /api/transactions", s.withMiddleware(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.withMiddleware(s.handleCreateTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.withMiddleware(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withMiddleware(s.handleDeleteTransaction))
	mux.HandleFunc("POST /api/transactions/clear", s.withMiddleware(s.handleClearTransactions))
	mux.HandleFunc("POST /api/transactions/undo", s.withMiddleware(s.handleUndoTransactions))

	mux.HandleFunc("GET /api/categories", s.withMiddleware(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.withMiddleware(s.handleCreateCategory))
	mux.HandleFunc("PUT /api/categories/{id}", s.withMiddleware(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", s.withMiddleware(s.handleDeleteCategory))
	mux.HandleFunc("PUT /api/categories/{id}/budget", s.withMiddleware(s.handleSetBudget))

	mux.HandleFunc("GET /api/incomes", s.withMiddleware(s.handleListIncomes))
	mux.HandleFunc("POST /api/incomes", s.withMiddleware(s.handleAddIncome))
	mux.HandleFunc("PUT /api/incomes", s.withMiddleware(s.handleUpdateIncome))
	mux.HandleFunc("DELETE /api/incomes", s.withMiddleware(s.handleDeleteIncome))
	mux.HandleFunc("POST /api/incomes/clear", s.withMiddleware(s.handleClearIncomes))

	mux.HandleFunc("PUT /api/settings/savings-percentage", s.withMiddleware(s.handleSetSavingsPercentage))

	mux.HandleFunc("GET /api/loans", s.withMiddleware(s.handleListLoans))
	mux.HandleFunc("POST /api/loans", s.withMiddleware(s.handleCreateLoan))
	mux.HandleFunc("PUT /api/loans/{id}", s.withMiddleware(s.handleUpdateLoan))
	mux.HandleFunc("DELETE /api/loans/{id}", s.withMiddleware(s.handleDeleteLoan))
	mux.HandleFunc("POST /api/loans/{id}/payments", s.withMiddleware(s.handleAddLoanPayment))
	mux.HandleFunc("DELETE /api/loans/{id}/payments/{paymentID}", s.withMiddleware(s.handleDeleteLoanPayment))
	mux.HandleFunc("POST /api/loans/{id}/withdraw", s.withMiddleware(s.handleWithdrawFromLoan))

	mux.HandleFunc("GET /api/investments", s.withMiddleware(s.handleListInvestments))
	mux.HandleFunc("POST /api/investments", s.withMiddleware(s.handleCreateInvestment))
	mux.HandleFunc("PUT /api/investments/{id}", s.withMiddleware(s.handleUpdateInvestment))
	mux.HandleFunc("DELETE /api/investments/{id}", s.withMiddleware(s.handleDeleteInvestment))

	mux.HandleFunc("POST /api/import", s.withMiddleware(s.handleImportStatement))

	return s
}

// withMiddleware adds security headers, rate limiting, and a request id.
// Request logging happens in the outer log.Middleware wrapper.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey, requestID))

		// Rate limit mutations only; reads are cheap in-memory queries.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			s.logger.WarnContext(r.Context(), "Rate limit exceeded",
				log.FieldClientIP, clientIP, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")

		next(w, r)
	}
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
