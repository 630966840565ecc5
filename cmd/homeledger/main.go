package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"homeledger/internal/amqp"
	"homeledger/internal/config"
	"homeledger/internal/httpapi"
	"homeledger/internal/ledger"
	applog "homeledger/internal/log"
	"homeledger/internal/services"
	"homeledger/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Hydrate the in-memory store from the mirror.
	store := ledger.New()
	loadCtx, loadCancel := context.WithTimeout(context.Background(), 30*time.Second)
	snap, err := repo.LoadAll(loadCtx)
	loadCancel()
	if err != nil {
		logger.Error("Failed to load ledger from storage", "error", err)
		os.Exit(1)
	}
	store.ReplaceAll(snap)
	logger.Info("Ledger loaded",
		"transactions", len(snap.Transactions),
		"categories", len(snap.Categories),
		"loans", len(snap.Loans),
		"investments", len(snap.Investments))

	// AMQP is optional for the server: mutations still land in SQLite, the
	// worker's periodic sweep picks them up later.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, continuing without sync messages", "error", err)
			amqpClient = nil
		}
	}

	ledgerSvc := services.NewLedgerService(store, repo, amqpClient)
	importSvc := services.NewImportService(store, repo, amqpClient)

	srv := httpapi.NewServer(":"+cfg.Port, ledgerSvc, importSvc, cfg.ImportMaxBytes, logger)
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting homeledger server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("AMQP close error", "error", err)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully")
}
