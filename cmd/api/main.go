package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avolkov/finledger/internal/aggregator"
	"github.com/avolkov/finledger/internal/api/handlers"
	"github.com/avolkov/finledger/internal/api/middleware"
	"github.com/avolkov/finledger/internal/config"
	"github.com/avolkov/finledger/internal/document"
	"github.com/avolkov/finledger/internal/extract"
	"github.com/avolkov/finledger/internal/ledger"
	"github.com/avolkov/finledger/internal/logger"
	"github.com/avolkov/finledger/internal/processor"
	"github.com/avolkov/finledger/internal/reconcile"
	"github.com/avolkov/finledger/internal/spreadsheet"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if cfg.GCSBucket == "" {
		log.Warn().Msg("No GCS bucket configured - document uploads will be disabled")
	}

	ctx := context.Background()

	store, err := ledger.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger")
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}

	model := extract.NewGeminiCaller(cfg.GeminiModel, cfg.ExtractTimeout)
	documents := document.NewAdapter(model, cfg.MaxDocumentBytes, cfg.MinStatementChars, cfg.MaxStatementChars, log)
	spreadsheets := spreadsheet.NewAdapter(model, cfg.MaxDocumentBytes, log)

	reconciler := reconcile.New(store, log)
	aggSyncer := reconcile.NewAggregatorSyncer(store, aggregator.NewClient(cfg.AggregatorBaseURL), reconciler, cfg.AggregatorMaxRecords, log)
	procSyncer := reconcile.NewProcessorSyncer(store, processor.NewClient(cfg.ProcessorBaseURL), reconciler, cfg.ProcessorPageSize, cfg.ProcessorMaxRecords, log)

	ingest := handlers.NewIngestHandler(documents, spreadsheets, reconciler, aggSyncer, procSyncer, store, cfg.GCSBucket, cfg.MaxDocumentBytes, log)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/documents/upload", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			ingest.UploadDocument(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/documents", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			ingest.ListDocuments(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/ingest/document", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			ingest.IngestDocument(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/ingest/spreadsheet", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			ingest.IngestSpreadsheet(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/sync/aggregator", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			ingest.SyncAggregator(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/sync/processor", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			ingest.SyncProcessor(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			ingest.ListTransactions(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/accounts", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			ingest.ListAccounts(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // extraction runs are synchronous
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
