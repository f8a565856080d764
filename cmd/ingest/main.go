package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/avolkov/finledger/internal/blobstore"
	"github.com/avolkov/finledger/internal/config"
	"github.com/avolkov/finledger/internal/document"
	"github.com/avolkov/finledger/internal/extract"
	"github.com/avolkov/finledger/internal/ledger"
	"github.com/avolkov/finledger/internal/logger"
	"github.com/avolkov/finledger/internal/reconcile"
	"github.com/avolkov/finledger/internal/spreadsheet"
)

func main() {
	log := logger.New()

	var (
		source    = flag.String("source", "", "path or gs:// URI of the statement (PDF or CSV)")
		kind      = flag.String("kind", "document", "statement kind: document or spreadsheet")
		userID    = flag.String("user", "", "owning user id")
		companyID = flag.String("company", "", "owning company id")
		accountID = flag.String("account", "", "target account id (optional)")
		confirm   = flag.Bool("confirm", false, "persist the extracted records (omit for a dry run)")
	)
	flag.Parse()

	if *source == "" || *userID == "" || *companyID == "" {
		log.Fatal().Msg("Error: --source, --user and --company are required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	data, err := readSource(ctx, *source)
	if err != nil {
		log.Fatal().Err(err).Str("source", *source).Msg("Failed to read statement")
	}

	model := extract.NewGeminiCaller(cfg.GeminiModel, cfg.ExtractTimeout)

	var result *extract.Result
	switch *kind {
	case "document":
		adapter := document.NewAdapter(model, cfg.MaxDocumentBytes, cfg.MinStatementChars, cfg.MaxStatementChars, log)
		result, err = adapter.Parse(ctx, data, "application/pdf")
	case "spreadsheet":
		adapter := spreadsheet.NewAdapter(model, cfg.MaxDocumentBytes, log)
		result, err = adapter.Parse(ctx, data)
	default:
		log.Fatal().Str("kind", *kind).Msg("Unknown statement kind")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Extraction failed")
	}

	log.Info().
		Int("transactions", len(result.Transactions)).
		Int("accounts", len(result.Accounts)).
		Int("dropped", result.Dropped).
		Str("repair_stage", result.Stage).
		Msg("Extraction complete")

	if !*confirm {
		preview, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(preview))
		fmt.Println("Dry run: pass --confirm to persist.")
		return
	}

	store, err := ledger.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger")
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}

	summary, err := reconcile.New(store, log).Run(ctx, &reconcile.Batch{
		UserID:       *userID,
		CompanyID:    *companyID,
		Source:       reconcile.Source(*kind),
		AccountID:    *accountID,
		Transactions: result.Transactions,
		Accounts:     result.Accounts,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Ingestion failed")
	}

	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))
}

func readSource(ctx context.Context, source string) ([]byte, error) {
	if strings.HasPrefix(source, "gs://") {
		return blobstore.Fetch(ctx, source)
	}
	return os.ReadFile(source)
}
