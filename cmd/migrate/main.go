package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/avolkov/finledger/internal/config"
	"github.com/avolkov/finledger/internal/ledger"
	"github.com/avolkov/finledger/internal/logger"
)

func main() {
	log := logger.New()

	dbPath := flag.String("db", "", "ledger database path (defaults to LEDGER_DB_PATH)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *dbPath == "" {
		*dbPath = cfg.DBPath
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, err := ledger.Open(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger")
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}

	fmt.Printf("Ledger schema up to date at %s\n", *dbPath)
}
