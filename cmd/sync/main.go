package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"time"

	"github.com/avolkov/finledger/internal/aggregator"
	"github.com/avolkov/finledger/internal/config"
	"github.com/avolkov/finledger/internal/ledger"
	"github.com/avolkov/finledger/internal/logger"
	"github.com/avolkov/finledger/internal/processor"
	"github.com/avolkov/finledger/internal/reconcile"
)

func main() {
	log := logger.New()

	var (
		platform  = flag.String("platform", "", "platform to sync: aggregator or processor")
		userID    = flag.String("user", "", "owning user id")
		accountID = flag.String("account", "", "aggregator-linked account id")
		companyID = flag.String("company", "", "company id with a processor connection")
	)
	flag.Parse()

	if *userID == "" {
		log.Fatal().Msg("Error: --user is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	store, err := ledger.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger")
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}

	reconciler := reconcile.New(store, log)

	var summary *reconcile.Summary
	switch *platform {
	case "aggregator":
		if *accountID == "" {
			log.Fatal().Msg("Error: --account is required for aggregator sync")
		}
		syncer := reconcile.NewAggregatorSyncer(store, aggregator.NewClient(cfg.AggregatorBaseURL), reconciler, cfg.AggregatorMaxRecords, log)
		summary, err = syncer.SyncAccount(ctx, *userID, *accountID)
	case "processor":
		if *companyID == "" {
			log.Fatal().Msg("Error: --company is required for processor sync")
		}
		syncer := reconcile.NewProcessorSyncer(store, processor.NewClient(cfg.ProcessorBaseURL), reconciler, cfg.ProcessorPageSize, cfg.ProcessorMaxRecords, log)
		summary, err = syncer.SyncCompany(ctx, *userID, *companyID)
	default:
		log.Fatal().Str("platform", *platform).Msg("Unknown platform")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))
}
