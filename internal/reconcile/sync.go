package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/avolkov/finledger/internal/aggregator"
	"github.com/avolkov/finledger/internal/categorize"
	"github.com/avolkov/finledger/internal/domain"
	"github.com/avolkov/finledger/internal/ledger"
	"github.com/avolkov/finledger/internal/processor"
)

// SyncLedger extends Ledger with the credential and cursor operations the
// platform sync paths need.
type SyncLedger interface {
	Ledger
	GetItemCredential(ctx context.Context, itemID string) (string, error)
	GetProcessorKey(ctx context.Context, companyID string) (string, error)
	AdvanceSyncCursor(ctx context.Context, accountID, cursor string) error
}

// AggregatorSyncer runs one incremental sync for a linked account.
type AggregatorSyncer struct {
	store      SyncLedger
	client     *aggregator.Client
	reconciler *Reconciler
	maxRecords int
	log        zerolog.Logger
}

// NewAggregatorSyncer wires the aggregator sync path.
func NewAggregatorSyncer(store SyncLedger, client *aggregator.Client, reconciler *Reconciler, maxRecords int, log zerolog.Logger) *AggregatorSyncer {
	return &AggregatorSyncer{store: store, client: client, reconciler: reconciler, maxRecords: maxRecords, log: log}
}

// SyncAccount pulls the incremental feed from the account's stored cursor,
// persists the page set, and only then advances the cursor. A pagination or
// persistence-wide failure leaves the cursor untouched, so the next run
// resumes from the last durably committed page; duplicates from the re-fetch
// are absorbed by the external-id constraint.
func (s *AggregatorSyncer) SyncAccount(ctx context.Context, userID, accountID string) (*Summary, error) {
	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("aggregator sync: load account: %w", err)
	}
	if account.UserID != userID {
		return nil, domain.AuthorizationFailure("account " + accountID)
	}
	if account.Origin != domain.OriginAggregator || account.ExternalItemID == nil {
		return nil, domain.InputRejected("account " + accountID + " is not aggregator-linked")
	}

	accessToken, err := s.store.GetItemCredential(ctx, *account.ExternalItemID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, domain.InputRejected("no stored credential for item " + *account.ExternalItemID)
		}
		return nil, fmt.Errorf("aggregator sync: load credential: %w", err)
	}

	cursor := ""
	if account.SyncCursor != nil {
		cursor = *account.SyncCursor
	}

	feed, err := s.client.Sync(ctx, accessToken, cursor, s.maxRecords)
	if err != nil {
		return nil, fmt.Errorf("aggregator sync: %w", err)
	}

	batch := &Batch{
		UserID:    userID,
		CompanyID: userID,
		Source:    SourceAggregator,
		AccountID: account.ID,
	}
	for _, item := range feed.Added {
		candidate, err := item.Candidate()
		if err != nil {
			s.log.Warn().Err(err).Msg("dropping malformed aggregator item")
			continue
		}
		candidate.Category = categorize.Categorize(item.CategoryHint)
		batch.Transactions = append(batch.Transactions, candidate)
	}

	summary, err := s.reconciler.Run(ctx, batch)
	if err != nil {
		return nil, err
	}

	// The cursor may advance only once every record behind it is durably
	// written. A per-record persistence failure is recovered in the summary,
	// but the feed never resends items behind the cursor, so advancing past
	// the failed record would lose it for good. Holding the cursor re-fetches
	// the page set next run; the already-written records become duplicate
	// skips.
	if len(summary.Errors) == 0 && feed.NextCursor != "" && feed.NextCursor != cursor {
		if err := s.store.AdvanceSyncCursor(ctx, account.ID, feed.NextCursor); err != nil {
			return nil, fmt.Errorf("aggregator sync: advance cursor: %w", err)
		}
	}
	return summary, nil
}

// ProcessorSyncer imports the payment processor's ledger for a company.
type ProcessorSyncer struct {
	store      SyncLedger
	client     *processor.Client
	reconciler *Reconciler
	pageSize   int
	maxRecords int
	log        zerolog.Logger
}

// NewProcessorSyncer wires the processor sync path.
func NewProcessorSyncer(store SyncLedger, client *processor.Client, reconciler *Reconciler, pageSize, maxRecords int, log zerolog.Logger) *ProcessorSyncer {
	return &ProcessorSyncer{store: store, client: client, reconciler: reconciler, pageSize: pageSize, maxRecords: maxRecords, log: log}
}

// SyncCompany re-queries the processor ledger from offset zero every run.
// No cursor is kept: the stable entry ids make re-fetched records benign
// duplicate-skips.
func (s *ProcessorSyncer) SyncCompany(ctx context.Context, userID, companyID string) (*Summary, error) {
	apiKey, err := s.store.GetProcessorKey(ctx, companyID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, domain.InputRejected("no stored processor key for company " + companyID)
		}
		return nil, fmt.Errorf("processor sync: load key: %w", err)
	}

	entries, err := s.client.ListEntries(ctx, apiKey, s.pageSize, s.maxRecords)
	if err != nil {
		return nil, fmt.Errorf("processor sync: %w", err)
	}

	batch := &Batch{
		UserID:    userID,
		CompanyID: companyID,
		Source:    SourceProcessor,
	}
	for _, entry := range entries {
		candidate, err := entry.Candidate()
		if err != nil {
			s.log.Warn().Err(err).Msg("dropping malformed processor entry")
			continue
		}
		candidate.Category = categorize.Categorize(entry.Type + " " + entry.Description)
		batch.Transactions = append(batch.Transactions, candidate)
	}

	return s.reconciler.Run(ctx, batch)
}
