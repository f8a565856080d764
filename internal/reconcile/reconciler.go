// Package reconcile orchestrates one ingestion run: candidates from a source
// adapter are reconciled against the ledger's accounts and persisted
// idempotently, producing a run summary.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/avolkov/finledger/internal/domain"
	"github.com/avolkov/finledger/internal/ledger"
	"github.com/avolkov/finledger/internal/logger"
)

// Source identifies which adapter produced a batch.
type Source string

const (
	SourceDocument    Source = "document"
	SourceSpreadsheet Source = "spreadsheet"
	SourceAggregator  Source = "aggregator"
	SourceProcessor   Source = "processor"
)

// Ledger is the slice of the store the reconciler needs. ledger.Store
// implements it; tests substitute func-field mocks.
type Ledger interface {
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	FindManualAccountByName(ctx context.Context, userID, name string) (*domain.Account, error)
	CreateAccount(ctx context.Context, a *domain.Account) error
	UpdateAccountBalance(ctx context.Context, id string, balance decimal.Decimal, currency string) error
	InsertTransaction(ctx context.Context, t *domain.Transaction) (bool, error)
}

// Batch is one run's worth of schema-valid candidates.
type Batch struct {
	UserID    string
	CompanyID string
	Source    Source

	Transactions []domain.CandidateTransaction
	Accounts     []domain.ExtractedAccount

	// AccountID optionally pins every transaction to one account. When empty,
	// the first account reconciled in this run becomes the batch default.
	AccountID string
}

// Summary is the run report. Count is rows written, Skipped is benign
// duplicate-skips, Errors holds per-record persistence failures that did not
// abort the batch.
type Summary struct {
	Success         bool     `json:"success"`
	Count           int      `json:"count"`
	Skipped         int      `json:"skipped"`
	Errors          []string `json:"errors"`
	AccountsCreated int      `json:"accountsCreated"`
	AccountsUpdated int      `json:"accountsUpdated"`
}

// Reconciler persists batches against the ledger.
type Reconciler struct {
	store Ledger
	log   zerolog.Logger
}

// New creates a reconciler.
func New(store Ledger, log zerolog.Logger) *Reconciler {
	return &Reconciler{store: store, log: log}
}

// Run reconciles and persists one batch. A persistence failure on one record
// is counted and logged and the run continues; only authorization failures
// abort. The summary's Errors field surfaces per-record reasons in bounded
// form.
func (r *Reconciler) Run(ctx context.Context, batch *Batch) (*Summary, error) {
	log := logger.ForRun(r.log, uuid.NewString(), string(batch.Source))
	summary := &Summary{Errors: []string{}}

	defaultAccountID := batch.AccountID
	if defaultAccountID != "" {
		account, err := r.store.GetAccount(ctx, defaultAccountID)
		if err != nil {
			return nil, fmt.Errorf("reconcile.Run: load account: %w", err)
		}
		if account.UserID != batch.UserID {
			return nil, domain.AuthorizationFailure("account " + defaultAccountID)
		}
	}

	for _, extracted := range batch.Accounts {
		accountID, created, err := r.reconcileAccount(ctx, batch.UserID, extracted)
		if err != nil {
			log.Error().Str("account", extracted.Name).Err(err).Msg("account reconciliation failed")
			summary.Errors = append(summary.Errors, "account "+extracted.Name+": "+domain.BoundExcerpt(err.Error()))
			continue
		}
		if created {
			summary.AccountsCreated++
		} else {
			summary.AccountsUpdated++
		}
		// The first reconciled account becomes the default owner for
		// transactions lacking an explicit reference.
		if defaultAccountID == "" {
			defaultAccountID = accountID
		}
	}

	for i, candidate := range batch.Transactions {
		tx := candidate.Canonical(batch.CompanyID, defaultAccountID)

		inserted, err := r.store.InsertTransaction(ctx, tx)
		if err != nil {
			log.Error().Int("record", i).Err(err).Msg("transaction persistence failed")
			summary.Errors = append(summary.Errors, fmt.Sprintf("record %d: %s", i, domain.BoundExcerpt(err.Error())))
			continue
		}
		if !inserted {
			summary.Skipped++
			continue
		}
		summary.Count++
	}

	summary.Success = true
	log.Info().
		Int("count", summary.Count).
		Int("skipped", summary.Skipped).
		Int("errors", len(summary.Errors)).
		Int("accounts_created", summary.AccountsCreated).
		Int("accounts_updated", summary.AccountsUpdated).
		Msg("run complete")
	return summary, nil
}

// reconcileAccount matches an extracted account against the user's MANUAL
// accounts by case-insensitive name, updating balance and currency on a hit
// and creating a MANUAL account otherwise.
func (r *Reconciler) reconcileAccount(ctx context.Context, userID string, extracted domain.ExtractedAccount) (accountID string, created bool, err error) {
	existing, err := r.store.FindManualAccountByName(ctx, userID, extracted.Name)
	if err != nil && !errors.Is(err, ledger.ErrNotFound) {
		return "", false, err
	}

	if existing != nil {
		currency := extracted.Currency
		if currency == "" {
			currency = existing.Currency
		}
		if err := r.store.UpdateAccountBalance(ctx, existing.ID, extracted.Balance, currency); err != nil {
			return "", false, err
		}
		return existing.ID, false, nil
	}

	currency := extracted.Currency
	if currency == "" {
		currency = "EUR"
	}
	balance := extracted.Balance
	account := &domain.Account{
		ID:       uuid.NewString(),
		UserID:   userID,
		Name:     extracted.Name,
		Currency: currency,
		Balance:  &balance,
		Origin:   domain.OriginManual,
	}
	if err := r.store.CreateAccount(ctx, account); err != nil {
		return "", false, err
	}
	return account.ID, true, nil
}
