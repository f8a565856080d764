package reconcile

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/avolkov/finledger/internal/domain"
	"github.com/avolkov/finledger/internal/ledger"
)

// mockLedger substitutes func fields for the store; unset fields fail the test
// when called.
type mockLedger struct {
	GetAccountFunc              func(ctx context.Context, id string) (*domain.Account, error)
	FindManualAccountByNameFunc func(ctx context.Context, userID, name string) (*domain.Account, error)
	CreateAccountFunc           func(ctx context.Context, a *domain.Account) error
	UpdateAccountBalanceFunc    func(ctx context.Context, id string, balance decimal.Decimal, currency string) error
	InsertTransactionFunc       func(ctx context.Context, t *domain.Transaction) (bool, error)
}

func (m *mockLedger) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return m.GetAccountFunc(ctx, id)
}

func (m *mockLedger) FindManualAccountByName(ctx context.Context, userID, name string) (*domain.Account, error) {
	return m.FindManualAccountByNameFunc(ctx, userID, name)
}

func (m *mockLedger) CreateAccount(ctx context.Context, a *domain.Account) error {
	return m.CreateAccountFunc(ctx, a)
}

func (m *mockLedger) UpdateAccountBalance(ctx context.Context, id string, balance decimal.Decimal, currency string) error {
	return m.UpdateAccountBalanceFunc(ctx, id, balance, currency)
}

func (m *mockLedger) InsertTransaction(ctx context.Context, t *domain.Transaction) (bool, error) {
	return m.InsertTransactionFunc(ctx, t)
}

func candidate(description string, amount float64) domain.CandidateTransaction {
	return domain.CandidateTransaction{
		Date:        civil.Date{Year: 2024, Month: 12, Day: 14},
		Description: description,
		Amount:      decimal.NewFromFloat(amount),
		Category:    domain.CategoryOther,
	}
}

func TestRun_PerRecordFailureDoesNotAbort(t *testing.T) {
	calls := 0
	mock := &mockLedger{
		InsertTransactionFunc: func(ctx context.Context, tx *domain.Transaction) (bool, error) {
			calls++
			if calls == 3 {
				return false, fmt.Errorf("disk full")
			}
			return true, nil
		},
	}

	batch := &Batch{
		UserID:    "user-1",
		CompanyID: "co-1",
		Source:    SourceDocument,
		Transactions: []domain.CandidateTransaction{
			candidate("a", -1), candidate("b", -2), candidate("c", -3),
			candidate("d", -4), candidate("e", -5),
		},
	}

	summary, err := New(mock, zerolog.Nop()).Run(context.Background(), batch)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !summary.Success {
		t.Error("summary not marked successful")
	}
	if summary.Count != 4 {
		t.Errorf("count = %d, want 4", summary.Count)
	}
	if len(summary.Errors) != 1 {
		t.Fatalf("got %d errors, want 1", len(summary.Errors))
	}
	if summary.Errors[0] != "record 2: disk full" {
		t.Errorf("error = %q, want record 2 annotated", summary.Errors[0])
	}
}

func TestRun_DuplicatesCountedAsSkipped(t *testing.T) {
	mock := &mockLedger{
		InsertTransactionFunc: func(ctx context.Context, tx *domain.Transaction) (bool, error) {
			return false, nil
		},
	}

	batch := &Batch{
		UserID:       "user-1",
		CompanyID:    "co-1",
		Source:       SourceAggregator,
		Transactions: []domain.CandidateTransaction{candidate("a", -1), candidate("b", -2)},
	}

	summary, err := New(mock, zerolog.Nop()).Run(context.Background(), batch)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Count != 0 || summary.Skipped != 2 {
		t.Errorf("count/skipped = %d/%d, want 0/2", summary.Count, summary.Skipped)
	}
}

func TestRun_ForeignAccountIsAuthorizationFailure(t *testing.T) {
	mock := &mockLedger{
		GetAccountFunc: func(ctx context.Context, id string) (*domain.Account, error) {
			return &domain.Account{ID: id, UserID: "someone-else"}, nil
		},
	}

	batch := &Batch{
		UserID:    "user-1",
		CompanyID: "co-1",
		Source:    SourceDocument,
		AccountID: "acc-1",
	}

	_, err := New(mock, zerolog.Nop()).Run(context.Background(), batch)
	if !errors.Is(err, domain.ErrAuthorization) {
		t.Fatalf("err = %v, want ErrAuthorization", err)
	}
}

func TestRun_FirstAccountBecomesDefault(t *testing.T) {
	var createdID string
	var insertedAccountIDs []string
	mock := &mockLedger{
		FindManualAccountByNameFunc: func(ctx context.Context, userID, name string) (*domain.Account, error) {
			return nil, ledger.ErrNotFound
		},
		CreateAccountFunc: func(ctx context.Context, a *domain.Account) error {
			if createdID == "" {
				createdID = a.ID
			}
			return nil
		},
		InsertTransactionFunc: func(ctx context.Context, tx *domain.Transaction) (bool, error) {
			if tx.AccountID != nil {
				insertedAccountIDs = append(insertedAccountIDs, *tx.AccountID)
			}
			return true, nil
		},
	}

	batch := &Batch{
		UserID:    "user-1",
		CompanyID: "co-1",
		Source:    SourceDocument,
		Accounts: []domain.ExtractedAccount{
			{Name: "Primary", Balance: decimal.NewFromInt(100), Currency: "EUR"},
			{Name: "Savings", Balance: decimal.NewFromInt(5000), Currency: "EUR"},
		},
		Transactions: []domain.CandidateTransaction{candidate("a", -1), candidate("b", 2)},
	}

	summary, err := New(mock, zerolog.Nop()).Run(context.Background(), batch)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.AccountsCreated != 2 {
		t.Errorf("accounts created = %d, want 2", summary.AccountsCreated)
	}
	if len(insertedAccountIDs) != 2 {
		t.Fatalf("got %d pinned transactions, want 2", len(insertedAccountIDs))
	}
	for _, id := range insertedAccountIDs {
		if id != createdID {
			t.Errorf("transaction pinned to %s, want first created account %s", id, createdID)
		}
	}
}

func TestRun_MatchedAccountUpdatesBalance(t *testing.T) {
	var updatedBalance decimal.Decimal
	var updatedCurrency string
	mock := &mockLedger{
		FindManualAccountByNameFunc: func(ctx context.Context, userID, name string) (*domain.Account, error) {
			return &domain.Account{ID: "acc-existing", UserID: userID, Name: name, Currency: "USD"}, nil
		},
		UpdateAccountBalanceFunc: func(ctx context.Context, id string, balance decimal.Decimal, currency string) error {
			updatedBalance, updatedCurrency = balance, currency
			return nil
		},
	}

	batch := &Batch{
		UserID:    "user-1",
		CompanyID: "co-1",
		Source:    SourceDocument,
		Accounts: []domain.ExtractedAccount{
			{Name: "Main", Balance: decimal.NewFromFloat(120.5)},
		},
	}

	summary, err := New(mock, zerolog.Nop()).Run(context.Background(), batch)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.AccountsUpdated != 1 || summary.AccountsCreated != 0 {
		t.Errorf("updated/created = %d/%d, want 1/0", summary.AccountsUpdated, summary.AccountsCreated)
	}
	if updatedBalance.String() != "120.5" {
		t.Errorf("balance = %s, want 120.5", updatedBalance)
	}
	// Currency absent on the extracted account keeps the existing one.
	if updatedCurrency != "USD" {
		t.Errorf("currency = %q, want USD retained", updatedCurrency)
	}
}

func TestCanonical_DirectionAndSign(t *testing.T) {
	expense := candidate("taxi", -23.5).Canonical("co-1", "acc-1")
	if expense.Direction != domain.DirectionExpense {
		t.Errorf("direction = %s, want EXPENSE", expense.Direction)
	}
	if expense.Amount.String() != "23.5" {
		t.Errorf("amount = %s, want absolute 23.5", expense.Amount)
	}

	income := candidate("invoice", 1500).Canonical("co-1", "")
	if income.Direction != domain.DirectionIncome {
		t.Errorf("direction = %s, want INCOME", income.Direction)
	}
	if income.AccountID != nil {
		t.Errorf("account id = %v, want nil for empty id", *income.AccountID)
	}
}
