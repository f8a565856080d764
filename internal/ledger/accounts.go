package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/avolkov/finledger/internal/domain"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("ledger: not found")

const accountColumns = `id, user_id, name, external_item_id, currency, balance, sync_cursor, last_synced_at, origin`

// CreateAccount inserts a new account row.
func (s *Store) CreateAccount(ctx context.Context, a *domain.Account) error {
	var balance, cursor, itemID, syncedAt any
	if a.Balance != nil {
		balance = a.Balance.String()
	}
	if a.SyncCursor != nil {
		cursor = *a.SyncCursor
	}
	if a.ExternalItemID != nil {
		itemID = *a.ExternalItemID
	}
	if !a.LastSyncedAt.IsZero() {
		syncedAt = a.LastSyncedAt.UTC().Format(time.RFC3339)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, user_id, name, external_item_id, currency, balance, sync_cursor, last_synced_at, origin)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.Name, itemID, a.Currency, balance, cursor, syncedAt, string(a.Origin))
	if err != nil {
		return fmt.Errorf("CreateAccount: %w", err)
	}
	return nil
}

// GetAccount loads one account by id.
func (s *Store) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

// FindManualAccountByName finds the user's MANUAL-origin account whose name
// matches case-insensitively, or ErrNotFound.
func (s *Store) FindManualAccountByName(ctx context.Context, userID, name string) (*domain.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE user_id = ? AND origin = 'MANUAL' AND LOWER(name) = LOWER(?)
		LIMIT 1`, userID, name)
	return scanAccount(row)
}

// ListAccounts returns all accounts owned by the user.
func (s *Store) ListAccounts(ctx context.Context, userID string) ([]*domain.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: %w", err)
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// UpdateAccountBalance overwrites balance and currency after a successful
// statement reconciliation.
func (s *Store) UpdateAccountBalance(ctx context.Context, id string, balance decimal.Decimal, currency string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET balance = ?, currency = ? WHERE id = ?`,
		balance.String(), currency, id)
	if err != nil {
		return fmt.Errorf("UpdateAccountBalance: %w", err)
	}
	return requireRow(res, "UpdateAccountBalance")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var (
		a                       domain.Account
		itemID, balance, cursor sql.NullString
		syncedAt                sql.NullString
		origin                  string
	)
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &itemID, &a.Currency, &balance, &cursor, &syncedAt, &origin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanAccount: %w", err)
	}

	a.Origin = domain.AccountOrigin(origin)
	if itemID.Valid {
		a.ExternalItemID = &itemID.String
	}
	if cursor.Valid {
		a.SyncCursor = &cursor.String
	}
	if balance.Valid {
		b, err := decimal.NewFromString(balance.String)
		if err != nil {
			return nil, fmt.Errorf("scanAccount: balance %q: %w", balance.String, err)
		}
		a.Balance = &b
	}
	if syncedAt.Valid {
		t, err := time.Parse(time.RFC3339, syncedAt.String)
		if err != nil {
			return nil, fmt.Errorf("scanAccount: last_synced_at %q: %w", syncedAt.String, err)
		}
		a.LastSyncedAt = t
	}
	return &a, nil
}

func requireRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
