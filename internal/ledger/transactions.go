package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/avolkov/finledger/internal/domain"
)

// InsertTransaction persists one canonical transaction. The insert is
// idempotent on external_id: a duplicate is absorbed by the partial unique
// index and reported as inserted=false, not as an error. Of two racing
// inserts for the same external id exactly one wins.
func (s *Store) InsertTransaction(ctx context.Context, t *domain.Transaction) (inserted bool, err error) {
	var accountID, externalID any
	if t.AccountID != nil {
		accountID = *t.AccountID
	}
	if t.ExternalID != nil {
		externalID = *t.ExternalID
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (id, amount, direction, description, date, category, status, company_id, account_id, external_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (external_id) WHERE external_id IS NOT NULL DO NOTHING`,
		t.ID, t.Amount.String(), string(t.Direction), t.Description, t.Date.String(),
		string(t.Category), string(t.Status), t.CompanyID, accountID, externalID)
	if err != nil {
		return false, fmt.Errorf("InsertTransaction: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("InsertTransaction: rows affected: %w", err)
	}
	return n > 0, nil
}

// ListTransactions returns the company's transactions, newest first.
func (s *Store) ListTransactions(ctx context.Context, companyID string) ([]*domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, amount, direction, description, date, category, status, company_id, account_id, external_id
		FROM transactions WHERE company_id = ? ORDER BY date DESC, id`, companyID)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}
	defer rows.Close()

	var txs []*domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// CountTransactions reports how many transactions the company has. Used by
// tests and the run summary endpoints.
func (s *Store) CountTransactions(ctx context.Context, companyID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE company_id = ?`, companyID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("CountTransactions: %w", err)
	}
	return n, nil
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var (
		t                     domain.Transaction
		amount, date          string
		direction, category   string
		status                string
		accountID, externalID sql.NullString
	)
	err := row.Scan(&t.ID, &amount, &direction, &t.Description, &date, &category,
		&status, &t.CompanyID, &accountID, &externalID)
	if err != nil {
		return nil, fmt.Errorf("scanTransaction: %w", err)
	}

	t.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("scanTransaction: amount %q: %w", amount, err)
	}
	t.Date, err = civil.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("scanTransaction: date %q: %w", date, err)
	}
	t.Direction = domain.Direction(direction)
	t.Category = domain.Category(category)
	t.Status = domain.TransactionStatus(status)
	if accountID.Valid {
		t.AccountID = &accountID.String
	}
	if externalID.Valid {
		t.ExternalID = &externalID.String
	}
	return &t, nil
}
