package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetItemCredential loads the stored aggregator access token for a linked
// item. The linking flow that writes it is out of scope here.
func (s *Store) GetItemCredential(ctx context.Context, itemID string) (accessToken string, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT access_token FROM aggregator_items WHERE item_id = ?`, itemID).Scan(&accessToken)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("GetItemCredential: %w", err)
	}
	return accessToken, nil
}

// SaveItemCredential stores a freshly issued aggregator credential.
func (s *Store) SaveItemCredential(ctx context.Context, itemID, userID, accessToken, institution string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO aggregator_items (item_id, user_id, access_token, institution, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (item_id) DO UPDATE SET access_token = excluded.access_token, updated_at = excluded.updated_at`,
		itemID, userID, accessToken, institution, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("SaveItemCredential: %w", err)
	}
	return nil
}

// ReplaceItemCredential swaps the access token after a re-link and resets the
// linked accounts' sync cursors, forcing a full backfill on the next run.
func (s *Store) ReplaceItemCredential(ctx context.Context, itemID, accessToken string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE aggregator_items SET access_token = ?, updated_at = ? WHERE item_id = ?`,
		accessToken, time.Now().UTC().Format(time.RFC3339), itemID)
	if err != nil {
		return fmt.Errorf("ReplaceItemCredential: %w", err)
	}
	if err := requireRow(res, "ReplaceItemCredential"); err != nil {
		return err
	}
	return s.ResetSyncCursors(ctx, itemID)
}

// GetProcessorKey loads the stored payment-processor API key for a company.
func (s *Store) GetProcessorKey(ctx context.Context, companyID string) (apiKey string, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT api_key FROM processor_connections WHERE company_id = ?`, companyID).Scan(&apiKey)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("GetProcessorKey: %w", err)
	}
	return apiKey, nil
}

// SaveProcessorKey stores a payment-processor API key.
func (s *Store) SaveProcessorKey(ctx context.Context, companyID, apiKey string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO processor_connections (company_id, api_key, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (company_id) DO UPDATE SET api_key = excluded.api_key, updated_at = excluded.updated_at`,
		companyID, apiKey, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("SaveProcessorKey: %w", err)
	}
	return nil
}
