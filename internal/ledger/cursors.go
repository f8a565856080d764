package ledger

import (
	"context"
	"fmt"
	"time"
)

// AdvanceSyncCursor records a new incremental-sync position for the account
// and stamps last_synced_at. Call this only after the page set behind the
// cursor has been durably written.
func (s *Store) AdvanceSyncCursor(ctx context.Context, accountID, cursor string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET sync_cursor = ?, last_synced_at = ? WHERE id = ?`,
		cursor, time.Now().UTC().Format(time.RFC3339), accountID)
	if err != nil {
		return fmt.Errorf("AdvanceSyncCursor: %w", err)
	}
	return requireRow(res, "AdvanceSyncCursor")
}

// ResetSyncCursors nulls the cursor of every account linked to the item,
// forcing a full backfill on the next run. Happens only on credential
// re-issuance.
func (s *Store) ResetSyncCursors(ctx context.Context, itemID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET sync_cursor = NULL WHERE external_item_id = ?`, itemID)
	if err != nil {
		return fmt.Errorf("ResetSyncCursors: %w", err)
	}
	return nil
}
