// Ledger schema. SQLite executes one statement at a time, so the schema is a
// slice of single statements applied in order.
package ledger

// Migrations returns the schema migration statements.
func Migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id               TEXT PRIMARY KEY,
			user_id          TEXT NOT NULL,
			name             TEXT NOT NULL,
			external_item_id TEXT,
			currency         TEXT NOT NULL DEFAULT 'EUR',
			balance          TEXT,
			sync_cursor      TEXT,
			last_synced_at   TEXT,
			origin           TEXT NOT NULL CHECK (origin IN ('AGGREGATOR','MANUAL')),
			CHECK (origin != 'AGGREGATOR' OR external_item_id IS NOT NULL)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_user ON accounts(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_item ON accounts(external_item_id)`,

		`CREATE TABLE IF NOT EXISTS transactions (
			id          TEXT PRIMARY KEY,
			amount      TEXT NOT NULL,
			direction   TEXT NOT NULL CHECK (direction IN ('INCOME','EXPENSE')),
			description TEXT NOT NULL,
			date        TEXT NOT NULL,
			category    TEXT NOT NULL,
			status      TEXT NOT NULL DEFAULT 'COMPLETED',
			company_id  TEXT NOT NULL,
			account_id  TEXT REFERENCES accounts(id),
			external_id TEXT
		)`,
		// The correctness backstop for idempotent ingestion: duplicate
		// external ids are rejected by the store, never by a pre-check.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_external_id
			ON transactions(external_id) WHERE external_id IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_company ON transactions(company_id, date)`,

		// Credentials written by the out-of-scope linking flows, read here.
		`CREATE TABLE IF NOT EXISTS aggregator_items (
			item_id      TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL,
			access_token TEXT NOT NULL,
			institution  TEXT NOT NULL DEFAULT '',
			updated_at   TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE TABLE IF NOT EXISTS processor_connections (
			company_id TEXT PRIMARY KEY,
			api_key    TEXT NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
	}
}
