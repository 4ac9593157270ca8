package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects. If the database cannot be migrated to this version, it's a fatal
// error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS budgets (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS members (
					id TEXT PRIMARY KEY,
					budget_id TEXT NOT NULL REFERENCES budgets(id),
					chat_id INTEGER NOT NULL UNIQUE,
					name TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_members_chat ON members(chat_id)`,

				`CREATE TABLE IF NOT EXISTS accounts (
					id TEXT PRIMARY KEY,
					budget_id TEXT NOT NULL REFERENCES budgets(id),
					name TEXT NOT NULL,
					type TEXT NOT NULL,
					closing_day INTEGER,
					is_default INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS categories (
					id TEXT PRIMARY KEY,
					budget_id TEXT NOT NULL REFERENCES budgets(id),
					name TEXT NOT NULL,
					group_name TEXT NOT NULL DEFAULT '',
					is_active INTEGER NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(budget_id, name)
				)`,

				`CREATE TABLE IF NOT EXISTS income_sources (
					id TEXT PRIMARY KEY,
					budget_id TEXT NOT NULL REFERENCES budgets(id),
					name TEXT NOT NULL,
					is_active INTEGER NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(budget_id, name)
				)`,

				`CREATE TABLE IF NOT EXISTS goals (
					id TEXT PRIMARY KEY,
					budget_id TEXT NOT NULL REFERENCES budgets(id),
					name TEXT NOT NULL,
					target_cents INTEGER NOT NULL DEFAULT 0,
					current_cents INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS transactions (
					id TEXT PRIMARY KEY,
					budget_id TEXT NOT NULL REFERENCES budgets(id),
					account_id TEXT REFERENCES accounts(id),
					category_id TEXT REFERENCES categories(id),
					income_source_id TEXT REFERENCES income_sources(id),
					goal_id TEXT REFERENCES goals(id),
					parent_id TEXT REFERENCES transactions(id),
					kind TEXT NOT NULL,
					status TEXT NOT NULL,
					amount_cents INTEGER NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					date DATETIME NOT NULL,
					installment_seq INTEGER NOT NULL DEFAULT 0,
					installment_of INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_transactions_budget_date ON transactions(budget_id, date)`,
				`CREATE INDEX idx_transactions_status ON transactions(budget_id, status)`,
				`CREATE INDEX idx_transactions_parent ON transactions(parent_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Conversation state keyed by chat",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS conversation_state (
					chat_id INTEGER PRIMARY KEY,
					step TEXT NOT NULL,
					context TEXT NOT NULL DEFAULT '{}',
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)
			`)
			return err
		},
	},
	{
		Version:     3,
		Description: "Audit log for inference exchanges",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS audit_log (
					id TEXT PRIMARY KEY,
					budget_id TEXT NOT NULL,
					chat_id INTEGER NOT NULL,
					message_text TEXT NOT NULL,
					intent TEXT NOT NULL,
					confidence REAL NOT NULL DEFAULT 0,
					context_digest TEXT NOT NULL DEFAULT '',
					bot_reply TEXT NOT NULL DEFAULT '',
					resolution TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_audit_chat ON audit_log(chat_id, created_at)`,
			}
			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
}

// runMigrations applies all pending migrations in order.
func runMigrations(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	var current sql.NullInt64
	if err := db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_version`).Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if current.Valid && int64(m.Version) <= current.Int64 {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", m.Version, err)
		}

		if err := m.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Description, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, m.Version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
		}

		slog.Info("Applied migration", "version", m.Version, "description", m.Description)
	}

	return nil
}
