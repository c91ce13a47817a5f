package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects. Failing to reach it is fatal.
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
		Description: "Initial records schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS records (
					id TEXT PRIMARY KEY,
					hash TEXT UNIQUE NOT NULL,
					timestamp DATETIME NOT NULL,
					merchant TEXT NOT NULL,
					amount REAL NOT NULL,
					mode TEXT NOT NULL,
					category TEXT NOT NULL,
					note TEXT,
					time_bucket TEXT,
					intensity REAL DEFAULT 0,
					recurring INTEGER DEFAULT 0,
					risk_level TEXT,
					risk_score REAL DEFAULT 0,
					risk_reason TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_records_timestamp ON records(timestamp)`,
				`CREATE INDEX idx_records_merchant ON records(merchant)`,
				`CREATE INDEX idx_records_category ON records(category)`,
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
		Description: "Fingerprint single-row table",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS fingerprint (
					id INTEGER PRIMARY KEY CHECK (id = 1),
					category_average TEXT NOT NULL,
					hour_frequency TEXT NOT NULL,
					recurring_costs TEXT NOT NULL,
					weekly_burn_rate REAL NOT NULL,
					tolerance_band REAL NOT NULL,
					total_records INTEGER NOT NULL,
					last_updated DATETIME NOT NULL
				)`)
			if err != nil {
				return fmt.Errorf("failed to create fingerprint table: %w", err)
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Alerts with read/dismissed lifecycle",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS alerts (
					id TEXT PRIMARY KEY,
					record_id TEXT NOT NULL,
					type TEXT NOT NULL,
					level TEXT NOT NULL,
					reason TEXT NOT NULL,
					action TEXT NOT NULL,
					detected_at DATETIME NOT NULL,
					read INTEGER DEFAULT 0,
					dismissed INTEGER DEFAULT 0,
					FOREIGN KEY (record_id) REFERENCES records(id)
				)`,
				`CREATE INDEX idx_alerts_record ON alerts(record_id)`,
				`CREATE INDEX idx_alerts_level ON alerts(level)`,
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

func runMigrations(ctx context.Context, db *sql.DB) error {
	var current int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
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

		// PRAGMA does not support placeholders.
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to set schema version %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
		}

		slog.Info("Applied migration", "version", m.Version, "description", m.Description)
	}

	return nil
}

// SchemaVersion returns the database's current schema version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
