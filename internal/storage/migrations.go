package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects. If the database cannot be migrated to this version, it's a
// fatal error.
const ExpectedSchemaVersion = 2

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
				`CREATE TABLE IF NOT EXISTS moderation_requests (
					id TEXT PRIMARY KEY,
					submitter TEXT NOT NULL,
					kind TEXT NOT NULL,
					content_hash TEXT NOT NULL,
					status TEXT NOT NULL DEFAULT 'pending',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_requests_submitter ON moderation_requests(submitter)`,
				`CREATE INDEX idx_requests_status ON moderation_requests(status)`,
				`CREATE INDEX idx_requests_hash ON moderation_requests(content_hash)`,

				`CREATE TABLE IF NOT EXISTS moderation_results (
					id TEXT PRIMARY KEY,
					request_id TEXT UNIQUE NOT NULL,
					label TEXT NOT NULL,
					confidence REAL NOT NULL DEFAULT 0,
					reasoning TEXT,
					raw_response TEXT,
					provider TEXT,
					FOREIGN KEY (request_id) REFERENCES moderation_requests(id)
				)`,
				`CREATE INDEX idx_results_label ON moderation_results(label)`,

				`CREATE TABLE IF NOT EXISTS notification_logs (
					id TEXT PRIMARY KEY,
					request_id TEXT NOT NULL,
					channel TEXT NOT NULL,
					status TEXT NOT NULL,
					sent_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (request_id) REFERENCES moderation_requests(id)
				)`,
				`CREATE INDEX idx_notification_logs_request ON notification_logs(request_id)`,
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
		Description: "Record failure reason on moderation requests",
		Up: func(tx *sql.Tx) error {
			if _, err := tx.Exec(`ALTER TABLE moderation_requests ADD COLUMN fail_reason TEXT NOT NULL DEFAULT ''`); err != nil {
				return fmt.Errorf("failed to add fail_reason column: %w", err)
			}
			return nil
		},
	},
}

// Migrate applies any outstanding schema migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
