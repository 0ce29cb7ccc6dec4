package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Migration is one schema step. Statements run in order inside a single transaction.
type Migration struct {
	Version    int
	Name       string
	Statements []string
}

const createSchemaMigrationsQuery = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)
`

// RunMigrations applies every migration with a version above the recorded maximum.
// Migrations must be ordered by ascending version.
func RunMigrations(ctx context.Context, sqlDB *sql.DB, dialect Dialect, migrations []Migration) error {
	if _, err := sqlDB.ExecContext(ctx, createSchemaMigrationsQuery); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	currentVersion := 0
	err := sqlDB.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= currentVersion {
			continue
		}

		err := RunInTransaction(ctx, sqlDB, func(txCtx context.Context) error {
			executor := GetExecutor(txCtx, sqlDB)
			for _, stmt := range m.Statements {
				if _, err := executor.ExecContext(txCtx, stmt); err != nil {
					return fmt.Errorf("failed to execute migration %d (%s): %w", m.Version, m.Name, err)
				}
			}

			_, err := executor.ExecContext(txCtx,
				dialect.Rebind("INSERT INTO schema_migrations (version, name) VALUES (?, ?)"),
				m.Version,
				m.Name,
			)
			if err != nil {
				return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}

		log.Info().Int("version", m.Version).Str("name", m.Name).Str("dialect", dialect.Name()).Msg("Applied migration")
	}

	return nil
}
