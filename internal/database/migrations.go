package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Migrate runs all database migrations
func (db *DB) Migrate() error {
	log.Info().Msg("Running database migrations")

	// Create migrations table if not exists
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	err = db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	log.Debug().Int("current_version", currentVersion).Msg("Current schema version")

	// Run migrations
	for _, migration := range migrations {
		if migration.Version > currentVersion {
			log.Info().Int("version", migration.Version).Str("name", migration.Name).Msg("Applying migration")

			if err := db.Transaction(func(tx *sql.Tx) error {
				// Execute migration SQL - split by semicolons and execute each statement
				statements := splitSQLStatements(migration.SQL)
				for i, stmt := range statements {
					if _, err := tx.Exec(stmt); err != nil {
						return fmt.Errorf("migration %d statement %d failed: %w", migration.Version, i+1, err)
					}
				}

				// Record migration
				if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", migration.Version); err != nil {
					return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
				}

				return nil
			}); err != nil {
				return err
			}
		}
	}

	log.Info().Msg("Database migrations complete")
	return nil
}

type migration struct {
	Version int
	Name    string
	SQL     string
}

// splitSQLStatements splits a SQL string into individual statements.
// It handles comments and only returns non-empty statements.
func splitSQLStatements(sql string) []string {
	var statements []string
	var current strings.Builder

	lines := strings.Split(sql, "\n")
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		// Skip empty lines and comments
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")

		// Check if line ends with semicolon (statement complete)
		if strings.HasSuffix(trimmed, ";") {
			stmt := strings.TrimSpace(current.String())
			if stmt != "" && stmt != ";" {
				statements = append(statements, stmt)
			}
			current.Reset()
		}
	}

	// Handle any remaining content without trailing semicolon
	if remaining := strings.TrimSpace(current.String()); remaining != "" {
		statements = append(statements, remaining)
	}

	return statements
}

var migrations = []migration{
	{
		Version: 1,
		Name:    "initial_schema",
		SQL: `
			-- Customer accounts, telephone is the login key
			CREATE TABLE customer (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				telephone TEXT NOT NULL UNIQUE,
				password TEXT NOT NULL,
				name TEXT,
				email TEXT,
				personal_discount INTEGER NOT NULL DEFAULT 0
			);

			-- Admin accounts, provisioned via the CLI only
			CREATE TABLE admin (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				login TEXT NOT NULL UNIQUE,
				password TEXT NOT NULL
			);

			-- Bearer sessions. Expiry is advisory: rows are never
			-- evicted, liveness is recomputed from last_activity on
			-- every check.
			CREATE TABLE session (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				token TEXT NOT NULL UNIQUE,
				last_activity TIMESTAMP NOT NULL,
				customer INTEGER REFERENCES customer(id),
				authorized BOOLEAN NOT NULL DEFAULT 0,
				admin INTEGER REFERENCES admin(id)
			);

			-- Promotional banners, looked up by alias
			CREATE TABLE banner (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				alias TEXT NOT NULL UNIQUE,
				title TEXT,
				text TEXT,
				pic TEXT
			);

			CREATE TABLE product (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT,
				type TEXT,
				price INTEGER,
				discount_check BOOLEAN NOT NULL DEFAULT 0,
				pic TEXT
			);

			-- Runtime-tunable settings (log rotation, maintenance schedule)
			CREATE TABLE settings (
				key TEXT PRIMARY KEY,
				value TEXT NOT NULL,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);
		`,
	},
	{
		Version: 2,
		Name:    "product_type_index",
		SQL: `
			-- Catalog listings filter by type
			CREATE INDEX idx_product_type ON product(type);
		`,
	},
}
