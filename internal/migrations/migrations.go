// Package migrations owns the journal schema: the dimension_versions and
// sales_facts tables the Postgres journal writes through to.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed *.sql
var MigrationFiles embed.FS

// JournalTables are the tables the journal needs once migrations have run.
var JournalTables = []string{"dimension_versions", "sales_facts"}

const queryTableExists = `SELECT EXISTS (
	SELECT 1 FROM information_schema.tables
	WHERE table_schema = current_schema() AND table_name = $1
)`

// LatestVersion returns the highest migration version embedded in the binary.
func LatestVersion() (uint, error) {
	src, err := iofs.New(MigrationFiles, ".")
	if err != nil {
		return 0, fmt.Errorf("failed to create migration source: %w", err)
	}
	defer src.Close()

	v, err := src.First()
	if err != nil {
		return 0, fmt.Errorf("failed to read first migration: %w", err)
	}
	for {
		next, err := src.Next(v)
		if errors.Is(err, fs.ErrNotExist) {
			return v, nil
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read migration after %d: %w", v, err)
		}
		v = next
	}
}

// RunMigrations brings the journal schema up to date and checks that every
// journal table exists afterwards. With autoMigrate off it only reports how
// far behind the database is.
func RunMigrations(db *sql.DB, autoMigrate bool) error {
	m, err := newMigrator(db)
	if err != nil {
		return err
	}

	latest, err := LatestVersion()
	if err != nil {
		return err
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	if dirty {
		slog.Warn("[Postgres] Journal schema is in dirty state - migration was interrupted",
			"version", version,
			"action", "attempting automatic recovery",
		)
		// Every journal migration uses IF NOT EXISTS, so re-forcing the recorded version is safe.
		if err := m.Force(int(version)); err != nil {
			return fmt.Errorf("failed to recover dirty migration state at version %d: %w", version, err)
		}
		slog.Info("[Postgres] Recovered dirty migration state", "version", version)
	}

	if !autoMigrate {
		if version < latest {
			slog.Warn("[Postgres] Journal schema is behind and auto-migration is disabled",
				"current_version", version,
				"latest_version", latest)
		} else {
			slog.Info("[Postgres] Auto-migration disabled, journal schema is current",
				"current_version", version)
		}
		return nil
	}

	slog.Info("[Postgres] Running journal migrations",
		"current_version", version,
		"latest_version", latest)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := VerifyJournalTables(db); err != nil {
		return err
	}

	slog.Info("[Postgres] Journal schema ready",
		"from_version", version,
		"to_version", latest,
		"tables", JournalTables,
	)
	return nil
}

// VerifyJournalTables fails when any of JournalTables is missing from the
// current schema, naming every missing table.
func VerifyJournalTables(db *sql.DB) error {
	var missing []string
	for _, table := range JournalTables {
		var exists bool
		if err := db.QueryRow(queryTableExists, table).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check journal table %s: %w", table, err)
		}
		if !exists {
			missing = append(missing, table)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("journal tables missing after migration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	sourceDriver, err := iofs.New(MigrationFiles, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}
