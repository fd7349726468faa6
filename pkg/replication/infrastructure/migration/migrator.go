// Package migration applies the replication schema with golang-migrate. The SQL for
// each dialect is embedded in the binary.
package migration

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/tigerroll/syncwave/pkg/replication/support/util/exception"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/logger"
)

//go:embed migrations
var migrationFS embed.FS

// DefaultMigrationsTable records applied versions.
const DefaultMigrationsTable = "syncwave_schema_migrations"

// Migrator runs the embedded migrations for one dialect against one database.
type Migrator struct {
	db              *sql.DB
	dbType          string
	migrationsTable string
}

// NewMigrator creates a Migrator. dbType is "sqlite", "postgres" or "mysql".
func NewMigrator(db *sql.DB, dbType string) *Migrator {
	return &Migrator{db: db, dbType: dbType, migrationsTable: DefaultMigrationsTable}
}

func (m *Migrator) databaseDriver() (database.Driver, error) {
	switch m.dbType {
	case "postgres":
		return postgres.WithInstance(m.db, &postgres.Config{MigrationsTable: m.migrationsTable})
	case "mysql":
		return mysql.WithInstance(m.db, &mysql.Config{MigrationsTable: m.migrationsTable})
	case "sqlite":
		return sqlite.WithInstance(m.db, &sqlite.Config{MigrationsTable: m.migrationsTable})
	default:
		return nil, fmt.Errorf("unsupported database type for migration: %s", m.dbType)
	}
}

func (m *Migrator) instance() (*migrate.Migrate, error) {
	source, err := iofs.New(migrationFS, "migrations/"+m.dbType)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations for %s: %w", m.dbType, err)
	}
	driver, err := m.databaseDriver()
	if err != nil {
		return nil, err
	}
	return migrate.NewWithInstance("iofs", source, m.dbType, driver)
}

// Up applies every pending migration. An up-to-date schema is not an error.
// The migrate instance is not closed because closing it would close the shared *sql.DB.
func (m *Migrator) Up(ctx context.Context) error {
	const op = "Migrator.Up"

	mi, err := m.instance()
	if err != nil {
		return exception.New(exception.InternalError, op, "failed to prepare migrations", err)
	}
	if err := mi.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return exception.New(exception.InternalError, op, fmt.Sprintf("migration failed on %s", m.dbType), err)
	}
	version, dirty, err := mi.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return exception.New(exception.InternalError, op, "failed to read schema version", err)
	}
	logger.Infof("%s: %s schema at version %d (dirty=%t).", op, m.dbType, version, dirty)
	return nil
}

// Down reverts every applied migration.
func (m *Migrator) Down(ctx context.Context) error {
	const op = "Migrator.Down"

	mi, err := m.instance()
	if err != nil {
		return exception.New(exception.InternalError, op, "failed to prepare migrations", err)
	}
	if err := mi.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return exception.New(exception.InternalError, op, fmt.Sprintf("rollback failed on %s", m.dbType), err)
	}
	return nil
}
