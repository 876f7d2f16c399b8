package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"classroom-service/internal/infra/sqlstore/migrations"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	DefaultSQLiteDSN = "file:classroom.db"
)

// Open connects to Postgres or SQLite and returns a bun handle for it.
func Open(ctx context.Context, driver, dsn string) (*bun.DB, error) {
	switch normalizeDriver(driver) {
	case DriverPostgres:
		if dsn == "" {
			return nil, fmt.Errorf("postgres dsn not configured")
		}
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		db := bun.NewDB(sqldb, pgdialect.New())
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		return db, nil
	case DriverSQLite:
		if dsn == "" {
			dsn = DefaultSQLiteDSN
		}
		sqldb, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, err
		}
		// single writer; keeps in-memory databases alive between queries
		sqldb.SetMaxOpenConns(1)
		sqldb.SetMaxIdleConns(1)
		sqldb.SetConnMaxLifetime(0)
		for _, pragma := range []string{
			"PRAGMA foreign_keys = ON",
			"PRAGMA busy_timeout = 5000",
		} {
			if _, err := sqldb.ExecContext(ctx, pragma); err != nil {
				_ = sqldb.Close()
				return nil, fmt.Errorf("sqlite pragma %q: %w", pragma, err)
			}
		}
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q (expected postgres or sqlite)", driver)
	}
}

// Migrate applies every pending schema migration.
func Migrate(ctx context.Context, db *bun.DB) error {
	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if group.IsZero() {
		log.Printf("database schema up to date")
		return nil
	}
	log.Printf("migrated database to %s", group)
	return nil
}

func normalizeDriver(driver string) string {
	switch d := strings.ToLower(strings.TrimSpace(driver)); d {
	case "pg", "pgx", "postgresql":
		return DriverPostgres
	case "sqlite3", "":
		return DriverSQLite
	default:
		return d
	}
}
