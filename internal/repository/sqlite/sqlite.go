// Package sqlite implements the repository interfaces on top of SQLite.
//
// WHY SQLITE?
// The journal is a single-server app: one process, one data file. SQLite
// lives inside the binary, so there is no database server to run, and
// ":memory:" gives every test its own throwaway database.
//
// modernc.org/sqlite is a pure Go translation of SQLite, so the binary
// builds without a C toolchain and cross-compiles like any other Go code.
//
// WHY sqlx ON TOP OF database/sql?
// The travel aggregate has wide rows (a travel joined with its author) and
// batch loads (`WHERE travel_id IN (...)`). sqlx scans rows straight into
// the tagged model structs and expands slices for IN clauses, which removes
// most of the hand-written Scan(&a, &b, &c...) code.
//
// SCHEMA:
// The schema is owned by goose migrations embedded from /migrations. New()
// applies them on startup; the `migrate` CLI command drives them by hand.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"github.com/sakif/travel-journal/migrations"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

const memoryPath = ":memory:"

// DB wraps a sqlx connection pool and implements the user, travel and photo
// repositories.
type DB struct {
	conn *sqlx.DB
}

// New opens the database at dbPath and applies all pending migrations.
//
// dbPath examples:
//   - "data/journal.db"  → file-based database (persistent)
//   - ":memory:"         → in-memory database (tests)
func New(ctx context.Context, dbPath string) (*DB, error) {
	db, err := Open(dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.MigrateUp(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Open opens the database without touching the schema.
//
// CONNECTION SETTINGS:
// PRAGMAs in SQLite are per connection, and database/sql keeps a pool of
// them. For a file database the pragmas go into the DSN so the driver
// applies them to every connection it opens:
//   - foreign_keys(1)  SQLite ships with FK enforcement OFF
//   - journal_mode(WAL) readers don't block on a writer
//   - busy_timeout      wait instead of failing with SQLITE_BUSY
//   - _txlock=immediate take the write lock at BEGIN, not at first write
//
// An in-memory database exists only inside the connection that created it,
// so the pool is pinned to exactly one connection. Every query that runs
// while a transaction is open must therefore go through that transaction.
func Open(dbPath string) (*DB, error) {
	dsn := dbPath
	if dbPath != memoryPath {
		dsn = dbPath + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_txlock=immediate"
	}

	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if dbPath == memoryPath {
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
		conn.SetConnMaxLifetime(0)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if dbPath == memoryPath {
		if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
		}
	}

	return &DB{conn: conn}, nil
}

// Close closes the connection pool. Always defer it right after New/Open.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks the database is reachable. Used by the health endpoint.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// migrator builds a goose provider over the embedded migrations.
func (db *DB) migrator() (*goose.Provider, error) {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db.conn.DB, migrations.FS)
	if err != nil {
		return nil, fmt.Errorf("sqlite: creating goose provider: %w", err)
	}
	return provider, nil
}

// MigrateUp applies every pending migration and returns what ran.
func (db *DB) MigrateUp(ctx context.Context) ([]*goose.MigrationResult, error) {
	provider, err := db.migrator()
	if err != nil {
		return nil, err
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlite: migrating up: %w", err)
	}
	return results, nil
}

// MigrateDown rolls back the most recent migration.
func (db *DB) MigrateDown(ctx context.Context) (*goose.MigrationResult, error) {
	provider, err := db.migrator()
	if err != nil {
		return nil, err
	}
	result, err := provider.Down(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlite: migrating down: %w", err)
	}
	return result, nil
}

// MigrationStatus reports every known migration and whether it is applied.
func (db *DB) MigrationStatus(ctx context.Context) ([]*goose.MigrationStatus, error) {
	provider, err := db.migrator()
	if err != nil {
		return nil, err
	}
	status, err := provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlite: reading migration status: %w", err)
	}
	return status, nil
}

// withTx runs fn inside a transaction. fn's error rolls back; otherwise the
// transaction is committed.
func (db *DB) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

// nullString maps "" to SQL NULL for optional TEXT columns.
func nullString(p *string) any {
	if p == nil {
		return nil
	}
	if strings.TrimSpace(*p) == "" {
		return nil
	}
	return *p
}
