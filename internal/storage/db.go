package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	kgqerrors "kgq/internal/errors"
)

// DB wraps a SQLite connection to one knowledge-graph store.
// The engine only reads from stores; write helpers exist for tests
// and fixture tooling.
type DB struct {
	conn   *sql.DB
	logger *slog.Logger
	dbPath string
}

// Open opens an existing SQLite store. The file must already exist:
// stores are owned by whatever system writes them, never created here.
func Open(path string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if _, err := os.Stat(path); err != nil {
		return nil, kgqerrors.Wrap(kgqerrors.StoreUnavailable,
			fmt.Sprintf("store %q does not exist", path), err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, kgqerrors.Wrap(kgqerrors.StoreUnavailable, "failed to open store", err)
	}

	if err := applyPragmas(conn); err != nil {
		conn.Close()
		return nil, err
	}

	return &DB{conn: conn, logger: logger, dbPath: path}, nil
}

// Create creates a new file-backed store. The engine itself never creates
// stores; this exists for fixture tooling and tests.
func Create(path string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, kgqerrors.Wrap(kgqerrors.StoreUnavailable, "failed to create store", err)
	}

	if err := applyPragmas(conn); err != nil {
		conn.Close()
		return nil, err
	}

	return &DB{conn: conn, logger: logger, dbPath: path}, nil
}

// OpenMemory opens a fresh in-memory database. Used by tests to build
// fixture stores.
func OpenMemory(logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, kgqerrors.Wrap(kgqerrors.StoreUnavailable, "failed to open in-memory store", err)
	}
	// A connection pool would hand each query a different empty database.
	conn.SetMaxOpenConns(1)

	if err := applyPragmas(conn); err != nil {
		conn.Close()
		return nil, err
	}

	return &DB{conn: conn, logger: logger, dbPath: ":memory:"}, nil
}

// applyPragmas sets pragmas for performance and reliability
func applyPragmas(conn *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",    // Write-Ahead Logging for better concurrency
		"PRAGMA synchronous=NORMAL",  // Balance between safety and performance
		"PRAGMA busy_timeout=5000",   // Wait up to 5 seconds on lock
		"PRAGMA cache_size=-64000",   // 64MB cache
		"PRAGMA temp_store=MEMORY",   // Use memory for temp tables
		"PRAGMA mmap_size=268435456", // 256MB mmap
	}

	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			return kgqerrors.Wrap(kgqerrors.StoreUnavailable, "failed to set pragma", err)
		}
	}
	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Conn returns the underlying sql.DB connection
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Path returns the store path this connection was opened with.
func (db *DB) Path() string {
	return db.dbPath
}

// WithTx executes a function within a transaction.
// If the function returns an error, the transaction is rolled back.
// Otherwise, the transaction is committed.
func (db *DB) WithTx(fn func(*sql.Tx) error) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p) // Re-throw panic after rollback
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Error("failed to rollback transaction",
				"error", err, "rollback_error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Exec executes a query without returning rows
func (db *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return db.conn.Exec(query, args...)
}

// Query executes a query that returns rows
func (db *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return db.conn.Query(query, args...)
}

// QueryRow executes a query that returns at most one row
func (db *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	return db.conn.QueryRow(query, args...)
}
