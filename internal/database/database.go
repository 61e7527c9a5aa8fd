package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"media-archive/internal/logging"
	"media-archive/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// Current schema version, stored in the metadata table.
const schemaVersion = 2

// Options tunes the connection pool. Zero values fall back to defaults.
type Options struct {
	MaxOpenConns int
	MaxIdleConns int
}

// DefaultOptions returns the pool settings used when New is given nil.
func DefaultOptions() *Options {
	return &Options{
		MaxOpenConns: 25,
		MaxIdleConns: 10,
	}
}

// Database manages all storage for the tag archive: namespaces, subtags,
// tags, hashes, mappings and the parent/sibling tag graph.
type Database struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// New creates a new Database instance.
// dbPath is the full path to the database FILE (e.g. "/database/archive.db");
// its parent directory must already exist and be writable.
func New(ctx context.Context, dbPath string, opts *Options) (*Database, error) {
	logging.Info("Database path: %s", dbPath)

	if opts == nil {
		opts = DefaultOptions()
	}
	defaults := DefaultOptions()
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = defaults.MaxOpenConns
	}
	if opts.MaxIdleConns <= 0 {
		opts.MaxIdleConns = defaults.MaxIdleConns
	}

	if err := diagnoseDatabasePermissions(dbPath); err != nil {
		logging.Warn("Database permission diagnostics: %v", err)
	}

	// busy_timeout helps prevent "database is locked" errors
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_temp_store=MEMORY&_busy_timeout=5000&_foreign_keys=on", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(time.Hour)

	d := &Database{
		db:     db,
		dbPath: dbPath,
	}

	if err := d.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	logging.Info("Database initialized successfully at %s", dbPath)
	return d, nil
}

func (d *Database) initialize(ctx context.Context) (err error) {
	done := observeQuery("initialize_schema")
	defer func() { done(err) }()

	schema := `
	-- Tag halves. The empty string is a valid (unnamespaced) namespace.
	CREATE TABLE IF NOT EXISTS namespaces (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		value TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS subtags (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		value TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS tags (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		namespace_id INTEGER NOT NULL,
		subtag_id INTEGER NOT NULL,
		FOREIGN KEY (namespace_id) REFERENCES namespaces(id),
		FOREIGN KEY (subtag_id) REFERENCES subtags(id),
		UNIQUE(namespace_id, subtag_id)
	);

	CREATE INDEX IF NOT EXISTS idx_tags_subtag ON tags(subtag_id);

	-- Repositories are seeded and never change
	CREATE TABLE IF NOT EXISTS repositories (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	);

	INSERT OR IGNORE INTO repositories (id, name) VALUES (1, 'inbox'), (2, 'archive'), (3, 'trash');

	-- Content-addressed items
	CREATE TABLE IF NOT EXISTS hashes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		hash BLOB NOT NULL UNIQUE,
		repository_id INTEGER NOT NULL DEFAULT 1,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		FOREIGN KEY (repository_id) REFERENCES repositories(id)
	);

	CREATE INDEX IF NOT EXISTS idx_hashes_repository ON hashes(repository_id);

	-- Hash-Tag relationship table
	CREATE TABLE IF NOT EXISTS mappings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		hash_id INTEGER NOT NULL,
		tag_id INTEGER NOT NULL,
		FOREIGN KEY (hash_id) REFERENCES hashes(id) ON DELETE CASCADE,
		FOREIGN KEY (tag_id) REFERENCES tags(id) ON DELETE CASCADE,
		UNIQUE(hash_id, tag_id)
	);

	CREATE INDEX IF NOT EXISTS idx_mappings_tag ON mappings(tag_id);

	-- Parent implications: anything tagged with child satisfies parent
	CREATE TABLE IF NOT EXISTS tag_parents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		child_id INTEGER NOT NULL,
		parent_id INTEGER NOT NULL,
		FOREIGN KEY (child_id) REFERENCES tags(id) ON DELETE CASCADE,
		FOREIGN KEY (parent_id) REFERENCES tags(id) ON DELETE CASCADE,
		UNIQUE(child_id, parent_id),
		CHECK(child_id != parent_id)
	);

	CREATE INDEX IF NOT EXISTS idx_tag_parents_parent ON tag_parents(parent_id);

	-- Display aliases: a non-ideal tag has at most one ideal
	CREATE TABLE IF NOT EXISTS tag_siblings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		non_ideal_id INTEGER NOT NULL UNIQUE,
		ideal_id INTEGER NOT NULL,
		FOREIGN KEY (non_ideal_id) REFERENCES tags(id) ON DELETE CASCADE,
		FOREIGN KEY (ideal_id) REFERENCES tags(id) ON DELETE CASCADE,
		CHECK(non_ideal_id != ideal_id)
	);

	CREATE INDEX IF NOT EXISTS idx_tag_siblings_ideal ON tag_siblings(ideal_id);

	-- Metadata table
	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT
	);
	`

	if _, err = d.db.ExecContext(ctx, schema); err != nil {
		return err
	}

	return d.runMigrations(ctx)
}

// runMigrations applies database schema migrations
func (d *Database) runMigrations(ctx context.Context) error {
	// Migration 1: soft-delete timestamp on hashes. Search ignores it; the
	// column exists for the import pipeline.
	var columnExists bool
	err := d.db.QueryRowContext(ctx, `
		SELECT COUNT(*) > 0
		FROM pragma_table_info('hashes')
		WHERE name='deleted_at'
	`).Scan(&columnExists)
	if err != nil {
		return fmt.Errorf("failed to check for deleted_at column: %w", err)
	}

	if !columnExists {
		logging.Info("Migrating database: adding deleted_at column to hashes table")

		if _, err = d.db.ExecContext(ctx, `ALTER TABLE hashes ADD COLUMN deleted_at INTEGER`); err != nil {
			return fmt.Errorf("failed to add deleted_at column: %w", err)
		}

		logging.Info("Migration complete: deleted_at column added")
	}

	// Migration 2: the unnamespaced namespace always exists
	if _, err = d.db.ExecContext(ctx, `INSERT OR IGNORE INTO namespaces (value) VALUES ('')`); err != nil {
		return fmt.Errorf("failed to seed empty namespace: %w", err)
	}

	return setMetadata(ctx, d.db, "schema_version", fmt.Sprintf("%d", schemaVersion))
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// Path returns the database file path.
func (d *Database) Path() string {
	return d.dbPath
}

// WithTx runs fn inside a single transaction holding the write lock. The
// transaction commits when fn returns nil and rolls back otherwise, including
// when ctx is cancelled.
func (d *Database) WithTx(ctx context.Context, operation string, fn func(tx *Tx) error) (err error) {
	done := observeQuery(operation)
	defer func() { done(err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	txStart := time.Now()
	sqlTx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			metrics.DBTransactionDuration.WithLabelValues("rollback").Observe(time.Since(txStart).Seconds())
			if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
			}
		}
	}()

	if err = fn(&Tx{ctx: ctx, tx: sqlTx}); err != nil {
		return err
	}

	if err = sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	metrics.DBTransactionDuration.WithLabelValues("commit").Observe(time.Since(txStart).Seconds())
	return nil
}

// Vacuum optimizes the database.
func (d *Database) Vacuum(ctx context.Context) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("vacuum", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	_, err = d.db.ExecContext(ctx, "VACUUM")
	return err
}

// observeQuery starts timing an operation; call the returned func with the
// operation's error when it finishes.
func observeQuery(operation string) func(error) {
	start := time.Now()
	return func(err error) {
		recordQuery(operation, start, err)
	}
}

// recordQuery records database query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// recordRowsAffected records the size of a write
func recordRowsAffected(operation string, rows int64) {
	if rows > 0 {
		metrics.DBRowsAffected.WithLabelValues(operation).Observe(float64(rows))
	}
}

// UpdateDBMetrics updates database connection metrics
func (d *Database) UpdateDBMetrics() {
	stats := d.db.Stats()
	metrics.DBConnectionsOpen.Set(float64(stats.OpenConnections))
}

// closeRows closes rows, logging any error.
func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		logging.Error("error closing rows: %v", err)
	}
}

// diagnoseDatabasePermissions checks database directory and file permissions
func diagnoseDatabasePermissions(dbPath string) error {
	dir := filepath.Dir(dbPath)

	dirInfo, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot stat database directory: %w", err)
	}

	logging.Debug("Database directory: %s (mode: %v)", dir, dirInfo.Mode())

	testFile := filepath.Join(dir, ".perm-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return fmt.Errorf("database directory not writable: %w", err)
	}
	_ = os.Remove(testFile) // Explicitly ignore cleanup error
	logging.Debug("Database directory is writable")

	for _, path := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		logging.Debug("Database file exists: %s (mode: %v, size: %d bytes)", path, info.Mode(), info.Size())
		if info.Mode().Perm()&0o200 != 0 {
			continue
		}
		logging.Warn("Database file %s is read-only! Mode: %v - this will cause write failures", path, info.Mode())
		if chmodErr := os.Chmod(path, 0o600); chmodErr != nil {
			logging.Error("Failed to fix permissions on %s: %v", path, chmodErr)
		} else {
			logging.Info("Fixed permissions on %s", path)
		}
	}

	return nil
}
