// Package sqlite implements the db.Driver contract for SQLite, backed by
// database/sql pools using the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/danielss-dev/dbfordevs/internal/db"
	"github.com/danielss-dev/dbfordevs/internal/errs"
)

// Driver is the SQLite implementation of db.Driver. It is stateless and
// safe for concurrent use; all per-connection state lives in the pool.
type Driver struct{}

func init() {
	db.Register(&Driver{})
}

func (d *Driver) Dialect() db.Dialect { return db.DialectSQLite }

// ConnString returns the database file path. SQLite has no hosts or
// credentials; a missing file path is a configuration error.
func (d *Driver) ConnString(cfg *db.ConnectionConfig) (string, error) {
	path := cfg.FilePath
	if path == "" {
		path = cfg.Database
	}
	if path == "" {
		return "", errs.New(errs.KindInvalidConfig, "SQLite file path is required")
	}
	return path, nil
}

// OpenPool opens a database/sql pool for cfg and validates it with a ping.
func (d *Driver) OpenPool(ctx context.Context, cfg *db.ConnectionConfig, opts db.PoolOptions) (*db.Pool, error) {
	path, err := d.ConnString(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, mapError("failed to open SQLite database", err)
	}
	if isMemoryPath(path) {
		// Each physical connection to :memory: is its own database, so
		// the pool must stay at a single connection.
		pool.SetMaxOpenConns(1)
	} else {
		pool.SetMaxOpenConns(int(opts.MaxConns))
		pool.SetMaxIdleConns(int(opts.MinConns))
		pool.SetConnMaxLifetime(opts.MaxConnLifetime)
		pool.SetConnMaxIdleTime(opts.MaxConnIdleTime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()
	if err := pool.PingContext(pingCtx); err != nil {
		_ = pool.Close()
		return nil, mapError("failed to open SQLite database", err)
	}
	return db.NewSQLitePool(pool), nil
}

func isMemoryPath(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory") || strings.HasPrefix(path, "file::memory:")
}

// TestConnection opens a transient pool, fetches the library version, and
// closes the pool. Failure is a normal result, not an error.
func (d *Driver) TestConnection(ctx context.Context, cfg *db.ConnectionConfig) *db.TestResult {
	pool, err := d.OpenPool(ctx, cfg, db.DefaultPoolOptions())
	if err != nil {
		return &db.TestResult{Success: false, Message: err.Error()}
	}
	defer pool.Close()

	conn, err := pool.Ref().SQLite()
	if err != nil {
		return &db.TestResult{Success: false, Message: err.Error()}
	}

	var version string
	if err := conn.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&version); err != nil {
		return &db.TestResult{Success: false, Message: mapError("failed to query library version", err).Error()}
	}
	return &db.TestResult{
		Success:       true,
		Message:       fmt.Sprintf("SQLite connection to %s successful", displayName(cfg)),
		ServerVersion: &version,
	}
}

func displayName(cfg *db.ConnectionConfig) string {
	if cfg.FilePath != "" {
		return cfg.FilePath
	}
	return cfg.Database
}

// RenameTable issues ALTER TABLE ... RENAME TO.
func (d *Driver) RenameTable(ctx context.Context, pool db.PoolRef, oldName, newName string) (*db.QueryResult, error) {
	stmt := fmt.Sprintf("ALTER TABLE %s RENAME TO %s", quoteIdent(oldName), quoteIdent(newName))
	return d.ExecuteQuery(ctx, pool, stmt)
}

// quoteIdent double-quotes an identifier, doubling embedded quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// pragmaLiteral embeds a table name inside a PRAGMA call. PRAGMAs cannot
// use placeholders, so the name is escaped as a SQL string literal.
func pragmaLiteral(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
