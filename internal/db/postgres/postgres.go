// Package postgres implements the db.Driver contract for PostgreSQL,
// backed by pgx/v5 connection pools.
package postgres

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/danielss-dev/dbfordevs/internal/db"
	"github.com/danielss-dev/dbfordevs/internal/errs"
)

const (
	defaultHost = "localhost"
	defaultPort = 5432
	defaultUser = "postgres"
)

// Driver is the PostgreSQL implementation of db.Driver. It is stateless and
// safe for concurrent use; all per-connection state lives in the pool.
type Driver struct{}

func init() {
	db.Register(&Driver{})
}

func (d *Driver) Dialect() db.Dialect { return db.DialectPostgres }

// ConnString builds the canonical postgresql:// URL, applying default
// host, port, and user when absent.
func (d *Driver) ConnString(cfg *db.ConnectionConfig) (string, error) {
	host := cfg.Host
	if host == "" {
		host = defaultHost
	}
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}
	user := cfg.Username
	if user == "" {
		user = defaultUser
	}

	u := url.URL{
		Scheme: "postgresql",
		User:   url.UserPassword(user, cfg.Password),
		Host:   fmt.Sprintf("%s:%d", host, port),
		Path:   "/" + cfg.Database,
	}
	if cfg.SSLMode != "" {
		u.RawQuery = "sslmode=" + url.QueryEscape(cfg.SSLMode)
	}
	return u.String(), nil
}

// OpenPool opens a pgx pool for cfg and validates it with a ping.
func (d *Driver) OpenPool(ctx context.Context, cfg *db.ConnectionConfig, opts db.PoolOptions) (*db.Pool, error) {
	connString, err := d.ConnString(cfg)
	if err != nil {
		return nil, err
	}

	poolCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, errs.Wrap(errs.KindInvalidConfig, "invalid postgres connection string", err)
	}
	poolCfg.MaxConns = opts.MaxConns
	poolCfg.MinConns = opts.MinConns
	poolCfg.MaxConnLifetime = opts.MaxConnLifetime
	poolCfg.MaxConnIdleTime = opts.MaxConnIdleTime
	poolCfg.ConnConfig.ConnectTimeout = opts.ConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, mapError("failed to create connection pool", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, mapError("failed to connect to PostgreSQL", err)
	}
	return db.NewPostgresPool(pool), nil
}

// TestConnection opens a transient pool, fetches the server version, and
// closes the pool. Failure is a normal result, not an error.
func (d *Driver) TestConnection(ctx context.Context, cfg *db.ConnectionConfig) *db.TestResult {
	pool, err := d.OpenPool(ctx, cfg, db.DefaultPoolOptions())
	if err != nil {
		return &db.TestResult{Success: false, Message: err.Error()}
	}
	defer pool.Close()

	pg, err := pool.Ref().Postgres()
	if err != nil {
		return &db.TestResult{Success: false, Message: err.Error()}
	}

	var version string
	if err := pg.QueryRow(ctx, "SELECT version()").Scan(&version); err != nil {
		return &db.TestResult{Success: false, Message: mapError("failed to query server version", err).Error()}
	}
	return &db.TestResult{
		Success:       true,
		Message:       fmt.Sprintf("PostgreSQL connection to %s successful", cfg.Database),
		ServerVersion: &version,
	}
}

// RenameTable issues ALTER TABLE ... RENAME TO.
func (d *Driver) RenameTable(ctx context.Context, pool db.PoolRef, oldName, newName string) (*db.QueryResult, error) {
	stmt := fmt.Sprintf("ALTER TABLE %s RENAME TO %s", quoteQualified(oldName), quoteIdent(newName))
	return d.ExecuteQuery(ctx, pool, stmt)
}

// quoteIdent double-quotes an identifier, doubling embedded quotes.
func quoteIdent(name string) string {
	out := make([]byte, 0, len(name)+2)
	out = append(out, '"')
	for i := 0; i < len(name); i++ {
		if name[i] == '"' {
			out = append(out, '"')
		}
		out = append(out, name[i])
	}
	return string(append(out, '"'))
}
