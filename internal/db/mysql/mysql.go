// Package mysql implements the db.Driver contract for MySQL, backed by
// database/sql pools using go-sql-driver/mysql.
package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/danielss-dev/dbfordevs/internal/db"
	"github.com/danielss-dev/dbfordevs/internal/db/stdsql"
)

const (
	defaultHost = "localhost"
	defaultPort = 3306
	defaultUser = "root"
)

// Driver is the MySQL implementation of db.Driver. It is stateless and safe
// for concurrent use; all per-connection state lives in the pool.
type Driver struct{}

func init() {
	db.Register(&Driver{})
}

func (d *Driver) Dialect() db.Dialect { return db.DialectMySQL }

// ConnString builds the go-sql-driver DSN
// (user:pass@tcp(host:port)/dbname), applying default host, port, and user
// when absent.
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

	mc := mysql.NewConfig()
	mc.User = user
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", host, port)
	mc.DBName = cfg.Database
	mc.ParseTime = true
	return mc.FormatDSN(), nil
}

// OpenPool opens a database/sql pool for cfg and validates it with a ping.
func (d *Driver) OpenPool(ctx context.Context, cfg *db.ConnectionConfig, opts db.PoolOptions) (*db.Pool, error) {
	dsn, err := d.ConnString(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, mapError("invalid MySQL DSN", err)
	}
	pool.SetMaxOpenConns(int(opts.MaxConns))
	pool.SetMaxIdleConns(int(opts.MinConns))
	pool.SetConnMaxLifetime(opts.MaxConnLifetime)
	pool.SetConnMaxIdleTime(opts.MaxConnIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()
	if err := pool.PingContext(pingCtx); err != nil {
		_ = pool.Close()
		return nil, mapError("failed to connect to MySQL", err)
	}
	return db.NewMySQLPool(pool), nil
}

// TestConnection opens a transient pool, fetches the server version, and
// closes the pool. Failure is a normal result, not an error.
func (d *Driver) TestConnection(ctx context.Context, cfg *db.ConnectionConfig) *db.TestResult {
	pool, err := d.OpenPool(ctx, cfg, db.DefaultPoolOptions())
	if err != nil {
		return &db.TestResult{Success: false, Message: err.Error()}
	}
	defer pool.Close()

	conn, err := pool.Ref().MySQL()
	if err != nil {
		return &db.TestResult{Success: false, Message: err.Error()}
	}

	var version string
	if err := conn.QueryRowContext(ctx, "SELECT VERSION()").Scan(&version); err != nil {
		return &db.TestResult{Success: false, Message: mapError("failed to query server version", err).Error()}
	}
	return &db.TestResult{
		Success:       true,
		Message:       fmt.Sprintf("MySQL connection to %s successful", cfg.Database),
		ServerVersion: &version,
	}
}

// ExecuteQuery runs a SQL script through the shared database/sql executor.
func (d *Driver) ExecuteQuery(ctx context.Context, pool db.PoolRef, sqlText string) (*db.QueryResult, error) {
	conn, err := pool.MySQL()
	if err != nil {
		return nil, err
	}
	return stdsql.RunScript(ctx, conn, sqlText, mapError)
}

// RenameTable issues ALTER TABLE ... RENAME TO. MySQL also accepts
// RENAME TABLE; ALTER keeps the statement shape identical across dialects.
func (d *Driver) RenameTable(ctx context.Context, pool db.PoolRef, oldName, newName string) (*db.QueryResult, error) {
	return d.ExecuteQuery(ctx, pool, renameTableStmt(oldName, newName))
}

func renameTableStmt(oldName, newName string) string {
	return fmt.Sprintf("ALTER TABLE %s RENAME TO %s", quoteIdent(oldName), quoteIdent(newName))
}

// quoteIdent backtick-quotes an identifier, doubling embedded backticks.
func quoteIdent(name string) string {
	out := make([]byte, 0, len(name)+2)
	out = append(out, '`')
	for i := 0; i < len(name); i++ {
		if name[i] == '`' {
			out = append(out, '`')
		}
		out = append(out, name[i])
	}
	return string(append(out, '`'))
}
