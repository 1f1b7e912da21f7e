package db

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/danielss-dev/dbfordevs/internal/errs"
)

// Driver is the contract every dialect implements. All layers above this
// package talk only to this interface — they never import the postgres,
// mysql, or sqlite packages directly.
//
// Every pool-taking operation begins by matching the PoolRef's dialect tag;
// a mismatched reference is a checked contract violation, never a silent
// pass-through.
type Driver interface {
	// Dialect returns the dialect this driver implements.
	Dialect() Dialect

	// ConnString builds the dialect's canonical connection string from cfg,
	// applying the dialect's default host/port/user where absent. It is pure
	// and deterministic; the only failure is missing required configuration.
	ConnString(cfg *ConnectionConfig) (string, error)

	// OpenPool opens a connection pool for cfg. The caller owns the returned
	// pool and must Close it.
	OpenPool(ctx context.Context, cfg *ConnectionConfig, opts PoolOptions) (*Pool, error)

	// TestConnection opens a transient pool, runs the dialect's version
	// query, and closes the pool. A failed round trip is a normal result
	// with Success false — never an error.
	TestConnection(ctx context.Context, cfg *ConnectionConfig) *TestResult

	// ExecuteQuery runs a SQL script that may contain multiple
	// semicolon-separated statements. Multiple statements execute inside a
	// single transaction; any failure rolls the whole script back.
	ExecuteQuery(ctx context.Context, pool PoolRef, sql string) (*QueryResult, error)

	// GetTables lists base tables, excluding system catalogs, with
	// schema-qualification where the dialect has schemas.
	GetTables(ctx context.Context, pool PoolRef, cfg *ConnectionConfig) ([]TableInfo, error)

	// GetTableSchema returns columns, primary keys, and foreign keys.
	GetTableSchema(ctx context.Context, pool PoolRef, table string) (*TableSchema, error)

	// GetTableProperties returns the full introspection result: extended
	// columns, keys, indexes, constraints, best-effort row count and comment.
	GetTableProperties(ctx context.Context, pool PoolRef, table string) (*TableProperties, error)

	// GenerateTableDDL returns CREATE TABLE text: verbatim where the dialect
	// stores it, reconstructed from catalog metadata otherwise.
	GenerateTableDDL(ctx context.Context, pool PoolRef, table string) (string, error)

	// RenameTable issues the dialect's rename statement.
	RenameTable(ctx context.Context, pool PoolRef, oldName, newName string) (*QueryResult, error)

	// GetIndexes lists the indexes of one table.
	GetIndexes(ctx context.Context, pool PoolRef, table string) ([]IndexInfo, error)

	// GetConstraints lists the non-key constraints of one table.
	GetConstraints(ctx context.Context, pool PoolRef, table string) ([]ConstraintInfo, error)

	// GetTableRelationships returns foreign-key edges in both directions,
	// deduplicated.
	GetTableRelationships(ctx context.Context, pool PoolRef, table string) ([]TableRelationship, error)
}

// PoolOptions tunes the pools a driver opens.
type PoolOptions struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	ConnectTimeout  time.Duration
}

// DefaultPoolOptions returns the pool tuning used when the caller does not
// override it.
func DefaultPoolOptions() PoolOptions {
	return PoolOptions{
		MaxConns:        10,
		MinConns:        2,
		MaxConnLifetime: 30 * time.Minute,
		MaxConnIdleTime: 5 * time.Minute,
		ConnectTimeout:  10 * time.Second,
	}
}

// --- driver registry ---

var (
	driversMu sync.RWMutex
	drivers   = map[Dialect]Driver{}
)

// Register makes a driver available to SelectDriver. Driver packages call it
// from init(); registering two drivers for one dialect is a programming
// error.
func Register(d Driver) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if _, dup := drivers[d.Dialect()]; dup {
		panic("db: duplicate driver registration for dialect " + string(d.Dialect()))
	}
	drivers[d.Dialect()] = d
}

// SelectDriver returns the driver for dialect. A dialect with no registered
// driver (including the reserved MSSQL tag) fails with an explicit
// unsupported-dialect error — never a silent substitution.
func SelectDriver(dialect Dialect) (Driver, error) {
	driversMu.RLock()
	d, ok := drivers[dialect]
	driversMu.RUnlock()
	if !ok {
		return nil, errs.Newf(errs.KindUnsupportedDialect, "no driver implemented for dialect %q", dialect)
	}
	return d, nil
}

// RegisteredDialects lists the dialects with a driver, sorted.
func RegisteredDialects() []Dialect {
	driversMu.RLock()
	defer driversMu.RUnlock()
	out := make([]Dialect, 0, len(drivers))
	for d := range drivers {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
