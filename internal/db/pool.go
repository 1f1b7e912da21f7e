package db

import (
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/danielss-dev/dbfordevs/internal/errs"
)

// Pool is a closed tagged union over one live connection pool per dialect.
// Exactly one variant is populated. A Pool owns its native resources and
// must be closed, not merely dropped.
type Pool struct {
	dialect Dialect
	pg      *pgxpool.Pool
	std     *sql.DB // mysql and sqlite pools, via database/sql
}

// NewPostgresPool wraps a pgx pool.
func NewPostgresPool(p *pgxpool.Pool) *Pool {
	return &Pool{dialect: DialectPostgres, pg: p}
}

// NewMySQLPool wraps a database/sql pool opened with the mysql driver.
func NewMySQLPool(d *sql.DB) *Pool {
	return &Pool{dialect: DialectMySQL, std: d}
}

// NewSQLitePool wraps a database/sql pool opened with the sqlite driver.
func NewSQLitePool(d *sql.DB) *Pool {
	return &Pool{dialect: DialectSQLite, std: d}
}

// Dialect returns the pool's dialect tag.
func (p *Pool) Dialect() Dialect { return p.dialect }

// Close releases the pool's native resources.
func (p *Pool) Close() {
	switch {
	case p.pg != nil:
		p.pg.Close()
	case p.std != nil:
		_ = p.std.Close()
	}
}

// Ref borrows the pool for the duration of a single driver operation.
func (p *Pool) Ref() PoolRef {
	return PoolRef{dialect: p.dialect, pg: p.pg, std: p.std}
}

// PoolRef is a non-owning, dialect-tagged borrow of a Pool. Drivers unwrap
// it with the typed accessor for their dialect; a reference carrying the
// wrong tag is rejected as a contract violation, never used.
type PoolRef struct {
	dialect Dialect
	pg      *pgxpool.Pool
	std     *sql.DB
}

// Dialect returns the reference's dialect tag.
func (r PoolRef) Dialect() Dialect { return r.dialect }

// Postgres unwraps a Postgres pool reference.
func (r PoolRef) Postgres() (*pgxpool.Pool, error) {
	if r.dialect != DialectPostgres || r.pg == nil {
		return nil, refMismatch(DialectPostgres, r.dialect)
	}
	return r.pg, nil
}

// MySQL unwraps a MySQL pool reference.
func (r PoolRef) MySQL() (*sql.DB, error) {
	if r.dialect != DialectMySQL || r.std == nil {
		return nil, refMismatch(DialectMySQL, r.dialect)
	}
	return r.std, nil
}

// SQLite unwraps a SQLite pool reference.
func (r PoolRef) SQLite() (*sql.DB, error) {
	if r.dialect != DialectSQLite || r.std == nil {
		return nil, refMismatch(DialectSQLite, r.dialect)
	}
	return r.std, nil
}

func refMismatch(want, got Dialect) error {
	return errs.Newf(errs.KindContractViolation,
		"pool reference dialect mismatch: driver requires %s, reference is %s", want, got)
}
