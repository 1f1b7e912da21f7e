// Package stdsql executes SQL scripts against database/sql pools. The MySQL
// and SQLite drivers share it; only error translation differs per dialect
// and is injected by the caller.
package stdsql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/danielss-dev/dbfordevs/internal/db"
	"github.com/danielss-dev/dbfordevs/internal/db/genval"
	"github.com/danielss-dev/dbfordevs/internal/db/sqlsplit"
	"github.com/danielss-dev/dbfordevs/internal/errs"
)

// ErrorMapper translates a native driver error into an *errs.Error.
type ErrorMapper func(msg string, err error) error

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// RunScript splits sqlText into statements and executes them.
//
// A single statement runs directly on the pool. Multiple statements run
// inside one transaction: affected-row counts are summed, the last
// row-returning statement's grid wins, and any failure rolls the whole
// script back with the error naming the failing statement.
func RunScript(ctx context.Context, pool *sql.DB, sqlText string, mapErr ErrorMapper) (*db.QueryResult, error) {
	start := time.Now()

	stmts := executable(sqlsplit.Split(sqlText))
	if len(stmts) == 0 {
		return nil, errs.New(errs.KindQueryFailed, "no executable statements in query text")
	}

	var acc db.ScriptAccumulator

	if len(stmts) == 1 {
		if err := runStatement(ctx, pool, stmts[0], &acc, mapErr); err != nil {
			return nil, err
		}
		return acc.Result(start), nil
	}

	tx, err := pool.BeginTx(ctx, nil)
	if err != nil {
		return nil, mapErr("failed to begin transaction", err)
	}

	for i, stmt := range stmts {
		if err := runStatement(ctx, tx, stmt, &acc, mapErr); err != nil {
			stmtErr := errs.Wrapf(errs.KindOf(err), err, "statement %d of %d failed", i+1, len(stmts))
			if rbErr := tx.Rollback(); rbErr != nil {
				// The original failure stays primary; the rollback
				// failure is chained, never masking.
				return nil, errs.Wrapf(errs.KindOf(err), stmtErr, "rollback failed after statement %d: %v", i+1, rbErr)
			}
			return nil, stmtErr
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, mapErr("failed to commit transaction", err)
	}
	return acc.Result(start), nil
}

// executable drops statements that are only comments.
func executable(stmts []string) []string {
	out := stmts[:0]
	for _, s := range stmts {
		if sqlsplit.StripLeadingComments(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func runStatement(ctx context.Context, q queryer, stmt string, acc *db.ScriptAccumulator, mapErr ErrorMapper) error {
	if sqlsplit.IsRowReturning(stmt) {
		rows, err := q.QueryContext(ctx, stmt)
		if err != nil {
			return mapErr("query execution failed", err)
		}
		defer rows.Close()
		cols, grid, err := collectRows(rows, mapErr)
		if err != nil {
			return err
		}
		acc.AddGrid(cols, grid)
		return nil
	}

	res, err := q.ExecContext(ctx, stmt)
	if err != nil {
		return mapErr("statement execution failed", err)
	}
	// RowsAffected is best-effort: some statements legitimately report none.
	var affected int64
	if n, err := res.RowsAffected(); err == nil {
		affected = n
	}
	acc.AddAffected(affected)
	return nil
}

// collectRows drains a result set, coercing every value into the generic
// representation. Each call's rows are locally scoped — concurrent queries
// on the same pool never share state.
func collectRows(rows *sql.Rows, mapErr ErrorMapper) ([]db.ColumnInfo, [][]any, error) {
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, nil, mapErr("failed to read column descriptors", err)
	}

	cols := make([]db.ColumnInfo, len(colTypes))
	for i, ct := range colTypes {
		nullable := true
		if n, ok := ct.Nullable(); ok {
			nullable = n
		}
		cols[i] = db.ColumnInfo{
			Name:     ct.Name(),
			DataType: strings.ToLower(ct.DatabaseTypeName()),
			Nullable: nullable,
		}
	}

	grid := [][]any{}
	for rows.Next() {
		dest := make([]any, len(cols))
		for i := range dest {
			dest[i] = new(any)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, nil, mapErr("failed to scan row", err)
		}
		vals := make([]any, len(cols))
		for i := range dest {
			vals[i] = *dest[i].(*any)
		}
		grid = append(grid, genval.CoerceRow(vals))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, mapErr("error iterating rows", err)
	}

	return cols, grid, nil
}
