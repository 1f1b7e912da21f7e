package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/danielss-dev/dbfordevs/internal/db"
	"github.com/danielss-dev/dbfordevs/internal/db/genval"
	"github.com/danielss-dev/dbfordevs/internal/db/sqlsplit"
	"github.com/danielss-dev/dbfordevs/internal/errs"
)

// typeMap resolves data type OIDs to their catalog names for result column
// descriptors. Unknown OIDs (extensions, user-defined types) report as
// "unknown"; their values still flow through the coercion fallback.
var typeMap = pgtype.NewMap()

// pgxQueryer is satisfied by both *pgxpool.Pool and pgx.Tx.
type pgxQueryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ExecuteQuery runs a SQL script. Multiple statements execute inside one
// transaction with summed affected counts and last-grid-wins semantics.
func (d *Driver) ExecuteQuery(ctx context.Context, pool db.PoolRef, sqlText string) (*db.QueryResult, error) {
	pg, err := pool.Postgres()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	stmts := executable(sqlsplit.Split(sqlText))
	if len(stmts) == 0 {
		return nil, errs.New(errs.KindQueryFailed, "no executable statements in query text")
	}

	var acc db.ScriptAccumulator

	if len(stmts) == 1 {
		if err := d.runStatement(ctx, pg, stmts[0], &acc); err != nil {
			return nil, err
		}
		return acc.Result(start), nil
	}

	tx, err := pg.Begin(ctx)
	if err != nil {
		return nil, mapError("failed to begin transaction", err)
	}

	for i, stmt := range stmts {
		if err := d.runStatement(ctx, tx, stmt, &acc); err != nil {
			stmtErr := errs.Wrapf(errs.KindOf(err), err, "statement %d of %d failed", i+1, len(stmts))
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				return nil, errs.Wrapf(errs.KindOf(err), stmtErr, "rollback failed after statement %d: %v", i+1, rbErr)
			}
			return nil, stmtErr
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, mapError("failed to commit transaction", err)
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

func (d *Driver) runStatement(ctx context.Context, q pgxQueryer, stmt string, acc *db.ScriptAccumulator) error {
	if sqlsplit.IsRowReturning(stmt) {
		rows, err := q.Query(ctx, stmt)
		if err != nil {
			return mapError("query execution failed", err)
		}
		defer rows.Close()
		cols, grid, err := collectRows(rows)
		if err != nil {
			return err
		}
		acc.AddGrid(cols, grid)
		return nil
	}

	tag, err := q.Exec(ctx, stmt)
	if err != nil {
		return mapError("statement execution failed", err)
	}
	acc.AddAffected(tag.RowsAffected())
	return nil
}

func collectRows(rows pgx.Rows) ([]db.ColumnInfo, [][]any, error) {
	fds := rows.FieldDescriptions()
	cols := make([]db.ColumnInfo, len(fds))
	for i, fd := range fds {
		dataType := "unknown"
		if t, ok := typeMap.TypeForOID(fd.DataTypeOID); ok {
			dataType = t.Name
		}
		cols[i] = db.ColumnInfo{
			Name:     fd.Name,
			DataType: dataType,
			Nullable: true,
		}
	}

	grid := [][]any{}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, nil, mapError("failed to decode row", err)
		}
		grid = append(grid, genval.CoerceRow(vals))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, mapError("error iterating rows", err)
	}
	return cols, grid, nil
}

// fetchStringList runs a query returning one text column.
func fetchStringList(ctx context.Context, q pgxQueryer, sql string, args ...any) ([]string, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError("catalog query failed", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, mapError("failed to scan catalog row", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("error iterating catalog rows", err)
	}
	return out, nil
}
