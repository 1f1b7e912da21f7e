package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/danielss-dev/dbfordevs/internal/db"
	"github.com/danielss-dev/dbfordevs/internal/errs"
)

// GenerateTableDDL returns the stored CREATE TABLE statement from
// sqlite_master, which is the exact text the table was created with. For
// internal tables where the stored text is NULL the statement is
// reconstructed from PRAGMA data instead.
func (d *Driver) GenerateTableDDL(ctx context.Context, pool db.PoolRef, table string) (string, error) {
	conn, err := pool.SQLite()
	if err != nil {
		return "", err
	}

	const q = `SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?`

	var ddl *string
	err = conn.QueryRowContext(ctx, q, table).Scan(&ddl)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", errs.Newf(errs.KindNotFound, "table %q not found", table)
	case err != nil:
		return "", mapError("failed to fetch table DDL", err)
	}

	if ddl != nil && *ddl != "" {
		out := *ddl
		if !strings.HasSuffix(strings.TrimSpace(out), ";") {
			out += ";"
		}
		return out, nil
	}
	return d.reconstructDDL(ctx, conn, table)
}

func (d *Driver) reconstructDDL(ctx context.Context, conn *sql.DB, table string) (string, error) {
	cols, err := d.fetchColumns(ctx, conn, table)
	if err != nil {
		return "", err
	}
	if len(cols) == 0 {
		return "", errs.Newf(errs.KindNotFound, "table %q not found", table)
	}

	var parts []string
	for _, c := range cols {
		line := fmt.Sprintf("    %s %s", quoteIdent(c.name), c.dataType)
		if c.dflt != nil {
			line += " DEFAULT " + *c.dflt
		}
		if c.notNull {
			line += " NOT NULL"
		}
		parts = append(parts, line)
	}

	if pks := primaryKeys(cols); len(pks) > 0 {
		quoted := make([]string, len(pks))
		for i, pk := range pks {
			quoted[i] = quoteIdent(pk)
		}
		parts = append(parts, fmt.Sprintf("    PRIMARY KEY (%s)", strings.Join(quoted, ", ")))
	}

	fks, err := d.fetchForeignKeys(ctx, conn, table)
	if err != nil {
		return "", err
	}
	for _, fk := range fks {
		parts = append(parts, fmt.Sprintf("    FOREIGN KEY (%s) REFERENCES %s (%s)",
			quoteIdent(fk.Column), quoteIdent(fk.ReferencesTable), quoteIdent(fk.ReferencesColumn)))
	}

	return fmt.Sprintf("CREATE TABLE %s (\n%s\n);", quoteIdent(table), strings.Join(parts, ",\n")), nil
}
