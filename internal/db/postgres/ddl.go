package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/danielss-dev/dbfordevs/internal/db"
	"github.com/danielss-dev/dbfordevs/internal/errs"
)

// GenerateTableDDL reconstructs CREATE TABLE text from the catalog.
// PostgreSQL has no native "show create table", so the statement is rebuilt
// from pg_attribute (exact types via format_type, defaults, nullability)
// plus the primary-key and foreign-key constraint definitions.
func (d *Driver) GenerateTableDDL(ctx context.Context, pool db.PoolRef, table string) (string, error) {
	pg, err := pool.Postgres()
	if err != nil {
		return "", err
	}
	schema, name := splitQualified(table)

	const colQuery = `
		SELECT a.attname,
		       format_type(a.atttypid, a.atttypmod),
		       a.attnotnull,
		       pg_get_expr(ad.adbin, ad.adrelid)
		FROM pg_attribute a
		JOIN pg_class cls     ON cls.oid = a.attrelid
		JOIN pg_namespace ns  ON ns.oid = cls.relnamespace
		LEFT JOIN pg_attrdef ad ON ad.adrelid = a.attrelid AND ad.adnum = a.attnum
		WHERE ns.nspname = $1
		  AND cls.relname = $2
		  AND a.attnum > 0
		  AND NOT a.attisdropped
		ORDER BY a.attnum`

	rows, err := pg.Query(ctx, colQuery, schema, name)
	if err != nil {
		return "", mapError("failed to fetch column definitions", err)
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var (
			colName, dataType string
			notNull           bool
			defaultExpr       *string
		)
		if err := rows.Scan(&colName, &dataType, &notNull, &defaultExpr); err != nil {
			return "", mapError("failed to scan column definition", err)
		}
		line := fmt.Sprintf("    %s %s", quoteIdent(colName), dataType)
		if defaultExpr != nil {
			line += " DEFAULT " + *defaultExpr
		}
		if notNull {
			line += " NOT NULL"
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return "", mapError("error iterating column definitions", err)
	}
	if len(lines) == 0 {
		return "", errs.Newf(errs.KindNotFound, "table %q not found", table)
	}

	// Primary-key and foreign-key constraints, with pretty-printed
	// definitions straight from the catalog.
	const conQuery = `
		SELECT con.conname, pg_get_constraintdef(con.oid)
		FROM pg_constraint con
		JOIN pg_class cls     ON cls.oid = con.conrelid
		JOIN pg_namespace ns  ON ns.oid = cls.relnamespace
		WHERE ns.nspname = $1
		  AND cls.relname = $2
		  AND con.contype IN ('p', 'f')
		ORDER BY con.contype DESC, con.conname`

	conRows, err := pg.Query(ctx, conQuery, schema, name)
	if err != nil {
		return "", mapError("failed to fetch constraint definitions", err)
	}
	defer conRows.Close()

	for conRows.Next() {
		var conName, conDef string
		if err := conRows.Scan(&conName, &conDef); err != nil {
			return "", mapError("failed to scan constraint definition", err)
		}
		lines = append(lines, fmt.Sprintf("    CONSTRAINT %s %s", quoteIdent(conName), conDef))
	}
	if err := conRows.Err(); err != nil {
		return "", mapError("error iterating constraint definitions", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s.%s (\n", quoteIdent(schema), quoteIdent(name))
	b.WriteString(strings.Join(lines, ",\n"))
	b.WriteString("\n);")
	return b.String(), nil
}
