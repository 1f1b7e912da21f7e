package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/danielss-dev/dbfordevs/internal/db"
	"github.com/danielss-dev/dbfordevs/internal/errs"
)

// Row-level mutations build their SQL text here, with per-dialect identifier
// quoting and SQL-literal escaping, and execute through the driver's normal
// query path so transaction, error, and timing semantics stay uniform.

// InsertRow inserts one row into table. Column order in the generated SQL is
// sorted so the statement is deterministic for a given value set.
func (s *Service) InsertRow(ctx context.Context, id, table string, values map[string]any) (*db.QueryResult, error) {
	if len(values) == 0 {
		return nil, errs.New(errs.KindInvalidInput, "insert requires at least one column value")
	}
	drv, ref, err := s.resolve(id)
	if err != nil {
		return nil, err
	}
	dialect := drv.Dialect()

	cols := sortedKeys(values)
	quoted := make([]string, len(cols))
	lits := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(dialect, c)
		lits[i] = sqlLiteral(values[c])
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(dialect, table), strings.Join(quoted, ", "), strings.Join(lits, ", "))
	return drv.ExecuteQuery(ctx, ref, stmt)
}

// UpdateRow updates the row of table whose primary-key column equals pkValue.
func (s *Service) UpdateRow(ctx context.Context, id, table, pkColumn string, pkValue any, updates map[string]any) (*db.QueryResult, error) {
	if len(updates) == 0 {
		return nil, errs.New(errs.KindInvalidInput, "update requires at least one column value")
	}
	drv, ref, err := s.resolve(id)
	if err != nil {
		return nil, err
	}
	dialect := drv.Dialect()

	sets := make([]string, 0, len(updates))
	for _, c := range sortedKeys(updates) {
		sets = append(sets, fmt.Sprintf("%s = %s", quoteIdent(dialect, c), sqlLiteral(updates[c])))
	}

	stmt := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		quoteIdent(dialect, table), strings.Join(sets, ", "),
		quoteIdent(dialect, pkColumn), sqlLiteral(pkValue))
	return drv.ExecuteQuery(ctx, ref, stmt)
}

// DeleteRow deletes the row of table whose primary-key column equals pkValue.
func (s *Service) DeleteRow(ctx context.Context, id, table, pkColumn string, pkValue any) (*db.QueryResult, error) {
	drv, ref, err := s.resolve(id)
	if err != nil {
		return nil, err
	}
	dialect := drv.Dialect()

	stmt := fmt.Sprintf("DELETE FROM %s WHERE %s = %s",
		quoteIdent(dialect, table), quoteIdent(dialect, pkColumn), sqlLiteral(pkValue))
	return drv.ExecuteQuery(ctx, ref, stmt)
}

// DropTable drops table on the connection id.
func (s *Service) DropTable(ctx context.Context, id, table string) (*db.QueryResult, error) {
	drv, ref, err := s.resolve(id)
	if err != nil {
		return nil, err
	}
	stmt := fmt.Sprintf("DROP TABLE %s", quoteIdent(drv.Dialect(), table))
	return drv.ExecuteQuery(ctx, ref, stmt)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// quoteIdent quotes an identifier for dialect: backticks for MySQL,
// double quotes elsewhere, with the quote character doubled inside.
func quoteIdent(dialect db.Dialect, ident string) string {
	if dialect == db.DialectMySQL {
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// sqlLiteral renders v as a SQL literal. Values arriving from JSON are
// strings, float64, bool, nil, or nested JSON; everything non-numeric is
// escaped into a single-quoted string.
func sqlLiteral(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val)
	case float32, float64:
		return fmt.Sprintf("%v", val)
	case json.Number:
		return val.String()
	case string:
		return quoteString(val)
	case map[string]any, []any:
		raw, err := json.Marshal(val)
		if err != nil {
			return quoteString(fmt.Sprintf("%v", val))
		}
		return quoteString(string(raw))
	default:
		return quoteString(fmt.Sprintf("%v", val))
	}
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
