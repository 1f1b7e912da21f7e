package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/danielss-dev/dbfordevs/internal/db"
)

// GetTables lists user tables from sqlite_master. SQLite has no schemas;
// internal sqlite_* tables are excluded.
func (d *Driver) GetTables(ctx context.Context, pool db.PoolRef, _ *db.ConnectionConfig) ([]db.TableInfo, error) {
	conn, err := pool.SQLite()
	if err != nil {
		return nil, err
	}

	const q = `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table'
		  AND name NOT LIKE 'sqlite_%'
		ORDER BY name`

	rows, err := conn.QueryContext(ctx, q)
	if err != nil {
		return nil, mapError("failed to list tables", err)
	}
	defer rows.Close()

	tables := []db.TableInfo{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, mapError("failed to scan table row", err)
		}
		tables = append(tables, db.TableInfo{
			Name:      name,
			TableType: "BASE TABLE",
		})
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("error iterating tables", err)
	}
	return tables, nil
}

// tableColumn is one row of PRAGMA table_info.
type tableColumn struct {
	name     string
	dataType string
	notNull  bool
	dflt     *string
	pkOrder  int
}

func (d *Driver) fetchColumns(ctx context.Context, conn *sql.DB, table string) ([]tableColumn, error) {
	q := fmt.Sprintf("PRAGMA table_info(%s)", pragmaLiteral(table))
	rows, err := conn.QueryContext(ctx, q)
	if err != nil {
		return nil, mapError("failed to fetch columns", err)
	}
	defer rows.Close()

	var cols []tableColumn
	for rows.Next() {
		var (
			cid int
			c   tableColumn
		)
		if err := rows.Scan(&cid, &c.name, &c.dataType, &c.notNull, &c.dflt, &c.pkOrder); err != nil {
			return nil, mapError("failed to scan column row", err)
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("error iterating columns", err)
	}
	return cols, nil
}

func primaryKeys(cols []tableColumn) []string {
	// PRAGMA table_info reports the 1-based position of each column within
	// the primary key; order by it.
	pks := []string{}
	for order := 1; ; order++ {
		found := false
		for _, c := range cols {
			if c.pkOrder == order {
				pks = append(pks, c.name)
				found = true
			}
		}
		if !found {
			return pks
		}
	}
}

// GetTableSchema returns columns, primary keys, and outgoing foreign keys,
// all derived from PRAGMA introspection.
func (d *Driver) GetTableSchema(ctx context.Context, pool db.PoolRef, table string) (*db.TableSchema, error) {
	conn, err := pool.SQLite()
	if err != nil {
		return nil, err
	}

	cols, err := d.fetchColumns(ctx, conn, table)
	if err != nil {
		return nil, err
	}

	columns := []db.ColumnInfo{}
	for _, c := range cols {
		columns = append(columns, db.ColumnInfo{
			Name:         c.name,
			DataType:     c.dataType,
			Nullable:     !c.notNull,
			IsPrimaryKey: c.pkOrder > 0,
		})
	}

	fks, err := d.fetchForeignKeys(ctx, conn, table)
	if err != nil {
		return nil, err
	}

	return &db.TableSchema{
		TableName:   table,
		Columns:     columns,
		PrimaryKeys: primaryKeys(cols),
		ForeignKeys: fks,
	}, nil
}

func (d *Driver) fetchForeignKeys(ctx context.Context, conn *sql.DB, table string) ([]db.ForeignKeyInfo, error) {
	q := fmt.Sprintf("PRAGMA foreign_key_list(%s)", pragmaLiteral(table))
	rows, err := conn.QueryContext(ctx, q)
	if err != nil {
		return nil, mapError("failed to fetch foreign keys", err)
	}
	defer rows.Close()

	fks := []db.ForeignKeyInfo{}
	for rows.Next() {
		var (
			id, seq                     int
			refTable, from              string
			to                          *string // nil when referencing the implicit rowid
			onUpdate, onDelete, matchBy string
		)
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &matchBy); err != nil {
			return nil, mapError("failed to scan foreign key", err)
		}
		fk := db.ForeignKeyInfo{Column: from, ReferencesTable: refTable}
		if to != nil {
			fk.ReferencesColumn = *to
		}
		fks = append(fks, fk)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("error iterating foreign keys", err)
	}
	return fks, nil
}

// GetTableProperties assembles the full introspection result. SQLite has no
// table or column comments; the row count is best-effort.
func (d *Driver) GetTableProperties(ctx context.Context, pool db.PoolRef, table string) (*db.TableProperties, error) {
	conn, err := pool.SQLite()
	if err != nil {
		return nil, err
	}

	cols, err := d.fetchColumns(ctx, conn, table)
	if err != nil {
		return nil, err
	}

	columns := []db.ExtendedColumnInfo{}
	for _, c := range cols {
		columns = append(columns, db.ExtendedColumnInfo{
			Name:         c.name,
			DataType:     c.dataType,
			Nullable:     !c.notNull,
			IsPrimaryKey: c.pkOrder > 0,
			DefaultValue: c.dflt,
		})
	}

	fks, err := d.fetchForeignKeys(ctx, conn, table)
	if err != nil {
		return nil, err
	}
	indexes, err := d.GetIndexes(ctx, pool, table)
	if err != nil {
		return nil, err
	}
	constraints, err := d.GetConstraints(ctx, pool, table)
	if err != nil {
		return nil, err
	}

	props := &db.TableProperties{
		TableName:   table,
		Columns:     columns,
		PrimaryKeys: primaryKeys(cols),
		ForeignKeys: fks,
		Indexes:     indexes,
		Constraints: constraints,
	}

	var rowCount int64
	countStmt := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdent(table))
	if err := conn.QueryRowContext(ctx, countStmt).Scan(&rowCount); err == nil {
		props.RowCount = &rowCount
	}

	return props, nil
}

// GetIndexes lists the indexes of table from PRAGMA index_list plus
// per-index PRAGMA index_info.
func (d *Driver) GetIndexes(ctx context.Context, pool db.PoolRef, table string) ([]db.IndexInfo, error) {
	conn, err := pool.SQLite()
	if err != nil {
		return nil, err
	}

	q := fmt.Sprintf("PRAGMA index_list(%s)", pragmaLiteral(table))
	rows, err := conn.QueryContext(ctx, q)
	if err != nil {
		return nil, mapError("failed to fetch indexes", err)
	}

	type indexEntry struct {
		name   string
		unique bool
		origin string
	}
	var entries []indexEntry
	for rows.Next() {
		var (
			seq     int
			e       indexEntry
			partial bool
		)
		if err := rows.Scan(&seq, &e.name, &e.unique, &e.origin, &partial); err != nil {
			rows.Close()
			return nil, mapError("failed to scan index row", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, mapError("error iterating indexes", err)
	}
	rows.Close()

	indexes := []db.IndexInfo{}
	for _, e := range entries {
		cols, err := d.fetchIndexColumns(ctx, conn, e.name)
		if err != nil {
			return nil, err
		}
		indexes = append(indexes, db.IndexInfo{
			Name:      e.name,
			Columns:   cols,
			IsUnique:  e.unique,
			IsPrimary: e.origin == "pk",
		})
	}
	return indexes, nil
}

func (d *Driver) fetchIndexColumns(ctx context.Context, conn *sql.DB, index string) ([]string, error) {
	q := fmt.Sprintf("PRAGMA index_info(%s)", pragmaLiteral(index))
	rows, err := conn.QueryContext(ctx, q)
	if err != nil {
		return nil, mapError("failed to fetch index columns", err)
	}
	defer rows.Close()

	cols := []string{}
	for rows.Next() {
		var (
			seqno, cid int
			name       *string // nil for expression index members
		)
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, mapError("failed to scan index column", err)
		}
		if name != nil {
			cols = append(cols, *name)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("error iterating index columns", err)
	}
	return cols, nil
}

// GetConstraints reports UNIQUE constraints, which SQLite exposes as
// unique indexes with origin 'u'. CHECK constraints live only inside the
// stored CREATE TABLE text and are not reported here.
func (d *Driver) GetConstraints(ctx context.Context, pool db.PoolRef, table string) ([]db.ConstraintInfo, error) {
	indexes, err := d.GetIndexes(ctx, pool, table)
	if err != nil {
		return nil, err
	}

	constraints := []db.ConstraintInfo{}
	for _, idx := range indexes {
		if !idx.IsUnique || idx.IsPrimary {
			continue
		}
		def := "UNIQUE ("
		for i, c := range idx.Columns {
			if i > 0 {
				def += ", "
			}
			def += quoteIdent(c)
		}
		def += ")"
		constraints = append(constraints, db.ConstraintInfo{
			Name:           idx.Name,
			ConstraintType: "UNIQUE",
			Definition:     def,
		})
	}
	return constraints, nil
}

// GetTableRelationships returns foreign-key edges in both directions.
// Outgoing edges come from the table's own foreign-key list; incoming edges
// require scanning every other table's list, since SQLite has no reverse
// index.
func (d *Driver) GetTableRelationships(ctx context.Context, pool db.PoolRef, table string) ([]db.TableRelationship, error) {
	conn, err := pool.SQLite()
	if err != nil {
		return nil, err
	}

	tables, err := d.GetTables(ctx, pool, nil)
	if err != nil {
		return nil, err
	}

	rels := []db.TableRelationship{}
	seen := map[string]bool{}
	add := func(source, sourceCol, target, targetCol string) {
		key := source + "." + sourceCol + ">" + target + "." + targetCol
		if seen[key] {
			return
		}
		seen[key] = true
		rels = append(rels, db.TableRelationship{
			SourceTable:  source,
			SourceColumn: sourceCol,
			TargetTable:  target,
			TargetColumn: targetCol,
		})
	}

	for _, t := range tables {
		if t.Name != table {
			// Only edges touching the requested table matter; check the
			// other table's foreign keys for references to it.
			fks, err := d.fetchForeignKeys(ctx, conn, t.Name)
			if err != nil {
				return nil, err
			}
			for _, fk := range fks {
				if fk.ReferencesTable == table {
					add(t.Name, fk.Column, fk.ReferencesTable, fk.ReferencesColumn)
				}
			}
			continue
		}
		fks, err := d.fetchForeignKeys(ctx, conn, t.Name)
		if err != nil {
			return nil, err
		}
		for _, fk := range fks {
			add(t.Name, fk.Column, fk.ReferencesTable, fk.ReferencesColumn)
		}
	}
	return rels, nil
}
