package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/danielss-dev/dbfordevs/internal/db"
)

// GetTables lists base tables in the connected database.
func (d *Driver) GetTables(ctx context.Context, pool db.PoolRef, _ *db.ConnectionConfig) ([]db.TableInfo, error) {
	conn, err := pool.MySQL()
	if err != nil {
		return nil, err
	}

	const q = `
		SELECT TABLE_SCHEMA, TABLE_NAME
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = DATABASE()
		  AND TABLE_TYPE   = 'BASE TABLE'
		ORDER BY TABLE_NAME`

	rows, err := conn.QueryContext(ctx, q)
	if err != nil {
		return nil, mapError("failed to list tables", err)
	}
	defer rows.Close()

	tables := []db.TableInfo{}
	for rows.Next() {
		var schema, name string
		if err := rows.Scan(&schema, &name); err != nil {
			return nil, mapError("failed to scan table row", err)
		}
		s := schema
		tables = append(tables, db.TableInfo{
			Name:      name,
			Schema:    &s,
			TableType: "BASE TABLE",
		})
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("error iterating tables", err)
	}
	return tables, nil
}

// GetTableSchema returns columns, primary keys, and outgoing foreign keys.
func (d *Driver) GetTableSchema(ctx context.Context, pool db.PoolRef, table string) (*db.TableSchema, error) {
	conn, err := pool.MySQL()
	if err != nil {
		return nil, err
	}

	const colQuery = `
		SELECT COLUMN_NAME,
		       DATA_TYPE,
		       IS_NULLABLE = 'YES',
		       COLUMN_KEY = 'PRI'
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = DATABASE()
		  AND TABLE_NAME   = ?
		ORDER BY ORDINAL_POSITION`

	rows, err := conn.QueryContext(ctx, colQuery, table)
	if err != nil {
		return nil, mapError("failed to fetch columns", err)
	}
	defer rows.Close()

	columns := []db.ColumnInfo{}
	pks := []string{}
	for rows.Next() {
		var c db.ColumnInfo
		if err := rows.Scan(&c.Name, &c.DataType, &c.Nullable, &c.IsPrimaryKey); err != nil {
			return nil, mapError("failed to scan column row", err)
		}
		if c.IsPrimaryKey {
			pks = append(pks, c.Name)
		}
		columns = append(columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("error iterating columns", err)
	}

	fks, err := d.fetchForeignKeys(ctx, conn, table)
	if err != nil {
		return nil, err
	}

	return &db.TableSchema{
		TableName:   table,
		Columns:     columns,
		PrimaryKeys: pks,
		ForeignKeys: fks,
	}, nil
}

func (d *Driver) fetchForeignKeys(ctx context.Context, conn *sql.DB, table string) ([]db.ForeignKeyInfo, error) {
	const q = `
		SELECT COLUMN_NAME,
		       REFERENCED_TABLE_NAME,
		       REFERENCED_COLUMN_NAME
		FROM information_schema.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA           = DATABASE()
		  AND TABLE_NAME             = ?
		  AND REFERENCED_TABLE_NAME IS NOT NULL`

	rows, err := conn.QueryContext(ctx, q, table)
	if err != nil {
		return nil, mapError("failed to fetch foreign keys", err)
	}
	defer rows.Close()

	fks := []db.ForeignKeyInfo{}
	for rows.Next() {
		var fk db.ForeignKeyInfo
		if err := rows.Scan(&fk.Column, &fk.ReferencesTable, &fk.ReferencesColumn); err != nil {
			return nil, mapError("failed to scan foreign key", err)
		}
		fks = append(fks, fk)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("error iterating foreign keys", err)
	}
	return fks, nil
}

// GetTableProperties assembles the full introspection result. Row count and
// table comment are best-effort and stay nil when their lookups fail.
func (d *Driver) GetTableProperties(ctx context.Context, pool db.PoolRef, table string) (*db.TableProperties, error) {
	conn, err := pool.MySQL()
	if err != nil {
		return nil, err
	}

	const colQuery = `
		SELECT COLUMN_NAME,
		       COLUMN_TYPE,
		       IS_NULLABLE = 'YES',
		       COLUMN_KEY = 'PRI',
		       COLUMN_DEFAULT,
		       NULLIF(COLUMN_COMMENT, '')
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = DATABASE()
		  AND TABLE_NAME   = ?
		ORDER BY ORDINAL_POSITION`

	rows, err := conn.QueryContext(ctx, colQuery, table)
	if err != nil {
		return nil, mapError("failed to fetch column properties", err)
	}
	defer rows.Close()

	columns := []db.ExtendedColumnInfo{}
	pks := []string{}
	for rows.Next() {
		var c db.ExtendedColumnInfo
		if err := rows.Scan(&c.Name, &c.DataType, &c.Nullable, &c.IsPrimaryKey, &c.DefaultValue, &c.Comment); err != nil {
			return nil, mapError("failed to scan column properties", err)
		}
		if c.IsPrimaryKey {
			pks = append(pks, c.Name)
		}
		columns = append(columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("error iterating column properties", err)
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
		PrimaryKeys: pks,
		ForeignKeys: fks,
		Indexes:     indexes,
		Constraints: constraints,
	}

	// Best-effort metadata: absent beats failing the whole call.
	var rowCount int64
	countStmt := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdent(table))
	if err := conn.QueryRowContext(ctx, countStmt).Scan(&rowCount); err == nil {
		props.RowCount = &rowCount
	}

	const commentQuery = `
		SELECT NULLIF(TABLE_COMMENT, '')
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = DATABASE()
		  AND TABLE_NAME   = ?`
	var comment *string
	if err := conn.QueryRowContext(ctx, commentQuery, table).Scan(&comment); err == nil {
		props.TableComment = comment
	}

	return props, nil
}

// GetIndexes lists the indexes of table grouped from information_schema
// statistics.
func (d *Driver) GetIndexes(ctx context.Context, pool db.PoolRef, table string) ([]db.IndexInfo, error) {
	conn, err := pool.MySQL()
	if err != nil {
		return nil, err
	}

	const q = `
		SELECT INDEX_NAME, COLUMN_NAME, NON_UNIQUE
		FROM information_schema.STATISTICS
		WHERE TABLE_SCHEMA = DATABASE()
		  AND TABLE_NAME   = ?
		ORDER BY INDEX_NAME, SEQ_IN_INDEX`

	rows, err := conn.QueryContext(ctx, q, table)
	if err != nil {
		return nil, mapError("failed to fetch indexes", err)
	}
	defer rows.Close()

	indexes := []db.IndexInfo{}
	byName := map[string]int{}
	for rows.Next() {
		var (
			idxName, colName string
			nonUnique        int
		)
		if err := rows.Scan(&idxName, &colName, &nonUnique); err != nil {
			return nil, mapError("failed to scan index row", err)
		}
		if i, ok := byName[idxName]; ok {
			indexes[i].Columns = append(indexes[i].Columns, colName)
			continue
		}
		byName[idxName] = len(indexes)
		indexes = append(indexes, db.IndexInfo{
			Name:      idxName,
			Columns:   []string{colName},
			IsUnique:  nonUnique == 0,
			IsPrimary: idxName == "PRIMARY",
		})
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("error iterating indexes", err)
	}
	return indexes, nil
}

// GetConstraints lists CHECK and UNIQUE constraints. CHECK definitions come
// from CHECK_CONSTRAINTS where the server provides them (8.0.16+); on older
// servers the definition is empty rather than an error.
func (d *Driver) GetConstraints(ctx context.Context, pool db.PoolRef, table string) ([]db.ConstraintInfo, error) {
	conn, err := pool.MySQL()
	if err != nil {
		return nil, err
	}

	const q = `
		SELECT tc.CONSTRAINT_NAME,
		       tc.CONSTRAINT_TYPE,
		       COALESCE(cc.CHECK_CLAUSE, '')
		FROM information_schema.TABLE_CONSTRAINTS tc
		LEFT JOIN information_schema.CHECK_CONSTRAINTS cc
		  ON cc.CONSTRAINT_SCHEMA = tc.CONSTRAINT_SCHEMA
		 AND cc.CONSTRAINT_NAME   = tc.CONSTRAINT_NAME
		WHERE tc.TABLE_SCHEMA     = DATABASE()
		  AND tc.TABLE_NAME       = ?
		  AND tc.CONSTRAINT_TYPE IN ('CHECK', 'UNIQUE')
		ORDER BY tc.CONSTRAINT_NAME`

	rows, err := conn.QueryContext(ctx, q, table)
	if err != nil {
		return nil, mapError("failed to fetch constraints", err)
	}
	defer rows.Close()

	constraints := []db.ConstraintInfo{}
	for rows.Next() {
		var c db.ConstraintInfo
		if err := rows.Scan(&c.Name, &c.ConstraintType, &c.Definition); err != nil {
			return nil, mapError("failed to scan constraint row", err)
		}
		constraints = append(constraints, c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("error iterating constraints", err)
	}
	return constraints, nil
}

// GetTableRelationships returns foreign-key edges where table is source or
// target, deduplicated.
func (d *Driver) GetTableRelationships(ctx context.Context, pool db.PoolRef, table string) ([]db.TableRelationship, error) {
	conn, err := pool.MySQL()
	if err != nil {
		return nil, err
	}

	const q = `
		SELECT TABLE_NAME,
		       COLUMN_NAME,
		       REFERENCED_TABLE_NAME,
		       REFERENCED_COLUMN_NAME,
		       CONSTRAINT_NAME
		FROM information_schema.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA             = DATABASE()
		  AND REFERENCED_TABLE_NAME   IS NOT NULL
		  AND (TABLE_NAME = ? OR REFERENCED_TABLE_NAME = ?)
		ORDER BY CONSTRAINT_NAME, ORDINAL_POSITION`

	rows, err := conn.QueryContext(ctx, q, table, table)
	if err != nil {
		return nil, mapError("failed to fetch relationships", err)
	}
	defer rows.Close()

	rels := []db.TableRelationship{}
	seen := map[string]bool{}
	for rows.Next() {
		var rel db.TableRelationship
		var conName string
		if err := rows.Scan(&rel.SourceTable, &rel.SourceColumn, &rel.TargetTable, &rel.TargetColumn, &conName); err != nil {
			return nil, mapError("failed to scan relationship row", err)
		}
		rel.ConstraintName = &conName
		key := rel.SourceTable + "." + rel.SourceColumn + ">" + rel.TargetTable + "." + rel.TargetColumn
		if seen[key] {
			continue
		}
		seen[key] = true
		rels = append(rels, rel)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("error iterating relationships", err)
	}
	return rels, nil
}
