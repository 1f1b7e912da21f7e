package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/danielss-dev/dbfordevs/internal/db"
)

// splitQualified separates an optionally schema-qualified table name,
// defaulting to the public schema.
func splitQualified(name string) (schema, table string) {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "public", name
}

// quoteQualified quotes a possibly schema-qualified name part by part.
func quoteQualified(name string) string {
	schema, table := splitQualified(name)
	return quoteIdent(schema) + "." + quoteIdent(table)
}

// GetTables lists base tables across all non-system schemas.
func (d *Driver) GetTables(ctx context.Context, pool db.PoolRef, _ *db.ConnectionConfig) ([]db.TableInfo, error) {
	pg, err := pool.Postgres()
	if err != nil {
		return nil, err
	}

	const q = `
		SELECT table_schema, table_name
		FROM information_schema.tables
		WHERE table_type = 'BASE TABLE'
		  AND table_schema NOT IN ('pg_catalog', 'information_schema')
		ORDER BY table_schema, table_name`

	rows, err := pg.Query(ctx, q)
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
	pg, err := pool.Postgres()
	if err != nil {
		return nil, err
	}
	schema, name := splitQualified(table)

	const colQuery = `
		SELECT column_name,
		       data_type,
		       is_nullable = 'YES'
		FROM information_schema.columns
		WHERE table_schema = $1
		  AND table_name   = $2
		ORDER BY ordinal_position`

	rows, err := pg.Query(ctx, colQuery, schema, name)
	if err != nil {
		return nil, mapError("failed to fetch columns", err)
	}
	defer rows.Close()

	columns := []db.ColumnInfo{}
	for rows.Next() {
		var c db.ColumnInfo
		if err := rows.Scan(&c.Name, &c.DataType, &c.Nullable); err != nil {
			return nil, mapError("failed to scan column row", err)
		}
		columns = append(columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("error iterating columns", err)
	}

	pks, err := d.fetchPrimaryKeys(ctx, pg, schema, name)
	if err != nil {
		return nil, err
	}
	pkSet := make(map[string]bool, len(pks))
	for _, pk := range pks {
		pkSet[pk] = true
	}
	for i := range columns {
		columns[i].IsPrimaryKey = pkSet[columns[i].Name]
	}

	fks, err := d.fetchForeignKeys(ctx, pg, schema, name)
	if err != nil {
		return nil, err
	}

	return &db.TableSchema{
		TableName:   name,
		Columns:     columns,
		PrimaryKeys: pks,
		ForeignKeys: fks,
	}, nil
}

func (d *Driver) fetchPrimaryKeys(ctx context.Context, pg pgxQueryer, schema, table string) ([]string, error) {
	const q = `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		 AND tc.table_schema    = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
		  AND tc.table_schema    = $1
		  AND tc.table_name      = $2
		ORDER BY kcu.ordinal_position`

	pks, err := fetchStringList(ctx, pg, q, schema, table)
	if err != nil {
		return nil, err
	}
	if pks == nil {
		pks = []string{}
	}
	return pks, nil
}

func (d *Driver) fetchForeignKeys(ctx context.Context, pg pgxQueryer, schema, table string) ([]db.ForeignKeyInfo, error) {
	const q = `
		SELECT kcu.column_name,
		       ccu.table_name  AS ref_table,
		       ccu.column_name AS ref_column
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		 AND tc.table_schema    = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
		  ON tc.constraint_name = ccu.constraint_name
		WHERE tc.constraint_type = 'FOREIGN KEY'
		  AND tc.table_schema    = $1
		  AND tc.table_name      = $2`

	rows, err := pg.Query(ctx, q, schema, table)
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
	pg, err := pool.Postgres()
	if err != nil {
		return nil, err
	}
	schema, name := splitQualified(table)

	const colQuery = `
		SELECT c.column_name,
		       c.data_type,
		       c.is_nullable = 'YES',
		       c.column_default,
		       col_description(cls.oid, c.ordinal_position::int)
		FROM information_schema.columns c
		JOIN pg_class cls     ON cls.relname = c.table_name
		JOIN pg_namespace ns  ON ns.oid = cls.relnamespace
		                     AND ns.nspname = c.table_schema
		WHERE c.table_schema = $1
		  AND c.table_name   = $2
		ORDER BY c.ordinal_position`

	rows, err := pg.Query(ctx, colQuery, schema, name)
	if err != nil {
		return nil, mapError("failed to fetch column properties", err)
	}
	defer rows.Close()

	columns := []db.ExtendedColumnInfo{}
	for rows.Next() {
		var c db.ExtendedColumnInfo
		if err := rows.Scan(&c.Name, &c.DataType, &c.Nullable, &c.DefaultValue, &c.Comment); err != nil {
			return nil, mapError("failed to scan column properties", err)
		}
		columns = append(columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("error iterating column properties", err)
	}

	pks, err := d.fetchPrimaryKeys(ctx, pg, schema, name)
	if err != nil {
		return nil, err
	}
	pkSet := make(map[string]bool, len(pks))
	for _, pk := range pks {
		pkSet[pk] = true
	}
	for i := range columns {
		columns[i].IsPrimaryKey = pkSet[columns[i].Name]
	}

	fks, err := d.fetchForeignKeys(ctx, pg, schema, name)
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
		TableName:   name,
		Schema:      &schema,
		Columns:     columns,
		PrimaryKeys: pks,
		ForeignKeys: fks,
		Indexes:     indexes,
		Constraints: constraints,
	}

	// Best-effort metadata: absent beats failing the whole call.
	var rowCount int64
	countStmt := fmt.Sprintf("SELECT count(*) FROM %s.%s", quoteIdent(schema), quoteIdent(name))
	if err := pg.QueryRow(ctx, countStmt).Scan(&rowCount); err == nil {
		props.RowCount = &rowCount
	}

	const commentQuery = `
		SELECT obj_description(cls.oid, 'pg_class')
		FROM pg_class cls
		JOIN pg_namespace ns ON ns.oid = cls.relnamespace
		WHERE ns.nspname = $1 AND cls.relname = $2`
	var comment *string
	if err := pg.QueryRow(ctx, commentQuery, schema, name).Scan(&comment); err == nil {
		props.TableComment = comment
	}

	return props, nil
}

// GetIndexes lists all indexes of table with their column lists.
func (d *Driver) GetIndexes(ctx context.Context, pool db.PoolRef, table string) ([]db.IndexInfo, error) {
	pg, err := pool.Postgres()
	if err != nil {
		return nil, err
	}
	schema, name := splitQualified(table)

	const q = `
		SELECT i.relname,
		       array_agg(a.attname::text ORDER BY k.ord),
		       ix.indisunique,
		       ix.indisprimary
		FROM pg_index ix
		JOIN pg_class i       ON i.oid = ix.indexrelid
		JOIN pg_class t       ON t.oid = ix.indrelid
		JOIN pg_namespace ns  ON ns.oid = t.relnamespace
		JOIN LATERAL unnest(ix.indkey) WITH ORDINALITY AS k(attnum, ord) ON true
		JOIN pg_attribute a   ON a.attrelid = t.oid AND a.attnum = k.attnum
		WHERE ns.nspname = $1
		  AND t.relname  = $2
		GROUP BY i.relname, ix.indisunique, ix.indisprimary
		ORDER BY i.relname`

	rows, err := pg.Query(ctx, q, schema, name)
	if err != nil {
		return nil, mapError("failed to fetch indexes", err)
	}
	defer rows.Close()

	indexes := []db.IndexInfo{}
	for rows.Next() {
		var idx db.IndexInfo
		if err := rows.Scan(&idx.Name, &idx.Columns, &idx.IsUnique, &idx.IsPrimary); err != nil {
			return nil, mapError("failed to scan index row", err)
		}
		indexes = append(indexes, idx)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("error iterating indexes", err)
	}
	return indexes, nil
}

// GetConstraints lists CHECK, UNIQUE, and EXCLUSION constraints with their
// definitions.
func (d *Driver) GetConstraints(ctx context.Context, pool db.PoolRef, table string) ([]db.ConstraintInfo, error) {
	pg, err := pool.Postgres()
	if err != nil {
		return nil, err
	}
	schema, name := splitQualified(table)

	const q = `
		SELECT con.conname,
		       CASE con.contype
		           WHEN 'c' THEN 'CHECK'
		           WHEN 'u' THEN 'UNIQUE'
		           WHEN 'x' THEN 'EXCLUSION'
		       END,
		       pg_get_constraintdef(con.oid)
		FROM pg_constraint con
		JOIN pg_class cls     ON cls.oid = con.conrelid
		JOIN pg_namespace ns  ON ns.oid = cls.relnamespace
		WHERE ns.nspname = $1
		  AND cls.relname = $2
		  AND con.contype IN ('c', 'u', 'x')
		ORDER BY con.conname`

	rows, err := pg.Query(ctx, q, schema, name)
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
	pg, err := pool.Postgres()
	if err != nil {
		return nil, err
	}
	schema, name := splitQualified(table)

	const q = `
		SELECT src.relname AS source_table,
		       sa.attname  AS source_column,
		       tgt.relname AS target_table,
		       ta.attname  AS target_column,
		       con.conname
		FROM pg_constraint con
		JOIN pg_class src         ON src.oid = con.conrelid
		JOIN pg_namespace src_ns  ON src_ns.oid = src.relnamespace
		JOIN pg_class tgt         ON tgt.oid = con.confrelid
		JOIN pg_namespace tgt_ns  ON tgt_ns.oid = tgt.relnamespace
		JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS k(srcnum, tgtnum, ord) ON true
		JOIN pg_attribute sa      ON sa.attrelid = con.conrelid  AND sa.attnum = k.srcnum
		JOIN pg_attribute ta      ON ta.attrelid = con.confrelid AND ta.attnum = k.tgtnum
		WHERE con.contype = 'f'
		  AND ((src_ns.nspname = $1 AND src.relname = $2)
		    OR (tgt_ns.nspname = $1 AND tgt.relname = $2))
		ORDER BY con.conname, k.ord`

	rows, err := pg.Query(ctx, q, schema, name)
	if err != nil {
		return nil, mapError("failed to fetch relationships", err)
	}
	defer rows.Close()

	rels := []db.TableRelationship{}
	seen := map[string]bool{}
	for rows.Next() {
		var rel db.TableRelationship
		var conname string
		if err := rows.Scan(&rel.SourceTable, &rel.SourceColumn, &rel.TargetTable, &rel.TargetColumn, &conname); err != nil {
			return nil, mapError("failed to scan relationship row", err)
		}
		rel.ConstraintName = &conname
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
