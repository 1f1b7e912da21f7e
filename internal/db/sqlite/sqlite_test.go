package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielss-dev/dbfordevs/internal/db"
	"github.com/danielss-dev/dbfordevs/internal/errs"

	_ "github.com/danielss-dev/dbfordevs/internal/db/sqlite"
)

func openMemory(t *testing.T) (db.Driver, db.PoolRef) {
	t.Helper()
	drv, err := db.SelectDriver(db.DialectSQLite)
	require.NoError(t, err)

	pool, err := drv.OpenPool(context.Background(), &db.ConnectionConfig{FilePath: ":memory:"}, db.DefaultPoolOptions())
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return drv, pool.Ref()
}

func mustExec(t *testing.T, drv db.Driver, ref db.PoolRef, sql string) *db.QueryResult {
	t.Helper()
	res, err := drv.ExecuteQuery(context.Background(), ref, sql)
	require.NoError(t, err)
	return res
}

func TestConnString(t *testing.T) {
	drv, err := db.SelectDriver(db.DialectSQLite)
	require.NoError(t, err)

	tests := []struct {
		name    string
		cfg     *db.ConnectionConfig
		want    string
		wantErr bool
	}{
		{"file path", &db.ConnectionConfig{FilePath: "/tmp/app.db"}, "/tmp/app.db", false},
		{"database as fallback", &db.ConnectionConfig{Database: "app.db"}, "app.db", false},
		{"file path wins over database", &db.ConnectionConfig{FilePath: "a.db", Database: "b.db"}, "a.db", false},
		{"memory", &db.ConnectionConfig{FilePath: ":memory:"}, ":memory:", false},
		{"missing path", &db.ConnectionConfig{}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := drv.ConnString(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errs.IsInvalidConfig(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTestConnection(t *testing.T) {
	drv, err := db.SelectDriver(db.DialectSQLite)
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("success reports version", func(t *testing.T) {
		res := drv.TestConnection(ctx, &db.ConnectionConfig{FilePath: ":memory:"})
		require.True(t, res.Success, res.Message)
		require.NotNil(t, res.ServerVersion)
		assert.NotEmpty(t, *res.ServerVersion)
	})

	t.Run("failure is a result, not an error", func(t *testing.T) {
		res := drv.TestConnection(ctx, &db.ConnectionConfig{FilePath: "/no/such/dir/app.db"})
		assert.False(t, res.Success)
		assert.NotEmpty(t, res.Message)
		assert.Nil(t, res.ServerVersion)
	})
}

func TestExecuteQuery_SingleSelect(t *testing.T) {
	drv, ref := openMemory(t)

	res := mustExec(t, drv, ref, "SELECT 1 AS n")
	require.Len(t, res.Columns, 1)
	assert.Equal(t, "n", res.Columns[0].Name)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, int64(1), res.Rows[0][0])
	assert.Nil(t, res.AffectedRows, "a pure read has no affected count")
	assert.GreaterOrEqual(t, res.ExecutionTimeMs, int64(0))
}

func TestExecuteQuery_ExecReportsAffected(t *testing.T) {
	drv, ref := openMemory(t)
	mustExec(t, drv, ref, "CREATE TABLE t (a INTEGER)")

	res := mustExec(t, drv, ref, "INSERT INTO t (a) VALUES (1), (2), (3)")
	require.NotNil(t, res.AffectedRows)
	assert.Equal(t, int64(3), *res.AffectedRows)
	assert.Empty(t, res.Rows)
}

func TestExecuteQuery_MultiStatementScript(t *testing.T) {
	drv, ref := openMemory(t)

	res := mustExec(t, drv, ref, `
		CREATE TABLE t (a INTEGER);
		INSERT INTO t (a) VALUES (1), (2);
		INSERT INTO t (a) VALUES (3);
		SELECT a FROM t ORDER BY a;
	`)

	require.NotNil(t, res.AffectedRows)
	assert.Equal(t, int64(3), *res.AffectedRows, "affected counts sum across the script")
	require.Len(t, res.Rows, 3, "the row-returning statement's grid is kept")
	assert.Equal(t, int64(1), res.Rows[0][0])
}

func TestExecuteQuery_LastGridWins(t *testing.T) {
	drv, ref := openMemory(t)

	res := mustExec(t, drv, ref, "SELECT 1 AS first; SELECT 2 AS second;")
	require.Len(t, res.Columns, 1)
	assert.Equal(t, "second", res.Columns[0].Name)
	assert.Equal(t, int64(2), res.Rows[0][0])
}

func TestExecuteQuery_FailureRollsBackScript(t *testing.T) {
	drv, ref := openMemory(t)
	mustExec(t, drv, ref, "CREATE TABLE t (a INTEGER)")

	_, err := drv.ExecuteQuery(context.Background(), ref, `
		INSERT INTO t (a) VALUES (1);
		INSERT INTO no_such_table (a) VALUES (2);
	`)
	require.Error(t, err)
	assert.True(t, errs.IsQueryFailed(err))
	assert.Contains(t, err.Error(), "statement 2 of 2")

	res := mustExec(t, drv, ref, "SELECT COUNT(*) AS c FROM t")
	assert.Equal(t, int64(0), res.Rows[0][0], "the first insert must be rolled back")
}

func TestExecuteQuery_SemicolonInsideLiteral(t *testing.T) {
	drv, ref := openMemory(t)
	mustExec(t, drv, ref, "CREATE TABLE t (s TEXT)")

	res := mustExec(t, drv, ref, "INSERT INTO t (s) VALUES ('a;b'); SELECT s FROM t;")
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "a;b", res.Rows[0][0])
}

func TestExecuteQuery_EmptyScript(t *testing.T) {
	drv, ref := openMemory(t)

	_, err := drv.ExecuteQuery(context.Background(), ref, "  ; -- nothing\n;")
	require.Error(t, err)
	assert.True(t, errs.IsQueryFailed(err))
}

func TestExecuteQuery_WrongDialectRef(t *testing.T) {
	drv, err := db.SelectDriver(db.DialectSQLite)
	require.NoError(t, err)

	_, err = drv.ExecuteQuery(context.Background(), db.PoolRef{}, "SELECT 1")
	require.Error(t, err)
	assert.True(t, errs.IsContractViolation(err))
}

const fixtureSchema = `
	CREATE TABLE users (
		id INTEGER PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT,
		status TEXT DEFAULT 'active'
	);
	CREATE TABLE orders (
		id INTEGER PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id),
		total REAL
	);
	CREATE INDEX idx_orders_user ON orders(user_id);
	INSERT INTO users (id, email, name) VALUES (1, 'a@example.com', 'Ada'), (2, 'b@example.com', 'Bo');
`

func TestGetTables(t *testing.T) {
	drv, ref := openMemory(t)
	mustExec(t, drv, ref, fixtureSchema)

	tables, err := drv.GetTables(context.Background(), ref, nil)
	require.NoError(t, err)

	names := make([]string, len(tables))
	for i, tbl := range tables {
		names[i] = tbl.Name
		assert.Nil(t, tbl.Schema, "sqlite has no schemas")
		assert.Equal(t, "BASE TABLE", tbl.TableType)
	}
	assert.Equal(t, []string{"orders", "users"}, names)
}

func TestGetTableSchema(t *testing.T) {
	drv, ref := openMemory(t)
	mustExec(t, drv, ref, fixtureSchema)

	schema, err := drv.GetTableSchema(context.Background(), ref, "orders")
	require.NoError(t, err)

	assert.Equal(t, "orders", schema.TableName)
	assert.Equal(t, []string{"id"}, schema.PrimaryKeys)

	byName := map[string]db.ColumnInfo{}
	for _, c := range schema.Columns {
		byName[c.Name] = c
	}
	require.Len(t, byName, 3)
	assert.True(t, byName["id"].IsPrimaryKey)
	assert.False(t, byName["user_id"].Nullable)
	assert.True(t, byName["total"].Nullable)

	require.Len(t, schema.ForeignKeys, 1)
	assert.Equal(t, "user_id", schema.ForeignKeys[0].Column)
	assert.Equal(t, "users", schema.ForeignKeys[0].ReferencesTable)
	assert.Equal(t, "id", schema.ForeignKeys[0].ReferencesColumn)
}

func TestGetTableProperties(t *testing.T) {
	drv, ref := openMemory(t)
	mustExec(t, drv, ref, fixtureSchema)

	props, err := drv.GetTableProperties(context.Background(), ref, "users")
	require.NoError(t, err)

	assert.Equal(t, "users", props.TableName)
	require.NotNil(t, props.RowCount)
	assert.Equal(t, int64(2), *props.RowCount)

	var status *db.ExtendedColumnInfo
	for i := range props.Columns {
		if props.Columns[i].Name == "status" {
			status = &props.Columns[i]
		}
	}
	require.NotNil(t, status)
	require.NotNil(t, status.DefaultValue)
	assert.Contains(t, *status.DefaultValue, "active")
	assert.Nil(t, status.Comment, "sqlite has no column comments")
}

func TestGetIndexes(t *testing.T) {
	drv, ref := openMemory(t)
	mustExec(t, drv, ref, fixtureSchema)

	indexes, err := drv.GetIndexes(context.Background(), ref, "orders")
	require.NoError(t, err)

	var named *db.IndexInfo
	for i := range indexes {
		if indexes[i].Name == "idx_orders_user" {
			named = &indexes[i]
		}
	}
	require.NotNil(t, named)
	assert.Equal(t, []string{"user_id"}, named.Columns)
	assert.False(t, named.IsUnique)
	assert.False(t, named.IsPrimary)
}

func TestGetConstraints_UniqueFromIndex(t *testing.T) {
	drv, ref := openMemory(t)
	mustExec(t, drv, ref, fixtureSchema)

	constraints, err := drv.GetConstraints(context.Background(), ref, "users")
	require.NoError(t, err)

	require.Len(t, constraints, 1)
	assert.Equal(t, "UNIQUE", constraints[0].ConstraintType)
	assert.Contains(t, constraints[0].Definition, `"email"`)
}

func TestGetTableRelationships(t *testing.T) {
	drv, ref := openMemory(t)
	mustExec(t, drv, ref, fixtureSchema)

	ctx := context.Background()

	outgoing, err := drv.GetTableRelationships(ctx, ref, "orders")
	require.NoError(t, err)
	require.Len(t, outgoing, 1)
	assert.Equal(t, "orders", outgoing[0].SourceTable)
	assert.Equal(t, "users", outgoing[0].TargetTable)

	incoming, err := drv.GetTableRelationships(ctx, ref, "users")
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	assert.Equal(t, "orders", incoming[0].SourceTable, "incoming edges are discovered too")
}

func TestGenerateTableDDL(t *testing.T) {
	drv, ref := openMemory(t)
	mustExec(t, drv, ref, fixtureSchema)

	ddl, err := drv.GenerateTableDDL(context.Background(), ref, "users")
	require.NoError(t, err)
	assert.Contains(t, ddl, "CREATE TABLE users")
	assert.Contains(t, ddl, "email")

	_, err = drv.GenerateTableDDL(context.Background(), ref, "missing")
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestRenameTable(t *testing.T) {
	drv, ref := openMemory(t)
	mustExec(t, drv, ref, "CREATE TABLE old_name (a INTEGER)")

	_, err := drv.RenameTable(context.Background(), ref, "old_name", "new_name")
	require.NoError(t, err)

	tables, err := drv.GetTables(context.Background(), ref, nil)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "new_name", tables[0].Name)
}
