package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptAccumulator_GridOnly(t *testing.T) {
	var acc ScriptAccumulator
	acc.AddGrid(
		[]ColumnInfo{{Name: "n", DataType: "int8"}},
		[][]any{{int64(1)}},
	)

	res := acc.Result(time.Now())
	require.NotNil(t, res)
	assert.Nil(t, res.AffectedRows, "a pure read reports no affected count")
	assert.Len(t, res.Rows, 1)
	assert.Equal(t, "n", res.Columns[0].Name)
}

func TestScriptAccumulator_ExecOnly(t *testing.T) {
	var acc ScriptAccumulator
	acc.AddAffected(3)
	acc.AddAffected(2)

	res := acc.Result(time.Now())
	require.NotNil(t, res.AffectedRows)
	assert.Equal(t, int64(5), *res.AffectedRows, "affected counts sum across statements")
	assert.Empty(t, res.Rows)
	assert.NotNil(t, res.Columns, "columns are never nil")
	assert.NotNil(t, res.Rows, "rows are never nil")
}

func TestScriptAccumulator_LastGridWins(t *testing.T) {
	var acc ScriptAccumulator
	acc.AddGrid([]ColumnInfo{{Name: "first"}}, [][]any{{1}})
	acc.AddAffected(1)
	acc.AddGrid([]ColumnInfo{{Name: "second"}}, [][]any{{2}, {3}})

	res := acc.Result(time.Now())
	assert.Equal(t, "second", res.Columns[0].Name)
	assert.Len(t, res.Rows, 2)
	require.NotNil(t, res.AffectedRows)
	assert.Equal(t, int64(1), *res.AffectedRows)
}

func TestScriptAccumulator_ZeroAffectedIsReported(t *testing.T) {
	var acc ScriptAccumulator
	acc.AddAffected(0)

	res := acc.Result(time.Now())
	require.NotNil(t, res.AffectedRows, "an exec that touched nothing still reports zero")
	assert.Equal(t, int64(0), *res.AffectedRows)
}

func TestPoolRef_DialectMismatch(t *testing.T) {
	ref := PoolRef{dialect: DialectSQLite}

	_, err := ref.Postgres()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contract_violation")

	_, err = ref.MySQL()
	require.Error(t, err)
}
