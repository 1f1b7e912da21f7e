package db_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielss-dev/dbfordevs/internal/db"
	"github.com/danielss-dev/dbfordevs/internal/errs"

	_ "github.com/danielss-dev/dbfordevs/internal/db/sqlite"
)

func memoryConfig(name string) *db.ConnectionConfig {
	return &db.ConnectionConfig{
		Name:     name,
		Dialect:  db.DialectSQLite,
		FilePath: ":memory:",
	}
}

func newManager(t *testing.T) *db.Manager {
	t.Helper()
	m := db.NewManager(db.DefaultPoolOptions(), zerolog.Nop())
	t.Cleanup(m.CloseAll)
	return m
}

func TestSelectDriver(t *testing.T) {
	drv, err := db.SelectDriver(db.DialectSQLite)
	require.NoError(t, err)
	assert.Equal(t, db.DialectSQLite, drv.Dialect())
}

func TestSelectDriver_MSSQLUnsupported(t *testing.T) {
	// The mssql tag is reserved: selecting it must fail loudly, never fall
	// back to another dialect's driver.
	_, err := db.SelectDriver(db.DialectMSSQL)
	require.Error(t, err)
	assert.True(t, errs.IsUnsupportedDialect(err))
	assert.Contains(t, err.Error(), "mssql")
}

func TestSelectDriver_UnknownDialect(t *testing.T) {
	_, err := db.SelectDriver(db.Dialect("oracle"))
	require.Error(t, err)
	assert.True(t, errs.IsUnsupportedDialect(err))
}

func TestManager_ConnectAndDisconnect(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)

	require.NoError(t, m.Connect(ctx, "conn-1", memoryConfig("one")))
	assert.True(t, m.IsConnected("conn-1"))

	ref, err := m.PoolRef("conn-1")
	require.NoError(t, err)
	assert.Equal(t, db.DialectSQLite, ref.Dialect())

	m.Disconnect("conn-1")
	assert.False(t, m.IsConnected("conn-1"))

	_, err = m.PoolRef("conn-1")
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestManager_DisconnectUnknownIsNoop(t *testing.T) {
	m := newManager(t)
	assert.NotPanics(t, func() { m.Disconnect("never-connected") })
}

func TestManager_ReconnectReplacesPool(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)

	require.NoError(t, m.Connect(ctx, "conn-1", memoryConfig("first")))
	require.NoError(t, m.Connect(ctx, "conn-1", memoryConfig("second")))

	assert.True(t, m.IsConnected("conn-1"))
	assert.Equal(t, []string{"conn-1"}, m.ListConnections(), "replace, not accumulate")

	cfg, err := m.Config("conn-1")
	require.NoError(t, err)
	assert.Equal(t, "second", cfg.Name)
}

func TestManager_ConnectFailureLeavesNoEntry(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)

	err := m.Connect(ctx, "bad", &db.ConnectionConfig{Dialect: db.DialectSQLite})
	require.Error(t, err, "sqlite requires a file path")
	assert.False(t, m.IsConnected("bad"))
	assert.Empty(t, m.ListConnections())
}

func TestManager_ConnectUnsupportedDialect(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)

	err := m.Connect(ctx, "ms", &db.ConnectionConfig{Dialect: db.DialectMSSQL, Database: "x"})
	require.Error(t, err)
	assert.True(t, errs.IsUnsupportedDialect(err))
	assert.False(t, m.IsConnected("ms"))
}

func TestManager_ListConnectionsSorted(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)

	for _, id := range []string{"charlie", "alpha", "bravo"} {
		require.NoError(t, m.Connect(ctx, id, memoryConfig(id)))
	}

	assert.Equal(t, []string{"alpha", "bravo", "charlie"}, m.ListConnections())
}

func TestManager_Driver(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)

	require.NoError(t, m.Connect(ctx, "conn-1", memoryConfig("one")))

	drv, err := m.Driver("conn-1")
	require.NoError(t, err)
	assert.Equal(t, db.DialectSQLite, drv.Dialect())

	_, err = m.Driver("missing")
	assert.True(t, errs.IsNotFound(err))
}
