package sqlite

import (
	"context"

	"github.com/danielss-dev/dbfordevs/internal/db"
	"github.com/danielss-dev/dbfordevs/internal/db/stdsql"
)

// ExecuteQuery runs a SQL script through the shared database/sql executor.
func (d *Driver) ExecuteQuery(ctx context.Context, pool db.PoolRef, sqlText string) (*db.QueryResult, error) {
	conn, err := pool.SQLite()
	if err != nil {
		return nil, err
	}
	return stdsql.RunScript(ctx, conn, sqlText, mapError)
}
