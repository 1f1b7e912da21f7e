package mysql

import (
	"context"
	"fmt"

	"github.com/danielss-dev/dbfordevs/internal/db"
)

// GenerateTableDDL returns the server's own CREATE TABLE text verbatim.
// MySQL maintains it natively via SHOW CREATE TABLE, so no reconstruction
// is needed.
func (d *Driver) GenerateTableDDL(ctx context.Context, pool db.PoolRef, table string) (string, error) {
	conn, err := pool.MySQL()
	if err != nil {
		return "", err
	}

	stmt := fmt.Sprintf("SHOW CREATE TABLE %s", quoteIdent(table))

	// SHOW CREATE TABLE returns two columns: the table name and the DDL.
	var name, ddl string
	if err := conn.QueryRowContext(ctx, stmt).Scan(&name, &ddl); err != nil {
		return "", mapError("failed to fetch CREATE TABLE text", err)
	}
	return ddl + ";", nil
}
