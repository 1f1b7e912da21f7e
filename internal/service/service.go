// Package service implements the operation layer between the HTTP surface
// and the dialect drivers. It resolves connection identifiers to pools,
// applies result paging, and builds the SQL for row-level mutations so that
// handlers never touch driver packages directly.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/danielss-dev/dbfordevs/internal/db"
	"github.com/danielss-dev/dbfordevs/internal/db/sqlsplit"
)

// Service exposes every operation of the API over a connection manager.
type Service struct {
	mgr *db.Manager
	log zerolog.Logger
}

// New builds a Service over mgr.
func New(mgr *db.Manager, log zerolog.Logger) *Service {
	return &Service{
		mgr: mgr,
		log: log.With().Str("component", "service").Logger(),
	}
}

// TestConnection checks whether cfg can reach its database. A failed round
// trip is a normal result with Success false; the only error is a dialect
// with no driver.
func (s *Service) TestConnection(ctx context.Context, cfg *db.ConnectionConfig) (*db.TestResult, error) {
	drv, err := db.SelectDriver(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	return drv.TestConnection(ctx, cfg), nil
}

// Connect opens (or replaces) the pool for id.
func (s *Service) Connect(ctx context.Context, id string, cfg *db.ConnectionConfig) error {
	return s.mgr.Connect(ctx, id, cfg)
}

// Disconnect closes the pool for id. Unknown identifiers are a no-op.
func (s *Service) Disconnect(id string) {
	s.mgr.Disconnect(id)
}

// IsConnected reports whether a pool exists for id.
func (s *Service) IsConnected(id string) bool {
	return s.mgr.IsConnected(id)
}

// ListConnections returns the identifiers of all open pools, sorted.
func (s *Service) ListConnections() []string {
	return s.mgr.ListConnections()
}

// ExecuteQuery runs sqlText against the connection id. When limit is set and
// the text is a single row-returning statement without its own LIMIT clause,
// a LIMIT/OFFSET is appended before execution.
func (s *Service) ExecuteQuery(ctx context.Context, id, sqlText string, limit, offset *int) (*db.QueryResult, error) {
	drv, ref, err := s.resolve(id)
	if err != nil {
		return nil, err
	}
	return drv.ExecuteQuery(ctx, ref, applyPaging(sqlText, limit, offset))
}

// applyPaging appends LIMIT/OFFSET to a single row-returning statement that
// does not already page itself. Scripts and side-effect statements pass
// through untouched.
func applyPaging(sqlText string, limit, offset *int) string {
	if limit == nil {
		return sqlText
	}
	stmts := sqlsplit.Split(sqlText)
	if len(stmts) != 1 || !sqlsplit.IsRowReturning(stmts[0]) {
		return sqlText
	}
	if containsLimit(stmts[0]) {
		return sqlText
	}

	// On its own line so a trailing line comment cannot swallow the clause.
	out := strings.TrimRight(strings.TrimSpace(sqlText), ";")
	out = fmt.Sprintf("%s\nLIMIT %d", out, *limit)
	if offset != nil && *offset > 0 {
		out = fmt.Sprintf("%s OFFSET %d", out, *offset)
	}
	return out
}

// containsLimit reports whether stmt carries a LIMIT keyword outside of
// string literals and identifiers. The scan only needs to be precise enough
// to avoid double-paging; a LIMIT inside a literal is a harmless false
// positive (the statement simply pages itself).
func containsLimit(stmt string) bool {
	upper := strings.ToUpper(stmt)
	for i := 0; ; {
		j := strings.Index(upper[i:], "LIMIT")
		if j < 0 {
			return false
		}
		j += i
		beforeOK := j == 0 || !isWordByte(upper[j-1])
		after := j + len("LIMIT")
		afterOK := after == len(upper) || !isWordByte(upper[after])
		if beforeOK && afterOK {
			return true
		}
		i = after
	}
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

// resolve returns the driver and pool reference for a connection id.
func (s *Service) resolve(id string) (db.Driver, db.PoolRef, error) {
	drv, err := s.mgr.Driver(id)
	if err != nil {
		return nil, db.PoolRef{}, err
	}
	ref, err := s.mgr.PoolRef(id)
	if err != nil {
		return nil, db.PoolRef{}, err
	}
	return drv, ref, nil
}

// GetTables lists the base tables of the connection id.
func (s *Service) GetTables(ctx context.Context, id string) ([]db.TableInfo, error) {
	drv, ref, err := s.resolve(id)
	if err != nil {
		return nil, err
	}
	cfg, err := s.mgr.Config(id)
	if err != nil {
		return nil, err
	}
	return drv.GetTables(ctx, ref, cfg)
}

// GetTableSchema returns columns, primary keys, and foreign keys of table.
func (s *Service) GetTableSchema(ctx context.Context, id, table string) (*db.TableSchema, error) {
	drv, ref, err := s.resolve(id)
	if err != nil {
		return nil, err
	}
	return drv.GetTableSchema(ctx, ref, table)
}

// GetTableProperties returns the full introspection result for table.
func (s *Service) GetTableProperties(ctx context.Context, id, table string) (*db.TableProperties, error) {
	drv, ref, err := s.resolve(id)
	if err != nil {
		return nil, err
	}
	return drv.GetTableProperties(ctx, ref, table)
}

// GenerateTableDDL returns CREATE TABLE text for table.
func (s *Service) GenerateTableDDL(ctx context.Context, id, table string) (string, error) {
	drv, ref, err := s.resolve(id)
	if err != nil {
		return "", err
	}
	return drv.GenerateTableDDL(ctx, ref, table)
}

// RenameTable renames a table on the connection id.
func (s *Service) RenameTable(ctx context.Context, id, oldName, newName string) (*db.QueryResult, error) {
	drv, ref, err := s.resolve(id)
	if err != nil {
		return nil, err
	}
	return drv.RenameTable(ctx, ref, oldName, newName)
}

// GetIndexes lists the indexes of table.
func (s *Service) GetIndexes(ctx context.Context, id, table string) ([]db.IndexInfo, error) {
	drv, ref, err := s.resolve(id)
	if err != nil {
		return nil, err
	}
	return drv.GetIndexes(ctx, ref, table)
}

// GetConstraints lists the non-key constraints of table.
func (s *Service) GetConstraints(ctx context.Context, id, table string) ([]db.ConstraintInfo, error) {
	drv, ref, err := s.resolve(id)
	if err != nil {
		return nil, err
	}
	return drv.GetConstraints(ctx, ref, table)
}

// GetTableRelationships returns foreign-key edges touching table.
func (s *Service) GetTableRelationships(ctx context.Context, id, table string) ([]db.TableRelationship, error) {
	drv, ref, err := s.resolve(id)
	if err != nil {
		return nil, err
	}
	return drv.GetTableRelationships(ctx, ref, table)
}
