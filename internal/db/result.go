package db

import "time"

// ScriptAccumulator folds per-statement outcomes into a script's final
// QueryResult. Affected-row counts are summed across all side-effect
// statements; the last row-returning statement's grid wins. A script with
// no side-effect statements reports a nil affected count, matching the
// single-SELECT case.
//
// The executors for every dialect share this so the multi-statement
// semantics cannot drift between drivers.
type ScriptAccumulator struct {
	columns  []ColumnInfo
	rows     [][]any
	affected int64
	hasExec  bool
}

// AddGrid records a row-returning statement's result.
func (a *ScriptAccumulator) AddGrid(columns []ColumnInfo, rows [][]any) {
	a.columns = columns
	a.rows = rows
}

// AddAffected records a side-effect statement's affected-row count.
func (a *ScriptAccumulator) AddAffected(n int64) {
	a.affected += n
	a.hasExec = true
}

// Result assembles the final QueryResult. Columns and Rows are never nil.
func (a *ScriptAccumulator) Result(start time.Time) *QueryResult {
	out := &QueryResult{
		Columns:         a.columns,
		Rows:            a.rows,
		ExecutionTimeMs: time.Since(start).Milliseconds(),
	}
	if out.Columns == nil {
		out.Columns = []ColumnInfo{}
	}
	if out.Rows == nil {
		out.Rows = [][]any{}
	}
	if a.hasExec {
		sum := a.affected
		out.AffectedRows = &sum
	}
	return out
}
