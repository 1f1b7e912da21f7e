package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/danielss-dev/dbfordevs/internal/db"
	"github.com/danielss-dev/dbfordevs/internal/errs"
)

// EncodeCSV writes res as CSV: one header row of column names, then one
// record per data row. Null cells are written empty; structured cells are
// written as their JSON text.
func EncodeCSV(w io.Writer, res *db.QueryResult) error {
	cw := csv.NewWriter(w)

	header := make([]string, len(res.Columns))
	for i, c := range res.Columns {
		header[i] = c.Name
	}
	if err := cw.Write(header); err != nil {
		return errs.Wrap(errs.KindUnknown, "failed to write CSV header", err)
	}

	record := make([]string, len(res.Columns))
	for _, row := range res.Rows {
		for i := range record {
			if i < len(row) {
				record[i] = cellString(row[i])
			} else {
				record[i] = ""
			}
		}
		if err := cw.Write(record); err != nil {
			return errs.Wrap(errs.KindUnknown, "failed to write CSV record", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return errs.Wrap(errs.KindUnknown, "failed to flush CSV output", err)
	}
	return nil
}

// cellString renders one already-coerced result cell for CSV output.
func cellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case map[string]any, []any:
		raw, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(raw)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// EncodeJSON writes res as a JSON array of objects keyed by column name.
func EncodeJSON(w io.Writer, res *db.QueryResult) error {
	out := make([]map[string]any, 0, len(res.Rows))
	for _, row := range res.Rows {
		obj := make(map[string]any, len(res.Columns))
		for i, c := range res.Columns {
			if i < len(row) {
				obj[c.Name] = row[i]
			} else {
				obj[c.Name] = nil
			}
		}
		out = append(out, obj)
	}

	enc := json.NewEncoder(w)
	if err := enc.Encode(out); err != nil {
		return errs.Wrap(errs.KindUnknown, "failed to encode JSON export", err)
	}
	return nil
}
