package audit

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"ppms/internal/query"
)

var csvHeader = []string{"timestamp", "table_name", "record_id", "action", "field_name", "old_value", "new_value", "user"}

// ExportCSV writes the entries matched by f, newest first, as CSV.
func (l *Log) ExportCSV(ctx context.Context, f Filter, w io.Writer) error {
	res, err := l.Query(ctx, f, query.Page{})
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range res.Entries {
		row := []string{
			e.Timestamp.UTC().Format(time.RFC3339),
			e.Table,
			strconv.FormatUint(uint64(e.RecordID), 10),
			string(e.Action),
			deref(e.FieldName),
			deref(e.OldValue),
			deref(e.NewValue),
			e.Actor(),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
