// Package frame turns flat query records into a columnar, time-indexed
// table for rendering and inspection.
package frame

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// Record is one flat row as decoded from a query response.
type Record map[string]any

// DefaultIndexColumn is the timestamp column TickVault responses carry.
const DefaultIndexColumn = "ts"

// Frame is a columnar view over records: a parsed time index plus the
// remaining columns in sorted order. Rows keep the input record order.
type Frame struct {
	indexName string
	index     []time.Time
	columns   []string
	rows      [][]any
}

// FromRecords builds a Frame indexed on indexColumn, or DefaultIndexColumn
// when empty. Every record must carry the index column; the remaining
// columns are the union across records, sorted by name, with absent values
// left nil.
func FromRecords(recs []Record, indexColumn string) (*Frame, error) {
	if indexColumn == "" {
		indexColumn = DefaultIndexColumn
	}

	seen := make(map[string]bool)
	for _, rec := range recs {
		for key := range rec {
			if key != indexColumn {
				seen[key] = true
			}
		}
	}
	columns := make([]string, 0, len(seen))
	for key := range seen {
		columns = append(columns, key)
	}
	sort.Strings(columns)

	f := &Frame{
		indexName: indexColumn,
		index:     make([]time.Time, 0, len(recs)),
		columns:   columns,
		rows:      make([][]any, 0, len(recs)),
	}
	for i, rec := range recs {
		raw, ok := rec[indexColumn]
		if !ok {
			return nil, fmt.Errorf("frame: record %d missing index column %q", i, indexColumn)
		}
		ts, err := parseTimestamp(raw)
		if err != nil {
			return nil, fmt.Errorf("frame: record %d: %w", i, err)
		}
		row := make([]any, len(columns))
		for j, col := range columns {
			row[j] = rec[col]
		}
		f.index = append(f.index, ts)
		f.rows = append(f.rows, row)
	}
	return f, nil
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.rows) }

// IndexName returns the name of the index column.
func (f *Frame) IndexName() string { return f.indexName }

// Columns returns the data column names in render order.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.columns))
	copy(out, f.columns)
	return out
}

// Index returns the parsed timestamps in row order.
func (f *Frame) Index() []time.Time {
	out := make([]time.Time, len(f.index))
	copy(out, f.index)
	return out
}

// Row returns the data values of row i in column order.
func (f *Frame) Row(i int) []any {
	out := make([]any, len(f.rows[i]))
	copy(out, f.rows[i])
	return out
}

// Column returns all values of the named data column in row order.
func (f *Frame) Column(name string) ([]any, error) {
	for j, col := range f.columns {
		if col == name {
			out := make([]any, len(f.rows))
			for i, row := range f.rows {
				out[i] = row[j]
			}
			return out, nil
		}
	}
	return nil, fmt.Errorf("frame: no column %q", name)
}

// compactLayout is the service's yyyyMMddHHmmss time convention, also used
// for query start and end times.
const compactLayout = "20060102150405"

// parseTimestamp accepts the index value shapes TickVault responses use:
// epoch milliseconds as a JSON number or numeric string, the compact
// 14-digit service convention, or RFC 3339 text.
func parseTimestamp(v any) (time.Time, error) {
	switch v := v.(type) {
	case float64:
		return time.UnixMilli(int64(v)).UTC(), nil
	case int64:
		return time.UnixMilli(v).UTC(), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return time.Time{}, fmt.Errorf("timestamp %q is not a whole number", v)
		}
		return time.UnixMilli(n).UTC(), nil
	case string:
		// A 14-digit string is the compact convention, not epoch millis.
		if len(v) == len(compactLayout) {
			if ts, err := time.Parse(compactLayout, v); err == nil {
				return ts.UTC(), nil
			}
		}
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.UnixMilli(n).UTC(), nil
		}
		if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return ts.UTC(), nil
		}
		return time.Time{}, fmt.Errorf("cannot parse timestamp %q", v)
	default:
		return time.Time{}, fmt.Errorf("timestamp value %v (%T) is not a number or string", v, v)
	}
}
