package frame

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"
)

// WriteTable renders the frame as an aligned text table, index column
// first.
func (f *Frame) WriteTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprint(tw, f.indexName)
	for _, col := range f.columns {
		fmt.Fprint(tw, "\t", col)
	}
	fmt.Fprintln(tw)
	for i, row := range f.rows {
		fmt.Fprint(tw, f.index[i].Format(time.RFC3339))
		for _, v := range row {
			fmt.Fprint(tw, "\t", FormatValue(v))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

// WriteCSV renders the frame as CSV with a header row.
func (f *Frame) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := append([]string{f.indexName}, f.columns...)
	if err := cw.Write(header); err != nil {
		return err
	}
	record := make([]string, len(header))
	for i, row := range f.rows {
		record[0] = f.index[i].Format(time.RFC3339)
		for j, v := range row {
			record[j+1] = FormatValue(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON renders the frame as an indented JSON array of row objects.
// The index is formatted as RFC 3339 text; object keys marshal in sorted
// order, so output is deterministic.
func (f *Frame) WriteJSON(w io.Writer) error {
	out := make([]map[string]any, len(f.rows))
	for i, row := range f.rows {
		obj := make(map[string]any, len(f.columns)+1)
		obj[f.indexName] = f.index[i].Format(time.RFC3339)
		for j, col := range f.columns {
			obj[col] = row[j]
		}
		out[i] = obj
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// FormatValue renders a single cell the way the text renderers do: nil as
// the empty string, floats without exponent notation.
func FormatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
