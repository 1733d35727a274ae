package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/tickvault/go-tickvault-client/pkg/frame"
	"github.com/tickvault/go-tickvault-client/pkg/predicate"
)

func knownFormat(format string) bool {
	switch format {
	case "table", "csv", "json":
		return true
	default:
		return false
	}
}

func renderFrame(f *frame.Frame, format string, w io.Writer) error {
	switch format {
	case "table":
		return f.WriteTable(w)
	case "csv":
		return f.WriteCSV(w)
	case "json":
		return f.WriteJSON(w)
	default:
		return fmt.Errorf("unknown output format %q (want table, csv or json)", format)
	}
}

// writeOutput renders to stdout, or to path when set. A partially written
// file is removed on error.
func writeOutput(path string, render func(io.Writer) error) (err error) {
	if path == "" || path == "-" {
		return render(os.Stdout)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer func() {
		out.Close()
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	return render(out)
}

// printExpression shows the parsed terms and the query parameters they
// serialize to.
func printExpression(w io.Writer, expr predicate.Expression) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tOP\tVALUES")
	for _, term := range expr.Terms() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", term.Field, term.Op, strings.Join(term.Values, ","))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	params := expr.Params(nil)
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Query parameters:")
	for _, k := range keys {
		fmt.Fprintf(w, "  %s=%s\n", k, params[k])
	}
	return nil
}
