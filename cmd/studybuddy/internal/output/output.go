// Package output prints command results as an aligned table or as JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Formats accepted by --format.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// Printer writes results in the selected format.
type Printer struct {
	W      io.Writer
	Format string
}

// Validate rejects unknown formats.
func (p Printer) Validate() error {
	switch p.Format {
	case FormatTable, FormatJSON:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want %s or %s)", p.Format, FormatTable, FormatJSON)
	}
}

// Print renders rows under header as a table, or v as indented JSON.
func (p Printer) Print(v any, header []string, rows [][]string) error {
	if p.Format == FormatJSON {
		enc := json.NewEncoder(p.W)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return Table(p.W, header, rows)
}

// Table writes a tab-aligned table with an underlined header. An empty row
// set prints "No results".
func Table(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	underline := make([]string, len(header))
	for i, h := range header {
		underline[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	fmt.Fprintln(tw, strings.Join(underline, "\t"))

	if len(rows) == 0 {
		fmt.Fprintln(tw, "No results")
	}
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// Truncate shortens s to max runes, marking the cut with "...". A max of
// zero or less disables truncation.
func Truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
