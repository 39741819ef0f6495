package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"

	"github.com/chw3k5/mypysql/internal/ir"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// isTerminal reports whether w is a terminal. Anything that is not an
// *os.File (buffers, pipes wrapped by tests) is treated as piped.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// writeGrid writes rows under headers: a bordered table on a terminal,
// tab-separated lines otherwise.
func writeGrid(w io.Writer, headers []string, rows [][]string) error {
	if !isTerminal(w) {
		return writeTSV(w, headers, rows)
	}
	_, err := fmt.Fprintln(w, renderTable(headers, rows))
	return err
}

// renderTable renders a bordered lipgloss table.
func renderTable(headers []string, rows [][]string) string {
	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		BorderRow(false).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return tbl.String()
}

func writeTSV(w io.Writer, headers []string, rows [][]string) error {
	if _, err := fmt.Fprintln(w, strings.Join(headers, "\t")); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(w, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return nil
}

// recordRows formats every record as one row of cells.
func recordRows(records []ir.Record) [][]string {
	rows := make([][]string, len(records))
	for i, rec := range records {
		row := make([]string, len(rec.Columns))
		for j, col := range rec.Columns {
			row[j] = formatColumn(col)
		}
		rows[i] = row
	}
	return rows
}

// formatColumn renders a column's values separated by "; ".
func formatColumn(col ir.ColumnValues) string {
	var parts []string
	if col.Kind == ir.ColumnAttribute {
		for _, b := range col.Bundles {
			parts = append(parts, formatBundle(b))
		}
	} else {
		for _, v := range col.Scalars {
			parts = append(parts, ir.Format(v))
		}
	}
	return strings.Join(parts, "; ")
}

// formatBundle renders "value ±err units [ref]", or "value (-low/+high) ..."
// for asymmetric errors. Absent parts are omitted.
func formatBundle(b ir.AttributeBundle) string {
	var sb strings.Builder
	sb.WriteString(ir.Format(b.Value))

	lowSet, highSet := !ir.IsNull(b.ErrLow), !ir.IsNull(b.ErrHigh)
	switch {
	case lowSet && highSet && ir.Key(b.ErrLow) == ir.Key(b.ErrHigh):
		fmt.Fprintf(&sb, " ±%s", ir.Format(b.ErrLow))
	case lowSet || highSet:
		fmt.Fprintf(&sb, " (-%s/+%s)", formatOptional(b.ErrLow), formatOptional(b.ErrHigh))
	}
	if !ir.IsNull(b.Units) {
		sb.WriteString(" " + ir.Format(b.Units))
	}
	if !ir.IsNull(b.Ref) {
		sb.WriteString(" [" + ir.Format(b.Ref) + "]")
	}
	return sb.String()
}

func formatOptional(v ir.Value) string {
	if ir.IsNull(v) {
		return "?"
	}
	return ir.Format(v)
}
