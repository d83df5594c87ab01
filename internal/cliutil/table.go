package cliutil

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/xiaomo-123/Gemini-Business-OpenAi/internal/styles"
)

const tableIndent = "  "

// Column defines a table column with a header and optional width.
type Column struct {
	Header string
	Width  int            // 0 means no padding or truncation
	Style  lipgloss.Style // optional style for cell values
}

// Table renders account and run listings as aligned columns.
type Table struct {
	Columns []Column
	out     io.Writer
}

// NewTable creates a table that writes to stdout.
func NewTable(columns ...Column) *Table {
	return &Table{Columns: columns, out: os.Stdout}
}

// PrintHeader prints the styled header row and separator line.
func (t *Table) PrintHeader() {
	headerStyle := styles.HeaderStyle.MarginBottom(0)
	headers := make([]string, len(t.Columns))
	width := len(tableIndent)

	for i, col := range t.Columns {
		text := col.Header
		if col.Width > 0 {
			text = pad(col.Header, col.Width)
		}
		headers[i] = headerStyle.Render(text)
		width += lipgloss.Width(text) + 2
	}

	fmt.Fprintln(t.out)
	fmt.Fprintf(t.out, "%s%s\n", tableIndent, strings.Join(headers, "  "))
	fmt.Fprintln(t.out, strings.Repeat("-", width))
}

// PrintRow prints one row. Cells in sized columns are truncated and padded
// before the column style is applied.
func (t *Table) PrintRow(values ...string) {
	cells := make([]string, len(values))
	for i, val := range values {
		cell := val
		if i < len(t.Columns) {
			col := t.Columns[i]
			if col.Width > 0 {
				cell = pad(Truncate(val, col.Width), col.Width)
			}
			if col.Style.Value() != "" {
				cell = col.Style.Render(cell)
			}
		}
		cells[i] = cell
	}
	fmt.Fprintf(t.out, "%s%s\n", tableIndent, strings.Join(cells, "  "))
}

// pad right-fills s with spaces to width display cells.
func pad(s string, width int) string {
	if n := lipgloss.Width(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// Truncate shortens s to at most max runes, ending with an ellipsis when
// anything was cut.
func Truncate(s string, max int) string {
	if max < 1 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
