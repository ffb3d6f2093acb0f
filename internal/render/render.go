// Package render draws a pager.ViewModel as a plain-text table.
package render

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/roach88/pageview/internal/pager"
)

const (
	// DefaultMaxColumnWidth caps each column's display width.
	DefaultMaxColumnWidth = 40

	// NoData is shown in place of rows when the view model is empty.
	NoData = "(no data)"

	gap      = "  "
	ellipsis = "..."
)

// Table lays out a view model for fixed-width output.
type Table struct {
	Headers []string
	Widths  []int
	Rows    [][]string
}

// Layout computes column widths for m, capping each at maxWidth
// (DefaultMaxColumnWidth if <= 0). Cells are flattened to one line.
func Layout(m pager.ViewModel, maxWidth int) Table {
	if maxWidth <= 0 {
		maxWidth = DefaultMaxColumnWidth
	}

	t := Table{
		Headers: m.Columns,
		Widths:  make([]int, len(m.Columns)),
		Rows:    make([][]string, len(m.Rows)),
	}
	for i, h := range m.Columns {
		t.Widths[i] = runewidth.StringWidth(h)
	}
	for r, row := range m.Rows {
		cells := make([]string, len(m.Columns))
		for i := range m.Columns {
			if i < len(row.Cells) {
				cells[i] = flatten(row.Cells[i])
			}
			if w := runewidth.StringWidth(cells[i]); w > t.Widths[i] {
				t.Widths[i] = w
			}
		}
		t.Rows[r] = cells
	}
	for i := range t.Widths {
		t.Widths[i] = min(t.Widths[i], maxWidth)
	}
	return t
}

// Header returns the header line.
func (t Table) Header() string {
	return t.line(t.Headers)
}

// Separator returns the rule under the header.
func (t Table) Separator() string {
	parts := make([]string, len(t.Widths))
	for i, w := range t.Widths {
		parts[i] = strings.Repeat("-", w)
	}
	return strings.Join(parts, gap)
}

// Row returns row i.
func (t Table) Row(i int) string {
	return t.line(t.Rows[i])
}

// Lines returns the full table, with NoData in place of rows when empty.
func (t Table) Lines() []string {
	lines := []string{t.Header(), t.Separator()}
	if len(t.Rows) == 0 {
		return append(lines, NoData)
	}
	for i := range t.Rows {
		lines = append(lines, t.Row(i))
	}
	return lines
}

func (t Table) line(cells []string) string {
	parts := make([]string, len(t.Widths))
	for i, w := range t.Widths {
		var s string
		if i < len(cells) {
			s = cells[i]
		}
		if runewidth.StringWidth(s) > w {
			s = runewidth.Truncate(s, w, ellipsis)
		}
		parts[i] = runewidth.FillRight(s, w)
	}
	return strings.TrimRight(strings.Join(parts, gap), " ")
}

// Write renders m to w.
func Write(w io.Writer, m pager.ViewModel, maxWidth int) error {
	for _, line := range Layout(m, maxWidth).Lines() {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// Status summarizes pagination progress for a footer line.
func Status(rows int, c pager.Cursor, err error) string {
	var state string
	switch {
	case pager.IsMissingCursor(err):
		state = "stopped: missing cursor"
	case err != nil:
		state = "fetch failed: " + errorSummary(err)
	case c.Fetching:
		state = "loading..."
	case c.Exhausted():
		state = "end of data"
	default:
		state = "more available"
	}
	noun := "rows"
	if rows == 1 {
		noun = "row"
	}
	return fmt.Sprintf("%d %s | %s", rows, noun, state)
}

// errorSummary prefers the underlying cause over the pager wrapper.
func errorSummary(err error) string {
	var pe *pager.Error
	if errors.As(err, &pe) && pe.Err != nil {
		return flatten(pe.Err.Error())
	}
	return flatten(err.Error())
}

var flattener = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ", "\t", " ")

func flatten(s string) string {
	return flattener.Replace(s)
}
