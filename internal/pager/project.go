package pager

import (
	"fmt"

	"github.com/roach88/pageview/internal/record"
)

// Accessor extracts the value shown in a column.
type Accessor func(r record.Record) any

// FieldAccessor reads Fields[name]; missing fields yield nil.
func FieldAccessor(name string) Accessor {
	return func(r record.Record) any {
		return r.Fields[name]
	}
}

// IDAccessor returns the record id.
func IDAccessor(r record.Record) any {
	return r.ID
}

// Column describes one exposed field. A nil Accessor reads Fields[Name].
type Column struct {
	Name     string
	Accessor Accessor
}

// Columns builds field columns from names.
func Columns(names ...string) []Column {
	cols := make([]Column, len(names))
	for i, n := range names {
		cols[i] = Column{Name: n}
	}
	return cols
}

func (c Column) value(r record.Record) any {
	if c.Accessor == nil {
		return r.Fields[c.Name]
	}
	return c.Accessor(r)
}

// Row is the display projection of one record.
type Row struct {
	ID    string   `json:"id"`
	Cells []string `json:"cells"`
}

// ViewModel is the render-ready projection of the collection.
// Snapshots are never mutated after creation and may be shared across
// goroutines.
type ViewModel struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Empty is the empty-state signal: the render layer shows a "no data"
// placeholder instead of a table body.
func (m ViewModel) Empty() bool {
	return len(m.Rows) == 0
}

// Project maps records to rows, one cell per column, in collection order.
// It is a pure function of its inputs.
func Project(records []record.Record, columns []Column) ViewModel {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}

	rows := make([]Row, len(records))
	for i, r := range records {
		cells := make([]string, len(columns))
		for j, c := range columns {
			cells[j] = record.Display(c.value(r))
		}
		rows[i] = Row{ID: r.ID, Cells: cells}
	}

	return ViewModel{Columns: names, Rows: rows}
}

func validateColumns(columns []Column) error {
	if len(columns) == 0 {
		return fmt.Errorf("at least one column is required")
	}
	seen := make(map[string]struct{}, len(columns))
	for i, c := range columns {
		if c.Name == "" {
			return fmt.Errorf("columns[%d]: name is required", i)
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("columns[%d]: duplicate column %q", i, c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}
