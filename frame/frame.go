// Package frame provides the minimal columnar table used for query-time
// inputs: query rows, restriction and exclusion lists, new observations and
// side data.
package frame

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrLengthMismatch is returned when columns of one frame differ in length.
	ErrLengthMismatch = errors.New("frame: column length mismatch")

	// ErrDuplicateColumn is returned when a column name appears twice.
	ErrDuplicateColumn = errors.New("frame: duplicate column")
)

// Column is a named categorical or numeric column.
// Exactly one of Strings and Floats is set.
type Column struct {
	Name    string
	Strings []string
	Floats  []float64
}

// IsNumeric reports whether the column holds float values.
func (c *Column) IsNumeric() bool { return c.Floats != nil }

// Len returns the number of values.
func (c *Column) Len() int {
	if c.Floats != nil {
		return len(c.Floats)
	}
	return len(c.Strings)
}

// Strings returns a categorical column.
func Strings(name string, values ...string) Column {
	if values == nil {
		values = []string{}
	}
	return Column{Name: name, Strings: values}
}

// Floats returns a numeric column.
func Floats(name string, values ...float64) Column {
	if values == nil {
		values = []float64{}
	}
	return Column{Name: name, Floats: values}
}

// Frame is an ordered list of equally long columns.
type Frame struct {
	columns []Column
	rows    int
}

// New creates a frame, validating lengths and names.
func New(columns ...Column) (*Frame, error) {
	f := &Frame{columns: make([]Column, 0, len(columns))}
	seen := make(map[string]struct{}, len(columns))
	for i, c := range columns {
		if _, dup := seen[c.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c.Name)
		}
		seen[c.Name] = struct{}{}
		if i == 0 {
			f.rows = c.Len()
		} else if c.Len() != f.rows {
			return nil, fmt.Errorf("%w: %q has %d rows, want %d", ErrLengthMismatch, c.Name, c.Len(), f.rows)
		}
		f.columns = append(f.columns, c)
	}
	return f, nil
}

// Must is like New but panics on error. Intended for tests and fixtures.
func Must(columns ...Column) *Frame {
	f, err := New(columns...)
	if err != nil {
		panic(err)
	}
	return f
}

// NumColumns returns the column count. A nil frame has zero columns.
func (f *Frame) NumColumns() int {
	if f == nil {
		return 0
	}
	return len(f.columns)
}

// NumRows returns the row count. A nil frame has zero rows.
func (f *Frame) NumRows() int {
	if f == nil {
		return 0
	}
	return f.rows
}

// Column returns the column at position i.
func (f *Frame) Column(i int) *Column { return &f.columns[i] }

// ColumnNames returns the column names in order.
func (f *Frame) ColumnNames() []string {
	if f == nil {
		return nil
	}
	names := make([]string, len(f.columns))
	for i := range f.columns {
		names[i] = f.columns[i].Name
	}
	return names
}

// Lookup returns the named column.
func (f *Frame) Lookup(name string) (*Column, bool) {
	if f == nil {
		return nil, false
	}
	for i := range f.columns {
		if f.columns[i].Name == name {
			return &f.columns[i], true
		}
	}
	return nil, false
}

// HasColumns reports whether the frame has exactly the given column names,
// in any order.
func (f *Frame) HasColumns(names ...string) bool {
	got := f.ColumnNames()
	if len(got) != len(names) {
		return false
	}
	want := slices.Clone(names)
	slices.Sort(got)
	slices.Sort(want)
	return slices.Equal(got, want)
}
