// Package table holds the in-memory tabular model shared by every stage of
// the exploration pipeline, plus the loader that builds it from delimited text.
//
// A Table is immutable once built: filtering, selecting and slicing return new
// tables and never touch the source.
package table

import (
	"fmt"
	"strings"
	"time"
)

// Type is the logical type of a column.
type Type int

const (
	// Text columns keep their cells as read.
	Text Type = iota
	// Number columns hold float64 values.
	Number
	// Datetime columns hold parsed timestamps.
	Datetime
)

// String returns the lowercase name used in config files and reports.
func (t Type) String() string {
	switch t {
	case Text:
		return "text"
	case Number:
		return "number"
	case Datetime:
		return "datetime"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// MarshalText lets Type render as its name in JSON and YAML output.
func (t Type) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText accepts any spelling ParseType does.
func (t *Type) UnmarshalText(b []byte) error {
	v, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseType maps a type hint to a Type. Common dtype spellings are accepted.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "str", "string", "object", "category", "categorical":
		return Text, nil
	case "number", "numeric", "float", "float64", "int", "int64", "integer":
		return Number, nil
	case "datetime", "datetime64", "date", "timestamp", "time":
		return Datetime, nil
	default:
		return Text, fmt.Errorf("unknown column type %q (use text|number|datetime)", s)
	}
}

// Value is a single cell. Raw is the trimmed text as read and is the cell's
// textual rendering everywhere (filters, counts, export). Num and Time are
// only meaningful for Number and Datetime columns respectively.
type Value struct {
	Raw  string
	Num  float64
	Time time.Time
	Null bool
}

// String returns the textual rendering of the cell; missing cells render empty.
func (v Value) String() string {
	if v.Null {
		return ""
	}
	return v.Raw
}

// Column is a named, typed sequence of cells.
type Column struct {
	Name   string
	Type   Type
	Values []Value
	// Decimal is the separator text cells are coerced with; zero means '.'.
	Decimal rune
}

// Len returns the number of cells in the column.
func (c *Column) Len() int { return len(c.Values) }

// NonNull counts the cells that are not missing.
func (c *Column) NonNull() int {
	n := 0
	for _, v := range c.Values {
		if !v.Null {
			n++
		}
	}
	return n
}

// Float returns the numeric value of row i. Number columns return their parsed
// value; text columns are coerced with ParseNumber using the column's decimal
// separator. Datetime and missing cells
// report false.
func (c *Column) Float(i int) (float64, bool) {
	v := c.Values[i]
	if v.Null {
		return 0, false
	}
	switch c.Type {
	case Number:
		return v.Num, true
	case Datetime:
		return 0, false
	}
	dec := c.Decimal
	if dec == 0 {
		dec = '.'
	}
	return ParseNumber(v.Raw, dec)
}

// Timestamp returns the time value of row i. Datetime columns return their
// parsed value; other columns are coerced with ParseTime.
func (c *Column) Timestamp(i int) (time.Time, bool) {
	v := c.Values[i]
	if v.Null {
		return time.Time{}, false
	}
	if c.Type == Datetime {
		return v.Time, true
	}
	return ParseTime(v.Raw)
}

// Table is an ordered set of equal-length columns with unique names.
type Table struct {
	cols  []*Column
	index map[string]int
	rows  int

	// Notes records informational messages produced while loading, such as
	// dropped columns or cells a type hint could not coerce.
	Notes []string
}

// New builds a table from columns. All columns must have the same length and
// distinct names.
func New(cols ...*Column) (*Table, error) {
	t := &Table{index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if c == nil {
			return nil, fmt.Errorf("column %d is nil", i)
		}
		if _, dup := t.index[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", c.Name)
		}
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, fmt.Errorf("column %q has %d rows, want %d", c.Name, c.Len(), t.rows)
		}
		t.index[c.Name] = i
		t.cols = append(t.cols, c)
	}
	return t, nil
}

// Empty returns a table with no columns and no rows.
func Empty() *Table {
	return &Table{index: map[string]int{}}
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return t.rows }

// NumCols returns the column count.
func (t *Table) NumCols() int { return len(t.cols) }

// Columns returns the columns in order. Callers must not modify them.
func (t *Table) Columns() []*Column { return t.cols }

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by name. Names are also tried in their
// normalized form, so "Unit Price" finds "Unit_Price".
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		i, ok = t.index[NormalizeName(name)]
	}
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// MustColumn looks up a column and returns ErrColumnNotFound when absent.
func (t *Table) MustColumn(name string) (*Column, error) {
	c, ok := t.Column(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	return c, nil
}

// Row returns the textual rendering of row i.
func (t *Table) Row(i int) []string {
	out := make([]string, len(t.cols))
	for j, c := range t.cols {
		out[j] = c.Values[i].String()
	}
	return out
}

// SelectRows returns a new table holding the given rows, in the given order.
func (t *Table) SelectRows(idx []int) *Table {
	out := &Table{index: make(map[string]int, len(t.cols)), rows: len(idx)}
	for j, c := range t.cols {
		vals := make([]Value, len(idx))
		for k, i := range idx {
			vals[k] = c.Values[i]
		}
		out.cols = append(out.cols, &Column{Name: c.Name, Type: c.Type, Values: vals, Decimal: c.Decimal})
		out.index[c.Name] = j
	}
	return out
}

// Head returns the first n rows as a new table.
func (t *Table) Head(n int) *Table {
	if n < 0 || n > t.rows {
		n = t.rows
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return t.SelectRows(idx)
}

// NumericColumns returns the Number columns in order.
func (t *Table) NumericColumns() []*Column {
	var out []*Column
	for _, c := range t.cols {
		if c.Type == Number {
			out = append(out, c)
		}
	}
	return out
}
