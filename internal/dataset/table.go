// Package dataset models the in-memory table snapshot, the column type
// classifier and the metadata synthesizer.
package dataset

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/KaramelBytes/vizprep-cli/internal/errs"
)

// Storage is the physical representation of a column's values.
type Storage int

const (
	StorageNumeric Storage = iota
	StorageText
	StorageTime
)

func (s Storage) String() string {
	switch s {
	case StorageNumeric:
		return "numeric"
	case StorageText:
		return "text"
	case StorageTime:
		return "datetime"
	default:
		return "unknown"
	}
}

// Column is a named, nullable sequence of values of a single storage type.
// Only the slice matching Storage is populated; Valid[i] is false for missing cells.
type Column struct {
	Name    string
	Storage Storage
	Nums    []float64
	Texts   []string
	Times   []time.Time
	Valid   []bool
}

// NewNumericColumn builds a numeric column; NaN marks a missing cell.
func NewNumericColumn(name string, vals []float64) *Column {
	c := &Column{Name: name, Storage: StorageNumeric, Nums: make([]float64, len(vals)), Valid: make([]bool, len(vals))}
	for i, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		c.Nums[i] = v
		c.Valid[i] = true
	}
	return c
}

// NewTextColumn builds a text column; the empty string marks a missing cell.
func NewTextColumn(name string, vals []string) *Column {
	c := &Column{Name: name, Storage: StorageText, Texts: make([]string, len(vals)), Valid: make([]bool, len(vals))}
	for i, v := range vals {
		if v == "" {
			continue
		}
		c.Texts[i] = v
		c.Valid[i] = true
	}
	return c
}

// NewTimeColumn builds a datetime column; the zero time marks a missing cell.
func NewTimeColumn(name string, vals []time.Time) *Column {
	c := &Column{Name: name, Storage: StorageTime, Times: make([]time.Time, len(vals)), Valid: make([]bool, len(vals))}
	for i, v := range vals {
		if v.IsZero() {
			continue
		}
		c.Times[i] = v.UTC()
		c.Valid[i] = true
	}
	return c
}

// Len is the number of cells.
func (c *Column) Len() int { return len(c.Valid) }

// IsMissing reports whether cell i is missing.
func (c *Column) IsMissing(i int) bool { return !c.Valid[i] }

// MissingCount counts missing cells.
func (c *Column) MissingCount() int {
	n := 0
	for _, ok := range c.Valid {
		if !ok {
			n++
		}
	}
	return n
}

// Text renders cell i as text; missing cells render as "".
func (c *Column) Text(i int) string {
	if !c.Valid[i] {
		return ""
	}
	switch c.Storage {
	case StorageNumeric:
		return FormatFloat(c.Nums[i])
	case StorageTime:
		return FormatTime(c.Times[i])
	default:
		return c.Texts[i]
	}
}

// Float returns cell i as a number. Text cells are parsed; datetimes are
// converted to Unix seconds. ok is false for missing or non-numeric cells.
func (c *Column) Float(i int) (float64, bool) {
	if !c.Valid[i] {
		return 0, false
	}
	switch c.Storage {
	case StorageNumeric:
		return c.Nums[i], true
	case StorageTime:
		return float64(c.Times[i].UnixNano()) / 1e9, true
	default:
		f, err := strconv.ParseFloat(c.Texts[i], 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	}
}

// Floats returns the non-missing numeric values in row order.
func (c *Column) Floats() []float64 {
	out := make([]float64, 0, c.Len())
	for i := range c.Valid {
		if v, ok := c.Float(i); ok {
			out = append(out, v)
		}
	}
	return out
}

// Clone returns a deep copy.
func (c *Column) Clone() *Column {
	cp := &Column{Name: c.Name, Storage: c.Storage, Valid: append([]bool(nil), c.Valid...)}
	switch c.Storage {
	case StorageNumeric:
		cp.Nums = append([]float64(nil), c.Nums...)
	case StorageTime:
		cp.Times = append([]time.Time(nil), c.Times...)
	default:
		cp.Texts = append([]string(nil), c.Texts...)
	}
	return cp
}

// take returns a new column holding the given rows in order.
func (c *Column) take(rows []int) *Column {
	out := &Column{Name: c.Name, Storage: c.Storage, Valid: make([]bool, len(rows))}
	switch c.Storage {
	case StorageNumeric:
		out.Nums = make([]float64, len(rows))
	case StorageTime:
		out.Times = make([]time.Time, len(rows))
	default:
		out.Texts = make([]string, len(rows))
	}
	for j, i := range rows {
		out.Valid[j] = c.Valid[i]
		switch c.Storage {
		case StorageNumeric:
			out.Nums[j] = c.Nums[i]
		case StorageTime:
			out.Times[j] = c.Times[i]
		default:
			out.Texts[j] = c.Texts[i]
		}
	}
	return out
}

// Table is an ordered set of equal-length columns. Tables are treated as
// immutable values: operations return new tables and never modify their receiver.
type Table struct {
	Columns []*Column
}

// New validates column lengths and name uniqueness.
func New(cols ...*Column) (*Table, error) {
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		if seen[c.Name] {
			return nil, errs.Validation("columns", "duplicate column name %q", c.Name)
		}
		seen[c.Name] = true
		if c.Len() != cols[0].Len() {
			return nil, errs.Validation("columns", "column %q has %d rows, expected %d", c.Name, c.Len(), cols[0].Len())
		}
	}
	return &Table{Columns: cols}, nil
}

// MustNew is New for literals in tests and fixtures.
func MustNew(cols ...*Column) *Table {
	t, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// NumRows is the shared column length.
func (t *Table) NumRows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return t.Columns[0].Len()
}

// NumCols is the number of columns.
func (t *Table) NumCols() int { return len(t.Columns) }

// Names lists column names in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Index returns the position of the named column or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, error) {
	if i := t.Index(name); i >= 0 {
		return t.Columns[i], nil
	}
	return nil, errs.ColumnNotFound(name)
}

// WithColumn returns a table where the column of the same name is replaced by c.
// Other columns are shared with the receiver.
func (t *Table) WithColumn(c *Column) (*Table, error) {
	i := t.Index(c.Name)
	if i < 0 {
		return nil, errs.ColumnNotFound(c.Name)
	}
	if c.Len() != t.NumRows() {
		return nil, fmt.Errorf("replace column %q: %d rows, expected %d", c.Name, c.Len(), t.NumRows())
	}
	cols := append([]*Column(nil), t.Columns...)
	cols[i] = c
	return &Table{Columns: cols}, nil
}

// Drop returns a table without the named column.
func (t *Table) Drop(name string) (*Table, error) {
	i := t.Index(name)
	if i < 0 {
		return nil, errs.ColumnNotFound(name)
	}
	cols := make([]*Column, 0, len(t.Columns)-1)
	cols = append(cols, t.Columns[:i]...)
	cols = append(cols, t.Columns[i+1:]...)
	return &Table{Columns: cols}, nil
}

// Take returns a table holding the given rows, in the given order.
func (t *Table) Take(rows []int) *Table {
	cols := make([]*Column, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = c.take(rows)
	}
	return &Table{Columns: cols}
}

// Clone deep-copies every column.
func (t *Table) Clone() *Table {
	cols := make([]*Column, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = c.Clone()
	}
	return &Table{Columns: cols}
}

// FormatFloat renders a number the shortest way that round-trips.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// TimeLayout is the ISO-8601 layout used for every serialized timestamp.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// FormatTime renders t in UTC with millisecond precision.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}
