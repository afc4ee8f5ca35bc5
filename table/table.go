package table

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

// ErrRowCount is returned when a column does not match the table's row count
var ErrRowCount = errors.New("row count mismatch")

// Series is one column of row-aligned values. A nil element or a float NaN
// marks a missing value.
type Series []any

// Broadcast repeats a scalar n times
func Broadcast(v any, n int) Series {
	s := make(Series, n)
	for i := range s {
		s[i] = v
	}
	return s
}

// Clone returns a copy of the series
func (s Series) Clone() Series {
	return slices.Clone(s)
}

// Reader is the read access evaluation needs from a table
type Reader interface {
	Column(name string) (Series, bool)
	NumRows() int
}

// Provenance records how a derived column was produced
type Provenance struct {
	Expression   string         `json:"expression"`
	Dependencies []string       `json:"dependencies"`
	DType        string         `json:"dtype,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	RunID        string         `json:"run_id,omitempty"`
}

// Table is a columnar container of named, row-aligned columns.
// Column order is the insertion order.
type Table struct {
	names      []string
	columns    map[string]Series
	rows       int
	provenance map[string]Provenance
}

// New creates an empty table
func New() *Table {
	return &Table{
		columns:    make(map[string]Series),
		provenance: make(map[string]Provenance),
	}
}

// FromColumns builds a table from parallel name and series slices
func FromColumns(names []string, columns ...Series) (*Table, error) {
	if len(names) != len(columns) {
		return nil, fmt.Errorf("got %d names for %d columns", len(names), len(columns))
	}
	t := New()
	for i, name := range names {
		if err := t.SetColumn(name, columns[i]); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// FromMap builds a table from a map; columns are ordered by name
func FromMap(columns map[string]Series) (*Table, error) {
	names := make([]string, 0, len(columns))
	for name := range columns {
		names = append(names, name)
	}
	sort.Strings(names)

	t := New()
	for _, name := range names {
		if err := t.SetColumn(name, columns[name]); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Column returns the named column
func (t *Table) Column(name string) (Series, bool) {
	s, ok := t.columns[name]
	return s, ok
}

// Has reports whether the table holds the named column
func (t *Table) Has(name string) bool {
	_, ok := t.columns[name]
	return ok
}

// NumRows returns the row count, 0 for a table without columns
func (t *Table) NumRows() int {
	return t.rows
}

// Names returns the column names in insertion order
func (t *Table) Names() []string {
	return slices.Clone(t.names)
}

// SetColumn adds or replaces a column. A replaced column keeps its position.
func (t *Table) SetColumn(name string, s Series) error {
	if name == "" {
		return fmt.Errorf("column name is empty")
	}
	if len(t.names) > 0 && len(s) != t.rows {
		return fmt.Errorf("column %q has %d rows, table has %d: %w", name, len(s), t.rows, ErrRowCount)
	}
	if _, ok := t.columns[name]; !ok {
		t.names = append(t.names, name)
	}
	t.columns[name] = s
	t.rows = len(s)
	return nil
}

// Copy returns an independent copy of the table, including provenance
func (t *Table) Copy() *Table {
	c := &Table{
		names:      slices.Clone(t.names),
		columns:    make(map[string]Series, len(t.columns)),
		rows:       t.rows,
		provenance: make(map[string]Provenance, len(t.provenance)),
	}
	for name, s := range t.columns {
		c.columns[name] = s.Clone()
	}
	for name, p := range t.provenance {
		c.provenance[name] = p
	}
	return c
}

// SetProvenance attaches a provenance record to a column
func (t *Table) SetProvenance(name string, p Provenance) {
	if t.provenance == nil {
		t.provenance = make(map[string]Provenance)
	}
	t.provenance[name] = p
}

// Provenance returns the provenance record of a derived column
func (t *Table) Provenance(name string) (Provenance, bool) {
	p, ok := t.provenance[name]
	return p, ok
}

// Provenances returns all provenance records keyed by column name
func (t *Table) Provenances() map[string]Provenance {
	out := make(map[string]Provenance, len(t.provenance))
	for name, p := range t.provenance {
		out[name] = p
	}
	return out
}
