package schema

import (
	"fmt"
	"maps"
	"slices"
	"sort"

	"github.com/elphick/df-eval/ecode"
	"github.com/elphick/df-eval/table"
)

// ColumnSpec describes one derived column
type ColumnSpec struct {
	Name       string         `yaml:"-" json:"name"`
	Expression string         `yaml:"expression" json:"expression"`
	DType      string         `yaml:"dtype,omitempty" json:"dtype,omitempty"`
	Metadata   map[string]any `yaml:"metadata,omitempty" json:"metadata,omitempty"`
}

// Validate checks the column without compiling its expression
func (c ColumnSpec) Validate() error {
	if c.Name == "" {
		return &ecode.ConfigurationError{Field: "name", Message: ecode.FieldIsEmpty("column name")}
	}
	if c.Expression == "" {
		return &ecode.ConfigurationError{Field: c.Name, Message: ecode.FieldIsEmpty("expression")}
	}
	if c.DType != "" {
		if _, ok := table.NormalizeDType(c.DType); !ok {
			return &ecode.TypeCastError{Column: c.Name, DType: c.DType, Row: -1, Reason: "unsupported dtype"}
		}
	}
	return nil
}

// Schema is an ordered set of column specs keyed by name. Declaration
// order only breaks ties between independent columns.
type Schema struct {
	names []string
	specs map[string]ColumnSpec
}

// New builds a schema from specs in declaration order
func New(specs ...ColumnSpec) (*Schema, error) {
	s := &Schema{specs: make(map[string]ColumnSpec, len(specs))}
	for _, spec := range specs {
		if err := s.Add(spec); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// FromMap builds a schema of plain expressions. Go maps carry no order,
// so columns are declared in name order.
func FromMap(expressions map[string]string) (*Schema, error) {
	names := make([]string, 0, len(expressions))
	for name := range expressions {
		names = append(names, name)
	}
	sort.Strings(names)

	s := &Schema{specs: make(map[string]ColumnSpec, len(names))}
	for _, name := range names {
		if err := s.Add(ColumnSpec{Name: name, Expression: expressions[name]}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// MustNew is like New but panics on error
func MustNew(specs ...ColumnSpec) *Schema {
	s, err := New(specs...)
	if err != nil {
		panic(err)
	}
	return s
}

// Add appends a column spec
func (s *Schema) Add(spec ColumnSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	if s.specs == nil {
		s.specs = make(map[string]ColumnSpec)
	}
	if _, dup := s.specs[spec.Name]; dup {
		return &ecode.ConfigurationError{Field: spec.Name, Message: ecode.AlreadyExist(fmt.Sprintf("column %q", spec.Name))}
	}
	s.names = append(s.names, spec.Name)
	s.specs[spec.Name] = spec
	return nil
}

// Get returns the named column spec
func (s *Schema) Get(name string) (ColumnSpec, bool) {
	spec, ok := s.specs[name]
	return spec, ok
}

// Has reports whether name is a schema key
func (s *Schema) Has(name string) bool {
	_, ok := s.specs[name]
	return ok
}

// Names returns the column names in declaration order
func (s *Schema) Names() []string { return slices.Clone(s.names) }

// Specs returns the column specs in declaration order
func (s *Schema) Specs() []ColumnSpec {
	out := make([]ColumnSpec, len(s.names))
	for i, name := range s.names {
		spec := s.specs[name]
		spec.Metadata = maps.Clone(spec.Metadata)
		out[i] = spec
	}
	return out
}

// Len returns the number of columns
func (s *Schema) Len() int { return len(s.names) }

// Expressions returns name to expression source
func (s *Schema) Expressions() map[string]string {
	out := make(map[string]string, len(s.names))
	for _, name := range s.names {
		out[name] = s.specs[name].Expression
	}
	return out
}
