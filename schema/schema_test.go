package schema

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/elphick/df-eval/ecode"
)

func TestNewKeepsOrder(t *testing.T) {
	s, err := New(
		ColumnSpec{Name: "total", Expression: "net + tax"},
		ColumnSpec{Name: "net", Expression: "price * qty", DType: "float"},
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := s.Names(); !reflect.DeepEqual(got, []string{"total", "net"}) {
		t.Errorf("Names = %v", got)
	}
	spec, ok := s.Get("net")
	if !ok || spec.DType != "float" || spec.Expression != "price * qty" {
		t.Errorf("Get(net) = %+v, %v", spec, ok)
	}
	if s.Len() != 2 || !s.Has("total") || s.Has("price") {
		t.Errorf("unexpected Len/Has results")
	}
}

func TestAddRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		spec ColumnSpec
		want error
	}{
		{"empty name", ColumnSpec{Expression: "a"}, ecode.ErrConfiguration},
		{"empty expression", ColumnSpec{Name: "a"}, ecode.ErrConfiguration},
		{"bad dtype", ColumnSpec{Name: "a", Expression: "b", DType: "complex"}, ecode.ErrTypeCast},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := New()
			if err := s.Add(tt.spec); !errors.Is(err, tt.want) {
				t.Errorf("Add err = %v, want %v", err, tt.want)
			}
		})
	}

	s := MustNew(ColumnSpec{Name: "a", Expression: "1"})
	if err := s.Add(ColumnSpec{Name: "a", Expression: "2"}); !errors.Is(err, ecode.ErrConfiguration) {
		t.Errorf("duplicate Add err = %v", err)
	}
}

func TestFromMapSorted(t *testing.T) {
	s, err := FromMap(map[string]string{"b": "a + 1", "a": "x * 2", "c": "b"})
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Names(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("Names = %v", got)
	}
	if got := s.Expressions()["b"]; got != "a + 1" {
		t.Errorf("Expressions[b] = %q", got)
	}
}

func TestSpecsAreCopies(t *testing.T) {
	s := MustNew(ColumnSpec{Name: "a", Expression: "1", Metadata: map[string]any{"unit": "m"}})
	specs := s.Specs()
	specs[0].Metadata["unit"] = "ft"
	if spec, _ := s.Get("a"); spec.Metadata["unit"] != "m" {
		t.Errorf("schema metadata changed through Specs: %v", spec.Metadata)
	}
}

func TestParseYAML(t *testing.T) {
	doc := `
columns:
  total:
    expression: net * (1 + rate)
    dtype: float
    metadata:
      unit: usd
  net: price * qty
  label: "'x'"
`
	s, err := ParseYAML([]byte(doc))
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	if got := s.Names(); !reflect.DeepEqual(got, []string{"total", "net", "label"}) {
		t.Errorf("Names = %v", got)
	}
	total, _ := s.Get("total")
	if total.Expression != "net * (1 + rate)" || total.DType != "float" || total.Metadata["unit"] != "usd" {
		t.Errorf("total = %+v", total)
	}
	net, _ := s.Get("net")
	if net.Expression != "price * qty" || net.DType != "" {
		t.Errorf("net = %+v", net)
	}
	label, _ := s.Get("label")
	if label.Expression != "'x'" {
		t.Errorf("label = %+v", label)
	}
}

func TestParseYAMLRootMapping(t *testing.T) {
	s, err := ParseYAML([]byte("z: a + 1\na: x\n"))
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Names(); !reflect.DeepEqual(got, []string{"z", "a"}) {
		t.Errorf("Names = %v", got)
	}
}

func TestParseYAMLErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not a mapping", "- a\n- b\n"},
		{"columns not a mapping", "columns: [a, b]\n"},
		{"sequence spec", "columns:\n  a: [1, 2]\n"},
		{"duplicate", "columns:\n  a: x\n  a: y\n"},
		{"syntax", "columns:\n  a: [\n"},
		{"missing expression", "columns:\n  a:\n    dtype: int\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseYAML([]byte(tt.doc)); err == nil {
				t.Errorf("ParseYAML(%q) succeeded", tt.doc)
			}
		})
	}
}

func TestParseYAMLEmpty(t *testing.T) {
	s, err := ParseYAML(nil)
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d", s.Len())
	}
}

func TestLoadYAMLAndFile(t *testing.T) {
	s, err := LoadYAML(strings.NewReader("columns:\n  b: a\n  a: '1'\n"))
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Names(); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Errorf("Names = %v", got)
	}

	path := filepath.Join(t.TempDir(), "schema.yaml")
	if err := os.WriteFile(path, []byte("columns:\n  x: y * 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	fs, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if spec, ok := fs.Get("x"); !ok || spec.Expression != "y * 2" {
		t.Errorf("x = %+v", spec)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadFile of missing file succeeded")
	}
}
