package graph

import (
	"errors"
	"reflect"
	"testing"

	"github.com/elphick/df-eval/ecode"
)

func TestOrderChain(t *testing.T) {
	got, err := Order([]Node{
		{Name: "c", Dependencies: []string{"b"}},
		{Name: "b", Dependencies: []string{"a"}},
		{Name: "a", Dependencies: []string{"x"}},
	})
	if err != nil {
		t.Fatalf("Order: %v", err)
	}
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestOrderStable(t *testing.T) {
	got, err := Order([]Node{
		{Name: "total", Dependencies: []string{"tax", "net"}},
		{Name: "net", Dependencies: []string{"price", "qty"}},
		{Name: "label"},
		{Name: "tax", Dependencies: []string{"net", "rate"}},
	})
	if err != nil {
		t.Fatalf("Order: %v", err)
	}
	if want := []string{"net", "tax", "total", "label"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestOrderRespectsEdges(t *testing.T) {
	nodes := []Node{
		{Name: "e", Dependencies: []string{"d", "b"}},
		{Name: "d", Dependencies: []string{"c"}},
		{Name: "c", Dependencies: []string{"a", "b"}},
		{Name: "b", Dependencies: []string{"a"}},
		{Name: "a"},
	}
	order, err := Order(nodes)
	if err != nil {
		t.Fatal(err)
	}
	pos := make(map[string]int)
	for i, n := range order {
		pos[n] = i
	}
	for _, n := range nodes {
		for _, d := range n.Dependencies {
			if pos[d] >= pos[n.Name] {
				t.Errorf("%s scheduled before its dependency %s: %v", n.Name, d, order)
			}
		}
	}
}

func TestOrderCycle(t *testing.T) {
	_, err := Order([]Node{
		{Name: "x", Dependencies: []string{"y"}},
		{Name: "y", Dependencies: []string{"x"}},
	})
	var cerr *ecode.CycleDetectedError
	if !errors.As(err, &cerr) {
		t.Fatalf("err = %v, want CycleDetectedError", err)
	}
	if want := []string{"x", "y", "x"}; !reflect.DeepEqual(cerr.Path, want) {
		t.Errorf("Path = %v, want %v", cerr.Path, want)
	}
	if !errors.Is(err, ecode.ErrCycleDetected) {
		t.Error("errors.Is(err, ErrCycleDetected) = false")
	}
}

func TestOrderSelfCycle(t *testing.T) {
	_, err := Order([]Node{
		{Name: "a"},
		{Name: "x", Dependencies: []string{"x"}},
	})
	var cerr *ecode.CycleDetectedError
	if !errors.As(err, &cerr) || !reflect.DeepEqual(cerr.Path, []string{"x", "x"}) {
		t.Fatalf("err = %v, want cycle x -> x", err)
	}
}

func TestOrderLongCycleInside(t *testing.T) {
	_, err := Order([]Node{
		{Name: "start", Dependencies: []string{"a"}},
		{Name: "a", Dependencies: []string{"b"}},
		{Name: "b", Dependencies: []string{"c"}},
		{Name: "c", Dependencies: []string{"a"}},
	})
	var cerr *ecode.CycleDetectedError
	if !errors.As(err, &cerr) {
		t.Fatalf("err = %v", err)
	}
	if want := []string{"a", "b", "c", "a"}; !reflect.DeepEqual(cerr.Path, want) {
		t.Errorf("Path = %v, want %v", cerr.Path, want)
	}
}

func TestNewRejectsDuplicates(t *testing.T) {
	if _, err := New([]Node{{Name: "a"}, {Name: "a"}}); !errors.Is(err, ecode.ErrConfiguration) {
		t.Errorf("err = %v, want ConfigurationError", err)
	}
	if _, err := New([]Node{{Name: ""}}); !errors.Is(err, ecode.ErrConfiguration) {
		t.Errorf("err = %v, want ConfigurationError", err)
	}
}

func TestDependenciesRestrictedToNodes(t *testing.T) {
	g, err := New([]Node{
		{Name: "b", Dependencies: []string{"price", "a", "a"}},
		{Name: "a", Dependencies: []string{"qty"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := g.Dependencies("b"); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("Dependencies(b) = %v", got)
	}
	if got := g.Dependencies("a"); len(got) != 0 {
		t.Errorf("Dependencies(a) = %v", got)
	}
	if got := g.Names(); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Errorf("Names = %v", got)
	}
}

func TestLevels(t *testing.T) {
	g, err := New([]Node{
		{Name: "total", Dependencies: []string{"tax", "net"}},
		{Name: "net"},
		{Name: "label"},
		{Name: "tax", Dependencies: []string{"net"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	levels, err := g.Levels()
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{{"net", "label"}, {"tax"}, {"total"}}
	if !reflect.DeepEqual(levels, want) {
		t.Errorf("Levels = %v, want %v", levels, want)
	}

	cyclic, _ := New([]Node{{Name: "a", Dependencies: []string{"a"}}})
	if _, err := cyclic.Levels(); !errors.Is(err, ecode.ErrCycleDetected) {
		t.Errorf("err = %v, want CycleDetectedError", err)
	}
}
