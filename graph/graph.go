package graph

import (
	"fmt"
	"slices"
	"sort"

	"github.com/elphick/df-eval/ecode"
)

// Node is one named computation and the names it reads
type Node struct {
	Name         string
	Dependencies []string
}

// Graph is a dependency graph over named nodes. Edges only connect names
// that are themselves nodes; anything else a node reads is an external
// input and does not constrain ordering.
type Graph struct {
	names []string
	index map[string]int
	edges map[string][]string
}

// New builds a graph, keeping the declaration order of nodes
func New(nodes []Node) (*Graph, error) {
	g := &Graph{
		names: make([]string, 0, len(nodes)),
		index: make(map[string]int, len(nodes)),
		edges: make(map[string][]string, len(nodes)),
	}
	for _, n := range nodes {
		if n.Name == "" {
			return nil, &ecode.ConfigurationError{Field: "name", Message: ecode.FieldIsEmpty("column name")}
		}
		if _, dup := g.index[n.Name]; dup {
			return nil, &ecode.ConfigurationError{Field: n.Name, Message: ecode.AlreadyExist(fmt.Sprintf("column %q", n.Name))}
		}
		g.index[n.Name] = len(g.names)
		g.names = append(g.names, n.Name)
	}

	for _, n := range nodes {
		seen := make(map[string]bool)
		var deps []string
		for _, d := range n.Dependencies {
			if _, ok := g.index[d]; ok && !seen[d] {
				seen[d] = true
				deps = append(deps, d)
			}
		}
		sort.SliceStable(deps, func(i, j int) bool { return g.index[deps[i]] < g.index[deps[j]] })
		g.edges[n.Name] = deps
	}
	return g, nil
}

// Names returns the nodes in declaration order
func (g *Graph) Names() []string { return slices.Clone(g.names) }

// Dependencies returns the nodes name reads directly, in declaration order
func (g *Graph) Dependencies(name string) []string { return slices.Clone(g.edges[name]) }

const (
	white = iota
	gray
	black
)

// Order returns a topological order in which every node follows the nodes
// it reads. Among independent nodes declaration order is kept. A cycle
// fails with CycleDetectedError carrying the cycle walk.
func (g *Graph) Order() ([]string, error) {
	color := make(map[string]int, len(g.names))
	order := make([]string, 0, len(g.names))
	var stack []string

	var visit func(name string) error
	visit = func(name string) error {
		color[name] = gray
		stack = append(stack, name)
		for _, dep := range g.edges[name] {
			switch color[dep] {
			case gray:
				start := slices.Index(stack, dep)
				path := append(slices.Clone(stack[start:]), dep)
				return &ecode.CycleDetectedError{Path: path}
			case white:
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[name] = black
		order = append(order, name)
		return nil
	}

	for _, name := range g.names {
		if color[name] == white {
			if err := visit(name); err != nil {
				return nil, err
			}
		}
	}
	return order, nil
}

// Levels groups the nodes into waves: every node only reads nodes of
// earlier waves, so the nodes of one wave may be computed concurrently.
func (g *Graph) Levels() ([][]string, error) {
	// reject cycles with a precise path first
	if _, err := g.Order(); err != nil {
		return nil, err
	}

	done := make(map[string]bool, len(g.names))
	remaining := g.Names()
	var levels [][]string
	for len(remaining) > 0 {
		var level, next []string
		for _, name := range remaining {
			ready := true
			for _, dep := range g.edges[name] {
				if !done[dep] {
					ready = false
					break
				}
			}
			if ready {
				level = append(level, name)
			} else {
				next = append(next, name)
			}
		}
		for _, name := range level {
			done[name] = true
		}
		levels = append(levels, level)
		remaining = next
	}
	return levels, nil
}

// Order builds a graph from nodes and returns its topological order
func Order(nodes []Node) ([]string, error) {
	g, err := New(nodes)
	if err != nil {
		return nil, err
	}
	return g.Order()
}
