package expression

import (
	"fmt"
	"strconv"
	"strings"
)

// Node is a node of a compiled expression tree. The concrete node kinds are
// *Literal, *Identifier, *Unary, *Binary, *Call and *Lookup.
type Node interface {
	fmt.Stringer
	node()
}

// Literal is a constant value: int64, float64, string, bool or nil (missing)
type Literal struct {
	Value any
}

// Identifier references a column or a registered constant
type Identifier struct {
	Name string
}

// Unary applies a prefix operator: "-", "+" or "not"
type Unary struct {
	Op      string
	Operand Node
}

// Binary applies an infix operator
type Binary struct {
	Op    string
	Left  Node
	Right Node
}

// Keyword is a name=value call argument
type Keyword struct {
	Name  string
	Value Node
}

// Call invokes a registered function
type Call struct {
	Name     string
	Args     []Node
	Keywords []Keyword
}

// Lookup dispatches keys to a named resolver.
// OnMissing is empty when the call does not set a policy.
type Lookup struct {
	Key       Node
	Resolver  string
	OnMissing string
	Default   Node // nil when no default is given
}

func (*Literal) node()    {}
func (*Identifier) node() {}
func (*Unary) node()      {}
func (*Binary) node()     {}
func (*Call) node()       {}
func (*Lookup) node()     {}

func (n *Literal) String() string {
	switch v := n.Value.(type) {
	case nil:
		return "None"
	case string:
		return strconv.Quote(v)
	case bool:
		if v {
			return "True"
		}
		return "False"
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return fmt.Sprintf("%v", n.Value)
}

func (n *Identifier) String() string { return n.Name }

func (n *Unary) String() string {
	if n.Op == "not" {
		return "(not " + n.Operand.String() + ")"
	}
	return "(" + n.Op + n.Operand.String() + ")"
}

func (n *Binary) String() string {
	return "(" + n.Left.String() + " " + n.Op + " " + n.Right.String() + ")"
}

func (n *Call) String() string {
	parts := make([]string, 0, len(n.Args)+len(n.Keywords))
	for _, arg := range n.Args {
		parts = append(parts, arg.String())
	}
	for _, kw := range n.Keywords {
		parts = append(parts, kw.Name+"="+kw.Value.String())
	}
	return n.Name + "(" + strings.Join(parts, ", ") + ")"
}

func (n *Lookup) String() string {
	parts := []string{n.Key.String(), strconv.Quote(n.Resolver)}
	if n.OnMissing != "" {
		parts = append(parts, "on_missing="+strconv.Quote(n.OnMissing))
	}
	if n.Default != nil {
		parts = append(parts, "default="+n.Default.String())
	}
	return "lookup(" + strings.Join(parts, ", ") + ")"
}

// Walk visits the tree depth-first in source order. Returning false from
// fn skips the children of the visited node.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch v := n.(type) {
	case *Unary:
		Walk(v.Operand, fn)
	case *Binary:
		Walk(v.Left, fn)
		Walk(v.Right, fn)
	case *Call:
		for _, arg := range v.Args {
			Walk(arg, fn)
		}
		for _, kw := range v.Keywords {
			Walk(kw.Value, fn)
		}
	case *Lookup:
		Walk(v.Key, fn)
		Walk(v.Default, fn)
	}
}
