package expression

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"
)

// Config represents compiler limits
type Config struct {
	MaxDepth  int // maximum nesting of parentheses, calls and unary operators, 0 disables
	MaxLength int // maximum source length in characters, 0 disables
}

// DefaultConfig returns default compiler configuration
func DefaultConfig() *Config {
	return &Config{
		MaxDepth:  64,
		MaxLength: 64 * 1024,
	}
}

// Expression is an immutable compiled expression
type Expression struct {
	source      string
	root        Node
	identifiers []string
	functions   []string
	resolvers   []string
}

// Compile parses source with the default configuration
func Compile(source string) (*Expression, error) {
	return CompileWithConfig(source, nil)
}

// CompileWithConfig parses source into an Expression. Names are not
// resolved at compile time.
func CompileWithConfig(source string, cfg *Config) (*Expression, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if strings.TrimSpace(source) == "" {
		return nil, newParseError(source, 0, 0, "empty expression")
	}
	if cfg.MaxLength > 0 && utf8.RuneCountInString(source) > cfg.MaxLength {
		return nil, newParseError(source, 0, 0, fmt.Sprintf("expression exceeds max length %d", cfg.MaxLength))
	}

	tokens, err := tokenize(source)
	if err != nil {
		return nil, err
	}

	p := &parser{source: source, tokens: tokens, config: cfg}
	root, err := p.parse()
	if err != nil {
		return nil, err
	}

	e := &Expression{source: source, root: root}
	e.collectNames()
	return e, nil
}

// MustCompile is like Compile but panics on error
func MustCompile(source string) *Expression {
	e, err := Compile(source)
	if err != nil {
		panic(err)
	}
	return e
}

// collectNames records identifiers, functions and resolvers in first-appearance order
func (e *Expression) collectNames() {
	Walk(e.root, func(n Node) bool {
		switch v := n.(type) {
		case *Identifier:
			if !slices.Contains(e.identifiers, v.Name) {
				e.identifiers = append(e.identifiers, v.Name)
			}
		case *Call:
			if !slices.Contains(e.functions, v.Name) {
				e.functions = append(e.functions, v.Name)
			}
		case *Lookup:
			if !slices.Contains(e.resolvers, v.Resolver) {
				e.resolvers = append(e.resolvers, v.Resolver)
			}
		}
		return true
	})
}

// Source returns the expression text
func (e *Expression) Source() string { return e.source }

// String returns the expression text
func (e *Expression) String() string { return e.source }

// Root returns the root node of the tree
func (e *Expression) Root() Node { return e.root }

// Identifiers returns the referenced column or constant names, de-duplicated
// in order of first appearance. Function names and lookup resolver names are
// not included.
func (e *Expression) Identifiers() []string { return slices.Clone(e.identifiers) }

// Dependencies is an alias of Identifiers
func (e *Expression) Dependencies() []string { return e.Identifiers() }

// Functions returns the called function names, excluding lookup
func (e *Expression) Functions() []string { return slices.Clone(e.functions) }

// Resolvers returns the resolver names used by lookup calls
func (e *Expression) Resolvers() []string { return slices.Clone(e.resolvers) }
