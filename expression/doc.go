// Package expression compiles the restricted expression language into an
// immutable tree.
//
// The grammar covers numeric, string, boolean and None literals,
// identifiers, arithmetic (+ - * / % **), comparisons (== != < <= > >=),
// boolean logic (and or not, with & | ~ as aliases), parentheses and calls
// with positional and keyword arguments. Attribute access, subscripts and
// assignment are rejected.
//
// lookup(key, resolver, on_missing=..., default=...) compiles to a Lookup
// node whose resolver name is reported by Resolvers rather than
// Identifiers.
package expression
