// Package table provides the columnar container that expressions are
// evaluated against, along with value coercion, dtype casting and CSV IO.
package table
