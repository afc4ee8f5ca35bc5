// Package graph orders named computations by their dependencies.
package graph
