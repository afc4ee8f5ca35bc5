// Package engine computes derived columns over tables. It compiles and
// caches expressions, orders schema columns by their dependencies, checks
// every name, function and resolver up front, then evaluates the columns
// one by one on a copy of the input table, optionally recording
// provenance for each.
package engine
