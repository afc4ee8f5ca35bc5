// Package schema describes the derived columns an engine computes: an
// ordered set of named expressions with optional dtypes and metadata.
package schema
