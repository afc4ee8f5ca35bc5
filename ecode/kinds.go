package ecode

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinels matched by errors.Is for each error kind.
var (
	ErrParse          = errors.New("parse error")
	ErrNameResolution = errors.New("name resolution error")
	ErrFunctionCall   = errors.New("function call error")
	ErrCycleDetected  = errors.New("cycle detected")
	ErrLookup         = errors.New("lookup error")
	ErrConfiguration  = errors.New("configuration error")
	ErrTypeCast       = errors.New("type cast error")
)

// ParseError reports malformed or disallowed expression syntax
type ParseError struct {
	Source  string // expression text
	Message string
	Line    int
	Col     int
}

// Error returns the error message
func (e *ParseError) Error() string {
	if e.Line > 0 && e.Col > 0 {
		return fmt.Sprintf("parse error at line %d, col %d: %s (in %q)", e.Line, e.Col, e.Message, e.Source)
	}
	return fmt.Sprintf("parse error: %s (in %q)", e.Message, e.Source)
}

// Is matches ErrParse
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// NameResolutionError reports an identifier that is neither a column nor a constant
type NameResolutionError struct {
	Name       string
	Expression string
}

// Error returns the error message
func (e *NameResolutionError) Error() string {
	return fmt.Sprintf("name %q %s as a column or constant (in %q)", e.Name, notExistMsg, e.Expression)
}

// Is matches ErrNameResolution
func (e *NameResolutionError) Is(target error) bool { return target == ErrNameResolution }

// FunctionCallError reports an unknown function or invalid arguments
type FunctionCallError struct {
	Function   string
	Expression string
	Message    string
	Err        error // underlying cause, if any
}

// Error returns the error message
func (e *FunctionCallError) Error() string {
	msg := fmt.Sprintf("function %s: %s", e.Function, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Expression != "" {
		msg += fmt.Sprintf(" (in %q)", e.Expression)
	}
	return msg
}

// Is matches ErrFunctionCall
func (e *FunctionCallError) Is(target error) bool { return target == ErrFunctionCall }

// Unwrap returns the underlying cause
func (e *FunctionCallError) Unwrap() error { return e.Err }

// CycleDetectedError reports a dependency cycle. Path lists the walk that
// closed the cycle, first and last element being the same node.
type CycleDetectedError struct {
	Path []string
}

// Error returns the error message
func (e *CycleDetectedError) Error() string {
	return "cycle detected in column dependencies: " + strings.Join(e.Path, " -> ")
}

// Is matches ErrCycleDetected
func (e *CycleDetectedError) Is(target error) bool { return target == ErrCycleDetected }

// LookupError reports keys a resolver could not resolve, or a resolver failure
type LookupError struct {
	Resolver string
	Keys     []any // complete set of unresolved keys, in first-seen order
	Err      error // backend failure, if any
}

// Error returns the error message
func (e *LookupError) Error() string {
	if len(e.Keys) == 0 && e.Err != nil {
		return fmt.Sprintf("lookup via resolver %q %s: %v", e.Resolver, failedMsg, e.Err)
	}
	keys := make([]string, len(e.Keys))
	for i, k := range e.Keys {
		keys[i] = fmt.Sprintf("%v", k)
	}
	return fmt.Sprintf("lookup via resolver %q: %d unresolved key(s): [%s]", e.Resolver, len(keys), strings.Join(keys, ", "))
}

// Is matches ErrLookup
func (e *LookupError) Is(target error) bool { return target == ErrLookup }

// Unwrap returns the backend failure
func (e *LookupError) Unwrap() error { return e.Err }

// SortedKeys returns the unresolved keys formatted and sorted, for stable diagnostics
func (e *LookupError) SortedKeys() []string {
	out := make([]string, len(e.Keys))
	for i, k := range e.Keys {
		out[i] = fmt.Sprintf("%v", k)
	}
	sort.Strings(out)
	return out
}

// ConfigurationError reports invalid configuration
type ConfigurationError struct {
	Field   string
	Message string
}

// Error returns the error message
func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "configuration error: " + e.Message
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
}

// Is matches ErrConfiguration
func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// TypeCastError reports a value that cannot be cast to the requested dtype
type TypeCastError struct {
	Column string
	DType  string
	Row    int
	Value  any
	Reason string
}

// Error returns the error message
func (e *TypeCastError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("cannot cast column %q to %s: %s", e.Column, e.DType, e.Reason)
	}
	return fmt.Sprintf("cannot cast column %q to %s at row %d (value %v): %s", e.Column, e.DType, e.Row, e.Value, e.Reason)
}

// Is matches ErrTypeCast
func (e *TypeCastError) Is(target error) bool { return target == ErrTypeCast }
