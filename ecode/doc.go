// Package ecode defines the error taxonomy shared by the compiler, evaluator,
// scheduler, lookup layer and engine.
//
// Every error kind is a struct carrying the context needed to diagnose it
// (offending expression text, cyclic path, unresolved keys) and matches a
// sentinel through errors.Is:
//
//	_, err := eng.ApplySchema(ctx, tbl, s)
//	if errors.Is(err, ecode.ErrCycleDetected) {
//	    var cyc *ecode.CycleDetectedError
//	    errors.As(err, &cyc)
//	    fmt.Println(strings.Join(cyc.Path, " -> "))
//	}
//
// # Kinds
//
//	ParseError          // malformed or disallowed expression syntax
//	NameResolutionError // unknown column or constant at evaluation time
//	FunctionCallError   // unknown function or invalid arguments
//	CycleDetectedError  // schema dependency cycle
//	LookupError         // unresolved keys under the "raise" policy
//	ConfigurationError  // invalid resolver, cache or engine configuration
//	TypeCastError       // dtype cast failure
package ecode
