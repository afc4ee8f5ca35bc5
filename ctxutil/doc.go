// Package ctxutil carries request-scoped values through context.Context.
//
// Evaluation runs are tagged with a trace ID so log lines and provenance
// records emitted by one ApplySchema call can be correlated:
//
//	ctx, traceID := ctxutil.EnsureTraceID(ctx)
package ctxutil
