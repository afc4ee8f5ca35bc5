// Package registry holds the functions, constants and resolvers that
// expressions may reference by name.
//
// Built-ins: abs, log, exp, sqrt, clip, where, isna, fillna, safe_divide
// and coalesce. log and sqrt return NaN outside their domain, exp clamps
// its argument, safe_divide returns NaN for a zero denominator. The name
// lookup is reserved for resolver calls.
package registry
