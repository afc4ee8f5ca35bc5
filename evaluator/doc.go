// Package evaluator evaluates compiled expressions column-wise.
//
// Every node yields one value per row; literals and constants are
// broadcast. Arithmetic with a missing operand is missing, comparisons
// with a missing operand are false, and division or modulo by zero yields
// NaN instead of failing the column.
package evaluator
