// Package flatexpr compiles expressions over a user-defined table of
// operators and literal constants into reusable computations.
//
// Operators are unary or binary, denoted by signs like "+" or "&&" that need
// no surrounding whitespace, or by names like "and" that do. Each has a
// priority; within the same bracket depth, lower priorities bind tighter.
// "a + b * c" resolves b * c first given the usual priorities, and brackets
// override priorities as expected.
//
// Instead of a syntax tree, a compiled Expr is a flat list of instructions
// over one value space holding the expression's constants followed by each
// instruction's result. Invoking an Expr copies the constants and runs the
// instructions with the given variable bindings, so one Expr can be invoked
// any number of times, including concurrently.
//
// Defaults provides a table of common arithmetic, comparison, and logical
// operators over arbitrary-precision numbers and booleans.
package flatexpr
