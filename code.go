package flatexpr

import (
	"fmt"
	"strconv"
	"strings"
)

// Operand is an argument of an instruction: either a variable, looked up when
// the expression is invoked, or an index into the value space.
type Operand struct {
	// Index is the position in the value space, if Name is empty.
	Index int
	// Name is the variable name, if any.
	Name string
}

// IsVar returns whether the operand is a variable reference.
func (o Operand) IsVar() bool {
	return o.Name != ""
}

func (o Operand) String() string {
	if o.IsVar() {
		return o.Name
	}
	return "$" + strconv.Itoa(o.Index)
}

// Instruction applies an operator to its operands. Instruction k of an
// expression with n constants stores its result at index n+k.
type Instruction struct {
	Op   *Operator
	Args []Operand
}

func (in Instruction) String() string {
	var b strings.Builder
	b.WriteString(in.Op.Name)
	b.WriteByte('(')
	for i, a := range in.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.String())
	}
	b.WriteByte(')')
	return b.String()
}

// Consts returns a copy of the expression's constants. The values themselves
// are shared with the expression and must not be modified.
func (e *Expr) Consts() []Value {
	return append([]Value(nil), e.consts...)
}

// Code returns a copy of the expression's instructions in evaluation order.
func (e *Expr) Code() []Instruction {
	r := make([]Instruction, len(e.code))
	for i, in := range e.code {
		r[i] = Instruction{Op: in.Op, Args: append([]Operand(nil), in.Args...)}
	}
	return r
}

// Result returns the operand holding the value of the whole expression.
func (e *Expr) Result() Operand {
	return e.result
}

// Vars returns the variable names used when evaluating the expression.
func (e *Expr) Vars() []string {
	return append([]string(nil), e.names...)
}

// Listing formats the instructions one per line, each with the index of its
// result.
func (e *Expr) Listing() string {
	var b strings.Builder
	for i, in := range e.code {
		fmt.Fprintf(&b, "$%d = %v\n", len(e.consts)+i, in)
	}
	return b.String()
}

// String creates a string representation of the expression with every
// operation bracketed. Parsing it with the same registry gives an equivalent
// expression, as long as the constants format back to themselves.
func (e *Expr) String() string {
	text := make([]string, len(e.consts), len(e.consts)+len(e.code))
	for i, v := range e.consts {
		text[i] = fmt.Sprint(v)
	}
	arg := func(o Operand) string {
		if o.IsVar() {
			return o.Name
		}
		return text[o.Index]
	}
	for _, in := range e.code {
		var b strings.Builder
		b.WriteString(e.open)
		if len(in.Args) == 2 {
			b.WriteString(arg(in.Args[0]))
			b.WriteByte(' ')
		}
		b.WriteString(denote(in.Op))
		b.WriteByte(' ')
		b.WriteString(arg(in.Args[len(in.Args)-1]))
		b.WriteString(e.close)
		text = append(text, b.String())
	}
	return arg(e.result)
}

// denote returns the text that stands for an operator in formatted
// expressions.
func denote(op *Operator) string {
	if len(op.Signs) > 0 {
		return op.Signs[0]
	}
	return op.Name
}
