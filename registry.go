package flatexpr

import (
	"cmp"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// Value is a value produced by a constant or an operator, or supplied as a
// variable binding.
type Value = any

// Lowest is the priority of an operator that binds more loosely than any
// operator with an explicit priority.
const Lowest = -1

// Func is the evaluation function of an operator. Call receives exactly
// Arity arguments. It must not modify its arguments, since they may be shared
// with constants, bindings, or other instructions, and it must not retain the
// args slice.
type Func interface {
	// Arity returns the number of operands the function consumes, either 1
	// or 2.
	Arity() int
	// Call evaluates the function.
	Call(args []Value) (Value, error)
}

type unary struct {
	f func(x Value) (Value, error)
}

func (unary) Arity() int { return 1 }

func (u unary) Call(args []Value) (Value, error) {
	return u.f(args[0])
}

// Unary wraps a function of one operand into a Func. A unary operator takes
// its operand from its right.
func Unary(f func(x Value) (Value, error)) Func {
	return unary{f}
}

type binary struct {
	f func(x, y Value) (Value, error)
}

func (binary) Arity() int { return 2 }

func (b binary) Call(args []Value) (Value, error) {
	return b.f(args[0], args[1])
}

// Binary wraps a function of two operands into a Func.
func Binary(f func(x, y Value) (Value, error)) Func {
	return binary{f}
}

// Operator describes an operator that may appear in expressions.
type Operator struct {
	// Name identifies the operator. The name itself is also a valid
	// denotation of the operator, but since names are not split out of
	// surrounding text, it must be separated by whitespace or brackets.
	Name string
	// Func evaluates the operator.
	Func Func
	// Signs are the denotations of the operator which are recognized even
	// without surrounding whitespace, e.g. + in a+b.
	Signs []string
	// Priority is the binding strength of the operator. Lower priorities bind
	// tighter. Lowest binds loosest.
	Priority int
}

// Arity returns the number of operands the operator consumes.
func (op *Operator) Arity() int {
	return op.Func.Arity()
}

func (op *Operator) String() string {
	return op.Name
}

// rank is the priority used for ordering, with Lowest mapped above every
// explicit priority.
func (op *Operator) rank() int {
	if op.Priority == Lowest {
		return math.MaxInt
	}
	return op.Priority
}

// Registry is an immutable table of operators and constant recognizers. A
// Registry is safe for concurrent use.
type Registry struct {
	ops    []*Operator
	names  map[string]*Operator
	signs  map[string]*Operator
	consts []constant
	// bysize is every sign ordered longest first, so that suffix matching
	// prefers the longest sign.
	bysize []string

	open, close string
	ltr         bool
}

// NewRegistry creates a registry from a list of operators and an ordered list
// of constant recognizers. Constants are tried in order, so more specific
// patterns must come before more general ones.
func NewRegistry(ops []Operator, consts []Constant, opts ...RegistryOption) (*Registry, error) {
	r := Registry{
		ops:   make([]*Operator, 0, len(ops)),
		names: make(map[string]*Operator, len(ops)),
		signs: make(map[string]*Operator, len(ops)),
		open:  "(",
		close: ")",
	}
	for _, opt := range opts {
		opt.registryOption(&r)
	}
	for i := range ops {
		op := ops[i]
		op.Signs = append([]string(nil), op.Signs...)
		if err := r.checkOperator(&op); err != nil {
			return nil, err
		}
		if r.names[op.Name] != nil {
			return nil, &RegistryError{Operator: op.Name, Reason: "duplicate operator name"}
		}
		r.ops = append(r.ops, &op)
		r.names[op.Name] = &op
	}
	for _, op := range r.ops {
		for _, s := range op.Signs {
			if other := r.signs[s]; other != nil {
				if other == op {
					return nil, &RegistryError{Operator: op.Name, Sign: s, Reason: "sign listed twice"}
				}
				return nil, &RegistryError{Operator: op.Name, Sign: s, Reason: "sign already used by " + strconv.Quote(other.Name)}
			}
			if other := r.names[s]; other != nil && other != op {
				return nil, &RegistryError{Operator: op.Name, Sign: s, Reason: "sign is the name of " + strconv.Quote(other.Name)}
			}
			r.signs[s] = op
			r.bysize = append(r.bysize, s)
		}
	}
	sortbysize(r.bysize)
	r.consts = make([]constant, 0, len(consts))
	for _, c := range consts {
		k, err := compileConstant(c)
		if err != nil {
			return nil, err
		}
		r.consts = append(r.consts, k)
	}
	return &r, nil
}

func (r *Registry) checkOperator(op *Operator) error {
	if op.Func == nil {
		return &RegistryError{Operator: op.Name, Reason: "no function"}
	}
	if n := op.Func.Arity(); n != 1 && n != 2 {
		return &RegistryError{Operator: op.Name, Reason: "arity must be 1 or 2, not " + strconv.Itoa(n)}
	}
	if op.Priority < Lowest {
		return &RegistryError{Operator: op.Name, Reason: "negative priority " + strconv.Itoa(op.Priority)}
	}
	if why := r.badText(op.Name); why != "" {
		return &RegistryError{Operator: op.Name, Reason: "name " + why}
	}
	for _, s := range op.Signs {
		if why := r.badText(s); why != "" {
			return &RegistryError{Operator: op.Name, Sign: s, Reason: "sign " + why}
		}
	}
	return nil
}

// badText describes why s cannot be a token, or returns the empty string if
// it can.
func (r *Registry) badText(s string) string {
	if s == "" {
		return "is empty"
	}
	for _, c := range s {
		switch {
		case unicode.IsSpace(c):
			return "contains whitespace"
		case r.isBracket(c):
			return "contains bracket " + strconv.QuoteRune(c)
		}
	}
	return ""
}

func (r *Registry) isBracket(c rune) bool {
	return strings.ContainsRune(r.open, c) || strings.ContainsRune(r.close, c)
}

// Operator returns the operator with the given name, or nil if there is none.
func (r *Registry) Operator(name string) *Operator {
	return r.names[name]
}

// OperatorBySign returns the operator denoted by sign, or nil if there is
// none.
func (r *Registry) OperatorBySign(sign string) *Operator {
	return r.signs[sign]
}

// Operators returns the registered operators in registration order. The
// operators themselves must not be modified.
func (r *Registry) Operators() []*Operator {
	return append([]*Operator(nil), r.ops...)
}

// sortbysize sorts signs longest first, then lexically.
func sortbysize(signs []string) {
	slices.SortFunc(signs, func(a, b string) int {
		if c := cmp.Compare(len(b), len(a)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
}

// RegistryError indicates an operator table or constant list that cannot be
// used to build a Registry.
type RegistryError struct {
	// Operator is the name of the offending operator, if any.
	Operator string
	// Constant is the name of the offending constant recognizer, if any.
	Constant string
	// Sign is the offending sign, if any.
	Sign string
	// Reason describes the problem.
	Reason string
}

func (err *RegistryError) Error() string {
	s := "operator " + strconv.Quote(err.Operator)
	if err.Constant != "" {
		s = "constant " + strconv.Quote(err.Constant)
	}
	if err.Sign != "" {
		s += " sign " + strconv.Quote(err.Sign)
	}
	return s + ": " + err.Reason
}
