package flatexpr

import (
	"math/big"
	"strconv"
)

// Cloner is implemented by mutable constant values. Each invocation of an
// expression works on clones of its constants, so that operators which reuse
// their results cannot affect other invocations.
type Cloner interface {
	Clone() Value
}

// Invoke evaluates the expression with the given variable bindings. Errors
// from operators are returned unchanged. Invoke never modifies e or vars, so
// any number of invocations may run concurrently, provided vars is not
// modified while they do.
func (e *Expr) Invoke(vars map[string]Value) (Value, error) {
	vals := make([]Value, len(e.consts), len(e.consts)+len(e.code))
	for i, v := range e.consts {
		vals[i] = clone(v)
	}
	var buf [2]Value
	for _, in := range e.code {
		args := buf[:len(in.Args)]
		for i, o := range in.Args {
			v, err := load(vals, vars, o)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		r, err := in.Op.Func.Call(args)
		if err != nil {
			return nil, err
		}
		vals = append(vals, r)
	}
	return load(vals, vars, e.result)
}

// load gets the value of an operand.
func load(vals []Value, vars map[string]Value, o Operand) (Value, error) {
	if !o.IsVar() {
		return vals[o.Index], nil
	}
	v, ok := vars[o.Name]
	if !ok {
		return nil, &MissingVariableError{Name: o.Name}
	}
	return v, nil
}

// clone copies mutable values.
func clone(v Value) Value {
	switch v := v.(type) {
	case *big.Float:
		if v != nil {
			return new(big.Float).Copy(v)
		}
	case *big.Int:
		if v != nil {
			return new(big.Int).Set(v)
		}
	case *big.Rat:
		if v != nil {
			return new(big.Rat).Set(v)
		}
	case Cloner:
		return v.Clone()
	}
	return v
}

// Eval is a shortcut to parse an expression and invoke it once.
func Eval(r *Registry, src string, vars map[string]Value) (Value, error) {
	e, err := r.Parse(src)
	if err != nil {
		return nil, err
	}
	return e.Invoke(vars)
}

// MissingVariableError is an error from invoking an expression without a
// binding for one of its variables.
type MissingVariableError struct {
	// Name is the name that was missing.
	Name string
}

func (err *MissingVariableError) Error() string {
	return "undefined variable: " + strconv.Quote(err.Name)
}
