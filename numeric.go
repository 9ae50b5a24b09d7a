package flatexpr

import (
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/zephyrtronium/bigfloat"
)

// num performs arithmetic for the default operators at a fixed precision.
type num struct {
	prec uint
}

func (n num) new() *big.Float {
	return new(big.Float).SetPrec(n.prec)
}

// float converts a numeric operand. The result may be v itself, so it must not
// be modified.
func (n num) float(op string, arg int, v Value) (*big.Float, error) {
	switch v := v.(type) {
	case *big.Float:
		if v != nil {
			return v, nil
		}
	case *big.Int:
		if v != nil {
			return n.new().SetInt(v), nil
		}
	case *big.Rat:
		if v != nil {
			return n.new().SetRat(v), nil
		}
	case int:
		return n.new().SetInt64(int64(v)), nil
	case int8:
		return n.new().SetInt64(int64(v)), nil
	case int16:
		return n.new().SetInt64(int64(v)), nil
	case int32:
		return n.new().SetInt64(int64(v)), nil
	case int64:
		return n.new().SetInt64(v), nil
	case uint:
		return n.new().SetUint64(uint64(v)), nil
	case uint8:
		return n.new().SetUint64(uint64(v)), nil
	case uint16:
		return n.new().SetUint64(uint64(v)), nil
	case uint32:
		return n.new().SetUint64(uint64(v)), nil
	case uint64:
		return n.new().SetUint64(v), nil
	case float32:
		return n.floatOf(op, arg, float64(v))
	case float64:
		return n.floatOf(op, arg, v)
	}
	return nil, &OperandError{Op: op, Arg: arg, Value: v}
}

func (n num) floatOf(op string, arg int, v float64) (*big.Float, error) {
	if math.IsNaN(v) {
		return nil, &OperandError{Op: op, Arg: arg, Value: v}
	}
	return n.new().SetFloat64(v), nil
}

// unary creates a Func of one numeric operand. Panics with big.ErrNaN from f
// become DomainErrors.
func (n num) unary(op string, f func(z, x *big.Float) *big.Float) Func {
	return Unary(func(x Value) (Value, error) {
		a, err := n.float(op, 1, x)
		if err != nil {
			return nil, err
		}
		return guard(op, a, func() *big.Float { return f(n.new(), a) })
	})
}

// binary creates a Func of two numeric operands.
func (n num) binary(op string, f func(x, y *big.Float) (*big.Float, error)) Func {
	return Binary(func(x, y Value) (Value, error) {
		a, err := n.float(op, 1, x)
		if err != nil {
			return nil, err
		}
		b, err := n.float(op, 2, y)
		if err != nil {
			return nil, err
		}
		return f(a, b)
	})
}

// compare creates a Func comparing two numeric operands.
func (n num) compare(op string, ok func(c int) bool) Func {
	return Binary(func(x, y Value) (Value, error) {
		a, err := n.float(op, 1, x)
		if err != nil {
			return nil, err
		}
		b, err := n.float(op, 2, y)
		if err != nil {
			return nil, err
		}
		return ok(a.Cmp(b)), nil
	})
}

// equal reports whether two operands are equal. Numbers of any type compare by
// value; bools and strings compare to values of the same type.
func (n num) equal(op string, x, y Value) (bool, error) {
	if a, err := n.float(op, 1, x); err == nil {
		b, err := n.float(op, 2, y)
		if err != nil {
			return false, nil
		}
		return a.Cmp(b) == 0, nil
	}
	switch a := x.(type) {
	case bool:
		b, ok := y.(bool)
		return ok && a == b, nil
	case string:
		b, ok := y.(string)
		return ok && a == b, nil
	}
	return false, &OperandError{Op: op, Arg: 1, Value: x}
}

func (n num) add(x, y *big.Float) (*big.Float, error) {
	return guard("+", y, func() *big.Float { return n.new().Add(x, y) })
}

func (n num) sub(x, y *big.Float) (*big.Float, error) {
	return guard("-", y, func() *big.Float { return n.new().Sub(x, y) })
}

func (n num) mul(x, y *big.Float) (*big.Float, error) {
	return guard("*", y, func() *big.Float { return n.new().Mul(x, y) })
}

func (n num) quo(x, y *big.Float) (*big.Float, error) {
	if y.Sign() == 0 {
		return nil, DomainError{X: y, Arg: 2, Func: "/"}
	}
	return guard("/", y, func() *big.Float { return n.new().Quo(x, y) })
}

// mod computes x - y*floor(x/y), so the result has the sign of y.
func (n num) mod(x, y *big.Float) (*big.Float, error) {
	if x.IsInf() {
		return nil, DomainError{X: x, Arg: 1, Func: "%"}
	}
	if y.Sign() == 0 {
		return nil, DomainError{X: y, Arg: 2, Func: "%"}
	}
	if y.IsInf() {
		if x.Sign() == 0 || x.Signbit() == y.Signbit() {
			return n.new().Set(x), nil
		}
		return n.new().Set(y), nil
	}
	q := new(big.Float).SetPrec(n.prec + 64).Quo(x, y)
	if q.IsInf() {
		return nil, DomainError{X: y, Arg: 2, Func: "%"}
	}
	k, acc := q.Int(nil)
	if acc == big.Above {
		// Truncation rounded a negative quotient up.
		k.Sub(k, big.NewInt(1))
	}
	f := new(big.Float).SetPrec(n.prec + 64).SetInt(k)
	f.Mul(f, y)
	return n.new().Sub(x, f), nil
}

// pow computes x^y. Integer exponents are computed exactly by squaring, which
// also admits negative bases; other exponents use bigfloat.
func (n num) pow(x, y *big.Float) (*big.Float, error) {
	if k, acc := y.Int64(); acc == big.Exact && y.IsInt() {
		return n.powInt(x, k)
	}
	switch {
	case x.Sign() < 0:
		return nil, DomainError{X: x, Arg: 1, Func: "^"}
	case x.Sign() == 0:
		if y.Sign() < 0 {
			return nil, DomainError{X: x, Arg: 1, Func: "^"}
		}
		return n.new(), nil
	case x.IsInf(), y.IsInf():
		// The exponent is not an integer, so x is positive.
		return n.powInf(x, y), nil
	}
	return guard("^", y, func() *big.Float { return bigfloat.Pow(n.new(), x, y) })
}

// powInf computes x^y for positive x when either is infinite.
func (n num) powInf(x, y *big.Float) *big.Float {
	if y.IsInf() {
		c := x.Cmp(big.NewFloat(1))
		switch {
		case c == 0:
			return n.new().SetInt64(1)
		case (c > 0) == (y.Sign() > 0):
			return n.new().SetInf(false)
		}
		return n.new()
	}
	if y.Sign() > 0 {
		return n.new().SetInf(false)
	}
	return n.new()
}

func (n num) powInt(x *big.Float, k int64) (*big.Float, error) {
	neg := k < 0
	u := uint64(k)
	if neg {
		if x.Sign() == 0 {
			return nil, DomainError{X: x, Arg: 1, Func: "^"}
		}
		u = -u
	}
	// Work with extra precision so that only the final result rounds.
	p := n.prec + 64
	r := new(big.Float).SetPrec(p).SetInt64(1)
	b := new(big.Float).SetPrec(p).Set(x)
	for u > 0 {
		if u&1 != 0 {
			r.Mul(r, b)
		}
		u >>= 1
		if u > 0 {
			b.Mul(b, b)
		}
	}
	if neg {
		return n.new().Quo(big.NewFloat(1), r), nil
	}
	return n.new().Set(r), nil
}

func (n num) ln(z, x *big.Float) *big.Float {
	if x.Sign() <= 0 {
		panic(big.ErrNaN{})
	}
	return bigfloat.Log(z, x)
}

func (n num) exp(z, x *big.Float) *big.Float {
	return bigfloat.Exp(z, x)
}

func (n num) sqrt(z, x *big.Float) *big.Float {
	if x.Sign() < 0 {
		panic(big.ErrNaN{})
	}
	return z.Sqrt(x)
}

func (n num) abs(z, x *big.Float) *big.Float {
	return z.Abs(x)
}

func (n num) pi() *big.Float {
	return bigfloat.Pi(n.new())
}

// guard calls f, converting a big.ErrNaN panic into a DomainError about x.
func guard(fn string, x *big.Float, f func() *big.Float) (r *big.Float, err error) {
	defer func() {
		p := recover()
		if p == nil {
			return
		}
		if _, ok := p.(big.ErrNaN); !ok {
			panic(p)
		}
		r, err = nil, DomainError{X: x, Func: fn}
	}()
	return f(), nil
}

// booleans extracts bool operands for the logical operators.
func booleans(op string, args ...Value) ([]bool, error) {
	r := make([]bool, len(args))
	for i, v := range args {
		b, ok := v.(bool)
		if !ok {
			return nil, &OperandError{Op: op, Arg: i + 1, Value: v}
		}
		r[i] = b
	}
	return r, nil
}

// DomainError is an error returned when an operator is applied to arguments
// outside its domain.
type DomainError struct {
	// X is the out-of-domain argument.
	X *big.Float
	// Arg is the 1-based index of the argument, or 0 if unknown.
	Arg int
	// Func is a name identifying the operator.
	Func string
}

func (err DomainError) Error() string {
	r := err.X.String() + " outside domain"
	if err.Func != "" {
		r += " of " + err.Func
	}
	if err.Arg > 0 {
		r += " (argument " + strconv.Itoa(err.Arg) + ")"
	}
	return r
}

// OperandError is an error returned when an operator is applied to a value
// of a type it does not handle.
type OperandError struct {
	// Op is the operator name.
	Op string
	// Arg is the 1-based index of the argument.
	Arg int
	// Value is the offending value.
	Value Value
}

func (err *OperandError) Error() string {
	return fmt.Sprintf("operator %s: argument %d: unsupported value %v of type %T", err.Op, err.Arg, err.Value, err.Value)
}
