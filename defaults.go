package flatexpr

import (
	"errors"
	"math/big"
)

// DefaultOperators returns the common arithmetic, comparison, and logical
// operators. Numbers are computed as *big.Float with prec bits of precision;
// operands may also be Go integers and floats, *big.Int, or *big.Rat. The
// logical operators take bools.
//
// From tightest to loosest binding:
//
//	exp ln sqrt abs     unary, written by name only
//	pow                 ^ **
//	mul div mod         * / %
//	plus minus          + -
//	comparisons         == ⇔ ≡ ⟷   != <>   >= >   <= <
//	not                 ! ~ ¬
//	and                 && ⋀
//	or                  || ⋁
//	impl                -> ⇒ →
//
// The comparisons eq, not_eq, great_eq, great, less_eq, and less share one
// priority. There is no unary minus, since - is binary subtraction.
func DefaultOperators(prec uint) []Operator {
	n := num{prec: prec}
	logic := func(name string, f func(a, b bool) bool) Func {
		return Binary(func(x, y Value) (Value, error) {
			v, err := booleans(name, x, y)
			if err != nil {
				return nil, err
			}
			return f(v[0], v[1]), nil
		})
	}
	return []Operator{
		{Name: "exp", Func: n.unary("exp", n.exp), Priority: 0},
		{Name: "ln", Func: n.unary("ln", n.ln), Priority: 0},
		{Name: "sqrt", Func: n.unary("sqrt", n.sqrt), Priority: 0},
		{Name: "abs", Func: n.unary("abs", n.abs), Priority: 0},

		{Name: "pow", Func: n.binary("pow", n.pow), Signs: []string{"^", "**"}, Priority: 1},
		{Name: "div", Func: n.binary("div", n.quo), Signs: []string{"/"}, Priority: 2},
		{Name: "mod", Func: n.binary("mod", n.mod), Signs: []string{"%"}, Priority: 2},
		{Name: "mul", Func: n.binary("mul", n.mul), Signs: []string{"*"}, Priority: 2},
		{Name: "plus", Func: n.binary("plus", n.add), Signs: []string{"+"}, Priority: 3},
		{Name: "minus", Func: n.binary("minus", n.sub), Signs: []string{"-"}, Priority: 3},

		{Name: "eq", Func: Binary(func(x, y Value) (Value, error) {
			return n.equal("eq", x, y)
		}), Signs: []string{"==", "⇔", "≡", "⟷"}, Priority: 4},
		{Name: "not_eq", Func: Binary(func(x, y Value) (Value, error) {
			eq, err := n.equal("not_eq", x, y)
			return !eq, err
		}), Signs: []string{"!=", "<>"}, Priority: 4},
		{Name: "great_eq", Func: n.compare("great_eq", func(c int) bool { return c >= 0 }), Signs: []string{">="}, Priority: 4},
		{Name: "great", Func: n.compare("great", func(c int) bool { return c > 0 }), Signs: []string{">"}, Priority: 4},
		{Name: "less_eq", Func: n.compare("less_eq", func(c int) bool { return c <= 0 }), Signs: []string{"<="}, Priority: 4},
		{Name: "less", Func: n.compare("less", func(c int) bool { return c < 0 }), Signs: []string{"<"}, Priority: 4},

		{Name: "not", Func: Unary(func(x Value) (Value, error) {
			v, err := booleans("not", x)
			if err != nil {
				return nil, err
			}
			return !v[0], nil
		}), Signs: []string{"!", "~", "¬"}, Priority: 5},
		{Name: "and", Func: logic("and", func(a, b bool) bool { return a && b }), Signs: []string{"&&", "⋀"}, Priority: 6},
		{Name: "or", Func: logic("or", func(a, b bool) bool { return a || b }), Signs: []string{"||", "⋁"}, Priority: 7},
		{Name: "impl", Func: logic("impl", func(a, b bool) bool { return !a || b }), Signs: []string{"->", "⇒", "→"}, Priority: 8},
	}
}

// DefaultConstants returns recognizers for hexadecimal, binary, and decimal
// integers, decimal reals, booleans, pi, and infinity, most specific first.
// Numbers are *big.Float with prec bits of precision.
func DefaultConstants(prec uint) []Constant {
	n := num{prec: prec}
	integer := func(base int) func(string) (Value, error) {
		return func(text string) (Value, error) {
			if base != 10 {
				// Skip the 0x or 0b prefix.
				text = text[2:]
			}
			k, ok := new(big.Int).SetString(text, base)
			if !ok {
				return nil, errNumber
			}
			return n.new().SetInt(k), nil
		}
	}
	return []Constant{
		{Name: "hex", Pattern: `0[xX][0-9a-fA-F]+`, Convert: integer(16)},
		{Name: "binary", Pattern: `0[bB][01]+`, Convert: integer(2)},
		{Name: "decimal", Pattern: `[0-9]+`, Convert: integer(10)},
		{Name: "float", Pattern: `([0-9]*\.?[0-9]+|[0-9]+\.)([eE][0-9]+)?`, Convert: func(text string) (Value, error) {
			f, _, err := n.new().Parse(text, 10)
			if err != nil {
				return nil, err
			}
			return f, nil
		}},
		{Name: "bool", Pattern: `True|False|true|false`, Convert: func(text string) (Value, error) {
			return text == "True" || text == "true", nil
		}},
		{Name: "pi", Pattern: `pi|π`, Convert: func(string) (Value, error) {
			return n.pi(), nil
		}},
		{Name: "inf", Pattern: `inf|Inf|∞`, Convert: func(string) (Value, error) {
			return n.new().SetInf(false), nil
		}},
	}
}

var errNumber = errors.New("malformed number")

// Defaults creates a registry with the default operators and constants at the
// given precision.
func Defaults(prec uint, opts ...RegistryOption) *Registry {
	r, err := NewRegistry(DefaultOperators(prec), DefaultConstants(prec), opts...)
	if err != nil {
		panic("flatexpr: bad default registry: " + err.Error())
	}
	return r
}
