package flatexpr_test

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/zephyrtronium/flatexpr"
)

type vars = map[string]flatexpr.Value

// float gets a float64 from a numeric result.
func float(t *testing.T, v flatexpr.Value) float64 {
	t.Helper()
	f, ok := v.(*big.Float)
	if !ok {
		t.Fatalf("result %v is %T, not *big.Float", v, v)
	}
	r, _ := f.Float64()
	return r
}

func near(want, got float64) bool {
	if want == got {
		return true
	}
	return math.Abs(want-got) <= 1e-12*math.Max(math.Abs(want), math.Abs(got))
}

func TestEval(t *testing.T) {
	type vc struct {
		vars vars
		r    float64
	}
	cases := []struct {
		name string
		src  string
		r    []vc
	}{
		{"num", "1", []vc{{nil, 1}}},
		{"hex", "0x8F", []vc{{nil, 143}}},
		{"binary", "0b10", []vc{{nil, 2}}},
		{"float", "2.5e1", []vc{{nil, 25}}},
		{"precedence", "a + b * c", []vc{{vars{"a": 1, "b": 2, "c": 3}, 7}}},
		{"add", "4+5+6", []vc{{nil, 15}}},
		{"sub", "4-5-6", []vc{{nil, 5}}},
		{"mul", "4*5*6", []vc{{nil, 120}}},
		{"div", "1/4/2", []vc{{nil, 0.5}}},
		{"pow", "4^3^2", []vc{{nil, 262144}}},
		{"pow2", "2**10", []vc{{nil, 1024}}},
		{"pow-neg-exp", "2^(0-2)", []vc{{nil, 0.25}}},
		{"pow-neg-base", "(0-2)^3", []vc{{nil, -8}}},
		{"pow-frac", "a^0.5", []vc{{vars{"a": 16}, 4}, {vars{"a": 2}, math.Sqrt2}}},
		{"pow-zero", "0^0.5", []vc{{nil, 0}}},
		{"mod", "7 % 3", []vc{{nil, 1}}},
		{"mod-neg-lhs", "(0-7) % 3", []vc{{nil, 2}}},
		{"mod-neg-rhs", "7 % (0-3)", []vc{{nil, -2}}},
		{"mod-frac", "5.5 % 2", []vc{{nil, 1.5}}},
		{"pi", "pi", []vc{{nil, math.Pi}}},
		{"inf", "inf", []vc{{nil, math.Inf(1)}}},
		{"exp", "exp 1", []vc{{nil, math.E}}},
		{"ln", "ln a", []vc{{vars{"a": math.E}, 1}, {vars{"a": 1 / math.E}, -1}}},
		{"sqrt", "sqrt 2", []vc{{nil, math.Sqrt2}}},
		{"abs", "abs(0-3) * 2", []vc{{nil, 6}}},
		{"func-binds-tight", "sqrt 4 + 5", []vc{{nil, 7}}},
		{"types", "a + b + c + d", []vc{
			{vars{"a": int8(1), "b": uint(2), "c": big.NewInt(3), "d": big.NewRat(1, 2)}, 6.5},
			{vars{"a": float32(0.5), "b": int64(-2), "c": uint64(3), "d": 4}, 5.5},
		}},
		{"fraction", "(a - b) / (a + b) + a ^ b / a", []vc{{vars{"a": 23, "b": 8}, 15.0/31.0 + math.Pow(23, 7)}}},
		{"half", "1 + a / 2.0", []vc{{vars{"a": 3}, 2.5}, {vars{"a": 0}, 1}}},
		{"mixed", "0b10+4e5^(0x8F/10+a*.07)", []vc{{vars{"a": 0.7}, 2 + math.Pow(4e5, 143.0/10+0.7*0.07)}}},
	}
	r := flatexpr.Defaults(64)
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e, err := r.Parse(c.src)
			if err != nil {
				t.Fatalf("%q failed to parse: %v", c.src, err)
			}
			for _, v := range c.r {
				x, err := e.Invoke(v.vars)
				if err != nil {
					t.Fatalf("evaluating %q with %v: %v", c.src, v.vars, err)
				}
				if f := float(t, x); !near(v.r, f) {
					t.Errorf("wrong result from %q with %v: want %g, got %g", c.src, v.vars, v.r, f)
				}
			}
		})
	}
}

func TestEvalExact(t *testing.T) {
	r := flatexpr.Defaults(64)
	x, err := flatexpr.Eval(r, "a + b * c^a / b", vars{"a": 1, "b": 7, "c": 3})
	if err != nil {
		t.Fatal(err)
	}
	if f := x.(*big.Float); f.Cmp(big.NewFloat(4)) != 0 {
		t.Errorf("want exactly 4, got %v", f.Text('g', 30))
	}
}

func TestEvalLogic(t *testing.T) {
	r := flatexpr.Defaults(64)
	e, err := r.Parse("a != 1 and a * 1 <> 2 and not a ** 2 == 9")
	if err != nil {
		t.Fatal(err)
	}
	for a := -3; a <= 5; a++ {
		want := a != 1 && a != 2 && a*a != 9
		got, err := e.Invoke(vars{"a": a})
		if err != nil {
			t.Fatalf("a=%d: %v", a, err)
		}
		if got != want {
			t.Errorf("a=%d: want %v, got %v", a, want, got)
		}
	}
}

func TestEvalDeep(t *testing.T) {
	r := flatexpr.Defaults(64)
	e, err := r.Parse("(True&&a->!False)||8>=8&&8<9")
	if err != nil {
		t.Fatal(err)
	}
	consts := fmt.Sprint(e.Consts())
	if consts != "[true false 8 8 8 9]" {
		t.Errorf("wrong constants %s", consts)
	}
	for _, a := range []bool{true, false} {
		got, err := e.Invoke(vars{"a": a})
		if err != nil {
			t.Fatalf("a=%v: %v", a, err)
		}
		if got != true {
			t.Errorf("a=%v: want true, got %v", a, got)
		}
	}
}

func TestEvalComparisons(t *testing.T) {
	cases := []struct {
		src  string
		vars vars
		want bool
	}{
		{"a < b", vars{"a": 1, "b": 2}, true},
		{"a < b", vars{"a": big.NewInt(2), "b": big.NewRat(3, 2)}, false},
		{"a <= b", vars{"a": 2, "b": 2.0}, true},
		{"a > b", vars{"a": 2, "b": 2}, false},
		{"a >= b", vars{"a": 2, "b": 2}, true},
		{"a == b", vars{"a": 2, "b": big.NewFloat(2)}, true},
		{"a == b", vars{"a": "x", "b": "x"}, true},
		{"a == b", vars{"a": "x", "b": "y"}, false},
		{"a == b", vars{"a": true, "b": true}, true},
		{"a ⇔ b", vars{"a": true, "b": false}, false},
		{"a == b", vars{"a": 1, "b": "1"}, false},
		{"a <> b", vars{"a": false, "b": 0}, true},
		{"a || b", vars{"a": false, "b": true}, true},
		{"a or b", vars{"a": false, "b": false}, false},
		{"a ⋀ ¬b", vars{"a": true, "b": false}, true},
		{"a → b", vars{"a": true, "b": false}, false},
		{"a -> b", vars{"a": false, "b": false}, true},
		{"inf > a", vars{"a": math.MaxFloat64}, true},
	}
	r := flatexpr.Defaults(64)
	for _, c := range cases {
		got, err := flatexpr.Eval(r, c.src, c.vars)
		if err != nil {
			t.Errorf("evaluating %q with %v: %v", c.src, c.vars, err)
			continue
		}
		if got != c.want {
			t.Errorf("%q with %v: want %v, got %v", c.src, c.vars, c.want, got)
		}
	}
}

func TestEvalGrouping(t *testing.T) {
	cases := []struct {
		name  string
		src   string
		vars  vars
		right flatexpr.Value
		left  flatexpr.Value
	}{
		{"sub", "4-5-6", nil, 5.0, -7.0},
		{"div", "8/4/2", nil, 4.0, 1.0},
		{"impl", "(a -> b -> c) and d", vars{"a": false, "b": true, "c": false, "d": true}, true, false},
	}
	rl := flatexpr.Defaults(64)
	lr := flatexpr.Defaults(64, flatexpr.LeftToRight())
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			for _, p := range []struct {
				name string
				r    *flatexpr.Registry
				want flatexpr.Value
			}{{"right", rl, c.right}, {"left", lr, c.left}} {
				got, err := flatexpr.Eval(p.r, c.src, c.vars)
				if err != nil {
					t.Fatalf("%s: %v", p.name, err)
				}
				if f, ok := got.(*big.Float); ok {
					got, _ = f.Float64()
				}
				if got != p.want {
					t.Errorf("%s: want %v, got %v", p.name, p.want, got)
				}
			}
		})
	}
}

func TestEvalOperandOnly(t *testing.T) {
	r := flatexpr.Defaults(64)
	got, err := flatexpr.Eval(r, "(a)", vars{"a": "hello"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "hello" {
		t.Errorf("want hello, got %v", got)
	}
	// A lone variable is its binding, unconverted.
	six := big.NewFloat(6)
	for _, v := range []flatexpr.Value{4, 5.5, six} {
		got, err := flatexpr.Eval(r, "x", vars{"x": v})
		if err != nil {
			t.Fatal(err)
		}
		if got != v {
			t.Errorf("x bound to %#v evaluated to %#v", v, got)
		}
	}
	got, err = flatexpr.Eval(r, "5", nil)
	if err != nil {
		t.Fatal(err)
	}
	if f := float(t, got); f != 5 {
		t.Errorf("want 5, got %v", f)
	}
}

func TestEvalUndefNames(t *testing.T) {
	cases := []struct {
		name string
		src  string
		vars vars
		r    []string
	}{
		{"x", "x", nil, []string{"x"}},
		{"add-lhs", "x+1", nil, []string{"x"}},
		{"add-rhs", "1+x", nil, []string{"x"}},
		{"unary", "not x", nil, []string{"x"}},
		{"some", "x*y", vars{"y": 1}, []string{"x"}},
		{"deep", "((x*y)*z)*w", vars{"x": 1, "z": 2}, []string{"y", "w"}},
	}
	r := flatexpr.Defaults(64)
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e, err := r.Parse(c.src)
			if err != nil {
				t.Fatalf("%q failed to parse: %v", c.src, err)
			}
			x, err := e.Invoke(c.vars)
			if x != nil {
				t.Errorf("evaluating %q gave non-nil result %v", c.src, x)
			}
			var u *flatexpr.MissingVariableError
			if !errors.As(err, &u) {
				t.Fatalf("evaluating %q gave wrong error: want *MissingVariableError, got %#v", c.src, err)
			}
			for _, n := range c.r {
				if n == u.Name {
					if !strings.Contains(err.Error(), `"`+n+`"`) {
						t.Errorf("error message %q doesn't name %q", err.Error(), n)
					}
					return
				}
			}
			t.Errorf("MissingVariableError on %q, not in %q", u.Name, c.r)
		})
	}
}

func TestEvalDomainError(t *testing.T) {
	cases := []struct {
		name string
		src  string
		vars vars
		fn   string
		arg  int
	}{
		{"div-zero", "1/0", nil, "/", 2},
		{"div-zero-var", "a / (b - b)", vars{"a": 1, "b": 3}, "/", 2},
		{"mod-zero", "1 % 0", nil, "%", 2},
		{"mod-inf", "inf % 2", nil, "%", 1},
		{"pow-neg", "(0-1)^0.5", nil, "^", 1},
		{"pow-zero-neg", "0^(0-1)", nil, "^", 1},
		{"ln-zero", "ln 0", nil, "ln", 0},
		{"ln-neg", "ln(0-1)", nil, "ln", 0},
		{"sqrt", "sqrt(0-1)", nil, "sqrt", 0},
		{"sub-inf", "inf - inf", nil, "-", 0},
		{"mul-inf", "0 * inf", nil, "*", 0},
	}
	r := flatexpr.Defaults(64)
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			x, err := flatexpr.Eval(r, c.src, c.vars)
			if x != nil {
				t.Errorf("evaluating %q gave non-nil result %v", c.src, x)
			}
			var d flatexpr.DomainError
			if !errors.As(err, &d) {
				t.Fatalf("evaluating %q: want DomainError, got %#v", c.src, err)
			}
			if d.Func != c.fn || d.Arg != c.arg {
				t.Errorf("evaluating %q: want error in argument %d of %s, got %+v", c.src, c.arg, c.fn, d)
			}
			if !regexp.MustCompile(`(?i)\bdomain\b`).MatchString(err.Error()) {
				t.Errorf("unhelpful error message %q", err.Error())
			}
		})
	}
}

func TestEvalOperandError(t *testing.T) {
	cases := []struct {
		name string
		src  string
		vars vars
		op   string
		arg  int
	}{
		{"string", "a + 1", vars{"a": "str"}, "plus", 1},
		{"bool", "1 * a", vars{"a": true}, "mul", 2},
		{"nan", "a - 1", vars{"a": math.NaN()}, "minus", 1},
		{"nil", "sqrt a", vars{"a": nil}, "sqrt", 1},
		{"logic", "a && 1", vars{"a": true}, "and", 2},
		{"not", "!a", vars{"a": 0}, "not", 1},
		{"compare", "a < 1", vars{"a": false}, "less", 1},
		{"equal", "a == 1", vars{"a": []int{}}, "eq", 1},
	}
	r := flatexpr.Defaults(64)
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := flatexpr.Eval(r, c.src, c.vars)
			var o *flatexpr.OperandError
			if !errors.As(err, &o) {
				t.Fatalf("evaluating %q: want *OperandError, got %#v", c.src, err)
			}
			if o.Op != c.op || o.Arg != c.arg {
				t.Errorf("evaluating %q: want error in argument %d of %s, got %+v", c.src, c.arg, c.op, o)
			}
		})
	}
}

func TestEvalOperatorError(t *testing.T) {
	bad := errors.New("refused")
	ops := append(flatexpr.DefaultOperators(64), flatexpr.Operator{
		Name: "refuse",
		Func: flatexpr.Unary(func(x flatexpr.Value) (flatexpr.Value, error) {
			return nil, bad
		}),
	})
	r, err := flatexpr.NewRegistry(ops, flatexpr.DefaultConstants(64))
	if err != nil {
		t.Fatal(err)
	}
	_, err = flatexpr.Eval(r, "1 + refuse 2", nil)
	if err != bad {
		t.Errorf("want operator's error unchanged, got %#v", err)
	}
}

type counter struct {
	n int
}

func (c *counter) Clone() flatexpr.Value {
	return &counter{n: c.n}
}

func TestInvokeIsolation(t *testing.T) {
	ops := append(flatexpr.DefaultOperators(64),
		// inc and bump break the rule against modifying operands, so that
		// sharing between invocations would show.
		flatexpr.Operator{Name: "inc", Func: flatexpr.Unary(func(x flatexpr.Value) (flatexpr.Value, error) {
			f := x.(*big.Float)
			return f.Add(f, big.NewFloat(1)), nil
		})},
		flatexpr.Operator{Name: "bump", Func: flatexpr.Unary(func(x flatexpr.Value) (flatexpr.Value, error) {
			c := x.(*counter)
			c.n++
			return c.n, nil
		})},
	)
	consts := append([]flatexpr.Constant{{Name: "counter", Pattern: `c`, Convert: func(string) (flatexpr.Value, error) {
		return &counter{}, nil
	}}}, flatexpr.DefaultConstants(64)...)
	r, err := flatexpr.NewRegistry(ops, consts)
	if err != nil {
		t.Fatal(err)
	}
	e, err := r.Parse("inc 1")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		x, err := e.Invoke(nil)
		if err != nil {
			t.Fatal(err)
		}
		if f := float(t, x); f != 2 {
			t.Errorf("invocation %d: want 2, got %v", i, f)
		}
	}
	e, err = r.Parse("bump c")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		x, err := e.Invoke(nil)
		if err != nil {
			t.Fatal(err)
		}
		if x != 1 {
			t.Errorf("invocation %d: want 1, got %v", i, x)
		}
	}
}

func TestInvokeReuse(t *testing.T) {
	r := flatexpr.Defaults(64)
	e, err := r.Parse("(a - b) / (a + b) + a ^ b / a")
	if err != nil {
		t.Fatal(err)
	}
	listing := e.Listing()
	consts := fmt.Sprint(e.Consts())
	code := e.Code()
	in := vars{"a": 23, "b": 8}
	first, err := e.Invoke(in)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		x, err := e.Invoke(in)
		if err != nil {
			t.Fatal(err)
		}
		if x.(*big.Float).Cmp(first.(*big.Float)) != 0 {
			t.Errorf("invocation %d gave %v, first gave %v", i, x, first)
		}
	}
	if e.Listing() != listing {
		t.Errorf("instructions changed:\n%s\nthen\n%s", listing, e.Listing())
	}
	if s := fmt.Sprint(e.Consts()); s != consts {
		t.Errorf("constants changed from %s to %s", consts, s)
	}
	if !reflect.DeepEqual(code, e.Code()) {
		t.Errorf("code changed")
	}
	if !reflect.DeepEqual(in, vars{"a": 23, "b": 8}) {
		t.Errorf("bindings changed to %v", in)
	}
}

func TestInvokeConcurrent(t *testing.T) {
	r := flatexpr.Defaults(64)
	e, err := r.Parse("a != 1 and a * 1 <> 2 and not a ** 2 == 9")
	if err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for a := -3; a <= 5; a++ {
				got, err := e.Invoke(vars{"a": a})
				if err != nil {
					t.Errorf("a=%d: %v", a, err)
					return
				}
				if want := a != 1 && a != 2 && a*a != 9; got != want {
					t.Errorf("a=%d: want %v, got %v", a, want, got)
				}
			}
		}()
	}
	wg.Wait()
}

func BenchmarkInvoke(b *testing.B) {
	r := flatexpr.Defaults(64)
	in := vars{
		"x": big.NewFloat(2),
		"y": big.NewFloat(3),
		"z": big.NewFloat(4),
	}
	cases := []struct {
		name string
		src  string
	}{
		{"nums", "2+3+4"},
		{"vars", "x+y+z"},
		{"logic", "x != 1 and x * 1 <> 2 and not x ** 2 == 9"},
	}
	for _, c := range cases {
		b.Run(c.name, func(b *testing.B) {
			b.ReportAllocs()
			e, err := r.Parse(c.src)
			if err != nil {
				b.Fatal(err)
			}
			for i := 0; i < b.N; i++ {
				e.Invoke(in)
			}
		})
	}
}
