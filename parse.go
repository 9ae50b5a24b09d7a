package flatexpr

import (
	"cmp"
	"slices"
	"unicode/utf8"
)

// Expr is a compiled expression. Rather than a tree, an Expr is a list of
// instructions over a single value space: the constants of the expression
// occupy the first indices, and each instruction appends its result. An Expr
// is immutable and safe to invoke concurrently.
type Expr struct {
	// consts are the constants of the expression, each stored once.
	consts []Value
	// code is the instructions in evaluation order.
	code []Instruction
	// result is the operand holding the value of the whole expression.
	result Operand
	// names is the sorted list of variable names used in the expression.
	names []string
	// open and close are the brackets used to format the expression.
	open, close string
}

// Parse tokenizes and resolves an expression.
func (r *Registry) Parse(src string) (*Expr, error) {
	toks, err := r.Tokenize(src)
	if err != nil {
		return nil, err
	}
	return r.Resolve(toks)
}

// Resolve compiles a token sequence into an expression. Operators resolve in
// order of bracket depth, deepest first; then priority, tightest first; then
// position, rightmost first (or leftmost first if the registry was created
// with LeftToRight). An operator takes its operands only from inside its own
// brackets. Tokens that Tokenize would not produce, such as operator tokens
// with a nil Op, are reported as InvalidToken.
func (r *Registry) Resolve(toks []Token) (*Expr, error) {
	if err := r.checkBraces(toks); err != nil {
		return nil, err
	}
	ex := Expr{open: "(", close: ")"}
	if o, _ := utf8.DecodeRuneInString(r.open); o != utf8.RuneError {
		ex.open, ex.close = string(o), string(r.partner(o))
	}
	var (
		s     slotset
		occs  []occurrence
		names = make(map[string]bool)
		// groups are the bracketed spans of slots. Group 0 is the whole
		// expression. nest is the stack of groups open at the current token.
		groups = []span{{}}
		nest   = []int{0}
	)
	for _, tok := range toks {
		switch tok.Kind {
		case TokenBrace:
			if tok.Open {
				nest = append(nest, len(groups))
				groups = append(groups, span{lo: len(s)})
			} else {
				groups[nest[len(nest)-1]].hi = len(s)
				nest = nest[:len(nest)-1]
			}
		case TokenOperator:
			if tok.Op == nil {
				return nil, &ParseError{Kind: InvalidToken, Col: tok.Col, Text: tok.Text}
			}
			occs = append(occs, occurrence{depth: len(nest) - 1, group: nest[len(nest)-1], pos: len(s), op: tok.Op})
			s = append(s, slot{parent: len(s), tok: tok})
		case TokenVariable:
			names[tok.Text] = true
			s = append(s, slot{parent: len(s), tok: tok, val: Operand{Name: tok.Text}, ready: true})
		case TokenConstant:
			s = append(s, slot{parent: len(s), tok: tok, val: Operand{Index: len(ex.consts)}, ready: true})
			ex.consts = append(ex.consts, tok.Value)
		default:
			return nil, &ParseError{Kind: InvalidToken, Col: tok.Col, Text: tok.Text}
		}
	}
	if len(s) == 0 {
		col := 1
		if len(toks) > 0 {
			col = toks[len(toks)-1].Col
		}
		return nil, &ParseError{Kind: EmptyExpression, Col: col}
	}
	groups[0].hi = len(s)

	ltr := r.ltr
	slices.SortFunc(occs, func(a, b occurrence) int {
		if c := cmp.Compare(b.depth, a.depth); c != 0 {
			return c
		}
		if c := cmp.Compare(a.op.rank(), b.op.rank()); c != 0 {
			return c
		}
		if ltr {
			return cmp.Compare(a.pos, b.pos)
		}
		return cmp.Compare(b.pos, a.pos)
	})

	ex.code = make([]Instruction, 0, len(occs))
	for _, o := range occs {
		in := Instruction{Op: o.op, Args: make([]Operand, 0, 2)}
		g := groups[o.group]
		if o.op.Arity() == 2 {
			x, ok := s.operand(o.pos-1, g)
			if !ok {
				return nil, s.missing(o.pos)
			}
			in.Args = append(in.Args, x)
		}
		y, ok := s.operand(o.pos+1, g)
		if !ok {
			return nil, s.missing(o.pos)
		}
		in.Args = append(in.Args, y)
		res := Operand{Index: len(ex.consts) + len(ex.code)}
		ex.code = append(ex.code, in)
		// Everything that referred to the operands now refers to the result.
		s.union(o.pos, o.pos+1)
		if o.op.Arity() == 2 {
			s.union(o.pos, o.pos-1)
		}
		k := s.find(o.pos)
		s[k].val, s[k].ready = res, true
	}

	root := s.find(0)
	for i := range s {
		if s.find(i) != root {
			return nil, &ParseError{Kind: MissingOperator, Col: s[i].tok.Col, Text: s[i].tok.Text}
		}
	}
	ex.result = s[root].val

	ex.names = make([]string, 0, len(names))
	for k := range names {
		ex.names = append(ex.names, k)
	}
	slices.Sort(ex.names)
	return &ex, nil
}

// checkBraces verifies that brackets are balanced and properly paired.
func (r *Registry) checkBraces(toks []Token) error {
	var stack []Token
	for _, tok := range toks {
		if tok.Kind != TokenBrace {
			continue
		}
		if tok.Open {
			stack = append(stack, tok)
			continue
		}
		if len(stack) == 0 {
			return &ParseError{Kind: UnmatchedCloseBrace, Col: tok.Col, Text: tok.Text}
		}
		open := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		o, _ := utf8.DecodeRuneInString(open.Text)
		c, _ := utf8.DecodeRuneInString(tok.Text)
		if want := r.partner(o); want != utf8.RuneError && want != c {
			return &ParseError{Kind: MismatchedBrace, Col: tok.Col, Text: tok.Text, Left: open.Text}
		}
	}
	if len(stack) != 0 {
		tok := stack[len(stack)-1]
		return &ParseError{Kind: UnclosedOpenBrace, Col: tok.Col, Text: tok.Text}
	}
	return nil
}

// occurrence is an operator token in the brace-stripped token sequence.
type occurrence struct {
	depth int
	// group is the innermost bracketed group containing the operator.
	group int
	pos   int
	op    *Operator
}

// span is the half-open range of slots inside a pair of brackets.
type span struct {
	lo, hi int
}

// slot is an element of the brace-stripped token sequence. Slots form a
// disjoint-set forest: once an operator is resolved, its slot and its operand
// slots are one set, and the root of the set holds the operand that stands for
// the whole set.
type slot struct {
	parent int
	tok    Token
	val    Operand
	// ready is false for the set of an operator that is not yet resolved.
	ready bool
}

type slotset []slot

// find returns the root of the set containing i, compressing the path.
func (s slotset) find(i int) int {
	root := i
	for s[root].parent != root {
		root = s[root].parent
	}
	for s[i].parent != root {
		next := s[i].parent
		s[i].parent = root
		i = next
	}
	return root
}

// union merges the set containing j into the set containing i.
func (s slotset) union(i, j int) {
	s[s.find(j)].parent = s.find(i)
}

// operand returns the operand currently standing at position i, or false if
// there is none: i is outside the operator's group g, or holds an unresolved
// operator.
func (s slotset) operand(i int, g span) (Operand, bool) {
	if i < g.lo || i >= g.hi {
		return Operand{}, false
	}
	k := s.find(i)
	return s[k].val, s[k].ready
}

func (s slotset) missing(pos int) error {
	return &ParseError{Kind: MissingOperand, Col: s[pos].tok.Col, Text: s[pos].tok.Text}
}
