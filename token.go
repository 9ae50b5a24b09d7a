package flatexpr

import (
	"fmt"
	"strconv"
)

// TokenKind is the variant of a Token.
type TokenKind int8

const (
	TokenNone TokenKind = iota
	// TokenVariable is a name looked up when the expression is invoked.
	TokenVariable
	// TokenBrace is an open or close bracket.
	TokenBrace
	// TokenOperator is a sign or name of a registered operator.
	TokenOperator
	// TokenConstant is a literal recognized by a constant recognizer.
	TokenConstant
)

func (k TokenKind) String() string {
	switch k {
	case TokenNone:
		return "None"
	case TokenVariable:
		return "Variable"
	case TokenBrace:
		return "Brace"
	case TokenOperator:
		return "Operator"
	case TokenConstant:
		return "Constant"
	default:
		return "TokenKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Token is a lexical token. Which payload fields are meaningful depends on
// Kind.
type Token struct {
	Kind TokenKind
	// Text is the source text of the token. For variables, it is the name.
	Text string
	// Open is whether a brace opens a group.
	Open bool
	// Op is the operator an operator token denotes.
	Op *Operator
	// Value is the value of a constant.
	Value Value
	// Col is the 1-based rune position of the start of the token.
	Col int
}

func (t Token) String() string {
	switch t.Kind {
	case TokenVariable:
		return "Variable(" + t.Text + ")"
	case TokenBrace:
		if t.Open {
			return "Brace(open " + t.Text + ")"
		}
		return "Brace(close " + t.Text + ")"
	case TokenOperator:
		return "Operator(" + t.Op.Name + ")"
	case TokenConstant:
		return "Constant(" + fmt.Sprint(t.Value) + ")"
	default:
		return t.Kind.String() + "(" + strconv.Quote(t.Text) + ")"
	}
}
