package flatexpr

import "strconv"

// ParseErrorKind classifies a ParseError.
type ParseErrorKind int8

const (
	_ ParseErrorKind = iota
	// UnmatchedCloseBrace is a close bracket with no open bracket before it.
	UnmatchedCloseBrace
	// UnclosedOpenBrace is an open bracket that is never closed.
	UnclosedOpenBrace
	// MismatchedBrace is a close bracket of a different pair than the open
	// bracket it closes.
	MismatchedBrace
	// MissingOperand is an operator without an operand on a side where it
	// needs one, e.g. a+ or a+*b.
	MissingOperand
	// MissingOperator is an operand with no operator connecting it to the
	// rest of the expression, e.g. a b.
	MissingOperator
	// EmptyExpression is an input with no operands.
	EmptyExpression
	// InvalidEncoding is input that is not valid UTF-8.
	InvalidEncoding
	// InvalidToken is a token that Tokenize cannot produce, such as an
	// operator token with no operator.
	InvalidToken
)

func (k ParseErrorKind) String() string {
	switch k {
	case UnmatchedCloseBrace:
		return "UnmatchedCloseBrace"
	case UnclosedOpenBrace:
		return "UnclosedOpenBrace"
	case MismatchedBrace:
		return "MismatchedBrace"
	case MissingOperand:
		return "MissingOperand"
	case MissingOperator:
		return "MissingOperator"
	case EmptyExpression:
		return "EmptyExpression"
	case InvalidEncoding:
		return "InvalidEncoding"
	case InvalidToken:
		return "InvalidToken"
	default:
		return "ParseErrorKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// ParseError is an error indicating an expression that cannot be resolved
// into instructions. It implements InputError.
type ParseError struct {
	Kind ParseErrorKind
	// Col is the position of the token that caused the error.
	Col int
	// Text is the text of the token that caused the error.
	Text string
	// Left is the open bracket of a MismatchedBrace.
	Left string
}

func (err *ParseError) Error() string {
	switch err.Kind {
	case UnmatchedCloseBrace:
		return errpos(err.Col, "close bracket "+err.Text+" with no open bracket")
	case UnclosedOpenBrace:
		return errpos(err.Col, "open bracket "+err.Text+" with no close bracket")
	case MismatchedBrace:
		return errpos(err.Col, "mismatched bracket: "+err.Left+"expr"+err.Text)
	case MissingOperand:
		return errpos(err.Col, "missing operand for operator "+strconv.Quote(err.Text))
	case MissingOperator:
		return errpos(err.Col, "missing operator before "+strconv.Quote(err.Text))
	case EmptyExpression:
		return errpos(err.Col, "no expression")
	case InvalidEncoding:
		return errpos(err.Col, "invalid UTF-8 byte "+strconv.Quote(err.Text))
	case InvalidToken:
		return errpos(err.Col, "invalid token "+strconv.Quote(err.Text))
	default:
		return errpos(err.Col, "parse error "+err.Kind.String())
	}
}

func (err *ParseError) Pos() int {
	return err.Col
}

// errpos is a shortcut to create an error message with a position.
func errpos(pos int, msg string) string {
	return strconv.Itoa(pos) + ": " + msg
}

// InputError is an error with position information. Every error resulting from
// invalid input implements InputError.
type InputError interface {
	error
	// Pos returns the position of the error as the number of runes up to and
	// including the start of the token that caused the error.
	Pos() int
}

var (
	_ InputError = (*ParseError)(nil)
	_ InputError = (*ConstantError)(nil)
)
