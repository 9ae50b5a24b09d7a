package flatexpr

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tokenize splits an expression into tokens. Operator signs are split out of
// surrounding text, preferring longer signs, so a+b is three tokens; all other
// tokens are delimited by whitespace, brackets, and signs. Tokenize returns a
// *ParseError of kind InvalidEncoding if src is not valid UTF-8, or a
// *ConstantError from a constant's converter.
func (r *Registry) Tokenize(src string) ([]Token, error) {
	l := lexer{r: r}
	for i, c := range src {
		if c == utf8.RuneError {
			if _, n := utf8.DecodeRuneInString(src[i:]); n == 1 {
				return nil, &ParseError{Kind: InvalidEncoding, Col: l.col + 1, Text: src[i : i+1]}
			}
		}
		if err := l.step(c); err != nil {
			return nil, err
		}
	}
	// The trailing space flushes the last token.
	if err := l.step(' '); err != nil {
		return nil, err
	}
	return l.toks, nil
}

type lexer struct {
	r    *Registry
	toks []Token
	// buf is the text of the token being scanned.
	buf string
	// at is the position of the first rune in buf.
	at int
	// col is the position of the current rune.
	col int
}

func (l *lexer) step(c rune) error {
	l.col++
	r := l.r
	switch {
	case unicode.IsSpace(c), r.isBracket(c):
		if err := l.flush(l.buf, l.at); err != nil {
			return err
		}
		l.buf = ""
		if !unicode.IsSpace(c) {
			l.toks = append(l.toks, Token{
				Kind: TokenBrace,
				Text: string(c),
				Open: strings.ContainsRune(r.open, c),
				Col:  l.col,
			})
		}
	case r.signs[l.buf] != nil:
		// Munch as long a sign as we can.
		if ext := l.buf + string(c); r.signs[ext] != nil {
			l.buf = ext
			return nil
		}
		if err := l.flush(l.buf, l.at); err != nil {
			return err
		}
		l.buf, l.at = string(c), l.col
	default:
		if l.buf == "" {
			l.at = l.col
		}
		l.buf += string(c)
		if s := r.suffix(l.buf); s != "" {
			// a+ -> a, +
			if err := l.flush(l.buf[:len(l.buf)-len(s)], l.at); err != nil {
				return err
			}
			l.buf, l.at = s, l.col-utf8.RuneCountInString(s)+1
		}
	}
	return nil
}

// flush appends a token for text, if it is not empty.
func (l *lexer) flush(text string, col int) error {
	if text == "" {
		return nil
	}
	tok, err := l.r.classify(text, col)
	if err != nil {
		return err
	}
	l.toks = append(l.toks, tok)
	return nil
}

// suffix returns the longest sign which is a suffix of text, or the empty
// string if there is none.
func (r *Registry) suffix(text string) string {
	for _, s := range r.bysize {
		if strings.HasSuffix(text, s) {
			return s
		}
	}
	return ""
}

// classify creates the token for a complete piece of non-bracket text.
func (r *Registry) classify(text string, col int) (Token, error) {
	if op := r.names[text]; op != nil {
		return Token{Kind: TokenOperator, Text: text, Op: op, Col: col}, nil
	}
	if op := r.signs[text]; op != nil {
		return Token{Kind: TokenOperator, Text: text, Op: op, Col: col}, nil
	}
	if k := r.recognize(text); k != nil {
		v, err := k.Convert(text)
		if err != nil {
			return Token{}, &ConstantError{Col: col, Text: text, Constant: k.Name, Err: err}
		}
		return Token{Kind: TokenConstant, Text: text, Value: v, Col: col}, nil
	}
	return Token{Kind: TokenVariable, Text: text, Col: col}, nil
}
