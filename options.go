package flatexpr

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// RegistryOption is an option for creating a Registry.
type RegistryOption interface {
	registryOption(*Registry)
}

type (
	ltropt     bool
	bracketopt struct {
		open, close string
	}
)

// LeftToRight tells the resolver to group operators of equal priority at the
// same bracket depth from the left, so that a-b-c means (a-b)-c. By default
// the rightmost such operator is resolved first, so that a-b-c means a-(b-c).
// With LeftToRight, chained prefix operators such as ! ! a need brackets.
func LeftToRight() RegistryOption {
	return ltropt(true)
}

func (o ltropt) registryOption(r *Registry) {
	r.ltr = bool(o)
}

// Brackets sets the runes which group subexpressions. The bracket in rune
// position k of open is closed by the bracket in rune position k of close.
// Brackets panics if the two strings have different numbers of runes, if any
// rune appears twice, or if any rune is whitespace. The default is "(" and ")".
func Brackets(open, close string) RegistryOption {
	if utf8.RuneCountInString(open) != utf8.RuneCountInString(close) {
		panic("flatexpr: unbalanced bracket sets " + strconv.Quote(open) + " and " + strconv.Quote(close))
	}
	seen := make(map[rune]bool)
	for _, c := range open + close {
		if seen[c] || unicode.IsSpace(c) {
			panic("flatexpr: cannot use " + strconv.QuoteRune(c) + " as a bracket")
		}
		seen[c] = true
	}
	return &bracketopt{open, close}
}

func (o *bracketopt) registryOption(r *Registry) {
	r.open = o.open
	r.close = o.close
}

// partner returns the close bracket matching an open bracket, or
// utf8.RuneError if open is not an open bracket.
func (r *Registry) partner(open rune) rune {
	k := strings.IndexRune(r.open, open)
	if k < 0 {
		return utf8.RuneError
	}
	k = utf8.RuneCountInString(r.open[:k])
	for _, c := range r.close {
		if k == 0 {
			return c
		}
		k--
	}
	return utf8.RuneError
}
