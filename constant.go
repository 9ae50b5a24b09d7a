package flatexpr

import (
	"regexp"
	"strconv"
)

// Constant recognizes literal values in expressions.
type Constant struct {
	// Name identifies the kind of constant in errors and tables.
	Name string
	// Pattern is a regular expression in RE2 syntax. It must match the
	// entire token text for the token to be this kind of constant; it does
	// not need to be anchored.
	Pattern string
	// Convert produces the constant's value from the token text.
	Convert func(text string) (Value, error)
}

// constant is a Constant with its pattern compiled.
type constant struct {
	Constant
	re *regexp.Regexp
}

func compileConstant(c Constant) (constant, error) {
	if c.Convert == nil {
		return constant{}, &RegistryError{Constant: c.Name, Reason: "no converter"}
	}
	re, err := regexp.Compile(`^(?:` + c.Pattern + `)$`)
	if err != nil {
		return constant{}, &RegistryError{Constant: c.Name, Reason: "bad pattern: " + err.Error()}
	}
	return constant{Constant: c, re: re}, nil
}

// recognize finds the first constant recognizer matching text. If none
// matches, the result is nil.
func (r *Registry) recognize(text string) *constant {
	for i := range r.consts {
		if r.consts[i].re.MatchString(text) {
			return &r.consts[i]
		}
	}
	return nil
}

// ConstantError is an error from converting the text of a recognized constant
// to its value. It implements InputError.
type ConstantError struct {
	// Col is the position of the constant.
	Col int
	// Text is the token text.
	Text string
	// Constant is the name of the recognizer that matched the text.
	Constant string
	// Err is the error returned by the converter.
	Err error
}

func (err *ConstantError) Error() string {
	s := "invalid constant " + strconv.Quote(err.Text)
	if err.Constant != "" {
		s = "invalid " + err.Constant + " constant " + strconv.Quote(err.Text)
	}
	return errpos(err.Col, s+": "+err.Err.Error())
}

func (err *ConstantError) Unwrap() error {
	return err.Err
}

func (err *ConstantError) Pos() int {
	return err.Col
}
