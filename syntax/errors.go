package syntax

import (
	"errors"
	"fmt"
	"strings"
)

// ErrParse is wrapped by every error returned from Parse.
var ErrParse = errors.New("parse error")

// Error is a single syntax error.
type Error struct {
	Span Span
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Span, e.Msg)
}

// ErrorList is the list of syntax errors found in one parse.
type ErrorList []*Error

func (l *ErrorList) add(span Span, msg string) {
	*l = append(*l, &Error{Span: span, Msg: msg})
}

func (l ErrorList) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	var b strings.Builder
	b.WriteString(l[0].Error())
	fmt.Fprintf(&b, " (and %d more errors)", len(l)-1)
	return b.String()
}

// Unwrap makes errors.Is(err, ErrParse) hold.
func (l ErrorList) Unwrap() error {
	return ErrParse
}

// Err returns l as an error, or nil if it is empty.
func (l ErrorList) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}
