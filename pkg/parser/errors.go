package parser

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/querykit/pkg/token"
)

var (
	// ErrUnexpectedEOF is wrapped by a *ParseError when input ends before a
	// required token or a balancing bracket.
	ErrUnexpectedEOF = errors.New("unexpected end of input")
	// ErrUnsupported matches every *UnsupportedError.
	ErrUnsupported = errors.New("unsupported construct")
)

// ParseError represents a parsing error with position information.
type ParseError struct {
	Pos     token.Position
	Message string
	Err     error // optional cause, e.g. ErrUnexpectedEOF
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// UnsupportedError reports valid SQL that is outside the supported subset,
// such as a parenthesised table expression that is not a query.
type UnsupportedError struct {
	Pos       token.Position
	Construct string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Construct)
}

// Is makes errors.Is(err, ErrUnsupported) succeed.
func (e *UnsupportedError) Is(target error) bool {
	return target == ErrUnsupported
}

// Common error messages
const (
	errUnexpectedToken    = "unexpected %s, expected %s"
	errUnexpectedTrailing = "unexpected %s after end of statement"
	errUnterminatedString = "unterminated string literal"
	errUnterminatedQuote  = "unterminated quoted identifier"
	errIllegalCharacter   = "illegal character %q"
	errUnterminatedParen  = "unterminated bracket"
	errEmptyBrackets      = "empty brackets"
	errReservedWord       = "reserved word %s cannot start a value"
)

func unexpected(l Lexeme, expected string) error {
	if l.Kind == EOF {
		return &ParseError{Pos: l.Pos, Message: fmt.Sprintf(errUnexpectedToken, l.describe(), expected), Err: ErrUnexpectedEOF}
	}
	if l.Kind == Illegal {
		return illegal(l)
	}
	return &ParseError{Pos: l.Pos, Message: fmt.Sprintf(errUnexpectedToken, l.describe(), expected)}
}

func illegal(l Lexeme) error {
	switch {
	case len(l.Text) > 0 && l.Text[0] == '\'':
		return &ParseError{Pos: l.Pos, Message: errUnterminatedString, Err: ErrUnexpectedEOF}
	case len(l.Text) > 0 && (l.Text[0] == '"' || l.Text[0] == '`'):
		return &ParseError{Pos: l.Pos, Message: errUnterminatedQuote, Err: ErrUnexpectedEOF}
	}
	return &ParseError{Pos: l.Pos, Message: fmt.Sprintf(errIllegalCharacter, l.Text)}
}
