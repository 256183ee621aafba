package format

import (
	"fmt"
	"strings"
)

// KeywordCase controls how reserved words are cased.
type KeywordCase int

// KeywordCase values.
const (
	KeywordUpper KeywordCase = iota
	KeywordLower
	KeywordPreserve
)

func (c KeywordCase) String() string {
	switch c {
	case KeywordUpper:
		return "upper"
	case KeywordLower:
		return "lower"
	case KeywordPreserve:
		return "preserve"
	}
	return fmt.Sprintf("KeywordCase(%d)", int(c))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *KeywordCase) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "", "upper":
		*c = KeywordUpper
	case "lower":
		*c = KeywordLower
	case "preserve":
		*c = KeywordPreserve
	default:
		return fmt.Errorf("invalid keyword case %q (want upper, lower or preserve)", text)
	}
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (c KeywordCase) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// CommaStyle controls where list separators go in multi-line lists.
type CommaStyle int

// CommaStyle values.
const (
	CommaTrailing CommaStyle = iota // a,\n b
	CommaLeading                    // a\n, b
)

func (s CommaStyle) String() string {
	switch s {
	case CommaTrailing:
		return "trailing"
	case CommaLeading:
		return "leading"
	}
	return fmt.Sprintf("CommaStyle(%d)", int(s))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *CommaStyle) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "", "trailing":
		*s = CommaTrailing
	case "leading":
		*s = CommaLeading
	default:
		return fmt.Errorf("invalid comma style %q (want trailing or leading)", text)
	}
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (s CommaStyle) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// DefaultIndentSize is the number of spaces per nesting level.
const DefaultIndentSize = 4

// Options is the formatting style of one render call.
type Options struct {
	IndentSize  int // spaces per level; <= 0 means DefaultIndentSize
	KeywordCase KeywordCase
	CommaStyle  CommaStyle
}

// DefaultOptions returns 4-space indentation, upper-case keywords and
// trailing commas.
func DefaultOptions() Options {
	return Options{IndentSize: DefaultIndentSize}
}

func (o Options) indentSize() int {
	if o.IndentSize <= 0 {
		return DefaultIndentSize
	}
	return o.IndentSize
}
