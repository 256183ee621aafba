// Package token defines the rendering tokens emitted by AST nodes and the
// keyword tables shared by the tokenizer and the renderer.
//
// Tokens form a tree through their Parent links. Every AST node yields its own
// tokens followed by the tokens of its children, so a token sequence is a
// pre-order traversal of that tree. The renderer derives indentation purely
// from the parent chain.
package token

import "strings"

// Flag controls how the renderer lays out a token.
type Flag uint8

// Layout flags.
const (
	// BreakBefore starts the token on a new line.
	BreakBefore Flag = 1 << iota
	// Indent opens a nesting level: children of this token render one
	// indentation level deeper, starting on a new line.
	Indent
	// NoSpaceBefore binds the token to its predecessor (function parens,
	// type suffixes).
	NoSpaceBefore
	// NoSpaceAfter binds the next token to this one (unary minus).
	NoSpaceAfter
)

// Token is an immutable unit of rendered output.
type Token struct {
	Text     string
	Reserved bool   // keyword, cased by the renderer
	Sender   any    // AST node that produced the token
	Parent   *Token // logical parent used for nesting depth
	Flags    Flag
}

// New creates a non-reserved token.
func New(sender any, parent *Token, text string, flags ...Flag) *Token {
	return &Token{Text: text, Sender: sender, Parent: parent, Flags: combine(flags)}
}

// Reserved creates a keyword token.
func Reserved(sender any, parent *Token, text string, flags ...Flag) *Token {
	return &Token{Text: text, Reserved: true, Sender: sender, Parent: parent, Flags: combine(flags)}
}

// Comma creates a list separator.
func Comma(sender any, parent *Token) *Token {
	return New(sender, parent, ",")
}

// Dot creates a qualifier separator.
func Dot(sender any, parent *Token) *Token {
	return New(sender, parent, ".")
}

// Open creates an opening parenthesis.
func Open(sender any, parent *Token, flags ...Flag) *Token {
	return New(sender, parent, "(", flags...)
}

// Close creates a closing parenthesis.
func Close(sender any, parent *Token, flags ...Flag) *Token {
	return New(sender, parent, ")", flags...)
}

func combine(flags []Flag) Flag {
	var f Flag
	for _, v := range flags {
		f |= v
	}
	return f
}

// Has reports whether all of the given flags are set.
func (t *Token) Has(f Flag) bool {
	return t.Flags&f == f
}

// Depth returns the number of ancestors of t.
func (t *Token) Depth() int {
	d := 0
	for p := t.Parent; p != nil; p = p.Parent {
		d++
	}
	return d
}

// IsComma reports whether the token is a list separator.
func (t *Token) IsComma() bool {
	return t.Text == ","
}

func (t *Token) String() string {
	return t.Text
}

// Join concatenates token texts separated by spaces. It is meant for
// diagnostics; use the format package for real output.
func Join(tokens []*Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.Text
	}
	return strings.Join(parts, " ")
}
