package parser

import (
	"github.com/leapstack-labs/querykit/pkg/token"
)

// Kind classifies a lexeme.
type Kind uint8

// Lexeme kinds.
const (
	EOF       Kind = iota
	Illegal        // unexpected character or unterminated string
	Word           // identifier or keyword
	Quoted         // "identifier" or `identifier`, quotes included
	Number         // 1, 1.5, 1e10
	String         // 'text', quotes included
	Parameter      // :name, @name, $1, ?
	Symbol         // operators and punctuation
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case Illegal:
		return "ILLEGAL"
	case Word:
		return "WORD"
	case Quoted:
		return "QUOTED"
	case Number:
		return "NUMBER"
	case String:
		return "STRING"
	case Parameter:
		return "PARAMETER"
	case Symbol:
		return "SYMBOL"
	}
	return "UNKNOWN"
}

// Lexeme is a raw lexical token. Text is the verbatim source text; phrases
// joined by the TokenReader carry their canonical lowercase spelling.
type Lexeme struct {
	Kind Kind
	Text string
	Pos  token.Position
	end  int // byte offset just past the lexeme
}

// End returns the byte offset just past the lexeme.
func (l Lexeme) End() int {
	return l.end
}

// Is reports whether the lexeme is a keyword or symbol equal to one of the
// candidates, ignoring case and whitespace layout. Quoted identifiers and
// literals never match.
func (l Lexeme) Is(candidates ...string) bool {
	if l.Kind != Word && l.Kind != Symbol {
		return false
	}
	for _, c := range candidates {
		if token.EqualFold(l.Text, c) {
			return true
		}
	}
	return false
}

// IsIdentifier reports whether the lexeme can name a column, table or alias.
func (l Lexeme) IsIdentifier() bool {
	return l.Kind == Quoted || (l.Kind == Word && !token.IsReserved(l.Text))
}

func (l Lexeme) describe() string {
	switch l.Kind {
	case EOF:
		return "end of input"
	case Word, Symbol:
		return "\"" + l.Text + "\""
	}
	return l.Kind.String() + " " + l.Text
}

// Lexer tokenizes SQL input. Whitespace and comments are skipped.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
	line    int  // current line number (1-based)
	col     int  // current column number (1-based)
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
		col:   0,
	}
	l.readChar()
	return l
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0 // ASCII NUL = EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++

	if l.ch == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) atEOF() bool {
	return l.pos >= len(l.input)
}

// currentPos returns the current position.
func (l *Lexer) currentPos() token.Position {
	return token.Position{
		Line:   l.line,
		Column: l.col,
		Offset: l.pos,
	}
}

// Next returns the next lexeme. At end of input it keeps returning EOF.
func (l *Lexer) Next() Lexeme {
	l.skipWhitespaceAndComments()

	pos := l.currentPos()
	start := l.pos
	emit := func(kind Kind) Lexeme {
		return Lexeme{Kind: kind, Text: l.input[start:l.pos], Pos: pos, end: l.pos}
	}

	if l.atEOF() {
		return Lexeme{Kind: EOF, Pos: pos, end: l.pos}
	}

	switch ch := l.ch; {
	case ch == '\'':
		if !l.readQuoted('\'') {
			return emit(Illegal)
		}
		return emit(String)
	case ch == '"' || ch == '`':
		if !l.readQuoted(ch) {
			return emit(Illegal)
		}
		return emit(Quoted)
	case isIdentStart(ch):
		l.readIdentifier()
		return emit(Word)
	case isDigit(ch) || (ch == '.' && isDigit(l.peekChar())):
		l.readNumber()
		return emit(Number)
	case ch == ':' && l.peekChar() == ':':
		l.readChar()
		l.readChar()
		return emit(Symbol)
	case (ch == ':' || ch == '@') && isIdentStart(l.peekChar()):
		l.readChar()
		l.readIdentifier()
		return emit(Parameter)
	case ch == '$' && isDigit(l.peekChar()):
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
		return emit(Parameter)
	case ch == '?':
		l.readChar()
		return emit(Parameter)
	}

	if sym := l.matchSymbol(); sym != "" {
		for range sym {
			l.readChar()
		}
		return emit(Symbol)
	}

	l.readChar()
	return emit(Illegal)
}

// twoCharSymbols are matched before single characters.
var twoCharSymbols = []string{"<=", ">=", "<>", "!=", "||"}

const singleCharSymbols = "+-*/%=<>&|^#~.,();"

// matchSymbol returns the operator or punctuation at the current position,
// longest match first, or "" when there is none.
func (l *Lexer) matchSymbol() string {
	rest := l.input[l.pos:]
	for _, s := range twoCharSymbols {
		if len(rest) >= 2 && rest[:2] == s {
			return s
		}
	}
	for i := 0; i < len(singleCharSymbols); i++ {
		if l.ch == singleCharSymbols[i] {
			return rest[:1]
		}
	}
	return ""
}

// skipWhitespaceAndComments skips whitespace, line comments and block
// comments.
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
			l.readChar()
		}

		// -- line comment
		if l.ch == '-' && l.peekChar() == '-' {
			for l.ch != '\n' && !l.atEOF() {
				l.readChar()
			}
			continue
		}

		// /* block comment */
		if l.ch == '/' && l.peekChar() == '*' {
			l.readChar()
			l.readChar()
			for !l.atEOF() {
				if l.ch == '*' && l.peekChar() == '/' {
					l.readChar()
					l.readChar()
					break
				}
				l.readChar()
			}
			continue
		}

		break
	}
}

// readQuoted reads a literal or identifier delimited by quote. A doubled
// quote is an escaped quote. It reports false when input ends before the
// closing quote.
func (l *Lexer) readQuoted(quote byte) bool {
	l.readChar() // skip opening quote
	for !l.atEOF() {
		if l.ch == quote {
			if l.peekChar() == quote {
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar() // skip closing quote
			return true
		}
		l.readChar()
	}
	return false
}

// readIdentifier reads an unquoted identifier.
func (l *Lexer) readIdentifier() {
	for isIdentStart(l.ch) || isDigit(l.ch) || l.ch == '$' {
		l.readChar()
	}
}

// readNumber reads a numeric literal (integer, decimal, or scientific).
func (l *Lexer) readNumber() {
	for isDigit(l.ch) {
		l.readChar()
	}

	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	// 1e10, 1E-5
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || next == '+' || next == '-' {
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}
}

// isIdentStart reports whether ch can start an identifier. Bytes of
// multi-byte UTF-8 sequences are accepted so non-ASCII names lex as words.
func isIdentStart(ch byte) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch == '_' || ch >= 0x80
}

// isDigit returns true if ch is a digit.
func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// Tokenize returns all lexemes of input, ending with EOF.
func Tokenize(input string) []Lexeme {
	l := NewLexer(input)
	var lexemes []Lexeme
	for {
		lx := l.Next()
		lexemes = append(lexemes, lx)
		if lx.Kind == EOF {
			break
		}
	}
	return lexemes
}
