package parser

import (
	"strings"

	"github.com/leapstack-labs/querykit/pkg/token"
)

// TokenReader is a lazy lookahead stream over lexemes. Peek and Read see
// logical tokens: multi-word keyword phrases ("left outer join",
// "order by") are joined into a single token, matched greedily.
type TokenReader struct {
	input string
	next  func() Lexeme
	buf   []Lexeme
	last  Lexeme // most recently consumed raw lexeme
}

// NewTokenReader creates a reader over sql.
func NewTokenReader(sql string) *TokenReader {
	lx := NewLexer(sql)
	return &TokenReader{input: sql, next: lx.Next}
}

// newSliceReader reads a fixed lexeme run followed by eof.
func newSliceReader(input string, lexemes []Lexeme, eof Lexeme) *TokenReader {
	i := 0
	return &TokenReader{
		input: input,
		next: func() Lexeme {
			if i >= len(lexemes) {
				return eof
			}
			i++
			return lexemes[i-1]
		},
	}
}

// raw returns the i-th raw lexeme ahead without consuming it.
func (r *TokenReader) raw(i int) Lexeme {
	for len(r.buf) <= i {
		r.buf = append(r.buf, r.next())
	}
	return r.buf[i]
}

// advance consumes n raw lexemes.
func (r *TokenReader) advance(n int) {
	r.raw(n - 1)
	r.last = r.buf[n-1]
	r.buf = r.buf[n:]
}

// logicalAt returns the logical token starting at raw offset i and the
// number of raw lexemes it spans.
func (r *TokenReader) logicalAt(i int) (Lexeme, int) {
	head := r.raw(i)
	if head.Kind != Word {
		return head, 1
	}
	for _, phrase := range token.PhrasesStartingWith(head.Text) {
		matched := true
		for j := 1; j < len(phrase); j++ {
			w := r.raw(i + j)
			if w.Kind != Word || !strings.EqualFold(w.Text, phrase[j]) {
				matched = false
				break
			}
		}
		if matched {
			tail := r.raw(i + len(phrase) - 1)
			return Lexeme{Kind: Word, Text: strings.Join(phrase, " "), Pos: head.Pos, end: tail.end}, len(phrase)
		}
	}
	return head, 1
}

// Peek returns the next logical token without consuming it.
func (r *TokenReader) Peek() Lexeme {
	l, _ := r.logicalAt(0)
	return l
}

// PeekSecond returns the logical token after the next one.
func (r *TokenReader) PeekSecond() Lexeme {
	_, w := r.logicalAt(0)
	l, _ := r.logicalAt(w)
	return l
}

// Read consumes the next logical token. With candidates it fails unless
// the token matches one of them (case-insensitive, whitespace-insensitive).
// Reading past the end of input fails with an error wrapping
// ErrUnexpectedEOF.
func (r *TokenReader) Read(expect ...string) (Lexeme, error) {
	l, w := r.logicalAt(0)
	switch {
	case l.Kind == EOF:
		return l, unexpected(l, expectation(expect))
	case l.Kind == Illegal:
		return l, illegal(l)
	case len(expect) > 0 && !l.Is(expect...):
		return l, unexpected(l, expectation(expect))
	}
	r.advance(w)
	return l, nil
}

// TryRead consumes the next logical token if it matches one of candidates.
func (r *TokenReader) TryRead(candidates ...string) (Lexeme, bool) {
	l, w := r.logicalAt(0)
	if !l.Is(candidates...) {
		return l, false
	}
	r.advance(w)
	return l, true
}

// ReadIdentifier consumes a word or quoted identifier. Reserved words are
// accepted only when allowReserved is set.
func (r *TokenReader) ReadIdentifier(allowReserved bool) (Lexeme, error) {
	l := r.raw(0)
	if l.Kind == Quoted || (l.Kind == Word && (allowReserved || !token.IsReserved(l.Text))) {
		r.advance(1)
		return l, nil
	}
	return l, unexpected(l, "identifier")
}

// AtEOF reports whether the input is exhausted.
func (r *TokenReader) AtEOF() bool {
	return r.raw(0).Kind == EOF
}

// Bracket is the balanced content between an opening parenthesis and its
// matching close.
type Bracket struct {
	Text    string         // verbatim source between the brackets
	First   Lexeme         // first lexeme inside, EOF when empty
	Open    token.Position // position of "("
	lexemes []Lexeme
	input   string
	close   Lexeme
}

// Reader returns a TokenReader over the bracket content. Its end of input
// sits at the closing parenthesis.
func (b Bracket) Reader() *TokenReader {
	eof := Lexeme{Kind: EOF, Pos: b.close.Pos, end: b.close.Pos.Offset}
	return newSliceReader(b.input, b.lexemes, eof)
}

// Empty reports whether the brackets contain nothing.
func (b Bracket) Empty() bool {
	return len(b.lexemes) == 0
}

// ReadUntilCloseBracket consumes everything up to and including the
// parenthesis that balances an already consumed "(". Nesting is tracked
// with a depth counter; input ending first is an error.
func (r *TokenReader) ReadUntilCloseBracket() (Bracket, error) {
	open := r.last
	depth := 1
	var lexemes []Lexeme
	for {
		l := r.raw(0)
		if l.Kind == EOF {
			return Bracket{}, &ParseError{Pos: open.Pos, Message: errUnterminatedParen, Err: ErrUnexpectedEOF}
		}
		r.advance(1)
		if l.Kind == Symbol {
			switch l.Text {
			case "(":
				depth++
			case ")":
				depth--
			}
		}
		if depth == 0 {
			return r.bracket(open.Pos, lexemes, l), nil
		}
		lexemes = append(lexemes, l)
	}
}

// ReadUntil consumes logical tokens until the next one at bracket depth
// zero matches one of stops, or input ends. The stop token is not consumed.
// Without stops it reads to end of input.
func (r *TokenReader) ReadUntil(stops ...string) (Bracket, error) {
	start := r.raw(0)
	depth := 0
	var lexemes []Lexeme
	for {
		l, w := r.logicalAt(0)
		if l.Kind == EOF {
			if depth > 0 {
				return Bracket{}, &ParseError{Pos: l.Pos, Message: errUnterminatedParen, Err: ErrUnexpectedEOF}
			}
			return r.bracket(start.Pos, lexemes, l), nil
		}
		if depth == 0 && len(stops) > 0 && l.Is(stops...) {
			return r.bracket(start.Pos, lexemes, l), nil
		}
		for i := 0; i < w; i++ {
			lexemes = append(lexemes, r.raw(i))
		}
		r.advance(w)
		if l.Kind == Symbol {
			switch l.Text {
			case "(":
				depth++
			case ")":
				depth--
			}
		}
	}
}

func (r *TokenReader) bracket(open token.Position, lexemes []Lexeme, end Lexeme) Bracket {
	b := Bracket{Open: open, lexemes: lexemes, input: r.input, close: end}
	if len(lexemes) == 0 {
		b.First = Lexeme{Kind: EOF, Pos: end.Pos, end: end.Pos.Offset}
		return b
	}
	b.First = lexemes[0]
	b.Text = r.input[lexemes[0].Pos.Offset:lexemes[len(lexemes)-1].end]
	return b
}

func expectation(candidates []string) string {
	switch len(candidates) {
	case 0:
		return "more input"
	case 1:
		return "\"" + candidates[0] + "\""
	}
	quoted := make([]string, len(candidates))
	for i, c := range candidates {
		quoted[i] = "\"" + c + "\""
	}
	return strings.Join(quoted[:len(quoted)-1], ", ") + " or " + quoted[len(quoted)-1]
}
