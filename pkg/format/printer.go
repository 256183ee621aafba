// Package format renders core query models as formatted SQL text.
//
// Every node emits a pre-order token sequence whose parent links describe
// nesting. The CommandTextBuilder walks that sequence once, deriving each
// token's indentation level from its ancestors: a token sits one level
// deeper than its parent when the parent is flagged token.Indent.
package format

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/querykit/pkg/core"
	"github.com/leapstack-labs/querykit/pkg/token"
)

// Decorator rewrites the final text of a token, e.g. to add colour.
type Decorator func(t *token.Token, text string) string

// CommandTextBuilder renders token sequences. It holds no per-render state
// and may be shared across goroutines.
type CommandTextBuilder struct {
	opts     Options
	decorate Decorator
}

// NewCommandTextBuilder creates a builder with the given style.
func NewCommandTextBuilder(opts Options) *CommandTextBuilder {
	return &CommandTextBuilder{opts: opts}
}

// WithDecorator returns a copy of the builder that passes every token's text
// through d.
func (b *CommandTextBuilder) WithDecorator(d Decorator) *CommandTextBuilder {
	c := *b
	c.decorate = d
	return &c
}

// Options returns the builder's style.
func (b *CommandTextBuilder) Options() Options {
	return b.opts
}

// Build renders q and merges the parameters of q, its nested queries and
// its set-operator chain. A parameter bound to unequal values fails with a
// *core.ParameterConflictError.
func (b *CommandTextBuilder) Build(q core.Query) (*core.QueryCommand, error) {
	params, err := core.CollectParameters(q)
	if err != nil {
		return nil, err
	}
	return &core.QueryCommand{
		CommandText: b.Execute(q.Tokens(nil)),
		Parameters:  params,
	}, nil
}

// Render renders a single node.
func (b *CommandTextBuilder) Render(n core.Node) string {
	return b.Execute(n.Tokens(nil))
}

// Execute renders a token sequence.
func (b *CommandTextBuilder) Execute(tokens []*token.Token) string {
	p := newPrinter(b.opts, b.decorate)
	for _, t := range tokens {
		p.emit(t)
	}
	return p.String()
}

// printer is the state of one Execute call.
type printer struct {
	opts     Options
	decorate Decorator
	caser    cases.Caser
	out      strings.Builder
	levels   map[*token.Token]int
	indents  map[int]string
	prev     *token.Token
	pending  bool // break before the next token
}

func newPrinter(opts Options, d Decorator) *printer {
	p := &printer{
		opts:     opts,
		decorate: d,
		levels:   make(map[*token.Token]int),
		indents:  make(map[int]string),
	}
	switch opts.KeywordCase {
	case KeywordUpper:
		p.caser = cases.Upper(language.Und)
	case KeywordLower:
		p.caser = cases.Lower(language.Und)
	}
	return p
}

// String returns the formatted output.
func (p *printer) String() string {
	return p.out.String()
}

// level returns the indentation level of t.
func (p *printer) level(t *token.Token) int {
	if t == nil || t.Parent == nil {
		return 0
	}
	if l, ok := p.levels[t]; ok {
		return l
	}
	l := p.level(t.Parent)
	if t.Parent.Has(token.Indent) {
		l++
	}
	p.levels[t] = l
	return l
}

// blockComma reports whether t separates the items of an indented list.
func blockComma(t *token.Token) bool {
	return t.IsComma() && t.Parent != nil && t.Parent.Has(token.Indent)
}

func (p *printer) emit(t *token.Token) {
	lvl := p.level(t)
	leading := blockComma(t) && p.opts.CommaStyle == CommaLeading

	switch {
	case p.prev == nil:
		p.writeIndent(lvl)
	case p.pending || leading || t.Has(token.BreakBefore) || lvl != p.level(p.prev):
		p.newline()
		p.writeIndent(lvl)
	case p.needsSpace(t):
		p.out.WriteByte(' ')
	}
	p.pending = blockComma(t) && p.opts.CommaStyle == CommaTrailing

	p.out.WriteString(p.text(t))
	p.prev = t
}

// needsSpace reports whether a space separates prev and t on one line.
func (p *printer) needsSpace(t *token.Token) bool {
	if t.Has(token.NoSpaceBefore) || p.prev.Has(token.NoSpaceAfter) {
		return false
	}
	switch t.Text {
	case ",", ")", ".":
		return false
	}
	switch p.prev.Text {
	case "(", ".":
		return false
	}
	return true
}

func (p *printer) text(t *token.Token) string {
	text := t.Text
	if t.Reserved && p.opts.KeywordCase != KeywordPreserve {
		text = p.caser.String(text)
	}
	if p.decorate != nil {
		text = p.decorate(t, text)
	}
	return text
}

func (p *printer) newline() {
	p.out.WriteByte('\n')
}

func (p *printer) writeIndent(level int) {
	if level <= 0 {
		return
	}
	s, ok := p.indents[level]
	if !ok {
		s = strings.Repeat(" ", level*p.opts.indentSize())
		p.indents[level] = s
	}
	p.out.WriteString(s)
}
