// Package parser turns SQL text into the query model of package core.
//
// # Usage
//
//	q, err := parser.Parse("SELECT a.id FROM t AS a WHERE a.val = 1")
//	if err != nil {
//	    // handle error
//	}
//
// # Grammar Overview
//
// The parser is a recursive descent parser over a TokenReader for a
// practical subset of SQL:
//
//	statement   → [WITH cte_list] (select | values) tail
//	select      → SELECT [DISTINCT] [TOP value] item_list
//	              [FROM from_clause] [WHERE value] [GROUP BY value_list]
//	              [HAVING value] [WINDOW window_list]
//	values      → VALUES (value_list) [, (value_list)]...
//	tail        → [ORDER BY sort_list] [LIMIT value [OFFSET value]]
//	              [(UNION|INTERSECT|EXCEPT) [ALL] statement]
//	value       → primary {postfix} [operator value]
//
// Binary operators chain right-associatively with no precedence: grouping
// comes only from brackets in the source. Bracketed spans are read whole
// with ReadUntilCloseBracket and parsed by a sub-parser.
//
// See each file for detailed grammar rules for that section.
package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/querykit/pkg/core"
)

// Options tunes parsing.
type Options struct {
	// Strict rejects reserved words and stray symbols where a value is
	// expected instead of reading them as bare column references.
	Strict bool
}

// Parser parses SQL into core nodes.
type Parser struct {
	r    *TokenReader
	opts Options
}

// NewParser creates a new parser for the given SQL input.
func NewParser(sql string, opts Options) *Parser {
	return &Parser{r: NewTokenReader(sql), opts: opts}
}

// sub returns a parser over the content of b.
func (p *Parser) sub(b Bracket) *Parser {
	return &Parser{r: b.Reader(), opts: p.opts}
}

// Parse parses a SELECT, VALUES or WITH statement.
func Parse(sql string) (core.Query, error) {
	return ParseWithOptions(sql, Options{})
}

// ParseWithOptions parses a statement with explicit options.
func ParseWithOptions(sql string, opts Options) (core.Query, error) {
	p := NewParser(sql, opts)
	q, err := p.parseQuery()
	if err != nil {
		return nil, err
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	return q, nil
}

// ParseSelectQuery parses a statement that must be a SELECT.
func ParseSelectQuery(sql string) (*core.SelectQuery, error) {
	q, err := Parse(sql)
	if err != nil {
		return nil, err
	}
	sq, ok := q.(*core.SelectQuery)
	if !ok {
		return nil, &ParseError{Message: fmt.Sprintf("expected a SELECT statement, got %T", q)}
	}
	return sq, nil
}

// ParseValuesQuery parses a statement that must be a VALUES list.
func ParseValuesQuery(sql string) (*core.ValuesQuery, error) {
	q, err := Parse(sql)
	if err != nil {
		return nil, err
	}
	vq, ok := q.(*core.ValuesQuery)
	if !ok {
		return nil, &ParseError{Message: fmt.Sprintf("expected a VALUES statement, got %T", q)}
	}
	return vq, nil
}

// ParseValue parses a single expression.
func ParseValue(sql string) (core.Value, error) {
	p := NewParser(sql, Options{})
	v, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	return v, nil
}

// SplitStatements splits sql after each semicolon that is outside quotes,
// comments and brackets. Statements keep their semicolon and empty ones are
// dropped. rest is the text after the last split.
func SplitStatements(sql string) (statements []string, rest string) {
	depth, start := 0, 0
	for _, l := range Tokenize(sql) {
		if l.Kind != Symbol {
			continue
		}
		switch l.Text {
		case "(":
			depth++
		case ")":
			if depth > 0 {
				depth--
			}
		case ";":
			if depth > 0 {
				continue
			}
			if stmt := strings.TrimSpace(sql[start:l.End()]); stmt != ";" {
				statements = append(statements, stmt)
			}
			start = l.End()
		}
	}
	return statements, sql[start:]
}

// finish accepts an optional trailing semicolon and requires end of input.
func (p *Parser) finish() error {
	p.r.TryRead(";")
	return p.expectEOF()
}

// expectEOF fails if tokens remain.
func (p *Parser) expectEOF() error {
	if l := p.r.Peek(); l.Kind != EOF {
		if l.Kind == Illegal {
			return illegal(l)
		}
		return &ParseError{Pos: l.Pos, Message: fmt.Sprintf(errUnexpectedTrailing, l.describe())}
	}
	return nil
}

// readBracket consumes "(" and its balanced content.
func (p *Parser) readBracket() (Bracket, error) {
	if _, err := p.r.Read("("); err != nil {
		return Bracket{}, err
	}
	return p.r.ReadUntilCloseBracket()
}

// startsQuery reports whether a bracket holds a query.
func startsQuery(b Bracket) bool {
	return b.First.Is("select", "with", "values")
}

// parseBracketQuery parses the whole content of b as a query.
func (p *Parser) parseBracketQuery(b Bracket) (core.Query, error) {
	sub := p.sub(b)
	q, err := sub.parseQuery()
	if err != nil {
		return nil, err
	}
	if err := sub.expectEOF(); err != nil {
		return nil, err
	}
	return q, nil
}

// parseBracketValues parses the whole content of b as a comma-separated
// value list.
func (p *Parser) parseBracketValues(b Bracket) ([]core.Value, error) {
	if b.Empty() {
		return nil, nil
	}
	sub := p.sub(b)
	values, err := sub.parseValueList()
	if err != nil {
		return nil, err
	}
	if err := sub.expectEOF(); err != nil {
		return nil, err
	}
	return values, nil
}

// parseIdentifierList parses name [, name]... up to end of input.
func (p *Parser) parseIdentifierList() ([]string, error) {
	var names []string
	for {
		l, err := p.r.ReadIdentifier(true)
		if err != nil {
			return nil, err
		}
		names = append(names, l.Text)
		if _, ok := p.r.TryRead(","); !ok {
			return names, p.expectEOF()
		}
	}
}
