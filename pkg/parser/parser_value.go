package parser

import (
	"fmt"

	"github.com/leapstack-labs/querykit/pkg/core"
	"github.com/leapstack-labs/querykit/pkg/token"
)

// Value grammar:
//
//	value    → core [operator value]
//	core     → primary {postfix}
//	postfix  → [NOT] BETWEEN value AND value
//	         | [NOT] LIKE core
//	         | [NOT] IN ( value_list | query )
//	         | :: type
//	primary  → literal | parameter | NOT value | (+|-|~) core
//	         | ( query ) | ( value [, value]... )
//	         | CASE ... END | EXISTS ( query ) | CAST ( value AS type )
//	         | name ( [DISTINCT] args ) [OVER window]
//	         | name . name | name | *

// functionKeywords are reserved words that may still name a function.
var functionKeywords = map[string]bool{
	"left":  true,
	"right": true,
}

// clauseKeywords open or continue a clause. They never read as a column,
// even in permissive mode.
var clauseKeywords = map[string]bool{
	"select": true, "from": true, "where": true, "group by": true,
	"having": true, "window": true, "order by": true, "limit": true,
	"offset": true, "on": true,
	"union": true, "union all": true, "intersect": true, "intersect all": true,
	"except": true, "except all": true,
	"join": true, "inner join": true, "cross join": true,
	"left join": true, "left outer join": true,
	"right join": true, "right outer join": true,
	"full join": true, "full outer join": true,
}

// parseValue parses a full expression including AND/OR chains.
func (p *Parser) parseValue() (core.Value, error) {
	return p.parseValueChain(false)
}

// parseValueChain parses a value and its right-recursive operator chain.
// With stopAtLogical the chain ends before AND/OR, which is how BETWEEN
// bounds are delimited.
func (p *Parser) parseValueChain(stopAtLogical bool) (core.Value, error) {
	v, err := p.parseValueCore(stopAtLogical)
	if err != nil {
		return nil, err
	}
	op := p.r.Peek()
	if !isBinaryOperator(op) || (stopAtLogical && token.IsLogicalOperator(op.Text)) {
		return v, nil
	}
	p.r.advance(p.width())
	right, err := p.parseValueChain(stopAtLogical)
	if err != nil {
		return nil, err
	}
	if err := v.Base().AddOperatableValue(op.Text, right); err != nil {
		return nil, &ParseError{Pos: op.Pos, Message: err.Error(), Err: err}
	}
	return v, nil
}

func (p *Parser) width() int {
	_, w := p.r.logicalAt(0)
	return w
}

func isBinaryOperator(l Lexeme) bool {
	return (l.Kind == Symbol || l.Kind == Word) && token.IsOperator(l.Text)
}

// parseValueCore parses a primary value and its postfix predicates.
func (p *Parser) parseValueCore(stopAtLogical bool) (core.Value, error) {
	v, err := p.parsePrimary(stopAtLogical)
	if err != nil {
		return nil, err
	}
	for {
		next := p.r.Peek()
		switch {
		case next.Is("between", "not between"):
			p.r.advance(p.width())
			v, err = p.parseBetween(v, next.Is("not between"))
		case next.Is("like", "not like"):
			p.r.advance(p.width())
			var pattern core.Value
			if pattern, err = p.parseValueCore(true); err == nil {
				v = &core.LikeClause{Value: v, Pattern: pattern, Negative: next.Is("not like")}
			}
		case next.Is("in", "not in"):
			p.r.advance(p.width())
			v, err = p.parseIn(v, next.Is("not in"))
		case next.Is("::"):
			p.r.advance(1)
			err = p.parseSuffix(v)
		default:
			return v, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func (p *Parser) parseBetween(v core.Value, negative bool) (core.Value, error) {
	start, err := p.parseValueChain(true)
	if err != nil {
		return nil, err
	}
	if _, err := p.r.Read("and"); err != nil {
		return nil, err
	}
	end, err := p.parseValueChain(true)
	if err != nil {
		return nil, err
	}
	return &core.BetweenClause{Value: v, Start: start, End: end, Negative: negative}, nil
}

func (p *Parser) parseIn(v core.Value, negative bool) (core.Value, error) {
	b, err := p.readBracket()
	if err != nil {
		return nil, err
	}
	if startsQuery(b) {
		q, err := p.parseBracketQuery(b)
		if err != nil {
			return nil, err
		}
		return &core.InClause{Value: v, Negative: negative, Argument: &core.InlineQuery{Query: q}}, nil
	}
	if b.Empty() {
		return nil, &ParseError{Pos: b.Open, Message: errEmptyBrackets}
	}
	items, err := p.parseBracketValues(b)
	if err != nil {
		return nil, err
	}
	in := core.NewInList(v, items...)
	in.Negative = negative
	return in, nil
}

// parseSuffix reads the type after "::", including a bracketed modifier
// such as varchar(10), and appends it verbatim to the value's suffix.
func (p *Parser) parseSuffix(v core.Value) error {
	name, err := p.r.ReadIdentifier(true)
	if err != nil {
		return err
	}
	suffix := "::" + name.Text
	if p.r.Peek().Is("(") {
		b, err := p.readBracket()
		if err != nil {
			return err
		}
		suffix += "(" + b.Text + ")"
	}
	v.Base().Suffix += suffix
	return nil
}

// parsePrimary parses one primary value.
func (p *Parser) parsePrimary(stopAtLogical bool) (core.Value, error) {
	l := p.r.Peek()
	switch l.Kind {
	case EOF:
		return nil, unexpected(l, "value")
	case Illegal:
		return nil, illegal(l)
	case Number, String:
		p.r.advance(1)
		return core.NewLiteral(l.Text), nil
	case Parameter:
		p.r.advance(1)
		return core.NewParameter(l.Text), nil
	case Quoted:
		return p.parseColumn()
	case Symbol:
		return p.parseSymbolPrimary(l, stopAtLogical)
	}

	switch {
	case l.Is("true", "false", "null"):
		p.r.advance(1)
		return core.NewLiteral(l.Text), nil
	case l.Is("not"):
		p.r.advance(1)
		inner, err := p.parseValueChain(stopAtLogical)
		if err != nil {
			return nil, err
		}
		return &core.NegativeValue{Inner: inner}, nil
	case l.Is("case"):
		return p.parseCase()
	case l.Is("exists"):
		return p.parseExists()
	case l.Is("cast") && p.r.PeekSecond().Is("("):
		return p.parseCast()
	case clauseKeywords[token.Normalize(l.Text)]:
		return nil, &ParseError{Pos: l.Pos, Message: fmt.Sprintf(errReservedWord, l.describe())}
	case p.r.PeekSecond().Is("(") && (!token.IsReserved(l.Text) || functionKeywords[token.Normalize(l.Text)]):
		return p.parseFunction()
	case token.IsReserved(l.Text) && p.opts.Strict:
		return nil, &ParseError{Pos: l.Pos, Message: fmt.Sprintf(errReservedWord, l.describe())}
	}
	// Anything else reads as a column reference.
	return p.parseColumn()
}

func (p *Parser) parseSymbolPrimary(l Lexeme, stopAtLogical bool) (core.Value, error) {
	switch l.Text {
	case "(":
		return p.parseBracketValue()
	case "*":
		p.r.advance(1)
		return core.NewColumn("", "*"), nil
	case "-", "+", "~":
		p.r.advance(1)
		inner, err := p.parseValueCore(stopAtLogical)
		if err != nil {
			return nil, err
		}
		return &core.UnaryValue{Operator: l.Text, Inner: inner}, nil
	}
	return nil, unexpected(l, "value")
}

// parseBracketValue parses "(" ... ")" as a sub-query, a bracketed
// expression or a row constructor.
func (p *Parser) parseBracketValue() (core.Value, error) {
	b, err := p.readBracket()
	if err != nil {
		return nil, err
	}
	if startsQuery(b) {
		q, err := p.parseBracketQuery(b)
		if err != nil {
			return nil, err
		}
		return &core.InlineQuery{Query: q}, nil
	}
	if b.Empty() {
		return nil, &ParseError{Pos: b.Open, Message: errEmptyBrackets}
	}
	items, err := p.parseBracketValues(b)
	if err != nil {
		return nil, err
	}
	if len(items) == 1 {
		return &core.BracketValue{Inner: items[0]}, nil
	}
	return &core.BracketValue{Inner: core.NewValueCollection(items...)}, nil
}

// parseColumn parses name, alias.name or alias.*.
func (p *Parser) parseColumn() (core.Value, error) {
	first, err := p.r.Read()
	if err != nil {
		return nil, err
	}
	if first.Kind != Word && first.Kind != Quoted {
		return nil, unexpected(first, "column")
	}
	if _, ok := p.r.TryRead("."); !ok {
		return core.NewColumn("", first.Text), nil
	}
	if _, ok := p.r.TryRead("*"); ok {
		return core.NewColumn(first.Text, "*"), nil
	}
	col, err := p.r.ReadIdentifier(true)
	if err != nil {
		return nil, err
	}
	return core.NewColumn(first.Text, col.Text), nil
}

// parseValueList parses value [, value]...
func (p *Parser) parseValueList() ([]core.Value, error) {
	var values []core.Value
	for {
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
		if _, ok := p.r.TryRead(","); !ok {
			return values, nil
		}
	}
}

// ---------- CASE / EXISTS / CAST ----------

// parseCase parses CASE [value] WHEN value THEN value ... [ELSE value] END.
func (p *Parser) parseCase() (core.Value, error) {
	if _, err := p.r.Read("case"); err != nil {
		return nil, err
	}
	c := &core.CaseExpression{}
	if !p.r.Peek().Is("when") {
		cond, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		c.Condition = cond
	}
	for {
		if _, ok := p.r.TryRead("when"); !ok {
			break
		}
		cond, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		if _, err := p.r.Read("then"); err != nil {
			return nil, err
		}
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		c.Whens = append(c.Whens, &core.WhenExpression{Condition: cond, Value: val})
	}
	if len(c.Whens) == 0 {
		return nil, unexpected(p.r.Peek(), "\"when\"")
	}
	if _, ok := p.r.TryRead("else"); ok {
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		c.Else = v
	}
	if _, err := p.r.Read("end"); err != nil {
		return nil, err
	}
	return c, nil
}

// parseExists parses EXISTS (query).
func (p *Parser) parseExists() (core.Value, error) {
	if _, err := p.r.Read("exists"); err != nil {
		return nil, err
	}
	b, err := p.readBracket()
	if err != nil {
		return nil, err
	}
	if !b.First.Is("select", "with") {
		return nil, &UnsupportedError{Pos: b.First.Pos, Construct: "EXISTS over " + b.First.describe()}
	}
	q, err := p.parseBracketQuery(b)
	if err != nil {
		return nil, err
	}
	return &core.ExistsExpression{Query: q}, nil
}

// parseCast parses CAST(value AS type).
func (p *Parser) parseCast() (core.Value, error) {
	if _, err := p.r.Read("cast"); err != nil {
		return nil, err
	}
	b, err := p.readBracket()
	if err != nil {
		return nil, err
	}
	sub := p.sub(b)
	inner, err := sub.parseValue()
	if err != nil {
		return nil, err
	}
	if _, err := sub.r.Read("as"); err != nil {
		return nil, err
	}
	typ, err := sub.r.ReadUntil()
	if err != nil {
		return nil, err
	}
	if typ.Empty() {
		return nil, unexpected(sub.r.Peek(), "type name")
	}
	return &core.CastValue{Inner: inner, Type: typ.Text}, nil
}
