package parser

import (
	"github.com/leapstack-labs/querykit/pkg/core"
)

// Query grammar:
//
//	statement → [with_clause] (select | values) tail
//	select    → SELECT items [FROM ...] [WHERE ...] [GROUP BY ...]
//	            [HAVING ...] [WINDOW name AS (spec) [, ...]]
//	with      → WITH [RECURSIVE] cte [, cte]...
//	cte       → name [(column_list)] AS [[NOT] MATERIALIZED] ( statement )
//	tail      → [ORDER BY sort_list] [LIMIT value [OFFSET value]]
//	            [set_op statement]
//
// Set operators chain right-recursively like value operators.

// parseQuery parses a complete statement including its set-operator chain.
func (p *Parser) parseQuery() (core.Query, error) {
	var with *core.WithClause
	if p.r.Peek().Is("with") {
		w, err := p.parseWithClause()
		if err != nil {
			return nil, err
		}
		with = w
	}

	var q core.Query
	switch l := p.r.Peek(); {
	case l.Is("select"):
		sq, err := p.parseSelectBody()
		if err != nil {
			return nil, err
		}
		sq.With = with
		q = sq
	case l.Is("values"):
		vq, err := p.parseValuesBody()
		if err != nil {
			return nil, err
		}
		q = vq
		if with != nil {
			q = core.NewCTEQuery(with, vq)
		}
	default:
		return nil, unexpected(l, "\"select\" or \"values\"")
	}

	if err := p.parseQueryTail(q.Base()); err != nil {
		return nil, err
	}
	return q, nil
}

// parseQueryTail parses ORDER BY, LIMIT and the set-operator continuation.
func (p *Parser) parseQueryTail(b *core.QueryBase) error {
	if _, ok := p.r.TryRead("order by"); ok {
		items, err := p.parseSortList()
		if err != nil {
			return err
		}
		b.Order = &core.OrderClause{Items: items}
	}
	if _, ok := p.r.TryRead("limit"); ok {
		limit, err := p.parseValueCore(true)
		if err != nil {
			return err
		}
		b.Limit = &core.LimitClause{Limit: limit}
		if _, ok := p.r.TryRead("offset"); ok {
			offset, err := p.parseValueCore(true)
			if err != nil {
				return err
			}
			b.Limit.Offset = offset
		}
	}

	l := p.r.Peek()
	if l.Kind != Word {
		return nil
	}
	op, ok := core.ParseSetOperator(l.Text)
	if !ok {
		return nil
	}
	p.r.advance(p.width())
	next, err := p.parseQuery()
	if err != nil {
		return err
	}
	if err := b.AddOperatableQuery(op, next); err != nil {
		return &ParseError{Pos: l.Pos, Message: err.Error(), Err: err}
	}
	return nil
}

// ---------- SELECT ----------

// parseSelectBody parses SELECT through WINDOW.
func (p *Parser) parseSelectBody() (*core.SelectQuery, error) {
	sel, err := p.parseSelectClause()
	if err != nil {
		return nil, err
	}
	q := &core.SelectQuery{Select: sel}

	if p.r.Peek().Is("from") {
		if q.From, err = p.parseFromClause(); err != nil {
			return nil, err
		}
	}
	if _, ok := p.r.TryRead("where"); ok {
		cond, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		q.Where = &core.WhereClause{Condition: cond}
	}
	if _, ok := p.r.TryRead("group by"); ok {
		items, err := p.parseValueList()
		if err != nil {
			return nil, err
		}
		q.Group = &core.GroupClause{Items: items}
	}
	if _, ok := p.r.TryRead("having"); ok {
		cond, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		q.Having = &core.HavingClause{Condition: cond}
	}
	if _, ok := p.r.TryRead("window"); ok {
		if q.Window, err = p.parseWindowClause(); err != nil {
			return nil, err
		}
	}
	return q, nil
}

// parseWindowClause parses name AS (spec) [, name AS (spec)]... after WINDOW.
func (p *Parser) parseWindowClause() (*core.WindowClause, error) {
	c := &core.WindowClause{}
	for {
		name, err := p.r.ReadIdentifier(false)
		if err != nil {
			return nil, err
		}
		if _, err := p.r.Read("as"); err != nil {
			return nil, err
		}
		if !p.r.Peek().Is("(") {
			return nil, unexpected(p.r.Peek(), "\"(\"")
		}
		def, err := p.parseWindow()
		if err != nil {
			return nil, err
		}
		c.Windows = append(c.Windows, &core.NamedWindow{Name: name.Text, Definition: def})
		if _, ok := p.r.TryRead(","); !ok {
			return c, nil
		}
	}
}

// parseSelectClause parses SELECT [DISTINCT] [TOP value] item_list.
func (p *Parser) parseSelectClause() (*core.SelectClause, error) {
	if _, err := p.r.Read("select"); err != nil {
		return nil, err
	}
	c := &core.SelectClause{}
	if _, ok := p.r.TryRead("distinct"); ok {
		c.Distinct = true
	} else {
		p.r.TryRead("all")
	}
	if _, ok := p.r.TryRead("top"); ok {
		top, err := p.parseValueCore(true)
		if err != nil {
			return nil, err
		}
		c.Top = top
	}
	for {
		item, err := p.parseSelectItem()
		if err != nil {
			return nil, err
		}
		c.Items = append(c.Items, item)
		if _, ok := p.r.TryRead(","); !ok {
			return c, nil
		}
	}
}

// parseSelectItem parses value [[AS] alias]. Without an alias the value's
// default name is used.
func (p *Parser) parseSelectItem() (*core.SelectableItem, error) {
	v, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	alias, err := p.parseAlias()
	if err != nil {
		return nil, err
	}
	return core.NewSelectableItem(v, alias), nil
}

// ---------- VALUES ----------

// parseValuesBody parses VALUES (row) [, (row)]...
func (p *Parser) parseValuesBody() (*core.ValuesQuery, error) {
	if _, err := p.r.Read("values"); err != nil {
		return nil, err
	}
	q := &core.ValuesQuery{}
	for {
		b, err := p.readBracket()
		if err != nil {
			return nil, err
		}
		if b.Empty() {
			return nil, &ParseError{Pos: b.Open, Message: errEmptyBrackets}
		}
		items, err := p.parseBracketValues(b)
		if err != nil {
			return nil, err
		}
		q.Rows = append(q.Rows, core.NewValueCollection(items...))
		if _, ok := p.r.TryRead(","); !ok {
			return q, nil
		}
	}
}

// ---------- WITH ----------

// parseWithClause parses WITH [RECURSIVE] cte [, cte]...
func (p *Parser) parseWithClause() (*core.WithClause, error) {
	if _, err := p.r.Read("with"); err != nil {
		return nil, err
	}
	w := &core.WithClause{}
	if _, ok := p.r.TryRead("recursive"); ok {
		w.Recursive = true
	}
	for {
		ct, err := p.parseCommonTable()
		if err != nil {
			return nil, err
		}
		w.CommonTables = append(w.CommonTables, ct)
		if _, ok := p.r.TryRead(","); !ok {
			return w, nil
		}
	}
}

// parseCommonTable parses name [(columns)] AS [[NOT] MATERIALIZED] (query).
func (p *Parser) parseCommonTable() (*core.CommonTable, error) {
	name, err := p.r.ReadIdentifier(false)
	if err != nil {
		return nil, err
	}
	ct := &core.CommonTable{Name: name.Text}
	if p.r.Peek().Is("(") {
		b, err := p.readBracket()
		if err != nil {
			return nil, err
		}
		cols, err := p.sub(b).parseIdentifierList()
		if err != nil {
			return nil, err
		}
		ct.ColumnAliases = cols
	}
	if _, err := p.r.Read("as"); err != nil {
		return nil, err
	}
	if l, ok := p.r.TryRead("materialized", "not materialized"); ok {
		ct.Materialized = core.Materialized
		if l.Is("not materialized") {
			ct.Materialized = core.NotMaterialized
		}
	}
	b, err := p.readBracket()
	if err != nil {
		return nil, err
	}
	if !b.First.Is("select", "values", "with") {
		return nil, &UnsupportedError{Pos: b.First.Pos, Construct: "common table body starting with " + b.First.describe()}
	}
	q, err := p.parseBracketQuery(b)
	if err != nil {
		return nil, err
	}
	ct.Query = q
	return ct, nil
}
