package parser

import (
	"fmt"

	"github.com/leapstack-labs/querykit/pkg/core"
	"github.com/leapstack-labs/querykit/pkg/token"
)

// FROM grammar:
//
//	from_clause → FROM table_ref {relation}
//	relation    → join_type table_ref [ON value] | , table_ref
//	join_type   → [INNER] JOIN | LEFT [OUTER] JOIN | RIGHT [OUTER] JOIN
//	            | FULL [OUTER] JOIN | CROSS JOIN
//	table_ref   → table [[AS] alias [(column_list)]]
//	table       → LATERAL ( query ) | ( query ) | name ( value_list )
//	            | [schema .] name

// parseFromClause parses FROM and its relations.
func (p *Parser) parseFromClause() (*core.FromClause, error) {
	if _, err := p.r.Read("from"); err != nil {
		return nil, err
	}
	root, err := p.parseSelectableTable()
	if err != nil {
		return nil, err
	}
	from := &core.FromClause{Root: root}
	for {
		next := p.r.Peek()
		if next.Kind != Word && next.Kind != Symbol {
			return from, nil
		}
		jt, ok := core.ParseJoinType(next.Text)
		if !ok {
			return from, nil
		}
		p.r.advance(p.width())
		rel, err := p.parseRelation(jt)
		if err != nil {
			return nil, err
		}
		from.Relations = append(from.Relations, rel)
	}
}

// parseRelation parses the table and condition after a join keyword.
func (p *Parser) parseRelation(jt core.JoinType) (*core.Relation, error) {
	t, err := p.parseSelectableTable()
	if err != nil {
		return nil, err
	}
	rel := &core.Relation{JoinType: jt, Table: t}
	if !jt.RequiresCondition() {
		return rel, nil
	}
	if _, err := p.r.Read("on"); err != nil {
		return nil, err
	}
	cond, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	rel.Condition = cond
	return rel, nil
}

// parseSelectableTable parses a table with its optional alias and column
// aliases.
func (p *Parser) parseSelectableTable() (*core.SelectableTable, error) {
	t, err := p.parseTable()
	if err != nil {
		return nil, err
	}
	st := &core.SelectableTable{Table: t}

	alias, err := p.parseAlias()
	if err != nil {
		return nil, err
	}
	st.Alias = alias
	if alias != "" && p.r.Peek().Is("(") {
		b, err := p.readBracket()
		if err != nil {
			return nil, err
		}
		cols, err := p.sub(b).parseIdentifierList()
		if err != nil {
			return nil, err
		}
		st.ColumnAliases = cols
	}
	return st, nil
}

// parseAlias parses AS name, or an implicit non-reserved name. It returns
// "" when no alias follows.
func (p *Parser) parseAlias() (string, error) {
	if _, ok := p.r.TryRead("as"); ok {
		l, err := p.r.ReadIdentifier(true)
		if err != nil {
			return "", err
		}
		return l.Text, nil
	}
	if l := p.r.Peek(); l.IsIdentifier() {
		p.r.advance(1)
		return l.Text, nil
	}
	return "", nil
}

// parseTable dispatches on the leading token.
func (p *Parser) parseTable() (core.Table, error) {
	l := p.r.Peek()
	switch {
	case l.Is("lateral"):
		p.r.advance(1)
		b, err := p.readBracket()
		if err != nil {
			return nil, err
		}
		if !b.First.Is("select", "with") {
			return nil, &UnsupportedError{Pos: b.First.Pos, Construct: "LATERAL over " + b.First.describe()}
		}
		q, err := p.parseBracketQuery(b)
		if err != nil {
			return nil, err
		}
		return &core.LateralTable{Table: &core.VirtualTable{Query: q}}, nil

	case l.Is("("):
		b, err := p.readBracket()
		if err != nil {
			return nil, err
		}
		if !startsQuery(b) {
			return nil, &UnsupportedError{Pos: b.First.Pos, Construct: "table expression starting with " + b.First.describe()}
		}
		q, err := p.parseBracketQuery(b)
		if err != nil {
			return nil, err
		}
		return &core.VirtualTable{Query: q}, nil

	case l.Kind == Word || l.Kind == Quoted:
		if l.Kind == Word && token.IsReserved(l.Text) && (p.opts.Strict || token.Normalize(l.Text) == "select") {
			return nil, &ParseError{Pos: l.Pos, Message: fmt.Sprintf(errUnexpectedToken, l.describe(), "table")}
		}
		p.r.advance(1)
		name := l.Text
		if _, ok := p.r.TryRead("."); ok {
			tbl, err := p.r.ReadIdentifier(true)
			if err != nil {
				return nil, err
			}
			return core.NewPhysicalTable(name, tbl.Text), nil
		}
		if p.r.Peek().Is("(") {
			b, err := p.readBracket()
			if err != nil {
				return nil, err
			}
			args, err := p.parseBracketValues(b)
			if err != nil {
				return nil, err
			}
			return &core.FunctionTable{Name: name, Arguments: args}, nil
		}
		return core.NewPhysicalTable("", name), nil
	}
	return nil, unexpected(l, "table")
}
