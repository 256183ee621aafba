package parser

import (
	"github.com/leapstack-labs/querykit/pkg/core"
)

// Function grammar:
//
//	function → name ( [DISTINCT] [* | value_list] ) [OVER (window) | OVER name]
//	window   → [PARTITION BY value_list] [ORDER BY sort_list] [frame]
//
// PARTITION BY and ORDER BY may appear in either order. The frame clause
// (ROWS/RANGE/GROUPS ...) is kept verbatim.

// parseFunction parses a function call and its optional window.
func (p *Parser) parseFunction() (core.Value, error) {
	name, err := p.r.Read()
	if err != nil {
		return nil, err
	}
	b, err := p.readBracket()
	if err != nil {
		return nil, err
	}
	fn := &core.FunctionValue{Name: name.Text}

	sub := p.sub(b)
	if _, ok := sub.r.TryRead("distinct"); ok {
		fn.Distinct = true
	}
	if !sub.r.AtEOF() {
		args, err := sub.parseValueList()
		if err != nil {
			return nil, err
		}
		fn.Arguments = args
	}
	if err := sub.expectEOF(); err != nil {
		return nil, err
	}

	if _, ok := p.r.TryRead("over"); ok {
		w, err := p.parseWindow()
		if err != nil {
			return nil, err
		}
		fn.Over = w
	}
	return fn, nil
}

// parseWindow parses the specification after OVER.
func (p *Parser) parseWindow() (*core.WindowDefinition, error) {
	w := &core.WindowDefinition{}
	if !p.r.Peek().Is("(") {
		name, err := p.r.ReadIdentifier(false)
		if err != nil {
			return nil, err
		}
		w.Name = name.Text
		return w, nil
	}

	b, err := p.readBracket()
	if err != nil {
		return nil, err
	}
	sub := p.sub(b)
	for !sub.r.AtEOF() {
		switch {
		case sub.r.Peek().Is("partition by") && w.PartitionBy == nil:
			sub.r.advance(sub.width())
			values, err := sub.parseValueList()
			if err != nil {
				return nil, err
			}
			w.PartitionBy = values
		case sub.r.Peek().Is("order by") && w.OrderBy == nil:
			sub.r.advance(sub.width())
			items, err := sub.parseSortList()
			if err != nil {
				return nil, err
			}
			w.OrderBy = items
		default:
			frame, err := sub.r.ReadUntil()
			if err != nil {
				return nil, err
			}
			w.Frame = frame.Text
		}
	}
	return w, nil
}

// parseSortList parses sort_item [, sort_item]...
//
//	sort_item → value [ASC|DESC] [NULLS FIRST|NULLS LAST]
func (p *Parser) parseSortList() ([]*core.SortableItem, error) {
	var items []*core.SortableItem
	for {
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		item := &core.SortableItem{Value: v}
		if l, ok := p.r.TryRead("asc", "desc"); ok {
			if l.Is("asc") {
				item.Sort = core.SortAsc
			} else {
				item.Sort = core.SortDesc
			}
		}
		if l, ok := p.r.TryRead("nulls first", "nulls last"); ok {
			item.Nulls = core.NullsLast
			if l.Is("nulls first") {
				item.Nulls = core.NullsFirst
			}
		}
		items = append(items, item)
		if _, ok := p.r.TryRead(","); !ok {
			return items, nil
		}
	}
}
