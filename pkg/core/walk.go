package core

// Walk traverses the AST depth-first and calls fn for each node, parent
// before children. If fn returns false, the children of that node are
// skipped.
func Walk(node any, fn func(node any) bool) {
	if isNil(node) {
		return
	}
	if !fn(node) {
		return
	}
	walkNode(node, fn)
}

func walkNode(node any, fn func(node any) bool) {
	// Value suffix/chains are walked for every value kind.
	if v, ok := node.(Value); ok {
		defer func() {
			if next := v.Base().Next; next != nil {
				Walk(next.Value, fn)
			}
		}()
	}

	switch n := node.(type) {
	// Queries
	case *SelectQuery:
		walkQueryHead(&n.QueryBase, fn)
		Walk(n.Select, fn)
		Walk(n.From, fn)
		Walk(n.Where, fn)
		Walk(n.Group, fn)
		Walk(n.Having, fn)
		Walk(n.Window, fn)
		walkQueryTail(&n.QueryBase, fn)
	case *ValuesQuery:
		walkQueryHead(&n.QueryBase, fn)
		for _, row := range n.Rows {
			Walk(row, fn)
		}
		walkQueryTail(&n.QueryBase, fn)
	case *CTEQuery:
		walkQueryHead(&n.QueryBase, fn)
		Walk(n.Query, fn)
		walkQueryTail(&n.QueryBase, fn)

	// Clauses
	case *WithClause:
		for _, ct := range n.CommonTables {
			Walk(ct, fn)
		}
	case *CommonTable:
		Walk(n.Query, fn)
	case *SelectClause:
		Walk(n.Top, fn)
		for _, item := range n.Items {
			Walk(item, fn)
		}
	case *SelectableItem:
		Walk(n.Value, fn)
	case *FromClause:
		Walk(n.Root, fn)
		for _, r := range n.Relations {
			Walk(r, fn)
		}
	case *Relation:
		Walk(n.Table, fn)
		Walk(n.Condition, fn)
	case *WhereClause:
		Walk(n.Condition, fn)
	case *GroupClause:
		for _, v := range n.Items {
			Walk(v, fn)
		}
	case *HavingClause:
		Walk(n.Condition, fn)
	case *WindowClause:
		for _, w := range n.Windows {
			Walk(w, fn)
		}
	case *NamedWindow:
		Walk(n.Definition, fn)
	case *OrderClause:
		for _, item := range n.Items {
			Walk(item, fn)
		}
	case *SortableItem:
		Walk(n.Value, fn)
	case *LimitClause:
		Walk(n.Limit, fn)
		Walk(n.Offset, fn)

	// Tables
	case *SelectableTable:
		Walk(n.Table, fn)
	case *VirtualTable:
		Walk(n.Query, fn)
	case *LateralTable:
		Walk(n.Table, fn)
	case *FunctionTable:
		for _, arg := range n.Arguments {
			Walk(arg, fn)
		}
	case *PhysicalTable:
		// leaf

	// Values
	case *FunctionValue:
		for _, arg := range n.Arguments {
			Walk(arg, fn)
		}
		Walk(n.Over, fn)
	case *WindowDefinition:
		for _, v := range n.PartitionBy {
			Walk(v, fn)
		}
		for _, item := range n.OrderBy {
			Walk(item, fn)
		}
	case *CastValue:
		Walk(n.Inner, fn)
	case *CaseExpression:
		Walk(n.Condition, fn)
		for _, w := range n.Whens {
			Walk(w.Condition, fn)
			Walk(w.Value, fn)
		}
		Walk(n.Else, fn)
	case *BracketValue:
		Walk(n.Inner, fn)
	case *ValueCollection:
		for _, v := range n.Items {
			Walk(v, fn)
		}
	case *InlineQuery:
		Walk(n.Query, fn)
	case *NegativeValue:
		Walk(n.Inner, fn)
	case *UnaryValue:
		Walk(n.Inner, fn)
	case *BetweenClause:
		Walk(n.Value, fn)
		Walk(n.Start, fn)
		Walk(n.End, fn)
	case *LikeClause:
		Walk(n.Value, fn)
		Walk(n.Pattern, fn)
	case *InClause:
		Walk(n.Value, fn)
		Walk(n.Argument, fn)
	case *ExistsExpression:
		Walk(n.Query, fn)
	}
}

func walkQueryHead(b *QueryBase, fn func(node any) bool) {
	Walk(b.With, fn)
}

func walkQueryTail(b *QueryBase, fn func(node any) bool) {
	Walk(b.Order, fn)
	Walk(b.Limit, fn)
	if b.Next != nil {
		Walk(b.Next.Query, fn)
	}
}

// isNil reports whether node is nil or a typed nil pointer.
func isNil(node any) bool {
	if node == nil {
		return true
	}
	switch n := node.(type) {
	case *SelectQuery:
		return n == nil
	case *ValuesQuery:
		return n == nil
	case *CTEQuery:
		return n == nil
	case *WithClause:
		return n == nil
	case *SelectClause:
		return n == nil
	case *FromClause:
		return n == nil
	case *WhereClause:
		return n == nil
	case *GroupClause:
		return n == nil
	case *HavingClause:
		return n == nil
	case *WindowClause:
		return n == nil
	case *OrderClause:
		return n == nil
	case *LimitClause:
		return n == nil
	case *WindowDefinition:
		return n == nil
	case *SelectableTable:
		return n == nil
	case *VirtualTable:
		return n == nil
	}
	return false
}
