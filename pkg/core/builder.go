package core

import (
	"strings"
)

// ---------- SELECT list ----------

// AddSelect appends a SELECT item and returns it. An empty alias takes the
// value's default name.
func (q *SelectQuery) AddSelect(v Value, alias string) *SelectableItem {
	if q.Select == nil {
		q.Select = &SelectClause{}
	}
	item := NewSelectableItem(v, alias)
	q.Select.Items = append(q.Select.Items, item)
	return item
}

// AddSelectAll appends * or tableAlias.*.
func (q *SelectQuery) AddSelectAll(tableAlias string) *SelectableItem {
	return q.AddSelect(NewColumn(tableAlias, "*"), "")
}

// FindSelectItem returns the SELECT item whose effective name is alias
// (case-insensitive), or nil.
func (q *SelectQuery) FindSelectItem(alias string) *SelectableItem {
	if q.Select == nil || alias == "" {
		return nil
	}
	for _, item := range q.Select.Items {
		if strings.EqualFold(item.Alias, alias) {
			return item
		}
	}
	return nil
}

// RemoveSelect removes the SELECT item named alias and reports whether one
// was removed.
func (q *SelectQuery) RemoveSelect(alias string) bool {
	if q.Select == nil {
		return false
	}
	for i, item := range q.Select.Items {
		if strings.EqualFold(item.Alias, alias) {
			q.Select.Items = append(q.Select.Items[:i], q.Select.Items[i+1:]...)
			return true
		}
	}
	return false
}

// ---------- FROM ----------

// SetFrom replaces the FROM clause with a single source and returns it.
func (q *SelectQuery) SetFrom(t Table, alias string) *SelectableTable {
	root := NewSelectableTable(t, alias)
	q.From = &FromClause{Root: root}
	return root
}

// AddJoin appends a joined source. Conditions are ignored for join types
// that take none. It fails with ErrNoFromClause when the query has no root
// source to join to.
func (q *SelectQuery) AddJoin(jt JoinType, t Table, alias string, condition Value) (*Relation, error) {
	if q.From == nil || q.From.Root == nil {
		return nil, ErrNoFromClause
	}
	r := &Relation{JoinType: jt, Table: NewSelectableTable(t, alias)}
	if jt.RequiresCondition() {
		r.Condition = condition
	}
	q.From.Relations = append(q.From.Relations, r)
	return r, nil
}

// Sources returns every FROM source, root first. It is nil without FROM.
func (q *SelectQuery) Sources() []*SelectableTable {
	if q.From == nil || q.From.Root == nil {
		return nil
	}
	return q.From.Sources()
}

// ---------- WHERE / GROUP BY / HAVING ----------

// AddWhere ANDs condition onto the WHERE clause.
func (q *SelectQuery) AddWhere(condition Value) {
	if condition == nil {
		return
	}
	if q.Where == nil || q.Where.Condition == nil {
		q.Where = &WhereClause{Condition: condition}
		return
	}
	q.Where.Condition = And(q.Where.Condition, condition)
}

// ClearWhere removes the WHERE clause.
func (q *SelectQuery) ClearWhere() { q.Where = nil }

// AddGroup appends GROUP BY values.
func (q *SelectQuery) AddGroup(values ...Value) {
	if q.Group == nil {
		q.Group = &GroupClause{}
	}
	q.Group.Items = append(q.Group.Items, values...)
}

// SetHaving replaces the HAVING condition. A nil condition removes it.
func (q *SelectQuery) SetHaving(condition Value) {
	if condition == nil {
		q.Having = nil
		return
	}
	q.Having = &HavingClause{Condition: condition}
}

// ---------- ORDER BY / LIMIT ----------

// AddOrder appends an ORDER BY item and returns it.
func (b *QueryBase) AddOrder(v Value, sort SortOrder) *SortableItem {
	if b.Order == nil {
		b.Order = &OrderClause{}
	}
	item := &SortableItem{Value: v, Sort: sort}
	b.Order.Items = append(b.Order.Items, item)
	return item
}

// SetLimit sets LIMIT and OFFSET. A nil limit removes the clause.
func (b *QueryBase) SetLimit(limit, offset Value) {
	if limit == nil {
		b.Limit = nil
		return
	}
	b.Limit = &LimitClause{Limit: limit, Offset: offset}
}

// ---------- Set operators ----------

// Combine appends other to the end of q's set-operator chain with op and
// returns q.
func Combine(q Query, op SetOperator, other Query) (Query, error) {
	if other == nil {
		return nil, ErrNilQuery
	}
	if err := LastQuery(q).Base().AddOperatableQuery(op, other); err != nil {
		return nil, err
	}
	return q, nil
}

// Union appends UNION other to the query.
func (q *SelectQuery) Union(other Query) error {
	_, err := Combine(q, Union, other)
	return err
}

// UnionAll appends UNION ALL other to the query.
func (q *SelectQuery) UnionAll(other Query) error {
	_, err := Combine(q, UnionAll, other)
	return err
}

// Intersect appends INTERSECT other to the query.
func (q *SelectQuery) Intersect(other Query) error {
	_, err := Combine(q, Intersect, other)
	return err
}

// Except appends EXCEPT other to the query.
func (q *SelectQuery) Except(other Query) error {
	_, err := Combine(q, Except, other)
	return err
}

// ---------- Wrapping ----------

// ToSubQuery wraps q as SELECT * FROM (q) AS alias. The WITH clause of q is
// hoisted to the outer query so its common tables stay visible at the top.
func ToSubQuery(q Query, alias string) *SelectQuery {
	outer := NewSelectQuery()
	outer.With = q.Base().With
	q.Base().With = nil
	outer.AddSelectAll("")
	outer.SetFrom(&VirtualTable{Query: q}, alias)
	return outer
}

// ToCTE moves q into a common table named alias and returns
// WITH alias AS (q) SELECT * FROM alias. The existing WITH clause of q is
// hoisted, and the new common table appended after its tables.
func ToCTE(q Query, alias string) *SelectQuery {
	outer := NewSelectQuery()
	with := q.Base().With
	q.Base().With = nil
	if with == nil {
		with = &WithClause{}
	}
	with.CommonTables = append(with.CommonTables, &CommonTable{Name: alias, Query: q})
	outer.With = with
	outer.AddSelectAll("")
	outer.SetFrom(NewPhysicalTable("", alias), "")
	return outer
}
