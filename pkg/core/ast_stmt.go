package core

import (
	"github.com/leapstack-labs/querykit/pkg/token"
)

// ---------- Queries ----------

// Query is a complete statement: SelectQuery, ValuesQuery or CTEQuery.
type Query interface {
	Node
	// CurrentTokens returns the body of the query without its WITH clause,
	// ORDER BY, LIMIT and set-operator continuation.
	CurrentTokens(parent *token.Token) []*token.Token
	Base() *QueryBase
}

// SetOperator joins two queries.
type SetOperator string

// SetOperator constants.
const (
	Union        SetOperator = "union"
	UnionAll     SetOperator = "union all"
	Intersect    SetOperator = "intersect"
	IntersectAll SetOperator = "intersect all"
	Except       SetOperator = "except"
	ExceptAll    SetOperator = "except all"
)

// ParseSetOperator maps a phrase (any case) to its operator.
func ParseSetOperator(phrase string) (SetOperator, bool) {
	switch op := SetOperator(token.Normalize(phrase)); op {
	case Union, UnionAll, Intersect, IntersectAll, Except, ExceptAll:
		return op, true
	}
	return "", false
}

// OperatableQuery is the set-operator continuation of a query.
type OperatableQuery struct {
	Operator SetOperator
	Query    Query
}

// QueryBase holds the state shared by all queries. Concrete queries embed it.
type QueryBase struct {
	With       *WithClause
	Order      *OrderClause
	Limit      *LimitClause
	Next       *OperatableQuery
	Parameters map[string]any
}

// Base implements Query.
func (b *QueryBase) Base() *QueryBase { return b }

// AddOperatableQuery attaches the set-operator continuation. A query owns at
// most one; attaching a second returns ErrOperatorChainExists.
func (b *QueryBase) AddOperatableQuery(op SetOperator, q Query) error {
	if b.Next != nil {
		return ErrOperatorChainExists
	}
	if q == nil {
		return ErrNilQuery
	}
	b.Next = &OperatableQuery{Operator: op, Query: q}
	return nil
}

// AddParameter registers a bind parameter. Re-registering a name with an
// equal value is a no-op; a different value is a *ParameterConflictError.
func (b *QueryBase) AddParameter(name string, value any) error {
	if b.Parameters == nil {
		b.Parameters = make(map[string]any)
	}
	return mergeParameter(b.Parameters, name, value)
}

// GetCommonTables returns the common tables of the query's own WITH clause.
func (b *QueryBase) GetCommonTables() []*CommonTable {
	if b.With == nil {
		return nil
	}
	return b.With.CommonTables
}

// queryTokens renders WITH, the body, ORDER BY, LIMIT and the set-operator
// chain of q.
func queryTokens(q Query, parent *token.Token) []*token.Token {
	b := q.Base()
	var tokens []*token.Token
	if b.With != nil && len(b.With.CommonTables) > 0 {
		tokens = append(tokens, b.With.Tokens(parent)...)
	}
	tokens = append(tokens, q.CurrentTokens(parent)...)
	if b.Order != nil && len(b.Order.Items) > 0 {
		tokens = append(tokens, b.Order.Tokens(parent)...)
	}
	if b.Limit != nil {
		tokens = append(tokens, b.Limit.Tokens(parent)...)
	}
	if b.Next != nil {
		tokens = append(tokens, token.Reserved(q, parent, string(b.Next.Operator), token.BreakBefore))
		tokens = append(tokens, b.Next.Query.Tokens(parent)...)
	}
	return tokens
}

// LastQuery returns the final query of q's set-operator chain.
func LastQuery(q Query) Query {
	for q.Base().Next != nil {
		q = q.Base().Next.Query
	}
	return q
}

// ---------- SELECT ----------

// SelectQuery is a SELECT statement. Absent clauses are nil and not rendered.
type SelectQuery struct {
	QueryBase
	Select *SelectClause
	From   *FromClause
	Where  *WhereClause
	Group  *GroupClause
	Having *HavingClause
	Window *WindowClause
}

// NewSelectQuery creates an empty SELECT.
func NewSelectQuery() *SelectQuery {
	return &SelectQuery{Select: &SelectClause{}}
}

// Tokens implements Node.
func (q *SelectQuery) Tokens(parent *token.Token) []*token.Token { return queryTokens(q, parent) }

// CurrentTokens implements Query.
func (q *SelectQuery) CurrentTokens(parent *token.Token) []*token.Token {
	var tokens []*token.Token
	if q.Select != nil {
		tokens = append(tokens, q.Select.Tokens(parent)...)
	}
	if q.From != nil {
		tokens = append(tokens, q.From.Tokens(parent)...)
	}
	if q.Where != nil && q.Where.Condition != nil {
		tokens = append(tokens, q.Where.Tokens(parent)...)
	}
	if q.Group != nil && len(q.Group.Items) > 0 {
		tokens = append(tokens, q.Group.Tokens(parent)...)
	}
	if q.Having != nil && q.Having.Condition != nil {
		tokens = append(tokens, q.Having.Tokens(parent)...)
	}
	if q.Window != nil && len(q.Window.Windows) > 0 {
		tokens = append(tokens, q.Window.Tokens(parent)...)
	}
	return tokens
}

// ---------- VALUES ----------

// ValuesQuery is VALUES (row), (row), ...
type ValuesQuery struct {
	QueryBase
	Rows []*ValueCollection
}

// NewValuesQuery creates a VALUES query from rows.
func NewValuesQuery(rows ...*ValueCollection) *ValuesQuery {
	return &ValuesQuery{Rows: rows}
}

// Tokens implements Node.
func (q *ValuesQuery) Tokens(parent *token.Token) []*token.Token { return queryTokens(q, parent) }

// CurrentTokens implements Query.
func (q *ValuesQuery) CurrentTokens(parent *token.Token) []*token.Token {
	clause := token.Reserved(q, parent, "values", token.BreakBefore, token.Indent)
	tokens := []*token.Token{clause}
	for i, row := range q.Rows {
		if i > 0 {
			tokens = append(tokens, token.Comma(q, clause))
		}
		open := token.Open(q, clause)
		tokens = append(tokens, open)
		tokens = append(tokens, row.Tokens(open)...)
		tokens = append(tokens, token.Close(q, clause))
	}
	return tokens
}

// ToSelectQuery wraps the rows as SELECT * FROM (VALUES ...) AS alias(columns).
func (q *ValuesQuery) ToSelectQuery(alias string, columns []string) *SelectQuery {
	sq := NewSelectQuery()
	sq.AddSelectAll("")
	sq.From = &FromClause{Root: NewSelectableTable(&VirtualTable{Query: q}, alias, columns...)}
	return sq
}

// ---------- WITH ... body ----------

// CTEQuery is a WITH clause over an arbitrary body query. The parser
// produces it when the body is not a SELECT (WITH ... VALUES ...);
// programmatic code may use it to prefix any query without mutating it.
type CTEQuery struct {
	QueryBase
	Query Query
}

// NewCTEQuery wraps body with a WITH clause.
func NewCTEQuery(with *WithClause, body Query) *CTEQuery {
	return &CTEQuery{QueryBase: QueryBase{With: with}, Query: body}
}

// Tokens implements Node.
func (q *CTEQuery) Tokens(parent *token.Token) []*token.Token { return queryTokens(q, parent) }

// CurrentTokens implements Query.
func (q *CTEQuery) CurrentTokens(parent *token.Token) []*token.Token {
	return q.Query.Tokens(parent)
}
