package core

import (
	"strings"

	"github.com/leapstack-labs/querykit/pkg/token"
)

// ---------- Primary Values ----------

// LiteralValue is a number, quoted string, boolean or NULL, kept verbatim.
type LiteralValue struct {
	ValueBase
	Text string
}

// NewLiteral creates a literal from its SQL text (quotes included).
func NewLiteral(text string) *LiteralValue { return &LiteralValue{Text: text} }

// NewStringLiteral creates a single-quoted string literal, doubling embedded
// quotes.
func NewStringLiteral(s string) *LiteralValue {
	return &LiteralValue{Text: "'" + strings.ReplaceAll(s, "'", "''") + "'"}
}

// Tokens implements Node.
func (v *LiteralValue) Tokens(parent *token.Token) []*token.Token { return valueTokens(v, parent) }

// CurrentTokens implements Value.
func (v *LiteralValue) CurrentTokens(parent *token.Token) []*token.Token {
	switch strings.ToLower(v.Text) {
	case "null", "true", "false":
		return []*token.Token{token.Reserved(v, parent, v.Text)}
	}
	return []*token.Token{token.New(v, parent, v.Text)}
}

// DefaultName implements Value.
func (v *LiteralValue) DefaultName() string { return "" }

// IsNull reports whether the literal is NULL.
func (v *LiteralValue) IsNull() bool { return strings.EqualFold(v.Text, "null") }

// ColumnValue is a bare or table-qualified column reference.
type ColumnValue struct {
	ValueBase
	TableAlias string // optional qualifier
	Column     string
}

// NewColumn creates a column reference.
func NewColumn(tableAlias, column string) *ColumnValue {
	return &ColumnValue{TableAlias: tableAlias, Column: column}
}

// Tokens implements Node.
func (v *ColumnValue) Tokens(parent *token.Token) []*token.Token { return valueTokens(v, parent) }

// CurrentTokens implements Value.
func (v *ColumnValue) CurrentTokens(parent *token.Token) []*token.Token {
	if v.TableAlias == "" {
		return []*token.Token{token.New(v, parent, v.Column)}
	}
	return []*token.Token{
		token.New(v, parent, v.TableAlias),
		token.Dot(v, parent),
		token.New(v, parent, v.Column),
	}
}

// DefaultName implements Value. Only a plain column reference names itself.
func (v *ColumnValue) DefaultName() string {
	if v.Next != nil || v.Column == "*" {
		return ""
	}
	return v.Column
}

// ParameterValue is a bind placeholder such as :id, @id, $1 or ?.
type ParameterValue struct {
	ValueBase
	Name string // includes the prefix symbol
}

// NewParameter creates a placeholder.
func NewParameter(name string) *ParameterValue { return &ParameterValue{Name: name} }

// Tokens implements Node.
func (v *ParameterValue) Tokens(parent *token.Token) []*token.Token { return valueTokens(v, parent) }

// CurrentTokens implements Value.
func (v *ParameterValue) CurrentTokens(parent *token.Token) []*token.Token {
	return []*token.Token{token.New(v, parent, v.Name)}
}

// DefaultName implements Value.
func (v *ParameterValue) DefaultName() string { return "" }

// ---------- Composite Values ----------

// FunctionValue is a function call, optionally a window function.
type FunctionValue struct {
	ValueBase
	Name      string
	Distinct  bool
	Arguments []Value
	Over      *WindowDefinition
}

// NewFunction creates a function call.
func NewFunction(name string, args ...Value) *FunctionValue {
	return &FunctionValue{Name: name, Arguments: args}
}

// Tokens implements Node.
func (v *FunctionValue) Tokens(parent *token.Token) []*token.Token { return valueTokens(v, parent) }

// CurrentTokens implements Value.
func (v *FunctionValue) CurrentTokens(parent *token.Token) []*token.Token {
	tokens := []*token.Token{token.New(v, parent, v.Name)}
	open := token.Open(v, parent, token.NoSpaceBefore)
	tokens = append(tokens, open)
	if v.Distinct {
		tokens = append(tokens, token.Reserved(v, open, "distinct"))
	}
	tokens = append(tokens, listTokens(v, open, v.Arguments)...)
	tokens = append(tokens, token.Close(v, parent))
	if v.Over != nil {
		tokens = append(tokens, v.Over.Tokens(parent)...)
	}
	return tokens
}

// DefaultName implements Value.
func (v *FunctionValue) DefaultName() string { return "" }

// WindowDefinition is the OVER specification of a window function.
type WindowDefinition struct {
	Name        string // named window reference (OVER w)
	PartitionBy []Value
	OrderBy     []*SortableItem
	Frame       string // verbatim frame clause (ROWS BETWEEN ...)
}

// Tokens implements Node.
func (w *WindowDefinition) Tokens(parent *token.Token) []*token.Token {
	tokens := []*token.Token{token.Reserved(w, parent, "over")}
	if w.Name != "" {
		return append(tokens, token.New(w, parent, w.Name))
	}
	return append(tokens, w.SpecTokens(parent)...)
}

// SpecTokens renders the bracketed specification without OVER, as used in
// a WINDOW clause.
func (w *WindowDefinition) SpecTokens(parent *token.Token) []*token.Token {
	open := token.Open(w, parent)
	tokens := []*token.Token{open}
	if len(w.PartitionBy) > 0 {
		tokens = append(tokens, token.Reserved(w, open, "partition by"))
		tokens = append(tokens, listTokens(w, open, w.PartitionBy)...)
	}
	if len(w.OrderBy) > 0 {
		tokens = append(tokens, token.Reserved(w, open, "order by"))
		tokens = append(tokens, listTokens(w, open, w.OrderBy)...)
	}
	if w.Frame != "" {
		tokens = append(tokens, token.New(w, open, w.Frame))
	}
	return append(tokens, token.Close(w, parent))
}

// CastValue is CAST(value AS type).
type CastValue struct {
	ValueBase
	Inner Value
	Type  string
}

// Tokens implements Node.
func (v *CastValue) Tokens(parent *token.Token) []*token.Token { return valueTokens(v, parent) }

// CurrentTokens implements Value.
func (v *CastValue) CurrentTokens(parent *token.Token) []*token.Token {
	open := token.Open(v, parent, token.NoSpaceBefore)
	tokens := []*token.Token{token.Reserved(v, parent, "cast"), open}
	tokens = append(tokens, v.Inner.Tokens(open)...)
	tokens = append(tokens, token.Reserved(v, open, "as"), token.New(v, open, v.Type))
	return append(tokens, token.Close(v, parent))
}

// DefaultName implements Value.
func (v *CastValue) DefaultName() string { return "" }

// CaseExpression is CASE [value] WHEN ... THEN ... [ELSE ...] END.
type CaseExpression struct {
	ValueBase
	Condition Value // optional simple-case operand
	Whens     []*WhenExpression
	Else      Value
}

// WhenExpression is one WHEN/THEN pair.
type WhenExpression struct {
	Condition Value
	Value     Value
}

// Tokens implements Node.
func (w *WhenExpression) Tokens(parent *token.Token) []*token.Token {
	tokens := []*token.Token{token.Reserved(w, parent, "when")}
	tokens = append(tokens, w.Condition.Tokens(parent)...)
	tokens = append(tokens, token.Reserved(w, parent, "then"))
	return append(tokens, w.Value.Tokens(parent)...)
}

// Tokens implements Node.
func (v *CaseExpression) Tokens(parent *token.Token) []*token.Token { return valueTokens(v, parent) }

// CurrentTokens implements Value.
func (v *CaseExpression) CurrentTokens(parent *token.Token) []*token.Token {
	tokens := []*token.Token{token.Reserved(v, parent, "case")}
	if v.Condition != nil {
		tokens = append(tokens, v.Condition.Tokens(parent)...)
	}
	for _, w := range v.Whens {
		tokens = append(tokens, w.Tokens(parent)...)
	}
	if v.Else != nil {
		tokens = append(tokens, token.Reserved(v, parent, "else"))
		tokens = append(tokens, v.Else.Tokens(parent)...)
	}
	return append(tokens, token.Reserved(v, parent, "end"))
}

// DefaultName implements Value.
func (v *CaseExpression) DefaultName() string { return "" }

// BracketValue is a parenthesised sub-expression.
type BracketValue struct {
	ValueBase
	Inner Value
}

// Tokens implements Node.
func (v *BracketValue) Tokens(parent *token.Token) []*token.Token { return valueTokens(v, parent) }

// CurrentTokens implements Value.
func (v *BracketValue) CurrentTokens(parent *token.Token) []*token.Token {
	open := token.Open(v, parent)
	tokens := []*token.Token{open}
	tokens = append(tokens, v.Inner.Tokens(open)...)
	return append(tokens, token.Close(v, parent))
}

// DefaultName implements Value.
func (v *BracketValue) DefaultName() string { return "" }

// ValueCollection is a comma-separated list of values (IN lists, row
// constructors, VALUES rows).
type ValueCollection struct {
	ValueBase
	Items []Value
}

// NewValueCollection creates a collection.
func NewValueCollection(items ...Value) *ValueCollection {
	return &ValueCollection{Items: items}
}

// Tokens implements Node.
func (v *ValueCollection) Tokens(parent *token.Token) []*token.Token { return valueTokens(v, parent) }

// CurrentTokens implements Value.
func (v *ValueCollection) CurrentTokens(parent *token.Token) []*token.Token {
	return listTokens(v, parent, v.Items)
}

// DefaultName implements Value.
func (v *ValueCollection) DefaultName() string { return "" }

// InlineQuery is a parenthesised sub-query used as a value.
type InlineQuery struct {
	ValueBase
	Query Query
}

// Tokens implements Node.
func (v *InlineQuery) Tokens(parent *token.Token) []*token.Token { return valueTokens(v, parent) }

// CurrentTokens implements Value.
func (v *InlineQuery) CurrentTokens(parent *token.Token) []*token.Token {
	return bracketQueryTokens(v, parent, v.Query)
}

// DefaultName implements Value.
func (v *InlineQuery) DefaultName() string { return "" }

// bracketQueryTokens renders ( query ) with the query one level deeper.
func bracketQueryTokens(sender any, parent *token.Token, q Query) []*token.Token {
	open := token.Open(sender, parent, token.Indent)
	tokens := []*token.Token{open}
	tokens = append(tokens, q.Tokens(open)...)
	return append(tokens, token.Close(sender, parent, token.BreakBefore))
}

// ---------- Predicates ----------

// NegativeValue is NOT value.
type NegativeValue struct {
	ValueBase
	Inner Value
}

// Tokens implements Node.
func (v *NegativeValue) Tokens(parent *token.Token) []*token.Token { return valueTokens(v, parent) }

// CurrentTokens implements Value.
func (v *NegativeValue) CurrentTokens(parent *token.Token) []*token.Token {
	return append([]*token.Token{token.Reserved(v, parent, "not")}, v.Inner.Tokens(parent)...)
}

// DefaultName implements Value.
func (v *NegativeValue) DefaultName() string { return "" }

// UnaryValue is a prefix sign or bitwise complement: -x, +x, ~x.
type UnaryValue struct {
	ValueBase
	Operator string
	Inner    Value
}

// Tokens implements Node.
func (v *UnaryValue) Tokens(parent *token.Token) []*token.Token { return valueTokens(v, parent) }

// CurrentTokens implements Value.
func (v *UnaryValue) CurrentTokens(parent *token.Token) []*token.Token {
	inner := v.Inner.Tokens(parent)
	op := token.New(v, parent, v.Operator)
	// "- -1" must not collapse into "--", which starts a line comment.
	if v.Operator != "-" || len(inner) == 0 || !strings.HasPrefix(inner[0].Text, "-") {
		op.Flags |= token.NoSpaceAfter
	}
	return append([]*token.Token{op}, inner...)
}

// DefaultName implements Value.
func (v *UnaryValue) DefaultName() string { return "" }

// BetweenClause is value [NOT] BETWEEN start AND end.
type BetweenClause struct {
	ValueBase
	Value    Value
	Start    Value
	End      Value
	Negative bool
}

// Tokens implements Node.
func (v *BetweenClause) Tokens(parent *token.Token) []*token.Token { return valueTokens(v, parent) }

// CurrentTokens implements Value.
func (v *BetweenClause) CurrentTokens(parent *token.Token) []*token.Token {
	tokens := v.Value.Tokens(parent)
	tokens = append(tokens, token.Reserved(v, parent, negate("between", v.Negative)))
	tokens = append(tokens, v.Start.Tokens(parent)...)
	tokens = append(tokens, token.Reserved(v, parent, "and"))
	return append(tokens, v.End.Tokens(parent)...)
}

// DefaultName implements Value.
func (v *BetweenClause) DefaultName() string { return "" }

// LikeClause is value [NOT] LIKE pattern.
type LikeClause struct {
	ValueBase
	Value    Value
	Pattern  Value
	Negative bool
}

// Tokens implements Node.
func (v *LikeClause) Tokens(parent *token.Token) []*token.Token { return valueTokens(v, parent) }

// CurrentTokens implements Value.
func (v *LikeClause) CurrentTokens(parent *token.Token) []*token.Token {
	tokens := v.Value.Tokens(parent)
	tokens = append(tokens, token.Reserved(v, parent, negate("like", v.Negative)))
	return append(tokens, v.Pattern.Tokens(parent)...)
}

// DefaultName implements Value.
func (v *LikeClause) DefaultName() string { return "" }

// InClause is value [NOT] IN (list) or value [NOT] IN (sub-query). Argument
// is a *BracketValue around a *ValueCollection, or an *InlineQuery.
type InClause struct {
	ValueBase
	Value    Value
	Argument Value
	Negative bool
}

// NewInList creates value IN (items...).
func NewInList(v Value, items ...Value) *InClause {
	return &InClause{Value: v, Argument: &BracketValue{Inner: NewValueCollection(items...)}}
}

// Tokens implements Node.
func (v *InClause) Tokens(parent *token.Token) []*token.Token { return valueTokens(v, parent) }

// CurrentTokens implements Value.
func (v *InClause) CurrentTokens(parent *token.Token) []*token.Token {
	tokens := v.Value.Tokens(parent)
	tokens = append(tokens, token.Reserved(v, parent, negate("in", v.Negative)))
	return append(tokens, v.Argument.Tokens(parent)...)
}

// DefaultName implements Value.
func (v *InClause) DefaultName() string { return "" }

// ExistsExpression is EXISTS (sub-query).
type ExistsExpression struct {
	ValueBase
	Query Query
}

// Tokens implements Node.
func (v *ExistsExpression) Tokens(parent *token.Token) []*token.Token { return valueTokens(v, parent) }

// CurrentTokens implements Value.
func (v *ExistsExpression) CurrentTokens(parent *token.Token) []*token.Token {
	tokens := []*token.Token{token.Reserved(v, parent, "exists")}
	return append(tokens, bracketQueryTokens(v, parent, v.Query)...)
}

// DefaultName implements Value.
func (v *ExistsExpression) DefaultName() string { return "" }

func negate(keyword string, negative bool) string {
	if negative {
		return "not " + keyword
	}
	return keyword
}
