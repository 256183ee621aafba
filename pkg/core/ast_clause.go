package core

import (
	"strings"

	"github.com/leapstack-labs/querykit/pkg/token"
)

// ---------- SELECT ----------

// SelectClause is SELECT [DISTINCT] [TOP n] item, ...
type SelectClause struct {
	Distinct bool
	Top      Value
	Items    []*SelectableItem
}

// Tokens implements Node.
func (c *SelectClause) Tokens(parent *token.Token) []*token.Token {
	clause := token.Reserved(c, parent, "select", token.BreakBefore, token.Indent)
	tokens := []*token.Token{clause}
	if c.Distinct {
		tokens = append(tokens, token.Reserved(c, parent, "distinct"))
	}
	if c.Top != nil {
		tokens = append(tokens, token.Reserved(c, parent, "top"))
		tokens = append(tokens, c.Top.Tokens(parent)...)
	}
	return append(tokens, listTokens(c, clause, c.Items)...)
}

// SelectableItem is one SELECT list entry. Alias always holds the effective
// name: when the source text gave none it is the value's default name, and
// it is only rendered when it differs from that default.
type SelectableItem struct {
	Value Value
	Alias string
}

// NewSelectableItem creates an item; an empty alias falls back to the
// value's default name.
func NewSelectableItem(v Value, alias string) *SelectableItem {
	if alias == "" {
		alias = v.DefaultName()
	}
	return &SelectableItem{Value: v, Alias: alias}
}

// Tokens implements Node.
func (s *SelectableItem) Tokens(parent *token.Token) []*token.Token {
	tokens := s.Value.Tokens(parent)
	if s.Alias != "" && s.Alias != s.Value.DefaultName() {
		tokens = append(tokens, token.Reserved(s, parent, "as"), token.New(s, parent, s.Alias))
	}
	return tokens
}

// ---------- WHERE / GROUP BY / HAVING ----------

// WhereClause is WHERE condition.
type WhereClause struct {
	Condition Value
}

// Tokens implements Node.
func (c *WhereClause) Tokens(parent *token.Token) []*token.Token {
	clause := token.Reserved(c, parent, "where", token.BreakBefore, token.Indent)
	return append([]*token.Token{clause}, c.Condition.Tokens(clause)...)
}

// GroupClause is GROUP BY value, ...
type GroupClause struct {
	Items []Value
}

// Tokens implements Node.
func (c *GroupClause) Tokens(parent *token.Token) []*token.Token {
	clause := token.Reserved(c, parent, "group by", token.BreakBefore, token.Indent)
	return append([]*token.Token{clause}, listTokens(c, clause, c.Items)...)
}

// HavingClause is HAVING condition.
type HavingClause struct {
	Condition Value
}

// Tokens implements Node.
func (c *HavingClause) Tokens(parent *token.Token) []*token.Token {
	clause := token.Reserved(c, parent, "having", token.BreakBefore, token.Indent)
	return append([]*token.Token{clause}, c.Condition.Tokens(clause)...)
}

// ---------- WINDOW ----------

// NamedWindow is one "name AS (spec)" entry of a WINDOW clause.
type NamedWindow struct {
	Name       string
	Definition *WindowDefinition
}

// Tokens implements Node.
func (w *NamedWindow) Tokens(parent *token.Token) []*token.Token {
	tokens := []*token.Token{token.New(w, parent, w.Name), token.Reserved(w, parent, "as")}
	return append(tokens, w.Definition.SpecTokens(parent)...)
}

// WindowClause is WINDOW name AS (spec), ...
type WindowClause struct {
	Windows []*NamedWindow
}

// Tokens implements Node.
func (c *WindowClause) Tokens(parent *token.Token) []*token.Token {
	clause := token.Reserved(c, parent, "window", token.BreakBefore, token.Indent)
	return append([]*token.Token{clause}, listTokens(c, clause, c.Windows)...)
}

// Find returns the window named name, ignoring case, or nil.
func (c *WindowClause) Find(name string) *NamedWindow {
	for _, w := range c.Windows {
		if strings.EqualFold(w.Name, name) {
			return w
		}
	}
	return nil
}

// ---------- ORDER BY / LIMIT ----------

// SortOrder is the explicit direction of a sort item.
type SortOrder string

// SortOrder constants. SortUndefined renders nothing.
const (
	SortUndefined SortOrder = ""
	SortAsc       SortOrder = "asc"
	SortDesc      SortOrder = "desc"
)

// NullSort places NULLs first or last.
type NullSort string

// NullSort constants. NullsUndefined renders nothing.
const (
	NullsUndefined NullSort = ""
	NullsFirst     NullSort = "nulls first"
	NullsLast      NullSort = "nulls last"
)

// SortableItem is one ORDER BY entry.
type SortableItem struct {
	Value Value
	Sort  SortOrder
	Nulls NullSort
}

// Tokens implements Node.
func (s *SortableItem) Tokens(parent *token.Token) []*token.Token {
	tokens := s.Value.Tokens(parent)
	if s.Sort != SortUndefined {
		tokens = append(tokens, token.Reserved(s, parent, string(s.Sort)))
	}
	if s.Nulls != NullsUndefined {
		tokens = append(tokens, token.Reserved(s, parent, string(s.Nulls)))
	}
	return tokens
}

// OrderClause is ORDER BY item, ...
type OrderClause struct {
	Items []*SortableItem
}

// Tokens implements Node.
func (c *OrderClause) Tokens(parent *token.Token) []*token.Token {
	clause := token.Reserved(c, parent, "order by", token.BreakBefore, token.Indent)
	return append([]*token.Token{clause}, listTokens(c, clause, c.Items)...)
}

// LimitClause is LIMIT n [OFFSET m].
type LimitClause struct {
	Limit  Value
	Offset Value
}

// Tokens implements Node.
func (c *LimitClause) Tokens(parent *token.Token) []*token.Token {
	clause := token.Reserved(c, parent, "limit", token.BreakBefore)
	tokens := append([]*token.Token{clause}, c.Limit.Tokens(clause)...)
	if c.Offset != nil {
		tokens = append(tokens, token.Reserved(c, clause, "offset"))
		tokens = append(tokens, c.Offset.Tokens(clause)...)
	}
	return tokens
}

// ---------- WITH ----------

// WithClause is WITH [RECURSIVE] common-table, ...
type WithClause struct {
	Recursive    bool
	CommonTables []*CommonTable
}

// Tokens implements Node.
func (c *WithClause) Tokens(parent *token.Token) []*token.Token {
	clause := token.Reserved(c, parent, "with", token.BreakBefore, token.Indent)
	tokens := []*token.Token{clause}
	if c.Recursive {
		tokens = append(tokens, token.Reserved(c, parent, "recursive"))
	}
	return append(tokens, listTokens(c, clause, c.CommonTables)...)
}

// Find returns the common table named name (case-insensitive).
func (c *WithClause) Find(name string) *CommonTable {
	for _, ct := range c.CommonTables {
		if strings.EqualFold(ct.Name, name) {
			return ct
		}
	}
	return nil
}

// Materialization is the MATERIALIZED hint of a common table.
type Materialization string

// Materialization constants.
const (
	MaterializationUndefined Materialization = ""
	Materialized             Materialization = "materialized"
	NotMaterialized          Materialization = "not materialized"
)

// CommonTable is name [(columns)] AS [[NOT] MATERIALIZED] (query).
type CommonTable struct {
	Name          string
	ColumnAliases []string
	Materialized  Materialization
	Query         Query
}

// Tokens implements Node.
func (c *CommonTable) Tokens(parent *token.Token) []*token.Token {
	tokens := []*token.Token{token.New(c, parent, c.Name)}
	tokens = append(tokens, columnAliasTokens(c, parent, c.ColumnAliases)...)
	tokens = append(tokens, token.Reserved(c, parent, "as"))
	if c.Materialized != MaterializationUndefined {
		tokens = append(tokens, token.Reserved(c, parent, string(c.Materialized)))
	}
	return append(tokens, bracketQueryTokens(c, parent, c.Query)...)
}

func columnAliasTokens(sender any, parent *token.Token, columns []string) []*token.Token {
	if len(columns) == 0 {
		return nil
	}
	open := token.Open(sender, parent, token.NoSpaceBefore)
	tokens := []*token.Token{open}
	for i, col := range columns {
		if i > 0 {
			tokens = append(tokens, token.Comma(sender, open))
		}
		tokens = append(tokens, token.New(sender, open, col))
	}
	return append(tokens, token.Close(sender, parent))
}
