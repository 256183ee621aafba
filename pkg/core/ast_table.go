package core

import (
	"strings"

	"github.com/leapstack-labs/querykit/pkg/token"
)

// ---------- Tables ----------

// TableKind discriminates the Table variants.
type TableKind int

// TableKind constants.
const (
	PhysicalTableKind TableKind = iota
	VirtualTableKind
	FunctionTableKind
	LateralTableKind
)

func (k TableKind) String() string {
	switch k {
	case PhysicalTableKind:
		return "physical"
	case VirtualTableKind:
		return "virtual"
	case FunctionTableKind:
		return "function"
	case LateralTableKind:
		return "lateral"
	}
	return "unknown"
}

// Table is a FROM source.
type Table interface {
	Node
	Kind() TableKind
	// DefaultName is the name the table is addressable by without an alias.
	DefaultName() string
}

// PhysicalTable is [schema.]name. It may also name a common table of an
// enclosing WITH clause.
type PhysicalTable struct {
	Schema string
	Name   string
}

// NewPhysicalTable creates a table reference.
func NewPhysicalTable(schema, name string) *PhysicalTable {
	return &PhysicalTable{Schema: schema, Name: name}
}

// Kind implements Table.
func (*PhysicalTable) Kind() TableKind { return PhysicalTableKind }

// DefaultName implements Table.
func (t *PhysicalTable) DefaultName() string { return t.Name }

// FullName returns schema.name, or name when unqualified.
func (t *PhysicalTable) FullName() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// Tokens implements Node.
func (t *PhysicalTable) Tokens(parent *token.Token) []*token.Token {
	if t.Schema == "" {
		return []*token.Token{token.New(t, parent, t.Name)}
	}
	return []*token.Token{token.New(t, parent, t.Schema), token.Dot(t, parent), token.New(t, parent, t.Name)}
}

// VirtualTable wraps a nested SELECT or VALUES query.
type VirtualTable struct {
	Query Query
}

// Kind implements Table.
func (*VirtualTable) Kind() TableKind { return VirtualTableKind }

// DefaultName implements Table.
func (*VirtualTable) DefaultName() string { return "" }

// Tokens implements Node.
func (t *VirtualTable) Tokens(parent *token.Token) []*token.Token {
	return bracketQueryTokens(t, parent, t.Query)
}

// FunctionTable is a table-valued function call.
type FunctionTable struct {
	Name      string
	Arguments []Value
}

// Kind implements Table.
func (*FunctionTable) Kind() TableKind { return FunctionTableKind }

// DefaultName implements Table.
func (t *FunctionTable) DefaultName() string { return t.Name }

// Tokens implements Node.
func (t *FunctionTable) Tokens(parent *token.Token) []*token.Token {
	open := token.Open(t, parent, token.NoSpaceBefore)
	tokens := []*token.Token{token.New(t, parent, t.Name), open}
	tokens = append(tokens, listTokens(t, open, t.Arguments)...)
	return append(tokens, token.Close(t, parent))
}

// LateralTable is LATERAL (query).
type LateralTable struct {
	Table *VirtualTable
}

// Kind implements Table.
func (*LateralTable) Kind() TableKind { return LateralTableKind }

// DefaultName implements Table.
func (*LateralTable) DefaultName() string { return "" }

// Tokens implements Node.
func (t *LateralTable) Tokens(parent *token.Token) []*token.Token {
	return append([]*token.Token{token.Reserved(t, parent, "lateral")}, t.Table.Tokens(parent)...)
}

// ---------- Aliased tables ----------

// SelectableTable pairs a table with its alias and optional column aliases.
type SelectableTable struct {
	Table         Table
	Alias         string
	ColumnAliases []string
}

// NewSelectableTable creates an aliased table.
func NewSelectableTable(t Table, alias string, columns ...string) *SelectableTable {
	return &SelectableTable{Table: t, Alias: alias, ColumnAliases: columns}
}

// Name returns the alias, or the table's default name when unaliased.
func (s *SelectableTable) Name() string {
	if s.Alias != "" {
		return s.Alias
	}
	return s.Table.DefaultName()
}

// Tokens implements Node.
func (s *SelectableTable) Tokens(parent *token.Token) []*token.Token {
	tokens := s.Table.Tokens(parent)
	if s.Alias != "" && s.Alias != s.Table.DefaultName() {
		tokens = append(tokens, token.Reserved(s, parent, "as"), token.New(s, parent, s.Alias))
	}
	return append(tokens, columnAliasTokens(s, parent, s.ColumnAliases)...)
}

// JoinType is the kind of a relation in a FROM clause.
type JoinType string

// JoinType constants.
const (
	JoinInner JoinType = "inner join"
	JoinLeft  JoinType = "left join"
	JoinRight JoinType = "right join"
	JoinFull  JoinType = "full join"
	JoinCross JoinType = "cross join"
	JoinComma JoinType = ","
)

// RequiresCondition reports whether the join takes an ON condition.
func (j JoinType) RequiresCondition() bool {
	return j != JoinCross && j != JoinComma
}

// ParseJoinType maps a join phrase (any case, OUTER optional) to its type.
func ParseJoinType(phrase string) (JoinType, bool) {
	switch token.Normalize(phrase) {
	case "join", "inner join":
		return JoinInner, true
	case "left join", "left outer join":
		return JoinLeft, true
	case "right join", "right outer join":
		return JoinRight, true
	case "full join", "full outer join":
		return JoinFull, true
	case "cross join":
		return JoinCross, true
	case ",":
		return JoinComma, true
	}
	return "", false
}

// Relation is a joined FROM source.
type Relation struct {
	JoinType  JoinType
	Table     *SelectableTable
	Condition Value
}

// Tokens implements Node.
func (r *Relation) Tokens(parent *token.Token) []*token.Token {
	var tokens []*token.Token
	if r.JoinType == JoinComma {
		tokens = append(tokens, token.Comma(r, parent))
	} else {
		tokens = append(tokens, token.Reserved(r, parent, string(r.JoinType), token.BreakBefore))
	}
	tokens = append(tokens, r.Table.Tokens(parent)...)
	if r.Condition != nil {
		tokens = append(tokens, token.Reserved(r, parent, "on"))
		tokens = append(tokens, r.Condition.Tokens(parent)...)
	}
	return tokens
}

// ---------- FROM ----------

// FromClause is FROM root [relation ...].
type FromClause struct {
	Root      *SelectableTable
	Relations []*Relation
}

// Tokens implements Node.
func (c *FromClause) Tokens(parent *token.Token) []*token.Token {
	clause := token.Reserved(c, parent, "from", token.BreakBefore, token.Indent)
	tokens := append([]*token.Token{clause}, c.Root.Tokens(clause)...)
	for _, r := range c.Relations {
		tokens = append(tokens, r.Tokens(clause)...)
	}
	return tokens
}

// Sources returns the root table followed by every joined table.
func (c *FromClause) Sources() []*SelectableTable {
	sources := []*SelectableTable{c.Root}
	for _, r := range c.Relations {
		sources = append(sources, r.Table)
	}
	return sources
}

// Find returns the source addressable by name (alias or table name).
func (c *FromClause) Find(name string) *SelectableTable {
	for _, s := range c.Sources() {
		if strings.EqualFold(s.Name(), name) {
			return s
		}
	}
	return nil
}
