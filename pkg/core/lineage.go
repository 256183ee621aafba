package core

import "strings"

// ---------- Lineage ----------

// PhysicalTables returns the physical tables referenced anywhere under node,
// in source order. References that name a common table visible in the
// statement are excluded; they are aliases, not physical sources.
func PhysicalTables(node Node) []*PhysicalTable {
	ctes := make(map[string]struct{})
	for _, ct := range CommonTables(node) {
		ctes[strings.ToLower(ct.Name)] = struct{}{}
	}

	var tables []*PhysicalTable
	Walk(node, func(n any) bool {
		if t, ok := n.(*PhysicalTable); ok {
			if _, isCTE := ctes[strings.ToLower(t.Name)]; !isCTE || t.Schema != "" {
				tables = append(tables, t)
			}
		}
		return true
	})
	return tables
}

// CommonTables returns every common table defined under node, outer WITH
// clauses first.
func CommonTables(node Node) []*CommonTable {
	var tables []*CommonTable
	Walk(node, func(n any) bool {
		if ct, ok := n.(*CommonTable); ok {
			tables = append(tables, ct)
		}
		return true
	})
	return tables
}

// InternalQueries returns every query nested under node: common table
// bodies, derived tables, sub-query values and set-operator continuations.
// node itself is not included.
func InternalQueries(node Node) []Query {
	var queries []Query
	Walk(node, func(n any) bool {
		if q, ok := n.(Query); ok && n != any(node) {
			queries = append(queries, q)
		}
		return true
	})
	return queries
}

// Columns returns every column reference under node.
func Columns(node Node) []*ColumnValue {
	var cols []*ColumnValue
	Walk(node, func(n any) bool {
		if c, ok := n.(*ColumnValue); ok {
			cols = append(cols, c)
		}
		return true
	})
	return cols
}

// Placeholders returns the distinct bind placeholder names under node in
// order of first appearance.
func Placeholders(node Node) []string {
	var names []string
	seen := make(map[string]bool)
	Walk(node, func(n any) bool {
		if p, ok := n.(*ParameterValue); ok && !seen[p.Name] {
			seen[p.Name] = true
			names = append(names, p.Name)
		}
		return true
	})
	return names
}

// ColumnSource locates the FROM source that owns the SELECT item named
// alias. A qualified column resolves through its table alias; an unqualified
// column resolves only when the query has a single source. It returns nil
// when the owner cannot be determined.
func (q *SelectQuery) ColumnSource(alias string) *SelectableTable {
	if q.From == nil {
		return nil
	}
	item := q.FindSelectItem(alias)
	if item == nil {
		return nil
	}
	col, ok := item.Value.(*ColumnValue)
	if !ok {
		return nil
	}
	if col.TableAlias != "" {
		return q.From.Find(col.TableAlias)
	}
	if len(q.From.Relations) == 0 {
		return q.From.Root
	}
	return nil
}
