// Package core defines the mutable query model of querykit.
//
// This package contains:
//   - Value expressions with their right-hand operator chains
//   - Clauses (SELECT, FROM, WHERE, GROUP BY, HAVING, ORDER BY, LIMIT, WITH)
//   - Tables (physical, virtual, function, lateral) and their aliased forms
//   - Queries (SelectQuery, ValuesQuery, CTEQuery) and set-operator chains
//   - Parameters and the QueryCommand produced by rendering
//
// Every node renders itself as a sequence of parent-linked tokens
// (see pkg/token); pkg/format turns that sequence into text.
//
// The query model is not safe for concurrent mutation. Confine each query,
// and any code that mutates it, to one goroutine; independent queries can be
// processed in parallel.
//
// The Golden Rule: pkg/core imports ONLY pkg/token and stdlib.
package core
