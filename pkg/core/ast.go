package core

import (
	"reflect"
	"strings"

	"github.com/leapstack-labs/querykit/pkg/token"
)

// Node is the base interface for all AST nodes. A node emits its own tokens
// and then those of its children, each token linked to parent or to one of
// the node's own tokens.
type Node interface {
	Tokens(parent *token.Token) []*token.Token
}

// ---------- Values ----------

// Value is an expression node. Every value may carry a type suffix and at
// most one right-hand operator continuation.
type Value interface {
	Node
	// CurrentTokens returns the tokens of the value itself, without the
	// suffix and the operator chain.
	CurrentTokens(parent *token.Token) []*token.Token
	// DefaultName is the name a SELECT item takes when no alias is given.
	DefaultName() string
	// Base exposes the suffix and operator chain shared by all values.
	Base() *ValueBase
}

// OperatableValue is the (operator, right-hand value) continuation of a
// value. Chains are right-associative: a + b * c is a(+, b(*, c)).
type OperatableValue struct {
	Operator string
	Value    Value
}

// ValueBase holds the state common to all values. Concrete values embed it.
type ValueBase struct {
	Suffix string           // verbatim suffix such as ::text
	Next   *OperatableValue // nil when the value ends the chain
}

// Base implements Value.
func (b *ValueBase) Base() *ValueBase { return b }

// HasOperator reports whether the value already continues with an operator.
func (b *ValueBase) HasOperator() bool { return b.Next != nil }

// AddOperatableValue attaches the operator continuation. A value owns at most
// one continuation; attaching a second returns ErrOperatorChainExists.
func (b *ValueBase) AddOperatableValue(operator string, v Value) error {
	if b.Next != nil {
		return ErrOperatorChainExists
	}
	if v == nil {
		return ErrNilValue
	}
	b.Next = &OperatableValue{Operator: normalizeOperator(operator), Value: v}
	return nil
}

// RemoveOperatableValue detaches and returns the continuation, if any.
func (b *ValueBase) RemoveOperatableValue() *OperatableValue {
	next := b.Next
	b.Next = nil
	return next
}

func normalizeOperator(op string) string {
	if isWordOperator(op) {
		return token.Normalize(op)
	}
	return strings.TrimSpace(op)
}

func isWordOperator(op string) bool {
	for _, r := range op {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && r != ' ' {
			return false
		}
	}
	return op != ""
}

// valueTokens renders a value with its suffix and operator chain.
func valueTokens(v Value, parent *token.Token) []*token.Token {
	tokens := v.CurrentTokens(parent)
	b := v.Base()
	if b.Suffix != "" {
		tokens = append(tokens, token.New(v, parent, b.Suffix, token.NoSpaceBefore))
	}
	if b.Next != nil {
		tokens = append(tokens, operatorToken(v, parent, b.Next.Operator))
		tokens = append(tokens, b.Next.Value.Tokens(parent)...)
	}
	return tokens
}

func operatorToken(sender any, parent *token.Token, op string) *token.Token {
	if isWordOperator(op) {
		return token.Reserved(sender, parent, op)
	}
	return token.New(sender, parent, op)
}

// Last returns the final value of v's operator chain (v itself when it has
// no continuation).
func Last(v Value) Value {
	for v.Base().Next != nil {
		v = v.Base().Next.Value
	}
	return v
}

// Chain returns v and every value reachable through its operator chain.
func Chain(v Value) []Value {
	var chain []Value
	for cur := v; cur != nil; {
		chain = append(chain, cur)
		next := cur.Base().Next
		if next == nil {
			break
		}
		cur = next.Value
	}
	return chain
}

// HasOperator reports whether op occurs anywhere in v's chain.
func HasOperator(v Value, op string) bool {
	op = normalizeOperator(op)
	for _, c := range Chain(v) {
		if next := c.Base().Next; next != nil && next.Operator == op {
			return true
		}
	}
	return false
}

// Append attaches right to the end of left's chain with op and returns left.
// Unlike AddOperatableValue it never fails, because the tail of a chain has
// no continuation by definition. When right already belongs to left's chain
// a copy of right's chain is attached instead, so the chain stays acyclic.
func Append(left Value, op string, right Value) Value {
	if sharesChain(left, right) {
		right = copyChain(right)
	}
	tail := Last(left)
	tail.Base().Next = &OperatableValue{Operator: normalizeOperator(op), Value: right}
	return left
}

// sharesChain reports whether any value of b's chain is also in a's chain.
func sharesChain(a, b Value) bool {
	seen := make(map[Value]bool)
	for _, v := range Chain(a) {
		seen[v] = true
	}
	for _, v := range Chain(b) {
		if seen[v] {
			return true
		}
	}
	return false
}

// copyChain returns a copy of v's chain. Each value of the chain is copied
// shallowly, so operands such as a bracket's inner value stay shared.
func copyChain(v Value) Value {
	head := shallowCopy(v)
	for cur := head; cur.Base().Next != nil; {
		next := shallowCopy(cur.Base().Next.Value)
		cur.Base().Next = &OperatableValue{Operator: cur.Base().Next.Operator, Value: next}
		cur = next
	}
	return head
}

func shallowCopy(v Value) Value {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return v
	}
	cp := reflect.New(rv.Elem().Type())
	cp.Elem().Set(rv.Elem())
	return cp.Interface().(Value)
}

// needsBracket reports whether c must be bracketed before joining it to
// other conditions with op. NOT extends over the rest of its chain, so a
// negation of a compound value is always bracketed; under AND, so is a
// chain containing OR.
func needsBracket(c Value, op string) bool {
	if op == "and" && HasOperator(c, "or") {
		return true
	}
	for _, v := range Chain(c) {
		if neg, ok := v.(*NegativeValue); ok && neg.Inner != nil && neg.Inner.Base().Next != nil {
			return true
		}
	}
	return false
}

// And joins conditions with AND. A condition that would otherwise bind
// differently is bracketed first so the added condition applies to the
// whole of it. The conditions passed in are not modified.
func And(conditions ...Value) Value {
	return join("and", conditions)
}

// Or joins conditions with OR. The conditions passed in are not modified.
func Or(conditions ...Value) Value {
	return join("or", conditions)
}

func join(op string, conditions []Value) Value {
	var parts []Value
	for _, c := range conditions {
		if c == nil {
			continue
		}
		parts = append(parts, c)
	}
	if len(parts) < 2 {
		if len(parts) == 1 {
			return parts[0]
		}
		return nil
	}

	var result Value
	for _, c := range parts {
		if needsBracket(c, op) {
			c = &BracketValue{Inner: c}
		} else {
			c = copyChain(c)
		}
		if result == nil {
			result = c
			continue
		}
		Append(result, op, c)
	}
	return result
}

// listTokens renders nodes separated by commas, all linked to parent.
func listTokens[T Node](sender any, parent *token.Token, items []T) []*token.Token {
	var tokens []*token.Token
	for i, item := range items {
		if i > 0 {
			tokens = append(tokens, token.Comma(sender, parent))
		}
		tokens = append(tokens, item.Tokens(parent)...)
	}
	return tokens
}
