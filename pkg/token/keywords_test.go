package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsReserved(t *testing.T) {
	tests := []struct {
		word string
		want bool
	}{
		{"select", true},
		{"SELECT", true},
		{"Group By", true},
		{"left  outer\njoin", true},
		{"nulls last", true},
		{"users", false},
		{"left outer", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			assert.Equal(t, tt.want, IsReserved(tt.word))
		})
	}
}

func TestPhrasesStartingWith(t *testing.T) {
	phrases := PhrasesStartingWith("LEFT")
	require.Len(t, phrases, 2)
	assert.Equal(t, []string{"left", "outer", "join"}, phrases[0], "longest phrase first")
	assert.Equal(t, []string{"left", "join"}, phrases[1])

	assert.Empty(t, PhrasesStartingWith("select"))
}

func TestKeywords(t *testing.T) {
	words, multi := Keywords()
	assert.IsIncreasing(t, words)
	assert.IsIncreasing(t, multi)
	assert.Contains(t, words, "select")
	assert.Contains(t, multi, "left outer join")
	for _, w := range words {
		assert.True(t, IsReserved(w), w)
	}
	for _, p := range multi {
		assert.True(t, IsReserved(p), p)
	}

	multi[0] = "changed"
	_, again := Keywords()
	assert.NotEqual(t, "changed", again[0], "callers get a copy")
}

func TestIsOperator(t *testing.T) {
	for _, op := range []string{"+", "<>", "||", "AND", "or", "is not", "IS"} {
		assert.True(t, IsOperator(op), op)
	}
	for _, op := range []string{"not", "between", "(", ","} {
		assert.False(t, IsOperator(op), op)
	}
	assert.True(t, IsLogicalOperator("And"))
	assert.False(t, IsLogicalOperator("="))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "left outer join", Normalize("  LEFT\tOuter\n JOIN "))
	assert.True(t, EqualFold("Order   BY", "order by"))
	assert.False(t, EqualFold("order", "order by"))
}

func TestTokenTree(t *testing.T) {
	root := Reserved(nil, nil, "select", BreakBefore, Indent)
	child := New(nil, root, "a")
	grandchild := New(nil, child, "b", NoSpaceBefore)

	assert.True(t, root.Has(BreakBefore|Indent))
	assert.False(t, child.Has(Indent))
	assert.True(t, grandchild.Has(NoSpaceBefore))
	assert.Equal(t, 0, root.Depth())
	assert.Equal(t, 2, grandchild.Depth())
	assert.True(t, Comma(nil, root).IsComma())
	assert.Equal(t, "select a b", Join([]*Token{root, child, grandchild}))
}

func TestPosition(t *testing.T) {
	assert.Equal(t, "-", Position{}.String())
	assert.Equal(t, "3:7", Position{Line: 3, Column: 7}.String())

	s := Span{Start: Position{Offset: 2}, End: Position{Offset: 5}}
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Contains(2))
	assert.False(t, s.Contains(5))
}
