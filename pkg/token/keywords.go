package token

import (
	"sort"
	"strings"
)

// reserved holds lowercase keywords. Identifiers matching one of these are
// never taken as implicit aliases and render with keyword casing.
var reserved = map[string]struct{}{
	"all": {}, "and": {}, "as": {}, "asc": {}, "between": {}, "by": {},
	"case": {}, "cast": {}, "cross": {}, "desc": {}, "distinct": {},
	"else": {}, "end": {}, "except": {}, "exists": {}, "false": {},
	"first": {}, "from": {}, "full": {}, "group": {}, "having": {},
	"in": {}, "inner": {}, "intersect": {}, "is": {}, "join": {},
	"last": {}, "lateral": {}, "left": {}, "like": {}, "limit": {},
	"materialized": {}, "not": {}, "null": {}, "nulls": {}, "offset": {},
	"on": {}, "or": {}, "order": {}, "outer": {}, "over": {},
	"partition": {}, "recursive": {}, "right": {}, "select": {},
	"then": {}, "top": {}, "true": {}, "union": {}, "values": {},
	"when": {}, "where": {}, "window": {}, "with": {},
}

// IsReserved reports whether word (any case, possibly a multi-word phrase)
// is a keyword.
func IsReserved(word string) bool {
	w := Normalize(word)
	if _, ok := reserved[w]; ok {
		return true
	}
	_, ok := phraseSet[w]
	return ok
}

// phrases are multi-word keywords the tokenizer reads as a single logical
// token. They are matched greedily, longest first.
var phrases = []string{
	"group by",
	"order by",
	"partition by",
	"inner join",
	"left join",
	"left outer join",
	"right join",
	"right outer join",
	"full join",
	"full outer join",
	"cross join",
	"union all",
	"intersect all",
	"except all",
	"nulls first",
	"nulls last",
	"not materialized",
	"is not",
	"not in",
	"not like",
	"not between",
}

var (
	phraseSet     = make(map[string]struct{}, len(phrases))
	phrasesByHead = make(map[string][][]string)
)

func init() {
	for _, p := range phrases {
		phraseSet[p] = struct{}{}
		words := strings.Fields(p)
		phrasesByHead[words[0]] = append(phrasesByHead[words[0]], words)
	}
	for head := range phrasesByHead {
		ps := phrasesByHead[head]
		sort.SliceStable(ps, func(i, j int) bool { return len(ps[i]) > len(ps[j]) })
	}
}

// PhrasesStartingWith returns the multi-word phrases whose first word is
// head, longest first. Each phrase is returned as its words.
func PhrasesStartingWith(head string) [][]string {
	return phrasesByHead[strings.ToLower(head)]
}

// Keywords returns the single-word keywords and the multi-word phrases,
// each sorted.
func Keywords() (words, multi []string) {
	words = make([]string, 0, len(reserved))
	for w := range reserved {
		words = append(words, w)
	}
	sort.Strings(words)
	multi = append([]string(nil), phrases...)
	sort.Strings(multi)
	return words, multi
}

// operators are the binary operators that chain values.
var operators = map[string]struct{}{
	"+": {}, "-": {}, "*": {}, "/": {}, "%": {},
	"=": {}, "!=": {}, ">": {}, "<": {}, "<>": {}, ">=": {}, "<=": {},
	"||": {}, "&": {}, "|": {}, "^": {}, "#": {}, "~": {},
	"and": {}, "or": {}, "is": {}, "is not": {},
}

// IsOperator reports whether text is a binary operator.
func IsOperator(text string) bool {
	_, ok := operators[Normalize(text)]
	return ok
}

// IsLogicalOperator reports whether text is AND or OR.
func IsLogicalOperator(text string) bool {
	switch Normalize(text) {
	case "and", "or":
		return true
	}
	return false
}

// Normalize lowercases text and collapses whitespace runs to single spaces,
// so "LEFT   Outer\nJOIN" compares equal to "left outer join".
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// EqualFold compares two keyword phrases ignoring case and whitespace layout.
func EqualFold(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
