package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/querykit/pkg/core"
)

func mustSelect(t *testing.T, sql string) *core.SelectQuery {
	t.Helper()
	q, err := ParseSelectQuery(sql)
	require.NoError(t, err, sql)
	return q
}

func mustValue(t *testing.T, sql string) core.Value {
	t.Helper()
	v, err := ParseValue(sql)
	require.NoError(t, err, sql)
	return v
}

func column(t *testing.T, v core.Value) *core.ColumnValue {
	t.Helper()
	c, ok := v.(*core.ColumnValue)
	require.True(t, ok, "expected *core.ColumnValue, got %T", v)
	return c
}

func TestParse_SelectBasic(t *testing.T) {
	q := mustSelect(t, "SELECT a.id, a.val FROM t AS a WHERE a.val = 1")

	require.Len(t, q.Select.Items, 2)
	assert.Equal(t, "id", q.Select.Items[0].Alias)
	assert.Equal(t, "val", q.Select.Items[1].Alias)
	c := column(t, q.Select.Items[0].Value)
	assert.Equal(t, "a", c.TableAlias)
	assert.Equal(t, "id", c.Column)

	require.NotNil(t, q.From)
	assert.Equal(t, "a", q.From.Root.Alias)
	tbl, ok := q.From.Root.Table.(*core.PhysicalTable)
	require.True(t, ok)
	assert.Equal(t, "t", tbl.Name)

	require.NotNil(t, q.Where)
	cond := column(t, q.Where.Condition)
	assert.Equal(t, "val", cond.Column)
	require.NotNil(t, cond.Next)
	assert.Equal(t, "=", cond.Next.Operator)
	lit, ok := cond.Next.Value.(*core.LiteralValue)
	require.True(t, ok)
	assert.Equal(t, "1", lit.Text)
}

func TestParse_SelectItems(t *testing.T) {
	q := mustSelect(t, "select distinct top 10 a as x, b y, count(*), t.* from t")

	assert.True(t, q.Select.Distinct)
	require.NotNil(t, q.Select.Top)
	require.Len(t, q.Select.Items, 4)
	assert.Equal(t, "x", q.Select.Items[0].Alias)
	assert.Equal(t, "y", q.Select.Items[1].Alias)
	assert.Equal(t, "", q.Select.Items[2].Alias)
	star := column(t, q.Select.Items[3].Value)
	assert.Equal(t, "t", star.TableAlias)
	assert.Equal(t, "*", star.Column)
}

func TestParse_Joins(t *testing.T) {
	q := mustSelect(t, `select * from a
		join b on a.id = b.id
		left outer join c on c.x = a.x
		cross join d, e`)

	require.Len(t, q.From.Relations, 4)
	want := []core.JoinType{core.JoinInner, core.JoinLeft, core.JoinCross, core.JoinComma}
	for i, jt := range want {
		assert.Equal(t, jt, q.From.Relations[i].JoinType, "relation %d", i)
	}
	assert.NotNil(t, q.From.Relations[0].Condition)
	assert.NotNil(t, q.From.Relations[1].Condition)
	assert.Nil(t, q.From.Relations[2].Condition)
	assert.Nil(t, q.From.Relations[3].Condition)
	assert.Equal(t, "e", q.From.Relations[3].Table.Name())
}

func TestParse_JoinRequiresOn(t *testing.T) {
	_, err := Parse("select * from a join b where x = 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `expected "on"`)
}

func TestParse_Tables(t *testing.T) {
	tests := []struct {
		name  string
		sql   string
		check func(t *testing.T, from *core.FromClause)
	}{
		{
			name: "schema qualified",
			sql:  "select * from sales.orders o",
			check: func(t *testing.T, from *core.FromClause) {
				tbl := from.Root.Table.(*core.PhysicalTable)
				assert.Equal(t, "sales", tbl.Schema)
				assert.Equal(t, "orders", tbl.Name)
				assert.Equal(t, "o", from.Root.Alias)
			},
		},
		{
			name: "derived table",
			sql:  "select x.a from (select a from t) as x",
			check: func(t *testing.T, from *core.FromClause) {
				vt, ok := from.Root.Table.(*core.VirtualTable)
				require.True(t, ok)
				_, ok = vt.Query.(*core.SelectQuery)
				assert.True(t, ok)
				assert.Equal(t, "x", from.Root.Alias)
			},
		},
		{
			name: "values table with column aliases",
			sql:  "select * from (values (1, 2)) as v(a, b)",
			check: func(t *testing.T, from *core.FromClause) {
				vt := from.Root.Table.(*core.VirtualTable)
				_, ok := vt.Query.(*core.ValuesQuery)
				assert.True(t, ok)
				assert.Equal(t, []string{"a", "b"}, from.Root.ColumnAliases)
			},
		},
		{
			name: "function table",
			sql:  "select * from generate_series(1, 10) as g(n)",
			check: func(t *testing.T, from *core.FromClause) {
				ft, ok := from.Root.Table.(*core.FunctionTable)
				require.True(t, ok)
				assert.Equal(t, "generate_series", ft.Name)
				assert.Len(t, ft.Arguments, 2)
				assert.Equal(t, []string{"n"}, from.Root.ColumnAliases)
			},
		},
		{
			name: "lateral",
			sql:  "select * from t, lateral (select 1) as l",
			check: func(t *testing.T, from *core.FromClause) {
				require.Len(t, from.Relations, 1)
				lt, ok := from.Relations[0].Table.Table.(*core.LateralTable)
				require.True(t, ok)
				assert.NotNil(t, lt.Table.Query)
				assert.Equal(t, "l", from.Relations[0].Table.Alias)
			},
		},
		{
			name: "quoted name",
			sql:  `select * from "Order Items"`,
			check: func(t *testing.T, from *core.FromClause) {
				assert.Equal(t, `"Order Items"`, from.Root.Table.DefaultName())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := mustSelect(t, tt.sql)
			require.NotNil(t, q.From)
			tt.check(t, q.From)
		})
	}
}

func TestParse_Clauses(t *testing.T) {
	q := mustSelect(t, `select a, count(*) from t
		where b > 1
		group by a
		having count(*) > 2
		order by a desc nulls last, 2
		limit 10 offset 20`)

	require.NotNil(t, q.Group)
	assert.Len(t, q.Group.Items, 1)
	require.NotNil(t, q.Having)
	fn, ok := q.Having.Condition.(*core.FunctionValue)
	require.True(t, ok)
	assert.Equal(t, "count", fn.Name)

	require.NotNil(t, q.Order)
	require.Len(t, q.Order.Items, 2)
	assert.Equal(t, core.SortDesc, q.Order.Items[0].Sort)
	assert.Equal(t, core.NullsLast, q.Order.Items[0].Nulls)
	assert.Equal(t, core.SortUndefined, q.Order.Items[1].Sort)

	require.NotNil(t, q.Limit)
	assert.Equal(t, "10", q.Limit.Limit.(*core.LiteralValue).Text)
	assert.Equal(t, "20", q.Limit.Offset.(*core.LiteralValue).Text)
}

func TestParse_WindowClause(t *testing.T) {
	q := mustSelect(t, `select sum(x) over w, rank() over v from t
		window w as (partition by y), V as (order by z desc)
		order by 1`)

	require.NotNil(t, q.Window)
	require.Len(t, q.Window.Windows, 2)
	w := q.Window.Find("W")
	require.NotNil(t, w)
	assert.Equal(t, "w", w.Name)
	require.Len(t, w.Definition.PartitionBy, 1)

	v := q.Window.Find("v")
	require.NotNil(t, v)
	require.Len(t, v.Definition.OrderBy, 1)
	assert.Equal(t, core.SortDesc, v.Definition.OrderBy[0].Sort)
	assert.Nil(t, q.Window.Find("missing"))

	fn, ok := q.Select.Items[0].Value.(*core.FunctionValue)
	require.True(t, ok)
	require.NotNil(t, fn.Over)
	assert.Equal(t, "w", fn.Over.Name)

	require.NotNil(t, q.Order, "ORDER BY still follows WINDOW")
}

func TestParse_WindowClauseErrors(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		message string
	}{
		{"missing as", "select a from t window w (order by a)", `expected "as"`},
		{"missing definition", "select a from t window w as x", `expected "("`},
		{"reserved name", "select a from t window order as (order by a)", "expected identifier"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.sql)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestParse_With(t *testing.T) {
	q := mustSelect(t, `with recursive c (n) as materialized (select 1),
		d as not materialized (select n from c)
		select n from d`)

	require.NotNil(t, q.With)
	assert.True(t, q.With.Recursive)
	require.Len(t, q.With.CommonTables, 2)
	assert.Equal(t, "c", q.With.CommonTables[0].Name)
	assert.Equal(t, []string{"n"}, q.With.CommonTables[0].ColumnAliases)
	assert.Equal(t, core.Materialized, q.With.CommonTables[0].Materialized)
	assert.Equal(t, core.NotMaterialized, q.With.CommonTables[1].Materialized)
	assert.NotNil(t, q.With.Find("D"))
}

func TestParse_WithValues(t *testing.T) {
	q, err := Parse("with c as (select 1) values (1, 2)")
	require.NoError(t, err)

	cte, ok := q.(*core.CTEQuery)
	require.True(t, ok, "got %T", q)
	assert.Len(t, cte.With.CommonTables, 1)
	_, ok = cte.Query.(*core.ValuesQuery)
	assert.True(t, ok)
}

func TestParse_Values(t *testing.T) {
	q, err := ParseValuesQuery("values (1, 'a'), (2, 'b');")
	require.NoError(t, err)
	require.Len(t, q.Rows, 2)
	assert.Len(t, q.Rows[0].Items, 2)
	assert.Equal(t, "'b'", q.Rows[1].Items[1].(*core.LiteralValue).Text)

	_, err = ParseValuesQuery("select 1")
	assert.Error(t, err)
	_, err = ParseSelectQuery("values (1)")
	assert.Error(t, err)
}

func TestParse_SetOperators(t *testing.T) {
	q := mustSelect(t, "select a from t union all select a from u intersect select a from v order by a limit 5")

	require.NotNil(t, q.Next)
	assert.Equal(t, core.UnionAll, q.Next.Operator)
	assert.Nil(t, q.Order, "ORDER BY binds to the right-hand query")

	second := q.Next.Query.Base()
	require.NotNil(t, second.Next)
	assert.Equal(t, core.Intersect, second.Next.Operator)

	last := core.LastQuery(q).Base()
	assert.NotNil(t, last.Order)
	assert.NotNil(t, last.Limit)
}

func TestParseValue_OperatorChain(t *testing.T) {
	v := mustValue(t, "a + b * c")

	a := column(t, v)
	require.NotNil(t, a.Next)
	assert.Equal(t, "+", a.Next.Operator)
	b := column(t, a.Next.Value)
	require.NotNil(t, b.Next)
	assert.Equal(t, "*", b.Next.Operator)
	assert.Equal(t, "c", column(t, b.Next.Value).Column)
	assert.Len(t, core.Chain(v), 3)
}

func TestParseValue_Predicates(t *testing.T) {
	tests := []struct {
		name  string
		sql   string
		check func(t *testing.T, v core.Value)
	}{
		{
			name: "between bounds stop at and",
			sql:  "x between 1 and 2 and y = 3",
			check: func(t *testing.T, v core.Value) {
				bc, ok := v.(*core.BetweenClause)
				require.True(t, ok)
				assert.Equal(t, "1", bc.Start.(*core.LiteralValue).Text)
				assert.Equal(t, "2", bc.End.(*core.LiteralValue).Text)
				require.NotNil(t, bc.Next)
				assert.Equal(t, "and", bc.Next.Operator)
			},
		},
		{
			name: "not between",
			sql:  "x NOT BETWEEN a AND b",
			check: func(t *testing.T, v core.Value) {
				bc := v.(*core.BetweenClause)
				assert.True(t, bc.Negative)
			},
		},
		{
			name: "in list",
			sql:  "id in (1, 2, 3)",
			check: func(t *testing.T, v core.Value) {
				in := v.(*core.InClause)
				br, ok := in.Argument.(*core.BracketValue)
				require.True(t, ok)
				assert.Len(t, br.Inner.(*core.ValueCollection).Items, 3)
			},
		},
		{
			name: "not in sub-query",
			sql:  "id not in (select x from t)",
			check: func(t *testing.T, v core.Value) {
				in := v.(*core.InClause)
				assert.True(t, in.Negative)
				_, ok := in.Argument.(*core.InlineQuery)
				assert.True(t, ok)
			},
		},
		{
			name: "not like",
			sql:  "name not like 'a%'",
			check: func(t *testing.T, v core.Value) {
				lc := v.(*core.LikeClause)
				assert.True(t, lc.Negative)
				assert.Equal(t, "'a%'", lc.Pattern.(*core.LiteralValue).Text)
			},
		},
		{
			name: "is not null",
			sql:  "a is not null",
			check: func(t *testing.T, v core.Value) {
				a := column(t, v)
				assert.Equal(t, "is not", a.Next.Operator)
				assert.True(t, a.Next.Value.(*core.LiteralValue).IsNull())
			},
		},
		{
			name: "not wraps the rest of the chain",
			sql:  "not a = 1",
			check: func(t *testing.T, v core.Value) {
				nv, ok := v.(*core.NegativeValue)
				require.True(t, ok)
				assert.Equal(t, "=", column(t, nv.Inner).Next.Operator)
			},
		},
		{
			name: "exists",
			sql:  "exists (select 1 from u)",
			check: func(t *testing.T, v core.Value) {
				_, ok := v.(*core.ExistsExpression)
				assert.True(t, ok)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, mustValue(t, tt.sql))
		})
	}
}

func TestParseValue_Primaries(t *testing.T) {
	tests := []struct {
		name  string
		sql   string
		check func(t *testing.T, v core.Value)
	}{
		{
			name: "case",
			sql:  "case when a = 1 then 'x' when a = 2 then 'y' else 'z' end",
			check: func(t *testing.T, v core.Value) {
				c := v.(*core.CaseExpression)
				assert.Nil(t, c.Condition)
				assert.Len(t, c.Whens, 2)
				assert.NotNil(t, c.Else)
			},
		},
		{
			name: "simple case",
			sql:  "case a when 1 then 'x' end",
			check: func(t *testing.T, v core.Value) {
				c := v.(*core.CaseExpression)
				assert.NotNil(t, c.Condition)
				assert.Nil(t, c.Else)
			},
		},
		{
			name: "cast",
			sql:  "cast(a as varchar(10))",
			check: func(t *testing.T, v core.Value) {
				c := v.(*core.CastValue)
				assert.Equal(t, "varchar(10)", c.Type)
			},
		},
		{
			name: "type suffix",
			sql:  "a::numeric(10, 2)",
			check: func(t *testing.T, v core.Value) {
				assert.Equal(t, "::numeric(10, 2)", v.Base().Suffix)
			},
		},
		{
			name: "window function",
			sql:  "row_number() over (partition by a order by b desc)",
			check: func(t *testing.T, v core.Value) {
				fn := v.(*core.FunctionValue)
				assert.Empty(t, fn.Arguments)
				require.NotNil(t, fn.Over)
				assert.Len(t, fn.Over.PartitionBy, 1)
				require.Len(t, fn.Over.OrderBy, 1)
				assert.Equal(t, core.SortDesc, fn.Over.OrderBy[0].Sort)
			},
		},
		{
			name: "window frame",
			sql:  "sum(x) over (order by d rows between unbounded preceding and current row)",
			check: func(t *testing.T, v core.Value) {
				fn := v.(*core.FunctionValue)
				assert.Equal(t, "rows between unbounded preceding and current row", fn.Over.Frame)
			},
		},
		{
			name: "named window",
			sql:  "sum(x) over w",
			check: func(t *testing.T, v core.Value) {
				assert.Equal(t, "w", v.(*core.FunctionValue).Over.Name)
			},
		},
		{
			name: "distinct aggregate",
			sql:  "count(distinct x)",
			check: func(t *testing.T, v core.Value) {
				assert.True(t, v.(*core.FunctionValue).Distinct)
			},
		},
		{
			name: "keyword function",
			sql:  "left(name, 3)",
			check: func(t *testing.T, v core.Value) {
				fn := v.(*core.FunctionValue)
				assert.Equal(t, "left", fn.Name)
				assert.Len(t, fn.Arguments, 2)
			},
		},
		{
			name: "unary minus",
			sql:  "-a",
			check: func(t *testing.T, v core.Value) {
				u := v.(*core.UnaryValue)
				assert.Equal(t, "-", u.Operator)
			},
		},
		{
			name: "row constructor",
			sql:  "(a, b)",
			check: func(t *testing.T, v core.Value) {
				br := v.(*core.BracketValue)
				assert.Len(t, br.Inner.(*core.ValueCollection).Items, 2)
			},
		},
		{
			name: "scalar sub-query",
			sql:  "(select max(id) from t)",
			check: func(t *testing.T, v core.Value) {
				_, ok := v.(*core.InlineQuery)
				assert.True(t, ok)
			},
		},
		{
			name: "parameters",
			sql:  "a = :id and b = @name or c = $1 or d = ?",
			check: func(t *testing.T, v core.Value) {
				var names []string
				for _, c := range core.Chain(v) {
					if p, ok := c.(*core.ParameterValue); ok {
						names = append(names, p.Name)
					}
				}
				assert.Equal(t, []string{":id", "@name", "$1", "?"}, names)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, mustValue(t, tt.sql))
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		eof     bool
		message string
	}{
		{"missing table", "select a from", true, "expected table"},
		{"missing condition", "select a from t where", true, "expected value"},
		{"unterminated bracket", "select (a from t", true, "unterminated bracket"},
		{"unterminated string", "select 'abc", true, "unterminated string literal"},
		{"trailing tokens", "select a b c from t", false, `unexpected "c" after end of statement`},
		{"illegal character", "select a ! b", false, "illegal character"},
		{"empty in list", "select a from t where a in ()", false, "empty brackets"},
		{"not a statement", "delete from t", false, `expected "select" or "values"`},
		{"clause keyword as top value", "select top from t", false, `reserved word "from"`},
		{"dangling comma", "select a, from t", false, `reserved word "from"`},
		{"clause keyword in condition", "select a from t where order by a", false, `reserved word "order by"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.sql)
			require.Error(t, err)

			var perr *ParseError
			require.True(t, errors.As(err, &perr), "got %T", err)
			assert.Equal(t, tt.eof, errors.Is(err, ErrUnexpectedEOF))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestParse_ErrorPosition(t *testing.T) {
	_, err := Parse("select a\nfrom t\nwhere )")
	require.Error(t, err)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 3, perr.Pos.Line)
	assert.Equal(t, 7, perr.Pos.Column)
}

func TestParse_Unsupported(t *testing.T) {
	tests := []struct {
		name string
		sql  string
	}{
		{"parenthesised join", "select * from (a join b on a.id = b.id)"},
		{"lateral over values", "select * from t, lateral (values (1))"},
		{"exists over values", "select 1 where exists (values (1))"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.sql)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnsupported))

			var uerr *UnsupportedError
			assert.True(t, errors.As(err, &uerr))
		})
	}
}

func TestParse_Strict(t *testing.T) {
	q, err := Parse("select first from t")
	require.NoError(t, err, "permissive mode reads unknown keywords as columns")
	assert.Equal(t, "first", q.(*core.SelectQuery).Select.Items[0].Alias)

	_, err = ParseWithOptions("select first from t", Options{Strict: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reserved word")

	_, err = ParseWithOptions("select a from offset", Options{Strict: true})
	assert.Error(t, err)

	_, err = ParseWithOptions("select a.id from t as a", Options{Strict: true})
	assert.NoError(t, err)
}

func TestParse_Comments(t *testing.T) {
	q := mustSelect(t, `-- leading
		select a /* inline */ from t -- trailing`)
	assert.Len(t, q.Select.Items, 1)
}

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want []string
		rest string
	}{
		{"single", "select 1;", []string{"select 1;"}, ""},
		{"several", "select 1; select 2;\n", []string{"select 1;", "select 2;"}, "\n"},
		{"pending tail", "select 1; select", []string{"select 1;"}, " select"},
		{"quoted semicolons", `select ';', ";" from t;`, []string{`select ';', ";" from t;`}, ""},
		{"commented semicolon", "select 1 -- a;b\n;", []string{"select 1 -- a;b\n;"}, ""},
		{"bracketed semicolon", "select (1;", nil, "select (1;"},
		{"empty statements", ";; select 1;;", []string{"select 1;"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rest := SplitStatements(tt.sql)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.rest, rest)
		})
	}
}
