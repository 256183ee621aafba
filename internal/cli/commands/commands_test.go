package commands

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/querykit/internal/cli/config"
	"github.com/leapstack-labs/querykit/internal/cli/output"
	"github.com/leapstack-labs/querykit/internal/cli/testutil"
	logtest "github.com/leapstack-labs/querykit/internal/testutil"
	"github.com/leapstack-labs/querykit/pkg/format"
	"github.com/leapstack-labs/querykit/pkg/parser"
)

func lines(s ...string) string { return strings.Join(s, "\n") }

// execute runs cmd with the default configuration.
func execute(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, string, error) {
	t.Helper()
	config.ResetConfig()

	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestNewFormatCommand(t *testing.T) {
	cmd := NewFormatCommand()

	assert.Equal(t, "format [file...]", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	for _, flag := range []string{"write", "check", "params", "param", "watch"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewTablesCommand(t *testing.T) {
	cmd := NewTablesCommand()

	assert.Equal(t, "tables [file...]", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
}

func TestNewREPLCommand(t *testing.T) {
	cmd := NewREPLCommand()

	assert.Equal(t, "repl", cmd.Use)
	assert.NotEmpty(t, cmd.Long, "Long should not be empty")
}

func TestFormat_Stdin(t *testing.T) {
	out, errOut, err := execute(t, NewFormatCommand(), "select a from t where x = 1;\n")
	require.NoError(t, err)
	assert.Empty(t, errOut)
	assert.Equal(t, lines("SELECT", "    a", "FROM", "    t", "WHERE", "    x = 1", ""), out)
	testutil.AssertNoANSI(t, out)
}

func TestFormat_MultipleFilesKeepOrder(t *testing.T) {
	paths := testutil.WriteSQLFiles(t, map[string]string{
		"a.sql": "select 1",
		"b.sql": "values (2)",
	}, "a.sql", "b.sql")

	out, _, err := execute(t, NewFormatCommand(), "", paths...)
	require.NoError(t, err)

	first := strings.Index(out, paths[0])
	second := strings.Index(out, paths[1])
	require.GreaterOrEqual(t, first, 0)
	assert.Greater(t, second, first)
	assert.Contains(t, out, lines("VALUES", "    (2)"))
}

func TestFormat_Write(t *testing.T) {
	formatted := lines("SELECT", "    a", "FROM", "    t") + "\n"
	paths := testutil.WriteSQLFiles(t, map[string]string{
		"messy.sql": "select   a from\n t",
		"clean.sql": formatted,
	}, "messy.sql", "clean.sql")

	out, errOut, err := execute(t, NewFormatCommand(), "", "--write", paths[0], paths[1])
	require.NoError(t, err)
	assert.Empty(t, out)

	assert.Equal(t, formatted, testutil.ReadFile(t, paths[0]))
	assert.Equal(t, formatted, testutil.ReadFile(t, paths[1]))
	assert.Contains(t, errOut, "changed  "+paths[0])
	assert.Contains(t, errOut, "ok       "+paths[1])
}

func TestFormat_Check(t *testing.T) {
	paths := testutil.WriteSQLFiles(t, map[string]string{
		"clean.sql": lines("SELECT", "    1") + "\n",
		"messy.sql": "select 1",
	}, "clean.sql", "messy.sql")

	_, errOut, err := execute(t, NewFormatCommand(), "", "--check", paths[0])
	require.NoError(t, err)
	assert.Empty(t, errOut)

	_, errOut, err = execute(t, NewFormatCommand(), "", "--check", paths[0], paths[1])
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnformatted))
	assert.Contains(t, errOut, paths[1])
	assert.NotContains(t, errOut, paths[0])
	assert.Equal(t, "select 1", testutil.ReadFile(t, paths[1]), "check never writes")
}

func TestFormat_CheckCRLF(t *testing.T) {
	paths := testutil.WriteSQLFiles(t, map[string]string{
		"crlf.sql": "SELECT\r\n    1\r\n",
	}, "crlf.sql")

	_, errOut, err := execute(t, NewFormatCommand(), "", "--check", paths[0])
	require.NoError(t, err)
	assert.Empty(t, errOut)
}

func TestFormat_Errors(t *testing.T) {
	tests := []struct {
		name      string
		stdin     string
		args      []string
		errSubstr string
	}{
		{
			name:      "parse failure",
			stdin:     "select a from",
			errSubstr: "1 of 1 inputs failed to parse",
		},
		{
			name:      "write needs files",
			stdin:     "select 1",
			args:      []string{"--write"},
			errSubstr: "need at least one file",
		},
		{
			name:      "write and check",
			args:      []string{"--write", "--check", "x.sql"},
			errSubstr: "mutually exclusive",
		},
		{
			name:      "missing file",
			args:      []string{"does-not-exist.sql"},
			errSubstr: "does-not-exist.sql",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, NewFormatCommand(), tt.stdin, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestFormat_Params(t *testing.T) {
	out, _, err := execute(t, NewFormatCommand(),
		"select * from t where id = :id and name = :name",
		"--params", "--param", ":id=7")
	require.NoError(t, err)

	assert.Contains(t, out, "PARAMETER")
	assert.Contains(t, out, ":id")
	assert.Contains(t, out, "7")
	assert.Contains(t, out, ":name")
	assert.Contains(t, out, "(unbound)")

	out, _, err = execute(t, NewFormatCommand(), "select 1", "--params")
	require.NoError(t, err)
	assert.Contains(t, out, "no parameters")
}

func TestRenderFormatResults_Markdown(t *testing.T) {
	tr := testutil.NewTestRenderer(output.ModeMarkdown, false)
	cc := &CommandContext{Cfg: config.Default(), Logger: logtest.NewTestLogger(t), Renderer: tr.Renderer}

	results := []*formatResult{
		{File: "a.sql", SQL: lines("SELECT", "    1")},
		{File: "b.sql", SQL: lines("VALUES", "    (2)")},
	}
	require.NoError(t, renderFormatResults(cc, results, &FormatOptions{}))

	out := tr.Output()
	testutil.AssertValidMarkdown(t, out)
	assert.Equal(t, lines(
		"## a.sql", "",
		"```sql", "SELECT", "    1", "```",
		"## b.sql", "",
		"```sql", "VALUES", "    (2)", "```", ""), out)
}

func TestCommandContext_RenderHighlights(t *testing.T) {
	q, err := parser.Parse("select a from t")
	require.NoError(t, err)

	tr := testutil.NewTestRenderer(output.ModeText, true)
	cc := &CommandContext{Cfg: config.Default(), Logger: logtest.NewTestLogger(t), Renderer: tr.Renderer}
	require.True(t, cc.Renderer.Color())

	colored := cc.Render(q)
	assert.Contains(t, colored, "\x1b[")
	assert.Equal(t, format.Format(q), testutil.StripANSI(colored))

	cc.Renderer.SetColor(false)
	plain := cc.Render(q)
	testutil.AssertNoANSI(t, plain)
	assert.Equal(t, format.Format(q), plain)
}

func TestBindParameters(t *testing.T) {
	q, err := parser.Parse("select :a from t union select :a from u")
	require.NoError(t, err)

	require.NoError(t, bindParameters(q, map[string]string{":a": "1", ":unused": "2"}))
	assert.Equal(t, map[string]any{":a": "1"}, q.Base().Parameters)
	require.NoError(t, bindParameters(q, nil))
}

func TestTables(t *testing.T) {
	out, _, err := execute(t, NewTablesCommand(),
		"with c as (select x from s.src) select * from c join other o on o.id = c.id where c.x in (select y from s.src)")
	require.NoError(t, err)

	for _, want := range []string{"KIND", "physical", "s.src", "other", "common", "nested queries"} {
		assert.Contains(t, out, want)
	}
	assert.Equal(t, 1, strings.Count(out, "s.src"), "physical tables are deduplicated")
}

func TestLineageOf(t *testing.T) {
	q, err := parser.Parse("with c as (select x from s.src) select * from c join other o on o.id = c.id where c.x in (select y from S.SRC where z = :z)")
	require.NoError(t, err)

	l := lineageOf("q.sql", q)
	assert.Equal(t, "q.sql", l.File)
	assert.Equal(t, []string{"s.src", "other"}, l.Physical)
	assert.Equal(t, []string{"c"}, l.Common)
	assert.Equal(t, 2, l.Nested)
	assert.Equal(t, []string{":z"}, l.Placeholders)

	values, err := parser.Parse("values (1)")
	require.NoError(t, err)
	empty := lineageOf("v", values)
	assert.Equal(t, []string{}, empty.Physical)
	assert.Equal(t, []string{}, empty.Common)
}

func TestTables_ParseError(t *testing.T) {
	_, _, err := execute(t, NewTablesCommand(), "select (")
	require.Error(t, err)
	assert.True(t, errors.Is(err, parser.ErrUnexpectedEOF))
	assert.Contains(t, err.Error(), "<stdin>")
}

func newTestSession(t *testing.T) (*replSession, *testutil.TestRenderer) {
	t.Helper()
	tr := testutil.NewTestRendererText()
	cc := &CommandContext{
		Cfg:      config.Default(),
		Logger:   logtest.NewTestLogger(t),
		Renderer: tr.Renderer,
	}
	return newREPLSession(cc, tr.Out, tr.ErrOut), tr
}

func TestREPLSession_Statements(t *testing.T) {
	s, tr := newTestSession(t)

	assert.False(t, s.handleLine("select a"))
	assert.True(t, s.pending())
	assert.False(t, s.handleLine("  from t;  "))
	assert.False(t, s.pending())
	assert.Equal(t, lines("SELECT", "    a", "FROM", "    t", "", ""), tr.Output())

	tr.Reset()
	assert.False(t, s.handleLine("select (;"))
	assert.Contains(t, tr.ErrorOutput(), "Error:")
	assert.Empty(t, tr.Output())
	assert.False(t, s.pending())

	assert.False(t, s.handleLine(""))
	s.handleLine("select 1")
	s.reset()
	assert.False(t, s.pending())
}

func TestREPLSession_SeveralStatementsOnOneLine(t *testing.T) {
	s, tr := newTestSession(t)

	assert.False(t, s.handleLine("select 1; select ';' as semi; select (2"))
	assert.True(t, s.pending())
	assert.Equal(t, lines("SELECT", "    1", "", "SELECT", "    ';' AS semi", "", ""), tr.Output())

	tr.Reset()
	assert.False(t, s.handleLine(");; -- done"))
	assert.False(t, s.pending())
	assert.Equal(t, lines("SELECT", "    (2)", "", ""), tr.Output())
	assert.Empty(t, tr.ErrorOutput())
}

func TestREPLSession_DotCommands(t *testing.T) {
	s, tr := newTestSession(t)

	s.handleLine(".tables")
	assert.Contains(t, tr.ErrorOutput(), "No statement yet")

	tr.Reset()
	s.handleLine("select :id from users where id = :id;")
	tr.Reset()

	s.handleLine(".params")
	assert.Equal(t, ":id\n", tr.Output())

	tr.Reset()
	s.handleLine(".tables")
	assert.Contains(t, tr.Output(), "users")

	tr.Reset()
	s.handleLine(".help")
	assert.Contains(t, tr.Output(), ".set <key> <value>")

	tr.Reset()
	s.handleLine(".bogus")
	assert.Contains(t, tr.ErrorOutput(), "Unknown command: .bogus")

	assert.True(t, s.handleLine(".quit"))
	assert.True(t, s.handleLine(".EXIT"))
}

func TestREPLSession_Set(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantErr string
		want    string
	}{
		{name: "keyword case", line: ".set keyword_case lower", want: lines("select", "    a,", "    b", "")},
		{name: "comma style", line: ".set comma_style leading", want: lines("SELECT", "    a", "    , b", "")},
		{name: "indent", line: ".set indent 2", want: lines("SELECT", "  a,", "  b", "")},
		{name: "bad indent", line: ".set indent wide", wantErr: "invalid indent"},
		{name: "indent out of range", line: ".set indent 99", wantErr: "invalid indent size"},
		{name: "bad case", line: ".set keyword_case title", wantErr: "invalid keyword case"},
		{name: "unknown key", line: ".set colour red", wantErr: "unknown setting"},
		{name: "usage", line: ".set indent", wantErr: "Usage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, tr := newTestSession(t)
			s.handleLine(tt.line)
			if tt.wantErr != "" {
				assert.Contains(t, tr.ErrorOutput(), tt.wantErr)
				assert.Equal(t, config.Default(), s.cc.Cfg)
				return
			}
			require.Empty(t, tr.ErrorOutput())
			s.handleLine("select a, b;")
			assert.Equal(t, tt.want+"\n", tr.Output())
		})
	}
}

func TestREPLSession_Strict(t *testing.T) {
	s, tr := newTestSession(t)
	s.handleLine("select first from t;")
	assert.Empty(t, tr.ErrorOutput())

	s.handleLine(".set strict true")
	tr.Reset()
	s.handleLine("select first from t;")
	assert.Contains(t, tr.ErrorOutput(), "Error:")
}
