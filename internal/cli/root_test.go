package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/querykit/internal/cli/config"
)

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	config.ResetConfig()

	root := NewRootCmd()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestRoot_Subcommands(t *testing.T) {
	root := NewRootCmd()
	for _, name := range []string{"format", "tables", "repl", "version", "completion"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
	for _, flag := range []string{"config", "verbose", "output", "indent", "keyword-case", "comma-style", "color", "strict"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestRoot_FormatFlags(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "defaults",
			args: []string{"format"},
			want: "SELECT\n    a,\n    b\nFROM\n    t\n",
		},
		{
			name: "style flags",
			args: []string{"--keyword-case", "lower", "--indent", "2", "--comma-style", "leading", "format"},
			want: "select\n  a\n  , b\nfrom\n  t\n",
		},
		{
			name: "colour forced off",
			args: []string{"--color", "never", "format"},
			want: "SELECT\n    a,\n    b\nFROM\n    t\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := run(t, "select a, b from t", tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestRoot_ColorAlwaysHighlights(t *testing.T) {
	t.Chdir(t.TempDir())

	out, _, err := run(t, "select a from t", "--color", "always", "format")
	require.NoError(t, err)
	assert.Contains(t, out, "\x1b[")
}

func TestRoot_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "querykit.yaml"),
		[]byte("format:\n  keyword_case: lower\n  indent_size: 2\n"), 0o600))

	out, _, err := run(t, "select a from t", "format")
	require.NoError(t, err)
	assert.Equal(t, "select\n  a\nfrom\n  t\n", out)

	out, _, err = run(t, "select a from t", "--keyword-case", "upper", "format")
	require.NoError(t, err)
	assert.Equal(t, "SELECT\n  a\nFROM\n  t\n", out, "flags override the file")

	other := filepath.Join(t.TempDir(), "other.yaml")
	require.NoError(t, os.WriteFile(other, []byte("format:\n  comma_style: leading\n"), 0o600))
	out, _, err = run(t, "select a, b", "--config", other, "format")
	require.NoError(t, err)
	assert.Equal(t, "SELECT\n    a\n    , b\n", out)
}

func TestRoot_StructuredOutput(t *testing.T) {
	t.Chdir(t.TempDir())

	out, _, err := run(t, "select 1", "-o", "json", "format")
	require.NoError(t, err)
	var formatted map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &formatted))
	assert.Equal(t, "<stdin>", formatted["file"])
	assert.Equal(t, "SELECT\n    1", formatted["sql"])
	assert.Equal(t, true, formatted["changed"])

	out, _, err = run(t, "select * from a join b on a.id = b.id", "-o", "yaml", "tables")
	require.NoError(t, err)
	var tables struct {
		Physical []string `yaml:"physical_tables"`
		Nested   int      `yaml:"nested_queries"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &tables))
	assert.Equal(t, []string{"a", "b"}, tables.Physical)
	assert.Zero(t, tables.Nested)
}

func TestRoot_Strict(t *testing.T) {
	t.Chdir(t.TempDir())

	_, _, err := run(t, "select first from t", "format")
	require.NoError(t, err)

	_, _, err = run(t, "select first from t", "--strict", "format")
	require.Error(t, err)
}

func TestRoot_InvalidConfig(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := [][]string{
		{"--keyword-case", "title", "format"},
		{"--output", "csv", "format"},
		{"--color", "sometimes", "format"},
	}
	for _, args := range tests {
		_, _, err := run(t, "select 1", args...)
		assert.Error(t, err, "%v", args)
	}
}

func TestRoot_VerboseLogsToStderr(t *testing.T) {
	t.Chdir(t.TempDir())

	out, errOut, err := run(t, "select 1", "-v", "format")
	require.NoError(t, err)
	assert.Equal(t, "SELECT\n    1\n", out)
	assert.Contains(t, errOut, "level=DEBUG")
	assert.Contains(t, errOut, "formatted")
}

func TestRoot_VersionAndCompletion(t *testing.T) {
	out, _, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "querykit v"+Version)

	out, _, err = run(t, "", "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "querykit")

	_, _, err = run(t, "", "completion", "tcsh")
	assert.Error(t, err)
}
