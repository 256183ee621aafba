package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/querykit/internal/cli/config"
	"github.com/leapstack-labs/querykit/internal/cli/output"
	"github.com/leapstack-labs/querykit/pkg/core"
	"github.com/leapstack-labs/querykit/pkg/format"
	"github.com/leapstack-labs/querykit/pkg/parser"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the loaded configuration.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.Output))
	r.SetColor(cfg.UseColor(r.IsTTY()))

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// getConfig returns the current configuration, or the defaults when the
// command runs without the root pre-run (as in tests).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}

// Options returns the configured rendering style.
func (c *CommandContext) Options() format.Options {
	return c.Cfg.Format.Options()
}

// Parse parses sql with the configured parser options.
func (c *CommandContext) Parse(sql string) (core.Query, error) {
	return parser.ParseWithOptions(sql, c.Cfg.ParserOptions())
}

// Render renders q, highlighted when colour is on and the output is text.
func (c *CommandContext) Render(q core.Query) string {
	if c.Renderer.Color() && c.Renderer.EffectiveMode() == output.ModeText {
		return format.Highlight(q, c.Options(), format.NewTheme(c.Renderer.Writer(), true))
	}
	return format.NewCommandTextBuilder(c.Options()).Render(q)
}

// source is one SQL input: a file or stdin.
type source struct {
	Name string
	SQL  string
}

const stdinName = "<stdin>"

// readSources reads the named files, or stdin when none are given.
func readSources(stdin io.Reader, files []string) ([]source, error) {
	if len(files) == 0 {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return []source{{Name: stdinName, SQL: string(data)}}, nil
	}

	sources := make([]source, 0, len(files))
	for _, name := range files {
		data, err := os.ReadFile(name) //nolint:gosec // paths come from the command line
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		sources = append(sources, source{Name: name, SQL: string(data)})
	}
	return sources, nil
}
