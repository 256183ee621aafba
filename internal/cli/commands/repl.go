package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/querykit/pkg/core"
	"github.com/leapstack-labs/querykit/pkg/format"
	"github.com/leapstack-labs/querykit/pkg/parser"
)

const (
	replPrompt         = "querykit> "
	replContinuePrompt = "     ...> "
)

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Format statements interactively",
		Long: `Read SQL statements interactively and print them formatted.

Statements may span several lines and end with a semicolon. Lines starting
with a dot are commands; type .help to list them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runREPL(cmd)
		},
	}
}

func runREPL(cmd *cobra.Command) error {
	cc := NewCommandContext(cmd)

	var historyFile string
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, ".querykit_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    newDotCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "querykit REPL")
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	s := newREPLSession(cc, cmd.OutOrStdout(), cmd.ErrOrStderr())
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			s.reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if s.handleLine(line) {
			return nil
		}
		if s.pending() {
			rl.SetPrompt(replContinuePrompt)
		} else {
			rl.SetPrompt(replPrompt)
		}
	}
}

// replSession holds the state of one interactive session.
type replSession struct {
	cc     *CommandContext
	out    io.Writer
	errOut io.Writer
	buf    strings.Builder
	last   core.Query
}

func newREPLSession(cc *CommandContext, out, errOut io.Writer) *replSession {
	return &replSession{cc: cc, out: out, errOut: errOut}
}

func (s *replSession) reset() { s.buf.Reset() }

func (s *replSession) pending() bool { return s.buf.Len() > 0 }

// handleLine consumes one input line and reports whether the session ends.
func (s *replSession) handleLine(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if !s.pending() && strings.HasPrefix(line, ".") {
		return s.dotCommand(line)
	}

	// Accumulate multi-line SQL until semicolon
	s.buf.WriteString(line)
	s.buf.WriteString("\n")
	statements, rest := parser.SplitStatements(s.buf.String())
	s.buf.Reset()
	rest = strings.TrimSpace(rest)
	switch {
	case strings.HasSuffix(rest, ";"):
		// unbalanced input still ends at a line-final semicolon
		statements = append(statements, rest)
	case parser.Tokenize(rest)[0].Kind != parser.EOF:
		s.buf.WriteString(rest)
		s.buf.WriteString("\n")
	}

	for _, sql := range statements {
		s.run(sql)
	}
	return false
}

func (s *replSession) run(sql string) {
	q, err := s.cc.Parse(sql)
	if err != nil {
		s.cc.Logger.Debug("parse failed", "sql", sql, "error", err)
		_, _ = fmt.Fprintf(s.errOut, "Error: %v\n", err)
		return
	}
	s.last = q
	_, _ = fmt.Fprintln(s.out, s.cc.Render(q))
	_, _ = fmt.Fprintln(s.out)
}

func (s *replSession) dotCommand(line string) bool {
	parts := strings.Fields(line)
	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(s.out)

	case ".tables":
		if s.last == nil {
			_, _ = fmt.Fprintln(s.errOut, "No statement yet")
			return false
		}
		if err := renderLineage(s.cc, []*lineage{lineageOf("last", s.last)}); err != nil {
			_, _ = fmt.Fprintf(s.errOut, "Error: %v\n", err)
		}

	case ".params":
		if s.last == nil {
			_, _ = fmt.Fprintln(s.errOut, "No statement yet")
			return false
		}
		names := core.Placeholders(s.last)
		if len(names) == 0 {
			_, _ = fmt.Fprintln(s.out, "no parameters")
			return false
		}
		_, _ = fmt.Fprintln(s.out, strings.Join(names, ", "))

	case ".set":
		if len(parts) != 3 {
			_, _ = fmt.Fprintln(s.errOut, "Usage: .set <indent|keyword_case|comma_style|strict> <value>")
			return false
		}
		if err := s.set(parts[1], parts[2]); err != nil {
			_, _ = fmt.Fprintf(s.errOut, "Error: %v\n", err)
		}

	case ".clear":
		_, _ = fmt.Fprint(s.out, "\033[H\033[2J")

	default:
		_, _ = fmt.Fprintf(s.errOut, "Unknown command: %s (type .help for commands)\n", parts[0])
	}
	return false
}

// set changes a style setting for the rest of the session.
func (s *replSession) set(key, value string) error {
	cfg := *s.cc.Cfg
	switch key {
	case "indent":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid indent %q", value)
		}
		cfg.Format.IndentSize = n
	case "keyword_case":
		var kc format.KeywordCase
		if err := kc.UnmarshalText([]byte(value)); err != nil {
			return err
		}
		cfg.Format.KeywordCase = kc
	case "comma_style":
		var cs format.CommaStyle
		if err := cs.UnmarshalText([]byte(value)); err != nil {
			return err
		}
		cfg.Format.CommaStyle = cs
	case "strict":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid strict %q", value)
		}
		cfg.Strict = b
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.cc.Cfg = &cfg
	return nil
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help                 Show this help message
  .tables               Show the tables read by the last statement
  .params               List the placeholders of the last statement
  .set <key> <value>    Change indent, keyword_case, comma_style or strict
  .clear                Clear the screen
  .quit / .exit         Exit the REPL

Tips:
  - SQL statements must end with a semicolon (;)
  - Several statements may share one line
  - Use arrow keys to navigate history
`
	_, _ = fmt.Fprintln(w, help)
}

func newDotCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".tables"),
		readline.PcItem(".params"),
		readline.PcItem(".set",
			readline.PcItem("indent"),
			readline.PcItem("keyword_case", readline.PcItem("upper"), readline.PcItem("lower"), readline.PcItem("preserve")),
			readline.PcItem("comma_style", readline.PcItem("trailing"), readline.PcItem("leading")),
			readline.PcItem("strict", readline.PcItem("true"), readline.PcItem("false")),
		),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}
