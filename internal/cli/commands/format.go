package commands

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/querykit/internal/cli/output"
	"github.com/leapstack-labs/querykit/pkg/core"
	"github.com/leapstack-labs/querykit/pkg/format"
)

// ErrUnformatted is returned by format --check when an input would change.
var ErrUnformatted = errors.New("input is not formatted")

// FormatOptions holds options for the format command.
type FormatOptions struct {
	Write  bool
	Check  bool
	Params bool
	Bind   map[string]string
	Watch  bool
}

// formatResult is the outcome for one input.
type formatResult struct {
	File       string         `json:"file" yaml:"file"`
	SQL        string         `json:"sql,omitempty" yaml:"sql,omitempty"`
	Changed    bool           `json:"changed" yaml:"changed"`
	Parameters map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Unbound    []string       `json:"unbound,omitempty" yaml:"unbound,omitempty"`
	Error      string         `json:"error,omitempty" yaml:"error,omitempty"`

	// colored is the text-mode rendering, highlighted when colour is on
	colored string
}

// NewFormatCommand creates the format command.
func NewFormatCommand() *cobra.Command {
	opts := &FormatOptions{}

	cmd := &cobra.Command{
		Use:   "format [file...]",
		Short: "Format SQL statements",
		Long: `Parse SQL statements and print them in the canonical layout.

Each file holds one SELECT, VALUES or WITH statement. Without files the
statement is read from stdin. Files are formatted concurrently.`,
		Example: `  # Format a file to stdout
  querykit format report.sql

  # Rewrite files in place with lower-case keywords
  querykit format -w --keyword-case lower queries/*.sql

  # Fail when a file is not formatted (CI)
  querykit format --check queries/*.sql

  # Show bind parameters, binding :id
  echo "select * from t where id = :id" | querykit format --params --param :id=7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFormat(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Write, "write", "w", false, "Write the result back to each file")
	cmd.Flags().BoolVar(&opts.Check, "check", false, "Report files that are not formatted and exit non-zero")
	cmd.Flags().BoolVar(&opts.Params, "params", false, "Print the bind parameters of each statement")
	cmd.Flags().StringToStringVar(&opts.Bind, "param", nil, "Bind a placeholder value (name=value, repeatable)")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Re-format files when they change")

	return cmd
}

func runFormat(cmd *cobra.Command, args []string, opts *FormatOptions) error {
	if (opts.Write || opts.Watch) && len(args) == 0 {
		return fmt.Errorf("--write and --watch need at least one file")
	}
	if opts.Write && opts.Check {
		return fmt.Errorf("--write and --check are mutually exclusive")
	}

	cc := NewCommandContext(cmd)
	if err := formatOnce(cmd, cc, args, opts); err != nil && !opts.Watch {
		return err
	}
	if opts.Watch {
		return watchFiles(cmd.Context(), cc, args, func(changed []string) {
			if err := formatOnce(cmd, cc, changed, opts); err != nil {
				cc.Renderer.Error(err.Error())
			}
		})
	}
	return nil
}

func formatOnce(cmd *cobra.Command, cc *CommandContext, files []string, opts *FormatOptions) error {
	sources, err := readSources(cmd.InOrStdin(), files)
	if err != nil {
		return err
	}

	results, err := formatSources(cmd.Context(), cc, sources, opts)
	if err != nil {
		return err
	}

	if opts.Write {
		if err := writeResults(cc, sources, results); err != nil {
			return err
		}
	}
	if err := renderFormatResults(cc, results, opts); err != nil {
		return err
	}
	return checkResults(results, opts)
}

// formatSources formats every source concurrently, keeping input order.
// Parse failures are recorded per result rather than aborting the batch.
func formatSources(ctx context.Context, cc *CommandContext, sources []source, opts *FormatOptions) ([]*formatResult, error) {
	results := make([]*formatResult, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, src := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = formatSource(cc, src, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func formatSource(cc *CommandContext, src source, opts *FormatOptions) *formatResult {
	res := &formatResult{File: src.Name}

	q, err := cc.Parse(src.SQL)
	if err != nil {
		cc.Logger.Debug("parse failed", "file", src.Name, "error", err)
		res.Error = err.Error()
		return res
	}

	if err := bindParameters(q, opts.Bind); err != nil {
		res.Error = err.Error()
		return res
	}

	command, err := format.Command(q, cc.Options())
	if err != nil {
		res.Error = err.Error()
		return res
	}

	res.SQL = command.CommandText
	res.Changed = strings.TrimRight(strings.ReplaceAll(src.SQL, "\r\n", "\n"), "\n") != command.CommandText
	res.colored = res.SQL
	if cc.Renderer.Color() {
		res.colored = cc.Render(q)
	}
	if opts.Params {
		res.Parameters = command.Parameters
		for _, name := range core.Placeholders(q) {
			if _, ok := command.Parameters[name]; !ok {
				res.Unbound = append(res.Unbound, name)
			}
		}
	}
	cc.Logger.Debug("formatted", "file", src.Name, "changed", res.Changed)
	return res
}

// bindParameters attaches each bound value whose placeholder appears in q.
func bindParameters(q core.Query, bind map[string]string) error {
	if len(bind) == 0 {
		return nil
	}
	for _, name := range core.Placeholders(q) {
		if value, ok := bind[name]; ok {
			if err := q.Base().AddParameter(name, value); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeResults(cc *CommandContext, sources []source, results []*formatResult) error {
	for i, res := range results {
		if res.Error != "" || !res.Changed {
			continue
		}
		info, err := os.Stat(sources[i].Name)
		if err != nil {
			return err
		}
		if err := os.WriteFile(sources[i].Name, []byte(res.SQL+"\n"), info.Mode().Perm()); err != nil {
			return fmt.Errorf("failed to write %s: %w", sources[i].Name, err)
		}
		cc.Logger.Info("rewrote file", "file", sources[i].Name)
	}
	return nil
}

func renderFormatResults(cc *CommandContext, results []*formatResult, opts *FormatOptions) error {
	r := cc.Renderer
	if r.EffectiveMode().Structured() {
		if len(results) == 1 {
			return r.Structured(results[0])
		}
		return r.Structured(results)
	}

	for _, res := range results {
		switch {
		case res.Error != "":
			r.StatusLine(res.File, "failed", res.Error)
			continue
		case opts.Check:
			if res.Changed {
				r.StatusLine(res.File, "changed", "")
			}
			continue
		case opts.Write:
			status := "ok"
			if res.Changed {
				status = "changed"
			}
			r.StatusLine(res.File, status, "")
		default:
			if len(results) > 1 {
				r.Header(2, res.File)
			}
			if r.EffectiveMode() == output.ModeMarkdown {
				r.SQL(res.SQL)
			} else {
				r.SQL(res.colored)
			}
		}

		if opts.Params {
			renderParameters(r, res)
		}
	}
	return nil
}

func renderParameters(r *output.Renderer, res *formatResult) {
	if len(res.Parameters) == 0 && len(res.Unbound) == 0 {
		r.Muted("no parameters")
		return
	}

	names := slices.Sorted(maps.Keys(res.Parameters))
	rows := make([][]string, 0, len(names)+len(res.Unbound))
	for _, name := range names {
		rows = append(rows, []string{name, fmt.Sprint(res.Parameters[name])})
	}
	for _, name := range res.Unbound {
		rows = append(rows, []string{name, "(unbound)"})
	}
	r.Table([]string{"parameter", "value"}, rows)
}

func checkResults(results []*formatResult, opts *FormatOptions) error {
	var failed, changed int
	for _, res := range results {
		if res.Error != "" {
			failed++
		} else if res.Changed {
			changed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d inputs failed to parse", failed, len(results))
	}
	if opts.Check && changed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrUnformatted, changed, len(results))
	}
	return nil
}

// watchDebounce coalesces the burst of events editors emit on save.
const watchDebounce = 100 * time.Millisecond

// watchFiles calls onChange with the files modified since the last call
// until ctx is done. Directories of the files are watched so that editors
// that replace files on save keep triggering events.
func watchFiles(ctx context.Context, cc *CommandContext, files []string, onChange func([]string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	wanted := make(map[string]string, len(files))
	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		wanted[abs] = f
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	cc.Logger.Info("watching for changes", "files", len(files))

	pending := make(map[string]bool)
	timer := time.NewTimer(watchDebounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if name, ok := wanted[abs]; ok {
				pending[name] = true
				timer.Reset(watchDebounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			cc.Logger.Warn("watch error", "error", err)
		case <-timer.C:
			changed := make([]string, 0, len(pending))
			for _, f := range files {
				if pending[f] {
					changed = append(changed, f)
				}
			}
			clear(pending)
			onChange(changed)
		}
	}
}
