// Package output renders CLI results as text, markdown, JSON or YAML.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/muesli/termenv"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Mode selects the output format.
type Mode string

// Output modes.
const (
	ModeAuto     Mode = "auto"
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
	ModeYAML     Mode = "yaml"
)

// Modes lists the accepted values of --output.
func Modes() []string {
	return []string{string(ModeAuto), string(ModeText), string(ModeMarkdown), string(ModeJSON), string(ModeYAML)}
}

// Valid reports whether m is a known mode. The empty mode means auto.
func (m Mode) Valid() bool {
	switch m {
	case "", ModeAuto, ModeText, ModeMarkdown, ModeJSON, ModeYAML:
		return true
	}
	return false
}

// Structured reports whether m emits machine readable documents.
func (m Mode) Structured() bool {
	return m == ModeJSON || m == ModeYAML
}

// Styles holds the lipgloss styles used for human readable output.
type Styles struct {
	Header  lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Muted   lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) *Styles {
	return &Styles{
		Header:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Success: r.NewStyle().Foreground(lipgloss.Color("10")),
		Error:   r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Warning: r.NewStyle().Foreground(lipgloss.Color("11")),
		Info:    r.NewStyle().Foreground(lipgloss.Color("14")),
		Muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// Renderer writes command output in the configured mode.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	isTTY  bool
	color  bool
	styles *Styles
}

// NewRenderer creates a renderer, detecting whether out is a terminal.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	return NewRendererWithTTY(out, errOut, isTerminal(out), mode)
}

// NewRendererWithTTY creates a renderer with an explicit terminal state.
// Colour follows isTTY until SetColor is called.
func NewRendererWithTTY(out, errOut io.Writer, isTTY bool, mode Mode) *Renderer {
	r := &Renderer{out: out, errOut: errOut, mode: mode, isTTY: isTTY}
	r.SetColor(isTTY)
	return r
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // file descriptors fit in int
}

// SetColor enables or disables ANSI styling.
func (r *Renderer) SetColor(on bool) {
	r.color = on
	lr := lipgloss.NewRenderer(r.out)
	switch {
	case !on:
		lr.SetColorProfile(termenv.Ascii)
	case lr.ColorProfile() == termenv.Ascii:
		lr.SetColorProfile(termenv.ANSI)
	}
	r.styles = newStyles(lr)
}

// Color reports whether ANSI styling is enabled.
func (r *Renderer) Color() bool { return r.color }

// IsTTY reports whether stdout is a terminal.
func (r *Renderer) IsTTY() bool { return r.isTTY }

// Styles returns the active styles.
func (r *Renderer) Styles() *Styles { return r.styles }

// Writer returns the stdout writer.
func (r *Renderer) Writer() io.Writer { return r.out }

// ErrWriter returns the stderr writer.
func (r *Renderer) ErrWriter() io.Writer { return r.errOut }

// EffectiveMode resolves ModeAuto. SQL is the primary payload of every
// command so auto means text whether or not stdout is a terminal.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode == "" || r.mode == ModeAuto {
		return ModeText
	}
	return r.mode
}

// Println writes a line to stdout.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted text to stdout.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// Header writes a section header.
func (r *Renderer) Header(level int, text string) {
	if r.EffectiveMode() == ModeMarkdown {
		r.Println(strings.Repeat("#", max(level, 1)) + " " + text)
		r.Println()
		return
	}
	r.Println(r.styles.Header.Render(text))
}

// Success writes a confirmation to stdout.
func (r *Renderer) Success(msg string) { r.Println(r.styles.Success.Render(msg)) }

// Muted writes low-emphasis text to stdout.
func (r *Renderer) Muted(msg string) { r.Println(r.styles.Muted.Render(msg)) }

// Warning writes a warning to stderr.
func (r *Renderer) Warning(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Warning.Render("warning: ")+msg)
}

// Error writes an error to stderr.
func (r *Renderer) Error(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Error.Render("error: ")+msg)
}

// StatusLine writes "status  subject: msg" to stderr, styling status by
// its value (ok, changed, failed).
func (r *Renderer) StatusLine(subject, status, msg string) {
	style := r.styles.Info
	switch status {
	case "ok":
		style = r.styles.Success
	case "failed":
		style = r.styles.Error
	case "changed":
		style = r.styles.Warning
	}
	line := style.Render(fmt.Sprintf("%-8s", status)) + " " + subject
	if msg != "" {
		line += ": " + msg
	}
	_, _ = fmt.Fprintln(r.errOut, line)
}

// SQL writes a statement. Markdown mode wraps it in a fenced block.
func (r *Renderer) SQL(text string) {
	if r.EffectiveMode() == ModeMarkdown {
		r.Println("```sql")
		r.Println(text)
		r.Println("```")
		return
	}
	r.Println(text)
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// YAML writes v as a YAML document.
func (r *Renderer) YAML(v any) error {
	enc := yaml.NewEncoder(r.out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// Structured writes v in the JSON or YAML mode that is active.
func (r *Renderer) Structured(v any) error {
	if r.EffectiveMode() == ModeYAML {
		return r.YAML(v)
	}
	return r.JSON(v)
}

// Table writes rows under header using go-pretty, as markdown in markdown
// mode.
func (r *Renderer) Table(header []string, rows [][]string) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)

	hdr := make(table.Row, len(header))
	for i, h := range header {
		hdr[i] = h
	}
	t.AppendHeader(hdr)
	for _, row := range rows {
		tr := make(table.Row, len(row))
		for i, c := range row {
			tr[i] = c
		}
		t.AppendRow(tr)
	}

	if r.EffectiveMode() == ModeMarkdown {
		t.RenderMarkdown()
		return
	}
	t.Render()
}
