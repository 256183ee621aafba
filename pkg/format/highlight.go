package format

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/leapstack-labs/querykit/pkg/core"
	"github.com/leapstack-labs/querykit/pkg/token"
)

// Theme holds the styles used for syntax highlighting.
type Theme struct {
	Keyword   lipgloss.Style
	Literal   lipgloss.Style
	Parameter lipgloss.Style
}

// NewTheme creates the default theme for output written to w. With color
// disabled the styles render plain text; with it enabled they emit at least
// 16-colour ANSI sequences even when w is not a terminal.
func NewTheme(w io.Writer, color bool) *Theme {
	r := lipgloss.NewRenderer(w)
	switch {
	case !color:
		r.SetColorProfile(termenv.Ascii)
	case r.ColorProfile() == termenv.Ascii:
		r.SetColorProfile(termenv.ANSI)
	}
	return &Theme{
		Keyword:   r.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		Literal:   r.NewStyle().Foreground(lipgloss.Color("10")),
		Parameter: r.NewStyle().Foreground(lipgloss.Color("13")),
	}
}

// Decorator returns a Decorator that styles keywords, literals and
// parameters.
func (th *Theme) Decorator() Decorator {
	return func(t *token.Token, text string) string {
		if t.Reserved {
			return th.Keyword.Render(text)
		}
		switch s := t.Sender.(type) {
		case *core.LiteralValue:
			if t.Text == s.Text {
				return th.Literal.Render(text)
			}
		case *core.ParameterValue:
			if t.Text == s.Name {
				return th.Parameter.Render(text)
			}
		}
		return text
	}
}

// Highlight renders n with opts and theme.
func Highlight(n core.Node, opts Options, theme *Theme) string {
	return NewCommandTextBuilder(opts).WithDecorator(theme.Decorator()).Render(n)
}
