package config

import (
	"fmt"
	"slices"

	"github.com/leapstack-labs/querykit/internal/cli/output"
)

// Validate checks values that decoding alone cannot reject.
func (c *Config) Validate() error {
	if !output.Mode(c.Output).Valid() {
		return fmt.Errorf("invalid output %q (want one of %v)", c.Output, output.Modes())
	}
	if c.Color != "" && !slices.Contains([]string{ColorAuto, ColorAlways, ColorNever}, c.Color) {
		return fmt.Errorf("invalid color %q (want auto, always or never)", c.Color)
	}
	if c.Format.IndentSize < 0 || c.Format.IndentSize > 16 {
		return fmt.Errorf("invalid indent size %d (want 0-16)", c.Format.IndentSize)
	}
	return nil
}

// UseColor resolves the colour setting against the terminal state.
func (c *Config) UseColor(isTTY bool) bool {
	switch c.Color {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	return isTTY
}
