// Package config provides configuration management for the querykit CLI.
package config

import (
	"github.com/leapstack-labs/querykit/pkg/format"
	"github.com/leapstack-labs/querykit/pkg/parser"
)

// Config holds all CLI configuration options.
type Config struct {
	Verbose bool         `koanf:"verbose"`
	Output  string       `koanf:"output"`
	Color   string       `koanf:"color"`
	Strict  bool         `koanf:"strict"`
	Format  FormatConfig `koanf:"format"`
}

// FormatConfig holds the rendering style.
type FormatConfig struct {
	IndentSize  int                `koanf:"indent_size"`
	KeywordCase format.KeywordCase `koanf:"keyword_case"`
	CommaStyle  format.CommaStyle  `koanf:"comma_style"`
}

// Options converts the configured style to renderer options.
func (f FormatConfig) Options() format.Options {
	return format.Options{
		IndentSize:  f.IndentSize,
		KeywordCase: f.KeywordCase,
		CommaStyle:  f.CommaStyle,
	}
}

// ParserOptions returns the parser options implied by the configuration.
func (c *Config) ParserOptions() parser.Options {
	return parser.Options{Strict: c.Strict}
}

// Colour settings.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Default configuration values.
const (
	DefaultOutput = "auto"
	DefaultColor  = ColorAuto
)

// Default returns the configuration used when nothing is loaded.
func Default() *Config {
	return &Config{
		Output: DefaultOutput,
		Color:  DefaultColor,
		Format: FormatConfig{IndentSize: format.DefaultIndentSize},
	}
}
