package format

import (
	"github.com/leapstack-labs/querykit/pkg/core"
	"github.com/leapstack-labs/querykit/pkg/parser"
)

// Format renders a node with the default options.
func Format(n core.Node) string {
	return NewCommandTextBuilder(DefaultOptions()).Render(n)
}

// Command renders q with opts and merges its parameters.
func Command(q core.Query, opts Options) (*core.QueryCommand, error) {
	return NewCommandTextBuilder(opts).Build(q)
}

// SQL parses sql and renders it with opts.
func SQL(sql string, opts Options) (string, error) {
	q, err := parser.Parse(sql)
	if err != nil {
		return "", err
	}
	return NewCommandTextBuilder(opts).Render(q), nil
}
