package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/querykit/pkg/core"
)

// lineage summarises the sources a statement reads.
type lineage struct {
	File         string   `json:"file" yaml:"file"`
	Physical     []string `json:"physical_tables" yaml:"physical_tables"`
	Common       []string `json:"common_tables" yaml:"common_tables"`
	Nested       int      `json:"nested_queries" yaml:"nested_queries"`
	Placeholders []string `json:"placeholders,omitempty" yaml:"placeholders,omitempty"`
}

// NewTablesCommand creates the tables command.
func NewTablesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tables [file...]",
		Short: "List the tables a statement reads",
		Long: `Parse SQL statements and list the physical tables they read, the common
tables they define and how many nested queries they contain.

References to a statement's own common tables are not reported as physical
tables.`,
		Example: `  querykit tables report.sql
  echo "with c as (select * from s.t) select * from c join u on u.id = c.id" | querykit tables -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContext(cmd)
			sources, err := readSources(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			results := make([]*lineage, 0, len(sources))
			for _, src := range sources {
				q, err := cc.Parse(src.SQL)
				if err != nil {
					return fmt.Errorf("%s: %w", src.Name, err)
				}
				results = append(results, lineageOf(src.Name, q))
			}
			return renderLineage(cc, results)
		},
	}
}

func lineageOf(name string, q core.Query) *lineage {
	l := &lineage{
		File:         name,
		Physical:     []string{},
		Common:       []string{},
		Nested:       len(core.InternalQueries(q)),
		Placeholders: core.Placeholders(q),
	}

	seen := make(map[string]bool)
	for _, t := range core.PhysicalTables(q) {
		full := t.FullName()
		if key := strings.ToLower(full); !seen[key] {
			seen[key] = true
			l.Physical = append(l.Physical, full)
		}
	}
	for _, ct := range core.CommonTables(q) {
		l.Common = append(l.Common, ct.Name)
	}
	return l
}

func renderLineage(cc *CommandContext, results []*lineage) error {
	r := cc.Renderer
	if r.EffectiveMode().Structured() {
		if len(results) == 1 {
			return r.Structured(results[0])
		}
		return r.Structured(results)
	}

	for _, l := range results {
		if len(results) > 1 {
			r.Header(2, l.File)
		}
		rows := make([][]string, 0, len(l.Physical)+len(l.Common)+1)
		for _, name := range l.Physical {
			rows = append(rows, []string{"physical", name})
		}
		for _, name := range l.Common {
			rows = append(rows, []string{"common", name})
		}
		rows = append(rows, []string{"nested queries", strconv.Itoa(l.Nested)})
		r.Table([]string{"kind", "name"}, rows)
	}
	return nil
}
