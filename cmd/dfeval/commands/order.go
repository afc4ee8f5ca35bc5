package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/elphick/df-eval/schema"
	"github.com/elphick/df-eval/table"
	"github.com/spf13/cobra"
)

// columnsReader is an empty table that only knows its column names
type columnsReader map[string]bool

func (c columnsReader) Column(name string) (table.Series, bool) {
	if c[name] {
		return table.Series{}, true
	}
	return nil, false
}

func (c columnsReader) NumRows() int { return 0 }

func newOrderCommand(opts *globalOptions) *cobra.Command {
	var (
		schemaFile string
		input      string
		columns    []string
		levels     bool
	)

	cmd := &cobra.Command{
		Use:   "order",
		Short: "Print the evaluation order of a schema",
		Long: `Check a schema and print the order its columns are computed in, one per
line. With --levels every line holds a wave of columns that do not depend
on each other. Input columns come from the header of --input or from
--columns.`,
		Example: `  dfeval order -s schema.yaml --columns price,qty,rate`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, func(ctx context.Context, a *app) error {
				s, err := schema.LoadFile(schemaFile)
				if err != nil {
					return err
				}

				var t table.Reader
				if input != "" {
					if t, err = readTable(input, cmd.InOrStdin()); err != nil {
						return err
					}
				} else {
					known := make(columnsReader, len(columns))
					for _, c := range columns {
						known[strings.TrimSpace(c)] = true
					}
					t = known
				}

				p, err := a.engine.Plan(t, s, nil)
				if err != nil {
					return err
				}

				w := cmd.OutOrStdout()
				if levels {
					for i, level := range p.Levels {
						fmt.Fprintf(w, "%d: %s\n", i+1, strings.Join(level, ", "))
					}
					return nil
				}
				for _, name := range p.Order {
					if deps := p.Dependencies(name); len(deps) > 0 {
						fmt.Fprintf(w, "%s <- %s\n", name, strings.Join(deps, ", "))
					} else {
						fmt.Fprintln(w, name)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&schemaFile, "schema", "s", "", "YAML schema file")
	cmd.Flags().StringVarP(&input, "input", "i", "", "CSV file whose header lists the input columns")
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "comma separated input column names")
	cmd.Flags().BoolVar(&levels, "levels", false, "print waves of independent columns")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}
