package commands

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/elphick/df-eval/table"
	"github.com/spf13/cobra"
)

var namedExpression = regexp.MustCompile(`^\s*([A-Za-z_][A-Za-z0-9_]*)\s*=([^=].*)$`)

// splitExpression splits "name = expr" into its parts. Anything else,
// "a == b" included, is an unnamed expression.
func splitExpression(arg string) (name, expr string, ok bool) {
	m := namedExpression.FindStringSubmatch(arg)
	if m == nil {
		return "", arg, false
	}
	return m[1], strings.TrimSpace(m[2]), true
}

// expressionColumns names every expression argument. Unnamed ones are
// called result, or result_N when there are several.
func expressionColumns(args []string) ([]string, map[string]string, error) {
	names := make([]string, 0, len(args))
	exprs := make(map[string]string, len(args))
	for i, arg := range args {
		name, expr, ok := splitExpression(arg)
		if !ok {
			name = "result"
			if len(args) > 1 {
				name = fmt.Sprintf("result_%d", i+1)
			}
		}
		if _, dup := exprs[name]; dup {
			return nil, nil, fmt.Errorf("column %q given twice", name)
		}
		names = append(names, name)
		exprs[name] = expr
	}
	return names, exprs, nil
}

func newEvalCommand(opts *globalOptions) *cobra.Command {
	var (
		input  string
		output string
		dtype  string
		only   bool
	)

	cmd := &cobra.Command{
		Use:   "eval [name=]EXPR...",
		Short: "Evaluate expressions over a CSV table",
		Long: `Evaluate one or more independent expressions over a CSV table and write
the table with the results appended. Expressions are evaluated in parallel.`,
		Example: `  dfeval eval -i orders.csv 'total = price * qty' 'cheap = price < 10'`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, func(ctx context.Context, a *app) error {
				t, err := readTable(input, cmd.InOrStdin())
				if err != nil {
					return err
				}
				names, exprs, err := expressionColumns(args)
				if err != nil {
					return err
				}

				results, err := a.engine.EvaluateMany(ctx, t, exprs)
				if err != nil {
					return err
				}

				out := t.Copy()
				if only {
					out = table.New()
				}
				for _, name := range names {
					s := results[name]
					if dtype != "" {
						if s, err = table.Cast(name, s, dtype); err != nil {
							return err
						}
					}
					if err := out.SetColumn(name, s); err != nil {
						return err
					}
				}
				return writeTable(output, cmd.OutOrStdout(), out)
			})
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "-", "input CSV file, - for stdin")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output CSV file, - for stdout")
	cmd.Flags().StringVar(&dtype, "dtype", "", "cast every result to this dtype (int, float, string, bool, decimal)")
	cmd.Flags().BoolVar(&only, "only", false, "write only the result columns")
	return cmd
}
