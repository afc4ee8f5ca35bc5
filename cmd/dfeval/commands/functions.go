package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newFunctionsCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "functions",
		Aliases: []string{"fn"},
		Short:   "List the functions, constants and resolvers expressions can use",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, func(_ context.Context, a *app) error {
				reg := a.engine.Registry()
				w := cmd.OutOrStdout()

				fmt.Fprintln(w, "functions:")
				for _, name := range reg.Functions() {
					f, _ := reg.Function(name)
					fmt.Fprintf(w, "  %s\n", f.Signature())
				}
				fmt.Fprintln(w, "  lookup(key, resolver, on_missing=\"null\", default=?)")

				if names := reg.Constants(); len(names) > 0 {
					fmt.Fprintln(w, "constants:")
					for _, name := range names {
						v, _ := reg.Constant(name)
						fmt.Fprintf(w, "  %s = %v\n", name, v)
					}
				}
				if names := reg.Resolvers(); len(names) > 0 {
					fmt.Fprintln(w, "resolvers:")
					for _, name := range names {
						fmt.Fprintf(w, "  %s\n", name)
					}
				}
				return nil
			})
		},
	}
}
