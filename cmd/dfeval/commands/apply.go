package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/elphick/df-eval/schema"
	"github.com/spf13/cobra"
)

// parseTypes reads name=dtype pairs
func parseTypes(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		name, dtype, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(name) == "" || strings.TrimSpace(dtype) == "" {
			return nil, fmt.Errorf("invalid dtype override %q, want name=dtype", p)
		}
		out[strings.TrimSpace(name)] = strings.TrimSpace(dtype)
	}
	return out, nil
}

func newApplyCommand(opts *globalOptions) *cobra.Command {
	var (
		schemaFile     string
		input          string
		output         string
		types          []string
		provenance     bool
		provenanceFile string
	)

	cmd := &cobra.Command{
		Use:     "apply",
		Short:   "Derive the columns of a schema over a CSV table",
		Example: `  dfeval apply -s schema.yaml -i orders.csv -o out.csv --provenance-out prov.json`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, func(ctx context.Context, a *app) error {
				s, err := schema.LoadFile(schemaFile)
				if err != nil {
					return err
				}
				dtypes, err := parseTypes(types)
				if err != nil {
					return err
				}
				t, err := readTable(input, cmd.InOrStdin())
				if err != nil {
					return err
				}

				if provenance || provenanceFile != "" {
					a.engine.EnableProvenance(true)
				}
				out, err := a.engine.ApplySchemaWithTypes(ctx, t, s, dtypes)
				if err != nil {
					return err
				}
				if err := writeTable(output, cmd.OutOrStdout(), out); err != nil {
					return err
				}

				if provenanceFile == "" {
					return nil
				}
				data, err := json.MarshalIndent(out.Provenances(), "", "  ")
				if err != nil {
					return err
				}
				return os.WriteFile(provenanceFile, append(data, '\n'), 0o644)
			})
		},
	}

	cmd.Flags().StringVarP(&schemaFile, "schema", "s", "", "YAML schema file")
	cmd.Flags().StringVarP(&input, "input", "i", "-", "input CSV file, - for stdin")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output CSV file, - for stdout")
	cmd.Flags().StringArrayVarP(&types, "type", "t", nil, "dtype override as name=dtype, repeatable")
	cmd.Flags().BoolVar(&provenance, "provenance", false, "record provenance")
	cmd.Flags().StringVar(&provenanceFile, "provenance-out", "", "write provenance as JSON to this file")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}
