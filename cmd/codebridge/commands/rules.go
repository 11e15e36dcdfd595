package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/codebridge/internal/observability"
	"github.com/Sumatoshi-tech/codebridge/pkg/rewrite"
)

func newRulesCommand(opts *globalOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the enabled rewrite rules in precedence order",
		Long: `List the rewrite rules in the order they are tried. The number in the
first column is the value accepted by "transform --rule". Rules disabled
in the config file are left out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.open(cmd, sessionOptions{seed: seedFromConfig})
			if err != nil {
				return err
			}
			defer s.close()

			op := observability.Operation{Name: "rules", Document: observability.DocumentRules}

			return s.run(cmd.Context(), op, func(context.Context) error {
				catalog := s.bridge.Rules()

				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")

					return enc.Encode(catalog)
				}

				renderCatalog(cmd.OutOrStdout(), catalog)

				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the catalog as JSON")

	return cmd
}

func renderCatalog(w io.Writer, catalog []rewrite.RuleInfo) {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"#", "ID", "Rule", "Source", "Target", "Confidence", "Automated"})

	for i, r := range catalog {
		tbl.AppendRow(table.Row{
			i + 1, r.ID, r.Name, r.Source, r.Target,
			strconv.Itoa(r.Confidence) + "%", r.Automated,
		})
	}

	tbl.AppendFooter(table.Row{"", "", fmt.Sprintf("Total: %d rules", len(catalog))})

	fmt.Fprintln(w, tbl.Render())
}
