package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/codebridge/internal/observability"
)

const defaultGraphTitle = "Code graph"

func newGraphCommand(opts *globalOptions) *cobra.Command {
	var (
		format, output, title string
		seed                  int
	)

	cmd := &cobra.Command{
		Use:   "graph <tree.json|->",
		Short: "Project a tree document into a property graph",
		Long: `Project a syntax tree document into a property graph. Every tree node
becomes a graph node linked to its parent by a "contains" edge.

Examples:
  codebridge graph tree.json
  codebridge graph --format html --output graph.html tree.json
  codebridge graph --output graph.json.lz4 - < tree.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}

			s, err := opts.open(cmd, sessionOptions{seed: seed})
			if err != nil {
				return err
			}
			defer s.close()

			op := observability.Operation{Name: "graph", Document: observability.DocumentGraph}

			return s.run(cmd.Context(), op, func(ctx context.Context) error {
				g, projErr := s.bridge.ASTToGraph(ctx, data)
				if projErr != nil {
					return projErr
				}

				return writeGraph(cmd, output, format, g, title)
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatJSON, "output format: json, yaml or html")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file; its extension selects the codec (.json, .yaml, .lz4, .db)")
	cmd.Flags().StringVar(&title, "title", defaultGraphTitle, "page title for html output")
	cmd.Flags().IntVar(&seed, "seed", seedFromConfig, "first node and edge id counter (default from config)")

	return cmd
}
