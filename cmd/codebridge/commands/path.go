package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/codebridge/internal/observability"
	"github.com/Sumatoshi-tech/codebridge/pkg/graph"
	"github.com/Sumatoshi-tech/codebridge/pkg/graphdb"
)

// ErrNoPath is returned when the target is unreachable from the source.
var ErrNoPath = errors.New("no path")

func newPathCommand(opts *globalOptions) *cobra.Command {
	var (
		asJSON bool
		seed   int
	)

	cmd := &cobra.Command{
		Use:   "path <tree.json|graph.db|-> <from> <to>",
		Short: "Find the shortest directed path between two graph nodes",
		Long: `Project a tree into a graph and print the fewest-edge directed path
between two node ids. Ids are the ones printed by "codebridge graph". A
graph database written with "graph --output graph.db" is searched directly.

Examples:
  codebridge path tree.json node_0 node_3
  codebridge path graph.db node_0 node_3`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd, sessionOptions{seed: seed})
			if err != nil {
				return err
			}
			defer s.close()

			source, from, to := args[0], args[1], args[2]

			op := observability.Operation{Name: "path", Document: observability.DocumentPath}

			return s.run(cmd.Context(), op, func(ctx context.Context) error {
				path, found, findErr := findPath(ctx, cmd, s, source, from, to)
				if findErr != nil {
					return findErr
				}

				if !found {
					return fmt.Errorf("%w from %s to %s", ErrNoPath, from, to)
				}

				if asJSON {
					return printPathJSON(cmd, path)
				}

				for _, e := range path {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s -[%s]-> %s\n", e.ID, e.Source, e.Label, e.Target)
				}

				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the path as a JSON edge list")
	cmd.Flags().IntVar(&seed, "seed", seedFromConfig, "first node and edge id counter (default from config)")

	return cmd
}

func findPath(
	ctx context.Context, cmd *cobra.Command, s *session, source, from, to string,
) ([]*graph.Edge, bool, error) {
	if graphdb.IsDatabasePath(source) {
		g, err := graphdb.LoadFile(ctx, source)
		if err != nil {
			return nil, false, usageError(err)
		}

		path, found := g.FindPath(from, to)

		return path, found, nil
	}

	data, err := readDocument(cmd, source)
	if err != nil {
		return nil, false, err
	}

	return s.bridge.FindPath(ctx, data, from, to)
}

func printPathJSON(cmd *cobra.Command, path []*graph.Edge) error {
	edges := make([]map[string]any, 0, len(path))
	for _, e := range path {
		edges = append(edges, e.ToMap())
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	return enc.Encode(edges)
}
