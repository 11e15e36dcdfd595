package commands

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/codebridge/internal/observability"
	"github.com/Sumatoshi-tech/codebridge/pkg/persist"
	"github.com/Sumatoshi-tech/codebridge/pkg/rewrite"
)

type transformFlags struct {
	graph  bool
	rule   int
	diff   bool
	stats  bool
	format string
	output string
	seed   int
}

func newTransformCommand(opts *globalOptions) *cobra.Command {
	var flags transformFlags

	cmd := &cobra.Command{
		Use:   "transform <tree.json|->",
		Short: "Rewrite a tree, or its graph, with the configured rules",
		Long: `Rewrite a syntax tree with the ordered rule set. The first matching rule
replaces a node; unmatched nodes are copied. With --graph the tree is
projected first and the rewrite is recorded on the graph nodes.

Examples:
  codebridge transform tree.json
  codebridge transform --rule 3 --stats tree.json
  codebridge transform --graph --diff tree.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.rule < 0 {
				return usageError(fmt.Errorf("%w: %d", rewrite.ErrRuleIndex, flags.rule))
			}

			data, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}

			s, err := opts.open(cmd, sessionOptions{seed: flags.seed})
			if err != nil {
				return err
			}
			defer s.close()

			return s.run(cmd.Context(), transformOperation(flags), func(ctx context.Context) error {
				return runTransform(ctx, cmd, s, data, flags)
			})
		},
	}

	cmd.Flags().BoolVar(&flags.graph, "graph", false, "rewrite the projected graph instead of the tree")
	cmd.Flags().IntVar(&flags.rule, "rule", 0, "apply only the rule with this number from 'codebridge rules'")
	cmd.Flags().BoolVar(&flags.diff, "diff", false, "print a line diff of the document before and after")
	cmd.Flags().BoolVar(&flags.stats, "stats", false, "print rewrite statistics to stderr")
	cmd.Flags().StringVarP(&flags.format, "format", "f", formatJSON, "output format: json or yaml")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file; its extension selects the codec")
	cmd.Flags().IntVar(&flags.seed, "seed", seedFromConfig, "first graph id counter with --graph (default from config)")

	return cmd
}

func transformOperation(flags transformFlags) observability.Operation {
	op := observability.Operation{Name: "transform", Document: observability.DocumentTree, Rule: flags.rule}
	if flags.graph {
		op.Document = observability.DocumentGraph
	}

	return op
}

func runTransform(ctx context.Context, cmd *cobra.Command, s *session, data []byte, flags transformFlags) error {
	var before, after any

	var st rewrite.Stats

	if flags.graph {
		var err error

		before, after, st, err = transformGraphDocument(ctx, s, data, flags.rule)
		if err != nil {
			return err
		}
	} else {
		var err error

		before, after, st, err = transformTreeDocument(ctx, s, data, flags.rule)
		if err != nil {
			return err
		}
	}

	if flags.stats {
		renderSummary(cmd.ErrOrStderr(), s.bridge.Summarize(st))
	}

	if flags.diff {
		return printDiff(cmd.OutOrStdout(), before, after)
	}

	return writeDocument(cmd, flags.output, flags.format, after)
}

func transformTreeDocument(ctx context.Context, s *session, data []byte, rule int) (any, any, rewrite.Stats, error) {
	before, err := s.bridge.DecodeTree(data)
	if err != nil {
		return nil, nil, rewrite.Stats{}, err
	}

	if rule > 0 {
		out, applyErr := s.bridge.ApplyRule(ctx, data, rule)

		return before, out.Tree, out.Stats, applyErr
	}

	out, err := s.bridge.TransformAST(ctx, data)

	return before, out.Tree, out.Stats, err
}

func transformGraphDocument(ctx context.Context, s *session, data []byte, rule int) (any, any, rewrite.Stats, error) {
	before, err := s.bridge.ASTToGraph(ctx, data)
	if err != nil {
		return nil, nil, rewrite.Stats{}, err
	}

	if rule > 0 {
		out, applyErr := s.bridge.ApplyTransformation(ctx, data, rule)

		return before, out.Graph, out.Stats, applyErr
	}

	out, err := s.bridge.TransformGraph(ctx, data)

	return before, out.Graph, out.Stats, err
}

// renderSummary prints a rewrite summary as a table.
func renderSummary(w io.Writer, sum rewrite.Summary) {
	applied := strings.Join(sum.RulesApplied, ", ")
	if applied == "" {
		applied = "none"
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Metric", "Value"})
	tbl.AppendRows([]table.Row{
		{"Nodes visited", humanize.Comma(int64(sum.TotalNodes))},
		{"Nodes transformed", humanize.Comma(int64(sum.TransformedNodes))},
		{"Confidence", fmt.Sprintf("%.1f%%", sum.Confidence)},
	})
	tbl.AppendFooter(table.Row{"Rules applied", applied})

	fmt.Fprintln(w, tbl.Render())
}

// printDiff writes a line diff of the JSON forms of before and after.
func printDiff(w io.Writer, before, after any) error {
	oldText, err := encodeJSON(before)
	if err != nil {
		return err
	}

	newText, err := encodeJSON(after)
	if err != nil {
		return err
	}

	dmp := diffmatchpatch.New()
	oldChars, newChars, lines := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(oldChars, newChars, false), lines)

	added := color.New(color.FgGreen)
	removed := color.New(color.FgRed)

	for _, d := range diffs {
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			switch d.Type {
			case diffmatchpatch.DiffInsert:
				added.Fprintf(w, "+ %s\n", line)
			case diffmatchpatch.DiffDelete:
				removed.Fprintf(w, "- %s\n", line)
			case diffmatchpatch.DiffEqual:
				fmt.Fprintf(w, "  %s\n", line)
			}
		}
	}

	return nil
}

func encodeJSON(doc any) (string, error) {
	var buf bytes.Buffer

	err := persist.NewJSONCodec().Encode(&buf, doc)
	if err != nil {
		return "", err
	}

	return buf.String(), nil
}
