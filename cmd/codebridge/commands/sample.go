package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/codebridge/internal/bridge"
)

func newSampleCommand() *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Print a small demonstration tree",
		Long: `Print the demonstration tree: a class with one int field and one void
method. Pipe it into the other commands to try them out.

Examples:
  codebridge sample | codebridge transform --graph --stats -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeDocument(cmd, output, format, bridge.SampleProgram())
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatJSON, "output format: json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file; its extension selects the codec")

	return cmd
}
