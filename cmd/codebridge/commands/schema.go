package commands

import (
	"bytes"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/codebridge/pkg/interchange"
	"github.com/Sumatoshi-tech/codebridge/pkg/persist"
)

func newSchemaCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:       "schema <tree|graph|rules>",
		Short:     "Print an embedded interchange schema",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(interchange.SchemaTree), string(interchange.SchemaGraph), string(interchange.SchemaRules)},
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := interchange.ParseSchema(args[0])
			if err != nil {
				return usageError(err)
			}

			data, err := interchange.SchemaBytes(schema)
			if err != nil {
				return err
			}

			if output == "" {
				_, err = cmd.OutOrStdout().Write(data)

				return err
			}

			var doc any

			err = persist.DecodeFrom(bytes.NewReader(data), persist.NewJSONCodec(), &doc)
			if err != nil {
				return err
			}

			return persist.WriteFile(output, doc)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file; its extension selects the codec")

	return cmd
}
