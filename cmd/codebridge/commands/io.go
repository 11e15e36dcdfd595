package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/codebridge/pkg/graph"
	"github.com/Sumatoshi-tech/codebridge/pkg/graphdb"
	"github.com/Sumatoshi-tech/codebridge/pkg/persist"
	"github.com/Sumatoshi-tech/codebridge/pkg/render"
)

// stdinArg selects standard input as the document source.
const stdinArg = "-"

// Output formats.
const (
	formatJSON = "json"
	formatYAML = "yaml"
	formatHTML = "html"
)

const outputDirPerm = 0o750

// ErrUnknownFormat is returned for an unsupported --format value.
var ErrUnknownFormat = errors.New("unknown output format")

// readDocument returns the JSON bytes of a document argument. JSON files and
// stdin are read as is; YAML and LZ4 files go through their codec.
func readDocument(cmd *cobra.Command, arg string) ([]byte, error) {
	if arg == stdinArg {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, usageError(fmt.Errorf("read stdin: %w", err))
		}

		return data, nil
	}

	if _, plain := persist.CodecFor(arg).(*persist.JSONCodec); plain {
		data, err := os.ReadFile(arg)
		if err != nil {
			return nil, usageError(fmt.Errorf("read input: %w", err))
		}

		return data, nil
	}

	var doc any

	err := persist.ReadFile(arg, &doc)
	if err != nil {
		return nil, usageError(err)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, usageError(fmt.Errorf("re-encode %s: %w", arg, err))
	}

	return data, nil
}

func inputLabel(arg string) string {
	if arg == stdinArg {
		return "stdin"
	}

	return arg
}

// streamCodec maps a --format value to a codec for standard output.
func streamCodec(format string) (persist.Codec, error) {
	switch format {
	case formatJSON:
		return persist.NewJSONCodec(), nil
	case formatYAML:
		return persist.NewYAMLCodec(), nil
	default:
		return nil, usageError(fmt.Errorf("%w: %q", ErrUnknownFormat, format))
	}
}

// ErrNotAGraph is returned when a database output is requested for a tree.
var ErrNotAGraph = errors.New("only graphs can be written to a graph database")

// writeDocument writes doc to outputPath, whose extension picks the codec,
// or to stdout in format. Graphs may also go to a SQLite database.
func writeDocument(cmd *cobra.Command, outputPath, format string, doc any) error {
	if graphdb.IsDatabasePath(outputPath) {
		g, ok := doc.(*graph.CodeGraph)
		if !ok {
			return usageError(fmt.Errorf("%w: %s", ErrNotAGraph, outputPath))
		}

		return graphdb.SaveFile(cmd.Context(), outputPath, g)
	}

	if outputPath != "" {
		return persist.WriteFile(outputPath, doc)
	}

	codec, err := streamCodec(format)
	if err != nil {
		return err
	}

	return codec.Encode(cmd.OutOrStdout(), doc)
}

// writeGraph is writeDocument with HTML support.
func writeGraph(cmd *cobra.Command, outputPath, format string, g *graph.CodeGraph, title string) error {
	if format != formatHTML {
		return writeDocument(cmd, outputPath, format, g)
	}

	o := render.Options{Title: title, Subtitle: fmt.Sprintf("%d nodes, %d edges", g.NodeCount(), g.EdgeCount())}

	if outputPath == "" {
		return render.HTML(cmd.OutOrStdout(), g, o)
	}

	err := os.MkdirAll(filepath.Dir(outputPath), outputDirPerm)
	if err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outputPath, err)
	}

	renderErr := render.HTML(f, g, o)
	closeErr := f.Close()

	return errors.Join(renderErr, closeErr)
}
