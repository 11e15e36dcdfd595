package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/codebridge/internal/observability"
	"github.com/Sumatoshi-tech/codebridge/pkg/interchange"
)

// ErrInvalidDocument is returned when a document fails its schema.
var ErrInvalidDocument = errors.New("document does not match schema")

// palette holds the report colors. Colors are toggled per command so that
// the library-wide color.NoColor stays untouched.
type palette struct {
	ok, warn, bad, hint *color.Color
}

func newPalette(colorize, nocolor bool) palette {
	p := palette{
		ok:   color.New(color.FgGreen),
		warn: color.New(color.FgYellow),
		bad:  color.New(color.FgRed),
		hint: color.New(color.FgCyan),
	}

	for _, c := range []*color.Color{p.ok, p.warn, p.bad, p.hint} {
		switch {
		case nocolor:
			c.DisableColor()
		case colorize:
			c.EnableColor()
		}
	}

	return p
}

func newValidateCommand(opts *globalOptions) *cobra.Command {
	var (
		schemaName        string
		colorize, nocolor bool
	)

	cmd := &cobra.Command{
		Use:   "validate <file|->",
		Short: "Validate a document against an interchange schema",
		Long: `Validate a tree, graph or rule catalog document against its embedded
JSON schema. Exits 1 when the document is invalid and 2 when it cannot be
read or parsed.

Examples:
  codebridge validate tree.json
  codebridge validate --schema graph graph.yaml
  codebridge rules --json | codebridge validate --schema rules -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := interchange.ParseSchema(schemaName)
			if err != nil {
				return usageError(err)
			}

			data, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}

			s, err := opts.open(cmd, sessionOptions{seed: seedFromConfig})
			if err != nil {
				return err
			}
			defer s.close()

			op := observability.Operation{Name: "validate", Document: observability.DocumentReport}

			return s.run(cmd.Context(), op, func(context.Context) error {
				report, validateErr := interchange.Validate(schema, data)
				if validateErr != nil {
					return usageError(fmt.Errorf("%s: %w", inputLabel(args[0]), validateErr))
				}

				p := newPalette(colorize, nocolor)
				printReport(cmd.OutOrStdout(), p, schema, inputLabel(args[0]), report, opts.quiet)

				if !report.Valid {
					return ErrInvalidDocument
				}

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&schemaName, "schema", string(interchange.SchemaTree), "schema to check against: tree, graph or rules")
	cmd.Flags().BoolVar(&colorize, "color", false, "force colored output")
	cmd.Flags().BoolVar(&nocolor, "no-color", false, "disable colored output")

	return cmd
}

func printReport(w io.Writer, p palette, schema interchange.Schema, label string, report interchange.Report, quiet bool) {
	if report.Valid {
		if !quiet {
			p.ok.Fprintf(w, "%s document is valid (%s)\n", schema, label)
			p.ok.Fprintf(w, "  Compliance: %d%%\n", report.Compliance)
		}

		return
	}

	p.bad.Fprintf(w, "%s validation failed (%s)\n", schema, label)
	p.warn.Fprintf(w, "  Compliance: %d%%\n", report.Compliance)

	fmt.Fprintf(w, "\nErrors:\n")

	for _, v := range report.Violations {
		if v.Actual != "" {
			p.bad.Fprintf(w, "  - %s: %s (got %q)\n", v.Field, v.Description, v.Actual)
		} else {
			p.bad.Fprintf(w, "  - %s: %s\n", v.Field, v.Description)
		}
	}

	hints := recommendations(report.Violations)
	if len(hints) == 0 {
		return
	}

	fmt.Fprintf(w, "\nRecommendations:\n")

	for _, h := range hints {
		p.hint.Fprintf(w, "  - %s\n", h)
	}
}

// recommendations returns sorted, unique hints for the violations.
func recommendations(violations []interchange.Violation) []string {
	seen := make(map[string]bool)

	for _, v := range violations {
		hint := classifyViolation(v)
		if hint != "" {
			seen[hint] = true
		}
	}

	out := make([]string, 0, len(seen))
	for h := range seen {
		out = append(out, h)
	}

	sort.Strings(out)

	return out
}

func classifyViolation(v interchange.Violation) string {
	field := v.Field[strings.LastIndex(v.Field, ".")+1:]

	switch {
	case field == "type" && strings.Contains(v.Description, "must be one of"):
		return "Node types are Program, VariableDeclaration, FunctionDeclaration, ClassDeclaration, " +
			"Identifier, Literal, BinaryExpression, Block, ReturnStatement and CallExpression"
	case field == "literalType":
		return "Literal types are NUMBER, STRING, BOOLEAN and NULL"
	case field == "operator":
		return "Binary operators are + - * / % == != < > <= >= && ||"
	case field == "confidence":
		return "Rule confidence is a percentage between 0 and 100"
	case strings.Contains(v.Description, "is required"):
		return "Ensure all required fields are present"
	case strings.Contains(v.Description, "Invalid type"):
		return "Check field value types against the schema"
	default:
		return ""
	}
}
