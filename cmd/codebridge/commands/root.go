// Package commands implements CLI command handlers for codebridge.
package commands

import (
	"errors"

	"github.com/spf13/cobra"
)

// exitCodeUsage is the exit code for unreadable input and bad arguments.
const exitCodeUsage = 2

// exitError carries a process exit code other than 1.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func usageError(err error) error {
	return &exitError{code: exitCodeUsage, err: err}
}

// ExitCode maps a command error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}

	return 1
}

// globalOptions holds the persistent root flags.
type globalOptions struct {
	configPath string
	verbose    bool
	quiet      bool
}

// NewRootCommand creates the codebridge command tree.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "codebridge",
		Short: "Codebridge - syntax tree to property graph bridge",
		Long: `Codebridge projects syntax trees into property graphs and rewrites them
with an ordered set of cross-language rules.

Commands:
  graph      Project a tree document into a graph
  transform  Rewrite a tree or its graph with the configured rules
  rules      List the rule catalog
  path       Find the shortest path between two graph nodes
  validate   Check a document against an interchange schema
  schema     Print an embedded interchange schema
  mcp        Serve the bridge as MCP tools on stdio`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default .codebridge.yaml in CWD or $HOME)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	root.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "suppress output")

	root.AddCommand(
		newGraphCommand(opts),
		newTransformCommand(opts),
		newRulesCommand(opts),
		newPathCommand(opts),
		newValidateCommand(opts),
		newMCPCommand(opts),
		newSchemaCommand(),
		newSampleCommand(),
		newVersionCommand(),
	)

	return root
}
