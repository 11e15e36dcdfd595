package commands

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/codebridge/internal/mcp"
	"github.com/Sumatoshi-tech/codebridge/internal/observability"
)

var errNoRules = errors.New("no rewrite rules enabled")

// newMCPCommand creates the MCP server command.
func newMCPCommand(opts *globalOptions) *cobra.Command {
	var (
		debug       bool
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes the bridge as tools that AI agents can discover and
invoke:
  - codebridge_ast_to_graph: Project a tree into a property graph
  - codebridge_transform: Rewrite a tree with all rules or one rule
  - codebridge_transform_graph: Rewrite a tree and annotate its graph
  - codebridge_find_path: Shortest path between two graph nodes
  - codebridge_rules: List the rule catalog
  - codebridge_stats: Cumulative rewrite statistics

With --metrics-addr, /metrics, /healthz and /readyz are served over HTTP.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("metrics-addr") {
				cfg.MCP.MetricsAddr = metricsAddr
			}

			so := sessionOptions{mode: observability.ModeMCP, debug: debug, seed: seedFromConfig}

			var metricsHandler http.Handler

			if cfg.MCP.MetricsAddr != "" {
				so.reader, metricsHandler, err = observability.NewPrometheusReader()
				if err != nil {
					return err
				}
			}

			s, err := opts.start(cmd, cfg, so)
			if err != nil {
				return err
			}
			defer s.close()

			ctx := cmd.Context()

			if cfg.MCP.MetricsAddr != "" {
				diag, diagErr := observability.NewDiagnosticsServer(ctx, cfg.MCP.MetricsAddr, metricsHandler, s.logger(),
					observability.ReadyCheck{Name: "rules", Check: func(context.Context) error {
						if len(s.bridge.Rules()) == 0 {
							return errNoRules
						}

						return nil
					}})
				if diagErr != nil {
					return diagErr
				}

				defer closeDiagnostics(s, diag)

				s.logger().Info("diagnostics server listening", "addr", diag.Addr())
			}

			srv := mcp.NewServer(mcp.ServerDeps{
				Bridge:  s.bridge,
				Logger:  s.logger(),
				Metrics: s.ops,
				Tracer:  s.providers.Tracer,
			})

			return srv.Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging to stderr")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve diagnostics at this address (default from config)")

	return cmd
}

func closeDiagnostics(s *session, diag *observability.DiagnosticsServer) {
	err := diag.Close(context.Background())
	if err != nil {
		s.logger().Warn("diagnostics shutdown failed", "error", err)
	}
}
