package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/codebridge/internal/bridge"
	"github.com/Sumatoshi-tech/codebridge/internal/config"
	"github.com/Sumatoshi-tech/codebridge/internal/observability"
	"github.com/Sumatoshi-tech/codebridge/pkg/projection"
	"github.com/Sumatoshi-tech/codebridge/pkg/rewrite"
	"github.com/Sumatoshi-tech/codebridge/pkg/rewrite/rules"
	"github.com/Sumatoshi-tech/codebridge/pkg/version"
)

// seedFromConfig marks the --seed flag as unset.
const seedFromConfig = -1

// sessionOptions tune a session for one command.
type sessionOptions struct {
	mode   observability.AppMode
	debug  bool
	reader sdkmetric.Reader
	seed   int
}

// session is the per-invocation runtime: configuration, telemetry and a
// bridge built from both.
type session struct {
	cfg       *config.Config
	providers observability.Providers
	ops       *observability.OperationMetrics
	bridge    *bridge.Bridge
}

func (g *globalOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(g.configPath)
	if err != nil {
		return nil, usageError(err)
	}

	return cfg, nil
}

// open loads the configuration and starts a session.
func (g *globalOptions) open(cmd *cobra.Command, so sessionOptions) (*session, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, err
	}

	return g.start(cmd, cfg, so)
}

func (g *globalOptions) start(cmd *cobra.Command, cfg *config.Config, so sessionOptions) (*session, error) {
	providers, err := observability.Init(g.observabilityConfig(cmd, cfg, so))
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	s := &session{cfg: cfg, providers: providers}

	s.ops, err = observability.NewOperationMetrics(providers.Meter)
	if err != nil {
		s.close()

		return nil, err
	}

	rewriteMetrics, err := observability.NewRewriteMetrics(providers.Meter)
	if err != nil {
		s.close()

		return nil, err
	}

	maxInput, err := cfg.Limits.MaxInputBytes()
	if err != nil {
		s.close()

		return nil, usageError(err)
	}

	seed := cfg.Projection.Seed
	if so.seed > seedFromConfig {
		seed = so.seed
	}

	s.bridge = bridge.New(bridge.Options{
		Rules:         enabledRules(cfg.Rules),
		MaxInputBytes: maxInput,
		TreeCacheSize: cfg.Limits.TreeCache,
		Projection: []projection.Option{
			projection.WithSeed(seed),
			projection.WithIDPrefix(cfg.Projection.IDPrefix),
		},
		Logger:  providers.Logger,
		Tracer:  providers.Tracer,
		Metrics: rewriteMetrics,
	})

	return s, nil
}

func (g *globalOptions) observabilityConfig(
	cmd *cobra.Command, cfg *config.Config, so sessionOptions,
) observability.Config {
	obs := observability.DefaultConfig()
	obs.Service.Version = version.Version
	obs.Service.Environment = cfg.Telemetry.Environment
	obs.Export = observability.Export{
		Endpoint: cfg.Telemetry.OTLPEndpoint,
		Headers:  observability.ParseOTLPHeaders(cfg.Telemetry.OTLPHeaders),
		Insecure: cfg.Telemetry.OTLPInsecure,
	}.WithEnvFallback()
	obs.Sampling.Ratio = cfg.Telemetry.SampleRatio
	obs.MetricReader = so.reader
	obs.Log = observability.LogSettings{
		Level:  observability.ParseLogLevel(cfg.Logging.Level),
		JSON:   cfg.Logging.Format == config.FormatJSON,
		Output: cmd.ErrOrStderr(),
	}

	if so.mode != "" {
		obs.Service.Mode = so.mode
	}

	if obs.Service.Mode == observability.ModeMCP {
		obs.Log.JSON = true
	}

	switch {
	case so.debug:
		obs.Log.Level = slog.LevelDebug
		obs.Sampling.Always = true
	case g.verbose:
		obs.Log.Level = slog.LevelDebug
	case g.quiet:
		obs.Log.Level = slog.LevelError
	}

	return obs
}

// enabledRules returns the default rules minus the disabled ones, in order.
func enabledRules(rc config.RulesConfig) []rewrite.Rule {
	return rewrite.NewEngine(rules.Default()...).
		Filter(func(m rewrite.Metadata) bool { return !rc.IsDisabled(m.Key) }).
		Rules()
}

// run executes fn inside a span and records it as a CLI operation.
func (s *session) run(ctx context.Context, op observability.Operation, fn func(context.Context) error) error {
	op.Surface = observability.SurfaceCLI
	ctx = observability.ContextWithOperation(ctx, op)

	ctx, span := s.providers.Tracer.Start(ctx, "cli."+op.Name, trace.WithAttributes(
		attribute.String("document", op.Document),
		attribute.Int("rule", op.Rule),
	))
	defer span.End()

	finish := s.ops.Start(ctx, op)

	err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	finish(err)

	return err
}

// close flushes telemetry.
func (s *session) close() {
	err := s.providers.Shutdown(context.Background())
	if err != nil {
		s.providers.Logger.Warn("observability shutdown failed", "error", err)
	}
}

func (s *session) logger() *slog.Logger {
	return s.providers.Logger
}
