package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
)

const (
	instrumentationName = "codebridge"

	envTracesSampler    = "OTEL_TRACES_SAMPLER"
	envTracesSamplerArg = "OTEL_TRACES_SAMPLER_ARG"
)

// envSamplers maps OTEL_TRACES_SAMPLER values to samplers built from the
// parsed OTEL_TRACES_SAMPLER_ARG ratio.
var envSamplers = map[string]func(ratio float64) sdktrace.Sampler{
	"always_on":  func(float64) sdktrace.Sampler { return sdktrace.AlwaysSample() },
	"always_off": func(float64) sdktrace.Sampler { return sdktrace.NeverSample() },
	"traceidratio": func(ratio float64) sdktrace.Sampler {
		return sdktrace.TraceIDRatioBased(ratio)
	},
	"parentbased_always_on": func(float64) sdktrace.Sampler {
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	},
	"parentbased_always_off": func(float64) sdktrace.Sampler {
		return sdktrace.ParentBased(sdktrace.NeverSample())
	},
	"parentbased_traceidratio": func(ratio float64) sdktrace.Sampler {
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	},
}

// Providers are the telemetry handles of a running process.
type Providers struct {
	Tracer trace.Tracer
	Meter  metric.Meter
	Logger *slog.Logger

	// Shutdown flushes pending spans and metrics. Calls after the first are
	// no-ops.
	Shutdown func(ctx context.Context) error
}

// Init installs the global tracer and meter providers and builds the logger.
// Without an export endpoint or a metric reader both providers are no-ops.
func Init(cfg Config) (Providers, error) {
	ctx := context.Background()

	res, err := buildResource(cfg.Service)
	if err != nil {
		return Providers{}, err
	}

	var stack shutdownStack

	tp, err := newTracerProvider(ctx, cfg, res, &stack)
	if err != nil {
		return Providers{}, fmt.Errorf("tracing: %w", err)
	}

	mp, err := newMeterProvider(ctx, cfg, res, &stack)
	if err != nil {
		return Providers{}, errors.Join(fmt.Errorf("metrics: %w", err), stack.run(ctx))
	}

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}

	return Providers{
		Tracer: tp.Tracer(instrumentationName),
		Meter:  mp.Meter(instrumentationName),
		Logger: NewLogger(cfg.Service, cfg.Log),
		Shutdown: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			return stack.run(ctx)
		},
	}, nil
}

func buildResource(svc ServiceInfo) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{semconv.ServiceName(svc.Name)}

	if svc.Version != "" {
		attrs = append(attrs, semconv.ServiceVersion(svc.Version))
	}

	if svc.Environment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironment(svc.Environment))
	}

	if svc.Mode != "" {
		attrs = append(attrs, attribute.String("app.mode", string(svc.Mode)))
	}

	res, err := resource.New(context.Background(), resource.WithAttributes(attrs...))
	if err != nil {
		return nil, fmt.Errorf("otel resource: %w", err)
	}

	return res, nil
}

// shutdownStack runs provider shutdowns once, newest first.
type shutdownStack struct {
	mu  sync.Mutex
	fns []func(context.Context) error
}

func (s *shutdownStack) push(fn func(context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fns = append(s.fns, fn)
}

func (s *shutdownStack) run(ctx context.Context) error {
	s.mu.Lock()
	fns := s.fns
	s.fns = nil
	s.mu.Unlock()

	errs := make([]error, 0, len(fns))
	for i := len(fns) - 1; i >= 0; i-- {
		errs = append(errs, fns[i](ctx))
	}

	return errors.Join(errs...)
}

func (e Export) traceOptions() []otlptracegrpc.Option {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(e.Endpoint)}

	if e.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	if len(e.Headers) > 0 {
		opts = append(opts, otlptracegrpc.WithHeaders(e.Headers))
	}

	return opts
}

func (e Export) metricOptions() []otlpmetricgrpc.Option {
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(e.Endpoint)}

	if e.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	if len(e.Headers) > 0 {
		opts = append(opts, otlpmetricgrpc.WithHeaders(e.Headers))
	}

	return opts
}

func newTracerProvider(
	ctx context.Context, cfg Config, res *resource.Resource, stack *shutdownStack,
) (trace.TracerProvider, error) {
	if !cfg.Export.Enabled() {
		return nooptrace.NewTracerProvider(), nil
	}

	exporter, err := otlptracegrpc.New(ctx, cfg.Export.traceOptions()...)
	if err != nil {
		return nil, fmt.Errorf("otlp trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(cfg.Sampling.sampler()),
	)
	stack.push(tp.Shutdown)

	return tp, nil
}

func newMeterProvider(
	ctx context.Context, cfg Config, res *resource.Resource, stack *shutdownStack,
) (metric.MeterProvider, error) {
	var readers []sdkmetric.Reader

	if cfg.MetricReader != nil {
		readers = append(readers, cfg.MetricReader)
	}

	if cfg.Export.Enabled() {
		exporter, err := otlpmetricgrpc.New(ctx, cfg.Export.metricOptions()...)
		if err != nil {
			return nil, fmt.Errorf("otlp metric exporter: %w", err)
		}

		readers = append(readers, sdkmetric.NewPeriodicReader(exporter))
	}

	if len(readers) == 0 {
		return noopmetric.NewMeterProvider(), nil
	}

	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	for _, r := range readers {
		opts = append(opts, sdkmetric.WithReader(r))
	}

	mp := sdkmetric.NewMeterProvider(opts...)
	stack.push(mp.Shutdown)

	return mp, nil
}

// sampler resolves the trace sampler: Always first, then OTEL_TRACES_SAMPLER,
// then Ratio. Unknown sampler names and the fallback follow the parent and
// record every root span.
func (s Sampling) sampler() sdktrace.Sampler {
	if s.Always {
		return sdktrace.AlwaysSample()
	}

	if name := os.Getenv(envTracesSampler); name != "" {
		build, ok := envSamplers[name]
		if !ok {
			return sdktrace.ParentBased(sdktrace.AlwaysSample())
		}

		return build(samplerRatio(os.Getenv(envTracesSamplerArg)))
	}

	if s.Ratio > 0 {
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(s.Ratio))
	}

	return sdktrace.ParentBased(sdktrace.AlwaysSample())
}

// samplerRatio parses OTEL_TRACES_SAMPLER_ARG; empty or malformed means 1.
func samplerRatio(arg string) float64 {
	ratio, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 1
	}

	return ratio
}

// ParseOTLPHeaders parses "key=value,key=value". Pairs without a key or an
// "=" are skipped; nil means no usable header.
func ParseOTLPHeaders(raw string) map[string]string {
	var headers map[string]string

	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)

		if !ok || key == "" {
			continue
		}

		if headers == nil {
			headers = make(map[string]string)
		}

		headers[key] = strings.TrimSpace(value)
	}

	return headers
}
