package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/trace"
)

// Record keys added by TracingHandler.
const (
	keyTraceID   = "trace_id"
	keySpanID    = "span_id"
	keyService   = "service"
	keyEnv       = "env"
	keyMode      = "mode"
	keyOperation = "operation"
	keySurface   = "surface"
)

type operationKey struct{}

// ContextWithOperation returns ctx carrying op. Records logged with the
// returned context name the operation.
func ContextWithOperation(ctx context.Context, op Operation) context.Context {
	return context.WithValue(ctx, operationKey{}, op)
}

// OperationFromContext returns the operation stored by ContextWithOperation.
func OperationFromContext(ctx context.Context) (Operation, bool) {
	op, ok := ctx.Value(operationKey{}).(Operation)

	return op, ok
}

// TracingHandler is an [slog.Handler] that adds the active span and the
// running codebridge operation to each record. Service identity is bound once
// so it stays at the top level under WithGroup.
type TracingHandler struct {
	next slog.Handler
}

// NewTracingHandler wraps next and binds svc to every record.
func NewTracingHandler(next slog.Handler, svc ServiceInfo) *TracingHandler {
	bound := []slog.Attr{
		slog.String(keyService, svc.Name),
		slog.String(keyMode, string(svc.Mode)),
	}

	if svc.Environment != "" {
		bound = append(bound, slog.String(keyEnv, svc.Environment))
	}

	return &TracingHandler{next: next.WithAttrs(bound)}
}

// Enabled implements [slog.Handler].
func (h *TracingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle implements [slog.Handler].
func (h *TracingHandler) Handle(ctx context.Context, record slog.Record) error {
	record.AddAttrs(contextAttrs(ctx)...)

	err := h.next.Handle(ctx, record)
	if err != nil {
		return fmt.Errorf("log record: %w", err)
	}

	return nil
}

// WithAttrs implements [slog.Handler].
func (h *TracingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TracingHandler{next: h.next.WithAttrs(attrs)}
}

// WithGroup implements [slog.Handler].
func (h *TracingHandler) WithGroup(name string) slog.Handler {
	return &TracingHandler{next: h.next.WithGroup(name)}
}

func contextAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		attrs = append(attrs,
			slog.String(keyTraceID, sc.TraceID().String()),
			slog.String(keySpanID, sc.SpanID().String()),
		)
	}

	if op, ok := OperationFromContext(ctx); ok {
		attrs = append(attrs, slog.String(keyOperation, op.Name), slog.String(keySurface, op.Surface))
	}

	return attrs
}

// NewLogger builds the process logger: text or JSON records on ls.Output,
// stderr when unset, stamped by a TracingHandler.
func NewLogger(svc ServiceInfo, ls LogSettings) *slog.Logger {
	out := ls.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: ls.Level}

	var handler slog.Handler = slog.NewTextHandler(out, opts)
	if ls.JSON {
		handler = slog.NewJSONHandler(out, opts)
	}

	return slog.New(NewTracingHandler(handler, svc))
}
