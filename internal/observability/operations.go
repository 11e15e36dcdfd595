package observability

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricOperations        = "codebridge.operations.total"
	metricOperationDuration = "codebridge.operation.duration.seconds"
	metricOperationFailures = "codebridge.operation.failures.total"
	metricOperationsActive  = "codebridge.operations.active"

	attrOperation = "operation"
	attrSurface   = "surface"
	attrDocument  = "document"
	attrRuleScope = "rule_number"
	attrOutcome   = "outcome"
	attrFailure   = "failure"
)

// Surfaces an operation is invoked from.
const (
	SurfaceCLI = "cli"
	SurfaceMCP = "mcp"
)

// Document kinds an operation produces.
const (
	DocumentTree   = "tree"
	DocumentGraph  = "graph"
	DocumentRules  = "rules"
	DocumentStats  = "stats"
	DocumentPath   = "path"
	DocumentReport = "report"
)

// Operation outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Failure classes recorded with failed operations.
const (
	FailureCanceled = "canceled"
	FailureTimeout  = "timeout"
	FailureRejected = "rejected"
)

// operationBuckets covers 0.5ms to 10s. Most calls rewrite a small tree in memory.
var operationBuckets = []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1, 2.5, 10}

// Operation names one codebridge call for metrics.
type Operation struct {
	// Name is the command or tool name, for example "transform" or "codebridge_find_path".
	Name     string
	Surface  string
	Document string
	// Rule is the one-based rule number the call was restricted to; 0 means every rule.
	Rule int
}

func (op Operation) attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(attrOperation, op.Name),
		attribute.String(attrSurface, op.Surface),
		attribute.String(attrDocument, op.Document),
		attribute.Int(attrRuleScope, op.Rule),
	}
}

// OperationMetrics counts and times tree and graph operations per surface,
// document kind and rule scope.
type OperationMetrics struct {
	calls    metric.Int64Counter
	duration metric.Float64Histogram
	failures metric.Int64Counter
	active   metric.Int64UpDownCounter
}

// NewOperationMetrics creates the operation instruments on mt.
func NewOperationMetrics(mt metric.Meter) (*OperationMetrics, error) {
	set := &instrumentSet{meter: mt}

	om := &OperationMetrics{
		calls:    set.count(metricOperations, "Completed codebridge operations", "{operation}"),
		duration: set.seconds(metricOperationDuration, "Wall time of codebridge operations", operationBuckets),
		failures: set.count(metricOperationFailures, "Failed codebridge operations by failure class", "{operation}"),
		active:   set.level(metricOperationsActive, "Operations currently running", "{operation}"),
	}

	err := set.err()
	if err != nil {
		return nil, err
	}

	return om, nil
}

// Start marks op as running and returns the function that completes it. A
// nil receiver records nothing.
func (om *OperationMetrics) Start(ctx context.Context, op Operation) func(err error) {
	if om == nil {
		return func(error) {}
	}

	started := time.Now()
	name := attribute.String(attrOperation, op.Name)
	surface := attribute.String(attrSurface, op.Surface)
	scope := metric.WithAttributes(name, surface)

	om.active.Add(ctx, 1, scope)

	return func(err error) {
		om.active.Add(ctx, -1, scope)

		outcome := OutcomeOK
		if err != nil {
			outcome = OutcomeError

			om.failures.Add(ctx, 1, metric.WithAttributes(name, surface, attribute.String(attrFailure, FailureClass(err))))
		}

		attrs := metric.WithAttributes(append(op.attributes(), attribute.String(attrOutcome, outcome))...)

		om.calls.Add(ctx, 1, attrs)
		om.duration.Record(ctx, time.Since(started).Seconds(), attrs)
	}
}

// FailureClass buckets an operation error: cancellation, deadline, or any
// other rejection of the input.
func FailureClass(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return FailureCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return FailureTimeout
	default:
		return FailureRejected
	}
}
