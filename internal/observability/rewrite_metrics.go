package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRewriteNodesTotal       = "codebridge.rewrite.nodes.total"
	metricRewriteTransformedTotal = "codebridge.rewrite.transformed.total"
	metricRuleApplicationsTotal   = "codebridge.rewrite.rule.applications.total"
	metricGraphNodesTotal         = "codebridge.graph.nodes.total"
	metricGraphEdgesTotal         = "codebridge.graph.edges.total"

	attrRule = "rule"
)

// RewriteStats is the outcome of one rewrite pass, decoupled from engine types.
type RewriteStats struct {
	Visited      int
	Transformed  int
	Applications map[string]int
}

// RewriteMetrics holds OTel instruments for tree rewriting and graph projection.
type RewriteMetrics struct {
	nodesTotal       metric.Int64Counter
	transformedTotal metric.Int64Counter
	applications     metric.Int64Counter
	graphNodes       metric.Int64Counter
	graphEdges       metric.Int64Counter
}

// NewRewriteMetrics creates rewrite metric instruments from the given meter.
func NewRewriteMetrics(mt metric.Meter) (*RewriteMetrics, error) {
	set := &instrumentSet{meter: mt}

	rm := &RewriteMetrics{
		nodesTotal:       set.count(metricRewriteNodesTotal, "Nodes visited by the rewrite engine", "{node}"),
		transformedTotal: set.count(metricRewriteTransformedTotal, "Nodes replaced by a rule", "{node}"),
		applications:     set.count(metricRuleApplicationsTotal, "Rule applications by rule description", "{application}"),
		graphNodes:       set.count(metricGraphNodesTotal, "Graph nodes produced by projection", "{node}"),
		graphEdges:       set.count(metricGraphEdgesTotal, "Graph edges produced by projection", "{edge}"),
	}

	err := set.err()
	if err != nil {
		return nil, err
	}

	return rm, nil
}

// RecordRewrite records one rewrite pass. Safe to call on a nil receiver.
func (rm *RewriteMetrics) RecordRewrite(ctx context.Context, stats RewriteStats) {
	if rm == nil {
		return
	}

	rm.nodesTotal.Add(ctx, int64(stats.Visited))
	rm.transformedTotal.Add(ctx, int64(stats.Transformed))

	for rule, count := range stats.Applications {
		rm.applications.Add(ctx, int64(count), metric.WithAttributes(attribute.String(attrRule, rule)))
	}
}

// RecordProjection records the size of a projected graph. Safe to call on a nil receiver.
func (rm *RewriteMetrics) RecordProjection(ctx context.Context, nodes, edges int) {
	if rm == nil {
		return
	}

	rm.graphNodes.Add(ctx, int64(nodes))
	rm.graphEdges.Add(ctx, int64(edges))
}
