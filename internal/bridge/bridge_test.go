package bridge_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/codebridge/internal/bridge"
	"github.com/Sumatoshi-tech/codebridge/internal/observability"
	"github.com/Sumatoshi-tech/codebridge/pkg/ast"
	"github.com/Sumatoshi-tech/codebridge/pkg/graph"
	"github.com/Sumatoshi-tech/codebridge/pkg/projection"
	"github.com/Sumatoshi-tech/codebridge/pkg/rewrite"
	"github.com/Sumatoshi-tech/codebridge/pkg/rewrite/rules"
)

func sampleJSON(t *testing.T) []byte {
	t.Helper()

	data, err := ast.Marshal(bridge.SampleProgram())
	require.NoError(t, err)

	return data
}

func TestASTToGraph_Sample(t *testing.T) {
	t.Parallel()

	g, err := bridge.New(bridge.Options{}).ASTToGraph(context.Background(), sampleJSON(t))
	require.NoError(t, err)

	assert.Equal(t, 4, g.NodeCount())
	assert.Equal(t, 3, g.EdgeCount())

	for _, e := range g.Edges() {
		assert.Equal(t, projection.EdgeContains, e.Label)
	}

	class, ok := g.Node("node_1")
	require.True(t, ok)
	assert.Equal(t, "JavaClass", class.Label)
	assert.Equal(t, "Example.java:1:1", class.Properties[projection.PropLocation])
}

func TestASTToGraph_DebugLogCountsTree(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := bridge.New(bridge.Options{Logger: logger}).ASTToGraph(context.Background(), sampleJSON(t))
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "tree projected")
	assert.Contains(t, buf.String(), "tree_nodes=4")
	assert.Contains(t, buf.String(), "nodes=4 edges=3")
}

func TestASTToGraph_ProjectionOptions(t *testing.T) {
	t.Parallel()

	b := bridge.New(bridge.Options{Projection: []projection.Option{projection.WithSeed(10), projection.WithIDPrefix("m:")}})

	g, err := b.ASTToGraph(context.Background(), sampleJSON(t))
	require.NoError(t, err)

	_, ok := g.Node("m:node_10")
	assert.True(t, ok)
}

func TestDecodeTree_Errors(t *testing.T) {
	t.Parallel()

	b := bridge.New(bridge.Options{MaxInputBytes: 16})

	_, err := b.DecodeTree(nil)
	require.ErrorIs(t, err, bridge.ErrEmptyInput)

	_, err = b.DecodeTree(sampleJSON(t))
	require.ErrorIs(t, err, bridge.ErrInputTooLarge)

	_, err = b.DecodeTree([]byte(`{"name":"x"}`))
	require.ErrorIs(t, err, ast.ErrMissingType)
}

func TestTransformAST_Sample(t *testing.T) {
	t.Parallel()

	b := bridge.New(bridge.Options{})

	out, err := b.TransformAST(context.Background(), sampleJSON(t))
	require.NoError(t, err)

	program, ok := out.Tree.(*ast.Program)
	require.True(t, ok)
	require.Len(t, program.Children, 1)

	iface, ok := program.Children[0].(*ast.ClassDeclaration)
	require.True(t, ok)
	assert.Equal(t, "JavaClassInterface", iface.Name)

	assert.Equal(t, 2, out.Stats.TotalNodes)
	assert.Equal(t, 1, out.Stats.TransformedNodes)
}

func TestTransformGraph_Sample(t *testing.T) {
	t.Parallel()

	b := bridge.New(bridge.Options{})

	out, err := b.TransformGraph(context.Background(), sampleJSON(t))
	require.NoError(t, err)

	assert.Equal(t, 4, out.Graph.NodeCount())
	assert.Equal(t, 3, out.Graph.EdgeCount())

	for _, n := range out.Graph.Nodes() {
		assert.Contains(t, n.Label, rewrite.LabelPrefix)
		assert.Equal(t, "true", n.Properties[rewrite.PropTransformed])
	}

	field, ok := out.Graph.Node("node_2")
	require.True(t, ok)
	assert.Equal(t, rules.PrimitiveTypeMapping{}.Metadata().Description, field.Properties[rewrite.PropRule])

	method, ok := out.Graph.Node("node_3")
	require.True(t, ok)
	assert.NotContains(t, method.Properties, rewrite.PropRule)

	// One visit per graph node; the class and the field matched a rule.
	assert.Equal(t, 4, out.Stats.TotalNodes)
	assert.Equal(t, 2, out.Stats.TransformedNodes)
	assert.Equal(t, map[string]int{
		rules.ClassToInterface{}.Metadata().Description:     1,
		rules.PrimitiveTypeMapping{}.Metadata().Description: 1,
	}, out.Stats.RuleApplications)

	summary := b.Summarize(out.Stats)
	assert.InDelta(t, (95.0+85.0)/2, summary.Confidence, 0.001)
	assert.Len(t, summary.RulesApplied, 2)
}

func TestTransformGraph_StatsCountGraphNodes(t *testing.T) {
	t.Parallel()

	b := bridge.New(bridge.Options{})

	_, err := b.TransformGraph(context.Background(), sampleJSON(t))
	require.NoError(t, err)

	summary := b.Stats()
	assert.Equal(t, 4, summary.TotalNodes)
	assert.Equal(t, 2, summary.TransformedNodes)
	assert.Equal(t, []string{
		rules.ClassToInterface{}.Metadata().Description,
		rules.PrimitiveTypeMapping{}.Metadata().Description,
	}, summary.RulesApplied)
	assert.InDelta(t, 90.0, summary.Confidence, 0.001)
}

func TestApplyTransformation_SingleRule(t *testing.T) {
	t.Parallel()

	b := bridge.New(bridge.Options{})

	out, err := b.ApplyTransformation(context.Background(), sampleJSON(t), 3)
	require.NoError(t, err)

	assert.Equal(t, 4, out.Stats.TotalNodes)
	assert.Equal(t, 1, out.Stats.TransformedNodes)

	summary := b.Summarize(out.Stats)
	assert.Equal(t, []string{rules.PrimitiveTypeMapping{}.Metadata().Description}, summary.RulesApplied)

	_, err = b.ApplyTransformation(context.Background(), sampleJSON(t), 0)
	require.ErrorIs(t, err, rewrite.ErrRuleIndex)

	_, err = b.ApplyTransformation(context.Background(), sampleJSON(t), 4)
	require.ErrorIs(t, err, rewrite.ErrRuleIndex)
}

func TestApplyRule_Tree(t *testing.T) {
	t.Parallel()

	b := bridge.New(bridge.Options{})

	out, err := b.ApplyRule(context.Background(), sampleJSON(t), 3)
	require.NoError(t, err)

	program, ok := out.Tree.(*ast.Program)
	require.True(t, ok)

	class, ok := program.Children[0].(*ast.ClassDeclaration)
	require.True(t, ok)
	assert.Equal(t, "JavaClass", class.Name)
	assert.Equal(t, "number", class.Fields[0].VarType)
}

func TestStats_Accumulates(t *testing.T) {
	t.Parallel()

	b := bridge.New(bridge.Options{})
	ctx := context.Background()

	assert.Zero(t, b.Stats().TotalNodes)
	assert.Empty(t, b.Stats().RulesApplied)

	_, err := b.TransformAST(ctx, sampleJSON(t))
	require.NoError(t, err)

	_, err = b.TransformGraph(ctx, sampleJSON(t))
	require.NoError(t, err)

	summary := b.Stats()
	assert.Equal(t, 6, summary.TotalNodes)
	assert.Equal(t, 3, summary.TransformedNodes)
	assert.InDelta(t, (95.0*2+85.0)/3, summary.Confidence, 0.001)
}

func TestFindPath(t *testing.T) {
	t.Parallel()

	b := bridge.New(bridge.Options{})

	path, found, err := b.FindPath(context.Background(), sampleJSON(t), "node_0", "node_3")
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, path, 2)
	assert.Equal(t, "node_0", path[0].Source)
	assert.Equal(t, "node_3", path[1].Target)

	path, found, err = b.FindPath(context.Background(), sampleJSON(t), "node_3", "node_0")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, path)
}

func TestRules_Catalog(t *testing.T) {
	t.Parallel()

	catalog := bridge.New(bridge.Options{}).Rules()
	require.Len(t, catalog, 3)
	assert.Equal(t, "rule-1", catalog[0].ID)

	custom := bridge.New(bridge.Options{Rules: []rewrite.Rule{rules.PrimitiveTypeMapping{}}}).Rules()
	require.Len(t, custom, 1)
	assert.Equal(t, 85, custom[0].Confidence)
}

func TestBridge_Telemetry(t *testing.T) {
	t.Parallel()

	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	metrics, err := observability.NewRewriteMetrics(mp.Meter("test"))
	require.NoError(t, err)

	b := bridge.New(bridge.Options{Tracer: tp.Tracer("test"), Metrics: metrics})

	_, err = b.TransformGraph(context.Background(), sampleJSON(t))
	require.NoError(t, err)

	_, err = b.ASTToGraph(context.Background(), []byte(`{"type":"Nope"}`))
	require.Error(t, err)

	ended := spans.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "bridge.transform_graph", ended[0].Name())
	assert.Equal(t, "bridge.ast_to_graph", ended[1].Name())
	assert.NotEmpty(t, ended[1].Events())

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

	names := make(map[string]bool)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}

	assert.True(t, names["codebridge.rewrite.nodes.total"])
	assert.True(t, names["codebridge.graph.nodes.total"])
}

func TestGraphOutcome_Serializes(t *testing.T) {
	t.Parallel()

	out, err := bridge.New(bridge.Options{}).TransformGraph(context.Background(), sampleJSON(t))
	require.NoError(t, err)

	data, err := out.Graph.MarshalJSON()
	require.NoError(t, err)

	decoded, err := graph.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, out.Graph.NodeCount(), decoded.NodeCount())
}

func TestDecodeTree_Cache(t *testing.T) {
	t.Parallel()

	b := bridge.New(bridge.Options{TreeCacheSize: 2})

	first, err := b.DecodeTree(sampleJSON(t))
	require.NoError(t, err)

	second, err := b.DecodeTree(sampleJSON(t))
	require.NoError(t, err)
	assert.Same(t, first, second)

	uncached := bridge.New(bridge.Options{})

	third, err := uncached.DecodeTree(sampleJSON(t))
	require.NoError(t, err)

	fourth, err := uncached.DecodeTree(sampleJSON(t))
	require.NoError(t, err)
	assert.NotSame(t, third, fourth)
	assert.Equal(t, third, fourth)
}

func TestTransformAST_CachedInputUnchanged(t *testing.T) {
	t.Parallel()

	b := bridge.New(bridge.Options{TreeCacheSize: 1})

	tree, err := b.DecodeTree(sampleJSON(t))
	require.NoError(t, err)

	before := tree.ToMap()

	_, err = b.TransformAST(context.Background(), sampleJSON(t))
	require.NoError(t, err)
	assert.Equal(t, before, tree.ToMap())
}
