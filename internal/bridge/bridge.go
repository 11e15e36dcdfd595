// Package bridge is the host facade over the syntax tree, graph and rewrite
// packages. It accepts interchange documents, runs the core operations and
// accumulates rewrite statistics across calls.
package bridge

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/codebridge/internal/observability"
	"github.com/Sumatoshi-tech/codebridge/pkg/ast"
	"github.com/Sumatoshi-tech/codebridge/pkg/graph"
	"github.com/Sumatoshi-tech/codebridge/pkg/projection"
	"github.com/Sumatoshi-tech/codebridge/pkg/rewrite"
	"github.com/Sumatoshi-tech/codebridge/pkg/rewrite/rules"
)

// Input errors.
var (
	ErrEmptyInput    = errors.New("empty input document")
	ErrInputTooLarge = errors.New("input document exceeds size limit")
)

// Options configures a Bridge. The zero value uses the default rules, no
// size limit, and discards logs and spans.
type Options struct {
	// Rules replaces the default rule set when non-nil.
	Rules []rewrite.Rule
	// MaxInputBytes rejects larger documents; zero disables the check.
	MaxInputBytes uint64
	// Projection options applied to every graph built by the bridge.
	Projection []projection.Option
	// TreeCacheSize keeps that many decoded trees keyed by document digest;
	// zero disables the cache.
	TreeCacheSize int
	Logger     *slog.Logger
	Tracer     trace.Tracer
	Metrics    *observability.RewriteMetrics
}

// TreeOutcome is a rewritten tree with the statistics of that call.
type TreeOutcome struct {
	Tree  ast.Node
	Stats rewrite.Stats
}

// GraphOutcome is a rewritten graph with the statistics of that call.
type GraphOutcome struct {
	Graph *graph.CodeGraph
	Stats rewrite.Stats
}

// Bridge runs core operations on interchange documents. It is safe for
// concurrent use.
type Bridge struct {
	engine     *rewrite.Engine
	maxInput   uint64
	projection []projection.Option
	logger     *slog.Logger
	tracer     trace.Tracer
	metrics    *observability.RewriteMetrics
	trees      *lru.Cache[[sha256.Size]byte, ast.Node]

	mu    sync.Mutex
	total rewrite.Stats
}

// New creates a Bridge.
func New(opts Options) *Bridge {
	ruleSet := opts.Rules
	if ruleSet == nil {
		ruleSet = rules.Default()
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	tracer := opts.Tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer("codebridge")
	}

	b := &Bridge{
		engine:     rewrite.NewEngine(ruleSet...).WithLogger(logger),
		maxInput:   opts.MaxInputBytes,
		projection: opts.Projection,
		logger:     logger,
		tracer:     tracer,
		metrics:    opts.Metrics,
	}

	if opts.TreeCacheSize > 0 {
		// lru.New only fails for a non-positive size.
		b.trees, _ = lru.New[[sha256.Size]byte, ast.Node](opts.TreeCacheSize)
	}

	return b
}

// Engine returns the rewrite engine holding the configured rules.
func (b *Bridge) Engine() *rewrite.Engine {
	return b.engine
}

// DecodeTree checks the size limit and decodes a tree document. With a tree
// cache the result may be shared between calls and must not be modified.
func (b *Bridge) DecodeTree(data []byte) (ast.Node, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}

	if b.maxInput > 0 && uint64(len(data)) > b.maxInput {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrInputTooLarge, len(data), b.maxInput)
	}

	var key [sha256.Size]byte

	if b.trees != nil {
		key = sha256.Sum256(data)

		if tree, ok := b.trees.Get(key); ok {
			b.logger.Debug("tree cache hit", "bytes", len(data))

			return tree, nil
		}
	}

	tree, err := ast.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode tree: %w", err)
	}

	if b.trees != nil {
		b.trees.Add(key, tree)
	}

	return tree, nil
}

// ASTToGraph projects a tree document into a graph.
func (b *Bridge) ASTToGraph(ctx context.Context, data []byte) (*graph.CodeGraph, error) {
	ctx, span := b.tracer.Start(ctx, "bridge.ast_to_graph")
	defer span.End()

	tree, err := b.DecodeTree(data)
	if err != nil {
		return nil, fail(span, err)
	}

	g := b.project(ctx, tree)
	span.SetAttributes(attribute.Int("graph.nodes", g.NodeCount()), attribute.Int("graph.edges", g.EdgeCount()))

	return g, nil
}

// TransformAST rewrites a tree document with every configured rule.
func (b *Bridge) TransformAST(ctx context.Context, data []byte) (TreeOutcome, error) {
	ctx, span := b.tracer.Start(ctx, "bridge.transform_ast")
	defer span.End()

	tree, err := b.DecodeTree(data)
	if err != nil {
		return TreeOutcome{}, fail(span, err)
	}

	res := b.engine.Transform(tree)
	b.record(ctx, span, res.Stats)

	return TreeOutcome{Tree: res.Node, Stats: res.Stats}, nil
}

// TransformGraph projects a tree document and rewrites the graph with every
// configured rule. The tree resolves the graph's back-references.
func (b *Bridge) TransformGraph(ctx context.Context, data []byte) (GraphOutcome, error) {
	return b.transformGraph(ctx, "bridge.transform_graph", b.engine, data)
}

// ApplyTransformation is TransformGraph restricted to the rule with the
// given one-based number, as listed by Rules.
func (b *Bridge) ApplyTransformation(ctx context.Context, data []byte, ruleNumber int) (GraphOutcome, error) {
	engine, err := b.engine.Subset(ruleNumber - 1)
	if err != nil {
		return GraphOutcome{}, fmt.Errorf("select rule %d: %w", ruleNumber, err)
	}

	return b.transformGraph(ctx, "bridge.apply_transformation", engine, data)
}

// ApplyRule is TransformAST restricted to the rule with the given one-based number.
func (b *Bridge) ApplyRule(ctx context.Context, data []byte, ruleNumber int) (TreeOutcome, error) {
	engine, err := b.engine.Subset(ruleNumber - 1)
	if err != nil {
		return TreeOutcome{}, fmt.Errorf("select rule %d: %w", ruleNumber, err)
	}

	ctx, span := b.tracer.Start(ctx, "bridge.apply_rule", trace.WithAttributes(attribute.Int("rule", ruleNumber)))
	defer span.End()

	tree, err := b.DecodeTree(data)
	if err != nil {
		return TreeOutcome{}, fail(span, err)
	}

	res := engine.Transform(tree)
	b.record(ctx, span, res.Stats)

	return TreeOutcome{Tree: res.Node, Stats: res.Stats}, nil
}

func (b *Bridge) transformGraph(
	ctx context.Context, name string, engine *rewrite.Engine, data []byte,
) (GraphOutcome, error) {
	ctx, span := b.tracer.Start(ctx, name)
	defer span.End()

	tree, err := b.DecodeTree(data)
	if err != nil {
		return GraphOutcome{}, fail(span, err)
	}

	g, st := engine.TransformGraph(b.project(ctx, tree), tree)
	b.record(ctx, span, st)

	return GraphOutcome{Graph: g, Stats: st}, nil
}

// FindPath projects a tree document and returns the shortest edge path
// between two graph node ids.
func (b *Bridge) FindPath(ctx context.Context, data []byte, from, to string) ([]*graph.Edge, bool, error) {
	ctx, span := b.tracer.Start(ctx, "bridge.find_path")
	defer span.End()

	tree, err := b.DecodeTree(data)
	if err != nil {
		return nil, false, fail(span, err)
	}

	path, found := b.project(ctx, tree).FindPath(from, to)
	span.SetAttributes(attribute.Bool("path.found", found), attribute.Int("path.length", len(path)))

	return path, found, nil
}

// Rules lists the configured rules.
func (b *Bridge) Rules() []rewrite.RuleInfo {
	return b.engine.Catalog()
}

// Stats summarizes every rewrite performed by this bridge so far.
func (b *Bridge) Stats() rewrite.Summary {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.engine.Summarize(b.total)
}

// Summarize reports the statistics of a single call.
func (b *Bridge) Summarize(st rewrite.Stats) rewrite.Summary {
	return b.engine.Summarize(st)
}

func (b *Bridge) project(ctx context.Context, tree ast.Node) *graph.CodeGraph {
	g := projection.Build(tree, b.projection...)

	b.metrics.RecordProjection(ctx, g.NodeCount(), g.EdgeCount())
	if b.logger.Enabled(ctx, slog.LevelDebug) {
		b.logger.DebugContext(ctx, "tree projected",
			"tree_nodes", ast.Count(tree), "nodes", g.NodeCount(), "edges", g.EdgeCount())
	}

	return g
}

func (b *Bridge) record(ctx context.Context, span trace.Span, st rewrite.Stats) {
	b.mu.Lock()
	b.total.Merge(st)
	b.mu.Unlock()

	span.SetAttributes(
		attribute.Int("rewrite.nodes", st.TotalNodes),
		attribute.Int("rewrite.transformed", st.TransformedNodes),
	)

	b.metrics.RecordRewrite(ctx, observability.RewriteStats{
		Visited:      st.TotalNodes,
		Transformed:  st.TransformedNodes,
		Applications: st.RuleApplications,
	})
	b.logger.DebugContext(ctx, "rewrite done", "nodes", st.TotalNodes, "transformed", st.TransformedNodes)
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	return err
}
