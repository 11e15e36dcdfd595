// Package mcp implements a Model Context Protocol server exposing the
// codebridge tree, graph and rewrite operations as MCP tools.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/codebridge/internal/bridge"
	"github.com/Sumatoshi-tech/codebridge/internal/observability"
	"github.com/Sumatoshi-tech/codebridge/pkg/version"
)

const (
	serverName = "codebridge"
	toolCount  = 6

	mcpSpanPrefix  = "mcp."
	traceIDMetaKey = "trace_id"
)

// ServerDeps holds injectable dependencies for the MCP server.
// Zero-value fields use production defaults.
type ServerDeps struct {
	// Bridge runs the tool operations. Nil uses a bridge with default rules.
	Bridge *bridge.Bridge

	// Logger is an optional structured logger. Nil uses slog default.
	Logger *slog.Logger

	// Metrics records one operation per tool call. Nil disables per-tool metrics.
	Metrics *observability.OperationMetrics

	// Tracer is an optional OTel tracer for per-tool-call spans. Nil disables tracing.
	Tracer trace.Tracer
}

// Server wraps the MCP SDK server with the codebridge tool registrations.
type Server struct {
	inner   *mcpsdk.Server
	bridge  *bridge.Bridge
	mu      sync.RWMutex
	tools   []string
	metrics *observability.OperationMetrics
	tracer  trace.Tracer
}

// NewServer creates a new MCP server with all tools registered.
func NewServer(deps ServerDeps) *Server {
	opts := &mcpsdk.ServerOptions{}
	if deps.Logger != nil {
		opts.Logger = deps.Logger
	}

	b := deps.Bridge
	if b == nil {
		b = bridge.New(bridge.Options{Logger: deps.Logger})
	}

	srv := &Server{
		inner:   mcpsdk.NewServer(&mcpsdk.Implementation{Name: serverName, Version: version.Version}, opts),
		bridge:  b,
		tools:   make([]string, 0, toolCount),
		metrics: deps.Metrics,
		tracer:  deps.Tracer,
	}

	srv.registerTools()

	return srv
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.tools))
	copy(names, s.tools)
	sort.Strings(names)

	return names
}

// Run serves over stdio until the context is canceled or the connection closes.
func (s *Server) Run(ctx context.Context) error {
	return s.RunWithTransport(ctx, &mcpsdk.StdioTransport{})
}

// RunWithTransport serves over transport until the context is canceled or
// the connection closes.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	err := s.inner.Run(ctx, transport)
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

func (s *Server) registerTools() {
	addTool(s, ToolNameASTToGraph, astToGraphDescription, s.handleASTToGraph)
	addTool(s, ToolNameTransform, transformDescription, s.handleTransform)
	addTool(s, ToolNameTransformGraph, transformGraphDescription, s.handleTransformGraph)
	addTool(s, ToolNameRules, rulesDescription, s.handleRules)
	addTool(s, ToolNameStats, statsDescription, s.handleStats)
	addTool(s, ToolNameFindPath, findPathDescription, s.handleFindPath)
}

func addTool[Input any](s *Server, name, description string, handler toolHandler[Input]) {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        name,
		Description: description,
	}, mcpsdk.ToolHandlerFor[Input, ToolOutput](withOperation(name, withMetrics(s.metrics, withTracing(s.tracer, name, handler)))))

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools = append(s.tools, name)
}

type toolHandler[Input any] func(context.Context, *mcpsdk.CallToolRequest, Input) (*mcpsdk.CallToolResult, ToolOutput, error)

// withTracing wraps a tool handler in a server span and appends the trace id
// to the response when the span is sampled.
func withTracing[Input any](tracer trace.Tracer, toolName string, handler toolHandler[Input]) toolHandler[Input] {
	if tracer == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		ctx, span := tracer.Start(ctx, mcpSpanPrefix+toolName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.tool", toolName)),
		)
		defer span.End()

		result, output, err := handler(ctx, req, input)

		sc := span.SpanContext()
		if sc.IsSampled() && result != nil {
			result.Content = append(result.Content,
				&mcpsdk.TextContent{Text: fmt.Sprintf("%s=%s", traceIDMetaKey, sc.TraceID().String())})
		}

		return result, output, err
	}
}

// toolDocuments maps each tool to the document kind it returns.
var toolDocuments = map[string]string{
	ToolNameASTToGraph:     observability.DocumentGraph,
	ToolNameTransform:      observability.DocumentTree,
	ToolNameTransformGraph: observability.DocumentGraph,
	ToolNameRules:          observability.DocumentRules,
	ToolNameStats:          observability.DocumentStats,
	ToolNameFindPath:       observability.DocumentPath,
}

// ruleScoped is implemented by inputs that may restrict a call to one rule.
type ruleScoped interface {
	ruleNumber() int
}

// withOperation stores the tool call as an operation in the handler context,
// so metrics and log records downstream can name it.
func withOperation[Input any](toolName string, handler toolHandler[Input]) toolHandler[Input] {
	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		op := observability.Operation{
			Name:     toolName,
			Surface:  observability.SurfaceMCP,
			Document: toolDocuments[toolName],
		}

		if scoped, ok := any(input).(ruleScoped); ok {
			op.Rule = scoped.ruleNumber()
		}

		return handler(observability.ContextWithOperation(ctx, op), req, input)
	}
}

// withMetrics wraps a tool handler to record the operation in its context. A
// result flagged as an error counts as a failed operation.
func withMetrics[Input any](metrics *observability.OperationMetrics, handler toolHandler[Input]) toolHandler[Input] {
	if metrics == nil {
		return handler
	}

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input Input) (*mcpsdk.CallToolResult, ToolOutput, error) {
		op, _ := observability.OperationFromContext(ctx)
		finish := metrics.Start(ctx, op)

		result, output, err := handler(ctx, req, input)

		switch {
		case err != nil:
			finish(err)
		case result != nil && result.IsError:
			finish(errToolResult)
		default:
			finish(nil)
		}

		return result, output, err
	}
}

const (
	astToGraphDescription = "Project a syntax tree (interchange JSON) into a property graph. " +
		"Every tree node becomes a graph node linked to its parent by a contains edge."

	transformDescription = "Rewrite a syntax tree with the ordered rule set; the first matching rule " +
		"replaces a node. Optionally restrict to one rule by its 1-based number."

	transformGraphDescription = "Project a syntax tree into a graph and mark every node with the " +
		"rewrite of the syntax node it came from. Optionally restrict to one rule."

	rulesDescription = "List the rewrite rules in precedence order with confidence and automation flags."

	statsDescription = "Report rewrite statistics accumulated by this server: visited and " +
		"transformed nodes, applied rules and weighted confidence."

	findPathDescription = "Project a syntax tree and return the shortest directed edge path " +
		"between two graph node ids."
)
