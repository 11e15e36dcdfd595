package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/codebridge/internal/bridge"
	"github.com/Sumatoshi-tech/codebridge/pkg/ast"
)

// Tool names.
const (
	ToolNameASTToGraph     = "codebridge_ast_to_graph"
	ToolNameTransform      = "codebridge_transform"
	ToolNameTransformGraph = "codebridge_transform_graph"
	ToolNameRules          = "codebridge_rules"
	ToolNameStats          = "codebridge_stats"
	ToolNameFindPath       = "codebridge_find_path"
)

// Sentinel errors for tool input validation.
var (
	ErrEmptyTree     = errors.New("tree parameter is required and must not be empty")
	ErrEmptyEndpoint = errors.New("from and to parameters are required")
	ErrNegativeRule  = errors.New("rule must be a positive rule number")

	errToolResult = errors.New("tool returned an error result")
)

// TreeInput is the input schema of codebridge_ast_to_graph.
type TreeInput struct {
	Tree string `json:"tree" jsonschema:"syntax tree as interchange JSON"`
}

// TransformInput is the input schema of the transform tools.
type TransformInput struct {
	Tree string `json:"tree"           jsonschema:"syntax tree as interchange JSON"`
	Rule int    `json:"rule,omitempty" jsonschema:"optional 1-based rule number; 0 applies all rules"`
}

func (in TransformInput) ruleNumber() int { return in.Rule }

// FindPathInput is the input schema of codebridge_find_path.
type FindPathInput struct {
	Tree string `json:"tree" jsonschema:"syntax tree as interchange JSON"`
	From string `json:"from" jsonschema:"source graph node id (e.g. node_0)"`
	To   string `json:"to"   jsonschema:"target graph node id"`
}

// EmptyInput is the input schema of tools without parameters.
type EmptyInput struct{}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: err.Error()}},
		IsError: true,
	}, ToolOutput{}, nil
}

func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, ToolOutput{Data: value}, nil
}

// treeValue is the interchange form of n; a rule may rewrite the root to nil,
// which encodes as null.
func treeValue(n ast.Node) any {
	if n == nil {
		return nil
	}

	return n.ToMap()
}

func validateTree(tree string) error {
	if tree == "" {
		return ErrEmptyTree
	}

	return nil
}

func validateRule(rule int) error {
	if rule < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeRule, rule)
	}

	return nil
}

func (s *Server) handleASTToGraph(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input TreeInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateTree(input.Tree)
	if err != nil {
		return errorResult(err)
	}

	g, err := s.bridge.ASTToGraph(ctx, []byte(input.Tree))
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(g.ToMap())
}

func (s *Server) handleTransform(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input TransformInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := errors.Join(validateTree(input.Tree), validateRule(input.Rule))
	if err != nil {
		return errorResult(err)
	}

	data := []byte(input.Tree)

	var (
		res    bridge.TreeOutcome
		runErr error
	)

	if input.Rule > 0 {
		res, runErr = s.bridge.ApplyRule(ctx, data, input.Rule)
	} else {
		res, runErr = s.bridge.TransformAST(ctx, data)
	}

	if runErr != nil {
		return errorResult(runErr)
	}

	return jsonResult(map[string]any{
		"tree":  treeValue(res.Tree),
		"stats": s.bridge.Summarize(res.Stats),
	})
}

func (s *Server) handleTransformGraph(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input TransformInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := errors.Join(validateTree(input.Tree), validateRule(input.Rule))
	if err != nil {
		return errorResult(err)
	}

	data := []byte(input.Tree)

	var (
		res    bridge.GraphOutcome
		runErr error
	)

	if input.Rule > 0 {
		res, runErr = s.bridge.ApplyTransformation(ctx, data, input.Rule)
	} else {
		res, runErr = s.bridge.TransformGraph(ctx, data)
	}

	if runErr != nil {
		return errorResult(runErr)
	}

	return jsonResult(map[string]any{
		"graph": res.Graph.ToMap(),
		"stats": s.bridge.Summarize(res.Stats),
	})
}

func (s *Server) handleRules(
	_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return jsonResult(s.bridge.Rules())
}

func (s *Server) handleStats(
	_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return jsonResult(s.bridge.Stats())
}

func (s *Server) handleFindPath(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input FindPathInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateTree(input.Tree)
	if err != nil {
		return errorResult(err)
	}

	if input.From == "" || input.To == "" {
		return errorResult(ErrEmptyEndpoint)
	}

	path, found, err := s.bridge.FindPath(ctx, []byte(input.Tree), input.From, input.To)
	if err != nil {
		return errorResult(err)
	}

	edges := make([]map[string]any, 0, len(path))
	for _, e := range path {
		edges = append(edges, e.ToMap())
	}

	return jsonResult(map[string]any{"found": found, "path": edges})
}
