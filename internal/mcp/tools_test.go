package mcp

import (
	"context"
	"encoding/json"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/codebridge/internal/bridge"
	"github.com/Sumatoshi-tech/codebridge/pkg/ast"
	"github.com/Sumatoshi-tech/codebridge/pkg/rewrite"
)

func sampleTree(t *testing.T) string {
	t.Helper()

	data, err := ast.Marshal(bridge.SampleProgram())
	require.NoError(t, err)

	return string(data)
}

func resultText(t *testing.T, result *mcpsdk.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)

	text, ok := result.Content[0].(*mcpsdk.TextContent)
	require.True(t, ok)

	return text.Text
}

func decodeResult(t *testing.T, result *mcpsdk.CallToolResult) map[string]any {
	t.Helper()

	var out map[string]any

	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &out))

	return out
}

func TestHandleASTToGraph(t *testing.T) {
	t.Parallel()

	srv := NewServer(ServerDeps{})

	result, _, err := srv.handleASTToGraph(context.Background(), &mcpsdk.CallToolRequest{}, TreeInput{Tree: sampleTree(t)})
	require.NoError(t, err)
	assert.False(t, result.IsError)

	out := decodeResult(t, result)
	assert.Len(t, out["nodes"], 4)
	assert.Len(t, out["edges"], 3)
}

func TestHandleASTToGraph_Errors(t *testing.T) {
	t.Parallel()

	srv := NewServer(ServerDeps{})

	result, _, err := srv.handleASTToGraph(context.Background(), &mcpsdk.CallToolRequest{}, TreeInput{})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "tree parameter is required")

	result, _, err = srv.handleASTToGraph(context.Background(), &mcpsdk.CallToolRequest{}, TreeInput{Tree: `{"type":"Goto"}`})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Goto")
}

func TestHandleTransform(t *testing.T) {
	t.Parallel()

	srv := NewServer(ServerDeps{})

	result, output, err := srv.handleTransform(context.Background(), &mcpsdk.CallToolRequest{}, TransformInput{Tree: sampleTree(t)})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.NotNil(t, output.Data)

	out := decodeResult(t, result)

	tree, ok := out["tree"].(map[string]any)
	require.True(t, ok)

	children, ok := tree["children"].([]any)
	require.True(t, ok)
	require.Len(t, children, 1)

	class, ok := children[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "JavaClassInterface", class["name"])

	stats, ok := out["stats"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 2, stats["totalNodes"], 0)
}

func TestHandleTransform_SingleRule(t *testing.T) {
	t.Parallel()

	srv := NewServer(ServerDeps{})

	result, _, err := srv.handleTransform(context.Background(), &mcpsdk.CallToolRequest{},
		TransformInput{Tree: sampleTree(t), Rule: 3})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), `"number"`)

	result, _, err = srv.handleTransform(context.Background(), &mcpsdk.CallToolRequest{},
		TransformInput{Tree: sampleTree(t), Rule: 9})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "rule index out of range")

	result, _, err = srv.handleTransform(context.Background(), &mcpsdk.CallToolRequest{},
		TransformInput{Tree: sampleTree(t), Rule: -1})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleTransform_RootRewrittenToNil(t *testing.T) {
	t.Parallel()

	erase := rewrite.FuncRule{
		Meta:      rewrite.Metadata{Key: "erase", Description: "erase programs", Confidence: 10},
		MatchFunc: func(n ast.Node) bool { return n.Kind() == ast.KindProgram },
		ApplyFunc: func(ast.Node) ast.Node { return nil },
	}

	srv := NewServer(ServerDeps{Bridge: bridge.New(bridge.Options{Rules: []rewrite.Rule{erase}})})

	result, _, err := srv.handleTransform(context.Background(), &mcpsdk.CallToolRequest{}, TransformInput{Tree: sampleTree(t)})
	require.NoError(t, err)
	assert.False(t, result.IsError)

	out := decodeResult(t, result)
	tree, present := out["tree"]
	assert.True(t, present)
	assert.Nil(t, tree)

	stats, ok := out["stats"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 1, stats["transformedNodes"], 0)
}

func TestHandleTransformGraph(t *testing.T) {
	t.Parallel()

	srv := NewServer(ServerDeps{})

	result, _, err := srv.handleTransformGraph(context.Background(), &mcpsdk.CallToolRequest{},
		TransformInput{Tree: sampleTree(t)})
	require.NoError(t, err)
	assert.False(t, result.IsError)

	out := decodeResult(t, result)

	g, ok := out["graph"].(map[string]any)
	require.True(t, ok)

	nodes, ok := g["nodes"].([]any)
	require.True(t, ok)
	require.Len(t, nodes, 4)

	first, ok := nodes[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Transformed: Program", first["label"])
}

func TestHandleRulesAndStats(t *testing.T) {
	t.Parallel()

	srv := NewServer(ServerDeps{})

	result, _, err := srv.handleRules(context.Background(), &mcpsdk.CallToolRequest{}, EmptyInput{})
	require.NoError(t, err)

	var catalog []map[string]any

	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &catalog))
	require.Len(t, catalog, 3)
	assert.Equal(t, "rule-1", catalog[0]["id"])

	_, _, err = srv.handleTransform(context.Background(), &mcpsdk.CallToolRequest{}, TransformInput{Tree: sampleTree(t)})
	require.NoError(t, err)

	result, _, err = srv.handleStats(context.Background(), &mcpsdk.CallToolRequest{}, EmptyInput{})
	require.NoError(t, err)

	stats := decodeResult(t, result)
	assert.InDelta(t, 1, stats["transformedNodes"], 0)
	assert.InDelta(t, 95, stats["confidence"], 0.001)
}

func TestHandleFindPath(t *testing.T) {
	t.Parallel()

	srv := NewServer(ServerDeps{})

	result, _, err := srv.handleFindPath(context.Background(), &mcpsdk.CallToolRequest{},
		FindPathInput{Tree: sampleTree(t), From: "node_0", To: "node_2"})
	require.NoError(t, err)

	out := decodeResult(t, result)
	assert.Equal(t, true, out["found"])
	assert.Len(t, out["path"], 2)

	result, _, err = srv.handleFindPath(context.Background(), &mcpsdk.CallToolRequest{},
		FindPathInput{Tree: sampleTree(t), From: "node_0"})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
