package commands_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/codebridge/cmd/codebridge/commands"
	"github.com/Sumatoshi-tech/codebridge/internal/bridge"
	"github.com/Sumatoshi-tech/codebridge/pkg/ast"
	"github.com/Sumatoshi-tech/codebridge/pkg/rewrite"
)

type result struct {
	stdout string
	stderr string
	err    error
}

// execute runs the root command with a fresh config file and stdin.
func execute(t *testing.T, configYAML, stdin string, args ...string) result {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "codebridge.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(configYAML), 0o600))

	root := commands.NewRootCommand()

	var out, errOut bytes.Buffer

	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", configPath}, args...))

	err := root.Execute()

	return result{stdout: out.String(), stderr: errOut.String(), err: err}
}

func sampleJSON(t *testing.T) string {
	t.Helper()

	data, err := ast.Marshal(bridge.SampleProgram())
	require.NoError(t, err)

	return string(data)
}

func writeSample(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tree.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleJSON(t)), 0o600))

	return path
}

func decodeObject(t *testing.T, s string) map[string]any {
	t.Helper()

	var doc map[string]any

	require.NoError(t, json.Unmarshal([]byte(s), &doc))

	return doc
}

func nodeIDs(t *testing.T, doc map[string]any) []string {
	t.Helper()

	nodes, ok := doc["nodes"].([]any)
	require.True(t, ok)

	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.(map[string]any)["id"].(string))
	}

	return ids
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, commands.ExitCode(nil))
	assert.Equal(t, 1, commands.ExitCode(commands.ErrInvalidDocument))
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	res := execute(t, "", "", "version")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "codebridge dev")
}

func TestSampleCommand(t *testing.T) {
	t.Parallel()

	res := execute(t, "", "", "sample")
	require.NoError(t, res.err)

	doc := decodeObject(t, res.stdout)
	assert.Equal(t, "Program", doc["type"])
}

func TestSampleCommand_YAML(t *testing.T) {
	t.Parallel()

	res := execute(t, "", "", "sample", "--format", "yaml")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "type: Program")
}

func TestGraphCommand_Stdin(t *testing.T) {
	t.Parallel()

	res := execute(t, "", sampleJSON(t), "graph", "-")
	require.NoError(t, res.err)

	doc := decodeObject(t, res.stdout)
	assert.Equal(t, []string{"node_0", "node_1", "node_2", "node_3"}, nodeIDs(t, doc))
	assert.Len(t, doc["edges"], 3)
}

func TestGraphCommand_SeedFlagOverridesConfig(t *testing.T) {
	t.Parallel()

	cfg := "projection:\n  seed: 5\n  id_prefix: \"m:\"\n"

	res := execute(t, cfg, sampleJSON(t), "graph", "-")
	require.NoError(t, res.err)
	assert.Equal(t, "m:node_5", nodeIDs(t, decodeObject(t, res.stdout))[0])

	res = execute(t, cfg, sampleJSON(t), "graph", "--seed", "10", "-")
	require.NoError(t, res.err)
	assert.Equal(t, "m:node_10", nodeIDs(t, decodeObject(t, res.stdout))[0])
}

func TestGraphCommand_HTMLOutput(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "site", "graph.html")

	res := execute(t, "", "", "graph", "--format", "html", "--output", out, writeSample(t))
	require.NoError(t, res.err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<html")
	assert.Contains(t, string(data), "node_1: JavaClass")
}

func TestGraphCommand_CompressedOutputValidates(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "graph.json.lz4")

	res := execute(t, "", "", "graph", "--output", out, writeSample(t))
	require.NoError(t, res.err)

	res = execute(t, "", "", "validate", "--schema", "graph", "--no-color", out)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "graph document is valid")
}

func TestGraphCommand_YAMLInput(t *testing.T) {
	t.Parallel()

	tree := filepath.Join(t.TempDir(), "tree.yaml")

	res := execute(t, "", "", "sample", "--output", tree)
	require.NoError(t, res.err)

	res = execute(t, "", "", "graph", tree)
	require.NoError(t, res.err)
	assert.Len(t, nodeIDs(t, decodeObject(t, res.stdout)), 4)
}

func TestGraphCommand_Errors(t *testing.T) {
	t.Parallel()

	res := execute(t, "", sampleJSON(t), "graph", "--format", "xml", "-")
	require.ErrorIs(t, res.err, commands.ErrUnknownFormat)
	assert.Equal(t, 2, commands.ExitCode(res.err))

	res = execute(t, "", "", "graph", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, res.err)
	assert.Equal(t, 2, commands.ExitCode(res.err))

	res = execute(t, "limits:\n  max_input_size: 10B\n", sampleJSON(t), "graph", "-")
	require.ErrorIs(t, res.err, bridge.ErrInputTooLarge)

	res = execute(t, "", "", "graph", "-")
	require.ErrorIs(t, res.err, bridge.ErrEmptyInput)
}

func TestTransformCommand_Tree(t *testing.T) {
	t.Parallel()

	res := execute(t, "", "", "transform", writeSample(t))
	require.NoError(t, res.err)

	doc := decodeObject(t, res.stdout)
	children, ok := doc["children"].([]any)
	require.True(t, ok)
	require.Len(t, children, 1)
	assert.Equal(t, "JavaClassInterface", children[0].(map[string]any)["name"])
}

func TestTransformCommand_GraphStats(t *testing.T) {
	t.Parallel()

	res := execute(t, "", "", "transform", "--graph", "--stats", writeSample(t))
	require.NoError(t, res.err)

	doc := decodeObject(t, res.stdout)
	assert.Len(t, doc["nodes"], 4)

	assert.Contains(t, res.stderr, "Nodes transformed")
	assert.Contains(t, res.stderr, "Rules applied")
}

func TestTransformCommand_SingleRule(t *testing.T) {
	t.Parallel()

	res := execute(t, "", "", "transform", "--rule", "3", "--format", "yaml", writeSample(t))
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "name: JavaClass\n")
	assert.Contains(t, res.stdout, "varType: number")

	res = execute(t, "", "", "transform", "--rule", "9", writeSample(t))
	require.ErrorIs(t, res.err, rewrite.ErrRuleIndex)

	res = execute(t, "", "", "transform", "--rule", "-1", writeSample(t))
	require.ErrorIs(t, res.err, rewrite.ErrRuleIndex)
	assert.Equal(t, 2, commands.ExitCode(res.err))
}

func TestTransformCommand_Diff(t *testing.T) {
	t.Parallel()

	res := execute(t, "", "", "transform", "--diff", writeSample(t))
	require.NoError(t, res.err)

	assert.Contains(t, res.stdout, `- `)
	assert.Contains(t, res.stdout, `"name": "JavaClassInterface"`)
	assert.Contains(t, res.stdout, `"type": "Program"`)
}

func TestRulesCommand(t *testing.T) {
	t.Parallel()

	res := execute(t, "", "", "rules")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "rule-1")
	assert.Contains(t, res.stdout, "Total: 3 rules")
}

func TestRulesCommand_DisabledJSON(t *testing.T) {
	t.Parallel()

	res := execute(t, "rules:\n  disabled: [class-to-interface]\n", "", "rules", "--json")
	require.NoError(t, res.err)

	var catalog []rewrite.RuleInfo

	require.NoError(t, json.Unmarshal([]byte(res.stdout), &catalog))
	require.Len(t, catalog, 2)
	assert.Equal(t, "rule-1", catalog[0].ID)
	assert.Equal(t, 90, catalog[0].Confidence)

	res = execute(t, "", res.stdout, "validate", "--schema", "rules", "-")
	require.NoError(t, res.err)
}

func TestRulesCommand_AllDisabled(t *testing.T) {
	t.Parallel()

	cfg := "rules:\n  disabled: [class-to-interface, static-method-to-function, java-to-ts-types]\n"

	res := execute(t, cfg, "", "rules", "--json")
	require.NoError(t, res.err)
	assert.JSONEq(t, "[]", res.stdout)

	res = execute(t, cfg, "", "transform", "--stats", writeSample(t))
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, `"name": "JavaClass"`)
}

func TestPathCommand(t *testing.T) {
	t.Parallel()

	tree := writeSample(t)

	res := execute(t, "", "", "path", tree, "node_0", "node_3")
	require.NoError(t, res.err)

	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "node_0 -[contains]-> node_1")
	assert.Contains(t, lines[1], "node_1 -[contains]-> node_3")

	res = execute(t, "", "", "path", "--json", tree, "node_0", "node_2")
	require.NoError(t, res.err)

	var edges []map[string]any

	require.NoError(t, json.Unmarshal([]byte(res.stdout), &edges))
	assert.Len(t, edges, 2)

	res = execute(t, "", "", "path", tree, "node_3", "node_0")
	require.ErrorIs(t, res.err, commands.ErrNoPath)
	assert.Equal(t, 1, commands.ExitCode(res.err))
}

func TestValidateCommand_Valid(t *testing.T) {
	t.Parallel()

	res := execute(t, "", "", "validate", "--no-color", writeSample(t))
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "tree document is valid")
	assert.Contains(t, res.stdout, "Compliance: 100%")

	res = execute(t, "", "", "--quiet", "validate", writeSample(t))
	require.NoError(t, res.err)
	assert.Empty(t, res.stdout)
}

func TestValidateCommand_Invalid(t *testing.T) {
	t.Parallel()

	doc := `{"type":"Program","children":[{"type":"Literal","literalType":"CHAR","value":"c"}]}`

	res := execute(t, "", doc, "validate", "--no-color", "-")
	require.ErrorIs(t, res.err, commands.ErrInvalidDocument)
	assert.Equal(t, 1, commands.ExitCode(res.err))

	assert.Contains(t, res.stdout, "tree validation failed (stdin)")
	assert.Contains(t, res.stdout, `"CHAR"`)
	assert.Contains(t, res.stdout, "Recommendations:")
	assert.Contains(t, res.stdout, "Literal types are NUMBER, STRING, BOOLEAN and NULL")
}

func TestValidateCommand_UsageErrors(t *testing.T) {
	t.Parallel()

	res := execute(t, "", `{`, "validate", "-")
	require.Error(t, res.err)
	assert.Equal(t, 2, commands.ExitCode(res.err))

	res = execute(t, "", `{}`, "validate", "--schema", "ast", "-")
	require.Error(t, res.err)
	assert.Equal(t, 2, commands.ExitCode(res.err))
}

func TestRootCommand_BadConfig(t *testing.T) {
	t.Parallel()

	res := execute(t, "logging:\n  level: loud\n", "", "rules")
	require.Error(t, res.err)
	assert.Equal(t, 2, commands.ExitCode(res.err))
}

func TestMCPCommand_Flags(t *testing.T) {
	t.Parallel()

	root := commands.NewRootCommand()

	cmd, _, err := root.Find([]string{"mcp"})
	require.NoError(t, err)
	assert.Equal(t, "mcp", cmd.Name())
	assert.NotEmpty(t, cmd.Long)

	for _, name := range []string{"debug", "metrics-addr"} {
		flag := cmd.Flags().Lookup(name)
		require.NotNil(t, flag, name)
	}
}

func TestSchemaCommand(t *testing.T) {
	t.Parallel()

	res := execute(t, "", "", "schema", "rules")
	require.NoError(t, res.err)
	assert.True(t, json.Valid([]byte(res.stdout)))

	out := filepath.Join(t.TempDir(), "graph.schema.yaml")

	res = execute(t, "", "", "schema", "--output", out, "graph")
	require.NoError(t, res.err)
	assert.FileExists(t, out)

	res = execute(t, "", "", "schema", "ast")
	assert.Equal(t, 2, commands.ExitCode(res.err))
}

func TestGraphCommand_DatabaseOutputAndPath(t *testing.T) {
	t.Parallel()

	db := filepath.Join(t.TempDir(), "graph.db")

	res := execute(t, "", "", "transform", "--graph", "--output", db, writeSample(t))
	require.NoError(t, res.err)

	res = execute(t, "", "", "path", db, "node_0", "node_2")
	require.NoError(t, res.err)
	assert.Len(t, strings.Split(strings.TrimSpace(res.stdout), "\n"), 2)

	res = execute(t, "", "", "transform", "--output", db, writeSample(t))
	require.ErrorIs(t, res.err, commands.ErrNotAGraph)
}
