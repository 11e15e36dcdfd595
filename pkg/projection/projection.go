// Package projection derives a property graph from a syntax tree.
package projection

import (
	"strconv"

	"github.com/Sumatoshi-tech/codebridge/pkg/ast"
	"github.com/Sumatoshi-tech/codebridge/pkg/graph"
)

// Node categories.
const (
	CategoryProgram    = "program"
	CategoryVarDecl    = "var_decl"
	CategoryFuncDecl   = "func_decl"
	CategoryClassDecl  = "class_decl"
	CategoryIdentifier = "identifier"
	CategoryLiteral    = "literal"
	CategoryBinaryExpr = "binary_expr"
	CategoryBlock      = "block"
	CategoryReturn     = "return_stmt"
	CategoryCall       = "call_expr"
	CategoryUnknown    = "unknown"
)

// Property keys set on projected nodes.
const (
	PropLocation    = "location"
	PropVarType     = "varType"
	PropReturnType  = "returnType"
	PropParameters  = "parameters"
	PropBaseClass   = "baseClass"
	PropLiteralType = "literalType"
)

// EdgeContains labels parent to child edges.
const EdgeContains = "contains"

// Defaults for Options.
const (
	DefaultSeed     = 0
	DefaultIDPrefix = ""
)

// Options configures a projection.
type Options struct {
	// Seed is the first counter value used for node and edge ids.
	Seed int
	// IDPrefix is prepended to every generated id.
	IDPrefix string
}

// Option mutates Options.
type Option func(*Options)

// WithSeed sets the first id counter value.
func WithSeed(seed int) Option {
	return func(o *Options) { o.Seed = seed }
}

// WithIDPrefix prepends prefix to generated ids.
func WithIDPrefix(prefix string) Option {
	return func(o *Options) { o.IDPrefix = prefix }
}

// builder holds the id counters of a single projection.
type builder struct {
	g        *graph.CodeGraph
	prefix   string
	nextNode int
	nextEdge int
}

// Build projects the tree rooted at root into a new graph. Nodes are visited
// in pre-order; every non-root node is linked to its parent with a
// "contains" edge. A nil root yields an empty graph. Ids are deterministic
// for a given tree and seed.
func Build(root ast.Node, opts ...Option) *graph.CodeGraph {
	o := Options{Seed: DefaultSeed, IDPrefix: DefaultIDPrefix}
	for _, opt := range opts {
		opt(&o)
	}

	b := &builder{
		g:        graph.New(),
		prefix:   o.IDPrefix,
		nextNode: o.Seed,
		nextEdge: o.Seed,
	}

	if root != nil {
		b.visit(root, "", ast.RootPath)
	}

	return b.g
}

func (b *builder) visit(n ast.Node, parentID, path string) {
	gn := describe(n)
	gn.ID = b.prefix + "node_" + strconv.Itoa(b.nextNode)
	gn.Origin = path
	b.nextNode++

	if loc := n.Location(); loc != "" {
		gn.SetProperty(PropLocation, loc)
	}

	b.g.AddNode(gn)

	if parentID != "" {
		b.g.AddEdge(&graph.Edge{
			ID:     b.prefix + "edge_" + strconv.Itoa(b.nextEdge),
			Source: parentID,
			Target: gn.ID,
			Label:  EdgeContains,
		})
		b.nextEdge++
	}

	for i, child := range descend(n) {
		b.visit(child, gn.ID, ast.ChildPath(path, i))
	}
}

// describe assigns category, label and variant properties.
func describe(n ast.Node) *graph.Node {
	gn := &graph.Node{}

	switch v := n.(type) {
	case *ast.Program:
		gn.Type, gn.Label = CategoryProgram, "Program"
	case *ast.VariableDeclaration:
		gn.Type, gn.Label = CategoryVarDecl, v.Name
		gn.SetProperty(PropVarType, v.VarType)
	case *ast.FunctionDeclaration:
		gn.Type, gn.Label = CategoryFuncDecl, v.Name
		gn.SetProperty(PropReturnType, v.ReturnType)
		gn.SetProperty(PropParameters, strconv.Itoa(len(v.Parameters)))
	case *ast.ClassDeclaration:
		gn.Type, gn.Label = CategoryClassDecl, v.Name
		if v.BaseClass != "" {
			gn.SetProperty(PropBaseClass, v.BaseClass)
		}
	case *ast.Identifier:
		gn.Type, gn.Label = CategoryIdentifier, v.Name
	case *ast.Literal:
		gn.Type, gn.Label = CategoryLiteral, v.Value
		gn.SetProperty(PropLiteralType, v.Type.String())
	case *ast.BinaryExpression:
		gn.Type, gn.Label = CategoryBinaryExpr, v.Operator.String()
	case *ast.Block:
		gn.Type, gn.Label = CategoryBlock, "Block"
	case *ast.ReturnStatement:
		gn.Type, gn.Label = CategoryReturn, "return"
	case *ast.CallExpression:
		gn.Type, gn.Label = CategoryCall, "call"
		if callee, ok := v.Callee.(*ast.Identifier); ok {
			gn.Label = callee.Name
		}
	default:
		gn.Type, gn.Label = CategoryUnknown, "Unknown"
	}

	return gn
}

// descend lists the children the projection follows. Variable initializers
// are skipped. Indices match ast.Children so origins resolve with ast.Resolve.
func descend(n ast.Node) []ast.Node {
	if _, ok := n.(*ast.VariableDeclaration); ok {
		return nil
	}

	return ast.Children(n)
}
