package rewrite

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"github.com/Sumatoshi-tech/codebridge/pkg/ast"
	"github.com/Sumatoshi-tech/codebridge/pkg/graph"
)

// ErrRuleIndex is returned when a rule index is out of range.
var ErrRuleIndex = errors.New("rule index out of range")

// Graph annotations written by TransformGraph.
const (
	LabelPrefix          = "Transformed: "
	PropTransformed      = "transformed"
	PropTransformedKind  = "transformedKind"
	PropRule             = "rule"
	transformedTrueValue = "true"
)

// Result is the output of Transform.
type Result struct {
	Node  ast.Node
	Stats Stats
}

// Engine holds an ordered rule list. It keeps no per-call state and is safe
// for concurrent use once configured.
type Engine struct {
	rules  []Rule
	logger *slog.Logger
}

// NewEngine creates an engine evaluating rules in the given order.
func NewEngine(rules ...Rule) *Engine {
	return &Engine{
		rules:  append([]Rule(nil), rules...),
		logger: slog.New(slog.DiscardHandler),
	}
}

// WithLogger returns a copy of the engine logging to logger.
func (e *Engine) WithLogger(logger *slog.Logger) *Engine {
	out := *e
	if logger != nil {
		out.logger = logger
	}

	return &out
}

// AddRule appends a rule with the lowest precedence.
func (e *Engine) AddRule(r Rule) {
	e.rules = append(e.rules, r)
}

// Rules returns the rules in evaluation order. The result is never nil.
func (e *Engine) Rules() []Rule {
	return append(make([]Rule, 0, len(e.rules)), e.rules...)
}

// Subset returns an engine holding only the rules at the given zero-based
// indexes, in the order given.
func (e *Engine) Subset(indexes ...int) (*Engine, error) {
	rules := make([]Rule, 0, len(indexes))

	for _, i := range indexes {
		if i < 0 || i >= len(e.rules) {
			return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrRuleIndex, i, len(e.rules))
		}

		rules = append(rules, e.rules[i])
	}

	return &Engine{rules: rules, logger: e.logger}, nil
}

// Filter returns an engine holding the rules for which keep returns true.
func (e *Engine) Filter(keep func(Metadata) bool) *Engine {
	var rules []Rule

	for _, r := range e.rules {
		if keep(r.Metadata()) {
			rules = append(rules, r)
		}
	}

	return &Engine{rules: rules, logger: e.logger}
}

// Catalog lists the rules with one-based ids "rule-<n>".
func (e *Engine) Catalog() []RuleInfo {
	out := make([]RuleInfo, 0, len(e.rules))

	for i, r := range e.rules {
		meta := r.Metadata()
		out = append(out, RuleInfo{
			ID:         "rule-" + strconv.Itoa(i+1),
			Name:       meta.Description,
			Source:     meta.Source,
			Target:     meta.Target,
			Confidence: meta.Confidence,
			Automated:  meta.Automated,
		})
	}

	return out
}

// Transform rewrites the tree rooted at n into a new tree. The first rule
// matching a node replaces it and its subtree. Unmatched programs, classes,
// functions and blocks are rebuilt from their rewritten children; any other
// unmatched node is deep-copied. The input is never modified.
func (e *Engine) Transform(n ast.Node) Result {
	var res Result

	if n == nil {
		return res
	}

	res.Node, _ = e.transform(n, &res.Stats)

	return res
}

func (e *Engine) match(n ast.Node) Rule {
	for _, r := range e.rules {
		if r.Matches(n) {
			return r
		}
	}

	return nil
}

// transform returns the rewritten node and the rule that matched n itself.
func (e *Engine) transform(n ast.Node, st *Stats) (ast.Node, Rule) {
	st.recordVisit()

	if r := e.match(n); r != nil {
		meta := r.Metadata()
		st.recordApplication(meta.Description)
		e.logger.Debug("rule applied", "rule", meta.Key, "kind", n.Kind(), "location", n.Location())

		return r.Apply(n), r
	}

	switch v := n.(type) {
	case *ast.Program:
		return &ast.Program{Loc: v.Loc, Children: e.transformList(v.Children, st)}, nil
	case *ast.ClassDeclaration:
		return e.transformClass(v, st), nil
	case *ast.FunctionDeclaration:
		out := &ast.FunctionDeclaration{
			Loc:        v.Loc,
			Name:       v.Name,
			ReturnType: v.ReturnType,
			Parameters: slices.Clone(v.Parameters),
			Modifiers:  slices.Clone(v.Modifiers),
		}

		if v.Body != nil {
			out.Body, _ = e.transform(v.Body, st)
		}

		return out, nil
	case *ast.Block:
		return &ast.Block{Loc: v.Loc, Statements: e.transformList(v.Statements, st)}, nil
	default:
		return n.Clone(), nil
	}
}

func (e *Engine) transformList(nodes []ast.Node, st *Stats) []ast.Node {
	out := make([]ast.Node, 0, len(nodes))

	for _, child := range nodes {
		if child == nil {
			continue
		}

		if rewritten, _ := e.transform(child, st); rewritten != nil {
			out = append(out, rewritten)
		}
	}

	return out
}

func (e *Engine) transformClass(c *ast.ClassDeclaration, st *Stats) *ast.ClassDeclaration {
	out := &ast.ClassDeclaration{
		Loc:       c.Loc,
		Name:      c.Name,
		BaseClass: c.BaseClass,
		Fields:    make([]*ast.VariableDeclaration, 0, len(c.Fields)),
	}

	for _, f := range c.Fields {
		if f == nil {
			continue
		}

		rewritten, _ := e.transform(f, st)

		decl, ok := rewritten.(*ast.VariableDeclaration)
		if !ok {
			e.logger.Debug("dropping field rewritten to a non-declaration",
				"class", c.Name, "field", f.Name, "kind", kindOf(rewritten))

			continue
		}

		out.Fields = append(out.Fields, decl)
	}

	out.Methods = e.transformList(c.Methods, st)

	return out
}

func kindOf(n ast.Node) string {
	if n == nil {
		return "nil"
	}

	return string(n.Kind())
}

// TransformGraph returns a copy of g in which every node whose origin
// resolves against root carries the rewrite of that syntax node: the label
// gains the "Transformed: " prefix and the node is marked transformed. Other
// nodes and all edges are copied unchanged, so the topology always equals
// that of g. A nil graph yields nil.
//
// Stats count graph nodes: one visit per resolved node and one application
// per node matched by a rule itself.
func (e *Engine) TransformGraph(g *graph.CodeGraph, root ast.Node) (*graph.CodeGraph, Stats) {
	var st Stats

	if g == nil {
		return nil, st
	}

	out := graph.New()

	for _, n := range g.Nodes() {
		cp := n.Clone()

		if source := ast.Resolve(root, n.Origin); source != nil {
			var subtree Stats

			rewritten, rule := e.transform(source, &subtree)

			st.recordVisit()
			cp.Label = LabelPrefix + n.Label
			cp.SetProperty(PropTransformed, transformedTrueValue)
			cp.SetProperty(PropTransformedKind, kindOf(rewritten))

			if rule != nil {
				desc := rule.Metadata().Description
				st.recordApplication(desc)
				cp.SetProperty(PropRule, desc)
			}
		}

		out.AddNode(cp)
	}

	for _, edge := range g.Edges() {
		out.AddEdge(edge.Clone())
	}

	e.logger.Debug("graph transformed",
		"nodes", out.NodeCount(), "edges", out.EdgeCount(), "transformed", st.TransformedNodes)

	return out, st
}
