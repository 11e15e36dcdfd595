// Package rewrite applies ordered, first-match-wins rewrite rules to syntax
// trees and to graphs projected from them.
package rewrite

import "github.com/Sumatoshi-tech/codebridge/pkg/ast"

// Metadata describes a rule for catalogs and statistics.
type Metadata struct {
	// Key is a stable short name used to enable or disable the rule.
	Key         string
	Description string
	Source      string
	Target      string
	// Confidence is a percentage in [0, 100].
	Confidence int
	Automated  bool
}

// Rule is a stateless rewrite rule. Apply is only called with nodes for
// which Matches returned true and must not modify its argument.
type Rule interface {
	Matches(n ast.Node) bool
	Apply(n ast.Node) ast.Node
	Metadata() Metadata
}

// FuncRule adapts a pair of functions to the Rule interface.
type FuncRule struct {
	Meta      Metadata
	MatchFunc func(ast.Node) bool
	ApplyFunc func(ast.Node) ast.Node
}

// Matches implements Rule.
func (r FuncRule) Matches(n ast.Node) bool {
	return r.MatchFunc != nil && r.MatchFunc(n)
}

// Apply implements Rule. Without ApplyFunc the node is copied unchanged.
func (r FuncRule) Apply(n ast.Node) ast.Node {
	if r.ApplyFunc == nil {
		if n == nil {
			return nil
		}

		return n.Clone()
	}

	return r.ApplyFunc(n)
}

// Metadata implements Rule.
func (r FuncRule) Metadata() Metadata {
	return r.Meta
}

// RuleInfo is the catalog entry of a rule.
type RuleInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Source     string `json:"source"`
	Target     string `json:"target"`
	Confidence int    `json:"confidence"`
	Automated  bool   `json:"automated"`
}
