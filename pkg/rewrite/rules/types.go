package rules

import (
	"github.com/Sumatoshi-tech/codebridge/pkg/ast"
	"github.com/Sumatoshi-tech/codebridge/pkg/rewrite"
)

// javaToTS maps Java primitive and boxed types to TypeScript types.
var javaToTS = map[string]string{
	"int":       "number",
	"long":      "number",
	"short":     "number",
	"byte":      "number",
	"float":     "number",
	"double":    "number",
	"Integer":   "number",
	"Long":      "number",
	"Double":    "number",
	"Float":     "number",
	"boolean":   "boolean",
	"Boolean":   "boolean",
	"char":      "string",
	"Character": "string",
	"String":    "string",
}

// MapType returns the TypeScript spelling of a Java type, if it has one.
func MapType(javaType string) (string, bool) {
	ts, ok := javaToTS[javaType]

	return ts, ok
}

// PrimitiveTypeMapping rewrites the declared type of variables.
type PrimitiveTypeMapping struct{}

// Metadata implements rewrite.Rule.
func (PrimitiveTypeMapping) Metadata() rewrite.Metadata {
	return rewrite.Metadata{
		Key:         KeyPrimitiveTypeMapping,
		Description: "Maps Java primitive types to TypeScript types",
		Source:      "Java Primitive",
		Target:      "TypeScript Type",
		Confidence:  85,
		Automated:   true,
	}
}

// Matches implements rewrite.Rule.
func (PrimitiveTypeMapping) Matches(n ast.Node) bool {
	v, ok := n.(*ast.VariableDeclaration)
	if !ok {
		return false
	}

	_, known := MapType(v.VarType)

	return known
}

// Apply implements rewrite.Rule.
func (PrimitiveTypeMapping) Apply(n ast.Node) ast.Node {
	v, ok := n.(*ast.VariableDeclaration)
	if !ok {
		return n.Clone()
	}

	out := v.CloneDecl()
	if ts, known := MapType(v.VarType); known {
		out.VarType = ts
	}

	return out
}
