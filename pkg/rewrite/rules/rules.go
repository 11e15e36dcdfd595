// Package rules provides the default Java to TypeScript rewrite rules.
package rules

import (
	"slices"

	"github.com/Sumatoshi-tech/codebridge/pkg/ast"
	"github.com/Sumatoshi-tech/codebridge/pkg/rewrite"
)

// Rule keys.
const (
	KeyClassToInterface       = "class-to-interface"
	KeyStaticMethodToFunction = "static-method-to-function"
	KeyPrimitiveTypeMapping   = "java-to-ts-types"
)

// ModifierStatic marks a static method.
const ModifierStatic = "static"

// InterfaceSuffix is appended to the name of a class turned into an interface.
const InterfaceSuffix = "Interface"

// Default returns the default rules in precedence order.
func Default() []rewrite.Rule {
	return []rewrite.Rule{
		ClassToInterface{},
		StaticMethodToFunction{},
		PrimitiveTypeMapping{},
	}
}

// ClassToInterface turns a class that only declares method signatures into
// an interface carrying its fields and signatures.
type ClassToInterface struct{}

// Metadata implements rewrite.Rule.
func (ClassToInterface) Metadata() rewrite.Metadata {
	return rewrite.Metadata{
		Key:         KeyClassToInterface,
		Description: "Converts Java classes to TypeScript interfaces when appropriate",
		Source:      "Java Class",
		Target:      "TypeScript Interface",
		Confidence:  95,
		Automated:   true,
	}
}

// Matches reports whether n is a class without method bodies.
func (ClassToInterface) Matches(n ast.Node) bool {
	class, ok := n.(*ast.ClassDeclaration)
	if !ok {
		return false
	}

	for _, m := range class.Methods {
		fn, isFunc := m.(*ast.FunctionDeclaration)
		if !isFunc || fn.Body != nil {
			return false
		}
	}

	return true
}

// Apply implements rewrite.Rule.
func (ClassToInterface) Apply(n ast.Node) ast.Node {
	class, ok := n.(*ast.ClassDeclaration)
	if !ok {
		return n.Clone()
	}

	out := &ast.ClassDeclaration{
		Loc:     class.Loc,
		Name:    class.Name + InterfaceSuffix,
		Fields:  make([]*ast.VariableDeclaration, 0, len(class.Fields)),
		Methods: make([]ast.Node, 0, len(class.Methods)),
	}

	for _, f := range class.Fields {
		if f != nil {
			out.Fields = append(out.Fields, f.CloneDecl())
		}
	}

	for _, m := range class.Methods {
		if m != nil {
			out.Methods = append(out.Methods, m.Clone())
		}
	}

	return out
}

// StaticMethodToFunction turns a static method into a module-level function.
type StaticMethodToFunction struct{}

// Metadata implements rewrite.Rule.
func (StaticMethodToFunction) Metadata() rewrite.Metadata {
	return rewrite.Metadata{
		Key:         KeyStaticMethodToFunction,
		Description: "Converts Java static methods to TypeScript module functions",
		Source:      "Static Method",
		Target:      "Module Function",
		Confidence:  90,
		Automated:   true,
	}
}

// Matches implements rewrite.Rule.
func (StaticMethodToFunction) Matches(n ast.Node) bool {
	fn, ok := n.(*ast.FunctionDeclaration)

	return ok && fn.HasModifier(ModifierStatic)
}

// Apply returns a copy of the function without the static modifier.
func (StaticMethodToFunction) Apply(n ast.Node) ast.Node {
	out := n.Clone()

	fn, ok := out.(*ast.FunctionDeclaration)
	if !ok {
		return out
	}

	fn.Modifiers = slices.DeleteFunc(fn.Modifiers, func(m string) bool { return m == ModifierStatic })
	if len(fn.Modifiers) == 0 {
		fn.Modifiers = nil
	}

	return fn
}
