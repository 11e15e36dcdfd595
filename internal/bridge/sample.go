package bridge

import "github.com/Sumatoshi-tech/codebridge/pkg/ast"

// SampleProgram returns the demonstration tree used by the "sample" command:
// a class JavaClass with an int field and a void method taking one int.
func SampleProgram() *ast.Program {
	return &ast.Program{Children: []ast.Node{
		&ast.ClassDeclaration{
			Loc:  "Example.java:1:1",
			Name: "JavaClass",
			Fields: []*ast.VariableDeclaration{
				{Loc: "Example.java:2:5", Name: "counter", VarType: "int"},
			},
			Methods: []ast.Node{
				&ast.FunctionDeclaration{
					Loc:        "Example.java:4:5",
					Name:       "increment",
					ReturnType: "void",
					Parameters: []ast.Parameter{{Name: "value", Type: "int"}},
				},
			},
		},
	}}
}
