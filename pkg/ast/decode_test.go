package ast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/codebridge/pkg/ast"
)

func TestDecode_RoundTripsThroughToMap(t *testing.T) {
	t.Parallel()

	original := &ast.Program{
		Loc: "Example.java",
		Children: []ast.Node{
			sampleClass(),
			&ast.FunctionDeclaration{
				Name:       "helper",
				ReturnType: "void",
				Modifiers:  []string{"static"},
				Body: &ast.Block{Statements: []ast.Node{
					&ast.CallExpression{
						Callee:    &ast.Identifier{Name: "print"},
						Arguments: []ast.Node{&ast.Literal{Type: ast.LiteralString, Value: "hi"}},
					},
				}},
			},
		},
	}

	data, err := ast.Marshal(original)
	require.NoError(t, err)

	decoded, err := ast.Decode(data)
	require.NoError(t, err)

	again, err := ast.Marshal(decoded)
	require.NoError(t, err)

	assert.JSONEq(t, string(data), string(again))
}

func TestDecode_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
		want error
	}{
		{name: "missing type", doc: `{"name":"x"}`, want: ast.ErrMissingType},
		{name: "unknown type", doc: `{"type":"WhileLoop"}`, want: ast.ErrUnknownNodeType},
		{name: "bad operator", doc: `{"type":"BinaryExpression","operator":"**"}`, want: ast.ErrUnknownOperator},
		{name: "bad literal", doc: `{"type":"Literal","literalType":"CHAR","value":"c"}`, want: ast.ErrUnknownLiteralKind},
		{name: "wrong field type", doc: `{"type":"Identifier","name":3}`, want: ast.ErrInvalidField},
		{
			name: "non variable field",
			doc:  `{"type":"ClassDeclaration","name":"C","fields":[{"type":"Identifier","name":"x"}],"methods":[]}`,
			want: ast.ErrInvalidField,
		},
		{
			name: "nested error",
			doc:  `{"type":"Program","children":[{"type":"Block","statements":[{"type":"Nope"}]}]}`,
			want: ast.ErrUnknownNodeType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ast.Decode([]byte(tt.doc))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDecode_InvalidJSON(t *testing.T) {
	t.Parallel()

	_, err := ast.Decode([]byte(`{`))
	require.Error(t, err)
}

func TestDecode_OptionalFieldsAbsent(t *testing.T) {
	t.Parallel()

	n, err := ast.Decode([]byte(`{"type":"FunctionDeclaration","name":"f","returnType":"void"}`))
	require.NoError(t, err)

	fn, ok := n.(*ast.FunctionDeclaration)
	require.True(t, ok)
	assert.Nil(t, fn.Body)
	assert.Empty(t, fn.Parameters)
	assert.Empty(t, fn.Modifiers)
}
