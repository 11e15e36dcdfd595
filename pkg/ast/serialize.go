package ast

import (
	"encoding/json"
	"fmt"
)

// Interchange field keys.
const (
	keyChildren    = "children"
	keyName        = "name"
	keyVarType     = "varType"
	keyInitializer = "initializer"
	keyReturnType  = "returnType"
	keyParameters  = "parameters"
	keyModifiers   = "modifiers"
	keyBody        = "body"
	keyBaseClass   = "baseClass"
	keyFields      = "fields"
	keyMethods     = "methods"
	keyLiteralType = "literalType"
	keyValue       = "value"
	keyOperator    = "operator"
	keyLeft        = "left"
	keyRight       = "right"
	keyStatements  = "statements"
	keyArgument    = "argument"
	keyCallee      = "callee"
	keyArguments   = "arguments"
	keyParamType   = "type"
)

// Marshal renders a tree as interchange JSON. A nil node renders as "null".
func Marshal(n Node) ([]byte, error) {
	if n == nil {
		return []byte("null"), nil
	}

	data, err := json.Marshal(n.ToMap())
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", n.Kind(), err)
	}

	return data, nil
}

func header(n Node) map[string]any {
	m := map[string]any{KeyType: string(n.Kind())}
	if loc := n.Location(); loc != "" {
		m[KeyLocation] = loc
	}

	return m
}

func mapList(nodes []Node) []any {
	out := make([]any, 0, len(nodes))
	for _, n := range nodes {
		if n != nil {
			out = append(out, n.ToMap())
		}
	}

	return out
}

func putOptional(m map[string]any, key string, n Node) {
	if n != nil {
		m[key] = n.ToMap()
	}
}

func (p *Program) ToMap() map[string]any {
	m := header(p)
	m[keyChildren] = mapList(p.Children)

	return m
}

func (v *VariableDeclaration) ToMap() map[string]any {
	m := header(v)
	m[keyName] = v.Name
	m[keyVarType] = v.VarType
	putOptional(m, keyInitializer, v.Initializer)

	return m
}

func (fn *FunctionDeclaration) ToMap() map[string]any {
	m := header(fn)
	m[keyName] = fn.Name
	m[keyReturnType] = fn.ReturnType

	params := make([]any, 0, len(fn.Parameters))
	for _, p := range fn.Parameters {
		params = append(params, map[string]any{keyName: p.Name, keyParamType: p.Type})
	}

	m[keyParameters] = params

	if len(fn.Modifiers) > 0 {
		mods := make([]any, len(fn.Modifiers))
		for i, mod := range fn.Modifiers {
			mods[i] = mod
		}

		m[keyModifiers] = mods
	}

	putOptional(m, keyBody, fn.Body)

	return m
}

func (c *ClassDeclaration) ToMap() map[string]any {
	m := header(c)
	m[keyName] = c.Name

	if c.BaseClass != "" {
		m[keyBaseClass] = c.BaseClass
	}

	fields := make([]any, 0, len(c.Fields))
	for _, f := range c.Fields {
		if f != nil {
			fields = append(fields, f.ToMap())
		}
	}

	m[keyFields] = fields
	m[keyMethods] = mapList(c.Methods)

	return m
}

func (id *Identifier) ToMap() map[string]any {
	m := header(id)
	m[keyName] = id.Name

	return m
}

func (l *Literal) ToMap() map[string]any {
	m := header(l)
	m[keyLiteralType] = l.Type.String()
	m[keyValue] = l.Value

	return m
}

func (b *BinaryExpression) ToMap() map[string]any {
	m := header(b)
	m[keyOperator] = b.Operator.String()
	putOptional(m, keyLeft, b.Left)
	putOptional(m, keyRight, b.Right)

	return m
}

func (b *Block) ToMap() map[string]any {
	m := header(b)
	m[keyStatements] = mapList(b.Statements)

	return m
}

func (r *ReturnStatement) ToMap() map[string]any {
	m := header(r)
	putOptional(m, keyArgument, r.Argument)

	return m
}

func (c *CallExpression) ToMap() map[string]any {
	m := header(c)
	putOptional(m, keyCallee, c.Callee)
	m[keyArguments] = mapList(c.Arguments)

	return m
}
