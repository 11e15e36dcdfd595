package ast

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Decoding errors.
var (
	ErrMissingType        = errors.New("node has no type")
	ErrUnknownNodeType    = errors.New("unknown node type")
	ErrInvalidField       = errors.New("invalid field")
	ErrUnknownOperator    = errors.New("unknown operator")
	ErrUnknownLiteralKind = errors.New("unknown literal type")
)

// Decode parses an interchange JSON document into a tree.
func Decode(data []byte) (Node, error) {
	var raw map[string]any

	err := json.Unmarshal(data, &raw)
	if err != nil {
		return nil, fmt.Errorf("decode tree: %w", err)
	}

	return FromMap(raw)
}

// FromMap is the inverse of Node.ToMap.
func FromMap(m map[string]any) (Node, error) {
	typeName, ok := m[KeyType].(string)
	if !ok || typeName == "" {
		return nil, ErrMissingType
	}

	d := decoder{m: m}
	loc := d.str(KeyLocation)

	var n Node

	switch Kind(typeName) {
	case KindProgram:
		n = &Program{Loc: loc, Children: d.nodes(keyChildren)}
	case KindVariableDeclaration:
		n = d.variable(loc)
	case KindFunctionDeclaration:
		n = &FunctionDeclaration{
			Loc:        loc,
			Name:       d.str(keyName),
			ReturnType: d.str(keyReturnType),
			Parameters: d.params(),
			Modifiers:  d.strings(keyModifiers),
			Body:       d.node(keyBody),
		}
	case KindClassDeclaration:
		n = &ClassDeclaration{
			Loc:       loc,
			Name:      d.str(keyName),
			BaseClass: d.str(keyBaseClass),
			Fields:    d.fields(),
			Methods:   d.nodes(keyMethods),
		}
	case KindIdentifier:
		n = &Identifier{Loc: loc, Name: d.str(keyName)}
	case KindLiteral:
		n = d.literal(loc)
	case KindBinaryExpression:
		n = d.binary(loc)
	case KindBlock:
		n = &Block{Loc: loc, Statements: d.nodes(keyStatements)}
	case KindReturnStatement:
		n = &ReturnStatement{Loc: loc, Argument: d.node(keyArgument)}
	case KindCallExpression:
		n = &CallExpression{Loc: loc, Callee: d.node(keyCallee), Arguments: d.nodes(keyArguments)}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownNodeType, typeName)
	}

	if d.err != nil {
		return nil, fmt.Errorf("%s: %w", typeName, d.err)
	}

	return n, nil
}

// decoder accumulates the first error so field extraction reads linearly.
type decoder struct {
	m   map[string]any
	err error
}

func (d *decoder) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

func (d *decoder) str(key string) string {
	v, present := d.m[key]
	if !present || v == nil {
		return ""
	}

	s, ok := v.(string)
	if !ok {
		d.fail(fmt.Errorf("%w: %s is %T, want string", ErrInvalidField, key, v))
	}

	return s
}

func (d *decoder) strings(key string) []string {
	v, present := d.m[key]
	if !present || v == nil {
		return nil
	}

	list, ok := v.([]any)
	if !ok {
		d.fail(fmt.Errorf("%w: %s is %T, want array", ErrInvalidField, key, v))

		return nil
	}

	out := make([]string, 0, len(list))

	for _, item := range list {
		s, isStr := item.(string)
		if !isStr {
			d.fail(fmt.Errorf("%w: %s contains %T", ErrInvalidField, key, item))

			return nil
		}

		out = append(out, s)
	}

	return out
}

func (d *decoder) sub(key string, v any) Node {
	obj, ok := v.(map[string]any)
	if !ok {
		d.fail(fmt.Errorf("%w: %s is %T, want object", ErrInvalidField, key, v))

		return nil
	}

	n, err := FromMap(obj)
	if err != nil {
		d.fail(fmt.Errorf("%s: %w", key, err))

		return nil
	}

	return n
}

func (d *decoder) node(key string) Node {
	v, present := d.m[key]
	if !present || v == nil {
		return nil
	}

	return d.sub(key, v)
}

func (d *decoder) list(key string) []any {
	v, present := d.m[key]
	if !present || v == nil {
		return nil
	}

	list, ok := v.([]any)
	if !ok {
		d.fail(fmt.Errorf("%w: %s is %T, want array", ErrInvalidField, key, v))

		return nil
	}

	return list
}

func (d *decoder) nodes(key string) []Node {
	list := d.list(key)
	out := make([]Node, 0, len(list))

	for i, item := range list {
		n := d.sub(fmt.Sprintf("%s[%d]", key, i), item)
		if n != nil {
			out = append(out, n)
		}
	}

	return out
}

func (d *decoder) params() []Parameter {
	list := d.list(keyParameters)
	out := make([]Parameter, 0, len(list))

	for i, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			d.fail(fmt.Errorf("%w: %s[%d] is %T, want object", ErrInvalidField, keyParameters, i, item))

			return nil
		}

		pd := decoder{m: obj}
		out = append(out, Parameter{Name: pd.str(keyName), Type: pd.str(keyParamType)})

		if pd.err != nil {
			d.fail(pd.err)
		}
	}

	return out
}

func (d *decoder) fields() []*VariableDeclaration {
	nodes := d.nodes(keyFields)
	out := make([]*VariableDeclaration, 0, len(nodes))

	for _, n := range nodes {
		v, ok := n.(*VariableDeclaration)
		if !ok {
			d.fail(fmt.Errorf("%w: field is %s, want %s", ErrInvalidField, n.Kind(), KindVariableDeclaration))

			return nil
		}

		out = append(out, v)
	}

	return out
}

func (d *decoder) variable(loc string) *VariableDeclaration {
	return &VariableDeclaration{
		Loc:         loc,
		Name:        d.str(keyName),
		VarType:     d.str(keyVarType),
		Initializer: d.node(keyInitializer),
	}
}

func (d *decoder) literal(loc string) *Literal {
	kindName := d.str(keyLiteralType)

	kind, ok := ParseLiteralKind(kindName)
	if !ok && d.err == nil {
		d.fail(fmt.Errorf("%w: %q", ErrUnknownLiteralKind, kindName))
	}

	return &Literal{Loc: loc, Type: kind, Value: d.str(keyValue)}
}

func (d *decoder) binary(loc string) *BinaryExpression {
	symbol := d.str(keyOperator)

	op, ok := ParseOperator(symbol)
	if !ok && d.err == nil {
		d.fail(fmt.Errorf("%w: %q", ErrUnknownOperator, symbol))
	}

	return &BinaryExpression{
		Loc:      loc,
		Operator: op,
		Left:     d.node(keyLeft),
		Right:    d.node(keyRight),
	}
}
