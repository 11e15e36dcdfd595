package ast

import "slices"

func cloneNode(n Node) Node {
	if n == nil {
		return nil
	}

	return n.Clone()
}

func cloneNodes(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}

	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = cloneNode(n)
	}

	return out
}

// Clone returns a deep copy of the program.
func (p *Program) Clone() Node {
	return &Program{Loc: p.Loc, Children: cloneNodes(p.Children)}
}

// Clone returns a deep copy of the declaration.
func (v *VariableDeclaration) Clone() Node {
	return v.CloneDecl()
}

// CloneDecl is Clone with the concrete type preserved.
func (v *VariableDeclaration) CloneDecl() *VariableDeclaration {
	return &VariableDeclaration{
		Loc:         v.Loc,
		Name:        v.Name,
		VarType:     v.VarType,
		Initializer: cloneNode(v.Initializer),
	}
}

// Clone returns a deep copy of the function including its body.
func (fn *FunctionDeclaration) Clone() Node {
	return &FunctionDeclaration{
		Loc:        fn.Loc,
		Name:       fn.Name,
		ReturnType: fn.ReturnType,
		Parameters: slices.Clone(fn.Parameters),
		Modifiers:  slices.Clone(fn.Modifiers),
		Body:       cloneNode(fn.Body),
	}
}

// Clone returns a deep copy of the class with all fields and methods.
func (c *ClassDeclaration) Clone() Node {
	var fields []*VariableDeclaration
	if c.Fields != nil {
		fields = make([]*VariableDeclaration, len(c.Fields))
		for i, f := range c.Fields {
			if f != nil {
				fields[i] = f.CloneDecl()
			}
		}
	}

	return &ClassDeclaration{
		Loc:       c.Loc,
		Name:      c.Name,
		BaseClass: c.BaseClass,
		Fields:    fields,
		Methods:   cloneNodes(c.Methods),
	}
}

func (id *Identifier) Clone() Node {
	return &Identifier{Loc: id.Loc, Name: id.Name}
}

func (l *Literal) Clone() Node {
	return &Literal{Loc: l.Loc, Type: l.Type, Value: l.Value}
}

func (b *BinaryExpression) Clone() Node {
	return &BinaryExpression{
		Loc:      b.Loc,
		Operator: b.Operator,
		Left:     cloneNode(b.Left),
		Right:    cloneNode(b.Right),
	}
}

func (b *Block) Clone() Node {
	return &Block{Loc: b.Loc, Statements: cloneNodes(b.Statements)}
}

func (r *ReturnStatement) Clone() Node {
	return &ReturnStatement{Loc: r.Loc, Argument: cloneNode(r.Argument)}
}

func (c *CallExpression) Clone() Node {
	return &CallExpression{
		Loc:       c.Loc,
		Callee:    cloneNode(c.Callee),
		Arguments: cloneNodes(c.Arguments),
	}
}
