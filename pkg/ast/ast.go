// Package ast provides the syntax tree model consumed by the projection and
// rewrite packages: a closed set of node variants with deep-copy and
// interchange serialization.
package ast

// Kind identifies a node variant.
type Kind string

// Node kinds. The string value is also the interchange "type" tag.
const (
	KindProgram             Kind = "Program"
	KindVariableDeclaration Kind = "VariableDeclaration"
	KindFunctionDeclaration Kind = "FunctionDeclaration"
	KindClassDeclaration    Kind = "ClassDeclaration"
	KindIdentifier          Kind = "Identifier"
	KindLiteral             Kind = "Literal"
	KindBinaryExpression    Kind = "BinaryExpression"
	KindBlock               Kind = "Block"
	KindReturnStatement     Kind = "ReturnStatement"
	KindCallExpression      Kind = "CallExpression"
)

// Interchange keys shared by all variants.
const (
	KeyType     = "type"
	KeyLocation = "location"
)

// Node is a syntax tree node. Children are exclusively owned by their parent.
type Node interface {
	// Kind reports the variant of the node.
	Kind() Kind
	// Location returns the source location, or "" when unknown.
	Location() string
	// Clone returns a full recursive deep copy.
	Clone() Node
	// ToMap renders the node and its subtree in interchange form.
	ToMap() map[string]any
}

// Program is the root of a compilation unit.
type Program struct {
	Loc      string
	Children []Node
}

// VariableDeclaration declares a variable or field with an optional initializer.
type VariableDeclaration struct {
	Loc         string
	Name        string
	VarType     string
	Initializer Node
}

// Parameter is a function parameter. It is a plain value, not a node.
type Parameter struct {
	Name string
	Type string
}

// FunctionDeclaration declares a function or method. A nil Body means the
// declaration is a signature only.
type FunctionDeclaration struct {
	Loc        string
	Name       string
	ReturnType string
	Parameters []Parameter
	Modifiers  []string
	Body       Node
}

// HasModifier reports whether the function carries the given modifier.
func (fn *FunctionDeclaration) HasModifier(modifier string) bool {
	for _, m := range fn.Modifiers {
		if m == modifier {
			return true
		}
	}

	return false
}

// ClassDeclaration declares a class with fields and methods.
type ClassDeclaration struct {
	Loc       string
	Name      string
	BaseClass string
	Fields    []*VariableDeclaration
	Methods   []Node
}

// Identifier is a name reference.
type Identifier struct {
	Loc  string
	Name string
}

// Literal is a constant value kept as its source text.
type Literal struct {
	Loc   string
	Type  LiteralKind
	Value string
}

// BinaryExpression applies an operator to two operands.
type BinaryExpression struct {
	Loc      string
	Operator Operator
	Left     Node
	Right    Node
}

// Block is an ordered statement list.
type Block struct {
	Loc        string
	Statements []Node
}

// ReturnStatement returns an optional value.
type ReturnStatement struct {
	Loc      string
	Argument Node
}

// CallExpression invokes a callee with arguments.
type CallExpression struct {
	Loc       string
	Callee    Node
	Arguments []Node
}

func (*Program) Kind() Kind             { return KindProgram }
func (*VariableDeclaration) Kind() Kind { return KindVariableDeclaration }
func (*FunctionDeclaration) Kind() Kind { return KindFunctionDeclaration }
func (*ClassDeclaration) Kind() Kind    { return KindClassDeclaration }
func (*Identifier) Kind() Kind          { return KindIdentifier }
func (*Literal) Kind() Kind             { return KindLiteral }
func (*BinaryExpression) Kind() Kind    { return KindBinaryExpression }
func (*Block) Kind() Kind               { return KindBlock }
func (*ReturnStatement) Kind() Kind     { return KindReturnStatement }
func (*CallExpression) Kind() Kind      { return KindCallExpression }

func (p *Program) Location() string              { return p.Loc }
func (v *VariableDeclaration) Location() string  { return v.Loc }
func (fn *FunctionDeclaration) Location() string { return fn.Loc }
func (c *ClassDeclaration) Location() string     { return c.Loc }
func (id *Identifier) Location() string          { return id.Loc }
func (l *Literal) Location() string              { return l.Loc }
func (b *BinaryExpression) Location() string     { return b.Loc }
func (b *Block) Location() string                { return b.Loc }
func (r *ReturnStatement) Location() string      { return r.Loc }
func (c *CallExpression) Location() string       { return c.Loc }
