package ast

// Operator is a binary operator.
type Operator int

// Binary operators.
const (
	OpAdd Operator = iota
	OpSubtract
	OpMultiply
	OpDivide
	OpModulo
	OpEqual
	OpNotEqual
	OpLess
	OpGreater
	OpLessEqual
	OpGreaterEqual
	OpAnd
	OpOr
)

var operatorSymbols = [...]string{
	OpAdd:          "+",
	OpSubtract:     "-",
	OpMultiply:     "*",
	OpDivide:       "/",
	OpModulo:       "%",
	OpEqual:        "==",
	OpNotEqual:     "!=",
	OpLess:         "<",
	OpGreater:      ">",
	OpLessEqual:    "<=",
	OpGreaterEqual: ">=",
	OpAnd:          "&&",
	OpOr:           "||",
}

// String returns the operator symbol, or "?" for values outside the enum.
func (op Operator) String() string {
	if op < 0 || int(op) >= len(operatorSymbols) {
		return "?"
	}

	return operatorSymbols[op]
}

// ParseOperator maps a symbol back to its operator.
func ParseOperator(symbol string) (Operator, bool) {
	for i, s := range operatorSymbols {
		if s == symbol {
			return Operator(i), true
		}
	}

	return 0, false
}

// LiteralKind classifies a literal.
type LiteralKind int

// Literal kinds.
const (
	LiteralNumber LiteralKind = iota
	LiteralString
	LiteralBoolean
	LiteralNull
)

var literalKindNames = [...]string{
	LiteralNumber:  "NUMBER",
	LiteralString:  "STRING",
	LiteralBoolean: "BOOLEAN",
	LiteralNull:    "NULL",
}

func (k LiteralKind) String() string {
	if k < 0 || int(k) >= len(literalKindNames) {
		return "UNKNOWN"
	}

	return literalKindNames[k]
}

// ParseLiteralKind maps an interchange name back to its kind.
func ParseLiteralKind(name string) (LiteralKind, bool) {
	for i, s := range literalKindNames {
		if s == name {
			return LiteralKind(i), true
		}
	}

	return 0, false
}
