package ast

import (
	"strconv"
	"strings"
)

// RootPath is the path of the tree root.
const RootPath = "/"

// Children returns the structural children of n in canonical order, skipping
// absent optional children. Nodes outside this package have no children.
func Children(n Node) []Node {
	var out []Node

	add := func(nodes ...Node) {
		for _, c := range nodes {
			if c != nil {
				out = append(out, c)
			}
		}
	}

	switch v := n.(type) {
	case *Program:
		add(v.Children...)
	case *VariableDeclaration:
		add(v.Initializer)
	case *FunctionDeclaration:
		add(v.Body)
	case *ClassDeclaration:
		for _, f := range v.Fields {
			if f != nil {
				out = append(out, f)
			}
		}

		add(v.Methods...)
	case *BinaryExpression:
		add(v.Left, v.Right)
	case *Block:
		add(v.Statements...)
	case *ReturnStatement:
		add(v.Argument)
	case *CallExpression:
		add(v.Callee)
		add(v.Arguments...)
	default:
	}

	return out
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the children of the visited node.
func Walk(n Node, fn func(n Node, path string) bool) {
	if n == nil {
		return
	}

	walk(n, RootPath, fn)
}

func walk(n Node, path string, fn func(Node, string) bool) {
	if !fn(n, path) {
		return
	}

	for i, child := range Children(n) {
		walk(child, ChildPath(path, i), fn)
	}
}

// ChildPath returns the path of the index-th child of the node at parent.
func ChildPath(parent string, index int) string {
	if parent == RootPath {
		return RootPath + strconv.Itoa(index)
	}

	return parent + "/" + strconv.Itoa(index)
}

// Resolve returns the node at path below root, or nil when the path is
// malformed or leads nowhere.
func Resolve(root Node, path string) Node {
	if root == nil || !strings.HasPrefix(path, RootPath) {
		return nil
	}

	if path == RootPath {
		return root
	}

	current := root

	for _, segment := range strings.Split(path[1:], "/") {
		index, err := strconv.Atoi(segment)
		if err != nil || index < 0 {
			return nil
		}

		children := Children(current)
		if index >= len(children) {
			return nil
		}

		current = children[index]
	}

	return current
}

// Count returns the number of nodes in the tree rooted at n.
func Count(n Node) int {
	total := 0

	Walk(n, func(Node, string) bool {
		total++

		return true
	})

	return total
}
