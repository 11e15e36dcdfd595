// Package graph provides an indexed property graph with forward and backward
// adjacency, property lookup and breadth-first shortest paths.
package graph

import (
	"maps"
	"slices"
)

// Node is a graph vertex with a string property bag.
type Node struct {
	ID         string
	Label      string
	Type       string
	Properties map[string]string
	// Origin is the tree path of the syntax node this vertex was derived
	// from, or "" when it has none. It does not own the syntax node.
	Origin string
}

// Property returns the value stored under key.
func (n *Node) Property(key string) (string, bool) {
	v, ok := n.Properties[key]

	return v, ok
}

// SetProperty stores a property, allocating the bag on first use.
func (n *Node) SetProperty(key, value string) {
	if n.Properties == nil {
		n.Properties = make(map[string]string)
	}

	n.Properties[key] = value
}

// Clone returns a copy of the node with its own property bag.
func (n *Node) Clone() *Node {
	out := *n
	out.Properties = maps.Clone(n.Properties)

	return &out
}

// Edge is a directed, labeled connection between two node ids.
type Edge struct {
	ID         string
	Source     string
	Target     string
	Label      string
	Properties map[string]string
}

// Clone returns a copy of the edge with its own property bag.
func (e *Edge) Clone() *Edge {
	out := *e
	out.Properties = maps.Clone(e.Properties)

	return &out
}

// CodeGraph stores nodes and edges in insertion order with id indices.
// Edge endpoints are not checked on insertion; lookups of dangling ids
// simply find nothing. It is not safe for concurrent mutation.
type CodeGraph struct {
	nodes    []*Node
	edges    []*Edge
	nodeByID map[string]*Node
	edgeByID map[string]*Edge
	outgoing map[string][]*Edge
	incoming map[string][]*Edge
}

// New creates an empty graph.
func New() *CodeGraph {
	return &CodeGraph{
		nodeByID: make(map[string]*Node),
		edgeByID: make(map[string]*Edge),
		outgoing: make(map[string][]*Edge),
		incoming: make(map[string][]*Edge),
	}
}

// AddNode appends a node. A later node with a duplicate id replaces the
// earlier one in the id index.
func (g *CodeGraph) AddNode(n *Node) {
	g.nodes = append(g.nodes, n)
	g.nodeByID[n.ID] = n
}

// AddEdge appends an edge and indexes it by source and target.
func (g *CodeGraph) AddEdge(e *Edge) {
	g.edges = append(g.edges, e)
	g.edgeByID[e.ID] = e
	g.outgoing[e.Source] = append(g.outgoing[e.Source], e)
	g.incoming[e.Target] = append(g.incoming[e.Target], e)
}

// Node looks up a node by id.
func (g *CodeGraph) Node(id string) (*Node, bool) {
	n, ok := g.nodeByID[id]

	return n, ok
}

// Edge looks up an edge by id.
func (g *CodeGraph) Edge(id string) (*Edge, bool) {
	e, ok := g.edgeByID[id]

	return e, ok
}

// Nodes returns all nodes in insertion order.
func (g *CodeGraph) Nodes() []*Node {
	return append([]*Node(nil), g.nodes...)
}

// Edges returns all edges in insertion order.
func (g *CodeGraph) Edges() []*Edge {
	return append([]*Edge(nil), g.edges...)
}

// NodeCount returns the number of inserted nodes.
func (g *CodeGraph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of inserted edges.
func (g *CodeGraph) EdgeCount() int { return len(g.edges) }

// Outgoing returns the edges whose source is id, in insertion order.
func (g *CodeGraph) Outgoing(id string) []*Edge {
	return append([]*Edge(nil), g.outgoing[id]...)
}

// Incoming returns the edges whose target is id, in insertion order.
func (g *CodeGraph) Incoming(id string) []*Edge {
	return append([]*Edge(nil), g.incoming[id]...)
}

// Neighbors returns the targets of the outgoing edges of id. Targets that do
// not resolve to a node are skipped.
func (g *CodeGraph) Neighbors(id string) []*Node {
	var out []*Node

	for _, e := range g.outgoing[id] {
		if n, ok := g.nodeByID[e.Target]; ok {
			out = append(out, n)
		}
	}

	return out
}

// FindNodesByProperty returns nodes whose property key equals value.
func (g *CodeGraph) FindNodesByProperty(key, value string) []*Node {
	var out []*Node

	for _, n := range g.nodes {
		if v, ok := n.Properties[key]; ok && v == value {
			out = append(out, n)
		}
	}

	return out
}

// FindPath returns a path with the fewest edges from source to target,
// following outgoing edges. Among equally short paths the one discovered
// first in edge insertion order wins. A node reaches itself through an empty
// path. The boolean is false when target is unreachable.
func (g *CodeGraph) FindPath(source, target string) ([]*Edge, bool) {
	if source == target {
		return []*Edge{}, true
	}

	visited := map[string]bool{source: true}
	edgeTo := make(map[string]*Edge)
	queue := []string{source}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, e := range g.outgoing[current] {
			if visited[e.Target] {
				continue
			}

			visited[e.Target] = true
			edgeTo[e.Target] = e

			if e.Target == target {
				return unwind(edgeTo, source, target), true
			}

			queue = append(queue, e.Target)
		}
	}

	return nil, false
}

func unwind(edgeTo map[string]*Edge, source, target string) []*Edge {
	var path []*Edge

	for at := target; at != source; {
		e := edgeTo[at]
		path = append(path, e)
		at = e.Source
	}

	slices.Reverse(path)

	return path
}
