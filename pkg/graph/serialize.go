package graph

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidDocument is returned when a graph document cannot be decoded.
var ErrInvalidDocument = errors.New("invalid graph document")

// ToMap renders the node in interchange form. Empty property bags and
// origins are omitted.
func (n *Node) ToMap() map[string]any {
	m := map[string]any{
		"id":    n.ID,
		"label": n.Label,
		"type":  n.Type,
	}

	if len(n.Properties) > 0 {
		m["properties"] = propsToMap(n.Properties)
	}

	if n.Origin != "" {
		m["origin"] = n.Origin
	}

	return m
}

// ToMap renders the edge in interchange form.
func (e *Edge) ToMap() map[string]any {
	m := map[string]any{
		"id":     e.ID,
		"source": e.Source,
		"target": e.Target,
		"label":  e.Label,
	}

	if len(e.Properties) > 0 {
		m["properties"] = propsToMap(e.Properties)
	}

	return m
}

func propsToMap(props map[string]string) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = v
	}

	return out
}

// ToMap renders the graph as {"nodes": [...], "edges": [...]}.
func (g *CodeGraph) ToMap() map[string]any {
	nodes := make([]any, 0, len(g.nodes))
	for _, n := range g.nodes {
		nodes = append(nodes, n.ToMap())
	}

	edges := make([]any, 0, len(g.edges))
	for _, e := range g.edges {
		edges = append(edges, e.ToMap())
	}

	return map[string]any{"nodes": nodes, "edges": edges}
}

// MarshalJSON implements json.Marshaler.
func (g *CodeGraph) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.ToMap())
}

type document struct {
	Nodes []struct {
		ID         string            `json:"id"`
		Label      string            `json:"label"`
		Type       string            `json:"type"`
		Properties map[string]string `json:"properties"`
		Origin     string            `json:"origin"`
	} `json:"nodes"`
	Edges []struct {
		ID         string            `json:"id"`
		Source     string            `json:"source"`
		Target     string            `json:"target"`
		Label      string            `json:"label"`
		Properties map[string]string `json:"properties"`
	} `json:"edges"`
}

// Decode parses an interchange graph document.
func Decode(data []byte) (*CodeGraph, error) {
	var doc document

	err := json.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	g := New()

	for i, n := range doc.Nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("%w: node %d has no id", ErrInvalidDocument, i)
		}

		g.AddNode(&Node{ID: n.ID, Label: n.Label, Type: n.Type, Properties: n.Properties, Origin: n.Origin})
	}

	for i, e := range doc.Edges {
		if e.ID == "" {
			return nil, fmt.Errorf("%w: edge %d has no id", ErrInvalidDocument, i)
		}

		g.AddEdge(&Edge{ID: e.ID, Source: e.Source, Target: e.Target, Label: e.Label, Properties: e.Properties})
	}

	return g, nil
}
