// Package render draws a property graph as a self-contained HTML page with a
// force-directed layout.
package render

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/codebridge/pkg/graph"
)

const (
	chartWidth     = "100%"
	chartHeight    = "720px"
	nodeSymbolSize = 28
	repulsion      = 600
	edgeLength     = 90
	defaultTitle   = "Code graph"
)

// Options configures HTML output.
type Options struct {
	Title    string
	Subtitle string
}

// nodeName is the unique series name of a node in the chart.
func nodeName(n *graph.Node) string {
	return n.ID + ": " + n.Label
}

// Chart builds the graph chart. Node categories become legend entries;
// edges whose endpoints do not resolve are skipped.
func Chart(g *graph.CodeGraph, o Options) *charts.Graph {
	if o.Title == "" {
		o.Title = defaultTitle
	}

	categories, index := categoriesOf(g)

	nodes := make([]opts.GraphNode, 0, g.NodeCount())
	names := make(map[string]string, g.NodeCount())

	for _, n := range g.Nodes() {
		name := nodeName(n)
		names[n.ID] = name
		nodes = append(nodes, opts.GraphNode{
			Name:       name,
			Category:   index[n.Type],
			SymbolSize: nodeSymbolSize,
		})
	}

	links := make([]opts.GraphLink, 0, g.EdgeCount())

	for _, e := range g.Edges() {
		source, okSource := names[e.Source]
		target, okTarget := names[e.Target]

		if !okSource || !okTarget {
			continue
		}

		links = append(links, opts.GraphLink{Source: source, Target: target})
	}

	chart := charts.NewGraph()
	chart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: o.Title, Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: o.Title, Subtitle: o.Subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	chart.AddSeries("graph", nodes, links,
		charts.WithGraphChartOpts(opts.GraphChart{
			Layout:     "force",
			Roam:       opts.Bool(true),
			Draggable:  opts.Bool(true),
			Force:      &opts.GraphForce{Repulsion: repulsion, EdgeLength: edgeLength},
			EdgeSymbol: []string{"none", "arrow"},
			Categories: categories,
		}),
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "right"}),
	)

	return chart
}

func categoriesOf(g *graph.CodeGraph) ([]*opts.GraphCategory, map[string]int) {
	seen := make(map[string]bool)

	var types []string

	for _, n := range g.Nodes() {
		if !seen[n.Type] {
			seen[n.Type] = true
			types = append(types, n.Type)
		}
	}

	sort.Strings(types)

	categories := make([]*opts.GraphCategory, 0, len(types))
	index := make(map[string]int, len(types))

	for i, t := range types {
		index[t] = i
		categories = append(categories, &opts.GraphCategory{Name: t})
	}

	return categories, index
}

// HTML writes the graph as a standalone HTML page.
func HTML(w io.Writer, g *graph.CodeGraph, o Options) error {
	err := Chart(g, o).Render(w)
	if err != nil {
		return fmt.Errorf("render graph: %w", err)
	}

	return nil
}
