// Package dag wraps a gonum directed graph with the node attributes needed to
// render saga plans as Graphviz DOT.
package dag

import (
	"fmt"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/simple"
)

type Graph struct {
	*simple.DirectedGraph
	attrs encoding.Attributes
}

func New() *Graph {
	return &Graph{DirectedGraph: simple.NewDirectedGraph()}
}

// NewNode returns a node that is not yet part of the graph.
func (g *Graph) NewNode(name string) *Node {
	return &Node{Node: g.DirectedGraph.NewNode(), name: name}
}

// Connect adds a directed edge from -> to. Both nodes must already be in the graph.
func (g *Graph) Connect(from, to int64) error {
	f := g.Node(from)
	if f == nil {
		return fmt.Errorf("node %d does not exist", from)
	}
	t := g.Node(to)
	if t == nil {
		return fmt.Errorf("node %d does not exist", to)
	}
	g.SetEdge(simple.Edge{F: f, T: t})
	return nil
}

func (g *Graph) Attributes() []encoding.Attribute {
	return g.attrs.Attributes()
}

func (g *Graph) SetAttribute(attr encoding.Attribute) error {
	return g.attrs.SetAttribute(attr)
}

// ExportToDot renders the graph in Graphviz .dot format.
func (g *Graph) ExportToDot(name string) (string, error) {
	data, err := dot.Marshal(g, name, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to export graph to DOT format: %w", err)
	}
	return string(data), nil
}

type Node struct {
	graph.Node
	name  string
	attrs encoding.Attributes
}

// DOTID makes the rendered graph use step names rather than numeric IDs.
func (n *Node) DOTID() string {
	return n.name
}

func (n *Node) Attributes() []encoding.Attribute {
	return n.attrs.Attributes()
}

func (n *Node) SetAttribute(attr encoding.Attribute) error {
	return n.attrs.SetAttribute(attr)
}
