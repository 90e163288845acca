package domain

import "fmt"

// Edge is a directed connection between two nodes.
// SourceHandle selects one of several outputs of the source node.
type Edge struct {
	ID           string `json:"id,omitempty" yaml:"id,omitempty"`
	Source       string `json:"source" yaml:"source"`
	Target       string `json:"target" yaml:"target"`
	SourceHandle string `json:"sourceHandle,omitempty" yaml:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty" yaml:"targetHandle,omitempty"`
}

// Graph is an immutable set of nodes and edges.
// It is safe for concurrent reads once constructed with NewGraph.
type Graph struct {
	nodes []Node
	edges []Edge

	index    map[string]int   // node id -> position in nodes (first occurrence wins)
	outgoing map[string][]int // source id -> positions in edges, declaration order
}

// NewGraph indexes nodes and edges. The slices must not be modified afterwards.
func NewGraph(nodes []Node, edges []Edge) *Graph {
	g := &Graph{
		nodes:    nodes,
		edges:    edges,
		index:    make(map[string]int, len(nodes)),
		outgoing: make(map[string][]int),
	}
	for i, n := range nodes {
		if _, dup := g.index[n.ID]; !dup {
			g.index[n.ID] = i
		}
	}
	for i, e := range edges {
		g.outgoing[e.Source] = append(g.outgoing[e.Source], i)
	}
	return g
}

// Nodes returns the nodes in declaration order. Callers must not modify it.
func (g *Graph) Nodes() []Node {
	if g == nil {
		return nil
	}
	return g.nodes
}

// Edges returns the edges in declaration order. Callers must not modify it.
func (g *Graph) Edges() []Edge {
	if g == nil {
		return nil
	}
	return g.edges
}

// Node looks a node up by id.
func (g *Graph) Node(id string) (Node, bool) {
	if g == nil {
		return Node{}, false
	}
	i, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.nodes[i], true
}

// Next returns the nodes directly reachable from sourceID, in edge
// declaration order. An empty handle selects every outgoing edge; otherwise
// only edges whose SourceHandle equals handle are followed.
// Edges pointing at missing nodes are skipped.
func (g *Graph) Next(sourceID, handle string) []Node {
	if g == nil {
		return nil
	}
	var next []Node
	for _, i := range g.outgoing[sourceID] {
		e := g.edges[i]
		if handle != "" && e.SourceHandle != handle {
			continue
		}
		if n, ok := g.Node(e.Target); ok {
			next = append(next, n)
		}
	}
	return next
}

// OfKind returns every node of the given kind in declaration order.
func (g *Graph) OfKind(kind Kind) []Node {
	if g == nil {
		return nil
	}
	var out []Node
	for _, n := range g.nodes {
		if n.Kind() == kind {
			out = append(out, n)
		}
	}
	return out
}

// Flow is one bot configuration: an identified graph.
type Flow struct {
	ID      string
	Name    string
	Version string
	Graph   *Graph
}

// Commands returns the Command payloads of the flow in declaration order.
func (f *Flow) Commands() []Command {
	if f == nil {
		return nil
	}
	var cmds []Command
	for _, n := range f.Graph.OfKind(KindCommand) {
		if c, ok := n.Payload.(Command); ok {
			cmds = append(cmds, c)
		}
	}
	return cmds
}

// Lookup returns the node with the given id or an error wrapping ErrNodeNotFound.
func (f *Flow) Lookup(id string) (Node, error) {
	if f != nil {
		if n, ok := f.Graph.Node(id); ok {
			return n, nil
		}
	}
	return Node{}, fmt.Errorf("%w: %q", ErrNodeNotFound, id)
}
