package dsl

import (
	"fmt"

	"github.com/aretw0/botflow/pkg/adapters/memory"
	"github.com/aretw0/botflow/pkg/domain"
)

// Builder manages the graph construction.
// Nodes and edges keep the order in which they were added.
type Builder struct {
	id    string
	name  string
	order []string
	nodes map[string]*NodeBuilder
	edges []domain.Edge
}

// New creates a new builder for the flow with the given id.
func New(flowID string) *Builder {
	return &Builder{
		id:    flowID,
		nodes: make(map[string]*NodeBuilder),
	}
}

// Name sets the display name of the flow.
func (b *Builder) Name(name string) *Builder {
	b.name = name
	return b
}

// Add creates a new node in the graph.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(id string) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node:    domain.Node{ID: id},
		builder: b,
	}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

// Build compiles the flow. Every node must have been given a kind.
// Edges may point at nodes that were never added; they are ignored at runtime.
func (b *Builder) Build() (*domain.Flow, error) {
	nodes := make([]domain.Node, 0, len(b.order))
	for _, id := range b.order {
		n := b.nodes[id].node
		if n.Payload == nil {
			return nil, fmt.Errorf("node %q has no kind", id)
		}
		nodes = append(nodes, n)
	}
	edges := make([]domain.Edge, len(b.edges))
	copy(edges, b.edges)

	return &domain.Flow{
		ID:    b.id,
		Name:  b.name,
		Graph: domain.NewGraph(nodes, edges),
	}, nil
}

// MustBuild is like Build but panics on error. Intended for tests and examples.
func (b *Builder) MustBuild() *domain.Flow {
	f, err := b.Build()
	if err != nil {
		panic(err)
	}
	return f
}

// Loader compiles the flow into an in-memory GraphLoader.
func (b *Builder) Loader() (*memory.Loader, error) {
	f, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build flow: %w", err)
	}
	return memory.NewLoader(f), nil
}

func (b *Builder) connect(source, target, handle string) {
	b.edges = append(b.edges, domain.Edge{
		ID:           fmt.Sprintf("e%d", len(b.edges)+1),
		Source:       source,
		Target:       target,
		SourceHandle: handle,
	})
}
