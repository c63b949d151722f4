package typegraph

import (
	"fmt"

	"fortio.org/safecast"

	"propweave/internal/meta"
)

// Graph is the arena of type nodes plus the weaving order. Only eligible
// nodes appear in Order, and every node's base precedes it.
type Graph struct {
	nodes []*Node
	index map[string]NodeID
	Order []NodeID
}

func newGraph(capacity int) *Graph {
	g := &Graph{
		nodes: make([]*Node, 1, capacity+1), // reserve 0 as NoNodeID
		index: make(map[string]NodeID, capacity),
	}
	return g
}

func (g *Graph) add(def *meta.TypeDef) (*Node, error) {
	key := def.CanonicalName()
	if id, ok := g.index[key]; ok {
		return g.nodes[id], fmt.Errorf("%s: duplicate type definition", key)
	}
	raw, err := safecast.Conv[uint32](len(g.nodes))
	if err != nil {
		return nil, fmt.Errorf("node id overflow: %w", err)
	}
	n := &Node{ID: NodeID(raw), Type: def, Base: NoNodeID}
	g.nodes = append(g.nodes, n)
	g.index[key] = n.ID
	return n, nil
}

// Node returns the node with id, nil for NoNodeID or out of range.
func (g *Graph) Node(id NodeID) *Node {
	if id == NoNodeID || int(id) >= len(g.nodes) {
		return nil
	}
	return g.nodes[id]
}

// Lookup finds the node of def.
func (g *Graph) Lookup(def *meta.TypeDef) (*Node, bool) {
	if def == nil {
		return nil, false
	}
	id, ok := g.index[def.CanonicalName()]
	if !ok {
		return nil, false
	}
	return g.nodes[id], true
}

// Base returns the nearest eligible ancestor node of n.
func (g *Graph) Base(n *Node) *Node {
	return g.Node(n.Base)
}

// Nodes returns the eligible nodes in weaving order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.Order))
	for i, id := range g.Order {
		out[i] = g.nodes[id]
	}
	return out
}

// Len returns the number of indexed types, eligible or not.
func (g *Graph) Len() int {
	return len(g.nodes) - 1
}
