package typegraph

import (
	"context"
	"fmt"
	"strconv"

	"propweave/internal/config"
	"propweave/internal/meta"
	"propweave/internal/resolve"
	"propweave/internal/trace"
)

// Builder turns a module's type list into a Graph.
type Builder struct {
	cache  *resolve.Cache
	finder *BaseFinder
	conv   config.Conventions
}

// NewBuilder wires a builder to the run's cache.
func NewBuilder(cache *resolve.Cache, conv config.Conventions) *Builder {
	return &Builder{
		cache:  cache,
		finder: NewBaseFinder(cache, conv.Markers),
		conv:   conv,
	}
}

// Finder exposes the builder's BaseFinder.
func (b *Builder) Finder() *BaseFinder {
	return b.finder
}

// Build indexes types, classifies them, links each eligible node to its
// nearest eligible ancestor and orders bases before derived types. Any
// resolution failure aborts the build; no partial graph is returned.
func (b *Builder) Build(ctx context.Context, types []*meta.TypeDef) (*Graph, error) {
	ctx, span := trace.Start(ctx, trace.ScopePass, "pass:graph")
	g, err := b.build(ctx, types)
	if err != nil {
		span.End("aborted")
		return nil, err
	}
	span.WithExtra("types", strconv.Itoa(g.Len())).WithExtra("eligible", strconv.Itoa(len(g.Order))).End("")
	return g, nil
}

func (b *Builder) build(ctx context.Context, types []*meta.TypeDef) (*Graph, error) {
	g := newGraph(len(types))
	for _, def := range types {
		if _, err := g.add(def); err != nil {
			return nil, err
		}
	}
	for _, n := range g.nodes[1:] {
		if err := b.classify(ctx, n); err != nil {
			return nil, err
		}
	}
	for _, n := range g.nodes[1:] {
		if n.Eligibility != Eligible {
			continue
		}
		if err := b.link(g, n); err != nil {
			return nil, err
		}
	}
	order, err := flatten(g)
	if err != nil {
		return nil, err
	}
	g.Order = order
	return g, nil
}

func (b *Builder) classify(ctx context.Context, n *Node) error {
	def := n.Type
	if def.BaseType == nil || def.IsInterface() {
		n.Eligibility = NotEligible
		return nil
	}
	_, span := trace.Start(ctx, trace.ScopeType, "type:"+def.FullName())
	hasMarker, err := b.finder.IsDerivedFromMarker(def)
	if err != nil {
		span.End("unresolved")
		return fmt.Errorf("classify %s: %w", def.FullName(), err)
	}
	n.HasMarker = hasMarker
	n.Members = collectMembers(def, hasMarker, &b.conv)
	n.Eligibility = NotEligible
	if hasMarker || len(n.Members) > 0 {
		n.Eligibility = Eligible
	}
	span.End(n.Eligibility.String())
	return nil
}

// link walks the base chain past ineligible intermediates up to the nearest
// eligible ancestor defined in the graph.
func (b *Builder) link(g *Graph, n *Node) error {
	seen := map[*meta.TypeDef]struct{}{n.Type: {}}
	for ref := n.Type.BaseType; ref != nil; {
		def, err := b.cache.Resolve(ref)
		if err != nil {
			return fmt.Errorf("link %s: %w", n.Type.FullName(), err)
		}
		if _, loop := seen[def]; loop {
			return fmt.Errorf("link %s: %w", n.Type.FullName(), ErrInheritanceCycle)
		}
		seen[def] = struct{}{}
		if base, ok := g.Lookup(def); ok && base.Type == def && base.Eligibility == Eligible {
			n.Base = base.ID
			base.Derived = append(base.Derived, n.ID)
			return nil
		}
		ref = def.BaseType
	}
	return nil
}

// flatten emits every eligible node after its base chain. Roots are visited in
// declaration order so unrelated branches keep a stable order.
func flatten(g *Graph) ([]NodeID, error) {
	const (
		unvisited = iota
		active
		done
	)
	state := make([]uint8, len(g.nodes))
	order := make([]NodeID, 0, len(g.nodes))
	var visit func(id NodeID) error
	visit = func(id NodeID) error {
		switch state[id] {
		case done:
			return nil
		case active:
			return fmt.Errorf("%s: %w", g.nodes[id].Type.FullName(), ErrInheritanceCycle)
		}
		state[id] = active
		if base := g.nodes[id].Base; base != NoNodeID {
			if err := visit(base); err != nil {
				return err
			}
		}
		state[id] = done
		order = append(order, id)
		return nil
	}
	for _, n := range g.nodes[1:] {
		if n.Eligibility != Eligible {
			continue
		}
		if err := visit(n.ID); err != nil {
			return nil, err
		}
	}
	return order, nil
}
