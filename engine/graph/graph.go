// Package graph implements the immutable dialogue graph: an arena of typed
// nodes joined by named ports. Edges are stored as a (node, port) -> node
// map, with each node's outbound ports kept in declaration order.
package graph

import (
	"fmt"
	"strings"

	"github.com/nathoo/parley/types"
)

// PortKey addresses one outbound port of a node.
type PortKey struct {
	Node types.NodeID
	Port string
}

// Graph is one complete branching conversation. It is read-only after Build
// and safe to share between goroutines.
type Graph struct {
	id     string
	nodes  []types.Node
	byName map[string]types.NodeID
	edges  map[PortKey]types.NodeID
	ports  [][]string // per node, outbound port names in declaration order
}

// ID returns the graph's identifier.
func (g *Graph) ID() string { return g.id }

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Node returns the node with the given id.
func (g *Graph) Node(id types.NodeID) (types.Node, bool) {
	if id < 0 || int(id) >= len(g.nodes) {
		return types.Node{}, false
	}
	return g.nodes[id], true
}

// Lookup returns the node with the given authored name.
func (g *Graph) Lookup(name string) (types.Node, bool) {
	id, ok := g.byName[name]
	if !ok {
		return types.Node{}, false
	}
	return g.nodes[id], true
}

// Nodes returns a copy of all nodes in authored order.
func (g *Graph) Nodes() []types.Node {
	out := make([]types.Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Entries returns the ids of all Entry nodes. A well-formed graph has one.
func (g *Graph) Entries() []types.NodeID {
	var out []types.NodeID
	for _, n := range g.nodes {
		if n.Kind == types.NodeEntry {
			out = append(out, n.ID)
		}
	}
	return out
}

// Entry returns the unique Entry node. It reports false when the graph has
// zero or several entries.
func (g *Graph) Entry() (types.NodeID, bool) {
	entries := g.Entries()
	if len(entries) != 1 {
		return types.NoNode, false
	}
	return entries[0], true
}

// First returns the node the Entry's exit port leads to.
func (g *Graph) First() (types.Node, bool) {
	entry, ok := g.Entry()
	if !ok {
		return types.Node{}, false
	}
	next, ok := g.Next(entry, types.PortExit)
	if !ok {
		return types.Node{}, false
	}
	return g.Node(next)
}

// Next follows the given outbound port of a node.
func (g *Graph) Next(from types.NodeID, port string) (types.NodeID, bool) {
	to, ok := g.edges[PortKey{Node: from, Port: port}]
	return to, ok
}

// Ports returns the connected outbound ports of a node in declaration order.
func (g *Graph) Ports(from types.NodeID) []string {
	if from < 0 || int(from) >= len(g.ports) {
		return nil
	}
	out := make([]string, len(g.ports[from]))
	copy(out, g.ports[from])
	return out
}

// Outbound returns the edges leaving a node in port declaration order.
func (g *Graph) Outbound(from types.NodeID) []types.Edge {
	var out []types.Edge
	for _, port := range g.Ports(from) {
		out = append(out, types.Edge{From: from, Port: port, To: g.edges[PortKey{Node: from, Port: port}]})
	}
	return out
}

// Edges returns every edge, grouped by source node in authored order.
func (g *Graph) Edges() []types.Edge {
	var out []types.Edge
	for i := range g.nodes {
		out = append(out, g.Outbound(types.NodeID(i))...)
	}
	return out
}

// ResponsePort returns the port name used for the i-th response fanned out
// from a Line.
func ResponsePort(i int) string {
	return fmt.Sprintf("%s %d", types.PortExit, i)
}

// Builder assembles a Graph. Nodes must be added before they are connected.
type Builder struct {
	g *Graph
}

// NewBuilder starts an empty graph with the given id.
func NewBuilder(id string) *Builder {
	return &Builder{g: &Graph{
		id:     id,
		byName: map[string]types.NodeID{},
		edges:  map[PortKey]types.NodeID{},
	}}
}

// Add appends a node and returns its assigned id.
func (b *Builder) Add(n types.Node) (types.NodeID, error) {
	if n.Name == "" {
		return types.NoNode, fmt.Errorf("graph %s: node name is required", b.g.id)
	}
	if strings.HasPrefix(n.Name, "@") {
		return types.NoNode, fmt.Errorf("graph %s: node name %q must not start with '@'", b.g.id, n.Name)
	}
	if _, dup := b.g.byName[n.Name]; dup {
		return types.NoNode, fmt.Errorf("graph %s: duplicate node %q", b.g.id, n.Name)
	}
	n.ID = types.NodeID(len(b.g.nodes))
	b.g.nodes = append(b.g.nodes, n)
	b.g.ports = append(b.g.ports, nil)
	b.g.byName[n.Name] = n.ID
	return n.ID, nil
}

// Connect joins port on node from to node to. Each port holds at most one
// connection.
func (b *Builder) Connect(from, port, to string) error {
	src, ok := b.g.byName[from]
	if !ok {
		return fmt.Errorf("graph %s: unknown source node %q", b.g.id, from)
	}
	dst, ok := b.g.byName[to]
	if !ok {
		return fmt.Errorf("graph %s: node %q port %q points to undefined node %q", b.g.id, from, port, to)
	}
	key := PortKey{Node: src, Port: port}
	if _, taken := b.g.edges[key]; taken {
		return fmt.Errorf("graph %s: node %q port %q is already connected", b.g.id, from, port)
	}
	b.g.edges[key] = dst
	b.g.ports[src] = append(b.g.ports[src], port)
	return nil
}

// Build returns the finished graph. The builder must not be used afterwards.
func (b *Builder) Build() *Graph {
	g := b.g
	b.g = nil
	return g
}
