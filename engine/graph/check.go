package graph

import (
	"fmt"

	"github.com/nathoo/parley/types"
)

// Report collects structural problems found in a graph. Errors break
// traversal guarantees; warnings are authoring mistakes the interpreter
// tolerates.
type Report struct {
	Errors   []string
	Warnings []string
}

// OK reports whether the graph has no errors.
func (r Report) OK() bool { return len(r.Errors) == 0 }

// Check validates a graph's shape: a unique entry with one outbound
// connection, no outbound ports on terminals, at most one on responses,
// and every node reachable from the entry.
func Check(g *Graph) Report {
	var r Report

	entries := g.Entries()
	switch len(entries) {
	case 0:
		r.Errors = append(r.Errors, fmt.Sprintf("graph %q has no entry node", g.ID()))
	case 1:
	default:
		r.Errors = append(r.Errors, fmt.Sprintf("graph %q has %d entry nodes", g.ID(), len(entries)))
	}

	for _, n := range g.nodes {
		ports := g.ports[n.ID]
		switch n.Kind {
		case types.NodeEntry:
			if len(ports) != 1 || ports[0] != types.PortExit {
				r.Errors = append(r.Errors, fmt.Sprintf(
					"graph %q entry %q must have exactly one %q connection", g.ID(), n.Name, types.PortExit))
			}
		case types.NodeTerminal:
			if len(ports) > 0 {
				r.Errors = append(r.Errors, fmt.Sprintf(
					"graph %q end node %q must not have outbound connections", g.ID(), n.Name))
			}
		case types.NodeResponse:
			if len(ports) > 1 {
				r.Errors = append(r.Errors, fmt.Sprintf(
					"graph %q response %q has %d outbound connections, want at most 1", g.ID(), n.Name, len(ports)))
			}
			if len(ports) == 0 {
				r.Warnings = append(r.Warnings, fmt.Sprintf(
					"graph %q response %q has no outbound connection; choosing it ends the conversation", g.ID(), n.Name))
			}
		case types.NodeLine:
			if len(ports) == 0 {
				r.Warnings = append(r.Warnings, fmt.Sprintf(
					"graph %q line %q has neither a continuation nor responses", g.ID(), n.Name))
			} else if onlyConditionalResponses(g, n.ID) {
				r.Warnings = append(r.Warnings, fmt.Sprintf(
					"graph %q line %q has only conditional responses and no continuation; it dead-ends when all are hidden", g.ID(), n.Name))
			}
		default:
			r.Errors = append(r.Errors, fmt.Sprintf(
				"graph %q node %q has unknown kind %q", g.ID(), n.Name, n.Kind))
		}
	}

	if entry, ok := g.Entry(); ok {
		for _, id := range Unreachable(g, entry) {
			n := g.nodes[id]
			r.Warnings = append(r.Warnings, fmt.Sprintf(
				"graph %q node %q is unreachable from the entry", g.ID(), n.Name))
		}
	}

	return r
}

// onlyConditionalResponses reports whether a line lacks an exit and every
// response it links to carries a condition.
func onlyConditionalResponses(g *Graph, id types.NodeID) bool {
	if _, ok := g.Next(id, types.PortExit); ok {
		return false
	}
	for _, e := range g.Outbound(id) {
		to := g.nodes[e.To]
		if to.Kind != types.NodeResponse || to.Condition.Kind == types.CondNone {
			return false
		}
	}
	return true
}

// Unreachable returns, in authored order, the non-entry nodes that no path
// from start reaches.
func Unreachable(g *Graph, start types.NodeID) []types.NodeID {
	visited := make([]bool, len(g.nodes))
	queue := []types.NodeID{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		for _, e := range g.Outbound(cur) {
			if !visited[e.To] {
				queue = append(queue, e.To)
			}
		}
	}

	var out []types.NodeID
	for i, seen := range visited {
		if !seen && g.nodes[i].Kind != types.NodeEntry {
			out = append(out, types.NodeID(i))
		}
	}
	return out
}
