// Package availability decides which conditional dialogue nodes are visible
// under the current quest state.
package availability

import "github.com/nathoo/parley/types"

// QuestView is the read-only quest state conditions are evaluated against.
type QuestView interface {
	IsActive(questID string) bool
	IsCompleted(questID string) bool
}

// EvalCondition evaluates a single condition. The empty condition always
// holds; an unknown kind or a nil view never does.
func EvalCondition(c types.Condition, view QuestView) bool {
	if c.Kind == types.CondNone {
		return true
	}
	if view == nil {
		return false
	}

	switch c.Kind {
	case types.CondQuestCompleted:
		return view.IsCompleted(c.QuestID)

	case types.CondQuestActive:
		return view.IsActive(c.QuestID)

	case types.CondQuestNotActive:
		// Not yet started: neither running nor finished.
		return !view.IsActive(c.QuestID) && !view.IsCompleted(c.QuestID)

	default:
		return false
	}
}

// Visible reports whether a node is shown. Only Line and Response nodes are
// conditional; every other kind is always visible.
func Visible(n types.Node, view QuestView) bool {
	switch n.Kind {
	case types.NodeLine, types.NodeResponse:
		return EvalCondition(n.Condition, view)
	default:
		return true
	}
}

// Hidden returns the names of the conditional nodes in nodes that are not
// visible, in input order.
func Hidden(nodes []types.Node, view QuestView) []string {
	var out []string
	for _, n := range nodes {
		if !Visible(n, view) {
			out = append(out, n.Name)
		}
	}
	return out
}

// Snapshot is a fixed QuestView, handy for previews and tests.
type Snapshot struct {
	Active    map[string]bool
	Completed map[string]bool
}

func (s Snapshot) IsActive(questID string) bool    { return s.Active[questID] }
func (s Snapshot) IsCompleted(questID string) bool { return s.Completed[questID] }
