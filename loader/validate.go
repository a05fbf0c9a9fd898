package loader

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nathoo/parley/engine/graph"
	"github.com/nathoo/parley/engine/state"
	"github.com/nathoo/parley/types"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

func (e *ValidationError) errorf(format string, args ...any) {
	e.Errors = append(e.Errors, fmt.Sprintf(format, args...))
}

func (e *ValidationError) warnf(format string, args ...any) {
	e.Warnings = append(e.Warnings, fmt.Sprintf(format, args...))
}

// Known requirement kinds.
var validRequirementKinds = map[types.RequirementKind]bool{
	types.TalkToNPC:   true,
	types.CollectItem: true,
}

// validate checks the compiled defs for referential integrity and graph
// shape. Definitions are visited in sorted id order so reports are stable.
func validate(defs *state.Defs, ve *ValidationError) {
	// Game title required.
	if defs.Game.Title == "" {
		ve.errorf("Game.title is required")
	}

	for _, id := range sortedKeys(defs.Quests) {
		validateQuest(defs.Quests[id], defs, ve)
	}

	used := map[string]bool{}
	for _, id := range defs.NPCIDs() {
		for _, g := range defs.NPCs[id].Dialogues {
			used[g] = true
			if _, ok := defs.Graphs[g]; !ok {
				ve.errorf("NPC %q references undefined dialogue %q", id, g)
			}
		}
	}

	for _, id := range defs.GraphIDs() {
		g := defs.Graphs[id]
		report := graph.Check(g)
		ve.Errors = append(ve.Errors, report.Errors...)
		ve.Warnings = append(ve.Warnings, report.Warnings...)
		validateNodes(g, defs, ve)
		if !used[id] {
			ve.warnf("dialogue %q is not used by any NPC", id)
		}
	}
}

func validateQuest(q types.QuestDef, defs *state.Defs, ve *ValidationError) {
	for i, r := range q.Requirements {
		if !validRequirementKinds[r.Kind] {
			ve.errorf("quest %q requirement %d has unknown kind %q", q.ID, i+1, r.Kind)
			continue
		}
		if r.TargetID == "" {
			ve.errorf("quest %q requirement %d has no target", q.ID, i+1)
		}
		if r.Required < 1 {
			ve.errorf("quest %q requirement %d must require at least 1, got %d", q.ID, i+1, r.Required)
		}
		if r.Kind == types.TalkToNPC {
			if _, ok := defs.NPCs[r.TargetID]; !ok && r.TargetID != "" {
				ve.warnf("quest %q requires talking to undefined NPC %q", q.ID, r.TargetID)
			}
		}
	}
	if len(q.Requirements) == 0 {
		ve.warnf("quest %q has no requirements and completes only when forced", q.ID)
	}
}

// validateNodes checks the quest references carried by nodes.
func validateNodes(g *graph.Graph, defs *state.Defs, ve *ValidationError) {
	questRef := func(n types.Node, field, id string) {
		if id == "" {
			return
		}
		if _, ok := defs.Quests[id]; !ok {
			ve.errorf("dialogue %q node %q %s references undefined quest %q", g.ID(), n.Name, field, id)
		}
	}

	for _, n := range g.Nodes() {
		questRef(n, "starts_quest", n.StartsQuest)
		questRef(n, "completes_quest", n.CompletesQuest)
		if n.Condition.Kind != types.CondNone {
			if n.Condition.QuestID == "" {
				ve.errorf("dialogue %q node %q condition %s has no quest", g.ID(), n.Name, n.Condition.Kind)
			}
			questRef(n, "condition", n.Condition.QuestID)
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
