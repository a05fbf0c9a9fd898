package conversation

import (
	"sort"

	"github.com/nathoo/parley/engine/availability"
)

// PromptState summarises what an interaction prompt should say for an NPC.
type PromptState int

const (
	// PromptNoDialogue means every dialogue of the NPC has been consumed.
	PromptNoDialogue PromptState = iota
	// PromptConditionsNotMet means dialogue remains but none is visible yet.
	PromptConditionsNotMet
	// PromptCanTalk means a conversation can start now.
	PromptCanTalk
)

func (p PromptState) String() string {
	switch p {
	case PromptCanTalk:
		return "can_talk"
	case PromptConditionsNotMet:
		return "conditions_not_met"
	default:
		return "no_dialogue"
	}
}

// HasDialogueAvailable reports whether StartConversation would find a graph
// for the NPC under the current quest state.
func (it *Interpreter) HasDialogueAvailable(npcID string) bool {
	_, ok := it.selectGraph(npcID, false)
	return ok
}

// HasAnyDialogue reports whether the NPC has unconsumed dialogue, visible
// or not.
func (it *Interpreter) HasAnyDialogue(npcID string) bool {
	return len(it.pools[npcID]) > 0
}

// Prompt classifies the NPC for interaction prompts.
func (it *Interpreter) Prompt(npcID string) PromptState {
	switch {
	case !it.HasAnyDialogue(npcID):
		return PromptNoDialogue
	case it.HasDialogueAvailable(npcID):
		return PromptCanTalk
	default:
		return PromptConditionsNotMet
	}
}

// Pool returns the NPC's remaining graph ids in authored order.
func (it *Interpreter) Pool(npcID string) []string {
	return append([]string(nil), it.pools[npcID]...)
}

// Consumed returns, per NPC, the graphs that reached a terminal, in the
// order they were consumed. NPCs with nothing consumed are omitted.
func (it *Interpreter) Consumed() map[string][]string {
	out := make(map[string][]string, len(it.consumed))
	for npc, ids := range it.consumed {
		if len(ids) > 0 {
			out[npc] = append([]string(nil), ids...)
		}
	}
	return out
}

// RestoreConsumed rebuilds every pool as the authored list minus the given
// consumed graphs. NPCs or graphs unknown to the content are skipped with a
// warning. It fails while a conversation is running.
func (it *Interpreter) RestoreConsumed(consumed map[string][]string) error {
	if it.running {
		return ErrAlreadyRunning
	}

	it.resetPools()
	npcs := make([]string, 0, len(consumed))
	for npc := range consumed {
		npcs = append(npcs, npc)
	}
	sort.Strings(npcs)

	for _, npc := range npcs {
		if _, ok := it.defs.NPCs[npc]; !ok {
			it.log.Warn("restore: unknown npc", "npc", npc)
			continue
		}
		for _, id := range consumed[npc] {
			if !it.consume(npc, id) {
				it.log.Warn("restore: graph not in npc pool", "npc", npc, "graph", id)
			}
		}
	}
	return nil
}

func (it *Interpreter) resetPools() {
	it.pools = make(map[string][]string, len(it.defs.NPCs))
	it.consumed = map[string][]string{}
	for id, npc := range it.defs.NPCs {
		it.pools[id] = append([]string(nil), npc.Dialogues...)
	}
}

// consume removes the first occurrence of graphID from the NPC's pool.
func (it *Interpreter) consume(npcID, graphID string) bool {
	pool := it.pools[npcID]
	for i, id := range pool {
		if id == graphID {
			it.pools[npcID] = append(pool[:i:i], pool[i+1:]...)
			it.consumed[npcID] = append(it.consumed[npcID], graphID)
			return true
		}
	}
	return false
}

// selectGraph returns the first graph in the NPC's pool whose first node is
// visible. Broken graphs are skipped; report records them as diagnostics.
func (it *Interpreter) selectGraph(npcID string, report bool) (string, bool) {
	for _, id := range it.pools[npcID] {
		g, ok := it.defs.Graph(id)
		if !ok {
			it.skip(&ConfigError{Graph: id, Err: ErrMissingGraph}, report)
			continue
		}
		first, ok := g.First()
		if !ok {
			it.skip(&ConfigError{Graph: id, Err: ErrDeadEnd}, report)
			continue
		}
		if availability.Visible(first, it.ledger) {
			return id, true
		}
	}
	return "", false
}

func (it *Interpreter) skip(err *ConfigError, report bool) {
	if !report {
		return
	}
	it.log.Warn("skipping dialogue", "err", err)
	it.diags = append(it.diags, err.Error())
}
