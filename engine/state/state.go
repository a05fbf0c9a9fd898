// Package state holds the immutable content definitions and the small amount
// of session state that lives outside the quest ledger and the interpreter.
package state

import (
	"sort"

	"github.com/nathoo/parley/engine/graph"
	"github.com/nathoo/parley/types"
)

// Defs holds the immutable game definitions loaded from Lua.
type Defs struct {
	Game   types.GameDef
	Quests map[string]types.QuestDef
	NPCs   map[string]types.NPCDef
	Graphs map[string]*graph.Graph
}

// Session is the mutable per-playthrough state owned by the engine.
type Session struct {
	Turn       int
	Inventory  map[string]int
	CommandLog []string
}

// NewSession creates a fresh session.
func NewSession() *Session {
	return &Session{
		Inventory:  map[string]int{},
		CommandLog: []string{},
	}
}

// AddItem records an item pickup and returns the new count.
func (s *Session) AddItem(itemID string) int {
	s.Inventory[itemID]++
	return s.Inventory[itemID]
}

// Items returns the held item ids, sorted.
func (s *Session) Items() []string {
	out := make([]string, 0, len(s.Inventory))
	for id, n := range s.Inventory {
		if n > 0 {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// NPCIDs returns all NPC ids, sorted.
func (d *Defs) NPCIDs() []string {
	ids := make([]string, 0, len(d.NPCs))
	for id := range d.NPCs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// NPCName returns the display name of an NPC, falling back to its id.
// Unknown ids return "".
func (d *Defs) NPCName(npcID string) string {
	npc, ok := d.NPCs[npcID]
	if !ok {
		return ""
	}
	if npc.Name != "" {
		return npc.Name
	}
	return npc.ID
}

// QuestName returns the display name of a quest, falling back to its id.
func (d *Defs) QuestName(questID string) string {
	if q, ok := d.Quests[questID]; ok && q.Name != "" {
		return q.Name
	}
	return questID
}

// GraphIDs returns all dialogue graph ids, sorted.
func (d *Defs) GraphIDs() []string {
	ids := make([]string, 0, len(d.Graphs))
	for id := range d.Graphs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Graph returns a dialogue graph by id.
func (d *Defs) Graph(id string) (*graph.Graph, bool) {
	g, ok := d.Graphs[id]
	return g, ok && g != nil
}
