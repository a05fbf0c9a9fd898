// Package loader loads Lua game content into Go structs at startup.
// The Lua VM is discarded after loading; nothing Lua runs during play.
package loader

import (
	"fmt"
	"sort"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/parley/engine/graph"
	"github.com/nathoo/parley/engine/state"
	"github.com/nathoo/parley/types"
)

// rawDef holds a Quest, NPC or Dialogue body before compilation.
type rawDef struct {
	id    string
	table *lua.LTable
}

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	v := tbl.RawGetString(key)
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getInt returns an integer field from a Lua table, or 0 if missing.
func getInt(tbl *lua.LTable, key string) int {
	v := tbl.RawGetString(key)
	if n, ok := v.(lua.LNumber); ok {
		return int(n)
	}
	return 0
}

// getTable returns a table field from a Lua table, or nil if missing.
func getTable(tbl *lua.LTable, key string) *lua.LTable {
	v := tbl.RawGetString(key)
	if t, ok := v.(*lua.LTable); ok {
		return t
	}
	return nil
}

// stringList returns the array part of a table as strings, skipping
// anything that is not a string.
func stringList(tbl *lua.LTable) []string {
	if tbl == nil {
		return nil
	}
	var out []string
	for i := 1; i <= tbl.Len(); i++ {
		if s, ok := tbl.RawGetInt(i).(lua.LString); ok {
			out = append(out, string(s))
		}
	}
	return out
}

// tableList returns the array part of a table as tables. The index of any
// element that is not a table is reported through bad.
func tableList(tbl *lua.LTable, bad func(i int)) []*lua.LTable {
	if tbl == nil {
		return nil
	}
	var out []*lua.LTable
	for i := 1; i <= tbl.Len(); i++ {
		t, ok := tbl.RawGetInt(i).(*lua.LTable)
		if !ok {
			bad(i)
			continue
		}
		out = append(out, t)
	}
	return out
}

// compile converts all collected Lua data into a Defs struct. Content
// mistakes are collected into ve so one run reports all of them.
func compile(coll *collector, ve *ValidationError) (*state.Defs, error) {
	defs := &state.Defs{
		Quests: map[string]types.QuestDef{},
		NPCs:   map[string]types.NPCDef{},
		Graphs: map[string]*graph.Graph{},
	}

	// Game.
	if coll.game == nil {
		return nil, fmt.Errorf("no Game{} definition found")
	}
	defs.Game = compileGame(coll.game)

	for _, raw := range coll.quests {
		if _, dup := defs.Quests[raw.id]; dup {
			ve.errorf("duplicate quest %q", raw.id)
			continue
		}
		defs.Quests[raw.id] = compileQuest(raw, ve)
	}

	for _, raw := range coll.npcs {
		if _, dup := defs.NPCs[raw.id]; dup {
			ve.errorf("duplicate NPC %q", raw.id)
			continue
		}
		defs.NPCs[raw.id] = compileNPC(raw)
	}

	for _, raw := range coll.dialogues {
		if _, dup := defs.Graphs[raw.id]; dup {
			ve.errorf("duplicate dialogue %q", raw.id)
			continue
		}
		defs.Graphs[raw.id] = compileDialogue(raw, ve)
	}

	return defs, nil
}

func compileGame(tbl *lua.LTable) types.GameDef {
	return types.GameDef{
		Title:   getString(tbl, "title"),
		Author:  getString(tbl, "author"),
		Version: getString(tbl, "version"),
		Intro:   getString(tbl, "intro"),
	}
}

func compileQuest(raw rawDef, ve *ValidationError) types.QuestDef {
	tbl := raw.table
	q := types.QuestDef{
		ID:          raw.id,
		Name:        getString(tbl, "name"),
		Description: getString(tbl, "description"),
	}
	if q.Name == "" {
		q.Name = raw.id
	}
	reqs := tableList(getTable(tbl, "requirements"), func(i int) {
		ve.errorf("quest %q requirement %d is not a TalkTo or Collect", raw.id, i)
	})
	for _, r := range reqs {
		q.Requirements = append(q.Requirements, types.Requirement{
			Kind:     types.RequirementKind(getString(r, "kind")),
			TargetID: getString(r, "target"),
			Required: getInt(r, "required"),
		})
	}
	return q
}

func compileNPC(raw rawDef) types.NPCDef {
	return types.NPCDef{
		ID:        raw.id,
		Name:      getString(raw.table, "name"),
		Dialogues: stringList(getTable(raw.table, "dialogues")),
	}
}

// compileDialogue builds a graph from a Dialogue body. Nodes are added in
// authored order first so connections may point forward.
func compileDialogue(raw rawDef, ve *ValidationError) *graph.Graph {
	b := graph.NewBuilder(raw.id)

	nodes := tableList(raw.table, func(i int) {
		ve.errorf("dialogue %q element %d is not a node", raw.id, i)
	})
	var added []*lua.LTable
	for _, tbl := range nodes {
		n, err := compileNode(tbl)
		if err != nil {
			ve.errorf("dialogue %q: %v", raw.id, err)
			continue
		}
		if _, err := b.Add(n); err != nil {
			ve.Errors = append(ve.Errors, err.Error())
			continue
		}
		added = append(added, tbl)
	}

	for _, tbl := range added {
		name := getString(tbl, "__name")
		for i, to := range stringList(getTable(tbl, "responses")) {
			if err := b.Connect(name, graph.ResponsePort(i), to); err != nil {
				ve.Errors = append(ve.Errors, err.Error())
			}
		}
		if next := getString(tbl, "next"); next != "" {
			if err := b.Connect(name, types.PortExit, next); err != nil {
				ve.Errors = append(ve.Errors, err.Error())
			}
		}
	}

	return b.Build()
}

func compileNode(tbl *lua.LTable) (types.Node, error) {
	name := getString(tbl, "__name")
	kind := types.NodeKind(getString(tbl, "__kind"))
	if kind == "" {
		return types.Node{}, fmt.Errorf("table is not a node; use Entry, Line, Response or End")
	}

	n := types.Node{Name: name, Kind: kind, Text: getString(tbl, "text")}
	switch kind {
	case types.NodeLine:
		n.Speaker = getString(tbl, "speaker")
		n.StartsQuest = getString(tbl, "starts_quest")
		n.CompletesQuest = getString(tbl, "completes_quest")
		fallthrough
	case types.NodeResponse:
		if when := getTable(tbl, "when"); when != nil {
			cond, err := compileCondition(when)
			if err != nil {
				return types.Node{}, fmt.Errorf("node %q: %w", name, err)
			}
			n.Condition = cond
		}
	}
	return n, nil
}

func compileCondition(tbl *lua.LTable) (types.Condition, error) {
	kind := types.ConditionKind(getString(tbl, "type"))
	switch kind {
	case types.CondQuestCompleted, types.CondQuestActive, types.CondQuestNotActive:
		return types.Condition{Kind: kind, QuestID: getString(tbl, "quest")}, nil
	default:
		return types.Condition{}, fmt.Errorf("unknown condition type %q", kind)
	}
}

// sortedLuaFiles returns .lua files in a directory, with game.lua first
// and the rest sorted alphabetically.
func sortedLuaFiles(files []string) []string {
	var gameFile string
	var others []string
	for _, f := range files {
		if f == "game.lua" {
			gameFile = f
		} else {
			others = append(others, f)
		}
	}
	sort.Strings(others)
	if gameFile != "" {
		return append([]string{gameFile}, others...)
	}
	return others
}
