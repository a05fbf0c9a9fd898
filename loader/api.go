package loader

import (
	lua "github.com/yuin/gopher-lua"
)

// registerAPI registers all Lua constructors and helpers as globals.
func registerAPI(L *lua.LState, coll *collector) {
	registerConstructors(L, coll)
	registerNodeConstructors(L)
	registerConditionHelpers(L)
	registerRequirementHelpers(L)
}

// curried returns a constructor used as Name "id" { ... }: the outer call
// takes the id, the inner call the body table.
func curried(L *lua.LState, fn func(id string, tbl *lua.LTable)) *lua.LFunction {
	return L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			fn(id, L.CheckTable(1))
			return 0
		}))
		return 1
	})
}

func registerConstructors(L *lua.LState, coll *collector) {
	// Game { title = "...", ... }
	L.SetGlobal("Game", L.NewFunction(func(L *lua.LState) int {
		tbl := L.CheckTable(1)
		coll.game = tbl
		return 0
	}))

	// Quest "id" { name = "...", requirements = { ... } }
	L.SetGlobal("Quest", curried(L, func(id string, tbl *lua.LTable) {
		coll.quests = append(coll.quests, rawDef{id: id, table: tbl})
	}))

	// NPC "id" { name = "...", dialogues = { "graph", ... } }
	L.SetGlobal("NPC", curried(L, func(id string, tbl *lua.LTable) {
		coll.npcs = append(coll.npcs, rawDef{id: id, table: tbl})
	}))

	// Dialogue "id" { Entry "start" {...}, Line "greet" {...}, ... }
	L.SetGlobal("Dialogue", curried(L, func(id string, tbl *lua.LTable) {
		coll.dialogues = append(coll.dialogues, rawDef{id: id, table: tbl})
	}))
}

// registerNodeConstructors registers Entry, Line, Response and End. Each
// tags its body table with the node kind and name and returns it, so a
// Dialogue body is a plain array of nodes in authored order.
func registerNodeConstructors(L *lua.LState) {
	for global, kind := range map[string]string{
		"Entry":    "entry",
		"Line":     "line",
		"Response": "response",
		"End":      "end",
	} {
		L.SetGlobal(global, L.NewFunction(func(L *lua.LState) int {
			name := L.CheckString(1)
			L.Push(L.NewFunction(func(L *lua.LState) int {
				tbl := L.OptTable(1, L.NewTable())
				tbl.RawSetString("__kind", lua.LString(kind))
				tbl.RawSetString("__name", lua.LString(name))
				L.Push(tbl)
				return 1
			}))
			return 1
		}))
	}
}

func registerConditionHelpers(L *lua.LState) {
	for global, kind := range map[string]string{
		"QuestCompleted": "quest_completed",
		"QuestActive":    "quest_active",
		"QuestNotActive": "quest_not_active",
	} {
		L.SetGlobal(global, L.NewFunction(func(L *lua.LState) int {
			questID := L.CheckString(1)
			tbl := L.NewTable()
			tbl.RawSetString("type", lua.LString(kind))
			tbl.RawSetString("quest", lua.LString(questID))
			L.Push(tbl)
			return 1
		}))
	}
}

func registerRequirementHelpers(L *lua.LState) {
	// TalkTo("npc", count) - count defaults to 1.
	L.SetGlobal("TalkTo", L.NewFunction(func(L *lua.LState) int {
		L.Push(requirement(L, "talk_to_npc"))
		return 1
	}))

	// Collect("item", count) - count defaults to 1.
	L.SetGlobal("Collect", L.NewFunction(func(L *lua.LState) int {
		L.Push(requirement(L, "collect_item"))
		return 1
	}))
}

func requirement(L *lua.LState, kind string) *lua.LTable {
	target := L.CheckString(1)
	count := L.OptNumber(2, 1)
	tbl := L.NewTable()
	tbl.RawSetString("kind", lua.LString(kind))
	tbl.RawSetString("target", lua.LString(target))
	tbl.RawSetString("required", count)
	return tbl
}
