package loader

import (
	"strings"
	"testing"

	"github.com/nathoo/parley/engine/graph"
	"github.com/nathoo/parley/engine/state"
	"github.com/nathoo/parley/types"
)

// validDefs returns a minimal valid Defs for testing.
func validDefs(t *testing.T) *state.Defs {
	t.Helper()

	b := graph.NewBuilder("hello")
	for _, n := range []types.Node{
		{Name: "start", Kind: types.NodeEntry},
		{Name: "hi", Kind: types.NodeLine, Speaker: "Guard", Text: "Hi.", StartsQuest: "q"},
		{Name: "bye", Kind: types.NodeTerminal},
	} {
		if _, err := b.Add(n); err != nil {
			t.Fatal(err)
		}
	}
	if err := b.Connect("start", types.PortExit, "hi"); err != nil {
		t.Fatal(err)
	}
	if err := b.Connect("hi", types.PortExit, "bye"); err != nil {
		t.Fatal(err)
	}

	return &state.Defs{
		Game: types.GameDef{Title: "Test"},
		Quests: map[string]types.QuestDef{
			"q": {ID: "q", Name: "Q", Requirements: []types.Requirement{
				{Kind: types.TalkToNPC, TargetID: "guard", Required: 1},
			}},
		},
		NPCs: map[string]types.NPCDef{
			"guard": {ID: "guard", Name: "Guard", Dialogues: []string{"hello"}},
		},
		Graphs: map[string]*graph.Graph{"hello": b.Build()},
	}
}

func TestValidate_ValidDefs(t *testing.T) {
	ve := &ValidationError{}
	validate(validDefs(t), ve)
	if len(ve.Errors) != 0 || len(ve.Warnings) != 0 {
		t.Fatalf("expected a clean report, got %+v", ve)
	}
}

func TestValidate_EmptyTitle(t *testing.T) {
	defs := validDefs(t)
	defs.Game.Title = ""

	ve := &ValidationError{}
	validate(defs, ve)
	assertContains(t, ve.Errors, "title is required")
}

func TestValidate_UndefinedDialogue(t *testing.T) {
	defs := validDefs(t)
	defs.NPCs["guard"] = types.NPCDef{ID: "guard", Dialogues: []string{"hello", "later"}}

	ve := &ValidationError{}
	validate(defs, ve)
	assertContains(t, ve.Errors, `NPC "guard" references undefined dialogue "later"`)
}

func TestValidate_UnusedDialogue_Warning(t *testing.T) {
	defs := validDefs(t)
	defs.NPCs["guard"] = types.NPCDef{ID: "guard"}

	ve := &ValidationError{}
	validate(defs, ve)
	if len(ve.Errors) != 0 {
		t.Errorf("unexpected errors: %v", ve.Errors)
	}
	assertContains(t, ve.Warnings, `dialogue "hello" is not used by any NPC`)
}

func TestValidate_Requirements(t *testing.T) {
	defs := validDefs(t)
	defs.Quests["q"] = types.QuestDef{ID: "q", Requirements: []types.Requirement{
		{Kind: "defeat", TargetID: "dragon", Required: 1},
		{Kind: types.CollectItem, TargetID: "gem", Required: 0},
		{Kind: types.CollectItem, Required: 1},
		{Kind: types.TalkToNPC, TargetID: "stranger", Required: 1},
	}}

	ve := &ValidationError{}
	validate(defs, ve)
	assertContains(t, ve.Errors, `unknown kind "defeat"`)
	assertContains(t, ve.Errors, "must require at least 1")
	assertContains(t, ve.Errors, "requirement 3 has no target")
	assertContains(t, ve.Warnings, `undefined NPC "stranger"`)
}

func TestValidate_NoRequirements_Warning(t *testing.T) {
	defs := validDefs(t)
	defs.Quests["q"] = types.QuestDef{ID: "q", Name: "Q"}

	ve := &ValidationError{}
	validate(defs, ve)
	assertContains(t, ve.Warnings, "completes only when forced")
}

func TestValidate_NodeQuestRefs(t *testing.T) {
	defs := validDefs(t)
	b := graph.NewBuilder("hello")
	for _, n := range []types.Node{
		{Name: "start", Kind: types.NodeEntry},
		{Name: "hi", Kind: types.NodeLine, CompletesQuest: "ghost",
			Condition: types.Condition{Kind: types.CondQuestActive, QuestID: "phantom"}},
		{Name: "ok", Kind: types.NodeResponse, Condition: types.Condition{Kind: types.CondQuestCompleted}},
	} {
		if _, err := b.Add(n); err != nil {
			t.Fatal(err)
		}
	}
	_ = b.Connect("start", types.PortExit, "hi")
	_ = b.Connect("hi", graph.ResponsePort(0), "ok")
	defs.Graphs["hello"] = b.Build()

	ve := &ValidationError{}
	validate(defs, ve)
	assertContains(t, ve.Errors, `completes_quest references undefined quest "ghost"`)
	assertContains(t, ve.Errors, `condition references undefined quest "phantom"`)
	assertContains(t, ve.Errors, `node "ok" condition quest_completed has no quest`)
}

func TestValidate_GraphShape(t *testing.T) {
	defs := validDefs(t)
	b := graph.NewBuilder("hello")
	for _, n := range []types.Node{
		{Name: "a", Kind: types.NodeEntry},
		{Name: "b", Kind: types.NodeEntry},
		{Name: "stray", Kind: types.NodeLine, Text: "Nobody reaches me."},
	} {
		if _, err := b.Add(n); err != nil {
			t.Fatal(err)
		}
	}
	defs.Graphs["hello"] = b.Build()

	ve := &ValidationError{}
	validate(defs, ve)
	assertContains(t, ve.Errors, "has 2 entry nodes")
	assertContains(t, ve.Warnings, `line "stray" has neither a continuation nor responses`)
}

func TestValidationError_Message(t *testing.T) {
	ve := &ValidationError{Errors: []string{"one", "two"}}
	msg := ve.Error()
	if !strings.HasPrefix(msg, "validation failed with 2 error(s)") || !strings.Contains(msg, "\n  two") {
		t.Errorf("unexpected message %q", msg)
	}
}

func assertContains(t *testing.T, strs []string, substr string) {
	t.Helper()
	for _, s := range strs {
		if strings.Contains(s, substr) {
			return
		}
	}
	t.Errorf("expected one of %v to contain %q", strs, substr)
}
