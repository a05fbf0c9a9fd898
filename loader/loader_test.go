package loader

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/nathoo/parley/engine"
	"github.com/nathoo/parley/types"
)

func TestLoad_MinimalGame(t *testing.T) {
	defs, err := Load("testdata/minimal")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if defs.Game.Title != "Minimal Test Game" {
		t.Errorf("Title = %q, want %q", defs.Game.Title, "Minimal Test Game")
	}
	if _, ok := defs.NPCs["hermit"]; !ok {
		t.Error("NPC 'hermit' not found")
	}
	g, ok := defs.Graph("hermit_hello")
	if !ok {
		t.Fatal("dialogue 'hermit_hello' not found")
	}
	if g.Len() != 3 {
		t.Errorf("expected 3 nodes, got %d", g.Len())
	}
}

func TestLoad_FullGame(t *testing.T) {
	defs, err := Load("testdata/full")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Game metadata.
	if defs.Game.Title != "Full Test Game" {
		t.Errorf("Title = %q", defs.Game.Title)
	}
	if defs.Game.Author != "Tester" {
		t.Errorf("Author = %q", defs.Game.Author)
	}
	if defs.Game.Intro != "The gate is shut." {
		t.Errorf("Intro = %q", defs.Game.Intro)
	}

	// Quests.
	gems, ok := defs.Quests["find_gems"]
	if !ok {
		t.Fatal("quest 'find_gems' not found")
	}
	if gems.Name != "Find the Gems" || gems.Description != "The guard wants three gems." {
		t.Errorf("find_gems = %+v", gems)
	}
	want := types.Requirement{Kind: types.CollectItem, TargetID: "gem", Required: 3}
	if len(gems.Requirements) != 1 || gems.Requirements[0] != want {
		t.Errorf("find_gems requirements = %+v", gems.Requirements)
	}
	report := defs.Quests["report_back"]
	if len(report.Requirements) != 1 || report.Requirements[0].Required != 1 {
		t.Errorf("TalkTo should default to 1, got %+v", report.Requirements)
	}

	// NPCs keep their dialogue order.
	guard := defs.NPCs["guard"]
	if guard.Name != "Old Guard" {
		t.Errorf("guard name = %q", guard.Name)
	}
	if len(guard.Dialogues) != 2 || guard.Dialogues[0] != "guard_intro" || guard.Dialogues[1] != "guard_thanks" {
		t.Errorf("guard dialogues = %v", guard.Dialogues)
	}
	if len(defs.NPCs["smith"].Dialogues) != 0 {
		t.Errorf("smith should have no dialogues")
	}

	// Graph shape.
	g, ok := defs.Graph("guard_intro")
	if !ok {
		t.Fatal("dialogue 'guard_intro' not found")
	}
	greet, ok := g.Lookup("greet")
	if !ok {
		t.Fatal("node 'greet' not found")
	}
	if greet.Kind != types.NodeLine || greet.StartsQuest != "find_gems" {
		t.Errorf("greet = %+v", greet)
	}
	ports := g.Ports(greet.ID)
	if strings.Join(ports, ",") != "exit 0,exit 1,exit 2" {
		t.Errorf("greet ports = %v", ports)
	}
	threaten, _ := g.Lookup("threaten")
	if threaten.Condition != (types.Condition{Kind: types.CondQuestCompleted, QuestID: "find_gems"}) {
		t.Errorf("threaten condition = %+v", threaten.Condition)
	}
	accept, _ := g.Lookup("accept")
	if accept.CompletesQuest != "find_gems" {
		t.Errorf("accept completes %q", accept.CompletesQuest)
	}
	bye, _ := g.Lookup("bye")
	if bye.Kind != types.NodeTerminal || bye.Text != "Safe travels." {
		t.Errorf("bye = %+v", bye)
	}
	first, ok := g.First()
	if !ok || first.Name != "greet" {
		t.Errorf("first node = %+v", first)
	}
}

func TestLoad_FullGame_Plays(t *testing.T) {
	defs, err := Load("testdata/full")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	e := engine.New(defs)
	result := e.Step("talk guard")
	if len(result.Output) == 0 || result.Output[0] != `Old Guard: "Halt. Nobody passes."` {
		t.Fatalf("unexpected output %v", result.Output)
	}
	// The gated reply is hidden until the gems are found.
	if len(result.Choices) != 2 {
		t.Fatalf("expected 2 choices, got %+v", result.Choices)
	}
	if !e.Ledger.IsActive("find_gems") {
		t.Error("find_gems should be active")
	}
}

func TestLoad_WarningsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)

	if _, err := Load("testdata/full", WithLogger(logger)); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !strings.Contains(buf.String(), `response \"leave\" has no outbound connection`) &&
		!strings.Contains(buf.String(), `response "leave" has no outbound connection`) {
		t.Errorf("expected warning about the dead-end response, got %q", buf.String())
	}
}

func TestCheck_ReportsWarnings(t *testing.T) {
	defs, ve, err := Check("testdata/full")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if defs == nil {
		t.Fatal("expected defs")
	}
	if len(ve.Errors) != 0 {
		t.Errorf("unexpected errors: %v", ve.Errors)
	}
	assertContains(t, ve.Warnings, `response "leave" has no outbound connection`)
}

func TestLoad_InvalidRefs_Fails(t *testing.T) {
	_, err := Load("testdata/invalid_refs")
	if err == nil {
		t.Fatal("expected error for invalid references")
	}
	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	assertContains(t, ve.Errors, `points to undefined node "missing_node"`)
	assertContains(t, ve.Errors, `undefined dialogue "nowhere"`)
	assertContains(t, ve.Errors, `undefined quest "ghost_quest"`)
}

func TestLoad_Duplicates_Fails(t *testing.T) {
	_, err := Load("testdata/duplicates")
	if err == nil {
		t.Fatal("expected error for duplicate definitions")
	}
	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	assertContains(t, ve.Errors, `duplicate quest "q"`)
	assertContains(t, ve.Errors, `duplicate node "a"`)
}

func TestLoad_BadLuaSyntax_Fails(t *testing.T) {
	_, err := Load("testdata/bad_lua")
	if err == nil {
		t.Fatal("expected error for bad Lua syntax")
	}
}

func TestLoad_NoGameDef_Fails(t *testing.T) {
	_, err := Load("testdata/no_game")
	if err == nil {
		t.Fatal("expected error for missing Game{} definition")
	}
	if !strings.Contains(err.Error(), "no Game{} definition") {
		t.Errorf("error = %q, expected 'no Game{} definition'", err.Error())
	}
}

func TestLoad_MissingDir_Fails(t *testing.T) {
	if _, err := Load("testdata/does_not_exist"); err == nil {
		t.Fatal("expected error for missing directory")
	}
	if _, err := Load(t.TempDir()); err == nil || !strings.Contains(err.Error(), "no .lua files") {
		t.Fatalf("expected 'no .lua files' error, got %v", err)
	}
}

func TestLoad_SandboxEnforced(t *testing.T) {
	// os library should not be available.
	L, _ := newTestVM()
	defer L.Close()

	if err := L.DoString(`os.execute("echo pwned")`); err == nil {
		t.Fatal("expected sandbox to block os.execute")
	}
	if err := L.DoString(`dofile("/etc/passwd")`); err == nil {
		t.Fatal("expected sandbox to block dofile")
	}
	if err := L.DoString(`math.random()`); err == nil {
		t.Fatal("expected sandbox to remove math.random")
	}
}

func TestLoad_FileOrdering(t *testing.T) {
	files := sortedLuaFiles([]string{"quests.lua", "game.lua", "dialogues.lua", "npcs.lua"})
	if files[0] != "game.lua" {
		t.Errorf("first file = %q, want game.lua", files[0])
	}
	// Rest should be alphabetical.
	if files[1] != "dialogues.lua" {
		t.Errorf("second file = %q, want dialogues.lua", files[1])
	}
}

func TestCheck_SampleGameIsClean(t *testing.T) {
	defs, ve, err := Check("../games/gatehouse")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if len(ve.Errors) != 0 || len(ve.Warnings) != 0 {
		t.Errorf("expected a clean report, got errors %v warnings %v", ve.Errors, ve.Warnings)
	}
	if len(defs.Graphs) != 5 {
		t.Errorf("expected 5 dialogues, got %d", len(defs.Graphs))
	}
}
