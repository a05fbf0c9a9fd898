package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/parley/engine/graph"
	"github.com/nathoo/parley/engine/state"
	"github.com/nathoo/parley/types"
)

// testDefs builds a small world: a guard with a two-dialogue pool, a smith
// with nothing to say, and a gem-collecting quest.
func testDefs(t *testing.T) *state.Defs {
	t.Helper()

	intro := graph.NewBuilder("intro")
	for _, n := range []types.Node{
		{Name: "start", Kind: types.NodeEntry},
		{Name: "greet", Kind: types.NodeLine, Speaker: "Old Guard", Text: "Halt, traveler.", StartsQuest: "gems"},
		{Name: "ask", Kind: types.NodeResponse, Text: "What's going on?"},
		{Name: "leave", Kind: types.NodeResponse, Text: "Goodbye."},
		{Name: "info", Kind: types.NodeLine, Speaker: "Old Guard", Text: "Bring me three gems."},
		{Name: "bye", Kind: types.NodeTerminal, Text: "Safe travels."},
	} {
		_, err := intro.Add(n)
		require.NoError(t, err)
	}
	require.NoError(t, intro.Connect("start", types.PortExit, "greet"))
	require.NoError(t, intro.Connect("greet", graph.ResponsePort(0), "ask"))
	require.NoError(t, intro.Connect("greet", graph.ResponsePort(1), "leave"))
	require.NoError(t, intro.Connect("ask", types.PortExit, "info"))
	require.NoError(t, intro.Connect("info", types.PortExit, "bye"))

	after := graph.NewBuilder("after")
	for _, n := range []types.Node{
		{Name: "start", Kind: types.NodeEntry},
		{Name: "thanks", Kind: types.NodeLine, Speaker: "Old Guard", Text: "You found them!",
			Condition: types.Condition{Kind: types.CondQuestCompleted, QuestID: "gems"}},
		{Name: "done", Kind: types.NodeTerminal},
	} {
		_, err := after.Add(n)
		require.NoError(t, err)
	}
	require.NoError(t, after.Connect("start", types.PortExit, "thanks"))
	require.NoError(t, after.Connect("thanks", types.PortExit, "done"))

	return &state.Defs{
		Game: types.GameDef{Title: "Test Game", Version: "1.0", Author: "Tester", Intro: "You stand at the gate."},
		Quests: map[string]types.QuestDef{
			"gems": {ID: "gems", Name: "Gem Hunt", Requirements: []types.Requirement{
				{Kind: types.CollectItem, TargetID: "gem", Required: 3},
			}},
		},
		NPCs: map[string]types.NPCDef{
			"guard": {ID: "guard", Name: "Old Guard", Dialogues: []string{"intro", "after"}},
			"smith": {ID: "smith", Name: "Brenna the Smith"},
			"ghost": {ID: "ghost", Name: "Ghost", Dialogues: []string{"missing"}},
		},
		Graphs: map[string]*graph.Graph{
			"intro": intro.Build(),
			"after": after.Build(),
		},
	}
}

func outputContains(output []string, substr string) bool {
	return indexOf(output, substr) >= 0
}

func indexOf(output []string, substr string) int {
	for i, line := range output {
		if strings.Contains(line, substr) {
			return i
		}
	}
	return -1
}

func TestIntro(t *testing.T) {
	e := New(testDefs(t))
	assert.Equal(t, []string{"Test Game v1.0 by Tester", "", "You stand at the gate."}, e.Intro())
}

func TestStep_Look_ShowsPrompts(t *testing.T) {
	e := New(testDefs(t))
	result := e.Step("look")

	assert.Equal(t, []string{
		"You see:",
		"- Ghost: Come back later...",
		"- Old Guard: Ready to talk.",
		"- Brenna the Smith: ...",
	}, result.Output)
}

func TestEvents_ExtraSubscriberSeesWhatIsRendered(t *testing.T) {
	e := New(testDefs(t))
	var seen []types.Notification
	e.Events.Subscribe(func(n types.Notification) { seen = append(seen, n) })

	result := e.Step("talk to the old guard")

	require.Len(t, seen, 1)
	assert.Equal(t, result.Notifications, seen)
	assert.Equal(t, uint64(1), seen[0].Seq)
	assert.Zero(t, e.Events.Len())
}

func TestLook_TakesNoTurn(t *testing.T) {
	e := New(testDefs(t))
	e.Step("talk guard")
	turn, logged := e.Session.Turn, len(e.Session.CommandLog)

	assert.Equal(t, e.Step("look").Output, e.Look())
	assert.Equal(t, turn+1, e.Session.Turn)

	e.Look()
	assert.Equal(t, turn+1, e.Session.Turn)
	assert.Len(t, e.Session.CommandLog, logged+1)
}

func TestStep_Look_CustomPrompts(t *testing.T) {
	e := New(testDefs(t), WithPrompts(Prompts{CanTalk: "Press E", ConditionsNotMet: "Not now", NoDialogue: "Silent"}))
	result := e.Step("look")

	assert.Contains(t, result.Output, "- Old Guard: Press E")
	assert.Contains(t, result.Output, "- Brenna the Smith: Silent")
}

func TestStep_Talk_ShowsLineNotificationAndChoices(t *testing.T) {
	e := New(testDefs(t))
	result := e.Step("talk to the old guard")

	speech := indexOf(result.Output, `Old Guard: "Halt, traveler."`)
	started := indexOf(result.Output, "[Quest started: Gem Hunt]")
	first := indexOf(result.Output, "  1. What's going on?")
	require.GreaterOrEqual(t, speech, 0, "output: %v", result.Output)
	assert.Greater(t, started, speech)
	assert.Greater(t, first, started)
	assert.Contains(t, result.Output, "  2. Goodbye.")

	assert.Equal(t, []types.Choice{{ID: "ask", Label: "What's going on?"}, {ID: "leave", Label: "Goodbye."}}, result.Choices)
	require.Len(t, result.Notifications, 1)
	assert.Equal(t, types.QuestStarted, result.Notifications[0].Kind)
	assert.Equal(t, []types.Effect{{Type: types.EffectStartQuest, QuestID: "gems"}}, result.Effects)
	assert.True(t, e.Ledger.IsActive("gems"))
	assert.True(t, e.Conv.Running())
}

func TestStep_FullConversation_ConsumesDialogue(t *testing.T) {
	e := New(testDefs(t))
	e.Step("talk guard")

	result := e.Step("1")
	assert.Contains(t, result.Output, `Old Guard: "Bring me three gems."`)
	assert.Equal(t, []types.Choice{{ID: types.ChoiceContinue, Label: "Continue"}}, result.Choices)
	assert.Contains(t, result.Output, "  1. Continue")

	result = e.Step("continue")
	assert.Contains(t, result.Output, `Old Guard: "Safe travels."`)
	assert.Equal(t, []types.Choice{{ID: types.ChoiceClose, Label: "Close"}}, result.Choices)

	result = e.Step("close")
	assert.Contains(t, result.Output, "[Conversation ended]")
	assert.Empty(t, result.Choices)
	assert.False(t, e.Conv.Running())
	assert.Equal(t, []string{"after"}, e.Conv.Pool("guard"))
}

func TestStep_ChooseByLabel(t *testing.T) {
	e := New(testDefs(t))
	e.Step("talk guard")

	result := e.Step("say goodbye.")
	// "say goodbye" is the leave phrase; the trailing dot keeps it a reply.
	assert.Contains(t, result.Output, "[Conversation ended]")
	assert.Equal(t, []string{"intro", "after"}, e.Conv.Pool("guard"), "ending on a response does not consume")
}

func TestStep_ChooseOutOfRange(t *testing.T) {
	e := New(testDefs(t))
	e.Step("talk guard")

	result := e.Step("7")
	assert.Contains(t, result.Output, "Pick a number from 1 to 2.")
	assert.True(t, e.Conv.Running())
	assert.Len(t, result.Choices, 2)
}

func TestStep_ChooseWithoutConversation(t *testing.T) {
	e := New(testDefs(t))
	result := e.Step("1")
	assert.Equal(t, []string{"You're not talking to anyone."}, result.Output)
}

func TestStep_Leave(t *testing.T) {
	e := New(testDefs(t))
	e.Step("talk guard")

	result := e.Step("bye")
	assert.Equal(t, []string{"[Conversation ended]"}, result.Output)
	assert.False(t, e.Conv.Running())
	assert.Equal(t, []string{"intro", "after"}, e.Conv.Pool("guard"))

	result = e.Step("bye")
	assert.Equal(t, []string{"You're not talking to anyone."}, result.Output)
}

func TestStep_BlockedDuringConversation(t *testing.T) {
	e := New(testDefs(t))
	e.Step("talk guard")
	turn := e.Session.Turn

	result := e.Step("collect gem")
	assert.True(t, outputContains(result.Output, "You're talking to Old Guard"), "output: %v", result.Output)
	assert.Zero(t, e.Session.Inventory["gem"])
	assert.Equal(t, turn, e.Session.Turn)
	assert.Len(t, result.Choices, 2, "current choices are repeated")

	result = e.Step("quests")
	assert.Contains(t, result.Output, "Active quests:")
}

func TestStep_Collect_AdvancesQuest(t *testing.T) {
	e := New(testDefs(t))
	e.Step("talk guard")
	e.Step("leave")

	result := e.Step("take the gem")
	assert.Contains(t, result.Output, "You collect the gem.")
	assert.Contains(t, result.Output, "[Quest updated: Gem Hunt (Collect gem: 1/3)]")

	e.Step("get gem")
	result = e.Step("collect gem")
	assert.Contains(t, result.Output, "You collect the gem. (3 carried)")
	updated := indexOf(result.Output, "[Quest updated: Gem Hunt (Collect gem: 3/3)]")
	completed := indexOf(result.Output, "[Quest completed: Gem Hunt]")
	require.GreaterOrEqual(t, updated, 0, "output: %v", result.Output)
	assert.Greater(t, completed, updated)
	assert.True(t, e.Ledger.IsCompleted("gems"))

	// Further pickups are kept but count for nothing.
	result = e.Step("collect gem")
	assert.Equal(t, []string{"You collect the gem. (4 carried)"}, result.Output)
	assert.Empty(t, result.Notifications)
}

func TestStep_ConditionalDialogue(t *testing.T) {
	e := New(testDefs(t))
	e.Step("talk guard")
	e.Step("1")
	e.Step("continue")
	e.Step("close")

	result := e.Step("talk guard")
	assert.Equal(t, []string{`Old Guard: "Come back later..."`}, result.Output)
	assert.False(t, e.Conv.Running())

	for range 3 {
		e.Step("collect gem")
	}

	result = e.Step("talk guard")
	assert.Contains(t, result.Output, `Old Guard: "You found them!"`)
	result = e.Step("continue")
	assert.Contains(t, result.Output, "[Conversation ended]")

	result = e.Step("talk guard")
	assert.Equal(t, []string{`Old Guard: "..."`}, result.Output)
	assert.Contains(t, e.Step("look").Output, "- Old Guard: ...")
}

func TestStep_Talk_Errors(t *testing.T) {
	e := New(testDefs(t))

	assert.Equal(t, []string{"Talk to whom?"}, e.Step("talk").Output)
	assert.Equal(t, []string{`Nobody called "dragon" is here.`}, e.Step("talk dragon").Output)
	assert.Equal(t, []string{`Brenna the Smith: "..."`}, e.Step("talk brenna").Output)
}

func TestStep_MissingGraph_ReportsDiagnostic(t *testing.T) {
	e := New(testDefs(t))
	result := e.Step("talk ghost")

	assert.Equal(t, []string{`Ghost: "Come back later..."`}, result.Output)
	require.NotEmpty(t, result.Diagnostics)
	assert.Contains(t, result.Diagnostics[0], "missing")
}

func TestStep_Journal(t *testing.T) {
	e := New(testDefs(t))
	assert.Equal(t, []string{"You have no quests."}, e.Step("journal").Output)

	e.Step("talk guard")
	e.Step("leave")
	e.Step("collect gem")

	assert.Equal(t, []string{
		"Active quests:",
		"  Gem Hunt (0/1)",
		"    ○ Collect gem: 1/3",
	}, e.Step("quests").Output)

	e.Step("collect gem")
	e.Step("collect gem")
	assert.Equal(t, []string{
		"Completed quests:",
		"  Gem Hunt (done)",
	}, e.Step("quests").Output)
}

func TestStep_Inventory(t *testing.T) {
	e := New(testDefs(t))
	assert.Equal(t, []string{"You are carrying nothing."}, e.Step("i").Output)

	e.Step("collect gem")
	e.Step("collect gem")
	e.Step("collect old key")
	assert.Equal(t, []string{"You are carrying: gem x2, old key."}, e.Step("inventory").Output)
}

func TestStep_TurnCounter(t *testing.T) {
	e := New(testDefs(t))

	e.Step("look")
	e.Step("wait")
	assert.Equal(t, 2, e.Session.Turn)

	e.Step("dance")
	e.Step("")
	assert.Equal(t, 2, e.Session.Turn, "unknown and empty commands do not take a turn")
	assert.Equal(t, []string{"look", "wait", "dance", ""}, e.Session.CommandLog)
}

func TestStep_EmptyAndUnknown(t *testing.T) {
	e := New(testDefs(t))
	assert.Equal(t, []string{"What do you want to do?"}, e.Step("   ").Output)
	assert.Equal(t, []string{"I don't understand that."}, e.Step("dance wildly").Output)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	e := New(testDefs(t))
	e.Step("talk guard")
	e.Step("1")
	e.Step("continue")
	e.Step("close")
	e.Step("collect gem")

	data, err := e.Save()
	require.NoError(t, err)

	fresh := New(testDefs(t))
	require.NoError(t, fresh.Load(data))

	assert.Equal(t, e.Journal(), fresh.Journal())
	assert.Equal(t, []string{"after"}, fresh.Conv.Pool("guard"))
	assert.Equal(t, e.Session.Turn, fresh.Session.Turn)
	assert.Equal(t, 1, fresh.Session.Inventory["gem"])
	assert.Zero(t, fresh.Events.Len(), "restoring publishes nothing")
}

func TestLoad_EndsRunningConversation(t *testing.T) {
	e := New(testDefs(t))
	data, err := e.Save()
	require.NoError(t, err)

	e.Step("talk guard")
	require.True(t, e.Conv.Running())

	require.NoError(t, e.Load(data))
	assert.False(t, e.Conv.Running())
	assert.False(t, e.Ledger.IsActive("gems"))
	assert.Equal(t, []string{"intro", "after"}, e.Conv.Pool("guard"))
}

func TestLoad_RejectsOtherGame(t *testing.T) {
	e := New(testDefs(t))
	e.Step("talk guard")

	err := e.Load([]byte(`{"format":1,"game":"Another Game"}`))
	require.Error(t, err)
	assert.True(t, e.Ledger.IsActive("gems"), "failed load keeps the ledger")
}

func TestMatchChoice(t *testing.T) {
	choices := []types.Choice{
		{ID: "ask", Label: "What's going on?"},
		{ID: types.ChoiceContinue, Label: "Continue"},
	}
	tests := []struct {
		arg    string
		want   string
		wantOK bool
	}{
		{"1", "ask", true},
		{"2", types.ChoiceContinue, true},
		{"3", "", false},
		{"0", "", false},
		{"ASK", "ask", true},
		{"what's going on?", "ask", true},
		{"continue", types.ChoiceContinue, true},
		{"", "", false},
		{"nothing", "", false},
	}
	for _, tt := range tests {
		got, ok := matchChoice(choices, tt.arg)
		assert.Equal(t, tt.wantOK, ok, "arg %q", tt.arg)
		assert.Equal(t, tt.want, got, "arg %q", tt.arg)
	}

	got, ok := matchChoice(choices[:1], "")
	assert.True(t, ok)
	assert.Equal(t, "ask", got)
}

func TestNotificationLine(t *testing.T) {
	q := types.Quest{ID: "hello", Name: "Say Hello", Requirements: []types.Requirement{
		{Kind: types.TalkToNPC, TargetID: "guard", Required: 1, Current: 1},
	}}
	assert.Equal(t, "[Quest started: Say Hello]", NotificationLine(types.Notification{Kind: types.QuestStarted, Quest: q}))
	assert.Equal(t, "[Quest updated: Say Hello (Talk to guard)]", NotificationLine(types.Notification{Kind: types.QuestProgressUpdated, Quest: q}))
	assert.Equal(t, "[Quest completed: Say Hello]", NotificationLine(types.Notification{Kind: types.QuestCompleted, Quest: q}))
}

func TestDiagram_MarksCurrentAndHidden(t *testing.T) {
	e := New(testDefs(t))

	out, err := e.Diagram("after")
	require.NoError(t, err)
	assert.Contains(t, out, "class thanks hidden;")
	assert.NotContains(t, out, "current;\n    class")

	e.Step("talk guard")
	out, err = e.Diagram("intro")
	require.NoError(t, err)
	assert.Contains(t, out, "class greet current;")

	_, err = e.Diagram("nope")
	assert.Error(t, err)
}

func TestCapitalize(t *testing.T) {
	for _, tc := range [][2]string{
		{"", ""},
		{"nobody", "Nobody"},
		{"élodie is not here", "Élodie is not here"},
		{"\xffbroken", "\xffbroken"},
	} {
		assert.Equal(t, tc[1], capitalize(tc[0]), "input %q", tc[0])
	}
}
