// Package engine provides the Step() orchestrator that wires together
// parsing, NPC resolution, the conversation interpreter, and the quest
// ledger into a single turn.
package engine

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/nathoo/parley/engine/availability"
	"github.com/nathoo/parley/engine/conversation"
	"github.com/nathoo/parley/engine/events"
	"github.com/nathoo/parley/engine/graph"
	"github.com/nathoo/parley/engine/parser"
	"github.com/nathoo/parley/engine/quest"
	"github.com/nathoo/parley/engine/resolve"
	"github.com/nathoo/parley/engine/save"
	"github.com/nathoo/parley/engine/state"
	"github.com/nathoo/parley/types"
)

// Prompts are the interaction prompt messages shown for an NPC.
type Prompts struct {
	CanTalk          string
	ConditionsNotMet string
	NoDialogue       string
}

// DefaultPrompts returns the stock prompt messages.
func DefaultPrompts() Prompts {
	return Prompts{
		CanTalk:          "Ready to talk.",
		ConditionsNotMet: "Come back later...",
		NoDialogue:       "...",
	}
}

// Message returns the prompt text for a prompt state.
func (p Prompts) Message(s conversation.PromptState) string {
	switch s {
	case conversation.PromptCanTalk:
		return p.CanTalk
	case conversation.PromptConditionsNotMet:
		return p.ConditionsNotMet
	default:
		return p.NoDialogue
	}
}

// Engine holds the content definitions and the mutable playthrough.
type Engine struct {
	Defs    *state.Defs
	Session *state.Session
	Ledger  *quest.Ledger
	Conv    *conversation.Interpreter
	Events  *events.Queue
	Prompts Prompts

	log   *log.Logger
	lines []string
	notes []types.Notification
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger shared by the engine, ledger and interpreter.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) { e.log = logger }
}

// WithPrompts overrides the interaction prompt messages.
func WithPrompts(p Prompts) Option {
	return func(e *Engine) { e.Prompts = p }
}

// New creates a new engine from definitions.
func New(defs *state.Defs, opts ...Option) *Engine {
	e := &Engine{
		Defs:    defs,
		Session: state.NewSession(),
		Events:  events.NewQueue(),
		Prompts: DefaultPrompts(),
		log:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.Events.Subscribe(e.notify)
	e.Ledger = quest.NewLedger(quest.WithQueue(e.Events), quest.WithLogger(e.log))
	e.Conv = conversation.New(defs, e.Ledger,
		conversation.WithLogger(e.log),
		conversation.WithListener(conversation.ListenerFuncs{
			OnLine: func(speaker, text string) {
				e.flush()
				e.lines = append(e.lines, speech(speaker, text))
			},
			OnEnded: func() {
				e.flush()
				e.lines = append(e.lines, "[Conversation ended]")
			},
		}),
	)
	return e
}

// Intro returns the title line and the introduction text.
func (e *Engine) Intro() []string {
	g := e.Defs.Game
	var out []string
	if g.Title != "" {
		title := g.Title
		if g.Version != "" {
			title += " v" + g.Version
		}
		if g.Author != "" {
			title += " by " + g.Author
		}
		out = append(out, title)
	}
	if g.Intro != "" {
		out = append(out, "", g.Intro)
	}
	return out
}

// Step processes one player command and returns the result.
func (e *Engine) Step(input string) types.Result {
	var result types.Result
	e.lines = nil
	e.notes = nil

	// 1. Parse input.
	intent := parser.Parse(input)

	// 2. Log the command.
	e.Session.CommandLog = append(e.Session.CommandLog, input)

	// 3. Empty input.
	if intent.Verb == "" {
		result.Output = append(result.Output, "What do you want to do?")
		return result
	}
	e.log.Debug("step", "verb", intent.Verb, "object", intent.Object, "target", intent.Target)

	// 4. Mid-conversation only replies and bookkeeping are allowed.
	if e.Conv.Running() && !isConversationVerb(intent.Verb) {
		name := e.Defs.NPCName(e.Conv.State().NPC)
		result.Output = append(result.Output,
			fmt.Sprintf("You're talking to %s. Choose a reply or say goodbye.", name))
		result.Choices = e.Conv.State().Choices
		return result
	}

	// 5. Dispatch.
	accepted := e.dispatch(intent)

	// 6. Deliver quest notifications raised during the turn.
	e.flush()

	// 7. Show the reply buttons of a running conversation.
	if e.Conv.Running() {
		result.Choices = e.Conv.State().Choices
		e.lines = append(e.lines, choiceLines(result.Choices)...)
	}

	result.Output = e.lines
	result.Notifications = e.notes
	result.Effects = e.Conv.Effects()
	result.Diagnostics = e.Conv.Diagnostics()
	for _, d := range result.Diagnostics {
		e.log.Warn("content problem", "detail", d)
	}

	// 8. Increment turn.
	if accepted {
		e.Session.Turn++
	}
	e.lines, e.notes = nil, nil
	return result
}

func isConversationVerb(verb string) bool {
	switch verb {
	case "choose", "leave", "quests", "inventory", "help", "look":
		return true
	}
	return false
}

// dispatch runs a parsed command and reports whether it was understood.
func (e *Engine) dispatch(intent types.Intent) bool {
	switch intent.Verb {
	case "look":
		e.say(e.Look()...)
	case "talk":
		e.talk(intent.Object)
	case "choose":
		e.choose(intent.Object)
	case "leave":
		if err := e.Conv.EndConversation(); err != nil {
			e.say("You're not talking to anyone.")
		}
	case "collect":
		e.collect(intent.Object)
	case "quests":
		e.say(e.Journal()...)
	case "inventory":
		e.inventory()
	case "wait":
		e.say("Time passes.")
	case "help":
		e.say(HelpText...)
	default:
		e.say("I don't understand that.")
		return false
	}
	return true
}

// HelpText lists the game commands.
var HelpText = []string{
	"Commands:",
	"  look               see who is around",
	"  talk <npc>         start a conversation",
	"  <number>           pick a reply (also: choose <reply>, continue)",
	"  leave              end the conversation",
	"  collect <item>     pick something up",
	"  quests             show the quest journal",
	"  inventory          list what you carry",
	"  wait               let time pass",
}

func (e *Engine) say(lines ...string) {
	e.lines = append(e.lines, lines...)
}

// flush delivers pending ledger notifications to subscribers, notify among
// them.
func (e *Engine) flush() {
	e.Events.Flush()
}

// notify renders a notification inline at the point it is delivered.
func (e *Engine) notify(n types.Notification) {
	e.log.Debug("quest notification", "seq", n.Seq, "kind", n.Kind, "quest", n.Quest.ID)
	e.notes = append(e.notes, n)
	e.lines = append(e.lines, NotificationLine(n))
}

// Look lists who is present and whether they have something to say. It
// reads state only: no turn passes and nothing is logged.
func (e *Engine) Look() []string {
	ids := e.Defs.NPCIDs()
	if len(ids) == 0 {
		return []string{"There is nobody here."}
	}
	out := []string{"You see:"}
	for _, id := range ids {
		out = append(out, fmt.Sprintf("- %s: %s", e.Defs.NPCName(id), e.Prompts.Message(e.Conv.Prompt(id))))
	}
	return out
}

func (e *Engine) talk(name string) {
	if name == "" {
		e.say("Talk to whom?")
		return
	}
	id, err := resolve.NPC(e.Defs, name)
	if err != nil {
		e.say(capitalize(err.Error()) + ".")
		return
	}

	err = e.Conv.StartConversation(id)
	var cfg *conversation.ConfigError
	switch {
	case err == nil:
	case errors.Is(err, conversation.ErrNoAvailableDialogue):
		e.say(speech(e.Defs.NPCName(id), e.Prompts.Message(e.Conv.Prompt(id))))
	case errors.As(err, &cfg):
		e.say("[The conversation trails off.]")
	default:
		e.log.Error("start conversation", "npc", id, "err", err)
		e.say(fmt.Sprintf("[error: %v]", err))
	}
}

func (e *Engine) choose(arg string) {
	if !e.Conv.Running() {
		e.say("You're not talking to anyone.")
		return
	}
	choices := e.Conv.State().Choices
	id, ok := matchChoice(choices, arg)
	if !ok {
		if len(choices) == 0 {
			e.say("There is nothing to choose.")
		} else {
			e.say(fmt.Sprintf("Pick a number from 1 to %d.", len(choices)))
		}
		return
	}

	err := e.Conv.Choose(id)
	var cfg *conversation.ConfigError
	switch {
	case err == nil:
	case errors.As(err, &cfg):
		e.say("[The conversation trails off.]")
	default:
		e.log.Error("choose", "choice", id, "err", err)
		e.say(fmt.Sprintf("[error: %v]", err))
	}
}

// matchChoice finds a choice by 1-based number, id or label. A bare
// command picks the only choice on offer.
func matchChoice(choices []types.Choice, arg string) (string, bool) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		if len(choices) == 1 {
			return choices[0].ID, true
		}
		return "", false
	}
	if n, err := strconv.Atoi(arg); err == nil {
		if n >= 1 && n <= len(choices) {
			return choices[n-1].ID, true
		}
		return "", false
	}
	for _, c := range choices {
		if strings.EqualFold(c.ID, arg) || strings.EqualFold(c.Label, arg) {
			return c.ID, true
		}
	}
	for _, c := range choices {
		if c.ID == "@"+arg {
			return c.ID, true
		}
	}
	return "", false
}

func (e *Engine) collect(object string) {
	if object == "" {
		e.say("Collect what?")
		return
	}
	item := strings.ReplaceAll(object, " ", "_")
	n := e.Session.AddItem(item)
	if n > 1 {
		e.say(fmt.Sprintf("You collect the %s. (%d carried)", object, n))
	} else {
		e.say(fmt.Sprintf("You collect the %s.", object))
	}

	_, err := e.Ledger.RecordProgress("collect", item, types.CollectItem)
	if err != nil && !errors.Is(err, quest.ErrNoMatchingRequirement) {
		e.log.Error("record progress", "item", item, "err", err)
		e.say(fmt.Sprintf("[error: %v]", err))
	}
}

func (e *Engine) inventory() {
	items := e.Session.Items()
	if len(items) == 0 {
		e.say("You are carrying nothing.")
		return
	}
	parts := make([]string, 0, len(items))
	for _, id := range items {
		name := strings.ReplaceAll(id, "_", " ")
		if n := e.Session.Inventory[id]; n > 1 {
			name = fmt.Sprintf("%s x%d", name, n)
		}
		parts = append(parts, name)
	}
	e.say("You are carrying: " + strings.Join(parts, ", ") + ".")
}

// Journal renders the quest journal: active quests with their checklists,
// then completed quests.
func (e *Engine) Journal() []string {
	active := e.Ledger.Active()
	completed := e.Ledger.Completed()
	if len(active) == 0 && len(completed) == 0 {
		return []string{"You have no quests."}
	}

	names := func(id string) string {
		if n := e.Defs.NPCName(id); n != "" {
			return n
		}
		return strings.ReplaceAll(id, "_", " ")
	}

	var out []string
	if len(active) > 0 {
		out = append(out, "Active quests:")
		for _, q := range active {
			out = append(out, "  "+quest.Summary(q))
			for _, line := range quest.Checklist(q, names) {
				out = append(out, "    "+line)
			}
		}
	}
	if len(completed) > 0 {
		out = append(out, "Completed quests:")
		for _, q := range completed {
			out = append(out, "  "+quest.Summary(q))
		}
	}
	return out
}

// Save serializes the playthrough.
func (e *Engine) Save() ([]byte, error) {
	return save.Save(e.Defs, e.Session, e.Ledger, e.Conv)
}

// Load restores a playthrough saved by Save. A running conversation is
// dropped without consuming its dialogue.
func (e *Engine) Load(data []byte) error {
	sd, err := save.Load(data)
	if err != nil {
		return err
	}
	if e.Conv.Running() {
		_ = e.Conv.EndConversation()
	}
	e.Events.Drain()
	e.lines, e.notes = nil, nil

	if err := save.Apply(sd, e.Defs, e.Session, e.Ledger, e.Conv); err != nil {
		return err
	}
	e.log.Info("playthrough restored", "turn", e.Session.Turn, "quests", len(sd.Quests))
	return nil
}

// NotificationLine renders a ledger notification for the transcript.
func NotificationLine(n types.Notification) string {
	switch n.Kind {
	case types.QuestStarted:
		return fmt.Sprintf("[Quest started: %s]", n.Quest.Name)
	case types.QuestProgressUpdated:
		parts := make([]string, 0, len(n.Quest.Requirements))
		for _, r := range n.Quest.Requirements {
			parts = append(parts, quest.Describe(r, nil))
		}
		return fmt.Sprintf("[Quest updated: %s (%s)]", n.Quest.Name, strings.Join(parts, "; "))
	case types.QuestCompleted:
		return fmt.Sprintf("[Quest completed: %s]", n.Quest.Name)
	default:
		return fmt.Sprintf("[%s: %s]", n.Kind, n.Quest.Name)
	}
}

func speech(speaker, text string) string {
	if speaker == "" {
		return text
	}
	return fmt.Sprintf("%s: \"%s\"", speaker, text)
}

func choiceLines(choices []types.Choice) []string {
	out := make([]string, 0, len(choices))
	for i, c := range choices {
		out = append(out, fmt.Sprintf("  %d. %s", i+1, c.Label))
	}
	return out
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// Diagram renders a dialogue graph as Mermaid. When the graph is the one
// being played, the current node and the quest-hidden nodes are marked.
func (e *Engine) Diagram(graphID string) (string, error) {
	g, ok := e.Defs.Graph(graphID)
	if !ok {
		return "", fmt.Errorf("no dialogue %q", graphID)
	}
	overlay := &graph.Overlay{Hidden: availability.Hidden(g.Nodes(), e.Ledger)}
	if st := e.Conv.State(); st.Running && st.Graph == graphID {
		overlay.Current = st.Node
	}
	return graph.Mermaid(g, overlay), nil
}
