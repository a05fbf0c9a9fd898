// Package conversation implements the dialogue interpreter: the state machine
// that walks an NPC's dialogue graphs, shows lines and choices, applies quest
// side effects, and consumes graphs that reach a terminal.
//
// An Interpreter is not safe for concurrent use. Drive it from one goroutine
// (the engine serializes commands); the quest ledger it consults has its own
// lock.
package conversation

import (
	"errors"
	"io"

	"github.com/charmbracelet/log"

	"github.com/nathoo/parley/engine/availability"
	"github.com/nathoo/parley/engine/effects"
	"github.com/nathoo/parley/engine/graph"
	"github.com/nathoo/parley/engine/quest"
	"github.com/nathoo/parley/engine/state"
	"github.com/nathoo/parley/types"
)

// Ledger is the quest state the interpreter reads and mutates.
type Ledger interface {
	availability.QuestView
	effects.Ledger
	RecordProgress(eventKey, targetID string, kind types.RequirementKind) (int, error)
}

// State is a snapshot of the interpreter for front ends and saves.
type State struct {
	Running bool
	NPC     string
	Graph   string
	Node    string
	Speaker string
	Text    string
	Choices []types.Choice
}

// Interpreter runs one conversation at a time.
type Interpreter struct {
	defs     *state.Defs
	ledger   Ledger
	listener Listener
	log      *log.Logger

	pools    map[string][]string
	consumed map[string][]string
	diags    []string
	applied  []types.Effect

	running bool
	npc     string
	graph   *graph.Graph
	current types.NodeID
	speaker string
	text    string
	choices []types.Choice
	targets map[string]types.NodeID // choice id -> node to parse
	talked  bool
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithListener sets the presentation listener.
func WithListener(l Listener) Option {
	return func(it *Interpreter) { it.listener = l }
}

// WithLogger sets the logger for traversal and content diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(it *Interpreter) { it.log = logger }
}

// New creates an idle interpreter with every NPC's pool set to its authored
// dialogue list.
func New(defs *state.Defs, ledger Ledger, opts ...Option) *Interpreter {
	it := &Interpreter{
		defs:    defs,
		ledger:  ledger,
		current: types.NoNode,
	}
	for _, opt := range opts {
		opt(it)
	}
	if it.listener == nil {
		it.listener = ListenerFuncs{}
	}
	if it.log == nil {
		it.log = log.New(io.Discard)
	}
	it.resetPools()
	return it
}

// Running reports whether a conversation is in progress.
func (it *Interpreter) Running() bool { return it.running }

// State returns a snapshot of the current conversation.
func (it *Interpreter) State() State {
	if !it.running {
		return State{}
	}
	s := State{
		Running: true,
		NPC:     it.npc,
		Graph:   it.graph.ID(),
		Speaker: it.speaker,
		Text:    it.text,
		Choices: append([]types.Choice(nil), it.choices...),
	}
	if n, ok := it.graph.Node(it.current); ok {
		s.Node = n.Name
	}
	return s
}

// Diagnostics drains content problems recorded since the last call.
func (it *Interpreter) Diagnostics() []string {
	out := it.diags
	it.diags = nil
	return out
}

// Effects drains the quest side effects applied since the last call.
func (it *Interpreter) Effects() []types.Effect {
	out := it.applied
	it.applied = nil
	return out
}

// StartConversation begins the first available dialogue of the NPC.
func (it *Interpreter) StartConversation(npcID string) error {
	if it.running {
		return ErrAlreadyRunning
	}
	if _, ok := it.defs.NPCs[npcID]; !ok {
		return ErrUnknownNPC
	}

	id, ok := it.selectGraph(npcID, true)
	if !ok {
		it.log.Debug("no available dialogue", "npc", npcID)
		return ErrNoAvailableDialogue
	}
	g, _ := it.defs.Graph(id)
	first, _ := g.First()

	it.running = true
	it.npc = npcID
	it.graph = g
	it.talked = false
	it.speaker, it.text = "", ""
	it.log.Debug("conversation started", "npc", npcID, "graph", id)

	return it.parse(first.ID)
}

// Choose selects one of the currently displayed choices.
func (it *Interpreter) Choose(choiceID string) error {
	if !it.running {
		return ErrNotRunning
	}
	target, ok := it.targets[choiceID]
	if !ok {
		return ErrUnknownChoice
	}

	switch choiceID {
	case types.ChoiceClose:
		it.end()
		return nil
	case types.ChoiceContinue:
		it.setChoices(nil, nil)
		if target == types.NoNode {
			return it.fail(it.current, ErrDeadEnd)
		}
	}
	return it.parse(target)
}

// EndConversation stops the running conversation. The graph is not
// consumed unless it already reached a terminal.
func (it *Interpreter) EndConversation() error {
	if !it.running {
		return ErrNotRunning
	}
	it.end()
	return nil
}

// parse advances from id until the player has something to answer or the
// conversation ends. Hidden lines and chosen responses pass straight through.
func (it *Interpreter) parse(id types.NodeID) error {
	for steps := 0; ; steps++ {
		if steps > it.graph.Len() {
			return it.fail(id, ErrNoVisibleNode)
		}
		n, ok := it.graph.Node(id)
		if !ok {
			return it.fail(it.current, ErrDeadEnd)
		}
		it.current = id

		switch n.Kind {
		case types.NodeEntry:
			next, ok := it.graph.Next(id, types.PortExit)
			if !ok {
				return it.fail(id, ErrDeadEnd)
			}
			id = next

		case types.NodeLine:
			if availability.Visible(n, it.ledger) {
				return it.showLine(n)
			}
			it.log.Debug("skipping hidden line", "graph", it.graph.ID(), "node", n.Name)
			next, ok := it.graph.Next(id, types.PortExit)
			if !ok {
				return it.fail(id, ErrDeadEnd)
			}
			id = next

		case types.NodeResponse:
			if err := it.recordTalk(); err != nil {
				it.end()
				return err
			}
			it.setChoices(nil, nil)
			next, ok := it.graph.Next(id, types.PortExit)
			if !ok {
				it.end()
				return nil
			}
			id = next

		case types.NodeTerminal:
			it.consume(it.npc, it.graph.ID())
			it.log.Debug("dialogue consumed", "npc", it.npc, "graph", it.graph.ID())
			if n.Text == "" {
				it.end()
				return nil
			}
			it.show(it.speaker, it.interpolate(n.Text))
			it.setChoices(
				[]types.Choice{{ID: types.ChoiceClose, Label: "Close"}},
				map[string]types.NodeID{types.ChoiceClose: types.NoNode},
			)
			return nil

		default:
			return it.fail(id, ErrUnknownNodeKind)
		}
	}
}

// showLine displays a visible line, applies its quest effects, and offers
// its visible responses or a synthesized continue.
func (it *Interpreter) showLine(n types.Node) error {
	it.speaker = it.interpolate(n.Speaker)
	it.show(it.speaker, it.interpolate(n.Text))

	applied, diags, err := effects.Apply(it.ledger, it.defs.Quests, effects.ForNode(n))
	it.applied = append(it.applied, applied...)
	for _, d := range diags {
		it.log.Warn("line effect skipped", "graph", it.graph.ID(), "node", n.Name, "reason", d)
		it.diags = append(it.diags, d)
	}
	if err != nil {
		if errors.Is(err, effects.ErrUnknownQuest) {
			return it.fail(n.ID, ErrMissingQuest)
		}
		it.end()
		return err
	}

	// Continue follows exit wherever it leads, including a response that
	// is hidden from the choice list.
	continuation, ok := it.graph.Next(n.ID, types.PortExit)
	if !ok {
		continuation = types.NoNode
	}
	var choices []types.Choice
	targets := map[string]types.NodeID{}
	for _, e := range it.graph.Outbound(n.ID) {
		to, _ := it.graph.Node(e.To)
		if to.Kind != types.NodeResponse {
			if e.Port != types.PortExit {
				it.log.Warn("response port leads to non-response", "graph", it.graph.ID(), "node", n.Name, "port", e.Port)
			}
			continue
		}
		if !availability.Visible(to, it.ledger) {
			continue
		}
		label := to.Text
		if label == "" {
			label = to.Name
		}
		choices = append(choices, types.Choice{ID: to.Name, Label: it.interpolate(label)})
		targets[to.Name] = e.To
	}

	if len(choices) == 0 {
		choices = []types.Choice{{ID: types.ChoiceContinue, Label: "Continue"}}
		targets = map[string]types.NodeID{types.ChoiceContinue: continuation}
	}
	it.setChoices(choices, targets)
	return nil
}

// recordTalk counts the first response of a conversation as talking to the
// NPC. Later responses in the same conversation add nothing, so a
// requirement of TalkToNPC x2 takes two separate conversations. Quests that
// do not care are not an error.
func (it *Interpreter) recordTalk() error {
	if it.talked {
		return nil
	}
	it.talked = true
	_, err := it.ledger.RecordProgress("talk", it.npc, types.TalkToNPC)
	if err != nil && !errors.Is(err, quest.ErrNoMatchingRequirement) {
		return err
	}
	return nil
}

func (it *Interpreter) show(speaker, text string) {
	it.speaker, it.text = speaker, text
	it.listener.LineChanged(speaker, text)
}

func (it *Interpreter) setChoices(choices []types.Choice, targets map[string]types.NodeID) {
	if len(choices) == 0 && len(it.choices) == 0 {
		it.targets = targets
		return
	}
	it.choices = choices
	it.targets = targets
	it.listener.ChoicesChanged(append([]types.Choice(nil), choices...))
}

func (it *Interpreter) end() {
	if !it.running {
		return
	}
	it.setChoices(nil, nil)
	it.log.Debug("conversation ended", "npc", it.npc, "graph", it.graph.ID())
	it.running = false
	it.npc = ""
	it.graph = nil
	it.current = types.NoNode
	it.speaker, it.text = "", ""
	it.listener.ConversationEnded()
}

// fail ends the conversation on a content problem and returns it.
func (it *Interpreter) fail(at types.NodeID, err error) error {
	cfg := &ConfigError{Graph: it.graph.ID(), Err: err}
	if n, ok := it.graph.Node(at); ok {
		cfg.Node = n.Name
	}
	it.log.Warn("dialogue error", "err", cfg)
	it.diags = append(it.diags, cfg.Error())
	it.end()
	return cfg
}

func (it *Interpreter) interpolate(text string) string {
	return effects.Interpolate(text, effects.Context{
		NPCID:   it.npc,
		NPCName: it.defs.NPCName(it.npc),
		Speaker: it.speaker,
	})
}
