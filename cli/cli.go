// Package cli runs the engine as a plain line-based REPL, suitable for
// pipes and scripted playthroughs.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nathoo/parley/engine"
	"github.com/nathoo/parley/store"
	"github.com/nathoo/parley/types"
)

// DefaultSlot is the save slot used when /save or /load names none.
const DefaultSlot = "quicksave"

// CLI handles line-oriented interaction with the player.
type CLI struct {
	Engine *engine.Engine
	Store  store.Store
	In     io.Reader
	Out    io.Writer
	Trace  bool

	// EchoInput prints each line read after the prompt, so a script
	// transcript looks typed.
	EchoInput bool

	lastCmd string
}

// New creates a CLI wired to the given engine and save store.
func New(eng *engine.Engine, st store.Store) *CLI {
	return &CLI{
		Engine: eng,
		Store:  st,
		In:     os.Stdin,
		Out:    os.Stdout,
	}
}

// Run shows the intro and the people present, then loops:
// prompt, input, dispatch, output. It returns when input ends, /quit is
// entered, or ctx is cancelled.
func (c *CLI) Run(ctx context.Context) {
	for _, line := range c.Engine.Intro() {
		c.printLine(line)
	}
	c.printLine("")
	c.printLines(c.Engine.Look())

	scanner := bufio.NewScanner(c.In)
	for ctx.Err() == nil {
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Scripts may carry # comments.
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		if strings.HasPrefix(input, "/") {
			if c.handleMeta(ctx, input) {
				return // /quit
			}
			continue
		}

		lower := strings.ToLower(input)
		if lower == "again" || lower == "g" {
			if c.lastCmd == "" {
				c.printLine("Nothing to repeat.")
				continue
			}
			input = c.lastCmd
		} else {
			c.lastCmd = input
		}

		result := c.Engine.Step(input)
		c.printResult(result)

		if c.Trace {
			c.printTrace(result)
		}
	}
}

// handleMeta runs a slash command and reports whether to quit.
func (c *CLI) handleMeta(ctx context.Context, input string) bool {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		c.printSystem("Goodbye.")
		return true

	case "/save":
		c.cmdSave(ctx, arg)

	case "/load":
		c.cmdLoad(ctx, arg)

	case "/saves":
		c.cmdSaves(ctx)

	case "/delete":
		c.cmdDelete(ctx, arg)

	case "/help":
		c.cmdHelp()

	case "/state":
		c.cmdState()

	case "/graph":
		c.cmdGraph(arg)

	case "/trace":
		c.Trace = !c.Trace
		if c.Trace {
			c.printSystem("Trace output enabled.")
		} else {
			c.printSystem("Trace output disabled.")
		}

	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}

	return false
}

func (c *CLI) cmdSave(ctx context.Context, name string) {
	if name == "" {
		name = DefaultSlot
	}

	data, err := c.Engine.Save()
	if err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}
	if err := c.Store.Save(ctx, name, data); err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}

	c.printSystem(fmt.Sprintf("Game saved to %s.", name))
}

func (c *CLI) cmdLoad(ctx context.Context, name string) {
	if name == "" {
		name = DefaultSlot
	}

	data, err := c.Store.Load(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		c.printSystem(fmt.Sprintf("Load failed: no save named %s.", name))
		return
	}
	if err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}
	if err := c.Engine.Load(data); err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}

	c.printSystem(fmt.Sprintf("Game loaded from %s (turn %d).", name, c.Engine.Session.Turn))
	c.printLines(c.Engine.Look())
}

func (c *CLI) cmdSaves(ctx context.Context) {
	names, err := c.Store.List(ctx)
	if err != nil {
		c.printSystem(fmt.Sprintf("Listing saves failed: %v", err))
		return
	}
	if len(names) == 0 {
		c.printSystem("No saved games.")
		return
	}
	c.printSystem("Saved games: " + strings.Join(names, ", "))
}

func (c *CLI) cmdDelete(ctx context.Context, name string) {
	if name == "" {
		c.printSystem("Usage: /delete <name>")
		return
	}
	if err := c.Store.Delete(ctx, name); err != nil {
		c.printSystem(fmt.Sprintf("Delete failed: %v", err))
		return
	}
	c.printSystem(fmt.Sprintf("Deleted %s.", name))
}

// HelpLines lists the meta commands; shared with the TUI.
var HelpLines = []string{
	"System:",
	"  /save [name]    save the game (default: quicksave)",
	"  /load [name]    load a saved game (default: quicksave)",
	"  /saves          list saved games",
	"  /delete <name>  delete a saved game",
	"  /quit           exit",
	"  /help           show this help",
	"  /state          debug: dump quests and conversation",
	"  /graph [id]     debug: print a dialogue as Mermaid",
	"  /trace          toggle effect and notification trace",
	"",
}

func (c *CLI) cmdHelp() {
	for _, line := range HelpLines {
		c.printLine(line)
	}
	for _, line := range engine.HelpText {
		c.printLine(line)
	}
	c.printLine("  again (g)          repeat your last command")
}

func (c *CLI) cmdState() {
	for _, line := range StateLines(c.Engine) {
		c.printSystem(line)
	}
}

// StateLines summarizes the playthrough for the /state command.
func StateLines(e *engine.Engine) []string {
	out := []string{fmt.Sprintf("Turn: %d", e.Session.Turn)}
	if items := e.Session.Items(); len(items) > 0 {
		out = append(out, fmt.Sprintf("Inventory: %v", e.Session.Inventory))
	}
	for _, q := range e.Ledger.Active() {
		out = append(out, fmt.Sprintf("Active: %s %v", q.ID, progress(q)))
	}
	for _, q := range e.Ledger.Completed() {
		out = append(out, fmt.Sprintf("Completed: %s", q.ID))
	}
	if st := e.Conv.State(); st.Running {
		out = append(out, fmt.Sprintf("Conversation: %s in %s at %s", st.NPC, st.Graph, st.Node))
	}
	consumed := e.Conv.Consumed()
	for _, npc := range e.Defs.NPCIDs() {
		if graphs := consumed[npc]; len(graphs) > 0 {
			out = append(out, fmt.Sprintf("Consumed: %s %v", npc, graphs))
		}
	}
	return out
}

func progress(q types.Quest) []string {
	out := make([]string, 0, len(q.Requirements))
	for _, r := range q.Requirements {
		out = append(out, fmt.Sprintf("%s %d/%d", r.TargetID, r.Current, r.Required))
	}
	return out
}

func (c *CLI) cmdGraph(id string) {
	if id == "" {
		id = c.Engine.Conv.State().Graph
	}
	if id == "" {
		c.printSystem("Usage: /graph <dialogue> (or run it mid-conversation)")
		return
	}
	out, err := c.Engine.Diagram(id)
	if err != nil {
		c.printSystem(err.Error())
		return
	}
	c.print(out)
}

func (c *CLI) printTrace(result types.Result) {
	for _, line := range TraceLines(result) {
		c.printSystem(line)
	}
}

// TraceLines renders the effects, notifications and diagnostics of a step.
func TraceLines(result types.Result) []string {
	var out []string
	if len(result.Effects) > 0 {
		out = append(out, fmt.Sprintf("[trace] Effects: %d", len(result.Effects)))
		for _, e := range result.Effects {
			out = append(out, fmt.Sprintf("[trace]   %s %s", e.Type, e.QuestID))
		}
	}
	if len(result.Notifications) > 0 {
		out = append(out, fmt.Sprintf("[trace] Notifications: %d", len(result.Notifications)))
		for _, n := range result.Notifications {
			out = append(out, fmt.Sprintf("[trace]   #%d %s %s", n.Seq, n.Kind, n.Quest.ID))
		}
	}
	for _, d := range result.Diagnostics {
		out = append(out, "[trace] Diagnostic: "+d)
	}
	return out
}

func (c *CLI) printResult(result types.Result) {
	c.printLines(result.Output)
}

func (c *CLI) printLines(lines []string) {
	for _, line := range lines {
		c.printLine(line)
	}
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
