package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nathoo/parley/cli"
	"github.com/nathoo/parley/engine"
	"github.com/nathoo/parley/store"
)

// entry is one transcript line kept unstyled so a resize can re-wrap it.
type entry struct {
	text string
	kind lineKind
	echo bool
	meta bool
}

// Model is the Bubble Tea model for the Parley TUI.
type Model struct {
	ctx    context.Context
	engine *engine.Engine
	store  store.Store

	viewport viewport.Model
	input    textinput.Model
	history  *History

	transcript []entry

	width    int
	height   int
	ready    bool
	trace    bool
	quitting bool
	lastCmd  string
}

// outputMsg delivers a batch of transcript lines. command is echoed
// first when set; meta marks slash-command output.
type outputMsg struct {
	command string
	lines   []string
	meta    bool
}

// New creates a TUI model wired to the given engine and save store.
func New(ctx context.Context, eng *engine.Engine, st store.Store) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 256
	ti.PromptStyle = styleInputPrompt

	return Model{
		ctx:     ctx,
		engine:  eng,
		store:   st,
		input:   ti,
		history: NewHistory(100),
	}
}

// Run blocks until the player quits or ctx is cancelled.
func Run(ctx context.Context, eng *engine.Engine, st store.Store) error {
	m := New(ctx, eng, st)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Init starts the cursor blinking and queues the opening transcript.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.initialOutput())
}

// initialOutput renders the opening now and hands it to Update later, so
// the command goroutine never touches the engine.
func (m Model) initialOutput() tea.Cmd {
	lines := append(m.engine.Intro(), "")
	return emit(append(lines, m.engine.Look()...))
}

func emit(lines []string) tea.Cmd {
	return func() tea.Msg { return outputMsg{lines: lines} }
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Status bar and input take one row each.
		h := max(m.height-2, 1)
		if m.ready {
			m.viewport.Width, m.viewport.Height = m.width, h
		} else {
			m.viewport = viewport.New(m.width, h)
			m.viewport.KeyMap = scrollKeys()
			m.ready = true
		}
		m.render()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "enter":
			return m.handleEnter()

		case "up", "down":
			m.recall(msg.String() == "up")
			return m, nil

		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd

		case "1", "2", "3", "4", "5", "6", "7", "8", "9":
			// Mid-conversation a digit on an empty line picks that reply.
			if m.input.Value() == "" && m.engine.Conv.Running() {
				m.input.SetValue(msg.String())
				return m.handleEnter()
			}
		}

	case outputMsg:
		m = m.write(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// recall steps through command history. Walking past the newest entry
// clears the input.
func (m *Model) recall(older bool) {
	var (
		cmd string
		ok  bool
	)
	if older {
		if cmd, ok = m.history.Prev(); !ok {
			return
		}
	} else if cmd, ok = m.history.Next(); !ok {
		m.history.ResetCursor()
	}
	m.input.SetValue(cmd)
	m.input.CursorEnd()
}

func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")

	if input == "" {
		return m, nil
	}

	m.history.Push(input)
	m.history.ResetCursor()

	if repeat := strings.ToLower(input); repeat == "again" || repeat == "g" {
		if m.lastCmd == "" {
			m = m.write(outputMsg{command: input, lines: []string{"Nothing to repeat."}, meta: true})
			return m, nil
		}
		input = m.lastCmd
	}

	if strings.HasPrefix(input, "/") {
		lines, cmd := m.handleMeta(input)
		m = m.write(outputMsg{command: input, lines: lines, meta: true})
		return m, cmd
	}
	m.lastCmd = input

	result := m.engine.Step(input)
	lines := result.Output
	if m.trace {
		lines = append(lines, cli.TraceLines(result)...)
	}
	m = m.write(outputMsg{command: input, lines: lines})
	return m, nil
}

// write appends msg to the transcript followed by a blank separator.
func (m Model) write(msg outputMsg) Model {
	if msg.command != "" {
		m.transcript = append(m.transcript, entry{text: "> " + msg.command, echo: true})
	}
	for _, line := range msg.lines {
		e := entry{text: line, meta: msg.meta}
		if !msg.meta {
			e.kind = classifyLine(line)
		}
		m.transcript = append(m.transcript, e)
	}
	m.transcript = append(m.transcript, entry{})
	m.render()
	return m
}

// render restyles the whole transcript at the current width and pins the
// viewport to the bottom.
func (m *Model) render() {
	if !m.ready {
		return
	}
	width := max(m.width, 10)

	out := make([]string, 0, len(m.transcript))
	for _, e := range m.transcript {
		if e.text == "" {
			out = append(out, "")
			continue
		}
		text := wordWrap(e.text, width)
		switch {
		case e.echo:
			text = stylePlayerInput.Render(text)
		case e.meta:
			text = styledSystemMsg(text)
		default:
			text = renderLineKind(text, e.kind)
		}
		out = append(out, text)
	}

	m.viewport.SetContent(strings.Join(out, "\n"))
	m.viewport.GotoBottom()
}

// wordWrap breaks text at spaces so no row exceeds width. Indented lines,
// such as numbered replies, keep their indent on every row.
func wordWrap(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}

	indent := text[:len(text)-len(strings.TrimLeft(text, " "))]
	var rows []string
	row := indent
	for _, word := range strings.Fields(text) {
		switch {
		case row == indent:
			row += word
		case len(row)+1+len(word) > width:
			rows = append(rows, row)
			row = indent + word
		default:
			row += " " + word
		}
	}
	return strings.Join(append(rows, row), "\n")
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	return m.viewport.View() + "\n" + m.renderStatusBar() + "\n" + m.input.View()
}

// handleMeta runs a slash command. The returned tea.Cmd, when non-nil,
// produces follow-up game output.
func (m *Model) handleMeta(input string) ([]string, tea.Cmd) {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)
	if i := strings.IndexByte(arg, ' '); i >= 0 {
		arg = arg[:i]
	}

	switch name {
	case "/quit", "/exit":
		m.quitting = true
		return []string{"Goodbye."}, tea.Quit

	case "/save":
		return m.cmdSave(arg), nil

	case "/load":
		out, ok := m.cmdLoad(arg)
		if !ok {
			return out, nil
		}
		return out, emit(m.engine.Look())

	case "/saves":
		return m.cmdSaves(), nil

	case "/delete":
		if arg == "" {
			return []string{"Usage: /delete <name>"}, nil
		}
		if err := m.store.Delete(m.ctx, arg); err != nil {
			return []string{fmt.Sprintf("Delete failed: %v", err)}, nil
		}
		return []string{fmt.Sprintf("Deleted %s.", arg)}, nil

	case "/help":
		return m.cmdHelp(), nil

	case "/state":
		return cli.StateLines(m.engine), nil

	case "/graph":
		if arg == "" {
			arg = m.engine.Conv.State().Graph
		}
		if arg == "" {
			return []string{"Usage: /graph <dialogue> (or run it mid-conversation)"}, nil
		}
		out, err := m.engine.Diagram(arg)
		if err != nil {
			return []string{err.Error()}, nil
		}
		return strings.Split(strings.TrimRight(out, "\n"), "\n"), nil

	case "/trace":
		m.trace = !m.trace
		if m.trace {
			return []string{"Trace output enabled."}, nil
		}
		return []string{"Trace output disabled."}, nil

	default:
		return []string{fmt.Sprintf("Unknown command: %s. Type /help for available commands.", name)}, nil
	}
}

func (m *Model) cmdSave(name string) []string {
	if name == "" {
		name = cli.DefaultSlot
	}

	data, err := m.engine.Save()
	if err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}
	if err := m.store.Save(m.ctx, name, data); err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}

	return []string{fmt.Sprintf("Game saved to %s.", name)}
}

// cmdLoad restores a slot and reports whether it succeeded.
func (m *Model) cmdLoad(name string) ([]string, bool) {
	if name == "" {
		name = cli.DefaultSlot
	}

	data, err := m.store.Load(m.ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return []string{fmt.Sprintf("Load failed: no save named %s.", name)}, false
	}
	if err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}, false
	}
	if err := m.engine.Load(data); err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}, false
	}

	return []string{fmt.Sprintf("Game loaded from %s (turn %d).", name, m.engine.Session.Turn)}, true
}

func (m *Model) cmdSaves() []string {
	names, err := m.store.List(m.ctx)
	if err != nil {
		return []string{fmt.Sprintf("Listing saves failed: %v", err)}
	}
	if len(names) == 0 {
		return []string{"No saved games."}
	}
	return []string{"Saved games: " + strings.Join(names, ", ")}
}

func (m *Model) cmdHelp() []string {
	out := append([]string(nil), cli.HelpLines...)
	out = append(out, engine.HelpText...)
	return append(out,
		"  again (g)          repeat your last command",
		"",
		"Keys: 1-9 pick a reply, PgUp/PgDn scroll, Up/Down recall commands",
	)
}

// scrollKeys leaves the arrow keys to command history.
func scrollKeys() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
