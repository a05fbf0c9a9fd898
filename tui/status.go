package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/parley/engine/quest"
)

// statusLeft names who the player is talking to, or the game title.
func (m Model) statusLeft() string {
	if st := m.engine.Conv.State(); st.Running {
		return " Talking to " + m.engine.Defs.NPCName(st.NPC)
	}
	return " " + m.engine.Defs.Game.Title
}

// trackedQuest summarizes the oldest active quest, with a count of the rest.
func (m Model) trackedQuest() string {
	active := m.engine.Ledger.Active()
	if len(active) == 0 {
		return ""
	}
	s := quest.Summary(active[0])
	if more := len(active) - 1; more > 0 {
		s += fmt.Sprintf(" +%d", more)
	}
	return s
}

// renderStatusBar produces a full-width inverted status line showing the
// conversation partner, the tracked quest, inventory, and turn count.
func (m Model) renderStatusBar() string {
	turn := m.engine.Session.Turn

	left := m.statusLeft()
	if q := m.trackedQuest(); q != "" {
		left += " | Quest: " + q
	}
	right := fmt.Sprintf("T:%d ", turn)

	// Show inventory items if they fit, otherwise just count.
	if items := m.engine.Session.Items(); len(items) > 0 {
		names := make([]string, 0, len(items))
		for _, id := range items {
			name := strings.ReplaceAll(id, "_", " ")
			if n := m.engine.Session.Inventory[id]; n > 1 {
				name = fmt.Sprintf("%s x%d", name, n)
			}
			names = append(names, name)
		}
		candidate := fmt.Sprintf("Inv: %s | T:%d ", strings.Join(names, ", "), turn)
		if lipgloss.Width(left)+lipgloss.Width(candidate)+2 < m.width {
			right = candidate
		} else {
			right = fmt.Sprintf("Inv: %d | T:%d ", len(items), turn)
		}
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	style := styleStatusBar
	if m.engine.Conv.Running() {
		style = styleStatusTalk
	}
	return style.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}
