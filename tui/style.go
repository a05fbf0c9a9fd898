package tui

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleStatusTalk = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("228")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleNarration = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleSpeaker = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228")).
			Bold(true)

	styleSpeech = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228"))

	styleChoice = lipgloss.NewStyle().
			Foreground(lipgloss.Color("117"))

	styleQuest = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	styleHeading = lipgloss.NewStyle().
			Bold(true)

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	stylePlayerInput = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleTrace = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// lineKind identifies the type of an output line for styling.
type lineKind int

const (
	kindNarration lineKind = iota
	kindSpeech
	kindChoice
	kindQuest
	kindHeading
	kindSystem
	kindError
	kindTrace
)

var (
	speechLine = regexp.MustCompile(`^([^":]+): "(.*)"$`)
	choiceLine = regexp.MustCompile(`^\s+\d+\. `)
)

// classifyLine determines what kind of output line this is.
func classifyLine(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "[trace]"):
		return kindTrace
	case strings.HasPrefix(line, "[Quest "):
		return kindQuest
	case strings.HasPrefix(line, "[error"):
		return kindError
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		return kindSystem
	case line == "You see:", line == "Active quests:", line == "Completed quests:":
		return kindHeading
	case strings.HasPrefix(line, "I don't understand"),
		strings.HasPrefix(line, "You're not talking"),
		strings.HasPrefix(line, "You're talking to"),
		strings.HasPrefix(line, "Pick a number"),
		strings.HasPrefix(line, "Nobody called"):
		return kindError
	case choiceLine.MatchString(line):
		return kindChoice
	case speechLine.MatchString(line):
		return kindSpeech
	default:
		return kindNarration
	}
}

// renderLineKind applies the style for a given lineKind.
func renderLineKind(line string, kind lineKind) string {
	switch kind {
	case kindSpeech:
		return styledSpeech(line)
	case kindChoice:
		return styleChoice.Render(line)
	case kindQuest:
		return styleQuest.Render(line)
	case kindHeading:
		return styleHeading.Render(line)
	case kindSystem:
		return styleSystem.Render(line)
	case kindError:
		return styleError.Render(line)
	case kindTrace:
		return styleTrace.Render(line)
	default:
		return styleNarration.Render(line)
	}
}

// styledSpeech renders `Name: "text"` with the speaker in bold. Wrapped
// speech only has its first line matched, so the rest keeps the speech color.
func styledSpeech(line string) string {
	first, rest, wrapped := strings.Cut(line, "\n")
	name, text, ok := strings.Cut(first, ": ")
	if !ok {
		return styleSpeech.Render(line)
	}
	out := styleSpeaker.Render(name+":") + " " + styleSpeech.Render(text)
	if wrapped {
		out += "\n" + styleSpeech.Render(rest)
	}
	return out
}

// styledSystemMsg renders a system message in gray with brackets.
func styledSystemMsg(text string) string {
	return styleSystem.Render("[" + text + "]")
}
