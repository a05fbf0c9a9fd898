package graph

import (
	"fmt"
	"strings"

	"github.com/nathoo/parley/types"
)

// Overlay carries runtime state to highlight in an exported diagram.
type Overlay struct {
	Current string   // node name the conversation sits on
	Hidden  []string // node names currently invisible under quest state
}

// Mermaid renders the graph as a Mermaid flowchart.
// Shapes: Entry ((circle)), Line [rectangle], Response [/parallelogram/],
// End ([stadium]). Conditional nodes carry their condition in the label.
func Mermaid(g *Graph, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, n := range g.nodes {
		id := mermaidID(n.Name)
		opener, closer := "[", "]"
		switch n.Kind {
		case types.NodeEntry:
			opener, closer = "((", "))"
		case types.NodeResponse:
			opener, closer = "[/", "/]"
		case types.NodeTerminal:
			opener, closer = "([", "])"
		}

		label := n.Name
		if n.Kind == types.NodeLine && n.Speaker != "" {
			label = n.Speaker + ": " + n.Name
		}
		if n.Condition.Kind != types.CondNone {
			label += fmt.Sprintf(" <br/> %s(%s)", n.Condition.Kind, n.Condition.QuestID)
		}
		label = strings.ReplaceAll(label, "\"", "'")
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, label, closer)

		for _, e := range g.Outbound(n.ID) {
			to := mermaidID(g.nodes[e.To].Name)
			if e.Port == types.PortExit {
				fmt.Fprintf(&sb, "    %s --> %s\n", id, to)
			} else {
				fmt.Fprintf(&sb, "    %s -. \"%s\" .-> %s\n", id, e.Port, to)
			}
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay\n")
		sb.WriteString("    classDef hidden fill:#eeeeee,stroke:#9e9e9e,stroke-dasharray:4,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		seen := map[string]bool{}
		for _, name := range overlay.Hidden {
			id := mermaidID(name)
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			fmt.Fprintf(&sb, "    class %s hidden;\n", id)
		}
		if overlay.Current != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", mermaidID(overlay.Current))
		}
	}

	return sb.String()
}

func mermaidID(name string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_")
	return r.Replace(name)
}
