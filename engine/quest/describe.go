package quest

import (
	"fmt"
	"strings"

	"github.com/nathoo/parley/types"
)

// Satisfied reports whether a requirement has reached its target count.
func Satisfied(r types.Requirement) bool {
	return r.Current >= r.Required
}

// AllSatisfied reports whether every requirement of q is satisfied.
// A quest with no requirements is satisfied.
func AllSatisfied(q types.Quest) bool {
	for _, r := range q.Requirements {
		if !Satisfied(r) {
			return false
		}
	}
	return true
}

// Describe renders a requirement for the journal.
func Describe(r types.Requirement, names func(string) string) string {
	target := r.TargetID
	if names != nil {
		if n := names(r.TargetID); n != "" {
			target = n
		}
	}
	switch r.Kind {
	case types.TalkToNPC:
		if r.Required > 1 {
			return fmt.Sprintf("Talk to %s: %d/%d", target, min(r.Current, r.Required), r.Required)
		}
		return "Talk to " + target
	case types.CollectItem:
		return fmt.Sprintf("Collect %s: %d/%d", target, min(r.Current, r.Required), r.Required)
	default:
		return fmt.Sprintf("%s %s: %d/%d", r.Kind, target, r.Current, r.Required)
	}
}

// Checklist renders one line per requirement, each marked done or open.
func Checklist(q types.Quest, names func(string) string) []string {
	out := make([]string, 0, len(q.Requirements))
	for _, r := range q.Requirements {
		mark := "○"
		if q.Completed || Satisfied(r) {
			mark = "✓"
		}
		out = append(out, mark+" "+Describe(r, names))
	}
	return out
}

// Summary is a one-line journal entry such as "Find the Gem (1/2)".
func Summary(q types.Quest) string {
	done := 0
	for _, r := range q.Requirements {
		if Satisfied(r) {
			done++
		}
	}
	var sb strings.Builder
	sb.WriteString(q.Name)
	if q.Completed {
		sb.WriteString(" (done)")
	} else if len(q.Requirements) > 0 {
		fmt.Fprintf(&sb, " (%d/%d)", done, len(q.Requirements))
	}
	return sb.String()
}
