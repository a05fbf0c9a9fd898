// Package resolve maps names typed by the player to NPC ids.
package resolve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nathoo/parley/engine/state"
)

// AmbiguityError indicates multiple NPCs matched a name.
type AmbiguityError struct {
	Name       string
	Candidates []string
}

func (e *AmbiguityError) Error() string {
	names := strings.Join(e.Candidates, ", ")
	return fmt.Sprintf("which %s? (%s)", e.Name, names)
}

// NotFoundError indicates no NPC matched a name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("nobody called %q is here", e.Name)
}

// NPC resolves a name to an NPC id. Exact ids win; otherwise display names
// are matched case-insensitively, whole or by single word.
func NPC(defs *state.Defs, name string) (string, error) {
	if _, ok := defs.NPCs[name]; ok {
		return name, nil
	}

	nameLower := strings.ToLower(strings.TrimSpace(name))
	if nameLower == "" {
		return "", &NotFoundError{Name: name}
	}

	var exact, partial []string
	for _, id := range defs.NPCIDs() {
		switch matchName(id, defs.NPCs[id].Name, nameLower) {
		case matchExact:
			exact = append(exact, id)
		case matchWord:
			partial = append(partial, id)
		}
	}

	// A full-name match beats word matches ("guard" vs "guard captain").
	matches := exact
	if len(matches) == 0 {
		matches = partial
	}

	switch len(matches) {
	case 0:
		return "", &NotFoundError{Name: name}
	case 1:
		return matches[0], nil
	default:
		sort.Strings(matches)
		names := make([]string, len(matches))
		for i, id := range matches {
			names[i] = defs.NPCName(id)
		}
		return "", &AmbiguityError{Name: name, Candidates: names}
	}
}

type match int

const (
	matchNone match = iota
	matchWord
	matchExact
)

// matchName compares the query against an NPC's display name and id.
func matchName(id, displayName, nameLower string) match {
	idLower := strings.ToLower(id)
	if idLower == nameLower {
		return matchExact
	}
	// Underscore normalization: "old guard" matches id "old_guard".
	if strings.ReplaceAll(nameLower, " ", "_") == idLower {
		return matchExact
	}
	if displayName == "" {
		return matchNone
	}
	displayLower := strings.ToLower(displayName)
	if displayLower == nameLower {
		return matchExact
	}
	// Word-based partial match: "guard" matches "Old Guard".
	for _, word := range strings.Fields(displayLower) {
		if word == nameLower {
			return matchWord
		}
	}
	return matchNone
}
